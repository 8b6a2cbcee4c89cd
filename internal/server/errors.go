package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"document-chat/internal/models"
)

const (
	msgNoFile        = "No file provided"
	msgNoText        = "No parsable text extracted from PDF. Try another file or use OCR."
	msgNoQuery       = "No query provided"
	msgShortContext  = "Insufficient PDF text context; upload a clearer PDF."
	msgInvalidJSON   = "Invalid JSON body"
	msgHistoryFailed = "Failed to load chat history"
	msgExportFailed  = "Failed to export chat history"
)

// apiError is the envelope for every failure reported before a response
// body has been started.
type apiError struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, apiError{Error: message, Status: status})
}

func tooLargeMessage(maxMB int64) string {
	return fmt.Sprintf("PDF too large. Max %dMB.", maxMB)
}

func notFound(c *gin.Context) {
	abortWithError(c, http.StatusNotFound, http.StatusText(http.StatusNotFound))
}

func methodNotAllowed(c *gin.Context) {
	abortWithError(c, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
}

// recovered reports a panic in the JSON envelope, or inline with the error
// marker when a plain-text body is already on the wire.
func recovered(c *gin.Context, err any) {
	msg := fmt.Sprintf("%v", err)
	if !c.Writer.Written() {
		abortWithError(c, http.StatusInternalServerError, msg)
		return
	}
	log.Error().Str("panic", msg).Str("path", c.Request.URL.Path).Msg("Panic after response started")
	fmt.Fprintf(c.Writer, models.ServerErrorFormat, msg)
	c.Writer.Flush()
	c.Abort()
}
