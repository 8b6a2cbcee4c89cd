package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"document-chat/internal/export"
	"document-chat/internal/helper"
	"document-chat/internal/models"
	"document-chat/internal/prompt"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) uploadPDF(c *gin.Context) {
	limit := s.cfg.Server.MaxUploadBytes()
	if c.Request.ContentLength > limit {
		abortWithError(c, http.StatusRequestEntityTooLarge, tooLargeMessage(s.cfg.Server.MaxUploadMB))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWithError(c, http.StatusRequestEntityTooLarge, tooLargeMessage(s.cfg.Server.MaxUploadMB))
			return
		}
		abortWithError(c, http.StatusBadRequest, msgNoFile)
		return
	}
	if fh.Filename == "" {
		abortWithError(c, http.StatusBadRequest, msgNoFile)
		return
	}

	if err := helper.CreateFolder(s.cfg.Server.UploadDir); err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	id, err := helper.GenerateUUID()
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	// the client's filename only contributes its extension
	dst := filepath.Join(s.cfg.Server.UploadDir, id+strings.ToLower(filepath.Ext(filepath.Base(fh.Filename))))
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if !s.cfg.Server.KeepUploads {
		defer os.Remove(dst)
	}

	text, err := s.extractor.Extract(dst)
	if err != nil {
		log.Error().Err(err).Str("filename", fh.Filename).Msg("Extraction failed")
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	chars := utf8.RuneCountInString(text)
	log.Debug().Str("filename", fh.Filename).Int64("size", fh.Size).Int("chars", chars).Msg("Document extracted")
	if chars < s.cfg.Extract.MinTextLen {
		abortWithError(c, http.StatusUnprocessableEntity, msgNoText)
		return
	}

	c.JSON(http.StatusOK, models.UploadResponse{ExtractedText: text})
}

func (s *Server) chatStream(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	query := strings.TrimSpace(req.Query)
	pdfText := strings.TrimSpace(req.PDFText)
	if query == "" {
		abortWithError(c, http.StatusBadRequest, msgNoQuery)
		return
	}
	if utf8.RuneCountInString(pdfText) < s.cfg.Extract.MinTextLen {
		abortWithError(c, http.StatusUnprocessableEntity, msgShortContext)
		return
	}

	docContext := prompt.BuildContext(pdfText, s.cfg.Extract.MaxContextChars)
	system, user := s.assembler.Assemble(docContext)

	// the status is committed before the completion call; later failures
	// are reported inside the body
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	out := s.responder.Respond(c.Request.Context(), c.Writer, query, system, user)

	evt := log.Info()
	if out.Err != nil {
		evt = log.Error().Err(out.Err)
	}
	evt.Str("state", out.State.String()).
		Int("emitted", out.Emitted).
		Bool("persisted", out.Persisted).
		Int("context_chars", utf8.RuneCountInString(docContext)).
		Msg("Chat stream finished")
}

func (s *Server) history(c *gin.Context) {
	exchanges, err := s.store.ListAll(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list history")
		abortWithError(c, http.StatusInternalServerError, msgHistoryFailed)
		return
	}
	c.JSON(http.StatusOK, exchanges)
}

func (s *Server) historyExport(c *gin.Context) {
	rows, err := s.store.ListRows(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list history for export")
		abortWithError(c, http.StatusInternalServerError, msgExportFailed)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, rows); err != nil {
		log.Error().Err(err).Msg("Failed to build workbook")
		abortWithError(c, http.StatusInternalServerError, msgExportFailed)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="chat_history.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
