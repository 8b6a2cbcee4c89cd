package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"document-chat/internal/chat"
	"document-chat/internal/config"
	"document-chat/internal/db"
	"document-chat/internal/llmservice"
	"document-chat/internal/models"
	"document-chat/internal/prompt"
)

type Extractor interface {
	Extract(filePath string) (string, error)
}

type HistoryStore interface {
	chat.Store
	ListAll(ctx context.Context) ([]models.ChatExchange, error)
	ListRows(ctx context.Context) ([]db.ChatHistory, error)
}

// Server holds no per-request state; the extracted text travels with each
// chat request.
type Server struct {
	cfg       *config.Config
	extractor Extractor
	assembler *prompt.Assembler
	responder *chat.Responder
	store     HistoryStore
	router    *gin.Engine
}

func New(cfg *config.Config, extractor Extractor, completer llmservice.Completer, store HistoryStore) *Server {
	s := &Server{
		cfg:       cfg,
		extractor: extractor,
		assembler: prompt.NewAssembler(cfg.Prompt.SystemMessage, cfg.Prompt.UserTemplate),
		responder: chat.NewResponder(completer, store, cfg.LLM.Stream),
		store:     store,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(requestLogger(), gin.CustomRecovery(recovered), cors.Default())
	r.NoRoute(notFound)
	r.NoMethod(methodNotAllowed)

	r.GET("/healthz", s.healthz)
	r.POST("/upload_pdf", s.uploadPDF)
	r.POST("/chat_stream", s.chatStream)
	r.GET("/history", s.history)
	r.GET("/history/export", s.historyExport)
	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled. No write timeout is set: a chat stream
// stays open for as long as the completion takes.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
