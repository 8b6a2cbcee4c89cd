package llmservice

import (
	"context"
	"fmt"

	"document-chat/internal/config"
	"document-chat/internal/models"
)

// Completer sends a system and a user message to the completion service and
// returns the reply text. An unrecognized reply is an empty string, not an
// error.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// StreamFunc receives reply fragments in order. Returning an error stops
// forwarding but not the request.
type StreamFunc func(delta string) error

// Streamer is implemented by completers that can forward tokens as they are
// generated.
type Streamer interface {
	Stream(ctx context.Context, system, user string, fn StreamFunc) (string, error)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func chatMessages(system, user string) []Message {
	return []Message{
		{Role: models.RoleSystem, Content: system},
		{Role: models.RoleUser, Content: user},
	}
}

// ServiceError is returned when the completion service cannot be reached or
// answers with a non-2xx status.
type ServiceError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("completion service returned status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("completion service request failed: %v", e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// New builds the completer selected by cfg.Provider.
func New(cfg *config.LLMConfig) (Completer, error) {
	switch cfg.Provider {
	case "langchain", "ollama":
		return NewLangChainClient(cfg)
	case "http", "":
		return NewHTTPClient(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %q", cfg.Provider)
	}
}
