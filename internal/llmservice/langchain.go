package llmservice

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"document-chat/internal/config"
)

// LangChainClient routes completions through a langchaingo model, either the
// openai provider or a local ollama server.
type LangChainClient struct {
	llm       llms.Model
	maxTokens int
}

func NewLangChainClient(llmConfig *config.LLMConfig) (*LangChainClient, error) {
	log.Debug().Str("provider", llmConfig.Provider).Str("model", llmConfig.Model).Str("base_url", llmConfig.BaseURL).Msg("Creating langchain client")
	httpClient := &http.Client{Timeout: llmConfig.Timeout}

	var (
		llm llms.Model
		err error
	)
	switch llmConfig.Provider {
	case "ollama":
		opts := []ollama.Option{
			ollama.WithModel(llmConfig.Model),
			ollama.WithHTTPClient(httpClient),
		}
		if llmConfig.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(llmConfig.BaseURL))
		}
		llm, err = ollama.New(opts...)
	default:
		llm, err = openai.New(
			openai.WithBaseURL(llmConfig.BaseURL),
			openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
			openai.WithModel(llmConfig.Model),
			openai.WithHTTPClient(httpClient),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s model: %w", llmConfig.Provider, err)
	}
	return &LangChainClient{llm: llm, maxTokens: llmConfig.MaxTokens}, nil
}

func (c *LangChainClient) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.llm.GenerateContent(ctx, messageContent(system, user), llms.WithMaxTokens(c.maxTokens))
	if err != nil {
		return "", &ServiceError{Err: err}
	}
	return ReplyFromContent(resp).Content, nil
}

func (c *LangChainClient) Stream(ctx context.Context, system, user string, fn StreamFunc) (string, error) {
	var received strings.Builder
	forward := true
	_, err := c.llm.GenerateContent(ctx, messageContent(system, user),
		llms.WithMaxTokens(c.maxTokens),
		llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			received.Write(chunk)
			if forward && len(chunk) > 0 {
				if ferr := fn(string(chunk)); ferr != nil {
					forward = false
				}
			}
			return nil
		}),
	)
	if err != nil {
		return received.String(), &ServiceError{Err: err}
	}
	return received.String(), nil
}

func messageContent(system, user string) []llms.MessageContent {
	return []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextContent{Text: system}},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: user}},
		},
	}
}
