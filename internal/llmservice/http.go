package llmservice

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"document-chat/internal/config"
)

const maxErrorBody = 400

// HTTPClient talks to an OpenAI-compatible /chat/completions endpoint.
type HTTPClient struct {
	baseURL    string
	key        string
	model      string
	maxTokens  int
	httpClient *http.Client
}

type chatRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
	Stream    bool      `json:"stream,omitempty"`
}

// NewHTTPClient does not set a client timeout unless cfg.Timeout is positive.
func NewHTTPClient(cfg *config.LLMConfig) *HTTPClient {
	if cfg.Key == "" {
		log.Warn().Str("env", cfg.KeyEnv).Msg("No completion API key configured")
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		key:        strings.TrimPrefix(cfg.Key, "Bearer "),
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *HTTPClient) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.post(ctx, chatRequest{
		Model:     c.model,
		Messages:  chatMessages(system, user),
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ServiceError{Err: err}
	}

	reply := DecodeReply(raw)
	log.Debug().Str("shape", reply.Shape.String()).Int("bytes", len(reply.Content)).Msg("Completion received")
	return reply.Content, nil
}

// Stream requests a server-sent event stream and forwards every delta to fn.
// The returned text is everything that was received.
func (c *HTTPClient) Stream(ctx context.Context, system, user string, fn StreamFunc) (string, error) {
	resp, err := c.post(ctx, chatRequest{
		Model:     c.model,
		Messages:  chatMessages(system, user),
		MaxTokens: c.maxTokens,
		Stream:    true,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var response strings.Builder
	forward := true
	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return response.String(), &ServiceError{Err: err}
		}

		line = strings.TrimRight(line, "\r\n")
		if data, ok := strings.CutPrefix(line, "data:"); ok {
			// a single space after the colon is optional
			data = strings.TrimPrefix(data, " ")
			if strings.TrimSpace(data) == "[DONE]" {
				break
			}
			var chunk completionPayload
			if jerr := json.Unmarshal([]byte(data), &chunk); jerr == nil {
				if _, delta := firstChoice(chunk); delta != "" {
					response.WriteString(delta)
					if forward {
						if ferr := fn(delta); ferr != nil {
							log.Debug().Err(ferr).Msg("Stream consumer stopped, draining completion")
							forward = false
						}
					}
				}
			}
		}

		if err == io.EOF {
			break
		}
	}

	return response.String(), nil
}

func (c *HTTPClient) post(ctx context.Context, body chatRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.key != "" {
		req.Header.Set("Authorization", "Bearer "+c.key)
	}
	if body.Stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ServiceError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &ServiceError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(errBody))}
	}
	return resp, nil
}
