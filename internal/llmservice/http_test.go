package llmservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"document-chat/internal/config"
)

func newTestClient(url string) *HTTPClient {
	return NewHTTPClient(&config.LLMConfig{
		BaseURL:   url,
		Key:       "test-key",
		Model:     "test-model",
		MaxTokens: 2000,
	})
}

func TestComplete_SendsTwoMessages(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "  Hello!  "}},
			},
		})
	}))
	defer server.Close()

	text, err := newTestClient(server.URL).Complete(context.Background(), "sys", "usr")
	if err != nil {
		t.Fatal(err)
	}
	if text != "Hello!" {
		t.Errorf("expected 'Hello!', got %q", text)
	}
	if got.Model != "test-model" || got.MaxTokens != 2000 || got.Stream {
		t.Errorf("unexpected request %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0] != (Message{"system", "sys"}) || got.Messages[1] != (Message{"user", "usr"}) {
		t.Errorf("unexpected messages %+v", got.Messages)
	}
}

func TestComplete_TextShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"text":"from text field"}]}`))
	}))
	defer server.Close()

	text, err := newTestClient(server.URL).Complete(context.Background(), "s", "u")
	if err != nil {
		t.Fatal(err)
	}
	if text != "from text field" {
		t.Errorf("unexpected text %q", text)
	}
}

func TestComplete_MalformedBodyIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": "nope"}`))
	}))
	defer server.Close()

	text, err := newTestClient(server.URL).Complete(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("malformed shape must not be an error: %v", err)
	}
	if text != "" {
		t.Errorf("expected empty text, got %q", text)
	}
}

func TestComplete_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Complete(context.Background(), "s", "u")
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if svcErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", svcErr.StatusCode)
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("expected body in error, got %q", err.Error())
	}
}

func TestComplete_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(url).Complete(context.Background(), "s", "u")
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if svcErr.StatusCode != 0 {
		t.Errorf("expected no status code, got %d", svcErr.StatusCode)
	}
}

func TestStream_ForwardsDeltas(t *testing.T) {
	var streamed bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		streamed = req.Stream
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": keep-alive\n\n")
		for _, part := range []string{"Hel", "lo", " there"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", part)
		}
		fmt.Fprint(w, "data: not-json\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	var deltas []string
	text, err := newTestClient(server.URL).Stream(context.Background(), "s", "u", func(d string) error {
		deltas = append(deltas, d)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !streamed {
		t.Errorf("expected stream flag in request")
	}
	if text != "Hello there" {
		t.Errorf("unexpected text %q", text)
	}
	if strings.Join(deltas, "|") != "Hel|lo| there" {
		t.Errorf("unexpected deltas %v", deltas)
	}
}

func TestStream_ConsumerErrorKeepsReading(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, part := range []string{"a", "b", "c"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", part)
		}
	}))
	defer server.Close()

	calls := 0
	text, err := newTestClient(server.URL).Stream(context.Background(), "s", "u", func(string) error {
		calls++
		return errors.New("client gone")
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("expected forwarding to stop after first error, got %d calls", calls)
	}
	if text != "abc" {
		t.Errorf("expected full text, got %q", text)
	}
}

func TestStream_DataFieldWithoutSpace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data:{\"choices\":[{\"delta\":{\"content\":\"one\"}}]}\r\n\r\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\" two\"}}]}\n\n")
		fmt.Fprint(w, "data:[DONE]\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"late\"}}]}\n\n")
	}))
	defer server.Close()

	text, err := newTestClient(server.URL).Stream(context.Background(), "s", "u", func(string) error { return nil })
	if err != nil {
		t.Fatal(err)
	}
	if text != "one two" {
		t.Errorf("expected %q, got %q", "one two", text)
	}
}

func TestNew_SelectsProvider(t *testing.T) {
	c, err := New(&config.LLMConfig{Provider: "http", BaseURL: "http://localhost", Model: "m"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*HTTPClient); !ok {
		t.Fatalf("expected *HTTPClient, got %T", c)
	}
	if _, ok := c.(Streamer); !ok {
		t.Fatalf("http client should support streaming")
	}

	c, err = New(&config.LLMConfig{Provider: "ollama", Model: "llama3"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*LangChainClient); !ok {
		t.Fatalf("expected *LangChainClient, got %T", c)
	}

	if _, err := New(&config.LLMConfig{Provider: "smoke-signals"}); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}
