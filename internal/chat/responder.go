package chat

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"document-chat/internal/llmservice"
	"document-chat/internal/models"
)

type State int

const (
	StateCalling State = iota
	StateStreaming
	StatePersisting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCalling:
		return "calling"
	case StateStreaming:
		return "streaming"
	case StatePersisting:
		return "persisting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// FlushWriter is the caller-facing side of a response. gin.ResponseWriter and
// httptest.ResponseRecorder both satisfy it.
type FlushWriter interface {
	io.Writer
	Flush()
}

type Store interface {
	Append(ctx context.Context, query, response string) error
}

// Outcome describes how a single Respond call ended.
type Outcome struct {
	State     State
	Emitted   int // characters written to the caller
	Persisted bool
	// Err is the completion error for StateFailed, or the store error when
	// the reply could not be persisted.
	Err      error
	WriteErr error
}

// Responder runs Calling -> Streaming -> Persisting -> Done, or ends in
// Failed with an inline error marker.
//
// By default the whole reply is fetched before the first character goes out.
// With tokenStream set and a completer that implements llmservice.Streamer,
// fragments are forwarded as they arrive.
type Responder struct {
	completer   llmservice.Completer
	store       Store
	tokenStream bool
}

func NewResponder(completer llmservice.Completer, store Store, tokenStream bool) *Responder {
	return &Responder{completer: completer, store: store, tokenStream: tokenStream}
}

// Respond never returns early because the caller went away: generation and
// persistence run on a context that ignores cancellation.
func (r *Responder) Respond(ctx context.Context, w FlushWriter, query, system, user string) Outcome {
	ctx = context.WithoutCancel(ctx)
	em := &emitter{w: w}

	var (
		text string
		err  error
	)
	streamer, canStream := r.completer.(llmservice.Streamer)
	if r.tokenStream && canStream {
		text, err = streamer.Stream(ctx, system, user, em.emit)
	} else {
		text, err = r.completer.Complete(ctx, system, user)
		if err == nil {
			// an error here only means the caller is gone
			_ = em.emit(text)
		}
	}

	if err != nil {
		log.Error().Err(err).Msg("Completion failed")
		_ = em.emit(fmt.Sprintf(models.ServerErrorFormat, err.Error()))
		return Outcome{State: StateFailed, Emitted: em.chars, Err: err, WriteErr: em.err}
	}

	out := Outcome{State: StatePersisting, Emitted: em.chars, WriteErr: em.err}
	if em.err != nil {
		log.Debug().Err(em.err).Int("emitted", em.chars).Msg("Caller went away during streaming")
	}

	text = strings.TrimSpace(text)
	if text != "" {
		if err := r.store.Append(ctx, query, text); err != nil {
			log.Error().Err(err).Msg("Failed to persist chat exchange")
			out.Err = err
		} else {
			out.Persisted = true
		}
	}
	out.State = StateDone
	return out
}

// emitter writes one character at a time and flushes after each. After the
// first write error it stops writing.
type emitter struct {
	w     FlushWriter
	chars int
	err   error
	buf   [utf8.UTFMax]byte
}

func (e *emitter) emit(s string) error {
	for _, ch := range s {
		if e.err != nil {
			return e.err
		}
		n := utf8.EncodeRune(e.buf[:], ch)
		if _, err := e.w.Write(e.buf[:n]); err != nil {
			e.err = err
			return err
		}
		e.w.Flush()
		e.chars++
	}
	return e.err
}
