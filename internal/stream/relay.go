package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrAbandoned marks a stream that ended without a [DONE] sentinel because the
// client left or the upstream broke after content was sent.
var ErrAbandoned = errors.New("stream abandoned")

// DoneSentinel terminates every successfully completed stream.
const DoneSentinel = "[DONE]"

// Event is one SSE payload.
type Event struct {
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

// SetHeaders prepares an SSE response.
func SetHeaders(h http.Header) {
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// ErrorEvent renders an upstream failure as content a reader can show inline.
func ErrorEvent(msg string) Event {
	return Event{Content: "\n> ⚠️ " + msg + "\n", Error: msg}
}

// Relay copies session chunks to w as SSE events, flushing after each one.
//
// A clean finish writes the sentinel and returns nil. An upstream error before
// any content writes one error event plus the sentinel and returns that error.
// An upstream error after content, a client disconnect or a write failure
// returns ErrAbandoned with no sentinel.
func Relay(ctx context.Context, w io.Writer, flush func(), s *Session) error {
	if flush == nil {
		flush = func() {}
	}
	sent := 0
	for {
		select {
		case <-ctx.Done():
			s.finish(StateErrored)
			return fmt.Errorf("%w: %w", ErrAbandoned, ctx.Err())
		case chunk, ok := <-s.Chunks():
			if !ok {
				return finishRelay(ctx, w, flush, s, sent)
			}
			if chunk == "" {
				continue
			}
			if ctx.Err() != nil {
				s.finish(StateErrored)
				return fmt.Errorf("%w: %w", ErrAbandoned, ctx.Err())
			}
			if err := WriteEvent(w, Event{Content: chunk}); err != nil {
				s.finish(StateErrored)
				return fmt.Errorf("%w: %w", ErrAbandoned, err)
			}
			flush()
			sent++
		}
	}
}

func finishRelay(ctx context.Context, w io.Writer, flush func(), s *Session, sent int) error {
	err := s.Err()
	switch {
	case err == nil:
		if werr := WriteDone(w); werr != nil {
			s.finish(StateErrored)
			return fmt.Errorf("%w: %w", ErrAbandoned, werr)
		}
		flush()
		s.finish(StateClosed)
		return nil
	case ctx.Err() != nil:
		s.finish(StateErrored)
		return fmt.Errorf("%w: %w", ErrAbandoned, ctx.Err())
	case sent > 0:
		s.finish(StateErrored)
		return fmt.Errorf("%w: %w", ErrAbandoned, err)
	}

	s.finish(StateErrored)
	if werr := WriteEvent(w, ErrorEvent(err.Error())); werr != nil {
		return fmt.Errorf("%w: %w", ErrAbandoned, werr)
	}
	if werr := WriteDone(w); werr != nil {
		return fmt.Errorf("%w: %w", ErrAbandoned, werr)
	}
	flush()
	return err
}

// WriteEvent writes one `data: <json>` frame.
func WriteEvent(w io.Writer, ev Event) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ev); err != nil {
		return err
	}
	payload := bytes.TrimRight(buf.Bytes(), "\n")
	_, err := fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}

// WriteDone writes the terminating sentinel frame.
func WriteDone(w io.Writer) error {
	_, err := fmt.Fprintf(w, "data: %s\n\n", DoneSentinel)
	return err
}
