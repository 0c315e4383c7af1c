package stream

import (
	"context"
	"sync/atomic"
)

// DefaultBuffer bounds how far the upstream may run ahead of the client.
const DefaultBuffer = 16

// Producer pushes chunks through emit until it finishes or ctx ends. emit
// fails once the session is cancelled.
type Producer func(ctx context.Context, emit func(chunk string) error) error

type State int32

const (
	StateOpen State = iota
	StateClosed
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Session owns one upstream producer for one client request.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc
	chunks chan string
	err    error
	state  atomic.Int32
}

// Start runs produce in its own goroutine. Cancelling parent or calling
// Cancel stops it.
func Start(parent context.Context, produce Producer, buffer int) *Session {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	ctx, cancel := context.WithCancel(parent)
	s := &Session{ctx: ctx, cancel: cancel, chunks: make(chan string, buffer)}

	go func() {
		defer close(s.chunks)
		s.err = produce(ctx, func(chunk string) error {
			select {
			case s.chunks <- chunk:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()
	return s
}

// Chunks yields upstream chunks in order and closes when the producer returns.
func (s *Session) Chunks() <-chan string { return s.chunks }

// Err is the producer's result. Valid only after Chunks is closed.
func (s *Session) Err() error { return s.err }

// Cancel stops the upstream producer.
func (s *Session) Cancel() { s.cancel() }

// Done is closed once the session is cancelled.
func (s *Session) Done() <-chan struct{} { return s.ctx.Done() }

func (s *Session) State() State { return State(s.state.Load()) }

// finish moves the session to a terminal state once.
func (s *Session) finish(st State) {
	s.state.CompareAndSwap(int32(StateOpen), int32(st))
	s.cancel()
}

// Static is a producer that emits text as a single chunk.
func Static(text string) Producer {
	return func(ctx context.Context, emit func(string) error) error {
		return emit(text)
	}
}

// FallbackBeforeFirst runs primary, and if it fails before emitting anything
// switches to the producer returned by fallback. A nil fallback producer keeps
// the primary error.
func FallbackBeforeFirst(primary Producer, fallback func(err error) Producer) Producer {
	return func(ctx context.Context, emit func(string) error) error {
		started := false
		err := primary(ctx, func(chunk string) error {
			started = true
			return emit(chunk)
		})
		if err == nil || started || ctx.Err() != nil {
			return err
		}
		next := fallback(err)
		if next == nil {
			return err
		}
		return next(ctx, emit)
	}
}
