package job

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"tickerdesk/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

func TestNewCacheWarmerInterval(t *testing.T) {
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	w := NewCacheWarmer(tracer, &stubWarmable{}, 2)
	if w.interval != 2*time.Second {
		t.Fatalf("expected 2s interval, got %v", w.interval)
	}
}

func TestCacheWarmerDisabledReturns(t *testing.T) {
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	stub := &stubWarmable{}
	done := make(chan struct{})
	go func() {
		NewCacheWarmer(tracer, stub, 0).Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled warmer should return immediately")
	}
	if stub.quotes.Load() != 0 {
		t.Fatal("disabled warmer should not fetch")
	}
}

func TestCacheWarmerStart(t *testing.T) {
	t.Parallel()

	tracer := trace.NewNoopTracerProvider().Tracer("test")
	stub := &stubWarmable{}
	w := NewCacheWarmer(tracer, stub, 1)
	w.stagger = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	eventually(t, func() bool {
		return stub.quotes.Load() > 0 && stub.news.Load() > 0 && stub.candles.Load() > 0
	})
}

func TestWarmSwallowsErrors(t *testing.T) {
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	w := NewCacheWarmer(tracer, &stubWarmable{}, 1)

	called := false
	w.warm(context.Background(), "quote", func(context.Context) error {
		called = true
		return errors.New("upstream down")
	})
	if !called {
		t.Fatal("expected warm func to run")
	}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met")
}

type stubWarmable struct {
	quotes, news, candles atomic.Int32
}

func (s *stubWarmable) Quote(context.Context) (*domain.Quote, error) {
	s.quotes.Add(1)
	return &domain.Quote{}, nil
}

func (s *stubWarmable) News(context.Context) ([]domain.NewsItem, error) {
	s.news.Add(1)
	return nil, nil
}

func (s *stubWarmable) Candles(context.Context, string, int) ([]domain.Candle, error) {
	s.candles.Add(1)
	return nil, nil
}
