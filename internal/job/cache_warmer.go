package job

import (
	"context"
	"log"
	"time"

	"tickerdesk/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Warmable is the set of cached getters the warmer keeps hot.
type Warmable interface {
	Quote(ctx context.Context) (*domain.Quote, error)
	News(ctx context.Context) ([]domain.NewsItem, error)
	Candles(ctx context.Context, period string, count int) ([]domain.Candle, error)
}

// CacheWarmer reads through the cache on a schedule so clients rarely pay for
// a refill. It never evicts; expiry stays lazy.
type CacheWarmer struct {
	tracer   trace.Tracer
	target   Warmable
	interval time.Duration
	stagger  time.Duration
}

func NewCacheWarmer(tracer trace.Tracer, target Warmable, intervalSecs int) *CacheWarmer {
	return &CacheWarmer{
		tracer:   tracer,
		target:   target,
		interval: time.Duration(intervalSecs) * time.Second,
		stagger:  5 * time.Second,
	}
}

// Start launches one loop per cached resource. Blocks until ctx is cancelled.
func (w *CacheWarmer) Start(ctx context.Context) {
	if w.interval <= 0 {
		log.Println("Cache warmer disabled")
		return
	}
	log.Printf("Cache warmer starting, interval %s", w.interval)

	go w.warmLoop(ctx, "quote", 0, func(ctx context.Context) error {
		_, err := w.target.Quote(ctx)
		return err
	})
	go w.warmLoop(ctx, "candles", w.stagger, func(ctx context.Context) error {
		_, err := w.target.Candles(ctx, domain.PeriodDay, domain.DefaultCandleCount)
		return err
	})
	// The news aggregation is the slowest refill; start it last.
	go w.warmLoop(ctx, "news", 2*w.stagger, func(ctx context.Context) error {
		_, err := w.target.News(ctx)
		return err
	})

	<-ctx.Done()
	log.Println("Cache warmer stopped")
}

func (w *CacheWarmer) warmLoop(ctx context.Context, name string, delay time.Duration, fn func(context.Context) error) {
	if delay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}

	w.warm(ctx, name, fn)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.warm(ctx, name, fn)
		}
	}
}

func (w *CacheWarmer) warm(ctx context.Context, name string, fn func(context.Context) error) {
	ctx, span := w.tracer.Start(ctx, "cache-warmer.warm")
	defer span.End()
	span.SetAttributes(attribute.String("warm.target", name))

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		log.Printf("cache warm %s error: %v", name, err)
	}
}
