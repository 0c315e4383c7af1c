package news

import (
	"context"
	"log"
	"sync"
	"time"

	"tickerdesk/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultSourceTimeout    = 15 * time.Second
	DefaultAggregateTimeout = 20 * time.Second
)

// Aggregator fans out to every source and collects whatever comes back in time.
type Aggregator struct {
	sources          []Source
	sourceTimeout    time.Duration
	aggregateTimeout time.Duration
	tracer           trace.Tracer
}

func NewAggregator(tracer trace.Tracer, sources []Source, sourceTimeout, aggregateTimeout time.Duration) *Aggregator {
	if sourceTimeout <= 0 {
		sourceTimeout = DefaultSourceTimeout
	}
	if aggregateTimeout <= 0 {
		aggregateTimeout = DefaultAggregateTimeout
	}
	return &Aggregator{
		sources:          sources,
		sourceTimeout:    sourceTimeout,
		aggregateTimeout: aggregateTimeout,
		tracer:           tracer,
	}
}

// Sources returns the configured sources in fetch order.
func (a *Aggregator) Sources() []Source { return a.sources }

// Collect returns the concatenated items of every source that answered before
// its own timeout and the aggregate ceiling, in configured source order.
func (a *Aggregator) Collect(ctx context.Context) []domain.RawItem {
	ctx, span := a.tracer.Start(ctx, "news.aggregate")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, a.aggregateTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make([][]domain.RawItem, len(a.sources))
		failed  int
	)

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range a.sources {
		g.Go(func() error {
			items, err := a.fetchOne(gctx, src)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				log.Printf("news source %s failed: %v", src.Name(), err)
				return nil
			}
			results[i] = items
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		log.Printf("news aggregation hit %s ceiling, using completed sources", a.aggregateTimeout)
	}

	mu.Lock()
	defer mu.Unlock()

	var out []domain.RawItem
	answered := 0
	for _, items := range results {
		if items != nil {
			answered++
		}
		out = append(out, items...)
	}
	span.SetAttributes(
		attribute.Int("news.sources", len(a.sources)),
		attribute.Int("news.sources_answered", answered),
		attribute.Int("news.sources_failed", failed),
		attribute.Int("news.raw_items", len(out)),
	)
	return out
}

func (a *Aggregator) fetchOne(ctx context.Context, src Source) ([]domain.RawItem, error) {
	ctx, cancel := context.WithTimeout(ctx, a.sourceTimeout)
	defer cancel()

	items, err := src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.RawItem{}
	}
	lang := src.Lang()
	for i := range items {
		if items[i].Provenance.Feed == "" {
			items[i].Provenance.Feed = src.Name()
		}
		if items[i].Provenance.Lang == "" {
			items[i].Provenance.Lang = lang
		}
	}
	return items, nil
}
