package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"tickerdesk/internal/cache"
	"tickerdesk/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Cache keys served by the dashboard.
const (
	KeyStock = "stock"
	KeyNews  = "news"
)

// CandleKey is the cache key of one candle query.
func CandleKey(period string, count int) string {
	return fmt.Sprintf("kline:%s:%d", period, count)
}

type QuoteProvider interface {
	FetchQuote(ctx context.Context) (*domain.Quote, error)
}

type CandleProvider interface {
	FetchCandles(ctx context.Context, period string, count int) ([]domain.Candle, error)
}

type NewsFeed interface {
	Build(ctx context.Context) []domain.NewsItem
}

// Broadcaster tells other replicas about a refresh.
type Broadcaster interface {
	Publish(ctx context.Context) error
}

// DashboardService fronts every upstream with the shared cache store.
type DashboardService struct {
	tracer      trace.Tracer
	security    domain.Security
	quotes      QuoteProvider
	candles     CandleProvider
	news        NewsFeed
	store       *cache.Store
	broadcaster Broadcaster
	dependents  []cache.Invalidator
	now         func() time.Time
}

func NewDashboardService(
	tracer trace.Tracer,
	security domain.Security,
	quotes QuoteProvider,
	candles CandleProvider,
	news NewsFeed,
	store *cache.Store,
	broadcaster Broadcaster,
) *DashboardService {
	return &DashboardService{
		tracer:      tracer,
		security:    security,
		quotes:      quotes,
		candles:     candles,
		news:        news,
		store:       store,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// Security returns the tracked instrument.
func (s *DashboardService) Security() domain.Security { return s.security }

// Store exposes the backing cache, for replica fan-in.
func (s *DashboardService) Store() *cache.Store { return s.store }

// AddDependent registers another cache that a refresh must clear too.
func (s *DashboardService) AddDependent(inv cache.Invalidator) {
	s.dependents = append(s.dependents, inv)
}

// Quote returns the cached quote snapshot.
func (s *DashboardService) Quote(ctx context.Context) (*domain.Quote, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard-service.quote")
	defer span.End()

	return cache.Fetch(ctx, s.store, KeyStock, s.quotes.FetchQuote)
}

// Candles returns the cached candle series for a validated period and count.
func (s *DashboardService) Candles(ctx context.Context, period string, count int) ([]domain.Candle, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard-service.candles")
	defer span.End()

	if !domain.ValidPeriod(period) {
		return nil, fmt.Errorf("unsupported period: %s", period)
	}
	count = domain.ClampCandleCount(count)
	span.SetAttributes(attribute.String("kline.period", period), attribute.Int("kline.count", count))

	return cache.Fetch(ctx, s.store, CandleKey(period, count), func(ctx context.Context) ([]domain.Candle, error) {
		return s.candles.FetchCandles(ctx, period, count)
	})
}

// News returns the cached ranked feed. An empty feed is cached like any other.
func (s *DashboardService) News(ctx context.Context) ([]domain.NewsItem, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard-service.news")
	defer span.End()

	return cache.Fetch(ctx, s.store, KeyNews, func(ctx context.Context) ([]domain.NewsItem, error) {
		feed := s.news.Build(ctx)
		if feed == nil {
			feed = []domain.NewsItem{}
		}
		return feed, nil
	})
}

// Context gathers quote, news and daily candles for prompt building. Missing
// pieces are logged and left empty.
func (s *DashboardService) Context(ctx context.Context) *domain.DashboardContext {
	ctx, span := s.tracer.Start(ctx, "dashboard-service.context")
	defer span.End()

	dc := &domain.DashboardContext{Security: s.security, AsOf: s.now()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q, err := s.Quote(gctx)
		if err != nil {
			log.Printf("context quote unavailable: %v", err)
			return nil
		}
		dc.Quote = q
		return nil
	})
	g.Go(func() error {
		items, err := s.News(gctx)
		if err != nil {
			log.Printf("context news unavailable: %v", err)
			return nil
		}
		dc.News = items
		return nil
	})
	g.Go(func() error {
		candles, err := s.Candles(gctx, domain.PeriodDay, domain.DefaultCandleCount)
		if err != nil {
			log.Printf("context candles unavailable: %v", err)
			return nil
		}
		dc.Candles = candles
		return nil
	})
	_ = g.Wait()

	span.SetAttributes(
		attribute.Bool("context.has_quote", dc.Quote != nil),
		attribute.Int("context.news", len(dc.News)),
		attribute.Int("context.candles", len(dc.Candles)),
	)
	return dc
}

// Refresh drops every cached entry here and in dependent caches, then tells
// the other replicas. It does not refetch.
func (s *DashboardService) Refresh(ctx context.Context) int {
	ctx, span := s.tracer.Start(ctx, "dashboard-service.refresh")
	defer span.End()

	n := s.InvalidateAll()
	if s.broadcaster != nil {
		if err := s.broadcaster.Publish(ctx); err != nil {
			log.Printf("refresh broadcast failed: %v", err)
		}
	}
	span.SetAttributes(attribute.Int("cache.dropped", n))
	log.Printf("refresh dropped %d cache entries", n)
	return n
}

// InvalidateAll clears local caches only.
func (s *DashboardService) InvalidateAll() int {
	n := s.store.InvalidateAll()
	for _, d := range s.dependents {
		n += d.InvalidateAll()
	}
	return n
}
