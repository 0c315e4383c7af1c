package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tickerdesk/internal/cache"
	"tickerdesk/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

var testSecurity = domain.Security{Symbol: "hk00700", Name: "腾讯控股", NameEN: "Tencent", Code: "00700.HK", Keyword: "腾讯"}

type stubQuotes struct {
	calls int32
	quote *domain.Quote
	err   error
	delay time.Duration
}

func (s *stubQuotes) FetchQuote(ctx context.Context) (*domain.Quote, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.quote, s.err
}

type stubCandles struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (s *stubCandles) FetchCandles(ctx context.Context, period string, count int) ([]domain.Candle, error) {
	s.mu.Lock()
	s.calls = append(s.calls, CandleKey(period, count))
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.Candle, count)
	for i := range out {
		out[i] = domain.Candle{Date: "2026-03-02", Close: float64(i)}
	}
	return out, nil
}

type stubFeed struct {
	calls int32
	items []domain.NewsItem
}

func (s *stubFeed) Build(ctx context.Context) []domain.NewsItem {
	atomic.AddInt32(&s.calls, 1)
	return s.items
}

type stubBroadcaster struct {
	published int
	err       error
}

func (s *stubBroadcaster) Publish(ctx context.Context) error {
	s.published++
	return s.err
}

func newTestService(q *stubQuotes, c *stubCandles, f *stubFeed, b Broadcaster) *DashboardService {
	return NewDashboardService(testTracer, testSecurity, q, c, f, cache.NewStore(time.Minute), b)
}

func TestDashboardService_QuoteCached(t *testing.T) {
	t.Parallel()

	quotes := &stubQuotes{quote: &domain.Quote{Price: 505.5}}
	svc := newTestService(quotes, &stubCandles{}, &stubFeed{}, nil)

	for i := 0; i < 3; i++ {
		q, err := svc.Quote(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if q.Price != 505.5 {
			t.Fatalf("unexpected quote %+v", q)
		}
	}
	if quotes.calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", quotes.calls)
	}
}

func TestDashboardService_ConcurrentQuoteSingleFetch(t *testing.T) {
	t.Parallel()

	quotes := &stubQuotes{quote: &domain.Quote{Price: 1}, delay: 30 * time.Millisecond}
	svc := newTestService(quotes, &stubCandles{}, &stubFeed{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Quote(context.Background()); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if quotes.calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", quotes.calls)
	}
}

func TestDashboardService_QuoteFailureNotCached(t *testing.T) {
	t.Parallel()

	quotes := &stubQuotes{err: errors.New("both upstreams down")}
	svc := newTestService(quotes, &stubCandles{}, &stubFeed{}, nil)

	if _, err := svc.Quote(context.Background()); !errors.Is(err, cache.ErrRefillFailed) {
		t.Fatalf("expected refill failure, got %v", err)
	}
	if _, err := svc.Quote(context.Background()); err == nil {
		t.Fatal("expected failure again")
	}
	if quotes.calls != 2 {
		t.Fatalf("failures must not be cached, got %d calls", quotes.calls)
	}
}

func TestDashboardService_CandlesKeyedByPeriodAndCount(t *testing.T) {
	t.Parallel()

	candles := &stubCandles{}
	svc := newTestService(&stubQuotes{}, candles, &stubFeed{}, nil)

	if _, err := svc.Candles(context.Background(), domain.PeriodDay, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Candles(context.Background(), domain.PeriodDay, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := svc.Candles(context.Background(), domain.PeriodWeek, 3000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != domain.MaxCandleCount {
		t.Fatalf("expected clamped count, got %d", len(got))
	}
	want := []string{"kline:day:10", "kline:week:1500"}
	if len(candles.calls) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, candles.calls)
	}
	for i := range want {
		if candles.calls[i] != want[i] {
			t.Fatalf("expected calls %v, got %v", want, candles.calls)
		}
	}

	if _, err := svc.Candles(context.Background(), "hour", 60); err == nil {
		t.Fatal("expected invalid period error")
	}
}

func TestDashboardService_EmptyNewsIsCached(t *testing.T) {
	t.Parallel()

	feed := &stubFeed{}
	svc := newTestService(&stubQuotes{}, &stubCandles{}, feed, nil)

	for i := 0; i < 2; i++ {
		items, err := svc.News(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if items == nil || len(items) != 0 {
			t.Fatalf("expected empty non-nil feed, got %v", items)
		}
	}
	if feed.calls != 1 {
		t.Fatalf("expected 1 build, got %d", feed.calls)
	}
}

func TestDashboardService_RefreshThenQuoteFetchesOnce(t *testing.T) {
	t.Parallel()

	quotes := &stubQuotes{quote: &domain.Quote{Price: 1}}
	feed := &stubFeed{items: []domain.NewsItem{{Title: "a"}}}
	b := &stubBroadcaster{}
	svc := newTestService(quotes, &stubCandles{}, feed, b)
	dependent := cache.NewStore(time.Hour)
	_, _ = dependent.Get(context.Background(), "rating:2026-03-02", func(ctx context.Context) (any, error) { return "r", nil })
	svc.AddDependent(dependent)

	_, _ = svc.Quote(context.Background())
	_, _ = svc.News(context.Background())

	if n := svc.Refresh(context.Background()); n != 3 {
		t.Fatalf("expected 3 dropped entries, got %d", n)
	}
	if quotes.calls != 1 {
		t.Fatal("refresh must not refetch")
	}
	if b.published != 1 {
		t.Fatalf("expected one broadcast, got %d", b.published)
	}
	if dependent.Len() != 0 {
		t.Fatal("dependent cache should be cleared")
	}

	_, _ = svc.Quote(context.Background())
	_, _ = svc.Quote(context.Background())
	if quotes.calls != 2 {
		t.Fatalf("expected exactly one fetch after refresh, got %d total", quotes.calls)
	}
}

func TestDashboardService_RefreshBroadcastFailureIsLogged(t *testing.T) {
	t.Parallel()

	b := &stubBroadcaster{err: errors.New("redis down")}
	svc := newTestService(&stubQuotes{}, &stubCandles{}, &stubFeed{}, b)
	if n := svc.Refresh(context.Background()); n != 0 {
		t.Fatalf("expected nothing dropped, got %d", n)
	}
	if b.published != 1 {
		t.Fatal("expected publish attempt")
	}
}

func TestDashboardService_ContextToleratesFailures(t *testing.T) {
	t.Parallel()

	quotes := &stubQuotes{err: errors.New("down")}
	feed := &stubFeed{items: []domain.NewsItem{{Title: "a", Tag: domain.TagStock}}}
	svc := newTestService(quotes, &stubCandles{}, feed, nil)

	dc := svc.Context(context.Background())
	if dc.Quote != nil {
		t.Fatal("expected missing quote")
	}
	if len(dc.News) != 1 || len(dc.Candles) != domain.DefaultCandleCount {
		t.Fatalf("unexpected context: news=%d candles=%d", len(dc.News), len(dc.Candles))
	}
	if dc.Security.Code != "00700.HK" {
		t.Fatalf("unexpected security %+v", dc.Security)
	}
}
