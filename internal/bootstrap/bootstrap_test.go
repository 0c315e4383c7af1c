package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tickerdesk/internal/config"
	"tickerdesk/internal/domain"
	"tickerdesk/internal/news"

	"go.opentelemetry.io/otel/trace"
)

type stubSource struct {
	name  string
	items []domain.RawItem
	err   error
}

func (s stubSource) Name() string      { return s.name }
func (s stubSource) Lang() domain.Lang { return domain.LangZH }
func (s stubSource) Fetch(context.Context) ([]domain.RawItem, error) {
	return s.items, s.err
}

func stubSources(t *testing.T, sources ...news.Source) {
	t.Helper()
	orig := newsSourcesFunc
	t.Cleanup(func() { newsSourcesFunc = orig })
	newsSourcesFunc = func(trace.Tracer, domain.Security) []news.Source { return sources }
}

func testConfig() *config.Config {
	return &config.Config{
		Security:         domain.Security{Symbol: "hk00700", Name: "腾讯控股", Code: "00700.HK", Keyword: "腾讯"},
		CacheTTL:         time.Minute,
		SourceTimeout:    time.Second,
		AggregateTimeout: 2 * time.Second,
		NewsLimit:        25,
	}
}

func TestNewsPipelineUsesKeywordsFile(t *testing.T) {
	stubSources(t, stubSource{name: "a", items: []domain.RawItem{
		{Title: "腾讯发布新游戏"},
		{Title: "腾讯游戏大涨"},
	}})

	path := filepath.Join(t.TempDir(), "keywords.yaml")
	if err := os.WriteFile(path, []byte("stock:\n  zh: [游戏]\n"), 0o644); err != nil {
		t.Fatalf("write keywords: %v", err)
	}
	cfg := testConfig()
	cfg.KeywordsFile = path

	feed := NewsPipeline(trace.NewNoopTracerProvider().Tracer("test"), cfg).Build(context.Background())
	if len(feed) != 2 || feed[0].Tag != domain.TagStock || feed[1].Tag != domain.TagStock {
		t.Fatalf("expected custom keywords to tag both items, got %+v", feed)
	}
}

func TestNewsPipelineMissingKeywordsFileFallsBack(t *testing.T) {
	stubSources(t, stubSource{name: "a", items: []domain.RawItem{{Title: "腾讯股价大涨"}}})
	cfg := testConfig()
	cfg.KeywordsFile = filepath.Join(t.TempDir(), "missing.yaml")

	feed := NewsPipeline(trace.NewNoopTracerProvider().Tracer("test"), cfg).Build(context.Background())
	if len(feed) != 1 || feed[0].Tag != domain.TagStock {
		t.Fatalf("expected built-in keywords, got %+v", feed)
	}
}

func TestDashboardServesFeedFromCache(t *testing.T) {
	calls := 0
	stubSources(t, countingSource{calls: &calls})

	svc := Dashboard(trace.NewNoopTracerProvider().Tracer("test"), testConfig(), nil)
	for i := 0; i < 3; i++ {
		if _, err := svc.News(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one aggregation, got %d", calls)
	}
}

func TestReplicaID(t *testing.T) {
	if id := ReplicaID(); !strings.Contains(id, "-") {
		t.Fatalf("unexpected replica id %q", id)
	}
}

type countingSource struct{ calls *int }

func (c countingSource) Name() string      { return "counting" }
func (c countingSource) Lang() domain.Lang { return domain.LangEN }
func (c countingSource) Fetch(context.Context) ([]domain.RawItem, error) {
	*c.calls++
	return nil, errors.New("offline")
}
