package news

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"tickerdesk/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type stubSource struct {
	name  string
	lang  domain.Lang
	items []domain.RawItem
	err   error
	delay time.Duration
}

func (s *stubSource) Name() string      { return s.name }
func (s *stubSource) Lang() domain.Lang { return s.lang }

func (s *stubSource) Fetch(ctx context.Context) ([]domain.RawItem, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.items, s.err
}

func titled(source string, titles ...string) []domain.RawItem {
	out := make([]domain.RawItem, 0, len(titles))
	for _, t := range titles {
		out = append(out, domain.RawItem{Title: t, URL: "https://example.com/" + t, Source: source})
	}
	return out
}

func numbered(source string, n int) []domain.RawItem {
	titles := make([]string, n)
	for i := range titles {
		titles[i] = fmt.Sprintf("%s headline %d", source, i)
	}
	return titled(source, titles...)
}

func noopTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("test")
}

func TestNormalize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  Tencent   Shares\tRise ", "tencent shares rise"},
		{"ＴＥＮＣＥＮＴ　股价", "tencent 股价"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDedupKeepsFirstOccurrence(t *testing.T) {
	items := []domain.RawItem{
		{Title: "Tencent beats estimates", Source: "a"},
		{Title: "  tencent   BEATS estimates ", Source: "b"},
		{Title: "", Source: "c"},
		{Title: "Other story", Source: "d"},
	}
	got := Dedup(items)
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	if got[0].Source != "a" || got[1].Source != "d" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestClassifierTags(t *testing.T) {
	c := NewClassifier(DefaultKeywords())

	tests := []struct {
		item domain.RawItem
		want domain.Tag
	}{
		{domain.RawItem{Title: "腾讯控股股价创新高"}, domain.TagStock},
		{domain.RawItem{Title: "腾讯发布新游戏", Summary: "大行上调目标价"}, domain.TagStock},
		{domain.RawItem{Title: "Tencent stocks rally after earnings"}, domain.TagStock},
		{domain.RawItem{Title: "People love the new WeChat feature"}, domain.TagGeneral},
		{domain.RawItem{Title: "腾讯发布新游戏"}, domain.TagGeneral},
		{domain.RawItem{Title: "Tencent P/E hits lows"}, domain.TagStock},
		{domain.RawItem{Title: "JPMorgan lifts Tencent outlook"}, domain.TagStock},
		{domain.RawItem{Title: "Tencent-backed firms line up IPOs in Hong Kong"}, domain.TagStock},
		{domain.RawItem{Title: "Tencent Music restocks catalogue"}, domain.TagStock},
	}
	for _, tt := range tests {
		if got := c.Tag(tt.item); got != tt.want {
			t.Errorf("Tag(%q/%q) = %s, want %s", tt.item.Title, tt.item.Summary, got, tt.want)
		}
	}
}

func TestClassifierMatchesSubstrings(t *testing.T) {
	c := NewClassifier([]string{"PE"})
	if got := c.Tag(domain.RawItem{Title: "People love the new WeChat feature"}); got != domain.TagStock {
		t.Fatalf("expected substring match on a configured short term, got %s", got)
	}
	if got := c.Tag(domain.RawItem{Title: "微信更新"}); got != domain.TagGeneral {
		t.Fatalf("expected general, got %s", got)
	}
}

func TestClassifierLangFollowsProvenance(t *testing.T) {
	c := NewClassifier(nil)
	en := c.Lang(domain.RawItem{Title: "腾讯", Provenance: domain.Provenance{Lang: domain.LangEN}})
	zh := c.Lang(domain.RawItem{Title: "Tencent stock"})
	if en != domain.LangEN || zh != domain.LangZH {
		t.Fatalf("unexpected langs: %s, %s", en, zh)
	}
}

func TestParseKeywords(t *testing.T) {
	kw, err := ParseKeywords([]byte("stock:\n  zh: [股价]\n  en: [dividend]\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(kw) != 2 || kw[0] != "股价" || kw[1] != "dividend" {
		t.Fatalf("unexpected keywords: %v", kw)
	}
	if _, err := ParseKeywords([]byte("stock: {}\n")); err == nil {
		t.Fatal("expected error for empty keyword set")
	}
	if len(DefaultKeywords()) < 50 {
		t.Fatal("expected the embedded keyword set to be loaded")
	}
}

func TestLoadKeywordsFromFile(t *testing.T) {
	path := t.TempDir() + "/kw.yaml"
	if err := os.WriteFile(path, []byte("stock:\n  en: [buyback]\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	kw, err := LoadKeywords(path)
	if err != nil || len(kw) != 1 {
		t.Fatalf("unexpected result: %v, %v", kw, err)
	}
	if _, err := LoadKeywords(path + ".missing"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRankStableStockFirst(t *testing.T) {
	items := []domain.NewsItem{
		{Title: "g1", Tag: domain.TagGeneral},
		{Title: "s1", Tag: domain.TagStock},
		{Title: "g2", Tag: domain.TagGeneral},
		{Title: "s2", Tag: domain.TagStock},
	}
	got := Rank(items, 25)
	want := []string{"s1", "s2", "g1", "g2"}
	for i, w := range want {
		if got[i].Title != w {
			t.Fatalf("position %d: got %s, want %s", i, got[i].Title, w)
		}
	}
	if items[0].Title != "g1" {
		t.Fatal("Rank must not reorder its input")
	}
}

func TestRankTruncates(t *testing.T) {
	items := make([]domain.NewsItem, 40)
	if got := Rank(items, 25); len(got) != 25 {
		t.Fatalf("expected 25 items, got %d", len(got))
	}
}

func TestAggregatorToleratesFailures(t *testing.T) {
	sources := []Source{
		&stubSource{name: "a", items: titled("a", "one", "two")},
		&stubSource{name: "b", err: errors.New("boom")},
		&stubSource{name: "c", lang: domain.LangEN, items: titled("c", "three")},
	}
	agg := NewAggregator(noopTracer(), sources, time.Second, 2*time.Second)

	got := agg.Collect(context.Background())
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
	if got[0].Title != "one" || got[2].Title != "three" {
		t.Fatalf("source order not preserved: %+v", got)
	}
	if got[2].Provenance.Lang != domain.LangEN || got[2].Provenance.Feed != "c" {
		t.Fatalf("expected provenance stamped from source, got %+v", got[2].Provenance)
	}
}

func TestAggregatorPerSourceTimeout(t *testing.T) {
	sources := []Source{
		&stubSource{name: "slow", delay: time.Second, items: titled("slow", "late")},
		&stubSource{name: "fast", items: titled("fast", "early")},
	}
	agg := NewAggregator(noopTracer(), sources, 20*time.Millisecond, time.Second)

	start := time.Now()
	got := agg.Collect(context.Background())
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("slow source should have been cut off")
	}
	if len(got) != 1 || got[0].Title != "early" {
		t.Fatalf("unexpected items: %+v", got)
	}
}

func TestAggregatorAllFail(t *testing.T) {
	sources := []Source{
		&stubSource{name: "a", err: errors.New("down")},
		&stubSource{name: "b", err: errors.New("down")},
	}
	agg := NewAggregator(noopTracer(), sources, time.Second, time.Second)
	p := NewPipeline(noopTracer(), agg, NewClassifier(DefaultKeywords()), 25)

	feed := p.Build(context.Background())
	if len(feed) != 0 {
		t.Fatalf("expected empty feed, got %d", len(feed))
	}
}

func TestPipelineScenario(t *testing.T) {
	// Seven sources returning 4,3,2,5,6,3,2 items with three cross-source
	// duplicates: 25 raw items, 22 unique.
	s1 := titled("s1", "腾讯股价上涨", "Tencent news A", "腾讯新游戏", "腾讯云大会")
	s2 := titled("s2", "  腾讯股价上涨 ", "腾讯研报发布", "微信更新")
	s3 := numbered("s3", 2)
	s4 := append(titled("s4", "TENCENT NEWS A"), numbered("s4", 4)...)
	s5 := numbered("s5", 6)
	s6 := append(titled("s6", "微信更新"), numbered("s6", 2)...)
	s7 := titled("s7", "Tencent buyback continues", "Tencent opens office")

	var sources []Source
	for i, items := range [][]domain.RawItem{s1, s2, s3, s4, s5, s6, s7} {
		lang := domain.LangZH
		if i == 6 {
			lang = domain.LangEN
		}
		sources = append(sources, &stubSource{name: fmt.Sprintf("s%d", i+1), lang: lang, items: items})
	}

	agg := NewAggregator(noopTracer(), sources, time.Second, 2*time.Second)
	p := NewPipeline(noopTracer(), agg, NewClassifier(DefaultKeywords()), 25)
	feed := p.Build(context.Background())

	if len(feed) != 22 {
		t.Fatalf("expected 22 items, got %d", len(feed))
	}

	seenGeneral := false
	stock := 0
	for _, it := range feed {
		if it.Tag == domain.TagGeneral {
			seenGeneral = true
			continue
		}
		stock++
		if seenGeneral {
			t.Fatalf("stock item %q ranked after a general item", it.Title)
		}
	}
	if stock != 3 {
		t.Fatalf("expected 3 stock items, got %d", stock)
	}
	if feed[0].Title != "腾讯股价上涨" || feed[0].Source != "s1" {
		t.Fatalf("expected earliest source to win dedup, got %+v", feed[0])
	}
	if feed[2].Title != "Tencent buyback continues" || feed[2].Lang != domain.LangEN {
		t.Fatalf("unexpected third item %+v", feed[2])
	}
	for _, it := range feed {
		if it.Title == "TENCENT NEWS A" {
			t.Fatal("case-insensitive duplicate should have been dropped")
		}
	}
}

func TestMergeLimit(t *testing.T) {
	raw := numbered("x", 40)
	got := Merge(raw, NewClassifier(nil), 25)
	if len(got) != 25 {
		t.Fatalf("expected 25, got %d", len(got))
	}
}
