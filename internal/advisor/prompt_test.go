package advisor

import (
	"strings"
	"testing"

	"tickerdesk/internal/domain"
)

func TestBuildSummaryPromptTagsLanguage(t *testing.T) {
	p := BuildSummaryPrompt(sampleContext())

	if p.System != summaryPersona {
		t.Fatal("unexpected persona")
	}
	for _, want := range []string{"腾讯控股(00700.HK)", "1. [CN] 腾讯回购股份（新浪财经）", "2. [EN] Tencent shares rise（Reuters）", "388.2", "2026年10月15日 14:30"} {
		if !strings.Contains(p.User, want) {
			t.Fatalf("summary prompt missing %q:\n%s", want, p.User)
		}
	}
}

func TestBuildSummaryPromptCapsAt20(t *testing.T) {
	dc := sampleContext()
	dc.News = nil
	for i := 0; i < 30; i++ {
		dc.News = append(dc.News, domain.NewsItem{Title: "headline", Source: "s"})
	}
	p := BuildSummaryPrompt(dc)
	if !strings.Contains(p.User, "20. [CN]") || strings.Contains(p.User, "21. [CN]") {
		t.Fatalf("expected 20 headlines:\n%s", p.User)
	}
}

func TestBuildPromptsWithoutData(t *testing.T) {
	dc := &domain.DashboardContext{Security: domain.Security{Name: "腾讯控股", Code: "00700.HK"}}

	if p := BuildSummaryPrompt(dc); !strings.Contains(p.User, "暂无新闻") || !strings.Contains(p.User, "价格: -- HKD") {
		t.Fatalf("unexpected summary prompt:\n%s", p.User)
	}
	if p := BuildAnalysisPrompt(dc); !strings.Contains(p.User, "暂无最新新闻") || strings.Contains(p.User, "近5个交易日") {
		t.Fatalf("unexpected analysis prompt:\n%s", p.User)
	}
	if p := BuildChatPrompt(dc, "q"); strings.Count(p.User, "暂无") != 2 {
		t.Fatalf("unexpected chat prompt:\n%s", p.User)
	}
}

func TestBuildAnalysisPromptUsesLastFiveCandles(t *testing.T) {
	dc := sampleContext()
	dc.Candles = append([]domain.Candle{
		{Date: "2026-10-08", Close: 360},
		{Date: "2026-10-09", Close: 365},
	}, dc.Candles...)

	p := BuildAnalysisPrompt(dc)
	if strings.Contains(p.User, "2026-10-08") {
		t.Fatal("oldest candle should be dropped")
	}
	if !strings.Contains(p.User, "2026-10-09") || !strings.Contains(p.User, "2026-10-15: 开384 收388.2 高390 低383.4") {
		t.Fatalf("expected last five candles:\n%s", p.User)
	}
	if !strings.Contains(p.User, "市盈率: 21.4") || !strings.Contains(p.User, "成交额: --") {
		t.Fatalf("unexpected quote block:\n%s", p.User)
	}
}

func TestBuildChatPromptEndsWithQuestion(t *testing.T) {
	p := BuildChatPrompt(sampleContext(), "  明天会涨吗？ ")
	if !strings.HasSuffix(p.User, "## 用户的问题\n明天会涨吗？\n") {
		t.Fatalf("question not framed at the end:\n%s", p.User)
	}
	if p.System != chatPersona {
		t.Fatal("unexpected persona")
	}
}

func TestBuildRatingPromptCarriesDateAndSchema(t *testing.T) {
	p := BuildRatingPrompt(sampleContext(), "2026-10-15")
	for _, want := range []string{"评级日期: 2026-10-15", `"rating"`, `"factors"`, "近10个交易日行情"} {
		if !strings.Contains(p.User, want) {
			t.Fatalf("rating prompt missing %q", want)
		}
	}
}

func TestFallbackReport(t *testing.T) {
	out := FallbackReport(sampleContext())
	for _, want := range []string{"腾讯控股", "388.2", "腾讯回购股份"} {
		if !strings.Contains(out, want) {
			t.Fatalf("fallback report missing %q:\n%s", want, out)
		}
	}
	if empty := FallbackReport(&domain.DashboardContext{}); empty == "" {
		t.Fatal("expected a report even without data")
	}
}

func TestAnalysisPromptIncludesIndicators(t *testing.T) {
	dc := sampleContext()
	dc.Candles = nil
	for i := 0; i < 30; i++ {
		dc.Candles = append(dc.Candles, domain.Candle{Date: "d", Close: float64(300 + i)})
	}

	p := BuildAnalysisPrompt(dc)
	if !strings.Contains(p.User, "技术指标(日线): MA5 327.00  MA20 319.50  RSI14 100.00") {
		t.Fatalf("expected indicator line:\n%s", p.User)
	}
	if report := FallbackReport(dc); !strings.Contains(report, "短期偏多") || !strings.Contains(report, "超买") {
		t.Fatalf("expected indicator-driven trend text:\n%s", report)
	}
	if strings.Contains(BuildAnalysisPrompt(sampleContext()).User, "技术指标(日线)") {
		t.Fatal("indicator line should be omitted for short series")
	}
}
