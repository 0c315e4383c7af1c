// Package mcpserver exposes the cached dashboard as MCP tools.
package mcpserver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tickerdesk/internal/domain"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Dashboard is the cached data the tools read from.
type Dashboard interface {
	Security() domain.Security
	Quote(ctx context.Context) (*domain.Quote, error)
	News(ctx context.Context) ([]domain.NewsItem, error)
	Candles(ctx context.Context, period string, count int) ([]domain.Candle, error)
}

type QuoteInput struct{}

// QuoteOutput flattens the quote; zero means the upstream did not report a field.
type QuoteOutput struct {
	Name      string  `json:"name"`
	Code      string  `json:"code"`
	Currency  string  `json:"currency"`
	Price     float64 `json:"price"`
	Change    float64 `json:"change"`
	ChangePct float64 `json:"change_percent"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	PrevClose float64 `json:"prev_close"`
	Volume    float64 `json:"volume"`
	Turnover  float64 `json:"turnover"`
	MarketCap float64 `json:"market_cap"`
	PE        float64 `json:"pe_ratio"`
	UpdatedAt string  `json:"updated_at,omitempty"`
}

type NewsInput struct {
	Limit     int  `json:"limit,omitempty" jsonschema:"maximum number of headlines, default all (at most 25)"`
	StockOnly bool `json:"stock_only,omitempty" jsonschema:"only return headlines tagged as stock news"`
}

type NewsOutput struct {
	Items []domain.NewsItem `json:"items"`
}

type KlineInput struct {
	Period string `json:"period,omitempty" jsonschema:"candle period: day, week or month (default day)"`
	Count  int    `json:"count,omitempty" jsonschema:"number of candles, clamped to [10, 1500] (default 60)"`
}

type KlineOutput struct {
	Period  string          `json:"period"`
	Count   int             `json:"count"`
	Candles []domain.Candle `json:"candles"`
}

type tools struct {
	tracer    trace.Tracer
	dashboard Dashboard
}

// New builds an MCP server with get_quote, get_news and get_kline.
func New(tracer trace.Tracer, dashboard Dashboard, version string) *mcp.Server {
	t := &tools{tracer: tracer, dashboard: dashboard}
	sec := dashboard.Security()

	server := mcp.NewServer(&mcp.Implementation{Name: "tickerdesk", Version: version}, nil)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_quote",
		Description: fmt.Sprintf("Latest quote snapshot for %s (%s), prices in HKD.", sec.Name, sec.Code),
	}, t.quote)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_news",
		Description: fmt.Sprintf("Deduplicated %s headlines from Chinese and English sources, stock news first.", sec.Name),
	}, t.news)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_kline",
		Description: fmt.Sprintf("Historical OHLCV candles for %s.", sec.Code),
	}, t.kline)
	return server
}

func (t *tools) quote(ctx context.Context, _ *mcp.CallToolRequest, _ QuoteInput) (*mcp.CallToolResult, QuoteOutput, error) {
	ctx, span := t.tracer.Start(ctx, "mcp.get-quote")
	defer span.End()

	q, err := t.dashboard.Quote(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, QuoteOutput{}, fmt.Errorf("quote unavailable: %w", err)
	}
	sec := t.dashboard.Security()
	out := QuoteOutput{
		Name: sec.Name, Code: sec.Code, Currency: "HKD",
		Price: q.Price, Change: q.Change, ChangePct: q.ChangePct,
		Open: q.Open, High: q.High, Low: q.Low, PrevClose: q.PrevClose,
		Volume: q.Volume, Turnover: q.Turnover, MarketCap: q.MarketCap, PE: q.PE,
	}
	if !q.UpdatedAt.IsZero() {
		out.UpdatedAt = q.UpdatedAt.Format(time.RFC3339)
	}
	return nil, out, nil
}

func (t *tools) news(ctx context.Context, _ *mcp.CallToolRequest, in NewsInput) (*mcp.CallToolResult, NewsOutput, error) {
	ctx, span := t.tracer.Start(ctx, "mcp.get-news")
	defer span.End()

	items, err := t.dashboard.News(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, NewsOutput{}, fmt.Errorf("news unavailable: %w", err)
	}
	out := make([]domain.NewsItem, 0, len(items))
	for _, it := range items {
		if in.StockOnly && it.Tag != domain.TagStock {
			continue
		}
		out = append(out, it)
	}
	if in.Limit > 0 && len(out) > in.Limit {
		out = out[:in.Limit]
	}
	span.SetAttributes(attribute.Int("news.items", len(out)))
	return nil, NewsOutput{Items: out}, nil
}

func (t *tools) kline(ctx context.Context, _ *mcp.CallToolRequest, in KlineInput) (*mcp.CallToolResult, KlineOutput, error) {
	ctx, span := t.tracer.Start(ctx, "mcp.get-kline")
	defer span.End()

	period := strings.ToLower(strings.TrimSpace(in.Period))
	if period == "" {
		period = domain.PeriodDay
	}
	if !domain.ValidPeriod(period) {
		return nil, KlineOutput{}, fmt.Errorf("unsupported period %q, use one of %s", period, strings.Join(domain.SupportedPeriods, ", "))
	}
	count := in.Count
	if count == 0 {
		count = domain.DefaultCandleCount
	}
	count = domain.ClampCandleCount(count)

	candles, err := t.dashboard.Candles(ctx, period, count)
	if err != nil {
		span.RecordError(err)
		return nil, KlineOutput{}, fmt.Errorf("candles unavailable: %w", err)
	}
	if candles == nil {
		candles = []domain.Candle{}
	}
	return nil, KlineOutput{Period: period, Count: count, Candles: candles}, nil
}
