package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"tickerdesk/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// KlineProvider fetches forward-adjusted candles from Tencent.
type KlineProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	symbol  string
	now     func() time.Time
}

func NewKlineProvider(tracer trace.Tracer, symbol string) *KlineProvider {
	return &KlineProvider{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: tencentKlineURL,
		tracer:  tracer,
		symbol:  symbol,
		now:     time.Now,
	}
}

// FetchCandles returns up to count candles of period, oldest first.
func (p *KlineProvider) FetchCandles(ctx context.Context, period string, count int) ([]domain.Candle, error) {
	ctx, span := p.tracer.Start(ctx, "kline.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("kline.period", period), attribute.Int("kline.count", count))

	if !domain.ValidPeriod(period) {
		return nil, fmt.Errorf("unsupported period: %s", period)
	}
	count = domain.ClampCandleCount(count)

	today := p.now().In(chinaTime).Format("2006-01-02")
	url := fmt.Sprintf("%s?param=%s,%s,,%s,%d,qfq", p.baseURL, p.symbol, period, today, count)
	body, err := upstream("tencent kline").get(ctx, p.client, url, nil)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("fetch %s candles: %w", period, err)
	}

	candles, err := parseTencentKline(body, p.symbol, period)
	if err != nil {
		return nil, fmt.Errorf("fetch %s candles: %w", period, err)
	}
	span.SetAttributes(attribute.Int("kline.rows", len(candles)))
	return candles, nil
}

func parseTencentKline(body []byte, symbol, period string) ([]domain.Candle, error) {
	var payload struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode kline: %w", err)
	}
	raw, ok := payload.Data[symbol]
	if !ok {
		return []domain.Candle{}, nil
	}

	// The symbol block mixes row arrays with other objects, so decode lazily.
	var block map[string]json.RawMessage
	if err := json.Unmarshal(raw, &block); err != nil {
		return nil, fmt.Errorf("decode kline block: %w", err)
	}

	var rows [][]any
	for _, key := range []string{period, "qfq" + period} {
		data, ok := block[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("decode kline rows: %w", err)
		}
		if len(rows) > 0 {
			break
		}
	}

	candles := make([]domain.Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 5 {
			continue
		}
		date, _ := row[0].(string)
		c := domain.Candle{
			Date:  date,
			Open:  asFloat(row[1]),
			Close: asFloat(row[2]),
			High:  asFloat(row[3]),
			Low:   asFloat(row[4]),
		}
		if len(row) > 5 {
			c.Volume = asFloat(row[5])
		}
		candles = append(candles, c)
	}
	return candles, nil
}
