package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"tickerdesk/internal/domain"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	sinaQuoteBaseURL   = "https://hq.sinajs.cn"
	tencentKlineURL    = "https://web.ifzq.gtimg.cn/appstock/app/fqkline/get"
	tencentQuoteWindow = 5
)

// ErrNoQuote means neither quote upstream produced a price.
var ErrNoQuote = errors.New("no quote upstream answered")

// QuoteProvider merges the Sina realtime quote with the extended fields of
// Tencent's quote block. Sina wins on overlapping fields.
type QuoteProvider struct {
	client     *http.Client
	sinaURL    string
	tencentURL string
	tracer     trace.Tracer
	security   domain.Security
	now        func() time.Time
}

func NewQuoteProvider(tracer trace.Tracer, security domain.Security) *QuoteProvider {
	return &QuoteProvider{
		client:     &http.Client{Timeout: 10 * time.Second},
		sinaURL:    sinaQuoteBaseURL,
		tencentURL: tencentKlineURL,
		tracer:     tracer,
		security:   security,
		now:        time.Now,
	}
}

// FetchQuote fails only when both upstreams fail.
func (p *QuoteProvider) FetchQuote(ctx context.Context) (*domain.Quote, error) {
	ctx, span := p.tracer.Start(ctx, "quote.fetch")
	defer span.End()

	var (
		sina    []string
		tencent []any
		sinaErr error
		tcErr   error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sina, sinaErr = p.fetchSina(gctx)
		return nil
	})
	g.Go(func() error {
		tencent, tcErr = p.fetchTencent(gctx)
		return nil
	})
	_ = g.Wait()

	if sinaErr != nil {
		log.Printf("sina quote for %s failed: %v", p.security.Symbol, sinaErr)
	}
	if tcErr != nil {
		log.Printf("tencent quote for %s failed: %v", p.security.Symbol, tcErr)
	}
	if sinaErr != nil && tcErr != nil {
		err := fmt.Errorf("%w: %w", ErrNoQuote, errors.Join(sinaErr, tcErr))
		span.RecordError(err)
		return nil, err
	}

	q := &domain.Quote{
		Name:      p.security.Name,
		Code:      p.security.Code,
		UpdatedAt: p.now(),
	}
	applySinaFields(q, sina)
	applyTencentFields(q, tencent)
	return q, nil
}

func (p *QuoteProvider) fetchSina(ctx context.Context) ([]string, error) {
	url := fmt.Sprintf("%s/list=rt_%s", strings.TrimRight(p.sinaURL, "/"), p.security.Symbol)
	body, err := upstream("sina quote").get(ctx, p.client, url, map[string]string{"Referer": sinaReferer})
	if err != nil {
		return nil, err
	}
	text, err := decodeGBK(body)
	if err != nil {
		return nil, err
	}
	return parseSinaQuote(text)
}

// parseSinaQuote splits `var hq_str_rt_x="f0,f1,...";` into fields.
func parseSinaQuote(text string) ([]string, error) {
	start := strings.IndexByte(text, '"')
	end := strings.LastIndexByte(text, '"')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("unexpected sina payload: %.80q", text)
	}
	fields := strings.Split(text[start+1:end], ",")
	if len(fields) <= 15 {
		return nil, fmt.Errorf("sina payload has %d fields", len(fields))
	}
	return fields, nil
}

func (p *QuoteProvider) fetchTencent(ctx context.Context) ([]any, error) {
	today := p.now().In(chinaTime).Format("2006-01-02")
	url := fmt.Sprintf("%s?param=%s,day,,%s,%d,qfq", p.tencentURL, p.security.Symbol, today, tencentQuoteWindow)
	body, err := upstream("tencent quote").get(ctx, p.client, url, nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data map[string]struct {
			QT map[string]json.RawMessage `json:"qt"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode tencent quote: %w", err)
	}
	block, ok := payload.Data[p.security.Symbol]
	if !ok {
		return nil, fmt.Errorf("tencent payload missing %s", p.security.Symbol)
	}
	raw, ok := block.QT[p.security.Symbol]
	if !ok {
		return nil, fmt.Errorf("tencent payload missing qt.%s", p.security.Symbol)
	}
	var qt []any
	if err := json.Unmarshal(raw, &qt); err != nil {
		return nil, fmt.Errorf("decode tencent qt: %w", err)
	}
	if len(qt) <= 45 {
		return nil, fmt.Errorf("tencent qt has %d fields", len(qt))
	}
	return qt, nil
}

func applySinaFields(q *domain.Quote, f []string) {
	if len(f) == 0 {
		return
	}
	q.NameEN = strings.TrimSpace(f[0])
	q.Open = parseFloatString(f[2])
	q.PrevClose = parseFloatString(f[3])
	q.High = parseFloatString(f[4])
	q.Low = parseFloatString(f[5])
	q.Price = parseFloatString(f[6])
	q.Change = parseFloatString(f[7])
	q.ChangePct = parseFloatString(f[8])
	q.Turnover = parseFloatString(f[11])
	q.Volume = parseFloatString(f[12])
}

func applyTencentFields(q *domain.Quote, qt []any) {
	at := func(i int) float64 {
		if i < len(qt) {
			return asFloat(qt[i])
		}
		return 0
	}
	if len(qt) == 0 {
		return
	}
	if q.Price == 0 {
		q.Price = at(3)
	}
	q.PE = at(39)
	q.Amplitude = at(43)
	q.MarketCap = at(45)
	q.DividendYield = at(47)
	q.High52W = at(48)
	q.Low52W = at(49)
	q.TurnoverRate = at(50)
	q.PB = at(51)
	q.TotalShares = at(69)
	q.FloatShares = at(70)
	q.NAVPerShare = at(72)
}
