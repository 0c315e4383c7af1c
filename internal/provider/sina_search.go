package provider

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tickerdesk/internal/domain"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const sinaSearchBaseURL = "https://search.sina.com.cn/news"

const sinaSourceLabel = "新浪财经"

// SinaSearchSource scrapes one keyword query on Sina news search.
type SinaSearchSource struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
	query   string
	num     int
}

// NewSinaSearchSource shares limiter across every search query so a refill
// does not burst the search endpoint.
func NewSinaSearchSource(tracer trace.Tracer, limiter *RateLimiter, query string, num int) *SinaSearchSource {
	if num <= 0 {
		num = 10
	}
	return &SinaSearchSource{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: sinaSearchBaseURL,
		tracer:  tracer,
		limiter: limiter,
		query:   query,
		num:     num,
	}
}

func (s *SinaSearchSource) Name() string      { return "sina-search:" + s.query }
func (s *SinaSearchSource) Lang() domain.Lang { return domain.LangZH }

func (s *SinaSearchSource) Fetch(ctx context.Context) ([]domain.RawItem, error) {
	ctx, span := s.tracer.Start(ctx, "sina.search")
	defer span.End()
	span.SetAttributes(attribute.String("news.query", s.query))

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	params := url.Values{}
	params.Set("q", s.query)
	params.Set("c", "news")
	params.Set("from", "channel")
	params.Set("ie", "utf-8")
	params.Set("num", strconv.Itoa(s.num))

	body, err := upstream("sina search").get(ctx, s.client, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("search %q: %w", s.query, err)
	}

	items, err := parseSinaSearch(body, s.Name())
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", s.query, err)
	}
	span.SetAttributes(attribute.Int("news.items", len(items)))
	return items, nil
}

func parseSinaSearch(body []byte, feed string) ([]domain.RawItem, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var items []domain.RawItem
	doc.Find(".box-result").Each(func(_ int, sel *goquery.Selection) {
		link := sel.Find("h2 a").First()
		title := sanitizeText(link.Text(), 300)
		if title == "" {
			return
		}
		href, _ := link.Attr("href")
		items = append(items, domain.RawItem{
			Title:      title,
			URL:        strings.TrimSpace(href),
			Source:     sinaSourceLabel,
			Summary:    sanitizeText(sel.Find(".content").First().Text(), 120),
			Time:       sanitizeText(sel.Find(".fgray_time").First().Text(), 60),
			Provenance: domain.Provenance{Feed: feed, Lang: domain.LangZH},
		})
	})
	return items, nil
}
