package provider

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tickerdesk/internal/domain"

	"github.com/mmcdole/gofeed"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const googleNewsBaseURL = "https://news.google.com/rss/search"

const googleNewsLabel = "Google News"

// GoogleNewsSource reads one English Google News RSS search.
type GoogleNewsSource struct {
	client   *http.Client
	baseURL  string
	tracer   trace.Tracer
	query    string
	maxItems int
}

func NewGoogleNewsSource(tracer trace.Tracer, query string) *GoogleNewsSource {
	return &GoogleNewsSource{
		client:   &http.Client{Timeout: 12 * time.Second},
		baseURL:  googleNewsBaseURL,
		tracer:   tracer,
		query:    query,
		maxItems: 8,
	}
}

func (g *GoogleNewsSource) Name() string      { return "google-news:" + g.query }
func (g *GoogleNewsSource) Lang() domain.Lang { return domain.LangEN }

func (g *GoogleNewsSource) Fetch(ctx context.Context) ([]domain.RawItem, error) {
	ctx, span := g.tracer.Start(ctx, "google-news.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("news.query", g.query))

	params := url.Values{}
	params.Set("q", g.query)
	params.Set("hl", "en")
	params.Set("gl", "US")
	params.Set("ceid", "US:en")

	body, err := upstream("google news").get(ctx, g.client, g.baseURL+"?"+params.Encode(),
		map[string]string{"Accept": "application/rss+xml, application/xml, text/xml"})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("fetch google news %q: %w", g.query, err)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse google news %q: %w", g.query, err)
	}

	items := make([]domain.RawItem, 0, min(g.maxItems, len(feed.Items)))
	for _, it := range feed.Items {
		if len(items) >= g.maxItems {
			break
		}
		title, publisher := splitPublisher(sanitizeText(it.Title, 300))
		if title == "" || it.Link == "" {
			continue
		}
		var ts string
		if it.PublishedParsed != nil {
			ts = it.PublishedParsed.UTC().Format(displayTimeLayout)
		}
		items = append(items, domain.RawItem{
			Title:      title,
			URL:        strings.TrimSpace(it.Link),
			Source:     publisher,
			Time:       ts,
			Provenance: domain.Provenance{Feed: g.Name(), Lang: domain.LangEN},
		})
	}
	span.SetAttributes(attribute.Int("news.items", len(items)))
	return items, nil
}

// splitPublisher separates the trailing " - Publisher" Google appends to titles.
func splitPublisher(title string) (string, string) {
	i := strings.LastIndex(title, " - ")
	if i <= 0 {
		return title, googleNewsLabel
	}
	publisher := strings.TrimSpace(title[i+3:])
	if publisher == "" {
		return strings.TrimSpace(title[:i]), googleNewsLabel
	}
	return strings.TrimSpace(title[:i]), publisher
}
