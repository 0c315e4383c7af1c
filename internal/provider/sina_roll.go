package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tickerdesk/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const sinaRollBaseURL = "https://feed.mix.sina.com.cn/api/roll/get"

// SinaRollSource reads the Sina finance rolling feed and keeps only entries
// that mention the keyword.
type SinaRollSource struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	keyword string
	num     int
}

func NewSinaRollSource(tracer trace.Tracer, keyword string) *SinaRollSource {
	return &SinaRollSource{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: sinaRollBaseURL,
		tracer:  tracer,
		keyword: keyword,
		num:     20,
	}
}

func (s *SinaRollSource) Name() string      { return "sina-roll" }
func (s *SinaRollSource) Lang() domain.Lang { return domain.LangZH }

func (s *SinaRollSource) Fetch(ctx context.Context) ([]domain.RawItem, error) {
	ctx, span := s.tracer.Start(ctx, "sina.roll")
	defer span.End()

	params := url.Values{}
	params.Set("pageid", "153")
	params.Set("lid", "2516")
	params.Set("k", s.keyword)
	params.Set("num", strconv.Itoa(s.num))
	params.Set("page", "1")

	body, err := upstream("sina roll").get(ctx, s.client, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("fetch roll feed: %w", err)
	}

	var payload struct {
		Result struct {
			Data []struct {
				Title     string `json:"title"`
				Intro     string `json:"intro"`
				URL       string `json:"url"`
				MediaName string `json:"media_name"`
				CTime     any    `json:"ctime"`
			} `json:"data"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode roll feed: %w", err)
	}

	items := make([]domain.RawItem, 0, len(payload.Result.Data))
	for _, row := range payload.Result.Data {
		title := sanitizeText(row.Title, 300)
		if title == "" {
			continue
		}
		if s.keyword != "" && !strings.Contains(title, s.keyword) && !strings.Contains(row.Intro, s.keyword) {
			continue
		}
		source := strings.TrimSpace(row.MediaName)
		if source == "" {
			source = sinaSourceLabel
		}
		var ts string
		if sec := int64(asFloat(row.CTime)); sec > 0 {
			ts = time.Unix(sec, 0).In(chinaTime).Format(displayTimeLayout)
		}
		items = append(items, domain.RawItem{
			Title:      title,
			URL:        strings.TrimSpace(row.URL),
			Source:     source,
			Summary:    sanitizeText(row.Intro, 120),
			Time:       ts,
			Provenance: domain.Provenance{Feed: s.Name(), Lang: domain.LangZH},
		})
	}
	span.SetAttributes(attribute.Int("news.items", len(items)))
	return items, nil
}
