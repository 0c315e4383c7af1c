package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"tickerdesk/internal/cache"
	"tickerdesk/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RatingTTL keeps a verdict for the rest of the day; keys are per date.
const RatingTTL = 24 * time.Hour

const (
	noModelSummary = "未配置 AI 大模型 API Key，无法生成智能评级。请配置 LLM_API_KEY 后重试。"
	retrySummary   = "AI 评级生成失败，请稍后重试。"
)

var codeFence = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)```")

// RatingService produces one model rating per calendar day.
type RatingService struct {
	tracer    trace.Tracer
	llm       LLMClient
	dashboard ContextSource
	model     string
	store     *cache.Store
	now       func() time.Time

	mu       sync.Mutex
	lastDate string
}

func NewRatingService(tracer trace.Tracer, llm LLMClient, dashboard ContextSource, model string, store *cache.Store) *RatingService {
	if store == nil {
		store = cache.NewStore(RatingTTL)
	}
	return &RatingService{
		tracer:    tracer,
		llm:       llm,
		dashboard: dashboard,
		model:     model,
		store:     store,
		now:       time.Now,
	}
}

// InvalidateAll drops cached ratings.
func (s *RatingService) InvalidateAll() int { return s.store.InvalidateAll() }

// Today returns today's rating. A model failure yields a neutral placeholder
// that is not cached, so the next call retries.
func (s *RatingService) Today(ctx context.Context) *domain.Rating {
	ctx, span := s.tracer.Start(ctx, "rating.today")
	defer span.End()

	date := s.now().Format("2006-01-02")
	s.rollDate(date)
	r, err := cache.Fetch(ctx, s.store, ratingKey(date), func(ctx context.Context) (*domain.Rating, error) {
		if s.llm == nil {
			return neutralRating(date, noModelSummary, "无法分析"), nil
		}
		return s.generate(ctx, date)
	})
	if err != nil {
		span.RecordError(err)
		log.Printf("rating for %s failed: %v", date, err)
		return neutralRating(date, retrySummary, "--")
	}
	span.SetAttributes(attribute.String("rating.label", r.Rating), attribute.Int("rating.score", r.Score))
	return r
}

// rollDate drops the previous day's entry once the date changes.
func (s *RatingService) rollDate(date string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastDate != "" && s.lastDate != date {
		s.store.Invalidate(ratingKey(s.lastDate))
	}
	s.lastDate = date
}

func ratingKey(date string) string { return "rating:" + date }

func (s *RatingService) generate(ctx context.Context, date string) (*domain.Rating, error) {
	p := BuildRatingPrompt(s.dashboard.Context(ctx), date)
	completion, err := s.llm.CreateChatCompletion(ctx, openaiParams(s.model, p, 2000, 0.3))
	if err != nil {
		return nil, fmt.Errorf("rating completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no choices in LLM response")
	}
	return ParseRating(completion.Choices[0].Message.Content, date)
}

// ParseRating decodes the model's JSON answer, tolerating a markdown code
// fence, and normalizes label, score and factors.
func ParseRating(text, date string) (*domain.Rating, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty rating response")
	}
	if m := codeFence.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}

	var raw struct {
		Rating  string          `json:"rating"`
		Score   json.RawMessage `json:"score"`
		Summary string          `json:"summary"`
		Factors *struct {
			Technical   string `json:"technical"`
			Fundamental string `json:"fundamental"`
			Sentiment   string `json:"sentiment"`
		} `json:"factors"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("decode rating: %w", err)
	}

	r := &domain.Rating{
		Date:    date,
		Rating:  domain.RatingNeutral,
		Score:   clampScore(parseScore(raw.Score)),
		Summary: strings.TrimSpace(raw.Summary),
		Factors: domain.RatingFactors{Technical: "--", Fundamental: "--", Sentiment: "--"},
	}
	for _, l := range domain.RatingLabels {
		if raw.Rating == l {
			r.Rating = l
			break
		}
	}
	if raw.Factors != nil {
		r.Factors = domain.RatingFactors{
			Technical:   orDash(raw.Factors.Technical),
			Fundamental: orDash(raw.Factors.Fundamental),
			Sentiment:   orDash(raw.Factors.Sentiment),
		}
	}
	return r, nil
}

func neutralRating(date, summary, factor string) *domain.Rating {
	return &domain.Rating{
		Date:    date,
		Rating:  domain.RatingNeutral,
		Score:   50,
		Summary: summary,
		Factors: domain.RatingFactors{Technical: factor, Fundamental: factor, Sentiment: factor},
	}
}

// parseScore accepts a JSON number or numeric string; anything else is 50.
func parseScore(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 50
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return v
		}
	}
	return 50
}

func clampScore(v float64) int {
	if math.IsNaN(v) {
		return 50
	}
	return int(math.Max(0, math.Min(100, math.Trunc(v))))
}

func orDash(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "--"
	}
	return s
}
