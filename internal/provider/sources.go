package provider

import (
	"time"

	"tickerdesk/internal/domain"
	"tickerdesk/internal/news"

	"go.opentelemetry.io/otel/trace"
)

// NewsSources builds the reference source set for sec: four Sina searches
// sharing one limiter, the Sina rolling feed and two Google News queries.
func NewsSources(tracer trace.Tracer, sec domain.Security) []news.Source {
	limiter := NewRateLimiter(4, 250*time.Millisecond)
	ticker := sec.Ticker()
	return []news.Source{
		NewSinaSearchSource(tracer, limiter, sec.Name+" 股价", 10),
		NewSinaSearchSource(tracer, limiter, sec.Keyword+" 港股 分析", 10),
		NewSinaSearchSource(tracer, limiter, ticker+" 研报", 8),
		NewSinaSearchSource(tracer, limiter, sec.Keyword, 10),
		NewSinaRollSource(tracer, sec.Keyword),
		NewGoogleNewsSource(tracer, sec.NameEN+" stock"),
		NewGoogleNewsSource(tracer, sec.NameEN+" "+ticker),
	}
}
