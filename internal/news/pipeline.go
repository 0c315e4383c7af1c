package news

import (
	"context"

	"tickerdesk/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Pipeline produces the ranked feed: aggregate, dedup, classify, rank.
type Pipeline struct {
	aggregator *Aggregator
	classifier *Classifier
	limit      int
	tracer     trace.Tracer
}

func NewPipeline(tracer trace.Tracer, aggregator *Aggregator, classifier *Classifier, limit int) *Pipeline {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Pipeline{aggregator: aggregator, classifier: classifier, limit: limit, tracer: tracer}
}

// Build runs one full aggregation. It never fails; when every source fails
// the feed is empty.
func (p *Pipeline) Build(ctx context.Context) []domain.NewsItem {
	ctx, span := p.tracer.Start(ctx, "news.build-feed")
	defer span.End()

	raw := p.aggregator.Collect(ctx)
	feed := Merge(raw, p.classifier, p.limit)
	span.SetAttributes(attribute.Int("news.feed_items", len(feed)))
	return feed
}

// Merge applies dedup, classification and ranking to already collected items.
func Merge(raw []domain.RawItem, classifier *Classifier, limit int) []domain.NewsItem {
	unique := Dedup(raw)
	items := make([]domain.NewsItem, 0, len(unique))
	for _, it := range unique {
		items = append(items, classifier.Classify(it))
	}
	return Rank(items, limit)
}
