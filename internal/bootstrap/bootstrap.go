// Package bootstrap assembles the cached dashboard from configuration. The
// HTTP server, the MCP server and the feed CLI share it.
package bootstrap

import (
	"fmt"
	"log"
	"os"

	"tickerdesk/internal/cache"
	"tickerdesk/internal/config"
	"tickerdesk/internal/news"
	"tickerdesk/internal/provider"
	"tickerdesk/internal/service"

	"go.opentelemetry.io/otel/trace"
)

var newsSourcesFunc = provider.NewsSources

// NewsPipeline wires every configured news source into the ranked feed.
// A keywords file that cannot be read falls back to the embedded set.
func NewsPipeline(tracer trace.Tracer, cfg *config.Config) *news.Pipeline {
	keywords, err := news.LoadKeywords(cfg.KeywordsFile)
	if err != nil {
		log.Printf("Warning: %v, using built-in keywords", err)
		keywords = news.DefaultKeywords()
	}
	agg := news.NewAggregator(tracer, newsSourcesFunc(tracer, cfg.Security), cfg.SourceTimeout, cfg.AggregateTimeout)
	return news.NewPipeline(tracer, agg, news.NewClassifier(keywords), cfg.NewsLimit)
}

// Dashboard builds the dashboard service over a fresh cache store.
func Dashboard(tracer trace.Tracer, cfg *config.Config, broadcaster service.Broadcaster) *service.DashboardService {
	return service.NewDashboardService(
		tracer,
		cfg.Security,
		provider.NewQuoteProvider(tracer, cfg.Security),
		provider.NewKlineProvider(tracer, cfg.Security.Symbol),
		NewsPipeline(tracer, cfg),
		cache.NewStore(cfg.CacheTTL),
		broadcaster,
	)
}

// ReplicaID names this process on the refresh channel.
func ReplicaID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "tickerdesk"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
