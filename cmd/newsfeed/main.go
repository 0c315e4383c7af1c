package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"tickerdesk/internal/bootstrap"
	"tickerdesk/internal/config"
	"tickerdesk/internal/domain"
	"tickerdesk/internal/news"
	"tickerdesk/internal/provider"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
)

var version = "dev"

var (
	flagJSON      bool
	flagStockOnly bool
	flagLimit     int
	flagKeywords  string
	flagWidth     int
)

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	buildFeedFunc  = func(ctx context.Context, cfg *config.Config) []domain.NewsItem {
		return bootstrap.NewsPipeline(noopTracer(), cfg).Build(ctx)
	}
)

var rootCmd = &cobra.Command{
	Use:   "newsfeed",
	Short: "Run one news aggregation and print the ranked feed",
	Long:  "newsfeed fetches every configured news source once, deduplicates, classifies and ranks the headlines, and prints them as a table or JSON.",
	RunE:  runFeed,
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the configured news sources in fetch order",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfigFunc()
		for i, s := range provider.NewsSources(noopTracer(), cfg.Security) {
			fmt.Fprintf(cmd.OutOrStdout(), "%d. %-32s %s\n", i+1, s.Name(), s.Lang())
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "newsfeed %s\n", version)
	},
}

func init() {
	rootCmd.Flags().BoolVar(&flagJSON, "json", false, "print JSON instead of a table")
	rootCmd.Flags().BoolVar(&flagStockOnly, "stock-only", false, "only print items tagged as stock news")
	rootCmd.Flags().IntVar(&flagLimit, "limit", 0, "maximum number of items (default NEWS_LIMIT)")
	rootCmd.Flags().StringVar(&flagKeywords, "keywords", "", "path to a keywords YAML file (default NEWS_KEYWORDS_FILE)")
	rootCmd.Flags().IntVar(&flagWidth, "width", 60, "title column width in terminal cells")

	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(versionCmd)
}

func runFeed(cmd *cobra.Command, args []string) error {
	cfg := loadConfigFunc()
	if flagLimit > 0 {
		cfg.NewsLimit = flagLimit
	}
	if flagKeywords != "" {
		if _, err := news.LoadKeywords(flagKeywords); err != nil {
			return err
		}
		cfg.KeywordsFile = flagKeywords
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.AggregateTimeout+5*time.Second)
	defer cancel()

	items := buildFeedFunc(ctx, cfg)
	if flagStockOnly {
		items = stockOnly(items)
	}
	return render(cmd.OutOrStdout(), items, flagJSON, flagWidth)
}

func render(w io.Writer, items []domain.NewsItem, asJSON bool, width int) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if items == nil {
			items = []domain.NewsItem{}
		}
		return enc.Encode(items)
	}
	_, err := io.WriteString(w, formatTable(items, width))
	return err
}

func stockOnly(items []domain.NewsItem) []domain.NewsItem {
	out := items[:0:0]
	for _, it := range items {
		if it.Tag == domain.TagStock {
			out = append(out, it)
		}
	}
	return out
}

func noopTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("newsfeed")
}

func main() {
	loadEnvFunc()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
