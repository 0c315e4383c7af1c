package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"tickerdesk/internal/domain"
)

type Config struct {
	Port string

	Security domain.Security

	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	CacheTTL         time.Duration
	SourceTimeout    time.Duration
	AggregateTimeout time.Duration
	NewsLimit        int
	KeywordsFile     string
	CacheWarmSecs    int

	RedisURL         string
	TelegramBotToken string
	APIKey           string

	TracingEnabled bool
	OTLPEndpoint   string
}

func Load() *Config {
	cfg := &Config{
		Port: envOr("PORT", "8080"),
		Security: domain.Security{
			Symbol:  envOr("STOCK_SYMBOL", "hk00700"),
			Name:    envOr("STOCK_NAME", "腾讯控股"),
			NameEN:  envOr("STOCK_NAME_EN", "Tencent"),
			Code:    envOr("STOCK_CODE", "00700.HK"),
			Keyword: envOr("NEWS_KEYWORD", "腾讯"),
		},
		LLMAPIKey:        strings.TrimSpace(os.Getenv("LLM_API_KEY")),
		LLMBaseURL:       envOr("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMModel:         envOr("LLM_MODEL", "gpt-4o-mini"),
		KeywordsFile:     strings.TrimSpace(os.Getenv("NEWS_KEYWORDS_FILE")),
		RedisURL:         strings.TrimSpace(os.Getenv("REDIS_URL")),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		APIKey:           strings.TrimSpace(os.Getenv("API_KEY")),
		TracingEnabled:   !strings.EqualFold(strings.TrimSpace(os.Getenv("TRACING_ENABLED")), "false"),
		OTLPEndpoint:     strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
	}

	if cfg.LLMAPIKey == "" {
		log.Println("Warning: LLM_API_KEY not set, summary and chat will be disabled and analysis will use the template")
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}
	if cfg.APIKey == "" {
		log.Println("Warning: API_KEY not set, POST endpoints are unauthenticated")
	}

	cfg.CacheTTL = time.Duration(positiveInt("CACHE_TTL_SECS", 300)) * time.Second
	cfg.SourceTimeout = time.Duration(positiveInt("SOURCE_TIMEOUT_SECS", 15)) * time.Second
	cfg.AggregateTimeout = time.Duration(positiveInt("AGGREGATE_TIMEOUT_SECS", 20)) * time.Second
	cfg.NewsLimit = positiveInt("NEWS_LIMIT", 25)

	cfg.CacheWarmSecs = 0
	if v := strings.TrimSpace(os.Getenv("CACHE_WARM_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.CacheWarmSecs = n
		}
	}

	return cfg
}

func envOr(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

// positiveInt reads name as a positive integer, falling back to def.
func positiveInt(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s=%q, using %d", name, v, def)
		return def
	}
	return n
}
