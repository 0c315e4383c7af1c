package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tickerdesk/internal/advisor"
	"tickerdesk/internal/bootstrap"
	"tickerdesk/internal/bot"
	"tickerdesk/internal/cache"
	"tickerdesk/internal/config"
	"tickerdesk/internal/handler"
	"tickerdesk/internal/job"
	"tickerdesk/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "tickerdesk/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newDashboardFunc       = bootstrap.Dashboard
	newLLMClientFunc       = advisor.NewOpenAIClient
	listenRefreshFunc      = func(b *cache.Broadcaster, ctx context.Context, targets ...cache.Invalidator) { go b.Listen(ctx, targets...) }
	startWarmerFunc        = func(w *job.CacheWarmer, ctx context.Context) { go w.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Tickerdesk API
// @version         1.0
// @description     Quote, candles, news and streamed AI commentary for one Hong Kong listed security.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-API-Key
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx, tracing.Options{
		ServiceName: "tickerdesk",
		Version:     "1.0.0",
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Redis only carries refresh requests between replicas; run without it.
	redisClient, err := initRedisFunc(ctx, cfg.RedisURL)
	if err != nil {
		log.Printf("Warning: %v, refresh stays local to this replica", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	broadcaster := cache.NewBroadcaster(redisClient, bootstrap.ReplicaID())

	dashboard := newDashboardFunc(tracer, cfg, broadcaster)

	var llm advisor.LLMClient
	if cfg.LLMAPIKey != "" {
		llm = newLLMClientFunc(cfg.LLMAPIKey, cfg.LLMBaseURL)
	}
	advisorService := advisor.NewAdvisorService(tracer, llm, dashboard, cfg.LLMModel)
	ratingService := advisor.NewRatingService(tracer, llm, dashboard, cfg.LLMModel, nil)
	dashboard.AddDependent(ratingService)

	listenRefreshFunc(broadcaster, ctx, dashboard)
	startWarmerFunc(job.NewCacheWarmer(tracer, dashboard, cfg.CacheWarmSecs), ctx)
	startTelegramBotFunc(cfg.TelegramBotToken, dashboard, advisorService)

	h := handler.New(tracer, dashboard, advisorService, ratingService)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("tickerdesk"))

	h.RegisterRoutes(r, cfg.APIKey)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()
	log.Printf("Serving %s (%s) on :%s", cfg.Security.Name, cfg.Security.Code, cfg.Port)

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
