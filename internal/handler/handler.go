package handler

import (
	"context"
	"net/http"

	"tickerdesk/internal/domain"
	"tickerdesk/internal/stream"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// Dashboard serves the cached market data.
type Dashboard interface {
	Quote(ctx context.Context) (*domain.Quote, error)
	Candles(ctx context.Context, period string, count int) ([]domain.Candle, error)
	News(ctx context.Context) ([]domain.NewsItem, error)
	Refresh(ctx context.Context) int
}

// Advisor produces the streamed model answers.
type Advisor interface {
	Summary() stream.Producer
	Analysis() stream.Producer
	Chat(question string) stream.Producer
}

// Rater serves the daily rating.
type Rater interface {
	Today(ctx context.Context) *domain.Rating
}

type Handler struct {
	tracer    trace.Tracer
	dashboard Dashboard
	advisor   Advisor
	rater     Rater
	buffer    int
}

func New(tracer trace.Tracer, dashboard Dashboard, advisor Advisor, rater Rater) *Handler {
	return &Handler{
		tracer:    tracer,
		dashboard: dashboard,
		advisor:   advisor,
		rater:     rater,
		buffer:    stream.DefaultBuffer,
	}
}

// RegisterRoutes mounts the API. apiKey, when set, guards the POST routes.
func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.GET("/stock", h.GetStock)
	api.GET("/kline", h.GetKline)
	api.GET("/news", h.GetNews)
	api.GET("/summary", h.StreamSummary)
	api.GET("/analysis", h.StreamAnalysis)
	api.GET("/rating", h.GetRating)

	protected := api.Group("", APIKeyAuth(apiKey))
	protected.POST("/chat", h.StreamChat)
	protected.POST("/refresh", h.Refresh)
}

// Health godoc
// @Summary      Health check
// @Description  Liveness probe. Does not touch upstreams.
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
