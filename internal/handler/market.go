package handler

import (
	"net/http"
	"strconv"

	"tickerdesk/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetStock godoc
// @Summary      Get the latest quote
// @Description  Returns the cached quote snapshot of the tracked security
// @Tags         market
// @Produce      json
// @Success      200  {object}  envelope{data=domain.Quote}
// @Failure      500  {object}  envelope
// @Router       /api/stock [get]
func (h *Handler) GetStock(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-stock")
	defer span.End()

	quote, err := h.dashboard.Quote(ctx)
	if err != nil {
		span.RecordError(err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	ok(c, http.StatusOK, quote)
}

// GetKline godoc
// @Summary      Get historical candles
// @Description  Returns the cached candle series for a period. An unknown period is rejected with 400 and the supported list rather than falling back to day.
// @Tags         market
// @Produce      json
// @Param        period  query  string  false  "Candle period (day, week, month)"  default(day)
// @Param        count   query  int     false  "Number of candles, clamped to [10, 1500]"  default(60)
// @Success      200  {object}  envelope{data=[]domain.Candle}
// @Failure      400  {object}  envelope
// @Failure      500  {object}  envelope
// @Router       /api/kline [get]
func (h *Handler) GetKline(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-kline")
	defer span.End()

	period := c.DefaultQuery("period", domain.PeriodDay)
	if !domain.ValidPeriod(period) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"code":              1,
			"error":             "unsupported period: " + period,
			"supported_periods": domain.SupportedPeriods,
		})
		return
	}

	count := domain.DefaultCandleCount
	if raw := c.Query("count"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			count = n
		}
	}
	count = domain.ClampCandleCount(count)
	span.SetAttributes(attribute.String("kline.period", period), attribute.Int("kline.count", count))

	candles, err := h.dashboard.Candles(ctx, period, count)
	if err != nil {
		span.RecordError(err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	ok(c, http.StatusOK, candles)
}

// GetNews godoc
// @Summary      Get the news feed
// @Description  Returns up to 25 deduplicated headlines, stock news first
// @Tags         market
// @Produce      json
// @Success      200  {object}  envelope{data=[]domain.NewsItem}
// @Failure      500  {object}  envelope
// @Router       /api/news [get]
func (h *Handler) GetNews(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-news")
	defer span.End()

	items, err := h.dashboard.News(ctx)
	if err != nil {
		span.RecordError(err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	span.SetAttributes(attribute.Int("news.items", len(items)))
	ok(c, http.StatusOK, items)
}

// Refresh godoc
// @Summary      Drop cached data
// @Description  Invalidates every cache entry and the daily rating on all replicas. Data is refetched on the next read.
// @Tags         market
// @Produce      json
// @Security     ApiKeyAuth
// @Success      200  {object}  envelope
// @Failure      401  {object}  envelope
// @Failure      403  {object}  envelope
// @Router       /api/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.refresh")
	defer span.End()

	n := h.dashboard.Refresh(ctx)
	ok(c, http.StatusOK, gin.H{"invalidated": n})
}

// GetRating godoc
// @Summary      Get today's AI rating
// @Description  Returns the model's rating for the current day, generated once and cached
// @Tags         ai
// @Produce      json
// @Success      200  {object}  envelope{data=domain.Rating}
// @Router       /api/rating [get]
func (h *Handler) GetRating(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-rating")
	defer span.End()

	ok(c, http.StatusOK, h.rater.Today(ctx))
}
