package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"tickerdesk/internal/stream"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

type chatRequest struct {
	Prompt string `json:"prompt"`
}

// StreamSummary godoc
// @Summary      Stream a news digest
// @Description  Server-sent events of {"content": chunk}, terminated by data: [DONE]
// @Tags         ai
// @Produce      text/event-stream
// @Success      200  {object}  stream.Event
// @Router       /api/summary [get]
func (h *Handler) StreamSummary(c *gin.Context) {
	h.serveStream(c, "handler.stream-summary", h.advisor.Summary())
}

// StreamAnalysis godoc
// @Summary      Stream the analysis report
// @Description  Server-sent events of {"content": chunk}. Falls back to a template report when the model is unavailable.
// @Tags         ai
// @Produce      text/event-stream
// @Success      200  {object}  stream.Event
// @Router       /api/analysis [get]
func (h *Handler) StreamAnalysis(c *gin.Context) {
	h.serveStream(c, "handler.stream-analysis", h.advisor.Analysis())
}

// StreamChat godoc
// @Summary      Ask the advisor
// @Description  Streams an answer to a question framed with the current market context
// @Tags         ai
// @Accept       json
// @Produce      text/event-stream
// @Security     ApiKeyAuth
// @Param        body  body  chatRequest  true  "Question"
// @Success      200  {object}  stream.Event
// @Failure      400  {object}  envelope
// @Router       /api/chat [post]
func (h *Handler) StreamChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		fail(c, http.StatusBadRequest, "prompt is required")
		return
	}
	h.serveStream(c, "handler.stream-chat", h.advisor.Chat(req.Prompt))
}

func (h *Handler) serveStream(c *gin.Context, name string, produce stream.Producer) {
	ctx, span := h.tracer.Start(c.Request.Context(), name)
	defer span.End()

	stream.SetHeaders(c.Writer.Header())
	c.Status(http.StatusOK)

	s := stream.Start(ctx, produce, h.buffer)
	defer s.Cancel()

	err := stream.Relay(ctx, c.Writer, c.Writer.Flush, s)
	span.SetAttributes(attribute.String("stream.state", s.State().String()))
	switch {
	case err == nil:
	case errors.Is(err, stream.ErrAbandoned):
		log.Printf("%s abandoned: %v", name, err)
	default:
		span.RecordError(err)
		log.Printf("%s failed before content: %v", name, err)
	}
}
