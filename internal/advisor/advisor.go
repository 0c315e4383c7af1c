package advisor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"tickerdesk/internal/domain"
	"tickerdesk/internal/stream"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrModelUnavailable means no language model is configured.
var ErrModelUnavailable = errors.New("language model not configured: set LLM_API_KEY")

// ErrEmptyPrompt rejects a blank chat question.
var ErrEmptyPrompt = errors.New("prompt is required")

// LLMClient abstracts the OpenAI chat completions API for testability.
type LLMClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
	StreamChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams, onDelta func(string) error) error
}

// ContextSource provides the cached market context prompts are built from.
type ContextSource interface {
	Context(ctx context.Context) *domain.DashboardContext
}

// AdvisorService turns dashboard context into model prompts and streams the
// answers. A nil llm means no model is configured.
type AdvisorService struct {
	tracer    trace.Tracer
	llm       LLMClient
	dashboard ContextSource
	model     string
}

func NewAdvisorService(tracer trace.Tracer, llm LLMClient, dashboard ContextSource, model string) *AdvisorService {
	return &AdvisorService{
		tracer:    tracer,
		llm:       llm,
		dashboard: dashboard,
		model:     model,
	}
}

// Configured reports whether a model is available.
func (s *AdvisorService) Configured() bool { return s.llm != nil }

// Summary streams a digest of the news feed.
func (s *AdvisorService) Summary() stream.Producer {
	return func(ctx context.Context, emit func(string) error) error {
		ctx, span := s.tracer.Start(ctx, "advisor.summary")
		defer span.End()

		if s.llm == nil {
			return ErrModelUnavailable
		}
		p := BuildSummaryPrompt(s.dashboard.Context(ctx))
		return s.streamLLM(ctx, p, 1500, emit)
	}
}

// Analysis streams the full report. Without a model, or when the model fails
// before its first token, the local template is served instead.
func (s *AdvisorService) Analysis() stream.Producer {
	return func(ctx context.Context, emit func(string) error) error {
		ctx, span := s.tracer.Start(ctx, "advisor.analysis")
		defer span.End()

		dc := s.dashboard.Context(ctx)
		if s.llm == nil {
			span.SetAttributes(attribute.Bool("advisor.fallback", true))
			return emit(FallbackReport(dc))
		}

		primary := func(ctx context.Context, emit func(string) error) error {
			return s.streamLLM(ctx, BuildAnalysisPrompt(dc), 3000, emit)
		}
		return stream.FallbackBeforeFirst(primary, func(modelErr error) stream.Producer {
			log.Printf("analysis model failed, serving template: %v", modelErr)
			span.SetAttributes(attribute.Bool("advisor.fallback", true))
			return func(ctx context.Context, emit func(string) error) error {
				if err := emit(FallbackWarning(modelErr)); err != nil {
					return err
				}
				return emit(FallbackReport(dc))
			}
		})(ctx, emit)
	}
}

// Chat streams an answer to a freeform question.
func (s *AdvisorService) Chat(question string) stream.Producer {
	return func(ctx context.Context, emit func(string) error) error {
		ctx, span := s.tracer.Start(ctx, "advisor.chat")
		defer span.End()

		if strings.TrimSpace(question) == "" {
			return ErrEmptyPrompt
		}
		if s.llm == nil {
			return ErrModelUnavailable
		}
		p := BuildChatPrompt(s.dashboard.Context(ctx), question)
		return s.streamLLM(ctx, p, 3000, emit)
	}
}

// Ask answers a question in one piece, for callers that cannot stream.
func (s *AdvisorService) Ask(ctx context.Context, question string) (string, error) {
	var sb strings.Builder
	err := s.Chat(question)(ctx, func(chunk string) error {
		sb.WriteString(chunk)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("advisor unavailable: %w", err)
	}
	return sb.String(), nil
}

func openaiParams(model string, p Prompt, maxTokens int64, temperature float64) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(p.System),
			openai.UserMessage(p.User),
		},
		MaxTokens:   openai.Int(maxTokens),
		Temperature: openai.Float(temperature),
	}
}

func (s *AdvisorService) streamLLM(ctx context.Context, p Prompt, maxTokens int64, emit func(string) error) error {
	ctx, span := s.tracer.Start(ctx, "advisor.llm-stream")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", s.model))

	chunks := 0
	err := s.llm.StreamChatCompletion(ctx, openaiParams(s.model, p, maxTokens, 0.7), func(delta string) error {
		chunks++
		return emit(delta)
	})
	span.SetAttributes(attribute.Int("llm.chunks", chunks))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("model stream: %w", err)
	}
	return nil
}

// openaiClient wraps the official SDK's chat completions service.
type openaiClient struct {
	client openai.Client
}

// NewOpenAIClient targets any OpenAI-compatible endpoint. An empty baseURL
// keeps the SDK default.
func NewOpenAIClient(apiKey, baseURL string) LLMClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &openaiClient{client: openai.NewClient(opts...)}
}

func (c *openaiClient) CreateChatCompletion(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}

func (c *openaiClient) StreamChatCompletion(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	onDelta func(string) error,
) error {
	s := c.client.Chat.Completions.NewStreaming(ctx, params)
	defer s.Close()

	for s.Next() {
		chunk := s.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			if err := onDelta(delta); err != nil {
				return err
			}
		}
	}
	return s.Err()
}
