package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/benvon/selfspeak/internal/aggregate"
	"github.com/benvon/selfspeak/internal/request"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second
	// DefaultTemperature favors consistent scoring over creative wording
	DefaultTemperature = 0.4
)

// Config configures the OpenAI engine.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// RetryBackoff is the initial retry interval; zero retries immediately.
	RetryBackoff time.Duration
	DebugMode    bool
}

// OpenAIEngine implements DailyEngine and WeeklyEngine with the chat
// completions API in JSON-object mode.
type OpenAIEngine struct {
	client openai.Client
	cfg    Config
	logger *zap.Logger
	tracer trace.Tracer
}

var (
	_ DailyEngine  = (*OpenAIEngine)(nil)
	_ WeeklyEngine = (*OpenAIEngine)(nil)
)

// NewOpenAIEngine creates an engine. SDK retries are disabled so that
// cfg.MaxRetries is the only retry policy.
func NewOpenAIEngine(cfg Config, logger *zap.Logger) *OpenAIEngine {
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		option.WithMaxRetries(0),
	)

	logger.Debug("openai_engine_configured",
		zap.String("model", cfg.Model),
		zap.String("base_url", cfg.BaseURL),
		zap.String("api_key", SanitizeAPIKey(cfg.APIKey)),
		zap.Int("max_retries", cfg.MaxRetries),
	)

	return &OpenAIEngine{
		client: client,
		cfg:    cfg,
		logger: logger,
		tracer: otel.Tracer("github.com/benvon/selfspeak/internal/services/ai"),
	}
}

// AnalyzeEntry scores one journal entry.
func (e *OpenAIEngine) AnalyzeEntry(ctx context.Context, content string) ([]byte, error) {
	raw, err := e.completeJSON(ctx, "daily_analysis", DailySystemPrompt, BuildDailyPrompt(content), dailyRequiredKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze entry: %w", err)
	}
	return raw, nil
}

// GenerateInsight writes the weekly narrative. The engine never sees
// journal text, only meta.
func (e *OpenAIEngine) GenerateInsight(ctx context.Context, meta *aggregate.Metadata) (*WeeklyNarrative, error) {
	prompt, err := BuildWeeklyPrompt(meta)
	if err != nil {
		return nil, err
	}
	raw, err := e.completeJSON(ctx, "weekly_insight", WeeklySystemPrompt, prompt, weeklyRequiredKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to generate weekly insight: %w", err)
	}

	root := gjson.ParseBytes(raw)
	return &WeeklyNarrative{
		SummaryText:         root.Get("summary_text").String(),
		DominantWeekEmotion: root.Get("dominant_week_emotion").String(),
		ReflectionQuestion:  root.Get("reflection_question").String(),
		PatternSummary:      root.Get("pattern_summary").String(),
		PatternExperiment:   root.Get("pattern_experiment").String(),
	}, nil
}

// completeJSON sends the prompt and retries on transport failures and on
// responses that fail the JSON or required-key check.
func (e *OpenAIEngine) completeJSON(ctx context.Context, operation, system, user string, required [][]string) ([]byte, error) {
	ctx, span := e.tracer.Start(ctx, "ai."+operation,
		trace.WithAttributes(attribute.String("ai.model", e.cfg.Model)))
	defer span.End()

	attempt := 0
	op := func() ([]byte, error) {
		attempt++
		content, err := e.send(ctx, operation, system, user)
		if err != nil {
			if isPermanent(ctx, err) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		if err := checkResponse(content, required); err != nil {
			return nil, err
		}
		return []byte(content), nil
	}
	notify := func(err error, wait time.Duration) {
		e.logger.Warn("llm_retry",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	raw, err := backoff.RetryNotifyWithData(op, e.retryPolicy(ctx), notify)
	span.SetAttributes(attribute.Int("ai.attempts", attempt))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "engine call failed")
		switch {
		case IsQuotaError(err):
			e.logger.Error("llm_quota_exhausted", zap.String("operation", operation))
		case IsRateLimitError(err):
			e.logger.Warn("llm_rate_limited", zap.String("operation", operation), zap.Int("attempts", attempt))
		}
		return nil, err
	}
	return raw, nil
}

func (e *OpenAIEngine) retryPolicy(ctx context.Context) backoff.BackOffContext {
	var b backoff.BackOff = &backoff.ZeroBackOff{}
	if e.cfg.RetryBackoff > 0 {
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = e.cfg.RetryBackoff
		b = exp
	}
	retries := e.cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// send performs a single chat completion request.
func (e *OpenAIEngine) send(ctx context.Context, operation, system, user string) (string, error) {
	requestID := request.RequestIDFromContext(ctx)
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(system),
		openai.UserMessage(user),
	}
	req := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(e.cfg.Model),
		Messages:    messages,
		Temperature: openai.Float(e.cfg.Temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	if e.cfg.DebugMode {
		e.logger.Debug("llm_api_request",
			zap.String("operation", operation),
			zap.String("model", e.cfg.Model),
			zap.Int("prompt_length", len(user)),
			zap.Int("message_count", len(messages)),
			zap.String("prompt_preview", SanitizePrompt(user, true)),
			zap.String("request_id", requestID),
		)
	}

	start := time.Now()
	resp, err := e.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		if e.cfg.DebugMode {
			e.logger.Debug("llm_api_error",
				zap.String("operation", operation),
				zap.String("model", e.cfg.Model),
				zap.Error(err),
				zap.String("request_id", requestID),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return "", apiErr
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	content := resp.Choices[0].Message.Content
	if e.cfg.DebugMode {
		e.logger.Debug("llm_api_response",
			zap.String("operation", operation),
			zap.String("model", e.cfg.Model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}
	return content, nil
}
