package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/katz-eval/internal/observability"
)

const (
	EndpointChat       = "chat"
	EndpointCompletion = "completion"
)

// ErrNoChoices indicates the API answered without any completion.
var ErrNoChoices = errors.New("no choices returned from openai")

// OpenAIConfig defines configuration options for the OpenAI completer.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	// Endpoint selects the chat or legacy completion API.
	Endpoint string
	Logger   zerolog.Logger
}

// OpenAICompleter implements Completer against the OpenAI API or any
// compatible server.
type OpenAICompleter struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAICompleter builds a new completer using the provided configuration.
func NewOpenAICompleter(cfg OpenAIConfig) (*OpenAICompleter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 256
	}

	switch cfg.Endpoint {
	case "":
		cfg.Endpoint = EndpointChat
	case EndpointChat, EndpointCompletion:
	default:
		return nil, fmt.Errorf("unsupported openai endpoint %q", cfg.Endpoint)
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAICompleter{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/katz-eval/pkg/ai/openai"),
		logger: logger.With().Str("component", "openai_completer").Logger(),
	}, nil
}

// Model returns the configured model name.
func (c *OpenAICompleter) Model() string {
	return c.cfg.Model
}

// Complete sends the prompt to OpenAI and returns the first choice.
func (c *OpenAICompleter) Complete(parent context.Context, prompt string) (Completion, error) {
	ctx, span := c.tracer.Start(parent, "openai.complete", trace.WithAttributes(
		attribute.String("model", c.cfg.Model),
		attribute.String("endpoint", c.cfg.Endpoint),
	))
	defer span.End()

	start := time.Now()
	var (
		completion Completion
		err        error
	)
	if c.cfg.Endpoint == EndpointCompletion {
		completion, err = c.complete(ctx, prompt)
	} else {
		completion, err = c.chat(ctx, prompt)
	}
	observability.ModelDuration().WithLabelValues(c.cfg.Model).Observe(time.Since(start).Seconds())

	if err != nil {
		observability.ModelFailures().WithLabelValues(c.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Completion{}, err
	}

	span.SetAttributes(
		attribute.Int("usage.prompt_tokens", completion.PromptTokens),
		attribute.Int("usage.completion_tokens", completion.CompletionTokens),
	)
	c.logger.Debug().
		Int("prompt_tokens", completion.PromptTokens).
		Int("completion_tokens", completion.CompletionTokens).
		Dur("duration", time.Since(start)).
		Msg("completion received")

	return completion, nil
}

func (c *OpenAICompleter) chat(ctx context.Context, prompt string) (Completion, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return Completion{}, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, ErrNoChoices
	}

	return Completion{
		Text:             strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:            resp.Model,
		FinishReason:     string(resp.Choices[0].FinishReason),
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

func (c *OpenAICompleter) complete(ctx context.Context, prompt string) (Completion, error) {
	resp, err := c.client.CreateCompletion(ctx, openai.CompletionRequest{
		Model:       c.cfg.Model,
		Prompt:      prompt,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return Completion{}, fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, ErrNoChoices
	}

	return Completion{
		Text:             strings.TrimSpace(resp.Choices[0].Text),
		Model:            resp.Model,
		FinishReason:     resp.Choices[0].FinishReason,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}
