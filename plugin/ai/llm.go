package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"

	aierrors "github.com/hrygo/genuirouter/internal/errors"
	"github.com/hrygo/genuirouter/plugin/ai/timeout"
)

// CompletionOptions constrains a single completion request.
type CompletionOptions struct {
	// System is an optional system prompt.
	System string
	// MaxTokens overrides the configured default when positive.
	MaxTokens int
	// Temperature overrides the configured default when non-nil.
	Temperature *float32
	// Schema requests structured JSON output matching the schema.
	Schema *JSONSchema
	// SchemaName names the schema for the provider; required when Schema is set.
	SchemaName string
}

// CompletionService is the completion provider interface.
type CompletionService interface {
	// Complete sends prompt and returns the raw text of the first choice.
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
}

// CompletionFunc adapts an ordinary function to CompletionService.
type CompletionFunc func(ctx context.Context, prompt string, opts CompletionOptions) (string, error)

// Complete calls f(ctx, prompt, opts).
func (f CompletionFunc) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	return f(ctx, prompt, opts)
}

type completionService struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
	breaker     *gobreaker.CircuitBreaker[string]
}

// NewCompletionService creates a CompletionService for any OpenAI-compatible endpoint.
func NewCompletionService(cfg *LLMConfig) (CompletionService, error) {
	var clientConfig openai.ClientConfig

	switch cfg.Provider {
	case "openai", "deepseek", "siliconflow":
		clientConfig = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}

	case "ollama":
		// Ollama exposes an OpenAI-compatible API under /v1 and ignores the token.
		clientConfig = openai.DefaultConfig("ollama")
		clientConfig.BaseURL = cfg.BaseURL

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	if cfg.Model == "" {
		return nil, errors.New("LLM model is required")
	}

	return &completionService{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     timeout.OrDefault(cfg.Timeout, timeout.CompletionTimeout),
		breaker:     NewBreaker[string]("completion:"+cfg.Provider, cfg.Breaker, nil),
	}, nil
}

func (s *completionService) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := s.buildRequest(prompt, opts)

	start := time.Now()
	content, err := s.breaker.Execute(func() (string, error) {
		resp, err := s.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("empty response from LLM")
		}
		slog.Debug("completion finished",
			"model", s.model,
			"latency_ms", time.Since(start).Milliseconds(),
			"tokens", resp.Usage.TotalTokens)
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", aierrors.Timeout("completion request timed out", err)
		}
		return "", aierrors.ProviderUnavailable("completion", err)
	}

	return strings.TrimSpace(content), nil
}

func (s *completionService) buildRequest(prompt string, opts CompletionOptions) openai.ChatCompletionRequest {
	maxTokens := s.maxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}
	temperature := s.temperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if opts.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: opts.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Messages:    messages,
	}

	if opts.Schema != nil {
		name := opts.SchemaName
		if name == "" {
			name = "structured_output"
		}
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   name,
				Strict: true,
				Schema: opts.Schema,
			},
		}
	}

	return req
}

// NewBreaker creates a circuit breaker that fails fast after repeated provider errors.
// A caller-side cancellation never counts as a provider failure, nor does any error
// for which ignore returns true.
func NewBreaker[T any](name string, cfg BreakerConfig, ignore func(error) bool) *gobreaker.CircuitBreaker[T] {
	cfg = cfg.withDefaults()
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			return ignore != nil && ignore(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
	})
}

// Float32 returns a pointer to v, for CompletionOptions.Temperature.
func Float32(v float32) *float32 {
	return &v
}

// JSONSchema is the subset of JSON Schema used for structured completions.
type JSONSchema struct {
	Type        string                 `json:"type"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Items       *JSONSchema            `json:"items,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Enum        []string               `json:"enum,omitempty"`
	Description string                 `json:"description,omitempty"`
}

// MarshalJSON emits additionalProperties=false on objects, as strict mode requires.
func (s *JSONSchema) MarshalJSON() ([]byte, error) {
	type alias JSONSchema
	if s.Type != "object" {
		return json.Marshal((*alias)(s))
	}
	return json.Marshal(struct {
		*alias
		AdditionalProperties bool `json:"additionalProperties"`
	}{alias: (*alias)(s)})
}

// StripCodeFence removes a surrounding markdown code fence from a model reply.
func StripCodeFence(response string) string {
	response = strings.TrimSpace(response)
	if !strings.HasPrefix(response, "```") {
		return response
	}
	lines := strings.Split(response, "\n")
	var body []string
	inside := false
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if inside {
				break
			}
			inside = true
			continue
		}
		if inside {
			body = append(body, line)
		}
	}
	return strings.TrimSpace(strings.Join(body, "\n"))
}
