package ai

import (
	"errors"
	"time"

	"github.com/hrygo/genuirouter/internal/profile"
	"github.com/hrygo/genuirouter/plugin/ai/timeout"
)

// Config represents AI configuration.
type Config struct {
	Enabled bool

	LLM LLMConfig
}

// LLMConfig represents completion provider configuration.
type LLMConfig struct {
	Provider    string  // openai, deepseek, siliconflow, ollama
	Model       string  // gpt-3.5-turbo
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 1024
	Temperature float32 // default: 0.7

	// Timeout bounds one completion call.
	Timeout time.Duration

	// Breaker settings; zero values use the defaults in DefaultBreakerConfig.
	Breaker BreakerConfig
}

// BreakerConfig configures the circuit breaker in front of a provider.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32
}

// DefaultBreakerConfig returns the breaker defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		MaxRequests:      1,
	}
}

func (b BreakerConfig) withDefaults() BreakerConfig {
	def := DefaultBreakerConfig()
	if b.FailureThreshold == 0 {
		b.FailureThreshold = def.FailureThreshold
	}
	if b.OpenTimeout <= 0 {
		b.OpenTimeout = def.OpenTimeout
	}
	if b.MaxRequests == 0 {
		b.MaxRequests = def.MaxRequests
	}
	return b
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled: p.IsAIEnabled(),
	}

	if !cfg.Enabled {
		return cfg
	}

	cfg.LLM = LLMConfig{
		Provider:    p.AILLMProvider,
		Model:       p.AILLMModel,
		APIKey:      p.LLMAPIKey(),
		BaseURL:     p.LLMBaseURL(),
		MaxTokens:   1024,
		Temperature: 0.7,
		Timeout:     timeout.OrDefault(p.CompletionTimeout, timeout.CompletionTimeout),
		Breaker:     DefaultBreakerConfig(),
	}

	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.LLM.Provider == "" {
		return errors.New("LLM provider is required")
	}

	if c.LLM.Provider != "ollama" && c.LLM.APIKey == "" {
		return errors.New("LLM API key is required")
	}

	if c.LLM.Model == "" {
		return errors.New("LLM model is required")
	}

	return nil
}
