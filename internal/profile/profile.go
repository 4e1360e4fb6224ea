package profile

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Profile is the configuration to start the router.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Version is the current version of server
	Version string
	// LogLevel is one of debug, info, warn, error
	LogLevel string
	// LogFormat is "text" or "json"
	LogFormat string

	// Completion provider
	AIEnabled            bool   // GENUIROUTER_AI_ENABLED (default: true when any key is present)
	AILLMProvider        string // GENUIROUTER_AI_LLM_PROVIDER (default: openai)
	AILLMModel           string // GENUIROUTER_AI_LLM_MODEL (legacy: OPENAI_MODEL_ID, default: gpt-3.5-turbo)
	AIOpenAIAPIKey       string // GENUIROUTER_AI_OPENAI_API_KEY (legacy: OPENAI_API_KEY)
	AIOpenAIBaseURL      string // GENUIROUTER_AI_OPENAI_BASE_URL (default: https://api.openai.com/v1)
	AIDeepSeekAPIKey     string // GENUIROUTER_AI_DEEPSEEK_API_KEY
	AIDeepSeekBaseURL    string // GENUIROUTER_AI_DEEPSEEK_BASE_URL (default: https://api.deepseek.com)
	AISiliconFlowAPIKey  string // GENUIROUTER_AI_SILICONFLOW_API_KEY
	AISiliconFlowBaseURL string // GENUIROUTER_AI_SILICONFLOW_BASE_URL (default: https://api.siliconflow.cn/v1)
	AIOllamaBaseURL      string // GENUIROUTER_AI_OLLAMA_BASE_URL (default: http://localhost:11434/v1)

	// Weather provider
	WeatherAPIKey      string        // GENUIROUTER_WEATHER_API_KEY (legacy: WEATHER_API_KEY)
	WeatherBaseURL     string        // GENUIROUTER_WEATHER_BASE_URL (default: https://api.weatherapi.com/v1)
	WeatherDefaultCity string        // GENUIROUTER_WEATHER_DEFAULT_CITY (default: "")
	WeatherCacheTTL    time.Duration // GENUIROUTER_WEATHER_CACHE_TTL (default: 10m)

	// Timeouts for external capability calls
	ClassificationTimeout time.Duration // GENUIROUTER_CLASSIFICATION_TIMEOUT (default: 10s)
	CompletionTimeout     time.Duration // GENUIROUTER_COMPLETION_TIMEOUT (default: 30s)
	WeatherTimeout        time.Duration // GENUIROUTER_WEATHER_TIMEOUT (default: 10s)

	// HTTP rate limiting per client
	RateLimit float64 // requests per second (default: 10)
	RateBurst int     // burst size (default: 20)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if AI is enabled and the selected provider is reachable in principle.
func (p *Profile) IsAIEnabled() bool {
	if !p.AIEnabled {
		return false
	}
	switch p.AILLMProvider {
	case "ollama":
		return p.AIOllamaBaseURL != ""
	default:
		return p.LLMAPIKey() != ""
	}
}

// IsWeatherEnabled returns true if a weather API key is configured.
func (p *Profile) IsWeatherEnabled() bool {
	return p.WeatherAPIKey != ""
}

// LLMAPIKey returns the API key of the selected completion provider.
func (p *Profile) LLMAPIKey() string {
	switch p.AILLMProvider {
	case "deepseek":
		return p.AIDeepSeekAPIKey
	case "siliconflow":
		return p.AISiliconFlowAPIKey
	case "ollama":
		return ""
	default:
		return p.AIOpenAIAPIKey
	}
}

// LLMBaseURL returns the base URL of the selected completion provider.
func (p *Profile) LLMBaseURL() string {
	switch p.AILLMProvider {
	case "deepseek":
		return p.AIDeepSeekBaseURL
	case "siliconflow":
		return p.AISiliconFlowBaseURL
	case "ollama":
		return p.AIOllamaBaseURL
	default:
		return p.AIOpenAIBaseURL
	}
}

// EnvPrefix is the environment prefix of every prefixed configuration key.
const EnvPrefix = "genuirouter"

// NewViper returns a viper instance reading GENUIROUTER_* environment variables,
// with "-" in key names mapped to "_".
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// FromViper loads provider configuration from v, so the keys can come from a config
// file (e.g. ai_openai_api_key) or from GENUIROUTER_* variables. A nil v reads the
// environment only. The bare OPENAI_* / WEATHER_* variables used by older
// deployments are honored when the prefixed key is unset.
func (p *Profile) FromViper(v *viper.Viper) {
	if v == nil {
		v = NewViper()
	}

	getWithFallback := func(key, legacyEnv string) string {
		if val := v.GetString(key); val != "" {
			return val
		}
		return os.Getenv(legacyEnv)
	}

	getWithDefault := func(key, legacyEnv, defaultValue string) string {
		if val := getWithFallback(key, legacyEnv); val != "" {
			return val
		}
		return defaultValue
	}

	getDuration := func(key string, defaultValue time.Duration) time.Duration {
		raw := v.GetString(key)
		if raw == "" {
			return defaultValue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			slog.Warn("invalid duration in configuration, using default",
				slog.String("key", key), slog.String("value", raw), slog.String("default", defaultValue.String()))
			return defaultValue
		}
		return d
	}

	p.AILLMProvider = getWithDefault("ai_llm_provider", "", "openai")
	p.AILLMModel = getWithDefault("ai_llm_model", "OPENAI_MODEL_ID", "gpt-3.5-turbo")
	p.AIOpenAIAPIKey = getWithFallback("ai_openai_api_key", "OPENAI_API_KEY")
	p.AIOpenAIBaseURL = getWithDefault("ai_openai_base_url", "OPENAI_BASE_URL", "https://api.openai.com/v1")
	p.AIDeepSeekAPIKey = v.GetString("ai_deepseek_api_key")
	p.AIDeepSeekBaseURL = getWithDefault("ai_deepseek_base_url", "", "https://api.deepseek.com")
	p.AISiliconFlowAPIKey = v.GetString("ai_siliconflow_api_key")
	p.AISiliconFlowBaseURL = getWithDefault("ai_siliconflow_base_url", "", "https://api.siliconflow.cn/v1")
	p.AIOllamaBaseURL = getWithDefault("ai_ollama_base_url", "", "http://localhost:11434/v1")

	if raw := v.GetString("ai_enabled"); raw != "" {
		p.AIEnabled = raw == "true"
	} else {
		p.AIEnabled = p.LLMAPIKey() != "" || p.AILLMProvider == "ollama"
	}

	p.WeatherAPIKey = getWithFallback("weather_api_key", "WEATHER_API_KEY")
	p.WeatherBaseURL = getWithDefault("weather_base_url", "", "https://api.weatherapi.com/v1")
	p.WeatherDefaultCity = v.GetString("weather_default_city")
	p.WeatherCacheTTL = getDuration("weather_cache_ttl", 10*time.Minute)

	p.ClassificationTimeout = getDuration("classification_timeout", 10*time.Second)
	p.CompletionTimeout = getDuration("completion_timeout", 30*time.Second)
	p.WeatherTimeout = getDuration("weather_timeout", 10*time.Second)

	if raw := v.GetString("rate_limit"); raw != "" {
		if rps, err := strconv.ParseFloat(raw, 64); err == nil {
			p.RateLimit = rps
		}
	}
	if raw := v.GetString("rate_burst"); raw != "" {
		if burst, err := strconv.Atoi(raw); err == nil {
			p.RateBurst = burst
		}
	}
}

// SlogLevel returns the configured log level.
func (p *Profile) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(p.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Port < 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}

	if p.LogLevel == "" {
		p.LogLevel = "info"
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(p.LogLevel)); err != nil {
		return errors.Wrapf(err, "invalid log level %q", p.LogLevel)
	}

	switch strings.ToLower(p.LogFormat) {
	case "", "text":
		p.LogFormat = "text"
	case "json":
		p.LogFormat = "json"
	default:
		return errors.Errorf("invalid log format %q", p.LogFormat)
	}

	switch p.AILLMProvider {
	case "", "openai", "deepseek", "siliconflow", "ollama":
	default:
		return errors.Errorf("unsupported LLM provider %q", p.AILLMProvider)
	}

	for name, d := range map[string]*time.Duration{
		"classification timeout": &p.ClassificationTimeout,
		"completion timeout":     &p.CompletionTimeout,
		"weather timeout":        &p.WeatherTimeout,
	} {
		if *d < 0 {
			return errors.Errorf("%s must not be negative, got %s", name, *d)
		}
		if *d == 0 {
			*d = 10 * time.Second
		}
	}

	if p.RateLimit <= 0 {
		p.RateLimit = 10
	}
	if p.RateBurst <= 0 {
		p.RateBurst = 20
	}

	if p.AIEnabled && !p.IsAIEnabled() {
		slog.Warn("AI is enabled but the selected provider has no credentials; classification will use rules only",
			slog.String("provider", p.AILLMProvider))
	}

	return nil
}

// ListenAddr returns the host:port the server binds to.
func (p *Profile) ListenAddr() string {
	return fmt.Sprintf("%s:%d", p.Addr, p.Port)
}
