package router

import (
	"context"
	"log/slog"
	"time"

	"github.com/hrygo/genuirouter/plugin/ai"
)

// Service implements RouterService as an ordered strategy chain.
// Layer 1: Rule-based matching (0ms)
// Layer 2: LLM classification (~400ms), only for messages the rules leave undecided
// Layer 3: IntentFallback
type Service struct {
	strategies []Strategy
	intents    []Intent
	known      map[Intent]bool
}

// Config contains the configuration for the router service.
type Config struct {
	// Rules declare the trigger vocabulary and description of every registered intent.
	Rules []Rule
	// Completion enables the LLM layer when non-nil.
	Completion ai.CompletionService
	// ConfidenceThreshold for LLM answers; zero selects DefaultConfidenceThreshold.
	ConfidenceThreshold float32
	// ClassificationTimeout bounds the LLM call; zero selects the default.
	ClassificationTimeout time.Duration
}

// NewService creates the default rule -> LLM -> fallback chain.
func NewService(cfg Config) *Service {
	strategies := []Strategy{NewRuleMatcher(cfg.Rules)}
	if cfg.Completion != nil {
		strategies = append(strategies,
			NewLLMClassifier(cfg.Completion, cfg.Rules, cfg.ConfidenceThreshold, cfg.ClassificationTimeout))
	}
	return NewServiceWithStrategies(cfg.Rules, strategies...)
}

// NewServiceWithStrategies creates a service running the given strategies in order.
// Results naming an intent outside rules are treated as fallback.
func NewServiceWithStrategies(rules []Rule, strategies ...Strategy) *Service {
	s := &Service{
		strategies: strategies,
		known:      make(map[Intent]bool, len(rules)),
	}
	for _, rule := range rules {
		if rule.Intent == IntentFallback || s.known[rule.Intent] {
			continue
		}
		s.known[rule.Intent] = true
		s.intents = append(s.intents, rule.Intent)
	}
	return s
}

// Classify classifies a message. Strategy failures are logged and never surface to the caller.
// Once ctx is done only in-memory strategies still run, so rule matches survive a
// cancelled request.
func (s *Service) Classify(ctx context.Context, msg Message) Classification {
	start := time.Now()

	for _, strategy := range s.strategies {
		if ctx.Err() != nil && !isLocal(strategy) {
			slog.Debug("skipping strategy on cancelled context",
				"strategy", strategy.Name(),
				"error", ctx.Err())
			continue
		}

		result, decided, err := strategy.Classify(ctx, msg)
		if err != nil {
			slog.Warn("classification strategy failed, continuing",
				"strategy", strategy.Name(),
				"input", truncate(msg.Text, 50),
				"error", err)
			continue
		}
		if !decided {
			continue
		}

		if result.Intent != IntentFallback && !s.known[result.Intent] {
			slog.Warn("strategy returned unregistered intent",
				"strategy", strategy.Name(),
				"intent", result.Intent)
			result = Classification{Intent: IntentFallback, Confidence: result.Confidence, Method: MethodFallback}
		}

		slog.Debug("intent classified",
			"strategy", strategy.Name(),
			"input", truncate(msg.Text, 50),
			"intent", result.Intent,
			"confidence", result.Confidence,
			"latency_ms", time.Since(start).Milliseconds())
		return result
	}

	slog.Debug("no intent match found",
		"input", truncate(msg.Text, 50),
		"latency_ms", time.Since(start).Milliseconds())
	return Fallback()
}

// Intents implements RouterService.
func (s *Service) Intents() []Intent {
	out := make([]Intent, len(s.intents))
	copy(out, s.intents)
	return out
}

// isLocal reports whether strategy answers without I/O.
func isLocal(strategy Strategy) bool {
	_, ok := strategy.(*RuleMatcher)
	return ok
}

// truncate truncates a string to maxLen runes.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// Ensure Service implements RouterService
var _ RouterService = (*Service)(nil)
