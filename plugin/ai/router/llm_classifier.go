package router

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	aierrors "github.com/hrygo/genuirouter/internal/errors"
	"github.com/hrygo/genuirouter/plugin/ai"
	"github.com/hrygo/genuirouter/plugin/ai/timeout"
)

// DefaultConfidenceThreshold is the minimum confidence accepted from the completion provider.
const DefaultConfidenceThreshold float32 = 0.5

// LLMClassifier implements semantic intent classification through the completion provider.
// Only consulted when the rule layer is undecided.
type LLMClassifier struct {
	client              ai.CompletionService
	rules               []Rule
	known               map[Intent]bool
	confidenceThreshold float32
	timeout             time.Duration
	schema              *ai.JSONSchema
}

// NewLLMClassifier creates a new LLM classifier over the given intents.
// A non-positive threshold or timeout selects the default.
func NewLLMClassifier(client ai.CompletionService, rules []Rule, threshold float32, classifyTimeout time.Duration) *LLMClassifier {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}

	known := make(map[Intent]bool, len(rules))
	enum := make([]string, 0, len(rules)+1)
	for _, rule := range rules {
		known[rule.Intent] = true
		enum = append(enum, rule.Intent.String())
	}
	enum = append(enum, IntentFallback.String())

	return &LLMClassifier{
		client:              client,
		rules:               rules,
		known:               known,
		confidenceThreshold: threshold,
		timeout:             timeout.OrDefault(classifyTimeout, timeout.ClassificationTimeout),
		schema: &ai.JSONSchema{
			Type: "object",
			Properties: map[string]*ai.JSONSchema{
				"intent":     {Type: "string", Enum: enum},
				"confidence": {Type: "number", Description: "between 0 and 1"},
			},
			Required: []string{"intent", "confidence"},
		},
	}
}

// classificationSystemPrompt constrains the provider to the registered intents.
const classificationSystemPrompt = `You are an intent classifier for an assistant with a fixed set of capabilities.
Pick the single capability that best serves the user's message.
If none applies, answer "fallback".

Capabilities:
%s
Respond with JSON only: {"intent": "<capability>", "confidence": <0-1>}`

// Name implements Strategy.
func (c *LLMClassifier) Name() string {
	return "llm"
}

// Classify implements Strategy.
// An unknown intent or a confidence below the threshold is a decided fallback,
// provider errors and unparseable replies are returned as ClassificationFailure.
func (c *LLMClassifier) Classify(ctx context.Context, msg Message) (Classification, bool, error) {
	if c.client == nil || strings.TrimSpace(msg.Text) == "" {
		return Classification{}, false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	response, err := c.client.Complete(ctx, msg.Text, ai.CompletionOptions{
		System:      c.systemPrompt(),
		MaxTokens:   64,
		Temperature: ai.Float32(0),
		Schema:      c.schema,
		SchemaName:  "intent_classification",
	})
	if err != nil {
		return Classification{}, false, aierrors.ClassificationFailure("LLM classification failed", err)
	}

	result, err := c.parseResponse(response)
	if err != nil {
		return Classification{}, false, aierrors.ClassificationFailure("unparseable classification response", err).
			WithContext("response", truncate(response, 100))
	}

	if !c.known[result.Intent] || result.Confidence < c.confidenceThreshold {
		return Classification{
			Intent:     IntentFallback,
			Confidence: result.Confidence,
			Method:     MethodFallback,
		}, true, nil
	}
	return result, true, nil
}

func (c *LLMClassifier) systemPrompt() string {
	var sb strings.Builder
	for _, rule := range c.rules {
		fmt.Fprintf(&sb, "- %s: %s\n", rule.Intent, rule.Description)
	}
	return fmt.Sprintf(classificationSystemPrompt, sb.String())
}

// llmResponse is the expected JSON structure from LLM.
type llmResponse struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// parseResponse parses the LLM JSON response, tolerating a markdown fence.
func (c *LLMClassifier) parseResponse(response string) (Classification, error) {
	var resp llmResponse
	if err := json.Unmarshal([]byte(ai.StripCodeFence(response)), &resp); err != nil {
		return Classification{}, err
	}
	return Classification{
		Intent:     Intent(strings.ToLower(strings.TrimSpace(resp.Intent))),
		Confidence: float32(resp.Confidence),
		Method:     MethodLLM,
	}, nil
}
