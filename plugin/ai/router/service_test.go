package router

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aierrors "github.com/hrygo/genuirouter/internal/errors"
	"github.com/hrygo/genuirouter/plugin/ai"
)

func testRules() []Rule {
	return []Rule{
		{
			Intent:      IntentWeather,
			Description: "current weather conditions for a place",
			Triggers:    []string{"weather", "forecast", "temperature", "天气", "気温", "天気"},
		},
		{
			Intent:      IntentTodo,
			Description: "break a goal into a checklist",
			Triggers:    []string{"todo", "plan", "checklist", "待办", "计划", "やること"},
		},
		{
			Intent:      IntentVideoEditing,
			Description: "plan edits for a video",
			Triggers:    []string{"video", "edit", "footage", "剪辑", "视频", "動画"},
		},
	}
}

func TestRuleMatcher_Match(t *testing.T) {
	matcher := NewRuleMatcher(testRules())

	tests := []struct {
		name           string
		input          string
		expectedIntent Intent
		shouldMatch    bool
	}{
		{name: "English weather", input: "What's the weather in Paris?", expectedIntent: IntentWeather, shouldMatch: true},
		{name: "Case insensitive", input: "WEATHER for Tokyo", expectedIntent: IntentWeather, shouldMatch: true},
		{name: "Word prefix", input: "planning a trip", expectedIntent: IntentTodo, shouldMatch: true},
		{name: "Chinese weather", input: "北京的天气怎么样", expectedIntent: IntentWeather, shouldMatch: true},
		{name: "Japanese weather", input: "東京の天気は？", expectedIntent: IntentWeather, shouldMatch: true},
		{name: "Chinese todo", input: "帮我做一个搬家计划", expectedIntent: IntentTodo, shouldMatch: true},
		{name: "Video with two triggers", input: "edit my video footage", expectedIntent: IntentVideoEditing, shouldMatch: true},
		{name: "No word boundary", input: "the credit card", shouldMatch: false},
		{name: "Tie is undecided", input: "plan the weather", shouldMatch: false},
		{name: "Empty input", input: "", shouldMatch: false},
		{name: "No trigger", input: "tell me a joke", shouldMatch: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, confidence, matched := matcher.Match(tt.input)
			assert.Equal(t, tt.shouldMatch, matched, "match status")
			if tt.shouldMatch {
				assert.Equal(t, tt.expectedIntent, intent, "intent")
				assert.Greater(t, confidence, float32(0))
			} else {
				assert.Equal(t, IntentFallback, intent)
			}
		})
	}
}

func TestRuleMatcher_HigherScoreWins(t *testing.T) {
	matcher := NewRuleMatcher(testRules())

	intent, confidence, matched := matcher.Match("plan how to edit the video footage")
	require.True(t, matched)
	assert.Equal(t, IntentVideoEditing, intent)
	assert.Equal(t, float32(0.95), confidence)
}

func TestService_RuleLayerSkipsLLM(t *testing.T) {
	var calls atomic.Int32
	completion := ai.CompletionFunc(func(context.Context, string, ai.CompletionOptions) (string, error) {
		calls.Add(1)
		return `{"intent":"todo","confidence":0.9}`, nil
	})
	svc := NewService(Config{Rules: testRules(), Completion: completion})

	result := svc.Classify(context.Background(), NewMessage("weather in Paris"))
	assert.Equal(t, IntentWeather, result.Intent)
	assert.Equal(t, MethodRule, result.Method)
	assert.Zero(t, calls.Load())
}

func TestService_LLMLayer(t *testing.T) {
	tests := []struct {
		name           string
		response       string
		expectedIntent Intent
		expectedMethod Method
	}{
		{name: "confident answer", response: `{"intent":"todo","confidence":0.82}`, expectedIntent: IntentTodo, expectedMethod: MethodLLM},
		{name: "fenced answer", response: "```json\n{\"intent\":\"video_editing\",\"confidence\":0.7}\n```", expectedIntent: IntentVideoEditing, expectedMethod: MethodLLM},
		{name: "low confidence", response: `{"intent":"todo","confidence":0.2}`, expectedIntent: IntentFallback, expectedMethod: MethodFallback},
		{name: "unknown intent", response: `{"intent":"stocks","confidence":0.9}`, expectedIntent: IntentFallback, expectedMethod: MethodFallback},
		{name: "model chose fallback", response: `{"intent":"fallback","confidence":0.9}`, expectedIntent: IntentFallback, expectedMethod: MethodFallback},
		{name: "unparseable", response: "I think it's about todos", expectedIntent: IntentFallback, expectedMethod: MethodFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completion := ai.CompletionFunc(func(_ context.Context, prompt string, opts ai.CompletionOptions) (string, error) {
				assert.Equal(t, "help me get ready for moving house", prompt)
				assert.Contains(t, opts.System, "video_editing: plan edits for a video")
				require.NotNil(t, opts.Schema)
				assert.Equal(t, []string{"weather", "todo", "video_editing", "fallback"}, opts.Schema.Properties["intent"].Enum)
				return tt.response, nil
			})
			svc := NewService(Config{Rules: testRules(), Completion: completion})

			result := svc.Classify(context.Background(), NewMessage("help me get ready for moving house"))
			assert.Equal(t, tt.expectedIntent, result.Intent)
			assert.Equal(t, tt.expectedMethod, result.Method)
		})
	}
}

func TestService_ProviderFailureDegradesToFallback(t *testing.T) {
	completion := ai.CompletionFunc(func(context.Context, string, ai.CompletionOptions) (string, error) {
		return "", aierrors.ProviderUnavailable("completion", errors.New("connection refused"))
	})
	svc := NewService(Config{Rules: testRules(), Completion: completion})

	result := svc.Classify(context.Background(), NewMessage("something vague"))
	assert.Equal(t, Fallback(), result)
}

func TestService_ProviderTimeoutDegradesToFallback(t *testing.T) {
	completion := ai.CompletionFunc(func(ctx context.Context, _ string, _ ai.CompletionOptions) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	svc := NewService(Config{
		Rules:                 testRules(),
		Completion:            completion,
		ClassificationTimeout: 20 * time.Millisecond,
	})

	start := time.Now()
	result := svc.Classify(context.Background(), NewMessage("something vague"))
	assert.Equal(t, IntentFallback, result.Intent)
	assert.Less(t, time.Since(start), time.Second)
}

func TestService_NoCompletionProvider(t *testing.T) {
	svc := NewService(Config{Rules: testRules()})

	assert.Equal(t, Fallback(), svc.Classify(context.Background(), NewMessage("tell me a joke")))
	assert.Equal(t, Fallback(), svc.Classify(context.Background(), Message{}))
	assert.Equal(t, []Intent{IntentWeather, IntentTodo, IntentVideoEditing}, svc.Intents())
}

type staticStrategy struct {
	result Classification
}

func (s staticStrategy) Name() string { return "static" }

func (s staticStrategy) Classify(context.Context, Message) (Classification, bool, error) {
	return s.result, true, nil
}

func TestService_UnregisteredIntentIsFallback(t *testing.T) {
	svc := NewServiceWithStrategies(testRules(),
		staticStrategy{result: Classification{Intent: "stocks", Confidence: 1, Method: MethodRule}})

	result := svc.Classify(context.Background(), NewMessage("AAPL price"))
	assert.Equal(t, IntentFallback, result.Intent)
	assert.Equal(t, MethodFallback, result.Method)
}

func TestService_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	completion := ai.CompletionFunc(func(context.Context, string, ai.CompletionOptions) (string, error) {
		calls.Add(1)
		return `{"intent":"todo","confidence":0.9}`, nil
	})
	svc := NewService(Config{Rules: testRules(), Completion: completion})

	result := svc.Classify(ctx, NewMessage("weather in Paris"))
	assert.Equal(t, IntentWeather, result.Intent)
	assert.Equal(t, MethodRule, result.Method)

	assert.Equal(t, Fallback(), svc.Classify(ctx, NewMessage("help me get ready for moving house")))
	assert.Zero(t, calls.Load(), "no provider call after cancellation")
}

func TestMockRouterService(t *testing.T) {
	svc := NewMockRouterService()
	svc.IntentOverrides["plan a party"] = IntentTodo

	assert.Equal(t, IntentTodo, svc.Classify(context.Background(), NewMessage("plan a party")).Intent)
	assert.Equal(t, IntentFallback, svc.Classify(context.Background(), NewMessage("other")).Intent)
}

func TestNewMessage(t *testing.T) {
	first := NewMessage("a")
	second := NewMessage("b")
	assert.LessOrEqual(t, first.ArrivalOrder, second.ArrivalOrder)
	assert.Equal(t, "a", first.Text)
}
