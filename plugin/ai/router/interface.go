// Package router classifies user messages into capability intents.
package router

import (
	"context"
	"time"
)

// RouterService defines the intent routing interface.
type RouterService interface {
	// Classify maps a message to a registered intent.
	// Never fails: when no strategy decides, the result is IntentFallback.
	Classify(ctx context.Context, msg Message) Classification

	// Intents lists the intents the service can produce, excluding IntentFallback.
	Intents() []Intent
}

// Message is a single user input. It is immutable once created.
type Message struct {
	Text string
	// ArrivalOrder orders messages from the same client.
	ArrivalOrder int64
}

// NewMessage creates a message stamped with the current time as arrival order.
func NewMessage(text string) Message {
	return Message{Text: text, ArrivalOrder: time.Now().UnixNano()}
}

// Intent is the routing key of a capability handler.
type Intent string

const (
	IntentWeather      Intent = "weather"
	IntentTodo         Intent = "todo"
	IntentVideoEditing Intent = "video_editing"
	// IntentFallback is the sentinel for "no capability matched". It is never registered.
	IntentFallback Intent = "fallback"
)

// String returns the intent key.
func (i Intent) String() string {
	return string(i)
}

// Method records which strategy decided a classification.
type Method string

const (
	MethodRule     Method = "rule"
	MethodLLM      Method = "llm"
	MethodFallback Method = "fallback"
)

// Classification is the outcome of routing a message.
type Classification struct {
	Intent     Intent  `json:"intent"`
	Confidence float32 `json:"confidence"`
	Method     Method  `json:"method"`
}

// Fallback returns the classification used when nothing matched.
func Fallback() Classification {
	return Classification{Intent: IntentFallback, Method: MethodFallback}
}

// Strategy is one layer of the classification chain.
type Strategy interface {
	// Name identifies the strategy in logs.
	Name() string
	// Classify returns decided=false when the strategy has no opinion.
	// An error means the strategy failed and the chain should continue.
	Classify(ctx context.Context, msg Message) (result Classification, decided bool, err error)
}

// Rule declares the trigger vocabulary of one intent.
type Rule struct {
	Intent Intent
	// Description is shown to the completion provider during semantic classification.
	Description string
	// Triggers are keywords or phrases that select the intent lexically.
	Triggers []string
}
