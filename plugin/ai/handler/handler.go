// Package handler implements the capability handlers and the registry that dispatches to them.
package handler

import (
	"context"
	"time"

	aierrors "github.com/hrygo/genuirouter/internal/errors"
	"github.com/hrygo/genuirouter/plugin/ai"
	"github.com/hrygo/genuirouter/plugin/ai/genui"
	"github.com/hrygo/genuirouter/plugin/ai/i18n"
	"github.com/hrygo/genuirouter/plugin/ai/router"
	"github.com/hrygo/genuirouter/plugin/weather"
)

// Handler turns a message into a reply for one intent.
//
// Process always returns a non-nil Result. Provider failures, timeouts and
// unusable provider output are converted into a degraded result; they are
// never returned or panicked.
type Handler interface {
	Process(ctx context.Context, msg router.Message, locale i18n.Locale) *Result
}

// Result is the outcome of one handler invocation.
type Result struct {
	// Text is the natural-language reply in the requested locale. Never empty.
	Text string
	// Payload is the UI card; nil means a text-only reply.
	Payload *genui.Payload
	// Degraded is set when a recovered failure shaped the reply.
	Degraded bool
	// ErrorCode names the recovered failure class when Degraded is set.
	ErrorCode aierrors.ErrorCode
	// Err is the recovered failure, kept for logging only.
	Err error
}

// Deps are the shared capabilities injected into handler factories.
type Deps struct {
	// Completion is the completion provider; nil disables provider-backed features.
	Completion ai.CompletionService
	// Weather is the weather provider; nil makes every lookup unavailable.
	Weather weather.Service
	// CompletionTimeout bounds each completion call.
	CompletionTimeout time.Duration
	// WeatherTimeout bounds each weather lookup.
	WeatherTimeout time.Duration
	// DefaultCity is used when no place can be extracted from the message.
	DefaultCity string
}

func success(text string, payload *genui.Payload) *Result {
	return &Result{Text: text, Payload: payload}
}

func degraded(text string, payload *genui.Payload, err error) *Result {
	return &Result{
		Text:      text,
		Payload:   payload,
		Degraded:  true,
		ErrorCode: aierrors.GetCodeFromError(err, aierrors.ErrCodeProviderUnavailable),
		Err:       err,
	}
}
