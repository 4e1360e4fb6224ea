package handler

import (
	"context"

	"github.com/hrygo/genuirouter/plugin/ai/i18n"
	"github.com/hrygo/genuirouter/plugin/ai/router"
)

// NullHandler answers messages no capability claimed with a plain acknowledgement.
type NullHandler struct{}

// Process implements Handler.
func (NullHandler) Process(_ context.Context, _ router.Message, locale i18n.Locale) *Result {
	return &Result{Text: i18n.T(locale, i18n.KeyFallbackAck)}
}
