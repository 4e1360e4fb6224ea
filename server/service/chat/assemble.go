package chat

import (
	"github.com/hrygo/genuirouter/plugin/ai/genui"
	"github.com/hrygo/genuirouter/plugin/ai/handler"
	"github.com/hrygo/genuirouter/plugin/ai/i18n"
	"github.com/hrygo/genuirouter/plugin/ai/router"
)

// Response is the final pipeline output.
type Response struct {
	RequestID      string                `json:"request_id"`
	Text           string                `json:"text"`
	Locale         i18n.Locale           `json:"locale"`
	Intent         router.Intent         `json:"intent"`
	Classification router.Classification `json:"classification"`
	Payload        *genui.Payload        `json:"payload,omitempty"`
	// Labels are the localized card labels for Payload, keyed without the "label." prefix.
	Labels    map[string]string `json:"labels,omitempty"`
	Degraded  bool              `json:"degraded,omitempty"`
	ErrorCode string            `json:"error_code,omitempty"`
}

var payloadLabels = map[genui.Tag][]i18n.Key{
	genui.TagWeather: {
		i18n.KeyLabelTemperature, i18n.KeyLabelCondition, i18n.KeyLabelHumidity, i18n.KeyLabelWind,
	},
	genui.TagTodo: {
		i18n.KeyLabelTasks, i18n.KeyLabelCompleted, i18n.KeyLabelPending, i18n.KeyLabelProgress,
	},
	genui.TagVideoEditing: {
		i18n.KeyLabelSubtraction, i18n.KeyLabelAddition, i18n.KeyLabelCompleted, i18n.KeyLabelPending,
	},
}

// Assemble combines a handler result with the routing decision and localized labels.
func Assemble(requestID string, locale i18n.Locale, intent router.Intent, classification router.Classification, result *handler.Result) *Response {
	resp := &Response{
		RequestID:      requestID,
		Text:           result.Text,
		Locale:         locale,
		Intent:         intent,
		Classification: classification,
		Payload:        result.Payload,
		Degraded:       result.Degraded,
		ErrorCode:      string(result.ErrorCode),
	}
	if result.Payload != nil {
		resp.Labels = i18n.Labels(locale, payloadLabels[result.Payload.Tag]...)
	}
	return resp
}
