package v1

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/genuirouter/plugin/ai/i18n"
	"github.com/hrygo/genuirouter/plugin/ai/router"
	"github.com/hrygo/genuirouter/server/service/chat"
)

// MaxMessageLength is the longest accepted message, in runes.
const MaxMessageLength = 4000

// ChatRequest is the body of POST /api/v1/chat.
type ChatRequest struct {
	Message string `json:"message"`
	// Locale forces the reply locale, e.g. "zh-CN". Detected from Message when empty.
	Locale string `json:"locale,omitempty"`
	// ArrivalOrder is the client's ordering key; assigned on arrival when zero.
	ArrivalOrder int64 `json:"arrival_order,omitempty"`
}

// ErrorResponse is the body of every 4xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Chat routes one message.
// POST /api/v1/chat
func (s *APIV1Service) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	chatReq, errMsg := validateChatRequest(&req)
	if errMsg != "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: errMsg})
	}
	resp := s.ChatService.Handle(c.Request().Context(), chatReq)
	return c.JSON(http.StatusOK, resp)
}

func validateChatRequest(req *ChatRequest) (chat.Request, string) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return chat.Request{}, "message is required"
	}
	if !utf8.ValidString(text) {
		return chat.Request{}, "message must be valid UTF-8"
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return chat.Request{}, "message is too long"
	}

	out := chat.Request{Message: router.NewMessage(text)}
	if req.ArrivalOrder > 0 {
		out.Message.ArrivalOrder = req.ArrivalOrder
	}
	if req.Locale != "" {
		locale, ok := i18n.ParseLocale(req.Locale)
		if !ok {
			return chat.Request{}, "unsupported locale " + req.Locale
		}
		out.Locale = locale
	}
	return out, ""
}

// ListIntents lists the registered intents.
// GET /api/v1/intents
func (s *APIV1Service) ListIntents(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"intents": s.ChatService.Capabilities()})
}

// GetMetrics returns the routing counters.
// GET /api/v1/metrics
func (s *APIV1Service) GetMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, s.ChatService.Metrics().Snapshot())
}
