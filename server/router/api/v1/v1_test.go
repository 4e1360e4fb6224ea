package v1

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/genuirouter/internal/profile"
	"github.com/hrygo/genuirouter/plugin/ai/handler"
	"github.com/hrygo/genuirouter/plugin/ai/i18n"
	"github.com/hrygo/genuirouter/plugin/ai/router"
	"github.com/hrygo/genuirouter/server/internal/observability"
	"github.com/hrygo/genuirouter/server/service/chat"
)

func newTestServer(t *testing.T, p *profile.Profile) *echo.Echo {
	t.Helper()
	if p == nil {
		p = &profile.Profile{Mode: "dev", Version: "test", RateLimit: 1000, RateBurst: 1000}
	}
	chatService, err := chat.Build(handler.DefaultCatalog(), handler.Deps{}, chat.Options{})
	require.NoError(t, err)

	e := echo.New()
	NewAPIV1Service(p, chatService).RegisterRoutes(e)
	return e
}

func doRequest(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestChat_RoutesMessage(t *testing.T) {
	e := newTestServer(t, nil)

	rec := doRequest(e, http.MethodPost, "/api/v1/chat", `{"message":"what's the weather in Paris"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp chat.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, router.IntentWeather, resp.Intent)
	assert.Equal(t, i18n.LocaleEN, resp.Locale)
	assert.Contains(t, resp.Text, "Paris")
	assert.True(t, resp.Degraded, "no weather provider in tests")
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, resp.RequestID, rec.Header().Get(echo.HeaderXRequestID))
}

func TestChat_LocaleOverride(t *testing.T) {
	e := newTestServer(t, nil)

	rec := doRequest(e, http.MethodPost, "/api/v1/chat", `{"message":"hello","locale":"ja-JP"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp chat.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, i18n.LocaleJA, resp.Locale)
	assert.Equal(t, router.IntentFallback, resp.Intent)
	assert.Equal(t, i18n.T(i18n.LocaleJA, i18n.KeyFallbackAck), resp.Text)
}

func TestChat_BadRequests(t *testing.T) {
	e := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty message", `{"message":"   "}`, "message is required"},
		{"missing message", `{}`, "message is required"},
		{"unsupported locale", `{"message":"hi","locale":"fr"}`, "unsupported locale fr"},
		{"too long", `{"message":"` + strings.Repeat("a", MaxMessageLength+1) + `"}`, "message is too long"},
		{"malformed json", `{"message":`, "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(e, http.MethodPost, "/api/v1/chat", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp.Error)
		})
	}
}

func TestChat_BodyLimit(t *testing.T) {
	e := newTestServer(t, nil)

	rec := doRequest(e, http.MethodPost, "/api/v1/chat", `{"message":"`+strings.Repeat("a", 70*1024)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestListIntents(t *testing.T) {
	e := newTestServer(t, nil)

	rec := doRequest(e, http.MethodGet, "/api/v1/intents", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Intents []chat.Capability `json:"intents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Intents, 3)
	assert.Equal(t, router.IntentWeather, resp.Intents[0].Intent)
}

func TestGetMetrics(t *testing.T) {
	e := newTestServer(t, nil)

	doRequest(e, http.MethodPost, "/api/v1/chat", `{"message":"hello"}`)
	doRequest(e, http.MethodPost, "/api/v1/chat", `{"message":"东京天气怎么样"}`)

	rec := doRequest(e, http.MethodGet, "/api/v1/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap observability.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, int64(2), snap.RequestTotal)
	assert.Equal(t, int64(1), snap.Intents["weather"].Count)
	assert.Equal(t, int64(1), snap.Intents[observability.FallbackKey].Count)
}

func TestHealthz(t *testing.T) {
	e := newTestServer(t, nil)

	rec := doRequest(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestRateLimit(t *testing.T) {
	e := newTestServer(t, &profile.Profile{Mode: "prod", RateLimit: 0.001, RateBurst: 1})

	first := doRequest(e, http.MethodGet, "/api/v1/intents", "")
	second := doRequest(e, http.MethodGet, "/api/v1/intents", "")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// Health checks are not rate limited.
	assert.Equal(t, http.StatusOK, doRequest(e, http.MethodGet, "/healthz", "").Code)
}

func TestRequestContextMiddleware_CarriesRequestID(t *testing.T) {
	e := echo.New()
	e.Use(echomw.RequestID(), NewRequestContextMiddleware())

	var got *observability.RequestContext
	e.GET("/whoami", func(c echo.Context) error {
		reqCtx, ok := observability.FromContext(c.Request().Context())
		require.True(t, ok)
		got = reqCtx
		return c.NoContent(http.StatusNoContent)
	})

	rec := doRequest(e, http.MethodGet, "/whoami", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), got.RequestID)
}

func TestChat_ReusesIncomingRequestID(t *testing.T) {
	e := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"message":"hello"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderXRequestID, "req-from-client")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp chat.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "req-from-client", resp.RequestID)
}
