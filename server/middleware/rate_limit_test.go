package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(1, 2)

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"), "burst exhausted")
	assert.True(t, rl.Allow("b"), "keys are independent")
}

func TestRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	assert.EqualValues(t, 10, rl.rps)
	assert.Equal(t, 20, rl.burst)
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	rl := newRateLimiter(0.001, 1, 100, 50*time.Millisecond)
	require.True(t, rl.Allow("a"))
	require.False(t, rl.Allow("a"))

	require.Eventually(t, func() bool { return rl.limits.Len() == 0 }, time.Second, 10*time.Millisecond)
	assert.True(t, rl.Allow("a"), "idle client starts with a fresh bucket")
}

func TestRateLimiter_BoundsClientTable(t *testing.T) {
	rl := newRateLimiter(1, 1, 2, time.Minute)
	for _, key := range []string{"a", "b", "c", "d"} {
		rl.Allow(key)
	}
	assert.Equal(t, 2, rl.limits.Len())
	assert.ElementsMatch(t, []string{"c", "d"}, rl.limits.Keys())
}

func TestRateLimiter_Middleware(t *testing.T) {
	e := echo.New()
	e.Use(NewRateLimiter(1, 1).Middleware())
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	first := httptest.NewRecorder()
	e.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	e.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
