package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestContext_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	reqCtx := NewRequestContextWithID(logger, "req-1")
	reqCtx.Intent = "todo"
	reqCtx.Locale = "en"
	reqCtx.Info("routed", slog.Int(LogFieldMessageLen, 12))
	reqCtx.Error("failed", errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-1"`)
	assert.Contains(t, out, `"intent":"todo"`)
	assert.Contains(t, out, `"locale":"en"`)
	assert.Contains(t, out, `"message_length":12`)
	assert.Contains(t, out, `"error":"boom"`)
}

func TestRequestContext_GeneratesID(t *testing.T) {
	a := NewRequestContextWithID(nil, "")
	b := NewRequestContextWithID(nil, "")
	assert.NotEmpty(t, a.RequestID)
	assert.NotEqual(t, a.RequestID, b.RequestID)
	assert.NotNil(t, a.Logger)
}

func TestRequestContext_RoundTripsThroughContext(t *testing.T) {
	reqCtx := NewRequestContextWithID(nil, "")
	ctx := WithRequestContext(context.Background(), reqCtx)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, reqCtx, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short"))
	long := strings.Repeat("天", 500)
	truncated := Truncate(long)
	assert.True(t, strings.HasSuffix(truncated, "..."))
	assert.Len(t, []rune(truncated), 203)
}

func TestMetrics_RecordRoute(t *testing.T) {
	m := NewMetrics([]string{"weather", "todo"})

	m.RecordRoute("weather", "rule", false, 10*time.Millisecond)
	m.RecordRoute("weather", "llm", true, 30*time.Millisecond)
	m.RecordRoute("stocks", "fallback", false, time.Millisecond)
	m.RecordPanic()

	s := m.Snapshot()
	assert.EqualValues(t, 3, s.RequestTotal)
	assert.EqualValues(t, 1, s.DegradedTotal)
	assert.EqualValues(t, 1, s.PanicsRecovered)
	assert.EqualValues(t, 2, s.Intents["weather"].Count)
	assert.EqualValues(t, 20, s.Intents["weather"].AvgLatencyMs)
	assert.EqualValues(t, 1, s.Intents["weather"].DegradedCount)
	assert.EqualValues(t, 1, s.Intents[FallbackKey].Count)
	assert.Contains(t, s.Intents, "todo")
	assert.EqualValues(t, 1, s.Methods["rule"])
	assert.EqualValues(t, 1, s.Methods["llm"])
	assert.EqualValues(t, 1, s.Methods["fallback"])
}

func TestMetrics_Concurrent(t *testing.T) {
	m := NewMetrics([]string{"weather", "todo", "video_editing"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			intent := []string{"weather", "todo", "video_editing", "fallback"}[i%4]
			for j := 0; j < 100; j++ {
				m.RecordRoute(intent, "rule", j%2 == 0, time.Millisecond)
			}
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 5000, m.GetRequestTotal())
	assert.EqualValues(t, 2500, m.Snapshot().DegradedTotal)
}
