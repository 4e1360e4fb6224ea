package observability

import (
	"sync/atomic"
	"time"
)

// FallbackKey is the metrics bucket for messages no capability claimed.
const FallbackKey = "fallback"

// Metrics counts routing outcomes. Buckets are allocated once in NewMetrics and the
// map is never written afterwards, so recording needs no lock.
type Metrics struct {
	startedAt time.Time

	requestTotal    atomic.Int64
	degradedTotal   atomic.Int64
	panicsRecovered atomic.Int64

	methods map[string]*atomic.Int64
	intents map[string]*IntentMetrics
}

// IntentMetrics represents metrics for one intent.
type IntentMetrics struct {
	count         atomic.Int64
	degradedCount atomic.Int64
	totalDuration atomic.Int64 // milliseconds
}

// Classification methods tracked by Metrics.
var trackedMethods = []string{"rule", "llm", "fallback"}

// NewMetrics pre-allocates a bucket for every intent plus FallbackKey.
func NewMetrics(intents []string) *Metrics {
	m := &Metrics{
		startedAt: time.Now(),
		methods:   make(map[string]*atomic.Int64, len(trackedMethods)),
		intents:   make(map[string]*IntentMetrics, len(intents)+1),
	}
	for _, method := range trackedMethods {
		m.methods[method] = &atomic.Int64{}
	}
	for _, intent := range intents {
		m.intents[intent] = &IntentMetrics{}
	}
	m.intents[FallbackKey] = &IntentMetrics{}
	return m
}

// RecordRoute records one routed message. Unknown intents count as fallback.
func (m *Metrics) RecordRoute(intent, method string, degraded bool, duration time.Duration) {
	m.requestTotal.Add(1)
	if counter, ok := m.methods[method]; ok {
		counter.Add(1)
	}

	im, ok := m.intents[intent]
	if !ok {
		im = m.intents[FallbackKey]
	}
	im.count.Add(1)
	im.totalDuration.Add(duration.Milliseconds())
	if degraded {
		m.degradedTotal.Add(1)
		im.degradedCount.Add(1)
	}
}

// RecordPanic records a handler panic that was recovered.
func (m *Metrics) RecordPanic() {
	m.panicsRecovered.Add(1)
}

// GetRequestTotal returns the total number of routed messages.
func (m *Metrics) GetRequestTotal() int64 {
	return m.requestTotal.Load()
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	UptimeSeconds   int64                     `json:"uptime_seconds"`
	RequestTotal    int64                     `json:"request_total"`
	DegradedTotal   int64                     `json:"degraded_total"`
	PanicsRecovered int64                     `json:"panics_recovered"`
	Methods         map[string]int64          `json:"methods"`
	Intents         map[string]IntentSnapshot `json:"intents"`
}

// IntentSnapshot is the per-intent part of a Snapshot.
type IntentSnapshot struct {
	Count         int64 `json:"count"`
	DegradedCount int64 `json:"degraded_count"`
	AvgLatencyMs  int64 `json:"avg_latency_ms"`
}

// Snapshot reads every counter. Counters are read independently, so a snapshot taken
// under load may be off by in-flight requests.
func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		UptimeSeconds:   int64(time.Since(m.startedAt).Seconds()),
		RequestTotal:    m.requestTotal.Load(),
		DegradedTotal:   m.degradedTotal.Load(),
		PanicsRecovered: m.panicsRecovered.Load(),
		Methods:         make(map[string]int64, len(m.methods)),
		Intents:         make(map[string]IntentSnapshot, len(m.intents)),
	}
	for method, counter := range m.methods {
		s.Methods[method] = counter.Load()
	}
	for intent, im := range m.intents {
		count := im.count.Load()
		var avg int64
		if count > 0 {
			avg = im.totalDuration.Load() / count
		}
		s.Intents[intent] = IntentSnapshot{
			Count:         count,
			DegradedCount: im.degradedCount.Load(),
			AvgLatencyMs:  avg,
		}
	}
	return s
}
