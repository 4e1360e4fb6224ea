// Package timeout defines centralized timeout constants for external capability calls.
package timeout

import "time"

// Defaults used when the profile does not override them.
const (
	// ClassificationTimeout bounds the completion call made during intent classification.
	ClassificationTimeout = 10 * time.Second

	// CompletionTimeout bounds a single completion call made by a handler.
	CompletionTimeout = 30 * time.Second

	// WeatherTimeout bounds a single weather lookup.
	WeatherTimeout = 10 * time.Second

	// RequestTimeout bounds the whole pipeline for one message.
	RequestTimeout = 2 * time.Minute

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout = 15 * time.Second

	// MaxTruncateLength is the maximum length for truncating strings in logs.
	MaxTruncateLength = 200
)

// OrDefault returns d when positive, otherwise fallback.
func OrDefault(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
