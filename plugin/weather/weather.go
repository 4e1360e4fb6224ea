// Package weather looks up current conditions from an external weather provider.
package weather

import (
	"context"
	"errors"
	"time"

	"github.com/hrygo/genuirouter/plugin/ai"
)

// ErrLocationNotFound is returned when the provider cannot resolve the place.
var ErrLocationNotFound = errors.New("location not found")

// Current is a snapshot of conditions at one place.
type Current struct {
	// Location is the provider's resolved place name.
	Location     string
	Region       string
	Country      string
	TemperatureF float64
	TemperatureC float64
	FeelsLikeF   float64
	Condition    string
	Humidity     int
	WindMPH      float64
	ObservedAt   time.Time
}

// Service is the weather provider interface.
type Service interface {
	// Lookup returns current conditions for a free-text place name.
	Lookup(ctx context.Context, place string) (*Current, error)
}

// Config configures the weatherapi.com client.
type Config struct {
	APIKey  string
	BaseURL string // default: https://api.weatherapi.com/v1
	Timeout time.Duration
	Breaker ai.BreakerConfig
}

// DefaultBaseURL is the public weatherapi.com endpoint.
const DefaultBaseURL = "https://api.weatherapi.com/v1"
