package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	aierrors "github.com/hrygo/genuirouter/internal/errors"
	"github.com/hrygo/genuirouter/plugin/ai"
	"github.com/hrygo/genuirouter/plugin/ai/timeout"
)

// weatherapi.com error code for an unknown q parameter.
const codeNoMatchingLocation = 1006

type apiService struct {
	apiKey  string
	baseURL string
	timeout time.Duration
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*Current]
}

// NewService creates a Service backed by weatherapi.com.
func NewService(cfg *Config) (Service, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("weather API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &apiService{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout.OrDefault(cfg.Timeout, timeout.WeatherTimeout),
		client:  &http.Client{},
		// An unknown place is a caller problem, not a provider outage.
		breaker: ai.NewBreaker[*Current]("weather", cfg.Breaker, func(err error) bool {
			return errors.Is(err, ErrLocationNotFound)
		}),
	}, nil
}

func (s *apiService) Lookup(ctx context.Context, place string) (*Current, error) {
	place = strings.TrimSpace(place)
	if place == "" {
		return nil, aierrors.InvalidArgument("place is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	current, err := s.breaker.Execute(func() (*Current, error) {
		return s.fetch(ctx, place)
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrLocationNotFound):
			return nil, aierrors.ExtractionFailure(fmt.Sprintf("unknown place %q", place), err)
		case errors.Is(err, context.DeadlineExceeded):
			return nil, aierrors.Timeout("weather request timed out", err)
		default:
			return nil, aierrors.ProviderUnavailable("weather", err)
		}
	}

	slog.Debug("weather lookup finished",
		"place", place,
		"location", current.Location,
		"latency_ms", time.Since(start).Milliseconds())
	return current, nil
}

// currentResponse mirrors the subset of current.json we read.
type currentResponse struct {
	Location struct {
		Name    string `json:"name"`
		Region  string `json:"region"`
		Country string `json:"country"`
	} `json:"location"`
	Current struct {
		LastUpdatedEpoch int64   `json:"last_updated_epoch"`
		TempC            float64 `json:"temp_c"`
		TempF            float64 `json:"temp_f"`
		FeelsLikeF       float64 `json:"feelslike_f"`
		Humidity         int     `json:"humidity"`
		WindMPH          float64 `json:"wind_mph"`
		Condition        struct {
			Text string `json:"text"`
		} `json:"condition"`
	} `json:"current"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *apiService) fetch(ctx context.Context, place string) (*Current, error) {
	query := url.Values{}
	query.Set("key", s.apiKey)
	query.Set("q", place)
	query.Set("aqi", "no")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/current.json?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr errorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Code == codeNoMatchingLocation {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("weather API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode weather response: %w", err)
	}

	current := &Current{
		Location:     result.Location.Name,
		Region:       result.Location.Region,
		Country:      result.Location.Country,
		TemperatureF: result.Current.TempF,
		TemperatureC: result.Current.TempC,
		FeelsLikeF:   result.Current.FeelsLikeF,
		Condition:    result.Current.Condition.Text,
		Humidity:     result.Current.Humidity,
		WindMPH:      result.Current.WindMPH,
	}
	if result.Current.LastUpdatedEpoch > 0 {
		current.ObservedAt = time.Unix(result.Current.LastUpdatedEpoch, 0).UTC()
	}
	if current.Location == "" {
		current.Location = place
	}
	return current, nil
}
