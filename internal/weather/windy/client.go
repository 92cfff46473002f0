// Package windy implements the weather.Provider interface against the Windy
// point forecast API.
package windy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/flightdelay/flightdelay/internal/provider/resilience"
	"github.com/flightdelay/flightdelay/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "windy"

	// DefaultBaseURL is the Windy point forecast endpoint.
	DefaultBaseURL = "https://api.windy.com/api/point-forecast/v2"

	// DefaultTimeout bounds a single forecast request.
	DefaultTimeout = 12 * time.Second
)

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = errors.New("windy api key not configured")

// Parameters requested for every forecast.
var Parameters = []string{
	"temp", "dewpoint", "rh", "pressure",
	"wind", "windGust",
	"lclouds", "mclouds", "hclouds",
	"precip", "snowPrecip", "convPrecip",
}

// ClientConfig holds configuration for the Windy client.
type ClientConfig struct {
	// APIKey is the Windy point forecast API key (required).
	APIKey string

	// BaseURL is the API endpoint (optional, defaults to DefaultBaseURL).
	BaseURL string

	// Timeout bounds each request when HTTPClient is nil (default: 12 seconds).
	Timeout time.Duration

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a single-attempt resilient client.
	HTTPClient *resilience.Client

	// CircuitOpenFor overrides how long the breaker rejects calls after
	// repeated failures. Zero derives it from Timeout. Ignored when
	// HTTPClient is set.
	CircuitOpenFor time.Duration

	// Registry receives provider health when HTTPClient is nil (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Windy point forecast API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Windy client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		rc := resilience.SingleAttemptConfig(ProviderName, timeout)
		if cfg.CircuitOpenFor > 0 {
			rc.CircuitBreaker.OpenFor = cfg.CircuitOpenFor
		}
		logger := cfg.Logger
		rc.CircuitBreaker.OnStateChange = func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("weather circuit breaker state changed")
		}
		rc.Registry = cfg.Registry
		httpClient = resilience.NewClient(rc)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

type forecastRequest struct {
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
	Model      string   `json:"model"`
	Parameters []string `json:"parameters"`
	Levels     []string `json:"levels"`
	Key        string   `json:"key"`
}

// GetPointForecast fetches the surface forecast for a point.
func (c *Client) GetPointForecast(ctx context.Context, lat, lon float64, model weather.ForecastModel) (*weather.PointForecast, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	body, err := json.Marshal(forecastRequest{
		Lat:        lat,
		Lon:        lon,
		Model:      string(model),
		Parameters: Parameters,
		Levels:     []string{"surface"},
		Key:        c.apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a bounded amount so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var forecast weather.PointForecast
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	c.logger.Debug().
		Str("model", string(model)).
		Int("steps", len(forecast.TS)).
		Msg("point forecast received")

	return &forecast, nil
}
