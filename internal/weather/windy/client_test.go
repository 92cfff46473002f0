package windy_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightdelay/flightdelay/internal/provider/resilience"
	"github.com/flightdelay/flightdelay/internal/weather"
	"github.com/flightdelay/flightdelay/internal/weather/windy"
)

const forecastBody = `{
	"ts": [1720103400000, 1720114200000],
	"units": {
		"temp-surface": "K",
		"rh-surface": "%",
		"pressure-surface": "Pa",
		"wind_u-surface": "m*s-1",
		"wind_v-surface": "m*s-1",
		"past3hprecip-surface": "m"
	},
	"temp-surface": [295.15, 297.15],
	"rh-surface": [55.2, 50.1],
	"pressure-surface": [101325, 101200],
	"wind_u-surface": [3, 1],
	"wind_v-surface": [4, 1],
	"lclouds-surface": [10, 0],
	"mclouds-surface": [60, 0],
	"hclouds-surface": [0, 0],
	"past3hprecip-surface": [0.0005, 0],
	"warning": "The trial API version is for development purposes only."
}`

func newClient(t *testing.T, url string) *windy.Client {
	t.Helper()
	return windy.NewClient(windy.ClientConfig{
		APIKey:  "test-key",
		BaseURL: url,
		Timeout: time.Second,
		Logger:  zerolog.Nop(),
	})
}

func TestClient_GetPointForecast(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.InDelta(t, 40.6413, body["lat"], 1e-9)
		assert.InDelta(t, -73.7781, body["lon"], 1e-9)
		assert.Equal(t, "namConus", body["model"])
		assert.Equal(t, "test-key", body["key"])
		assert.Equal(t, []interface{}{"surface"}, body["levels"])
		assert.Len(t, body["parameters"], 12)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(forecastBody))
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	fc, err := client.GetPointForecast(context.Background(), 40.6413, -73.7781, weather.ModelNAMConus)
	require.NoError(t, err)

	assert.Len(t, fc.TS, 2)
	assert.Equal(t, "Pa", fc.Unit(weather.KeyPressure))

	when := time.Date(2024, 7, 4, 14, 30, 0, 0, time.UTC)
	obs := weather.Normalize(fc, when, weather.ModelNAMConus)

	assert.InDelta(t, 71.6, obs.TemperatureF, 0.01)
	assert.Equal(t, 55.0, obs.HumidityPct)
	assert.InDelta(t, 1013.3, obs.PressureMb, 0.01)
	assert.InDelta(t, 11.2, obs.WindMph, 0.01)
	assert.Equal(t, 60.0, obs.CloudinessPct)
	assert.InDelta(t, 0.02, obs.PrecipIn, 1e-9)
	assert.Equal(t, "Windy Point Forecast (namConus)", obs.Source)
}

func TestClient_ErrorStatus(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	_, err := client.GetPointForecast(context.Background(), 51.47, -0.45, weather.ModelNAMConus)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Equal(t, int32(1), attempts.Load(), "weather fetch is a single attempt")
}

func TestClient_BadRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"invalid key"}`))
	}))
	defer server.Close()

	_, err := newClient(t, server.URL).GetPointForecast(context.Background(), 0, 0, weather.ModelNAMConus)
	assert.Error(t, err)
}

func TestClient_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer server.Close()

	_, err := newClient(t, server.URL).GetPointForecast(context.Background(), 0, 0, weather.ModelNAMConus)
	assert.Error(t, err)
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := windy.NewClient(windy.ClientConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 50 * time.Millisecond,
		Logger:  zerolog.Nop(),
	})

	_, err := client.GetPointForecast(context.Background(), 0, 0, weather.ModelNAMConus)
	assert.Error(t, err)
}

func TestClient_MissingAPIKey(t *testing.T) {
	client := windy.NewClient(windy.ClientConfig{Logger: zerolog.Nop()})

	_, err := client.GetPointForecast(context.Background(), 0, 0, weather.ModelNAMConus)
	assert.ErrorIs(t, err, windy.ErrMissingAPIKey)
}

func TestClient_ReportsHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(forecastBody))
	}))
	defer server.Close()

	registry := resilience.NewRegistry()
	client := windy.NewClient(windy.ClientConfig{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Registry: registry,
		Logger:   zerolog.Nop(),
	})

	_, err := client.GetPointForecast(context.Background(), 0, 0, weather.ModelNAMConus)
	require.NoError(t, err)

	health := registry.GetHealth(windy.ProviderName)
	require.NotNil(t, health)
	assert.NotNil(t, health.LastSuccessAt)
	assert.Equal(t, "windy", client.Name())
}

func TestClient_ServiceIntegration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := weather.NewService(weather.ServiceConfig{
		Provider: newClient(t, server.URL),
		Logger:   zerolog.Nop(),
	})

	obs := svc.Observe(context.Background(), 33.9416, -118.4085, time.Now())
	assert.Equal(t, weather.FallbackFor(weather.ModelNAMConus), obs)
}

func TestClient_CircuitOpensAfterConsecutiveFailures(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	var logs bytes.Buffer
	registry := resilience.NewRegistry()
	client := windy.NewClient(windy.ClientConfig{
		APIKey:         "test-key",
		BaseURL:        server.URL,
		Timeout:        time.Second,
		CircuitOpenFor: time.Hour,
		Registry:       registry,
		Logger:         zerolog.New(&logs),
	})

	for i := 0; i < 3; i++ {
		_, err := client.GetPointForecast(context.Background(), 40.64, -73.78, weather.ModelNAMConus)
		require.Error(t, err)
	}

	health := registry.GetHealth(windy.ProviderName)
	require.NotNil(t, health)
	assert.Equal(t, "FAIL", health.Status())
	assert.Contains(t, logs.String(), "weather circuit breaker state changed")

	_, err := client.GetPointForecast(context.Background(), 40.64, -73.78, weather.ModelNAMConus)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(3), attempts.Load())
}
