// Package weather fetches point forecasts and normalizes them into fixed-unit
// observations. Fetch failures never propagate: callers always receive an
// observation, falling back to NeutralFallback.
package weather

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/bluele/gcache"
	"github.com/rs/zerolog"

	"github.com/flightdelay/flightdelay/internal/airport"
	"github.com/flightdelay/flightdelay/internal/telemetry"
)

const operationPointForecast = "point_forecast"

// Provider fetches raw point forecasts.
type Provider interface {
	// GetPointForecast fetches the surface forecast series for a point.
	GetPointForecast(ctx context.Context, lat, lon float64, model ForecastModel) (*PointForecast, error)

	// Name returns the provider name for logging.
	Name() string
}

// CoordinateResolver maps airport codes to coordinates.
type CoordinateResolver interface {
	Resolve(code string) (airport.Coordinate, bool)
}

// ServiceConfig holds configuration for the weather service.
type ServiceConfig struct {
	// Provider is the forecast source. If nil every observation is a fallback.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// Metrics records provider calls and cache use (optional).
	Metrics *telemetry.ProviderMetrics

	// FetchTimeout bounds a single provider call (default: 12 seconds).
	FetchTimeout time.Duration

	// CacheTTL is how long raw forecasts are reused (default: 10 minutes).
	CacheTTL time.Duration

	// CacheSize caps the number of cached forecasts (default: 512).
	CacheSize int

	// CacheGridSize is the size of cache grid cells in degrees (default: 0.1).
	// Points within the same grid cell share cached forecasts.
	CacheGridSize float64
}

// Service resolves observations through a provider with a forecast cache.
type Service struct {
	provider      Provider
	logger        zerolog.Logger
	metrics       *telemetry.ProviderMetrics
	fetchTimeout  time.Duration
	cacheGridSize float64
	cache         gcache.Cache
}

// NewService creates a new weather service.
func NewService(cfg ServiceConfig) *Service {
	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout == 0 {
		fetchTimeout = 12 * time.Second
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 10 * time.Minute
	}

	cacheSize := cfg.CacheSize
	if cacheSize == 0 {
		cacheSize = 512
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.1 // ~11km at equator
	}

	return &Service{
		provider:      cfg.Provider,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
		fetchTimeout:  fetchTimeout,
		cacheGridSize: cacheGridSize,
		cache:         gcache.New(cacheSize).LRU().Expiration(cacheTTL).Build(),
	}
}

// Observe returns the normalized observation for a point at a local time.
// It never fails: any fetch or parse problem yields a labelled fallback.
func (s *Service) Observe(ctx context.Context, lat, lon float64, when time.Time) Observation {
	model := SelectModel(lat, lon)

	raw, err := s.forecast(ctx, lat, lon, model)
	if err != nil {
		s.logger.Warn().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Str("model", string(model)).
			Msg("weather fetch failed, using neutral fallback")
		return Normalize(nil, when, model)
	}

	return Normalize(raw, when, model)
}

// ObserveAirport resolves an airport code and observes weather there. The
// returned display string names the station used; unresolved codes yield the
// no-coordinates fallback with the code itself as display.
func (s *Service) ObserveAirport(ctx context.Context, resolver CoordinateResolver, code string, when time.Time) (Observation, string) {
	coord, ok := resolver.Resolve(code)
	if !ok {
		s.logger.Debug().Str("code", code).Msg("airport coordinates unknown, using neutral fallback")
		return NoCoordinatesFallback(), code
	}
	return s.Observe(ctx, coord.Lat, coord.Lon, when), coord.Display
}

// Prefetch loads the forecast for a point into the cache.
func (s *Service) Prefetch(ctx context.Context, lat, lon float64) error {
	_, err := s.forecast(ctx, lat, lon, SelectModel(lat, lon))
	return err
}

func (s *Service) forecast(ctx context.Context, lat, lon float64, model ForecastModel) (*PointForecast, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	key := s.cacheKey(lat, lon, model)
	if cached, err := s.cache.Get(key); err == nil {
		if raw, ok := cached.(*PointForecast); ok {
			s.metrics.RecordCacheHit(operationPointForecast)
			return raw, nil
		}
	}
	s.metrics.RecordCacheMiss(operationPointForecast)

	if s.provider == nil {
		return nil, ErrProviderUnavailable
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	s.logger.Debug().
		Float64("lat", lat).
		Float64("lon", lon).
		Str("model", string(model)).
		Str("provider", s.provider.Name()).
		Msg("fetching point forecast from provider")

	start := time.Now()
	raw, err := s.provider.GetPointForecast(fetchCtx, lat, lon, model)
	s.metrics.RecordRequest(operationPointForecast, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: empty forecast", ErrMalformedForecast)
	}

	if err := s.cache.Set(key, raw); err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("failed to cache point forecast")
	}

	return raw, nil
}

// cacheKey groups nearby points into grid cells to reduce API calls.
func (s *Service) cacheKey(lat, lon float64, model ForecastModel) string {
	gridLat := math.Floor(lat/s.cacheGridSize) * s.cacheGridSize
	gridLon := math.Floor(lon/s.cacheGridSize) * s.cacheGridSize
	return fmt.Sprintf("%s:%.2f:%.2f", model, gridLat, gridLon)
}

// InvalidateCache clears all cached forecasts.
func (s *Service) InvalidateCache() {
	s.cache.Purge()
}

// CacheStats returns cache statistics.
func (s *Service) CacheStats() CacheStats {
	provider := ""
	if s.provider != nil {
		provider = s.provider.Name()
	}
	return CacheStats{
		Entries:  s.cache.Len(true),
		Hits:     s.cache.HitCount(),
		Misses:   s.cache.MissCount(),
		Provider: provider,
	}
}

// CacheStats contains cache statistics.
type CacheStats struct {
	Entries  int
	Hits     uint64
	Misses   uint64
	Provider string
}

// validateCoordinates checks if coordinates are valid.
func validateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}
