package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/flightdelay/flightdelay/internal/airport"
)

// Prefetcher loads the forecast for a point into a cache.
type Prefetcher interface {
	Prefetch(ctx context.Context, lat, lon float64) error
}

// WarmupJob prefetches forecasts for known airports so that predictions hit a
// warm cache.
type WarmupJob struct {
	config  WarmupConfig
	logger  zerolog.Logger
	weather Prefetcher

	mu      sync.RWMutex
	metrics WarmupMetrics
}

// WarmupMetrics tracks warm-up job statistics.
type WarmupMetrics struct {
	TotalRuns          int64
	SuccessfulPrefetch int64
	FailedPrefetch     int64
	LastRunAt          time.Time
	LastRunDuration    time.Duration
	TotalDuration      time.Duration
	LastFailedAirports []string
}

// WarmupJobConfig holds configuration for creating a WarmupJob.
type WarmupJobConfig struct {
	Config  WarmupConfig
	Logger  zerolog.Logger
	Weather Prefetcher
}

// NewWarmupJob creates a new warm-up job.
func NewWarmupJob(cfg WarmupJobConfig) *WarmupJob {
	return &WarmupJob{
		config:  cfg.Config.withDefaults(),
		logger:  cfg.Logger.With().Str("job", "weather_warmup").Logger(),
		weather: cfg.Weather,
	}
}

// WarmupResult contains the result of one run.
type WarmupResult struct {
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Total      int
	Successful int
	Failed     int
	Errors     []WarmupError
}

// WarmupError is a failed prefetch.
type WarmupError struct {
	Airport string
	Error   string
}

// Run prefetches every configured airport with bounded concurrency. Failures
// are collected, never fatal.
func (j *WarmupJob) Run(ctx context.Context) *WarmupResult {
	start := time.Now()
	result := &WarmupResult{
		StartTime: start,
		Total:     len(j.config.Airports),
	}

	j.logger.Info().
		Int("airports", result.Total).
		Int("concurrency", j.config.Concurrency).
		Msg("starting forecast warm-up")

	if j.weather != nil {
		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(j.config.Concurrency)

		for _, a := range j.config.Airports {
			a := a
			g.Go(func() error {
				err := j.prefetch(gctx, a)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.Failed++
					result.Errors = append(result.Errors, WarmupError{Airport: a.Code, Error: err.Error()})
				} else {
					result.Successful++
				}
				// Failures are isolated per airport.
				return nil
			})
		}
		_ = g.Wait()
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(start)
	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("forecast warm-up completed")

	return result
}

func (j *WarmupJob) prefetch(ctx context.Context, a airport.Coordinate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	if err := j.weather.Prefetch(ctx, a.Lat, a.Lon); err != nil {
		j.logger.Debug().Err(err).Str("airport", a.Code).Msg("prefetch failed")
		return err
	}
	return nil
}

func (j *WarmupJob) updateMetrics(result *WarmupResult) {
	j.mu.Lock()
	defer j.mu.Unlock()

	failed := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		failed = append(failed, e.Airport)
	}

	j.metrics.TotalRuns++
	j.metrics.SuccessfulPrefetch += int64(result.Successful)
	j.metrics.FailedPrefetch += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
	j.metrics.LastFailedAirports = failed
}

// GetMetrics returns a copy of the current metrics.
func (j *WarmupJob) GetMetrics() WarmupMetrics {
	j.mu.RLock()
	defer j.mu.RUnlock()

	m := j.metrics
	m.LastFailedAirports = append([]string(nil), j.metrics.LastFailedAirports...)
	return m
}

// MetricsSnapshot returns the current metrics as a map for status output.
func (j *WarmupJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":           m.TotalRuns,
		"successful_prefetch":  m.SuccessfulPrefetch,
		"failed_prefetch":      m.FailedPrefetch,
		"last_run_at":          m.LastRunAt,
		"last_run_duration":    m.LastRunDuration.String(),
		"total_duration":       m.TotalDuration.String(),
		"last_failed_airports": m.LastFailedAirports,
	}
}
