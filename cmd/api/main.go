// Package main provides the entrypoint for the flight delay API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/flightdelay/flightdelay/internal/airport"
	"github.com/flightdelay/flightdelay/internal/api"
	"github.com/flightdelay/flightdelay/internal/api/middleware"
	"github.com/flightdelay/flightdelay/internal/config"
	"github.com/flightdelay/flightdelay/internal/distance"
	"github.com/flightdelay/flightdelay/internal/history"
	"github.com/flightdelay/flightdelay/internal/model"
	"github.com/flightdelay/flightdelay/internal/prediction"
	"github.com/flightdelay/flightdelay/internal/provider/resilience"
	"github.com/flightdelay/flightdelay/internal/telemetry"
	"github.com/flightdelay/flightdelay/internal/weather"
	"github.com/flightdelay/flightdelay/internal/weather/windy"
	"github.com/flightdelay/flightdelay/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "flightdelay-api"

	config.LoadDotEnv(".")
	cfg := config.Load()

	// Setup structured logging
	zerolog.SetGlobalLevel(cfg.LogLevel)
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Environment).
		Msg("starting flight delay API")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
		SampleRatio:    cfg.OTelSampleRatio,
		ExportInterval: cfg.OTelExportInterval,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Float64("sample_ratio", cfg.OTelSampleRatio).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}
	predictionMetrics, err := telemetry.NewPredictionMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize prediction metrics")
	}

	// A missing or broken artifact is fatal at startup.
	store := model.NewStore(model.StoreConfig{Path: cfg.ModelPath, Logger: log})
	if err := store.Load(); err != nil {
		log.Fatal().Err(err).Str("path", cfg.ModelPath).Msg("failed to load model artifact")
	}
	if cfg.ModelWatch {
		go func() {
			if err := store.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("model watcher stopped")
			}
		}()
	}

	// Reference tables degrade to built-ins and imputation when absent.
	distances := distance.LoadFile(cfg.DistanceTablePath, log)
	airports := airport.LoadFile(cfg.AirportTablePath, log)

	registry := resilience.NewRegistry()
	var provider weather.Provider
	if cfg.WindyAPIKey != "" {
		provider = windy.NewClient(windy.ClientConfig{
			APIKey:         cfg.WindyAPIKey,
			BaseURL:        cfg.WindyBaseURL,
			Timeout:        cfg.WeatherFetchTimeout,
			CircuitOpenFor: cfg.WeatherCircuitOpen,
			Registry:       registry,
			Logger:         log,
		})
	} else {
		log.Warn().Msg("WINDY_API_KEY not set, all weather will use neutral fallback values")
	}

	providerMetrics, err := telemetry.NewProviderMetrics(windy.ProviderName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize provider metrics")
	}

	weatherService := weather.NewService(weather.ServiceConfig{
		Provider:     provider,
		Logger:       log.With().Str("component", "weather").Logger(),
		Metrics:      providerMetrics,
		FetchTimeout: cfg.WeatherFetchTimeout,
		CacheTTL:     cfg.WeatherCacheTTL,
	})

	predictionService := prediction.NewService(prediction.ServiceConfig{
		Models:    store,
		Distances: distances,
		Airports:  airports,
		Weather:   weatherService,
		History:   history.NewRing(cfg.HistorySize),
		Metrics:   predictionMetrics,
		Logger:    log,
	})

	// Forecast warm-up shares the in-process cache, so it runs here.
	warmupCfg := worker.DefaultWarmupConfig()
	warmupCfg.Schedule = cfg.WeatherWarmSchedule
	warmupJob := worker.NewWarmupJob(worker.WarmupJobConfig{
		Config:  warmupCfg,
		Logger:  log,
		Weather: weatherService,
	})
	if provider != nil {
		scheduler, err := worker.NewScheduler(ctx, warmupJob, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to schedule forecast warm-up")
		}
		if scheduler != nil {
			scheduler.Start()
			defer scheduler.Stop()
		}
	}

	router := api.NewRouter(api.RouterConfig{
		Version:        Version,
		BuildTime:      BuildTime,
		Logger:         log,
		ServiceName:    serviceName,
		Metrics:        metrics,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RequireTLS:     cfg.RequireTLS,
		Predictor:      predictionService,
		Models:         store,
		Airports:       airports,
		Distances:      distances,
		Weather:        weatherService,
		Providers:      registry,
		Cache:          weatherService,
		Warmup:         warmupJob,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}
