// Package api provides the HTTP API for the flight delay service.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/flightdelay/flightdelay/internal/airport"
	"github.com/flightdelay/flightdelay/internal/api/handler"
	"github.com/flightdelay/flightdelay/internal/api/middleware"
	"github.com/flightdelay/flightdelay/internal/prediction"
	"github.com/flightdelay/flightdelay/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version        string
	BuildTime      string
	Logger         zerolog.Logger
	ServiceName    string
	Metrics        *middleware.Metrics
	AllowedOrigins []string
	RequireTLS     bool

	Predictor handler.Predictor
	Models    prediction.ModelSource
	Airports  *airport.Resolver
	Distances handler.DistanceLookup
	Weather   handler.WeatherObserver
	Providers *resilience.Registry
	Cache     handler.CacheStatter
	Warmup    handler.WarmupReporter
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "flightdelay-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"X-Request-Id", "Retry-After"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Models:    cfg.Models,
		Providers: cfg.Providers,
		Cache:     cfg.Cache,
		Warmup:    cfg.Warmup,
	})
	predictionHandler := handler.NewPredictionHandler(cfg.Predictor)
	lookupHandler := handler.NewLookupHandler(cfg.Airports, cfg.Distances)
	weatherHandler := handler.NewWeatherHandler(cfg.Weather, cfg.Airports)
	modelHandler := handler.NewModelHandler(cfg.Models)

	predictionRateLimit := middleware.RateLimitByIP(middleware.PredictionRateLimit)
	standardRateLimit := middleware.RateLimitByIPAndRoute(middleware.StandardRateLimit)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Predictions may call the weather provider - strict rate limiting
		r.Group(func(r chi.Router) {
			r.Use(predictionRateLimit)
			r.Use(middleware.RequireJSON)
			r.Post("/predictions", predictionHandler.PredictFlight)
			r.Post("/predictions:record", predictionHandler.PredictRecord)
		})

		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/predictions/recent", predictionHandler.Recent)
			r.Get("/airports/{code}", lookupHandler.GetAirport)
			r.Get("/distances", lookupHandler.GetDistance)
			r.Get("/model", modelHandler.GetModel)
		})

		r.With(predictionRateLimit).Get("/weather/{code}", weatherHandler.GetWeather)
	})

	return r
}
