// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/flightdelay/flightdelay/internal/history"
	"github.com/flightdelay/flightdelay/internal/model"
	"github.com/flightdelay/flightdelay/internal/telemetry"
)

// Config holds all runtime settings.
type Config struct {
	Port        string
	Environment string
	LogLevel    zerolog.Level

	ModelPath  string
	ModelWatch bool

	DistanceTablePath string
	AirportTablePath  string

	WindyAPIKey         string
	WindyBaseURL        string
	WeatherFetchTimeout time.Duration
	WeatherCircuitOpen  time.Duration
	WeatherCacheTTL     time.Duration
	WeatherWarmSchedule string

	CORSAllowedOrigins []string
	RequireTLS         bool

	OTelEnabled        bool
	OTLPEndpoint       string
	OTelSampleRatio    float64
	OTelExportInterval time.Duration

	HistorySize int
}

// LoadDotEnv reads .env and then .env.local from dir, the latter overriding.
// Missing files are ignored. Variables already set in the process
// environment win over .env but not over .env.local.
func LoadDotEnv(dir string) {
	_ = godotenv.Load(join(dir, ".env"))
	_ = godotenv.Overload(join(dir, ".env.local"))
}

func join(dir, name string) string {
	if dir == "" || dir == "." {
		return name
	}
	return strings.TrimSuffix(dir, "/") + "/" + name
}

// Load builds a Config from environment variables with defaults.
func Load() Config {
	level, err := zerolog.ParseLevel(strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	return Config{
		Port:        getEnvOrDefault("APP_PORT", "8080"),
		Environment: getEnvOrDefault("APP_ENV", "development"),
		LogLevel:    level,

		ModelPath:  getEnvOrDefault("MODEL_PATH", model.DefaultPath),
		ModelWatch: getBool("MODEL_WATCH", false),

		DistanceTablePath: getEnvOrDefault("DISTANCE_TABLE_PATH", "distance.csv"),
		AirportTablePath:  getEnvOrDefault("AIRPORT_TABLE_PATH", "airports.csv"),

		WindyAPIKey:         os.Getenv("WINDY_API_KEY"),
		WindyBaseURL:        os.Getenv("WINDY_BASE_URL"),
		WeatherFetchTimeout: getDuration("WEATHER_FETCH_TIMEOUT", 12*time.Second),
		WeatherCircuitOpen:  getDuration("WEATHER_CIRCUIT_OPEN", 0),
		WeatherCacheTTL:     getDuration("WEATHER_CACHE_TTL", 10*time.Minute),
		WeatherWarmSchedule: getEnvOrDefault("WEATHER_WARM_SCHEDULE", "@every 10m"),

		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		RequireTLS:         getBool("REQUIRE_TLS", false),

		OTelEnabled:        getBool("OTEL_ENABLED", false),
		OTLPEndpoint:       getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelSampleRatio:    getRatio("OTEL_TRACES_SAMPLER_ARG", telemetry.DefaultSampleRatio),
		OTelExportInterval: getDuration("OTEL_METRIC_EXPORT_INTERVAL", telemetry.DefaultExportInterval),

		HistorySize: getInt("HISTORY_SIZE", history.DefaultSize),
	}
}

// IsProduction reports whether the service runs in production.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnvOrDefault(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return v
}

func getInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnvOrDefault(key, strconv.Itoa(defaultValue)))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}

// getRatio parses a fraction in (0, 1].
func getRatio(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v <= 0 || v > 1 {
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnvOrDefault(key, defaultValue.String()))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}

func getList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
