package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flightdelay/flightdelay/internal/api/models"
	"github.com/flightdelay/flightdelay/internal/api/response"
	"github.com/flightdelay/flightdelay/internal/prediction"
	"github.com/flightdelay/flightdelay/internal/weather"
)

// weatherAtLayout is the format of the "at" query parameter.
const weatherAtLayout = "2006-01-02T15:04"

// WeatherObserver observes weather at an airport.
type WeatherObserver interface {
	ObserveAirport(ctx context.Context, resolver weather.CoordinateResolver, code string, when time.Time) (weather.Observation, string)
}

// WeatherHandler handles the airport weather endpoint.
type WeatherHandler struct {
	weather  WeatherObserver
	airports weather.CoordinateResolver
	now      func() time.Time
}

// NewWeatherHandler creates a new WeatherHandler.
func NewWeatherHandler(observer WeatherObserver, airports weather.CoordinateResolver) *WeatherHandler {
	return &WeatherHandler{weather: observer, airports: airports, now: time.Now}
}

// GetWeather handles GET /v1/weather/{code}?at=2006-01-02T15:04.
func (h *WeatherHandler) GetWeather(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "code")))

	when := h.now()
	if raw := r.URL.Query().Get("at"); raw != "" {
		t, err := time.Parse(weatherAtLayout, raw)
		if err != nil {
			response.BadRequest(w, r, "at must be formatted as YYYY-MM-DDTHH:MM", []models.FieldError{
				{Field: "at", Message: "must be formatted as YYYY-MM-DDTHH:MM", Code: "INVALID_FORMAT"},
			})
			return
		}
		when = t
	}

	if _, ok := h.airports.Resolve(code); !ok {
		response.NotFound(w, r, "no coordinates known for airport "+code)
		return
	}

	obs, station := h.weather.ObserveAirport(r.Context(), h.airports, code, when)
	response.JSON(w, r, http.StatusOK, prediction.StationWeather{
		Code:        code,
		Station:     station,
		Icon:        obs.Icon(),
		Summary:     obs.Summary(),
		Observation: obs,
	})
}
