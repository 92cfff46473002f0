package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/flightdelay/flightdelay/internal/airport"
	"github.com/flightdelay/flightdelay/internal/api/models"
	"github.com/flightdelay/flightdelay/internal/api/response"
	"github.com/flightdelay/flightdelay/internal/distance"
	"github.com/flightdelay/flightdelay/pkg/geo"
)

// AirportResolver resolves airport codes and reports the matching stage.
type AirportResolver interface {
	ResolveWithSource(code string) (airport.Coordinate, airport.Source, bool)
}

// DistanceLookup finds route mileage in the reference table.
type DistanceLookup interface {
	Lookup(origin, destination string) (float64, bool)
}

// LookupHandler handles airport and distance reference endpoints.
type LookupHandler struct {
	airports  AirportResolver
	distances DistanceLookup
}

// NewLookupHandler creates a new LookupHandler. A nil distance table is
// allowed.
func NewLookupHandler(airports AirportResolver, distances DistanceLookup) *LookupHandler {
	return &LookupHandler{airports: airports, distances: distances}
}

// GetAirport handles GET /v1/airports/{code}.
func (h *LookupHandler) GetAirport(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "code")))
	c, src, ok := h.airports.ResolveWithSource(code)
	if !ok {
		response.NotFound(w, r, "no coordinates known for airport "+code)
		return
	}

	response.JSON(w, r, http.StatusOK, models.Airport{
		Code:    c.Code,
		Display: c.Display,
		Source:  string(src),
		Point:   models.Point{Lat: c.Lat, Lon: c.Lon},
	})
}

// GetDistance handles GET /v1/distances?origin=&destination=.
func (h *LookupHandler) GetDistance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	origin := strings.ToUpper(strings.TrimSpace(q.Get("origin")))
	destination := strings.ToUpper(strings.TrimSpace(q.Get("destination")))

	var fields []models.FieldError
	if origin == "" {
		fields = append(fields, models.FieldError{Field: "origin", Message: "is required", Code: "REQUIRED"})
	}
	if destination == "" {
		fields = append(fields, models.FieldError{Field: "destination", Message: "is required", Code: "REQUIRED"})
	}
	if len(fields) > 0 {
		response.BadRequest(w, r, "origin and destination are required", fields)
		return
	}

	out := models.Distance{Origin: origin, Destination: destination}

	if h.distances != nil {
		if miles, ok := h.distances.Lookup(origin, destination); ok {
			out.TableMiles = &miles
		}
	}

	from, _, okFrom := h.airports.ResolveWithSource(origin)
	to, _, okTo := h.airports.ResolveWithSource(destination)
	if okFrom && okTo {
		a := geo.Coordinate{Lat: from.Lat, Lon: from.Lon}
		b := geo.Coordinate{Lat: to.Lat, Lon: to.Lon}
		miles := geo.DistanceMiles(a, b)
		bearing := geo.Bearing(a, b)
		out.GreatCircleMiles = &miles
		out.BearingDegrees = &bearing
	}

	if out.TableMiles == nil && out.GreatCircleMiles == nil {
		response.NotFound(w, r, "no distance known for "+origin+"-"+destination)
		return
	}

	miles := out.GreatCircleMiles
	if out.TableMiles != nil {
		miles = out.TableMiles
	}
	out.WithinModelRange = *miles >= distance.MinMiles && *miles <= distance.MaxMiles

	response.JSON(w, r, http.StatusOK, out)
}
