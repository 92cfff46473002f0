package prediction

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/flightdelay/flightdelay/internal/distance"
)

// Request formats.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var (
	timeHHMMRegex   = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)
	airportRegex    = regexp.MustCompile(`^[A-Z0-9]{3,4}$`)
	airlineCodeRegx = regexp.MustCompile(`^[A-Z0-9]{2,3}$`)
)

// FlightRequest is a scheduled flight to predict. Airport codes may be IATA
// or ICAO; the alt codes, when set, are used only to locate weather.
type FlightRequest struct {
	Airline            string   `json:"airline"`
	Origin             string   `json:"origin"`
	Destination        string   `json:"destination"`
	OriginAltCode      string   `json:"originAltCode,omitempty"`
	DestinationAltCode string   `json:"destinationAltCode,omitempty"`
	Date               string   `json:"date"`
	DepartureTime      string   `json:"departureTime"`
	ArrivalTime        string   `json:"arrivalTime"`
	Distance           *float64 `json:"distance,omitempty"`
}

// FieldError is a validation error on one request field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every invalid field of a request.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + " " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap makes errors.Is(err, ErrInvalidRequest) hold.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

// schedule is a validated request in canonical form.
type schedule struct {
	airline, origin, destination string
	originWx, destinationWx      string
	date                         time.Time
	departure, arrival           time.Time
}

func (r FlightRequest) normalize() (schedule, error) {
	var errs []FieldError
	add := func(field, msg string) {
		errs = append(errs, FieldError{Field: field, Message: msg})
	}

	s := schedule{
		airline:       strings.ToUpper(strings.TrimSpace(r.Airline)),
		origin:        strings.ToUpper(strings.TrimSpace(r.Origin)),
		destination:   strings.ToUpper(strings.TrimSpace(r.Destination)),
		originWx:      strings.ToUpper(strings.TrimSpace(r.OriginAltCode)),
		destinationWx: strings.ToUpper(strings.TrimSpace(r.DestinationAltCode)),
	}

	if s.airline == "" {
		add("airline", "is required")
	} else if !airlineCodeRegx.MatchString(s.airline) {
		add("airline", "must be a 2 or 3 character carrier code")
	}

	for _, f := range []struct {
		name     string
		value    string
		required bool
	}{
		{"origin", s.origin, true},
		{"destination", s.destination, true},
		{"originAltCode", s.originWx, false},
		{"destinationAltCode", s.destinationWx, false},
	} {
		switch {
		case f.value == "" && f.required:
			add(f.name, "is required")
		case f.value != "" && !airportRegex.MatchString(f.value):
			add(f.name, "must be a 3 letter IATA or 4 letter ICAO code")
		}
	}

	if s.originWx == "" {
		s.originWx = s.origin
	}
	if s.destinationWx == "" {
		s.destinationWx = s.destination
	}

	date, err := time.Parse(DateLayout, strings.TrimSpace(r.Date))
	if err != nil {
		add("date", "must be YYYY-MM-DD")
	}
	s.date = date

	dep, okDep := parseClock(r.DepartureTime)
	if !okDep {
		add("departureTime", "must be HH:MM")
	}
	arr, okArr := parseClock(r.ArrivalTime)
	if !okArr {
		add("arrivalTime", "must be HH:MM")
	}

	if r.Distance != nil {
		d := *r.Distance
		if d < distance.MinMiles || d > distance.MaxMiles {
			add("distance", fmt.Sprintf("must be between %.0f and %.0f miles", distance.MinMiles, distance.MaxMiles))
		}
	}

	if len(errs) > 0 {
		return schedule{}, &ValidationError{Errors: errs}
	}

	s.departure = date.Add(dep)
	s.arrival = date.Add(arr)
	// Overnight flights land the next day.
	if s.arrival.Before(s.departure) {
		s.arrival = s.arrival.Add(24 * time.Hour)
	}
	return s, nil
}

// parseClock returns the offset from midnight of an HH:MM string.
func parseClock(v string) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if !timeHHMMRegex.MatchString(v) {
		return 0, false
	}
	var h, m int
	if _, err := fmt.Sscanf(v, "%d:%d", &h, &m); err != nil {
		return 0, false
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, true
}

// scheduledDeparture is the HHMM integer the models use.
func (s schedule) scheduledDeparture() float64 {
	return float64(s.departure.Hour()*100 + s.departure.Minute())
}
