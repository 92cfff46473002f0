package features

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidRecord is returned when a flight record cannot be decoded.
var ErrInvalidRecord = errors.New("invalid flight record")

// FlightRecord is a single flight as the models see it. Numeric fields are
// optional; nil means missing and is imputed during preparation.
type FlightRecord struct {
	Year               *float64
	Month              *float64
	Day                *float64
	ScheduledDeparture *float64 // HHMM, e.g. 1430

	Airline            string
	OriginAirport      string
	DestinationAirport string

	Distance       *float64
	DepartureDelay *float64

	DestTemperature   *float64
	DestHumidity      *float64
	DestPressure      *float64
	DestWindSpeed     *float64
	DestCloudiness    *float64
	DestVisibility    *float64
	DestPrecipitation *float64
	DestSnow          *float64

	// Extra holds any other numeric keys. They reach the model only if the
	// feature list names them.
	Extra map[string]float64
}

// Float returns a pointer to v, for building records.
func Float(v float64) *float64 {
	return &v
}

func (r *FlightRecord) numericFields() map[string]**float64 {
	return map[string]**float64{
		FieldYear:               &r.Year,
		FieldMonth:              &r.Month,
		FieldDay:                &r.Day,
		FieldScheduledDeparture: &r.ScheduledDeparture,
		FieldDistance:           &r.Distance,
		FieldDepartureDelay:     &r.DepartureDelay,
		FieldDestTemperature:    &r.DestTemperature,
		FieldDestHumidity:       &r.DestHumidity,
		FieldDestPressure:       &r.DestPressure,
		FieldDestWindSpeed:      &r.DestWindSpeed,
		FieldDestCloudiness:     &r.DestCloudiness,
		FieldDestVisibility:     &r.DestVisibility,
		FieldDestPrecipitation:  &r.DestPrecipitation,
		FieldDestSnow:           &r.DestSnow,
	}
}

func (r *FlightRecord) categoricalFields() map[string]*string {
	return map[string]*string{
		FieldAirline:            &r.Airline,
		FieldOriginAirport:      &r.OriginAirport,
		FieldDestinationAirport: &r.DestinationAirport,
	}
}

// Category returns the value of a categorical field by name.
func (r FlightRecord) Category(name string) string {
	if p, ok := r.categoricalFields()[name]; ok {
		return *p
	}
	return ""
}

// Numeric returns the present numeric values keyed by field name, extras included.
func (r FlightRecord) Numeric() map[string]float64 {
	out := make(map[string]float64, len(r.Extra)+16)
	for k, v := range r.Extra {
		out[k] = v
	}
	for name, p := range r.numericFields() {
		if *p != nil {
			out[name] = **p
		}
	}
	return out
}

// UnmarshalJSON decodes the upper-case record keys. Numbers may also be
// given as numeric strings; null and "" mean missing. Non-numeric values
// under unknown keys are ignored.
func (r *FlightRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if raw == nil {
		return fmt.Errorf("%w: expected an object", ErrInvalidRecord)
	}

	*r = FlightRecord{}
	numeric := r.numericFields()
	categorical := r.categoricalFields()

	for key, value := range raw {
		if p, ok := numeric[key]; ok {
			v, present, err := toFloat(value)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidRecord, key, err)
			}
			if present {
				*p = Float(v)
			}
			continue
		}

		if p, ok := categorical[key]; ok {
			s, err := toCategory(value)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidRecord, key, err)
			}
			*p = s
			continue
		}

		if v, present, err := toFloat(value); err == nil && present {
			if r.Extra == nil {
				r.Extra = make(map[string]float64)
			}
			r.Extra[key] = v
		}
	}

	return nil
}

// MarshalJSON encodes the record with its upper-case keys, omitting missing values.
func (r FlightRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Extra)+17)
	for k, v := range r.Numeric() {
		out[k] = v
	}
	for name, p := range r.categoricalFields() {
		if *p != "" {
			out[name] = *p
		}
	}
	return json.Marshal(out)
}

func toFloat(value interface{}) (float64, bool, error) {
	switch v := value.(type) {
	case nil:
		return 0, false, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false, err
		}
		return f, true, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false, fmt.Errorf("not a number: %q", v)
		}
		return f, true, nil
	default:
		return 0, false, fmt.Errorf("unsupported type %T", value)
	}
}

func toCategory(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	case json.Number:
		return v.String(), nil
	default:
		return "", fmt.Errorf("unsupported type %T", value)
	}
}
