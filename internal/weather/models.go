package weather

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Weather errors.
var (
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
	ErrMalformedForecast   = errors.New("malformed point forecast")
)

// Observation is a normalized surface weather reading in fixed units.
type Observation struct {
	TemperatureF  float64 `json:"temperature_f"`
	HumidityPct   float64 `json:"humidity_pct"`
	PressureMb    float64 `json:"pressure_mb"`
	WindMph       float64 `json:"wind_mph"`
	CloudinessPct float64 `json:"cloudiness_pct"`
	VisibilityMi  float64 `json:"visibility_mi"`
	PrecipIn      float64 `json:"precip_in"`
	SnowIn        float64 `json:"snow_in"`

	// Source labels where the values came from. Fallback observations carry a
	// label distinct from any successful fetch.
	Source   string `json:"source"`
	Fallback bool   `json:"fallback"`
}

// NeutralFallback is the fair-weather observation substituted whenever a
// forecast cannot be fetched or parsed. It is not a real reading.
var NeutralFallback = Observation{
	TemperatureF:  72.0,
	HumidityPct:   60.0,
	PressureMb:    1013.0,
	WindMph:       8.0,
	CloudinessPct: 30,
	VisibilityMi:  10.0,
	PrecipIn:      0.0,
	SnowIn:        0.0,
	Source:        "Windy Fallback",
	Fallback:      true,
}

// Fallback source labels.
const (
	SourceNoCoordinates = "Windy Fallback (no coords)"
)

// FallbackFor returns NeutralFallback labelled for a failed fetch against model.
func FallbackFor(model ForecastModel) Observation {
	obs := NeutralFallback
	obs.Source = fmt.Sprintf("Windy (%s) Fallback", model)
	return obs
}

// NoCoordinatesFallback returns NeutralFallback labelled for an airport that
// could not be located.
func NoCoordinatesFallback() Observation {
	obs := NeutralFallback
	obs.Source = SourceNoCoordinates
	return obs
}

// Condition summarizes an observation for display.
type Condition string

const (
	ConditionStorm  Condition = "STORM"
	ConditionRain   Condition = "RAIN"
	ConditionCloudy Condition = "CLOUDY"
	ConditionClear  Condition = "CLEAR"
)

// Condition classifies the observation: storm on strong wind or heavy
// precipitation, then rain, cloudy, clear.
func (o Observation) Condition() Condition {
	switch {
	case o.WindMph > 20 || o.PrecipIn > 0.5:
		return ConditionStorm
	case o.PrecipIn > 0:
		return ConditionRain
	case o.CloudinessPct > 50:
		return ConditionCloudy
	default:
		return ConditionClear
	}
}

// Icon returns an emoji for the observation's condition.
func (o Observation) Icon() string {
	switch o.Condition() {
	case ConditionStorm:
		return "⛈️"
	case ConditionRain:
		return "🌧️"
	case ConditionCloudy:
		return "☁️"
	default:
		return "☀️"
	}
}

// Summary renders a one-line human readable description.
func (o Observation) Summary() string {
	return fmt.Sprintf("Temp %.0f°F • RH %.0f%% • Pres %.0f mb • Wind %.0f mph • Vis %.1f mi • Clouds %.0f%% • Rain %.2f in • Snow %.2f in",
		o.TemperatureF, o.HumidityPct, o.PressureMb, o.WindMph,
		o.VisibilityMi, o.CloudinessPct, o.PrecipIn, o.SnowIn)
}

// ForecastModel selects the numerical weather model queried for a point.
type ForecastModel string

const (
	ModelNAMConus ForecastModel = "namConus"
	ModelGFS      ForecastModel = "gfs"
)

// BoundingBox represents a geographic bounding box.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Contains checks if a point is within the bounding box, edges included.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat &&
		lon >= b.MinLon && lon <= b.MaxLon
}

// CONUS is the coverage area of the regional North American model.
var CONUS = BoundingBox{MinLat: 20.0, MaxLat: 55.5, MinLon: -130.5, MaxLon: -60.0}

// SelectModel picks the regional model inside CONUS and the global model elsewhere.
func SelectModel(lat, lon float64) ForecastModel {
	if CONUS.Contains(lat, lon) {
		return ModelNAMConus
	}
	return ModelGFS
}

// Point forecast series keys.
const (
	KeyTemperature = "temp-surface"
	KeyHumidity    = "rh-surface"
	KeyPressure    = "pressure-surface"
	KeyWindU       = "wind_u-surface"
	KeyWindV       = "wind_v-surface"
	KeyLowClouds   = "lclouds-surface"
	KeyMidClouds   = "mclouds-surface"
	KeyHighClouds  = "hclouds-surface"
	KeyPrecip      = "past3hprecip-surface"
	KeySnow        = "past3hsnowprecip-surface"
)

// PointForecast is a raw point-forecast payload: parallel time series keyed by
// parameter name, timestamps in milliseconds, and a per-parameter unit map.
// Null entries in a series are kept as nil.
type PointForecast struct {
	TS     []int64
	Units  map[string]string
	Series map[string][]*float64
}

// UnmarshalJSON decodes a point-forecast body. Keys that are not numeric
// arrays (warnings, metadata) are ignored.
func (p *PointForecast) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedForecast, err)
	}

	p.Series = make(map[string][]*float64)
	p.Units = make(map[string]string)
	p.TS = nil

	for key, msg := range raw {
		switch key {
		case "ts":
			var ts []float64
			if err := json.Unmarshal(msg, &ts); err != nil {
				return fmt.Errorf("%w: ts: %v", ErrMalformedForecast, err)
			}
			p.TS = make([]int64, len(ts))
			for i, v := range ts {
				p.TS[i] = int64(v)
			}
		case "units":
			var units map[string]*string
			if err := json.Unmarshal(msg, &units); err != nil {
				return fmt.Errorf("%w: units: %v", ErrMalformedForecast, err)
			}
			for k, v := range units {
				if v != nil {
					p.Units[k] = *v
				}
			}
		default:
			var series []*float64
			if err := json.Unmarshal(msg, &series); err != nil {
				continue
			}
			p.Series[key] = series
		}
	}

	return nil
}

// Value returns the value of a series at index i, or false if the series is
// absent, too short, or null at i.
func (p *PointForecast) Value(key string, i int) (float64, bool) {
	series, ok := p.Series[key]
	if !ok || i < 0 || i >= len(series) || series[i] == nil {
		return 0, false
	}
	return *series[i], true
}

// Unit returns the reported unit for a series, or "" if none.
func (p *PointForecast) Unit(key string) string {
	return p.Units[key]
}
