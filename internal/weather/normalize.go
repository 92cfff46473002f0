package weather

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Unit conversion factors.
const (
	msToMph      = 2.2369362921
	metersToIn   = 39.37007874
	mmPerInch    = 25.4
	fixedVisMi   = 10.0
	kelvinOffset = 273.15
)

// Normalize converts a raw point forecast into an Observation for the series
// entry nearest to when. A nil forecast yields NeutralFallback labelled for
// model. Fields absent from the forecast take their NeutralFallback value.
func Normalize(raw *PointForecast, when time.Time, model ForecastModel) Observation {
	if raw == nil {
		return FallbackFor(model)
	}

	idx := NearestIndex(raw.TS, when)
	obs := NeutralFallback
	obs.Fallback = false
	obs.Source = fmt.Sprintf("Windy Point Forecast (%s)", model)

	if v, ok := raw.Value(KeyTemperature, idx); ok {
		obs.TemperatureF = toFahrenheit(v, raw.Unit(KeyTemperature))
	}

	if v, ok := raw.Value(KeyHumidity, idx); ok {
		obs.HumidityPct = v
	}

	if v, ok := raw.Value(KeyPressure, idx); ok {
		obs.PressureMb = toMillibars(v, raw.Unit(KeyPressure))
	}

	u, okU := raw.Value(KeyWindU, idx)
	v, okV := raw.Value(KeyWindV, idx)
	if okU || okV {
		obs.WindMph = math.Hypot(u, v) * msToMph
	}

	clouds, okClouds := maxOf(raw, idx, KeyLowClouds, KeyMidClouds, KeyHighClouds)
	if okClouds {
		if clouds <= 1.0 {
			clouds *= 100
		}
		obs.CloudinessPct = clouds
	}

	if v, ok := raw.Value(KeyPrecip, idx); ok {
		obs.PrecipIn = toInches(v, raw.Unit(KeyPrecip))
	}

	if v, ok := raw.Value(KeySnow, idx); ok {
		obs.SnowIn = toInches(v, raw.Unit(KeySnow))
	}

	obs.VisibilityMi = fixedVisMi

	return obs.rounded()
}

// NearestIndex returns the index of the timestamp (milliseconds) closest to
// the wall-clock time of when, read as UTC. Ties resolve to the first index;
// an empty series yields 0.
func NearestIndex(ts []int64, when time.Time) int {
	if len(ts) == 0 {
		return 0
	}

	target := wallClockMillis(when)
	best := 0
	bestDiff := absInt64(ts[0] - target)
	for i := 1; i < len(ts); i++ {
		if d := absInt64(ts[i] - target); d < bestDiff {
			best, bestDiff = i, d
		}
	}
	return best
}

// wallClockMillis drops the location of t, keeping its clock reading.
func wallClockMillis(t time.Time) int64 {
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	return time.Date(y, mo, d, h, mi, s, t.Nanosecond(), time.UTC).UnixMilli()
}

func toFahrenheit(v float64, unit string) float64 {
	u := strings.ToLower(strings.TrimSpace(unit))
	switch {
	case strings.HasPrefix(u, "k"):
		return (v-kelvinOffset)*9/5 + 32
	case strings.HasPrefix(u, "c"):
		return v*9/5 + 32
	default:
		return v
	}
}

func toMillibars(v float64, unit string) float64 {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "pa", "pascal", "pascals":
		return v / 100
	default:
		return v
	}
}

func toInches(v float64, unit string) float64 {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "m", "meter", "meters":
		return v * metersToIn
	case "mm":
		return v / mmPerInch
	default:
		return v
	}
}

func maxOf(raw *PointForecast, idx int, keys ...string) (float64, bool) {
	best, found := 0.0, false
	for _, k := range keys {
		v, ok := raw.Value(k, idx)
		if !ok {
			continue
		}
		if !found || v > best {
			best, found = v, true
		}
	}
	return best, found
}

func (o Observation) rounded() Observation {
	o.TemperatureF = round(o.TemperatureF, 1)
	o.HumidityPct = round(o.HumidityPct, 0)
	o.PressureMb = round(o.PressureMb, 1)
	o.WindMph = round(o.WindMph, 1)
	o.CloudinessPct = round(o.CloudinessPct, 0)
	o.VisibilityMi = round(o.VisibilityMi, 1)
	o.PrecipIn = round(o.PrecipIn, 2)
	o.SnowIn = round(o.SnowIn, 2)
	return o
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
