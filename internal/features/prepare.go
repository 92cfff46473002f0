package features

import (
	"math"
	"time"
)

// Vector is a model-ready feature vector. Names and Values are parallel.
type Vector struct {
	Names  []string
	Values []float64
}

// Get returns the value of a named feature.
func (v Vector) Get(name string) (float64, bool) {
	for i, n := range v.Names {
		if n == name {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Map returns the vector keyed by feature name.
func (v Vector) Map() map[string]float64 {
	out := make(map[string]float64, len(v.Names))
	for i, n := range v.Names {
		out[n] = v.Values[i]
	}
	return out
}

// Prepare derives, imputes and encodes features for one record and returns
// them in the preprocessors' feature order. A nil bundle behaves as an empty
// one. Prepare never fails; unknown inputs fall back to medians, modes or 0.
func Prepare(rec FlightRecord, pre *Preprocessors) Vector {
	if pre == nil {
		pre = &Preprocessors{}
	}

	vals := rec.Numeric()

	// Schedule.
	hour, hasHour := 0.0, false
	if rec.ScheduledDeparture != nil {
		sd := *rec.ScheduledDeparture
		hour, hasHour = math.Floor(sd/100), true
		vals[FeatureHour] = hour
		vals[FeatureMinute] = sd - 100*hour
	} else {
		delete(vals, FeatureHour)
		delete(vals, FeatureMinute)
	}

	dow := DayOfWeek(rec.Year, rec.Month, rec.Day)
	vals[FeatureDayOfWeek] = float64(dow)
	vals[FeatureIsWeekend] = boolFloat(dow == 5 || dow == 6)

	// Historical averages.
	route := rec.OriginAirport + "_" + rec.DestinationAirport
	vals[FeatureRouteAvgDelay] = pre.routeDelayAvg[route]
	vals[FeatureAirlineAvgDelay] = pre.airlineDelayAvg[rec.Airline]
	vals[FeatureOriginAvgDelay] = pre.originDelayAvg[rec.OriginAirport]
	vals[FeatureHourAvgDelay] = 0
	if hasHour && hour >= math.MinInt32 && hour <= math.MaxInt32 {
		vals[FeatureHourAvgDelay] = pre.hourDelayAvg[int(hour)]
	}

	vals[FeatureBadWeather] = boolFloat(BadWeather(rec))

	// Median imputation.
	for _, name := range NumericalFeatures {
		if _, ok := vals[name]; !ok {
			vals[name] = pre.medians[name]
		}
	}

	// Categorical encoding.
	for _, field := range CategoricalFeatures {
		code := 0
		if enc, ok := pre.encoders[field]; ok {
			code = enc.Encode(rec.Category(field))
		}
		vals[field+EncodedSuffix] = float64(code)
	}

	names := pre.featureNames
	if len(names) == 0 {
		names = DefaultFeatureNames()
	}

	out := Vector{
		Names:  append([]string(nil), names...),
		Values: make([]float64, len(names)),
	}
	for i, name := range names {
		out.Values[i] = vals[name]
	}
	return out
}

// BadWeather reports whether destination weather crosses any threshold.
// Missing inputs never count as bad.
func BadWeather(rec FlightRecord) bool {
	return (rec.DestWindSpeed != nil && *rec.DestWindSpeed > BadWeatherWindMph) ||
		(rec.DestPrecipitation != nil && *rec.DestPrecipitation > BadWeatherPrecipIn) ||
		(rec.DestVisibility != nil && *rec.DestVisibility < BadWeatherVisibilityMi)
}

// DayOfWeek returns Monday=0 through Sunday=6 for a calendar date, or 0 when
// any part is missing, non-integral or out of range.
func DayOfWeek(year, month, day *float64) int {
	if year == nil || month == nil || day == nil {
		return 0
	}

	y, okY := integral(*year)
	m, okM := integral(*month)
	d, okD := integral(*day)
	if !okY || !okM || !okD || y < 1 || y > 9999 {
		return 0
	}

	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return 0
	}

	return (int(t.Weekday()) + 6) % 7
}

func integral(v float64) (int, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) || math.Abs(v) > 1e6 {
		return 0, false
	}
	return int(v), true
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
