package weather_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/flightdelay/flightdelay/internal/weather"
)

func f(v float64) *float64 { return &v }

// when is 2024-07-04 14:30 wall clock.
var when = time.Date(2024, 7, 4, 14, 30, 0, 0, time.UTC)

func forecast(units map[string]string, series map[string][]*float64) *weather.PointForecast {
	return &weather.PointForecast{
		TS:     []int64{when.UnixMilli()},
		Units:  units,
		Series: series,
	}
}

func TestNormalize_NilIsFallback(t *testing.T) {
	obs := weather.Normalize(nil, when, weather.ModelNAMConus)

	assert.Equal(t, weather.FallbackFor(weather.ModelNAMConus), obs)
	assert.Equal(t, "Windy (namConus) Fallback", obs.Source)
	assert.True(t, obs.Fallback)
}

func TestNormalize_UnitConversions(t *testing.T) {
	tests := []struct {
		name   string
		units  map[string]string
		series map[string][]*float64
		check  func(t *testing.T, obs weather.Observation)
	}{
		{
			name:   "kelvin freezing point",
			units:  map[string]string{weather.KeyTemperature: "K"},
			series: map[string][]*float64{weather.KeyTemperature: {f(273.15)}},
			check: func(t *testing.T, obs weather.Observation) {
				assert.InDelta(t, 32.0, obs.TemperatureF, 0.01)
			},
		},
		{
			name:   "celsius freezing point",
			units:  map[string]string{weather.KeyTemperature: "°C"},
			series: map[string][]*float64{weather.KeyTemperature: {f(0)}},
			check: func(t *testing.T, obs weather.Observation) {
				// "°C" does not start with c, so the value is taken as Fahrenheit.
				assert.Equal(t, 0.0, obs.TemperatureF)
			},
		},
		{
			name:   "celsius tag",
			units:  map[string]string{weather.KeyTemperature: "C"},
			series: map[string][]*float64{weather.KeyTemperature: {f(0)}},
			check: func(t *testing.T, obs weather.Observation) {
				assert.InDelta(t, 32.0, obs.TemperatureF, 0.01)
			},
		},
		{
			name:   "untagged temperature is fahrenheit",
			series: map[string][]*float64{weather.KeyTemperature: {f(88.44)}},
			check: func(t *testing.T, obs weather.Observation) {
				assert.Equal(t, 88.4, obs.TemperatureF)
			},
		},
		{
			name:   "pascals to millibars",
			units:  map[string]string{weather.KeyPressure: "Pa"},
			series: map[string][]*float64{weather.KeyPressure: {f(101300)}},
			check: func(t *testing.T, obs weather.Observation) {
				assert.InDelta(t, 1013.0, obs.PressureMb, 0.01)
			},
		},
		{
			name:   "hectopascals kept",
			units:  map[string]string{weather.KeyPressure: "hPa"},
			series: map[string][]*float64{weather.KeyPressure: {f(998.26)}},
			check: func(t *testing.T, obs weather.Observation) {
				assert.Equal(t, 998.3, obs.PressureMb)
			},
		},
		{
			name: "wind vector magnitude",
			series: map[string][]*float64{
				weather.KeyWindU: {f(3)},
				weather.KeyWindV: {f(4)},
			},
			check: func(t *testing.T, obs weather.Observation) {
				assert.InDelta(t, 11.18, obs.WindMph, 0.1)
			},
		},
		{
			name:   "single wind component",
			series: map[string][]*float64{weather.KeyWindV: {f(-10)}},
			check: func(t *testing.T, obs weather.Observation) {
				assert.InDelta(t, 22.4, obs.WindMph, 0.01)
			},
		},
		{
			name: "fractional clouds scaled to percent",
			series: map[string][]*float64{
				weather.KeyLowClouds:  {f(0.2)},
				weather.KeyMidClouds:  {f(0.75)},
				weather.KeyHighClouds: {f(0.1)},
			},
			check: func(t *testing.T, obs weather.Observation) {
				assert.Equal(t, 75.0, obs.CloudinessPct)
			},
		},
		{
			name: "percent clouds kept",
			series: map[string][]*float64{
				weather.KeyLowClouds:  {f(12)},
				weather.KeyHighClouds: {f(64.6)},
			},
			check: func(t *testing.T, obs weather.Observation) {
				assert.Equal(t, 65.0, obs.CloudinessPct)
			},
		},
		{
			name: "precip in meters and snow in millimeters",
			units: map[string]string{
				weather.KeyPrecip: "m",
				weather.KeySnow:   "mm",
			},
			series: map[string][]*float64{
				weather.KeyPrecip: {f(0.00254)},
				weather.KeySnow:   {f(12.7)},
			},
			check: func(t *testing.T, obs weather.Observation) {
				assert.InDelta(t, 0.10, obs.PrecipIn, 1e-9)
				assert.InDelta(t, 0.50, obs.SnowIn, 1e-9)
			},
		},
		{
			name:   "humidity rounded to whole percent",
			series: map[string][]*float64{weather.KeyHumidity: {f(54.6)}},
			check: func(t *testing.T, obs weather.Observation) {
				assert.Equal(t, 55.0, obs.HumidityPct)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := weather.Normalize(forecast(tt.units, tt.series), when, weather.ModelNAMConus)
			assert.False(t, obs.Fallback)
			assert.Equal(t, "Windy Point Forecast (namConus)", obs.Source)
			tt.check(t, obs)
		})
	}
}

func TestNormalize_MissingFieldsUseNeutralValues(t *testing.T) {
	obs := weather.Normalize(forecast(nil, map[string][]*float64{
		weather.KeyTemperature: {nil},
	}), when, weather.ModelGFS)

	assert.False(t, obs.Fallback)
	assert.Equal(t, weather.NeutralFallback.TemperatureF, obs.TemperatureF)
	assert.Equal(t, weather.NeutralFallback.HumidityPct, obs.HumidityPct)
	assert.Equal(t, weather.NeutralFallback.PressureMb, obs.PressureMb)
	assert.Equal(t, weather.NeutralFallback.WindMph, obs.WindMph)
	assert.Equal(t, weather.NeutralFallback.CloudinessPct, obs.CloudinessPct)
	assert.Equal(t, 10.0, obs.VisibilityMi)
	assert.Zero(t, obs.PrecipIn)
	assert.Zero(t, obs.SnowIn)
}

func TestNormalize_PicksNearestTimestamp(t *testing.T) {
	hour := int64(time.Hour / time.Millisecond)
	base := when.UnixMilli()

	raw := &weather.PointForecast{
		TS:    []int64{base - 3*hour, base - hour/2, base + 2*hour},
		Units: map[string]string{},
		Series: map[string][]*float64{
			weather.KeyTemperature: {f(60), f(70), f(80)},
		},
	}

	obs := weather.Normalize(raw, when, weather.ModelGFS)
	assert.Equal(t, 70.0, obs.TemperatureF)
}

func TestNormalize_Idempotent(t *testing.T) {
	raw := forecast(
		map[string]string{weather.KeyTemperature: "K", weather.KeyPressure: "Pa"},
		map[string][]*float64{
			weather.KeyTemperature: {f(300)},
			weather.KeyPressure:    {f(100500)},
			weather.KeyWindU:       {f(1)},
		},
	)

	first := weather.Normalize(raw, when, weather.ModelNAMConus)
	second := weather.Normalize(raw, when, weather.ModelNAMConus)
	assert.Equal(t, first, second)
}

func TestNearestIndex(t *testing.T) {
	target := when.UnixMilli()

	tests := []struct {
		name string
		ts   []int64
		want int
	}{
		{"empty", nil, 0},
		{"single", []int64{target + 99}, 0},
		{"exact", []int64{target - 10, target, target + 10}, 1},
		{"tie resolves to first", []int64{target - 5, target + 5}, 0},
		{"later closer", []int64{target - 100, target + 20}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, weather.NearestIndex(tt.ts, when))
		})
	}
}

func TestNearestIndex_UsesWallClock(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Skip("tzdata not available")
	}

	local := time.Date(2024, 7, 4, 14, 30, 0, 0, la)
	ts := []int64{when.UnixMilli(), local.UnixMilli()}

	assert.Equal(t, 0, weather.NearestIndex(ts, local))
}
