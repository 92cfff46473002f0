package weather_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightdelay/flightdelay/internal/weather"
)

func TestSelectModel(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		want     weather.ForecastModel
	}{
		{"LAX", 33.9416, -118.4085, weather.ModelNAMConus},
		{"BOS", 42.3656, -71.0096, weather.ModelNAMConus},
		{"south edge", 20.0, -100, weather.ModelNAMConus},
		{"east edge", 40, -60.0, weather.ModelNAMConus},
		{"Honolulu", 21.3187, -157.9225, weather.ModelGFS},
		{"Anchorage", 61.1743, -149.9962, weather.ModelGFS},
		{"London", 51.4700, -0.4543, weather.ModelGFS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, weather.SelectModel(tt.lat, tt.lon))
		})
	}
}

func TestBoundingBox_Contains(t *testing.T) {
	box := weather.BoundingBox{MinLat: 52.0, MaxLat: 53.0, MinLon: 4.0, MaxLon: 5.0}

	assert.True(t, box.Contains(52.5, 4.5))
	assert.True(t, box.Contains(52.0, 4.0))
	assert.False(t, box.Contains(51.9, 4.5))
	assert.False(t, box.Contains(52.5, 5.1))
}

func TestNeutralFallback(t *testing.T) {
	fb := weather.NeutralFallback

	assert.Equal(t, 72.0, fb.TemperatureF)
	assert.Equal(t, 60.0, fb.HumidityPct)
	assert.Equal(t, 1013.0, fb.PressureMb)
	assert.Equal(t, 8.0, fb.WindMph)
	assert.Equal(t, 30.0, fb.CloudinessPct)
	assert.Equal(t, 10.0, fb.VisibilityMi)
	assert.Zero(t, fb.PrecipIn)
	assert.Zero(t, fb.SnowIn)
	assert.True(t, fb.Fallback)
}

func TestFallbackLabels(t *testing.T) {
	gfs := weather.FallbackFor(weather.ModelGFS)
	assert.Equal(t, "Windy (gfs) Fallback", gfs.Source)
	assert.True(t, gfs.Fallback)

	noCoords := weather.NoCoordinatesFallback()
	assert.Equal(t, "Windy Fallback (no coords)", noCoords.Source)

	// Labels differ but the values are the neutral constant.
	gfs.Source, noCoords.Source = "", ""
	assert.Equal(t, gfs, noCoords)
}

func TestObservation_Condition(t *testing.T) {
	tests := []struct {
		name string
		obs  weather.Observation
		want weather.Condition
		icon string
	}{
		{"strong wind", weather.Observation{WindMph: 25}, weather.ConditionStorm, "⛈️"},
		{"heavy precip", weather.Observation{PrecipIn: 0.6}, weather.ConditionStorm, "⛈️"},
		{"light rain", weather.Observation{PrecipIn: 0.05, CloudinessPct: 90}, weather.ConditionRain, "🌧️"},
		{"overcast", weather.Observation{CloudinessPct: 80}, weather.ConditionCloudy, "☁️"},
		{"clear", weather.Observation{CloudinessPct: 50, WindMph: 20}, weather.ConditionClear, "☀️"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.obs.Condition())
			assert.Equal(t, tt.icon, tt.obs.Icon())
		})
	}
}

func TestObservation_Summary(t *testing.T) {
	s := weather.NeutralFallback.Summary()
	assert.Equal(t, "Temp 72°F • RH 60% • Pres 1013 mb • Wind 8 mph • Vis 10.0 mi • Clouds 30% • Rain 0.00 in • Snow 0.00 in", s)
}

func TestPointForecast_UnmarshalJSON(t *testing.T) {
	body := `{
		"ts": [1720094400000, 1720105200000],
		"units": {"temp-surface": "K", "rh-surface": null},
		"temp-surface": [295.1, null],
		"rh-surface": [40, 45],
		"warning": "free tier"
	}`

	var pf weather.PointForecast
	require.NoError(t, json.Unmarshal([]byte(body), &pf))

	assert.Equal(t, []int64{1720094400000, 1720105200000}, pf.TS)
	assert.Equal(t, "K", pf.Unit("temp-surface"))
	assert.Equal(t, "", pf.Unit("rh-surface"))

	v, ok := pf.Value("temp-surface", 0)
	assert.True(t, ok)
	assert.Equal(t, 295.1, v)

	_, ok = pf.Value("temp-surface", 1)
	assert.False(t, ok, "null entry")
	_, ok = pf.Value("rh-surface", 5)
	assert.False(t, ok, "out of range")
	_, ok = pf.Value("warning", 0)
	assert.False(t, ok, "non-numeric keys are ignored")
}

func TestPointForecast_UnmarshalJSON_Malformed(t *testing.T) {
	var pf weather.PointForecast
	err := json.Unmarshal([]byte(`{"ts": "soon"}`), &pf)
	assert.ErrorIs(t, err, weather.ErrMalformedForecast)
}
