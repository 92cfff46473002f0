// Package features turns a flight record into the fixed, ordered numeric
// vector the trained delay models consume.
package features

// Fixed constants of the model feature contract. The models were trained
// against these values, so they are not deployment configuration.
const (
	// DelayProbabilityGate is the classifier probability a delay must exceed
	// before the regressor's magnitude is reported.
	DelayProbabilityGate = 0.20

	// BAD_WEATHER thresholds for destination weather.
	BadWeatherWindMph      = 15.0
	BadWeatherPrecipIn     = 0.1
	BadWeatherVisibilityMi = 5.0
)

// Record field names.
const (
	FieldYear               = "YEAR"
	FieldMonth              = "MONTH"
	FieldDay                = "DAY"
	FieldScheduledDeparture = "SCHEDULED_DEPARTURE"
	FieldAirline            = "AIRLINE"
	FieldOriginAirport      = "ORIGIN_AIRPORT"
	FieldDestinationAirport = "DESTINATION_AIRPORT"
	FieldDistance           = "DISTANCE"
	FieldDepartureDelay     = "DEPARTURE_DELAY"

	FieldDestTemperature   = "dest_temperature"
	FieldDestHumidity      = "dest_humidity"
	FieldDestPressure      = "dest_pressure"
	FieldDestWindSpeed     = "dest_wind_speed"
	FieldDestCloudiness    = "dest_cloudiness"
	FieldDestVisibility    = "dest_visibility"
	FieldDestPrecipitation = "dest_precipitation"
	FieldDestSnow          = "dest_snow"
)

// Derived feature names.
const (
	FeatureHour            = "HOUR"
	FeatureMinute          = "MINUTE"
	FeatureDayOfWeek       = "DAY_OF_WEEK"
	FeatureIsWeekend       = "IS_WEEKEND"
	FeatureBadWeather      = "BAD_WEATHER"
	FeatureRouteAvgDelay   = "ROUTE_AVG_DELAY"
	FeatureAirlineAvgDelay = "AIRLINE_AVG_DELAY"
	FeatureOriginAvgDelay  = "ORIGIN_AVG_DELAY"
	FeatureHourAvgDelay    = "HOUR_AVG_DELAY"

	// EncodedSuffix is appended to a categorical field name for its code.
	EncodedSuffix = "_encoded"
)

// NumericalFeatures are imputed with their median when missing.
var NumericalFeatures = []string{
	FieldMonth, FieldDay, FeatureHour, FeatureMinute, FeatureDayOfWeek, FeatureIsWeekend,
	FieldDistance, FeatureBadWeather,
	FeatureRouteAvgDelay, FeatureAirlineAvgDelay, FeatureOriginAvgDelay, FeatureHourAvgDelay,
	FieldDestTemperature, FieldDestHumidity, FieldDestPressure,
	FieldDestWindSpeed, FieldDestCloudiness, FieldDestVisibility,
	FieldDestPrecipitation, FieldDestSnow,
}

// CategoricalFeatures are label encoded into "<name>_encoded".
var CategoricalFeatures = []string{FieldAirline, FieldOriginAirport, FieldDestinationAirport}

// DefaultFeatureNames is the output order used when the preprocessors do not
// name one: numerical features followed by the encoded categoricals.
func DefaultFeatureNames() []string {
	names := make([]string, 0, len(NumericalFeatures)+len(CategoricalFeatures))
	names = append(names, NumericalFeatures...)
	for _, c := range CategoricalFeatures {
		names = append(names, c+EncodedSuffix)
	}
	return names
}
