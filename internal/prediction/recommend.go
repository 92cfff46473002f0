package prediction

import "github.com/flightdelay/flightdelay/internal/weather"

// Delay thresholds for recommendations, in minutes.
const (
	SignificantDelayMinutes = 15
	LongDelayMinutes        = 30
)

// Recommendations suggests traveller actions when a significant delay is
// expected. It returns an empty list for an on-schedule flight.
func Recommendations(res Result, origin, destination weather.Observation) []string {
	recs := []string{}
	if res.DepartureDelayMinutes <= SignificantDelayMinutes && res.ArrivalDelayMinutes <= SignificantDelayMinutes {
		return recs
	}

	if res.DepartureDelayMinutes > LongDelayMinutes {
		recs = append(recs, "Arrive at the origin airport later to avoid long wait times.")
	}
	if res.DepartureDelayMinutes > SignificantDelayMinutes {
		recs = append(recs, "Check with the airline for possible rebooking options.")
	}
	if res.ArrivalDelayMinutes > LongDelayMinutes {
		recs = append(recs,
			"Notify ground transportation about potential late arrival.",
			"Consider rebooking connecting flights if applicable.")
	}
	if origin.Condition() == weather.ConditionStorm {
		recs = append(recs, "Origin: allow extra time for ground ops due to weather.")
	}
	if destination.Condition() == weather.ConditionStorm {
		recs = append(recs, "Destination: anticipate arrival holds or longer taxi-in.")
	}
	return recs
}
