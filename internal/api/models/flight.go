package models

import "github.com/flightdelay/flightdelay/internal/history"

// Airport is a resolved airport code.
type Airport struct {
	Code    string `json:"code"`
	Display string `json:"display"`
	Source  string `json:"source"`
	Point   Point  `json:"point"`
}

// Distance describes route mileage from the reference table and the
// great-circle estimate between resolved airports.
type Distance struct {
	Origin           string   `json:"origin"`
	Destination      string   `json:"destination"`
	TableMiles       *float64 `json:"tableMiles"`
	GreatCircleMiles *float64 `json:"greatCircleMiles"`
	BearingDegrees   *float64 `json:"bearingDegrees,omitempty"`
	WithinModelRange bool     `json:"withinModelRange"`
}

// RecentPredictions lists the latest predictions, oldest first.
type RecentPredictions struct {
	Items []history.Entry `json:"items"`
	Count int             `json:"count"`
}
