// Package geo provides great-circle helpers for airport coordinates.
package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// MetersPerMile is the length of a statute mile in meters.
const MetersPerMile = 1609.344

// Coordinate represents a geographic point with latitude and longitude.
type Coordinate struct {
	Lat float64
	Lon float64
}

func (c Coordinate) point() orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

// Valid reports whether the coordinate is within latitude and longitude bounds.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// DistanceMiles returns the haversine great-circle distance in statute miles.
func DistanceMiles(a, b Coordinate) float64 {
	return geo.DistanceHaversine(a.point(), b.point()) / MetersPerMile
}

// Bearing returns the initial bearing from a to b in degrees, in [0, 360).
func Bearing(a, b Coordinate) float64 {
	d := geo.Bearing(a.point(), b.point())
	if d < 0 {
		d += 360
	}
	return d
}
