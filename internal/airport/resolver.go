// Package airport resolves airport codes to coordinates from a built-in table
// of major hubs and an optional external airport table.
package airport

import (
	"errors"
	"io/fs"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/flightdelay/flightdelay/internal/tabular"
)

// Coordinate is a resolved airport location.
type Coordinate struct {
	Code    string  `json:"code"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Display string  `json:"display"`
}

// Source describes which resolution stage produced a coordinate.
type Source string

const (
	SourceBuiltin  Source = "builtin"
	SourceExternal Source = "external"
	SourceICAO     Source = "icao"
)

var builtin = map[string]Coordinate{
	"LAX": {Lat: 33.9416, Lon: -118.4085},
	"JFK": {Lat: 40.6413, Lon: -73.7781},
	"SFO": {Lat: 37.6213, Lon: -122.3790},
	"SEA": {Lat: 47.4502, Lon: -122.3088},
	"BOS": {Lat: 42.3656, Lon: -71.0096},
	"MIA": {Lat: 25.7959, Lon: -80.2870},
	"DFW": {Lat: 32.8998, Lon: -97.0403},
	"ATL": {Lat: 33.6407, Lon: -84.4277},
	"ORD": {Lat: 41.9742, Lon: -87.9073},
	"BWI": {Lat: 39.1754, Lon: -76.6684},
	"LGA": {Lat: 40.7769, Lon: -73.8740},
	"EWR": {Lat: 40.6895, Lon: -74.1745},
}

// Column roles for external airport tables. Exact names are tried first, then
// the first header containing a keyword.
var (
	CodeRole = tabular.Role{
		Name:       "code",
		Candidates: []string{"iata", "iata_code", "iata_code_new", "code", "ident", "airport_code", "iata/icao"},
		Keywords:   []string{"iata", "code", "ident"},
		FirstMatch: true,
	}

	LatRole = tabular.Role{
		Name:       "lat",
		Candidates: []string{"lat", "latitude", "lat_deg", "latitude_deg", "airport_latitude"},
		Keywords:   []string{"lat"},
		FirstMatch: true,
	}

	LonRole = tabular.Role{
		Name:       "lon",
		Candidates: []string{"lon", "lng", "longitude", "lon_deg", "longitude_deg", "airport_longitude"},
		Keywords:   []string{"lon", "lng"},
		FirstMatch: true,
	}
)

// Resolver maps airport codes to coordinates. It is immutable after
// construction and safe for concurrent use.
type Resolver struct {
	external map[string]Coordinate
}

// NewResolver builds a resolver. The external frame may be nil, in which case
// only the built-in table and ICAO stripping are used.
func NewResolver(f *tabular.Frame) *Resolver {
	return &Resolver{external: indexFrame(f)}
}

// LoadFile builds a resolver from an airport table on disk. A missing or
// unreadable file yields a resolver backed by the built-in table only.
func LoadFile(path string, logger zerolog.Logger) *Resolver {
	if path == "" {
		return NewResolver(nil)
	}

	f, err := tabular.LoadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info().Str("path", path).Msg("airport table not found, using built-in airports")
		} else {
			logger.Warn().Err(err).Str("path", path).Msg("failed to read airport table, using built-in airports")
		}
		return NewResolver(nil)
	}

	r := NewResolver(f)
	logger.Info().Str("path", path).Int("airports", len(r.external)).Msg("airport table loaded")
	return r
}

func indexFrame(f *tabular.Frame) map[string]Coordinate {
	index := make(map[string]Coordinate)
	if f == nil {
		return index
	}

	code, okCode := f.Resolve(CodeRole)
	lat, okLat := f.Resolve(LatRole)
	lon, okLon := f.Resolve(LonRole)
	if !(okCode && okLat && okLon) {
		return index
	}

	codes := f.Strings(code.Name)
	lats := f.Floats(lat.Name)
	lons := f.Floats(lon.Name)

	// The first row naming a code owns it, even when its coordinates are
	// unusable.
	seen := make(map[string]bool)
	for i, raw := range codes {
		c := normalize(raw)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		if math.IsNaN(lats[i]) || math.IsNaN(lons[i]) {
			continue
		}
		index[c] = Coordinate{Code: c, Lat: lats[i], Lon: lons[i], Display: c}
	}

	return index
}

// Resolve returns the coordinate for a code. Resolution order is the built-in
// table, the external table, then "K"-prefixed ICAO codes of built-in airports.
func (r *Resolver) Resolve(code string) (Coordinate, bool) {
	c, _, ok := r.ResolveWithSource(code)
	return c, ok
}

// ResolveWithSource is Resolve that also reports which stage matched.
func (r *Resolver) ResolveWithSource(code string) (Coordinate, Source, bool) {
	c := normalize(code)
	if c == "" {
		return Coordinate{}, "", false
	}

	if b, ok := builtin[c]; ok {
		b.Code = c
		b.Display = "K" + c + " / " + c
		return b, SourceBuiltin, true
	}

	if r != nil {
		if e, ok := r.external[c]; ok {
			return e, SourceExternal, true
		}
	}

	if len(c) == 4 && c[0] == 'K' {
		iata := c[1:]
		if b, ok := builtin[iata]; ok {
			b.Code = iata
			b.Display = c + " / " + iata
			return b, SourceICAO, true
		}
	}

	return Coordinate{}, "", false
}

// Builtin returns the built-in airports sorted by code.
func Builtin() []Coordinate {
	out := make([]Coordinate, 0, len(builtin))
	for code, b := range builtin {
		b.Code = code
		b.Display = "K" + code + " / " + code
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Known returns the number of externally indexed airports.
func (r *Resolver) Known() int {
	if r == nil {
		return 0
	}
	return len(r.external)
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
