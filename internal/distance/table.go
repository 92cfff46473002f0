// Package distance builds the symmetric origin/destination mileage lookup used
// to fill in route distance when the caller does not supply one.
package distance

import (
	"errors"
	"io/fs"
	"math"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/flightdelay/flightdelay/internal/tabular"
)

// Accepted mileage domain.
const (
	MinMiles = 10.0
	MaxMiles = 6000.0
)

var codePattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Column roles for loosely named distance tables.
var (
	OriginRole = tabular.Role{
		Name:       "origin",
		Candidates: []string{"origin", "origin_airport", "from", "src", "source", "origin_iata", "origin_code"},
		Keywords:   []string{"origin"},
		Exclude:    []string{"seq"},
	}

	DestinationRole = tabular.Role{
		Name:       "destination",
		Candidates: []string{"dest", "destination", "destination_airport", "to", "dst", "dest_iata", "destination_code"},
		Keywords:   []string{"dest", "destination"},
		Exclude:    []string{"seq"},
	}

	DistanceRole = tabular.Role{
		Name:       "distance",
		Candidates: []string{"distance", "distance_miles", "miles", "dist", "distance (miles)", "distance in miles"},
		Keywords:   []string{"distance", "miles"},
		Exclude:    []string{"seq"},
		Numeric:    true,
	}
)

type routeKey struct {
	origin      string
	destination string
}

// Table is an immutable, symmetric route mileage lookup.
type Table struct {
	miles map[routeKey]float64
}

// Columns records which headers a table was built from.
type Columns struct {
	Origin      tabular.ColumnRef
	Destination tabular.ColumnRef
	Distance    tabular.ColumnRef
}

// Build constructs a table from a loaded frame. It returns nil when the three
// columns cannot all be resolved or when no row passes validation; callers fall
// back to manual distance entry in that case.
func Build(f *tabular.Frame) *Table {
	t, _ := BuildWithColumns(f)
	return t
}

// BuildWithColumns is Build that also reports the resolved columns.
func BuildWithColumns(f *tabular.Frame) (*Table, *Columns) {
	if f == nil {
		return nil, nil
	}

	cols, ok := resolveColumns(f)
	if !ok {
		return nil, nil
	}

	origins := f.Strings(cols.Origin.Name)
	dests := f.Strings(cols.Destination.Name)
	miles := f.Floats(cols.Distance.Name)

	t := &Table{miles: make(map[routeKey]float64)}
	for i := range origins {
		o := normalizeCode(origins[i])
		d := normalizeCode(dests[i])
		m := miles[i]

		if !codePattern.MatchString(o) || !codePattern.MatchString(d) {
			continue
		}
		if math.IsNaN(m) || m < MinMiles || m > MaxMiles {
			continue
		}

		t.miles[routeKey{o, d}] = m
		t.miles[routeKey{d, o}] = m
	}

	if len(t.miles) == 0 {
		return nil, cols
	}
	return t, cols
}

func resolveColumns(f *tabular.Frame) (*Columns, bool) {
	origin, hasOrigin := f.Resolve(OriginRole)
	dest, hasDest := f.Resolve(DestinationRole)
	dist, hasDist := f.Resolve(DistanceRole)

	if !(hasOrigin && hasDest && hasDist) {
		text := f.TextColumns("seq")
		numeric := f.NumericColumns("seq")

		if !hasOrigin && len(text) > 0 {
			origin = tabular.ColumnRef{Name: text[0], Rank: tabular.RankHeuristic}
			hasOrigin = true
		}
		if !hasDest && len(text) >= 2 {
			dest = tabular.ColumnRef{Name: text[1], Rank: tabular.RankHeuristic}
			hasDest = true
		}
		if !hasDist {
			for _, name := range numeric {
				if tabular.ContainsAny(name, "distance", "miles") {
					dist = tabular.ColumnRef{Name: name, Rank: tabular.RankHeuristic}
					hasDist = true
					break
				}
			}
			if !hasDist && len(numeric) > 0 {
				dist = tabular.ColumnRef{Name: numeric[0], Rank: tabular.RankHeuristic}
				hasDist = true
			}
		}
	}

	if !(hasOrigin && hasDest && hasDist) {
		return nil, false
	}
	return &Columns{Origin: origin, Destination: dest, Distance: dist}, true
}

// LoadFile reads a distance table from disk. A missing file, an unreadable
// file, or unresolvable columns all yield a nil table without error.
func LoadFile(path string, logger zerolog.Logger) *Table {
	if path == "" {
		return nil
	}

	f, err := tabular.LoadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info().Str("path", path).Msg("distance table not found, using manual distance entry")
		} else {
			logger.Warn().Err(err).Str("path", path).Msg("failed to read distance table, using manual distance entry")
		}
		return nil
	}

	t, cols := BuildWithColumns(f)
	if t == nil {
		logger.Warn().Str("path", path).Msg("distance table columns not detected, using manual distance entry")
		return nil
	}

	logger.Info().
		Str("path", path).
		Str("origin_column", cols.Origin.Name).
		Str("destination_column", cols.Destination.Name).
		Str("distance_column", cols.Distance.Name).
		Int("routes", t.Routes()).
		Msg("distance table loaded")

	return t
}

// Lookup returns the mileage for a route. Codes are trimmed and upper-cased.
// A nil table never matches.
func (t *Table) Lookup(origin, destination string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	m, ok := t.miles[routeKey{normalizeCode(origin), normalizeCode(destination)}]
	return m, ok
}

// Routes returns the number of direction-agnostic routes.
func (t *Table) Routes() int {
	if t == nil {
		return 0
	}
	return len(t.miles) / 2
}

// Len returns the number of directed entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.miles)
}

func normalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
