package tabular

import (
	"sort"
	"strings"
)

// Rank describes which resolution stage matched a column.
type Rank int

const (
	// RankExact means a candidate name matched the header case-insensitively.
	RankExact Rank = iota + 1
	// RankKeyword means the header contained one or more role keywords.
	RankKeyword
	// RankHeuristic means the column was picked by a positional fallback.
	RankHeuristic
)

func (r Rank) String() string {
	switch r {
	case RankExact:
		return "exact"
	case RankKeyword:
		return "keyword"
	case RankHeuristic:
		return "heuristic"
	default:
		return "unknown"
	}
}

// ColumnRef identifies a resolved column.
type ColumnRef struct {
	Name string
	Rank Rank
}

// Role describes how to find one logical column in a table.
type Role struct {
	// Name is used for logging only.
	Name string

	// Candidates are exact header names, tried in order.
	Candidates []string

	// Keywords are matched as substrings of folded headers.
	Keywords []string

	// Exclude drops headers containing any of these substrings from keyword matching.
	Exclude []string

	// Numeric restricts matches to numeric columns.
	Numeric bool

	// FirstMatch picks the first header (in table order) containing a keyword
	// instead of ranking by keyword count.
	FirstMatch bool
}

// Resolve finds the column for a role: exact candidate names first, then
// keyword matching. It reports false when neither stage matches.
func (f *Frame) Resolve(role Role) (ColumnRef, bool) {
	if ref, ok := f.resolveExact(role); ok {
		return ref, true
	}
	return f.resolveKeyword(role)
}

func (f *Frame) resolveExact(role Role) (ColumnRef, bool) {
	for _, cand := range role.Candidates {
		name, ok := f.lookup(cand)
		if !ok {
			continue
		}
		if role.Numeric && !f.IsNumeric(name) {
			continue
		}
		return ColumnRef{Name: name, Rank: RankExact}, true
	}
	return ColumnRef{}, false
}

func (f *Frame) resolveKeyword(role Role) (ColumnRef, bool) {
	if len(role.Keywords) == 0 {
		return ColumnRef{}, false
	}

	type scored struct {
		score int
		name  string
	}
	var ranked []scored

	for _, name := range f.Columns() {
		folded := foldName(name)
		if containsAny(folded, role.Exclude) {
			continue
		}

		score := 0
		for _, kw := range role.Keywords {
			if strings.Contains(folded, kw) {
				score++
			}
		}
		if score == 0 {
			continue
		}
		if role.Numeric && !f.IsNumeric(name) {
			continue
		}

		if role.FirstMatch {
			return ColumnRef{Name: name, Rank: RankKeyword}, true
		}
		ranked = append(ranked, scored{score: score, name: name})
	}

	if len(ranked) == 0 {
		return ColumnRef{}, false
	}

	// Highest score wins; equal scores fall to the lexically greatest name.
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].name > ranked[j].name
	})

	return ColumnRef{Name: ranked[0].name, Rank: RankKeyword}, true
}

// TextColumns returns string columns, in table order, whose folded names
// contain none of the excluded substrings.
func (f *Frame) TextColumns(exclude ...string) []string {
	var cols []string
	for _, name := range f.Columns() {
		if f.IsText(name) && !containsAny(foldName(name), exclude) {
			cols = append(cols, name)
		}
	}
	return cols
}

// NumericColumns returns numeric columns, in table order, whose folded names
// contain none of the excluded substrings.
func (f *Frame) NumericColumns(exclude ...string) []string {
	var cols []string
	for _, name := range f.Columns() {
		if f.IsNumeric(name) && !containsAny(foldName(name), exclude) {
			cols = append(cols, name)
		}
	}
	return cols
}

// ContainsAny reports whether a header contains any of the substrings,
// compared case-insensitively.
func ContainsAny(header string, subs ...string) bool {
	return containsAny(foldName(header), subs)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
