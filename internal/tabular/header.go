package tabular

import (
	"fmt"
	"regexp"

	"go-sheet-pipeline/internal/coerce"
	"go-sheet-pipeline/internal/model"
)

const (
	DefaultProbeLimit = 150
	SimpleProbeLimit  = 30
)

// Weights score a candidate header line. Tuned on real exports; keep them
// relative to each other rather than treating the numbers as fixed.
type Weights struct {
	Entity     int
	ExactValue int
	LooseValue int
	LeftID     int
	Pivot      int
}

var DefaultWeights = Weights{Entity: 2, ExactValue: 2, LooseValue: 1, LeftID: 1, Pivot: -3}

var (
	defaultLeftID = regexp.MustCompile(`dt\.?\s*ent/sai|dt\.?\s*neg|nunota|\bcod\.?\s|^op$|\bop\b`)
	defaultPivot  = regexp.MustCompile(`average\s+(of|de)\b|^media\s+de\b|^soma\s+de\b|^sum\s+of\b|^count\s+of\b|^contagem\s+de\b`)
)

// HeaderRules say what a real header line looks like. Names are compared
// folded (see coerce.Fold); patterns run against coerce.Lower of the cell.
type HeaderRules struct {
	EntityNames   []string
	EntityPattern []*regexp.Regexp
	ValueNames    []string
	LooseValue    []*regexp.Regexp
	LeftID        *regexp.Regexp
	Pivot         *regexp.Regexp
	StopColumns   []*regexp.Regexp
	ProbeLimit    int
	Weights       Weights
}

// HeaderMatch is the outcome of header location. Index counts non-blank rows.
type HeaderMatch struct {
	Index   int
	Headers []string
	Score   int
	Found   bool
	Good    bool
}

// RulesFromHints derives header rules from a source's hints.
func RulesFromHints(h model.Hints) (HeaderRules, error) {
	r := HeaderRules{
		LeftID:     defaultLeftID,
		Pivot:      defaultPivot,
		ProbeLimit: h.ProbeLimit,
		Weights:    DefaultWeights,
	}
	if r.ProbeLimit <= 0 {
		r.ProbeLimit = DefaultProbeLimit
	}
	for _, a := range h.EntityAliases {
		r.EntityNames = append(r.EntityNames, coerce.Fold(a))
	}
	for _, a := range append(append([]string{}, h.ValueAliases...), h.ForcedValueColumn...) {
		if coerce.IsPercent(a) {
			continue
		}
		r.ValueNames = append(r.ValueNames, coerce.Fold(a))
	}
	var err error
	if r.EntityPattern, err = compileAll(h.EntityFragments); err != nil {
		return r, fmt.Errorf("entity fragments: %w", err)
	}
	if r.LooseValue, err = compileAll(h.LooseValue); err != nil {
		return r, fmt.Errorf("loose value patterns: %w", err)
	}
	if r.StopColumns, err = compileAll(h.StopColumns); err != nil {
		return r, fmt.Errorf("stop columns: %w", err)
	}
	return r, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

type lineTraits struct {
	entity, exact, loose, leftID, pivot bool
}

func (r HeaderRules) traits(cells []string) lineTraits {
	var t lineTraits
	for _, c := range cells {
		folded := coerce.Fold(c)
		if folded == "" {
			continue
		}
		lower := coerce.Lower(c)
		if !t.entity && (contains(r.EntityNames, folded) || matchAny(r.EntityPattern, lower)) {
			t.entity = true
		}
		if !t.exact && contains(r.ValueNames, folded) {
			t.exact = true
		}
		if !t.loose && matchAny(r.LooseValue, lower) {
			t.loose = true
		}
		if !t.leftID && r.LeftID != nil && r.LeftID.MatchString(lower) {
			t.leftID = true
		}
		if !t.pivot && r.Pivot != nil && r.Pivot.MatchString(lower) {
			t.pivot = true
		}
	}
	return t
}

func (r HeaderRules) score(t lineTraits) int {
	s := 0
	if t.entity {
		s += r.Weights.Entity
	}
	if t.exact {
		s += r.Weights.ExactValue
	} else if t.loose {
		s += r.Weights.LooseValue
	}
	if t.leftID {
		s += r.Weights.LeftID
	}
	if t.pivot {
		s += r.Weights.Pivot
	}
	return s
}

// good reports whether the headers carry everything a usable table needs.
func (r HeaderRules) good(headers []string) bool {
	t := r.traits(headers)
	if len(r.ValueNames) == 0 && len(r.LooseValue) == 0 {
		return t.entity
	}
	return t.entity && (t.exact || t.loose)
}

// LocateHeader finds the header among text lines split on delim.
func LocateHeader(lines []string, delim rune, rules HeaderRules) HeaderMatch {
	return LocateHeaderCells(splitAll(lines, delim), rules)
}

// LocateHeaderCells scores the first ProbeLimit rows and keeps the best one,
// the earliest on ties. When nothing scores positively the first row is used
// and Found is false.
func LocateHeaderCells(rows [][]string, rules HeaderRules) HeaderMatch {
	if len(rows) == 0 {
		return HeaderMatch{}
	}
	limit := rules.ProbeLimit
	if limit <= 0 || limit > len(rows) {
		limit = len(rows)
	}

	best, bestScore := -1, 0
	for i := 0; i < limit; i++ {
		s := rules.score(rules.traits(rows[i]))
		if s > 0 && (best < 0 || s > bestScore) {
			best, bestScore = i, s
		}
	}

	m := HeaderMatch{Index: 0, Score: bestScore, Found: best >= 0}
	if best >= 0 {
		m.Index = best
	} else {
		m.Score = rules.score(rules.traits(rows[0]))
	}
	m.Headers = rules.truncate(cleanAll(rows[m.Index]))
	m.Good = m.Found && rules.good(m.Headers)
	return m
}

// truncate cuts the header after the first stop column so pivot blocks to the
// right never reach column resolution. Stop rules are tried in order.
func (r HeaderRules) truncate(headers []string) []string {
	for _, re := range r.StopColumns {
		for i, h := range headers {
			if re.MatchString(coerce.Lower(h)) {
				return headers[:i+1]
			}
		}
	}
	return headers
}

func cleanAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = coerce.Clean(c)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func matchAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
