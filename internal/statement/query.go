package statement

import (
	"strings"

	"go-sheet-pipeline/internal/aggregate"
	"go-sheet-pipeline/internal/model"
)

// Find returns the line an alias names. The alias is either a key of the
// alias table or a phrase itself. An exact key wins; otherwise the first line
// whose key contains the phrase.
func (s *Statement) Find(alias string) (Line, bool) {
	phrases, ok := s.aliases[alias]
	if !ok {
		phrases = []string{alias}
	}
	for _, p := range phrases {
		k := lineKey(p)
		if i, ok := s.byKey[k]; ok {
			return s.Lines[i], true
		}
		for _, ln := range s.Lines {
			if strings.Contains(ln.Key, k) {
				return ln, true
			}
		}
	}
	return Line{}, false
}

// ValueAt reads one cell; unknown lines or months read as 0.
func (s *Statement) ValueAt(alias, month string, kind Kind) float64 {
	ln, ok := s.Find(alias)
	if !ok {
		return 0
	}
	month = monthOf(month)
	if kind == Planned {
		return ln.Planned[month]
	}
	return ln.Actual[month]
}

// LineItems flattens every line for one month, in statement order.
func (s *Statement) LineItems(month string) []model.LineItem {
	month = monthOf(month)
	out := make([]model.LineItem, len(s.Lines))
	for i, ln := range s.Lines {
		out[i] = model.LineItem{Name: ln.Name, Planned: ln.Planned[month], Actual: ln.Actual[month]}
	}
	return out
}

// Rank is aggregate.RankLineItems over the month's lines.
func (s *Statement) Rank(month string, opts aggregate.RankOptions) []model.RankedItem {
	return aggregate.RankLineItems(s.LineItems(month), opts)
}

// MonthValue is one month of a planned-versus-actual series.
type MonthValue struct {
	Month    string  `json:"month"`
	Planned  float64 `json:"planned"`
	Actual   float64 `json:"actual"`
	Variance float64 `json:"variance"`
}

// Series lists a line across every month of the statement.
func (s *Statement) Series(alias string) []MonthValue {
	out := make([]MonthValue, 0, len(s.Months))
	for _, m := range s.Months {
		p, a := s.ValueAt(alias, m, Planned), s.ValueAt(alias, m, Actual)
		out = append(out, MonthValue{Month: m, Planned: p, Actual: a, Variance: a - p})
	}
	return out
}

// Compare sets each line's actual value against the same line of other, for
// example a cash view against an accrual view. Lines missing from other are
// compared against 0.
func (s *Statement) Compare(other *Statement, month string) []model.VarianceEntry {
	month = monthOf(month)
	out := make([]model.VarianceEntry, 0, len(s.Lines))
	for _, ln := range s.Lines {
		base := 0.0
		if i, ok := other.byKey[ln.Key]; ok {
			base = other.Lines[i].Actual[month]
		}
		pt := aggregate.Point{Key: ln.Name, Value: ln.Actual[month]}
		out = append(out, aggregate.Variance([]aggregate.Point{pt}, base)...)
	}
	return out
}
