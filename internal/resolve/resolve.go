// Package resolve maps semantic roles onto the headers of a parsed export.
package resolve

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
	"github.com/schollz/closestmatch"

	"go-sheet-pipeline/internal/coerce"
	"go-sheet-pipeline/internal/model"
)

// minContain is the shortest folded text allowed to match by containment.
const minContain = 3

var runningTotal = regexp.MustCompile(`(?i)total|geral|acum|subtotal`)

type header struct {
	raw    string
	folded string
}

func fold(headers []string) []header {
	return lo.Map(headers, func(h string, _ int) header {
		return header{raw: h, folded: coerce.Fold(h)}
	})
}

// candidates lists headers matching aliases: exact folded matches in alias
// priority order first, then containment in either direction.
func candidates(headers []string, aliases []string) []string {
	hs := fold(headers)
	var out []string
	seen := map[string]bool{}
	add := func(h string) {
		if !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	for _, a := range aliases {
		fa := coerce.Fold(a)
		if fa == "" {
			continue
		}
		for _, h := range hs {
			if h.folded == fa {
				add(h.raw)
			}
		}
	}
	for _, a := range aliases {
		fa := coerce.Fold(a)
		if fa == "" {
			continue
		}
		for _, h := range hs {
			if h.folded == "" || h.folded == fa {
				continue
			}
			if (len(fa) >= minContain && strings.Contains(h.folded, fa)) ||
				(len(h.folded) >= minContain && strings.Contains(fa, h.folded)) {
				add(h.raw)
			}
		}
	}
	return out
}

// Column resolves one role: exact match first, containment second. It
// returns "" when nothing matches.
func Column(headers []string, aliases []string) string {
	c := candidates(headers, aliases)
	if len(c) == 0 {
		return ""
	}
	return c[0]
}

// NumericColumn is Column restricted to headers whose rows carry at least one
// nonzero number, so an all-blank lookalike never wins.
func NumericColumn(t model.RawTable, aliases []string) string {
	for _, h := range candidates(t.Headers, aliases) {
		if hasNumbers(t, h) {
			return h
		}
	}
	return ""
}

// ForcedColumn matches caller-supplied header texts exactly (folded). Unless
// the forced text is itself a percentage, headers containing '%' never match.
func ForcedColumn(headers []string, forced []string) string {
	hs := fold(headers)
	for _, f := range forced {
		ff := coerce.Fold(f)
		if ff == "" {
			continue
		}
		hits := lo.Filter(hs, func(h header, _ int) bool { return h.folded == ff })
		if !coerce.IsPercent(f) {
			hits = lo.Filter(hits, func(h header, _ int) bool { return !coerce.IsPercent(h.raw) })
		}
		if len(hits) > 0 {
			return hits[0].raw
		}
	}
	return ""
}

// QuantityColumn prefers quantity headers that are not running totals
// ("Qtd Total", "Acumulado"), then falls back to any numeric match.
func QuantityColumn(t model.RawTable, aliases []string) string {
	c := lo.Filter(candidates(t.Headers, aliases), func(h string, _ int) bool { return hasNumbers(t, h) })
	if h, ok := lo.Find(c, func(h string) bool { return !runningTotal.MatchString(h) }); ok {
		return h
	}
	if len(c) > 0 {
		return c[0]
	}
	return ""
}

// ValueColumn picks the value column: forced texts, then value aliases, then
// the preferred month label ("Ago/2025"), then "Total", then any month-like
// label, then the first numeric column. Percentage headers are skipped at
// every step after the forced one.
func ValueColumn(t model.RawTable, h model.Hints, periodID string) string {
	if col := ForcedColumn(t.Headers, h.ForcedValueColumn); col != "" {
		return col
	}
	valid := lo.Filter(t.Headers, func(x string, _ int) bool { return !coerce.IsPercent(x) })
	if len(h.ValueAliases) > 0 {
		sub := t
		sub.Headers = valid
		if col := NumericColumn(sub, h.ValueAliases); col != "" {
			return col
		}
	}

	label := h.PreferMonthLabel
	if label == "" {
		label = coerce.MonthLabel(periodID)
	}
	if label != "" {
		if col, ok := lo.Find(valid, func(x string) bool { return coerce.Fold(x) == coerce.Fold(label) }); ok {
			return col
		}
	}
	if col, ok := lo.Find(valid, func(x string) bool { return coerce.Fold(x) == "total" }); ok {
		return col
	}
	if col, ok := lo.Find(valid, coerce.IsMonthLabel); ok {
		return col
	}
	entity := Column(t.Headers, h.EntityAliases)
	if col, ok := lo.Find(valid, func(x string) bool { return x != entity && hasNumbers(t, x) }); ok {
		return col
	}
	return ""
}

// Fuzzy returns the header closest to any alias, or "" when the headers share
// nothing with the aliases.
func Fuzzy(headers []string, aliases []string) string {
	if len(headers) == 0 || len(aliases) == 0 {
		return ""
	}
	byFold := map[string]string{}
	keys := make([]string, 0, len(headers))
	for _, h := range headers {
		f := coerce.Fold(h)
		if f == "" {
			continue
		}
		if _, dup := byFold[f]; !dup {
			byFold[f] = h
			keys = append(keys, f)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	cm := closestmatch.New(keys, []int{2, 3})
	for _, a := range aliases {
		fa := coerce.Fold(a)
		if len(fa) < minContain {
			continue
		}
		if m := cm.Closest(fa); m != "" && sharesBigram(m, fa) {
			return byFold[m]
		}
	}
	return ""
}

func sharesBigram(a, b string) bool {
	for i := 0; i+2 <= len(a); i++ {
		if strings.Contains(b, a[i:i+2]) {
			return true
		}
	}
	return false
}

func hasNumbers(t model.RawTable, h string) bool {
	for _, r := range t.Rows {
		if coerce.ParseNumber(r[h]) != 0 {
			return true
		}
	}
	return false
}
