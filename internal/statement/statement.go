// Package statement reads month-pivoted financial statements: one row of
// month names, a row of planned/actual sub-labels beneath it, then one line
// item per row.
package statement

import (
	"errors"
	"strings"

	"github.com/samber/lo"

	"go-sheet-pipeline/internal/coerce"
)

// ErrNoMonthHeader means no row carried at least MinMonthCells month names.
var ErrNoMonthHeader = errors.New("statement: month header row not found")

// MinMonthCells is how many month-like cells make a row the month header.
const MinMonthCells = 3

// DefaultTitleColumn is the zero-based column holding line titles.
const DefaultTitleColumn = 1

const maxKeyLen = 80

var monthPrefixes = []string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez", "total"}

var subLabels = map[Kind][]string{
	Planned: {"previsto", "orcado", "budget"},
	Actual:  {"realizado", "executado", "actual", "atual"},
}

// Kind selects the planned or actual side of a month.
type Kind string

const (
	Planned Kind = "planned"
	Actual  Kind = "actual"
)

// DefaultAliases name the well-known lines of an income statement.
var DefaultAliases = map[string][]string{
	"faturamento_bruto":    {"faturamento bruto"},
	"deducoes":             {"deducoes"},
	"receita_liquida":      {"receita liquida"},
	"receitas_servicos":    {"receitas servicos", "receita de servicos"},
	"receitas_revenda":     {"receitas revenda", "receita de revenda"},
	"receitas_fabricacao":  {"receitas fabricacao", "receita de fabricacao"},
	"custos_totais":        {"custos totais"},
	"custos_operacionais":  {"custos operacionais"},
	"despesas_adm":         {"despesas adm"},
	"despesas_comercial":   {"despesas comercial"},
	"despesas_logistica":   {"despesas com logistica"},
	"ebitda":               {"ebitda"},
	"lucro_operacional":    {"lucro operacional (ebit)", "lucro operacional ebit"},
	"resultado_financeiro": {"resultado financeiro"},
	"impostos_sobre_lucro": {"impostos sobre o lucro"},
	"lucro_liquido":        {"lucro liquido"},
	"geracao_caixa":        {"geracao de caixa"},
}

type Options struct {
	// TitleColumn is the zero-based title column; 0 selects DefaultTitleColumn.
	// Set TitleInFirstColumn for sheets whose titles sit in column 0.
	TitleColumn        int
	TitleInFirstColumn bool
	// Aliases extend or replace DefaultAliases by key.
	Aliases map[string][]string
}

// Line is one statement row, keyed by month ("jan".."dez").
type Line struct {
	Name    string             `json:"name"`
	Key     string             `json:"key"`
	Planned map[string]float64 `json:"planned"`
	Actual  map[string]float64 `json:"actual"`
}

// MonthColumns locates one month's planned and actual cells.
type MonthColumns struct {
	Month   string `json:"month"`
	Planned int    `json:"planned"`
	Actual  int    `json:"actual"`
}

type Statement struct {
	Months  []string       `json:"months"`
	Columns []MonthColumns `json:"columns"`
	Lines   []Line         `json:"lines"`
	aliases map[string][]string
	byKey   map[string]int
}

// Parse reads cells (rows of raw cell text) into a Statement.
func Parse(cells [][]string, opts Options) (*Statement, error) {
	title := opts.TitleColumn
	if title == 0 && !opts.TitleInFirstColumn {
		title = DefaultTitleColumn
	}

	hi := -1
	for i, row := range cells {
		if lo.CountBy(row, func(c string) bool { return monthOf(c) != "" }) >= MinMonthCells {
			hi = i
			break
		}
	}
	if hi < 0 {
		return nil, ErrNoMonthHeader
	}

	var sub []string
	if hi+1 < len(cells) {
		sub = lo.Map(cells[hi+1], func(c string, _ int) string { return coerce.Lower(c) })
	}
	st := &Statement{aliases: mergeAliases(opts.Aliases), byKey: map[string]int{}}
	for idx, c := range cells[hi] {
		m := monthOf(c)
		if m == "" || m == "total" {
			continue
		}
		st.Columns = append(st.Columns, locate(m, idx, sub))
		st.Months = append(st.Months, m)
	}

	for _, row := range cells[min(hi+2, len(cells)):] {
		name := ""
		if title < len(row) {
			name = coerce.Clean(row[title])
		}
		if name == "" {
			continue
		}
		ln := Line{Name: name, Key: lineKey(name), Planned: map[string]float64{}, Actual: map[string]float64{}}
		for _, mc := range st.Columns {
			ln.Planned[mc.Month] = cellNumber(row, mc.Planned)
			ln.Actual[mc.Month] = cellNumber(row, mc.Actual)
		}
		if _, dup := st.byKey[ln.Key]; !dup {
			st.byKey[ln.Key] = len(st.Lines)
		}
		st.Lines = append(st.Lines, ln)
	}
	return st, nil
}

// locate finds the planned and actual columns within the three cells after a
// month's header cell, falling back to idx+1 and idx+2.
func locate(month string, idx int, sub []string) MonthColumns {
	mc := MonthColumns{Month: month, Planned: -1, Actual: -1}
	for c := idx; c <= idx+3 && c < len(sub); c++ {
		lab := sub[c]
		if lab == "" {
			continue
		}
		if mc.Planned < 0 && anyContains(lab, subLabels[Planned]) {
			mc.Planned = c
		}
		if mc.Actual < 0 && anyContains(lab, subLabels[Actual]) {
			mc.Actual = c
		}
	}
	if mc.Planned < 0 {
		mc.Planned = idx + 1
	}
	if mc.Actual < 0 {
		mc.Actual = idx + 2
	}
	return mc
}

func monthOf(cell string) string {
	base := coerce.Lower(cell)
	m, _ := lo.Find(monthPrefixes, func(p string) bool { return strings.HasPrefix(base, p) })
	return m
}

func lineKey(name string) string {
	k := strings.ReplaceAll(coerce.Lower(name), " ", "_")
	if len(k) > maxKeyLen {
		k = k[:maxKeyLen]
	}
	return k
}

func cellNumber(row []string, c int) float64 {
	if c < 0 || c >= len(row) {
		return 0
	}
	return coerce.ParseNumber(row[c])
}

func anyContains(s string, terms []string) bool {
	return lo.SomeBy(terms, func(t string) bool { return strings.Contains(s, t) })
}

func mergeAliases(extra map[string][]string) map[string][]string {
	out := make(map[string][]string, len(DefaultAliases)+len(extra))
	for k, v := range DefaultAliases {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
