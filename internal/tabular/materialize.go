package tabular

import (
	"fmt"

	"go-sheet-pipeline/internal/coerce"
	"go-sheet-pipeline/internal/model"
)

// Report describes how a blob was parsed.
type Report struct {
	Delimiter rune
	Score     int
	Found     bool
	Good      bool
	Tried     []rune
}

// Parse detects the delimiter and header of text and materializes its rows.
// The detected delimiter is tried first, then the others; the best scoring
// parse wins and the first one satisfying the rules ends the search.
func Parse(text string, rules HeaderRules) (model.RawTable, Report) {
	if len(Lines(text)) == 0 {
		return model.RawTable{Delimiter: ','}, Report{Delimiter: ','}
	}

	var (
		bestRows  [][]string
		bestMatch HeaderMatch
		rep       Report
		have      bool
	)
	for _, d := range candidates(DetectDelimiter(text)) {
		rep.Tried = append(rep.Tried, d)
		rows := ReadRows(text, d)
		m := LocateHeaderCells(rows, rules)
		if !have || m.Score > bestMatch.Score || (m.Good && !bestMatch.Good) {
			bestRows, bestMatch, have = rows, m, true
			rep.Delimiter = d
			if m.Good {
				break
			}
		}
	}
	rep.Score, rep.Found, rep.Good = bestMatch.Score, bestMatch.Found, bestMatch.Good

	t := Materialize(bestRows, bestMatch)
	t.Delimiter = rep.Delimiter
	return t, rep
}

// ParseCells runs header location over pre-split rows (workbook sheets).
func ParseCells(cells [][]string, rules HeaderRules) (model.RawTable, Report) {
	rows := make([][]string, 0, len(cells))
	for _, r := range cells {
		if !blankRow(r) {
			rows = append(rows, r)
		}
	}
	m := LocateHeaderCells(rows, rules)
	return Materialize(rows, m), Report{Score: m.Score, Found: m.Found, Good: m.Good}
}

// Materialize binds the rows after the header to the header cells. Missing
// cells read as empty and rows with no content are dropped. Total rows are
// left for the normalizer.
func Materialize(rows [][]string, m HeaderMatch) model.RawTable {
	headers := uniqueHeaders(m.Headers)
	t := model.RawTable{HeaderRowIndex: m.Index, Headers: headers}
	if len(headers) == 0 {
		return t
	}
	for j := m.Index + 1; j < len(rows); j++ {
		cells := rows[j]
		row := make(map[string]string, len(headers))
		blank := true
		for k, h := range headers {
			v := ""
			if k < len(cells) {
				v = coerce.Clean(cells[k])
			}
			if v != "" {
				blank = false
			}
			row[h] = v
		}
		if blank {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// uniqueHeaders drops trailing blank headers, names inner blanks after their
// position and suffixes repeats so every column stays addressable.
func uniqueHeaders(in []string) []string {
	end := len(in)
	for end > 0 && in[end-1] == "" {
		end--
	}
	out := make([]string, 0, end)
	seen := map[string]int{}
	for i := 0; i < end; i++ {
		h := in[i]
		if h == "" {
			h = fmt.Sprintf("col%d", i+1)
		}
		seen[h]++
		if n := seen[h]; n > 1 {
			h = fmt.Sprintf("%s (%d)", h, n)
		}
		out = append(out, h)
	}
	return out
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if !coerce.IsBlank(c) {
			return false
		}
	}
	return true
}
