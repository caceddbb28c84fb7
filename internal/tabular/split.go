package tabular

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// Delimiters tried when the detected one does not produce a good header.
var Delimiters = []rune{',', ';', '\t'}

// Lines splits text into its non-blank lines, dropping a leading BOM.
func Lines(text string) []string {
	text = strings.TrimPrefix(text, "\uFEFF")
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSuffix(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}

// DetectDelimiter inspects the first non-empty line: tab wins outright,
// otherwise the more frequent of ';' and ','.
func DetectDelimiter(text string) rune {
	lines := Lines(text)
	if len(lines) == 0 {
		return ','
	}
	first := lines[0]
	if strings.ContainsRune(first, '\t') {
		return '\t'
	}
	if strings.Count(first, ";") > strings.Count(first, ",") {
		return ';'
	}
	return ','
}

// SplitLine splits one line on delim outside quotes. A doubled quote inside a
// quoted field is a literal quote.
func SplitLine(line string, delim rune) []string {
	var out []string
	var cur strings.Builder
	inQuotes := false
	rs := []rune(line)
	for i := 0; i < len(rs); i++ {
		ch := rs[i]
		if inQuotes {
			if ch == '"' {
				if i+1 < len(rs) && rs[i+1] == '"' {
					cur.WriteRune('"')
					i++
				} else {
					inQuotes = false
				}
				continue
			}
			cur.WriteRune(ch)
			continue
		}
		switch ch {
		case '"':
			inQuotes = true
		case delim:
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(ch)
		}
	}
	return append(out, cur.String())
}

// ReadRows reads text as delimited records. Quoted fields may span lines.
// Whitespace-only lines are skipped like Lines does. Text the csv reader
// rejects is split line by line instead.
func ReadRows(text string, delim rune) [][]string {
	text = strings.TrimPrefix(text, "\uFEFF")
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows
		}
		if err != nil {
			return splitAll(Lines(text), delim)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		rows = append(rows, rec)
	}
}

func splitAll(lines []string, delim rune) [][]string {
	rows := make([][]string, len(lines))
	for i, l := range lines {
		rows[i] = SplitLine(l, delim)
	}
	return rows
}

func candidates(detected rune) []rune {
	out := []rune{detected}
	for _, d := range Delimiters {
		if d != detected {
			out = append(out, d)
		}
	}
	return out
}
