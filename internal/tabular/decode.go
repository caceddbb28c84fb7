package tabular

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"go-sheet-pipeline/internal/model"
)

// Document formats.
const (
	FormatText = "text"
	FormatXLSX = "xlsx"
	FormatXLS  = "xls"
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0}
)

// Document is a decoded blob: delimited text or the cells of one sheet.
type Document struct {
	Format string
	Text   string
	Cells  [][]string
}

// Decode sniffs the blob. Workbooks are read with their own libraries, text
// that is not valid UTF-8 is read as Windows-1252 (Latin-1 exports), and HTML
// pages (login or error pages served instead of the export) are rejected.
func Decode(blob []byte, sheet string) (Document, error) {
	switch {
	case bytes.HasPrefix(blob, zipMagic):
		cells, err := readXLSX(blob, sheet)
		if err != nil {
			return Document{}, fmt.Errorf("%w: xlsx: %v", model.ErrDecode, err)
		}
		return Document{Format: FormatXLSX, Cells: cells}, nil
	case bytes.HasPrefix(blob, oleMagic):
		cells, err := readXLS(blob, sheet)
		if err != nil {
			return Document{}, fmt.Errorf("%w: xls: %v", model.ErrDecode, err)
		}
		return Document{Format: FormatXLS, Cells: cells}, nil
	}

	blob = bytes.TrimPrefix(blob, []byte("\xEF\xBB\xBF"))
	if !utf8.Valid(blob) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(blob)
		if err != nil {
			return Document{}, fmt.Errorf("%w: charset: %v", model.ErrDecode, err)
		}
		blob = decoded
	}
	text := string(blob)
	if looksLikeHTML(text) {
		return Document{}, fmt.Errorf("%w: got an HTML page instead of tabular data", model.ErrDecode)
	}
	return Document{Format: FormatText, Text: text}, nil
}

// ParseDocument routes a decoded document to the text or cell parser.
func ParseDocument(doc Document, rules HeaderRules) (model.RawTable, Report) {
	if doc.Format == FormatText {
		return Parse(doc.Text, rules)
	}
	return ParseCells(doc.Cells, rules)
}

func looksLikeHTML(text string) bool {
	head := strings.ToLower(strings.TrimSpace(text))
	if len(head) > 64 {
		head = head[:64]
	}
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

func readXLSX(blob []byte, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	return f.GetRows(sheet)
}

func readXLS(blob []byte, sheet string) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(blob), "utf-8")
	if err != nil {
		return nil, err
	}
	var ws *xls.WorkSheet
	for i := 0; i < wb.NumSheets(); i++ {
		s := wb.GetSheet(i)
		if s == nil {
			continue
		}
		if sheet == "" || s.Name == sheet {
			ws = s
			break
		}
	}
	if ws == nil {
		return nil, fmt.Errorf("sheet %q not found", sheet)
	}

	var rows [][]string
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := ws.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for c := range cells {
			cells[c] = row.Col(c)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
