package pipeline

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"go-sheet-pipeline/internal/model"
	"go-sheet-pipeline/pkg/utils"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// exportDoc is the JSON export: the view plus what each source contributed.
type exportDoc struct {
	RunID    string                `json:"runId"`
	View     model.AggregateView   `json:"view"`
	Sources  []model.SourceReport  `json:"sources"`
	Failures []model.SourceFailure `json:"failures"`
}

// ExportResult writes the requested formats into the run's output directory.
// A failing format does not stop the others.
func ExportResult(runID string, res *Result, formats []string, om *utils.OutputManager) []model.ExportResult {
	if len(formats) == 0 {
		formats = []string{FormatJSON}
	}
	out := make([]model.ExportResult, 0, len(formats))
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		er := model.ExportResult{Type: f, Timestamp: time.Now()}
		var err error
		switch f {
		case FormatJSON:
			er.Path, err = om.GetOutputFilePath(runID, "view.json")
			if err == nil {
				err = writeJSON(er.Path, exportDoc{RunID: runID, View: res.View, Sources: res.Sources, Failures: res.Failures})
			}
			er.RecordCount = len(res.View.ByEntity)
		case FormatCSV:
			er.Path, err = om.GetOutputFilePath(runID, "records.csv")
			if err == nil {
				err = writeRecordsCSV(er.Path, res.Records)
			}
			er.RecordCount = len(res.Records)
		case FormatXLSX:
			er.Path, err = om.GetOutputFilePath(runID, "view.xlsx")
			if err == nil {
				err = writeViewXLSX(er.Path, res)
			}
			er.RecordCount = len(res.View.ByEntity)
		default:
			err = fmt.Errorf("unsupported export format %q", f)
		}
		er.Success = err == nil
		if err != nil {
			er.Error = err.Error()
			slog.Error("❌ export failed", "run_id", runID, "format", f, "error", err)
		} else {
			slog.Info("💾 exported", "run_id", runID, "format", f, "path", er.Path, "records", er.RecordCount)
		}
		out = append(out, er)
	}
	return out
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func writeRecordsCSV(path string, records []model.NormalizedRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if records == nil {
		records = []model.NormalizedRecord{}
	}
	if err := gocsv.MarshalFile(&records, f); err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}
	return nil
}

// writeViewXLSX lays the view out one sheet per rollup.
func writeViewXLSX(path string, res *Result) error {
	f := excelize.NewFile()
	defer f.Close()

	v := res.View
	sheets := []struct {
		name   string
		header []any
		rows   [][]any
	}{
		{"Summary", []any{"Metric", "Value"}, [][]any{
			{"Total", v.Total},
			{"Total quantity", v.TotalQuantity},
			{"Records", v.RecordCount},
			{"Weighted unit value", v.WeightedUnitValue},
			{"Simple unit value", v.SimpleUnitValue},
			{"Deduplicated", res.Deduplicated},
		}},
		{"By Entity", []any{"Entity", "Value", "Quantity", "Count"}, entityRows(v.ByEntity)},
		{"By Period", []any{"Period", "Value", "Quantity"}, periodRows(v.ByPeriod)},
		{"Unit Values", []any{"Entity", "Weighted", "Simple", "Value", "Quantity"}, unitRows(v.UnitValues)},
		{"By Entity By Period", []any{"Entity", "Period", "Value", "Quantity"}, seriesRows(v.ByEntityByPeriod)},
		{"Sources", []any{"Tag", "URL", "Records", "Header row", "Cached", "Error"}, sourceRows(res.Sources)},
	}
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return err
		}
		if err := f.SetSheetRow(s.name, "A1", &s.header); err != nil {
			return err
		}
		for r, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(s.name, cell, &row); err != nil {
				return err
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}

func entityRows(vs []model.EntityValue) [][]any {
	out := make([][]any, len(vs))
	for i, e := range vs {
		out[i] = []any{e.Entity, e.Value, e.Quantity, e.Count}
	}
	return out
}

func periodRows(ps []model.PeriodValue) [][]any {
	out := make([][]any, len(ps))
	for i, p := range ps {
		out[i] = []any{p.PeriodID, p.Value, p.Quantity}
	}
	return out
}

func unitRows(us []model.UnitValue) [][]any {
	out := make([][]any, len(us))
	for i, u := range us {
		out[i] = []any{u.Entity, u.Weighted, u.Simple, u.Value, u.Quantity}
	}
	return out
}

func seriesRows(m map[string][]model.PeriodValue) [][]any {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out [][]any
	for _, k := range keys {
		for _, p := range m[k] {
			out = append(out, []any{k, p.PeriodID, p.Value, p.Quantity})
		}
	}
	return out
}

func sourceRows(ss []model.SourceReport) [][]any {
	out := make([][]any, len(ss))
	for i, s := range ss {
		msg := ""
		if s.Error != nil {
			msg = string(s.Error.Kind) + ": " + s.Error.Message
		}
		out[i] = []any{s.Tag, s.URL, s.RecordCount, s.HeaderRowIndex, s.Cached, msg}
	}
	return out
}
