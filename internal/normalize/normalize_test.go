package normalize

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"go-sheet-pipeline/internal/aggregate"
	"go-sheet-pipeline/internal/model"
	"go-sheet-pipeline/internal/resolve"
	"go-sheet-pipeline/internal/tabular"
)

const costCSV = `Produto,Quantidade,Lote,Custo PA
"Produto A","10","03082025","1000"
"Produto B","5","04082025","250"
"TOTAL","15","","1250"
`

func ingest(t *testing.T, text, preset string, opts Options) []model.NormalizedRecord {
	t.Helper()
	h, ok := model.Preset(preset)
	if !ok {
		t.Fatalf("unknown preset %q", preset)
	}
	rules, err := tabular.RulesFromHints(h)
	if err != nil {
		t.Fatalf("RulesFromHints: %v", err)
	}
	tb, _ := tabular.Parse(text, rules)
	return Normalize(tb, resolve.Resolve(tb, h, opts.PeriodID), opts)
}

func TestNormalizeCostExport(t *testing.T) {
	recs := ingest(t, costCSV, "product-cost", Options{SourceTag: "03-09"})
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(recs), recs)
	}
	a := recs[0]
	if a.Entity != "Produto A" || a.Value != 1000 || a.Quantity != 10 {
		t.Fatalf("unexpected first record: %+v", a)
	}
	if a.DateISO != "2025-08-03" || a.PeriodID != "2025-08" || a.Lot != "03082025" {
		t.Fatalf("lot-derived date missing: %+v", a)
	}
	if a.SourceTag != "03-09" {
		t.Fatalf("source tag = %q", a.SourceTag)
	}
	if recs[1].Entity != "Produto B" || recs[1].DateISO != "2025-08-04" {
		t.Fatalf("unexpected second record: %+v", recs[1])
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	first := ingest(t, costCSV, "product-cost", Options{})
	for i := 0; i < 5; i++ {
		if again := ingest(t, costCSV, "product-cost", Options{}); !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\n%+v\n%+v", i, first, again)
		}
	}
}

func TestNormalizeRowRules(t *testing.T) {
	tb := model.RawTable{
		Headers: []string{"Cliente", "Valor", "Qtd", "CU", "MP", "MO", "Data"},
		Rows: []map[string]string{
			{"Cliente": "", "Valor": "100", "Qtd": "2", "Data": "05/08/2025"},
			{"Cliente": "Percent", "Valor": "12%", "Qtd": "1"},
			{"Cliente": "Parts", "Valor": "0", "Qtd": "1", "MP": "30", "MO": "12,5"},
			{"Cliente": "Inferred", "Valor": "50", "CU": "12,5"},
			{"Cliente": "Empty", "Valor": "", "Qtd": "0"},
			{"Cliente": "Subtotal Agosto", "Valor": "999"},
		},
	}
	roles := model.ColumnRoleMap{
		model.RoleEntity:           "Cliente",
		model.RoleValue:            "Valor",
		model.RoleQuantity:         "Qtd",
		model.RoleUnitPrice:        "CU",
		model.RoleDate:             "Data",
		model.ComponentRole("mp"):  "MP",
		model.ComponentRole("mo"):  "MO",
		model.ComponentRole("emb"): "",
	}
	recs := Normalize(tb, roles, Options{})
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d: %+v", len(recs), recs)
	}
	if recs[0].Entity != model.Placeholder || recs[0].DateISO != "2025-08-05" {
		t.Fatalf("blank entity row: %+v", recs[0])
	}
	if recs[1].Entity != "Parts" || math.Abs(recs[1].Value-42.5) > 1e-9 {
		t.Fatalf("component sum: %+v", recs[1])
	}
	if recs[1].Components["mp"] != 30 || recs[1].Components["mo"] != 12.5 {
		t.Fatalf("components kept: %+v", recs[1].Components)
	}
	if recs[2].Entity != "Inferred" || math.Abs(recs[2].Quantity-4) > 1e-9 {
		t.Fatalf("quantity inference: %+v", recs[2])
	}
	if recs[2].DateISO != "" || recs[2].PeriodID != "" {
		t.Fatalf("undated row should carry no period: %+v", recs[2])
	}
}

func TestNormalizePeriodOverride(t *testing.T) {
	tb := model.RawTable{
		Headers: []string{"Produto", "Valor", "Data"},
		Rows: []map[string]string{
			{"Produto": "A", "Valor": "1", "Data": "2025-07-31"},
			{"Produto": "B", "Valor": "1", "Data": "2025-08-01"},
			{"Produto": "C", "Valor": "1"},
		},
	}
	roles := model.ColumnRoleMap{model.RoleEntity: "Produto", model.RoleValue: "Valor", model.RoleDate: "Data"}
	recs := Normalize(tb, roles, Options{
		PeriodID:       "2025-08",
		AllowedPeriods: map[string]bool{"2025-08": true, "2025-09": true},
	})
	for _, r := range recs {
		if r.PeriodID != "2025-08" {
			t.Fatalf("%s: period = %q, want 2025-08", r.Entity, r.PeriodID)
		}
	}
	if recs[0].DateISO != "2025-07-31" {
		t.Fatalf("override must not rewrite the date: %+v", recs[0])
	}
}

func TestNormalizeDateRange(t *testing.T) {
	tb := model.RawTable{
		Headers: []string{"Produto", "Valor", "Data"},
		Rows: []map[string]string{
			{"Produto": "before", "Valor": "1", "Data": "31/07/2025"},
			{"Produto": "first", "Valor": "1", "Data": "01/08/2025"},
			{"Produto": "last", "Valor": "1", "Data": "31/08/2025"},
			{"Produto": "after", "Valor": "1", "Data": "01/09/2025"},
			{"Produto": "undated", "Valor": "1"},
		},
	}
	roles := model.ColumnRoleMap{model.RoleEntity: "Produto", model.RoleValue: "Valor", model.RoleDate: "Data"}
	recs := Normalize(tb, roles, Options{DateRange: &model.DateRange{StartISO: "2025-08-01", EndISO: "2025-08-31"}})
	var got []string
	for _, r := range recs {
		got = append(got, r.Entity)
	}
	want := []string{"first", "last", "undated"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("date range kept %v, want %v", got, want)
	}
}

func TestNormalizeYearMonthColumns(t *testing.T) {
	tb := model.RawTable{
		Headers: []string{"Produto", "Valor", "Ano", "Mês"},
		Rows: []map[string]string{
			{"Produto": "A", "Valor": "1", "Ano": "2025", "Mês": "8"},
			{"Produto": "B", "Valor": "1", "Ano": "2025", "Mês": "Setembro"},
		},
	}
	roles := model.ColumnRoleMap{
		model.RoleEntity: "Produto", model.RoleValue: "Valor",
		model.RoleYear: "Ano", model.RoleMonth: "Mês",
	}
	recs := Normalize(tb, roles, Options{})
	if recs[0].PeriodID != "2025-08" || recs[1].PeriodID != "2025-09" {
		t.Fatalf("periods = %q, %q", recs[0].PeriodID, recs[1].PeriodID)
	}
}

func TestDedupAcrossOverlappingWindows(t *testing.T) {
	week1 := ingest(t, costCSV, "product-cost", Options{SourceTag: "27-02"})
	week2 := ingest(t, costCSV, "product-cost", Options{SourceTag: "03-09"})
	all := append(append([]model.NormalizedRecord{}, week1...), week2...)

	out, removed := Dedup(all)
	if len(out) != 2 || removed != 2 {
		t.Fatalf("dedup kept %d, removed %d", len(out), removed)
	}
	if out[0].SourceTag != "27-02" {
		t.Fatalf("first occurrence should win, got %q", out[0].SourceTag)
	}
	if Key(out[0]) != "Produto A|||03082025|2025-08" {
		t.Fatalf("key = %q", Key(out[0]))
	}
}

func TestNormalizeKeepsValuesFinite(t *testing.T) {
	tb := model.RawTable{
		Headers: []string{"Cliente", "Valor", "Qtd", "CU"},
		Rows: []map[string]string{
			{"Cliente": "Huge", "Valor": strings.Repeat("9", 400), "Qtd": "10"},
			{"Cliente": "Tiny", "Valor": "1" + strings.Repeat("0", 300), "CU": "0," + strings.Repeat("0", 300) + "1"},
		},
	}
	roles := model.ColumnRoleMap{
		model.RoleEntity:    "Cliente",
		model.RoleValue:     "Valor",
		model.RoleQuantity:  "Qtd",
		model.RoleUnitPrice: "CU",
	}
	recs := Normalize(tb, roles, Options{})
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %+v", recs)
	}
	for _, r := range recs {
		if math.IsInf(r.Value, 0) || math.IsNaN(r.Value) || math.IsInf(r.Quantity, 0) || math.IsNaN(r.Quantity) {
			t.Fatalf("non-finite record: %+v", r)
		}
	}
	if recs[0].Value != 0 || recs[0].Quantity != 10 {
		t.Fatalf("overflowing value should read as 0: %+v", recs[0])
	}
	if recs[1].Quantity != 0 {
		t.Fatalf("overflowing inferred quantity should read as 0: %+v", recs[1])
	}

	view := aggregate.Build(recs, aggregate.Options{})
	if view.RecordCount != 2 || math.IsInf(view.Total, 0) {
		t.Fatalf("view = %+v", view)
	}
}
