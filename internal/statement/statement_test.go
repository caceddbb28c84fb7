package statement

import (
	"errors"
	"math"
	"testing"

	"go-sheet-pipeline/internal/aggregate"
	"go-sheet-pipeline/internal/model"
)

func sample() [][]string {
	return [][]string{
		{"", "DRE 2025", "", "", "", ""},
		{"", "", "JAN", "", "FEV", "", "MAR", "", "TOTAL"},
		{"", "Conta", "Previsto", "Realizado", "Orçado", "Executado", "", "", ""},
		{"1", "Receita Líquida", "1.000,00", "1.100,00", "900", "950", "10", "20"},
		{"2", "Salários", "(300)", "(320,50)", "(300)", "(310)", "1", "2"},
		{"3", "", "99", "99"},
		{"4", "EBITDA", "200", "180", "150", "170", "5", "6"},
		{"5", "Despesas Adm (15%)", "-50", "-60", "-50", "-55", "0", "0"},
	}
}

func TestParseMonthColumns(t *testing.T) {
	st, err := Parse(sample(), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(st.Months) != 3 || st.Months[0] != "jan" || st.Months[2] != "mar" {
		t.Fatalf("months = %v", st.Months)
	}
	want := []MonthColumns{{"jan", 2, 3}, {"fev", 4, 5}, {"mar", 7, 8}}
	for i, mc := range st.Columns {
		if mc != want[i] {
			t.Fatalf("columns[%d] = %+v, want %+v", i, mc, want[i])
		}
	}
	if len(st.Lines) != 4 {
		t.Fatalf("blank-titled rows should be skipped, got %d lines", len(st.Lines))
	}
}

func TestValueAt(t *testing.T) {
	st, _ := Parse(sample(), Options{})
	cases := []struct {
		alias, month string
		kind         Kind
		want         float64
	}{
		{"receita_liquida", "jan", Actual, 1100},
		{"receita_liquida", "JAN", Planned, 1000},
		{"ebitda", "fev", Actual, 170},
		{"salarios", "jan", Actual, -320.5},
		{"lucro_liquido", "jan", Actual, 0},
		{"ebitda", "dez", Actual, 0},
	}
	for _, c := range cases {
		if got := st.ValueAt(c.alias, c.month, c.kind); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("ValueAt(%s,%s,%s) = %v, want %v", c.alias, c.month, c.kind, got, c.want)
		}
	}
	ser := st.Series("ebitda")
	if len(ser) != 3 || ser[0].Variance != -20 {
		t.Fatalf("series = %+v", ser)
	}
}

func TestParseWithoutMonthHeader(t *testing.T) {
	_, err := Parse([][]string{{"a", "b"}, {"jan", "x"}}, Options{})
	if !errors.Is(err, ErrNoMonthHeader) {
		t.Fatalf("expected ErrNoMonthHeader, got %v", err)
	}
}

func TestRankFromStatement(t *testing.T) {
	st, _ := Parse(sample(), Options{})
	det := st.Rank("jan", aggregate.RankOptions{Mode: aggregate.RankDetailed})
	if len(det) != 1 || det[0].Name != "Salários" {
		t.Fatalf("detailed = %+v", det)
	}
	agg := st.Rank("jan", aggregate.RankOptions{Mode: aggregate.RankAggregated})
	if len(agg) != 3 || agg[0].Name != "Salários" {
		t.Fatalf("aggregated = %+v", agg)
	}
}

func TestCompare(t *testing.T) {
	cash, _ := Parse(sample(), Options{})
	accrual := sample()
	accrual[3][3] = "1.000,00"
	comp, _ := Parse(accrual, Options{})

	got := cash.Compare(comp, "jan")
	if got[0].Key != "Receita Líquida" || got[0].Delta != 100 || got[0].Direction != model.DirectionUp {
		t.Fatalf("receita = %+v", got[0])
	}
	if got[1].Direction != model.DirectionFlat {
		t.Fatalf("salarios = %+v", got[1])
	}
}

func TestFindAndLineItems(t *testing.T) {
	st, _ := Parse(sample(), Options{})
	if ln, ok := st.Find("ebitda"); !ok || ln.Name != "EBITDA" {
		t.Fatalf("Find(ebitda) = %+v, %v", ln, ok)
	}
	if _, ok := st.Find("lucro_liquido"); ok {
		t.Fatal("absent line should not be found")
	}

	items := st.LineItems("JAN")
	if len(items) != 4 || items[1].Name != "Salários" {
		t.Fatalf("items = %+v", items)
	}
	if math.Abs(items[1].Actual+320.5) > 1e-9 || math.Abs(items[1].Planned+300) > 1e-9 {
		t.Fatalf("salarios = %+v", items[1])
	}
}
