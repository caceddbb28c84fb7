package coerce

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestParseNumberLocaleShapes(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"1.234,56", 1234.56},
		{"1,234.56", 1234.56},
		{"1234,56", 1234.56},
		{"1234.56", 1234.56},
		{"1.234", 1234},
		{"1,234", 1234},
		{"(500)", -500},
		{"-500", -500},
		{"R$ 1.234,56", 1234.56},
		{" 12\u00A0345,6 ", 12345.6},
		{"1.234.567", 1234567},
		{"1.2345", 1.2345},
		{"0,123", 0.123},
		{",5", 0.5},
		{"R$ (2.000,00)", -2000},
		{"abc", 0},
		{"", 0},
		{"-", 0},
	}
	for _, tc := range cases {
		got := ParseNumber(tc.in)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("ParseNumber(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseNumberStrictSentinels(t *testing.T) {
	if _, err := ParseNumberStrict("12,5%"); !errors.Is(err, ErrPercent) {
		t.Fatalf("percent cell: got %v, want ErrPercent", err)
	}
	if _, err := ParseNumberStrict("   "); !errors.Is(err, ErrEmpty) {
		t.Fatalf("blank cell: got %v, want ErrEmpty", err)
	}
	if _, err := ParseNumberStrict("n/a"); !errors.Is(err, ErrNotNumeric) {
		t.Fatalf("text cell: got %v, want ErrNotNumeric", err)
	}
	v, err := ParseNumberStrict("0")
	if err != nil || v != 0 {
		t.Fatalf("true zero: got %v, %v", v, err)
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2025-08-03", "2025-08-03"},
		{"2025-08-03T14:00:00Z", "2025-08-03"},
		{"03/08/2025", "2025-08-03"},
		{"13/08/2025", "2025-08-13"},
		{"08/13/2025", "2025-08-13"},
		{"03/08/25", "2025-08-03"},
		{"2025/08/03", "2025-08-03"},
		{"03-ago-2025", "2025-08-03"},
		{"3 de agosto de 2025", "2025-08-03"},
		{"Aug 3, 2025", "2025-08-03"},
		{"Ago/2025", "2025-08-01"},
		{"45872", "2025-08-03"},
		{"03082025LOTE1", "2025-08-03"},
		{"040825", "2025-08-04"},
		{"31/02/2025", ""},
		{"produto", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := ParseDateISO(tc.in); got != tc.want {
			t.Errorf("ParseDateISO(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLotDateYearBounds(t *testing.T) {
	if _, ok := LotDate("03082019", DefaultLotYears); ok {
		t.Fatalf("expected 2019 lot to be rejected")
	}
	if _, ok := LotDate("0308202", DefaultLotYears); ok {
		t.Fatalf("expected 7-digit lot to be rejected")
	}
	d, ok := LotDate("L-150126-A", DefaultLotYears)
	if !ok || d.Format("2006-01-02") != "2026-01-15" {
		t.Fatalf("got %v %v", d, ok)
	}
	if d.Location().String() != "UTC" {
		t.Fatalf("expected UTC, got %s", d.Location())
	}
}

func TestPeriodAndMonthLabels(t *testing.T) {
	if got := PeriodID("2025-08-03"); got != "2025-08" {
		t.Fatalf("PeriodID = %q", got)
	}
	if got := MonthLabel("2025-08"); got != "Ago/2025" {
		t.Fatalf("MonthLabel = %q", got)
	}
	if !IsMonthLabel("Set/2025") || IsMonthLabel("% Total") {
		t.Fatalf("IsMonthLabel misclassified")
	}
	if m, ok := MonthNumber("Março"); !ok || m != 3 {
		t.Fatalf("MonthNumber(Março) = %d %v", m, ok)
	}
}

func TestFoldAndLower(t *testing.T) {
	if got := Fold(" \"Descrição do Produto\" "); got != "descricaodoproduto" {
		t.Fatalf("Fold = %q", got)
	}
	if got := Lower("Dt. Ent/Sai   Número"); got != "dt. ent/sai numero" {
		t.Fatalf("Lower = %q", got)
	}
	if !IsBlank("\uFEFF\u00A0 ") {
		t.Fatalf("expected invisible-only cell to be blank")
	}
}

func TestParseDateSwapsImpossibleDay(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"13/03/2025", "2025-03-13"},
		{"03/13/2025", "2025-03-13"},
		{"45000", "2023-03-15"},
	}
	for _, tc := range cases {
		d, ok := ParseDate(tc.in)
		if !ok || d.Format("2006-01-02") != tc.want {
			t.Errorf("ParseDate(%q) = %v, %v; want %s", tc.in, d, ok, tc.want)
		}
	}
	if _, ok := ParseDate("   "); ok {
		t.Fatal("blank input parsed")
	}
}

func TestExcelSerialDropsTime(t *testing.T) {
	if got := ExcelSerial(45000.75).Format("2006-01-02"); got != "2023-03-15" {
		t.Fatalf("ExcelSerial = %s", got)
	}
}

func TestCleanAndPercent(t *testing.T) {
	if got := Clean("\u00A0\"Produto A\"\uFEFF "); got != "Produto A" {
		t.Fatalf("Clean = %q", got)
	}
	if !IsPercent("12,5%") || IsPercent("12,5") {
		t.Fatal("IsPercent misread")
	}
}

func TestParseNumberRejectsOverflow(t *testing.T) {
	huge := strings.Repeat("9", 400)
	if _, err := ParseNumberStrict(huge); !errors.Is(err, ErrNotNumeric) {
		t.Fatalf("overflowing cell: got %v, want ErrNotNumeric", err)
	}
	if got := ParseNumber("-" + huge); got != 0 {
		t.Fatalf("ParseNumber(-huge) = %v, want 0", got)
	}
}
