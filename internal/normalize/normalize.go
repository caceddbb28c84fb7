// Package normalize turns materialized rows into typed records.
package normalize

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"go-sheet-pipeline/internal/coerce"
	"go-sheet-pipeline/internal/model"
)

// TotalRow matches entity cells of aggregate rows (Total, Subtotal, Soma...).
var TotalRow = regexp.MustCompile(`^(total|subtotal|soma)\b`)

// Options carry per-source context into normalization.
type Options struct {
	SourceTag string
	// PeriodID is the period the source itself stands for (its tab or URL).
	PeriodID string
	// AllowedPeriods are the periods of the whole request. A date-derived
	// period outside this set gives way to PeriodID.
	AllowedPeriods map[string]bool
	DateRange      *model.DateRange
	LotYears       coerce.YearRange
}

// Normalize coerces each row of t through the resolved columns. Rows are kept
// in source order. Skipped: total rows, rows whose value cell is a percentage,
// rows with neither value nor quantity, and dated rows outside the range.
func Normalize(t model.RawTable, roles model.ColumnRoleMap, opts Options) []model.NormalizedRecord {
	if opts.LotYears == (coerce.YearRange{}) {
		opts.LotYears = coerce.DefaultLotYears
	}
	comps := roles.Components()
	get := func(row map[string]string, r model.Role) string {
		if col, ok := roles.Get(r); ok {
			return coerce.Clean(row[col])
		}
		return ""
	}

	out := make([]model.NormalizedRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		entity := get(row, model.RoleEntity)
		if entity == "" {
			entity = model.Placeholder
		}
		if TotalRow.MatchString(coerce.Lower(entity)) {
			continue
		}

		value := 0.0
		if raw := get(row, model.RoleValue); raw != "" {
			v, err := coerce.ParseNumberStrict(raw)
			if errors.Is(err, coerce.ErrPercent) {
				continue
			}
			value = v
		}

		var parts map[string]float64
		if len(comps) > 0 {
			parts = map[string]float64{}
			sum := decimal.Zero
			for name, col := range comps {
				if c := coerce.ParseNumber(row[col]); c != 0 {
					parts[name] = c
					sum = sum.Add(decimal.NewFromFloat(c))
				}
			}
			if value == 0 {
				value, _ = sum.Float64()
				value = finite(value)
			}
			if len(parts) == 0 {
				parts = nil
			}
		}

		qty := coerce.ParseNumber(get(row, model.RoleQuantity))
		if qty == 0 && value != 0 {
			if up := coerce.ParseNumber(get(row, model.RoleUnitPrice)); up != 0 {
				qty = finite(value / up)
			}
		}
		if value == 0 && qty == 0 {
			continue
		}

		iso := recordDate(row, roles, opts.LotYears)
		if iso != "" && !opts.DateRange.Contains(iso) {
			continue
		}
		period := coerce.PeriodID(iso)
		if opts.PeriodID != "" && (period == "" || (len(opts.AllowedPeriods) > 0 && !opts.AllowedPeriods[period])) {
			period = opts.PeriodID
		}

		out = append(out, model.NormalizedRecord{
			Entity:     entity,
			Value:      value,
			Quantity:   qty,
			DateISO:    iso,
			PeriodID:   period,
			SourceTag:  opts.SourceTag,
			Unit:       get(row, model.RoleUnit),
			Process:    get(row, model.RoleProcess),
			Lot:        get(row, model.RoleLot),
			Group:      get(row, model.RoleGroup),
			Components: parts,
		})
	}
	return out
}

// recordDate tries the date column, then explicit year and month columns,
// then the lot code.
func recordDate(row map[string]string, roles model.ColumnRoleMap, years coerce.YearRange) string {
	if col, ok := roles.Get(model.RoleDate); ok {
		if iso := coerce.ParseDateISO(row[col]); iso != "" {
			return iso
		}
	}
	ycol, yok := roles.Get(model.RoleYear)
	mcol, mok := roles.Get(model.RoleMonth)
	if yok && mok {
		y, err := strconv.Atoi(coerce.Clean(row[ycol]))
		m, ok := monthOf(row[mcol])
		if err == nil && ok && y > 1900 {
			return fmt.Sprintf("%04d-%02d-01", y, m)
		}
	}
	if col, ok := roles.Get(model.RoleLot); ok {
		if t, ok := coerce.LotDate(row[col], years); ok {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

func monthOf(raw string) (int, bool) {
	s := strings.TrimSpace(coerce.Clean(raw))
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= 12 {
		return n, true
	}
	return coerce.MonthNumber(s)
}

// finite maps overflowed results to 0 so every record stays summable.
func finite(f float64) float64 {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return f
}
