package aggregate

import (
	"math"

	"go-sheet-pipeline/internal/model"
)

// flatEpsilon is the largest |delta| still reported as flat.
const flatEpsilon = 1e-9

// Point is one keyed value fed to Variance: a period or an entity.
type Point struct {
	Key   string
	Value float64
}

// PeriodPoints adapts a period series for Variance.
func PeriodPoints(series []model.PeriodValue) []Point {
	out := make([]Point, len(series))
	for i, p := range series {
		out[i] = Point{Key: p.PeriodID, Value: p.Value}
	}
	return out
}

// EntityPoints adapts an entity rollup for Variance.
func EntityPoints(values []model.EntityValue) []Point {
	out := make([]Point, len(values))
	for i, v := range values {
		out[i] = Point{Key: v.Entity, Value: v.Value}
	}
	return out
}

// Variance compares every point with a reference scalar. DeltaPct is 0 for a
// zero baseline; Direction follows the sign of the delta, never the percentage.
func Variance(points []Point, baseline float64) []model.VarianceEntry {
	out := make([]model.VarianceEntry, len(points))
	for i, p := range points {
		d := p.Value - baseline
		e := model.VarianceEntry{Key: p.Key, Value: p.Value, Baseline: baseline, Delta: d}
		if baseline != 0 {
			e.DeltaPct = d / baseline * 100
		}
		e.Direction = direction(d)
		out[i] = e
	}
	return out
}

func direction(d float64) model.Direction {
	switch {
	case math.Abs(d) <= flatEpsilon:
		return model.DirectionFlat
	case d > 0:
		return model.DirectionUp
	default:
		return model.DirectionDown
	}
}

// BestWorst finds the lowest and highest period of each entity series. Series
// are expected in ascending period order; ties go to the earlier period.
func BestWorst(byEntityByPeriod map[string][]model.PeriodValue) map[string]model.PeriodExtremes {
	out := make(map[string]model.PeriodExtremes, len(byEntityByPeriod))
	for e, series := range byEntityByPeriod {
		if len(series) == 0 {
			continue
		}
		x := model.PeriodExtremes{Lowest: series[0], Highest: series[0]}
		for _, p := range series[1:] {
			if p.Value < x.Lowest.Value {
				x.Lowest = p
			}
			if p.Value > x.Highest.Value {
				x.Highest = p
			}
		}
		out[e] = x
	}
	return out
}
