package aggregate

import (
	"fmt"
	"time"

	"github.com/samber/lo"

	"go-sheet-pipeline/internal/model"
)

// Window keeps the records of the months trailing endPeriod, inclusive:
// Window(rs, "2025-08", 6) keeps 2025-03 through 2025-08. Undated records
// are dropped. An empty endPeriod anchors on the latest period present.
func Window(records []model.NormalizedRecord, endPeriod string, months int) ([]model.NormalizedRecord, error) {
	if months <= 0 {
		return nil, fmt.Errorf("window: months must be positive, got %d", months)
	}
	if endPeriod == "" {
		ps := Periods(records)
		if len(ps) == 0 {
			return nil, nil
		}
		endPeriod = ps[len(ps)-1]
	}
	end, err := time.Parse("2006-01", endPeriod)
	if err != nil {
		return nil, fmt.Errorf("window: bad period %q: %w", endPeriod, err)
	}
	start := end.AddDate(0, -(months - 1), 0).Format("2006-01")
	return lo.Filter(records, func(r model.NormalizedRecord, _ int) bool {
		return r.PeriodID != "" && r.PeriodID >= start && r.PeriodID <= endPeriod
	}), nil
}

// MonthsBetween lists every period from start to end inclusive.
func MonthsBetween(start, end string) ([]string, error) {
	s, err := time.Parse("2006-01", start)
	if err != nil {
		return nil, fmt.Errorf("bad period %q: %w", start, err)
	}
	e, err := time.Parse("2006-01", end)
	if err != nil {
		return nil, fmt.Errorf("bad period %q: %w", end, err)
	}
	var out []string
	for t := s; !t.After(e); t = t.AddDate(0, 1, 0) {
		out = append(out, t.Format("2006-01"))
	}
	return out, nil
}
