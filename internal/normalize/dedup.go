package normalize

import (
	"strings"

	"go-sheet-pipeline/internal/model"
)

// Key is the identity of a physical row across overlapping exports.
func Key(r model.NormalizedRecord) string {
	return strings.Join([]string{r.Entity, r.Unit, r.Process, r.Lot, r.PeriodID}, "|")
}

// Dedup keeps the first record of each key, preserving order, and reports how
// many were dropped.
func Dedup(records []model.NormalizedRecord) ([]model.NormalizedRecord, int) {
	seen := make(map[string]struct{}, len(records))
	out := make([]model.NormalizedRecord, 0, len(records))
	for _, r := range records {
		k := Key(r)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out, len(records) - len(out)
}
