package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"go-sheet-pipeline/internal/aggregate"
	"go-sheet-pipeline/internal/model"
)

// Transform rewrites the merged record set before aggregation.
type Transform func([]model.NormalizedRecord) ([]model.NormalizedRecord, error)

// ParseTransformations reads transformation specs:
//
//	window:N            keep the N months trailing the latest period
//	periods:P1,P2,...   keep only the listed periods
//	drop-placeholder    drop rows with a blank entity
func ParseTransformations(specs []string) ([]Transform, error) {
	out := make([]Transform, 0, len(specs))
	for _, s := range specs {
		name, arg, _ := strings.Cut(strings.TrimSpace(s), ":")
		switch strings.ToLower(name) {
		case "window":
			n, err := strconv.Atoi(strings.TrimSpace(arg))
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("transformation %q: window needs a positive month count", s)
			}
			out = append(out, func(rs []model.NormalizedRecord) ([]model.NormalizedRecord, error) {
				return aggregate.Window(rs, "", n)
			})
		case "periods":
			keep := lo.FilterMap(strings.Split(arg, ","), func(p string, _ int) (string, bool) {
				p = strings.TrimSpace(p)
				return p, p != ""
			})
			if len(keep) == 0 {
				return nil, fmt.Errorf("transformation %q: no periods listed", s)
			}
			for _, p := range keep {
				if !periodPattern.MatchString(p) {
					return nil, fmt.Errorf("transformation %q: bad period %q", s, p)
				}
			}
			set := lo.SliceToMap(keep, func(p string) (string, bool) { return p, true })
			out = append(out, func(rs []model.NormalizedRecord) ([]model.NormalizedRecord, error) {
				return lo.Filter(rs, func(r model.NormalizedRecord, _ int) bool { return set[r.PeriodID] }), nil
			})
		case "drop-placeholder":
			out = append(out, func(rs []model.NormalizedRecord) ([]model.NormalizedRecord, error) {
				return lo.Reject(rs, func(r model.NormalizedRecord, _ int) bool { return r.Entity == model.Placeholder }), nil
			})
		default:
			return nil, fmt.Errorf("unknown transformation %q", s)
		}
	}
	return out, nil
}

// ApplyTransformations runs the transforms in order.
func ApplyTransformations(records []model.NormalizedRecord, ts []Transform) ([]model.NormalizedRecord, error) {
	var err error
	for _, t := range ts {
		if records, err = t(records); err != nil {
			return nil, err
		}
	}
	return records, nil
}
