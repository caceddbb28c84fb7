// Package aggregate builds read-only views over normalized records. Every
// function here is pure: the same records always yield the same view.
package aggregate

import (
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"go-sheet-pipeline/internal/model"
)

// DefaultTopN is the TopN size when Options.TopN is zero.
const DefaultTopN = 10

type Options struct {
	TopN int
}

// bucket accumulates one group with exact decimal sums.
type bucket struct {
	key   string
	value decimal.Decimal
	qty   decimal.Decimal
	count int
	// unit ratios of records that carry a quantity
	ratios []float64
}

func (b *bucket) add(r model.NormalizedRecord) {
	b.value = b.value.Add(decimal.NewFromFloat(r.Value))
	b.qty = b.qty.Add(decimal.NewFromFloat(r.Quantity))
	b.count++
	if r.Quantity != 0 {
		b.ratios = append(b.ratios, r.UnitValue())
	}
}

func (b *bucket) entityValue() model.EntityValue {
	v, _ := b.value.Float64()
	q, _ := b.qty.Float64()
	return model.EntityValue{Entity: b.key, Value: v, Quantity: q, Count: b.count}
}

// grouper keeps buckets in order of first appearance.
type grouper struct {
	order []*bucket
	index map[string]*bucket
}

func newGrouper() *grouper { return &grouper{index: map[string]*bucket{}} }

func (g *grouper) add(key string, r model.NormalizedRecord) {
	b, ok := g.index[key]
	if !ok {
		b = &bucket{key: key}
		g.index[key] = b
		g.order = append(g.order, b)
	}
	b.add(r)
}

func (g *grouper) values() []model.EntityValue {
	return lo.Map(g.order, func(b *bucket, _ int) model.EntityValue { return b.entityValue() })
}

// descending sorts by value, high first; ties keep first-appearance order.
func descending(vs []model.EntityValue) []model.EntityValue {
	sort.SliceStable(vs, func(i, j int) bool { return vs[i].Value > vs[j].Value })
	return vs
}

// Build computes the full view. ByEntity and ByGroup are sorted descending by
// value, ByPeriod and each per-entity series ascending by period, BySource in
// order of first appearance.
func Build(records []model.NormalizedRecord, opts Options) model.AggregateView {
	n := opts.TopN
	if n <= 0 {
		n = DefaultTopN
	}

	total, qty := decimal.Zero, decimal.Zero
	entities, groups, sources := newGrouper(), newGrouper(), newGrouper()
	periods := newGrouper()
	series := map[string]*grouper{}

	for _, r := range records {
		total = total.Add(decimal.NewFromFloat(r.Value))
		qty = qty.Add(decimal.NewFromFloat(r.Quantity))
		entities.add(r.Entity, r)
		if r.Group != "" {
			groups.add(r.Group, r)
		}
		if r.SourceTag != "" {
			sources.add(r.SourceTag, r)
		}
		if r.PeriodID == "" {
			continue
		}
		periods.add(r.PeriodID, r)
		s, ok := series[r.Entity]
		if !ok {
			s = newGrouper()
			series[r.Entity] = s
		}
		s.add(r.PeriodID, r)
	}

	view := model.AggregateView{
		RecordCount:       len(records),
		ByEntity:          descending(entities.values()),
		ByPeriod:          periodSeries(periods),
		ByEntityByPeriod:  make(map[string][]model.PeriodValue, len(series)),
		WeightedUnitValue: WeightedUnitValue(records),
		SimpleUnitValue:   SimpleUnitValue(records),
	}
	view.Total, _ = total.Float64()
	view.TotalQuantity, _ = qty.Float64()
	view.TopN = lo.Slice(view.ByEntity, 0, n)
	if len(groups.order) > 0 {
		view.ByGroup = descending(groups.values())
	}
	if len(sources.order) > 0 {
		view.BySource = sources.values()
	}
	for e, s := range series {
		view.ByEntityByPeriod[e] = periodSeries(s)
	}
	view.Periods = lo.Map(view.ByPeriod, func(p model.PeriodValue, _ int) string { return p.PeriodID })

	byKey := entities.index
	view.UnitValues = lo.Map(view.ByEntity, func(ev model.EntityValue, _ int) model.UnitValue {
		return unitValue(byKey[ev.Entity])
	})
	return view
}

func periodSeries(g *grouper) []model.PeriodValue {
	out := lo.Map(g.values(), func(ev model.EntityValue, _ int) model.PeriodValue {
		return model.PeriodValue{PeriodID: ev.Entity, Value: ev.Value, Quantity: ev.Quantity}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].PeriodID < out[j].PeriodID })
	return out
}

// Periods lists the distinct periods of records, ascending.
func Periods(records []model.NormalizedRecord) []string {
	ps := lo.Uniq(lo.FilterMap(records, func(r model.NormalizedRecord, _ int) (string, bool) {
		return r.PeriodID, r.PeriodID != ""
	}))
	sort.Strings(ps)
	return ps
}
