package aggregate

import (
	"github.com/shopspring/decimal"

	"go-sheet-pipeline/internal/model"
)

// WeightedUnitValue is sum(value)/sum(quantity): the true average given
// volume. It is 0 when the records carry no quantity.
func WeightedUnitValue(records []model.NormalizedRecord) float64 {
	b := &bucket{}
	for _, r := range records {
		b.add(r)
	}
	return weighted(b)
}

// SimpleUnitValue is the plain mean of each record's own value/quantity ratio,
// blind to batch size. Records without quantity have no ratio and are left out.
func SimpleUnitValue(records []model.NormalizedRecord) float64 {
	b := &bucket{}
	for _, r := range records {
		b.add(r)
	}
	return simple(b)
}

func weighted(b *bucket) float64 {
	if b.qty.IsZero() {
		return 0
	}
	v, _ := b.value.Div(b.qty).Float64()
	return v
}

func simple(b *bucket) float64 {
	if len(b.ratios) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, r := range b.ratios {
		sum = sum.Add(decimal.NewFromFloat(r))
	}
	v, _ := sum.Div(decimal.NewFromInt(int64(len(b.ratios)))).Float64()
	return v
}

func unitValue(b *bucket) model.UnitValue {
	ev := b.entityValue()
	return model.UnitValue{
		Entity:   b.key,
		Weighted: weighted(b),
		Simple:   simple(b),
		Value:    ev.Value,
		Quantity: ev.Quantity,
	}
}
