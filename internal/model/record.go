package model

// Placeholder stands in for a blank entity cell.
const Placeholder = "—"

// NormalizedRecord is one typed row. Value and Quantity are always finite.
// DateISO and PeriodID are empty when the row carries no date.
type NormalizedRecord struct {
	Entity     string             `json:"entity" csv:"entity"`
	Value      float64            `json:"value" csv:"value"`
	Quantity   float64            `json:"quantity" csv:"quantity"`
	DateISO    string             `json:"dateISO,omitempty" csv:"date"`
	PeriodID   string             `json:"periodId,omitempty" csv:"period"`
	SourceTag  string             `json:"sourceTag" csv:"source"`
	Unit       string             `json:"unit,omitempty" csv:"unit"`
	Process    string             `json:"process,omitempty" csv:"process"`
	Lot        string             `json:"lot,omitempty" csv:"lot"`
	Group      string             `json:"group,omitempty" csv:"group"`
	Components map[string]float64 `json:"components,omitempty" csv:"-"`
}

// UnitValue is the record's own value per unit, 0 without quantity.
func (r NormalizedRecord) UnitValue() float64 {
	if r.Quantity == 0 {
		return 0
	}
	return r.Value / r.Quantity
}
