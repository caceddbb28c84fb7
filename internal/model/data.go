package model

import "time"

// EntityValue is one row of a grouped rollup.
type EntityValue struct {
	Entity   string  `json:"entity"`
	Value    float64 `json:"value"`
	Quantity float64 `json:"quantity"`
	Count    int     `json:"count"`
}

// PeriodValue is one point of a period series.
type PeriodValue struct {
	PeriodID string  `json:"periodId"`
	Value    float64 `json:"value"`
	Quantity float64 `json:"quantity"`
}

// UnitValue holds both unit value flavours for one entity. Weighted is
// sum(value)/sum(quantity); Simple is the mean of each record's own ratio.
type UnitValue struct {
	Entity   string  `json:"entity"`
	Weighted float64 `json:"weighted"`
	Simple   float64 `json:"simple"`
	Value    float64 `json:"value"`
	Quantity float64 `json:"quantity"`
}

// Direction of a variance.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// VarianceEntry compares a value with a baseline.
type VarianceEntry struct {
	Key       string    `json:"key"`
	Value     float64   `json:"value"`
	Baseline  float64   `json:"baseline"`
	Delta     float64   `json:"delta"`
	DeltaPct  float64   `json:"deltaPct"`
	Direction Direction `json:"direction"`
}

// PeriodExtremes are the lowest and highest points of an entity series.
type PeriodExtremes struct {
	Lowest  PeriodValue `json:"lowest"`
	Highest PeriodValue `json:"highest"`
}

// AggregateView is the read-only snapshot handed to consumers.
type AggregateView struct {
	Total             float64                  `json:"total"`
	TotalQuantity     float64                  `json:"totalQuantity"`
	RecordCount       int                      `json:"recordCount"`
	ByEntity          []EntityValue            `json:"byEntity"`
	TopN              []EntityValue            `json:"topN"`
	ByPeriod          []PeriodValue            `json:"byPeriod"`
	ByEntityByPeriod  map[string][]PeriodValue `json:"byEntityByPeriod"`
	ByGroup           []EntityValue            `json:"byGroup,omitempty"`
	BySource          []EntityValue            `json:"bySource,omitempty"`
	UnitValues        []UnitValue              `json:"unitValues"`
	WeightedUnitValue float64                  `json:"weightedUnitValue"`
	SimpleUnitValue   float64                  `json:"simpleUnitValue"`
	Periods           []string                 `json:"periods"`
}

// ExportResult reports one export operation.
type ExportResult struct {
	Type        string    `json:"type"` // "json", "csv", "xlsx"
	Path        string    `json:"path"`
	RecordCount int       `json:"record_count"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// LineItem is one statement line read for a single month.
type LineItem struct {
	Name    string  `json:"name"`
	Planned float64 `json:"planned"`
	Actual  float64 `json:"actual"`
}

// RankedItem is a LineItem placed in an expense ranking.
type RankedItem struct {
	LineItem
	Magnitude float64 `json:"magnitude"`
	Detail    bool    `json:"detail"`
}
