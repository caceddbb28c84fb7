package model

import "time"

// DateRange bounds records by calendar date, both ends inclusive.
type DateRange struct {
	StartISO string `json:"startISO" yaml:"start"`
	EndISO   string `json:"endISO" yaml:"end"`
}

// IsZero reports whether no bound was given.
func (d *DateRange) IsZero() bool {
	return d == nil || (d.StartISO == "" && d.EndISO == "")
}

// Contains checks an ISO date (YYYY-MM-DD) against the range.
func (d *DateRange) Contains(iso string) bool {
	if d.IsZero() || iso == "" {
		return true
	}
	if d.StartISO != "" && iso < d.StartISO[:min(10, len(d.StartISO))] {
		return false
	}
	if d.EndISO != "" && iso > d.EndISO[:min(10, len(d.EndISO))] {
		return false
	}
	return true
}

// Hints describe how to find the interesting columns in a source export.
// Alias lists are ordered by priority.
type Hints struct {
	EntityAliases    []string `json:"entityAliases,omitempty" yaml:"entity"`
	ValueAliases     []string `json:"valueAliases,omitempty" yaml:"value"`
	DateAliases      []string `json:"dateAliases,omitempty" yaml:"date"`
	QuantityAliases  []string `json:"quantityAliases,omitempty" yaml:"quantity"`
	UnitAliases      []string `json:"unitAliases,omitempty" yaml:"unit"`
	ProcessAliases   []string `json:"processAliases,omitempty" yaml:"process"`
	LotAliases       []string `json:"lotAliases,omitempty" yaml:"lot"`
	GroupAliases     []string `json:"groupAliases,omitempty" yaml:"group"`
	UnitPriceAliases []string `json:"unitPriceAliases,omitempty" yaml:"unitPrice"`
	YearAliases      []string `json:"yearAliases,omitempty" yaml:"year"`
	MonthAliases     []string `json:"monthAliases,omitempty" yaml:"month"`

	// ComponentAliases maps a cost component name (mp, emb, ...) to its aliases.
	// Components are summed when the value column is empty.
	ComponentAliases map[string][]string `json:"componentAliases,omitempty" yaml:"components"`

	ForcedValueColumn []string   `json:"forcedValueColumn,omitempty" yaml:"forcedValue"`
	PreferMonthLabel  string     `json:"preferMonthLabel,omitempty" yaml:"preferMonthLabel"`
	DateRange         *DateRange `json:"dateRange,omitempty" yaml:"dateRange"`

	// Header detection knobs.
	EntityFragments []string `json:"entityFragments,omitempty" yaml:"entityFragments"`
	LooseValue      []string `json:"looseValue,omitempty" yaml:"looseValue"`
	StopColumns     []string `json:"stopColumns,omitempty" yaml:"stopColumns"`
	ProbeLimit      int      `json:"probeLimit,omitempty" yaml:"probeLimit"`
	Sheet           string   `json:"sheet,omitempty" yaml:"sheet"`

	Fuzzy bool `json:"fuzzy,omitempty" yaml:"fuzzy"`
}

// Source is one fetchable export tagged with the period it stands for.
type Source struct {
	Tag      string `json:"tag" yaml:"tag"`
	URL      string `json:"url" yaml:"url"`
	PeriodID string `json:"periodId,omitempty" yaml:"period"`
	Hints    Hints  `json:"hints" yaml:"hints"`
}

// Period is one entry of a PeriodCalendar.
type Period struct {
	Key        string    `json:"key"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	SourceURLs []string  `json:"sourceUrls"`
}

// PeriodCalendar enumerates the periods of a view keyed by period key ("2025-08", "03-09").
type PeriodCalendar map[string]Period
