package model

// Export defines export targets for a run.
type Export struct {
	Formats []string `json:"formats"` // "json", "csv", "xlsx"
	Dir     string   `json:"dir,omitempty"`
}

// RunSpec is the body of POST /api/v1/runs and the unit the runner executes.
// Either View names a configured view or Sources lists the exports inline.
type RunSpec struct {
	View            string            `json:"view,omitempty"`
	Sources         []Source          `json:"sources,omitempty"`
	Transformations []string          `json:"transformations,omitempty"` // "window:6", "periods:2025-08", "drop-placeholder"
	TopN            int               `json:"topN,omitempty"`
	Dedup           bool              `json:"dedup,omitempty"`
	DateRange       *DateRange        `json:"dateRange,omitempty"`
	Export          *Export           `json:"export,omitempty"`
	Concurrency     ConcurrencyConfig `json:"concurrency"`
}

// Run statuses, in the order a healthy run moves through them.
const (
	StatusPending     = "pending"
	StatusIngesting   = "ingesting"
	StatusAggregating = "aggregating"
	StatusExporting   = "exporting"
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
	StatusCancelled   = "cancelled"
)
