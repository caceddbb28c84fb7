package model

import "time"

// SourceReport describes what one source contributed to a load.
type SourceReport struct {
	Tag             string         `json:"tag"`
	URL             string         `json:"url"`
	ResolvedColumns ColumnRoleMap  `json:"resolvedColumns"`
	RecordCount     int            `json:"recordCount"`
	HeaderRowIndex  int            `json:"headerRowIndex"`
	Delimiter       string         `json:"delimiter,omitempty"`
	Cached          bool           `json:"cached"`
	Duration        time.Duration  `json:"duration"`
	Error           *SourceFailure `json:"error,omitempty"`
}

// RunSummary is the per-run counters kept in the run log.
type RunSummary struct {
	SourcesTotal  int           `json:"sources_total"`
	SourcesFailed int           `json:"sources_failed"`
	Records       int           `json:"records"`
	Deduplicated  int           `json:"deduplicated"`
	Total         float64       `json:"total"`
	Duration      time.Duration `json:"duration"`
}

// RunInfo is a run as the run log knows it.
type RunInfo struct {
	ID        string      `json:"id"`
	View      string      `json:"view,omitempty"`
	Status    string      `json:"status"`
	Error     string      `json:"error,omitempty"`
	Spec      *RunSpec    `json:"spec,omitempty"`
	Summary   *RunSummary `json:"summary,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Terminal reports whether a run status is final.
func Terminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed || status == StatusCancelled
}
