package model

// ConcurrencyConfig bounds a run.
type ConcurrencyConfig struct {
	FetchWorkers int    `json:"fetchWorkers"` // concurrent source fetches
	JobTimeout   string `json:"jobTimeout"`   // e.g. "5m"
}
