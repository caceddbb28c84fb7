package model

import "time"

// RetryPolicy defines bounded retry with exponential backoff for source fetches.
type RetryPolicy struct {
	MaxAttempts       int           `json:"max_attempts" yaml:"maxAttempts"`
	InitialDelay      time.Duration `json:"initial_delay" yaml:"initialDelay"`
	MaxDelay          time.Duration `json:"max_delay" yaml:"maxDelay"`
	BackoffMultiplier float64       `json:"backoff_multiplier" yaml:"backoffMultiplier"`
	Jitter            bool          `json:"jitter" yaml:"jitter"`
}

// DefaultRetryPolicy mirrors the ingestion defaults: three attempts, 1s doubling up to 30s.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:       3,
	InitialDelay:      1 * time.Second,
	MaxDelay:          30 * time.Second,
	BackoffMultiplier: 2.0,
	Jitter:            true,
}

// BreakerPolicy configures the per-host circuit breaker.
type BreakerPolicy struct {
	FailureThreshold int           `json:"failure_threshold" yaml:"failureThreshold"`
	ResetTimeout     time.Duration `json:"reset_timeout" yaml:"resetTimeout"`
}

var DefaultBreakerPolicy = BreakerPolicy{
	FailureThreshold: 5,
	ResetTimeout:     1 * time.Minute,
}
