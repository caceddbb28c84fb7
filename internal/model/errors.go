package model

import (
	"errors"
	"fmt"
)

var (
	ErrFetch          = errors.New("fetch failed")
	ErrHeaderNotFound = errors.New("header not found")
	ErrDecode         = errors.New("blob could not be decoded")
	ErrStaleRequest   = errors.New("request superseded by a newer generation")
)

// ErrorKind tags a per-source hard failure.
type ErrorKind string

const (
	KindFetch          ErrorKind = "FetchError"
	KindHeaderNotFound ErrorKind = "HeaderNotFoundError"
	KindDecode         ErrorKind = "DecodeError"
)

// IngestError is the tagged result of a failed (or degraded) ingestion.
type IngestError struct {
	Kind ErrorKind
	Tag  string
	URL  string
	Err  error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("%s [%s] %s: %v", e.Kind, e.Tag, e.URL, e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }

// Fatal reports whether the source contributed nothing.
// A missing header degrades the parse but still yields rows.
func (e *IngestError) Fatal() bool {
	return e != nil && e.Kind != KindHeaderNotFound
}

// SourceFailure is the serialisable form kept in partial-failure reports.
type SourceFailure struct {
	Tag     string    `json:"tag"`
	URL     string    `json:"url"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Failure converts the error for reporting.
func (e *IngestError) Failure() SourceFailure {
	return SourceFailure{Tag: e.Tag, URL: e.URL, Kind: e.Kind, Message: e.Err.Error()}
}
