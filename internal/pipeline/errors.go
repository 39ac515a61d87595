package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure so callers can map it without string matching.
type Kind string

const (
	KindInvalidURL  Kind = "invalid_url"
	KindFetchFailed Kind = "fetch_failed"
	KindUnexpected  Kind = "unexpected"
)

// ErrUnexpected wraps panics recovered while running the pipeline.
var ErrUnexpected = errors.New("unexpected pipeline failure")

// Error is returned by Run for every fatal failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind carried by err, or KindUnexpected when err is not a
// pipeline error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnexpected
}
