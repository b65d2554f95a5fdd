package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStoreNotFound is returned when the trusted store does not exist.
	ErrStoreNotFound = errors.New("trusted store not found")

	// ErrEmptyLibrary is returned when retrieval runs against zero cases.
	ErrEmptyLibrary = errors.New("case library is empty")

	// ErrSingularCovariance marks a rank-deficient feature covariance. It is
	// reported as a warning; the pseudo-inverse is used in its place.
	ErrSingularCovariance = errors.New("feature covariance is singular")

	// ErrUnknownHandle is returned when a pending handle is not in the session.
	ErrUnknownHandle = errors.New("unknown pending inference")

	// ErrUnknownMetric is returned for a metric name outside the catalog.
	ErrUnknownMetric = errors.New("unknown metric")
)

// SchemaError reports a malformed or too-narrow trusted store schema.
type SchemaError struct {
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return "schema error: " + e.Reason
	}
	return fmt.Sprintf("schema error in %s: %s", e.Path, e.Reason)
}

// StoreFormatError reports an unparsable row in a case store.
type StoreFormatError struct {
	Path   string
	Line   int
	Reason string
}

func (e *StoreFormatError) Error() string {
	return fmt.Sprintf("store format error in %s line %d: %s", e.Path, e.Line, e.Reason)
}

// UnknownSymptomError lists reported symptoms outside the vocabulary.
type UnknownSymptomError struct {
	Names []string
}

func (e *UnknownSymptomError) Error() string {
	return "unknown symptoms: " + strings.Join(e.Names, ", ")
}

// IsStartupError reports whether err stems from loading the trusted store.
// Such errors are fatal for the process; all others are per-inference.
func IsStartupError(err error) bool {
	if err == nil {
		return false
	}
	var schemaErr *SchemaError
	var formatErr *StoreFormatError
	return errors.Is(err, ErrStoreNotFound) || errors.As(err, &schemaErr) || errors.As(err, &formatErr)
}
