package synchronizer

import (
	"context"
	"errors"
	"fmt"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/mapping"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/upstream"
)

var (
	ErrSyncInProgress    = errors.New("a sync is already running for this source")
	ErrUnknownType       = errors.New("unknown resource type")
	ErrTypeNotConfigured = errors.New("resource type not configured for source")

	// errNaturalKeyConflict marks a create that hit the unique natural key,
	// meaning another writer inserted the row first.
	errNaturalKeyConflict = errors.New("natural key conflict")
)

// The per-resource and per-type error kinds.
type (
	FetchError   = upstream.FetchError
	MappingError = mapping.Error
)

// ReferenceNotFoundError reports a required relation whose target is not in
// the local store. Only the referencing resource is skipped.
type ReferenceNotFoundError struct {
	ResourceType Kind
	ExternalID   string
	Field        string
	Target       Kind
	TargetID     string
}

func (e *ReferenceNotFoundError) Error() string {
	if e.TargetID == "" {
		return fmt.Sprintf("%s/%s: required %s is missing", e.ResourceType, e.ExternalID, e.Field)
	}
	return fmt.Sprintf("%s/%s: %s %s/%s not found", e.ResourceType, e.ExternalID, e.Field, e.Target, e.TargetID)
}

// PersistenceError wraps a store failure. It aborts the current type.
type PersistenceError struct {
	ResourceType Kind
	ExternalID   string
	Op           string
	Err          error
}

func (e *PersistenceError) Error() string {
	if e.ExternalID == "" {
		return fmt.Sprintf("%s: %s: %v", e.ResourceType, e.Op, e.Err)
	}
	return fmt.Sprintf("%s/%s: %s: %v", e.ResourceType, e.ExternalID, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistErr(kind Kind, externalID, op string, err error) error {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{ResourceType: kind, ExternalID: externalID, Op: op, Err: err}
}

// Error kinds reported in summaries.
const (
	ErrKindFetch       = "fetch"
	ErrKindMapping     = "mapping"
	ErrKindReference   = "reference"
	ErrKindPersistence = "persistence"
	ErrKindCancelled   = "cancelled"
	ErrKindInternal    = "internal"
)

// ErrorSummary is the structured form of a type-level failure.
type ErrorSummary struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func summarize(err error) *ErrorSummary {
	if err == nil {
		return nil
	}
	return &ErrorSummary{Kind: errorKind(err), Message: err.Error(), Retryable: retryable(err)}
}

func errorKind(err error) string {
	var (
		fe *FetchError
		me *MappingError
		re *ReferenceNotFoundError
		pe *PersistenceError
	)
	switch {
	case errors.As(err, &fe):
		return ErrKindFetch
	case errors.As(err, &me):
		return ErrKindMapping
	case errors.As(err, &re):
		return ErrKindReference
	case errors.As(err, &pe):
		return ErrKindPersistence
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrKindCancelled
	}
	return ErrKindInternal
}

func retryable(err error) bool {
	switch errorKind(err) {
	case ErrKindFetch:
		return upstream.IsRetryable(err)
	case ErrKindCancelled, ErrKindPersistence:
		return true
	}
	return false
}
