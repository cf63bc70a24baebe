package dataprovider

import (
	"errors"
	"fmt"

	"conduit-sync/core/record"
)

var (
	// ErrNotImplemented is returned by operations a provider does not support.
	ErrNotImplemented = errors.New("not implemented")

	// ErrNotConfigured means the provider lacks required settings.
	// Such providers are excluded from a pass; it is not a failure.
	ErrNotConfigured = errors.New("dataprovider not configured")

	// ErrNotFound is returned by Get when the record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidTransition is returned when a status change would break the pass state machine.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// RefreshError aborts the pass for the provider that failed to refresh.
type RefreshError struct {
	Provider string
	Err      error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("refresh %s: %v", e.Provider, e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }

// NewRefreshError wraps err as a RefreshError.
func NewRefreshError(provider string, err error) error {
	return &RefreshError{Provider: provider, Err: err}
}

// SynchronizeError is a recoverable failure affecting a single item.
type SynchronizeError struct {
	UID string
	Err error
}

func (e *SynchronizeError) Error() string {
	return fmt.Sprintf("synchronize %s: %v", e.UID, e.Err)
}

func (e *SynchronizeError) Unwrap() error { return e.Err }

// NewSynchronizeError wraps err as a per-item SynchronizeError.
func NewSynchronizeError(uid string, err error) error {
	return &SynchronizeError{UID: uid, Err: err}
}

// FatalError aborts the whole pass.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal synchronize error: %v", e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// NewFatalError wraps err as a FatalError.
func NewFatalError(err error) error {
	return &FatalError{Err: err}
}

// ConflictError carries a conflict found while storing a record.
type ConflictError struct {
	Conflict Conflict
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s: candidate is %s", e.Conflict.Existing.UID(), e.Conflict.Comparison)
}

// Conflict describes a candidate that could not be stored over an existing record.
type Conflict struct {
	Comparison record.Comparison
	Candidate  record.DataType
	Existing   record.DataType
}

// IsFatal reports whether err must abort the pass.
func IsFatal(err error) bool {
	var fatal *FatalError
	var refresh *RefreshError
	return errors.As(err, &fatal) || errors.As(err, &refresh)
}
