package dataprovider

import (
	"context"

	"conduit-sync/core/record"
)

// Provider is the part of the contract shared by every endpoint.
type Provider interface {
	// UID identifies the provider instance (e.g. account plus folder).
	// It is one half of every mapping key.
	UID() string

	// Descriptor returns the declared category and types.
	Descriptor() Descriptor

	// Status returns the current pass state.
	Status() Status

	// Refresh prepares the provider for a pass. Failures abort the pass and
	// should be returned as *RefreshError.
	Refresh(ctx context.Context) error

	// Finish releases per-pass resources. It is called exactly once per pass.
	Finish(ctx context.Context, aborted, errored, conflicted bool)
}

// Source is a provider records can be read from.
type Source interface {
	Provider

	// GetAll returns the UIDs of every record currently present.
	GetAll(ctx context.Context) ([]string, error)

	// Get returns the current value of a record, or ErrNotFound.
	Get(ctx context.Context, uid string) (record.DataType, error)
}

// Sink is a provider records can be written to.
type Sink interface {
	Provider

	// Put stores data. When uid names an existing record and overwrite is
	// false, the provider reports a conflict unless data is newer.
	Put(ctx context.Context, data record.DataType, overwrite bool, uid string) PutResult

	// Delete removes a record. A missing record is not an error.
	Delete(ctx context.Context, uid string) error
}

// TwoWay providers are both Source and Sink.
type TwoWay interface {
	Source
	Sink
}

// Changes is a native change log since the previous pass.
type Changes struct {
	Added    []string `json:"added"`
	Modified []string `json:"modified"`
	Deleted  []string `json:"deleted"`
}

// ChangeAware providers track their own changes.
type ChangeAware interface {
	GetChanges(ctx context.Context) (Changes, error)
}

// Configurable providers can report missing settings.
type Configurable interface {
	// Configured returns ErrNotConfigured (possibly wrapped) when settings are missing.
	Configured() error
}
