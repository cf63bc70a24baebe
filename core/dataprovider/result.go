package dataprovider

import "conduit-sync/core/record"

// PutKind is the outcome class of a Put.
type PutKind int

const (
	PutOK PutKind = iota
	PutConflict
	PutFailed
)

func (k PutKind) String() string {
	switch k {
	case PutOK:
		return "ok"
	case PutConflict:
		return "conflict"
	default:
		return "failed"
	}
}

// PutResult is the typed outcome of Sink.Put.
type PutResult struct {
	Kind     PutKind
	Rid      record.Rid
	Conflict *Conflict
	Err      error
}

// Stored returns a successful result.
func Stored(rid record.Rid) PutResult {
	return PutResult{Kind: PutOK, Rid: rid}
}

// Conflicted returns a conflict result.
func Conflicted(cmp record.Comparison, candidate, existing record.DataType) PutResult {
	return PutResult{
		Kind:     PutConflict,
		Conflict: &Conflict{Comparison: cmp, Candidate: candidate, Existing: existing},
	}
}

// Failed returns an error result.
func Failed(err error) PutResult {
	return PutResult{Kind: PutFailed, Err: err}
}

// Error converts a non-OK result into an error, nil otherwise.
func (r PutResult) Error() error {
	switch r.Kind {
	case PutConflict:
		return &ConflictError{Conflict: *r.Conflict}
	case PutFailed:
		return r.Err
	default:
		return nil
	}
}
