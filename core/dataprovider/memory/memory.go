// Package memory provides an in-memory TwoWay dataprovider.
//
// It stores notes keyed by UID and can optionally keep a native change log,
// which makes it ChangeAware. It backs "memory" conduits and the reconciler tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"conduit-sync/core/dataprovider"
	"conduit-sync/core/record"
)

// TypeName is the data type produced and consumed by the provider.
const TypeName = "note"

// Note is a small text record.
type Note struct {
	record.Base
	Body string
}

func (n *Note) Type() string { return TypeName }

// NewNote builds a note with its hash derived from body.
func NewNote(uid, body string, mtime time.Time) *Note {
	n := &Note{Body: body}
	n.SetUID(uid)
	n.SetMtime(mtime)
	n.SetHash(HashBody(body))
	return n
}

// HashBody returns the content hash used for notes.
func HashBody(body string) string {
	return record.HashBytes([]byte(body))
}

// Options tunes provider behaviour.
type Options struct {
	// ChangeLog makes the provider ChangeAware.
	ChangeLog bool
	// NoMtime drops modification times, forcing hash based comparison.
	NoMtime bool
	// Clock supplies mtimes for writes; defaults to time.Now.
	Clock func() time.Time
}

// Provider is an in-memory TwoWay dataprovider.
type Provider struct {
	*dataprovider.Module

	mu    sync.Mutex
	opts  Options
	notes map[string]*Note
	log   map[string]record.ChangeType

	puts    int
	deletes int

	// RefreshErr, when set, makes Refresh fail.
	RefreshErr error
	// OnRefresh, when set, runs inside Refresh and may block on ctx.
	OnRefresh func(ctx context.Context) error
	// PutErr maps UIDs to errors returned by Put.
	PutErr map[string]error
}

var _ dataprovider.TwoWay = (*Provider)(nil)

// New creates an empty provider.
func New(uid string, opts Options) *Provider {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Provider{
		Module: dataprovider.NewModule(uid, dataprovider.Descriptor{
			Name:     "memory",
			Category: dataprovider.CategoryMemory,
			InType:   TypeName,
			OutType:  TypeName,
		}),
		opts:   opts,
		notes:  make(map[string]*Note),
		log:    make(map[string]record.ChangeType),
		PutErr: make(map[string]error),
	}
}

// HasChangeLog reports whether the provider keeps a native change log.
func (p *Provider) HasChangeLog() bool { return p.opts.ChangeLog }

// Set creates or replaces a note as an external edit would.
func (p *Provider) Set(uid, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, existed := p.notes[uid]
	p.notes[uid] = p.newNote(uid, body, p.opts.Clock())
	if existed {
		p.logChange(uid, record.Modified)
	} else {
		p.logChange(uid, record.Added)
	}
}

// Remove deletes a note as an external edit would.
func (p *Provider) Remove(uid string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.notes[uid]; !ok {
		return
	}
	delete(p.notes, uid)
	p.logChange(uid, record.Deleted)
}

// Body returns the body of a note.
func (p *Provider) Body(uid string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := p.notes[uid]
	if !ok {
		return "", false
	}
	return n.Body, true
}

// Len returns the number of stored notes.
func (p *Provider) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.notes)
}

// Writes returns how many Put and Delete calls changed the store.
func (p *Provider) Writes() (puts, deletes int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.puts, p.deletes
}

func (p *Provider) Refresh(ctx context.Context) error {
	if err := p.BeginRefresh(); err != nil {
		return dataprovider.NewRefreshError(p.UID(), err)
	}
	if p.RefreshErr != nil {
		return dataprovider.NewRefreshError(p.UID(), p.RefreshErr)
	}
	if p.OnRefresh != nil {
		if err := p.OnRefresh(ctx); err != nil {
			return dataprovider.NewRefreshError(p.UID(), err)
		}
	}
	return ctx.Err()
}

func (p *Provider) GetAll(_ context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	uids := make([]string, 0, len(p.notes))
	for uid := range p.notes {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	return uids, nil
}

// GetChanges returns the native change log. Without a change log the
// provider reports ErrNotImplemented and callers fall back to GetAll.
func (p *Provider) GetChanges(_ context.Context) (dataprovider.Changes, error) {
	if !p.opts.ChangeLog {
		return dataprovider.Changes{}, dataprovider.ErrNotImplemented
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	var changes dataprovider.Changes
	for uid, change := range p.log {
		switch change {
		case record.Added:
			changes.Added = append(changes.Added, uid)
		case record.Modified:
			changes.Modified = append(changes.Modified, uid)
		case record.Deleted:
			changes.Deleted = append(changes.Deleted, uid)
		}
	}
	sort.Strings(changes.Added)
	sort.Strings(changes.Modified)
	sort.Strings(changes.Deleted)
	return changes, nil
}

func (p *Provider) Get(_ context.Context, uid string) (record.DataType, error) {
	p.MarkSyncing()
	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := p.notes[uid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", dataprovider.ErrNotFound, uid)
	}
	cp := *n
	return &cp, nil
}

func (p *Provider) Put(_ context.Context, data record.DataType, overwrite bool, uid string) dataprovider.PutResult {
	p.MarkSyncing()
	note, ok := data.(*Note)
	if !ok {
		return dataprovider.Failed(dataprovider.NewSynchronizeError(data.UID(),
			fmt.Errorf("unsupported data type %q", data.Type())))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	key := uid
	if key == "" {
		key = note.UID()
	}
	if err := p.PutErr[key]; err != nil {
		return dataprovider.Failed(err)
	}

	if existing, found := p.notes[key]; found && !overwrite {
		if existing.Hash() == note.Hash() {
			return dataprovider.Stored(existing.Rid())
		}
		cmp := record.Compare(note, existing, record.Baseline{})
		if cmp != record.ComparisonNewer {
			cp := *existing
			return dataprovider.Conflicted(cmp, note, &cp)
		}
	}

	mtime := note.Mtime()
	if mtime.IsZero() {
		mtime = p.opts.Clock()
	}
	stored := p.newNote(key, note.Body, mtime)
	p.notes[key] = stored
	p.puts++
	return dataprovider.Stored(stored.Rid())
}

func (p *Provider) Delete(_ context.Context, uid string) error {
	p.MarkSyncing()
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.notes[uid]; !ok {
		return nil
	}
	delete(p.notes, uid)
	p.deletes++
	return nil
}

// Finish clears the change log after a pass that was not aborted.
func (p *Provider) Finish(ctx context.Context, aborted, errored, conflicted bool) {
	if !aborted {
		p.mu.Lock()
		p.log = make(map[string]record.ChangeType)
		p.mu.Unlock()
	}
	p.Module.Finish(ctx, aborted, errored, conflicted)
}

func (p *Provider) newNote(uid, body string, mtime time.Time) *Note {
	if p.opts.NoMtime {
		mtime = time.Time{}
	}
	return NewNote(uid, body, mtime)
}

// logChange folds a new change into the pending log.
func (p *Provider) logChange(uid string, change record.ChangeType) {
	prev, seen := p.log[uid]
	switch {
	case !seen:
		p.log[uid] = change
	case prev == record.Added && change == record.Deleted:
		delete(p.log, uid)
	case prev == record.Added:
		// stays added
	case prev == record.Deleted && change == record.Added:
		p.log[uid] = record.Modified
	default:
		p.log[uid] = change
	}
}

// IsNotFound reports whether err means the note is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, dataprovider.ErrNotFound)
}
