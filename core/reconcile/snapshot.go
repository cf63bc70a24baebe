package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"conduit-sync/core/dataprovider"
	"conduit-sync/core/mapping"

	"go.uber.org/zap"
)

// side is one provider of a pair as seen by the pass.
type side struct {
	role   string
	uid    string
	desc   dataprovider.Descriptor
	source dataprovider.Source
	sink   dataprovider.Sink
}

// sideChanges holds the change triple of one side and its mapped records.
type sideChanges struct {
	added    []string
	modified []string
	deleted  []string

	modifiedSet map[string]struct{}
	deletedSet  map[string]struct{}

	// mapped holds the previous pass's mappings oriented from this side,
	// keyed by this side's UID.
	mapped map[string]mapping.Mapping

	native bool
}

func newSideChanges(mapped map[string]mapping.Mapping) *sideChanges {
	return &sideChanges{
		modifiedSet: make(map[string]struct{}),
		deletedSet:  make(map[string]struct{}),
		mapped:      mapped,
	}
}

func (c *sideChanges) addAdded(uid string) {
	c.added = append(c.added, uid)
}

func (c *sideChanges) addModified(uid string) {
	if _, dup := c.modifiedSet[uid]; dup {
		return
	}
	c.modifiedSet[uid] = struct{}{}
	c.modified = append(c.modified, uid)
}

func (c *sideChanges) addDeleted(uid string) {
	if _, dup := c.deletedSet[uid]; dup {
		return
	}
	c.deletedSet[uid] = struct{}{}
	c.deleted = append(c.deleted, uid)
}

func (c *sideChanges) isModified(uid string) bool {
	_, ok := c.modifiedSet[uid]
	return ok
}

func (c *sideChanges) isDeleted(uid string) bool {
	_, ok := c.deletedSet[uid]
	return ok
}

func (c *sideChanges) sort() {
	sort.Strings(c.added)
	sort.Strings(c.modified)
	sort.Strings(c.deleted)
}

// refreshAll refreshes both providers concurrently and returns the first failure.
func refreshAll(ctx context.Context, providers ...dataprovider.Provider) error {
	var (
		wg   sync.WaitGroup
		errs = make([]error, len(providers))
	)

	wg.Add(len(providers))
	for i, p := range providers {
		go func(i int, p dataprovider.Provider) {
			defer wg.Done()
			if err := p.Refresh(ctx); err != nil {
				var refreshErr *dataprovider.RefreshError
				if !errors.As(err, &refreshErr) {
					err = dataprovider.NewRefreshError(p.UID(), err)
				}
				errs[i] = err
			}
		}(i, p)
	}
	wg.Wait()

	return errors.Join(errs...)
}

// loadMappings returns the previous pass's mappings keyed by UID on each side.
func (p *pass) loadMappings(ctx context.Context) (bySource, bySink map[string]mapping.Mapping, err error) {
	rows, err := p.env.Mappings.GetMappingsForProviders(ctx, p.source.uid, p.sink.uid)
	if err != nil {
		return nil, nil, dataprovider.NewFatalError(fmt.Errorf("failed to load mappings: %w", err))
	}

	bySource = make(map[string]mapping.Mapping, len(rows))
	bySink = make(map[string]mapping.Mapping, len(rows))
	for _, m := range rows {
		bySource[m.SourceUID] = m
		bySink[m.SinkUID] = m.Flip()
	}
	return bySource, bySink, nil
}

// snapshot computes the change triples of both sides concurrently.
// The sink is only scanned for two-way pairs.
func (p *pass) snapshot(ctx context.Context) error {
	bySource, bySink, err := p.loadMappings(ctx)
	if err != nil {
		return err
	}

	var (
		wg                 sync.WaitGroup
		sourceErr, sinkErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		p.sourceChanges, sourceErr = p.detect(ctx, p.source, bySource)
	}()

	if p.opts.TwoWay {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.sinkChanges, sinkErr = p.detect(ctx, p.sink, bySink)
		}()
	} else {
		p.sinkChanges = newSideChanges(bySink)
	}

	wg.Wait()

	if sourceErr != nil {
		return sourceErr
	}
	return sinkErr
}

// detect computes the change triple of one side.
func (p *pass) detect(ctx context.Context, s *side, mapped map[string]mapping.Mapping) (*sideChanges, error) {
	if aware, ok := s.source.(dataprovider.ChangeAware); ok && !p.opts.SlowSync {
		native, err := aware.GetChanges(ctx)
		switch {
		case err == nil:
			changes := fromNative(native, mapped)
			p.logger.Debug("Using native change log",
				zap.String("provider", s.uid),
				zap.Int("added", len(changes.added)),
				zap.Int("modified", len(changes.modified)),
				zap.Int("deleted", len(changes.deleted)),
			)
			return changes, nil
		case errors.Is(err, dataprovider.ErrNotImplemented):
		default:
			return nil, dataprovider.NewFatalError(fmt.Errorf("failed to get changes from %s: %w", s.uid, err))
		}
	}

	return p.diff(ctx, s, mapped)
}

// fromNative folds a native change log into a triple consistent with the mappings.
func fromNative(native dataprovider.Changes, mapped map[string]mapping.Mapping) *sideChanges {
	changes := newSideChanges(mapped)
	changes.native = true

	for _, uid := range native.Added {
		if _, ok := mapped[uid]; ok {
			changes.addModified(uid)
		} else {
			changes.addAdded(uid)
		}
	}
	for _, uid := range native.Modified {
		if _, ok := mapped[uid]; ok {
			changes.addModified(uid)
		} else {
			changes.addAdded(uid)
		}
	}
	for _, uid := range native.Deleted {
		if _, ok := mapped[uid]; ok {
			changes.addDeleted(uid)
		}
	}

	changes.sort()
	return changes
}

// diff derives the triple by comparing GetAll with the recorded mappings.
// Mapped records are fetched and compared with the version recorded at the
// last correlation.
func (p *pass) diff(ctx context.Context, s *side, mapped map[string]mapping.Mapping) (*sideChanges, error) {
	uids, err := s.source.GetAll(ctx)
	if err != nil {
		return nil, dataprovider.NewFatalError(fmt.Errorf("failed to list %s: %w", s.uid, err))
	}

	changes := newSideChanges(mapped)
	present := make(map[string]struct{}, len(uids))

	for _, uid := range uids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, dup := present[uid]; dup {
			continue
		}
		present[uid] = struct{}{}

		m, ok := mapped[uid]
		if !ok {
			changes.addAdded(uid)
			continue
		}

		current, err := s.source.Get(ctx, uid)
		switch {
		case errors.Is(err, dataprovider.ErrNotFound):
			changes.addDeleted(uid)
		case err != nil:
			// Let the apply stage retry and count the failure.
			changes.addModified(uid)
		case !current.Rid().SameVersion(m.SourceRid()):
			changes.addModified(uid)
		}
	}

	for uid := range mapped {
		if _, ok := present[uid]; !ok {
			changes.addDeleted(uid)
		}
	}

	changes.sort()
	p.logger.Debug("Diffed listing against mappings",
		zap.String("provider", s.uid),
		zap.Int("listed", len(uids)),
		zap.Int("mapped", len(mapped)),
		zap.Int("added", len(changes.added)),
		zap.Int("modified", len(changes.modified)),
		zap.Int("deleted", len(changes.deleted)),
	)
	return changes, nil
}
