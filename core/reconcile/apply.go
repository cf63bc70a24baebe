package reconcile

import (
	"context"
	"errors"
	"fmt"

	"conduit-sync/core/dataprovider"
	"conduit-sync/core/mapping"
	"conduit-sync/core/record"

	"go.uber.org/zap"
)

func (p *pass) apply(ctx context.Context, d direction, a *Action) error {
	switch a.Type {
	case ActionAdd:
		return p.applyAdd(ctx, d, a)
	case ActionModify:
		return p.applyModify(ctx, d, a)
	case ActionDelete:
		return p.applyDelete(ctx, d, a)
	default:
		return fmt.Errorf("unknown action %q", a.Type)
	}
}

// applyAdd transfers a record that has no mapping yet.
func (p *pass) applyAdd(ctx context.Context, d direction, a *Action) error {
	data, err := d.from.source.Get(ctx, a.UID)
	if err != nil {
		return dataprovider.NewSynchronizeError(a.UID, err)
	}

	converted, err := p.convert(d.from, d.to, data)
	if err != nil {
		return dataprovider.NewSynchronizeError(a.UID, err)
	}

	res := d.to.sink.Put(ctx, converted, false, "")
	switch res.Kind {
	case dataprovider.PutOK:
		p.markUID(d.to.uid, res.Rid.UID)
		if err := p.saveMapping(ctx, d, nil, data.Rid(), res.Rid); err != nil {
			return err
		}
		p.counts(d.to).Added++
		return nil
	case dataprovider.PutConflict:
		existing := res.Conflict.Existing
		p.markUID(d.to.uid, existing.UID())
		return p.conflict(ctx, d, a, "add", res.Conflict.Comparison, data, existing, nil)
	default:
		return res.Err
	}
}

// applyModify propagates a change to an already mapped record.
func (p *pass) applyModify(ctx context.Context, d direction, a *Action) error {
	m := a.mapping
	if a.counterpartDeleted {
		return p.deleteModifyConflict(ctx, d, a, false)
	}

	data, err := d.from.source.Get(ctx, a.UID)
	if err != nil {
		return dataprovider.NewSynchronizeError(a.UID, err)
	}

	if d.to.source == nil {
		// Write-only sinks cannot be compared against.
		return p.push(ctx, d, a, data, m.SinkUID, m, false)
	}

	existing, err := d.to.source.Get(ctx, m.SinkUID)
	if errors.Is(err, dataprovider.ErrNotFound) {
		// The counterpart vanished without being reported as deleted.
		return p.push(ctx, d, a, data, m.SinkUID, m, true)
	}
	if err != nil {
		return dataprovider.NewSynchronizeError(m.SinkUID, err)
	}

	if data.Hash() != "" && data.Hash() == existing.Hash() {
		return p.saveMapping(ctx, d, m, data.Rid(), existing.Rid())
	}

	baseline := record.Baseline{
		Known:     true,
		Candidate: m.SourceRid(),
		Existing:  m.SinkRid(),
	}
	cmp := record.Compare(data, existing, baseline)

	if a.counterpartModified {
		return p.conflict(ctx, d, a, "modify", cmp, data, existing, m)
	}

	switch cmp {
	case record.ComparisonEqual:
		return p.saveMapping(ctx, d, m, data.Rid(), existing.Rid())
	case record.ComparisonNewer:
		return p.push(ctx, d, a, data, m.SinkUID, m, false)
	default:
		return p.conflict(ctx, d, a, "modify", cmp, data, existing, m)
	}
}

// applyDelete handles a mapped record that disappeared from the originating side.
func (p *pass) applyDelete(ctx context.Context, d direction, a *Action) error {
	m := a.mapping

	if a.counterpartDeleted {
		return p.deleteMapping(ctx, m)
	}
	if a.counterpartModified {
		return p.deleteModifyConflict(ctx, d, a, true)
	}

	switch p.opts.Deleted {
	case PolicyAsk:
		p.recordConflict(d, a, "delete", "")
		return nil
	case PolicyReplace:
		if err := d.to.sink.Delete(ctx, m.SinkUID); err != nil {
			return dataprovider.NewSynchronizeError(m.SinkUID, err)
		}
		p.counts(d.to).Deleted++
		return p.deleteMapping(ctx, m)
	default:
		p.logger.Debug("Ignoring deletion",
			zap.String("direction", string(d.name)),
			zap.String("uid", a.UID),
		)
		return nil
	}
}

// push writes data into the opposite side with overwrite and records the mapping.
func (p *pass) push(ctx context.Context, d direction, a *Action, data record.DataType, uid string, m *mapping.Mapping, recreated bool) error {
	converted, err := p.convert(d.from, d.to, data)
	if err != nil {
		return dataprovider.NewSynchronizeError(a.UID, err)
	}

	res := d.to.sink.Put(ctx, converted, true, uid)
	switch res.Kind {
	case dataprovider.PutOK:
		if err := p.saveMapping(ctx, d, m, data.Rid(), res.Rid); err != nil {
			return err
		}
		if recreated {
			p.counts(d.to).Added++
		} else {
			p.counts(d.to).Modified++
		}
		return nil
	case dataprovider.PutConflict:
		return p.conflict(ctx, d, a, "modify", res.Conflict.Comparison, data, res.Conflict.Existing, m)
	default:
		return res.Err
	}
}

// conflict counts a conflict and applies the conflict policy to it.
// existing lives on d.to; m, when set, is oriented from d.from.
func (p *pass) conflict(ctx context.Context, d direction, a *Action, kind string, cmp record.Comparison, candidate, existing record.DataType, m *mapping.Mapping) error {
	switch p.opts.Conflict {
	case PolicyReplace:
		p.result.Conflicted++
		p.logger.Info("Resolving conflict, source wins",
			zap.String("kind", kind),
			zap.String("uid", a.UID),
			zap.Stringer("comparison", cmp),
		)
		if d.forward() {
			return p.sourceWins(ctx, candidate, existing.UID(), m)
		}
		var flipped *mapping.Mapping
		if m != nil {
			f := m.Flip()
			flipped = &f
		}
		return p.sourceWins(ctx, existing, candidate.UID(), flipped)
	case PolicyAsk:
		p.recordConflict(d, a, kind, cmp.String())
		return nil
	default:
		p.result.Conflicted++
		p.logger.Info("Skipping conflict",
			zap.String("kind", kind),
			zap.String("uid", a.UID),
			zap.Stringer("comparison", cmp),
		)
		return nil
	}
}

// deleteModifyConflict resolves an item deleted on one side and modified on
// the other. fromDeleted tells which of the two d.from is.
func (p *pass) deleteModifyConflict(ctx context.Context, d direction, a *Action, fromDeleted bool) error {
	switch p.opts.Conflict {
	case PolicyAsk:
		p.recordConflict(d, a, "delete-modify", "")
		return nil
	case PolicyReplace:
	default:
		p.result.Conflicted++
		return nil
	}
	p.result.Conflicted++

	m := *a.mapping
	if !d.forward() {
		m = m.Flip()
	}
	sourceDeleted := fromDeleted == d.forward()

	if sourceDeleted {
		if err := p.sink.sink.Delete(ctx, m.SinkUID); err != nil {
			return dataprovider.NewSynchronizeError(m.SinkUID, err)
		}
		p.result.Forward.Deleted++
		return p.deleteMapping(ctx, &m)
	}

	data, err := p.source.source.Get(ctx, m.SourceUID)
	if err != nil {
		return dataprovider.NewSynchronizeError(m.SourceUID, err)
	}
	return p.sourceWins(ctx, data, m.SinkUID, &m)
}

// sourceWins forces a source record into the sink. m, when set, is oriented
// from the source.
func (p *pass) sourceWins(ctx context.Context, data record.DataType, sinkUID string, m *mapping.Mapping) error {
	converted, err := p.convert(p.source, p.sink, data)
	if err != nil {
		return dataprovider.NewSynchronizeError(data.UID(), err)
	}

	res := p.sink.sink.Put(ctx, converted, true, sinkUID)
	if err := res.Error(); err != nil {
		return dataprovider.NewSynchronizeError(sinkUID, err)
	}
	p.markUID(p.sink.uid, res.Rid.UID)

	forward := direction{name: Forward, from: p.source, to: p.sink}
	if err := p.saveMapping(ctx, forward, m, data.Rid(), res.Rid); err != nil {
		return err
	}
	p.result.Forward.Modified++
	return nil
}

func (p *pass) recordConflict(d direction, a *Action, kind, cmp string) {
	p.result.Conflicted++
	p.result.Conflicts = append(p.result.Conflicts, ConflictReport{
		Direction:   d.name,
		Kind:        kind,
		UID:         a.UID,
		Counterpart: a.Counterpart,
		Comparison:  cmp,
	})
	p.logger.Info("Conflict needs attention",
		zap.String("kind", kind),
		zap.String("direction", string(d.name)),
		zap.String("uid", a.UID),
	)
}

// convert adapts data from one side's output type to the other's input type.
func (p *pass) convert(from, to *side, data record.DataType) (record.DataType, error) {
	return p.env.Converter.Convert(from.desc.OutType, to.desc.InType, data)
}

// saveMapping upserts the correlation of fromRid and toRid. m, when set, is
// the existing mapping oriented from d.from.
func (p *pass) saveMapping(ctx context.Context, d direction, m *mapping.Mapping, fromRid, toRid record.Rid) error {
	row := mapping.New(d.from.uid, fromRid, d.to.uid, toRid)
	if m != nil {
		row.OID = m.OID
	}
	if !d.forward() {
		row = row.Flip()
	}

	if err := p.env.Mappings.SaveMapping(ctx, &row); err != nil {
		return dataprovider.NewFatalError(fmt.Errorf("failed to save mapping: %w", err))
	}
	p.markMapping(row.OID)
	return nil
}

func (p *pass) deleteMapping(ctx context.Context, m *mapping.Mapping) error {
	if err := p.env.Mappings.DeleteMapping(ctx, *m); err != nil {
		return dataprovider.NewFatalError(fmt.Errorf("failed to delete mapping: %w", err))
	}
	return nil
}

// counts returns the counters of changes applied to s.
func (p *pass) counts(s *side) *Counts {
	if s == p.sink {
		return &p.result.Forward
	}
	return &p.result.Reverse
}
