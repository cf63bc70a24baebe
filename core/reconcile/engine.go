package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"conduit-sync/core/convert"
	"conduit-sync/core/dataprovider"
	"conduit-sync/core/mapping"

	"go.uber.org/zap"
)

// Env carries the collaborators shared by every pass of an application run.
type Env struct {
	Mappings  *mapping.Store
	Converter *convert.Graph
	Logger    *zap.Logger
}

// Reconciler runs passes over provider pairs.
type Reconciler struct {
	env Env
}

// New creates a Reconciler. A nil Converter only allows same-type transfers.
func New(env Env) *Reconciler {
	if env.Logger == nil {
		env.Logger = zap.NewNop()
	}
	if env.Converter == nil {
		env.Converter = convert.NewGraph(env.Logger)
	}
	return &Reconciler{env: env}
}

// pass holds the working set of one run over one pair.
type pass struct {
	env    Env
	opts   Options
	logger *zap.Logger
	result *Result

	source *side
	sink   *side

	sourceChanges *sideChanges
	sinkChanges   *sideChanges

	processed map[string]struct{}
}

// Run performs one pass over pair. The returned error is the cause of an
// aborted pass; per-item failures are reported in the Result only.
// Finish is called on both providers whenever the pass started.
func (r *Reconciler) Run(ctx context.Context, pair Pair) (*Result, error) {
	if pair.Source == nil || pair.Sink == nil {
		return nil, errors.New("pair needs both a source and a sink")
	}
	if r.env.Mappings == nil {
		return nil, errors.New("reconciler has no mapping store")
	}

	opts := pair.Options
	if opts.Conflict == "" {
		opts.Conflict = PolicySkip
	}
	if opts.Deleted == "" {
		opts.Deleted = PolicySkip
	}

	p := &pass{
		env:  r.env,
		opts: opts,
		logger: r.env.Logger.With(
			zap.String("conduit", pair.Name),
			zap.String("source", pair.Source.UID()),
			zap.String("sink", pair.Sink.UID()),
		),
		result: &Result{
			Conduit:   pair.Name,
			DryRun:    opts.DryRun,
			StartedAt: time.Now(),
		},
		source: &side{
			role:   "source",
			uid:    pair.Source.UID(),
			desc:   pair.Source.Descriptor(),
			source: pair.Source,
		},
		sink: &side{
			role: "sink",
			uid:  pair.Sink.UID(),
			desc: pair.Sink.Descriptor(),
			sink: pair.Sink,
		},
		processed: make(map[string]struct{}),
	}
	p.source.sink, _ = pair.Source.(dataprovider.Sink)
	p.sink.source, _ = pair.Sink.(dataprovider.Source)

	if opts.TwoWay && (p.source.sink == nil || p.sink.source == nil) {
		return nil, fmt.Errorf("two-way pair %q needs two-way providers", pair.Name)
	}

	defer func() {
		p.result.FinishedAt = time.Now()
		p.result.Duration = p.result.FinishedAt.Sub(p.result.StartedAt)
	}()

	if name, ok := notConfigured(pair.Source, pair.Sink); ok {
		p.logger.Info("Skipping pass, provider not configured", zap.String("provider", name))
		p.result.Skipped = true
		return p.result, nil
	}

	err := p.run(ctx)
	if err != nil {
		p.result.Aborted = true
		p.result.AbortCause = err.Error()
	}

	// Finish must run even when ctx is already cancelled.
	finishCtx := context.WithoutCancel(ctx)
	errored, conflicted := p.result.Errored > 0, p.result.Conflicted > 0
	pair.Source.Finish(finishCtx, p.result.Aborted, errored, conflicted)
	pair.Sink.Finish(finishCtx, p.result.Aborted, errored, conflicted)

	fields := []zap.Field{
		zap.Bool("aborted", p.result.Aborted),
		zap.Int("errored", p.result.Errored),
		zap.Int("conflicted", p.result.Conflicted),
		zap.Int("forward", p.result.Forward.Total()),
		zap.Int("reverse", p.result.Reverse.Total()),
		zap.Bool("dry_run", opts.DryRun),
	}
	if err != nil {
		p.logger.Error("Pass aborted", append(fields, zap.Error(err))...)
		return p.result, err
	}
	p.logger.Info("Pass completed", fields...)
	return p.result, nil
}

func (p *pass) run(ctx context.Context) error {
	if err := refreshAll(ctx, p.source.source, p.sink.sink); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := p.snapshot(ctx); err != nil {
		return err
	}

	forward := direction{
		name:        Forward,
		from:        p.source,
		to:          p.sink,
		fromChanges: p.sourceChanges,
		toChanges:   p.sinkChanges,
	}
	if err := p.runDirection(ctx, forward); err != nil {
		return err
	}

	if !p.opts.TwoWay {
		return nil
	}

	reverse := direction{
		name:        Reverse,
		from:        p.sink,
		to:          p.source,
		fromChanges: p.sinkChanges,
		toChanges:   p.sourceChanges,
	}
	return p.runDirection(ctx, reverse)
}

// runDirection plans one direction and applies it item by item.
func (p *pass) runDirection(ctx context.Context, d direction) error {
	actions := p.plan(d)
	p.result.Plan = append(p.result.Plan, actions...)

	p.logger.Debug("Planned direction",
		zap.String("direction", string(d.name)),
		zap.Int("actions", len(actions)),
	)

	if p.opts.DryRun {
		return nil
	}

	for i := range actions {
		if err := ctx.Err(); err != nil {
			return err
		}

		a := &actions[i]
		err := p.apply(ctx, d, a)
		if err == nil {
			continue
		}
		if dataprovider.IsFatal(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		p.itemFailed(d.name, a.UID, err)
	}
	return nil
}

func (p *pass) itemFailed(dir Direction, uid string, err error) {
	p.result.Errored++
	p.result.Errors = append(p.result.Errors, ItemError{
		UID:       uid,
		Direction: dir,
		Message:   err.Error(),
	})
	p.logger.Warn("Item failed",
		zap.String("direction", string(dir)),
		zap.String("uid", uid),
		zap.Error(err),
	)
}

// notConfigured returns the first provider that lacks required settings.
func notConfigured(providers ...dataprovider.Provider) (string, bool) {
	for _, p := range providers {
		if p.Status() == dataprovider.StatusNotConfigured {
			return p.UID(), true
		}
		if c, ok := p.(dataprovider.Configurable); ok {
			if err := c.Configured(); err != nil {
				return p.UID(), true
			}
		}
	}
	return "", false
}
