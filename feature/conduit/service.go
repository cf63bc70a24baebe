package conduit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"conduit-sync/core/convert"
	"conduit-sync/core/dataprovider"
	"conduit-sync/core/mapping"
	"conduit-sync/core/reconcile"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrUnknownConduit is returned for names missing from the definitions.
var ErrUnknownConduit = errors.New("unknown conduit")

// Conduit is a definition with its built providers.
type Conduit struct {
	Definition
	Source  dataprovider.Provider
	Sink    dataprovider.Provider
	options reconcile.Options

	// mu serialises passes over the same providers.
	mu sync.Mutex
}

// EndpointSummary describes one side of a conduit.
type EndpointSummary struct {
	Type       string                  `json:"type"`
	UID        string                  `json:"uid"`
	Status     dataprovider.Status     `json:"status"`
	Descriptor dataprovider.Descriptor `json:"descriptor"`
}

// Summary is the public view of a conduit.
type Summary struct {
	Name       string            `json:"name"`
	Source     EndpointSummary   `json:"source"`
	Sink       EndpointSummary   `json:"sink"`
	Options    reconcile.Options `json:"options"`
	Autosync   bool              `json:"autosync"`
	LastResult *reconcile.Result `json:"last_result,omitempty"`
}

// SyncOptions adjust a single pass.
type SyncOptions struct {
	// Slow forces full comparison even for change-aware providers.
	Slow   bool
	DryRun bool
}

// Service runs conduits.
type Service struct {
	conduits map[string]*Conduit
	names    []string
	rec      *reconcile.Reconciler
	store    *mapping.Store
	graph    *convert.Graph
	logger   *zap.Logger

	group   singleflight.Group
	flights map[string]*flight

	mu   sync.RWMutex
	last map[string]*reconcile.Result
}

// NewService builds every conduit of defs.
func NewService(defs []Definition, factory *Factory, store *mapping.Store, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	graph := factory.Graph()

	s := &Service{
		conduits: make(map[string]*Conduit, len(defs)),
		rec:      reconcile.New(reconcile.Env{Mappings: store, Converter: graph, Logger: logger}),
		store:    store,
		graph:    graph,
		logger:   logger,
		last:     make(map[string]*reconcile.Result),
		flights:  make(map[string]*flight),
	}

	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.conduits[def.Name]; dup {
			return nil, fmt.Errorf("duplicate conduit %q", def.Name)
		}
		opts, _ := def.Options()

		source, err := factory.Build(def.Source)
		if err != nil {
			return nil, fmt.Errorf("conduit %s: source: %w", def.Name, err)
		}
		sink, err := factory.Build(def.Sink)
		if err != nil {
			return nil, fmt.Errorf("conduit %s: sink: %w", def.Name, err)
		}

		if !graph.CanConvert(source.Descriptor().OutType, sink.Descriptor().InType) {
			logger.Warn("Conduit endpoints have no conversion",
				zap.String("conduit", def.Name),
				zap.String("from", source.Descriptor().OutType),
				zap.String("to", sink.Descriptor().InType),
			)
		}

		checkConfigured(source)
		checkConfigured(sink)
		s.conduits[def.Name] = &Conduit{Definition: def, Source: source, Sink: sink, options: opts}
		s.names = append(s.names, def.Name)
	}
	sort.Strings(s.names)
	return s, nil
}

// Names returns the conduit names in order.
func (s *Service) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Conduit returns a conduit by name.
func (s *Service) Conduit(name string) (*Conduit, error) {
	c, ok := s.conduits[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownConduit, name)
	}
	return c, nil
}

// Conduits returns all conduits in name order.
func (s *Service) Conduits() []*Conduit {
	out := make([]*Conduit, 0, len(s.names))
	for _, name := range s.names {
		out = append(out, s.conduits[name])
	}
	return out
}

// Graph returns the converter graph shared by every pass.
func (s *Service) Graph() *convert.Graph { return s.graph }

// List summarises every conduit.
func (s *Service) List() []Summary {
	out := make([]Summary, 0, len(s.names))
	for _, name := range s.names {
		out = append(out, s.summary(s.conduits[name]))
	}
	return out
}

// Get summarises one conduit.
func (s *Service) Get(name string) (*Summary, error) {
	c, err := s.Conduit(name)
	if err != nil {
		return nil, err
	}
	sum := s.summary(c)
	return &sum, nil
}

// LastResult returns the result of the last completed pass of a conduit.
func (s *Service) LastResult(name string) *reconcile.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last[name]
}

// flight is the context of a shared pass. It is cancelled once every caller
// waiting on the pass has gone.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// Sync runs one pass. Identical concurrent requests share one pass, and
// passes of the same conduit never overlap. A caller whose ctx ends stops
// waiting; the shared pass is only cancelled when its last caller leaves.
func (s *Service) Sync(ctx context.Context, name string, opts SyncOptions) (*reconcile.Result, error) {
	c, err := s.Conduit(name)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s|slow=%t|dry=%t", name, opts.Slow, opts.DryRun)
	f := s.join(ctx, key)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		return s.run(f.ctx, c, opts)
	})

	var r singleflight.Result
	select {
	case r = <-ch:
		s.leave(key, f)
	case <-ctx.Done():
		if !s.leave(key, f) {
			s.logger.Debug("Left shared pass", zap.String("conduit", name))
			return nil, ctx.Err()
		}
		// Last caller: the pass is now cancelled and reports itself aborted.
		// Later callers start a fresh pass instead of joining this one.
		s.group.Forget(key)
		r = <-ch
	}
	if r.Shared {
		s.logger.Debug("Joined running pass", zap.String("conduit", name))
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Val.(*reconcile.Result), nil
}

func (s *Service) join(ctx context.Context, key string) *flight {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flights[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		s.flights[key] = f
	}
	f.waiters++
	return f
}

// leave drops one waiter and reports whether it was the last one.
func (s *Service) leave(key string, f *flight) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return false
	}
	if s.flights[key] == f {
		delete(s.flights, key)
	}
	f.cancel()
	return true
}

// SyncAll runs every conduit in name order. Failures are joined; the results
// of the passes that ran are returned.
func (s *Service) SyncAll(ctx context.Context, opts SyncOptions) ([]*reconcile.Result, error) {
	var (
		results []*reconcile.Result
		errs    []error
	)
	for _, name := range s.names {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := s.Sync(ctx, name, opts)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (s *Service) run(ctx context.Context, c *Conduit, opts SyncOptions) (*reconcile.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pairOpts := c.options
	pairOpts.SlowSync = pairOpts.SlowSync || opts.Slow
	pairOpts.DryRun = opts.DryRun

	source, ok := c.Source.(dataprovider.Source)
	if !ok {
		return nil, fmt.Errorf("conduit %s: source %s cannot be read", c.Name, c.Source.UID())
	}
	sink, ok := c.Sink.(dataprovider.Sink)
	if !ok {
		return nil, fmt.Errorf("conduit %s: sink %s cannot be written", c.Name, c.Sink.UID())
	}

	checkConfigured(c.Source)
	checkConfigured(c.Sink)

	log := s.logger.With(zap.String("conduit", c.Name))
	log.Info("Starting pass", zap.Bool("slow", pairOpts.SlowSync), zap.Bool("dry_run", pairOpts.DryRun))

	res, err := s.rec.Run(ctx, reconcile.Pair{Name: c.Name, Source: source, Sink: sink, Options: pairOpts})
	if err != nil {
		return nil, err
	}

	log.Info("Pass finished",
		zap.Stringer("status", res.Status()),
		zap.Int("forward", res.Forward.Total()),
		zap.Int("reverse", res.Reverse.Total()),
		zap.Int("conflicts", res.Conflicted),
		zap.Int("errors", res.Errored),
		zap.Duration("duration", res.Duration),
	)

	if !res.DryRun {
		s.mu.Lock()
		s.last[c.Name] = res
		s.mu.Unlock()
	}
	return res, nil
}

// Mappings lists the mappings of a conduit oriented from its source.
func (s *Service) Mappings(ctx context.Context, name string) ([]mapping.Mapping, error) {
	c, err := s.Conduit(name)
	if err != nil {
		return nil, err
	}
	return s.store.GetMappingsForProviders(ctx, c.Source.UID(), c.Sink.UID())
}

// PurgeMappings deletes every mapping of a conduit so the next pass starts over.
func (s *Service) PurgeMappings(ctx context.Context, name string) (int64, error) {
	c, err := s.Conduit(name)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	n, err := s.store.DeleteMappingsForProviders(ctx, c.Source.UID(), c.Sink.UID())
	if err != nil {
		return 0, err
	}
	s.logger.Info("Purged mappings", zap.String("conduit", name), zap.Int64("count", n))
	return n, nil
}

func (s *Service) summary(c *Conduit) Summary {
	return Summary{
		Name:       c.Name,
		Source:     endpointSummary(c.Definition.Source.Type, c.Source),
		Sink:       endpointSummary(c.Definition.Sink.Type, c.Sink),
		Options:    c.options,
		Autosync:   c.Autosync,
		LastResult: s.LastResult(c.Name),
	}
}

// stateful is implemented by providers embedding dataprovider.Module.
type stateful interface {
	SetNotConfigured()
	Reset() error
}

// checkConfigured moves p in or out of NotConfigured to match its settings.
func checkConfigured(p dataprovider.Provider) {
	st, ok := p.(stateful)
	if !ok {
		return
	}
	c, ok := p.(dataprovider.Configurable)
	if !ok {
		return
	}
	if err := c.Configured(); err != nil {
		st.SetNotConfigured()
		return
	}
	if p.Status() == dataprovider.StatusNotConfigured {
		_ = st.Reset()
	}
}

func endpointSummary(typ string, p dataprovider.Provider) EndpointSummary {
	return EndpointSummary{Type: typ, UID: p.UID(), Status: p.Status(), Descriptor: p.Descriptor()}
}
