package conduit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"conduit-sync/feature/folder"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultAutosyncDelay is the debounce delay used when none is configured.
const DefaultAutosyncDelay = 2 * time.Second

// Autosync watches the folder endpoints of autosync conduits and runs a pass
// shortly after they change.
type Autosync struct {
	service *Service
	delay   time.Duration
	logger  *zap.Logger

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	wg      sync.WaitGroup
	passes  sync.WaitGroup

	mu      sync.Mutex
	running bool
	// dirs maps watched directories to the conduits interested in them.
	dirs   map[string]map[string]bool
	timers map[string]*time.Timer
}

// NewAutosync creates a watcher. It does nothing until Start.
func NewAutosync(service *Service, delay time.Duration, logger *zap.Logger) (*Autosync, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if delay <= 0 {
		delay = DefaultAutosyncDelay
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	return &Autosync{
		service: service,
		delay:   delay,
		logger:  logger.With(zap.String("component", "autosync")),
		watcher: w,
		done:    make(chan struct{}),
		dirs:    make(map[string]map[string]bool),
		timers:  make(map[string]*time.Timer),
	}, nil
}

// Start watches every autosync conduit and schedules an initial pass for each.
// It returns the number of conduits watched.
func (a *Autosync) Start(ctx context.Context) (int, error) {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return 0, fmt.Errorf("autosync already running")
	}
	a.running = true
	a.ctx, a.cancel = context.WithCancel(ctx)
	a.mu.Unlock()

	count := 0
	for _, c := range a.service.Conduits() {
		if !c.Autosync {
			continue
		}
		folders := folderEndpoints(c)
		if len(folders) == 0 {
			a.logger.Warn("Autosync conduit has no folder endpoint", zap.String("conduit", c.Name))
			continue
		}
		for _, f := range folders {
			a.watch(c.Name, f.Root())
		}
		a.schedule(c.Name)
		count++
	}

	a.wg.Add(1)
	go a.processEvents()

	a.logger.Info("Autosync started", zap.Int("conduits", count), zap.Duration("delay", a.delay))
	return count, nil
}

// Stop stops watching and waits for the event loop and any running pass,
// which is cancelled.
func (a *Autosync) Stop() error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = false
	for name, t := range a.timers {
		t.Stop()
		delete(a.timers, name)
	}
	a.cancel()
	a.mu.Unlock()

	close(a.done)
	if err := a.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	a.wg.Wait()
	a.passes.Wait()
	return nil
}

// Watched returns the watched directories.
func (a *Autosync) Watched() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.dirs))
	for dir := range a.dirs {
		out = append(out, dir)
	}
	return out
}

func (a *Autosync) processEvents() {
	defer a.wg.Done()

	for {
		select {
		case <-a.done:
			return

		case event, ok := <-a.watcher.Events:
			if !ok {
				return
			}
			a.handle(event)

		case err, ok := <-a.watcher.Errors:
			if !ok {
				return
			}
			a.logger.Warn("Watcher error", zap.Error(err))
		}
	}
}

func (a *Autosync) handle(event fsnotify.Event) {
	if strings.HasPrefix(filepath.Base(event.Name), ".conduit-") {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	a.mu.Lock()
	names := a.dirs[filepath.Dir(event.Name)]
	conduits := make([]string, 0, len(names))
	for name := range names {
		conduits = append(conduits, name)
	}
	a.mu.Unlock()

	for _, name := range conduits {
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				a.watch(name, event.Name)
			}
		}
		a.logger.Debug("Change detected",
			zap.String("conduit", name),
			zap.String("path", event.Name),
			zap.String("op", event.Op.String()),
		)
		a.schedule(name)
	}
}

// schedule (re)starts the debounce timer of a conduit.
func (a *Autosync) schedule(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return
	}
	if t, ok := a.timers[name]; ok {
		t.Reset(a.delay)
		return
	}
	a.timers[name] = time.AfterFunc(a.delay, func() { a.fire(name) })
}

func (a *Autosync) fire(name string) {
	a.mu.Lock()
	delete(a.timers, name)
	ctx := a.ctx
	running := a.running
	if running {
		a.passes.Add(1)
	}
	a.mu.Unlock()
	if !running {
		return
	}
	defer a.passes.Done()

	res, err := a.service.Sync(ctx, name, SyncOptions{})
	if err != nil {
		a.logger.Error("Autosync pass failed", zap.String("conduit", name), zap.Error(err))
		return
	}
	a.logger.Info("Autosync pass done",
		zap.String("conduit", name),
		zap.Stringer("status", res.Status()),
	)

	// Pick up directories found by the refresh.
	c, err := a.service.Conduit(name)
	if err != nil {
		return
	}
	for _, f := range folderEndpoints(c) {
		for _, dir := range f.WatchDirs() {
			a.watch(name, dir)
		}
	}
}

func (a *Autosync) watch(name, dir string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return
	}

	if names, ok := a.dirs[dir]; ok {
		names[name] = true
		return
	}
	if err := a.watcher.Add(dir); err != nil {
		a.logger.Warn("Failed to watch directory", zap.String("dir", dir), zap.Error(err))
		return
	}
	a.dirs[dir] = map[string]bool{name: true}
}

func folderEndpoints(c *Conduit) []*folder.Provider {
	var out []*folder.Provider
	for _, p := range []interface{}{c.Source, c.Sink} {
		if f, ok := p.(*folder.Provider); ok && f.Root() != "" {
			out = append(out, f)
		}
	}
	return out
}
