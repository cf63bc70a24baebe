package scan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrCancelled is reported by a scanner stopped before it finished the walk.
// Its URIs are then a prefix of the full listing.
var ErrCancelled = errors.New("scan cancelled")

// State is the lifecycle of a scanner inside its manager.
type State int32

const (
	StatePending State = iota
	StateRunning
	StateDone
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	default:
		return "done"
	}
}

// EntryKind classifies a directory entry.
type EntryKind int

const (
	KindRegular EntryKind = iota
	KindDirectory
	KindSymlink
	KindOther
)

// Options control a single scan.
type Options struct {
	// IncludeHidden includes entries whose name starts with a dot.
	IncludeHidden bool
	// FollowSymlinks descends into linked directories and includes linked files.
	FollowSymlinks bool
	// OnProgress receives the traversal fraction at ~10% steps.
	OnProgress func(fraction float64)
	// OnComplete is called once when the scan stops, cancelled or not.
	OnComplete func(uris []string, err error)
}

// Scanner walks one root directory.
type Scanner struct {
	root string
	opts Options

	state     atomic.Int32
	cancelled atomic.Bool
	done      chan struct{}

	mu    sync.Mutex
	uris  []string
	seen  map[string]struct{}
	dirs  []string
	err   error
	ticks int
}

func newScanner(root string, opts Options) *Scanner {
	return &Scanner{
		root: filepath.Clean(root),
		opts: opts,
		done: make(chan struct{}),
		seen: make(map[string]struct{}),
	}
}

// Root returns the scanned root.
func (s *Scanner) Root() string { return s.root }

// State returns the current lifecycle state.
func (s *Scanner) State() State { return State(s.state.Load()) }

// Cancel asks the scanner to stop at the next directory dequeue.
func (s *Scanner) Cancel() { s.cancelled.Store(true) }

// Cancelled reports whether cancellation was requested.
func (s *Scanner) Cancelled() bool { return s.cancelled.Load() }

// Done is closed when the scan has stopped.
func (s *Scanner) Done() <-chan struct{} { return s.done }

// Wait blocks until the scan stops or ctx ends. It returns the scan error
// or the context error. An already ended ctx wins over a finished scan.
func (s *Scanner) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-s.done:
		return s.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// URIs returns the sorted file paths collected so far.
func (s *Scanner) URIs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.uris))
	copy(out, s.uris)
	sort.Strings(out)
	return out
}

// Dirs returns the directories visited so far, root included.
func (s *Scanner) Dirs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.dirs))
	copy(out, s.dirs)
	return out
}

// Err returns the error that stopped the scan, if any.
func (s *Scanner) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// run performs the traversal. It must be called once.
func (s *Scanner) run() {
	s.state.Store(int32(StateRunning))
	defer func() {
		s.state.Store(int32(StateDone))
		if s.opts.OnComplete != nil {
			s.opts.OnComplete(s.URIs(), s.Err())
		}
		close(s.done)
	}()

	info, err := os.Stat(s.root)
	if err != nil {
		s.setErr(fmt.Errorf("failed to stat scan root: %w", err))
		return
	}
	if !info.IsDir() {
		s.setErr(fmt.Errorf("scan root %s is not a directory", s.root))
		return
	}

	visited := map[string]struct{}{}
	s.markVisited(visited, s.root)

	queue := []string{s.root}
	processed := 0
	for len(queue) > 0 {
		if s.cancelled.Load() {
			s.setErr(ErrCancelled)
			return
		}

		dir := queue[0]
		queue = queue[1:]
		s.addDir(dir)

		entries, err := os.ReadDir(dir)
		if err != nil {
			if dir == s.root {
				s.setErr(fmt.Errorf("failed to read scan root: %w", err))
				return
			}
			// Unreadable subdirectories are skipped.
			processed++
			continue
		}

		for _, entry := range entries {
			name := entry.Name()
			if !s.opts.IncludeHidden && strings.HasPrefix(name, ".") {
				continue
			}
			path := filepath.Join(dir, name)

			switch classify(entry.Type()) {
			case KindDirectory:
				if s.opts.FollowSymlinks && !s.markVisited(visited, path) {
					continue
				}
				queue = append(queue, path)
			case KindRegular:
				s.addURI(path)
			case KindSymlink:
				if !s.opts.FollowSymlinks {
					continue
				}
				target, err := os.Stat(path)
				if err != nil {
					continue
				}
				if target.IsDir() {
					if !s.markVisited(visited, path) {
						continue
					}
					queue = append(queue, path)
				} else if target.Mode().IsRegular() {
					s.addURI(path)
				}
			}
		}

		processed++
		s.progress(float64(processed) / float64(processed+len(queue)))
	}
	s.progress(1)
}

// markVisited records the real path of dir and reports whether it was new.
// Unresolvable paths count as already visited.
func (s *Scanner) markVisited(visited map[string]struct{}, dir string) bool {
	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return false
	}
	if _, seen := visited[real]; seen {
		return false
	}
	visited[real] = struct{}{}
	return true
}

func classify(mode os.FileMode) EntryKind {
	switch {
	case mode&os.ModeSymlink != 0:
		return KindSymlink
	case mode.IsDir():
		return KindDirectory
	case mode.IsRegular():
		return KindRegular
	default:
		return KindOther
	}
}

func (s *Scanner) addURI(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[path]; dup {
		return
	}
	s.seen[path] = struct{}{}
	s.uris = append(s.uris, path)
}

func (s *Scanner) addDir(path string) {
	s.mu.Lock()
	s.dirs = append(s.dirs, path)
	s.mu.Unlock()
}

func (s *Scanner) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// progress emits fraction when it crosses the next 10% step.
func (s *Scanner) progress(fraction float64) {
	if s.opts.OnProgress == nil {
		return
	}
	step := int(fraction * 10)
	if step <= s.ticks {
		return
	}
	s.ticks = step
	s.opts.OnProgress(float64(step) / 10)
}
