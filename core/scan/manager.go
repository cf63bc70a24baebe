package scan

import (
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// DefaultMaxConcurrent is the default number of scanners running at once.
const DefaultMaxConcurrent = 2

// Stats is a snapshot of manager activity.
type Stats struct {
	Running     int `json:"running"`
	Pending     int `json:"pending"`
	Done        int `json:"done"`
	PeakRunning int `json:"peak_running"`
}

// Manager bounds the number of concurrently running scanners.
type Manager struct {
	max    int
	logger *zap.Logger

	mu       sync.Mutex
	scanners map[string]*Scanner
	pending  []*Scanner
	running  int
	peak     int
	wg       sync.WaitGroup
}

// NewManager creates a manager running at most max scanners at once.
func NewManager(max int, logger *zap.Logger) *Manager {
	if max <= 0 {
		max = DefaultMaxConcurrent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		max:      max,
		logger:   logger,
		scanners: make(map[string]*Scanner),
	}
}

// Scan returns the live scanner for root, creating and scheduling a new one
// if root is not tracked or its scanner is finished or cancelled. opts are
// ignored when a live scanner is shared.
func (m *Manager) Scan(root string, opts Options) *Scanner {
	root = filepath.Clean(root)

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.scanners[root]; ok && live(s) {
		return s
	}

	s := newScanner(root, opts)
	m.scanners[root] = s
	m.wg.Add(1)

	if m.running < m.max {
		m.startLocked(s)
	} else {
		m.pending = append(m.pending, s)
		m.logger.Debug("Scan queued", zap.String("root", root), zap.Int("pending", len(m.pending)))
	}
	return s
}

// Get returns the tracked scanner for root.
func (m *Manager) Get(root string) (*Scanner, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scanners[filepath.Clean(root)]
	return s, ok
}

// Release stops tracking a finished or cancelled scanner so the next
// request rescans. Live scanners stay tracked.
func (m *Manager) Release(root string) bool {
	root = filepath.Clean(root)
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scanners[root]
	if !ok || live(s) {
		return false
	}
	delete(m.scanners, root)
	return true
}

// JoinAll blocks until every scanner, running or pending, has completed.
func (m *Manager) JoinAll() {
	m.wg.Wait()
}

// CancelAll requests cancellation of every scanner and waits for them.
// Pending scanners stop as soon as they are promoted.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	for _, s := range m.scanners {
		s.Cancel()
	}
	m.mu.Unlock()
	m.JoinAll()
}

// Stats returns current counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	done := 0
	for _, s := range m.scanners {
		if s.State() == StateDone {
			done++
		}
	}
	return Stats{
		Running:     m.running,
		Pending:     len(m.pending),
		Done:        done,
		PeakRunning: m.peak,
	}
}

func live(s *Scanner) bool {
	return s.State() != StateDone && !s.Cancelled()
}

func (m *Manager) startLocked(s *Scanner) {
	m.running++
	if m.running > m.peak {
		m.peak = m.running
	}
	m.logger.Debug("Scan started", zap.String("root", s.root), zap.Int("running", m.running))
	go func() {
		s.run()
		m.finished(s)
	}()
}

func (m *Manager) finished(s *Scanner) {
	m.mu.Lock()
	m.running--
	m.logger.Debug("Scan finished",
		zap.String("root", s.root),
		zap.Int("files", len(s.URIs())),
		zap.Bool("cancelled", s.Cancelled()),
	)
	if len(m.pending) > 0 {
		next := m.pending[0]
		m.pending = m.pending[1:]
		m.startLocked(next)
	}
	m.mu.Unlock()
	m.wg.Done()
}
