package dataprovider

import (
	"context"
	"fmt"
	"sync"
)

// Module holds the identity and status of a provider.
// Concrete providers embed it and call BeginRefresh and MarkSyncing from their
// operations. Item access outside a pass leaves the status unchanged.
type Module struct {
	mu     sync.Mutex
	uid    string
	desc   Descriptor
	status Status
}

// NewModule creates a module in the Ready state.
func NewModule(uid string, desc Descriptor) *Module {
	return &Module{uid: uid, desc: desc, status: StatusReady}
}

func (m *Module) UID() string            { return m.uid }
func (m *Module) Descriptor() Descriptor { return m.desc }

func (m *Module) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// BeginRefresh enters Refreshing, passing through Ready after a finished pass.
func (m *Module) BeginRefresh() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status.IsDone() {
		m.status = StatusReady
	}
	return m.transition(StatusRefreshing)
}

// MarkSyncing is called by Get, Put and Delete. Inside a pass it enters
// Syncing; outside one (Ready, Done-*, NotConfigured) the status is left
// unchanged.
func (m *Module) MarkSyncing() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if canTransition(m.status, StatusSyncing) {
		m.status = StatusSyncing
	}
}

// SetNotConfigured marks the provider as unusable until reconfigured.
func (m *Module) SetNotConfigured() {
	m.mu.Lock()
	m.status = StatusNotConfigured
	m.mu.Unlock()
}

// Finish moves the provider to the terminal state matching the pass outcome.
func (m *Module) Finish(_ context.Context, aborted, errored, conflicted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status == StatusNotConfigured {
		return
	}
	_ = m.transition(FinishStatus(aborted, errored, conflicted))
}

// Reset returns a finished provider to Ready.
func (m *Module) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transition(StatusReady)
}

func (m *Module) transition(to Status) error {
	if !canTransition(m.status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.status, to)
	}
	m.status = to
	return nil
}
