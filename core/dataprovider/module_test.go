package dataprovider

import (
	"context"
	"errors"
	"testing"
	"time"

	"conduit-sync/core/record"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModule_PassLifecycle(t *testing.T) {
	m := NewModule("p1", Descriptor{Name: "test"})
	assert.Equal(t, StatusReady, m.Status())

	require.NoError(t, m.BeginRefresh())
	require.NoError(t, m.BeginRefresh(), "refresh may repeat before syncing")
	m.MarkSyncing()
	m.MarkSyncing()
	assert.Equal(t, StatusSyncing, m.Status())

	err := m.BeginRefresh()
	assert.ErrorIs(t, err, ErrInvalidTransition, "no re-entering Refreshing mid-pass")
	assert.Equal(t, StatusSyncing, m.Status())

	m.Finish(context.Background(), false, false, true)
	assert.Equal(t, StatusDoneConflict, m.Status())

	require.NoError(t, m.BeginRefresh(), "a new pass starts from Done")
	assert.Equal(t, StatusRefreshing, m.Status())
}

func TestModule_SyncRequiresRefresh(t *testing.T) {
	m := NewModule("p1", Descriptor{})
	m.MarkSyncing()
	assert.Equal(t, StatusReady, m.Status())
}

func TestModule_ItemAccessAfterFinishKeepsStatus(t *testing.T) {
	m := NewModule("p1", Descriptor{})
	require.NoError(t, m.BeginRefresh())
	m.MarkSyncing()
	m.Finish(context.Background(), false, false, false)
	require.Equal(t, StatusDoneOK, m.Status())

	m.MarkSyncing()
	assert.Equal(t, StatusDoneOK, m.Status())

	m.SetNotConfigured()
	m.MarkSyncing()
	assert.Equal(t, StatusNotConfigured, m.Status())
}

func TestModule_NotConfiguredIsSticky(t *testing.T) {
	m := NewModule("p1", Descriptor{})
	m.SetNotConfigured()
	m.Finish(context.Background(), false, false, false)
	assert.Equal(t, StatusNotConfigured, m.Status())
	require.NoError(t, m.Reset())
	assert.Equal(t, StatusReady, m.Status())
}

func TestFinishStatus(t *testing.T) {
	assert.Equal(t, StatusDoneOK, FinishStatus(false, false, false))
	assert.Equal(t, StatusDoneConflict, FinishStatus(false, false, true))
	assert.Equal(t, StatusDoneError, FinishStatus(false, true, true))
	assert.Equal(t, StatusDoneCancelled, FinishStatus(true, false, false))
	assert.Equal(t, StatusDoneError, FinishStatus(true, true, false))
}

func TestErrors(t *testing.T) {
	base := errors.New("disk gone")

	refresh := NewRefreshError("p1", base)
	assert.True(t, IsFatal(refresh))
	assert.ErrorIs(t, refresh, base)

	fatal := NewFatalError(base)
	assert.True(t, IsFatal(fatal))

	item := NewSynchronizeError("a.txt", base)
	assert.False(t, IsFatal(item))
	var syncErr *SynchronizeError
	require.True(t, errors.As(item, &syncErr))
	assert.Equal(t, "a.txt", syncErr.UID)
}

type stub struct{ record.Base }

func (s *stub) Type() string { return "stub" }

func TestPutResult(t *testing.T) {
	rid := record.NewRid("a", time.Now(), "h")
	assert.NoError(t, Stored(rid).Error())

	a, b := &stub{}, &stub{}
	b.SetUID("b")
	res := Conflicted(record.ComparisonOlder, a, b)
	var conflictErr *ConflictError
	require.True(t, errors.As(res.Error(), &conflictErr))
	assert.Equal(t, record.ComparisonOlder, conflictErr.Conflict.Comparison)

	assert.EqualError(t, Failed(errors.New("x")).Error(), "x")
}

func TestStatusText(t *testing.T) {
	b, err := StatusDoneSkipped.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "done-skipped", string(b))
	assert.Equal(t, "unknown", Status(99).String())
}
