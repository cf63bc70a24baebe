package conduit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"conduit-sync/core/database"
	"conduit-sync/core/dataprovider"
	"conduit-sync/core/dataprovider/memory"
	"conduit-sync/core/mapping"
	"conduit-sync/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStore(t *testing.T) *mapping.Store {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	store, err := mapping.NewStore(db, zap.NewNop())
	require.NoError(t, err)
	return store
}

func memoryDef(name string) Definition {
	return Definition{
		Name:   name,
		Source: EndpointDef{Type: TypeMemory, Path: name + "-a"},
		Sink:   EndpointDef{Type: TypeMemory, Path: name + "-b"},
		TwoWay: true,
		Policy: PolicyDef{Deleted: "replace"},
	}
}

// memories returns the shared memory stores behind a memory conduit.
func memories(t *testing.T, f *Factory, name string) (*memory.Provider, *memory.Provider) {
	t.Helper()
	a, err := f.Build(EndpointDef{Type: TypeMemory, Path: name + "-a"})
	require.NoError(t, err)
	b, err := f.Build(EndpointDef{Type: TypeMemory, Path: name + "-b"})
	require.NoError(t, err)
	return a.(*memory.Provider), b.(*memory.Provider)
}

func newService(t *testing.T, defs ...Definition) (*Service, *Factory) {
	t.Helper()
	factory := NewFactory(nil, "conduit", nil, zap.NewNop())
	svc, err := NewService(defs, factory, newStore(t), zap.NewNop())
	require.NoError(t, err)
	return svc, factory
}

func TestService_Sync(t *testing.T) {
	svc, factory := newService(t, memoryDef("notes"))
	a, b := memories(t, factory, "notes")
	a.Set("x", "1")
	b.Set("y", "2")

	res, err := svc.Sync(context.Background(), "notes", SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Forward.Added)
	assert.Equal(t, 1, res.Reverse.Added)
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, 2, b.Len())
	assert.Same(t, res, svc.LastResult("notes"))

	rows, err := svc.Mappings(context.Background(), "notes")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	for _, m := range rows {
		assert.Equal(t, "memory:notes-a", m.SourceProviderUID)
	}

	n, err := svc.PurgeMappings(context.Background(), "notes")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	rows, err = svc.Mappings(context.Background(), "notes")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestService_DryRunKeepsLastResult(t *testing.T) {
	svc, factory := newService(t, memoryDef("notes"))
	a, b := memories(t, factory, "notes")
	a.Set("x", "1")

	res, err := svc.Sync(context.Background(), "notes", SyncOptions{DryRun: true})
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.NotEmpty(t, res.Plan)
	assert.Zero(t, b.Len())
	assert.Nil(t, svc.LastResult("notes"))
}

func TestService_ConcurrentSyncs(t *testing.T) {
	svc, factory := newService(t, memoryDef("notes"))
	a, b := memories(t, factory, "notes")
	for _, uid := range []string{"1", "2", "3", "4"} {
		a.Set(uid, "body "+uid)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Sync(context.Background(), "notes", SyncOptions{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 4, b.Len())
	puts, _ := b.Writes()
	assert.Equal(t, 4, puts, "every note is written once")
}

func TestService_JoinedCallerOutlivesCancelledLeader(t *testing.T) {
	svc, factory := newService(t, memoryDef("notes"))
	a, b := memories(t, factory, "notes")
	a.Set("x", "1")

	entered := make(chan struct{})
	gate := make(chan struct{})
	var once sync.Once
	a.OnRefresh = func(context.Context) error {
		once.Do(func() {
			close(entered)
			<-gate
		})
		return nil
	}

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := svc.Sync(leaderCtx, "notes", SyncOptions{})
		leaderErr <- err
	}()
	<-entered

	type outcome struct {
		res *reconcile.Result
		err error
	}
	joined := make(chan outcome, 1)
	go func() {
		res, err := svc.Sync(context.Background(), "notes", SyncOptions{})
		joined <- outcome{res, err}
	}()
	require.Eventually(t, func() bool {
		svc.mu.RLock()
		defer svc.mu.RUnlock()
		f, ok := svc.flights["notes|slow=false|dry=false"]
		return ok && f.waiters == 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-leaderErr, context.Canceled)
	close(gate)

	got := <-joined
	require.NoError(t, got.err)
	assert.False(t, got.res.Aborted)
	assert.Equal(t, 1, got.res.Forward.Added)
	assert.Equal(t, 1, b.Len())
}

func TestService_SoleCallerCancelAbortsPass(t *testing.T) {
	svc, factory := newService(t, memoryDef("notes"))
	a, b := memories(t, factory, "notes")
	a.Set("x", "1")

	ctx, cancel := context.WithCancel(context.Background())
	a.OnRefresh = func(passCtx context.Context) error {
		cancel()
		<-passCtx.Done()
		return passCtx.Err()
	}

	res, err := svc.Sync(ctx, "notes", SyncOptions{})
	require.NoError(t, err)
	assert.True(t, res.Aborted)
	assert.Zero(t, b.Len())
}

func TestService_Unknown(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Sync(context.Background(), "nope", SyncOptions{})
	assert.True(t, errors.Is(err, ErrUnknownConduit))
	_, err = svc.Get("nope")
	assert.True(t, errors.Is(err, ErrUnknownConduit))
}

func TestService_UnconfiguredStorageSkips(t *testing.T) {
	def := Definition{
		Name:   "backup",
		Source: EndpointDef{Type: TypeMemory, Path: "src"},
		Sink:   EndpointDef{Type: TypeS3, Bucket: "b"},
	}
	svc, _ := newService(t, def)

	sum, err := svc.Get("backup")
	require.NoError(t, err)
	assert.Equal(t, dataprovider.StatusNotConfigured, sum.Sink.Status)
	assert.Equal(t, dataprovider.StatusReady, sum.Source.Status)

	res, err := svc.Sync(context.Background(), "backup", SyncOptions{})
	require.NoError(t, err)
	assert.True(t, res.Skipped)
}

func TestService_SyncAll(t *testing.T) {
	svc, factory := newService(t, memoryDef("b"), memoryDef("a"))
	assert.Equal(t, []string{"a", "b"}, svc.Names())

	a1, _ := memories(t, factory, "a")
	a1.Set("x", "1")

	results, err := svc.SyncAll(context.Background(), SyncOptions{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Conduit)
	assert.Equal(t, 1, results[0].Forward.Added)

	list := svc.List()
	require.Len(t, list, 2)
	assert.Equal(t, "memory:a-a", list[0].Source.UID)
	assert.NotNil(t, list[0].LastResult)
}

func TestNewService_Rejects(t *testing.T) {
	factory := NewFactory(nil, "", nil, nil)
	_, err := NewService([]Definition{memoryDef("x"), memoryDef("x")}, factory, newStore(t), nil)
	assert.Error(t, err)

	bad := memoryDef("y")
	bad.Policy.Conflict = "sometimes"
	_, err = NewService([]Definition{bad}, factory, newStore(t), nil)
	assert.Error(t, err)
}
