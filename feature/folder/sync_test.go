package folder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"conduit-sync/core/convert"
	"conduit-sync/core/database"
	"conduit-sync/core/mapping"
	"conduit-sync/core/reconcile"
	"conduit-sync/core/scan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func listFiles(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(root, path)
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	sort.Strings(out)
	return out
}

// TestFolderSync_TwoWayWithDeletes syncs two folders, deletes files on both
// sides and checks both converge with one mapping per surviving file.
func TestFolderSync_TwoWayWithDeletes(t *testing.T) {
	ctx := context.Background()
	rootA, rootB := t.TempDir(), t.TempDir()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var all []string
	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("file%02d.txt", i)
		all = append(all, name)
		root := rootA
		if i%2 == 1 {
			root = rootB
		}
		writeFile(t, root, name, "content "+name, base.Add(time.Duration(i)*time.Minute))
	}

	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	store, err := mapping.NewStore(db, zap.NewNop())
	require.NoError(t, err)

	graph := convert.NewGraph(nil)
	graph.RegisterTable(Conversions())
	rec := reconcile.New(reconcile.Env{Mappings: store, Converter: graph})

	scans := scan.NewManager(2, zap.NewNop())
	a, err := New(Options{Path: rootA}, scans, zap.NewNop())
	require.NoError(t, err)
	b, err := New(Options{Path: rootB}, scans, zap.NewNop())
	require.NoError(t, err)

	pair := reconcile.Pair{Name: "folders", Source: a, Sink: b, Options: reconcile.Options{
		TwoWay:  true,
		Deleted: reconcile.PolicyReplace,
	}}

	result, err := rec.Run(ctx, pair)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Forward.Added)
	assert.Equal(t, 5, result.Reverse.Added)
	assert.Empty(t, result.Errors)
	assert.Equal(t, all, listFiles(t, rootA))
	assert.Equal(t, all, listFiles(t, rootB))

	for _, name := range all {
		assert.Equal(t, readFile(t, rootA, name), readFile(t, rootB, name))
		infoA, err := os.Stat(filepath.Join(rootA, name))
		require.NoError(t, err)
		infoB, err := os.Stat(filepath.Join(rootB, name))
		require.NoError(t, err)
		assert.True(t, infoA.ModTime().Equal(infoB.ModTime()), "mtime of %s not preserved", name)
	}

	result, err = rec.Run(ctx, pair)
	require.NoError(t, err)
	assert.Zero(t, result.Forward.Total()+result.Reverse.Total(), "second pass must be a no-op")

	for _, name := range all[:3] {
		require.NoError(t, os.Remove(filepath.Join(rootA, name)))
	}
	for _, name := range all[3:5] {
		require.NoError(t, os.Remove(filepath.Join(rootB, name)))
	}

	result, err = rec.Run(ctx, pair)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Forward.Deleted)
	assert.Equal(t, 2, result.Reverse.Deleted)

	remaining := all[5:]
	assert.Equal(t, remaining, listFiles(t, rootA))
	assert.Equal(t, remaining, listFiles(t, rootB))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

// TestFolderSync_CancelledRefreshDeletesNothing cancels a refresh of a second
// endpoint on the same root and checks the next pass still sees every file.
func TestFolderSync_CancelledRefreshDeletesNothing(t *testing.T) {
	ctx := context.Background()
	rootA, rootB := t.TempDir(), t.TempDir()
	for i := 0; i < 300; i++ {
		writeFile(t, rootA, fmt.Sprintf("d%03d/f.txt", i), "x", time.Time{})
	}

	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	store, err := mapping.NewStore(db, zap.NewNop())
	require.NoError(t, err)

	graph := convert.NewGraph(nil)
	graph.RegisterTable(Conversions())
	rec := reconcile.New(reconcile.Env{Mappings: store, Converter: graph})

	scans := scan.NewManager(2, zap.NewNop())
	a, err := New(Options{Path: rootA}, scans, zap.NewNop())
	require.NoError(t, err)
	b, err := New(Options{Path: rootB}, scans, zap.NewNop())
	require.NoError(t, err)
	pair := reconcile.Pair{Name: "folders", Source: a, Sink: b, Options: reconcile.Options{
		TwoWay:  true,
		Deleted: reconcile.PolicyReplace,
	}}

	result, err := rec.Run(ctx, pair)
	require.NoError(t, err)
	require.Equal(t, 300, result.Forward.Added)

	other, err := New(Options{Path: rootA}, scans, zap.NewNop())
	require.NoError(t, err)
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	require.Error(t, other.Refresh(cancelled))

	result, err = rec.Run(ctx, pair)
	require.NoError(t, err)
	assert.False(t, result.Aborted)
	assert.Zero(t, result.Forward.Deleted)
	assert.Zero(t, result.Reverse.Deleted)
	assert.Len(t, listFiles(t, rootA), 300)
	assert.Len(t, listFiles(t, rootB), 300)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(300), n)
}
