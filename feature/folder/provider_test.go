package folder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"conduit-sync/core/dataprovider"
	"conduit-sync/core/record"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, root, rel, content string, mtime time.Time) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	if !mtime.IsZero() {
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(b)
}

func newProvider(t *testing.T, root string) *Provider {
	t.Helper()
	p, err := New(Options{Path: root}, nil, zap.NewNop())
	require.NoError(t, err)
	return p
}

func TestProvider_RefreshAndGetAll(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "a", time.Time{})
	writeFile(t, root, "sub/b.txt", "b", time.Time{})
	writeFile(t, root, ".hidden", "h", time.Time{})
	writeFile(t, root, ".conduit-123", "partial", time.Time{})

	p := newProvider(t, root)
	assert.Equal(t, "folder:"+root, p.UID())
	require.NoError(t, p.Refresh(context.Background()))

	uids, err := p.GetAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "sub/b.txt"}, uids)
	assert.Contains(t, p.WatchDirs(), filepath.Join(root, "sub"))
}

func TestProvider_RefreshMissingRoot(t *testing.T) {
	p := newProvider(t, filepath.Join(t.TempDir(), "missing"))
	err := p.Refresh(context.Background())
	var refreshErr *dataprovider.RefreshError
	assert.True(t, errors.As(err, &refreshErr))
}

func TestProvider_CancelledRefreshThenFullListing(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 400; i++ {
		writeFile(t, root, fmt.Sprintf("d%03d/f%03d.txt", i, i), "x", time.Time{})
	}
	p := newProvider(t, root)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Refresh(ctx)
	var refreshErr *dataprovider.RefreshError
	require.True(t, errors.As(err, &refreshErr))

	require.NoError(t, p.Refresh(context.Background()))
	uids, err := p.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, uids, 400)
}

func TestProvider_NotConfigured(t *testing.T) {
	p, err := New(Options{}, nil, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, p.Configured(), dataprovider.ErrNotConfigured)
}

func TestProvider_Get(t *testing.T) {
	root := t.TempDir()
	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	writeFile(t, root, "a.txt", "hello", mtime)

	p := newProvider(t, root)
	data, err := p.Get(context.Background(), "a.txt")
	require.NoError(t, err)

	f := data.(*File)
	assert.Equal(t, "a.txt", f.UID())
	assert.Equal(t, int64(5), f.Size())
	assert.True(t, mtime.Equal(f.Mtime()))
	assert.Equal(t, record.HashBytes([]byte("hello")), f.Hash())

	_, err = p.Get(context.Background(), "nope.txt")
	assert.ErrorIs(t, err, dataprovider.ErrNotFound)

	_, err = p.Get(context.Background(), "../escape")
	assert.Error(t, err)
}

func TestProvider_GetAfterPassKeepsStatus(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "a", time.Time{})
	p := newProvider(t, root)

	require.NoError(t, p.Refresh(context.Background()))
	_, err := p.Get(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.Equal(t, dataprovider.StatusSyncing, p.Status())

	p.Finish(context.Background(), false, false, false)
	_, err = p.Get(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.Equal(t, dataprovider.StatusDoneOK, p.Status())
}

func TestProvider_PutNew(t *testing.T) {
	root := t.TempDir()
	p := newProvider(t, root)
	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	src := record.NewBytes("object", "dir/new.txt", []byte("content"))
	src.SetMtime(mtime)
	src.SetHash(record.HashBytes(src.Data))

	res := p.Put(context.Background(), FromBlob(src), false, "")
	require.Equal(t, dataprovider.PutOK, res.Kind, "%v", res.Err)
	assert.Equal(t, "dir/new.txt", res.Rid.UID)
	assert.True(t, mtime.Equal(res.Rid.Mtime))
	assert.Equal(t, "content", readFile(t, root, "dir/new.txt"))

	entries, err := os.ReadDir(filepath.Join(root, "dir"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestProvider_PutConflict(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	writeFile(t, root, "a.txt", "current", now)
	p := newProvider(t, root)

	older := record.NewBytes("file", "a.txt", []byte("older"))
	older.SetMtime(now.Add(-time.Hour))
	older.SetHash(record.HashBytes(older.Data))

	res := p.Put(context.Background(), FromBlob(older), false, "a.txt")
	require.Equal(t, dataprovider.PutConflict, res.Kind)
	assert.Equal(t, record.ComparisonOlder, res.Conflict.Comparison)
	assert.Equal(t, "current", readFile(t, root, "a.txt"))

	res = p.Put(context.Background(), FromBlob(older), true, "a.txt")
	require.Equal(t, dataprovider.PutOK, res.Kind)
	assert.Equal(t, "older", readFile(t, root, "a.txt"))

	newer := record.NewBytes("file", "a.txt", []byte("newer"))
	newer.SetMtime(now.Add(time.Hour))
	newer.SetHash(record.HashBytes(newer.Data))
	res = p.Put(context.Background(), FromBlob(newer), false, "a.txt")
	require.Equal(t, dataprovider.PutOK, res.Kind)
	assert.Equal(t, "newer", readFile(t, root, "a.txt"))
}

func TestProvider_PutSameContent(t *testing.T) {
	root := t.TempDir()
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	writeFile(t, root, "a.txt", "same", old)
	p := newProvider(t, root)

	src := record.NewBytes("file", "a.txt", []byte("same"))
	src.SetMtime(old.Add(-time.Hour))
	src.SetHash(record.HashBytes(src.Data))

	res := p.Put(context.Background(), FromBlob(src), false, "a.txt")
	require.Equal(t, dataprovider.PutOK, res.Kind)
	assert.True(t, old.Equal(res.Rid.Mtime), "file must not be rewritten")
}

func TestProvider_PutRejectsNonBlob(t *testing.T) {
	p := newProvider(t, t.TempDir())
	res := p.Put(context.Background(), &notBlob{}, false, "x")
	assert.Equal(t, dataprovider.PutFailed, res.Kind)
}

func TestProvider_Delete(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "a", time.Time{})
	p := newProvider(t, root)

	require.NoError(t, p.Delete(context.Background(), "a.txt"))
	_, err := os.Stat(filepath.Join(root, "a.txt"))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, p.Delete(context.Background(), "a.txt"))
}

func TestConversions_KeepMtime(t *testing.T) {
	src := record.NewBytes("object", "a", []byte("x"))
	src.SetMtime(time.Now())

	out, err := toFile(src, map[string]string{"keep_mtime": "false"})
	require.NoError(t, err)
	assert.True(t, out.Mtime().IsZero())
	assert.Equal(t, TypeName, out.Type())

	out, err = toFile(src, nil)
	require.NoError(t, err)
	assert.False(t, out.Mtime().IsZero())

	_, err = toFile(&notBlob{}, nil)
	assert.Error(t, err)
}

type notBlob struct{ record.Base }

func (*notBlob) Type() string { return "note" }
