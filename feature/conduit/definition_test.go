package conduit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"conduit-sync/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const conduitsYAML = `
conduits:
  - name: photos
    source:
      type: folder
      path: /srv/photos
      include_hidden: true
    sink:
      type: s3
      bucket: backup
      prefix: photos
      in_type: "object?max_size=50m"
    two_way: true
    autosync: true
    policy:
      conflict: ask
      deleted: replace
  - name: notes
    source: {type: memory, path: a}
    sink: {type: memory, path: b}
`

func writeConduits(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conduits.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefinitions(t *testing.T) {
	defs, err := LoadDefinitions(writeConduits(t, conduitsYAML))
	require.NoError(t, err)
	require.Len(t, defs, 2)

	photos := defs[0]
	assert.Equal(t, "photos", photos.Name)
	assert.Equal(t, TypeFolder, photos.Source.Type)
	assert.Equal(t, "/srv/photos", photos.Source.Path)
	assert.True(t, photos.Source.IncludeHidden)
	assert.Equal(t, "backup", photos.Sink.Bucket)
	assert.Equal(t, "object?max_size=50m", photos.Sink.InType)
	assert.True(t, photos.Autosync)

	opts, err := photos.Options()
	require.NoError(t, err)
	assert.Equal(t, reconcile.Options{
		Conflict: reconcile.PolicyAsk,
		Deleted:  reconcile.PolicyReplace,
		TwoWay:   true,
	}, opts)

	opts, err = defs[1].Options()
	require.NoError(t, err)
	assert.Equal(t, reconcile.PolicySkip, opts.Conflict)
	assert.Equal(t, reconcile.PolicySkip, opts.Deleted)
}

func TestLoadDefinitions_Missing(t *testing.T) {
	_, err := LoadDefinitions(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadDefinitions_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown type", "conduits:\n  - name: x\n    source: {type: ftp}\n    sink: {type: memory}\n"},
		{"missing sink type", "conduits:\n  - name: x\n    source: {type: memory}\n"},
		{"bad policy", "conduits:\n  - name: x\n    source: {type: memory}\n    sink: {type: memory}\n    policy: {conflict: maybe}\n"},
		{"no name", "conduits:\n  - source: {type: memory}\n    sink: {type: memory}\n"},
		{"duplicate", "conduits:\n  - name: x\n    source: {type: memory}\n    sink: {type: memory}\n  - name: x\n    source: {type: memory}\n    sink: {type: memory}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDefinitions(writeConduits(t, tt.content))
			assert.Error(t, err)
		})
	}
}
