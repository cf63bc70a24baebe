package conduit

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAutosync_PropagatesFolderChanges(t *testing.T) {
	rootA, rootB := t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(rootA, "initial.txt"), []byte("1"), 0o644))

	svc, _ := newService(t, Definition{
		Name:     "folders",
		Source:   EndpointDef{Type: TypeFolder, Path: rootA},
		Sink:     EndpointDef{Type: TypeFolder, Path: rootB},
		TwoWay:   true,
		Autosync: true,
	}, memoryDef("manual"))

	auto, err := NewAutosync(svc, 50*time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	n, err := auto.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only the folder conduit is watched")
	defer func() { assert.NoError(t, auto.Stop()) }()

	exists := func(path string) func() bool {
		return func() bool {
			_, err := os.Stat(path)
			return err == nil
		}
	}

	assert.Eventually(t, exists(filepath.Join(rootB, "initial.txt")), 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(rootB, "from-b.txt"), []byte("2"), 0o644))
	assert.Eventually(t, exists(filepath.Join(rootA, "from-b.txt")), 5*time.Second, 20*time.Millisecond)

	assert.ElementsMatch(t, []string{rootA, rootB}, auto.Watched())
}

func TestAutosync_StopIsIdempotent(t *testing.T) {
	svc, _ := newService(t)
	auto, err := NewAutosync(svc, 0, nil)
	require.NoError(t, err)
	_, err = auto.Start(context.Background())
	require.NoError(t, err)
	_, err = auto.Start(context.Background())
	assert.Error(t, err)
	assert.NoError(t, auto.Stop())
	assert.NoError(t, auto.Stop())
}
