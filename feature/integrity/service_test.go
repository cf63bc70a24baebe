package integrity

import (
	"context"
	"path/filepath"
	"testing"

	"conduit-sync/core/database"
	"conduit-sync/core/mapping"
	"conduit-sync/feature/conduit"
	"conduit-sync/feature/integrity/checks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// setup builds a folder conduit whose sink folder does not exist yet.
func setup(t *testing.T) (*Service, *gorm.DB, string) {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	store, err := mapping.NewStore(db, zap.NewNop())
	require.NoError(t, err)

	missing := filepath.Join(t.TempDir(), "missing")
	conduits, err := conduit.NewService([]conduit.Definition{{
		Name:   "folders",
		Source: conduit.EndpointDef{Type: conduit.TypeFolder, Path: t.TempDir()},
		Sink:   conduit.EndpointDef{Type: conduit.TypeFolder, Path: missing},
	}, {
		Name:   "backup",
		Source: conduit.EndpointDef{Type: conduit.TypeMemory, Path: "m"},
		Sink:   conduit.EndpointDef{Type: conduit.TypeS3},
	}}, conduit.NewFactory(nil, "", nil, nil), store, zap.NewNop())
	require.NoError(t, err)

	return NewService(db, conduits, zap.NewNop()), db, missing
}

func TestService_CheckSchema(t *testing.T) {
	svc, _, _ := setup(t)
	report, err := svc.CheckSchema()
	require.NoError(t, err)
	assert.True(t, report.Matched)
}

func TestService_Endpoints(t *testing.T) {
	svc, _, missing := setup(t)

	reports := svc.CheckEndpoints(context.Background())
	byUID := make(map[string]checks.EndpointReport)
	for _, r := range reports {
		byUID[r.UID] = r
	}
	require.Len(t, byUID, 4)
	assert.Equal(t, checks.StatusError, byUID["folder:"+missing].Status)
	assert.Equal(t, checks.StatusUnchecked, byUID["memory:m"].Status)
	assert.Equal(t, checks.StatusNotConfigured, byUID["s3:/"].Status)

	reports = svc.FixEndpoints(context.Background())
	for _, r := range reports {
		if r.UID == "folder:"+missing {
			assert.Equal(t, checks.StatusOK, r.Status)
			assert.True(t, r.Fixed)
		}
	}
	assert.DirExists(t, missing)
}

func TestService_NoConduits(t *testing.T) {
	svc := NewService(nil, nil, zap.NewNop())
	assert.Empty(t, svc.CheckEndpoints(context.Background()))
	_, err := svc.CheckSchema()
	assert.Error(t, err)
}
