package conduit_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"conduit-sync/core/database"
	"conduit-sync/core/dataprovider/memory"
	"conduit-sync/core/loader"
	"conduit-sync/core/mapping"
	"conduit-sync/core/reconcile"
	"conduit-sync/feature/conduit"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupApp(t *testing.T) (*fiber.App, *memory.Provider) {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	store, err := mapping.NewStore(db, zap.NewNop())
	require.NoError(t, err)

	factory := conduit.NewFactory(nil, "conduit", nil, zap.NewNop())
	svc, err := conduit.NewService([]conduit.Definition{{
		Name:   "notes",
		Source: conduit.EndpointDef{Type: conduit.TypeMemory, Path: "a"},
		Sink:   conduit.EndpointDef{Type: conduit.TypeMemory, Path: "b"},
	}}, factory, store, zap.NewNop())
	require.NoError(t, err)

	src, err := factory.Build(conduit.EndpointDef{Type: conduit.TypeMemory, Path: "a"})
	require.NoError(t, err)

	app := fiber.New()
	manager := loader.NewManager(zap.NewNop())
	manager.Register(conduit.NewFeature(svc, zap.NewNop()))
	require.NoError(t, manager.LoadAll(app))
	return app, src.(*memory.Provider)
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, v), string(body))
}

func TestHandler_ListAndGet(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/conduits", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var list []map[string]interface{}
	decode(t, resp, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "notes", list[0]["name"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/conduits/notes", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/conduits/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_SyncAndMappings(t *testing.T) {
	app, src := setupApp(t)
	src.Set("x", "hello")

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/conduits/notes/sync?dry_run=true", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var dry reconcile.Result
	decode(t, resp, &dry)
	assert.True(t, dry.DryRun)
	assert.Len(t, dry.Plan, 1)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/conduits/notes/sync", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res reconcile.Result
	decode(t, resp, &res)
	assert.Equal(t, 1, res.Forward.Added)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/conduits/notes/mappings", nil))
	require.NoError(t, err)
	var rows []mapping.Mapping
	decode(t, resp, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "x", rows[0].SourceUID)

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/conduits/notes/mappings", nil))
	require.NoError(t, err)
	var purged map[string]int64
	decode(t, resp, &purged)
	assert.Equal(t, int64(1), purged["deleted"])

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/conduits/missing/sync", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
