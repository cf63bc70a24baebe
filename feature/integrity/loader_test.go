package integrity

import (
	"net/http/httptest"
	"testing"

	"conduit-sync/core/database"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFeature_DisabledWithoutDatabase(t *testing.T) {
	feature := NewFeature(nil, nil, zap.NewNop())

	assert.Equal(t, "integrity", feature.Name())
	assert.False(t, feature.IsEnabled())
}

func TestFeature_Load(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)

	feature := NewFeature(db, nil, zap.NewNop())
	require.True(t, feature.IsEnabled())

	app := fiber.New()
	require.NoError(t, feature.Load(app))

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/schema", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}
