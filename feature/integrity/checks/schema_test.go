package checks

import (
	"testing"

	"conduit-sync/core/database"
	"conduit-sync/core/mapping"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

type typedModel struct {
	ID   int    `gorm:"column:id;primaryKey"`
	Name string `gorm:"column:name;type:varchar(70)"`
	Skip string
}

func (typedModel) TableName() string { return "typed" }

type untabled struct{}

func TestCheckSchema_NilDB(t *testing.T) {
	report, err := CheckSchema(nil, mapping.Mapping{})
	assert.Error(t, err)
	assert.Nil(t, report)
}

func TestCheckSchema_NoTableName(t *testing.T) {
	db, _ := setupMockDB(t)
	_, err := CheckSchema(db, untabled{})
	assert.Error(t, err)
}

func TestCheckSchema_SQLiteMigrated(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	_, err = mapping.NewStore(db, zap.NewNop())
	require.NoError(t, err)

	report, err := CheckSchema(db, &mapping.Mapping{})
	require.NoError(t, err)
	assert.True(t, report.Matched, "%+v", report)
	assert.Equal(t, "sqlite", report.Dialect)
	assert.Equal(t, "ok", report.Tables["mappings"].Status)
}

func TestCheckSchema_MissingTable(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)

	report, err := CheckSchema(db, mapping.Mapping{})
	require.NoError(t, err)
	assert.False(t, report.Matched)
	assert.NotEmpty(t, report.Errors)
}

func TestCheckSchema_MissingColumns(t *testing.T) {
	db, mock := setupMockDB(t)

	rows := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"})
	rows.AddRow("oid", "varchar(36)", "NO", "PRI", nil, "")
	rows.AddRow("source_provider_uid", "varchar(255)", "NO", "MUL", nil, "")
	rows.AddRow("source_uid", "varchar(1024)", "NO", "", nil, "")
	mock.ExpectQuery("SHOW COLUMNS FROM `mappings`").WillReturnRows(rows)

	report, err := CheckSchema(db, mapping.Mapping{})
	require.NoError(t, err)
	assert.False(t, report.Matched)

	tbl, ok := report.Tables["mappings"]
	require.True(t, ok)
	assert.Equal(t, "error", tbl.Status)
	assert.Contains(t, tbl.MissingColumns, "sink_hash")
	assert.NotContains(t, tbl.MissingColumns, "oid")
}

func TestCheckSchema_TypeMismatch(t *testing.T) {
	db, mock := setupMockDB(t)

	rows := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"})
	rows.AddRow("id", "int(11)", "NO", "PRI", nil, "")
	rows.AddRow("name", "int(11)", "YES", "", "0", "")
	mock.ExpectQuery("SHOW COLUMNS FROM `typed`").WillReturnRows(rows)

	report, err := CheckSchema(db, typedModel{})
	require.NoError(t, err)
	assert.False(t, report.Matched)
	assert.Equal(t, []string{"name: expected varchar(70), got int(11)"}, report.Tables["typed"].TypeMismatches)
}

func TestParseGormTags(t *testing.T) {
	assert.Equal(t, "id", parseGormColumn("column:id;primaryKey"))
	assert.Equal(t, "item_name", parseGormColumn("primaryKey;column:item_name;type:varchar(100)"))
	assert.Equal(t, "int(11)", parseGormType("column:id;type:int(11)"))
	assert.Equal(t, "", parseGormType("column:id"))
	assert.True(t, hasGormFlag("column:id;primaryKey", "primaryKey"))
	assert.False(t, hasGormFlag("column:id;size:36", "primaryKey"))
}

func TestCheckSchema_PrimaryKeyMissing(t *testing.T) {
	db, mock := setupMockDB(t)

	rows := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"})
	rows.AddRow("id", "int(11)", "NO", "", nil, "")
	rows.AddRow("name", "varchar(70)", "YES", "", nil, "")
	mock.ExpectQuery("SHOW COLUMNS FROM `typed`").WillReturnRows(rows)

	report, err := CheckSchema(db, typedModel{})
	require.NoError(t, err)
	assert.False(t, report.Matched)
	assert.Equal(t, []string{"id: expected primary key"}, report.Tables["typed"].TypeMismatches)
}
