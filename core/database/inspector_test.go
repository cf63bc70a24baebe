package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func TestGetTableColumns(t *testing.T) {
	// Setup In-Memory DB
	cfg := Config{
		Driver: "sqlite",
		Name:   ":memory:",
	}
	db, err := Connect(cfg)
	assert.NoError(t, err)
	assert.NotNil(t, db)

	err = db.Exec("CREATE TABLE test_mappings (oid TEXT PRIMARY KEY, source_uid TEXT, source_mtime DATETIME)").Error
	assert.NoError(t, err)

	columns, err := GetTableColumns(db, "test_mappings")
	assert.NoError(t, err)
	assert.Len(t, columns, 3)

	colMap := make(map[string]ColumnInfo)
	for _, col := range columns {
		colMap[col.Field] = col
	}

	assert.Equal(t, "text", colMap["oid"].Type)
	assert.True(t, colMap["oid"].PrimaryKey)
	assert.False(t, colMap["oid"].Nullable)
	assert.Equal(t, "text", colMap["source_uid"].Type)
	assert.True(t, colMap["source_uid"].Nullable)
	assert.Equal(t, "datetime", colMap["source_mtime"].Type)

	// PRAGMA table_info returns an empty result for a missing table
	cols, err := GetTableColumns(db, "non_existent")
	assert.NoError(t, err)
	assert.Empty(t, cols)
}

func TestGetTableColumns_MySQL(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
		AddRow("OID", "VARCHAR(36)", "NO", "PRI", nil, "").
		AddRow("source_hash", "varchar(255)", "YES", "", nil, "")
	mock.ExpectQuery("SHOW COLUMNS FROM `mappings`").WillReturnRows(rows)

	columns, err := GetTableColumns(db, "mappings")
	require.NoError(t, err)
	require.Len(t, columns, 2)
	assert.Equal(t, "oid", columns[0].Field)
	assert.Equal(t, "varchar(36)", columns[0].Type)
	assert.True(t, columns[0].PrimaryKey)
	assert.False(t, columns[0].Nullable)
	assert.True(t, columns[1].Nullable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTableColumns_InvalidName(t *testing.T) {
	db, err := Connect(Config{Driver: DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)

	_, err = GetTableColumns(db, "mappings'; DROP TABLE x; --")
	assert.Error(t, err)
}
