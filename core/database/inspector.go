package database

import (
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ColumnInfo describes one live column. Names and types are lower-cased.
type ColumnInfo struct {
	Field      string
	Type       string
	Nullable   bool
	PrimaryKey bool
}

// GetTableColumns lists the columns of tableName as the database reports
// them. A missing table yields no columns and no error.
func GetTableColumns(db *gorm.DB, tableName string) ([]ColumnInfo, error) {
	if !tableNamePattern.MatchString(tableName) {
		return nil, fmt.Errorf("invalid table name %q", tableName)
	}

	var (
		columns []ColumnInfo
		err     error
	)
	if db.Dialector.Name() == DriverSQLite {
		columns, err = sqliteColumns(db, tableName)
	} else {
		columns, err = mysqlColumns(db, tableName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
	}
	return columns, nil
}

// sqliteColumn is one row of PRAGMA table_info.
type sqliteColumn struct {
	Cid     int
	Name    string
	Type    string
	Notnull int
	Pk      int
}

// mysqlColumn is one row of SHOW COLUMNS.
type mysqlColumn struct {
	Field string
	Type  string
	Null  string
	Key   string
}

func sqliteColumns(db *gorm.DB, tableName string) ([]ColumnInfo, error) {
	var rows []sqliteColumn
	if err := db.Raw(fmt.Sprintf("PRAGMA table_info('%s')", tableName)).Scan(&rows).Error; err != nil {
		return nil, err
	}

	columns := make([]ColumnInfo, 0, len(rows))
	for _, r := range rows {
		columns = append(columns, ColumnInfo{
			Field:      strings.ToLower(r.Name),
			Type:       strings.ToLower(r.Type),
			Nullable:   r.Notnull == 0 && r.Pk == 0,
			PrimaryKey: r.Pk > 0,
		})
	}
	return columns, nil
}

func mysqlColumns(db *gorm.DB, tableName string) ([]ColumnInfo, error) {
	// SHOW COLUMNS keeps the exact type strings, e.g. varchar(255).
	var rows []mysqlColumn
	if err := db.Raw(fmt.Sprintf("SHOW COLUMNS FROM `%s`", tableName)).Scan(&rows).Error; err != nil {
		return nil, err
	}

	columns := make([]ColumnInfo, 0, len(rows))
	for _, r := range rows {
		columns = append(columns, ColumnInfo{
			Field:      strings.ToLower(r.Field),
			Type:       strings.ToLower(r.Type),
			Nullable:   strings.EqualFold(r.Null, "YES"),
			PrimaryKey: strings.EqualFold(r.Key, "PRI"),
		})
	}
	return columns, nil
}
