// Package database opens the gorm connection that backs the mapping store.
//
// Driver "sqlite" (default) stores mappings in a local file, ":memory:" in
// tests. Driver "mysql" connects with a DSN built from host, port, user and
// password, bounded by TimeoutSeconds.
//
// GetTableColumns reads the live columns of a table for either dialect
// (PRAGMA table_info or SHOW COLUMNS). The integrity feature compares them
// with the mapping model.
//
//	db, err := database.Connect(cfg.Database)
//	cols, err := database.GetTableColumns(db, "mappings")
package database
