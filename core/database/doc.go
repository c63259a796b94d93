// Package database handles database connections and schema inspection.
//
// It wraps GORM to configure MySQL and SQLite connections from the
// application's configuration.
//
// # Connect
//
// Connect opens the configured driver, applies pool settings and pings the
// server. SQLite connections are limited to one so that ":memory:" databases
// behave as a single database.
//
// # Schema Inspection
//
// GetTableColumns reads a live table's column definitions (SHOW COLUMNS on
// MySQL, pragma_table_info on SQLite). The relational backend builds its
// dataset schema from them and never alters the table.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	columns, err := database.GetTableColumns(ctx, db, "users")
package database
