// Package database opens the gorm connection of the fake tracker and inspects
// its schema.
//
// # Connect
//
// Connect selects the dialector from Config.Driver: sqlite (a file path, or
// ":memory:" for tests) or mysql. The connection is pinged before it is
// returned.
//
// # Schema Inspection
//
// GetTableColumns lists a table's columns through PRAGMA table_info on sqlite
// and SHOW COLUMNS on mysql. The fake tracker's health check compares them to
// its models.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    return err
//	}
//
//	columns, err := database.GetTableColumns(db, "bugs")
package database
