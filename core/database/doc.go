// Package database handles database connections and schema inspection.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to configure
// the local SQLite store (the default) or an optional MySQL connection based on
// the application's configuration.
//
// # Connect
//
// The generic Connect function establishes a connection to the database. The
// SQLite path keeps a single shared handle; the MySQL path configures pooling
// and I/O timeouts in the DSN.
//
// # Schema Inspection
//
// The package includes tools to inspect the database schema. The store uses
// them after migration to verify the pulls and reservations tables carry the
// expected columns.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	columns, err := database.GetTableColumns(db, "pulls")
package database
