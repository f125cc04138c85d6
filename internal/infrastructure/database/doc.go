// Package database provides SQLite connectivity and schema migrations for vidhub.
//
// This package manages:
//   - Database connection with WAL mode and enforced foreign keys
//   - Schema migrations through goose, sourced from an fs.FS
//   - A WithTx helper for multi-statement operations
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if _, err := db.Migrate(ctx, migrations.FS); err != nil {
//	    log.Fatal(err)
//	}
//
// All queries use parameterised statements. The pool holds a single
// connection, so code running inside WithTx must use the Tx it is given.
package database
