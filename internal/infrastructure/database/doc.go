// Package database provides the SQLite connection behind the cycle journal.
//
// This package manages:
//   - Database connection with WAL mode and a busy timeout
//   - Forward-only schema migrations read from an fs.FS
//   - Health checks
//
// Usage:
//
//	db, err := database.Open(cfg.Journal)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if _, err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// The database file is created with 0600 permissions. All queries use
// parameterised statements.
package database
