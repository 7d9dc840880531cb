// Package database provides SQLite persistence for Lumen Core.
//
// It wraps database/sql with connection configuration suited to
// embedded deployments (WAL mode, busy timeout, single-writer pool)
// and a small migration runner driven by embedded SQL files.
//
// # Migrations
//
// Migration files live in the top-level migrations/ directory and are
// embedded into the binary. Filenames follow the pattern:
//
//	YYYYMMDD_HHMMSS_description.up.sql
//	YYYYMMDD_HHMMSS_description.down.sql
//
// Applied versions are tracked in the schema_migrations table. Each
// migration runs in its own transaction.
//
// # Usage
//
//	db, err := database.Open(database.Config{
//	    Path:        "/var/lib/lumen/lumen.db",
//	    WALMode:     true,
//	    BusyTimeout: 5,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
