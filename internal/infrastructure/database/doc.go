// Package database provides the node's local SQLite database.
//
// The database holds the operational journal (see package audit). It is
// opened once at start, migrated from the SQL files embedded by package
// migrations, and closed on shutdown.
//
// Usage:
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are forward-only: YYYYMMDD_HHMMSS_description.up.sql, applied
// in version order, each in its own transaction.
package database
