// Package database opens and migrates Vigil's SQLite store.
//
// # Purpose
//
// One place that knows how to open the run history database: WAL mode,
// busy timeout, the single-writer pool SQLite wants, and schema
// migrations applied from files embedded in the binary.
//
// # Usage
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// The migrations package registers the embedded SQL via a blank import
// in the main package.
//
// # Migrations
//
// Files are named NNNN_description.up.sql with an optional .down.sql
// partner and apply in version order, one transaction each. Keep
// changes additive: new columns nullable or defaulted, no drops or
// renames, so an old binary can still read a newer database.
package database
