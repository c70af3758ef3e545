// Package database provides SQLite connectivity for the NGSI bridge.
//
// It manages the connection used by the device directory and the command
// queue, with WAL mode for concurrent reads, a busy timeout to avoid lock
// errors, and embedded schema migrations applied at startup.
//
// All queries use parameterised statements, and the database file is
// created with 0600 permissions.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
