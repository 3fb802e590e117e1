// Package database handles database connections.
//
// It provides a wrapper around GORM that configures MySQL connections for
// production use and sqlite connections for tests and one-shot CLI runs.
// The lock manager and both ledgers rely on single-statement conditional
// UPDATEs, so everything in this repository works identically on either
// driver.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database
