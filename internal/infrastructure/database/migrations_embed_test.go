package database_test

import (
	// Register the embedded schema files with the database package.
	// This must live in an external test package: the migrations
	// package imports database, so importing it from an in-package
	// test would create an import cycle.
	_ "github.com/edgehaven/ngsi-bridge/migrations"
)
