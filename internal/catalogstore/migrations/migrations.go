// Package migrations holds the embedded forward migrations that create
// the catalog schema, applied once at store-open time.
package migrations

import (
	"database/sql"
	"embed"

	"github.com/remind101/migrate"
)

// MigrationTable is the name of the bookkeeping table migrate uses to
// track which migrations have been applied.
const MigrationTable = "camrete_migrations"

//go:embed *.sql
var fs embed.FS

func runFile(n string) func(*sql.Tx) error {
	b, err := fs.ReadFile(n)
	return func(tx *sql.Tx) error {
		if err != nil {
			return err
		}
		if _, execErr := tx.Exec(string(b)); execErr != nil {
			return execErr
		}
		return nil
	}
}

// Migrations is the ordered set of forward migrations applied to a fresh
// or existing catalog database.
var Migrations = []migrate.Migration{
	{
		ID: 1,
		Up: runFile("001_init.sql"),
	},
}
