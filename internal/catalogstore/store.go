// Package catalogstore is the embedded relational store backing the
// module catalog: schema migrations, pragma setup, the MODULE_VERSION
// collation, the per-repository ingest transaction, and derived-data
// recompute.
package catalogstore

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/remind101/migrate"
	_ "modernc.org/sqlite"

	"github.com/lewisfm/camrete/internal/catalogstore/migrations"
	"github.com/lewisfm/camrete/moduleversion"
)

// maxOpenConns bounds the shared connection pool; long operations pin a
// single connection for the duration of a transaction, reads may use any
// connection.
const maxOpenConns = 16

var registerCollationOnce sync.Once

// Store is a handle to the embedded catalog database.
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if necessary) the catalog database at path, applies
// pending migrations, and configures the pragmas and collation spec.md §6
// requires.
func Open(ctx context.Context, path string) (*Store, error) {
	registerCollationOnce.Do(registerModuleVersionCollation)

	dsn := dsnFor(path)
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("catalogstore: open: %w", err)
	}
	sqldb.SetMaxOpenConns(maxOpenConns)

	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("catalogstore: ping: %w", err)
	}

	migrator := migrate.NewMigrator(sqldb)
	migrator.Table = migrations.MigrationTable
	if err := migrator.Exec(migrate.Up, migrations.Migrations...); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("catalogstore: migrate: %w", err)
	}

	if _, err := sqldb.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("catalogstore: wal checkpoint: %w", err)
	}

	return &Store{db: sqlx.NewDb(sqldb, "sqlite")}, nil
}

// Close releases the store's connection pool.
func (s *Store) Close() error { return s.db.Close() }

// dsnFor builds the modernc.org/sqlite DSN with every startup pragma
// spec.md §6 names, so they apply to every connection the pool opens
// (modernc.org/sqlite applies _pragma query parameters per-connection, not
// once globally, which is what's needed here since the pool hands out
// more than one connection).
func dsnFor(path string) string {
	u := url.URL{
		Scheme: "file",
		Opaque: path,
		RawQuery: url.Values{
			"_pragma": {
				"journal_mode(WAL)",
				"synchronous(NORMAL)",
				"busy_timeout(2000)",
				"wal_autocheckpoint(1000)",
				"foreign_keys(ON)",
			},
		}.Encode(),
	}
	return u.String()
}

// registerModuleVersionCollation registers the MODULE_VERSION collation
// with the sqlite driver before any connection is opened. Registration is
// process-wide state in modernc.org/sqlite: it must happen exactly once,
// before the first statement that might sort or index under it runs.
func registerModuleVersionCollation() {
	sqliteRegisterCollation("MODULE_VERSION", func(a, b string) int {
		return moduleversion.Compare(moduleversion.Parse(a), moduleversion.Parse(b))
	})
}
