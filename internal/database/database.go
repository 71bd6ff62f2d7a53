// Package database implements the SQLite backed store of areas and IP
// ranges, including the containment lookup and the spatial index.
package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"os"

	"github.com/ipatlas/ipatlas/internal/model"
	"github.com/mattn/go-sqlite3"
	pkgerrors "github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/upper/db/v4"
	"github.com/upper/db/v4/adapter/sqlite"
	"go.uber.org/multierr"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DefaultBatchSize is the default number of rows written per transaction.
const DefaultBatchSize = 10000

// ErrConflict indicates a row violating a uniqueness constraint.
var ErrConflict = errors.New("database: conflicting row")

// Database is the store. Reads are safe for concurrent use; bulk
// writes must be serialized by the caller.
type Database struct {
	// BatchSize is the number of rows written per transaction. It
	// is initialized to DefaultBatchSize by Open.
	BatchSize int

	logger model.Logger
	path   string
	sess   db.Session
}

// Open opens the database at path, creating an empty file if needed. You
// must call CreateIfAbsent before using a new database.
func Open(path string, logger model.Logger) (*Database, error) {
	sess, err := sqlite.Open(sqlite.ConnectionURL{Database: path})
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "opening %s", path)
	}
	return &Database{
		BatchSize: DefaultBatchSize,
		logger:    model.ValidLoggerOrDefault(logger),
		path:      path,
		sess:      sess,
	}, nil
}

// Path returns the database path.
func (d *Database) Path() string {
	return d.path
}

// sqlDB returns the underlying *sql.DB.
func (d *Database) sqlDB() *sql.DB {
	return d.sess.Driver().(*sql.DB)
}

// CreateIfAbsent runs the pending migrations. It is a no-op on an
// up-to-date database.
func (d *Database) CreateIfAbsent(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	migrations := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationsFS,
		Root:       "migrations",
	}
	n, err := migrate.Exec(d.sqlDB(), "sqlite3", migrations, migrate.Up)
	if err != nil {
		return pkgerrors.Wrap(err, "running migrations")
	}
	d.logger.Debugf("database: performed %d migrations", n)
	return nil
}

// Close closes the database.
func (d *Database) Close() error {
	return d.sess.Close()
}

// Drop closes the database and removes its files.
func (d *Database) Drop() error {
	err := d.Close()
	for _, suffix := range []string{"", "-journal", "-wal", "-shm"} {
		if rerr := os.Remove(d.path + suffix); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			err = multierr.Append(err, rerr)
		}
	}
	return err
}

// ClearAreas deletes every area.
func (d *Database) ClearAreas(ctx context.Context) error {
	return d.exec(ctx, "clearing areas", "DELETE FROM area_points", "DELETE FROM areas")
}

// ClearRanges deletes every IP range.
func (d *Database) ClearRanges(ctx context.Context) error {
	return d.exec(ctx, "clearing ranges", "DELETE FROM ip_ranges")
}

// ClearProviderRanges deletes the IP ranges stored under the provider tag.
func (d *Database) ClearProviderRanges(ctx context.Context, provider string) error {
	err := d.sess.TxContext(ctx, func(tx db.Session) error {
		return tx.Collection("ip_ranges").Find(db.Cond{"provider": provider}).Delete()
	}, nil)
	return pkgerrors.Wrapf(err, "clearing %s ranges", provider)
}

// exec runs the queries inside a single transaction.
func (d *Database) exec(ctx context.Context, what string, queries ...string) error {
	err := d.sess.TxContext(ctx, func(tx db.Session) error {
		for _, query := range queries {
			if _, err := tx.SQL().ExecContext(ctx, query); err != nil {
				return err
			}
		}
		return nil
	}, nil)
	return pkgerrors.Wrap(err, what)
}

// classify maps driver errors onto this package's errors.
func classify(err error) error {
	var serr sqlite3.Error
	if errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint {
		return multierr.Combine(ErrConflict, err)
	}
	return err
}
