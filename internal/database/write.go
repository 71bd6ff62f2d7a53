package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ipatlas/ipatlas/internal/model"
	"github.com/ipatlas/ipatlas/internal/runtimex"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/multierr"
)

// AddAreas writes the areas in batches. The spatial index entry of a
// populated place is written in the same transaction as its row.
func (d *Database) AddAreas(ctx context.Context, areas []model.Area, progress model.ProgressFunc) error {
	rows := make([]*areaRow, 0, len(areas))
	for _, area := range areas {
		row, err := newAreaRow(area)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	insertArea := fmt.Sprintf("INSERT INTO areas (%s) VALUES (%s)",
		strings.Join(areaColumns, ", "), placeholders(len(areaColumns)))
	const insertPoint = "INSERT INTO area_points (id, min_lat, max_lat, min_lon, max_lon) VALUES (?, ?, ?, ?, ?)"
	err := d.bulkLoad(ctx, len(rows), progress, func(ctx context.Context, tx *sql.Tx, batch []int) error {
		areaStmt, err := tx.PrepareContext(ctx, insertArea)
		if err != nil {
			return err
		}
		defer areaStmt.Close()
		pointStmt, err := tx.PrepareContext(ctx, insertPoint)
		if err != nil {
			return err
		}
		defer pointStmt.Close()
		for _, idx := range batch {
			row := rows[idx]
			if _, err := areaStmt.ExecContext(ctx, row.values()...); err != nil {
				return pkgerrors.Wrapf(classify(err), "area %d", row.ID)
			}
			if row.Kind != model.KindPopulatedPlace {
				continue
			}
			lat, lon := row.Latitude.Float64, row.Longitude.Float64
			if _, err := pointStmt.ExecContext(ctx, row.ID, lat, lat, lon, lon); err != nil {
				return pkgerrors.Wrapf(classify(err), "area %d", row.ID)
			}
		}
		return nil
	})
	return pkgerrors.Wrap(err, "adding areas")
}

// AddRanges writes the ranges in batches under the given provider tag.
func (d *Database) AddRanges(ctx context.Context, provider string,
	ranges []model.IPRangeLocation, progress model.ProgressFunc) error {
	rows := make([]*rangeRow, 0, len(ranges))
	for idx := range ranges {
		row, err := newRangeRow(provider, &ranges[idx])
		if err != nil {
			return pkgerrors.Wrapf(err, "adding %s ranges", provider)
		}
		rows = append(rows, row)
	}
	const insertRange = `INSERT INTO ip_ranges
		(start_low, start_high, end_low, end_high, area_id, provider)
		VALUES (?, ?, ?, ?, ?, ?)`
	err := d.bulkLoad(ctx, len(rows), progress, func(ctx context.Context, tx *sql.Tx, batch []int) error {
		stmt, err := tx.PrepareContext(ctx, insertRange)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, idx := range batch {
			row := rows[idx]
			if _, err := stmt.ExecContext(ctx, row.StartLow, row.StartHigh,
				row.EndLow, row.EndHigh, row.AreaID, row.Provider); err != nil {
				return classify(err)
			}
		}
		return nil
	})
	return pkgerrors.Wrapf(err, "adding %s ranges", provider)
}

// batchWriter writes the items whose indexes are in batch.
type batchWriter func(ctx context.Context, tx *sql.Tx, batch []int) error

// bulkLoad calls write once per batch of at most BatchSize indexes in
// [0, total), each batch inside its own transaction, and reports the
// cumulative count after every commit. A failing batch is rolled back
// while the previous ones stay committed.
func (d *Database) bulkLoad(ctx context.Context, total int,
	progress model.ProgressFunc, write batchWriter) (err error) {
	runtimex.Assert(d.BatchSize > 0, "database: invalid batch size: %d", d.BatchSize)
	conn, err := d.sqlDB().Conn(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, conn.Close())
	}()
	restore, err := relaxDurability(ctx, conn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, restore())
	}()
	batch := make([]int, 0, d.BatchSize)
	for start := 0; start < total; start += d.BatchSize {
		batch = batch[:0]
		for idx := start; idx < total && idx < start+d.BatchSize; idx++ {
			batch = append(batch, idx)
		}
		if err := writeBatch(ctx, conn, batch, write); err != nil {
			return err
		}
		progress.Report(start + len(batch))
		d.logger.Debugf("database: committed %d/%d rows", start+len(batch), total)
	}
	return nil
}

// writeBatch runs write inside a transaction.
func writeBatch(ctx context.Context, conn *sql.Conn, batch []int, write batchWriter) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := write(ctx, tx, batch); err != nil {
		return multierr.Append(err, tx.Rollback())
	}
	return tx.Commit()
}

// relaxDurability switches conn to the bulk loading journal and
// synchronous modes. The returned func restores the previous modes and
// must be called before conn returns to the pool.
func relaxDurability(ctx context.Context, conn *sql.Conn) (func() error, error) {
	var journal, synchronous string
	if err := conn.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journal); err != nil {
		return nil, err
	}
	if err := conn.QueryRowContext(ctx, "PRAGMA synchronous").Scan(&synchronous); err != nil {
		return nil, err
	}
	restore := func() error {
		// The load context may be canceled by now.
		ctx := context.Background()
		_, err := conn.ExecContext(ctx, "PRAGMA journal_mode = "+journal)
		_, serr := conn.ExecContext(ctx, "PRAGMA synchronous = "+synchronous)
		return multierr.Append(err, serr)
	}
	if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode = MEMORY"); err != nil {
		return nil, err
	}
	if _, err := conn.ExecContext(ctx, "PRAGMA synchronous = OFF"); err != nil {
		return nil, multierr.Append(err, restore())
	}
	return restore, nil
}

// placeholders returns n comma separated question marks.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
