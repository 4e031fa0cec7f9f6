// Package resultdb stores benchmark sessions in a SQLite database so runs
// from different machines and days can be compared.
package resultdb

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/LynnColeArt/stencil"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps the results database.
type DB struct {
	*sql.DB
	path string
}

// Open opens or creates the database at path and applies pending migrations.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, stencil.NewIOError("resultdb.Open", "cannot create "+dir, err)
		}
	}
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, stencil.NewIOError("resultdb.Open", "cannot open "+path, err)
	}
	// one writer; sqlite serializes anyway
	sqlDB.SetMaxOpenConns(1)

	db := &DB{DB: sqlDB, path: path}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string { return db.path }

// MigrateUp applies all pending migrations. No change is not an error.
func (db *DB) MigrateUp() error {
	m, err := db.newMigrate()
	if err != nil {
		return err
	}
	// m is not closed: that would close the shared connection
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return stencil.NewIOError("resultdb.MigrateUp", "migration failed", err)
	}
	return nil
}

// Version returns the schema version and dirty flag. An empty database
// reports version 0.
func (db *DB) Version() (uint, bool, error) {
	m, err := db.newMigrate()
	if err != nil {
		return 0, false, err
	}
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func (db *DB) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return m, nil
}

// Session describes one benchmark session.
type Session struct {
	ID      string
	Name    string
	LogFile string
	Created time.Time
}

// RecordSession inserts the session row. Recording the same ID twice is a
// no-op.
func (db *DB) RecordSession(ctx context.Context, s Session) error {
	if s.Created.IsZero() {
		s.Created = time.Now()
	}
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (session_id, name, log_file, created_ns) VALUES (?, ?, ?, ?)`,
		s.ID, s.Name, s.LogFile, s.Created.UnixNano())
	if err != nil {
		return stencil.NewIOError("resultdb.RecordSession", s.ID, err)
	}
	return nil
}

// InsertRun stores one result. Its session must have been recorded.
func (db *DB) InsertRun(ctx context.Context, r stencil.BenchmarkResult) error {
	if r.ID == "" || r.SessionID == "" {
		return stencil.NewInvalidArgError("resultdb.InsertRun", "result has no id or session id")
	}
	var c stencil.HWCounters
	if r.Counters != nil {
		c = *r.Counters
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO runs (
			run_id, session_id, strategy, status, grid_rows, grid_cols, iterations,
			workers, tile_size, duration_ns, ns_per_cell, speedup, checksum,
			bit_identical, error, host, recorded_ns,
			cycles, instructions, cache_references, cache_misses, l1d_read_misses
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SessionID, r.Name, r.Status, r.Rows, r.Cols, r.Iterations,
		r.Workers, r.TileSize, int64(r.Duration), r.NsPerCell, r.Speedup, r.Checksum,
		r.BitIdentical, r.Error, r.Host, r.Timestamp.UnixNano(),
		int64(c.Cycles), int64(c.Instructions), int64(c.CacheReferences), int64(c.CacheMisses), int64(c.L1DMisses))
	if err != nil {
		return stencil.NewIOError("resultdb.InsertRun", r.ID, err)
	}
	return nil
}

const selectRuns = `
	SELECT run_id, session_id, strategy, status, grid_rows, grid_cols, iterations,
		workers, tile_size, duration_ns, ns_per_cell, speedup, checksum,
		bit_identical, error, host, recorded_ns,
		cycles, instructions, cache_references, cache_misses, l1d_read_misses
	FROM runs`

// ListRuns returns the most recent runs, newest first. limit <= 0 returns all.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]stencil.BenchmarkResult, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.QueryContext(ctx, selectRuns+` ORDER BY recorded_ns DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, stencil.NewIOError("resultdb.ListRuns", "query failed", err)
	}
	return scanRuns(rows)
}

// SessionRuns returns the runs of one session in insertion order.
func (db *DB) SessionRuns(ctx context.Context, sessionID string) ([]stencil.BenchmarkResult, error) {
	rows, err := db.QueryContext(ctx, selectRuns+` WHERE session_id = ? ORDER BY recorded_ns, rowid`, sessionID)
	if err != nil {
		return nil, stencil.NewIOError("resultdb.SessionRuns", "query failed", err)
	}
	return scanRuns(rows)
}

// FastestRun returns the quickest passing run of strategy for the given
// problem shape. ok is false when there is none.
func (db *DB) FastestRun(ctx context.Context, strategy string, gridRows, gridCols, iterations int) (r stencil.BenchmarkResult, ok bool, err error) {
	rows, err := db.QueryContext(ctx, selectRuns+`
		WHERE strategy = ? AND status = 'pass' AND grid_rows = ? AND grid_cols = ? AND iterations = ?
		ORDER BY duration_ns LIMIT 1`, strategy, gridRows, gridCols, iterations)
	if err != nil {
		return r, false, stencil.NewIOError("resultdb.FastestRun", "query failed", err)
	}
	runs, err := scanRuns(rows)
	if err != nil || len(runs) == 0 {
		return r, false, err
	}
	return runs[0], true, nil
}

func scanRuns(rows *sql.Rows) ([]stencil.BenchmarkResult, error) {
	defer rows.Close()

	var out []stencil.BenchmarkResult
	for rows.Next() {
		var (
			r          stencil.BenchmarkResult
			durationNs int64
			recordedNs int64
			c          [5]int64
		)
		err := rows.Scan(&r.ID, &r.SessionID, &r.Name, &r.Status, &r.Rows, &r.Cols, &r.Iterations,
			&r.Workers, &r.TileSize, &durationNs, &r.NsPerCell, &r.Speedup, &r.Checksum,
			&r.BitIdentical, &r.Error, &r.Host, &recordedNs,
			&c[0], &c[1], &c[2], &c[3], &c[4])
		if err != nil {
			return nil, stencil.NewIOError("resultdb", "scan failed", err)
		}
		r.Duration = time.Duration(durationNs)
		r.Timestamp = time.Unix(0, recordedNs)
		if c[0] != 0 || c[1] != 0 {
			r.Counters = counters(c)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, stencil.NewIOError("resultdb", "row iteration failed", err)
	}
	return out, nil
}

func counters(v [5]int64) *stencil.HWCounters {
	c := &stencil.HWCounters{
		Cycles:          uint64(v[0]),
		Instructions:    uint64(v[1]),
		CacheReferences: uint64(v[2]),
		CacheMisses:     uint64(v[3]),
		L1DMisses:       uint64(v[4]),
	}
	if c.Cycles > 0 {
		c.IPC = float64(c.Instructions) / float64(c.Cycles)
	}
	if c.CacheReferences > 0 {
		c.CacheMissRate = float64(c.CacheMisses) / float64(c.CacheReferences)
	}
	return c
}
