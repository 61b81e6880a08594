// Package store persists fetched Horizons tables in SQLite so a restarted
// process does not refetch chunks it already has.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/litescript/ls-synodic/internal/ephem"
)

const schema = `
CREATE TABLE IF NOT EXISTS ephem_chunks (
	body        TEXT    NOT NULL,
	start_ms    INTEGER NOT NULL,
	step_ms     INTEGER NOT NULL,
	row_count   INTEGER NOT NULL,
	fetched_ms  INTEGER NOT NULL,
	PRIMARY KEY (body, start_ms, step_ms)
);

CREATE TABLE IF NOT EXISTS ephem_rows (
	body      TEXT    NOT NULL,
	start_ms  INTEGER NOT NULL,
	step_ms   INTEGER NOT NULL,
	t_ms      INTEGER NOT NULL,
	lon_deg   REAL    NOT NULL,
	lat_deg   REAL    NOT NULL,
	dist_au   REAL    NOT NULL,
	PRIMARY KEY (body, start_ms, step_ms, t_ms),
	FOREIGN KEY (body, start_ms, step_ms) REFERENCES ephem_chunks(body, start_ms, step_ms) ON DELETE CASCADE
);
`

// Store is a SQLite-backed ephem.TableStore.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ ephem.TableStore = (*Store)(nil)

// Open opens (or creates) the database at path and runs migrations.
// ":memory:" gives a private in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Pragmas are per connection and each :memory: connection is its own
	// database, so keep a single connection.
	db.SetMaxOpenConns(1)
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma: %w", err)
		}
	}
	s, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and runs migrations. The caller should limit db
// to one connection so the foreign key pragma applies to every query.
func New(db *sql.DB) (*Store, error) {
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadTable implements ephem.TableStore.
func (s *Store) LoadTable(ctx context.Context, key ephem.TableKey) ([]ephem.TableRow, bool, error) {
	body, startMs, stepMs := keyArgs(key)

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT row_count FROM ephem_chunks WHERE body = ? AND start_ms = ? AND step_ms = ?`,
		body, startMs, stepMs,
	).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load chunk %s@%d: %w", body, startMs, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT t_ms, lon_deg, lat_deg, dist_au FROM ephem_rows
		 WHERE body = ? AND start_ms = ? AND step_ms = ?
		 ORDER BY t_ms`,
		body, startMs, stepMs,
	)
	if err != nil {
		return nil, false, fmt.Errorf("load rows %s@%d: %w", body, startMs, err)
	}
	defer rows.Close()

	out := make([]ephem.TableRow, 0, n)
	for rows.Next() {
		var (
			tMs int64
			r   ephem.TableRow
		)
		if err := rows.Scan(&tMs, &r.LonDeg, &r.LatDeg, &r.DistAU); err != nil {
			return nil, false, fmt.Errorf("scan row: %w", err)
		}
		r.Time = time.UnixMilli(tMs).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate rows: %w", err)
	}
	if len(out) != n {
		// A partial write; treat as absent so the chunk is refetched.
		return nil, false, nil
	}
	return out, true, nil
}

// SaveTable implements ephem.TableStore. Existing rows for key are replaced.
func (s *Store) SaveTable(ctx context.Context, key ephem.TableKey, rows []ephem.TableRow) error {
	body, startMs, stepMs := keyArgs(key)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM ephem_chunks WHERE body = ? AND start_ms = ? AND step_ms = ?`,
		body, startMs, stepMs,
	); err != nil {
		return fmt.Errorf("clear chunk: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ephem_chunks (body, start_ms, step_ms, row_count, fetched_ms) VALUES (?, ?, ?, ?, ?)`,
		body, startMs, stepMs, len(rows), s.now().UnixMilli(),
	); err != nil {
		return fmt.Errorf("insert chunk: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO ephem_rows (body, start_ms, step_ms, t_ms, lon_deg, lat_deg, dist_au)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare rows: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, body, startMs, stepMs, r.Time.UnixMilli(), r.LonDeg, r.LatDeg, r.DistAU); err != nil {
			return fmt.Errorf("insert row %s: %w", r.Time.UTC().Format(time.RFC3339), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Stats summarizes the stored tables.
type Stats struct {
	Chunks int
	Rows   int
}

// Stats counts stored chunks and rows.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ephem_chunks`).Scan(&st.Chunks); err != nil {
		return Stats{}, fmt.Errorf("count chunks: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ephem_rows`).Scan(&st.Rows); err != nil {
		return Stats{}, fmt.Errorf("count rows: %w", err)
	}
	return st, nil
}

// Prune deletes chunks fetched before cutoff and returns how many went.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM ephem_chunks WHERE fetched_ms < ?`,
		cutoff.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}
	return int(n), nil
}

func keyArgs(key ephem.TableKey) (string, int64, int64) {
	return string(key.Body), key.Start.UnixMilli(), key.Step.Milliseconds()
}
