// Package runlog records tracking-run history in SQLite. Each completed run
// becomes one row with its counters and final state, giving an audit trail of
// when checks happened and what they found. Serve mode also watches this
// database to learn when a cron-driven run finished.
package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hazyhaar/legiswatch/dbopen"
	"github.com/hazyhaar/legiswatch/tracker/run"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	started_at    TEXT NOT NULL,
	finished_at   TEXT NOT NULL,
	state         TEXT NOT NULL,
	bills_tracked INTEGER NOT NULL,
	bills_fetched INTEGER NOT NULL,
	bills_missing INTEGER NOT NULL,
	changes       INTEGER NOT NULL,
	error         TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`

// Entry is one recorded run.
type Entry struct {
	RunID        string    `json:"run_id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	State        run.State `json:"state"`
	BillsTracked int       `json:"bills_tracked"`
	BillsFetched int       `json:"bills_fetched"`
	BillsMissing int       `json:"bills_missing"`
	Changes      int       `json:"changes"`
	Error        string    `json:"error,omitempty"`
}

// defaultRetention caps the runs table. At one run per hour that is well
// over a month of history.
const defaultRetention = 1000

// Store persists run history.
type Store struct {
	db        *sql.DB
	retention int
}

// Option customises a Store.
type Option func(*Store)

// WithRetention sets how many runs Record keeps. Default: 1000.
func WithRetention(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.retention = n
		}
	}
}

// Open opens (or creates) the run-history database at path.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(schema))
	if err != nil {
		return nil, fmt.Errorf("runlog: %w", err)
	}
	return New(db, opts...), nil
}

// New wraps an already-open database. The schema must be applied by the
// caller (dbopen.WithSchema(runlog.Schema())).
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, retention: defaultRetention}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Schema returns the DDL for the runs table, for use with dbopen.WithSchema.
func Schema() string { return schema }

// DB exposes the underlying handle so serve mode can watch it for changes.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Record inserts one row for a finished run and applies retention, so the
// table stays bounded under cron or interval scheduling without a separate
// maintenance job. runErr is the run's failure cause, nil for a successful
// run.
func (s *Store) Record(ctx context.Context, res *run.Result, runErr error) error {
	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	}
	err := dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO runs (run_id, started_at, finished_at, state,
				bills_tracked, bills_fetched, bills_missing, changes, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			res.RunID,
			res.StartedAt.UTC().Format(time.RFC3339Nano),
			res.FinishedAt.UTC().Format(time.RFC3339Nano),
			string(res.State),
			res.Tracked(),
			res.Fetched(),
			len(res.Missing),
			len(res.Changes),
			errText,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("runlog: record run %s: %w", res.RunID, err)
	}
	if _, err := s.Cleanup(ctx, s.retention); err != nil {
		return err
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, started_at, finished_at, state,
			bills_tracked, bills_fetched, bills_missing, changes, error
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("runlog: query recent: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var started, finished, state string
		if err := rows.Scan(&e.RunID, &started, &finished, &state,
			&e.BillsTracked, &e.BillsFetched, &e.BillsMissing, &e.Changes, &e.Error); err != nil {
			return nil, fmt.Errorf("runlog: scan: %w", err)
		}
		e.State = run.State(state)
		if e.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("runlog: parse started_at: %w", err)
		}
		if e.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("runlog: parse finished_at: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Cleanup deletes all but the newest keep runs. Returns the number deleted.
func (s *Store) Cleanup(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		keep = 1000
	}
	res, err := dbopen.Exec(ctx, s.db, `
		DELETE FROM runs WHERE run_id NOT IN (
			SELECT run_id FROM runs ORDER BY started_at DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("runlog: cleanup: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("runlog: cleanup rows affected: %w", err)
	}
	return n, nil
}
