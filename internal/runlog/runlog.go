// Package runlog persists completed harness runs to SQLite so regressions
// can be traced back to the run that first caught them.
package runlog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mirrorlab/reflcheck/internal/harness"
)

//go:embed schema.sql
var schemaSQL string

// Clock supplies run timestamps. Injected so tests get deterministic rows.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Store provides durable storage for harness run outcomes.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db    *sql.DB
	clock Clock
}

// Run is one recorded harness run.
type Run struct {
	ID        string    `json:"id"`
	Suite     string    `json:"suite"`
	StartedAt time.Time `json:"started_at"`
	Pass      bool      `json:"pass"`
	Failure   string    `json:"failure,omitempty"`
}

// CheckRow is one recorded check outcome within a run.
type CheckRow struct {
	Ordinal  int    `json:"ordinal"`
	Label    string `json:"label"`
	Scaled   int64  `json:"scaled"`
	Expected int64  `json:"expected"`
	Pass     bool   `json:"pass"`
}

// Open creates or opens a run log database at the given path.
// Applies required pragmas and the schema automatically; idempotent.
func Open(path string) (*Store, error) {
	return OpenWithClock(path, systemClock{})
}

// OpenWithClock is Open with an explicit clock.
func OpenWithClock(path string, clock Clock) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run log: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to run log: %w", err)
	}

	// Single writer avoids SQLITE_BUSY under concurrent invocations.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, clock: clock}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// WriteReport records a finished run and returns the stored row.
// Run ids are UUIDv7 so lexical order follows creation order.
func (s *Store) WriteReport(ctx context.Context, report *harness.Report) (Run, error) {
	run := Run{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Suite:     report.Suite,
		StartedAt: s.clock.Now().UTC(),
		Pass:      report.Pass,
	}
	if report.Failure != nil {
		run.Failure = fmt.Sprintf("%s: got %d, expected %s",
			report.Failure.Label, report.Failure.Scaled, report.Failure.ExpectedDecimal)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, suite, started_at, pass, failure)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.Suite, run.StartedAt.Format(time.RFC3339Nano), boolToInt(run.Pass), nullIfEmpty(run.Failure))
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}

	for i, c := range report.Checks {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_checks (run_id, ordinal, label, scaled, expected, pass)
			VALUES (?, ?, ?, ?, ?, ?)
		`, run.ID, i, c.Label, c.Scaled, c.Expected, boolToInt(c.Pass))
		if err != nil {
			return Run{}, fmt.Errorf("write run check %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first. A limit of 0 means
// no limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, suite, started_at, pass, failure FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns one run and its check rows.
func (s *Store) GetRun(ctx context.Context, id string) (Run, []CheckRow, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, suite, started_at, pass, failure FROM runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return Run{}, nil, fmt.Errorf("get run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ordinal, label, scaled, expected, pass
		FROM run_checks WHERE run_id = ? ORDER BY ordinal
	`, id)
	if err != nil {
		return Run{}, nil, fmt.Errorf("get run checks: %w", err)
	}
	defer rows.Close()

	var checks []CheckRow
	for rows.Next() {
		var c CheckRow
		var pass int
		if err := rows.Scan(&c.Ordinal, &c.Label, &c.Scaled, &c.Expected, &pass); err != nil {
			return Run{}, nil, fmt.Errorf("get run checks: %w", err)
		}
		c.Pass = pass != 0
		checks = append(checks, c)
	}
	return run, checks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var startedAt string
	var pass int
	var failure sql.NullString
	if err := row.Scan(&run.ID, &run.Suite, &startedAt, &pass, &failure); err != nil {
		return Run{}, err
	}

	t, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return Run{}, fmt.Errorf("bad started_at %q: %w", startedAt, err)
	}
	run.StartedAt = t
	run.Pass = pass != 0
	run.Failure = failure.String
	return run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
