package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"go-sheet-pipeline/internal/model"
)

// ErrRunNotFound is returned for unknown run IDs.
var ErrRunNotFound = errors.New("run not found")

// DB is the run log: run status, per-source failures and summary counts.
// Records and aggregates are never stored.
type DB struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	view TEXT,
	spec TEXT,
	status TEXT,
	error TEXT,
	created_at DATETIME,
	updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS run_failures (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT,
	tag TEXT,
	url TEXT,
	kind TEXT,
	message TEXT,
	created_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_run_failures_run ON run_failures(run_id);
CREATE TABLE IF NOT EXISTS run_summary (
	run_id TEXT PRIMARY KEY,
	sources_total INTEGER,
	sources_failed INTEGER,
	records INTEGER,
	deduplicated INTEGER,
	total REAL,
	duration_ms INTEGER,
	created_at DATETIME
);
`

// Open connects to the sqlite file at path and creates the tables.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// one writer; sqlite locks the file anyway
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &DB{db: db}, nil
}

func (s *DB) Close() error { return s.db.Close() }

// CreateRun stores a new pending run.
func (s *DB) CreateRun(ctx context.Context, runID string, spec model.RunSpec) error {
	specJSON, err := json.Marshal(spec)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, view, spec, status, error, created_at, updated_at) VALUES (?, ?, ?, ?, '', ?, ?)`,
		runID, spec.View, string(specJSON), model.StatusPending, now, now)
	return err
}

func (s *DB) UpdateStatus(ctx context.Context, runID, status string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), runID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// SaveError records why a run failed.
func (s *DB) SaveError(ctx context.Context, runID string, err error) error {
	if err == nil {
		return nil
	}
	_, e := s.db.ExecContext(ctx, `UPDATE runs SET error = ?, updated_at = ? WHERE id = ?`,
		err.Error(), time.Now().UTC(), runID)
	return e
}

// SaveFailures replaces the run's per-source failures.
func (s *DB) SaveFailures(ctx context.Context, runID string, fs []model.SourceFailure) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM run_failures WHERE run_id = ?`, runID); err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, f := range fs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_failures (run_id, tag, url, kind, message, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			runID, f.Tag, f.URL, string(f.Kind), f.Message, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *DB) SaveSummary(ctx context.Context, runID string, sum model.RunSummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_summary (run_id, sources_total, sources_failed, records, deduplicated, total, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			sources_total = excluded.sources_total,
			sources_failed = excluded.sources_failed,
			records = excluded.records,
			deduplicated = excluded.deduplicated,
			total = excluded.total,
			duration_ms = excluded.duration_ms`,
		runID, sum.SourcesTotal, sum.SourcesFailed, sum.Records, sum.Deduplicated, sum.Total,
		sum.Duration.Milliseconds(), time.Now().UTC())
	return err
}

// ListRuns returns every run, newest first, without specs.
func (s *DB) ListRuns(ctx context.Context) ([]model.RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.view, r.status, r.error, r.created_at, r.updated_at,
		       m.sources_total, m.sources_failed, m.records, m.deduplicated, m.total, m.duration_ms
		FROM runs r LEFT JOIN run_summary m ON m.run_id = r.id
		ORDER BY r.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []model.RunInfo{}
	for rows.Next() {
		info, err := scanRun(rows, nil)
		if err != nil {
			return nil, err
		}
		runs = append(runs, info)
	}
	return runs, rows.Err()
}

// GetRun fetches one run with its spec and summary.
func (s *DB) GetRun(ctx context.Context, runID string) (model.RunInfo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT r.id, r.view, r.status, r.error, r.created_at, r.updated_at,
		       m.sources_total, m.sources_failed, m.records, m.deduplicated, m.total, m.duration_ms,
		       r.spec
		FROM runs r LEFT JOIN run_summary m ON m.run_id = r.id
		WHERE r.id = ?`, runID)
	var specJSON string
	info, err := scanRun(row, &specJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return info, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return info, err
	}
	var spec model.RunSpec
	if err := json.Unmarshal([]byte(specJSON), &spec); err != nil {
		return info, fmt.Errorf("decode spec: %w", err)
	}
	info.Spec = &spec
	return info, nil
}

func (s *DB) GetFailures(ctx context.Context, runID string) ([]model.SourceFailure, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tag, url, kind, message FROM run_failures WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.SourceFailure{}
	for rows.Next() {
		var f model.SourceFailure
		var kind string
		if err := rows.Scan(&f.Tag, &f.URL, &kind, &f.Message); err != nil {
			return nil, err
		}
		f.Kind = model.ErrorKind(kind)
		out = append(out, f)
	}
	return out, rows.Err()
}

// FailInterrupted marks runs left unfinished by a previous process as failed.
func (s *DB) FailInterrupted(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, error = 'interrupted by restart', updated_at = ?
		WHERE status NOT IN (?, ?, ?)`,
		model.StatusFailed, time.Now().UTC(), model.StatusCompleted, model.StatusFailed, model.StatusCancelled)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner, specJSON *string) (model.RunInfo, error) {
	var (
		info                                       model.RunInfo
		view, errMsg                               sql.NullString
		total                                      sql.NullFloat64
		srcTotal, srcFailed, records, dedup, durMs sql.NullInt64
	)
	dest := []any{&info.ID, &view, &info.Status, &errMsg, &info.CreatedAt, &info.UpdatedAt,
		&srcTotal, &srcFailed, &records, &dedup, &total, &durMs}
	if specJSON != nil {
		dest = append(dest, specJSON)
	}
	if err := sc.Scan(dest...); err != nil {
		return info, err
	}
	info.View, info.Error = view.String, errMsg.String
	if srcTotal.Valid {
		info.Summary = &model.RunSummary{
			SourcesTotal:  int(srcTotal.Int64),
			SourcesFailed: int(srcFailed.Int64),
			Records:       int(records.Int64),
			Deduplicated:  int(dedup.Int64),
			Total:         total.Float64,
			Duration:      time.Duration(durMs.Int64) * time.Millisecond,
		}
	}
	return info, nil
}
