package state

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
	_ "modernc.org/sqlite"
)

//go:embed migrations/001_initial_schema.sql
var migrationV1 string

// SQLiteRunStore archives finished analysis runs. It backs the run
// history surfaces (CLI and HTTP).
type SQLiteRunStore struct {
	dbPath string
	db     *sql.DB
	mu     sync.RWMutex
}

// NewSQLiteRunStore opens (or creates) the run archive at dbPath.
func NewSQLiteRunStore(dbPath string) (*SQLiteRunStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	// WAL keeps concurrent readers cheap while a run is being archived.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteRunStore{dbPath: dbPath, db: db}
	if err := s.migrate(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("running migrations: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteRunStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteRunStore) migrate() error {
	var version int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		version = 0
	}
	if version < 1 {
		if _, err := s.db.Exec(migrationV1); err != nil {
			return fmt.Errorf("migration 1: %w", err)
		}
	}
	return nil
}

// Save inserts or replaces a run record.
func (s *SQLiteRunStore) Save(ctx context.Context, rec *core.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reportJSON sql.NullString
	if rec.Report != nil {
		data, err := json.Marshal(rec.Report)
		if err != nil {
			return core.ErrState("REPORT_MARSHAL", "serializing terminal report").WithCause(err)
		}
		reportJSON = sql.NullString{String: string(data), Valid: true}
	}

	var completedAt sql.NullString
	if rec.CompletedAt != nil {
		completedAt = sql.NullString{String: rec.CompletedAt.UTC().Format(time.RFC3339Nano), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
		(run_id, owner, repo, pr_number, status, degraded, error, report_json, markdown, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(rec.RunID), rec.Ref.Owner, rec.Ref.Repo, rec.Ref.Number,
		string(rec.Status), boolToInt(rec.Degraded), rec.Error,
		reportJSON, rec.Markdown,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano), completedAt)
	if err != nil {
		return core.ErrState("RUN_SAVE", "persisting run record").WithCause(err)
	}
	return nil
}

// Get returns the record for one run.
func (s *SQLiteRunStore) Get(ctx context.Context, id core.RunID) (*core.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, owner, repo, pr_number, status, degraded, error, report_json, markdown, created_at, completed_at
		FROM runs WHERE run_id = ?`, string(id))

	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrState(core.CodeRunNotFound, "no run with id "+string(id))
	}
	if err != nil {
		return nil, core.ErrState("RUN_LOAD", "loading run record").WithCause(err)
	}
	return rec, nil
}

// List returns the most recent runs, newest first.
func (s *SQLiteRunStore) List(ctx context.Context, limit int) ([]*core.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, owner, repo, pr_number, status, degraded, error, report_json, markdown, created_at, completed_at
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, core.ErrState("RUN_LIST", "listing run records").WithCause(err)
	}
	defer rows.Close()

	var out []*core.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, core.ErrState("RUN_LIST", "scanning run record").WithCause(err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, core.ErrState("RUN_LIST", "iterating run records").WithCause(err)
	}
	return out, nil
}

// Delete removes a run record.
func (s *SQLiteRunStore) Delete(ctx context.Context, id core.RunID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE run_id = ?", string(id))
	if err != nil {
		return core.ErrState("RUN_DELETE", "deleting run record").WithCause(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrState(core.CodeRunNotFound, "no run with id "+string(id))
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*core.RunRecord, error) {
	var rec core.RunRecord
	var runID, status, createdAt string
	var degraded int
	var reportJSON, completedAt sql.NullString

	err := row.Scan(&runID, &rec.Ref.Owner, &rec.Ref.Repo, &rec.Ref.Number,
		&status, &degraded, &rec.Error, &reportJSON, &rec.Markdown, &createdAt, &completedAt)
	if err != nil {
		return nil, err
	}

	rec.RunID = core.RunID(runID)
	rec.Status = core.RunStatus(status)
	rec.Degraded = degraded != 0

	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		rec.CreatedAt = t
	}
	if completedAt.Valid {
		if t, err := time.Parse(time.RFC3339Nano, completedAt.String); err == nil {
			rec.CompletedAt = &t
		}
	}
	if reportJSON.Valid && reportJSON.String != "" {
		var report core.TerminalReport
		if err := json.Unmarshal([]byte(reportJSON.String), &report); err != nil {
			return nil, fmt.Errorf("decoding report: %w", err)
		}
		rec.Report = &report
	}
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
