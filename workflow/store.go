// ABOUTME: SQLite-backed history of pipeline runs and their per-stage outcomes.
// ABOUTME: Records are append-style status updates; the store is never consulted by the pipeline itself.

package workflow

import (
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
)

// RunRecord is one pipeline run as persisted.
type RunRecord struct {
	ID         string
	RepoURL    string
	Status     string
	Error      string
	StartedAt  string
	FinishedAt string
}

// StageRecord is one stage outcome within a run.
type StageRecord struct {
	RunID     string
	Stage     string
	Status    string
	Detail    string
	CreatedAt string
}

// RunStore persists run and stage history in SQLite. The store is a queryable
// record for the status endpoints, not a source of pipeline state.
type RunStore struct {
	db *sql.DB
}

// OpenRunStore opens or creates the run history database at the given path.
func OpenRunStore(path string) (*RunStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			repo_url TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS run_stages (
			run_id TEXT NOT NULL,
			stage TEXT NOT NULL,
			status TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			FOREIGN KEY (run_id) REFERENCES runs(id)
		);`

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &RunStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *RunStore) Close() error {
	return s.db.Close()
}

// NewRunID generates a sortable unique identifier for a run.
func NewRunID() string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// RecordStart inserts a new run in the "running" state.
func (s *RunStore) RecordStart(runID, repoURL string) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (id, repo_url, status, started_at) VALUES (?, ?, 'running', ?)`,
		runID, repoURL, nowRFC3339(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordStage appends a stage outcome for a run.
func (s *RunStore) RecordStage(runID, stage, status, detail string) error {
	_, err := s.db.Exec(
		`INSERT INTO run_stages (run_id, stage, status, detail, created_at) VALUES (?, ?, ?, ?, ?)`,
		runID, stage, status, detail, nowRFC3339(),
	)
	if err != nil {
		return fmt.Errorf("insert run stage: %w", err)
	}
	return nil
}

// RecordFinish marks a run as completed or failed. errMsg is empty on success.
func (s *RunStore) RecordFinish(runID string, errMsg string) error {
	status := "completed"
	if errMsg != "" {
		status = "failed"
	}
	_, err := s.db.Exec(
		`UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		status, errMsg, nowRFC3339(), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// ListRuns returns all runs, newest first.
func (s *RunStore) ListRuns() ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, repo_url, status, error, started_at, finished_at FROM runs ORDER BY rowid DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.RepoURL, &r.Status, &r.Error, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns one run by ID, or sql.ErrNoRows if none exists.
func (s *RunStore) GetRun(runID string) (RunRecord, error) {
	var r RunRecord
	err := s.db.QueryRow(
		`SELECT id, repo_url, status, error, started_at, finished_at FROM runs WHERE id = ?`,
		runID,
	).Scan(&r.ID, &r.RepoURL, &r.Status, &r.Error, &r.StartedAt, &r.FinishedAt)
	if err != nil {
		return RunRecord{}, err
	}
	return r, nil
}

// GetStages returns a run's stage records in insertion order.
func (s *RunStore) GetStages(runID string) ([]StageRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, stage, status, detail, created_at FROM run_stages WHERE run_id = ? ORDER BY rowid`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list run stages: %w", err)
	}
	defer rows.Close()

	var stages []StageRecord
	for rows.Next() {
		var st StageRecord
		if err := rows.Scan(&st.RunID, &st.Stage, &st.Status, &st.Detail, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run stage: %w", err)
		}
		stages = append(stages, st)
	}
	return stages, rows.Err()
}
