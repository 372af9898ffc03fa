// ABOUTME: Tests for the SQLite run store: lifecycle recording and query ordering.
// ABOUTME: Each test opens a fresh database file in a temp directory.

package workflow

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *RunStore {
	t.Helper()
	store, err := OpenRunStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("OpenRunStore returned error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRunStoreLifecycle(t *testing.T) {
	store := openTestStore(t)
	runID := NewRunID()

	if err := store.RecordStart(runID, "https://github.com/a/b"); err != nil {
		t.Fatalf("RecordStart returned error: %v", err)
	}

	run, err := store.GetRun(runID)
	if err != nil {
		t.Fatalf("GetRun returned error: %v", err)
	}
	if run.Status != "running" {
		t.Errorf("Status = %q, want running", run.Status)
	}
	if run.RepoURL != "https://github.com/a/b" {
		t.Errorf("RepoURL = %q", run.RepoURL)
	}
	if run.FinishedAt != "" {
		t.Errorf("FinishedAt = %q, want empty while running", run.FinishedAt)
	}

	if err := store.RecordStage(runID, "clone", "started", ""); err != nil {
		t.Fatal(err)
	}
	if err := store.RecordStage(runID, "clone", "completed", ""); err != nil {
		t.Fatal(err)
	}
	if err := store.RecordFinish(runID, ""); err != nil {
		t.Fatal(err)
	}

	run, err = store.GetRun(runID)
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != "completed" {
		t.Errorf("Status = %q, want completed", run.Status)
	}
	if run.FinishedAt == "" {
		t.Error("FinishedAt not set after finish")
	}

	stages, err := store.GetStages(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stages) != 2 {
		t.Fatalf("stages = %d, want 2", len(stages))
	}
	if stages[0].Status != "started" || stages[1].Status != "completed" {
		t.Errorf("stage order wrong: %+v", stages)
	}
}

func TestRunStoreRecordsFailure(t *testing.T) {
	store := openTestStore(t)
	runID := NewRunID()

	if err := store.RecordStart(runID, "https://github.com/a/b"); err != nil {
		t.Fatal(err)
	}
	if err := store.RecordFinish(runID, "build fix exceeded maximum iterations: 20"); err != nil {
		t.Fatal(err)
	}

	run, err := store.GetRun(runID)
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != "failed" {
		t.Errorf("Status = %q, want failed", run.Status)
	}
	if run.Error == "" {
		t.Error("Error not recorded")
	}
}

func TestRunStoreListNewestFirst(t *testing.T) {
	store := openTestStore(t)

	first := NewRunID()
	second := NewRunID()
	if err := store.RecordStart(first, "https://github.com/a/one"); err != nil {
		t.Fatal(err)
	}
	if err := store.RecordStart(second, "https://github.com/a/two"); err != nil {
		t.Fatal(err)
	}

	runs, err := store.ListRuns()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	if runs[0].ID != second {
		t.Errorf("runs[0].ID = %q, want most recent run %q", runs[0].ID, second)
	}
}

func TestRunStoreGetMissingRun(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetRun("nonexistent")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}
