// ABOUTME: End-to-end orchestrator tests with every external dependency faked.
// ABOUTME: Verifies stage ordering, run recording, and the known-vs-unknown error policy.

package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// fakeCloner materializes a scripted project directory instead of running git.
type fakeCloner struct {
	dir string
	err error
}

func (c *fakeCloner) Clone(ctx context.Context, url string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	return c.dir, nil
}

// eventRecorder collects event types in order.
type eventRecorder struct {
	mu    sync.Mutex
	types []EventType
}

func (r *eventRecorder) sink(evt Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, evt.Type)
}

func (r *eventRecorder) has(typ EventType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.types {
		if t == typ {
			return true
		}
	}
	return false
}

// happyGenerator scripts every LLM interaction of a successful pipeline run.
func happyGenerator() *fakeGenerator {
	gen := newFakeGenerator()
	gen.handler = func(schemaName, prompt string) (string, error) {
		switch schemaName {
		case "frontend_analysis":
			return `{
				"is_frontend_project": true,
				"start_command": "true",
				"build_command": "npm run build",
				"eslint_fix_command": "",
				"ui_frameworks_info": "React"
			}`, nil
		case "css_analysis":
			return `{"main_css_path": "src/index.css"}`, nil
		case "theme_extraction":
			return extractionPayload("/* themed */", "add --brand"), nil
		case "css_merge":
			return `{"updated_main_css_content": ":root { --brand: #ff0000; }"}`, nil
		case "theme_summary":
			return `{"title": "Original", "representative_colors": ["#ffffff"]}`, nil
		case "theme_generation":
			return variantPayload("one", "two", "three", "four", "five"), nil
		default:
			return "", fmt.Errorf("unexpected schema %q", schemaName)
		}
	}
	return gen
}

// pipelineRunner answers every shell invocation of a successful run.
func pipelineRunner() *fakeRunner {
	return &fakeRunner{handler: func(command, dir string) (CommandResult, error) {
		if strings.Contains(command, "lsof") {
			// No listener on the dev port.
			return CommandResult{Success: false, ExitCode: 1}, nil
		}
		return CommandResult{Success: true}, nil
	}}
}

func testWorkflow(t *testing.T, gen *fakeGenerator, runner *fakeRunner, rec *eventRecorder) (*Workflow, string) {
	t.Helper()

	projectDir := t.TempDir()
	writeProjectFile(t, projectDir, "package.json", `{"name": "demo"}`)
	writeProjectFile(t, projectDir, "src/index.css", ":root { --base: #fff; }")
	writeProjectFile(t, projectDir, "src/App.tsx", `<div style={{color: "#ff0000"}} />`)

	store := openTestStore(t)

	w := &Workflow{
		Cloner:    &fakeCloner{dir: projectDir},
		Analyzer:  &Analyzer{Generator: gen, Model: "test"},
		CSS:       &CSSAnalyzer{Generator: gen, Model: "test"},
		Processor: &FileProcessor{Generator: gen, Model: "test", Workers: 2},
		Runner:    runner,
		Repair: &RepairLoop{
			Runner:        runner,
			Extractor:     &ErrorFileExtractor{Generator: gen, Model: "test"},
			Fixer:         &FileFixer{Generator: gen, Model: "test"},
			MaxIterations: 3,
		},
		Themes:   &ThemeGenerator{Generator: gen, Model: "test"},
		Dev:      &DevServer{Runner: runner, Host: "127.0.0.1", Port: 3999},
		Store:    store,
		StateDir: t.TempDir(),
		Events:   rec.sink,
	}
	return w, projectDir
}

func TestWorkflowRunsAllStages(t *testing.T) {
	rec := &eventRecorder{}
	w, projectDir := testWorkflow(t, happyGenerator(), pipelineRunner(), rec)

	result, err := w.Run(context.Background(), "https://github.com/a/demo")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.ProjectDir != projectDir {
		t.Errorf("ProjectDir = %q, want %q", result.ProjectDir, projectDir)
	}
	if len(result.Themes) != VariantCount {
		t.Errorf("themes = %d, want %d", len(result.Themes), VariantCount)
	}
	if result.Server.Port != 3999 {
		t.Errorf("Server.Port = %d, want 3999", result.Server.Port)
	}

	// Theme artifacts on disk.
	themesDir := ThemesDirFor(projectDir)
	for _, name := range []string{"original.css", "original.json", "one.css", "one.json"} {
		if _, err := os.Stat(filepath.Join(themesDir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}

	// Run history.
	run, err := w.Store.GetRun(result.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != "completed" {
		t.Errorf("run status = %q, want completed", run.Status)
	}
	stages, err := w.Store.GetStages(result.RunID)
	if err != nil {
		t.Fatal(err)
	}
	// 12 stages, each recorded as started then completed.
	if len(stages) != 24 {
		t.Errorf("stage records = %d, want 24", len(stages))
	}

	if !rec.has(EventPipelineCompleted) {
		t.Error("pipeline completed event not emitted")
	}

	// Progress artifacts in the state dir.
	if _, err := os.Stat(filepath.Join(w.StateDir, result.RunID, "live.json")); err != nil {
		t.Errorf("missing live.json: %v", err)
	}
}

func TestWorkflowRejectsInvalidURLBeforeAnyStage(t *testing.T) {
	rec := &eventRecorder{}
	w, _ := testWorkflow(t, happyGenerator(), pipelineRunner(), rec)

	_, err := w.Run(context.Background(), "not-a-github-url")
	if err == nil {
		t.Fatal("Run accepted an invalid URL")
	}
	if rec.has(EventPipelineStarted) {
		t.Error("pipeline started despite invalid URL")
	}
	runs, err := w.Store.ListRuns()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("runs recorded = %d, want 0", len(runs))
	}
}

func TestWorkflowKnownErrorsPropagateUnchanged(t *testing.T) {
	gen := happyGenerator()
	inner := gen.handler
	gen.handler = func(schemaName, prompt string) (string, error) {
		if schemaName == "frontend_analysis" {
			return `{
				"is_frontend_project": false,
				"start_command": "",
				"build_command": "",
				"eslint_fix_command": "",
				"ui_frameworks_info": ""
			}`, nil
		}
		return inner(schemaName, prompt)
	}

	rec := &eventRecorder{}
	w, _ := testWorkflow(t, gen, pipelineRunner(), rec)

	_, err := w.Run(context.Background(), "https://github.com/a/demo")
	var feErr *NotFrontendError
	if !errors.As(err, &feErr) {
		t.Fatalf("err = %v, want *NotFrontendError", err)
	}
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		t.Errorf("known error was wrapped in StageError: %v", err)
	}

	run, getErr := w.Store.ListRuns()
	if getErr != nil {
		t.Fatal(getErr)
	}
	if len(run) != 1 || run[0].Status != "failed" {
		t.Errorf("run record = %+v, want one failed run", run)
	}
}

func TestWorkflowUnknownErrorsAreWrappedWithStage(t *testing.T) {
	rec := &eventRecorder{}
	w, _ := testWorkflow(t, happyGenerator(), pipelineRunner(), rec)
	w.Cloner = &fakeCloner{err: errors.New("disk exploded")}

	_, err := w.Run(context.Background(), "https://github.com/a/demo")
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("err = %v, want *StageError", err)
	}
	if stageErr.Stage != "clone" {
		t.Errorf("Stage = %q, want clone", stageErr.Stage)
	}
}

func TestWorkflowInstallFailureIsInstallError(t *testing.T) {
	runner := &fakeRunner{handler: func(command, dir string) (CommandResult, error) {
		if command == "npm install" {
			return CommandResult{Success: false, ExitCode: 1, Stderr: "ERESOLVE"}, nil
		}
		if strings.Contains(command, "lsof") {
			return CommandResult{Success: false, ExitCode: 1}, nil
		}
		return CommandResult{Success: true}, nil
	}}

	rec := &eventRecorder{}
	w, _ := testWorkflow(t, happyGenerator(), runner, rec)

	_, err := w.Run(context.Background(), "https://github.com/a/demo")
	var instErr *InstallError
	if !errors.As(err, &instErr) {
		t.Fatalf("err = %v, want *InstallError", err)
	}
	if !strings.Contains(instErr.Stderr, "ERESOLVE") {
		t.Errorf("Stderr = %q", instErr.Stderr)
	}
}

func TestWorkflowRepairExhaustionStopsPipeline(t *testing.T) {
	gen := happyGenerator()
	inner := gen.handler
	gen.handler = func(schemaName, prompt string) (string, error) {
		if schemaName == "error_file_extraction" {
			return `{"error_files": []}`, nil
		}
		return inner(schemaName, prompt)
	}

	runner := &fakeRunner{handler: func(command, dir string) (CommandResult, error) {
		if command == "npm run build" {
			return CommandResult{Success: false, ExitCode: 1, Stderr: "broken"}, nil
		}
		if strings.Contains(command, "lsof") {
			return CommandResult{Success: false, ExitCode: 1}, nil
		}
		return CommandResult{Success: true}, nil
	}}

	rec := &eventRecorder{}
	w, projectDir := testWorkflow(t, gen, runner, rec)

	_, err := w.Run(context.Background(), "https://github.com/a/demo")
	var maxErr *BuildMaxIterationsError
	if !errors.As(err, &maxErr) {
		t.Fatalf("err = %v, want *BuildMaxIterationsError", err)
	}

	// No theme variants were generated after the failed repair.
	entries, _ := os.ReadDir(ThemesDirFor(projectDir))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".css") {
			t.Errorf("theme artifact %s exists despite repair failure", e.Name())
		}
	}
}
