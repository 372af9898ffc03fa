// ABOUTME: End-to-end pipeline orchestration from repo URL to running themed dev server.
// ABOUTME: Stages run in fixed order; known error kinds propagate unchanged, anything else is wrapped with its stage.

package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/tintlab/tint/config"
)

// Workflow holds every stage of the theming pipeline. All collaborators are
// injected so tests can substitute fakes per stage.
type Workflow struct {
	Cloner    Cloner
	Analyzer  *Analyzer
	CSS       *CSSAnalyzer
	Processor *FileProcessor
	Runner    Runner
	Repair    *RepairLoop
	Themes    *ThemeGenerator
	Dev       *DevServer
	Store     *RunStore
	StateDir  string
	Events    EventSink
}

// New assembles a Workflow from configuration and an object generator. The
// store may be nil when run history is not wanted.
func New(cfg config.Config, gen ObjectGenerator, store *RunStore) *Workflow {
	cmdTimeout := time.Duration(cfg.CommandTimeoutSeconds) * time.Second
	llmTimeout := time.Duration(cfg.LLMTimeoutSeconds) * time.Second
	runner := &ShellRunner{Timeout: cmdTimeout}

	w := &Workflow{
		Cloner:   &GitCloner{WorkspaceRoot: cfg.WorkspaceRoot, Runner: runner},
		Analyzer: &Analyzer{Generator: gen, Model: cfg.Model, Timeout: llmTimeout},
		CSS:      &CSSAnalyzer{Generator: gen, Model: cfg.Model, Timeout: llmTimeout},
		Runner:   runner,
		Store:    store,
		StateDir: cfg.StateDir,
	}
	w.Processor = &FileProcessor{Generator: gen, Model: cfg.Model, Timeout: llmTimeout, Workers: cfg.Workers}
	w.Repair = &RepairLoop{
		Runner:        runner,
		Extractor:     &ErrorFileExtractor{Generator: gen, Model: cfg.Model, Timeout: llmTimeout},
		Fixer:         &FileFixer{Generator: gen, Model: cfg.Model, Timeout: llmTimeout},
		MaxIterations: cfg.MaxFixIterations,
	}
	w.Themes = &ThemeGenerator{Generator: gen, Model: cfg.Model, Timeout: llmTimeout}
	w.Dev = &DevServer{Runner: runner, Host: cfg.DevHost, Port: cfg.DevPort}
	return w
}

// RunResult summarizes a completed pipeline run.
type RunResult struct {
	RunID      string
	ProjectDir string
	Themes     []GeneratedTheme
	Server     DevServerInfo
}

// Run executes the full pipeline for one repository URL. Typed errors from
// individual stages propagate unchanged; unexpected errors are wrapped in
// StageError naming the stage they escaped from.
func (w *Workflow) Run(ctx context.Context, repoURL string) (RunResult, error) {
	if _, err := RepoNameFromURL(repoURL); err != nil {
		return RunResult{}, err
	}

	runID := NewRunID()
	result := RunResult{RunID: runID}

	events := w.Events
	if w.StateDir != "" {
		progress, err := NewProgressLogger(filepath.Join(w.StateDir, runID))
		if err != nil {
			return result, fmt.Errorf("init progress log: %w", err)
		}
		defer progress.Close()
		events = fanOut(progress.HandleEvent, w.Events)
	}

	if w.Store != nil {
		if err := w.Store.RecordStart(runID, repoURL); err != nil {
			return result, fmt.Errorf("record run start: %w", err)
		}
	}

	emit(events, EventPipelineStarted, "", map[string]any{"run_id": runID, "repo_url": repoURL})

	err := w.runStages(ctx, repoURL, events, &result)

	if w.Store != nil {
		errMsg := ""
		if err != nil {
			errMsg = err.Error()
		}
		if recErr := w.Store.RecordFinish(runID, errMsg); recErr != nil {
			log.Printf("record run finish: %v", recErr)
		}
	}

	if err != nil {
		emit(events, EventPipelineFailed, "", map[string]any{"run_id": runID, "error": err.Error()})
		return result, err
	}
	emit(events, EventPipelineCompleted, "", map[string]any{"run_id": runID})
	log.Printf("run summary:\n%s", describeResult(result))
	return result, nil
}

func (w *Workflow) runStages(ctx context.Context, repoURL string, events EventSink, result *RunResult) error {
	var (
		projectDir string
		analysis   ProjectAnalysis
		css        CSSAnalysis
		dirs       ThemeDirs
		backupPath string
	)

	stage := func(name string, fn func() error) error {
		banner(name)
		emit(events, EventStageStarted, name, nil)
		w.recordStage(result.RunID, name, "started", "")
		if err := fn(); err != nil {
			emit(events, EventStageFailed, name, map[string]any{"error": err.Error()})
			w.recordStage(result.RunID, name, "failed", err.Error())
			if isKnownError(err) {
				return err
			}
			return &StageError{Stage: name, Err: err}
		}
		emit(events, EventStageCompleted, name, nil)
		w.recordStage(result.RunID, name, "completed", "")
		return nil
	}

	if err := stage("clone", func() error {
		dir, err := w.Cloner.Clone(ctx, repoURL)
		if err != nil {
			return err
		}
		projectDir = dir
		result.ProjectDir = dir
		return nil
	}); err != nil {
		return err
	}

	if err := stage("analyze", func() error {
		a, err := w.Analyzer.AnalyzeProject(ctx, projectDir)
		if err != nil {
			return err
		}
		if !a.IsFrontend {
			return &NotFrontendError{Dir: projectDir}
		}
		analysis = a
		return nil
	}); err != nil {
		return err
	}

	if err := stage("init-theme-dirs", func() error {
		d, err := InitThemeDirs(projectDir)
		if err != nil {
			return err
		}
		dirs = d
		return nil
	}); err != nil {
		return err
	}

	if err := stage("css-analysis", func() error {
		c, err := w.CSS.AnalyzeCSS(ctx, projectDir)
		if err != nil {
			return err
		}
		css = c
		return nil
	}); err != nil {
		return err
	}

	if err := stage("theme-extraction", func() error {
		w.Processor.Events = events
		return w.Processor.Process(ctx, projectDir, css, analysis)
	}); err != nil {
		return err
	}

	if err := stage("install-deps", func() error {
		res, err := w.Runner.Run(ctx, "npm install", projectDir)
		if err != nil {
			return err
		}
		if !res.Success {
			return &InstallError{Dir: projectDir, Stderr: res.Stderr}
		}
		return nil
	}); err != nil {
		return err
	}

	if err := stage("build-repair", func() error {
		w.Repair.Events = events
		return w.Repair.Run(ctx, projectDir, analysis)
	}); err != nil {
		return err
	}

	if err := stage("backup-css", func() error {
		p, err := BackupMainCSS(projectDir, css)
		if err != nil {
			return err
		}
		backupPath = p
		return nil
	}); err != nil {
		return err
	}

	if err := stage("summarize-original", func() error {
		desc, err := w.Themes.Summarize(ctx, backupPath)
		if err != nil {
			return err
		}
		return WriteThemeDescription(filepath.Join(dirs.ThemesDir, "original.json"), desc)
	}); err != nil {
		return err
	}

	if err := stage("theme-generation", func() error {
		w.Themes.Events = events
		themes, err := w.Themes.GenerateVariants(ctx, dirs.ThemesDir, backupPath)
		if err != nil {
			return err
		}
		result.Themes = themes
		return nil
	}); err != nil {
		return err
	}

	if err := stage("free-port", func() error {
		return w.Dev.FreePort(ctx)
	}); err != nil {
		return err
	}

	if err := stage("dev-server", func() error {
		info, err := w.Dev.Start(projectDir, analysis.StartCommand)
		if err != nil {
			return err
		}
		result.Server = info
		return nil
	}); err != nil {
		return err
	}

	return nil
}

// recordStage persists a stage outcome when a store is configured. Store
// failures are logged, never fatal to the pipeline.
func (w *Workflow) recordStage(runID, stage, status, detail string) {
	if w.Store == nil || runID == "" {
		return
	}
	if err := w.Store.RecordStage(runID, stage, status, detail); err != nil {
		log.Printf("record stage %s/%s: %v", stage, status, err)
	}
}

// fanOut composes event sinks, skipping nils.
func fanOut(sinks ...EventSink) EventSink {
	return func(evt Event) {
		for _, s := range sinks {
			if s != nil {
				s(evt)
			}
		}
	}
}

func banner(stage string) {
	log.Printf("%s", strings.Repeat("=", 60))
	log.Printf("stage: %s", stage)
	log.Printf("%s", strings.Repeat("=", 60))
}

// describeResult renders a completed run for log output.
func describeResult(r RunResult) string {
	names := make([]string, 0, len(r.Themes))
	for _, t := range r.Themes {
		names = append(names, t.Filename)
	}
	summary := map[string]any{
		"run_id":      r.RunID,
		"project_dir": r.ProjectDir,
		"themes":      names,
		"dev_server":  fmt.Sprintf("%s:%d (pid %d)", r.Server.Host, r.Server.Port, r.Server.PID),
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", summary)
	}
	return string(data)
}
