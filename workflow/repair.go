// ABOUTME: Bounded build-repair loop alternating build attempts and LLM-assisted file fixes.
// ABOUTME: Terminates on build success or after MaxIterations attempts with an exhaustion error.

package workflow

import (
	"context"
	"fmt"
	"log"
)

// DefaultMaxFixIterations bounds the repair loop when no limit is configured.
const DefaultMaxFixIterations = 20

// Extractor identifies error files in build output.
type Extractor interface {
	Extract(ctx context.Context, buildOutput string) ([]string, error)
}

// Fixer rewrites one broken file.
type Fixer interface {
	Fix(ctx context.Context, projectRoot, filePath, buildOutput string) error
}

// BuildAttempt records one build invocation. Transient; drives loop
// continuation only and is never persisted.
type BuildAttempt struct {
	Iteration int
	Success   bool
	Stdout    string
	Stderr    string
}

// FixResult records the outcome of one file fix within an iteration. A failed
// fix never aborts the batch; the caller decides whether failures escalate.
type FixResult struct {
	File string
	Err  error
}

// RepairLoop runs the build command repeatedly, extracting and fixing error
// files between failed attempts.
type RepairLoop struct {
	Runner        Runner
	Extractor     Extractor
	Fixer         Fixer
	MaxIterations int
	Events        EventSink
}

// Run executes the repair loop in dir. An optional lint-fix command runs once
// before the loop, best-effort. Each iteration runs the build; on failure the
// error files are extracted and fixed one by one, isolating per-file failures.
// An extraction that fails or returns no files still consumes the iteration.
// Exhausting MaxIterations without a successful build returns
// BuildMaxIterationsError.
func (r *RepairLoop) Run(ctx context.Context, dir string, analysis ProjectAnalysis) error {
	if analysis.BuildCommand == "" {
		return fmt.Errorf("no build command available for this project")
	}

	maxIterations := r.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxFixIterations
	}

	if analysis.ESLintFixCommand != "" {
		log.Printf("running lint fix: %s", analysis.ESLintFixCommand)
		res, err := r.Runner.Run(ctx, analysis.ESLintFixCommand, dir)
		if err != nil {
			log.Printf("lint fix could not run, continuing: %v", err)
		} else if !res.Success {
			log.Printf("lint fix had issues, continuing: %s", res.Stderr)
		}
	}

	// Extraction returning zero files still consumes an iteration; track how
	// often that happens so stalled runs are visible in the logs.
	noProgress := 0

	for iteration := 1; iteration <= maxIterations; iteration++ {
		emit(r.Events, EventBuildAttempt, "build-repair", map[string]any{
			"iteration": iteration,
			"max":       maxIterations,
		})
		log.Printf("build attempt %d/%d: %s", iteration, maxIterations, analysis.BuildCommand)

		res, err := r.Runner.Run(ctx, analysis.BuildCommand, dir)
		if err != nil {
			return err
		}
		if res.Success {
			emit(r.Events, EventBuildSucceeded, "build-repair", map[string]any{"iteration": iteration})
			return nil
		}

		buildOutput := fmt.Sprintf("STDOUT:\n%s\n\nSTDERR:\n%s", res.Stdout, res.Stderr)
		emit(r.Events, EventBuildFailed, "build-repair", map[string]any{"iteration": iteration})
		log.Printf("build failed on iteration %d", iteration)

		errorFiles, err := r.Extractor.Extract(ctx, buildOutput)
		if err != nil {
			log.Printf("error extraction failed on iteration %d, continuing: %v", iteration, err)
			continue
		}
		if len(errorFiles) == 0 {
			noProgress++
			log.Printf("no error files identified but build still failed (%d stalled iterations)", noProgress)
			continue
		}

		results := make([]FixResult, 0, len(errorFiles))
		for _, file := range errorFiles {
			fixErr := r.Fixer.Fix(ctx, dir, file, buildOutput)
			results = append(results, FixResult{File: file, Err: fixErr})
			if fixErr != nil {
				emit(r.Events, EventFixFailed, "build-repair", map[string]any{"file": file, "error": fixErr.Error()})
				log.Printf("fix failed for %s, continuing batch: %v", file, fixErr)
			} else {
				emit(r.Events, EventFixApplied, "build-repair", map[string]any{"file": file})
			}
		}

		fixed := 0
		for _, fr := range results {
			if fr.Err == nil {
				fixed++
			}
		}
		log.Printf("fixed %d/%d error files in iteration %d", fixed, len(results), iteration)
	}

	return &BuildMaxIterationsError{MaxIterations: maxIterations}
}
