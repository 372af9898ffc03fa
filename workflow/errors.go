// ABOUTME: Typed error kinds for every pipeline failure mode.
// ABOUTME: Each stage raises a narrow error so callers can distinguish wrong-project-type from transient I/O.

package workflow

import (
	"errors"
	"fmt"
)

// CloneError indicates the git clone stage failed.
type CloneError struct {
	URL      string
	Message  string
	ExitCode int
}

func (e *CloneError) Error() string {
	return fmt.Sprintf("clone failed for %s: %s", e.URL, e.Message)
}

// ManifestNotFoundError indicates the project has no package.json.
type ManifestNotFoundError struct {
	Dir string
}

func (e *ManifestNotFoundError) Error() string {
	return fmt.Sprintf("package.json not found in directory: %s", e.Dir)
}

// NotFrontendError indicates analysis classified the project as non-frontend.
type NotFrontendError struct {
	Dir string
}

func (e *NotFrontendError) Error() string {
	return fmt.Sprintf("directory %s is not a frontend project", e.Dir)
}

// InitError indicates the theme directory structure could not be created.
type InitError struct {
	Path    string
	Message string
}

func (e *InitError) Error() string {
	return fmt.Sprintf("failed to initialize %s: %s", e.Path, e.Message)
}

// CSSFilesNotFoundError indicates no CSS files exist under the project root.
type CSSFilesNotFoundError struct {
	Dir string
}

func (e *CSSFilesNotFoundError) Error() string {
	return fmt.Sprintf("no CSS files found in directory: %s", e.Dir)
}

// MainCSSNotFoundError indicates the identified main stylesheet does not exist
// among the scanned CSS files.
type MainCSSNotFoundError struct {
	Dir  string
	Path string
}

func (e *MainCSSNotFoundError) Error() string {
	return fmt.Sprintf("main CSS file %q not found in project: %s", e.Path, e.Dir)
}

// SourceFilesNotFoundError indicates no frontend source files were found.
type SourceFilesNotFoundError struct {
	Dir string
}

func (e *SourceFilesNotFoundError) Error() string {
	return fmt.Sprintf("no frontend files (tsx/jsx/html) found in directory: %s", e.Dir)
}

// InstallError indicates the dependency install command exited non-zero.
type InstallError struct {
	Dir    string
	Stderr string
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("dependency install failed in directory %s: %s", e.Dir, e.Stderr)
}

// BuildMaxIterationsError indicates the repair loop exhausted its iteration budget.
type BuildMaxIterationsError struct {
	MaxIterations int
}

func (e *BuildMaxIterationsError) Error() string {
	return fmt.Sprintf("build fix exceeded maximum iterations: %d", e.MaxIterations)
}

// ThemeGenerationError indicates theme variant generation failed.
type ThemeGenerationError struct {
	Message string
	Cause   error
}

func (e *ThemeGenerationError) Error() string {
	return fmt.Sprintf("theme generation failed: %s", e.Message)
}

func (e *ThemeGenerationError) Unwrap() error { return e.Cause }

// ThemeFileNotFoundError indicates a named theme file does not exist.
type ThemeFileNotFoundError struct {
	Path string
}

func (e *ThemeFileNotFoundError) Error() string {
	return fmt.Sprintf("theme file not found: %s", e.Path)
}

// PortKillError indicates the process occupying the dev server port could not
// be terminated. Distinct from a dev server start failure.
type PortKillError struct {
	Port    int
	Message string
}

func (e *PortKillError) Error() string {
	return fmt.Sprintf("failed to free port %d: %s", e.Port, e.Message)
}

// DevServerError indicates the dev server process could not be started.
type DevServerError struct {
	Message string
	Cause   error
}

func (e *DevServerError) Error() string {
	return fmt.Sprintf("dev server start failed: %s", e.Message)
}

func (e *DevServerError) Unwrap() error { return e.Cause }

// StageError wraps an unexpected error with the stage it escaped from. Known
// error kinds are never wrapped; they propagate unchanged.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %q failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// isKnownError reports whether err is one of the pipeline's typed error kinds.
// The orchestrator re-raises these unchanged instead of wrapping them.
func isKnownError(err error) bool {
	targets := []any{
		new(*CloneError),
		new(*ManifestNotFoundError),
		new(*NotFrontendError),
		new(*InitError),
		new(*CSSFilesNotFoundError),
		new(*MainCSSNotFoundError),
		new(*SourceFilesNotFoundError),
		new(*InstallError),
		new(*BuildMaxIterationsError),
		new(*ThemeGenerationError),
		new(*ThemeFileNotFoundError),
		new(*PortKillError),
		new(*DevServerError),
		new(*StageError),
	}
	for _, t := range targets {
		if errors.As(err, t) {
			return true
		}
	}
	return false
}
