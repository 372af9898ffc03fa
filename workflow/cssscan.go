// ABOUTME: CSS file discovery and main stylesheet identification.
// ABOUTME: Scans the project for .css files and asks the LLM which one is the global entry point.

package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tintlab/tint/llm"
)

const cssAnalysisPrompt = `Please analyze the provided frontend project structure and CSS files to identify the main CSS file.

The main CSS file is typically:
1. Contains global CSS imports like @tailwindcss/base, @tailwindcss/components, @tailwindcss/utilities
2. Contains global reset styles or base styles
3. Is imported at the root level of the application
4. Has the most comprehensive styling definitions
5. Contains CSS custom properties (CSS variables) definitions
6. May be named like main.css, app.css, global.css, index.css, styles.css, etc.

Based on the project structure and CSS file contents provided, determine which CSS file is the main/global CSS file for this project.

If no clear main CSS file is found, return the CSS file that contains the most global styling definitions.

Response requirements:
- main_css_path: The relative path to the main CSS file from the project root`

var cssAnalysisSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"main_css_path": {
			"type": "string",
			"description": "The relative path to the main CSS file from the project root"
		}
	},
	"required": ["main_css_path"],
	"additionalProperties": false
}`)

// excludedDirs are skipped when scanning a project tree.
var excludedDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	".next":        true,
	"dist":         true,
	"build":        true,
	"coverage":     true,
	".vscode":      true,
	".idea":        true,
	".nuxt":        true,
}

// CSSAnalysis identifies the project's main stylesheet. Only the path is kept;
// content is always re-read from disk so consumers see the latest mutation.
type CSSAnalysis struct {
	MainCSSPath string `json:"main_css_path"`
}

// ScannedFile is one file found during a project scan.
type ScannedFile struct {
	Path    string // relative to the project root
	Content string
}

// scanFiles walks the project tree collecting files whose name matches the
// given predicate, skipping excluded directories. Unreadable files are skipped.
func scanFiles(dir string, match func(name string) bool) ([]ScannedFile, error) {
	var files []ScannedFile
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if excludedDirs[d.Name()] && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !match(d.Name()) {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil
		}
		files = append(files, ScannedFile{Path: rel, Content: string(content)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// CSSAnalyzer finds the main stylesheet via one structured LLM call.
type CSSAnalyzer struct {
	Generator ObjectGenerator
	Model     string
	Timeout   time.Duration
}

// AnalyzeCSS scans for CSS files and asks the LLM which one is the main
// stylesheet. The returned path is verified against the scan results; an
// unverifiable answer is a MainCSSNotFoundError.
func (a *CSSAnalyzer) AnalyzeCSS(ctx context.Context, dir string) (CSSAnalysis, error) {
	cssFiles, err := scanFiles(dir, func(name string) bool {
		return strings.HasSuffix(name, ".css")
	})
	if err != nil {
		return CSSAnalysis{}, err
	}
	if len(cssFiles) == 0 {
		return CSSAnalysis{}, &CSSFilesNotFoundError{Dir: dir}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n\nProject directory: %s\n\nCSS Files Found:\n\n", cssAnalysisPrompt, dir)
	for _, f := range cssFiles {
		fmt.Fprintf(&sb, "File: %s\nContent:\n%s\n%s\n\n", f.Path, f.Content, strings.Repeat("-", 80))
	}

	var analysis CSSAnalysis
	err = a.Generator.GenerateObject(ctx, llm.GenerateOptions{
		Model:   a.Model,
		Prompt:  sb.String(),
		Timeout: a.Timeout,
	}, "css_analysis", cssAnalysisSchema, &analysis)
	if err != nil {
		return CSSAnalysis{}, err
	}

	for _, f := range cssFiles {
		if f.Path == analysis.MainCSSPath {
			return analysis, nil
		}
	}
	return CSSAnalysis{}, &MainCSSNotFoundError{Dir: dir, Path: analysis.MainCSSPath}
}
