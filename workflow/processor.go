// ABOUTME: Concurrent per-file theme extraction with a bounded worker pool and single merge step.
// ABOUTME: All-or-nothing writes: one failed file means zero files touch disk.

package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tintlab/tint/llm"
)

// DefaultWorkers bounds concurrent LLM extraction calls. The bound exists to
// respect upstream API rate limits, not CPU parallelism.
const DefaultWorkers = 10

const themeExtractionPrompt = `You are a frontend theme architect. Your task is to analyze a frontend file (TSX/JSX/HTML) and extract all hardcoded colors to create a centralized theme system using CSS custom properties (variables).

Your objectives:
1. Identify ALL hardcoded colors in the provided file including:
   - Hex colors (#ffffff, #000, etc.)
   - RGB/RGBA colors (rgb(255,255,255), rgba(0,0,0,0.5), etc.)
   - HSL/HSLA colors (hsl(0,0%,100%), etc.)
   - Named colors (red, blue, white, black, etc.)
   - Colors in Tailwind classes (text-red-500, bg-blue-600, etc.)
   - Any other color representations

2. For each unique color found:
   - Generate a meaningful CSS variable name (e.g., --primary-color, --text-dark, --bg-light)
   - Replace the hardcoded color in the file with var(--variable-name)
   - Describe the variable additions the main CSS file needs, in plain language

3. Preserve existing CSS variables that are already defined in the main CSS

4. Ensure the modified file maintains the same visual appearance
5. Generate complete file contents (not partial modifications)

Key requirements:
- Return the COMPLETE modified file content
- Do NOT return modified CSS; instead return natural-language instructions describing exactly which variables to add to the main CSS and their values
- Maintain all existing functionality and styling
- Use semantic variable names that describe the color's purpose
- Preserve all imports, exports, and other code structure
- Keep consistent code formatting and style`

var themeExtractionSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"modified_file_content": {
			"type": "string",
			"description": "The complete modified file content with colors replaced by CSS variables"
		},
		"main_css_change_instructions": {
			"type": "string",
			"description": "Natural-language instructions describing the CSS variable additions the main stylesheet needs"
		}
	},
	"required": ["modified_file_content", "main_css_change_instructions"],
	"additionalProperties": false
}`)

const cssMergePrompt = `You are a frontend theme architect. You are given the current content of a project's main CSS file and a combined set of instructions describing CSS custom property (variable) additions collected from processing every frontend source file.

Your objectives:
1. Apply every instruction: add each requested CSS variable definition with its value
2. De-duplicate: where multiple files request the same color, define one shared variable
3. Preserve existing CSS variables and all non-variable rules exactly as they are
4. Group related colors logically in the CSS
5. Return the COMPLETE updated main CSS content`

var cssMergeSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"updated_main_css_content": {
			"type": "string",
			"description": "The complete updated main CSS content with all requested variable definitions"
		}
	},
	"required": ["updated_main_css_content"],
	"additionalProperties": false
}`)

// frontendExtensions are the source file types scanned for hardcoded colors.
var frontendExtensions = []string{".tsx", ".jsx", ".html"}

// ThemeExtraction is the per-file unit of work: a complete file replacement
// plus instructions for the main stylesheet merge.
type ThemeExtraction struct {
	FilePath                  string
	ModifiedFileContent       string `json:"modified_file_content"`
	MainCSSChangeInstructions string `json:"main_css_change_instructions"`
}

// FileProcessor fans per-file extraction calls across a bounded worker pool,
// then issues one merge call over the combined instructions.
type FileProcessor struct {
	Generator ObjectGenerator
	Model     string
	Timeout   time.Duration
	Workers   int
	Events    EventSink
}

// ScanFrontendFiles returns the project's frontend source files (.tsx, .jsx,
// .html), excluding dependency and build directories.
func ScanFrontendFiles(dir string) ([]ScannedFile, error) {
	files, err := scanFiles(dir, func(name string) bool {
		for _, ext := range frontendExtensions {
			if strings.HasSuffix(name, ext) {
				return true
			}
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, &SourceFilesNotFoundError{Dir: dir}
	}
	return files, nil
}

// Process scans the frontend sources, snapshots the main stylesheet once, runs
// one extraction per file across the worker pool, and joins all tasks before
// anything is written. If any task fails, zero files are written and the error
// names every failed file. On full success every modified file is written,
// then one merge call produces the main stylesheet, written exactly once.
func (p *FileProcessor) Process(ctx context.Context, dir string, css CSSAnalysis, analysis ProjectAnalysis) error {
	if !analysis.IsFrontend {
		return &NotFrontendError{Dir: dir}
	}

	files, err := ScanFrontendFiles(dir)
	if err != nil {
		return err
	}

	mainCSSPath := filepath.Join(dir, css.MainCSSPath)
	snapshot, err := os.ReadFile(mainCSSPath)
	if err != nil {
		return &MainCSSNotFoundError{Dir: dir, Path: css.MainCSSPath}
	}
	mainCSS := string(snapshot)

	workers := p.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	results := make([]ThemeExtraction, len(files))
	errs := make([]error, len(files))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, f := range files {
		wg.Add(1)
		go func(i int, f ScannedFile) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			extraction, err := p.extractOne(ctx, dir, f, mainCSS, analysis.UIFrameworksInfo)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = extraction
			emit(p.Events, EventFileProcessed, "theme-extraction", map[string]any{"file": f.Path})
		}(i, f)
	}
	wg.Wait()

	var failed []string
	var failures []string
	for i, err := range errs {
		if err != nil {
			failed = append(failed, files[i].Path)
			failures = append(failures, fmt.Sprintf("%s: %v", files[i].Path, err))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("theme extraction failed for %d of %d files [%s]: %s",
			len(failed), len(files), strings.Join(failed, ", "), strings.Join(failures, "; "))
	}

	// All tasks succeeded: write every modified file.
	for _, r := range results {
		if err := writeFileAtomic(filepath.Join(dir, r.FilePath), []byte(r.ModifiedFileContent)); err != nil {
			return fmt.Errorf("write modified file %s: %w", r.FilePath, err)
		}
	}

	// One merge call over the labeled concatenation of all instructions, then
	// the single main stylesheet write.
	var combined strings.Builder
	for _, r := range results {
		fmt.Fprintf(&combined, "File: %s\nInstructions:\n%s\n\n", r.FilePath, r.MainCSSChangeInstructions)
	}

	merged, err := p.mergeMainCSS(ctx, mainCSS, combined.String())
	if err != nil {
		return err
	}
	if err := writeFileAtomic(mainCSSPath, []byte(merged)); err != nil {
		return fmt.Errorf("write main CSS %s: %w", css.MainCSSPath, err)
	}
	return nil
}

// extractOne issues the per-file extraction call against the shared main CSS snapshot.
func (p *FileProcessor) extractOne(ctx context.Context, dir string, f ScannedFile, mainCSS, frameworksInfo string) (ThemeExtraction, error) {
	prompt := fmt.Sprintf(`%s

Project Information:
- Directory: %s
- UI Frameworks: %s

File to Process: %s
File Content:
%s

Current Main CSS Content:
%s

Please analyze this file and extract all hardcoded colors to CSS variables. Return the complete modified file content and the main CSS change instructions.`,
		themeExtractionPrompt, dir, frameworksInfo, f.Path, f.Content, mainCSS)

	var extraction ThemeExtraction
	err := p.Generator.GenerateObject(ctx, llm.GenerateOptions{
		Model:   p.Model,
		Prompt:  prompt,
		Timeout: p.Timeout,
	}, "theme_extraction", themeExtractionSchema, &extraction)
	if err != nil {
		return ThemeExtraction{}, err
	}
	extraction.FilePath = f.Path
	return extraction, nil
}

// mergeMainCSS issues the single aggregation call producing the final stylesheet.
func (p *FileProcessor) mergeMainCSS(ctx context.Context, mainCSS, combinedInstructions string) (string, error) {
	prompt := fmt.Sprintf(`%s

Current Main CSS Content:
%s

Combined Change Instructions:
%s

Please apply all instructions and return the complete updated main CSS content.`,
		cssMergePrompt, mainCSS, combinedInstructions)

	var result struct {
		UpdatedMainCSSContent string `json:"updated_main_css_content"`
	}
	err := p.Generator.GenerateObject(ctx, llm.GenerateOptions{
		Model:   p.Model,
		Prompt:  prompt,
		Timeout: p.Timeout,
	}, "css_merge", cssMergeSchema, &result)
	if err != nil {
		return "", err
	}
	return result.UpdatedMainCSSContent, nil
}
