// ABOUTME: Rewrites one broken file with a complete LLM-generated replacement.
// ABOUTME: A file deleted by a prior fix in the same iteration is a no-op, not an error.

package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tintlab/tint/llm"
)

const buildFixPrompt = `You are a senior frontend developer expert. Your task is to analyze build errors and fix the problematic files.

Your objectives:
1. Analyze the provided build error output to identify the root cause
2. Examine the problematic file content to understand the context
3. Generate a complete corrected version of the file that resolves the build errors
4. Ensure the fix maintains all existing functionality and follows best practices

Key requirements:
- Return COMPLETE file contents (not partial modifications)
- Maintain all imports, exports, and other code structure
- Follow TypeScript/JavaScript best practices
- Ensure compatibility with the project's framework and dependencies
- Keep consistent code formatting and style
- Fix syntax errors, type errors, import issues, and other build-related problems

Response format: Return the complete corrected file content that will resolve the build errors.`

var buildFixSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"fixed_file_content": {
			"type": "string",
			"description": "The complete corrected file content that resolves the build errors"
		}
	},
	"required": ["fixed_file_content"],
	"additionalProperties": false
}`)

// FileFixer replaces one file's content with an LLM-corrected version.
type FileFixer struct {
	Generator ObjectGenerator
	Model     string
	Timeout   time.Duration
}

// Fix reads the file, asks for a complete corrected replacement, and
// atomically swaps it in via temp file + rename. A missing file is a no-op:
// a prior fix in the same iteration may have deleted or renamed it.
func (f *FileFixer) Fix(ctx context.Context, projectRoot, filePath, buildOutput string) error {
	fullPath := filepath.Join(projectRoot, filePath)

	content, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", filePath, err)
	}

	prompt := fmt.Sprintf("%s\n\nFile Path: %s\nFile Content:\n%s\n\nBuild Error Output:\n%s\n\nPlease analyze the build errors and provide the complete corrected file content that will resolve all issues.",
		buildFixPrompt, filePath, content, buildOutput)

	var result struct {
		FixedFileContent string `json:"fixed_file_content"`
	}
	err = f.Generator.GenerateObject(ctx, llm.GenerateOptions{
		Model:   f.Model,
		Prompt:  prompt,
		Timeout: f.Timeout,
	}, "build_error_fix", buildFixSchema, &result)
	if err != nil {
		return fmt.Errorf("fix %s: %w", filePath, err)
	}

	if err := writeFileAtomic(fullPath, []byte(result.FixedFileContent)); err != nil {
		return fmt.Errorf("write %s: %w", filePath, err)
	}
	return nil
}

// writeFileAtomic replaces a file's content via temp file + rename so readers
// never observe a partially written file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
