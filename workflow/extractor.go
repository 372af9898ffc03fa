// ABOUTME: Extracts error file paths from raw build output via one strict-schema LLM call.
// ABOUTME: A valid empty list is distinguishable from extraction failure, which returns an error.

package workflow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tintlab/tint/llm"
)

const errorExtractionPrompt = `You are a build system expert. Your task is to analyze build error output and extract the file paths that have errors.

Your objective:
Examine the provided build error output and identify all file paths that contain errors requiring fixes.

Key requirements:
- Extract relative file paths from error messages
- Include only files that have actual errors (not just warnings)
- Return file paths relative to the project root
- Focus on source files that need to be modified to resolve build errors

Response format: Return a list of file paths that contain errors and need to be fixed.`

var errorExtractionSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"error_files": {
			"type": "array",
			"items": {
				"type": "string"
			},
			"description": "List of file paths that contain build errors and need to be fixed"
		}
	},
	"required": ["error_files"],
	"additionalProperties": false
}`)

// ErrorFileExtractor turns build failure text into candidate file paths.
type ErrorFileExtractor struct {
	Generator ObjectGenerator
	Model     string
	Timeout   time.Duration
}

// Extract returns the file paths the LLM identifies in the build output, in
// the order returned, without deduplication. An empty slice with a nil error
// means the LLM found zero error files; any protocol failure is an error.
func (e *ErrorFileExtractor) Extract(ctx context.Context, buildOutput string) ([]string, error) {
	prompt := errorExtractionPrompt +
		"\n\nBuild Error Output:\n" + buildOutput +
		"\n\nPlease analyze this build output and extract all file paths that contain errors requiring fixes."

	var result struct {
		ErrorFiles []string `json:"error_files"`
	}
	err := e.Generator.GenerateObject(ctx, llm.GenerateOptions{
		Model:   e.Model,
		Prompt:  prompt,
		Timeout: e.Timeout,
	}, "error_file_extraction", errorExtractionSchema, &result)
	if err != nil {
		return nil, err
	}

	return result.ErrorFiles, nil
}
