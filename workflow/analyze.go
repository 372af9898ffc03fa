// ABOUTME: Project analysis agent that classifies a repo as a frontend project from its package.json.
// ABOUTME: One strict-schema LLM call returns start, build, and lint-fix commands plus UI framework info.

package workflow

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/tintlab/tint/llm"
)

const manifestAnalysisPrompt = `Please analyze the provided package.json file and determine if this is a frontend project.

For a project to be considered a frontend project, it should have:
- Frontend frameworks (React, Vue, Angular, etc.)
- Build tools for frontend (Webpack, Vite, Parcel, etc.)
- Frontend-specific dependencies

Response requirements:
1. is_frontend_project: true if this is a frontend project, false otherwise
2. start_command: If it's a frontend project, provide the start command (usually from scripts section like "npm start", "npm run dev", etc.). If not a frontend project, return empty string "".
3. build_command: If it's a frontend project, provide the build command (usually from scripts section like "npm run build", "yarn build", etc.). If not a frontend project, return empty string "".
4. eslint_fix_command: If the project has an ESLint auto-fix script (like "npm run lint -- --fix"), provide it. Return empty string "" if not available.
5. ui_frameworks_info: If it's a frontend project, provide information about UI frameworks, libraries, TailwindCSS and their versions. If not a frontend project, return empty string "".

Always return all five fields, using empty strings for commands and ui_frameworks_info when the project is not a frontend project.`

var frontendAnalysisSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"is_frontend_project": {
			"type": "boolean",
			"description": "Whether this project is a frontend project"
		},
		"start_command": {
			"type": "string",
			"description": "The command to start the project, empty string if not applicable"
		},
		"build_command": {
			"type": "string",
			"description": "The command to build the project, empty string if not applicable"
		},
		"eslint_fix_command": {
			"type": "string",
			"description": "The ESLint auto-fix command, empty string if not available"
		},
		"ui_frameworks_info": {
			"type": "string",
			"description": "Information about UI frameworks, libraries, TailwindCSS and their versions, empty string if not applicable"
		}
	},
	"required": ["is_frontend_project", "start_command", "build_command", "eslint_fix_command", "ui_frameworks_info"],
	"additionalProperties": false
}`)

// ProjectAnalysis is the immutable classification of a cloned project.
// Produced once by analysis, consumed read-only by every later stage.
type ProjectAnalysis struct {
	IsFrontend       bool   `json:"is_frontend_project"`
	StartCommand     string `json:"start_command"`
	BuildCommand     string `json:"build_command"`
	ESLintFixCommand string `json:"eslint_fix_command"`
	UIFrameworksInfo string `json:"ui_frameworks_info"`
}

// Analyzer classifies projects via one structured LLM call over package.json.
type Analyzer struct {
	Generator ObjectGenerator
	Model     string
	Timeout   time.Duration
}

// AnalyzeProject reads the project's package.json and returns its analysis.
// A missing manifest is a ManifestNotFoundError so callers can distinguish
// wrong project type from transient failures.
func (a *Analyzer) AnalyzeProject(ctx context.Context, dir string) (ProjectAnalysis, error) {
	manifestPath := filepath.Join(dir, "package.json")
	content, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return ProjectAnalysis{}, &ManifestNotFoundError{Dir: dir}
		}
		return ProjectAnalysis{}, err
	}

	prompt := manifestAnalysisPrompt + "\n\npackage.json content:\n" + string(content)

	var analysis ProjectAnalysis
	err = a.Generator.GenerateObject(ctx, llm.GenerateOptions{
		Model:   a.Model,
		Prompt:  prompt,
		Timeout: a.Timeout,
	}, "frontend_analysis", frontendAnalysisSchema, &analysis)
	if err != nil {
		return ProjectAnalysis{}, err
	}

	return analysis, nil
}
