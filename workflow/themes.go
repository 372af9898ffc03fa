// ABOUTME: Theme baseline backup, summary generation, and 5-variant palette generation.
// ABOUTME: Variants are persisted as paired <name>.css / <name>.json files in the themes directory.

package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tintlab/tint/llm"
)

// VariantCount is the number of theme variants produced per generation call.
const VariantCount = 5

const themeSummaryPrompt = `You are a CSS theme design expert. Analyze the provided CSS file and produce a human-readable summary of its color theme.

Response requirements:
- title: a short, user-friendly title capturing the essence of the color theme, suitable for a theme selection interface
- representative_colors: 3-6 representative colors extracted from the CSS, in HEX format`

var themeSummarySchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"title": {
			"type": "string",
			"description": "Descriptive title for the theme"
		},
		"representative_colors": {
			"type": "array",
			"items": {
				"type": "string"
			},
			"description": "List of representative colors in HEX format"
		}
	},
	"required": ["title", "representative_colors"],
	"additionalProperties": false
}`)

const themeGenerationPrompt = `You are a CSS theme design expert. Your task is to generate 5 new color theme variations based on an original CSS file and existing theme information.

Your objectives:
1. Analyze the provided original CSS file to understand its structure and color usage patterns
2. Review the existing theme JSON files to understand current color palettes and avoid similar combinations
3. Generate 5 completely new and distinct color theme variations with unique color schemes
4. For each new theme, create both a modified CSS file and a corresponding JSON description

CRITICAL: Color Uniqueness Requirements:
- Carefully analyze the representative colors from ALL existing themes
- Ensure each new theme uses a COMPLETELY DIFFERENT color palette from existing themes
- Avoid similar color combinations, hues, or saturation levels that already exist
- Create truly unique and distinguishable color schemes
- Each of the 5 new themes must also be distinct from each other
- Consider color theory: complementary, triadic, analogous, and monochromatic schemes
- Use different color temperatures (warm vs cool) and brightness levels

Key requirements for CSS generation:
- ONLY modify color values (hex, rgb, rgba, hsl, hsla, named colors, CSS variables)
- Maintain ALL other CSS properties exactly as they are (margins, paddings, fonts, layouts, etc.)
- Preserve the exact same CSS structure, selectors, and non-color properties
- Ensure the modified CSS maintains the same visual layout and functionality
- Use harmonious and professional color schemes for each variation
- Make each theme visually distinct from the original and from each other

Key requirements for filename generation:
- Generate unique filenames that don't conflict with existing JSON files
- Use descriptive names that reflect the unique color scheme (e.g., "coral_sunset", "emerald_forest", "royal_purple")
- Use lowercase with underscores for consistency
- The same filename will be used for both CSS and JSON files (different extensions)

Key requirements for JSON descriptions:
- Generate a descriptive title that captures the essence of the unique color theme
- Extract 3-6 representative colors from the generated CSS in HEX format
- Titles should be user-friendly and suitable for theme selection interface
- Each theme should have a unique and meaningful title that reflects its distinctive color palette

Response format: Return a JSON array with 5 theme objects, each containing filename, CSS content, and theme description.`

var themeGenerationSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"generated_themes": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"filename": {
						"type": "string",
						"description": "Unique filename for the theme (without extension)"
					},
					"css_content": {
						"type": "string",
						"description": "Complete CSS content with modified colors"
					},
					"theme_description": {
						"type": "object",
						"properties": {
							"title": {
								"type": "string",
								"description": "Descriptive title for the theme"
							},
							"representative_colors": {
								"type": "array",
								"items": {
									"type": "string"
								},
								"description": "List of representative colors in HEX format"
							}
						},
						"required": ["title", "representative_colors"],
						"additionalProperties": false
					}
				},
				"required": ["filename", "css_content", "theme_description"],
				"additionalProperties": false
			},
			"minItems": 5,
			"maxItems": 5
		}
	},
	"required": ["generated_themes"],
	"additionalProperties": false
}`)

// hexColorPattern matches 3-, 6-, and 8-digit hex color strings.
var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// ThemeDescription is the JSON sidecar persisted next to each theme CSS file.
type ThemeDescription struct {
	Title                string   `json:"title"`
	RepresentativeColors []string `json:"representative_colors"`
}

// GeneratedTheme is one theme variant produced by a generation call.
type GeneratedTheme struct {
	Filename         string           `json:"filename"`
	CSSContent       string           `json:"css_content"`
	ThemeDescription ThemeDescription `json:"theme_description"`
}

// BackupMainCSS copies the project's main stylesheet to
// <themesDir>/original.css, preserving the theme-ified baseline before
// variants are generated. Returns the backup path.
func BackupMainCSS(projectDir string, css CSSAnalysis) (string, error) {
	src := filepath.Join(projectDir, css.MainCSSPath)
	content, err := os.ReadFile(src)
	if err != nil {
		return "", &MainCSSNotFoundError{Dir: projectDir, Path: css.MainCSSPath}
	}

	dst := filepath.Join(ThemesDirFor(projectDir), "original.css")
	if err := writeFileAtomic(dst, content); err != nil {
		return "", fmt.Errorf("write backup %s: %w", dst, err)
	}
	return dst, nil
}

// ThemeGenerator produces theme summaries and palette variants via LLM calls.
type ThemeGenerator struct {
	Generator ObjectGenerator
	Model     string
	Timeout   time.Duration
	Events    EventSink
}

// Summarize produces a title and representative colors for the given CSS file.
// Every color in the result is validated as a hex string.
func (g *ThemeGenerator) Summarize(ctx context.Context, cssPath string) (ThemeDescription, error) {
	content, err := os.ReadFile(cssPath)
	if err != nil {
		return ThemeDescription{}, &ThemeFileNotFoundError{Path: cssPath}
	}

	prompt := themeSummaryPrompt + "\n\nCSS Content:\n" + string(content)

	var desc ThemeDescription
	err = g.Generator.GenerateObject(ctx, llm.GenerateOptions{
		Model:   g.Model,
		Prompt:  prompt,
		Timeout: g.Timeout,
	}, "theme_summary", themeSummarySchema, &desc)
	if err != nil {
		return ThemeDescription{}, err
	}

	if len(desc.RepresentativeColors) == 0 {
		return ThemeDescription{}, &ThemeGenerationError{Message: "summary returned no representative colors"}
	}
	for _, c := range desc.RepresentativeColors {
		if !hexColorPattern.MatchString(c) {
			return ThemeDescription{}, &ThemeGenerationError{Message: fmt.Sprintf("summary color %q is not a valid hex string", c)}
		}
	}
	return desc, nil
}

// existingThemes reads every .json file in the themes directory. A missing
// directory or unreadable file yields an empty or partial list; zero existing
// themes is a valid comparison set.
func existingThemes(themesDir string) []GeneratedTheme {
	entries, err := os.ReadDir(themesDir)
	if err != nil {
		return nil
	}

	var themes []GeneratedTheme
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(themesDir, e.Name()))
		if err != nil {
			continue
		}
		var desc ThemeDescription
		if err := json.Unmarshal(data, &desc); err != nil {
			continue
		}
		themes = append(themes, GeneratedTheme{
			Filename:         strings.TrimSuffix(e.Name(), ".json"),
			ThemeDescription: desc,
		})
	}
	return themes
}

// GenerateVariants produces exactly VariantCount new theme variants from the
// original CSS, avoiding the palettes recorded in existing theme files, and
// writes each as a <name>.css / <name>.json pair in themesDir.
func (g *ThemeGenerator) GenerateVariants(ctx context.Context, themesDir, originalCSSPath string) ([]GeneratedTheme, error) {
	original, err := os.ReadFile(originalCSSPath)
	if err != nil {
		return nil, &ThemeFileNotFoundError{Path: originalCSSPath}
	}

	existing := existingThemes(themesDir)

	var existingInfo strings.Builder
	if len(existing) > 0 {
		existingInfo.WriteString("Existing Theme Files (avoid these filenames and color combinations):\n\n")
		for _, t := range existing {
			fmt.Fprintf(&existingInfo, "Theme: %s\n  Title: %s\n  Representative Colors: %s\n\n",
				t.Filename, t.ThemeDescription.Title, strings.Join(t.ThemeDescription.RepresentativeColors, ", "))
		}
		existingInfo.WriteString("CRITICAL: Analyze the above color palettes and ensure your new themes use COMPLETELY DIFFERENT color schemes. Avoid similar hues, saturation levels, brightness, and color families. Create truly unique and distinguishable color combinations.\n")
	} else {
		existingInfo.WriteString("No existing theme files found. You have complete creative freedom for color selection.\n")
	}

	prompt := fmt.Sprintf(`%s

%s

Original CSS Content:
%s

Please generate 5 new and distinct color theme variations based on this CSS file. Each theme should have a unique filename that doesn't conflict with existing themes, modified CSS content with only color changes, and a descriptive JSON theme description.`,
		themeGenerationPrompt, existingInfo.String(), original)

	var result struct {
		GeneratedThemes []GeneratedTheme `json:"generated_themes"`
	}
	err = g.Generator.GenerateObject(ctx, llm.GenerateOptions{
		Model:   g.Model,
		Prompt:  prompt,
		Timeout: g.Timeout,
	}, "theme_generation", themeGenerationSchema, &result)
	if err != nil {
		return nil, &ThemeGenerationError{Message: "generation call failed", Cause: err}
	}

	if err := validateVariants(result.GeneratedThemes, existing); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(themesDir, 0777); err != nil {
		return nil, &ThemeGenerationError{Message: fmt.Sprintf("create themes directory: %v", err)}
	}
	for _, t := range result.GeneratedThemes {
		cssPath := filepath.Join(themesDir, t.Filename+".css")
		if err := writeFileAtomic(cssPath, []byte(t.CSSContent)); err != nil {
			return nil, &ThemeGenerationError{Message: fmt.Sprintf("write %s: %v", cssPath, err)}
		}
		if err := WriteThemeDescription(filepath.Join(themesDir, t.Filename+".json"), t.ThemeDescription); err != nil {
			return nil, &ThemeGenerationError{Message: err.Error()}
		}
		emit(g.Events, EventThemeWritten, "theme-generation", map[string]any{
			"filename": t.Filename,
			"title":    t.ThemeDescription.Title,
		})
	}

	return result.GeneratedThemes, nil
}

// validateVariants enforces the generation contract: exactly VariantCount
// themes, hex-valid colors, and filenames unique within the batch and against
// existing themes.
func validateVariants(themes []GeneratedTheme, existing []GeneratedTheme) error {
	if len(themes) != VariantCount {
		return &ThemeGenerationError{Message: fmt.Sprintf("expected %d themes, got %d", VariantCount, len(themes))}
	}

	taken := make(map[string]bool, len(existing)+len(themes))
	for _, t := range existing {
		taken[t.Filename] = true
	}
	for _, t := range themes {
		if t.Filename == "" {
			return &ThemeGenerationError{Message: "theme has empty filename"}
		}
		if taken[t.Filename] {
			return &ThemeGenerationError{Message: fmt.Sprintf("theme filename %q conflicts with an existing theme", t.Filename)}
		}
		taken[t.Filename] = true

		if len(t.ThemeDescription.RepresentativeColors) == 0 {
			return &ThemeGenerationError{Message: fmt.Sprintf("theme %q has no representative colors", t.Filename)}
		}
		for _, c := range t.ThemeDescription.RepresentativeColors {
			if !hexColorPattern.MatchString(c) {
				return &ThemeGenerationError{Message: fmt.Sprintf("theme %q color %q is not a valid hex string", t.Filename, c)}
			}
		}
	}
	return nil
}

// WriteThemeDescription writes the JSON sidecar for a theme.
func WriteThemeDescription(path string, desc ThemeDescription) error {
	data, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal theme description: %w", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
