// ABOUTME: Applies a previously generated theme by copying its CSS over the project's main stylesheet.
// ABOUTME: Missing theme file and missing target stylesheet fail with distinct error types.

package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ApplyTheme replaces the main stylesheet's content with the named theme's
// CSS. The theme name may be given with or without the .css extension. The
// target stylesheet must already exist; applying a theme never creates it.
func ApplyTheme(themesDir, themeName, mainCSSPath string) error {
	name := themeName
	if !strings.HasSuffix(name, ".css") {
		name += ".css"
	}

	themePath := filepath.Join(themesDir, name)
	content, err := os.ReadFile(themePath)
	if err != nil {
		return &ThemeFileNotFoundError{Path: themePath}
	}

	if _, err := os.Stat(mainCSSPath); err != nil {
		return &MainCSSNotFoundError{Path: mainCSSPath}
	}

	if err := writeFileAtomic(mainCSSPath, content); err != nil {
		return fmt.Errorf("apply theme %s: %w", themeName, err)
	}
	return nil
}
