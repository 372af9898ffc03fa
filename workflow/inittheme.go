// ABOUTME: Creates the hidden .design/themes directory structure inside a cloned project.
// ABOUTME: Directories get world read/write/execute so the dev server and sandboxed tools can use them.

package workflow

import (
	"fmt"
	"os"
	"path/filepath"
)

// ThemeDirs holds the paths created by InitThemeDirs.
type ThemeDirs struct {
	DesignDir string
	ThemesDir string
}

// ThemesDirFor returns the themes directory path for a project root.
func ThemesDirFor(projectDir string) string {
	return filepath.Join(projectDir, ".design", "themes")
}

// InitThemeDirs creates <project>/.design/themes with 0777 permissions on both
// directories. The generated dev server and any tool running as a different
// user must be able to read and write theme artifacts.
func InitThemeDirs(projectDir string) (ThemeDirs, error) {
	info, err := os.Stat(projectDir)
	if err != nil || !info.IsDir() {
		return ThemeDirs{}, &InitError{Path: projectDir, Message: "base directory does not exist"}
	}

	designDir := filepath.Join(projectDir, ".design")
	themesDir := filepath.Join(designDir, "themes")

	for _, dir := range []string{designDir, themesDir} {
		if err := os.MkdirAll(dir, 0777); err != nil {
			return ThemeDirs{}, &InitError{Path: dir, Message: fmt.Sprintf("create directory: %v", err)}
		}
		// MkdirAll applies the umask, so set the mode explicitly.
		if err := os.Chmod(dir, 0777); err != nil {
			return ThemeDirs{}, &InitError{Path: dir, Message: fmt.Sprintf("set permissions: %v", err)}
		}
	}

	return ThemeDirs{DesignDir: designDir, ThemesDir: themesDir}, nil
}
