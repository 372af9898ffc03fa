// ABOUTME: Tests for the concurrent theme extraction processor and its all-or-nothing write contract.
// ABOUTME: Verifies the snapshot semantics, failure aggregation, and the single merge call.

package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupFrontendProject(t *testing.T) (string, CSSAnalysis) {
	t.Helper()
	dir := t.TempDir()
	writeProjectFile(t, dir, "src/index.css", ":root { --base: #fff; }")
	writeProjectFile(t, dir, "src/App.tsx", `<div style={{color: "#ff0000"}} />`)
	writeProjectFile(t, dir, "src/pages/About.jsx", `<p className="text-blue-500">about</p>`)
	writeProjectFile(t, dir, "public/index.html", `<body bgcolor="#eeeeee"></body>`)
	return dir, CSSAnalysis{MainCSSPath: "src/index.css"}
}

func extractionPayload(content, instructions string) string {
	data, _ := json.Marshal(map[string]string{
		"modified_file_content":        content,
		"main_css_change_instructions": instructions,
	})
	return string(data)
}

func TestScanFrontendFilesFindsSupportedExtensions(t *testing.T) {
	dir, _ := setupFrontendProject(t)
	writeProjectFile(t, dir, "node_modules/pkg/Comp.tsx", "ignored")
	writeProjectFile(t, dir, "src/util.ts", "ignored")

	files, err := ScanFrontendFiles(dir)
	if err != nil {
		t.Fatalf("ScanFrontendFiles returned error: %v", err)
	}
	if len(files) != 3 {
		paths := make([]string, 0, len(files))
		for _, f := range files {
			paths = append(paths, f.Path)
		}
		t.Errorf("found %d files %v, want 3 (.tsx, .jsx, .html only, excluded dirs skipped)", len(files), paths)
	}
}

func TestScanFrontendFilesEmptyProject(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "src/util.ts", "not frontend")

	_, err := ScanFrontendFiles(dir)
	var srcErr *SourceFilesNotFoundError
	if !errors.As(err, &srcErr) {
		t.Fatalf("err = %v, want *SourceFilesNotFoundError", err)
	}
}

func TestProcessRejectsNonFrontendProject(t *testing.T) {
	dir, css := setupFrontendProject(t)

	p := &FileProcessor{Generator: newFakeGenerator(), Model: "test"}
	err := p.Process(context.Background(), dir, css, ProjectAnalysis{IsFrontend: false})
	var feErr *NotFrontendError
	if !errors.As(err, &feErr) {
		t.Fatalf("err = %v, want *NotFrontendError", err)
	}
}

func TestProcessWritesAllFilesThenMergesOnce(t *testing.T) {
	dir, css := setupFrontendProject(t)

	gen := newFakeGenerator()
	gen.handler = func(schemaName, prompt string) (string, error) {
		switch schemaName {
		case "theme_extraction":
			return extractionPayload("/* themed */", "add --brand: #ff0000"), nil
		case "css_merge":
			return `{"updated_main_css_content": ":root { --base: #fff; --brand: #ff0000; }"}`, nil
		default:
			return "", fmt.Errorf("unexpected schema %q", schemaName)
		}
	}

	p := &FileProcessor{Generator: gen, Model: "test", Workers: 2}
	if err := p.Process(context.Background(), dir, css, buildAnalysis()); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	for _, rel := range []string{"src/App.tsx", "src/pages/About.jsx", "public/index.html"} {
		got, err := os.ReadFile(filepath.Join(dir, rel))
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "/* themed */" {
			t.Errorf("%s = %q, want themed content", rel, got)
		}
	}

	mainCSS, err := os.ReadFile(filepath.Join(dir, "src/index.css"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(mainCSS), "--brand: #ff0000") {
		t.Errorf("main CSS = %q, want merged variables", mainCSS)
	}

	if n := gen.callCount("theme_extraction"); n != 3 {
		t.Errorf("extraction calls = %d, want 3", n)
	}
	if n := gen.callCount("css_merge"); n != 1 {
		t.Errorf("merge calls = %d, want exactly 1", n)
	}
}

func TestProcessOneFailureMeansZeroWrites(t *testing.T) {
	dir, css := setupFrontendProject(t)
	originalApp, err := os.ReadFile(filepath.Join(dir, "src/App.tsx"))
	if err != nil {
		t.Fatal(err)
	}
	originalCSS, err := os.ReadFile(filepath.Join(dir, "src/index.css"))
	if err != nil {
		t.Fatal(err)
	}

	gen := newFakeGenerator()
	gen.handler = func(schemaName, prompt string) (string, error) {
		if schemaName == "theme_extraction" && strings.Contains(prompt, "About.jsx") {
			return "", errors.New("provider error")
		}
		if schemaName == "theme_extraction" {
			return extractionPayload("/* themed */", "instructions"), nil
		}
		return "", fmt.Errorf("merge must not be called after a failure")
	}

	p := &FileProcessor{Generator: gen, Model: "test", Workers: 2}
	err = p.Process(context.Background(), dir, css, buildAnalysis())
	if err == nil {
		t.Fatal("Process returned nil error, want aggregate failure")
	}
	if !strings.Contains(err.Error(), "About.jsx") {
		t.Errorf("error %q does not name the failed file", err)
	}

	got, readErr := os.ReadFile(filepath.Join(dir, "src/App.tsx"))
	if readErr != nil {
		t.Fatal(readErr)
	}
	if string(got) != string(originalApp) {
		t.Errorf("App.tsx was written despite a failed sibling")
	}
	gotCSS, readErr := os.ReadFile(filepath.Join(dir, "src/index.css"))
	if readErr != nil {
		t.Fatal(readErr)
	}
	if string(gotCSS) != string(originalCSS) {
		t.Errorf("main CSS was written despite a failed extraction")
	}
	if n := gen.callCount("css_merge"); n != 0 {
		t.Errorf("merge calls = %d, want 0 after failure", n)
	}
}

func TestProcessRequiresMainCSS(t *testing.T) {
	dir, _ := setupFrontendProject(t)

	p := &FileProcessor{Generator: newFakeGenerator(), Model: "test"}
	err := p.Process(context.Background(), dir, CSSAnalysis{MainCSSPath: "src/missing.css"}, buildAnalysis())
	var mainErr *MainCSSNotFoundError
	if !errors.As(err, &mainErr) {
		t.Fatalf("err = %v, want *MainCSSNotFoundError", err)
	}
}
