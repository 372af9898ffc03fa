// ABOUTME: Git clone of a GitHub HTTPS URL into a uniquely named workspace directory.
// ABOUTME: Directory name is the repo name plus a 6-character hash of the URL.

package workflow

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// githubURLPattern matches GitHub HTTPS repository URLs and captures the repo name.
var githubURLPattern = regexp.MustCompile(`^https://github\.com/[^/]+/([^/]+?)(?:\.git)?/?$`)

// Cloner clones a remote repository and returns the local directory path.
type Cloner interface {
	Clone(ctx context.Context, url string) (string, error)
}

// GitCloner clones GitHub repositories into WorkspaceRoot using the git CLI.
type GitCloner struct {
	WorkspaceRoot string
	Runner        Runner
}

// RepoNameFromURL extracts the repository name from a GitHub HTTPS URL.
func RepoNameFromURL(url string) (string, error) {
	m := githubURLPattern.FindStringSubmatch(strings.TrimSpace(url))
	if m == nil {
		return "", fmt.Errorf("invalid GitHub HTTPS URL format: %s", url)
	}
	return m[1], nil
}

// hashSuffix returns the first n hex characters of the URL's md5 digest.
func hashSuffix(url string, n int) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])[:n]
}

// Clone clones the repository into WorkspaceRoot/<repo>-<hash>. An existing
// target directory is removed first so every run starts from a fresh checkout.
func (c *GitCloner) Clone(ctx context.Context, url string) (string, error) {
	repoName, err := RepoNameFromURL(url)
	if err != nil {
		return "", &CloneError{URL: url, Message: err.Error()}
	}

	dirName := repoName + "-" + hashSuffix(url, 6)
	if err := os.MkdirAll(c.WorkspaceRoot, 0755); err != nil {
		return "", &CloneError{URL: url, Message: fmt.Sprintf("create workspace: %v", err)}
	}

	target := filepath.Join(c.WorkspaceRoot, dirName)
	if _, err := os.Stat(target); err == nil {
		if err := os.RemoveAll(target); err != nil {
			return "", &CloneError{URL: url, Message: fmt.Sprintf("remove existing directory: %v", err)}
		}
	}

	res, err := c.Runner.Run(ctx, fmt.Sprintf("git clone %q %q", url, target), "")
	if err != nil {
		return "", &CloneError{URL: url, Message: err.Error()}
	}
	if res.TimedOut {
		return "", &CloneError{URL: url, Message: res.Stderr}
	}
	if !res.Success {
		msg := fmt.Sprintf("git clone failed with exit code %d", res.ExitCode)
		if s := strings.TrimSpace(res.Stderr); s != "" {
			msg += ": " + s
		}
		return "", &CloneError{URL: url, Message: msg, ExitCode: res.ExitCode}
	}

	entries, err := os.ReadDir(target)
	if err != nil || len(entries) == 0 {
		return "", &CloneError{URL: url, Message: "clone completed but target directory is empty"}
	}

	abs, err := filepath.Abs(target)
	if err != nil {
		return "", &CloneError{URL: url, Message: err.Error()}
	}
	return abs, nil
}
