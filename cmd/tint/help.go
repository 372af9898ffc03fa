// ABOUTME: Help display for the tint CLI with grouped flags, examples, and environment status.
// ABOUTME: Provides printHelp for usage output and envStatus for API key detection.
package main

import (
	"fmt"
	"io"
	"os"
)

// printHelp writes a formatted help message to w, including usage patterns,
// grouped flags, examples, and environment status.
func printHelp(w io.Writer, ver string) {
	fmt.Fprintf(w, "tint %s — LLM-driven frontend theming pipeline\n", ver)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  tint <github-repo-url>              Run the full theming pipeline")
	fmt.Fprintln(w, "  tint -serve                         Start the status HTTP server")
	fmt.Fprintln(w, "  tint -apply-theme <name> ...        Apply a generated theme")
	fmt.Fprintln(w, "  tint -generate-themes ...           Generate a new variant batch")
	fmt.Fprintln(w, "  tint -search <query>                Run a Twitter advanced search")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Pipeline flags:")
	fmt.Fprintln(w, "  -repo <url>           GitHub repository URL (or pass as positional argument)")
	fmt.Fprintln(w, "  -workspace <dir>      Workspace root for cloned projects (default: ./workspace)")
	fmt.Fprintln(w, "  -state-dir <dir>      Run state and progress logs (default: ./state)")
	fmt.Fprintln(w, "  -config <dir>         Directory containing an optional config.yaml (default: .)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Theme flags:")
	fmt.Fprintln(w, "  -apply-theme <name>   Theme to apply (requires -themes-dir and -main-css)")
	fmt.Fprintln(w, "  -generate-themes      Generate 5 new variants (requires -themes-dir and -original-css)")
	fmt.Fprintln(w, "  -themes-dir <dir>     Directory holding <name>.css / <name>.json theme pairs")
	fmt.Fprintln(w, "  -main-css <path>      Target stylesheet for -apply-theme")
	fmt.Fprintln(w, "  -original-css <path>  Baseline stylesheet for -generate-themes")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Other flags:")
	fmt.Fprintln(w, "  -serve                Start the status server on STATUS_ADDR")
	fmt.Fprintln(w, "  -search <query>       Twitter advanced search query (requires TWITTERAPI_API_KEY)")
	fmt.Fprintln(w, "  -search-type <kind>   Search ranking: Latest or Top (default Latest)")
	fmt.Fprintln(w, "  -version              Print version and exit")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  tint https://github.com/vercel/next-learn")
	fmt.Fprintln(w, "  tint -apply-theme coral_sunset -themes-dir ./app/.design/themes -main-css ./app/src/index.css")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  OPENAI_API_KEY        %s\n", envStatus("OPENAI_API_KEY"))
	fmt.Fprintf(w, "  TWITTERAPI_API_KEY    %s\n", envStatus("TWITTERAPI_API_KEY"))
	fmt.Fprintln(w)
}

// envStatus reports whether an environment variable is set, without printing
// its value.
func envStatus(name string) string {
	if os.Getenv(name) != "" {
		return "set"
	}
	return "not set"
}
