// ABOUTME: CLI entrypoint for the tint theming pipeline with run, theme, and server modes.
// ABOUTME: Wires configuration, the LLM client, the run store, and signal handling.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tintlab/tint/config"
	"github.com/tintlab/tint/llm"
	"github.com/tintlab/tint/social"
	"github.com/tintlab/tint/workflow"
)

var version = "dev"

// cliConfig holds all CLI configuration parsed from flags and positional arguments.
type cliConfig struct {
	repoURL        string
	configPath     string
	workspace      string
	stateDir       string
	serveMode      bool
	applyTheme     string
	generateThemes bool
	themesDir      string
	mainCSS        string
	originalCSS    string
	search         string
	searchType     string
	showVersion    bool
}

func main() {
	_ = godotenv.Load(".env")

	cfg := parseFlags()

	if cfg.showVersion {
		fmt.Printf("tint %s\n", version)
		os.Exit(0)
	}

	os.Exit(run(cfg))
}

// parseFlags parses command-line flags and returns a populated cliConfig.
func parseFlags() cliConfig {
	var cfg cliConfig

	fs := flag.NewFlagSet("tint", flag.ContinueOnError)
	fs.StringVar(&cfg.repoURL, "repo", "", "GitHub repository URL to theme")
	fs.StringVar(&cfg.configPath, "config", ".", "Directory containing an optional config.yaml")
	fs.StringVar(&cfg.workspace, "workspace", "", "Workspace root for cloned projects")
	fs.StringVar(&cfg.stateDir, "state-dir", "", "Directory for run state and progress logs")
	fs.BoolVar(&cfg.serveMode, "serve", false, "Start the status HTTP server")
	fs.StringVar(&cfg.applyTheme, "apply-theme", "", "Apply a generated theme by name and exit")
	fs.BoolVar(&cfg.generateThemes, "generate-themes", false, "Generate theme variants for an existing themes directory and exit")
	fs.StringVar(&cfg.themesDir, "themes-dir", "", "Themes directory for -apply-theme and -generate-themes")
	fs.StringVar(&cfg.mainCSS, "main-css", "", "Main stylesheet path for -apply-theme")
	fs.StringVar(&cfg.originalCSS, "original-css", "", "Original stylesheet path for -generate-themes")
	fs.StringVar(&cfg.search, "search", "", "Run a Twitter advanced search query and exit")
	fs.StringVar(&cfg.searchType, "search-type", "", "Search ranking: Latest or Top (default Latest)")
	fs.BoolVar(&cfg.showVersion, "version", false, "Print version and exit")

	fs.Usage = func() {
		printHelp(os.Stderr, version)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if cfg.repoURL == "" && fs.NArg() > 0 {
		cfg.repoURL = fs.Arg(0)
	}

	return cfg
}

// run dispatches to the appropriate mode based on the config.
// Returns an exit code: 0 for success, 1 for failure.
func run(cli cliConfig) int {
	if cli.applyTheme != "" {
		return runApplyTheme(cli)
	}

	cfg, err := config.Load(cli.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if cli.workspace != "" {
		cfg.WorkspaceRoot = cli.workspace
	}
	if cli.stateDir != "" {
		cfg.StateDir = cli.stateDir
	}
	applyPathDefaults(&cfg)

	if cli.serveMode {
		return runServe(cfg)
	}
	if cli.generateThemes {
		return runGenerateThemes(cli, cfg)
	}
	if cli.search != "" {
		return runSearch(cli, cfg)
	}

	if cli.repoURL == "" {
		printHelp(os.Stderr, version)
		return 2
	}

	return runPipeline(cli.repoURL, cfg)
}

// newLLMClient builds the LLM client from the loaded configuration, so a key
// supplied via config.yaml works the same as one from the environment.
func newLLMClient(cfg config.Config) *llm.Client {
	return llm.NewClient(llm.WithProvider("openai", llm.NewOpenAIAdapter(cfg.OpenAIKey)))
}

// applyPathDefaults fills workspace and state directories relative to the
// current directory when unset.
func applyPathDefaults(cfg *config.Config) {
	if cfg.WorkspaceRoot == "" {
		cfg.WorkspaceRoot = filepath.Join(".", "workspace")
	}
	if cfg.StateDir == "" {
		cfg.StateDir = filepath.Join(".", "state")
	}
}

// runPipeline executes the full theming pipeline for one repository.
func runPipeline(repoURL string, cfg config.Config) int {
	client := newLLMClient(cfg)

	store, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wf := workflow.New(cfg, client, store)
	result, err := wf.Run(ctx, repoURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	log.Printf("pipeline completed: run %s", result.RunID)
	log.Printf("project: %s", result.ProjectDir)
	for _, t := range result.Themes {
		log.Printf("theme: %s (%s)", t.Filename, t.ThemeDescription.Title)
	}
	log.Printf("dev server: http://%s:%d (pid %d)", result.Server.Host, result.Server.Port, result.Server.PID)
	return 0
}

// runApplyTheme swaps a generated theme into the main stylesheet. Needs no
// LLM key or store.
func runApplyTheme(cli cliConfig) int {
	if cli.themesDir == "" || cli.mainCSS == "" {
		fmt.Fprintln(os.Stderr, "error: -apply-theme requires -themes-dir and -main-css")
		return 2
	}
	if err := workflow.ApplyTheme(cli.themesDir, cli.applyTheme, cli.mainCSS); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	log.Printf("applied theme %s to %s", cli.applyTheme, cli.mainCSS)
	return 0
}

// runGenerateThemes produces a fresh batch of variants for an existing
// themes directory.
func runGenerateThemes(cli cliConfig, cfg config.Config) int {
	if cli.themesDir == "" || cli.originalCSS == "" {
		fmt.Fprintln(os.Stderr, "error: -generate-themes requires -themes-dir and -original-css")
		return 2
	}

	client := newLLMClient(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gen := workflow.New(cfg, client, nil).Themes
	themes, err := gen.GenerateVariants(ctx, cli.themesDir, cli.originalCSS)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	for _, t := range themes {
		log.Printf("theme: %s (%s)", t.Filename, t.ThemeDescription.Title)
	}
	return 0
}

// runSearch executes a Twitter advanced search through the social toolset and
// prints the tool's JSON result.
func runSearch(cli cliConfig, cfg config.Config) int {
	if cfg.TwitterAPIKey == "" {
		fmt.Fprintln(os.Stderr, "error: -search requires TWITTERAPI_API_KEY")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := social.NewService(cfg.TwitterAPIKey)
	out, err := executeSearchTool(ctx, social.Tools(svc), cli.search, cli.searchType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Println(out)
	return 0
}

// executeSearchTool finds the advanced-search tool in the toolset and invokes
// it the way a model would, with a plain argument map.
func executeSearchTool(ctx context.Context, tools []llm.Tool, query, queryType string) (string, error) {
	for _, tool := range tools {
		if tool.Name != "twitter_tweet_advance_search" {
			continue
		}
		args := map[string]any{"query": query}
		if queryType != "" {
			args["query_type"] = queryType
		}
		return tool.Execute(ctx, args)
	}
	return "", fmt.Errorf("advanced search tool not registered")
}

// runServe starts the read-only status server over run history.
func runServe(cfg config.Config) int {
	store, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer store.Close()

	srv := workflow.NewStatusServer(cfg.StatusAddr, store, cfg.StateDir)
	if err := srv.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func openStore(cfg config.Config) (*workflow.RunStore, error) {
	if err := os.MkdirAll(cfg.StateDir, 0755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return workflow.OpenRunStore(filepath.Join(cfg.StateDir, "runs.db"))
}
