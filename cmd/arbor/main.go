package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/arbor"
	"github.com/jward/arbor/internal/config"
	"github.com/jward/arbor/scripts"
)

var (
	flagDB      string
	flagFormat  string
	flagVerbose bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "arbor",
	Short:         "Role-addressed syntax trees over tree-sitter",
	Long:          "Arbor parses source files into arena syntax trees, names each child by the role it fills, and indexes nodes and roles into SQLite for queries and Risor visitor scripts.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return validateFormat(flagFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: .arbor/index.db relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log debug output to stderr")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(visitCmd)
}

var (
	flagForce     bool
	flagLanguages string
	flagWorkers   int
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a repository's syntax trees",
	Long:  "Parses supported source files with tree-sitter and writes nodes, roles and category counts to the SQLite database. Unchanged files are skipped.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "reindex files even when their content is unchanged")
	indexCmd.Flags().StringVar(&flagLanguages, "languages", "", "comma-separated language filter (e.g. go,python)")
	indexCmd.Flags().IntVar(&flagWorkers, "workers", 0, "parse workers (default: number of CPUs)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	engine, dbPath, err := openEngine(targetDir)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.IndexDirectory(commandContext(cmd), targetDir); err != nil {
		return fmt.Errorf("indexing: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Indexed %s in %s\n", targetDir, time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
	return nil
}

var flagDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Index a repository and keep the index current",
	Long:  "Indexes the repository, then watches it and reindexes changed files until interrupted.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&flagLanguages, "languages", "", "comma-separated language filter (e.g. go,python)")
	watchCmd.Flags().DurationVar(&flagDebounce, "debounce", arbor.DefaultDebounce, "quiet period before a batch is reindexed")
}

func runWatch(cmd *cobra.Command, args []string) error {
	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	engine, _, err := openEngine(targetDir)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := engine.IndexDirectory(ctx, targetDir); err != nil {
		fmt.Fprintf(os.Stderr, "Initial index: %s\n", err)
	}
	return engine.Watch(ctx, targetDir, flagDebounce, func(paths []string, err error) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "Reindexed %d file(s) with errors: %s\n", len(paths), err)
			return
		}
		fmt.Fprintf(os.Stderr, "Reindexed %d file(s)\n", len(paths))
	})
}

// openEngine loads the repository config for dir and opens an Engine on the
// resolved database, creating its directory when needed.
func openEngine(dir string, extra ...arbor.Option) (*arbor.Engine, string, error) {
	repoRoot := findRepoRoot(dir)
	cfg, err := config.Load(repoRoot)
	if err != nil {
		return nil, "", err
	}
	dbPath := resolveDBPath(repoRoot, cfg)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, "", fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}

	if cfg.Scripts != "" && !filepath.IsAbs(cfg.Scripts) {
		cfg.Scripts = filepath.Join(repoRoot, cfg.Scripts)
	}
	opts := []arbor.Option{
		arbor.WithConfig(cfg),
		arbor.WithLogger(slog.Default()),
		arbor.WithForce(flagForce),
	}
	if flagLanguages != "" {
		opts = append(opts, arbor.WithLanguages(splitList(flagLanguages)...))
	}
	if flagWorkers > 0 {
		opts = append(opts, arbor.WithWorkers(flagWorkers))
	}
	if cfg.Scripts == "" && flagScriptsDir == "" {
		opts = append(opts, arbor.WithScriptsFS(scripts.FS))
	}
	opts = append(opts, extra...)

	engine, err := arbor.New(dbPath, opts...)
	if err != nil {
		return nil, "", fmt.Errorf("creating engine: %w", err)
	}
	return engine, dbPath, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// resolveTargetDir returns the absolute path of the directory to index.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from the --db flag, the config
// file, or the default, in that order.
func resolveDBPath(repoRoot string, cfg config.Config) string {
	if flagDB != "" {
		if filepath.IsAbs(flagDB) {
			return flagDB
		}
		return filepath.Join(repoRoot, flagDB)
	}
	return cfg.DBPath(repoRoot)
}

// commandContext returns cmd's context, or Background when cobra has none.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
