package arbor

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/jward/arbor/internal/config"
	"github.com/jward/arbor/internal/lang"
	"github.com/jward/arbor/internal/parse"
	"github.com/jward/arbor/internal/runtime"
	"github.com/jward/arbor/internal/store"
)

// Engine orchestrates the arbor pipeline: file discovery, change detection,
// parsing into role-addressed trees, the SQLite index, and query access.
type Engine struct {
	store     *store.Store
	languages map[string]bool // nil means all languages
	excludes  []string
	trivia    bool
	force     bool
	logger    *slog.Logger

	// useParallel enables the worker-pool indexing pipeline.
	useParallel bool
	workers     int

	scriptsDir string
	scriptsFS  fs.FS
}

// Option configures an Engine.
type Option func(*Engine)

// WithLanguages restricts which languages the Engine will process.
func WithLanguages(languages ...string) Option {
	return func(e *Engine) {
		e.languages = make(map[string]bool, len(languages))
		for _, l := range languages {
			e.languages[l] = true
		}
	}
}

// WithParallel controls parallel indexing. When true (default), IndexFiles
// parses files on a worker pool and a single writer commits the batches to
// SQLite. Set to false for serial mode.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithWorkers caps the parallel pipeline's worker count. Zero means one per CPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithTrivia keeps whitespace leaves in parsed trees, so a tree's root text
// reproduces its file exactly.
func WithTrivia(trivia bool) Option {
	return func(e *Engine) {
		e.trivia = trivia
	}
}

// WithForce reindexes files even when their content hash is unchanged.
func WithForce(force bool) Option {
	return func(e *Engine) {
		e.force = force
	}
}

// WithLogger sets the logger for indexing progress and script log output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithExcludes skips files matching any of the doublestar patterns, matched
// against slash-separated paths relative to the indexed directory.
func WithExcludes(patterns ...string) Option {
	return func(e *Engine) {
		e.excludes = append(e.excludes, patterns...)
	}
}

// WithScriptsDir sets the directory VisitFile loads visitor scripts from.
func WithScriptsDir(dir string) Option {
	return func(e *Engine) {
		e.scriptsDir = dir
	}
}

// WithScriptsFS loads visitor scripts from fsys instead of from disk. This
// enables embedding scripts via go:embed and takes precedence over
// WithScriptsDir.
func WithScriptsFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.scriptsFS = fsys
	}
}

// WithConfig applies the settings of a loaded .arbor.toml.
func WithConfig(cfg config.Config) Option {
	return func(e *Engine) {
		if len(cfg.Languages) > 0 {
			WithLanguages(cfg.Languages...)(e)
		}
		e.excludes = append(e.excludes, cfg.Exclude...)
		if cfg.Trivia {
			e.trivia = true
		}
		if cfg.Workers > 0 {
			e.workers = cfg.Workers
		}
		if cfg.Scripts != "" && e.scriptsDir == "" {
			e.scriptsDir = cfg.Scripts
		}
	}
}

// New creates an Engine backed by a SQLite database at dbPath.
func New(dbPath string, opts ...Option) (*Engine, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("arbor: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("arbor: migrate: %w", err)
	}

	e := &Engine{
		store:       s,
		useParallel: true,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *Store {
	return e.store
}

// Query returns a new QueryBuilder wrapping the Store.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{store: e.store}
}

// language returns the bundle for path if the Engine handles it.
func (e *Engine) language(path string) (*lang.Language, bool) {
	l, ok := lang.ForFile(path)
	if !ok {
		return nil, false
	}
	if e.languages != nil && !e.languages[l.Name] {
		return nil, false
	}
	return l, true
}

// Parse reads and parses one file without touching the index. Languages
// excluded by WithLanguages are rejected like unsupported ones.
func (e *Engine) Parse(ctx context.Context, path string) (*Document, error) {
	l, ok := e.language(path)
	if !ok {
		return nil, fmt.Errorf("arbor: parse %s: unsupported file type", path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("arbor: parse: %w", err)
	}
	return e.parseContent(ctx, path, l, content)
}

func (e *Engine) parseContent(ctx context.Context, path string, l *lang.Language, content []byte) (*Document, error) {
	t, err := parse.Parse(ctx, l, content, parse.Options{Trivia: e.trivia})
	if err != nil {
		return nil, fmt.Errorf("arbor: %s: %w", path, err)
	}
	return NewDocument(path, l, t, content), nil
}

// runtime builds a script runtime wired to the Engine's script source.
func (e *Engine) runtime() *runtime.Runtime {
	opts := []runtime.RuntimeOption{runtime.WithRuntimeLogger(e.logger)}
	if e.scriptsFS != nil {
		opts = append(opts, runtime.WithRuntimeFS(e.scriptsFS))
	}
	return runtime.NewRuntime(e.store, e.scriptsDir, opts...)
}

// VisitFile parses path and runs the visitor scripts over it: node.risor for
// every node plus <category>.risor overrides. It returns what the scripts
// emitted.
func (e *Engine) VisitFile(ctx context.Context, path string) ([]runtime.Record, error) {
	doc, err := e.Parse(ctx, path)
	if err != nil {
		return nil, err
	}
	sv, err := e.runtime().LoadVisitor()
	if err != nil {
		return nil, fmt.Errorf("arbor: %w", err)
	}
	return sv.Run(ctx, &runtime.Document{Path: doc.Path, Tree: doc.Tree, Lang: doc.Lang})
}

// IndexFiles indexes the given file paths. When WithParallel is enabled
// (the default), parsing runs on a worker pool with batched SQLite writes.
//
// For each file:
//  1. Detect language from extension
//  2. Skip unsupported or filtered-out languages
//  3. Skip unchanged files (same content hash) unless WithForce is set
//  4. Insert or update the file record
//  5. Parse and write nodes, roles and category counts (buffered when
//     parallel, straight to SQLite when serial)
//  6. Replace the file's previous rows and record the new hash
//
// Errors on individual files are collected; processing continues.
func (e *Engine) IndexFiles(ctx context.Context, paths []string) error {
	if e.useParallel {
		return e.indexFilesParallel(ctx, paths)
	}
	return e.indexFilesSerial(ctx, paths)
}

func (e *Engine) indexFilesSerial(ctx context.Context, paths []string) error {
	var errs []error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.indexFile(ctx, path); err != nil {
			errs = append(errs, fmt.Errorf("index %s: %w", path, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}

func (e *Engine) indexFile(ctx context.Context, path string) error {
	item, skip, err := e.prepareFile(path, true)
	if err != nil || skip {
		return err
	}
	if err := e.extractFile(ctx, &item); err != nil {
		return err
	}
	return e.commitFile(&item)
}

// skipDirs are excluded from the fallback filesystem walk.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
}

// IndexDirectory indexes all supported files under root and removes index
// rows for files under root that no longer exist. If root is inside a git
// repository, git ls-files is used to respect .gitignore; otherwise the
// filesystem is walked, skipping hidden dirs, node_modules, vendor and
// __pycache__. Paths matching the Engine's excludes are skipped.
func (e *Engine) IndexDirectory(ctx context.Context, root string) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("arbor: %w", err)
	}
	paths, err := e.gitListFiles(root)
	if err != nil {
		e.logger.Debug("git ls-files unavailable, walking", "root", root, "err", err)
		paths, err = e.walkListFiles(root)
		if err != nil {
			return err
		}
	}
	paths = e.filterExcluded(root, paths)

	start := time.Now()
	indexErr := e.IndexFiles(ctx, paths)

	pruned, err := e.pruneMissing(root, paths)
	if err != nil {
		return err
	}
	if err := e.store.SetMeta(store.MetaLastIndexed, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("arbor: %w", err)
	}
	e.logger.Info("indexed directory", "root", root, "files", len(paths), "pruned", pruned, "elapsed", time.Since(start))
	return indexErr
}

func (e *Engine) filterExcluded(root string, paths []string) []string {
	if len(e.excludes) == 0 {
		return paths
	}
	kept := paths[:0]
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err == nil && config.MatchAny(e.excludes, rel) {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

// pruneMissing deletes indexed files under root that are not in paths.
func (e *Engine) pruneMissing(root string, paths []string) (int, error) {
	stale, err := e.store.FilesNotIn(paths)
	if err != nil {
		return 0, fmt.Errorf("arbor: prune: %w", err)
	}
	prefix := root + string(filepath.Separator)
	n := 0
	for _, f := range stale {
		if !strings.HasPrefix(f.Path, prefix) {
			continue
		}
		if err := e.store.DeleteFile(f.ID); err != nil {
			return n, fmt.Errorf("arbor: prune %s: %w", f.Path, err)
		}
		n++
	}
	return n, nil
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) files under root, filtered to supported languages.
func (e *Engine) gitListFiles(root string) ([]string, error) {
	// --cached: tracked files, --others: untracked files,
	// --exclude-standard: respect .gitignore, .git/info/exclude, global excludes.
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		absPath := filepath.Join(root, line)
		if _, ok := e.language(absPath); ok {
			paths = append(paths, absPath)
		}
	}
	return paths, nil
}

// walkListFiles discovers files by walking the filesystem, used as a fallback
// when git is not available.
func (e *Engine) walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := e.language(path); ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}
