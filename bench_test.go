package arbor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jward/arbor/internal/tree"
)

// benchGoSource is a realistic ~100-line Go file with functions, structs,
// interfaces, and method calls for exercising parsing, role lookup and
// indexing.
const benchGoSource = `package bench

import (
	"fmt"
	"strings"
)

// Logger defines a logging interface.
type Logger interface {
	Log(msg string)
	Logf(format string, args ...interface{})
}

// Config holds application configuration.
type Config struct {
	Name    string
	Debug   bool
	MaxRetry int
	Tags    []string
}

// Validate checks the config for correctness.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.MaxRetry < 0 {
		return fmt.Errorf("max_retry must be non-negative")
	}
	return nil
}

// String returns a human-readable representation.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Name: %s, Debug: %v}", c.Name, c.Debug)
}

// HasTag reports whether the config includes the given tag.
func (c *Config) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// StdoutLogger implements Logger by writing to stdout.
type StdoutLogger struct {
	Prefix string
}

// Log writes a plain message.
func (l *StdoutLogger) Log(msg string) {
	fmt.Printf("[%s] %s\n", l.Prefix, msg)
}

// Logf writes a formatted message.
func (l *StdoutLogger) Logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.Log(msg)
}

// NewApp creates and returns an initialized App.
func NewApp(cfg *Config, log Logger) *App {
	return &App{config: cfg, logger: log}
}

// App is the main application struct.
type App struct {
	config *Config
	logger Logger
}

// Run starts the application.
func (a *App) Run() error {
	if err := a.config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.logger.Logf("starting %s", a.config.Name)
	a.process()
	return nil
}

// process does the main work.
func (a *App) process() {
	tags := strings.Join(a.config.Tags, ", ")
	a.logger.Logf("processing with tags: %s", tags)
}

// BuildGreeting constructs a greeting string.
func BuildGreeting(name string) string {
	return fmt.Sprintf("Hello, %s!", name)
}

// CountWords returns the number of words in s.
func CountWords(s string) int {
	return len(strings.Fields(s))
}
`

// setupBenchEngine creates an Engine and a Go source file, returning the
// engine and file path. Caller must close the engine.
func setupBenchEngine(b *testing.B) (*Engine, string) {
	b.Helper()
	dir := b.TempDir()
	e, err := New(filepath.Join(dir, "bench.db"), WithLanguages("go"))
	if err != nil {
		b.Fatal(err)
	}

	srcPath := filepath.Join(dir, "bench.go")
	if err := os.WriteFile(srcPath, []byte(benchGoSource), 0644); err != nil {
		e.Close()
		b.Fatal(err)
	}
	return e, srcPath
}

// BenchmarkIndexFiles_Go measures indexing a realistic Go source file into
// a fresh database.
func BenchmarkIndexFiles_Go(b *testing.B) {
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		e, srcPath := setupBenchEngine(b)
		b.StartTimer()

		if err := e.IndexFiles(ctx, []string{srcPath}); err != nil {
			e.Close()
			b.Fatal(err)
		}

		b.StopTimer()
		e.Close()
		b.StartTimer()
	}
}

// BenchmarkParse_Go measures parsing into an arena tree plus the role index.
func BenchmarkParse_Go(b *testing.B) {
	e, srcPath := setupBenchEngine(b)
	defer e.Close()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		doc, err := e.Parse(ctx, srcPath)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := doc.RoleIndex(ctx); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkFindChildByRole measures role lookups over every return statement
// of a parsed tree.
func BenchmarkFindChildByRole(b *testing.B) {
	e, srcPath := setupBenchEngine(b)
	defer e.Close()
	doc, err := e.Parse(context.Background(), srcPath)
	if err != nil {
		b.Fatal(err)
	}
	var rets []tree.Node
	tree.Preorder(doc.Tree.Root(), func(n tree.Node) bool {
		if n.Type() == "return_statement" {
			rets = append(rets, n)
		}
		return true
	})
	reg := doc.Lang.Roles

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, r := range rets {
			reg.FindChildByRole(r, "return_value")
		}
	}
}

// BenchmarkSubtreeSize_Cached measures the memoized subtree size of the root
// once the cache is warm.
func BenchmarkSubtreeSize_Cached(b *testing.B) {
	e, srcPath := setupBenchEngine(b)
	defer e.Close()
	ctx := context.Background()
	doc, err := e.Parse(ctx, srcPath)
	if err != nil {
		b.Fatal(err)
	}
	root := doc.Tree.Root()
	if _, err := doc.SubtreeSize(ctx, root); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := doc.SubtreeSize(ctx, root); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkQueryChildByRole measures the indexed role query path.
func BenchmarkQueryChildByRole(b *testing.B) {
	e, srcPath := setupBenchEngine(b)
	defer e.Close()
	if err := e.IndexFiles(context.Background(), []string{srcPath}); err != nil {
		b.Fatal(err)
	}
	q := e.Query()
	rets, err := q.NodesByType(srcPath, "return_statement")
	if err != nil || len(rets) == 0 {
		b.Fatalf("no return statements indexed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := q.ChildByRole(srcPath, rets[i%len(rets)].NodeID, "return_value"); err != nil {
			b.Fatal(err)
		}
	}
}
