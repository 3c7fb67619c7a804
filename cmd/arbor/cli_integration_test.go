package main_test

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBinary compiles the arbor binary into t.TempDir() and returns its path.
func buildBinary(t *testing.T) string {
	t.Helper()
	binName := "arbor"
	if runtime.GOOS == "windows" {
		binName += ".exe"
	}
	bin := filepath.Join(t.TempDir(), binName)
	cmd := exec.Command("go", "build", "-o", bin, ".")
	cmd.Dir = filepath.Join(projectRoot(t), "cmd", "arbor")
	cmd.Env = append(os.Environ(), "CGO_ENABLED=1")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "build failed: %s", string(out))
	return bin
}

// projectRoot walks up from this file's directory to the one holding go.mod.
func projectRoot(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		require.NotEqual(t, parent, dir, "could not find project root")
		dir = parent
	}
}

const fixtureSource = `package main

func pick(ok bool) int {
	if ok {
		return 1
	}
	return 2
}
`

// indexFixture builds the binary and indexes a one-file Go repository.
func indexFixture(t *testing.T) (bin, dir string) {
	t.Helper()
	bin = buildBinary(t)
	dir = t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte(fixtureSource), 0o644))

	cmd := exec.Command(bin, "index", dir)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "index failed: %s", string(out))
	require.FileExists(t, filepath.Join(dir, ".arbor", "index.db"))
	return bin, dir
}

// run executes the binary in dir and decodes its JSON envelope.
func run(t *testing.T, bin, dir string, args ...string) map[string]any {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Dir = dir
	stdout, err := cmd.Output()
	if err != nil && len(stdout) == 0 {
		t.Fatalf("%v failed with no output: %v", args, err)
	}
	var result map[string]any
	require.NoError(t, json.Unmarshal(stdout, &result), "invalid JSON output: %s", string(stdout))
	return result
}

func TestCLI_QueryRoles(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin, dir := indexFixture(t)

	files := run(t, bin, dir, "query", "files")
	require.Len(t, files["results"], 1)

	conds := run(t, bin, dir, "query", "by-role", "main.go", "condition")
	assert.Empty(t, conds["error"])
	results, ok := conds["results"].([]any)
	require.True(t, ok)
	require.Len(t, results, 1)
	cond := results[0].(map[string]any)
	assert.Equal(t, "ok", cond["text"])
	assert.Equal(t, "condition", cond["role"])
	assert.EqualValues(t, 4, cond["start_line"])

	vals := run(t, bin, dir, "query", "by-role", "main.go", "return_value")
	assert.Len(t, vals["results"], 2)
}

func TestCLI_UnknownRoleSuggestion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin, dir := indexFixture(t)

	result := run(t, bin, dir, "query", "by-role", "main.go", "conditon")
	assert.Contains(t, result["error"], `did you mean "condition"`)
}

func TestCLI_ChildAndSiblings(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin, dir := indexFixture(t)

	rets := run(t, bin, dir, "query", "by-type", "main.go", "return_statement")
	list := rets["results"].([]any)
	require.Len(t, list, 2)
	id := formatID(list[0].(map[string]any)["id"])

	val := run(t, bin, dir, "query", "child", "main.go", id, "return_value")
	assert.Equal(t, "expression_list", val["results"].(map[string]any)["type"])

	undeclared := run(t, bin, dir, "query", "child", "main.go", id, "argument")
	assert.Contains(t, undeclared["error"], "role not declared")
	assert.Nil(t, undeclared["results"])

	kids := run(t, bin, dir, "query", "children", "main.go", id)
	first := formatID(kids["results"].([]any)[0].(map[string]any)["id"])
	next := run(t, bin, dir, "query", "next", "main.go", first)
	assert.Equal(t, "return_value", next["results"].(map[string]any)["role"])

	prev := run(t, bin, dir, "query", "prev", "main.go", first)
	assert.Nil(t, prev["results"])

	bad := run(t, bin, dir, "query", "node", "main.go", "abc")
	assert.Contains(t, bad["error"], "must be a non-negative integer")
}

func TestCLI_DumpAndVisit(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin, dir := indexFixture(t)

	dump := run(t, bin, dir, "dump", "main.go")
	root := dump["results"].(map[string]any)
	assert.Equal(t, "source_file", root["type"])

	scripts := filepath.Join(dir, "visitors")
	require.NoError(t, os.Mkdir(scripts, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(scripts, "node.risor"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(scripts, "statement.risor"), []byte(`
if node_type(node) == "if_statement" {
	emit({"condition": node_text(child_by_role(node, "condition")), "indexed": len(files())})
}
`), 0o644))

	visit := run(t, bin, dir, "visit", "main.go", "--scripts-dir", scripts)
	assert.Empty(t, visit["error"])
	records := visit["results"].([]any)
	require.Len(t, records, 1)
	rec := records[0].(map[string]any)
	assert.Equal(t, "ok", rec["condition"])
	assert.EqualValues(t, 1, rec["indexed"])
}

func formatID(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}
