package scripts_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/arbor"
	"github.com/jward/arbor/scripts"
)

func TestDefaultVisitors_Outline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	src := "package main\n\n// Answer is fixed.\nfunc Answer() int { return 42 }\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	e, err := arbor.New(filepath.Join(dir, "index.db"), arbor.WithScriptsFS(scripts.FS))
	require.NoError(t, err)
	defer e.Close()

	records, err := e.VisitFile(context.Background(), path)
	require.NoError(t, err)

	var types []any
	var comments []any
	for _, r := range records {
		switch r["category"] {
		case "declaration":
			types = append(types, r["type"])
		case "comment":
			comments = append(comments, r["text"])
		}
	}
	assert.Equal(t, []any{"package_clause", "function_declaration"}, types)
	assert.Equal(t, []any{"// Answer is fixed."}, comments)

	for _, r := range records {
		if r["type"] == "function_declaration" {
			assert.Equal(t, []any{"body"}, r["roles"])
		}
	}
}
