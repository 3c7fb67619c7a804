package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0o644))
	return dir
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)
}

func TestLoad_AllFields(t *testing.T) {
	t.Parallel()
	dir := writeConfig(t, `
languages = ["go", "python"]
exclude = ["vendor/**", "**/*_gen.go"]
trivia = true
workers = 3
db = "cache/idx.db"
scripts = "visitors"
`)
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "python"}, cfg.Languages)
	assert.Equal(t, []string{"vendor/**", "**/*_gen.go"}, cfg.Exclude)
	assert.True(t, cfg.Trivia)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "visitors", cfg.Scripts)
	assert.Equal(t, filepath.Join(dir, "cache/idx.db"), cfg.DBPath(dir))
}

func TestLoad_RejectsUnknownKey(t *testing.T) {
	t.Parallel()
	dir := writeConfig(t, `langauges = ["go"]`)
	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), FileName)
}

func TestParse_Validation(t *testing.T) {
	t.Parallel()
	_, err := Parse([]byte(`languages = ["cobol"]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown language "cobol"`)

	_, err = Parse([]byte(`exclude = ["[abc"]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid exclude pattern")

	_, err = Parse([]byte(`workers = -1`))
	require.Error(t, err)
}

func TestDBPath_Default(t *testing.T) {
	t.Parallel()
	assert.Equal(t, filepath.Join("/repo", DefaultDB), Config{}.DBPath("/repo"))
	assert.Equal(t, "/abs/x.db", Config{DB: "/abs/x.db"}.DBPath("/repo"))
}

func TestExcluded(t *testing.T) {
	t.Parallel()
	cfg := Config{Exclude: []string{"vendor/**", "**/*_gen.go", "testdata"}}
	assert.True(t, cfg.Excluded("vendor/a/b.go"))
	assert.True(t, cfg.Excluded("pkg/x/model_gen.go"))
	assert.True(t, cfg.Excluded("testdata"))
	assert.False(t, cfg.Excluded("pkg/x/model.go"))
	assert.False(t, cfg.Excluded("src/testdata/a.go"))
}
