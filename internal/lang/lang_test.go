package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/arbor/internal/tree"
	"github.com/jward/arbor/internal/visit"
)

func TestLanguageForFile(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"main.go":          "go",
		"src/App.java":     "java",
		"web/index.JS":     "javascript",
		"web/view.jsx":     "javascript",
		"tools/run.py":     "python",
		"stubs/typing.pyi": "python",
	}
	for path, want := range cases {
		got, ok := LanguageForFile(path)
		require.True(t, ok, path)
		assert.Equal(t, want, got, path)
	}

	_, ok := LanguageForFile("README.md")
	assert.False(t, ok)
	_, ok = LanguageForFile("Makefile")
	assert.False(t, ok)
}

func TestNames(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"go", "java", "javascript", "python"}, Names())
}

func TestGet_LoadsGrammars(t *testing.T) {
	t.Parallel()
	for _, name := range Names() {
		l, ok := Get(name)
		require.True(t, ok, name)
		assert.Equal(t, name, l.Name)
		assert.NotNil(t, l.Grammar(), name)
		assert.Same(t, l.Grammar(), l.Grammar(), "grammar loads once")
	}
	_, ok := Get("cobol")
	assert.False(t, ok)
}

func TestForFile(t *testing.T) {
	t.Parallel()
	l, ok := ForFile("pkg/x.go")
	require.True(t, ok)
	assert.Equal(t, "go", l.Name)

	_, ok = ForFile("x.rs")
	assert.False(t, ok)
}

func TestReturnRolesEverywhere(t *testing.T) {
	t.Parallel()
	for _, name := range Names() {
		l, _ := Get(name)
		assert.True(t, l.Roles.IsUnique("return_statement", RoleReturnKeyword), name)
		assert.True(t, l.Roles.IsUnique("return_statement", RoleReturnValue), name)
	}

	for _, name := range []string{"go", "java", "javascript"} {
		l, _ := Get(name)
		rules := l.Roles.Rules("return_statement")
		var found bool
		for _, r := range rules {
			if r.Role == RoleClosingTerminator {
				found = true
				assert.Equal(t, tree.Backward, r.Direction, name)
			}
		}
		assert.True(t, found, name)
	}

	py, _ := Get("python")
	assert.False(t, py.Roles.Declared("return_statement", RoleClosingTerminator))
}

func TestArgumentsAreMany(t *testing.T) {
	t.Parallel()
	parents := map[string]tree.ElementType{
		"go":         "argument_list",
		"java":       "argument_list",
		"javascript": "arguments",
		"python":     "argument_list",
	}
	for name, parent := range parents {
		l, _ := Get(name)
		assert.True(t, l.Roles.Declared(parent, RoleArgument), name)
		assert.False(t, l.Roles.IsUnique(parent, RoleArgument), name)
	}
}

func TestCategories(t *testing.T) {
	t.Parallel()
	g, _ := Get("go")
	assert.Equal(t, visit.CategoryFile, g.Categories.CategoryOf("source_file"))
	assert.Equal(t, visit.CategoryDeclaration, g.Categories.CategoryOf("function_declaration"))
	assert.Equal(t, visit.CategoryStatement, g.Categories.CategoryOf("return_statement"))
	assert.Equal(t, visit.CategoryExpression, g.Categories.CategoryOf("call_expression"))
	assert.Equal(t, visit.CategoryComment, g.Categories.CategoryOf("comment"))
	assert.Equal(t, visit.CategoryTrivia, g.Categories.CategoryOf(tree.Whitespace))
	assert.Equal(t, visit.CategoryError, g.Categories.CategoryOf(tree.ErrorElement))

	j, _ := Get("java")
	assert.Equal(t, visit.CategoryComment, j.Categories.CategoryOf("block_comment"))
	assert.True(t, j.Expressions.Contains("method_invocation"))
	assert.True(t, j.Statements.Contains("while_statement"))
}

func TestAllRoles(t *testing.T) {
	t.Parallel()
	roles := AllRoles()
	assert.Contains(t, roles, RoleReturnValue)
	assert.Contains(t, roles, RoleElseKeyword)
	assert.Contains(t, roles, RoleElseBranch)
	assert.IsIncreasing(t, roles)
}
