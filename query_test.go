package arbor

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/arbor/internal/store"
)

// newIndexedEngine indexes goSource and returns the query builder and path.
func newIndexedEngine(t *testing.T) (*QueryBuilder, string) {
	t.Helper()
	e := newTestEngine(t)
	path := writeFile(t, filepath.Join(t.TempDir(), "main.go"), goSource)
	require.NoError(t, e.IndexFiles(context.Background(), []string{path}))
	return e.Query(), path
}

func firstReturn(t *testing.T, q *QueryBuilder, path string) *IndexedNode {
	t.Helper()
	rets, err := q.NodesByType(path, "return_statement")
	require.NoError(t, err)
	require.NotEmpty(t, rets)
	return rets[0]
}

func TestQuery_ChildByRole(t *testing.T) {
	q, path := newIndexedEngine(t)
	ret := firstReturn(t, q, path)

	val, err := q.ChildByRole(path, ret.NodeID, "return_value")
	require.NoError(t, err)
	require.NotNil(t, val)
	assert.Equal(t, "expression_list", val.Type)

	kw, err := q.ChildByRole(path, ret.NodeID, "return_keyword")
	require.NoError(t, err)
	require.NotNil(t, kw)
	assert.Equal(t, "return", kw.Text)

	// Declared in some language but not filled here.
	none, err := q.ChildByRole(path, ret.NodeID, "closing_terminator")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestQuery_ChildByRoleContract(t *testing.T) {
	e := newTestEngine(t)
	path := writeFile(t, filepath.Join(t.TempDir(), "call.go"), "package main\n\nfunc f() { g(1, 2) }\n")
	require.NoError(t, e.IndexFiles(context.Background(), []string{path}))
	q := e.Query()

	args, err := q.NodesByType(path, "argument_list")
	require.NoError(t, err)
	require.Len(t, args, 1)
	calls, err := q.NodesByType(path, "call_expression")
	require.NoError(t, err)
	require.Len(t, calls, 1)

	var contract *RoleContractError

	// argument is declared on argument_list but not unique.
	n, err := q.ChildByRole(path, args[0].NodeID, "argument")
	require.Error(t, err)
	assert.Nil(t, n)
	require.True(t, errors.As(err, &contract))
	assert.Equal(t, "argument_list", contract.Type)
	assert.Contains(t, contract.Detail, "not unique")

	// else_branch is a known role, just not one call_expression declares.
	n, err = q.ChildByRole(path, calls[0].NodeID, "else_branch")
	require.Error(t, err)
	assert.Nil(t, n)
	require.True(t, errors.As(err, &contract))
	assert.Equal(t, "call_expression", contract.Type)
	assert.Equal(t, "role not declared", contract.Detail)

	// The non-unique role is still reachable as a list.
	all, err := q.Children(path, args[0].NodeID)
	require.NoError(t, err)
	var filled []string
	for _, k := range all {
		if k.Role == "argument" {
			filled = append(filled, k.Text)
		}
	}
	assert.Equal(t, []string{"1", "2"}, filled)
}

func TestQuery_UnknownRoleSuggestsClosest(t *testing.T) {
	q, path := newIndexedEngine(t)
	ret := firstReturn(t, q, path)

	_, err := q.ChildByRole(path, ret.NodeID, "retrun_value")
	var unknown *UnknownRoleError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "return_value", unknown.Suggestion)
	assert.Contains(t, err.Error(), `did you mean "return_value"`)

	_, err = q.NodesByRole(path, "zzzzzzzzzzzzzzzzzzzz")
	require.True(t, errors.As(err, &unknown))
	assert.Empty(t, unknown.Suggestion)
}

func TestQuery_RoleOfAndSiblings(t *testing.T) {
	q, path := newIndexedEngine(t)
	ret := firstReturn(t, q, path)

	kids, err := q.Children(path, ret.NodeID)
	require.NoError(t, err)
	require.Len(t, kids, 2)

	parent, err := q.Parent(path, kids[1].NodeID)
	require.NoError(t, err)
	require.NotNil(t, parent)
	assert.Equal(t, ret.NodeID, parent.NodeID)

	role, err := q.RoleOf(path, kids[1].NodeID)
	require.NoError(t, err)
	assert.Equal(t, "return_value", role)

	next, err := q.NextSibling(path, kids[0].NodeID)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, kids[1].NodeID, next.NodeID)

	prev, err := q.PrevSibling(path, kids[1].NodeID)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, kids[0].NodeID, prev.NodeID)

	none, err := q.PrevSibling(path, kids[0].NodeID)
	require.NoError(t, err)
	assert.Nil(t, none)

	none, err = q.NextSibling(path, kids[1].NodeID)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestQuery_RootAndNode(t *testing.T) {
	q, path := newIndexedEngine(t)

	root, err := q.Root(path)
	require.NoError(t, err)
	require.NotNil(t, root)
	assert.Equal(t, "source_file", root.Type)
	assert.True(t, root.IsRoot())

	again, err := q.Node(path, root.NodeID)
	require.NoError(t, err)
	assert.Equal(t, root.ID, again.ID)

	none, err := q.NextSibling(path, root.NodeID)
	require.NoError(t, err)
	assert.Nil(t, none, "the root has no siblings")

	none, err = q.Parent(path, root.NodeID)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestQuery_NodesByRoleAndStats(t *testing.T) {
	q, path := newIndexedEngine(t)

	conds, err := q.NodesByRole(path, "condition")
	require.NoError(t, err)
	require.Len(t, conds, 1)
	assert.Equal(t, "ok", conds[0].Text)

	stats, err := q.Stats(path)
	require.NoError(t, err)
	assert.Equal(t, 1, stats["file"])

	counts, err := q.RoleCounts()
	require.NoError(t, err)
	assert.Equal(t, 3, counts["return_value"])
}

func TestQuery_MissingFile(t *testing.T) {
	q, _ := newIndexedEngine(t)

	n, err := q.Node("/nonexistent.go", 0)
	require.NoError(t, err)
	assert.Nil(t, n)

	nodes, err := q.NodesByRole("/nonexistent.go", "return_value")
	require.NoError(t, err)
	assert.Empty(t, nodes)

	role, err := q.RoleOf("/nonexistent.go", 0)
	require.NoError(t, err)
	assert.Empty(t, role)
}

func TestNewQueryBuilder(t *testing.T) {
	s, err := store.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Migrate())

	qb := NewQueryBuilder(s)
	files, err := qb.Files()
	require.NoError(t, err)
	assert.Empty(t, files)
}
