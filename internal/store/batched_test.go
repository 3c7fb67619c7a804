package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchedStore_BuffersUntilCommit(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	// Files are inserted directly; their nodes are buffered by a worker.
	f := insertTestFile(t, s, "/main.go", "go")
	batch := NewBatchedStore()

	rows := insertReturnStatement(t, batch, f.ID)
	for _, r := range rows {
		assert.Negative(t, r.ID, "batched IDs should be negative")
	}
	assert.Equal(t, 4, batch.Len())

	committed, err := s.NodesByFile(f.ID)
	require.NoError(t, err)
	assert.Empty(t, committed, "nothing reaches SQLite before CommitBatch")
}

func TestCommitBatch_RemapsParents(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/main.go", "go")
	batch := NewBatchedStore()
	insertReturnStatement(t, batch, f.ID)
	require.NoError(t, batch.InsertCategoryCount(&CategoryCount{FileID: f.ID, Category: "token", Count: 2}))

	require.NoError(t, s.CommitBatch(batch))

	root, err := s.NodeByNodeID(f.ID, 3)
	require.NoError(t, err)
	require.NotNil(t, root)
	assert.Positive(t, root.ID)

	kids, err := s.ChildNodes(root.ID)
	require.NoError(t, err)
	require.Len(t, kids, 3)
	for _, k := range kids {
		require.NotNil(t, k.ParentID)
		assert.Equal(t, root.ID, *k.ParentID)
	}

	counts, err := s.CategoryCounts(f.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"token": 2}, counts)
}

func TestCommitBatch_ReplacesPreviousRows(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/main.go", "go")

	first := NewBatchedStore()
	insertReturnStatement(t, first, f.ID)
	require.NoError(t, s.CommitBatch(first))

	second := NewBatchedStore()
	insertReturnStatement(t, second, f.ID)
	require.NoError(t, s.CommitBatch(second))

	nodes, err := s.NodesByFile(f.ID)
	require.NoError(t, err)
	assert.Len(t, nodes, 4, "second commit replaces the first")
}

func TestStore_DirectWritesAreImmediate(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/main.go", "go")

	rows := insertReturnStatement(t, s, f.ID)
	for _, r := range rows {
		assert.Positive(t, r.ID)
	}
	require.NoError(t, s.InsertCategoryCount(&CategoryCount{FileID: f.ID, Category: "statement", Count: 1}))

	nodes, err := s.NodesByFile(f.ID)
	require.NoError(t, err)
	assert.Len(t, nodes, 4)
	counts, err := s.CategoryCounts(f.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"statement": 1}, counts)
}

func TestCommitBatch_UnknownFakeParent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/main.go", "go")
	batch := NewBatchedStore()
	_, err := batch.InsertNode(&Node{FileID: f.ID, NodeID: 0, ParentID: ptr(int64(-42)), Type: "x", Category: "token"})
	require.NoError(t, err)

	err = s.CommitBatch(batch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in fakeToReal")

	nodes, err := s.NodesByFile(f.ID)
	require.NoError(t, err)
	assert.Empty(t, nodes, "failed commit rolls back")
}
