package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetach_ReindexesSiblingsAndOrphans(t *testing.T) {
	t.Parallel()
	tr := buildStatement(block,
		leaf{identifier, "a"},
		leaf{identifier, "b"},
		leaf{identifier, "c"},
	)
	root := tr.Root()
	b := root.Child(1)
	before := tr.ModCount()

	tr.Detach(b)

	assert.Equal(t, before+1, tr.ModCount())
	require.Equal(t, 2, root.ChildCount())
	assert.Equal(t, "ac", root.Text())
	assert.Equal(t, 1, root.Child(1).Index())
	_, ok := b.Parent()
	assert.False(t, ok)
	assert.False(t, b.Attached())
	assert.Equal(t, -1, b.Index())
}

func TestDetach_SubtreeStaysIntact(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	x := b.Leaf(identifier, "x")
	inner := b.Composite(binaryExpr, x)
	tr := b.Build(b.Composite(returnStatement, inner))

	sub, _ := tr.Node(inner)
	leafNode, _ := tr.Node(x)
	tr.Detach(sub)

	p, ok := leafNode.Parent()
	require.True(t, ok)
	assert.Equal(t, sub, p)
	assert.False(t, leafNode.Attached())
}

func TestDetach_RootIsViolation(t *testing.T) {
	t.Parallel()
	tr := buildStatement(block, leaf{identifier, "a"})
	requireViolation(t, func() { tr.Detach(tr.Root()) })
}

func TestReplace_SwapsInPlace(t *testing.T) {
	t.Parallel()
	tr := buildStatement(returnStatement,
		leaf{returnKeyword, "return"},
		leaf{identifier, "x"},
		leaf{semicolon, ";"},
	)
	root := tr.Root()
	old := root.Child(1)

	repl := tr.AddComposite(binaryExpr, tr.AddLeaf(identifier, "y"), tr.AddLeaf(identifier, "z"))
	tr.Replace(old, repl)

	assert.Equal(t, repl, root.Child(1))
	assert.Equal(t, 1, repl.Index())
	assert.True(t, repl.Attached())
	assert.False(t, old.Attached())
	assert.Equal(t, "returnyz;", root.Text())
}

func TestReplace_RejectsAttachedReplacement(t *testing.T) {
	t.Parallel()
	tr := buildStatement(block, leaf{identifier, "a"}, leaf{identifier, "b"})
	root := tr.Root()
	requireViolation(t, func() { tr.Replace(root.Child(0), root.Child(1)) })
}

func TestReplace_RejectsCycle(t *testing.T) {
	t.Parallel()
	tr := buildStatement(block, leaf{identifier, "a"})
	inner := tr.AddLeaf(identifier, "x")
	wrapper := tr.AddComposite(binaryExpr, inner)
	// inner lives under the detached wrapper; putting wrapper in inner's
	// place would make wrapper its own ancestor.
	requireViolation(t, func() { tr.Replace(inner, wrapper) })
}

func TestEdit_ForeignNodeIsViolation(t *testing.T) {
	t.Parallel()
	a := buildStatement(block, leaf{identifier, "a"})
	b := buildStatement(block, leaf{identifier, "b"})
	requireViolation(t, func() { a.Detach(b.Root().Child(0)) })
	requireViolation(t, func() { a.AddComposite(block, b.Root().Child(0)) })
}
