// Package parse turns source files into arbor trees using tree-sitter.
//
// Every tree-sitter node, named or anonymous, becomes an arbor node with the
// grammar's type name, so keywords and punctuation are addressable by role.
// Source bytes no token covers become leaves too: text that is not whitespace
// (string literal contents in some grammars) is always kept as a Fragment,
// and whitespace is kept as tree.Whitespace when Options.Trivia is set. With
// trivia the root's text reproduces the source exactly.
package parse

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/arbor/internal/lang"
	"github.com/jward/arbor/internal/tree"
)

// Fragment is the type of non-whitespace source text that no token covers.
const Fragment tree.ElementType = "fragment"

// Options control tree construction.
type Options struct {
	// Trivia keeps whitespace between tokens as tree.Whitespace leaves.
	Trivia bool
}

// Parse parses src with l's grammar and converts the result.
func Parse(ctx context.Context, l *lang.Language, src []byte, opts Options) (*tree.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(l.Grammar())

	st, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", l.Name, err)
	}
	if st == nil {
		return nil, fmt.Errorf("parse %s: parser returned no tree", l.Name)
	}
	return Convert(st.RootNode(), src, opts), nil
}

// Convert copies a tree-sitter tree rooted at root into a new arbor tree.
// The root spans the whole of src.
func Convert(root *sitter.Node, src []byte, opts Options) *tree.Tree {
	c := &converter{b: tree.NewBuilder(), src: src, trivia: opts.Trivia}
	id := c.node(root, 0, uint32(len(src)))
	return c.b.Build(id)
}

type converter struct {
	b      *tree.Builder
	src    []byte
	trivia bool
}

func (c *converter) node(n *sitter.Node, start, end uint32) tree.NodeID {
	typ := tree.ElementType(n.Type())
	count := int(n.ChildCount())
	if count == 0 {
		id := c.b.Leaf(typ, string(c.src[start:end]))
		c.b.SetSpan(id, start, end)
		return id
	}

	kids := make([]tree.NodeID, 0, count)
	off := start
	for i := 0; i < count; i++ {
		ch := n.Child(i)
		if ch == nil || ch.IsMissing() {
			continue
		}
		cs, ce := ch.StartByte(), ch.EndByte()
		if cs < off {
			cs = off
		}
		if ce < cs {
			ce = cs
		}
		if cs > off {
			if g, ok := c.gap(off, cs); ok {
				kids = append(kids, g)
			}
		}
		kids = append(kids, c.node(ch, cs, ce))
		off = ce
	}
	if end > off {
		if g, ok := c.gap(off, end); ok {
			kids = append(kids, g)
		}
	}

	id := c.b.Composite(typ, kids...)
	c.b.SetSpan(id, start, end)
	return id
}

func (c *converter) gap(start, end uint32) (tree.NodeID, bool) {
	text := string(c.src[start:end])
	typ := tree.Whitespace
	if strings.TrimSpace(text) != "" {
		typ = Fragment
	} else if !c.trivia {
		return tree.NoNode, false
	}
	id := c.b.Leaf(typ, text)
	c.b.SetSpan(id, start, end)
	return id, true
}
