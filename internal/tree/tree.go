// Package tree implements the role-addressed composite syntax tree.
//
// A Tree is an arena: it owns every node record in a slice, and parents own
// their children by holding their IDs. A child's link back to its parent is an
// index used only for navigation. Node is a small handle (tree, id) that is
// cheap to copy and compare.
//
// Reads (type, children, parent, role queries, navigation) never lock and are
// safe for any number of concurrent readers. Edits (Detach, Replace, Add*)
// require a single writer with no concurrent readers of the same tree.
package tree

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// ElementType tags the kind of token or construct a node represents. Parsed
// trees use the grammar's node type names directly.
type ElementType string

// Element types every language shares.
const (
	Whitespace   ElementType = "whitespace"
	ErrorElement ElementType = "ERROR"
)

// TypeSet is a set of element types treated as equivalent when matching roles.
// The zero TypeSet is empty.
type TypeSet struct {
	m map[ElementType]struct{}
}

// NewTypeSet returns a set containing types.
func NewTypeSet(types ...ElementType) TypeSet {
	m := make(map[ElementType]struct{}, len(types))
	for _, t := range types {
		m[t] = struct{}{}
	}
	return TypeSet{m: m}
}

// Contains reports whether t is in the set.
func (s TypeSet) Contains(t ElementType) bool {
	_, ok := s.m[t]
	return ok
}

// Len returns the number of types in the set.
func (s TypeSet) Len() int { return len(s.m) }

// Union returns a new set holding the types of s and o.
func (s TypeSet) Union(o TypeSet) TypeSet {
	m := make(map[ElementType]struct{}, len(s.m)+len(o.m))
	for t := range s.m {
		m[t] = struct{}{}
	}
	for t := range o.m {
		m[t] = struct{}{}
	}
	return TypeSet{m: m}
}

// Types returns the members sorted by name.
func (s TypeSet) Types() []ElementType {
	out := make([]ElementType, 0, len(s.m))
	for t := range s.m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NodeID indexes a node inside its Tree's arena.
type NodeID int32

// NoNode is the parent of roots and detached nodes.
const NoNode NodeID = -1

type record struct {
	typ      ElementType
	parent   NodeID
	index    int32 // position in parent's children, -1 when parentless
	children []NodeID
	text     string
	start    uint32
	end      uint32
	spanned  bool
}

// Tree owns the nodes of one parsed source unit.
type Tree struct {
	nodes    []record
	root     NodeID
	modCount atomic.Uint64
}

// Root returns the tree's root node.
func (t *Tree) Root() Node {
	return Node{t: t, id: t.root}
}

// Node returns the handle for id.
func (t *Tree) Node(id NodeID) (Node, bool) {
	if id < 0 || int(id) >= len(t.nodes) {
		return Node{}, false
	}
	return Node{t: t, id: id}, true
}

// Len returns the number of nodes in the arena, including detached ones.
func (t *Tree) Len() int { return len(t.nodes) }

// ModCount returns the edit epoch. It changes on every structural edit;
// holders of derived values compare it to decide when to discard them.
func (t *Tree) ModCount() uint64 { return t.modCount.Load() }

// Fingerprint hashes the attached tree's shape: element types, leaf text and
// child counts in pre-order. Equal fingerprints mean equal structure with
// overwhelming probability.
func (t *Tree) Fingerprint() uint64 {
	d := xxhash.New()
	var buf [4]byte
	Preorder(t.Root(), func(n Node) bool {
		r := &t.nodes[n.id]
		_, _ = d.WriteString(string(r.typ))
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(r.text)
		c := len(r.children)
		buf[0], buf[1], buf[2], buf[3] = byte(c), byte(c>>8), byte(c>>16), byte(c>>24)
		_, _ = d.Write(buf[:])
		return true
	})
	return d.Sum64()
}

// Node is a non-owning handle to a node in a Tree. The zero Node is the
// "absent" node returned by lookups that find nothing.
type Node struct {
	t  *Tree
	id NodeID
}

// IsZero reports whether n is the absent node.
func (n Node) IsZero() bool { return n.t == nil }

// ID returns the node's arena index.
func (n Node) ID() NodeID { return n.id }

// Tree returns the owning tree.
func (n Node) Tree() *Tree { return n.t }

func (n Node) rec() *record { return &n.t.nodes[n.id] }

// Type returns the node's element type.
func (n Node) Type() ElementType { return n.rec().typ }

// Parent returns the parent node; roots and detached nodes have none.
func (n Node) Parent() (Node, bool) {
	p := n.rec().parent
	if p == NoNode {
		return Node{}, false
	}
	return Node{t: n.t, id: p}, true
}

// Index returns the node's position among its siblings, or -1 without a parent.
func (n Node) Index() int { return int(n.rec().index) }

// ChildCount returns the number of children.
func (n Node) ChildCount() int { return len(n.rec().children) }

// Child returns the i-th child in source order.
func (n Node) Child(i int) Node {
	return Node{t: n.t, id: n.rec().children[i]}
}

// Children returns the children in source order.
func (n Node) Children() []Node {
	ids := n.rec().children
	out := make([]Node, len(ids))
	for i, id := range ids {
		out[i] = Node{t: n.t, id: id}
	}
	return out
}

// IsLeaf reports whether the node has no children.
func (n Node) IsLeaf() bool { return len(n.rec().children) == 0 }

// Span returns the node's byte range in the source.
func (n Node) Span() (start, end uint32) {
	r := n.rec()
	return r.start, r.end
}

// Text returns a leaf's text, or the concatenated text of a composite's leaves.
func (n Node) Text() string {
	r := n.rec()
	if len(r.children) == 0 {
		return r.text
	}
	var sb strings.Builder
	Preorder(n, func(c Node) bool {
		if cr := c.rec(); len(cr.children) == 0 {
			sb.WriteString(cr.text)
		}
		return true
	})
	return sb.String()
}

// Attached reports whether n is reachable from its tree's root.
func (n Node) Attached() bool {
	cur := n.id
	for {
		p := n.t.nodes[cur].parent
		if p == NoNode {
			return cur == n.t.root
		}
		cur = p
	}
}

func (n Node) String() string {
	if n.IsZero() {
		return "<none>"
	}
	r := n.rec()
	if len(r.children) == 0 && r.text != "" {
		return fmt.Sprintf("%s(%q)", r.typ, r.text)
	}
	return string(r.typ)
}

// Preorder visits n and its descendants depth-first in source order. fn
// returning false skips that node's children. The walk is iterative.
func Preorder(n Node, fn func(Node) bool) {
	if n.IsZero() {
		return
	}
	stack := []NodeID{n.id}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cur := Node{t: n.t, id: id}
		if !fn(cur) {
			continue
		}
		kids := n.t.nodes[id].children
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
}
