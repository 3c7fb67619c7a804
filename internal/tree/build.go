package tree

// Builder assembles a Tree bottom-up: leaves first, then composites that adopt
// them. It is what parsers drive. A Builder must not be used after Build.
type Builder struct {
	t *Tree
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{t: &Tree{root: NoNode}}
}

// Leaf adds a token node.
func (b *Builder) Leaf(typ ElementType, text string) NodeID {
	return b.t.addLeaf(typ, text)
}

// Composite adds a node adopting children in the given (source) order. A
// child that already has a parent is a ContractViolation.
func (b *Builder) Composite(typ ElementType, children ...NodeID) NodeID {
	return b.t.addComposite("build", typ, children)
}

// SetSpan records a node's byte range. Nodes without an explicit span get one
// in Build by laying out leaf text sequentially.
func (b *Builder) SetSpan(id NodeID, start, end uint32) {
	r := &b.t.nodes[id]
	r.start, r.end, r.spanned = start, end, true
}

// Len returns the number of nodes added so far.
func (b *Builder) Len() int { return len(b.t.nodes) }

// Build makes root the tree's root and returns the tree.
func (b *Builder) Build(root NodeID) *Tree {
	t := b.t
	b.t = nil
	if root < 0 || int(root) >= len(t.nodes) {
		violate("build", "", NoRole, "root %d out of range", root)
	}
	if p := t.nodes[root].parent; p != NoNode {
		violate("build", t.nodes[root].typ, NoRole, "root %d already has parent %d", root, p)
	}
	t.root = root
	t.layout(root, 0)
	return t
}

func (t *Tree) layout(id NodeID, off uint32) uint32 {
	r := &t.nodes[id]
	if r.spanned {
		return r.end
	}
	r.start = off
	if len(r.children) == 0 {
		off += uint32(len(r.text))
	}
	for _, c := range r.children {
		off = t.layout(c, off)
	}
	r.end = off
	return off
}

func (t *Tree) addLeaf(typ ElementType, text string) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, record{typ: typ, parent: NoNode, index: -1, text: text})
	return id
}

func (t *Tree) addComposite(op string, typ ElementType, children []NodeID) NodeID {
	seen := make(map[NodeID]struct{}, len(children))
	for _, c := range children {
		if c < 0 || int(c) >= len(t.nodes) {
			violate(op, typ, NoRole, "child %d out of range", c)
		}
		if p := t.nodes[c].parent; p != NoNode {
			violate(op, typ, NoRole, "child %d (%s) already owned by %d", c, t.nodes[c].typ, p)
		}
		if c == t.root {
			violate(op, typ, NoRole, "child %d is the tree root", c)
		}
		if _, dup := seen[c]; dup {
			violate(op, typ, NoRole, "child %d listed twice", c)
		}
		seen[c] = struct{}{}
	}

	id := NodeID(len(t.nodes))
	kids := make([]NodeID, len(children))
	copy(kids, children)
	t.nodes = append(t.nodes, record{typ: typ, parent: NoNode, index: -1, children: kids})
	for i, c := range kids {
		t.nodes[c].parent = id
		t.nodes[c].index = int32(i)
	}
	return id
}
