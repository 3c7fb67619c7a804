package tree

// Edits reshape an existing tree. They keep every parent link and sibling
// index consistent and bump ModCount. Callers must guarantee a single writer
// and no concurrent readers. Byte spans keep describing the parsed source and
// are not recomputed.

// AddLeaf adds a detached token node to t.
func (t *Tree) AddLeaf(typ ElementType, text string) Node {
	return Node{t: t, id: t.addLeaf(typ, text)}
}

// AddComposite adds a detached composite adopting children, which must be
// parentless nodes of t.
func (t *Tree) AddComposite(typ ElementType, children ...Node) Node {
	ids := make([]NodeID, len(children))
	for i, c := range children {
		if c.t != t {
			violate("add", typ, NoRole, "child %s belongs to another tree", c)
		}
		ids[i] = c.id
	}
	return Node{t: t, id: t.addComposite("add", typ, ids)}
}

// Detach removes n from its parent. The subtree under n stays intact but is
// no longer reachable from the root.
func (t *Tree) Detach(n Node) {
	t.checkOwned("detach", n)
	r := &t.nodes[n.id]
	if r.parent == NoNode {
		violate("detach", r.typ, NoRole, "node %d has no parent", n.id)
	}
	p := &t.nodes[r.parent]
	kids := p.children
	at := int(r.index)
	copy(kids[at:], kids[at+1:])
	p.children = kids[:len(kids)-1]
	for i := at; i < len(p.children); i++ {
		t.nodes[p.children[i]].index = int32(i)
	}
	r.parent, r.index = NoNode, -1
	t.modCount.Add(1)
}

// Replace puts repl in old's position and detaches old. repl must be a
// parentless, non-root node of t that does not contain old.
func (t *Tree) Replace(old, repl Node) {
	t.checkOwned("replace", old)
	t.checkOwned("replace", repl)
	o := &t.nodes[old.id]
	if o.parent == NoNode {
		violate("replace", o.typ, NoRole, "node %d has no parent", old.id)
	}
	nr := &t.nodes[repl.id]
	if nr.parent != NoNode || repl.id == t.root {
		violate("replace", nr.typ, NoRole, "replacement %d is already attached", repl.id)
	}
	for cur := o.parent; cur != NoNode; cur = t.nodes[cur].parent {
		if cur == repl.id {
			violate("replace", nr.typ, NoRole, "replacement %d contains node %d", repl.id, old.id)
		}
	}

	parent, at := o.parent, o.index
	t.nodes[parent].children[at] = repl.id
	nr.parent, nr.index = parent, at
	o.parent, o.index = NoNode, -1
	t.modCount.Add(1)
}

func (t *Tree) checkOwned(op string, n Node) {
	if n.t != t {
		violate(op, "", NoRole, "node %s belongs to another tree", n)
	}
}
