package tree

// Predicate selects nodes during navigation.
type Predicate func(Node) bool

// OfType matches nodes of any of the given types.
func OfType(types ...ElementType) Predicate {
	set := NewTypeSet(types...)
	return func(n Node) bool { return set.Contains(n.Type()) }
}

// InSet matches nodes whose type is in s.
func InSet(s TypeSet) Predicate {
	return func(n Node) bool { return s.Contains(n.Type()) }
}

// Not negates p.
func Not(p Predicate) Predicate {
	return func(n Node) bool { return !p(n) }
}

// Any matches every node.
func Any(Node) bool { return true }

// FindNext returns the first sibling after start satisfying pred. The scan
// stops at the parent's last child; a parentless start has no siblings.
func FindNext(start Node, pred Predicate) (Node, bool) {
	parent, ok := start.Parent()
	if !ok {
		return Node{}, false
	}
	kids := parent.rec().children
	for i := start.Index() + 1; i < len(kids); i++ {
		c := Node{t: start.t, id: kids[i]}
		if pred(c) {
			return c, true
		}
	}
	return Node{}, false
}

// FindPrevious returns the nearest sibling before start satisfying pred.
func FindPrevious(start Node, pred Predicate) (Node, bool) {
	parent, ok := start.Parent()
	if !ok {
		return Node{}, false
	}
	kids := parent.rec().children
	for i := start.Index() - 1; i >= 0; i-- {
		c := Node{t: start.t, id: kids[i]}
		if pred(c) {
			return c, true
		}
	}
	return Node{}, false
}

// NextSibling returns the sibling right after n.
func NextSibling(n Node) (Node, bool) { return FindNext(n, Any) }

// PrevSibling returns the sibling right before n.
func PrevSibling(n Node) (Node, bool) { return FindPrevious(n, Any) }

// FindChildForward returns n's first child whose type is in s.
func FindChildForward(n Node, s TypeSet) (Node, bool) {
	for _, id := range n.rec().children {
		if s.Contains(n.t.nodes[id].typ) {
			return Node{t: n.t, id: id}, true
		}
	}
	return Node{}, false
}

// FindChildBackward returns n's last child whose type is in s.
func FindChildBackward(n Node, s TypeSet) (Node, bool) {
	kids := n.rec().children
	for i := len(kids) - 1; i >= 0; i-- {
		if s.Contains(n.t.nodes[kids[i]].typ) {
			return Node{t: n.t, id: kids[i]}, true
		}
	}
	return Node{}, false
}

// FindAncestor returns the nearest proper ancestor of n satisfying pred.
func FindAncestor(n Node, pred Predicate) (Node, bool) {
	for p, ok := n.Parent(); ok; p, ok = p.Parent() {
		if pred(p) {
			return p, true
		}
	}
	return Node{}, false
}
