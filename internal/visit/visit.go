// Package visit routes syntax nodes to category-specific handlers.
//
// A Visitor is a handler table indexed by Category plus one mandatory
// fallback that accepts any node. Dispatch looks up the node's category and
// runs the specific handler when one is registered, otherwise the fallback.
// There is exactly one fallback level, so which handler serves a category is
// always visible through Resolve and Unhandled.
package visit

import (
	"context"
	"errors"
	"fmt"

	"github.com/jward/arbor/internal/tree"
)

// Handler processes one node.
type Handler func(ctx context.Context, n tree.Node) error

// SkipChildren, returned by a handler during Walk, prunes the node's subtree.
var SkipChildren = errors.New("visit: skip children")

// Visitor is a category-indexed handler table with a generic fallback.
type Visitor struct {
	handlers [CategoryCount]Handler
	fallback Handler
}

// NewVisitor returns a Visitor whose unhandled categories go to fallback.
// fallback must not be nil.
func NewVisitor(fallback Handler) *Visitor {
	if fallback == nil {
		panic("visit: visitor needs a fallback handler")
	}
	return &Visitor{fallback: fallback}
}

// Handle registers h for category c, replacing any earlier handler.
func (v *Visitor) Handle(c Category, h Handler) *Visitor {
	if int(c) >= CategoryCount {
		panic(fmt.Sprintf("visit: category %d out of range", c))
	}
	v.handlers[c] = h
	return v
}

// Resolve returns the handler serving c and whether it is category specific.
func (v *Visitor) Resolve(c Category) (Handler, bool) {
	if int(c) < CategoryCount {
		if h := v.handlers[c]; h != nil {
			return h, true
		}
	}
	return v.fallback, false
}

// Unhandled lists the categories served by the fallback.
func (v *Visitor) Unhandled() []Category {
	var out []Category
	for _, c := range Categories() {
		if v.handlers[c] == nil {
			out = append(out, c)
		}
	}
	return out
}

// Visit dispatches n to the most specific handler v has for its category.
func Visit(ctx context.Context, cats Categorizer, n tree.Node, v *Visitor) error {
	h, _ := v.Resolve(Of(cats, n))
	return h(ctx, n)
}

// Walk visits root and its descendants in source order. A handler returning
// SkipChildren prunes that subtree; any other error stops the walk and is
// returned. Cancellation of ctx is checked between nodes.
func Walk(ctx context.Context, cats Categorizer, root tree.Node, v *Visitor) error {
	var err error
	tree.Preorder(root, func(n tree.Node) bool {
		if err != nil {
			return false
		}
		if cerr := ctx.Err(); cerr != nil {
			err = cerr
			return false
		}
		herr := Visit(ctx, cats, n, v)
		switch {
		case herr == nil:
			return true
		case errors.Is(herr, SkipChildren):
			return false
		default:
			err = fmt.Errorf("visit %s: %w", n, herr)
			return false
		}
	})
	return err
}
