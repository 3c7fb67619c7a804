package runtime

import (
	"context"
	"fmt"

	"github.com/risor-io/risor/object"

	"github.com/jward/arbor/internal/lang"
	"github.com/jward/arbor/internal/tree"
	"github.com/jward/arbor/internal/visit"
)

// Document is the parsed file visitor scripts operate on.
type Document struct {
	Path string
	Tree *tree.Tree
	Lang *lang.Language
}

// Scripts address nodes by arena ID (an int). Host functions that return a
// node return its ID, or nil when there is none. A ContractViolation raised
// by a query (asking a non-unique role for a single child, say) becomes a
// script error instead of crashing the host.

// nodeBuiltin wraps fn as a builtin taking a node ID followed by arity-1
// further arguments.
func nodeBuiltin(d *Document, name string, arity int, fn func(n tree.Node, args []object.Object) object.Object) *object.Builtin {
	return object.NewBuiltin(name, func(ctx context.Context, args ...object.Object) (res object.Object) {
		if len(args) != arity {
			return object.NewArgsError(name, arity, len(args))
		}
		n, errObj := nodeArg(d, name, args[0])
		if errObj != nil {
			return errObj
		}
		defer func() {
			if r := recover(); r != nil {
				cv, ok := r.(*tree.ContractViolation)
				if !ok {
					panic(r)
				}
				res = object.Errorf("%s: %v", name, cv)
			}
		}()
		return fn(n, args[1:])
	})
}

func nodeArg(d *Document, fn string, obj object.Object) (tree.Node, *object.Error) {
	i, ok := obj.(*object.Int)
	if !ok {
		return tree.Node{}, object.Errorf("%s: node must be an int id, got %s", fn, obj.Type())
	}
	n, ok := d.Tree.Node(tree.NodeID(i.Value()))
	if !ok {
		return tree.Node{}, object.Errorf("%s: no node with id %d", fn, i.Value())
	}
	return n, nil
}

func roleArg(fn string, obj object.Object) (tree.Role, *object.Error) {
	s, ok := obj.(*object.String)
	if !ok {
		return tree.NoRole, object.Errorf("%s: role must be a string, got %s", fn, obj.Type())
	}
	return tree.Role(s.Value()), nil
}

func nodeObject(n tree.Node, ok bool) object.Object {
	if !ok || n.IsZero() {
		return object.Nil
	}
	return object.NewInt(int64(n.ID()))
}

func nodeList(nodes []tree.Node) object.Object {
	items := make([]object.Object, len(nodes))
	for i, n := range nodes {
		items[i] = object.NewInt(int64(n.ID()))
	}
	return object.NewList(items)
}

// treeGlobals returns the host functions for navigating d.
func treeGlobals(d *Document) map[string]any {
	roles := d.Lang.Roles
	return map[string]any{
		"root": object.NewBuiltin("root", func(ctx context.Context, args ...object.Object) object.Object {
			if len(args) != 0 {
				return object.NewArgsError("root", 0, len(args))
			}
			return nodeObject(d.Tree.Root(), true)
		}),
		"node_type": nodeBuiltin(d, "node_type", 1, func(n tree.Node, _ []object.Object) object.Object {
			return object.NewString(string(n.Type()))
		}),
		"node_text": nodeBuiltin(d, "node_text", 1, func(n tree.Node, _ []object.Object) object.Object {
			return object.NewString(n.Text())
		}),
		"node_category": nodeBuiltin(d, "node_category", 1, func(n tree.Node, _ []object.Object) object.Object {
			return object.NewString(visit.Of(d.Lang.Categories, n).String())
		}),
		"node_span": nodeBuiltin(d, "node_span", 1, func(n tree.Node, _ []object.Object) object.Object {
			start, end := n.Span()
			return object.NewMap(map[string]object.Object{
				"start": object.NewInt(int64(start)),
				"end":   object.NewInt(int64(end)),
			})
		}),
		"node_parent": nodeBuiltin(d, "node_parent", 1, func(n tree.Node, _ []object.Object) object.Object {
			return nodeObject(n.Parent())
		}),
		"node_children": nodeBuiltin(d, "node_children", 1, func(n tree.Node, _ []object.Object) object.Object {
			return nodeList(n.Children())
		}),
		"next_sibling": nodeBuiltin(d, "next_sibling", 1, func(n tree.Node, _ []object.Object) object.Object {
			return nodeObject(tree.NextSibling(n))
		}),
		"prev_sibling": nodeBuiltin(d, "prev_sibling", 1, func(n tree.Node, _ []object.Object) object.Object {
			return nodeObject(tree.PrevSibling(n))
		}),
		"child_by_role": nodeBuiltin(d, "child_by_role", 2, func(n tree.Node, args []object.Object) object.Object {
			role, errObj := roleArg("child_by_role", args[0])
			if errObj != nil {
				return errObj
			}
			return nodeObject(roles.FindChildByRole(n, role))
		}),
		"children_by_role": nodeBuiltin(d, "children_by_role", 2, func(n tree.Node, args []object.Object) object.Object {
			role, errObj := roleArg("children_by_role", args[0])
			if errObj != nil {
				return errObj
			}
			return nodeList(roles.ChildrenByRole(n, role))
		}),
		"roles_of": nodeBuiltin(d, "roles_of", 1, func(n tree.Node, _ []object.Object) object.Object {
			declared := roles.Roles(n.Type())
			items := make([]object.Object, len(declared))
			for i, r := range declared {
				items[i] = object.NewString(string(r))
			}
			return object.NewList(items)
		}),
		"role_of": nodeBuiltin(d, "role_of", 1, func(n tree.Node, _ []object.Object) object.Object {
			p, ok := n.Parent()
			if !ok {
				return object.Nil
			}
			if r := roles.ChildRole(p, n); r != tree.NoRole {
				return object.NewString(string(r))
			}
			return object.Nil
		}),
	}
}

// collector gathers what a visit run reports back to the host.
type collector struct {
	records []Record
	skip    bool
}

func (c *collector) globals() map[string]any {
	return map[string]any{
		"emit": object.NewBuiltin("emit", func(ctx context.Context, args ...object.Object) object.Object {
			if len(args) != 1 {
				return object.NewArgsError("emit", 1, len(args))
			}
			m, ok := args[0].(*object.Map)
			if !ok {
				return object.Errorf("emit: expected map, got %s", args[0].Type())
			}
			rec, ok := m.Interface().(map[string]any)
			if !ok {
				return object.Errorf("emit: cannot convert %s", fmt.Sprint(m))
			}
			c.records = append(c.records, Record(rec))
			return object.Nil
		}),
		"skip_children": object.NewBuiltin("skip_children", func(ctx context.Context, args ...object.Object) object.Object {
			if len(args) != 0 {
				return object.NewArgsError("skip_children", 0, len(args))
			}
			c.skip = true
			return object.Nil
		}),
	}
}
