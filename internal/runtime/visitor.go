package runtime

import (
	"context"
	"fmt"
	"maps"

	"github.com/risor-io/risor/object"

	"github.com/jward/arbor/internal/tree"
	"github.com/jward/arbor/internal/visit"
)

// FallbackScript handles every category without a script of its own.
const FallbackScript = "node.risor"

// HandlerScript returns the script name serving category c.
func HandlerScript(c visit.Category) string { return c.String() + ".risor" }

// Record is one map a script passed to emit.
type Record map[string]any

// ScriptVisitor dispatches nodes to Risor scripts by category. Each script
// runs once per node with the globals node (the node's ID), category and
// path, plus the tree host functions and emit/skip_children.
type ScriptVisitor struct {
	rt       *Runtime
	fallback string
	handlers map[visit.Category]string
}

// LoadVisitor reads the visitor scripts from the Runtime's script source.
// node.risor is required; category scripts such as statement.risor are
// optional.
func (r *Runtime) LoadVisitor() (*ScriptVisitor, error) {
	fallback, err := r.LoadScript(FallbackScript)
	if err != nil {
		return nil, fmt.Errorf("runtime: visitor needs %s: %w", FallbackScript, err)
	}
	sv := &ScriptVisitor{rt: r, fallback: fallback, handlers: map[visit.Category]string{}}
	for _, c := range visit.Categories() {
		name := HandlerScript(c)
		if !r.HasScript(name) {
			continue
		}
		src, err := r.LoadScript(name)
		if err != nil {
			return nil, err
		}
		sv.handlers[c] = src
	}
	return sv, nil
}

// Categories lists the categories that have their own script.
func (sv *ScriptVisitor) Categories() []visit.Category {
	var out []visit.Category
	for _, c := range visit.Categories() {
		if _, ok := sv.handlers[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Run walks doc's tree in source order and returns everything the scripts
// emitted.
func (sv *ScriptVisitor) Run(ctx context.Context, doc *Document) ([]Record, error) {
	col := &collector{}
	base := treeGlobals(doc)
	maps.Copy(base, col.globals())
	base["path"] = object.NewString(doc.Path)

	handler := func(src, label string) visit.Handler {
		return func(ctx context.Context, n tree.Node) error {
			globals := maps.Clone(base)
			globals["node"] = object.NewInt(int64(n.ID()))
			globals["category"] = object.NewString(visit.Of(doc.Lang.Categories, n).String())

			col.skip = false
			if err := sv.rt.eval(ctx, src, label, globals); err != nil {
				return err
			}
			if col.skip {
				return visit.SkipChildren
			}
			return nil
		}
	}

	v := visit.NewVisitor(handler(sv.fallback, FallbackScript))
	for c, src := range sv.handlers {
		v.Handle(c, handler(src, HandlerScript(c)))
	}

	if err := visit.Walk(ctx, doc.Lang.Categories, doc.Tree.Root(), v); err != nil {
		return col.records, fmt.Errorf("runtime: visiting %s: %w", doc.Path, err)
	}
	return col.records, nil
}
