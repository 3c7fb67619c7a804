package arbor

import (
	"context"
	"sync"

	"github.com/jward/arbor/internal/lang"
	"github.com/jward/arbor/internal/lazy"
	"github.com/jward/arbor/internal/tree"
	"github.com/jward/arbor/internal/visit"
)

// Document is one parsed source file.
type Document struct {
	Path   string
	Lang   *lang.Language
	Tree   *tree.Tree
	Source []byte

	mu        sync.Mutex
	epoch     uint64
	roleIndex *lazy.Value[map[tree.NodeID]tree.Role]
	stats     *lazy.Value[map[visit.Category]int]
	sizes     *lazy.Map[tree.NodeID, int]
}

// NewDocument wraps a parsed tree.
func NewDocument(path string, l *lang.Language, t *tree.Tree, src []byte) *Document {
	d := &Document{Path: path, Lang: l, Tree: t, Source: src, epoch: t.ModCount()}
	d.roleIndex = lazy.New(d.computeRoleIndex)
	d.stats = lazy.New(d.computeStats)
	d.sizes = lazy.NewMap(d.computeSubtreeSize)
	return d
}

// sync drops derived values computed before the last tree edit.
func (d *Document) sync() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if mc := d.Tree.ModCount(); mc != d.epoch {
		d.roleIndex.Reset()
		d.stats.Reset()
		d.sizes.Clear()
		d.epoch = mc
	}
}

// RoleIndex maps every child that fills a declared role to that role. Unique
// roles are resolved with FindChildByRole, so a child that merely has the
// right type (Go's else block) is not mistaken for the role's holder.
func (d *Document) RoleIndex(ctx context.Context) (map[tree.NodeID]tree.Role, error) {
	d.sync()
	return d.roleIndex.Get(ctx)
}

func (d *Document) computeRoleIndex(ctx context.Context) (map[tree.NodeID]tree.Role, error) {
	reg := d.Lang.Roles
	index := make(map[tree.NodeID]tree.Role)
	var err error
	tree.Preorder(d.Tree.Root(), func(n tree.Node) bool {
		if err = ctx.Err(); err != nil {
			return false
		}
		typ := n.Type()
		for _, role := range reg.Roles(typ) {
			if reg.IsUnique(typ, role) {
				if c, ok := reg.FindChildByRole(n, role); ok {
					index[c.ID()] = role
				}
				continue
			}
			for _, c := range reg.ChildrenByRole(n, role) {
				index[c.ID()] = role
			}
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return index, nil
}

// RoleOf returns the role n fills in its parent, or tree.NoRole.
func (d *Document) RoleOf(ctx context.Context, n tree.Node) (tree.Role, error) {
	index, err := d.RoleIndex(ctx)
	if err != nil {
		return tree.NoRole, err
	}
	return index[n.ID()], nil
}

// Stats counts attached nodes per category.
func (d *Document) Stats(ctx context.Context) (map[visit.Category]int, error) {
	d.sync()
	return d.stats.Get(ctx)
}

func (d *Document) computeStats(ctx context.Context) (map[visit.Category]int, error) {
	counts := make(map[visit.Category]int)
	v := visit.NewVisitor(func(_ context.Context, n tree.Node) error {
		counts[visit.Of(d.Lang.Categories, n)]++
		return nil
	})
	if err := d.Visit(ctx, v); err != nil {
		return nil, err
	}
	return counts, nil
}

// SubtreeSize returns the number of nodes in n's subtree, n included. Sizes
// are memoized per node and computed from the children's sizes.
func (d *Document) SubtreeSize(ctx context.Context, n tree.Node) (int, error) {
	d.sync()
	return d.sizes.Get(ctx, n.ID())
}

func (d *Document) computeSubtreeSize(ctx context.Context, id tree.NodeID) (int, error) {
	n, ok := d.Tree.Node(id)
	if !ok {
		return 0, nil
	}
	size := 1
	for _, c := range n.Children() {
		s, err := d.sizes.Get(ctx, c.ID())
		if err != nil {
			return 0, err
		}
		size += s
	}
	return size, nil
}

// Visit walks the tree in source order, dispatching each node to v.
func (d *Document) Visit(ctx context.Context, v *visit.Visitor) error {
	return visit.Walk(ctx, d.Lang.Categories, d.Tree.Root(), v)
}
