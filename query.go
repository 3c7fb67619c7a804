package arbor

import (
	"fmt"
	"slices"

	"github.com/hbollon/go-edlib"

	"github.com/jward/arbor/internal/lang"
	"github.com/jward/arbor/internal/store"
	"github.com/jward/arbor/internal/tree"
)

// QueryBuilder answers role and navigation questions from the index without
// reparsing. Nodes are addressed by file path and arena node ID; a missing
// file or node yields nil results and no error.
type QueryBuilder struct {
	store *store.Store
}

// NewQueryBuilder creates a QueryBuilder over an existing Store.
func NewQueryBuilder(s *store.Store) *QueryBuilder {
	return &QueryBuilder{store: s}
}

// UnknownRoleError reports a role name no supported language declares.
type UnknownRoleError struct {
	Role string
	// Suggestion is the closest known role, or "" when nothing is close.
	Suggestion string
}

func (e *UnknownRoleError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown role %q (did you mean %q?)", e.Role, e.Suggestion)
	}
	return fmt.Sprintf("unknown role %q", e.Role)
}

// RoleContractError reports a single-child role query for a role that the
// node's type does not declare, or declares as non-unique.
type RoleContractError struct {
	Type   string
	Role   string
	Detail string
}

func (e *RoleContractError) Error() string {
	return fmt.Sprintf("child by role: %s on %s: %s", e.Role, e.Type, e.Detail)
}

// checkRole returns an *UnknownRoleError when role is not declared by any
// language.
func checkRole(role string) error {
	known := lang.AllRoles()
	names := make([]string, len(known))
	for i, r := range known {
		names[i] = string(r)
	}
	if slices.Contains(names, role) {
		return nil
	}

	best, bestDistance := "", len(role)/2+2
	for _, name := range names {
		if d := edlib.LevenshteinDistance(role, name); d < bestDistance {
			best, bestDistance = name, d
		}
	}
	return &UnknownRoleError{Role: role, Suggestion: best}
}

// Files returns every indexed file ordered by path.
func (q *QueryBuilder) Files() ([]*File, error) {
	files, err := q.store.Files()
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
	}
	return files, nil
}

// Stats returns the per-category node counts recorded for path.
func (q *QueryBuilder) Stats(path string) (map[string]int, error) {
	f, err := q.store.FileByPath(path)
	if err != nil || f == nil {
		return nil, wrapQuery("stats", err)
	}
	counts, err := q.store.CategoryCounts(f.ID)
	return counts, wrapQuery("stats", err)
}

// Node returns the indexed node nodeID of path.
func (q *QueryBuilder) Node(path string, nodeID int64) (*IndexedNode, error) {
	n, err := q.node(path, nodeID)
	return n, wrapQuery("node", err)
}

func (q *QueryBuilder) node(path string, nodeID int64) (*IndexedNode, error) {
	f, err := q.store.FileByPath(path)
	if err != nil || f == nil {
		return nil, err
	}
	return q.store.NodeByNodeID(f.ID, nodeID)
}

// Root returns the root node of path.
func (q *QueryBuilder) Root(path string) (*IndexedNode, error) {
	f, err := q.store.FileByPath(path)
	if err != nil || f == nil {
		return nil, wrapQuery("root", err)
	}
	n, err := q.store.RootNode(f.ID)
	return n, wrapQuery("root", err)
}

// Parent returns the parent of nodeID, or nil for the root.
func (q *QueryBuilder) Parent(path string, nodeID int64) (*IndexedNode, error) {
	n, err := q.node(path, nodeID)
	if err != nil || n == nil || n.IsRoot() {
		return nil, wrapQuery("parent", err)
	}
	p, err := q.store.NodeByRowID(*n.ParentID)
	return p, wrapQuery("parent", err)
}

// Children returns the children of nodeID in source order.
func (q *QueryBuilder) Children(path string, nodeID int64) ([]*IndexedNode, error) {
	n, err := q.node(path, nodeID)
	if err != nil || n == nil {
		return nil, wrapQuery("children", err)
	}
	kids, err := q.store.ChildNodes(n.ID)
	return kids, wrapQuery("children", err)
}

// ChildByRole returns the child of nodeID that fills role, or nil. The role
// must be declared unique for the node's type in the file's language;
// otherwise a *RoleContractError is returned.
func (q *QueryBuilder) ChildByRole(path string, nodeID int64, role string) (*IndexedNode, error) {
	if err := checkRole(role); err != nil {
		return nil, err
	}
	f, err := q.store.FileByPath(path)
	if err != nil || f == nil {
		return nil, wrapQuery("child by role", err)
	}
	n, err := q.store.NodeByNodeID(f.ID, nodeID)
	if err != nil || n == nil {
		return nil, wrapQuery("child by role", err)
	}
	l, ok := lang.Get(f.Language)
	if !ok {
		return nil, fmt.Errorf("child by role: unsupported language %q", f.Language)
	}
	typ := tree.ElementType(n.Type)
	switch {
	case !l.Roles.Declared(typ, tree.Role(role)):
		return nil, &RoleContractError{Type: n.Type, Role: role, Detail: "role not declared"}
	case !l.Roles.IsUnique(typ, tree.Role(role)):
		return nil, &RoleContractError{Type: n.Type, Role: role, Detail: "role is not unique, use children"}
	}

	kids, err := q.store.ChildNodes(n.ID)
	if err != nil {
		return nil, wrapQuery("child by role", err)
	}
	for _, k := range kids {
		if k.Role == role {
			return k, nil
		}
	}
	return nil, nil
}

// RoleOf returns the role nodeID fills in its parent, or "".
func (q *QueryBuilder) RoleOf(path string, nodeID int64) (string, error) {
	n, err := q.node(path, nodeID)
	if err != nil || n == nil {
		return "", wrapQuery("role of", err)
	}
	return n.Role, nil
}

// NodesByRole returns every node of path that fills role.
func (q *QueryBuilder) NodesByRole(path, role string) ([]*IndexedNode, error) {
	if err := checkRole(role); err != nil {
		return nil, err
	}
	f, err := q.store.FileByPath(path)
	if err != nil || f == nil {
		return nil, wrapQuery("nodes by role", err)
	}
	nodes, err := q.store.NodesByRole(f.ID, role)
	return nodes, wrapQuery("nodes by role", err)
}

// NodesByType returns every node of path with the given element type.
func (q *QueryBuilder) NodesByType(path, typ string) ([]*IndexedNode, error) {
	f, err := q.store.FileByPath(path)
	if err != nil || f == nil {
		return nil, wrapQuery("nodes by type", err)
	}
	nodes, err := q.store.NodesByType(f.ID, typ)
	return nodes, wrapQuery("nodes by type", err)
}

// NextSibling returns the sibling after nodeID, or nil.
func (q *QueryBuilder) NextSibling(path string, nodeID int64) (*IndexedNode, error) {
	n, err := q.sibling(path, nodeID, 1)
	return n, wrapQuery("next sibling", err)
}

// PrevSibling returns the sibling before nodeID, or nil.
func (q *QueryBuilder) PrevSibling(path string, nodeID int64) (*IndexedNode, error) {
	n, err := q.sibling(path, nodeID, -1)
	return n, wrapQuery("prev sibling", err)
}

func (q *QueryBuilder) sibling(path string, nodeID int64, delta int) (*IndexedNode, error) {
	n, err := q.node(path, nodeID)
	if err != nil || n == nil || n.IsRoot() {
		return nil, err
	}
	if n.Ordinal+delta < 0 {
		return nil, nil
	}
	return q.store.ChildByOrdinal(*n.ParentID, n.Ordinal+delta)
}

// RoleCounts returns how many indexed nodes fill each role.
func (q *QueryBuilder) RoleCounts() (map[string]int, error) {
	counts, err := q.store.RoleCounts()
	return counts, wrapQuery("role counts", err)
}

func wrapQuery(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
