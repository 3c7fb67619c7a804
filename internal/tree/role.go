package tree

import "fmt"

// Role names the position a child occupies within its parent, scoped to the
// parent's element type.
type Role string

// NoRole classifies children no rule claims, such as trivia.
const NoRole Role = ""

// Direction is the order in which a role scans a parent's children.
type Direction uint8

const (
	// Forward returns the first matching child.
	Forward Direction = iota
	// Backward returns the last matching child. Terminators use it because
	// recovered input may carry extra trailing tokens and the last one wins.
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// RoleRule binds a role to the child types that fill it.
type RoleRule struct {
	Role      Role
	Match     TypeSet
	Direction Direction
	Unique    bool
}

// Unique is shorthand for a unique forward rule.
func Unique(role Role, match TypeSet) RoleRule {
	return RoleRule{Role: role, Match: match, Unique: true}
}

// UniqueLast is shorthand for a unique backward rule.
func UniqueLast(role Role, match TypeSet) RoleRule {
	return RoleRule{Role: role, Match: match, Direction: Backward, Unique: true}
}

// Many is shorthand for a non-unique rule.
func Many(role Role, match TypeSet) RoleRule {
	return RoleRule{Role: role, Match: match}
}

// Registry holds the role rules of every parent element type. Define all
// rules before querying; queries never lock. The zero value is ready to use.
type Registry struct {
	rules map[ElementType][]RoleRule
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[ElementType][]RoleRule)}
}

// Define appends rules for parent. Rule order matters to ChildRole: the first
// rule whose types contain the child's type classifies it.
func (r *Registry) Define(parent ElementType, rules ...RoleRule) error {
	if r.rules == nil {
		r.rules = make(map[ElementType][]RoleRule)
	}
	existing := r.rules[parent]
	for _, rule := range rules {
		if rule.Role == NoRole {
			return fmt.Errorf("tree: define %s: empty role name", parent)
		}
		for _, e := range existing {
			if e.Role == rule.Role {
				return fmt.Errorf("tree: define %s: role %q declared twice", parent, rule.Role)
			}
		}
		existing = append(existing, rule)
	}
	r.rules[parent] = existing
	return nil
}

// Rules returns the rules declared for parent, in declaration order.
func (r *Registry) Rules(parent ElementType) []RoleRule {
	return r.rules[parent]
}

// Roles returns the role names declared for parent.
func (r *Registry) Roles(parent ElementType) []Role {
	rules := r.rules[parent]
	out := make([]Role, len(rules))
	for i, rule := range rules {
		out[i] = rule.Role
	}
	return out
}

// Types returns every parent type with declared rules.
func (r *Registry) Types() []ElementType {
	out := make([]ElementType, 0, len(r.rules))
	for t := range r.rules {
		out = append(out, t)
	}
	return NewTypeSet(out...).Types()
}

func (r *Registry) rule(parent ElementType, role Role) (RoleRule, bool) {
	for _, rule := range r.rules[parent] {
		if rule.Role == role {
			return rule, true
		}
	}
	return RoleRule{}, false
}

// Declared reports whether role is declared for parent.
func (r *Registry) Declared(parent ElementType, role Role) bool {
	_, ok := r.rule(parent, role)
	return ok
}

// IsUnique reports whether role is declared unique for parent.
func (r *Registry) IsUnique(parent ElementType, role Role) bool {
	rule, ok := r.rule(parent, role)
	return ok && rule.Unique
}

// FindChildByRole returns the child of n filling role, scanning in the role's
// direction. A role that is not declared unique for n's type is a
// ContractViolation; no matching child is reported as (Node{}, false).
func (r *Registry) FindChildByRole(n Node, role Role) (Node, bool) {
	rule, ok := r.rule(n.Type(), role)
	if !ok {
		violate("find child by role", n.Type(), role, "role not declared")
	}
	if !rule.Unique {
		violate("find child by role", n.Type(), role, "role is not unique")
	}
	if rule.Direction == Backward {
		return FindChildBackward(n, rule.Match)
	}
	return FindChildForward(n, rule.Match)
}

// ChildrenByRole returns every child of n whose type fills role, in source
// order. The role must be declared for n's type.
func (r *Registry) ChildrenByRole(n Node, role Role) []Node {
	rule, ok := r.rule(n.Type(), role)
	if !ok {
		violate("children by role", n.Type(), role, "role not declared")
	}
	var out []Node
	for _, c := range n.Children() {
		if rule.Match.Contains(c.Type()) {
			out = append(out, c)
		}
	}
	return out
}

// ChildRole classifies child, which must be a child of n. The first declared
// rule whose types contain the child's type wins; otherwise NoRole.
func (r *Registry) ChildRole(n, child Node) Role {
	if child.IsZero() || child.t != n.t {
		violate("child role", n.Type(), NoRole, "child %s is not in this tree", child)
	}
	if p, ok := child.Parent(); !ok || p.id != n.id {
		violate("child role", n.Type(), NoRole, "node %s is not a child of %d", child, n.id)
	}
	typ := child.Type()
	for _, rule := range r.rules[n.Type()] {
		if rule.Match.Contains(typ) {
			return rule.Role
		}
	}
	return NoRole
}
