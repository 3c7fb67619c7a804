package tree

import "fmt"

// ContractViolation reports a caller programming error: querying a role that
// is not declared unique, or a child/parent link that does not hold. It is
// raised with panic and is not meant to be recovered in normal operation.
type ContractViolation struct {
	Op     string
	Type   ElementType
	Role   Role
	Detail string
}

func (e *ContractViolation) Error() string {
	if e.Role != NoRole {
		return fmt.Sprintf("tree: %s: contract violation on %s, role %q: %s", e.Op, e.Type, e.Role, e.Detail)
	}
	return fmt.Sprintf("tree: %s: contract violation on %s: %s", e.Op, e.Type, e.Detail)
}

func violate(op string, typ ElementType, role Role, format string, args ...any) {
	panic(&ContractViolation{
		Op:     op,
		Type:   typ,
		Role:   role,
		Detail: fmt.Sprintf(format, args...),
	})
}
