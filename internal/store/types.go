package store

import "time"

type File struct {
	ID          int64
	Path        string
	Language    string
	Hash        string
	NodeCount   int
	Fingerprint string
	LastIndexed time.Time
}

// Node is one indexed syntax node.
type Node struct {
	ID        int64
	FileID    int64
	NodeID    int64
	ParentID  *int64
	Ordinal   int
	Type      string
	Category  string
	Role      string
	StartByte int
	EndByte   int
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
	// Text is set for leaves only.
	Text string
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool { return n.ParentID == nil }

// CategoryCount is a per-file count of nodes in one visitor category.
type CategoryCount struct {
	FileID   int64
	Category string
	Count    int
}

// Metadata keys.
const (
	MetaSchemaVersion = "schema_version"
	MetaLastIndexed   = "last_indexed"
)
