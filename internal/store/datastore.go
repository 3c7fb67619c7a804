package store

// DataStore is where index-phase writes for one file go. Store writes
// straight to SQLite (serial indexing); BatchedStore buffers rows in memory
// for a parse worker until CommitBatch (parallel indexing).
type DataStore interface {
	// InsertNode stores a node and returns its row ID. Parents must be
	// inserted before their children.
	InsertNode(n *Node) (int64, error)
	InsertCategoryCount(c *CategoryCount) error
}

var (
	_ DataStore = (*Store)(nil)
	_ DataStore = (*BatchedStore)(nil)
)
