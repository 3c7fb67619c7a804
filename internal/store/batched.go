package store

import "sync"

// BatchedStore buffers index inserts in memory using fake (negative) row
// IDs. It implements DataStore so parse workers can write to it without
// knowing whether they're hitting SQLite or an in-memory buffer. Nothing is
// readable back until Store.CommitBatch.
//
// Thread safety: the mutex protects fake ID allocation and slice appends.
type BatchedStore struct {
	mu sync.Mutex

	// Buffered index data.
	Nodes          []Node
	CategoryCounts []CategoryCount

	nextFakeID int64 // starts at -1, decrements
}

// NewBatchedStore creates an empty BatchedStore.
func NewBatchedStore() *BatchedStore {
	return &BatchedStore{nextFakeID: -1}
}

func (b *BatchedStore) allocFakeID() int64 {
	id := b.nextFakeID
	b.nextFakeID--
	return id
}

func (b *BatchedStore) InsertNode(n *Node) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	n.ID = fakeID
	b.Nodes = append(b.Nodes, *n)
	return fakeID, nil
}

func (b *BatchedStore) InsertCategoryCount(c *CategoryCount) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.CategoryCounts = append(b.CategoryCounts, *c)
	return nil
}

// Len returns the number of buffered nodes.
func (b *BatchedStore) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Nodes)
}
