package store

import (
	"database/sql"
	"fmt"
)

// CommitBatch inserts all buffered data from a BatchedStore into SQLite
// within a single transaction. Fake (negative) row IDs are remapped to real
// (positive) IDs, and parent references within the batch are rewritten using
// the fakeToReal mapping. Nodes must have been buffered parents first.
//
// Every file that has data in the batch is cleared first, so committing a
// re-parsed file replaces its previous rows.
func (s *Store) CommitBatch(batch *BatchedStore) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	cleared := make(map[int64]bool)
	reset := func(fileID int64) error {
		if cleared[fileID] {
			return nil
		}
		cleared[fileID] = true
		return deleteFileDataTx(tx, fileID)
	}

	fakeToReal := make(map[int64]int64, len(batch.Nodes))

	// 1. Nodes
	for _, n := range batch.Nodes {
		if err := reset(n.FileID); err != nil {
			return fmt.Errorf("commit batch: %w", err)
		}
		if n.ParentID != nil && *n.ParentID < 0 {
			realID, ok := fakeToReal[*n.ParentID]
			if !ok {
				return fmt.Errorf("commit batch: node %d (%s) has parent_id=%d not in fakeToReal map", n.NodeID, n.Type, *n.ParentID)
			}
			n.ParentID = &realID
		}
		realID, err := insertNodeTx(tx, &n)
		if err != nil {
			return fmt.Errorf("commit batch: node %d (%s): %w", n.NodeID, n.Type, err)
		}
		fakeToReal[n.ID] = realID
	}

	// 2. Category counts
	for _, c := range batch.CategoryCounts {
		if err := reset(c.FileID); err != nil {
			return fmt.Errorf("commit batch: %w", err)
		}
		if _, err := tx.Exec(
			"INSERT INTO file_stats (file_id, category, count) VALUES (?, ?, ?)",
			c.FileID, c.Category, c.Count,
		); err != nil {
			return fmt.Errorf("commit batch: category %q: %w", c.Category, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

func insertNodeTx(tx *sql.Tx, n *Node) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO nodes (file_id, node_id, parent_id, ordinal, type, category, role,
		 start_byte, end_byte, start_line, start_col, end_line, end_col, text)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nodeArgs(n)...,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
