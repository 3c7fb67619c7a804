package store

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
)

// --- File operations ---

const fileColumns = "id, path, language, hash, node_count, fingerprint, last_indexed"

func (s *Store) InsertFile(f *File) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO files (path, language, hash, node_count, fingerprint, last_indexed) VALUES (?, ?, ?, ?, ?, ?)",
		f.Path, f.Language, f.Hash, f.NodeCount, f.Fingerprint, f.LastIndexed,
	)
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	return id, nil
}

// UpdateFile rewrites every column of an existing file row.
func (s *Store) UpdateFile(f *File) error {
	_, err := s.db.Exec(
		"UPDATE files SET language = ?, hash = ?, node_count = ?, fingerprint = ?, last_indexed = ? WHERE id = ?",
		f.Language, f.Hash, f.NodeCount, f.Fingerprint, f.LastIndexed, f.ID,
	)
	if err != nil {
		return fmt.Errorf("update file: %w", err)
	}
	return nil
}

func scanFile(scanner interface{ Scan(...any) error }) (*File, error) {
	f := &File{}
	if err := scanner.Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.NodeCount, &f.Fingerprint, &f.LastIndexed); err != nil {
		return nil, err
	}
	return f, nil
}

// FileByPath returns the file at path, or nil if it is not indexed.
func (s *Store) FileByPath(path string) (*File, error) {
	f, err := scanFile(s.db.QueryRow("SELECT "+fileColumns+" FROM files WHERE path = ?", path))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

func (s *Store) queryFiles(query string, args ...any) ([]*File, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// Files returns every indexed file ordered by path.
func (s *Store) Files() ([]*File, error) {
	return s.queryFiles("SELECT " + fileColumns + " FROM files ORDER BY path")
}

func (s *Store) FilesByLanguage(language string) ([]*File, error) {
	return s.queryFiles("SELECT "+fileColumns+" FROM files WHERE language = ? ORDER BY path", language)
}

// FilesNotIn returns the indexed files whose path is not in paths, i.e. files
// that disappeared from the working tree since they were indexed.
func (s *Store) FilesNotIn(paths []string) ([]*File, error) {
	if len(paths) == 0 {
		return s.Files()
	}
	return s.queryFiles(
		"SELECT "+fileColumns+" FROM files WHERE path NOT IN ("+placeholderList(len(paths))+") ORDER BY path",
		stringsToArgs(paths)...,
	)
}

// FilesUnder returns the indexed files whose path starts with dir followed
// by a path separator.
func (s *Store) FilesUnder(dir string) ([]*File, error) {
	prefix := strings.TrimRight(dir, string(filepath.Separator)) + string(filepath.Separator)
	return s.queryFiles(
		"SELECT "+fileColumns+" FROM files WHERE substr(path, 1, length(?)) = ? ORDER BY path",
		prefix, prefix,
	)
}

// --- Node operations ---

const nodeColumns = `id, file_id, node_id, parent_id, ordinal, type, category, role,
	start_byte, end_byte, start_line, start_col, end_line, end_col, text`

func (s *Store) InsertNode(n *Node) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO nodes (file_id, node_id, parent_id, ordinal, type, category, role,
		 start_byte, end_byte, start_line, start_col, end_line, end_col, text)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nodeArgs(n)...,
	)
	if err != nil {
		return 0, fmt.Errorf("insert node: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	n.ID = id
	return id, nil
}

func nodeArgs(n *Node) []any {
	return []any{
		n.FileID, n.NodeID, n.ParentID, n.Ordinal, n.Type, n.Category, nullString(n.Role),
		n.StartByte, n.EndByte, n.StartLine, n.StartCol, n.EndLine, n.EndCol, nullString(n.Text),
	}
}

func scanNode(scanner interface{ Scan(...any) error }) (*Node, error) {
	n := &Node{}
	var parent sql.NullInt64
	var role, text sql.NullString
	err := scanner.Scan(
		&n.ID, &n.FileID, &n.NodeID, &parent, &n.Ordinal, &n.Type, &n.Category, &role,
		&n.StartByte, &n.EndByte, &n.StartLine, &n.StartCol, &n.EndLine, &n.EndCol, &text,
	)
	if err != nil {
		return nil, err
	}
	if parent.Valid {
		n.ParentID = &parent.Int64
	}
	n.Role = role.String
	n.Text = text.String
	return n, nil
}

func (s *Store) queryNodes(query string, args ...any) ([]*Node, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()
	var nodes []*Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (s *Store) queryNode(query string, args ...any) (*Node, error) {
	n, err := scanNode(s.db.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query node: %w", err)
	}
	return n, nil
}

// NodesByFile returns a file's nodes ordered by arena ID.
func (s *Store) NodesByFile(fileID int64) ([]*Node, error) {
	return s.queryNodes("SELECT "+nodeColumns+" FROM nodes WHERE file_id = ? ORDER BY node_id", fileID)
}

// NodeByNodeID returns the node with the given arena ID in a file, or nil.
func (s *Store) NodeByNodeID(fileID, nodeID int64) (*Node, error) {
	return s.queryNode("SELECT "+nodeColumns+" FROM nodes WHERE file_id = ? AND node_id = ?", fileID, nodeID)
}

// NodeByRowID returns the node stored in row id, or nil.
func (s *Store) NodeByRowID(id int64) (*Node, error) {
	return s.queryNode("SELECT "+nodeColumns+" FROM nodes WHERE id = ?", id)
}

// RootNode returns a file's root node, or nil.
func (s *Store) RootNode(fileID int64) (*Node, error) {
	return s.queryNode("SELECT "+nodeColumns+" FROM nodes WHERE file_id = ? AND parent_id IS NULL", fileID)
}

// ChildNodes returns the children of the node in row parentID, in source order.
func (s *Store) ChildNodes(parentID int64) ([]*Node, error) {
	return s.queryNodes("SELECT "+nodeColumns+" FROM nodes WHERE parent_id = ? ORDER BY ordinal", parentID)
}

// ChildByOrdinal returns the child at position ordinal under parentID, or nil.
func (s *Store) ChildByOrdinal(parentID int64, ordinal int) (*Node, error) {
	return s.queryNode("SELECT "+nodeColumns+" FROM nodes WHERE parent_id = ? AND ordinal = ?", parentID, ordinal)
}

// NodesByRole returns every node in a file filling role, in source order.
func (s *Store) NodesByRole(fileID int64, role string) ([]*Node, error) {
	return s.queryNodes("SELECT "+nodeColumns+" FROM nodes WHERE file_id = ? AND role = ? ORDER BY start_byte, node_id", fileID, role)
}

// NodesByType returns every node in a file of the given element type.
func (s *Store) NodesByType(fileID int64, typ string) ([]*Node, error) {
	return s.queryNodes("SELECT "+nodeColumns+" FROM nodes WHERE file_id = ? AND type = ? ORDER BY start_byte, node_id", fileID, typ)
}

// RoleCounts returns how many nodes fill each role across the whole index.
func (s *Store) RoleCounts() (map[string]int, error) {
	rows, err := s.db.Query("SELECT role, COUNT(*) FROM nodes WHERE role IS NOT NULL GROUP BY role")
	if err != nil {
		return nil, fmt.Errorf("role counts: %w", err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, fmt.Errorf("scan role count: %w", err)
		}
		out[role] = n
	}
	return out, rows.Err()
}

// --- Category stats ---

func (s *Store) InsertCategoryCount(c *CategoryCount) error {
	_, err := s.db.Exec(
		"INSERT INTO file_stats (file_id, category, count) VALUES (?, ?, ?)",
		c.FileID, c.Category, c.Count,
	)
	if err != nil {
		return fmt.Errorf("insert category count: %w", err)
	}
	return nil
}

// CategoryCounts returns a file's per-category node counts.
func (s *Store) CategoryCounts(fileID int64) (map[string]int, error) {
	rows, err := s.db.Query("SELECT category, count FROM file_stats WHERE file_id = ?", fileID)
	if err != nil {
		return nil, fmt.Errorf("category counts: %w", err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var cat string
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		out[cat] = n
	}
	return out, rows.Err()
}

// --- Metadata ---

func (s *Store) SetMeta(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	return nil
}

// Meta returns the value stored under key and whether it exists.
func (s *Store) Meta(key string) (string, bool, error) {
	var v string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("meta %s: %w", key, err)
	}
	return v, true, nil
}
