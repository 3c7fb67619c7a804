// Package arbor indexes source files as role-addressed syntax trees.
//
// Every file is parsed with tree-sitter into an arena tree whose nodes keep
// their grammar type, source span and text. Per-language role rules name the
// structurally meaningful children of a node (a return statement's value, an
// if statement's condition) so callers ask for children by role instead of
// by position. Visitors dispatch nodes by coarse category with a mandatory
// fallback, and derived facts about a tree are computed lazily, once, and
// stay correct when they depend on each other recursively.
//
// # Usage
//
//	e, err := arbor.New(".arbor/index.db")
//	if err != nil { ... }
//	defer e.Close()
//
//	ctx := context.Background()
//	err = e.IndexDirectory(ctx, "path/to/project")
//
//	q := e.Query()
//	vals, err := q.NodesByRole("path/to/project/main.go", "return_value")
//
// # Documents
//
// [Engine.Parse] returns a [Document]: the tree plus its language bundle.
// Derived facts ([Document.RoleIndex], [Document.Stats],
// [Document.SubtreeSize]) are computed on first use and cached until the
// tree is edited.
//
// # Indexing
//
// [Engine.IndexFiles] skips files whose content hash is unchanged. Changed
// files are parsed by a worker pool, buffered in memory, and committed to
// SQLite by a single writer. [Engine.IndexDirectory] also drops index rows
// for files that disappeared under the directory.
//
// # Scripts
//
// Visitors can be written as Risor scripts: node.risor handles every node,
// and <category>.risor (statement.risor, expression.risor, ...) overrides it
// for one category. See [Engine.VisitFile] and the internal/runtime package
// for the globals scripts receive.
package arbor
