package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/risor-io/risor/object"

	"github.com/jward/arbor/internal/store"
)

// Index bridge functions give scripts read-only access to the Store. Rows
// come back as Risor maps with primitive values.

func fileToMap(f *store.File) object.Object {
	return object.NewMap(map[string]object.Object{
		"id":         object.NewInt(f.ID),
		"path":       object.NewString(f.Path),
		"language":   object.NewString(f.Language),
		"hash":       object.NewString(f.Hash),
		"node_count": object.NewInt(int64(f.NodeCount)),
	})
}

func storeNodeToMap(n *store.Node) object.Object {
	m := map[string]object.Object{
		"id":         object.NewInt(n.ID),
		"node_id":    object.NewInt(n.NodeID),
		"ordinal":    object.NewInt(int64(n.Ordinal)),
		"type":       object.NewString(n.Type),
		"category":   object.NewString(n.Category),
		"start_line": object.NewInt(int64(n.StartLine)),
		"start_col":  object.NewInt(int64(n.StartCol)),
		"end_line":   object.NewInt(int64(n.EndLine)),
		"end_col":    object.NewInt(int64(n.EndCol)),
	}
	if n.Role != "" {
		m["role"] = object.NewString(n.Role)
	}
	if n.Text != "" {
		m["text"] = object.NewString(n.Text)
	}
	if n.ParentID != nil {
		m["parent_id"] = object.NewInt(*n.ParentID)
	}
	return object.NewMap(m)
}

func makeFilesFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("files", func(ctx context.Context, args ...object.Object) object.Object {
		var (
			files []*store.File
			err   error
		)
		switch len(args) {
		case 0:
			files, err = s.Files()
		case 1:
			language, convErr := toString(args[0])
			if convErr != nil {
				return object.Errorf("files: %v", convErr)
			}
			files, err = s.FilesByLanguage(language)
		default:
			return object.Errorf("files: expected at most 1 argument (language), got %d", len(args))
		}
		if err != nil {
			return object.Errorf("files: %v", err)
		}

		results := make([]object.Object, 0, len(files))
		for _, f := range files {
			results = append(results, fileToMap(f))
		}
		return object.NewList(results)
	})
}

// lookupFile resolves a path argument to its indexed row.
func lookupFile(s *store.Store, fn string, arg object.Object) (*store.File, *object.Error) {
	path, err := toString(arg)
	if err != nil {
		return nil, object.Errorf("%s: %v", fn, err)
	}
	f, err := s.FileByPath(path)
	if err != nil {
		return nil, object.Errorf("%s: %v", fn, err)
	}
	if f == nil {
		return nil, object.Errorf("%s: file not indexed: %s", fn, path)
	}
	return f, nil
}

func makeFileStatsFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("file_stats", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("file_stats", 1, len(args))
		}
		f, errObj := lookupFile(s, "file_stats", args[0])
		if errObj != nil {
			return errObj
		}
		counts, err := s.CategoryCounts(f.ID)
		if err != nil {
			return object.Errorf("file_stats: %v", err)
		}
		m := make(map[string]object.Object, len(counts))
		for cat, n := range counts {
			m[cat] = object.NewInt(int64(n))
		}
		return object.NewMap(m)
	})
}

func makeIndexedByRoleFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("indexed_by_role", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("indexed_by_role", 2, len(args))
		}
		f, errObj := lookupFile(s, "indexed_by_role", args[0])
		if errObj != nil {
			return errObj
		}
		role, err := toString(args[1])
		if err != nil {
			return object.Errorf("indexed_by_role: %v", err)
		}
		nodes, err := s.NodesByRole(f.ID, role)
		if err != nil {
			return object.Errorf("indexed_by_role: %v", err)
		}
		results := make([]object.Object, 0, len(nodes))
		for _, n := range nodes {
			results = append(results, storeNodeToMap(n))
		}
		return object.NewList(results)
	})
}

// makeDBQueryFn creates a db_query bridge that executes arbitrary read-only SQL.
// Returns a list of maps (column name -> value).
func makeDBQueryFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("db_query", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 1 {
			return object.Errorf("db_query: expected at least 1 argument (sql), got %d", len(args))
		}
		sqlStr, err := toString(args[0])
		if err != nil {
			return object.Errorf("db_query: %v", err)
		}

		// Only allow SELECT statements.
		trimmed := strings.TrimSpace(strings.ToUpper(sqlStr))
		if !strings.HasPrefix(trimmed, "SELECT") {
			return object.Errorf("db_query: only SELECT queries are allowed")
		}

		var queryArgs []any
		for _, arg := range args[1:] {
			switch v := arg.(type) {
			case *object.Int:
				queryArgs = append(queryArgs, v.Value())
			case *object.Float:
				queryArgs = append(queryArgs, v.Value())
			case *object.String:
				queryArgs = append(queryArgs, v.Value())
			case *object.Bool:
				queryArgs = append(queryArgs, v.Value())
			case *object.NilType:
				queryArgs = append(queryArgs, nil)
			default:
				queryArgs = append(queryArgs, fmt.Sprintf("%v", arg))
			}
		}

		rows, queryErr := s.DB().QueryContext(ctx, sqlStr, queryArgs...)
		if queryErr != nil {
			return object.Errorf("db_query: %v", queryErr)
		}
		defer rows.Close()

		cols, colErr := rows.Columns()
		if colErr != nil {
			return object.Errorf("db_query: columns: %v", colErr)
		}

		results := []object.Object{}
		for rows.Next() {
			values := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return object.Errorf("db_query: scan: %v", err)
			}
			row := make(map[string]object.Object, len(cols))
			for i, col := range cols {
				row[col] = sqlValueToObject(values[i])
			}
			results = append(results, object.NewMap(row))
		}
		if err := rows.Err(); err != nil {
			return object.Errorf("db_query: rows: %v", err)
		}
		return object.NewList(results)
	})
}

// sqlValueToObject converts a database value to a Risor object.
func sqlValueToObject(v any) object.Object {
	if v == nil {
		return object.Nil
	}
	switch val := v.(type) {
	case int64:
		return object.NewInt(val)
	case float64:
		return object.NewFloat(val)
	case string:
		return object.NewString(val)
	case bool:
		return object.NewBool(val)
	case []byte:
		return object.NewString(string(val))
	default:
		return object.NewString(fmt.Sprintf("%v", val))
	}
}

func toString(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}
