package arbor

import "github.com/jward/arbor/internal/store"

// Public type aliases for internal store types used in the QueryBuilder API.

type Store = store.Store
type File = store.File
type IndexedNode = store.Node
