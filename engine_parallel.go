package arbor

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jward/arbor/internal/lang"
	"github.com/jward/arbor/internal/store"
	"github.com/jward/arbor/internal/tree"
	"github.com/jward/arbor/internal/visit"
)

// workItem holds everything an indexing worker needs, and what it produced.
type workItem struct {
	path    string
	lang    *lang.Language
	content []byte
	file    *store.File
	// sink receives the file's rows: the Store itself when indexing
	// serially, or a BatchedStore committed later when parallel.
	sink store.DataStore

	nodeCount   int
	fingerprint string
	err         error
}

// indexFilesParallel indexes files using a three-phase pipeline:
//
//	Phase A (serial):   Hash check, file records.
//	Phase B (parallel): Parse and buffer rows on a worker pool.
//	Phase C (serial):   Commit batches to SQLite.
func (e *Engine) indexFilesParallel(ctx context.Context, paths []string) error {
	// ---- Phase A: Serial file preparation ----
	var items []*workItem
	var errs []error
	for _, path := range paths {
		item, skip, err := e.prepareFile(path, false)
		if err != nil {
			errs = append(errs, fmt.Errorf("prepare %s: %w", path, err))
			continue
		}
		if !skip {
			items = append(items, &item)
		}
	}

	// ---- Phase B: Parallel extraction ----
	if len(items) > 0 {
		numWorkers := e.workers
		if numWorkers <= 0 {
			numWorkers = runtime.NumCPU()
		}
		numWorkers = max(1, min(numWorkers, len(items)))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(numWorkers)
		for _, item := range items {
			g.Go(func() error {
				// Per-file failures are reported after the commit phase;
				// only cancellation stops the pool.
				item.err = e.extractFile(gctx, item)
				return ctx.Err()
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	// ---- Phase C: Serial commit ----
	for _, item := range items {
		if item.err != nil {
			errs = append(errs, fmt.Errorf("extract %s: %w", item.path, item.err))
			continue
		}
		if err := e.commitFile(item); err != nil {
			errs = append(errs, fmt.Errorf("commit %s: %w", item.path, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("parallel indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}

// prepareFile does Phase A work for a single file: hash check and file
// record. Returns (item, skip, error). skip=true means the file is unchanged
// or unsupported. A new file gets a row with an empty hash so a failed parse
// is retried on the next run. With direct set, the file's old rows are
// dropped here and extraction writes straight to the Store; otherwise rows
// are buffered for CommitBatch.
func (e *Engine) prepareFile(path string, direct bool) (workItem, bool, error) {
	l, ok := e.language(path)
	if !ok {
		return workItem{}, true, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return workItem{}, false, fmt.Errorf("read file: %w", err)
	}
	hash := store.ContentHash(content)

	existing, err := e.store.FileByPath(path)
	if err != nil {
		return workItem{}, false, fmt.Errorf("lookup file: %w", err)
	}
	if existing != nil && existing.Hash == hash && !e.force {
		return workItem{}, true, nil // unchanged
	}

	f := existing
	if f == nil {
		f = &store.File{Path: path, Language: l.Name, LastIndexed: time.Now()}
		if _, err := e.store.InsertFile(f); err != nil {
			return workItem{}, false, fmt.Errorf("insert file: %w", err)
		}
	}
	f.Language = l.Name
	f.Hash = hash

	var sink store.DataStore = store.NewBatchedStore()
	if direct {
		if err := e.store.DeleteFileData(f.ID); err != nil {
			return workItem{}, false, fmt.Errorf("clear file: %w", err)
		}
		sink = e.store
	}
	return workItem{
		path:    path,
		lang:    l,
		content: content,
		file:    f,
		sink:    sink,
	}, false, nil
}

// extractFile parses one file and writes its nodes and category counts to
// item.sink. With a BatchedStore sink it touches no shared state.
func (e *Engine) extractFile(ctx context.Context, item *workItem) error {
	doc, err := e.parseContent(ctx, item.path, item.lang, item.content)
	if err != nil {
		return err
	}
	roles, err := doc.RoleIndex(ctx)
	if err != nil {
		return fmt.Errorf("roles: %w", err)
	}
	stats, err := doc.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	lines := newLineIndex(item.content)
	fileID := item.file.ID
	rowIDs := make(map[tree.NodeID]int64, doc.Tree.Len())
	count := 0
	tree.Preorder(doc.Tree.Root(), func(n tree.Node) bool {
		if err != nil {
			return false
		}
		start, end := n.Span()
		row := &store.Node{
			FileID:    fileID,
			NodeID:    int64(n.ID()),
			Ordinal:   -1,
			Type:      string(n.Type()),
			Category:  visit.Of(doc.Lang.Categories, n).String(),
			Role:      string(roles[n.ID()]),
			StartByte: int(start),
			EndByte:   int(end),
		}
		row.StartLine, row.StartCol = lines.position(int(start))
		row.EndLine, row.EndCol = lines.position(int(end))
		if p, ok := n.Parent(); ok {
			pid := rowIDs[p.ID()]
			row.ParentID = &pid
			row.Ordinal = n.Index()
		}
		if n.IsLeaf() {
			row.Text = n.Text()
		}
		var id int64
		id, err = item.sink.InsertNode(row)
		rowIDs[n.ID()] = id
		count++
		return true
	})
	if err != nil {
		return fmt.Errorf("buffer nodes: %w", err)
	}

	cats := make([]visit.Category, 0, len(stats))
	for c := range stats {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	for _, c := range cats {
		if err := item.sink.InsertCategoryCount(&store.CategoryCount{FileID: fileID, Category: c.String(), Count: stats[c]}); err != nil {
			return fmt.Errorf("buffer stats: %w", err)
		}
	}

	item.nodeCount = count
	item.fingerprint = store.FormatHash(doc.Tree.Fingerprint())
	return nil
}

// commitFile writes a finished item: the buffered rows first, then the file
// record with its new hash.
func (e *Engine) commitFile(item *workItem) error {
	if batch, ok := item.sink.(*store.BatchedStore); ok {
		if err := e.store.CommitBatch(batch); err != nil {
			return err
		}
	}
	item.file.NodeCount = item.nodeCount
	item.file.Fingerprint = item.fingerprint
	item.file.LastIndexed = time.Now()
	if err := e.store.UpdateFile(item.file); err != nil {
		return err
	}
	e.logger.Debug("indexed file", "path", item.path, "language", item.lang.Name, "nodes", item.nodeCount)
	return nil
}
