package catalog

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"loxkit/internal/log"
	"loxkit/internal/lox"
)

// Worker processes pending files in the background: read, parse, outline,
// store. Parse errors do not fail a file; they are recorded as diagnostics
// and the intact regions are indexed anyway.
type Worker struct {
	db          *DB
	bm25        *BM25Index
	workspaceID string
	root        string
	maxFileSize int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    zerolog.Logger

	batchSize    int
	tickInterval time.Duration
}

// NewWorker creates a background indexing worker.
func NewWorker(db *DB, bm25 *BM25Index, workspaceID, root string, maxFileSize int64) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	return &Worker{
		db:           db,
		bm25:         bm25,
		workspaceID:  workspaceID,
		root:         root,
		maxFileSize:  maxFileSize,
		ctx:          ctx,
		cancel:       cancel,
		log:          log.WithComponent("worker"),
		batchSize:    20,              // files per tick
		tickInterval: 5 * time.Second, // check for work every 5 seconds
	}
}

// Start begins the background indexing loop.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.indexingLoop()
}

// Stop stops the background indexing worker.
func (w *Worker) Stop() {
	w.cancel()
	w.wg.Wait()
}

// indexingLoop continuously processes pending files.
func (w *Worker) indexingLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.log.Info().Str("event", "worker.started").Int("batch_size", w.batchSize).Dur("interval", w.tickInterval).Msg("background indexing started")

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info().Str("event", "worker.stopped").Msg("background indexing stopped")
			return

		case <-ticker.C:
			w.processBatch()
		}
	}
}

// processBatch processes one batch of pending files.
func (w *Worker) processBatch() {
	files, err := w.db.GetFilesNeedingIndex(w.ctx, w.workspaceID)
	if err != nil {
		w.log.Warn().Str("event", "worker.batch_failed").Err(err).Msg("failed to list pending files")
		return
	}

	if len(files) == 0 {
		return
	}

	if len(files) > w.batchSize {
		files = files[:w.batchSize]
	}

	w.log.Debug().Str("event", "worker.batch").Int("files", len(files)).Msg("processing batch")

	for _, file := range files {
		if err := w.processFile(file); err != nil {
			w.log.Warn().Str("event", "worker.file_failed").Str("path", file.Path).Err(err).Msg("failed to index file")
		}
	}
}

// RunBatch processes up to maxFiles pending files immediately. Used to
// freshen the catalog before answering a query.
func (w *Worker) RunBatch(ctx context.Context, maxFiles int) error {
	files, err := w.db.GetFilesNeedingIndex(ctx, w.workspaceID)
	if err != nil {
		return fmt.Errorf("failed to list pending files: %w", err)
	}

	if len(files) == 0 {
		return nil
	}

	if maxFiles > 0 && len(files) > maxFiles {
		files = files[:maxFiles]
	}

	w.log.Debug().Str("event", "worker.quick_batch").Int("files", len(files)).Msg("quick indexing batch")

	for _, file := range files {
		if err := w.processFile(file); err != nil {
			w.log.Warn().Str("event", "worker.file_failed").Str("path", file.Path).Err(err).Msg("failed to index file")
		}
	}

	return nil
}

// processFile indexes a single file: parse, outline, replace stored rows,
// refresh the keyword index.
func (w *Worker) processFile(file FileRecord) error {
	if err := w.db.MarkIndexing(w.ctx, w.workspaceID, file.Path); err != nil {
		return fmt.Errorf("failed to mark as indexing: %w", err)
	}

	if w.maxFileSize > 0 && file.SizeBytes > w.maxFileSize {
		return w.markFailed(file.Path, fmt.Errorf("file too large: %d bytes (limit %d)", file.SizeBytes, w.maxFileSize))
	}

	fullPath := filepath.Join(w.root, file.Path)
	content, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Deleted between scan and index
			w.retire(file)
			return nil
		}
		return w.markFailed(file.Path, fmt.Errorf("failed to read file: %w", err))
	}

	src := string(content)
	result := lox.Parse(src)
	symbols, chunks := lox.Outline(src, result.Syntax())
	rows := buildOutlineRows(w.workspaceID, file, src, symbols, chunks, result.Diagnostics())

	// Drop stale keyword entries before the stored rows change
	oldChunks, err := w.db.GetChunksByFile(w.ctx, file.FileID)
	if err != nil {
		w.log.Warn().Str("event", "worker.stale_lookup_failed").Str("path", file.Path).Err(err).Msg("failed to load old chunks")
	} else if len(oldChunks) > 0 && w.bm25 != nil {
		oldIDs := make([]string, len(oldChunks))
		for i, c := range oldChunks {
			oldIDs[i] = c.ChunkID
		}
		if err := w.bm25.DeleteChunks(oldIDs); err != nil {
			w.log.Warn().Str("event", "worker.stale_delete_failed").Str("path", file.Path).Err(err).Msg("failed to delete old keyword entries")
		}
	}

	if err := w.db.ReplaceOutline(w.ctx, file.FileID, rows.symbols, rows.chunks, rows.diags); err != nil {
		return w.markFailed(file.Path, fmt.Errorf("failed to store outline: %w", err))
	}

	if w.bm25 != nil && len(rows.docs) > 0 {
		if err := w.bm25.BatchIndex(rows.docs); err != nil {
			w.log.Warn().Str("event", "worker.bm25_failed").Str("path", file.Path).Err(err).Msg("failed to index keywords")
		}
	}

	if err := w.db.MarkIndexed(w.ctx, w.workspaceID, file.Path); err != nil {
		return fmt.Errorf("failed to mark as indexed: %w", err)
	}

	w.log.Info().
		Str("event", "worker.indexed").
		Str("path", file.Path).
		Int("symbols", len(rows.symbols)).
		Int("chunks", len(rows.chunks)).
		Int("diagnostics", len(rows.diags)).
		Msg("indexed file")
	return nil
}

// retire marks a vanished file deleted and drops its stored rows and
// keyword entries.
func (w *Worker) retire(file FileRecord) {
	if chunks, err := w.db.GetChunksByFile(w.ctx, file.FileID); err == nil && len(chunks) > 0 && w.bm25 != nil {
		ids := make([]string, len(chunks))
		for i, c := range chunks {
			ids[i] = c.ChunkID
		}
		if err := w.bm25.DeleteChunks(ids); err != nil {
			w.log.Warn().Str("event", "worker.retire_bm25_failed").Str("path", file.Path).Err(err).Msg("failed to remove keyword entries")
		}
	}
	if err := w.db.ReplaceOutline(w.ctx, file.FileID, nil, nil, nil); err != nil {
		w.log.Warn().Str("event", "worker.retire_outline_failed").Str("path", file.Path).Err(err).Msg("failed to clear outline rows")
	}
	if err := w.db.MarkDeleted(w.ctx, w.workspaceID, file.Path); err != nil {
		w.log.Warn().Str("event", "worker.retire_failed").Str("path", file.Path).Err(err).Msg("failed to mark file deleted")
	}
}

// markFailed marks a file as failed to index.
func (w *Worker) markFailed(path string, err error) error {
	errMsg := err.Error()
	if len(errMsg) > 500 {
		errMsg = errMsg[:500]
	}
	return w.db.MarkFailed(w.ctx, w.workspaceID, path, errMsg)
}

// outlineRows is the stored form of one file's parse.
type outlineRows struct {
	symbols []Symbol
	chunks  []Chunk
	diags   []Diagnostic
	docs    []ChunkDoc
}

// buildOutlineRows converts parse output into catalog rows and keyword docs.
func buildOutlineRows(workspaceID string, file FileRecord, src string, symbols []lox.Symbol, chunks []lox.Chunk, diags []lox.Diagnostic) outlineRows {
	var rows outlineRows

	type symbolMeta struct {
		container string
		signature string
	}
	metaByID := make(map[string]symbolMeta, len(symbols))

	for _, s := range symbols {
		id := symbolID(file.Path, s.Name, s.StartLine)
		metaByID[id] = symbolMeta{container: s.Container, signature: s.Signature}
		rows.symbols = append(rows.symbols, Symbol{
			SymbolID:    id,
			WorkspaceID: workspaceID,
			FileID:      file.FileID,
			FilePath:    file.Path,
			Name:        s.Name,
			Kind:        string(s.Kind),
			Container:   s.Container,
			Signature:   s.Signature,
			StartLine:   s.StartLine,
			EndLine:     s.EndLine,
		})
	}

	for _, c := range chunks {
		row := Chunk{
			ChunkID:     chunkID(file.Path, c.StartLine, c.EndLine),
			WorkspaceID: workspaceID,
			FileID:      file.FileID,
			FilePath:    file.Path,
			StartLine:   c.StartLine,
			EndLine:     c.EndLine,
			Text:        c.Content,
		}
		var meta symbolMeta
		if c.Symbol != nil {
			row.SymbolID = symbolID(file.Path, c.Symbol.Name, c.Symbol.StartLine)
			row.SymbolName = c.Symbol.Name
			meta = metaByID[row.SymbolID]
		}
		rows.chunks = append(rows.chunks, row)
		rows.docs = append(rows.docs, ChunkDoc{
			Chunk:     row,
			Container: meta.container,
			Signature: meta.signature,
		})
	}

	li := lox.NewLineIndex(src)
	for _, d := range diags {
		line, col := li.Position(d.Offset)
		rows.diags = append(rows.diags, Diagnostic{
			WorkspaceID: workspaceID,
			FileID:      file.FileID,
			FilePath:    file.Path,
			Line:        line,
			Col:         col,
			Offset:      d.Offset,
			Message:     d.Message,
		})
	}

	return rows
}

// symbolID builds a stable symbol identifier from path, name and position.
func symbolID(path, name string, startLine int) string {
	return fmt.Sprintf("%s:%s:%d", path, name, startLine)
}

// chunkID builds a stable chunk identifier from path and line range.
func chunkID(path string, startLine, endLine int) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%d", path, startLine, endLine)))
	return fmt.Sprintf("%x", h)
}
