package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"loxkit/internal/log"
)

// Manager orchestrates the workspace catalog:
// - git integration for change detection
// - file watching for real-time updates
// - scheduled safety scans
// - the background indexing worker
// - keyword search over the indexed chunks
type Manager struct {
	db      *DB
	worker  *Worker
	watcher *FileWatcher
	bm25    *BM25Index

	workspaceID string
	root        string
	gitInfo     GitInfo

	config ManagerConfig

	log zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex

	started bool
	closed  bool
}

// ManagerConfig configures the manager behavior.
type ManagerConfig struct {
	// Database path
	DBPath string

	// Workspace identification
	WorkspaceID string
	Root        string

	// File selection
	Include []string
	Exclude []string

	// Files larger than this are marked failed instead of parsed. 0 disables the cap.
	MaxFileSize int64

	// File watching
	EnableFileWatcher bool

	// Periodic full scan as a backup for missed events
	SafetyScanInterval time.Duration

	// Indexing worker tuning
	WorkerBatchSize    int
	WorkerTickInterval time.Duration

	// Score multiplier for spans anchored to a named symbol (default: 1.2)
	SymbolBoost float64
}

// NewManager creates a catalog manager for a workspace.
func NewManager(ctx context.Context, config ManagerConfig) (*Manager, error) {
	if config.DBPath == "" {
		return nil, fmt.Errorf("DBPath is required")
	}
	if config.WorkspaceID == "" {
		return nil, fmt.Errorf("WorkspaceID is required")
	}
	if config.Root == "" {
		return nil, fmt.Errorf("Root is required")
	}

	if config.SafetyScanInterval == 0 {
		config.SafetyScanInterval = 10 * time.Minute
	}
	if config.WorkerBatchSize == 0 {
		config.WorkerBatchSize = 20
	}
	if config.WorkerTickInterval == 0 {
		config.WorkerTickInterval = 5 * time.Second
	}
	if config.SymbolBoost == 0 {
		config.SymbolBoost = 1.2
	}

	logger := log.WithComponent("catalog")

	gitInfo := DetectGit(ctx, config.Root)
	logger.Debug().Str("event", "catalog.detect").Str("root", config.Root).Bool("git", gitInfo.IsGit).Msg("workspace detected")

	db, err := NewDB(ctx, config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	if err := db.UpsertWorkspace(ctx, config.WorkspaceID, config.Root, gitInfo.IsGit, gitInfo.GitRoot); err != nil {
		logger.Warn().Str("event", "catalog.workspace_upsert_failed").Err(err).Msg("failed to store workspace info")
	}

	bm25, err := NewBM25Index(config.DBPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create BM25 index: %w", err)
	}

	worker := NewWorker(db, bm25, config.WorkspaceID, config.Root, config.MaxFileSize)
	worker.batchSize = config.WorkerBatchSize
	worker.tickInterval = config.WorkerTickInterval

	mgrCtx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		db:          db,
		worker:      worker,
		bm25:        bm25,
		workspaceID: config.WorkspaceID,
		root:        config.Root,
		gitInfo:     gitInfo,
		config:      config,
		log:         logger,
		ctx:         mgrCtx,
		cancel:      cancel,
	}

	if config.EnableFileWatcher {
		walker, err := m.newWalker(ctx)
		if err == nil {
			watcher, err := NewFileWatcher(config.Root, walker.filter, walker.ignoreMatcher)
			if err != nil {
				logger.Warn().Str("event", "catalog.watcher_failed").Err(err).Msg("failed to create file watcher")
			} else {
				m.watcher = watcher
				watcher.OnChange(m.handleFileChanges)
				watcher.OnStructureChange(m.handleStructureChange)
			}
		}
	}

	return m, nil
}

// newWalker builds a walker with a fresh snapshot of known files, so the
// hash fast-path reflects the current database state.
func (m *Manager) newWalker(ctx context.Context) (*Walker, error) {
	existing, err := m.db.GetAllWorkspaceFiles(ctx, m.workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load known files: %w", err)
	}

	existingMap := make(map[string]FileRecord, len(existing))
	for _, f := range existing {
		existingMap[f.Path] = f
	}

	return NewWalkerWithConfig(m.root, WalkerConfig{
		Include:       m.config.Include,
		Exclude:       m.config.Exclude,
		ExistingFiles: existingMap,
	})
}

// Start begins all background processes: the file watcher (if enabled),
// the safety scan ticker, and the indexing worker.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return fmt.Errorf("manager already started")
	}
	if m.closed {
		return fmt.Errorf("manager is closed")
	}

	m.log.Info().Str("event", "catalog.start").Str("workspace", m.workspaceID).Msg("starting catalog manager")

	// Recover files stuck in 'indexing' from a previous crash
	count, err := m.db.ResetStuckIndexing(m.ctx, m.workspaceID)
	if err != nil {
		m.log.Warn().Str("event", "catalog.reset_failed").Err(err).Msg("failed to reset stuck files")
	} else if count > 0 {
		m.log.Info().Str("event", "catalog.reset").Int("files", count).Msg("reset stuck files from previous run")
	}

	if m.watcher != nil {
		if err := m.watcher.Start(); err != nil {
			m.log.Warn().Str("event", "catalog.watcher_start_failed").Err(err).Msg("failed to start file watcher")
		} else {
			m.log.Debug().Str("event", "catalog.watcher_started").Msg("file watcher started")
		}
	}

	m.wg.Add(1)
	go m.safetyScanLoop()

	m.worker.Start()

	m.started = true
	m.log.Info().Str("event", "catalog.started").Msg("catalog manager started")

	return nil
}

// Stop stops all background processes and closes the storage. Safe to call
// on a manager that was never started; subsequent calls are no-ops.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	m.log.Info().Str("event", "catalog.stop").Msg("stopping catalog manager")

	if m.watcher != nil {
		m.watcher.Stop()
	}

	m.worker.Stop()

	m.cancel()
	m.wg.Wait()

	if m.bm25 != nil {
		m.bm25.Close()
	}

	m.db.Close()

	m.started = false
	m.log.Info().Str("event", "catalog.stopped").Msg("catalog manager stopped")

	return nil
}

// ScanResult contains the results of a workspace scan.
type ScanResult struct {
	FilesNeedingIndex []FileInfo
	WalkErrors        []WalkError
	TotalDiscovered   int
	FilesDeleted      int
}

// Scan discovers workspace files and updates the database. Files that are
// new, changed or previously failed become pending; files that vanished
// are marked deleted.
func (m *Manager) Scan(ctx context.Context) (*ScanResult, error) {
	m.log.Debug().Str("event", "scan.start").Str("root", m.root).Msg("scanning workspace")

	walker, err := m.newWalker(ctx)
	if err != nil {
		return nil, err
	}

	walkResult := m.discover(ctx, walker)

	m.log.Debug().Str("event", "scan.discovered").Int("files", len(walkResult.Files)).Int("errors", len(walkResult.Errors)).Msg("discovery complete")
	for _, werr := range walkResult.Errors {
		m.log.Warn().Str("event", "scan.walk_error").Str("path", werr.Path).Err(werr.Err).Msg("walk error")
	}

	existingFiles, err := m.db.GetAllWorkspaceFiles(ctx, m.workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get existing files: %w", err)
	}

	discoveredPaths := make(map[string]bool)
	var needsIndexing []FileInfo

	for _, file := range walkResult.Files {
		discoveredPaths[file.Path] = true

		needsIndex, err := m.db.UpsertFile(ctx, m.workspaceID, file.Path, file.Hash, file.SizeBytes, file.MtimeUnix)
		if err != nil {
			m.log.Warn().Str("event", "scan.upsert_failed").Str("path", file.Path).Err(err).Msg("failed to upsert file")
			walkResult.Errors = append(walkResult.Errors, WalkError{
				Path: file.Path,
				Err:  fmt.Errorf("database upsert failed: %w", err),
			})
			continue
		}

		if needsIndex {
			needsIndexing = append(needsIndexing, file)
			m.log.Debug().Str("event", "scan.pending").Str("path", file.Path).Msg("file needs indexing")
		}
	}

	deletedCount := 0
	for _, existing := range existingFiles {
		if !discoveredPaths[existing.Path] && !existing.Deleted {
			if err := m.retireFile(ctx, existing.Path); err != nil {
				m.log.Warn().Str("event", "scan.delete_failed").Str("path", existing.Path).Err(err).Msg("failed to mark file deleted")
				walkResult.Errors = append(walkResult.Errors, WalkError{
					Path: existing.Path,
					Err:  fmt.Errorf("failed to mark deleted: %w", err),
				})
				continue
			}
			m.log.Debug().Str("event", "scan.deleted").Str("path", existing.Path).Msg("file deleted")
			deletedCount++
		}
	}

	m.log.Info().
		Str("event", "scan.done").
		Int("discovered", len(walkResult.Files)).
		Int("pending", len(needsIndexing)).
		Int("deleted", deletedCount).
		Msg("scan complete")

	return &ScanResult{
		FilesNeedingIndex: needsIndexing,
		WalkErrors:        walkResult.Errors,
		TotalDiscovered:   len(walkResult.Files),
		FilesDeleted:      deletedCount,
	}, nil
}

// discover lists candidate files, via git when available.
func (m *Manager) discover(ctx context.Context, walker *Walker) WalkResult {
	if m.gitInfo.IsGit {
		// ls-files is cwd-relative: run in the workspace root it lists only
		// the workspace subtree, with workspace-relative paths, even when
		// the workspace sits inside a larger repository.
		paths, err := ListGitFiles(ctx, m.root)
		if err == nil {
			return walker.Collect(paths)
		}
		m.log.Warn().Str("event", "scan.git_fallback").Err(err).Msg("git ls-files failed, walking filesystem")
	}
	return walker.WalkWithErrors()
}

// InitialScan performs the initial full indexing of the workspace.
func (m *Manager) InitialScan(ctx context.Context) error {
	m.log.Info().Str("event", "catalog.initial_scan").Msg("starting initial indexing")

	result, err := m.Scan(ctx)
	if err != nil {
		return fmt.Errorf("failed to scan workspace: %w", err)
	}

	m.log.Info().
		Str("event", "catalog.initial_discovered").
		Int("discovered", result.TotalDiscovered).
		Int("pending", len(result.FilesNeedingIndex)).
		Msg("discovery complete")

	// Index everything pending, including leftovers from earlier runs
	pending, err := m.db.GetFilesNeedingIndex(ctx, m.workspaceID)
	if err != nil {
		return fmt.Errorf("failed to get pending files: %w", err)
	}

	if len(pending) == 0 {
		m.log.Info().Str("event", "catalog.initial_done").Msg("nothing to index")
		return nil
	}

	for i, file := range pending {
		if i > 0 && i%100 == 0 {
			m.log.Info().Str("event", "catalog.initial_progress").Int("done", i).Int("total", len(pending)).Msg("indexing progress")
		}
		if err := m.worker.processFile(file); err != nil {
			m.log.Warn().Str("event", "catalog.initial_file_failed").Str("path", file.Path).Err(err).Msg("failed to index file")
		}
	}

	m.log.Info().Str("event", "catalog.initial_done").Int("files", len(pending)).Msg("initial indexing complete")
	return nil
}

// QuickFreshness runs a change detection pass and indexes up to maxFiles
// pending files. Called before answering queries so results are not stale.
func (m *Manager) QuickFreshness(ctx context.Context, maxFiles int) error {
	changed, err := m.detectChanges(ctx)
	if err != nil {
		m.log.Warn().Str("event", "catalog.freshness_failed").Err(err).Msg("change detection failed")
	} else if len(changed) > 0 {
		m.log.Debug().Str("event", "catalog.freshness").Int("files", len(changed)).Msg("detected changed files")
	}

	return m.worker.RunBatch(ctx, maxFiles)
}

// Rebuild drops all indexed data for the workspace and re-indexes from
// scratch.
func (m *Manager) Rebuild(ctx context.Context) error {
	m.log.Info().Str("event", "catalog.rebuild").Msg("rebuilding catalog")

	if err := m.bm25.Reset(); err != nil {
		return fmt.Errorf("failed to reset keyword index: %w", err)
	}
	if err := m.db.ResetWorkspace(ctx, m.workspaceID); err != nil {
		return fmt.Errorf("failed to reset catalog database: %w", err)
	}

	return m.InitialScan(ctx)
}

// detectChanges detects file changes using git when available, otherwise a
// filesystem scan with the hash fast-path.
func (m *Manager) detectChanges(ctx context.Context) ([]string, error) {
	if m.gitInfo.IsGit {
		return m.detectGitChanges(ctx)
	}
	return m.detectScanChanges(ctx)
}

// detectGitChanges uses git status --porcelain, then scans to pick up the
// modifications.
func (m *Manager) detectGitChanges(ctx context.Context) ([]string, error) {
	changes, err := GitChanges(ctx, m.gitInfo.GitRoot)
	if err != nil {
		return nil, err
	}

	var changedPaths []string
	for _, change := range changes {
		path, ok := m.workspaceRel(change.Path)
		if !ok {
			continue
		}
		changedPaths = append(changedPaths, path)

		if change.Status != "D" {
			continue
		}
		// git reports every deletion, not just catalog files
		if _, err := m.db.GetFile(ctx, m.workspaceID, path); err != nil {
			continue
		}
		if err := m.retireFile(ctx, path); err != nil {
			m.log.Warn().Str("event", "catalog.retire_failed").Str("path", path).Err(err).Msg("failed to retire deleted file")
		}
	}

	if len(changedPaths) > 0 {
		if _, err := m.Scan(ctx); err != nil {
			return changedPaths, err
		}
	}

	return changedPaths, nil
}

// workspaceRel converts a git-root-relative path, as printed by
// `git status --porcelain`, to a workspace-relative one. Reports false
// when the path lies outside the workspace root.
func (m *Manager) workspaceRel(gitRel string) (string, bool) {
	if m.gitInfo.GitRoot == m.root {
		return gitRel, true
	}
	rel, err := filepath.Rel(m.root, filepath.Join(m.gitInfo.GitRoot, gitRel))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

// detectScanChanges runs a scan and reports the paths that became pending.
func (m *Manager) detectScanChanges(ctx context.Context) ([]string, error) {
	result, err := m.Scan(ctx)
	if err != nil {
		return nil, err
	}

	var changedPaths []string
	for _, file := range result.FilesNeedingIndex {
		changedPaths = append(changedPaths, file.Path)
	}

	return changedPaths, nil
}

// handleFileChanges is called by the file watcher when files change.
func (m *Manager) handleFileChanges(paths []string) {
	for _, path := range paths {
		fullPath := filepath.Join(m.root, path)
		if _, err := os.Stat(fullPath); !os.IsNotExist(err) {
			continue
		}
		// Removal events cover directories and non-catalog files too
		if _, err := m.db.GetFile(m.ctx, m.workspaceID, path); err != nil {
			continue
		}
		if err := m.retireFile(m.ctx, path); err != nil {
			m.log.Warn().Str("event", "catalog.retire_failed").Str("path", path).Err(err).Msg("failed to retire deleted file")
		}
	}

	go func() {
		if _, err := m.detectChanges(m.ctx); err != nil {
			m.log.Warn().Str("event", "catalog.change_scan_failed").Err(err).Msg("change scan failed")
		}
	}()
}

// handleStructureChange is called by the file watcher on create/delete/rename.
// A directory created with files already inside only reports the directory,
// so a full change detection pass is needed to find them.
func (m *Manager) handleStructureChange() {
	go func() {
		if _, err := m.detectChanges(m.ctx); err != nil {
			m.log.Warn().Str("event", "catalog.structure_scan_failed").Err(err).Msg("structure scan failed")
		}
	}()
}

// safetyScanLoop runs periodic scans as a backup for missed watcher events,
// and purges rows for files that have been deleted for over a day.
func (m *Manager) safetyScanLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.SafetyScanInterval)
	defer ticker.Stop()

	m.log.Debug().Str("event", "catalog.safety_loop").Dur("interval", m.config.SafetyScanInterval).Msg("safety scan loop started")

	for {
		select {
		case <-m.ctx.Done():
			return

		case <-ticker.C:
			m.log.Debug().Str("event", "catalog.safety_scan").Msg("running safety scan")
			if _, err := m.detectChanges(m.ctx); err != nil {
				m.log.Warn().Str("event", "catalog.safety_scan_failed").Err(err).Msg("safety scan failed")
			}
			if err := m.purgeDeleted(m.ctx, 24*time.Hour); err != nil {
				m.log.Warn().Str("event", "catalog.purge_failed").Err(err).Msg("purge failed")
			}
		}
	}
}

// retireFile marks a file deleted and immediately removes its outline rows
// and keyword entries so searches stop returning it. The file row stays
// behind as a tombstone until purgeDeleted prunes it.
func (m *Manager) retireFile(ctx context.Context, path string) error {
	file, err := m.db.GetFile(ctx, m.workspaceID, path)
	if err != nil {
		return fmt.Errorf("failed to load file record: %w", err)
	}

	chunks, err := m.db.GetChunksByFile(ctx, file.FileID)
	if err == nil && len(chunks) > 0 {
		ids := make([]string, 0, len(chunks))
		for _, c := range chunks {
			ids = append(ids, c.ChunkID)
		}
		if err := m.bm25.DeleteChunks(ids); err != nil {
			m.log.Warn().Str("event", "catalog.retire_bm25_failed").Str("path", path).Err(err).Msg("failed to remove keyword entries")
		}
	}

	if err := m.db.ReplaceOutline(ctx, file.FileID, nil, nil, nil); err != nil {
		m.log.Warn().Str("event", "catalog.retire_outline_failed").Str("path", path).Err(err).Msg("failed to clear outline rows")
	}

	return m.db.MarkDeleted(ctx, m.workspaceID, path)
}

// purgeDeleted removes long-deleted files from both stores.
func (m *Manager) purgeDeleted(ctx context.Context, olderThan time.Duration) error {
	files, err := m.db.GetAllWorkspaceFiles(ctx, m.workspaceID)
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-olderThan).Unix()
	var staleChunkIDs []string
	for _, f := range files {
		if !f.Deleted || f.MtimeUnix >= cutoff {
			continue
		}
		chunks, err := m.db.GetChunksByFile(ctx, f.FileID)
		if err != nil {
			continue
		}
		for _, c := range chunks {
			staleChunkIDs = append(staleChunkIDs, c.ChunkID)
		}
	}

	if len(staleChunkIDs) > 0 && m.bm25 != nil {
		if err := m.bm25.DeleteChunks(staleChunkIDs); err != nil {
			m.log.Warn().Str("event", "catalog.purge_bm25_failed").Err(err).Msg("failed to purge keyword entries")
		}
	}

	return m.db.CleanupDeleted(ctx, m.workspaceID, olderThan)
}

// Search finds the top k most relevant spans for a query using BM25
// keyword search. Spans anchored to a named symbol get a score boost.
func (m *Manager) Search(ctx context.Context, query string, globs []string, k int) ([]Span, error) {
	if k <= 0 {
		k = 10
	}

	// Overfetch so the boost can reorder before the cut
	const nTop = 100
	results, err := m.bm25.Search(query, m.workspaceID, globs, nTop)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	type scoredSpan struct {
		span  Span
		score float64
	}

	scoredSpans := make([]scoredSpan, 0, len(results))
	for _, r := range results {
		chunk, err := m.db.GetChunk(ctx, r.ChunkID)
		if err != nil {
			m.log.Warn().Str("event", "search.chunk_missing").Str("chunk", r.ChunkID).Err(err).Msg("failed to fetch chunk")
			continue
		}

		score := r.Score
		why := "bm25"
		if chunk.SymbolID != "" {
			score *= m.config.SymbolBoost
			why = "bm25+symbol"
		}

		span := Span{
			Path:    chunk.FilePath,
			Start:   chunk.StartLine,
			End:     chunk.EndLine,
			Symbol:  chunk.SymbolName,
			Snippet: extractSnippet(chunk.Text, 30),
			Score:   score,
			Why:     why,
		}
		scoredSpans = append(scoredSpans, scoredSpan{span, score})
	}

	sort.Slice(scoredSpans, func(i, j int) bool {
		return scoredSpans[i].score > scoredSpans[j].score
	})

	if len(scoredSpans) > k {
		scoredSpans = scoredSpans[:k]
	}

	spans := make([]Span, len(scoredSpans))
	for i, ss := range scoredSpans {
		spans[i] = ss.span
	}

	return spans, nil
}

// ReadSpan reads the source for a span from a file, start to end inclusive
// (1-indexed). Out-of-range boundaries clamp to the file; reversed
// boundaries swap.
func (m *Manager) ReadSpan(ctx context.Context, path string, start, end int) (string, error) {
	fullPath := filepath.Join(m.root, path)

	content, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", path, err)
	}

	lines := strings.Split(string(content), "\n")
	totalLines := len(lines)

	if start < 1 {
		start = 1
	}
	if start > totalLines {
		start = totalLines
	}
	if end < 1 {
		end = 1
	}
	if end > totalLines {
		end = totalLines
	}

	if start > end {
		start, end = end, start
	}

	if totalLines == 0 {
		return "", nil
	}

	return strings.Join(lines[start-1:end], "\n"), nil
}

// Stats computes catalog statistics for the workspace.
func (m *Manager) Stats(ctx context.Context) (*WorkspaceStats, error) {
	return m.db.Stats(ctx, m.workspaceID)
}

// DB returns the underlying database for direct queries.
func (m *Manager) DB() *DB {
	return m.db
}

// GitInfo returns the detected git state of the workspace.
func (m *Manager) GitInfo() GitInfo {
	return m.gitInfo
}

// extractSnippet extracts the first n lines from text for preview.
func extractSnippet(text string, maxLines int) string {
	lines := strings.Split(text, "\n")
	if len(lines) <= maxLines {
		return text
	}
	return strings.Join(lines[:maxLines], "\n") + "\n..."
}
