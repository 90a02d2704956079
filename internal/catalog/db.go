package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// IndexStatus represents the indexing state of a file.
type IndexStatus string

const (
	StatusPending  IndexStatus = "pending"  // Needs indexing
	StatusIndexing IndexStatus = "indexing" // Currently being indexed
	StatusIndexed  IndexStatus = "indexed"  // Successfully indexed
	StatusFailed   IndexStatus = "failed"   // Indexing failed
)

// FileRecord represents a file entry in the database.
type FileRecord struct {
	FileID      int64
	WorkspaceID string
	Path        string
	Hash        string
	SizeBytes   int64
	MtimeUnix   int64
	Deleted     bool
	IndexStatus IndexStatus
	IndexedAt   int64  // Unix timestamp when successfully indexed
	IndexError  string // Error message if indexing failed
}

// WorkspaceRecord represents a workspace entry.
type WorkspaceRecord struct {
	WorkspaceID string
	RootPath    string
	IsGit       bool
	GitRoot     string
	CreatedAt   int64
}

// Symbol represents a named declaration extracted from a source file.
type Symbol struct {
	SymbolID    string
	WorkspaceID string
	FileID      int64
	FilePath    string
	Name        string
	Kind        string
	Container   string
	Signature   string
	StartLine   int
	EndLine     int
}

// Chunk represents a text segment for keyword search.
type Chunk struct {
	ChunkID     string
	WorkspaceID string
	FileID      int64
	FilePath    string
	SymbolID    string
	SymbolName  string
	StartLine   int
	EndLine     int
	Text        string
}

// Diagnostic represents a stored parse diagnostic for a file.
type Diagnostic struct {
	DiagID      int64
	WorkspaceID string
	FileID      int64
	FilePath    string
	Line        int
	Col         int
	Offset      int
	Message     string
}

// DB provides database operations for the workspace catalog.
type DB struct {
	db *sql.DB
}

// NewDB creates a new database connection and initializes the schema.
func NewDB(ctx context.Context, dbPath string) (*DB, error) {
	// Enable WAL mode for better concurrency and set busy timeout
	// WAL mode allows multiple readers and one writer simultaneously
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't support multiple writers well
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	d := &DB{db: db}
	if err := d.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// initSchema creates the database tables if they don't exist.
func (d *DB) initSchema(ctx context.Context) error {
	schema := `
	-- Workspace metadata
	CREATE TABLE IF NOT EXISTS workspaces (
		workspace_id TEXT PRIMARY KEY,
		root_path    TEXT NOT NULL,
		is_git       INTEGER NOT NULL,
		git_root     TEXT,
		created_at   INTEGER NOT NULL
	);

	-- File tracking
	CREATE TABLE IF NOT EXISTS files (
		file_id      INTEGER PRIMARY KEY AUTOINCREMENT,
		workspace_id TEXT NOT NULL,
		path         TEXT NOT NULL,
		hash         TEXT NOT NULL,
		size_bytes   INTEGER NOT NULL,
		mtime_unix   INTEGER NOT NULL,
		deleted      INTEGER NOT NULL DEFAULT 0,
		index_status TEXT NOT NULL DEFAULT 'pending',
		indexed_at   INTEGER,
		index_error  TEXT,
		UNIQUE (workspace_id, path),
		FOREIGN KEY (workspace_id) REFERENCES workspaces(workspace_id)
	);

	-- Symbols (classes, functions, methods, variables)
	CREATE TABLE IF NOT EXISTS symbols (
		symbol_id    TEXT PRIMARY KEY,
		workspace_id TEXT NOT NULL,
		file_id      INTEGER NOT NULL,
		file_path    TEXT NOT NULL,
		name         TEXT NOT NULL,
		kind         TEXT NOT NULL,
		container    TEXT,
		signature    TEXT NOT NULL,
		start_line   INTEGER NOT NULL,
		end_line     INTEGER NOT NULL,
		FOREIGN KEY (workspace_id) REFERENCES workspaces(workspace_id),
		FOREIGN KEY (file_id) REFERENCES files(file_id)
	);

	-- Chunks (text segments for keyword search)
	CREATE TABLE IF NOT EXISTS chunks (
		chunk_id     TEXT PRIMARY KEY,
		workspace_id TEXT NOT NULL,
		file_id      INTEGER NOT NULL,
		file_path    TEXT NOT NULL,
		symbol_id    TEXT,
		symbol_name  TEXT,
		start_line   INTEGER NOT NULL,
		end_line     INTEGER NOT NULL,
		text         TEXT NOT NULL,
		FOREIGN KEY (workspace_id) REFERENCES workspaces(workspace_id),
		FOREIGN KEY (file_id) REFERENCES files(file_id)
	);

	-- Parse diagnostics recorded at index time
	CREATE TABLE IF NOT EXISTS diagnostics (
		diag_id      INTEGER PRIMARY KEY AUTOINCREMENT,
		workspace_id TEXT NOT NULL,
		file_id      INTEGER NOT NULL,
		file_path    TEXT NOT NULL,
		line         INTEGER NOT NULL,
		col          INTEGER NOT NULL,
		offset       INTEGER NOT NULL,
		message      TEXT NOT NULL,
		FOREIGN KEY (workspace_id) REFERENCES workspaces(workspace_id),
		FOREIGN KEY (file_id) REFERENCES files(file_id)
	);

	-- Indexes for performance
	CREATE INDEX IF NOT EXISTS idx_files_workspace ON files(workspace_id);
	CREATE INDEX IF NOT EXISTS idx_files_deleted ON files(deleted);
	CREATE INDEX IF NOT EXISTS idx_files_status ON files(index_status);

	CREATE INDEX IF NOT EXISTS idx_symbols_workspace ON symbols(workspace_id);
	CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_id);
	CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);

	CREATE INDEX IF NOT EXISTS idx_chunks_workspace ON chunks(workspace_id);
	CREATE INDEX IF NOT EXISTS idx_chunks_file ON chunks(file_id);

	CREATE INDEX IF NOT EXISTS idx_diagnostics_file ON diagnostics(file_id);
	`

	_, err := d.db.ExecContext(ctx, schema)
	return err
}

// UpsertWorkspace inserts or updates a workspace record.
func (d *DB) UpsertWorkspace(ctx context.Context, workspaceID, rootPath string, isGit bool, gitRoot string) error {
	now := time.Now().Unix()
	query := `
		INSERT INTO workspaces (workspace_id, root_path, is_git, git_root, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(workspace_id) DO UPDATE SET
			root_path = excluded.root_path,
			is_git = excluded.is_git,
			git_root = excluded.git_root
	`
	isGitInt := 0
	if isGit {
		isGitInt = 1
	}
	_, err := d.db.ExecContext(ctx, query, workspaceID, rootPath, isGitInt, gitRoot, now)
	return err
}

// GetWorkspace retrieves a workspace record.
func (d *DB) GetWorkspace(ctx context.Context, workspaceID string) (*WorkspaceRecord, error) {
	query := `SELECT workspace_id, root_path, is_git, git_root, created_at FROM workspaces WHERE workspace_id = ?`
	var w WorkspaceRecord
	var isGitInt int
	var gitRoot sql.NullString
	err := d.db.QueryRowContext(ctx, query, workspaceID).Scan(&w.WorkspaceID, &w.RootPath, &isGitInt, &gitRoot, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	w.IsGit = isGitInt == 1
	if gitRoot.Valid {
		w.GitRoot = gitRoot.String
	}
	return &w, nil
}

// UpsertFile inserts or updates a file record.
// Returns true if the file is new or the hash changed (needs indexing).
// Sets index_status to 'pending' when needsIndexing is true.
func (d *DB) UpsertFile(ctx context.Context, workspaceID, path, hash string, sizeBytes, mtimeUnix int64) (bool, error) {
	// Check if file exists and if hash changed
	var existingHash string
	var existingStatus string
	checkQuery := `SELECT hash, index_status FROM files WHERE workspace_id = ? AND path = ?`
	err := d.db.QueryRowContext(ctx, checkQuery, workspaceID, path).Scan(&existingHash, &existingStatus)

	needsIndexing := false
	newStatus := existingStatus

	if err == sql.ErrNoRows {
		// New file - needs indexing
		needsIndexing = true
		newStatus = string(StatusPending)
	} else if err != nil {
		return false, fmt.Errorf("failed to check existing file: %w", err)
	} else if existingHash != hash {
		// Hash changed - needs re-indexing
		needsIndexing = true
		newStatus = string(StatusPending)
	} else if existingStatus == string(StatusFailed) {
		// Previous indexing failed - retry
		needsIndexing = true
		newStatus = string(StatusPending)
	}

	query := `
		INSERT INTO files (workspace_id, path, hash, size_bytes, mtime_unix, deleted, index_status, indexed_at, index_error)
		VALUES (?, ?, ?, ?, ?, 0, ?, NULL, NULL)
		ON CONFLICT(workspace_id, path) DO UPDATE SET
			hash = excluded.hash,
			size_bytes = excluded.size_bytes,
			mtime_unix = excluded.mtime_unix,
			deleted = 0,
			index_status = ?,
			indexed_at = CASE WHEN ? = 'pending' THEN NULL ELSE indexed_at END,
			index_error = CASE WHEN ? = 'pending' THEN NULL ELSE index_error END
	`

	_, err = d.db.ExecContext(ctx, query, workspaceID, path, hash, sizeBytes, mtimeUnix, newStatus, newStatus, newStatus, newStatus)
	if err != nil {
		return false, fmt.Errorf("failed to upsert file: %w", err)
	}

	return needsIndexing, nil
}

// MarkDeleted marks a file as deleted.
func (d *DB) MarkDeleted(ctx context.Context, workspaceID, path string) error {
	query := `UPDATE files SET deleted = 1 WHERE workspace_id = ? AND path = ?`
	_, err := d.db.ExecContext(ctx, query, workspaceID, path)
	return err
}

// GetFile retrieves a single file record by path.
func (d *DB) GetFile(ctx context.Context, workspaceID, path string) (*FileRecord, error) {
	query := `
		SELECT file_id, workspace_id, path, hash, size_bytes, mtime_unix, deleted, index_status, indexed_at, index_error
		FROM files
		WHERE workspace_id = ? AND path = ?
	`
	row := d.db.QueryRowContext(ctx, query, workspaceID, path)
	f, err := scanFileRecord(row)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// GetFilesNeedingIndex returns all files with status='pending' that need indexing.
func (d *DB) GetFilesNeedingIndex(ctx context.Context, workspaceID string) ([]FileRecord, error) {
	query := `
		SELECT file_id, workspace_id, path, hash, size_bytes, mtime_unix, deleted, index_status, indexed_at, index_error
		FROM files
		WHERE workspace_id = ? AND deleted = 0 AND index_status = ?
		ORDER BY path
	`
	return d.queryFiles(ctx, query, workspaceID, string(StatusPending))
}

// GetAllWorkspaceFiles returns all files (including deleted) for a workspace.
func (d *DB) GetAllWorkspaceFiles(ctx context.Context, workspaceID string) ([]FileRecord, error) {
	query := `
		SELECT file_id, workspace_id, path, hash, size_bytes, mtime_unix, deleted, index_status, indexed_at, index_error
		FROM files
		WHERE workspace_id = ?
		ORDER BY path
	`
	return d.queryFiles(ctx, query, workspaceID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFileRecord(row rowScanner) (*FileRecord, error) {
	var f FileRecord
	var deleted int
	var indexedAt sql.NullInt64
	var indexError sql.NullString
	err := row.Scan(&f.FileID, &f.WorkspaceID, &f.Path, &f.Hash, &f.SizeBytes, &f.MtimeUnix, &deleted, &f.IndexStatus, &indexedAt, &indexError)
	if err != nil {
		return nil, err
	}
	f.Deleted = deleted == 1
	if indexedAt.Valid {
		f.IndexedAt = indexedAt.Int64
	}
	if indexError.Valid {
		f.IndexError = indexError.String
	}
	return &f, nil
}

func (d *DB) queryFiles(ctx context.Context, query string, args ...any) ([]FileRecord, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	var files []FileRecord
	for rows.Next() {
		f, err := scanFileRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, *f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating files: %w", err)
	}

	return files, nil
}

// MarkIndexing marks a file as currently being indexed.
// This prevents duplicate work if multiple workers are running.
func (d *DB) MarkIndexing(ctx context.Context, workspaceID, path string) error {
	query := `UPDATE files SET index_status = ? WHERE workspace_id = ? AND path = ?`
	_, err := d.db.ExecContext(ctx, query, string(StatusIndexing), workspaceID, path)
	if err != nil {
		return fmt.Errorf("failed to mark file as indexing: %w", err)
	}
	return nil
}

// MarkIndexed marks a file as successfully indexed.
func (d *DB) MarkIndexed(ctx context.Context, workspaceID, path string) error {
	now := time.Now().Unix()
	query := `UPDATE files SET index_status = ?, indexed_at = ?, index_error = NULL WHERE workspace_id = ? AND path = ?`
	_, err := d.db.ExecContext(ctx, query, string(StatusIndexed), now, workspaceID, path)
	if err != nil {
		return fmt.Errorf("failed to mark file as indexed: %w", err)
	}
	return nil
}

// MarkFailed marks a file as failed to index with an error message.
func (d *DB) MarkFailed(ctx context.Context, workspaceID, path, errorMsg string) error {
	query := `UPDATE files SET index_status = ?, index_error = ? WHERE workspace_id = ? AND path = ?`
	_, err := d.db.ExecContext(ctx, query, string(StatusFailed), errorMsg, workspaceID, path)
	if err != nil {
		return fmt.Errorf("failed to mark file as failed: %w", err)
	}
	return nil
}

// ResetStuckIndexing resets files stuck in 'indexing' state back to 'pending'.
// Called on startup to recover from crashes where files were marked as
// indexing but never completed.
func (d *DB) ResetStuckIndexing(ctx context.Context, workspaceID string) (int, error) {
	query := `UPDATE files SET index_status = ? WHERE workspace_id = ? AND index_status = ?`
	result, err := d.db.ExecContext(ctx, query, string(StatusPending), workspaceID, string(StatusIndexing))
	if err != nil {
		return 0, fmt.Errorf("failed to reset stuck indexing: %w", err)
	}
	affected, _ := result.RowsAffected()
	return int(affected), nil
}

// CleanupDeleted removes deleted files older than the specified duration,
// along with their symbols, chunks and diagnostics.
func (d *DB) CleanupDeleted(ctx context.Context, workspaceID string, olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan).Unix()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin cleanup: %w", err)
	}
	defer tx.Rollback()

	sel := `SELECT file_id FROM files WHERE workspace_id = ? AND deleted = 1 AND mtime_unix < ?`
	for _, table := range []string{"symbols", "chunks", "diagnostics"} {
		q := fmt.Sprintf(`DELETE FROM %s WHERE file_id IN (%s)`, table, sel)
		if _, err := tx.ExecContext(ctx, q, workspaceID, cutoff); err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}

	del := `DELETE FROM files WHERE workspace_id = ? AND deleted = 1 AND mtime_unix < ?`
	if _, err := tx.ExecContext(ctx, del, workspaceID, cutoff); err != nil {
		return fmt.Errorf("failed to clean files: %w", err)
	}

	return tx.Commit()
}

// ResetWorkspace removes every file, symbol, chunk and diagnostic for a
// workspace. Used by full rebuilds; the workspace record itself survives.
func (d *DB) ResetWorkspace(ctx context.Context, workspaceID string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin reset: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"diagnostics", "chunks", "symbols", "files"} {
		q := fmt.Sprintf(`DELETE FROM %s WHERE workspace_id = ?`, table)
		if _, err := tx.ExecContext(ctx, q, workspaceID); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}

	return tx.Commit()
}

// ReplaceOutline atomically replaces the symbols, chunks and diagnostics
// for a file. A reader never observes the old outline mixed with the new.
func (d *DB) ReplaceOutline(ctx context.Context, fileID int64, symbols []Symbol, chunks []Chunk, diags []Diagnostic) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin outline replace: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"symbols", "chunks", "diagnostics"} {
		q := fmt.Sprintf(`DELETE FROM %s WHERE file_id = ?`, table)
		if _, err := tx.ExecContext(ctx, q, fileID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	symQuery := `
		INSERT INTO symbols (symbol_id, workspace_id, file_id, file_path, name, kind, container, signature, start_line, end_line)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, s := range symbols {
		if _, err := tx.ExecContext(ctx, symQuery, s.SymbolID, s.WorkspaceID, s.FileID, s.FilePath, s.Name, s.Kind, s.Container, s.Signature, s.StartLine, s.EndLine); err != nil {
			return fmt.Errorf("failed to insert symbol %s: %w", s.Name, err)
		}
	}

	chunkQuery := `
		INSERT INTO chunks (chunk_id, workspace_id, file_id, file_path, symbol_id, symbol_name, start_line, end_line, text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, c := range chunks {
		if _, err := tx.ExecContext(ctx, chunkQuery, c.ChunkID, c.WorkspaceID, c.FileID, c.FilePath, c.SymbolID, c.SymbolName, c.StartLine, c.EndLine, c.Text); err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", c.ChunkID, err)
		}
	}

	diagQuery := `
		INSERT INTO diagnostics (workspace_id, file_id, file_path, line, col, offset, message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for _, diag := range diags {
		if _, err := tx.ExecContext(ctx, diagQuery, diag.WorkspaceID, diag.FileID, diag.FilePath, diag.Line, diag.Col, diag.Offset, diag.Message); err != nil {
			return fmt.Errorf("failed to insert diagnostic: %w", err)
		}
	}

	return tx.Commit()
}

// GetChunksByFile retrieves all chunks for a file.
func (d *DB) GetChunksByFile(ctx context.Context, fileID int64) ([]Chunk, error) {
	query := `
		SELECT chunk_id, workspace_id, file_id, file_path, symbol_id, symbol_name, start_line, end_line, text
		FROM chunks WHERE file_id = ?
		ORDER BY start_line
	`
	rows, err := d.db.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *c)
	}
	return chunks, rows.Err()
}

// GetChunk retrieves a single chunk by ID.
func (d *DB) GetChunk(ctx context.Context, chunkID string) (*Chunk, error) {
	query := `
		SELECT chunk_id, workspace_id, file_id, file_path, symbol_id, symbol_name, start_line, end_line, text
		FROM chunks WHERE chunk_id = ?
	`
	return scanChunk(d.db.QueryRowContext(ctx, query, chunkID))
}

func scanChunk(row rowScanner) (*Chunk, error) {
	var c Chunk
	var symbolID, symbolName sql.NullString
	err := row.Scan(&c.ChunkID, &c.WorkspaceID, &c.FileID, &c.FilePath, &symbolID, &symbolName, &c.StartLine, &c.EndLine, &c.Text)
	if err != nil {
		return nil, err
	}
	if symbolID.Valid {
		c.SymbolID = symbolID.String
	}
	if symbolName.Valid {
		c.SymbolName = symbolName.String
	}
	return &c, nil
}

// SymbolFilter narrows a symbol query. Zero values match everything.
type SymbolFilter struct {
	Name string // substring match on the symbol name
	Kind string // exact match ("class", "fn", "method", "var")
	Path string // exact match on the file path
}

// QuerySymbols returns symbols for a workspace matching the filter,
// ordered by file path and position.
func (d *DB) QuerySymbols(ctx context.Context, workspaceID string, filter SymbolFilter, limit int) ([]Symbol, error) {
	query := `
		SELECT symbol_id, workspace_id, file_id, file_path, name, kind, container, signature, start_line, end_line
		FROM symbols
		WHERE workspace_id = ?
	`
	args := []any{workspaceID}

	if filter.Name != "" {
		query += ` AND name LIKE ?`
		args = append(args, "%"+filter.Name+"%")
	}
	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, filter.Kind)
	}
	if filter.Path != "" {
		query += ` AND file_path = ?`
		args = append(args, filter.Path)
	}

	query += ` ORDER BY file_path, start_line`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []Symbol
	for rows.Next() {
		var s Symbol
		var container sql.NullString
		err := rows.Scan(&s.SymbolID, &s.WorkspaceID, &s.FileID, &s.FilePath, &s.Name, &s.Kind, &container, &s.Signature, &s.StartLine, &s.EndLine)
		if err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		if container.Valid {
			s.Container = container.String
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

// FileDiagnostics returns the stored diagnostics for a file, ordered by offset.
func (d *DB) FileDiagnostics(ctx context.Context, fileID int64) ([]Diagnostic, error) {
	query := `
		SELECT diag_id, workspace_id, file_id, file_path, line, col, offset, message
		FROM diagnostics WHERE file_id = ?
		ORDER BY offset
	`
	rows, err := d.db.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var diags []Diagnostic
	for rows.Next() {
		var dg Diagnostic
		err := rows.Scan(&dg.DiagID, &dg.WorkspaceID, &dg.FileID, &dg.FilePath, &dg.Line, &dg.Col, &dg.Offset, &dg.Message)
		if err != nil {
			return nil, err
		}
		diags = append(diags, dg)
	}
	return diags, rows.Err()
}

// WorkspaceStats summarizes the catalog state for a workspace.
type WorkspaceStats struct {
	TotalFiles  int
	Indexed     int
	Pending     int
	Failed      int
	Deleted     int
	Symbols     int
	Chunks      int
	Diagnostics int
	SizeBytes   int64
}

// Stats computes catalog statistics for a workspace.
func (d *DB) Stats(ctx context.Context, workspaceID string) (*WorkspaceStats, error) {
	var st WorkspaceStats

	fileQuery := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN index_status = 'indexed' AND deleted = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN index_status = 'pending' AND deleted = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN index_status = 'failed' AND deleted = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN deleted = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN deleted = 0 THEN size_bytes ELSE 0 END), 0)
		FROM files WHERE workspace_id = ?
	`
	err := d.db.QueryRowContext(ctx, fileQuery, workspaceID).Scan(&st.TotalFiles, &st.Indexed, &st.Pending, &st.Failed, &st.Deleted, &st.SizeBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to compute file stats: %w", err)
	}

	counts := map[string]*int{
		"symbols":     &st.Symbols,
		"chunks":      &st.Chunks,
		"diagnostics": &st.Diagnostics,
	}
	for table, dest := range counts {
		q := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE workspace_id = ?`, table)
		if err := d.db.QueryRowContext(ctx, q, workspaceID).Scan(dest); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
	}

	return &st, nil
}
