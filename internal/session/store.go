package session

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/renameio/v2"
)

// Store handles persistence of sessions.
type Store struct {
	basePath string
}

// NewStore creates a new session store.
// configPath is typically ~/.config/loxkit
func NewStore(configPath string) *Store {
	return &Store{
		basePath: filepath.Join(configPath, "sessions"),
	}
}

// WorkspaceHash generates a consistent hash for a workspace path.
// This is used to scope sessions to a specific workspace.
func (s *Store) WorkspaceHash(workspacePath string) string {
	hash := sha256.Sum256([]byte(filepath.Clean(workspacePath)))
	return hex.EncodeToString(hash[:])[:12] // Short hash is sufficient
}

// Save persists a session to disk. The write is atomic so a crash mid-save
// never leaves a truncated transcript behind.
func (s *Store) Save(session *Session) error {
	if session.WorkspaceHash == "" {
		session.WorkspaceHash = s.WorkspaceHash(session.WorkspacePath)
	}

	dir := filepath.Join(s.basePath, session.WorkspaceHash)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("%s.json", session.ID))
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := renameio.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// Load retrieves a specific session.
func (s *Store) Load(id string, workspacePath string) (*Session, error) {
	hash := s.WorkspaceHash(workspacePath)
	filename := filepath.Join(s.basePath, hash, fmt.Sprintf("%s.json", id))

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

// List returns all sessions for a given workspace.
// Sessions are sorted by UpdatedAt (newest first).
func (s *Store) List(workspacePath string) ([]SessionMeta, error) {
	hash := s.WorkspaceHash(workspacePath)
	dir := filepath.Join(s.basePath, hash)

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []SessionMeta{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list session directory: %w", err)
	}

	var sessions []SessionMeta
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue // Skip unreadable files
		}

		var sess Session
		if err := json.Unmarshal(data, &sess); err != nil {
			continue // Skip invalid files
		}

		sessions = append(sessions, SessionMeta{
			ID:        sess.ID,
			Title:     sess.Title,
			CreatedAt: sess.CreatedAt,
			UpdatedAt: sess.UpdatedAt,
			Entries:   len(sess.Entries),
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})

	return sessions, nil
}

// Delete removes a session file.
func (s *Store) Delete(id string, workspacePath string) error {
	hash := s.WorkspaceHash(workspacePath)
	filename := filepath.Join(s.basePath, hash, fmt.Sprintf("%s.json", id))

	if err := os.Remove(filename); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
