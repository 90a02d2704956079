package session

import (
	"time"

	"github.com/google/uuid"
)

// Entry records one REPL input and what the front end did with it.
type Entry struct {
	Input      string    `json:"input"`
	TokenCount int       `json:"token_count"`
	ErrorCount int       `json:"error_count"`
	At         time.Time `json:"at"`
}

// Session represents a persistent REPL session.
type Session struct {
	ID            string    `json:"id"`
	WorkspacePath string    `json:"workspace_path"`
	WorkspaceHash string    `json:"workspace_hash"` // Used for directory scoping
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Entries       []Entry   `json:"entries"`
}

// SessionMeta is a lightweight representation for listing.
type SessionMeta struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Entries   int       `json:"entries"`
}

// New creates a fresh session for the given workspace.
func New(workspacePath string) *Session {
	now := time.Now()
	return &Session{
		ID:            uuid.NewString(),
		WorkspacePath: workspacePath,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Append records an input in the transcript. The first input also names
// the session.
func (s *Session) Append(input string, tokenCount, errorCount int) {
	now := time.Now()
	s.Entries = append(s.Entries, Entry{
		Input:      input,
		TokenCount: tokenCount,
		ErrorCount: errorCount,
		At:         now,
	})
	s.UpdatedAt = now
	if s.Title == "" {
		s.Title = DeriveTitle(input)
	}
}
