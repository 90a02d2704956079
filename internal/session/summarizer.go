package session

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxTitleRunes = 60

// DeriveTitle produces a session title from the first REPL input.
// Whitespace runs collapse to single spaces and long inputs truncate.
func DeriveTitle(input string) string {
	title := strings.Join(strings.Fields(input), " ")
	if title == "" {
		return "New Session"
	}
	if utf8.RuneCountInString(title) > maxTitleRunes {
		runes := []rune(title)
		title = string(runes[:maxTitleRunes]) + "..."
	}
	return title
}

// Summarize renders a short human-readable description of the session.
func Summarize(s *Session) string {
	var tokens, errored int
	for _, e := range s.Entries {
		tokens += e.TokenCount
		if e.ErrorCount > 0 {
			errored++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d inputs, %d tokens", len(s.Entries), tokens)
	if errored > 0 {
		fmt.Fprintf(&b, ", %d with errors", errored)
	}
	if !s.UpdatedAt.IsZero() {
		fmt.Fprintf(&b, ", last active %s", s.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return b.String()
}
