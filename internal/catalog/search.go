package catalog

import "context"

// Span represents a source span (line range) in a file with metadata.
type Span struct {
	Path    string  `json:"path"`             // relative path from the workspace root
	Start   int     `json:"start"`            // start line (1-indexed)
	End     int     `json:"end"`              // end line (1-indexed, inclusive)
	Symbol  string  `json:"symbol,omitempty"` // enclosing symbol, if any
	Snippet string  `json:"snippet"`          // preview of the source
	Score   float64 `json:"score"`            // relevance score
	Why     string  `json:"why"`              // how it was found (bm25, bm25+symbol)
}

// Retrieval provides keyword search and span reading over a workspace.
type Retrieval interface {
	// Search finds the top k most relevant spans for a query.
	// globs filter by file patterns (e.g. []string{"*.lox", "lib/*"}).
	// Spans come back sorted by score, highest first.
	Search(ctx context.Context, query string, globs []string, k int) ([]Span, error)

	// ReadSpan reads the source for a specific span, start to end inclusive.
	ReadSpan(ctx context.Context, path string, start, end int) (string, error)
}
