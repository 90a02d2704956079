package lox

import "sort"

// LineIndex maps byte offsets to 1-based line and column positions. Columns
// count bytes, not runes.
type LineIndex struct {
	lineStarts []int
	srcLen     int
}

// NewLineIndex builds the index for src.
func NewLineIndex(src string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{lineStarts: starts, srcLen: len(src)}
}

// Position resolves a byte offset to a line and column, both 1-based.
// Offsets outside the source are clamped.
func (ix *LineIndex) Position(offset int) (line, col int) {
	if offset < 0 {
		offset = 0
	}
	if offset > ix.srcLen {
		offset = ix.srcLen
	}
	i := sort.Search(len(ix.lineStarts), func(i int) bool {
		return ix.lineStarts[i] > offset
	}) - 1
	return i + 1, offset - ix.lineStarts[i] + 1
}

// LineCount returns the number of lines in the source. An empty source has
// one line.
func (ix *LineIndex) LineCount() int { return len(ix.lineStarts) }
