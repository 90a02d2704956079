package lox

import (
	"fmt"
	"strings"
)

// Dump renders the tree in an indented debug form, one element per line:
// nodes as Kind@start..end, tokens as Kind@start..end followed by the quoted
// token text. The output ends with a newline.
func Dump(n Node) string {
	var sb strings.Builder
	dumpInto(&sb, n, 0)
	return sb.String()
}

func dumpInto(sb *strings.Builder, n Node, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(sb, "%s%s@%s\n", indent, n.Kind(), n.Range())
	for _, c := range n.Children() {
		switch e := c.(type) {
		case Node:
			dumpInto(sb, e, depth+1)
		case SyntaxToken:
			fmt.Fprintf(sb, "%s  %s@%s %q\n", indent, e.Kind(), e.Range(), e.Text())
		}
	}
}
