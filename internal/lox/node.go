package lox

import (
	"fmt"
	"strings"
)

// TextRange is a half-open byte range [Start, End) into the source.
type TextRange struct {
	Start int
	End   int
}

func (r TextRange) Len() int { return r.End - r.Start }

func (r TextRange) String() string { return fmt.Sprintf("%d..%d", r.Start, r.End) }

// Element is either a Node or a SyntaxToken.
type Element interface {
	Kind() Kind
	Range() TextRange
	Text() string
}

// Node is a positioned view of a green node: it knows its absolute byte
// offset and its parent. Nodes are cheap values; navigating the tree
// materializes children on demand.
type Node struct {
	green  *GreenNode
	parent *Node
	offset int
}

// NewRoot wraps a green tree produced by a Builder as a positioned root node.
func NewRoot(green *GreenNode) Node {
	return Node{green: green}
}

func (n Node) Kind() Kind { return n.green.kind }

func (n Node) Range() TextRange {
	return TextRange{Start: n.offset, End: n.offset + n.green.length}
}

// Parent returns the parent node, or nil for the root.
func (n Node) Parent() *Node { return n.parent }

// Children returns the node's direct children, nodes and tokens interleaved
// in source order.
func (n Node) Children() []Element {
	parent := &n
	out := make([]Element, 0, len(n.green.children))
	off := n.offset
	for _, c := range n.green.children {
		switch g := c.(type) {
		case *GreenNode:
			out = append(out, Node{green: g, parent: parent, offset: off})
		case *GreenToken:
			out = append(out, SyntaxToken{green: g, parent: parent, offset: off})
		}
		off += c.textLen()
	}
	return out
}

// ChildNodes returns only the child nodes, skipping tokens.
func (n Node) ChildNodes() []Node {
	var out []Node
	for _, c := range n.Children() {
		if child, ok := c.(Node); ok {
			out = append(out, child)
		}
	}
	return out
}

// Tokens returns only the direct child tokens, skipping nodes.
func (n Node) Tokens() []SyntaxToken {
	var out []SyntaxToken
	for _, c := range n.Children() {
		if tok, ok := c.(SyntaxToken); ok {
			out = append(out, tok)
		}
	}
	return out
}

// Text reconstructs the exact source text the node covers.
func (n Node) Text() string {
	var sb strings.Builder
	sb.Grow(n.green.length)
	writeText(&sb, n.green)
	return sb.String()
}

func writeText(sb *strings.Builder, n *GreenNode) {
	for _, c := range n.children {
		switch g := c.(type) {
		case *GreenNode:
			writeText(sb, g)
		case *GreenToken:
			sb.WriteString(g.text)
		}
	}
}

// FirstToken returns the first token under the node, descending into child
// nodes, and false when the subtree is empty.
func (n Node) FirstToken() (SyntaxToken, bool) {
	for _, c := range n.Children() {
		switch e := c.(type) {
		case SyntaxToken:
			return e, true
		case Node:
			if t, ok := e.FirstToken(); ok {
				return t, true
			}
		}
	}
	return SyntaxToken{}, false
}

// LastToken returns the last token under the node, descending into child
// nodes, and false when the subtree is empty.
func (n Node) LastToken() (SyntaxToken, bool) {
	children := n.Children()
	for i := len(children) - 1; i >= 0; i-- {
		switch e := children[i].(type) {
		case SyntaxToken:
			return e, true
		case Node:
			if t, ok := e.LastToken(); ok {
				return t, true
			}
		}
	}
	return SyntaxToken{}, false
}

// Walk visits n and its descendant nodes in preorder. Returning false from
// visit skips the node's children.
func (n Node) Walk(visit func(Node) bool) {
	if !visit(n) {
		return
	}
	for _, c := range n.ChildNodes() {
		c.Walk(visit)
	}
}

// SyntaxToken is a positioned view of a green token.
type SyntaxToken struct {
	green  *GreenToken
	parent *Node
	offset int
}

func (t SyntaxToken) Kind() Kind { return t.green.kind }

func (t SyntaxToken) Range() TextRange {
	return TextRange{Start: t.offset, End: t.offset + len(t.green.text)}
}

// Parent returns the node the token belongs to.
func (t SyntaxToken) Parent() *Node { return t.parent }

func (t SyntaxToken) Text() string { return t.green.text }
