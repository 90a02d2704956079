package lox

import "fmt"

// The green tree is the immutable half of the syntax tree: nodes know their
// kind, their children, and the total length of the text they cover, but not
// their position or parent. Red nodes (Node, SyntaxToken) layer offsets and
// parent links on top.

type greenElement interface {
	greenKind() Kind
	textLen() int
}

// GreenNode is an immutable interior node.
type GreenNode struct {
	kind     Kind
	children []greenElement
	length   int
}

func (n *GreenNode) greenKind() Kind { return n.kind }
func (n *GreenNode) textLen() int    { return n.length }

// Kind returns the node kind.
func (n *GreenNode) Kind() Kind { return n.kind }

// TextLen returns the total byte length of the text the node covers.
func (n *GreenNode) TextLen() int { return n.length }

// GreenToken is an immutable leaf holding its exact source text.
type GreenToken struct {
	kind Kind
	text string
}

func (t *GreenToken) greenKind() Kind { return t.kind }
func (t *GreenToken) textLen() int    { return len(t.text) }

// Kind returns the token kind.
func (t *GreenToken) Kind() Kind { return t.kind }

// Text returns the token's source text.
func (t *GreenToken) Text() string { return t.text }

func newGreenNode(kind Kind, children []greenElement) *GreenNode {
	length := 0
	for _, c := range children {
		length += c.textLen()
	}
	owned := make([]greenElement, len(children))
	copy(owned, children)
	return &GreenNode{kind: kind, children: owned, length: length}
}

// Builder assembles a green tree top-down. It keeps a stack of in-progress
// nodes; StartNode opens a node, FinishNode closes the most recent one, and
// Token appends a leaf to the current node. Checkpoint and StartNodeAt allow
// wrapping already-emitted children in a new node retroactively, which is how
// the parser builds left-leaning expression nodes.
type Builder struct {
	parents  []openNode
	children []greenElement
}

type openNode struct {
	kind       Kind
	firstChild int
}

// Checkpoint marks a position in the builder; see StartNodeAt.
type Checkpoint int

// StartNode opens a new node of the given kind.
func (b *Builder) StartNode(kind Kind) {
	if !kind.valid() {
		panic(fmt.Sprintf("lox: kind %d out of range", uint16(kind)))
	}
	b.parents = append(b.parents, openNode{kind: kind, firstChild: len(b.children)})
}

// FinishNode closes the most recently started node.
func (b *Builder) FinishNode() {
	if len(b.parents) == 0 {
		panic("lox: FinishNode without StartNode")
	}
	p := b.parents[len(b.parents)-1]
	b.parents = b.parents[:len(b.parents)-1]
	node := newGreenNode(p.kind, b.children[p.firstChild:])
	b.children = append(b.children[:p.firstChild], node)
}

// Token appends a leaf token to the current node.
func (b *Builder) Token(kind Kind, text string) {
	if !kind.valid() {
		panic(fmt.Sprintf("lox: kind %d out of range", uint16(kind)))
	}
	b.children = append(b.children, &GreenToken{kind: kind, text: text})
}

// Checkpoint returns a marker for the current position. Wrapping everything
// emitted after the marker in a new node is done with StartNodeAt.
func (b *Builder) Checkpoint() Checkpoint {
	return Checkpoint(len(b.children))
}

// StartNodeAt opens a node of the given kind positioned before everything
// emitted since the checkpoint was taken. The node is closed with FinishNode
// like any other.
func (b *Builder) StartNodeAt(cp Checkpoint, kind Kind) {
	if int(cp) > len(b.children) {
		panic("lox: invalid checkpoint")
	}
	if n := len(b.parents); n > 0 && b.parents[n-1].firstChild > int(cp) {
		panic("lox: checkpoint no longer valid, was FinishNode called early?")
	}
	if !kind.valid() {
		panic(fmt.Sprintf("lox: kind %d out of range", uint16(kind)))
	}
	b.parents = append(b.parents, openNode{kind: kind, firstChild: int(cp)})
}

// Finish returns the completed tree. All started nodes must have been
// finished, and exactly one root must remain.
func (b *Builder) Finish() *GreenNode {
	if len(b.parents) != 0 {
		panic("lox: Finish with unfinished nodes")
	}
	if len(b.children) != 1 {
		panic("lox: Finish expects exactly one root node")
	}
	root, ok := b.children[0].(*GreenNode)
	if !ok {
		panic("lox: root element is a token, not a node")
	}
	return root
}
