package lox

import "strings"

// maxChunkLines bounds the size of a single indexable chunk.
const maxChunkLines = 120

// SymbolKind classifies an extracted symbol.
type SymbolKind string

const (
	SymbolClass  SymbolKind = "class"
	SymbolFn     SymbolKind = "fn"
	SymbolMethod SymbolKind = "method"
	SymbolVar    SymbolKind = "var"
)

// Symbol is a named declaration found in a parse tree.
type Symbol struct {
	Name      string
	Kind      SymbolKind
	Container string // enclosing class or function, empty at top level
	Signature string
	StartLine int
	EndLine   int
}

// Chunk is a line-aligned slice of the source suitable for indexing: one per
// top-level declaration, with runs of loose statements collapsed into
// anonymous chunks. Symbol is nil for anonymous chunks.
type Chunk struct {
	StartLine int
	EndLine   int
	Content   string
	Symbol    *Symbol
}

// Outline extracts symbols and chunks from a parsed tree. Files with parse
// errors still yield the symbols and chunks of their intact regions.
func Outline(src string, root Node) ([]Symbol, []Chunk) {
	li := NewLineIndex(src)
	var syms []Symbol
	collectSymbols(li, root, "", &syms)
	chunks := collectChunks(src, li, root, syms)
	return syms, chunks
}

func collectSymbols(li *LineIndex, n Node, container string, out *[]Symbol) {
	for _, child := range n.ChildNodes() {
		switch child.Kind() {
		case ClassDecl:
			name := declName(child)
			if name != "" {
				*out = append(*out, newSymbol(li, child, SymbolClass, name, container, classSignature(child)))
			}
			collectSymbols(li, child, nonEmpty(name, container), out)
		case FunDecl:
			name := declName(child)
			kind := SymbolFn
			if n.Kind() == ClassDecl {
				kind = SymbolMethod
			}
			if name != "" {
				*out = append(*out, newSymbol(li, child, kind, name, container, fnSignature(child, kind)))
			}
			collectSymbols(li, child, nonEmpty(name, container), out)
		case VarDecl:
			// Local variables are not symbols; only top-level ones are.
			if n.Kind() == Root {
				if name := declName(child); name != "" {
					*out = append(*out, newSymbol(li, child, SymbolVar, name, container, "var "+name))
				}
			}
		default:
			collectSymbols(li, child, container, out)
		}
	}
}

func newSymbol(li *LineIndex, n Node, kind SymbolKind, name, container, sig string) Symbol {
	start, end := nodeLines(li, n)
	return Symbol{
		Name:      name,
		Kind:      kind,
		Container: container,
		Signature: sig,
		StartLine: start,
		EndLine:   end,
	}
}

func nodeLines(li *LineIndex, n Node) (start, end int) {
	r := n.Range()
	start, _ = li.Position(r.Start)
	last := r.End - 1
	if last < r.Start {
		last = r.Start
	}
	end, _ = li.Position(last)
	return start, end
}

// declName returns the first identifier token directly under the node, which
// is the declared name for every declaration kind.
func declName(n Node) string {
	for _, t := range n.Tokens() {
		if t.Kind() == Identifier {
			return t.Text()
		}
	}
	return ""
}

func classSignature(n Node) string {
	var name, super string
	afterLess := false
	for _, t := range n.Tokens() {
		switch {
		case t.Kind() == Less:
			afterLess = true
		case t.Kind() == Identifier && name == "":
			name = t.Text()
		case t.Kind() == Identifier && afterLess && super == "":
			super = t.Text()
		}
	}
	if super != "" {
		return "class " + name + " < " + super
	}
	return "class " + name
}

func fnSignature(n Node, kind SymbolKind) string {
	var name string
	var params []string
	inParams := false
	for _, t := range n.Tokens() {
		switch t.Kind() {
		case LParen:
			inParams = true
		case RParen:
			inParams = false
		case Identifier:
			if inParams {
				params = append(params, t.Text())
			} else if name == "" {
				name = t.Text()
			}
		}
	}
	sig := name + "(" + strings.Join(params, ", ") + ")"
	if kind == SymbolFn {
		sig = "fn " + sig
	}
	return sig
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func collectChunks(src string, li *LineIndex, root Node, syms []Symbol) []Chunk {
	lines := strings.Split(src, "\n")
	var chunks []Chunk

	pendingStart, pendingEnd := 0, 0
	flush := func() {
		if pendingStart == 0 {
			return
		}
		chunks = append(chunks, Chunk{StartLine: pendingStart, EndLine: pendingEnd})
		pendingStart, pendingEnd = 0, 0
	}

	for _, child := range root.ChildNodes() {
		start, end := nodeLines(li, child)
		switch child.Kind() {
		case ClassDecl, FunDecl, VarDecl:
			flush()
			chunks = append(chunks, Chunk{
				StartLine: start,
				EndLine:   end,
				Symbol:    topLevelSymbol(syms, child.Kind(), declName(child), start),
			})
		default:
			if pendingStart == 0 {
				pendingStart = start
			}
			pendingEnd = end
		}
	}
	flush()

	chunks = splitOversized(chunks)
	for i := range chunks {
		chunks[i].Content = extractLines(lines, chunks[i].StartLine, chunks[i].EndLine)
	}
	return chunks
}

func topLevelSymbol(syms []Symbol, kind Kind, name string, startLine int) *Symbol {
	want := map[Kind]SymbolKind{ClassDecl: SymbolClass, FunDecl: SymbolFn, VarDecl: SymbolVar}[kind]
	for i := range syms {
		s := &syms[i]
		if s.Name == name && s.Kind == want && s.StartLine == startLine && s.Container == "" {
			return s
		}
	}
	return nil
}

func splitOversized(chunks []Chunk) []Chunk {
	var out []Chunk
	for _, c := range chunks {
		if c.EndLine-c.StartLine+1 <= maxChunkLines {
			out = append(out, c)
			continue
		}
		sym := c.Symbol
		for start := c.StartLine; start <= c.EndLine; start += maxChunkLines {
			end := start + maxChunkLines - 1
			if end > c.EndLine {
				end = c.EndLine
			}
			out = append(out, Chunk{StartLine: start, EndLine: end, Symbol: sym})
			sym = nil // only the first piece keeps the symbol
		}
	}
	return out
}

// extractLines returns the 1-based inclusive line range joined with newlines.
func extractLines(lines []string, start, end int) string {
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return ""
	}
	return strings.Join(lines[start-1:end], "\n")
}
