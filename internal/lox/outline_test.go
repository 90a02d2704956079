package lox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOutlineSymbols(t *testing.T) {
	src := `// math helpers
fn add(a, b) {
  return a + b;
}

class Counter < Base {
  bump(n) {
    this.count = this.count + n;
    return this.count;
  }
}

var total = add(1, 2) * 3;
`
	p := Parse(src)
	require.True(t, p.Ok())

	syms, chunks := Outline(src, p.Syntax())

	require.Equal(t, []Symbol{
		{Name: "add", Kind: SymbolFn, Signature: "fn add(a, b)", StartLine: 2, EndLine: 4},
		{Name: "Counter", Kind: SymbolClass, Signature: "class Counter < Base", StartLine: 6, EndLine: 11},
		{Name: "bump", Kind: SymbolMethod, Container: "Counter", Signature: "bump(n)", StartLine: 7, EndLine: 10},
		{Name: "total", Kind: SymbolVar, Signature: "var total", StartLine: 13, EndLine: 13},
	}, syms)

	require.Len(t, chunks, 3)
	require.Equal(t, "fn add(a, b) {\n  return a + b;\n}", chunks[0].Content)
	require.NotNil(t, chunks[0].Symbol)
	require.Equal(t, "add", chunks[0].Symbol.Name)
	require.Equal(t, "Counter", chunks[1].Symbol.Name)
	require.Equal(t, "var total = add(1, 2) * 3;", chunks[2].Content)
}

func TestOutlineAnonymousChunks(t *testing.T) {
	src := "print 1;\nprint 2;\nfn f() {}\nprint 3;\n"
	p := Parse(src)
	require.True(t, p.Ok())

	_, chunks := Outline(src, p.Syntax())
	require.Len(t, chunks, 3)

	require.Nil(t, chunks[0].Symbol)
	require.Equal(t, 1, chunks[0].StartLine)
	require.Equal(t, 2, chunks[0].EndLine)
	require.Equal(t, "print 1;\nprint 2;", chunks[0].Content)

	require.NotNil(t, chunks[1].Symbol)
	require.Equal(t, "f", chunks[1].Symbol.Name)

	require.Nil(t, chunks[2].Symbol)
	require.Equal(t, "print 3;", chunks[2].Content)
}

func TestOutlineNestedFunctions(t *testing.T) {
	src := "fn outer() {\n  fn inner() {}\n}\n"
	p := Parse(src)
	require.True(t, p.Ok())

	syms, _ := Outline(src, p.Syntax())
	require.Len(t, syms, 2)
	require.Equal(t, "outer", syms[0].Name)
	require.Equal(t, "", syms[0].Container)
	require.Equal(t, "inner", syms[1].Name)
	require.Equal(t, SymbolFn, syms[1].Kind)
	require.Equal(t, "outer", syms[1].Container)
}

func TestOutlineLocalVarsAreNotSymbols(t *testing.T) {
	src := "fn f() {\n  var local = 1;\n}\nvar global = 2;\n"
	p := Parse(src)
	require.True(t, p.Ok())

	syms, _ := Outline(src, p.Syntax())
	var names []string
	for _, s := range syms {
		names = append(names, s.Name)
	}
	require.Equal(t, []string{"f", "global"}, names)
}

func TestOutlineSurvivesParseErrors(t *testing.T) {
	src := "fn good() {}\n@@@;\nclass C {}\n"
	p := Parse(src)
	require.False(t, p.Ok())

	syms, _ := Outline(src, p.Syntax())
	var names []string
	for _, s := range syms {
		names = append(names, s.Name)
	}
	require.Equal(t, []string{"good", "C"}, names)
}

func TestOutlineSplitsOversizedChunks(t *testing.T) {
	src := strings.Repeat("print 1;\n", 250)
	p := Parse(src)
	require.True(t, p.Ok())

	_, chunks := Outline(src, p.Syntax())
	require.Len(t, chunks, 3)
	require.Equal(t, 1, chunks[0].StartLine)
	require.Equal(t, 120, chunks[0].EndLine)
	require.Equal(t, 121, chunks[1].StartLine)
	require.Equal(t, 240, chunks[1].EndLine)
	require.Equal(t, 241, chunks[2].StartLine)
	require.Equal(t, 250, chunks[2].EndLine)
}
