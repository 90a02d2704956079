package lox

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParseExpressionLiteral(t *testing.T) {
	p := ParseExpression("1")
	require.True(t, p.Ok())

	want := `Root@0..1
  EqualityExpr@0..1
    ComparisonExpr@0..1
      TermExpr@0..1
        FactorExpr@0..1
          Number@0..1 "1"
`
	if diff := cmp.Diff(want, Dump(p.Syntax())); diff != "" {
		t.Errorf("dump mismatch (-want +got):\n%s", diff)
	}
}

func TestParseExpressionBinary(t *testing.T) {
	p := ParseExpression("1 + 2")
	require.True(t, p.Ok())

	want := `Root@0..5
  EqualityExpr@0..5
    ComparisonExpr@0..5
      TermExpr@0..5
        FactorExpr@0..2
          Number@0..1 "1"
          Whitespace@1..2 " "
        Plus@2..3 "+"
        FactorExpr@3..5
          Whitespace@3..4 " "
          Number@4..5 "2"
`
	if diff := cmp.Diff(want, Dump(p.Syntax())); diff != "" {
		t.Errorf("dump mismatch (-want +got):\n%s", diff)
	}
}

func TestParseExpressionUnary(t *testing.T) {
	p := ParseExpression("-1")
	require.True(t, p.Ok())

	want := `Root@0..2
  EqualityExpr@0..2
    ComparisonExpr@0..2
      TermExpr@0..2
        FactorExpr@0..2
          UnaryExpr@0..2
            Minus@0..1 "-"
            Number@1..2 "1"
`
	if diff := cmp.Diff(want, Dump(p.Syntax())); diff != "" {
		t.Errorf("dump mismatch (-want +got):\n%s", diff)
	}
}

func TestParseExpressionGroupAddsNoNode(t *testing.T) {
	p := ParseExpression("(1)")
	require.True(t, p.Ok())

	want := `Root@0..3
  EqualityExpr@0..3
    ComparisonExpr@0..3
      TermExpr@0..3
        FactorExpr@0..3
          LParen@0..1 "("
          EqualityExpr@1..2
            ComparisonExpr@1..2
              TermExpr@1..2
                FactorExpr@1..2
                  Number@1..2 "1"
          RParen@2..3 ")"
`
	if diff := cmp.Diff(want, Dump(p.Syntax())); diff != "" {
		t.Errorf("dump mismatch (-want +got):\n%s", diff)
	}
}

func TestParseExpressionEmptyInput(t *testing.T) {
	p := ParseExpression("")
	require.Equal(t, []Diagnostic{{Offset: 0, Message: "Unexpected EOF"}}, p.Diagnostics())

	want := `Root@0..0
  EqualityExpr@0..0
    ComparisonExpr@0..0
      TermExpr@0..0
        FactorExpr@0..0
`
	if diff := cmp.Diff(want, Dump(p.Syntax())); diff != "" {
		t.Errorf("dump mismatch (-want +got):\n%s", diff)
	}
}

func TestParseExpressionTrailingInput(t *testing.T) {
	p := ParseExpression("1 2")
	require.Equal(t, []Diagnostic{{Offset: 2, Message: "Expected EOF"}}, p.Diagnostics())

	want := `Root@0..3
  EqualityExpr@0..2
    ComparisonExpr@0..2
      TermExpr@0..2
        FactorExpr@0..2
          Number@0..1 "1"
          Whitespace@1..2 " "
  ErrorUnexpected@2..3
    Number@2..3 "2"
`
	if diff := cmp.Diff(want, Dump(p.Syntax())); diff != "" {
		t.Errorf("dump mismatch (-want +got):\n%s", diff)
	}
}

func TestParseExpressionUnexpectedToken(t *testing.T) {
	p := ParseExpression("@")
	require.Equal(t, []Diagnostic{{Offset: 0, Message: "Unexpected token"}}, p.Diagnostics())

	// The lexer's error token ends up nested inside the parser's error node.
	want := `Root@0..1
  EqualityExpr@0..1
    ComparisonExpr@0..1
      TermExpr@0..1
        FactorExpr@0..1
          ErrorUnexpected@0..1
            ErrorUnexpected@0..1 "@"
`
	if diff := cmp.Diff(want, Dump(p.Syntax())); diff != "" {
		t.Errorf("dump mismatch (-want +got):\n%s", diff)
	}
}

func TestParseVarDecl(t *testing.T) {
	p := Parse("var x = 1;\n")
	require.True(t, p.Ok())

	want := `Root@0..11
  VarDecl@0..10
    Var@0..3 "var"
    Whitespace@3..4 " "
    Identifier@4..5 "x"
    Whitespace@5..6 " "
    Equal@6..7 "="
    Whitespace@7..8 " "
    EqualityExpr@8..9
      ComparisonExpr@8..9
        TermExpr@8..9
          FactorExpr@8..9
            Number@8..9 "1"
    Semicolon@9..10 ";"
  Newline@10..11 "\n"
`
	if diff := cmp.Diff(want, Dump(p.Syntax())); diff != "" {
		t.Errorf("dump mismatch (-want +got):\n%s", diff)
	}
}

func TestParseStatementRecovery(t *testing.T) {
	p := Parse("1 2\nvar x;")
	require.Equal(t, []Diagnostic{{Offset: 2, Message: "Expected ';'"}}, p.Diagnostics())

	want := `Root@0..10
  ExprStmt@0..4
    EqualityExpr@0..2
      ComparisonExpr@0..2
        TermExpr@0..2
          FactorExpr@0..2
            Number@0..1 "1"
            Whitespace@1..2 " "
    ErrorUnexpected@2..4
      Number@2..3 "2"
      Newline@3..4 "\n"
  VarDecl@4..10
    Var@4..7 "var"
    Whitespace@7..8 " "
    Identifier@8..9 "x"
    Semicolon@9..10 ";"
`
	if diff := cmp.Diff(want, Dump(p.Syntax())); diff != "" {
		t.Errorf("dump mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEmptyProgram(t *testing.T) {
	p := Parse("")
	require.True(t, p.Ok())
	require.Equal(t, "Root@0..0\n", Dump(p.Syntax()))

	p = Parse("  \n// just trivia\n")
	require.True(t, p.Ok())
	root := p.Syntax()
	require.Equal(t, "  \n// just trivia\n", root.Text())
	require.Empty(t, root.ChildNodes())
}

func TestParseTruncatedStatement(t *testing.T) {
	p := Parse("print")
	require.Equal(t, []Diagnostic{
		{Offset: 5, Message: "Unexpected EOF"},
		{Offset: 5, Message: "Expected ';'"},
	}, p.Diagnostics())
}

func TestParseAssignmentNests(t *testing.T) {
	p := Parse("a = b = 1;")
	require.True(t, p.Ok())

	// Assignment is right-associative: the second assign nests inside the
	// first's value position.
	var assigns int
	p.Syntax().Walk(func(n Node) bool {
		if n.Kind() == AssignExpr {
			assigns++
		}
		return true
	})
	require.Equal(t, 2, assigns)
	require.Equal(t, "a = b = 1;", p.Syntax().Text())
}

func TestParseCallChainNestsLeft(t *testing.T) {
	p := Parse("f(x).y(z);")
	require.True(t, p.Ok())

	var calls []TextRange
	p.Syntax().Walk(func(n Node) bool {
		if n.Kind() == CallExpr {
			calls = append(calls, n.Range())
		}
		return true
	})
	// Outermost to innermost: f(x).y(z), f(x).y, f(x).
	require.Equal(t, []TextRange{
		{Start: 0, End: 9},
		{Start: 0, End: 6},
		{Start: 0, End: 4},
	}, calls)
}

func TestParseProgramReconstruction(t *testing.T) {
	srcs := []string{
		"fn add(a, b) { return a + b; }\n",
		"class Counter < Base {\n  bump(n) {\n    this.count = this.count + n;\n    return this.count;\n  }\n}\n",
		"var total = add(1, 2) * 3;\n",
		"if (x and y or !z) { print \"both\"; } else { print nil; }\n",
		"for (var i = 0; i < 10; i = i + 1) { print i; }\n",
		"while (true) { x = x / 2; }\n",
		"print super.cooked;\n",
		// Malformed inputs must still round-trip byte for byte.
		"@@ fn {]",
		"class { }",
		"var = ;",
		"fn broken(a { return; }",
		"\"unterminated",
		"/* open comment",
		"1 +\n2;",
	}
	for _, src := range srcs {
		p := Parse(src)
		require.Equal(t, src, p.Syntax().Text(), "parse must preserve every byte")
	}
}

func TestParseFullProgramClean(t *testing.T) {
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
	require.Empty(t, p.Diagnostics())
	require.Equal(t, src, p.Syntax().Text())

	kinds := map[Kind]int{}
	p.Syntax().Walk(func(n Node) bool {
		kinds[n.Kind()]++
		return true
	})
	require.Equal(t, 2, kinds[FunDecl], "fn add and method bump")
	require.Equal(t, 1, kinds[ClassDecl])
	require.Equal(t, 1, kinds[VarDecl])
	require.Equal(t, 1, kinds[AssignExpr])
	require.Equal(t, 2, kinds[ReturnStmt])
}

func TestParseDiagnosticOrder(t *testing.T) {
	p := Parse("var ; print")
	diags := p.Diagnostics()
	require.NotEmpty(t, diags)
	for i := 1; i < len(diags); i++ {
		require.GreaterOrEqual(t, diags[i].Offset, diags[i-1].Offset,
			"diagnostics must be in source order")
	}
}
