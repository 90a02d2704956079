// Package lox implements a lossless tokenizer, an error-resilient parser, and
// a concrete syntax tree for the Lox language. Every byte of the input,
// including whitespace, comments, and invalid runs, is preserved in the token
// stream and in the tree, so the original source can always be reconstructed
// from a parse.
package lox

// Kind identifies a token or node in the syntax tree. Token kinds come first,
// node kinds after; Root must be last, it is used for bounds checking.
type Kind uint16

const (
	// Single-character tokens.
	LParen Kind = iota
	RParen
	LBrace
	RBrace
	Comma
	Dot
	Minus
	Plus
	Semicolon
	Slash
	Star

	// One- or two-character tokens.
	Bang
	BangEqual
	Equal
	EqualEqual
	Greater
	GreaterEqual
	Less
	LessEqual

	// Literals.
	Identifier
	StringLit
	Number

	// Keywords.
	And
	Class
	Else
	False
	Fn
	For
	If
	Nil
	Or
	Print
	Return
	Super
	This
	True
	Var
	While

	// Trivia.
	LineComment
	BlockComment
	Whitespace
	Newline

	// Error tokens. ErrorUnexpected doubles as the node kind the parser
	// wraps unparseable tokens in.
	ErrorUnexpected
	ErrorUnterminatedString

	// Composite nodes.
	UnaryExpr
	CallExpr
	FactorExpr
	TermExpr
	ComparisonExpr
	EqualityExpr
	AndExpr
	OrExpr
	AssignExpr
	ExprStmt
	PrintStmt
	ReturnStmt
	IfStmt
	WhileStmt
	ForStmt
	Block
	VarDecl
	FunDecl
	ClassDecl
	Root
)

var kindNames = [...]string{
	LParen:                  "LParen",
	RParen:                  "RParen",
	LBrace:                  "LBrace",
	RBrace:                  "RBrace",
	Comma:                   "Comma",
	Dot:                     "Dot",
	Minus:                   "Minus",
	Plus:                    "Plus",
	Semicolon:               "Semicolon",
	Slash:                   "Slash",
	Star:                    "Star",
	Bang:                    "Bang",
	BangEqual:               "BangEqual",
	Equal:                   "Equal",
	EqualEqual:              "EqualEqual",
	Greater:                 "Greater",
	GreaterEqual:            "GreaterEqual",
	Less:                    "Less",
	LessEqual:               "LessEqual",
	Identifier:              "Identifier",
	StringLit:               "StringLit",
	Number:                  "Number",
	And:                     "And",
	Class:                   "Class",
	Else:                    "Else",
	False:                   "False",
	Fn:                      "Fn",
	For:                     "For",
	If:                      "If",
	Nil:                     "Nil",
	Or:                      "Or",
	Print:                   "Print",
	Return:                  "Return",
	Super:                   "Super",
	This:                    "This",
	True:                    "True",
	Var:                     "Var",
	While:                   "While",
	LineComment:             "LineComment",
	BlockComment:            "BlockComment",
	Whitespace:              "Whitespace",
	Newline:                 "Newline",
	ErrorUnexpected:         "ErrorUnexpected",
	ErrorUnterminatedString: "ErrorUnterminatedString",
	UnaryExpr:               "UnaryExpr",
	CallExpr:                "CallExpr",
	FactorExpr:              "FactorExpr",
	TermExpr:                "TermExpr",
	ComparisonExpr:          "ComparisonExpr",
	EqualityExpr:            "EqualityExpr",
	AndExpr:                 "AndExpr",
	OrExpr:                  "OrExpr",
	AssignExpr:              "AssignExpr",
	ExprStmt:                "ExprStmt",
	PrintStmt:               "PrintStmt",
	ReturnStmt:              "ReturnStmt",
	IfStmt:                  "IfStmt",
	WhileStmt:               "WhileStmt",
	ForStmt:                 "ForStmt",
	Block:                   "Block",
	VarDecl:                 "VarDecl",
	FunDecl:                 "FunDecl",
	ClassDecl:               "ClassDecl",
	Root:                    "Root",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}

func (k Kind) valid() bool { return k <= Root }

// IsTrivia reports whether k is whitespace, a newline, or a comment.
func (k Kind) IsTrivia() bool {
	switch k {
	case LineComment, BlockComment, Whitespace, Newline:
		return true
	}
	return false
}

// IsKeyword reports whether k is a reserved word.
func (k Kind) IsKeyword() bool { return k >= And && k <= While }

// IsError reports whether k is one of the error token kinds.
func (k Kind) IsError() bool {
	return k == ErrorUnexpected || k == ErrorUnterminatedString
}

var keywords = map[string]Kind{
	"and":    And,
	"class":  Class,
	"else":   Else,
	"false":  False,
	"fn":     Fn,
	"for":    For,
	"if":     If,
	"nil":    Nil,
	"or":     Or,
	"print":  Print,
	"return": Return,
	"super":  Super,
	"this":   This,
	"true":   True,
	"var":    Var,
	"while":  While,
}

// LookupKeyword returns the keyword kind for ident, if it is a reserved word.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
