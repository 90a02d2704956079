package lox

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Token is a single lexed token. Tokens carry their exact source text;
// concatenating the text of every token returned by Lex reproduces the input
// unchanged.
type Token struct {
	Kind Kind
	Text string
}

// Lex splits src into tokens. It never fails: bytes that cannot start a valid
// token are collected into ErrorUnexpected runs, and an unterminated string
// becomes a single ErrorUnterminatedString token holding the partial text.
func Lex(src string) []Token {
	var toks []Token
	rest := src
	for len(rest) > 0 {
		tok, ok := validToken(rest)
		if !ok {
			tok = invalidToken(rest)
		}
		rest = rest[len(tok.Text):]
		toks = append(toks, tok)
	}
	return toks
}

// validToken lexes the single token at the start of input, or reports false
// when input does not begin with a valid token.
func validToken(input string) (Token, bool) {
	if len(input) == 0 {
		return Token{}, false
	}

	one := func(kind Kind) (Token, bool) {
		return Token{Kind: kind, Text: input[:1]}, true
	}
	two := func(kind Kind) (Token, bool) {
		return Token{Kind: kind, Text: input[:2]}, true
	}
	eqFollows := len(input) >= 2 && input[1] == '='

	switch c := input[0]; c {
	case '(':
		return one(LParen)
	case ')':
		return one(RParen)
	case '{':
		return one(LBrace)
	case '}':
		return one(RBrace)
	case ',':
		return one(Comma)
	case '.':
		return one(Dot)
	case '-':
		return one(Minus)
	case '+':
		return one(Plus)
	case ';':
		return one(Semicolon)
	case '*':
		return one(Star)
	case '!':
		if eqFollows {
			return two(BangEqual)
		}
		return one(Bang)
	case '=':
		if eqFollows {
			return two(EqualEqual)
		}
		return one(Equal)
	case '<':
		if eqFollows {
			return two(LessEqual)
		}
		return one(Less)
	case '>':
		if eqFollows {
			return two(GreaterEqual)
		}
		return one(Greater)
	case '/':
		if strings.HasPrefix(input, "//") {
			return Token{Kind: LineComment, Text: lineComment(input)}, true
		}
		if strings.HasPrefix(input, "/*") {
			return Token{Kind: BlockComment, Text: blockComment(input)}, true
		}
		return one(Slash)
	case ' ', '\r', '\t':
		n := 1
		for n < len(input) && (input[n] == ' ' || input[n] == '\r' || input[n] == '\t') {
			n++
		}
		return Token{Kind: Whitespace, Text: input[:n]}, true
	case '\n':
		return one(Newline)
	case '"':
		return lexString(input)
	}

	if isDigit(input[0]) {
		return Token{Kind: Number, Text: lexNumber(input)}, true
	}
	if r, _ := utf8.DecodeRuneInString(input); isIdentStart(r) {
		text := lexIdent(input)
		if kw, ok := LookupKeyword(text); ok {
			return Token{Kind: kw, Text: text}, true
		}
		return Token{Kind: Identifier, Text: text}, true
	}
	return Token{}, false
}

// invalidToken consumes runes until the remaining input starts a valid token
// or runs out, so consecutive garbage bytes merge into one error token.
func invalidToken(input string) Token {
	n := 0
	for n < len(input) {
		_, size := utf8.DecodeRuneInString(input[n:])
		n += size
		if _, ok := validToken(input[n:]); ok {
			break
		}
	}
	return Token{Kind: ErrorUnexpected, Text: input[:n]}
}

// lineComment runs to the next newline, exclusive.
func lineComment(input string) string {
	if i := strings.IndexByte(input, '\n'); i >= 0 {
		return input[:i]
	}
	return input
}

// blockComment runs through the matching "*/"; with no terminator it extends
// to the end of input. Nesting is not tracked.
func blockComment(input string) string {
	if i := strings.Index(input[2:], "*/"); i >= 0 {
		return input[:2+i+2]
	}
	return input
}

// lexString consumes the opening quote through the closing quote. Newlines
// are allowed inside; there are no escape sequences. A string still open at
// the end of input becomes an ErrorUnterminatedString token.
func lexString(input string) (Token, bool) {
	if i := strings.IndexByte(input[1:], '"'); i >= 0 {
		return Token{Kind: StringLit, Text: input[:i+2]}, true
	}
	return Token{Kind: ErrorUnterminatedString, Text: input}, true
}

// lexNumber consumes digits with optional underscores after the first digit,
// then a fractional part only when a dot is immediately followed by a digit:
// "1.x" lexes as Number("1") Dot Identifier("x").
func lexNumber(input string) string {
	n := 1
	for n < len(input) && (isDigit(input[n]) || input[n] == '_') {
		n++
	}
	if n+1 < len(input) && input[n] == '.' && isDigit(input[n+1]) {
		n += 2
		for n < len(input) && (isDigit(input[n]) || input[n] == '_') {
			n++
		}
	}
	return input[:n]
}

func lexIdent(input string) string {
	n := 0
	for n < len(input) {
		r, size := utf8.DecodeRuneInString(input[n:])
		if n == 0 {
			if !isIdentStart(r) {
				break
			}
		} else if !isIdentPart(r) {
			break
		}
		n += size
	}
	return input[:n]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
