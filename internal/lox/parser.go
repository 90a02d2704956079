package lox

// Diagnostic is a parse problem at a byte offset. Offsets resolve to line and
// column positions through a LineIndex.
type Diagnostic struct {
	Offset  int
	Message string
}

// ParseResult holds the green tree and the diagnostics collected while
// building it. Parsing always produces a tree; malformed input shows up as
// diagnostics plus error nodes, never as a failure.
type ParseResult struct {
	root        *GreenNode
	diagnostics []Diagnostic
}

// Syntax returns a positioned root node over the parsed tree.
func (p *ParseResult) Syntax() Node { return NewRoot(p.root) }

// Diagnostics returns the problems found while parsing, in source order.
func (p *ParseResult) Diagnostics() []Diagnostic { return p.diagnostics }

// Ok reports whether the parse produced no diagnostics.
func (p *ParseResult) Ok() bool { return len(p.diagnostics) == 0 }

// Parse lexes and parses src as a program: a sequence of declarations and
// statements.
func Parse(src string) *ParseResult { return ParseTokens(Lex(src)) }

// ParseTokens parses an already-lexed token stream as a program.
func ParseTokens(toks []Token) *ParseResult {
	p := &parser{toks: toks}
	p.b.StartNode(Root)
	for {
		p.skipTrivia()
		if _, ok := p.current(); !ok {
			break
		}
		p.declaration()
	}
	p.b.FinishNode()
	return &ParseResult{root: p.b.Finish(), diagnostics: p.diags}
}

// ParseExpression parses src as a single expression. Input remaining after
// the expression is wrapped in an error node and reported as "Expected EOF".
func ParseExpression(src string) *ParseResult {
	p := &parser{toks: Lex(src)}
	p.b.StartNode(Root)
	p.expression()
	p.skipTrivia()
	if _, ok := p.current(); ok {
		p.expected("EOF")
		p.b.StartNode(ErrorUnexpected)
		for {
			if _, ok := p.current(); !ok {
				break
			}
			p.bump()
		}
		p.b.FinishNode()
	}
	p.b.FinishNode()
	return &ParseResult{root: p.b.Finish(), diagnostics: p.diags}
}

type parser struct {
	toks  []Token
	pos   int
	off   int
	b     Builder
	diags []Diagnostic
}

// current peeks at the next unconsumed token's kind.
func (p *parser) current() (Kind, bool) {
	if p.pos < len(p.toks) {
		return p.toks[p.pos].Kind, true
	}
	return 0, false
}

// bump consumes one token into the current node.
func (p *parser) bump() {
	tok := p.toks[p.pos]
	p.b.Token(tok.Kind, tok.Text)
	p.off += len(tok.Text)
	p.pos++
}

// skipTrivia bumps whitespace, newlines, and comments into the current node.
func (p *parser) skipTrivia() {
	for {
		k, ok := p.current()
		if !ok || !k.IsTrivia() {
			return
		}
		p.bump()
	}
}

// unexpected wraps the current token alone in an error node and records an
// "Unexpected token" diagnostic, then keeps parsing.
func (p *parser) unexpected() {
	p.b.StartNode(ErrorUnexpected)
	p.diags = append(p.diags, Diagnostic{Offset: p.off, Message: "Unexpected token"})
	p.bump()
	p.b.FinishNode()
}

func (p *parser) unexpectedEOF() {
	if n := len(p.diags); n > 0 {
		last := p.diags[n-1]
		if last.Message == "Unexpected EOF" && last.Offset == p.off {
			return
		}
	}
	p.diags = append(p.diags, Diagnostic{Offset: p.off, Message: "Unexpected EOF"})
}

func (p *parser) expected(what string) {
	p.diags = append(p.diags, Diagnostic{Offset: p.off, Message: "Expected " + what})
}

// expect skips trivia, then consumes a token of the given kind or records an
// "Expected what" diagnostic without consuming anything.
func (p *parser) expect(kind Kind, what string) bool {
	p.skipTrivia()
	if k, ok := p.current(); ok && k == kind {
		p.bump()
		return true
	}
	p.expected(what)
	return false
}

// ident consumes an identifier or reports "Expected identifier".
func (p *parser) ident() bool { return p.expect(Identifier, "identifier") }

// semicolon terminates a statement: it expects ';' and resynchronizes on
// failure.
func (p *parser) semicolon() {
	if !p.expect(Semicolon, "';'") {
		p.synchronize()
	}
}

var syncKinds = map[Kind]bool{
	Class:  true,
	Fn:     true,
	Var:    true,
	Print:  true,
	Return: true,
	If:     true,
	While:  true,
	For:    true,
	LBrace: true,
	RBrace: true,
}

// synchronize consumes tokens into a single error node until a semicolon
// (consumed) or a token that can begin a declaration or close a block (left
// for the caller). No extra diagnostic is recorded; the caller already did.
func (p *parser) synchronize() {
	k, ok := p.current()
	if !ok || syncKinds[k] {
		return
	}
	p.b.StartNode(ErrorUnexpected)
	for {
		k, ok := p.current()
		if !ok || syncKinds[k] {
			break
		}
		p.bump()
		if k == Semicolon {
			break
		}
	}
	p.b.FinishNode()
}

// --- declarations and statements ---

func (p *parser) declaration() {
	p.skipTrivia()
	k, ok := p.current()
	if !ok {
		return
	}
	switch k {
	case Class:
		p.classDecl()
	case Fn:
		p.fnDecl()
	case Var:
		p.varDecl()
	default:
		p.statement()
	}
}

func (p *parser) statement() {
	p.skipTrivia()
	k, ok := p.current()
	if !ok {
		p.unexpectedEOF()
		return
	}
	switch k {
	case Print:
		p.printStmt()
	case Return:
		p.returnStmt()
	case If:
		p.ifStmt()
	case While:
		p.whileStmt()
	case For:
		p.forStmt()
	case LBrace:
		p.block()
	default:
		p.exprStmt()
	}
}

func (p *parser) classDecl() {
	p.b.StartNode(ClassDecl)
	p.bump() // class
	p.ident()
	p.skipTrivia()
	if k, ok := p.current(); ok && k == Less {
		p.bump()
		p.ident()
	}
	p.skipTrivia()
	k, ok := p.current()
	switch {
	case !ok:
		p.unexpectedEOF()
	case k == LBrace:
		p.bump()
		p.classBody()
	default:
		p.expected("'{'")
		p.synchronize()
	}
	p.b.FinishNode()
}

// classBody parses methods until the closing brace. Methods look like fn
// declarations without the fn keyword and share its node kind.
func (p *parser) classBody() {
	for {
		p.skipTrivia()
		k, ok := p.current()
		if !ok {
			p.unexpectedEOF()
			return
		}
		switch k {
		case RBrace:
			p.bump()
			return
		case Identifier:
			p.b.StartNode(FunDecl)
			p.funcRest()
			p.b.FinishNode()
		default:
			p.unexpected()
		}
	}
}

func (p *parser) fnDecl() {
	p.b.StartNode(FunDecl)
	p.bump() // fn
	p.funcRest()
	p.b.FinishNode()
}

// funcRest parses name, parameter list, and body, shared between fn
// declarations and class methods.
func (p *parser) funcRest() {
	p.ident()
	p.skipTrivia()
	if k, ok := p.current(); ok && k == LParen {
		p.bump()
		p.params()
	} else {
		p.expected("'('")
	}
	p.skipTrivia()
	if k, ok := p.current(); ok && k == LBrace {
		p.block()
	} else {
		p.expected("'{'")
	}
}

// params parses the parameter list after the opening paren.
func (p *parser) params() {
	for {
		p.skipTrivia()
		k, ok := p.current()
		if !ok {
			p.unexpectedEOF()
			return
		}
		switch k {
		case RParen:
			p.bump()
			return
		case Identifier:
			p.bump()
			p.skipTrivia()
			k2, ok2 := p.current()
			switch {
			case !ok2:
				p.unexpectedEOF()
				return
			case k2 == Comma:
				p.bump()
			case k2 == RParen:
				p.bump()
				return
			default:
				p.expected("')'")
				return
			}
		default:
			p.unexpected()
		}
	}
}

func (p *parser) varDecl() {
	p.b.StartNode(VarDecl)
	p.bump() // var
	p.ident()
	p.skipTrivia()
	if k, ok := p.current(); ok && k == Equal {
		p.bump()
		p.expression()
	}
	p.semicolon()
	p.b.FinishNode()
}

func (p *parser) exprStmt() {
	p.b.StartNode(ExprStmt)
	p.expression()
	p.semicolon()
	p.b.FinishNode()
}

func (p *parser) printStmt() {
	p.b.StartNode(PrintStmt)
	p.bump() // print
	p.expression()
	p.semicolon()
	p.b.FinishNode()
}

func (p *parser) returnStmt() {
	p.b.StartNode(ReturnStmt)
	p.bump() // return
	p.skipTrivia()
	k, ok := p.current()
	switch {
	case !ok:
		p.expected("';'")
	case k == Semicolon:
		p.bump()
	default:
		p.expression()
		p.semicolon()
	}
	p.b.FinishNode()
}

func (p *parser) ifStmt() {
	p.b.StartNode(IfStmt)
	p.bump() // if
	p.condition()
	p.statement()
	p.skipTrivia()
	if k, ok := p.current(); ok && k == Else {
		p.bump()
		p.statement()
	}
	p.b.FinishNode()
}

func (p *parser) whileStmt() {
	p.b.StartNode(WhileStmt)
	p.bump() // while
	p.condition()
	p.statement()
	p.b.FinishNode()
}

// condition parses a parenthesized controlling expression.
func (p *parser) condition() {
	p.expect(LParen, "'('")
	p.expression()
	k, ok := p.current()
	switch {
	case !ok:
		p.unexpectedEOF()
	case k == RParen:
		p.bump()
	default:
		p.expected("')'")
	}
}

func (p *parser) forStmt() {
	p.b.StartNode(ForStmt)
	p.bump() // for
	p.expect(LParen, "'('")

	// Initializer clause.
	p.skipTrivia()
	k, ok := p.current()
	switch {
	case !ok:
		p.unexpectedEOF()
	case k == Semicolon:
		p.bump()
	case k == Var:
		p.varDecl()
	default:
		p.exprStmt()
	}

	// Condition clause.
	p.skipTrivia()
	if k, ok := p.current(); !ok {
		p.unexpectedEOF()
	} else if k == Semicolon {
		p.bump()
	} else {
		p.expression()
		p.expect(Semicolon, "';'")
	}

	// Increment clause.
	p.skipTrivia()
	if k, ok := p.current(); !ok {
		p.unexpectedEOF()
	} else if k == RParen {
		p.bump()
	} else {
		p.expression()
		k2, ok2 := p.current()
		switch {
		case !ok2:
			p.unexpectedEOF()
		case k2 == RParen:
			p.bump()
		default:
			p.expected("')'")
		}
	}

	p.statement()
	p.b.FinishNode()
}

func (p *parser) block() {
	p.b.StartNode(Block)
	p.bump() // {
	for {
		p.skipTrivia()
		k, ok := p.current()
		if !ok {
			p.unexpectedEOF()
			break
		}
		if k == RBrace {
			p.bump()
			break
		}
		p.declaration()
	}
	p.b.FinishNode()
}

// --- expressions ---
//
// The four classic binary levels (equality, comparison, term, factor) wrap
// their node unconditionally, so even a bare literal sits inside the full
// nesting. The levels above and below them (assignment, or, and, unary, call)
// only produce a node when their operator is actually present, using builder
// checkpoints.

func (p *parser) expression() { p.assignment() }

func (p *parser) assignment() {
	p.skipTrivia()
	cp := p.b.Checkpoint()
	p.orExpr()
	p.skipTrivia()
	if k, ok := p.current(); ok && k == Equal {
		p.b.StartNodeAt(cp, AssignExpr)
		p.bump()
		p.assignment()
		p.b.FinishNode()
	}
}

func (p *parser) orExpr() {
	p.skipTrivia()
	cp := p.b.Checkpoint()
	p.andExpr()
	started := false
	for {
		p.skipTrivia()
		k, ok := p.current()
		if !ok || k != Or {
			break
		}
		if !started {
			p.b.StartNodeAt(cp, OrExpr)
			started = true
		}
		p.bump()
		p.andExpr()
	}
	if started {
		p.b.FinishNode()
	}
}

func (p *parser) andExpr() {
	p.skipTrivia()
	cp := p.b.Checkpoint()
	p.equality()
	started := false
	for {
		p.skipTrivia()
		k, ok := p.current()
		if !ok || k != And {
			break
		}
		if !started {
			p.b.StartNodeAt(cp, AndExpr)
			started = true
		}
		p.bump()
		p.equality()
	}
	if started {
		p.b.FinishNode()
	}
}

func (p *parser) equality() {
	p.b.StartNode(EqualityExpr)
	p.comparison()
	for {
		p.skipTrivia()
		k, ok := p.current()
		if !ok || (k != BangEqual && k != EqualEqual) {
			break
		}
		p.bump()
		p.comparison()
	}
	p.b.FinishNode()
}

func (p *parser) comparison() {
	p.b.StartNode(ComparisonExpr)
	p.term()
	for {
		p.skipTrivia()
		k, ok := p.current()
		if !ok || (k != Greater && k != GreaterEqual && k != Less && k != LessEqual) {
			break
		}
		p.bump()
		p.term()
	}
	p.b.FinishNode()
}

func (p *parser) term() {
	p.b.StartNode(TermExpr)
	p.factor()
	for {
		p.skipTrivia()
		k, ok := p.current()
		if !ok || (k != Minus && k != Plus) {
			break
		}
		p.bump()
		p.factor()
	}
	p.b.FinishNode()
}

func (p *parser) factor() {
	p.b.StartNode(FactorExpr)
	p.unary()
	for {
		p.skipTrivia()
		k, ok := p.current()
		if !ok || (k != Slash && k != Star) {
			break
		}
		p.bump()
		p.unary()
	}
	p.b.FinishNode()
}

func (p *parser) unary() {
	p.skipTrivia()
	if k, ok := p.current(); ok && (k == Bang || k == Minus) {
		p.b.StartNode(UnaryExpr)
		p.bump()
		p.unary()
		p.b.FinishNode()
		return
	}
	p.call()
}

// call parses a primary followed by any number of call or property suffixes.
// Each suffix wraps the expression so far in a new CallExpr, so chains nest
// left to right.
func (p *parser) call() {
	p.skipTrivia()
	cp := p.b.Checkpoint()
	p.primary()
	for {
		p.skipTrivia()
		k, ok := p.current()
		if !ok {
			return
		}
		switch k {
		case LParen:
			p.b.StartNodeAt(cp, CallExpr)
			p.bump()
			p.arguments()
			p.b.FinishNode()
		case Dot:
			p.b.StartNodeAt(cp, CallExpr)
			p.bump()
			p.skipTrivia()
			if k2, ok2 := p.current(); ok2 && k2 == Identifier {
				p.bump()
			} else {
				p.expected("identifier")
			}
			p.b.FinishNode()
		default:
			return
		}
	}
}

// arguments parses the argument list after the opening paren.
func (p *parser) arguments() {
	for {
		p.skipTrivia()
		k, ok := p.current()
		if !ok {
			p.unexpectedEOF()
			return
		}
		if k == RParen {
			p.bump()
			return
		}
		p.expression()
		k, ok = p.current()
		switch {
		case !ok:
			p.unexpectedEOF()
			return
		case k == Comma:
			p.bump()
		case k == RParen:
			p.bump()
			return
		default:
			p.expected("')'")
			return
		}
	}
}

func (p *parser) primary() {
	p.skipTrivia()
	k, ok := p.current()
	if !ok {
		p.unexpectedEOF()
		return
	}
	switch k {
	case False, True, Nil, Number, StringLit, Identifier, This:
		p.bump()
	case LParen:
		p.bump()
		p.expression()
		k2, ok2 := p.current()
		switch {
		case !ok2:
			p.unexpectedEOF()
		case k2 == RParen:
			p.bump()
		default:
			p.unexpected()
		}
	case Super:
		p.bump()
		p.expect(Dot, "'.'")
		p.skipTrivia()
		if k2, ok2 := p.current(); ok2 && k2 == Identifier {
			p.bump()
		} else {
			p.expected("identifier")
		}
	default:
		p.unexpected()
	}
}
