package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Parser: Recursive descent parser for Javdin
// ---------------------------------------------------------------------------

// Parser parses Javdin source code into an AST. It pulls tokens from the
// lexer one at a time and stops at the first error.
type Parser struct {
	lexer     *Lexer
	curToken  Token
	peekToken Token
	prevEnd   Position // end of the last consumed token
	err       error
}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	p := &Parser{
		lexer: NewLexer(input),
	}
	p.peekToken = p.lexer.NextToken()
	p.nextToken()
	return p
}

// Parse parses a complete program.
func Parse(input string) (*Program, error) {
	return NewParser(input).ParseProgram()
}

// nextToken advances to the next token. A lexer error becomes the parse
// result and the stream is treated as ended.
func (p *Parser) nextToken() {
	p.prevEnd = p.curToken.End
	p.curToken = p.peekToken

	if p.curToken.Type == TokenError {
		if p.err == nil {
			p.err = &LexError{
				Msg:        p.curToken.Literal,
				Pos:        p.curToken.Pos,
				Incomplete: p.curToken.Literal == msgUnterminatedComment || p.curToken.Literal == msgUnterminatedString,
			}
		}
		p.curToken.Type = TokenEOF
	}
	if p.curToken.Type == TokenEOF {
		p.peekToken = p.curToken
		return
	}
	p.peekToken = p.lexer.NextToken()
}

// curTokenIs checks if the current token is of the given type.
func (p *Parser) curTokenIs(t TokenType) bool {
	return p.curToken.Type == t
}

// peekTokenIs checks if the peek token is of the given type.
func (p *Parser) peekTokenIs(t TokenType) bool {
	return p.peekToken.Type == t
}

// expect advances if the current token matches, otherwise records an error.
func (p *Parser) expect(t TokenType) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	p.errorf("expected '%s', got %s", t, p.curToken.describe())
	return false
}

// errorf records a parse error at the current token. Only the first error
// is kept.
func (p *Parser) errorf(format string, args ...interface{}) {
	p.errorAt(p.curToken.Pos, format, args...)
}

func (p *Parser) errorAt(pos Position, format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	p.err = &ParseError{
		Msg:        fmt.Sprintf(format, args...),
		Pos:        pos,
		Incomplete: p.curTokenIs(TokenEOF),
	}
}

func (p *Parser) failed() bool {
	return p.err != nil
}

func (p *Parser) span(start Position) Span {
	return MakeSpan(start, p.prevEnd)
}

func (p *Parser) isSeparator() bool {
	return p.curTokenIs(TokenNewline) || p.curTokenIs(TokenSemicolon)
}

func (p *Parser) skipSeparators() {
	for p.isSeparator() {
		p.nextToken()
	}
}

func (p *Parser) skipNewlines() {
	for p.curTokenIs(TokenNewline) {
		p.nextToken()
	}
}

// ---------------------------------------------------------------------------
// Top-level parsing
// ---------------------------------------------------------------------------

// ParseProgram parses the whole input. The returned error is a *LexError
// or a *ParseError.
func (p *Parser) ParseProgram() (*Program, error) {
	start := p.curToken.Pos
	stmts := p.parseStatements()
	if p.failed() {
		return nil, p.err
	}
	if !p.curTokenIs(TokenEOF) {
		p.errorf("unexpected %s", p.curToken.describe())
		return nil, p.err
	}
	return &Program{
		SpanVal:    MakeSpan(start, p.curToken.Pos),
		Statements: stmts,
	}, nil
}

// parseStatements parses a separator-delimited statement list up to EOF or
// one of the terminators, which is left unconsumed.
func (p *Parser) parseStatements(terminators ...TokenType) []Stmt {
	var stmts []Stmt
	for !p.failed() {
		p.skipSeparators()
		if p.curTokenIs(TokenEOF) || p.atTerminator(terminators) {
			break
		}

		stmt := p.parseStatement()
		if p.failed() {
			return nil
		}
		stmts = append(stmts, stmt)

		if !p.isSeparator() && !p.curTokenIs(TokenEOF) && !p.atTerminator(terminators) {
			p.errorf("expected end of statement, got %s", p.curToken.describe())
			return nil
		}
	}
	return stmts
}

func (p *Parser) atTerminator(terminators []TokenType) bool {
	for _, t := range terminators {
		if p.curTokenIs(t) {
			return true
		}
	}
	return false
}

// parseBody parses a statement list into a Block, leaving the terminator.
func (p *Parser) parseBody(terminators ...TokenType) *Block {
	start := p.curToken.Pos
	stmts := p.parseStatements(terminators...)
	if p.failed() {
		return nil
	}
	return &Block{SpanVal: p.span(start), Statements: stmts}
}

// ---------------------------------------------------------------------------
// Statement parsing
// ---------------------------------------------------------------------------

func (p *Parser) parseStatement() Stmt {
	switch p.curToken.Type {
	case TokenVar:
		return p.parseDeclaration()
	case TokenPrint:
		return p.parsePrint()
	case TokenIf:
		return p.parseIf()
	case TokenWhile:
		return p.parseWhile()
	case TokenFor:
		return p.parseFor()
	case TokenLoop:
		return p.parseLoop()
	case TokenReturn:
		return p.parseReturn()
	case TokenExit, TokenBreak:
		pos := p.curToken.Pos
		p.nextToken()
		return &Break{SpanVal: p.span(pos)}
	case TokenContinue:
		pos := p.curToken.Pos
		p.nextToken()
		return &Continue{SpanVal: p.span(pos)}
	}
	return p.parseAssignmentOrExpression()
}

// parseDeclaration parses var a := 1, b, c := 3.
func (p *Parser) parseDeclaration() Stmt {
	pos := p.curToken.Pos
	p.nextToken() // consume var

	var vars []VarDef
	for {
		namePos := p.curToken.Pos
		name, ok := p.expectIdent()
		if !ok {
			return nil
		}
		def := VarDef{Name: name}
		if p.curTokenIs(TokenAssign) {
			p.nextToken()
			def.Init = p.parseExpression()
			if p.failed() {
				return nil
			}
		}
		def.SpanVal = p.span(namePos)
		vars = append(vars, def)

		if !p.curTokenIs(TokenComma) {
			break
		}
		p.nextToken()
	}

	return &Declaration{SpanVal: p.span(pos), Vars: vars}
}

// expectIdent consumes an identifier and returns its name.
func (p *Parser) expectIdent() (string, bool) {
	if p.curTokenIs(TokenIdentifier) {
		name := p.curToken.Literal
		p.nextToken()
		return name, true
	}
	if _, reserved := reservedWords[p.curToken.Literal]; reserved && p.curToken.Type != TokenString {
		p.errorf("Reserved word '%s' cannot be used as an identifier", p.curToken.Literal)
		return "", false
	}
	p.errorf("expected identifier, got %s", p.curToken.describe())
	return "", false
}

func (p *Parser) parsePrint() Stmt {
	pos := p.curToken.Pos
	p.nextToken() // consume print

	exprs := p.parseExpressionList()
	if p.failed() {
		return nil
	}
	return &Print{SpanVal: p.span(pos), Exprs: exprs}
}

// parseExpressionList parses one or more comma-separated expressions.
func (p *Parser) parseExpressionList() []Expr {
	var exprs []Expr
	for {
		e := p.parseExpression()
		if p.failed() {
			return nil
		}
		exprs = append(exprs, e)
		if !p.curTokenIs(TokenComma) {
			return exprs
		}
		p.nextToken()
	}
}

// parseIf parses if C then S1 [else S2] end and the short form if C => S.
func (p *Parser) parseIf() Stmt {
	pos := p.curToken.Pos
	p.nextToken() // consume if

	cond := p.parseExpression()
	if p.failed() {
		return nil
	}

	switch {
	case p.curTokenIs(TokenThen):
		p.nextToken()
		then := p.parseBody(TokenElse, TokenEnd)
		if p.failed() {
			return nil
		}
		var els *Block
		if p.curTokenIs(TokenElse) {
			p.nextToken()
			els = p.parseBody(TokenEnd)
			if p.failed() {
				return nil
			}
		}
		if !p.expect(TokenEnd) {
			return nil
		}
		return &If{SpanVal: p.span(pos), Cond: cond, Then: then, Else: els}

	case p.curTokenIs(TokenFatArrow):
		p.nextToken()
		bodyPos := p.curToken.Pos
		stmt := p.parseStatement()
		if p.failed() {
			return nil
		}
		then := &Block{SpanVal: p.span(bodyPos), Statements: []Stmt{stmt}}
		return &If{SpanVal: p.span(pos), Cond: cond, Then: then}
	}

	p.errorf("expected 'then' or '=>' after if condition, got %s", p.curToken.describe())
	return nil
}

func (p *Parser) parseWhile() Stmt {
	pos := p.curToken.Pos
	p.nextToken() // consume while

	cond := p.parseExpression()
	if p.failed() {
		return nil
	}
	body := p.parseLoopBody()
	if p.failed() {
		return nil
	}
	return &While{SpanVal: p.span(pos), Cond: cond, Body: body}
}

// parseLoopBody parses loop ... end.
func (p *Parser) parseLoopBody() *Block {
	if !p.expect(TokenLoop) {
		return nil
	}
	body := p.parseBody(TokenEnd)
	if p.failed() || !p.expect(TokenEnd) {
		return nil
	}
	return body
}

// parseLoop parses the bare infinite loop.
func (p *Parser) parseLoop() Stmt {
	pos := p.curToken.Pos
	body := p.parseLoopBody()
	if p.failed() {
		return nil
	}
	return &For{SpanVal: p.span(pos), Kind: ForInfinite, Body: body}
}

// parseFor parses for [V in] START..END loop ... end and
// for [V in] ITERABLE loop ... end.
func (p *Parser) parseFor() Stmt {
	pos := p.curToken.Pos
	p.nextToken() // consume for

	loop := &For{Kind: ForIterable}
	if p.peekTokenIs(TokenIn) {
		name, ok := p.expectIdent()
		if !ok {
			return nil
		}
		loop.Var = name
		p.nextToken() // consume in
	}

	loop.Start = p.parseExpression()
	if p.failed() {
		return nil
	}
	if p.curTokenIs(TokenRange) {
		p.nextToken()
		loop.Kind = ForRange
		loop.End = p.parseExpression()
		if p.failed() {
			return nil
		}
	}

	loop.Body = p.parseLoopBody()
	if p.failed() {
		return nil
	}
	loop.SpanVal = p.span(pos)
	return loop
}

func (p *Parser) parseReturn() Stmt {
	pos := p.curToken.Pos
	p.nextToken() // consume return

	if p.isSeparator() || p.curTokenIs(TokenEOF) || p.curTokenIs(TokenEnd) || p.curTokenIs(TokenElse) {
		return &Return{SpanVal: p.span(pos)}
	}
	value := p.parseExpression()
	if p.failed() {
		return nil
	}
	return &Return{SpanVal: p.span(pos), Value: value}
}

// parseAssignmentOrExpression parses an expression and turns it into an
// assignment when := follows.
func (p *Parser) parseAssignmentOrExpression() Stmt {
	pos := p.curToken.Pos
	expr := p.parseExpression()
	if p.failed() {
		return nil
	}

	if !p.curTokenIs(TokenAssign) {
		return &ExprStmt{SpanVal: p.span(pos), Expr: expr}
	}

	switch expr.(type) {
	case *Reference, *Index, *MemberAccess:
	default:
		p.errorAt(pos, "invalid assignment target")
		return nil
	}
	p.nextToken() // consume :=

	value := p.parseExpression()
	if p.failed() {
		return nil
	}
	return &Assignment{SpanVal: p.span(pos), Target: expr, Value: value}
}

// ---------------------------------------------------------------------------
// Expression parsing
// ---------------------------------------------------------------------------

// ParseExpression parses a single expression; used by tools that evaluate
// snippets.
func (p *Parser) ParseExpression() (Expr, error) {
	e := p.parseExpression()
	if p.failed() {
		return nil, p.err
	}
	return e, nil
}

// parseExpression parses the lowest precedence level. and, or and xor
// share one level and associate to the left.
func (p *Parser) parseExpression() Expr {
	left := p.parseComparison()
	for !p.failed() && (p.curTokenIs(TokenAnd) || p.curTokenIs(TokenOr) || p.curTokenIs(TokenXor)) {
		op := p.curToken.Literal
		p.nextToken()
		right := p.parseComparison()
		if p.failed() {
			return nil
		}
		left = &BinaryOp{SpanVal: p.span(Pos(left)), Left: left, Op: op, Right: right}
	}
	if p.failed() {
		return nil
	}
	return left
}

var comparisonOps = map[TokenType]bool{
	TokenLess:         true,
	TokenLessEqual:    true,
	TokenGreater:      true,
	TokenGreaterEqual: true,
	TokenEqual:        true,
	TokenEqualEqual:   true,
	TokenSlashEqual:   true,
	TokenNotEqual:     true,
}

func (p *Parser) parseComparison() Expr {
	left := p.parseAdditive()
	for !p.failed() && comparisonOps[p.curToken.Type] {
		op := p.curToken.Literal
		p.nextToken()
		right := p.parseAdditive()
		if p.failed() {
			return nil
		}
		left = &BinaryOp{SpanVal: p.span(Pos(left)), Left: left, Op: op, Right: right}
	}
	if p.failed() {
		return nil
	}
	return left
}

func (p *Parser) parseAdditive() Expr {
	left := p.parseMultiplicative()
	for !p.failed() && (p.curTokenIs(TokenPlus) || p.curTokenIs(TokenMinus)) {
		op := p.curToken.Literal
		p.nextToken()
		right := p.parseMultiplicative()
		if p.failed() {
			return nil
		}
		left = &BinaryOp{SpanVal: p.span(Pos(left)), Left: left, Op: op, Right: right}
	}
	if p.failed() {
		return nil
	}
	return left
}

func (p *Parser) parseMultiplicative() Expr {
	left := p.parseUnary()
	for !p.failed() && (p.curTokenIs(TokenStar) || p.curTokenIs(TokenSlash)) {
		op := p.curToken.Literal
		p.nextToken()
		right := p.parseUnary()
		if p.failed() {
			return nil
		}
		left = &BinaryOp{SpanVal: p.span(Pos(left)), Left: left, Op: op, Right: right}
	}
	if p.failed() {
		return nil
	}
	return left
}

func (p *Parser) parseUnary() Expr {
	if p.curTokenIs(TokenPlus) || p.curTokenIs(TokenMinus) || p.curTokenIs(TokenNot) {
		pos := p.curToken.Pos
		op := p.curToken.Literal
		p.nextToken()
		operand := p.parseUnary()
		if p.failed() {
			return nil
		}
		return &UnaryOp{SpanVal: p.span(pos), Op: op, Operand: operand}
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary followed by any chain of calls, indexing,
// member accesses and type checks.
func (p *Parser) parsePostfix() Expr {
	expr := p.parsePrimary()
	for !p.failed() {
		start := Pos(expr)
		switch p.curToken.Type {
		case TokenLParen:
			p.nextToken()
			args := p.parseDelimitedExprs(TokenRParen)
			if p.failed() {
				return nil
			}
			expr = &Call{SpanVal: p.span(start), Callee: expr, Args: args}

		case TokenLBracket:
			p.nextToken()
			p.skipNewlines()
			idx := p.parseExpression()
			if p.failed() {
				return nil
			}
			p.skipNewlines()
			if !p.expect(TokenRBracket) {
				return nil
			}
			expr = &Index{SpanVal: p.span(start), Array: expr, Index: idx}

		case TokenDot:
			p.nextToken()
			expr = p.parseMember(expr)

		case TokenIs:
			p.nextToken()
			typ := p.parseTypeIndicator()
			if p.failed() {
				return nil
			}
			expr = &TypeCheck{SpanVal: p.span(start), Expr: expr, Type: typ}

		default:
			return expr
		}
	}
	return nil
}

// parseMember parses the part after '.': a name or a 1-based index. A real
// literal such as 1.2 is split into two successive index accesses.
func (p *Parser) parseMember(tuple Expr) Expr {
	start := Pos(tuple)
	switch p.curToken.Type {
	case TokenIdentifier:
		name := p.curToken.Literal
		p.nextToken()
		return &MemberAccess{SpanVal: p.span(start), Tuple: tuple, Name: name}

	case TokenInteger:
		idx, err := strconv.Atoi(p.curToken.Literal)
		if err != nil {
			p.errorf("invalid member index %s", p.curToken.Literal)
			return nil
		}
		p.nextToken()
		return &MemberAccess{SpanVal: p.span(start), Tuple: tuple, Index: idx, Numeric: true}

	case TokenReal:
		parts := strings.SplitN(p.curToken.Literal, ".", 2)
		first, err1 := strconv.Atoi(parts[0])
		second, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			p.errorf("invalid member index %s", p.curToken.Literal)
			return nil
		}
		p.nextToken()
		inner := &MemberAccess{SpanVal: p.span(start), Tuple: tuple, Index: first, Numeric: true}
		return &MemberAccess{SpanVal: p.span(start), Tuple: inner, Index: second, Numeric: true}
	}

	p.errorf("expected member name or index after '.', got %s", p.curToken.describe())
	return nil
}

var typeIndicatorTokens = map[TokenType]TypeIndicator{
	TokenIntType:    TypeInt,
	TokenRealType:   TypeReal,
	TokenBoolType:   TypeBool,
	TokenStringType: TypeString,
	TokenNone:       TypeNone,
	TokenArrayType:  TypeArray,
	TokenTupleType:  TypeTuple,
	TokenFunc:       TypeFunc,
}

// parseTypeIndicator parses the operand of is: a type keyword, [] or {}.
func (p *Parser) parseTypeIndicator() TypeIndicator {
	if typ, ok := typeIndicatorTokens[p.curToken.Type]; ok {
		p.nextToken()
		return typ
	}
	switch p.curToken.Type {
	case TokenLBracket:
		p.nextToken()
		if !p.expect(TokenRBracket) {
			return TypeUnknown
		}
		return TypeArray
	case TokenLBrace:
		p.nextToken()
		if !p.expect(TokenRBrace) {
			return TypeUnknown
		}
		return TypeTuple
	}
	p.errorf("expected type indicator after 'is', got %s", p.curToken.describe())
	return TypeUnknown
}

// parseDelimitedExprs parses a comma-separated, possibly empty expression
// list and the closing token. Newlines inside the list are ignored.
func (p *Parser) parseDelimitedExprs(closer TokenType) []Expr {
	var exprs []Expr
	p.skipNewlines()
	if p.curTokenIs(closer) {
		p.nextToken()
		return exprs
	}
	for {
		p.skipNewlines()
		e := p.parseExpression()
		if p.failed() {
			return nil
		}
		exprs = append(exprs, e)
		p.skipNewlines()
		if !p.curTokenIs(TokenComma) {
			break
		}
		p.nextToken()
	}
	if !p.expect(closer) {
		return nil
	}
	return exprs
}

func (p *Parser) parsePrimary() Expr {
	pos := p.curToken.Pos
	switch p.curToken.Type {
	case TokenInteger:
		value, err := strconv.ParseInt(p.curToken.Literal, 10, 64)
		if err != nil {
			p.errorf("integer literal out of range: %s", p.curToken.Literal)
			return nil
		}
		p.nextToken()
		return &Literal{SpanVal: p.span(pos), Kind: LitInteger, Int: value}

	case TokenReal:
		value, err := strconv.ParseFloat(p.curToken.Literal, 64)
		if err != nil {
			p.errorf("invalid real literal: %s", p.curToken.Literal)
			return nil
		}
		p.nextToken()
		return &Literal{SpanVal: p.span(pos), Kind: LitReal, Real: value}

	case TokenString:
		value := p.curToken.Literal
		p.nextToken()
		return &Literal{SpanVal: p.span(pos), Kind: LitString, Str: value}

	case TokenTrue, TokenFalse:
		value := p.curTokenIs(TokenTrue)
		p.nextToken()
		return &Literal{SpanVal: p.span(pos), Kind: LitBoolean, Bool: value}

	case TokenNone:
		p.nextToken()
		return &Literal{SpanVal: p.span(pos), Kind: LitNone}

	case TokenIdentifier:
		name := p.curToken.Literal
		p.nextToken()
		return &Reference{SpanVal: p.span(pos), Name: name}

	case TokenLParen:
		p.nextToken()
		p.skipNewlines()
		e := p.parseExpression()
		if p.failed() {
			return nil
		}
		p.skipNewlines()
		if !p.expect(TokenRParen) {
			return nil
		}
		return e

	case TokenLBracket:
		p.nextToken()
		elems := p.parseDelimitedExprs(TokenRBracket)
		if p.failed() {
			return nil
		}
		return &ArrayLiteral{SpanVal: p.span(pos), Elements: elems}

	case TokenLBrace:
		return p.parseTupleLiteral()

	case TokenFunc:
		return p.parseFuncLiteral()
	}

	if isTypeIndicatorKeyword(p.curToken.Type) {
		p.errorf("Reserved word '%s' cannot be used as an identifier", p.curToken.Literal)
		return nil
	}
	p.errorf("unexpected %s", p.curToken.describe())
	return nil
}

// parseTupleLiteral parses {a := 1, 2, c := 3}.
func (p *Parser) parseTupleLiteral() Expr {
	pos := p.curToken.Pos
	p.nextToken() // consume {

	var elems []TupleElement
	p.skipNewlines()
	if p.curTokenIs(TokenRBrace) {
		p.nextToken()
		return &TupleLiteral{SpanVal: p.span(pos)}
	}
	for {
		p.skipNewlines()
		var el TupleElement
		if p.curTokenIs(TokenIdentifier) && p.peekTokenIs(TokenAssign) {
			el.Name = p.curToken.Literal
			p.nextToken()
			p.nextToken()
		}
		el.Value = p.parseExpression()
		if p.failed() {
			return nil
		}
		elems = append(elems, el)
		p.skipNewlines()
		if !p.curTokenIs(TokenComma) {
			break
		}
		p.nextToken()
	}
	if !p.expect(TokenRBrace) {
		return nil
	}
	return &TupleLiteral{SpanVal: p.span(pos), Elements: elems}
}

// parseFuncLiteral parses func(params) is ... end, func(params) => expr
// and func(params) -> expr. The parameter list may be omitted entirely.
func (p *Parser) parseFuncLiteral() Expr {
	pos := p.curToken.Pos
	p.nextToken() // consume func

	var params []string
	if p.curTokenIs(TokenLParen) {
		p.nextToken()
		if !p.curTokenIs(TokenRParen) {
			for {
				name, ok := p.expectIdent()
				if !ok {
					return nil
				}
				params = append(params, name)
				if !p.curTokenIs(TokenComma) {
					break
				}
				p.nextToken()
			}
		}
		if !p.expect(TokenRParen) {
			return nil
		}
	}

	switch p.curToken.Type {
	case TokenIs:
		p.nextToken()
		body := p.parseStatements(TokenEnd)
		if p.failed() || !p.expect(TokenEnd) {
			return nil
		}
		return &FuncLiteral{SpanVal: p.span(pos), Params: params, Body: body}

	case TokenFatArrow, TokenArrow:
		p.nextToken()
		e := p.parseExpression()
		if p.failed() {
			return nil
		}
		return &FuncLiteral{SpanVal: p.span(pos), Params: params, ExprBody: e, IsExprBody: true}
	}

	p.errorf("expected 'is', '=>' or '->' after function parameters, got %s", p.curToken.describe())
	return nil
}
