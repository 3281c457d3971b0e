package compiler

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Lexer: Tokenizer for Javdin source
// ---------------------------------------------------------------------------

const (
	msgUnterminatedString  = "Unterminated string literal"
	msgUnterminatedComment = "Unterminated multi-line comment"
)

// Lexer tokenizes Javdin source code. Newlines are significant and are
// returned as TokenNewline; other whitespace and comments are skipped.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      rune // current character
	line    int  // line of ch (1-based)
	col     int  // column of ch (1-based)
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

// readChar advances to the next character, keeping line and column in step
// with the character now under the cursor.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
		l.pos = len(l.input)
		l.readPos = len(l.input) + 1
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += size
}

// peekChar returns the next character without consuming it.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

// position returns the current position.
func (l *Lexer) position() Position {
	return Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.col,
	}
}

// NextToken returns the next token. Lexical errors are reported as a
// TokenError whose literal holds the message.
func (l *Lexer) NextToken() Token {
	tok := l.scan()
	tok.End = l.position()
	return tok
}

func (l *Lexer) scan() Token {
	if errTok, ok := l.skipWhitespaceAndComments(); !ok {
		return errTok
	}

	pos := l.position()

	if l.atEOF() {
		return Token{Type: TokenEOF, Literal: "", Pos: pos}
	}

	switch {
	case l.ch == '\n':
		l.readChar()
		return Token{Type: TokenNewline, Literal: "\n", Pos: pos}

	case l.ch == ':':
		if l.peekChar() == '=' {
			return l.twoChar(TokenAssign, pos)
		}
		l.readChar()
		return Token{Type: TokenColon, Literal: ":", Pos: pos}

	case l.ch == '=':
		switch l.peekChar() {
		case '>':
			return l.twoChar(TokenFatArrow, pos)
		case '=':
			return l.twoChar(TokenEqualEqual, pos)
		}
		l.readChar()
		return Token{Type: TokenEqual, Literal: "=", Pos: pos}

	case l.ch == '/':
		if l.peekChar() == '=' {
			return l.twoChar(TokenSlashEqual, pos)
		}
		l.readChar()
		return Token{Type: TokenSlash, Literal: "/", Pos: pos}

	case l.ch == '!':
		if l.peekChar() == '=' {
			return l.twoChar(TokenNotEqual, pos)
		}

	case l.ch == '<':
		if l.peekChar() == '=' {
			return l.twoChar(TokenLessEqual, pos)
		}
		l.readChar()
		return Token{Type: TokenLess, Literal: "<", Pos: pos}

	case l.ch == '>':
		if l.peekChar() == '=' {
			return l.twoChar(TokenGreaterEqual, pos)
		}
		l.readChar()
		return Token{Type: TokenGreater, Literal: ">", Pos: pos}

	case l.ch == '-':
		if l.peekChar() == '>' {
			return l.twoChar(TokenArrow, pos)
		}
		l.readChar()
		return Token{Type: TokenMinus, Literal: "-", Pos: pos}

	case l.ch == '.':
		if l.peekChar() == '.' {
			return l.twoChar(TokenRange, pos)
		}
		l.readChar()
		return Token{Type: TokenDot, Literal: ".", Pos: pos}

	case l.ch == '"' || l.ch == '\'':
		return l.readString(pos)

	case isDigit(l.ch):
		return l.readNumber(pos)

	case isLetter(l.ch) || l.ch == '_':
		return l.readIdentifierOrKeyword(pos)
	}

	if typ, ok := singleCharTokens[l.ch]; ok {
		ch := l.ch
		l.readChar()
		return Token{Type: typ, Literal: string(ch), Pos: pos}
	}

	ch := l.ch
	l.readChar()
	return Token{Type: TokenError, Literal: fmt.Sprintf("Unexpected character: %c", ch), Pos: pos}
}

var singleCharTokens = map[rune]TokenType{
	'+': TokenPlus,
	'*': TokenStar,
	'(': TokenLParen,
	')': TokenRParen,
	'[': TokenLBracket,
	']': TokenRBracket,
	'{': TokenLBrace,
	'}': TokenRBrace,
	',': TokenComma,
	';': TokenSemicolon,
}

// twoChar consumes a two-character operator starting at the cursor.
func (l *Lexer) twoChar(typ TokenType, pos Position) Token {
	start := l.pos
	l.readChar()
	l.readChar()
	return Token{Type: typ, Literal: l.input[start:l.pos], Pos: pos}
}

// skipWhitespaceAndComments skips spaces, tabs, carriage returns and
// comments. It returns false with an error token when a block comment is
// left open.
func (l *Lexer) skipWhitespaceAndComments() (Token, bool) {
	for {
		for !l.atEOF() && (l.ch == ' ' || l.ch == '\t' || l.ch == '\r') {
			l.readChar()
		}

		if l.ch == '/' && l.peekChar() == '/' {
			for !l.atEOF() && l.ch != '\n' {
				l.readChar()
			}
			continue
		}

		// Block comments do not nest: the first */ closes.
		if l.ch == '/' && l.peekChar() == '*' {
			pos := l.position()
			l.readChar()
			l.readChar()
			closed := false
			for !l.atEOF() {
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar()
					l.readChar()
					closed = true
					break
				}
				l.readChar()
			}
			if !closed {
				return Token{Type: TokenError, Literal: msgUnterminatedComment, Pos: pos}, false
			}
			continue
		}

		return Token{}, true
	}
}

// readString reads a single- or double-quoted string literal, decoding
// escape sequences. Unknown escapes pass the escaped character through.
func (l *Lexer) readString(pos Position) Token {
	quote := l.ch
	l.readChar() // consume opening quote

	var sb strings.Builder
	for !l.atEOF() && l.ch != quote {
		if l.ch == '\\' {
			l.readChar()
			if l.atEOF() {
				break
			}
			switch l.ch {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 'r':
				sb.WriteRune('\r')
			default:
				sb.WriteRune(l.ch)
			}
			l.readChar()
			continue
		}
		sb.WriteRune(l.ch)
		l.readChar()
	}

	if l.atEOF() {
		return Token{Type: TokenError, Literal: msgUnterminatedString, Pos: pos}
	}
	l.readChar() // consume closing quote

	return Token{Type: TokenString, Literal: sb.String(), Pos: pos}
}

// readNumber reads an integer or real literal. A '.' is only consumed when
// a digit follows, so 1..5 lexes as a range.
func (l *Lexer) readNumber(pos Position) Token {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}

	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar() // consume .
		for isDigit(l.ch) {
			l.readChar()
		}
		return Token{Type: TokenReal, Literal: l.input[start:l.pos], Pos: pos}
	}
	return Token{Type: TokenInteger, Literal: l.input[start:l.pos], Pos: pos}
}

// readIdentifierOrKeyword reads an identifier or reserved word.
func (l *Lexer) readIdentifierOrKeyword(pos Position) Token {
	start := l.pos
	for !l.atEOF() && (isLetter(l.ch) || isDigit(l.ch) || l.ch == '_') {
		l.readChar()
	}

	literal := l.input[start:l.pos]
	if tokType, ok := reservedWords[literal]; ok {
		return Token{Type: tokType, Literal: literal, Pos: pos}
	}
	return Token{Type: TokenIdentifier, Literal: literal, Pos: pos}
}

// Helper functions

func isLetter(r rune) bool {
	return unicode.IsLetter(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Tokenize returns all tokens from the input, stopping after EOF or the
// first error token.
func Tokenize(input string) []Token {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			break
		}
	}
	return tokens
}
