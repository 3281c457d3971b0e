package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token types for the Javdin lexer
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError
	TokenNewline

	// Literals
	TokenInteger    // 42
	TokenReal       // 3.14
	TokenString     // "hello", 'hello'
	TokenIdentifier // foo, _bar

	// Keywords
	TokenVar
	TokenIf
	TokenThen
	TokenElse
	TokenEnd
	TokenWhile
	TokenFor
	TokenIn
	TokenLoop
	TokenExit
	TokenBreak
	TokenContinue
	TokenFunc
	TokenReturn
	TokenPrint
	TokenTrue
	TokenFalse
	TokenNone
	TokenAnd
	TokenOr
	TokenXor
	TokenNot
	TokenIs

	// Type indicators
	TokenIntType
	TokenRealType
	TokenBoolType
	TokenStringType
	TokenArrayType
	TokenTupleType

	// Operators
	TokenAssign       // :=
	TokenFatArrow     // =>
	TokenArrow        // ->
	TokenRange        // ..
	TokenPlus         // +
	TokenMinus        // -
	TokenStar         // *
	TokenSlash        // /
	TokenEqual        // =
	TokenEqualEqual   // ==
	TokenNotEqual     // !=
	TokenSlashEqual   // /=
	TokenLess         // <
	TokenLessEqual    // <=
	TokenGreater      // >
	TokenGreaterEqual // >=

	// Delimiters
	TokenLParen    // (
	TokenRParen    // )
	TokenLBracket  // [
	TokenRBracket  // ]
	TokenLBrace    // {
	TokenRBrace    // }
	TokenComma     // ,
	TokenSemicolon // ;
	TokenDot       // .
	TokenColon     // :
)

var tokenNames = map[TokenType]string{
	TokenEOF:          "EOF",
	TokenError:        "ERROR",
	TokenNewline:      "NEWLINE",
	TokenInteger:      "INTEGER",
	TokenReal:         "REAL",
	TokenString:       "STRING",
	TokenIdentifier:   "IDENTIFIER",
	TokenVar:          "var",
	TokenIf:           "if",
	TokenThen:         "then",
	TokenElse:         "else",
	TokenEnd:          "end",
	TokenWhile:        "while",
	TokenFor:          "for",
	TokenIn:           "in",
	TokenLoop:         "loop",
	TokenExit:         "exit",
	TokenBreak:        "break",
	TokenContinue:     "continue",
	TokenFunc:         "func",
	TokenReturn:       "return",
	TokenPrint:        "print",
	TokenTrue:         "true",
	TokenFalse:        "false",
	TokenNone:         "none",
	TokenAnd:          "and",
	TokenOr:           "or",
	TokenXor:          "xor",
	TokenNot:          "not",
	TokenIs:           "is",
	TokenIntType:      "int",
	TokenRealType:     "real",
	TokenBoolType:     "bool",
	TokenStringType:   "string",
	TokenArrayType:    "array",
	TokenTupleType:    "tuple",
	TokenAssign:       ":=",
	TokenFatArrow:     "=>",
	TokenArrow:        "->",
	TokenRange:        "..",
	TokenPlus:         "+",
	TokenMinus:        "-",
	TokenStar:         "*",
	TokenSlash:        "/",
	TokenEqual:        "=",
	TokenEqualEqual:   "==",
	TokenNotEqual:     "!=",
	TokenSlashEqual:   "/=",
	TokenLess:         "<",
	TokenLessEqual:    "<=",
	TokenGreater:      ">",
	TokenGreaterEqual: ">=",
	TokenLParen:       "(",
	TokenRParen:       ")",
	TokenLBracket:     "[",
	TokenRBracket:     "]",
	TokenLBrace:       "{",
	TokenRBrace:       "}",
	TokenComma:        ",",
	TokenSemicolon:    ";",
	TokenDot:          ".",
	TokenColon:        ":",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", t)
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string   // raw text; decoded contents for strings
	Pos     Position // start position
	End     Position // position just past the token
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "EOF"
	case TokenNewline:
		return "NEWLINE"
	case TokenError:
		return fmt.Sprintf("ERROR(%s)", t.Literal)
	}
	if len(t.Literal) > 20 {
		return fmt.Sprintf("%s(%q...)", t.Type, t.Literal[:20])
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
}

// describe renders a token for use in parse error messages.
func (t Token) describe() string {
	switch t.Type {
	case TokenEOF:
		return "end of input"
	case TokenNewline:
		return "end of line"
	case TokenIdentifier:
		return fmt.Sprintf("identifier '%s'", t.Literal)
	case TokenInteger, TokenReal:
		return fmt.Sprintf("number %s", t.Literal)
	case TokenString:
		return fmt.Sprintf("string %q", t.Literal)
	}
	return fmt.Sprintf("'%s'", t.Type)
}

// Reserved words mapped to their token types.
var reservedWords = map[string]TokenType{
	"var":      TokenVar,
	"if":       TokenIf,
	"then":     TokenThen,
	"else":     TokenElse,
	"end":      TokenEnd,
	"while":    TokenWhile,
	"for":      TokenFor,
	"in":       TokenIn,
	"loop":     TokenLoop,
	"exit":     TokenExit,
	"break":    TokenBreak,
	"continue": TokenContinue,
	"func":     TokenFunc,
	"return":   TokenReturn,
	"print":    TokenPrint,
	"true":     TokenTrue,
	"false":    TokenFalse,
	"none":     TokenNone,
	"and":      TokenAnd,
	"or":       TokenOr,
	"xor":      TokenXor,
	"not":      TokenNot,
	"is":       TokenIs,
	"int":      TokenIntType,
	"real":     TokenRealType,
	"bool":     TokenBoolType,
	"string":   TokenStringType,
	"array":    TokenArrayType,
	"tuple":    TokenTupleType,
}

// Keywords returns every reserved word, for editor completion.
func Keywords() []string {
	words := make([]string, 0, len(reservedWords))
	for w := range reservedWords {
		words = append(words, w)
	}
	return words
}

// isTypeIndicatorKeyword reports whether t is a reserved type-indicator word.
func isTypeIndicatorKeyword(t TokenType) bool {
	switch t {
	case TokenIntType, TokenRealType, TokenBoolType, TokenStringType,
		TokenArrayType, TokenTupleType, TokenNone, TokenFunc:
		return true
	}
	return false
}
