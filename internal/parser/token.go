package parser

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrSyntax is returned for source text that does not follow the grammar.
var ErrSyntax = errors.New("syntax error")

// TokenType defines the type of a token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNewline
	TokenIndent
	TokenDedent
	TokenName
	TokenInt
	TokenDice
	TokenOp // operators and punctuation: = += -= *= + - * / % < <= > >= == != ( ) :
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenNewline:
		return "Newline"
	case TokenIndent:
		return "Indent"
	case TokenDedent:
		return "Dedent"
	case TokenName:
		return "Name"
	case TokenInt:
		return "Int"
	case TokenDice:
		return "Dice"
	case TokenOp:
		return "Op"
	default:
		return "Unknown"
	}
}

// Token represents a lexical token
type Token struct {
	Type  TokenType
	Value string
	Line  int
	Col   int
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "end of input"
	case TokenNewline:
		return "newline"
	case TokenIndent:
		return "indent"
	case TokenDedent:
		return "dedent"
	default:
		return strconv.Quote(t.Value)
	}
}

var keywords = map[string]bool{
	"if":    true,
	"elif":  true,
	"else":  true,
	"for":   true,
	"in":    true,
	"range": true,
	"pass":  true,
}

// Error is a syntax error at a 1-based position of the source text. It
// matches ErrSyntax with errors.Is.
type Error struct {
	Line int
	Col  int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: line %d col %d: %s", ErrSyntax, e.Line, e.Col, e.Msg)
}

func (e *Error) Unwrap() error {
	return ErrSyntax
}

func syntaxError(line, col int, format string, args ...any) error {
	return &Error{Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}
