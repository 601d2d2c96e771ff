// Package parser reads the text form of dice programs.
//
// The language is a small indentation-based subset of Python:
//
//	x = 1d6
//	if x < 3:
//	    x = d6
//	result = 0
//	for i in range(3):
//	    result += x + 1d4
//
// Lines starting with # are comments. Loop counts and comparison
// thresholds accept any expression here; the evaluator decides which of
// them it can interpret.
package parser

import (
	"strconv"
	"strings"

	"github.com/gnoswap-labs/probify/internal/program"
)

// Parser consumes tokens produced by Lex and builds a program.
type Parser struct {
	tokens  []Token
	current int
}

// NewParser creates a new Parser instance
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse lexes and parses src.
func Parse(src string) (program.Program, error) {
	tokens, err := Lex(src)
	if err != nil {
		return program.Program{}, err
	}
	return NewParser(tokens).Parse()
}

// Parse processes all tokens and builds the program.
func (p *Parser) Parse() (program.Program, error) {
	var stmts []program.Stmt
	for p.peek().Type != TokenEOF {
		if tok := p.peek(); tok.Type == TokenIndent {
			return program.Program{}, syntaxError(tok.Line, tok.Col, "unexpected indent")
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return program.Program{}, err
		}
		stmts = append(stmts, stmt)
	}
	return program.New(stmts...), nil
}

func (p *Parser) parseStmt() (program.Stmt, error) {
	tok := p.peek()
	if tok.Type != TokenName {
		return nil, p.unexpected(tok, "statement")
	}
	switch tok.Value {
	case "if":
		return p.parseIf()
	case "for":
		return p.parseFor()
	case "elif", "else":
		return nil, syntaxError(tok.Line, tok.Col, "%q without a matching if", tok.Value)
	}
	return p.parseSimple()
}

// parseSimple parses an assignment, an augmented assignment or pass,
// including the trailing newline.
func (p *Parser) parseSimple() (program.Stmt, error) {
	name := p.next()
	if name.Type != TokenName {
		return nil, p.unexpected(name, "statement")
	}

	var stmt program.Stmt
	if name.Value == "pass" {
		stmt = program.Pass{}
	} else {
		if keywords[name.Value] {
			return nil, syntaxError(name.Line, name.Col, "unexpected keyword %q", name.Value)
		}
		op := p.next()
		if op.Type != TokenOp {
			return nil, p.unexpected(op, "assignment")
		}
		var aug program.BinaryOp
		switch op.Value {
		case "=":
		case "+=":
			aug = program.OpAdd
		case "-=":
			aug = program.OpSub
		case "*=":
			aug = program.OpMul
		default:
			return nil, p.unexpected(op, "assignment")
		}
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if aug == 0 {
			stmt = program.Assign{Name: name.Value, Expr: expr}
		} else {
			stmt = program.AugAssign{Name: name.Value, Op: aug, Expr: expr}
		}
	}

	if tok := p.next(); tok.Type != TokenNewline {
		return nil, p.unexpected(tok, "end of line")
	}
	return stmt, nil
}

// parseIf parses if/elif/else; the current token is "if" or "elif".
func (p *Parser) parseIf() (program.Stmt, error) {
	p.next()
	cond, err := p.parseCond()
	if err != nil {
		return nil, err
	}
	if err := p.expectOp(":"); err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := program.If{Cond: cond, Then: then}

	next := p.peek()
	if next.Type != TokenName {
		return stmt, nil
	}
	switch next.Value {
	case "elif":
		stmt.Else, err = p.parseIf()
		if err != nil {
			return nil, err
		}
	case "else":
		p.next()
		if err := p.expectOp(":"); err != nil {
			return nil, err
		}
		stmt.Else, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

// parseFor parses: for NAME in range(expr): block
func (p *Parser) parseFor() (program.Stmt, error) {
	p.next()
	v := p.next()
	if v.Type != TokenName || keywords[v.Value] {
		return nil, p.unexpected(v, "loop variable")
	}
	if err := p.expectKeyword("in"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("range"); err != nil {
		return nil, err
	}
	if err := p.expectOp("("); err != nil {
		return nil, err
	}
	count, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	if err := p.expectOp(":"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return program.ForRange{Var: v.Value, Count: count, Body: body}, nil
}

// parseBlock parses either a simple statement on the same line or an
// indented block of statements.
func (p *Parser) parseBlock() (program.Stmt, error) {
	if p.peek().Type != TokenNewline {
		return p.parseSimple()
	}
	p.next()
	if tok := p.next(); tok.Type != TokenIndent {
		return nil, syntaxError(tok.Line, tok.Col, "expected an indented block")
	}

	var stmts []program.Stmt
	for p.peek().Type != TokenDedent {
		if tok := p.peek(); tok.Type == TokenEOF {
			return nil, p.unexpected(tok, "statement")
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	p.next()
	return program.Seq(stmts...), nil
}

var comparisons = map[string]program.BinaryOp{
	"<":  program.OpLt,
	"<=": program.OpLte,
	">":  program.OpGt,
	">=": program.OpGte,
	"==": program.OpEq,
	"!=": program.OpNeq,
}

func (p *Parser) parseCond() (program.Expr, error) {
	left, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	tok := p.next()
	op, ok := comparisons[tok.Value]
	if tok.Type != TokenOp || !ok {
		return nil, p.unexpected(tok, "comparison operator")
	}
	right, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return program.BinOp{Op: op, Left: left, Right: right}, nil
}

func (p *Parser) parseExpr() (program.Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		var op program.BinaryOp
		switch {
		case p.isOp("+"):
			op = program.OpAdd
		case p.isOp("-"):
			op = program.OpSub
		default:
			return left, nil
		}
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = program.BinOp{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseTerm() (program.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op program.BinaryOp
		switch {
		case p.isOp("*"):
			op = program.OpMul
		case p.isOp("/"):
			op = program.OpDiv
		case p.isOp("%"):
			op = program.OpMod
		default:
			return left, nil
		}
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = program.BinOp{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() (program.Expr, error) {
	if !p.isOp("-") {
		return p.parseAtom()
	}
	p.next()
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if lit, ok := operand.(program.Literal); ok {
		return program.Literal{Val: -lit.Val}, nil
	}
	return program.BinOp{Op: program.OpSub, Left: program.Literal{Val: 0}, Right: operand}, nil
}

func (p *Parser) parseAtom() (program.Expr, error) {
	tok := p.next()
	switch tok.Type {
	case TokenInt:
		v, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return nil, syntaxError(tok.Line, tok.Col, "integer %s out of range", tok.Value)
		}
		return program.Literal{Val: v}, nil

	case TokenDice:
		return parseDice(tok)

	case TokenName:
		if keywords[tok.Value] {
			return nil, syntaxError(tok.Line, tok.Col, "unexpected keyword %q", tok.Value)
		}
		return program.VarRef{Name: tok.Value}, nil

	case TokenOp:
		if tok.Value == "(" {
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectOp(")"); err != nil {
				return nil, err
			}
			return expr, nil
		}
	}
	return nil, p.unexpected(tok, "expression")
}

// parseDice converts NdM or dM into a dice roll. Non-positive counts and
// sides are left for the evaluator to reject.
func parseDice(tok Token) (program.Expr, error) {
	countText, sidesText, _ := strings.Cut(tok.Value, "d")
	count := int64(1)
	if countText != "" {
		var err error
		count, err = strconv.ParseInt(countText, 10, 64)
		if err != nil {
			return nil, syntaxError(tok.Line, tok.Col, "dice count in %s out of range", tok.Value)
		}
	}
	sides, err := strconv.ParseInt(sidesText, 10, 64)
	if err != nil {
		return nil, syntaxError(tok.Line, tok.Col, "dice sides in %s out of range", tok.Value)
	}
	return program.DiceRoll{Count: count, Sides: sides}, nil
}

func (p *Parser) expectOp(op string) error {
	tok := p.next()
	if tok.Type != TokenOp || tok.Value != op {
		return p.unexpected(tok, strconv.Quote(op))
	}
	return nil
}

func (p *Parser) expectKeyword(kw string) error {
	tok := p.next()
	if tok.Type != TokenName || tok.Value != kw {
		return p.unexpected(tok, strconv.Quote(kw))
	}
	return nil
}

func (p *Parser) isOp(op string) bool {
	tok := p.peek()
	return tok.Type == TokenOp && tok.Value == op
}

func (p *Parser) unexpected(tok Token, want string) error {
	return syntaxError(tok.Line, tok.Col, "expected %s, found %s", want, tok)
}

// peek returns the current token without consuming it. Past the end it
// keeps returning the final EOF token.
func (p *Parser) peek() Token {
	if p.current >= len(p.tokens) {
		if len(p.tokens) == 0 {
			return Token{Type: TokenEOF, Line: 1, Col: 1}
		}
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current]
}

func (p *Parser) next() Token {
	tok := p.peek()
	if p.current < len(p.tokens) {
		p.current++
	}
	return tok
}
