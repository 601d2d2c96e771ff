// Package program defines the abstract syntax of dice programs: a short
// sequence of assignments, threshold conditionals and bounded loops over
// integer variables whose primitive random operation is a dice roll.
package program

import (
	"strconv"
	"strings"
)

// Expr represents an expression.
type Expr interface {
	isExpr()
	String() string
}

// Literal represents an integer constant.
type Literal struct {
	Val int64
}

func (Literal) isExpr() {}
func (e Literal) String() string {
	return strconv.FormatInt(e.Val, 10)
}

// VarRef represents a variable reference.
type VarRef struct {
	Name string
}

func (VarRef) isExpr() {}
func (e VarRef) String() string {
	return e.Name
}

// DiceRoll represents the sum of Count fresh dice with Sides faces each.
// Every evaluation of the node is a new, independent roll.
type DiceRoll struct {
	Count int64
	Sides int64
}

func (DiceRoll) isExpr() {}
func (e DiceRoll) String() string {
	return strconv.FormatInt(e.Count, 10) + "d" + strconv.FormatInt(e.Sides, 10)
}

// BinaryOp represents binary operators.
type BinaryOp int

const (
	_ BinaryOp = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpEq:
		return "=="
	case OpNeq:
		return "!="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	default:
		return "?"
	}
}

// IsComparison reports whether op compares two integers.
func (op BinaryOp) IsComparison() bool {
	return op >= OpEq && op <= OpGte
}

// Compare applies a comparison operator. It returns false for operators
// that are not comparisons.
func (op BinaryOp) Compare(left, right int64) bool {
	switch op {
	case OpEq:
		return left == right
	case OpNeq:
		return left != right
	case OpLt:
		return left < right
	case OpLte:
		return left <= right
	case OpGt:
		return left > right
	case OpGte:
		return left >= right
	default:
		return false
	}
}

// BinOp represents a binary expression. Comparison operators only appear
// as the condition of an If.
type BinOp struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (BinOp) isExpr() {}
func (e BinOp) String() string {
	return "(" + str(e.Left) + " " + e.Op.String() + " " + str(e.Right) + ")"
}

func str(e Expr) string {
	if e == nil {
		return "<nil>"
	}
	return e.String()
}

// Stmt represents a statement.
type Stmt interface {
	isStmt()
	String() string
}

// Assign represents an assignment statement: x = e
type Assign struct {
	Name string
	Expr Expr
}

func (Assign) isStmt() {}
func (s Assign) String() string {
	return s.Name + " = " + str(s.Expr)
}

// AugAssign represents an augmented assignment: x op= e
type AugAssign struct {
	Name string
	Op   BinaryOp
	Expr Expr
}

func (AugAssign) isStmt() {}
func (s AugAssign) String() string {
	return s.Name + " " + s.Op.String() + "= " + str(s.Expr)
}

// If represents a conditional: if cond { then } else { els }.
// Else is nil when there is no else branch.
type If struct {
	Cond Expr
	Then Stmt
	Else Stmt
}

func (If) isStmt() {}
func (s If) String() string {
	result := "if " + str(s.Cond) + " { " + s.Then.String() + " }"
	if s.Else != nil {
		result += " else { " + s.Else.String() + " }"
	}
	return result
}

// ForRange represents a bounded loop: for v in range(count) { body }.
type ForRange struct {
	Var   string
	Count Expr
	Body  Stmt
}

func (ForRange) isStmt() {}
func (s ForRange) String() string {
	return "for " + s.Var + " in range(" + str(s.Count) + ") { " + s.Body.String() + " }"
}

// Block represents a sequence of statements.
type Block struct {
	Stmts []Stmt
}

func (Block) isStmt() {}
func (s Block) String() string {
	if len(s.Stmts) == 0 {
		return "{}"
	}
	parts := make([]string, len(s.Stmts))
	for i, stmt := range s.Stmts {
		parts[i] = stmt.String()
	}
	return strings.Join(parts, "; ")
}

// Pass represents an empty statement.
type Pass struct{}

func (Pass) isStmt() {}
func (Pass) String() string {
	return "pass"
}

// Program is a parsed dice program.
type Program struct {
	Body Block
}

func (p Program) String() string {
	return p.Body.String()
}

// Helper functions to construct AST nodes

// Lit creates an integer literal expression.
func Lit(v int64) Expr {
	return Literal{Val: v}
}

// Var creates a variable reference expression.
func Var(name string) Expr {
	return VarRef{Name: name}
}

// Dice creates a dice roll expression.
func Dice(count, sides int64) Expr {
	return DiceRoll{Count: count, Sides: sides}
}

// Binary creates a binary expression.
func Binary(op BinaryOp, left, right Expr) Expr {
	return BinOp{Op: op, Left: left, Right: right}
}

// Add creates an addition expression.
func Add(left, right Expr) Expr {
	return BinOp{Op: OpAdd, Left: left, Right: right}
}

// Cmp creates a comparison of an expression against a threshold.
func Cmp(op BinaryOp, left Expr, threshold int64) Expr {
	return BinOp{Op: op, Left: left, Right: Literal{Val: threshold}}
}

// Set creates an assignment statement.
func Set(name string, e Expr) Stmt {
	return Assign{Name: name, Expr: e}
}

// Update creates an augmented assignment statement.
func Update(name string, op BinaryOp, e Expr) Stmt {
	return AugAssign{Name: name, Op: op, Expr: e}
}

// When creates an if statement without else.
func When(cond Expr, then ...Stmt) Stmt {
	return If{Cond: cond, Then: Seq(then...)}
}

// WhenElse creates an if statement with an else branch.
func WhenElse(cond Expr, then, els Stmt) Stmt {
	return If{Cond: cond, Then: then, Else: els}
}

// Loop creates a loop over range(count).
func Loop(v string, count int64, body ...Stmt) Stmt {
	return ForRange{Var: v, Count: Literal{Val: count}, Body: Seq(body...)}
}

// Seq creates a block from the given statements.
func Seq(stmts ...Stmt) Stmt {
	if len(stmts) == 0 {
		return Pass{}
	}
	if len(stmts) == 1 {
		return stmts[0]
	}
	return Block{Stmts: stmts}
}

// New creates a program from top-level statements.
func New(stmts ...Stmt) Program {
	return Program{Body: Block{Stmts: stmts}}
}
