// Package symbolic evaluates dice programs exactly.
//
// The evaluator threads a joint law over all live variables through the
// program statement by statement. Expressions are evaluated per row of that
// law: inside one row every variable is a constant and every dice node is a
// fresh independent roll, so the row-wise result is exact and keeps the
// dependence between variables that conditionals and loops introduce.
package symbolic

import (
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/gnoswap-labs/probify/internal/dist"
	"github.com/gnoswap-labs/probify/internal/joint"
	"github.com/gnoswap-labs/probify/internal/program"
)

var (
	// ErrMalformedProgram is returned for programs the evaluator cannot
	// interpret: unknown nodes or operators, dynamic loop bounds,
	// non-literal thresholds and references to unbound variables.
	ErrMalformedProgram = errors.New("malformed program")

	// ErrStateTooLarge is returned when the joint state grows past
	// Config.MaxRows.
	ErrStateTooLarge = errors.New("joint state too large")
)

// DefaultOutput is the variable reported when no output is configured.
const DefaultOutput = "result"

// Config holds configuration for the evaluator.
type Config struct {
	// Output is the variable whose marginal is the program's result.
	Output string
	// MaxRows bounds the number of joint-state rows; 0 means no bound.
	MaxRows int
	// Logger receives debug traces. Nil disables logging.
	Logger *zap.Logger
}

// DefaultConfig returns the default evaluation configuration.
func DefaultConfig() Config {
	return Config{Output: DefaultOutput}
}

// Evaluator evaluates programs. It holds no state between runs.
type Evaluator struct {
	config Config
	logger *zap.Logger
}

// NewEvaluator creates a new evaluator with the given configuration.
func NewEvaluator(config Config) *Evaluator {
	if config.Output == "" {
		config.Output = DefaultOutput
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{config: config, logger: logger}
}

// Evaluate runs p with the default configuration and returns the law of
// the named output variable.
func Evaluate(p program.Program, output string) (dist.Distribution, error) {
	return NewEvaluator(Config{Output: output}).Run(p)
}

// Run evaluates the program from an empty state and returns the marginal
// law of the configured output variable.
func (ev *Evaluator) Run(p program.Program) (dist.Distribution, error) {
	final, err := ev.Exec(p.Body, joint.New())
	if err != nil {
		return dist.Distribution{}, err
	}
	if !final.Has(ev.config.Output) {
		return dist.Distribution{}, fmt.Errorf("%w: output variable %q is never assigned", ErrMalformedProgram, ev.config.Output)
	}
	return final.Project(ev.config.Output)
}

// Exec evaluates a statement against the given state and returns the new
// state. The input state is not modified.
func (ev *Evaluator) Exec(stmt program.Stmt, state *joint.State) (*joint.State, error) {
	x := &execution{
		Evaluator: ev,
		rolls:     make(map[program.DiceRoll]dist.Distribution),
	}
	return x.exec(stmt, state)
}

// execution carries the per-run roll cache.
type execution struct {
	*Evaluator
	rolls map[program.DiceRoll]dist.Distribution
}

func (x *execution) exec(stmt program.Stmt, state *joint.State) (*joint.State, error) {
	var (
		next *joint.State
		err  error
	)

	switch s := stmt.(type) {
	case program.Assign:
		next, err = x.execAssign(s, state)

	case program.AugAssign:
		next, err = x.execAugAssign(s, state)

	case program.If:
		next, err = x.execIf(s, state)

	case program.ForRange:
		next, err = x.execFor(s, state)

	case program.Block:
		next = state
		for _, inner := range s.Stmts {
			next, err = x.exec(inner, next)
			if err != nil {
				return nil, err
			}
		}
		return next, nil

	case program.Pass:
		return state, nil

	default:
		return nil, fmt.Errorf("%w: unsupported statement %T", ErrMalformedProgram, stmt)
	}

	if err != nil {
		return nil, err
	}
	return x.checkRows(stmt, next)
}

func (x *execution) checkRows(stmt program.Stmt, state *joint.State) (*joint.State, error) {
	if ce := x.logger.Check(zap.DebugLevel, "statement evaluated"); ce != nil {
		ce.Write(zap.Stringer("stmt", stmt), zap.Int("rows", state.Len()), zap.Strings("vars", state.Vars()))
	}
	if x.config.MaxRows > 0 && state.Len() > x.config.MaxRows {
		return nil, fmt.Errorf("%w: %d rows after %q (limit %d)", ErrStateTooLarge, state.Len(), stmt.String(), x.config.MaxRows)
	}
	return state, nil
}

func (x *execution) execAssign(s program.Assign, state *joint.State) (*joint.State, error) {
	// A bare roll shares no history with anything live.
	if roll, ok := s.Expr.(program.DiceRoll); ok {
		d, err := x.roll(roll)
		if err != nil {
			return nil, err
		}
		return state.Extend(s.Name, d), nil
	}
	return state.Assign(s.Name, func(r joint.Row) (dist.Distribution, error) {
		return x.evalExpr(s.Expr, r)
	})
}

func (x *execution) execAugAssign(s program.AugAssign, state *joint.State) (*joint.State, error) {
	switch s.Op {
	case program.OpAdd, program.OpSub, program.OpMul:
	default:
		return nil, fmt.Errorf("%w: unsupported operator %s= in %q", ErrMalformedProgram, s.Op, s.String())
	}
	if !state.Has(s.Name) {
		return nil, fmt.Errorf("%w: %q updates unbound variable %s", ErrMalformedProgram, s.String(), s.Name)
	}
	expr := program.BinOp{Op: s.Op, Left: program.VarRef{Name: s.Name}, Right: s.Expr}
	return state.Assign(s.Name, func(r joint.Row) (dist.Distribution, error) {
		return x.evalExpr(expr, r)
	})
}

func (x *execution) execIf(s program.If, state *joint.State) (*joint.State, error) {
	cond, threshold, err := x.condition(s.Cond)
	if err != nil {
		return nil, err
	}

	// if v <op> k without else is the plain partition/remix on one coordinate.
	if ref, ok := cond.Left.(program.VarRef); ok && s.Else == nil {
		if !state.Has(ref.Name) {
			return nil, fmt.Errorf("%w: condition %q reads unbound variable %s", ErrMalformedProgram, s.Cond.String(), ref.Name)
		}
		taken := false
		next, err := state.ApplyConditional(ref.Name, func(v int64) bool {
			return cond.Op.Compare(v, threshold)
		}, func(branch *joint.State) (*joint.State, error) {
			taken = true
			return x.exec(s.Then, branch)
		})
		if err != nil {
			return nil, err
		}
		if !taken {
			x.logger.Debug("degenerate branch skipped", zap.Stringer("cond", s.Cond))
		}
		return next, nil
	}

	truePart, falsePart, pTrue, pFalse, err := state.Split(func(r joint.Row) (*big.Rat, error) {
		d, err := x.evalExpr(cond.Left, r)
		if err != nil {
			return nil, err
		}
		return dist.Probability(d, func(v int64) bool { return cond.Op.Compare(v, threshold) }), nil
	})
	if err != nil {
		return nil, err
	}

	parts := make([]joint.Weighted, 0, 2)
	if pTrue.Sign() > 0 {
		taken, err := x.exec(s.Then, truePart)
		if err != nil {
			return nil, err
		}
		parts = append(parts, joint.Weighted{State: taken, Weight: pTrue})
	} else {
		x.logger.Debug("degenerate branch skipped", zap.Stringer("cond", s.Cond), zap.Bool("branch", true))
	}
	if pFalse.Sign() > 0 {
		other := falsePart
		if s.Else != nil {
			other, err = x.exec(s.Else, falsePart)
			if err != nil {
				return nil, err
			}
		}
		parts = append(parts, joint.Weighted{State: other, Weight: pFalse})
	} else {
		x.logger.Debug("degenerate branch skipped", zap.Stringer("cond", s.Cond), zap.Bool("branch", false))
	}
	return joint.Mix(parts...), nil
}

// condition checks that cond compares an expression against a literal
// threshold.
func (x *execution) condition(cond program.Expr) (program.BinOp, int64, error) {
	cmp, ok := cond.(program.BinOp)
	if !ok || !cmp.Op.IsComparison() {
		return program.BinOp{}, 0, fmt.Errorf("%w: condition %s is not a comparison", ErrMalformedProgram, exprString(cond))
	}
	if cmp.Left == nil || cmp.Right == nil {
		return program.BinOp{}, 0, fmt.Errorf("%w: condition is missing an operand", ErrMalformedProgram)
	}
	threshold, ok := cmp.Right.(program.Literal)
	if !ok {
		return program.BinOp{}, 0, fmt.Errorf("%w: condition %s compares against non-literal %s", ErrMalformedProgram, cmp.String(), cmp.Right.String())
	}
	return cmp, threshold.Val, nil
}

func (x *execution) execFor(s program.ForRange, state *joint.State) (*joint.State, error) {
	count, ok := s.Count.(program.Literal)
	if !ok {
		return nil, fmt.Errorf("%w: loop bound %s is not a literal", ErrMalformedProgram, exprString(s.Count))
	}
	if count.Val < 0 {
		return nil, fmt.Errorf("%w: loop bound %d is negative", ErrMalformedProgram, count.Val)
	}

	var err error
	for i := int64(0); i < count.Val; i++ {
		state = state.Bind(s.Var, i)
		state, err = x.exec(s.Body, state)
		if err != nil {
			return nil, err
		}
	}
	return state, nil
}

// evalExpr returns the law of e within one row.
func (x *execution) evalExpr(e program.Expr, r joint.Row) (dist.Distribution, error) {
	switch e := e.(type) {
	case program.Literal:
		return dist.Point(e.Val), nil

	case program.VarRef:
		v, ok := r.Lookup(e.Name)
		if !ok {
			return dist.Distribution{}, fmt.Errorf("%w: undefined variable %s", ErrMalformedProgram, e.Name)
		}
		return dist.Point(v), nil

	case program.DiceRoll:
		return x.roll(e)

	case program.BinOp:
		if e.Op.IsComparison() {
			return dist.Distribution{}, fmt.Errorf("%w: comparison %s used as a value", ErrMalformedProgram, e.String())
		}
		left, err := x.evalExpr(e.Left, r)
		if err != nil {
			return dist.Distribution{}, err
		}
		right, err := x.evalExpr(e.Right, r)
		if err != nil {
			return dist.Distribution{}, err
		}
		return x.evalBinary(e, left, right)

	default:
		return dist.Distribution{}, fmt.Errorf("%w: unsupported expression %s", ErrMalformedProgram, exprString(e))
	}
}

// evalBinary combines the laws of two independent operands. A point mass
// operand makes this a shift or a scalar multiply. Outcomes outside int64
// are an error, never wrapped.
func (x *execution) evalBinary(e program.BinOp, left, right dist.Distribution) (dist.Distribution, error) {
	var op func(a, b int64) (int64, bool)
	switch e.Op {
	case program.OpAdd:
		op = dist.AddInt
	case program.OpSub:
		op = dist.SubInt
	case program.OpMul:
		op = dist.MulInt
	default:
		return dist.Distribution{}, fmt.Errorf("%w: unsupported operator %s in %s", ErrMalformedProgram, e.Op, e.String())
	}

	d, err := dist.CombineChecked(left, right, op)
	if err != nil {
		return dist.Distribution{}, fmt.Errorf("%w: %s: %w", ErrMalformedProgram, e.String(), err)
	}
	return d, nil
}

func (x *execution) roll(e program.DiceRoll) (dist.Distribution, error) {
	if d, ok := x.rolls[e]; ok {
		return d, nil
	}
	// a roll alone may already exceed the row limit; refuse before building it
	if x.config.MaxRows > 0 && e.Count > 0 && e.Sides > 0 {
		if n, ok := dist.SupportSize(e.Count, e.Sides); !ok || n > int64(x.config.MaxRows) {
			return dist.Distribution{}, fmt.Errorf("%w: %s has more than %d outcomes", ErrStateTooLarge, e.String(), x.config.MaxRows)
		}
	}
	d, err := dist.Roll(e.Count, e.Sides)
	if err != nil {
		return dist.Distribution{}, fmt.Errorf("%w: %w", ErrMalformedProgram, err)
	}
	x.rolls[e] = d
	return d, nil
}

func exprString(e program.Expr) string {
	if e == nil {
		return "<nil>"
	}
	return e.String()
}
