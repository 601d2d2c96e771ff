// Package joint implements a joint probability law over the values of a set
// of named integer variables.
//
// A State is a list of rows. Each row assigns one value to every live
// variable and carries the exact probability of that assignment. Rows with
// identical assignments are always merged, so the number of rows is bounded
// by the product of the live variables' support sizes and never by the
// number of execution paths that produced them.
//
// States are immutable: every operation returns a new State.
package joint

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/gnoswap-labs/probify/internal/dist"
)

// ErrUnbound is returned when an operation names a variable that is not live.
var ErrUnbound = errors.New("unbound variable")

var (
	zero = new(big.Rat)
	one  = big.NewRat(1, 1)
)

type row struct {
	values []int64
	prob   *big.Rat
}

// State is a joint law over the live variables.
type State struct {
	vars  []string
	index map[string]int
	rows  []row
}

// New returns the state of a program that has not bound anything yet: a
// single empty row with probability one.
func New() *State {
	b := newBuilder(nil)
	b.add(nil, one)
	return b.state()
}

// Vars returns the live variables in coordinate order.
func (s *State) Vars() []string {
	out := make([]string, len(s.vars))
	copy(out, s.vars)
	return out
}

// Has reports whether name is a live variable.
func (s *State) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Len returns the number of rows.
func (s *State) Len() int {
	return len(s.rows)
}

// IsEmpty reports whether the state carries no rows at all.
func (s *State) IsEmpty() bool {
	return len(s.rows) == 0
}

// Total returns the summed probability of all rows.
func (s *State) Total() *big.Rat {
	total := new(big.Rat)
	for _, r := range s.rows {
		total.Add(total, r.prob)
	}
	return total
}

// Row is a read-only view of one row of a State.
type Row struct {
	index  map[string]int
	values []int64
	prob   *big.Rat
}

// Lookup returns the value the row assigns to name.
func (r Row) Lookup(name string) (int64, bool) {
	i, ok := r.index[name]
	if !ok {
		return 0, false
	}
	return r.values[i], true
}

// Prob returns a copy of the row's probability.
func (r Row) Prob() *big.Rat {
	return new(big.Rat).Set(r.prob)
}

// Each calls fn for every row in a deterministic order.
func (s *State) Each(fn func(Row)) {
	for _, r := range s.rows {
		fn(Row{index: s.index, values: r.values, prob: r.prob})
	}
}

// Bind sets name to the constant v in every row.
func (s *State) Bind(name string, v int64) *State {
	return s.Extend(name, dist.Point(v))
}

// Extend adds name as a new coordinate distributed as d, independent of
// every other variable. If name is already live its old value is
// marginalized out first.
func (s *State) Extend(name string, d dist.Distribution) *State {
	next, _ := s.Assign(name, func(Row) (dist.Distribution, error) { return d, nil })
	return next
}

// Assign overwrites name row by row. For every row, law returns the
// distribution of the new value given that row; the row is replaced by one
// row per outcome, weighted by the row probability times the outcome
// probability. The old value of name is marginalized out.
func (s *State) Assign(name string, law func(Row) (dist.Distribution, error)) (*State, error) {
	pos, live := s.index[name]
	vars := s.vars
	if !live {
		vars = append(append(make([]string, 0, len(s.vars)+1), s.vars...), name)
		pos = len(s.vars)
	}

	b := newBuilder(vars)
	for _, r := range s.rows {
		d, err := law(Row{index: s.index, values: r.values, prob: r.prob})
		if err != nil {
			return nil, err
		}
		values := make([]int64, len(vars))
		copy(values, r.values)
		p := new(big.Rat)
		d.Each(func(v int64, pv *big.Rat) {
			values[pos] = v
			b.add(values, p.Mul(r.prob, pv))
		})
	}
	return b.state(), nil
}

// Project returns the marginal law of name.
func (s *State) Project(name string) (dist.Distribution, error) {
	i, ok := s.index[name]
	if !ok {
		return dist.Distribution{}, fmt.Errorf("%w: %s", ErrUnbound, name)
	}
	probs := make(map[int64]*big.Rat)
	for _, r := range s.rows {
		v := r.values[i]
		if cur, ok := probs[v]; ok {
			probs[v] = new(big.Rat).Add(cur, r.prob)
		} else {
			probs[v] = r.prob
		}
	}
	return dist.New(probs), nil
}

// Drop marginalizes name out of the state. Dropping a variable that is not
// live returns the state unchanged.
func (s *State) Drop(name string) *State {
	if !s.Has(name) {
		return s
	}
	keep := make([]string, 0, len(s.vars)-1)
	for _, v := range s.vars {
		if v != name {
			keep = append(keep, v)
		}
	}
	return s.Restrict(keep)
}

// Restrict marginalizes out every variable not listed in names. Names that
// are not live are ignored.
func (s *State) Restrict(names []string) *State {
	var vars []string
	var from []int
	for _, name := range names {
		if i, ok := s.index[name]; ok {
			vars = append(vars, name)
			from = append(from, i)
		}
	}

	b := newBuilder(vars)
	values := make([]int64, len(vars))
	for _, r := range s.rows {
		for j, i := range from {
			values[j] = r.values[i]
		}
		b.add(values, r.prob)
	}
	return b.state()
}

// Split partitions the state's probability mass. weight returns, for a
// row, the probability in [0, 1] that the row satisfies the condition; the
// row's mass is divided between the true part and the false part
// accordingly. Both parts are renormalized and returned with their masses.
// A part with zero mass is returned as an empty state.
func (s *State) Split(weight func(Row) (*big.Rat, error)) (truePart, falsePart *State, pTrue, pFalse *big.Rat, err error) {
	tb := newBuilder(s.vars)
	fb := newBuilder(s.vars)
	pTrue = new(big.Rat)
	pFalse = new(big.Rat)

	for _, r := range s.rows {
		w, err := weight(Row{index: s.index, values: r.values, prob: r.prob})
		if err != nil {
			return nil, nil, nil, nil, err
		}
		if w.Sign() < 0 || w.Cmp(one) > 0 {
			return nil, nil, nil, nil, fmt.Errorf("row weight %s outside [0, 1]", w.RatString())
		}
		pt := new(big.Rat).Mul(r.prob, w)
		pf := new(big.Rat).Sub(r.prob, pt)
		tb.add(r.values, pt)
		fb.add(r.values, pf)
		pTrue.Add(pTrue, pt)
		pFalse.Add(pFalse, pf)
	}

	return tb.normalized(pTrue), fb.normalized(pFalse), pTrue, pFalse, nil
}

// ApplyConditional partitions the rows by pred evaluated on name's value,
// runs branch on the renormalized true part, and mixes the result back with
// the untouched false part. A true part with zero mass is never handed to
// branch and the state is returned unchanged.
func (s *State) ApplyConditional(name string, pred func(int64) bool, branch func(*State) (*State, error)) (*State, error) {
	if !s.Has(name) {
		return nil, fmt.Errorf("%w: %s", ErrUnbound, name)
	}
	truePart, falsePart, pTrue, pFalse, err := s.Split(func(r Row) (*big.Rat, error) {
		v, _ := r.Lookup(name)
		if pred(v) {
			return one, nil
		}
		return zero, nil
	})
	if err != nil {
		return nil, err
	}
	if pTrue.Sign() == 0 {
		return s, nil
	}

	updated, err := branch(truePart)
	if err != nil {
		return nil, err
	}
	return Mix(Weighted{State: updated, Weight: pTrue}, Weighted{State: falsePart, Weight: pFalse}), nil
}

// Weighted pairs a state with its mixing weight.
type Weighted struct {
	State  *State
	Weight *big.Rat
}

// Mix returns the weighted mixture of the given states, row by row. Parts
// with zero weight are ignored. Only variables live in every remaining part
// stay live in the result; the others are marginalized out.
func Mix(parts ...Weighted) *State {
	var live []Weighted
	for _, part := range parts {
		if part.Weight != nil && part.Weight.Sign() > 0 && part.State != nil {
			live = append(live, part)
		}
	}
	if len(live) == 0 {
		return newBuilder(nil).state()
	}

	var common []string
	for _, name := range live[0].State.vars {
		shared := true
		for _, part := range live[1:] {
			if !part.State.Has(name) {
				shared = false
				break
			}
		}
		if shared {
			common = append(common, name)
		}
	}

	b := newBuilder(common)
	p := new(big.Rat)
	for _, part := range live {
		restricted := part.State.Restrict(common)
		for _, r := range restricted.rows {
			b.add(r.values, p.Mul(r.prob, part.Weight))
		}
	}
	return b.state()
}

// Equal reports whether both states are the same law over the same set of
// live variables, regardless of coordinate order.
func (s *State) Equal(other *State) bool {
	if len(s.vars) != len(other.vars) || len(s.rows) != len(other.rows) {
		return false
	}
	for _, name := range s.vars {
		if !other.Has(name) {
			return false
		}
	}
	aligned := other.Restrict(s.vars)
	lookup := make(map[string]*big.Rat, len(aligned.rows))
	for _, r := range aligned.rows {
		lookup[rowKey(r.values)] = r.prob
	}
	for _, r := range s.rows {
		q, ok := lookup[rowKey(r.values)]
		if !ok || q.Cmp(r.prob) != 0 {
			return false
		}
	}
	return true
}

// String renders the state as one line per row.
func (s *State) String() string {
	var b strings.Builder
	b.WriteString("[" + strings.Join(s.vars, ", ") + "]")
	for _, r := range s.rows {
		b.WriteString("\n  (")
		for i, v := range r.values {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.FormatInt(v, 10))
		}
		b.WriteString("): ")
		b.WriteString(r.prob.RatString())
	}
	return b.String()
}

// builder accumulates rows, merging identical assignments as they arrive.
type builder struct {
	vars  []string
	rows  []row
	byKey map[string]int
}

func newBuilder(vars []string) *builder {
	return &builder{vars: vars, byKey: make(map[string]int)}
}

// add records mass p for the assignment values. Neither argument is
// retained.
func (b *builder) add(values []int64, p *big.Rat) {
	if p.Sign() == 0 {
		return
	}
	key := rowKey(values)
	if i, ok := b.byKey[key]; ok {
		b.rows[i].prob = new(big.Rat).Add(b.rows[i].prob, p)
		return
	}
	b.byKey[key] = len(b.rows)
	b.rows = append(b.rows, row{
		values: append([]int64(nil), values...),
		prob:   new(big.Rat).Set(p),
	})
}

func (b *builder) state() *State {
	index := make(map[string]int, len(b.vars))
	for i, name := range b.vars {
		index[name] = i
	}
	return &State{vars: b.vars, index: index, rows: b.rows}
}

// normalized divides every row by mass. Zero mass yields an empty state.
func (b *builder) normalized(mass *big.Rat) *State {
	if mass.Sign() == 0 {
		b.rows = nil
		return b.state()
	}
	for i := range b.rows {
		b.rows[i].prob = new(big.Rat).Quo(b.rows[i].prob, mass)
	}
	return b.state()
}

func rowKey(values []int64) string {
	buf := make([]byte, 0, len(values)*4)
	for i, v := range values {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendInt(buf, v, 10)
	}
	return string(buf)
}
