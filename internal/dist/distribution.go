package dist

import (
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// Distribution maps integer outcomes to exact probabilities.
//
// A Distribution is a value: no operation in this package modifies its
// receiver or arguments, and the *big.Rat values it stores are never
// written after construction. Outcomes with zero probability are not kept.
type Distribution struct {
	probs map[int64]*big.Rat
}

// New builds a distribution from an outcome->probability map.
// The map is copied; zero entries are dropped. New does not check that
// the probabilities sum to one, use IsNormalized for that.
func New(probs map[int64]*big.Rat) Distribution {
	acc := newAccumulator(len(probs))
	for v, p := range probs {
		acc.add(v, p)
	}
	return acc.distribution()
}

// Point returns the distribution that puts all its mass on v.
func Point(v int64) Distribution {
	return Distribution{probs: map[int64]*big.Rat{v: big.NewRat(1, 1)}}
}

// Prob returns the probability of outcome v. The result is a fresh copy.
func (d Distribution) Prob(v int64) *big.Rat {
	if p, ok := d.probs[v]; ok {
		return new(big.Rat).Set(p)
	}
	return new(big.Rat)
}

// Len returns the number of outcomes with non-zero probability.
func (d Distribution) Len() int {
	return len(d.probs)
}

// IsEmpty reports whether the distribution carries no mass at all.
func (d Distribution) IsEmpty() bool {
	return len(d.probs) == 0
}

// Outcomes returns the support in ascending order.
func (d Distribution) Outcomes() []int64 {
	out := make([]int64, 0, len(d.probs))
	for v := range d.probs {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Each calls fn for every outcome in ascending order.
// fn must not modify p.
func (d Distribution) Each(fn func(v int64, p *big.Rat)) {
	for _, v := range d.Outcomes() {
		fn(v, d.probs[v])
	}
}

// Total returns the sum of all probabilities.
func (d Distribution) Total() *big.Rat {
	total := new(big.Rat)
	for _, p := range d.probs {
		total.Add(total, p)
	}
	return total
}

// IsNormalized reports whether the probabilities sum to exactly one.
func (d Distribution) IsNormalized() bool {
	return d.Total().Cmp(one) == 0
}

// Equal reports whether both distributions assign the same probability
// to every outcome.
func (d Distribution) Equal(other Distribution) bool {
	if len(d.probs) != len(other.probs) {
		return false
	}
	for v, p := range d.probs {
		q, ok := other.probs[v]
		if !ok || p.Cmp(q) != 0 {
			return false
		}
	}
	return true
}

// String renders the distribution as {outcome: p, ...} in outcome order.
func (d Distribution) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, v := range d.Outcomes() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatInt(v, 10))
		b.WriteString(": ")
		b.WriteString(d.probs[v].RatString())
	}
	b.WriteByte('}')
	return b.String()
}

var one = big.NewRat(1, 1)

// accumulator sums probability mass per outcome. Every add allocates, so
// rationals handed in by callers are never aliased.
type accumulator map[int64]*big.Rat

func newAccumulator(size int) accumulator {
	return make(accumulator, size)
}

func (a accumulator) add(v int64, p *big.Rat) {
	if p.Sign() == 0 {
		return
	}
	if cur, ok := a[v]; ok {
		a[v] = new(big.Rat).Add(cur, p)
		return
	}
	a[v] = new(big.Rat).Set(p)
}

func (a accumulator) distribution() Distribution {
	for v, p := range a {
		if p.Sign() == 0 {
			delete(a, v)
		}
	}
	return Distribution{probs: a}
}
