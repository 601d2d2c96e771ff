package dist

import (
	"errors"
	"fmt"
	"math"
	"math/big"
)

// ErrOutOfRange is returned when an outcome does not fit in an int64.
var ErrOutOfRange = errors.New("outcome out of int64 range")

// AddInt returns x+y and whether it fits in an int64.
func AddInt(x, y int64) (int64, bool) {
	s := x + y
	return s, (s > x) == (y > 0)
}

// SubInt returns x-y and whether it fits in an int64.
func SubInt(x, y int64) (int64, bool) {
	d := x - y
	return d, (d < x) == (y > 0)
}

// MulInt returns x*y and whether it fits in an int64.
func MulInt(x, y int64) (int64, bool) {
	if x == 0 || y == 0 {
		return 0, true
	}
	if (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
		return 0, false
	}
	p := x * y
	return p, p/y == x
}

// CombineChecked returns the law of op(X, Y) for independent X ~ a and
// Y ~ b. op reports whether its result fits in an int64; the first outcome
// that does not fails the whole combination with ErrOutOfRange.
func CombineChecked(a, b Distribution, op func(x, y int64) (int64, bool)) (Distribution, error) {
	acc := newAccumulator(a.Len() + b.Len())
	for x, px := range a.probs {
		for y, py := range b.probs {
			v, ok := op(x, y)
			if !ok {
				return Distribution{}, fmt.Errorf("%w: %d and %d", ErrOutOfRange, x, y)
			}
			acc.add(v, new(big.Rat).Mul(px, py))
		}
	}
	return acc.distribution(), nil
}

// Convolve returns the law of X+Y for independent X ~ a and Y ~ b.
func Convolve(a, b Distribution) (Distribution, error) {
	return CombineChecked(a, b, AddInt)
}

// Shift returns the law of X+k.
func Shift(a Distribution, k int64) (Distribution, error) {
	if k == 0 {
		return a, nil
	}
	return CombineChecked(a, Point(k), AddInt)
}

// Scale returns the law of k*X.
func Scale(a Distribution, k int64) (Distribution, error) {
	if k == 1 {
		return a, nil
	}
	return CombineChecked(a, Point(k), MulInt)
}

// Negate returns the law of -X.
func Negate(a Distribution) (Distribution, error) {
	return Scale(a, -1)
}

// Repeat returns the law of the sum of n independent copies of X.
// Repeat(a, 0) is the point mass at zero, the identity of Convolve.
func Repeat(a Distribution, n int) (Distribution, error) {
	result := Point(0)
	for range n {
		var err error
		if result, err = Convolve(result, a); err != nil {
			return Distribution{}, err
		}
	}
	return result, nil
}

// Weighted pairs a distribution with its mixing weight.
type Weighted struct {
	Dist   Distribution
	Weight *big.Rat
}

// ScaleAndMerge returns the mixture of the given distributions. Each
// distribution's probabilities are multiplied by its weight and summed
// outcome-wise. Parts with zero weight contribute nothing, so an empty
// distribution may be passed for a branch that was never taken.
func ScaleAndMerge(parts ...Weighted) Distribution {
	acc := newAccumulator(0)
	for _, part := range parts {
		if part.Weight == nil || part.Weight.Sign() == 0 {
			continue
		}
		for v, p := range part.Dist.probs {
			acc.add(v, new(big.Rat).Mul(p, part.Weight))
		}
	}
	return acc.distribution()
}

// Probability returns P(pred(X)) for X ~ a.
func Probability(a Distribution, pred func(x int64) bool) *big.Rat {
	total := new(big.Rat)
	for x, p := range a.probs {
		if pred(x) {
			total.Add(total, p)
		}
	}
	return total
}

// Partition splits a distribution by pred. The returned parts are the
// conditional laws given pred and given !pred, each renormalized to sum to
// one; pTrue and pFalse are the masses of the two parts. A part whose mass
// is zero is returned empty rather than divided by zero.
func Partition(a Distribution, pred func(x int64) bool) (trueDist, falseDist Distribution, pTrue, pFalse *big.Rat) {
	trueAcc := newAccumulator(0)
	falseAcc := newAccumulator(0)
	pTrue = new(big.Rat)
	pFalse = new(big.Rat)

	for x, p := range a.probs {
		if pred(x) {
			trueAcc.add(x, p)
			pTrue.Add(pTrue, p)
		} else {
			falseAcc.add(x, p)
			pFalse.Add(pFalse, p)
		}
	}

	return renormalize(trueAcc, pTrue), renormalize(falseAcc, pFalse), pTrue, pFalse
}

func renormalize(acc accumulator, mass *big.Rat) Distribution {
	if mass.Sign() == 0 {
		return Distribution{}
	}
	for v, p := range acc {
		acc[v] = new(big.Rat).Quo(p, mass)
	}
	return acc.distribution()
}
