package dist

import (
	"errors"
	"fmt"
	"math/big"
)

// ErrInvalidDiceSpec is returned for a dice roll with a non-positive
// number of dice or sides.
var ErrInvalidDiceSpec = errors.New("invalid dice spec")

// Die returns the uniform law over 1..sides.
func Die(sides int64) (Distribution, error) {
	if sides <= 0 {
		return Distribution{}, fmt.Errorf("%w: die with %d sides", ErrInvalidDiceSpec, sides)
	}
	p := big.NewRat(1, sides)
	acc := newAccumulator(int(sides))
	for face := int64(1); face <= sides; face++ {
		acc.add(face, p)
	}
	return acc.distribution(), nil
}

// Roll returns the law of the sum of count independent dice with the
// given number of sides. Its support is exactly count..count*sides.
// A maximum count*sides beyond int64 is ErrOutOfRange.
func Roll(count, sides int64) (Distribution, error) {
	if count <= 0 {
		return Distribution{}, fmt.Errorf("%w: %dd%d rolls no dice", ErrInvalidDiceSpec, count, sides)
	}
	if sides <= 0 {
		return Distribution{}, fmt.Errorf("%w: die with %d sides", ErrInvalidDiceSpec, sides)
	}
	if _, ok := MulInt(count, sides); !ok {
		return Distribution{}, fmt.Errorf("%w: %dd%d", ErrOutOfRange, count, sides)
	}
	if sides == 1 {
		return Point(count), nil
	}
	die, err := Die(sides)
	if err != nil {
		return Distribution{}, err
	}
	result := die
	for i := int64(1); i < count; i++ {
		// count*sides fits, so no partial sum can overflow
		if result, err = Convolve(result, die); err != nil {
			return Distribution{}, err
		}
	}
	return result, nil
}

// SupportSize returns the number of outcomes of Roll(count, sides), and
// false when it does not fit in an int64.
func SupportSize(count, sides int64) (int64, bool) {
	span, ok := MulInt(count, sides-1)
	if !ok {
		return 0, false
	}
	return AddInt(span, 1)
}
