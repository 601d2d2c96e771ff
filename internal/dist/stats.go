package dist

import (
	"errors"
	"math"
	"math/big"
)

// ErrEmptyDistribution is returned by statistics that need at least one outcome.
var ErrEmptyDistribution = errors.New("empty distribution")

// Summary holds the descriptive statistics of a distribution.
type Summary struct {
	Min      int64
	Max      int64
	Median   int64
	Mean     *big.Rat
	Variance *big.Rat
	StdDev   float64
}

// Summarize computes min, max, median, mean, variance and standard deviation.
func Summarize(d Distribution) (Summary, error) {
	if d.IsEmpty() {
		return Summary{}, ErrEmptyDistribution
	}
	outcomes := d.Outcomes()
	median, err := Quantile(d, big.NewRat(1, 2))
	if err != nil {
		return Summary{}, err
	}
	mean := Mean(d)
	variance := Variance(d)
	vf, _ := variance.Float64()

	return Summary{
		Min:      outcomes[0],
		Max:      outcomes[len(outcomes)-1],
		Median:   median,
		Mean:     mean,
		Variance: variance,
		StdDev:   math.Sqrt(vf),
	}, nil
}

// Mean returns E[X].
func Mean(d Distribution) *big.Rat {
	mean := new(big.Rat)
	term := new(big.Rat)
	for v, p := range d.probs {
		term.SetInt64(v)
		mean.Add(mean, term.Mul(term, p))
	}
	return mean
}

// Variance returns E[(X - E[X])^2].
func Variance(d Distribution) *big.Rat {
	mean := Mean(d)
	variance := new(big.Rat)
	dev := new(big.Rat)
	for v, p := range d.probs {
		dev.SetInt64(v)
		dev.Sub(dev, mean)
		dev.Mul(dev, dev)
		variance.Add(variance, dev.Mul(dev, p))
	}
	return variance
}

// Quantile returns the smallest outcome whose cumulative probability is at
// least q.
func Quantile(d Distribution, q *big.Rat) (int64, error) {
	outcomes := d.Outcomes()
	if len(outcomes) == 0 {
		return 0, ErrEmptyDistribution
	}
	cum := new(big.Rat)
	for _, v := range outcomes {
		cum.Add(cum, d.probs[v])
		if cum.Cmp(q) >= 0 {
			return v, nil
		}
	}
	return outcomes[len(outcomes)-1], nil
}

// ConfidenceInterval returns the central interval holding at least level
// of the mass: the (1-level)/2 and 1-(1-level)/2 quantiles.
func ConfidenceInterval(d Distribution, level *big.Rat) (lower, upper int64, err error) {
	if level.Sign() <= 0 || level.Cmp(one) > 0 {
		return 0, 0, errors.New("confidence level must be in (0, 1]")
	}
	tail := new(big.Rat).Sub(one, level)
	tail.Quo(tail, big.NewRat(2, 1))

	lower, err = Quantile(d, tail)
	if err != nil {
		return 0, 0, err
	}
	upper, err = Quantile(d, new(big.Rat).Sub(one, tail))
	if err != nil {
		return 0, 0, err
	}
	return lower, upper, nil
}
