package symbolic

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/gnoswap-labs/probify/internal/dist"
	"github.com/gnoswap-labs/probify/internal/program"
)

// VerificationResult represents the result of comparing two programs.
type VerificationResult int

const (
	_ VerificationResult = iota
	// Equivalent indicates both programs produce the same law.
	Equivalent
	// NotEquivalent indicates the laws differ on at least one outcome.
	NotEquivalent
)

func (r VerificationResult) String() string {
	switch r {
	case Equivalent:
		return "Equivalent"
	case NotEquivalent:
		return "NotEquivalent"
	default:
		return "?"
	}
}

// Difference is an outcome on which two laws disagree.
type Difference struct {
	Outcome int64
	Left    *big.Rat
	Right   *big.Rat
}

// ComparisonReport provides detailed information about a comparison.
type ComparisonReport struct {
	Result      VerificationResult
	Left        dist.Distribution
	Right       dist.Distribution
	Differences []Difference
}

// Summary returns a human-readable summary of the comparison.
func (r ComparisonReport) Summary() string {
	if r.Result == Equivalent {
		return fmt.Sprintf("Equivalent: %d outcomes with identical probabilities", r.Left.Len())
	}
	var b strings.Builder
	fmt.Fprintf(&b, "NotEquivalent: %d outcomes differ", len(r.Differences))
	for _, d := range r.Differences {
		fmt.Fprintf(&b, "\n  %d: %s vs %s", d.Outcome, d.Left.RatString(), d.Right.RatString())
	}
	return b.String()
}

// Compare evaluates both programs and reports whether the laws of their
// output variables are identical.
func (ev *Evaluator) Compare(left, right program.Program) (ComparisonReport, error) {
	l, err := ev.Run(left)
	if err != nil {
		return ComparisonReport{}, fmt.Errorf("left program: %w", err)
	}
	r, err := ev.Run(right)
	if err != nil {
		return ComparisonReport{}, fmt.Errorf("right program: %w", err)
	}
	return CompareDistributions(l, r), nil
}

// CompareDistributions reports every outcome on which a and b disagree.
func CompareDistributions(a, b dist.Distribution) ComparisonReport {
	outcomes := make(map[int64]struct{}, a.Len()+b.Len())
	for _, v := range a.Outcomes() {
		outcomes[v] = struct{}{}
	}
	for _, v := range b.Outcomes() {
		outcomes[v] = struct{}{}
	}
	keys := make([]int64, 0, len(outcomes))
	for v := range outcomes {
		keys = append(keys, v)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	report := ComparisonReport{Result: Equivalent, Left: a, Right: b}
	for _, v := range keys {
		pa, pb := a.Prob(v), b.Prob(v)
		if pa.Cmp(pb) != 0 {
			report.Differences = append(report.Differences, Difference{Outcome: v, Left: pa, Right: pb})
		}
	}
	if len(report.Differences) > 0 {
		report.Result = NotEquivalent
	}
	return report
}
