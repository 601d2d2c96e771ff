package formatter

import (
	"math/big"
	"strings"

	"github.com/gnoswap-labs/probify/internal/symbolic"
)

// Comparison renders the result of comparing two programs.
func Comparison(leftName, rightName string, report symbolic.ComparisonReport, opts Options) string {
	p := newPalette(opts.Color)
	var b strings.Builder

	b.WriteString(p.file.Sprint(leftName) + " vs " + p.file.Sprint(rightName) + "\n")
	if report.Result == symbolic.Equivalent {
		b.WriteString(p.good.Sprint(report.Summary()) + "\n")
		return b.String()
	}

	b.WriteString(p.bad.Sprint("not equivalent") + "\n")
	for _, diff := range report.Differences {
		b.WriteString(p.outcome.Sprintf("%6d", diff.Outcome))
		b.WriteString(" " + p.gutter.Sprint(gutterRune) + " ")
		b.WriteString(displayProb(diff.Left, opts.DecimalPlaces) + " vs " + displayProb(diff.Right, opts.DecimalPlaces) + "\n")
	}
	return b.String()
}

func displayProb(r *big.Rat, places int) string {
	return r.RatString() + " (" + percent(r).FloatString(places) + "%)"
}

// FormatError creates a formatted header for a file that failed to
// evaluate. (e.g. "error: malformed program\n --> attack.dice")
func FormatError(filename string, err error, opts Options) string {
	p := newPalette(opts.Color)
	return p.bad.Sprint("error: ") + err.Error() + "\n" +
		p.gutter.Sprint(" --> ") + p.file.Sprint(filename) + "\n"
}
