package formatter

import (
	"math/big"
	"strconv"

	"github.com/fatih/color"
)

// Options controls how a distribution is rendered. The evaluator never
// sees these settings.
type Options struct {
	// DecimalPlaces is the precision of percentages and decimal approximations.
	DecimalPlaces int
	// MinLabelPercent hides percentage labels of outcomes below this value.
	MinLabelPercent float64
	// BarWidth is the length of the longest bar, in characters.
	BarWidth int
	// ShowConfidenceInterval marks the central interval holding
	// ConfidenceLevel of the mass.
	ShowConfidenceInterval bool
	ConfidenceLevel        float64
	// Color enables ANSI colors regardless of the terminal.
	Color bool
}

// DefaultOptions returns the rendering defaults.
func DefaultOptions() Options {
	return Options{
		DecimalPlaces:          2,
		MinLabelPercent:        1,
		BarWidth:               40,
		ShowConfidenceInterval: true,
		ConfidenceLevel:        0.9,
		Color:                  true,
	}
}

// level returns the confidence level as an exact rational, so 0.9 is 9/10
// and not the nearest binary float.
func (o Options) level() *big.Rat {
	return ratFromFloat(o.ConfidenceLevel)
}

func ratFromFloat(f float64) *big.Rat {
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(f, 'f', -1, 64))
	if !ok {
		return new(big.Rat)
	}
	return r
}

type palette struct {
	title    *color.Color
	outcome  *color.Color
	gutter   *color.Color
	interval *color.Color
	bar      *color.Color
	label    *color.Color
	stat     *color.Color
	good     *color.Color
	bad      *color.Color
	file     *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		title:    color.New(color.FgCyan, color.Bold),
		outcome:  color.New(color.FgHiBlue, color.Bold),
		gutter:   color.New(color.FgHiBlue),
		interval: color.New(color.FgGreen, color.Bold),
		bar:      color.New(color.FgYellow),
		label:    color.New(color.FgWhite),
		stat:     color.New(color.FgYellow, color.Bold),
		good:     color.New(color.FgGreen, color.Bold),
		bad:      color.New(color.FgRed, color.Bold),
		file:     color.New(color.FgCyan, color.Bold),
	}
	for _, c := range []*color.Color{p.title, p.outcome, p.gutter, p.interval, p.bar, p.label, p.stat, p.good, p.bad, p.file} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}
