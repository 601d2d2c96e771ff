package formatter

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/gnoswap-labs/probify/internal/dist"
)

// Document is the JSON form of an evaluated program. Probabilities are
// exact fractions; percentages are rounded for display.
type Document struct {
	Name     string       `json:"name,omitempty"`
	Output   string       `json:"output"`
	Outcomes []OutcomeDoc `json:"outcomes"`
	Summary  SummaryDoc   `json:"summary"`
	Interval *IntervalDoc `json:"interval,omitempty"`
}

// OutcomeDoc is a single outcome and its probability.
type OutcomeDoc struct {
	Value       int64  `json:"value"`
	Probability string `json:"probability"`
	Percent     string `json:"percent"`
}

// SummaryDoc holds the summary statistics.
type SummaryDoc struct {
	Min      int64   `json:"min"`
	Max      int64   `json:"max"`
	Median   int64   `json:"median"`
	Mean     string  `json:"mean"`
	Variance string  `json:"variance"`
	StdDev   float64 `json:"std_dev"`
}

// IntervalDoc is the central confidence interval.
type IntervalDoc struct {
	Level string `json:"level"`
	Lower int64  `json:"lower"`
	Upper int64  `json:"upper"`
}

// NewDocument builds the JSON view of d.
func NewDocument(name, output string, d dist.Distribution, opts Options) (Document, error) {
	summary, err := dist.Summarize(d)
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		Name:   name,
		Output: output,
		Summary: SummaryDoc{
			Min:      summary.Min,
			Max:      summary.Max,
			Median:   summary.Median,
			Mean:     summary.Mean.RatString(),
			Variance: summary.Variance.RatString(),
			StdDev:   summary.StdDev,
		},
	}
	d.Each(func(v int64, p *big.Rat) {
		doc.Outcomes = append(doc.Outcomes, OutcomeDoc{
			Value:       v,
			Probability: p.RatString(),
			Percent:     percent(p).FloatString(opts.DecimalPlaces),
		})
	})

	if opts.ShowConfidenceInterval {
		level := opts.level()
		lower, upper, err := dist.ConfidenceInterval(d, level)
		if err != nil {
			return Document{}, err
		}
		doc.Interval = &IntervalDoc{Level: level.RatString(), Lower: lower, Upper: upper}
	}
	return doc, nil
}

// JSON renders docs as an indented JSON array ending in a newline.
func JSON(docs []Document) ([]byte, error) {
	if docs == nil {
		docs = []Document{}
	}
	d, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("error marshaling results: %w", err)
	}
	return append(d, '\n'), nil
}
