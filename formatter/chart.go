package formatter

import (
	"bytes"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"text/template"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gnoswap-labs/probify/internal/dist"
)

const (
	barRune     = "█"
	gutterRune  = "│"
	inCIGutter  = "┃"
	statPadding = 9
)

const chartTemplate = `{{title .Title}}
{{range .Rows}}{{row .}}
{{end}}
{{- if .Interval}}{{interval .Interval}}
{{end}}
{{range .Stats}}{{stat .}}
{{end}}`

// ChartData is the view model of a rendered distribution.
type ChartData struct {
	Title    string
	Rows     []BarRow
	Interval *IntervalData
	Stats    []StatLine
}

// BarRow is one outcome of the chart.
type BarRow struct {
	Outcome string
	Bar     string
	Label   string
	InCI    bool
}

// IntervalData describes the central confidence interval.
type IntervalData struct {
	Level string
	Lower int64
	Upper int64
}

// StatLine is one line of the summary table.
type StatLine struct {
	Name  string
	Value string
}

var numbers = message.NewPrinter(language.English)

// Chart renders d as a horizontal bar chart followed by its summary
// statistics.
func Chart(title string, d dist.Distribution, opts Options) (string, error) {
	data, err := buildChart(title, d, opts)
	if err != nil {
		return "", err
	}

	p := newPalette(opts.Color)
	funcMap := template.FuncMap{
		"title": func(s string) string { return p.title.Sprint(s) },
		"row":   func(r BarRow) string { return row(p, r) },
		"interval": func(iv *IntervalData) string {
			return p.interval.Sprintf("%s interval: %s..%s", iv.Level, numbers.Sprintf("%d", iv.Lower), numbers.Sprintf("%d", iv.Upper))
		},
		"stat": func(s StatLine) string {
			return p.stat.Sprintf("%-*s", statPadding, s.Name) + " " + s.Value
		},
	}

	tmpl := template.Must(template.New("chart").Funcs(funcMap).Parse(chartTemplate))
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render chart: %w", err)
	}
	return buf.String(), nil
}

func buildChart(title string, d dist.Distribution, opts Options) (ChartData, error) {
	summary, err := dist.Summarize(d)
	if err != nil {
		return ChartData{}, err
	}

	data := ChartData{Title: title}
	var lower, upper int64
	if opts.ShowConfidenceInterval {
		level := opts.level()
		lower, upper, err = dist.ConfidenceInterval(d, level)
		if err != nil {
			return ChartData{}, err
		}
		data.Interval = &IntervalData{Level: percentString(level, opts.DecimalPlaces), Lower: lower, Upper: upper}
	}

	maxProb := new(big.Rat)
	width := 0
	d.Each(func(v int64, p *big.Rat) {
		if p.Cmp(maxProb) > 0 {
			maxProb.Set(p)
		}
		if w := len(strconv.FormatInt(v, 10)); w > width {
			width = w
		}
	})

	minLabel := ratFromFloat(opts.MinLabelPercent)
	d.Each(func(v int64, p *big.Rat) {
		pct := percent(p)
		r := BarRow{
			Outcome: fmt.Sprintf("%*d", width, v),
			Bar:     bar(p, maxProb, opts.BarWidth),
			InCI:    data.Interval != nil && v >= lower && v <= upper,
		}
		if pct.Cmp(minLabel) >= 0 {
			r.Label = pct.FloatString(opts.DecimalPlaces) + "%"
		}
		data.Rows = append(data.Rows, r)
	})

	data.Stats = []StatLine{
		{Name: "mean", Value: exact(summary.Mean, opts.DecimalPlaces)},
		{Name: "variance", Value: exact(summary.Variance, opts.DecimalPlaces)},
		{Name: "std dev", Value: strconv.FormatFloat(summary.StdDev, 'f', opts.DecimalPlaces, 64)},
		{Name: "median", Value: numbers.Sprintf("%d", summary.Median)},
		{Name: "range", Value: numbers.Sprintf("%d..%d", summary.Min, summary.Max)},
	}
	return data, nil
}

func row(p palette, r BarRow) string {
	gutter := p.gutter.Sprint(gutterRune)
	if r.InCI {
		gutter = p.interval.Sprint(inCIGutter)
	}
	line := p.outcome.Sprint(r.Outcome) + " " + gutter + " " + p.bar.Sprint(r.Bar)
	if r.Label != "" {
		line += " " + p.label.Sprint(r.Label)
	}
	return strings.TrimRight(line, " ")
}

// bar draws p relative to the most likely outcome, padded to width.
func bar(p, maxProb *big.Rat, width int) string {
	if width <= 0 || maxProb.Sign() == 0 {
		return ""
	}
	scaled := new(big.Rat).Quo(p, maxProb)
	scaled.Mul(scaled, big.NewRat(int64(width), 1))
	n := int(roundRat(scaled))
	return strings.Repeat(barRune, n) + strings.Repeat(" ", width-n)
}

// roundRat rounds a non-negative rational half up.
func roundRat(r *big.Rat) int64 {
	num := new(big.Int).Mul(r.Num(), big.NewInt(2))
	num.Add(num, r.Denom())
	den := new(big.Int).Mul(r.Denom(), big.NewInt(2))
	return num.Quo(num, den).Int64()
}

func percent(p *big.Rat) *big.Rat {
	return new(big.Rat).Mul(p, big.NewRat(100, 1))
}

// percentString formats a probability as a percentage without trailing zeros.
func percentString(p *big.Rat, places int) string {
	s := percent(p).FloatString(places)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s + "%"
}

// exact prints a rational as a fraction followed by its decimal value.
func exact(r *big.Rat, places int) string {
	return r.RatString() + " (" + r.FloatString(places) + ")"
}
