package formatter

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/probify/internal/dist"
	"github.com/gnoswap-labs/probify/internal/parser"
	"github.com/gnoswap-labs/probify/internal/symbolic"
)

func roll(t *testing.T, count, sides int64) dist.Distribution {
	t.Helper()
	d, err := dist.Roll(count, sides)
	require.NoError(t, err)
	return d
}

func double(t *testing.T, d dist.Distribution) dist.Distribution {
	t.Helper()
	scaled, err := dist.Scale(d, 2)
	require.NoError(t, err)
	return scaled
}

func plain() Options {
	opts := DefaultOptions()
	opts.Color = false
	return opts
}

func TestChart(t *testing.T) {
	t.Parallel()
	opts := plain()
	opts.BarWidth = 4
	opts.DecimalPlaces = 1
	opts.MinLabelPercent = 0
	opts.ShowConfidenceInterval = false

	got, err := Chart("1d2", roll(t, 1, 2), opts)
	require.NoError(t, err)

	expected := `1d2
1 │ ████ 50.0%
2 │ ████ 50.0%

mean      3/2 (1.5)
variance  1/4 (0.3)
std dev   0.5
median    1
range     1..2
`
	assert.Equal(t, expected, got)
}

func TestChartConfidenceIntervalAndLabels(t *testing.T) {
	t.Parallel()
	opts := plain()
	opts.BarWidth = 6
	opts.MinLabelPercent = 5

	got, err := Chart("2d6", roll(t, 2, 6), opts)
	require.NoError(t, err)
	lines := strings.Split(got, "\n")

	assert.Equal(t, "2d6", lines[0])
	// 1/36 is below the label threshold
	assert.Equal(t, " 2 │ █", lines[1])
	assert.Equal(t, " 3 ┃ ██     5.56%", lines[2])
	assert.Equal(t, " 7 ┃ ██████ 16.67%", lines[6])
	assert.Equal(t, "11 ┃ ██     5.56%", lines[10])
	assert.Equal(t, "12 │ █", lines[11])
	assert.Equal(t, "90% interval: 3..11", lines[12])
	assert.Contains(t, got, "mean      7 (7.00)")
	assert.Contains(t, got, "variance  35/6 (5.83)")
}

func TestChartColor(t *testing.T) {
	t.Parallel()
	opts := DefaultOptions()
	opts.Color = true
	got, err := Chart("1d6", roll(t, 1, 6), opts)
	require.NoError(t, err)
	assert.Contains(t, got, "\x1b[")

	got, err = Chart("1d6", roll(t, 1, 6), plain())
	require.NoError(t, err)
	assert.NotContains(t, got, "\x1b[")
}

func TestChartErrors(t *testing.T) {
	t.Parallel()
	_, err := Chart("empty", dist.Distribution{}, plain())
	assert.True(t, errors.Is(err, dist.ErrEmptyDistribution))

	opts := plain()
	opts.ConfidenceLevel = 1.5
	_, err = Chart("bad level", roll(t, 1, 6), opts)
	assert.Error(t, err)

	// the interval is not computed when hidden
	opts.ShowConfidenceInterval = false
	_, err = Chart("hidden", roll(t, 1, 6), opts)
	assert.NoError(t, err)
}

func TestJSON(t *testing.T) {
	t.Parallel()
	attack, err := NewDocument("attack", "result", roll(t, 2, 6), plain())
	require.NoError(t, err)
	raw, err := JSON([]Document{attack})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(raw), "]\n"))

	var docs []Document
	require.NoError(t, json.Unmarshal(raw, &docs))
	require.Len(t, docs, 1)
	doc := docs[0]
	assert.Equal(t, "attack", doc.Name)
	assert.Equal(t, "result", doc.Output)
	require.Len(t, doc.Outcomes, 11)
	assert.Equal(t, OutcomeDoc{Value: 7, Probability: "1/6", Percent: "16.67"}, doc.Outcomes[5])
	assert.Equal(t, "7", doc.Summary.Mean)
	assert.Equal(t, "35/6", doc.Summary.Variance)
	assert.Equal(t, int64(2), doc.Summary.Min)
	assert.Equal(t, int64(12), doc.Summary.Max)
	require.NotNil(t, doc.Interval)
	assert.Equal(t, IntervalDoc{Level: "9/10", Lower: 3, Upper: 11}, *doc.Interval)

	opts := plain()
	opts.ShowConfidenceInterval = false
	bare, err := NewDocument("", "result", roll(t, 1, 6), opts)
	require.NoError(t, err)
	raw, err = JSON([]Document{bare})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "interval")
	assert.NotContains(t, string(raw), "name")

	raw, err = JSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(raw))
}

func TestComparison(t *testing.T) {
	t.Parallel()
	report := symbolic.CompareDistributions(roll(t, 2, 6), double(t, roll(t, 1, 6)))
	got := Comparison("sum.dice", "double.dice", report, plain())

	assert.True(t, strings.HasPrefix(got, "sum.dice vs double.dice\nnot equivalent\n"))
	assert.Contains(t, got, "     3 │ 1/18 (5.56%) vs 0 (0.00%)")

	same := symbolic.CompareDistributions(roll(t, 2, 6), roll(t, 2, 6))
	got = Comparison("a", "b", same, plain())
	assert.Equal(t, "a vs b\nEquivalent: 11 outcomes with identical probabilities\n", got)
}

func TestFormatError(t *testing.T) {
	t.Parallel()
	got := FormatError("attack.dice", symbolic.ErrMalformedProgram, plain())
	assert.Equal(t, "error: malformed program\n --> attack.dice\n", got)
}

func TestFormatErrorWithSource(t *testing.T) {
	t.Parallel()
	src := "x = 1\nif x < 2:\n\ty = (x\n"
	_, err := parser.Parse(src)
	require.Error(t, err)

	got := FormatErrorWithSource("attack.dice", NewSourceCode(src), err, plain())
	expected := "error: syntax error\n" +
		" --> attack.dice:3:8\n" +
		"  |\n" +
		"3 |         y = (x\n" +
		"  |               ^ expected \")\", found newline\n"
	assert.Equal(t, expected, got)

	// no source or no position: plain header only
	assert.Equal(t, FormatError("attack.dice", err, plain()), FormatErrorWithSource("attack.dice", nil, err, plain()))
	assert.Equal(t,
		FormatError("attack.dice", symbolic.ErrMalformedProgram, plain()),
		FormatErrorWithSource("attack.dice", NewSourceCode(src), symbolic.ErrMalformedProgram, plain()))
}

func TestReadSourceCode(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "attack.dice")
	require.NoError(t, os.WriteFile(path, []byte("x = 2d\n"), 0o644))

	source, err := ReadSourceCode(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"x = 2d", ""}, source.Lines)

	_, err = parser.Parse("x = 2d\n")
	got := FormatErrorWithSource(path, source, err, plain())
	assert.Contains(t, got, "1 | x = 2d\n")
	assert.Contains(t, got, "  |     ^ dice literal \"2d\" is missing the number of sides\n")

	_, err = ReadSourceCode(filepath.Join(t.TempDir(), "missing.dice"))
	assert.Error(t, err)
}
