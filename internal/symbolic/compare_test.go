package symbolic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pg "github.com/gnoswap-labs/probify/internal/program"
)

func TestCompareEquivalentPrograms(t *testing.T) {
	t.Parallel()
	ev := NewEvaluator(DefaultConfig())
	report, err := ev.Compare(
		pg.New(pg.Set("result", pg.Dice(2, 6))),
		pg.New(
			pg.Set("a", pg.Dice(1, 6)),
			pg.Set("b", pg.Dice(1, 6)),
			pg.Set("result", pg.Add(pg.Var("a"), pg.Var("b"))),
		),
	)
	require.NoError(t, err)
	assert.Equal(t, Equivalent, report.Result)
	assert.Empty(t, report.Differences)
	assert.Contains(t, report.Summary(), "11 outcomes")
}

func TestCompareSumVersusDouble(t *testing.T) {
	t.Parallel()
	ev := NewEvaluator(DefaultConfig())
	report, err := ev.Compare(
		pg.New(pg.Set("result", pg.Add(pg.Dice(1, 6), pg.Dice(1, 6)))),
		pg.New(
			pg.Set("x", pg.Dice(1, 6)),
			pg.Set("result", pg.Add(pg.Var("x"), pg.Var("x"))),
		),
	)
	require.NoError(t, err)
	assert.Equal(t, NotEquivalent, report.Result)

	var odd *Difference
	for i := range report.Differences {
		if report.Differences[i].Outcome == 3 {
			odd = &report.Differences[i]
		}
	}
	require.NotNil(t, odd)
	assert.Zero(t, rat(1, 18).Cmp(odd.Left))
	assert.Zero(t, odd.Right.Sign())
	assert.Contains(t, report.Summary(), "NotEquivalent")
}

func TestCompareReportsWhichSideFailed(t *testing.T) {
	t.Parallel()
	ev := NewEvaluator(DefaultConfig())
	_, err := ev.Compare(
		pg.New(pg.Set("result", pg.Lit(1))),
		pg.New(pg.Set("other", pg.Lit(1))),
	)
	assert.ErrorIs(t, err, ErrMalformedProgram)
	assert.Contains(t, err.Error(), "right program")
}
