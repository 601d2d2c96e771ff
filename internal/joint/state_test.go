package joint

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/probify/internal/dist"
)

func d6(t *testing.T) dist.Distribution {
	t.Helper()
	d, err := dist.Roll(1, 6)
	require.NoError(t, err)
	return d
}

func project(t *testing.T, s *State, name string) dist.Distribution {
	t.Helper()
	d, err := s.Project(name)
	require.NoError(t, err)
	return d
}

func assertRat(t *testing.T, want, got *big.Rat) {
	t.Helper()
	assert.Zero(t, want.Cmp(got), "want %s, got %s", want.RatString(), got.RatString())
}

func TestNewState(t *testing.T) {
	t.Parallel()
	s := New()
	assert.Equal(t, 1, s.Len())
	assert.Empty(t, s.Vars())
	assertRat(t, big.NewRat(1, 1), s.Total())
}

func TestBindAndExtend(t *testing.T) {
	t.Parallel()
	s := New().Bind("acc", 0).Extend("x", d6(t)).Extend("y", d6(t))

	assert.Equal(t, []string{"acc", "x", "y"}, s.Vars())
	assert.Equal(t, 36, s.Len())
	assertRat(t, big.NewRat(1, 1), s.Total())
	assert.True(t, project(t, s, "x").Equal(d6(t)))
	assert.True(t, project(t, s, "y").Equal(d6(t)))
	assert.True(t, project(t, s, "acc").Equal(dist.Point(0)))
}

func TestOverwriteCollapsesRows(t *testing.T) {
	t.Parallel()
	s := New().Extend("x", d6(t))
	for range 5 {
		s = s.Extend("x", d6(t))
	}
	assert.Equal(t, 6, s.Len())
	assert.Equal(t, []string{"x"}, s.Vars())
	assert.True(t, project(t, s, "x").Equal(d6(t)))
}

func TestAssignKeepsCorrelation(t *testing.T) {
	t.Parallel()
	s := New().Extend("x", d6(t))
	s, err := s.Assign("y", func(r Row) (dist.Distribution, error) {
		x, ok := r.Lookup("x")
		require.True(t, ok)
		return dist.Point(x + x), nil
	})
	require.NoError(t, err)

	y := project(t, s, "y")
	assert.Equal(t, []int64{2, 4, 6, 8, 10, 12}, y.Outcomes())
	assert.Equal(t, 6, s.Len())
}

func TestAssignPropagatesError(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	_, err := New().Extend("x", d6(t)).Assign("x", func(Row) (dist.Distribution, error) {
		return dist.Distribution{}, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestApplyConditionalReroll(t *testing.T) {
	t.Parallel()
	s := New().Extend("x", d6(t))
	s, err := s.ApplyConditional("x", func(v int64) bool { return v < 3 }, func(branch *State) (*State, error) {
		assertRat(t, big.NewRat(1, 1), branch.Total())
		return branch.Extend("x", d6(t)), nil
	})
	require.NoError(t, err)

	x := project(t, s, "x")
	assert.True(t, x.IsNormalized())
	assertRat(t, big.NewRat(1, 18), x.Prob(1))
	assertRat(t, big.NewRat(1, 18), x.Prob(2))
	assertRat(t, big.NewRat(2, 9), x.Prob(3))
	assertRat(t, big.NewRat(2, 9), x.Prob(6))
	assert.Equal(t, 6, s.Len())
}

func TestApplyConditionalDegenerate(t *testing.T) {
	t.Parallel()
	s := New().Extend("x", d6(t))
	called := false
	next, err := s.ApplyConditional("x", func(v int64) bool { return v < 1 }, func(branch *State) (*State, error) {
		called = true
		return branch, nil
	})
	require.NoError(t, err)
	assert.False(t, called)
	assert.True(t, next.Equal(s))
}

func TestApplyConditionalUnbound(t *testing.T) {
	t.Parallel()
	_, err := New().ApplyConditional("x", func(int64) bool { return true }, func(s *State) (*State, error) {
		return s, nil
	})
	assert.ErrorIs(t, err, ErrUnbound)

	_, err = New().Project("x")
	assert.ErrorIs(t, err, ErrUnbound)
}

func TestRepeatedConditionalStaysBounded(t *testing.T) {
	t.Parallel()
	s := New().Extend("x", d6(t)).Bind("total", 0)
	var err error
	for range 20 {
		s, err = s.ApplyConditional("x", func(v int64) bool { return v < 4 }, func(branch *State) (*State, error) {
			return branch.Extend("x", d6(t)), nil
		})
		require.NoError(t, err)
		assert.LessOrEqual(t, s.Len(), 6)
	}
	assertRat(t, big.NewRat(1, 1), s.Total())
}

func TestSplitFractionalWeight(t *testing.T) {
	t.Parallel()
	s := New().Bind("x", 1)
	half := big.NewRat(1, 2)
	tp, fp, pt, pf, err := s.Split(func(Row) (*big.Rat, error) { return half, nil })
	require.NoError(t, err)

	assertRat(t, half, pt)
	assertRat(t, half, pf)
	assertRat(t, big.NewRat(1, 1), tp.Total())
	assertRat(t, big.NewRat(1, 1), fp.Total())

	_, _, _, _, err = s.Split(func(Row) (*big.Rat, error) { return big.NewRat(3, 2), nil })
	assert.Error(t, err)
}

func TestMixDropsBranchLocalVariables(t *testing.T) {
	t.Parallel()
	base := New().Extend("x", d6(t))
	withY := base.Bind("y", 7)

	mixed := Mix(
		Weighted{State: withY, Weight: big.NewRat(1, 3)},
		Weighted{State: base, Weight: big.NewRat(2, 3)},
	)
	assert.Equal(t, []string{"x"}, mixed.Vars())
	assert.True(t, mixed.Equal(base))

	// zero-weight parts do not constrain the live set
	kept := Mix(
		Weighted{State: withY, Weight: big.NewRat(1, 1)},
		Weighted{State: New(), Weight: new(big.Rat)},
	)
	assert.Equal(t, []string{"x", "y"}, kept.Vars())
}

func TestDropAndRestrict(t *testing.T) {
	t.Parallel()
	s := New().Extend("x", d6(t)).Extend("y", d6(t))

	dropped := s.Drop("y")
	assert.Equal(t, []string{"x"}, dropped.Vars())
	assert.Equal(t, 6, dropped.Len())
	assert.Same(t, dropped, dropped.Drop("missing"))

	restricted := s.Restrict([]string{"y", "missing"})
	assert.Equal(t, []string{"y"}, restricted.Vars())
	assert.True(t, project(t, restricted, "y").Equal(d6(t)))
}

func TestEqualIgnoresCoordinateOrder(t *testing.T) {
	t.Parallel()
	a := New().Bind("x", 1).Extend("y", d6(t))
	b := New().Extend("y", d6(t)).Bind("x", 1)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(a.Bind("x", 2)))
}
