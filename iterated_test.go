package poisson

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intFuncs(next func(int) (int, error)) IterateFuncs[int] {
	eq := func(a, b int) bool { return a == b }
	return IterateFuncs[int]{
		Next:    next,
		Equal:   eq,
		IsClose: eq,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestIterate_Cycle(t *testing.T) {
	res, err := Iterate(0, 20, intFuncs(func(x int) (int, error) { return (x + 1) % 3, nil }))
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2, 0}, res.Trace)
	assert.Equal(t, 3, res.Rounds)
	assert.Equal(t, []int{0, 1, 2}, res.Cycle)
	assert.False(t, res.Converged())
	AssertCycle(t, res, 3)
}

func TestIterate_FixedPoint(t *testing.T) {
	res, err := Iterate(8, 20, intFuncs(func(x int) (int, error) { return x / 2, nil }))
	require.NoError(t, err)

	assert.Equal(t, []int{8, 4, 2, 1, 0, 0}, res.Trace)
	assert.True(t, res.Converged())
	assert.Equal(t, []int{0}, res.Cycle)
	AssertCycle(t, res, 1)
}

func TestIterate_NoCycleWithinBudget(t *testing.T) {
	res, err := Iterate(0, 5, intFuncs(func(x int) (int, error) { return x + 1, nil }))
	require.NoError(t, err)

	assert.Len(t, res.Trace, 6)
	assert.Equal(t, 5, res.Rounds)
	assert.Nil(t, res.Cycle)
	assert.Equal(t, 0, res.Period())

	t.Logf("✓ No attractor after %d rounds", res.Rounds)
}

func TestIterate_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := Iterate(0, 5, intFuncs(func(x int) (int, error) {
		if x == 2 {
			return 0, boom
		}
		return x + 1, nil
	}))
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "round 2")
}

func TestDetectCycle_UsesCloseness(t *testing.T) {
	trace := []float64{0.9, 0.5, 0.3, 0.5 + 1e-12}
	tol := Tolerance{Rel: 1e-9}
	cycle := DetectCycle(trace, tol.IsClose)

	assert.Equal(t, []float64{0.5, 0.3}, cycle)
	assert.Nil(t, DetectCycle([]float64{1}, tol.IsClose))

	t.Logf("✓ Cycle %v found with a tolerance", cycle)
}
