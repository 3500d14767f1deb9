package poisson

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeStrategies_ClassifiesInInputOrder(t *testing.T) {
	statuses := map[int]EquilibriumStatus{
		0: StatusNotEquilibrium,
		1: StatusEquilibrium,
		2: StatusUtilityDependent,
		3: StatusEquilibrium,
		4: StatusNotEquilibrium,
	}
	strategies := []int{0, 1, 2, 3, 4}

	var running, peak atomic.Int32
	check := func(s int) (EquilibriumStatus, error) {
		n := running.Add(1)
		defer running.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		return statuses[s], nil
	}

	got, err := AnalyzeStrategies(context.Background(), strategies, check, AnalyzeOptions{Workers: 2})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 3}, got.Equilibria)
	assert.Equal(t, []int{2}, got.UtilityDependent)
	assert.Equal(t, []int{0, 4}, got.NonEquilibria)
	assert.Empty(t, got.Inconclusive)
	assert.Equal(t, 5, got.Len())
	assert.LessOrEqual(t, peak.Load(), int32(2), "worker limit")

	t.Logf("✓ %d strategies, at most %d checks at once", got.Len(), peak.Load())
}

func TestAnalyzeStrategies_InconclusiveAborts(t *testing.T) {
	check := func(s int) (EquilibriumStatus, error) {
		if s == 3 {
			return StatusInconclusive, nil
		}
		return StatusEquilibrium, nil
	}
	_, err := AnalyzeStrategies(context.Background(), []int{1, 2, 3}, check, AnalyzeOptions{})
	assert.ErrorIs(t, err, ErrInconclusive)
}

func TestAnalyzeStrategies_PropagatesErrors(t *testing.T) {
	check := func(s int) (EquilibriumStatus, error) {
		return "", &OvershootError{Ratio: "psi_a", Value: 2}
	}
	_, err := AnalyzeStrategies(context.Background(), []int{1}, check, AnalyzeOptions{Workers: 1})
	assert.True(t, errors.Is(err, ErrOffsetOvershoot))
}

func TestAnalyzeStrategies_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := AnalyzeStrategies(ctx, []int{1, 2}, func(int) (EquilibriumStatus, error) {
		return StatusEquilibrium, nil
	}, AnalyzeOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
