package poisson

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBestResponse_Approval(t *testing.T) {
	two, one, half := NewRat(2, 5), NewRat(1, 5), NewRat(1, 2)

	tests := []struct {
		name          string
		shares        map[Ballot]Rat
		ranking       Ranking
		threshold     float64
		justification Justification
		ballot        Ballot
	}{
		{"two leaders, top voter", map[Ballot]Rat{"a": two, "b": two, "c": one}, "abc", 1, JustificationEasyVsDifficult, "a"},
		{"two leaders, other top voter", map[Ballot]Rat{"a": two, "b": two, "c": one}, "bac", 1, JustificationEasyVsDifficult, "b"},
		{"two leaders, outsider", map[Ballot]Rat{"a": two, "b": two, "c": one}, "cab", 0, JustificationDifficultVsEasy, "ac"},
		{"two-party race, top voter", map[Ballot]Rat{"a": half, "b": half}, "abc", 1, JustificationAsymptotic, "a"},
		{"two-party race, outsider", map[Ballot]Rat{"a": half, "b": half}, "cab", 0, JustificationAsymptotic, "ac"},
		{"empty compass arc", map[Ballot]Rat{"a": two, "b": two, "ac": one}, "bac", 1, JustificationAsymptotic, "b"},
		{"empty compass arc, outsider", map[Ballot]Rat{"a": two, "b": two, "ac": one}, "cab", 0, JustificationAsymptotic, "ac"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tv := ratTau(t, tt.shares, Approval)
			br, err := tv.BestResponse(tt.ranking)
			require.NoError(t, err)

			assert.InDelta(t, tt.threshold, br.ThresholdUtility, 1e-9)
			assert.Equal(t, tt.justification, br.Justification)
			assert.Equal(t, tt.ballot, br.Ballot)
			assert.Equal(t, tt.ranking, br.Ranking)
			t.Logf("✓ %s against %v: %v", tt.ranking, tv, br)
		})
	}
}

func TestBestResponse_SymmetricTau(t *testing.T) {
	// The compass a, ab, b, bc, c, ac alternates shares and holes, so no
	// two holes are adjacent and the limit pivot theorem applies. Both
	// pivots are easy for every voter and the threshold is still defined.
	third := NewRat(1, 3)
	tv := ratTau(t, map[Ballot]Rat{"a": third, "b": third, "c": third}, Approval)
	require.False(t, tv.HasTwoConsecutiveZeros())

	brs, err := tv.RankingBestResponses()
	require.NoError(t, err)
	require.Len(t, brs, len(Rankings))
	for r, br := range brs {
		assert.False(t, math.IsNaN(br.ThresholdUtility), "ranking %s", r)
		assert.InDelta(t, 0.5, br.ThresholdUtility, 1e-9, "ranking %s", r)
		assert.Equal(t, JustificationAsymptoticSimplified, br.Justification)
		assert.True(t, br.IsUtilityDependent(), "ranking %s", r)
	}
	AssertThresholdInUnitInterval(t, tv)

	t.Logf("✓ Every voter is indifferent at utility 1/2")
}

func TestBestResponse_OffsetMethod(t *testing.T) {
	tests := []struct {
		name      string
		shares    map[Ballot]Rat
		ranking   Ranking
		threshold float64
	}{
		// Trio tilts are 2^(-1/3) for a and b: the voter acb is torn
		// evenly between the two leaders.
		{"two leaders, middle outsider", map[Ballot]Rat{"a": NewRat(2, 5), "b": NewRat(2, 5), "c": NewRat(1, 5)}, "acb", 0.5},
		{"strong ends, weak middle", map[Ballot]Rat{"a": NewRat(9, 20), "b": NewRat(1, 5), "c": NewRat(7, 20)}, "abc", 0.7750274384970012},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tv := ratTau(t, tt.shares, Approval)
			require.False(t, tv.HasTwoConsecutiveZeros())

			br, err := tv.BestResponse(tt.ranking)
			require.NoError(t, err)
			assert.Equal(t, JustificationOffset, br.Justification)
			assert.InDelta(t, tt.threshold, br.ThresholdUtility, 1e-9)
			assert.Equal(t, UtilityDependent, br.Ballot)

			// Both difficult pivots resolve through the trio, so the
			// offset ratios reproduce the limit of the event ratio.
			assert.InDelta(t, asymptoticMethod(tv, tt.ranking), br.ThresholdUtility, 1e-9)
			t.Logf("✓ %s against %v: %v", tt.ranking, tv, br)
		})
	}
}

func TestOffsetOvershoot(t *testing.T) {
	tol := DefaultPrecision().psi()

	over, err := offsetOvershoot("psi_a", 0.7, tol)
	require.NoError(t, err)
	assert.False(t, over)

	over, err = offsetOvershoot("psi_a", 1.05, tol)
	require.NoError(t, err)
	assert.True(t, over, "within tolerance of 1 the pivot is infinite")

	_, err = offsetOvershoot("psi_c", 1.5, tol)
	var oe *OvershootError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "psi_c", oe.Ratio)
	assert.Equal(t, 1.5, oe.Value)

	_, err = offsetOvershoot("psi_b", math.NaN(), tol)
	assert.ErrorIs(t, err, ErrUndefinedBestResponse)
	assert.NotErrorIs(t, err, ErrOffsetOvershoot)

	t.Logf("✓ Offset ratios: below 1, at 1, beyond 1, undefined")
}

func TestBestResponse_Plurality(t *testing.T) {
	two, one := NewRat(2, 5), NewRat(1, 5)
	tv := ratTau(t, map[Ballot]Rat{"a": two, "b": two, "c": one}, Plurality)

	br, err := tv.BestResponse("cab")
	require.NoError(t, err)
	assert.InDelta(t, 0, br.ThresholdUtility, 1e-9)
	assert.Equal(t, Ballot("a"), br.Ballot, "the outsider's voter deserts c")

	br, err = tv.BestResponse("abc")
	require.NoError(t, err)
	assert.InDelta(t, 1, br.ThresholdUtility, 1e-9)
	assert.Equal(t, Ballot("a"), br.Ballot)

	AssertThresholdInUnitInterval(t, tv)

	t.Logf("✓ %v", br)
}

func TestBestResponse_AntiPlurality(t *testing.T) {
	tv := ratTau(t, map[Ballot]Rat{"ab": NewRat(3, 10), "ac": NewRat(3, 10), "bc": NewRat(2, 5)}, AntiPlurality)

	brs, err := tv.RankingBestResponses()
	require.NoError(t, err)
	for r, br := range brs {
		assert.Equal(t, AntiPlurality, br.Rule)
		if !br.IsUtilityDependent() {
			assert.True(t, AntiPlurality.allows(br.Ballot), "ranking %s votes %s", r, br.Ballot)
		}
	}
	AssertThresholdInUnitInterval(t, tv)

	t.Logf("✓ Anti-plurality thresholds stay in [0, 1]")
}

func TestBestResponse_UnknownRanking(t *testing.T) {
	tv := ratTau(t, map[Ballot]Rat{"a": NewRat(1, 2), "b": NewRat(1, 2)}, Approval)
	_, err := tv.BestResponse("xyz")
	assert.Error(t, err)
}

func TestBallotForThreshold(t *testing.T) {
	p := DefaultPrecision()
	assert.Equal(t, Ballot("a"), ballotForThreshold(1-1e-12, "abc", Approval, p))
	assert.Equal(t, Ballot("ab"), ballotForThreshold(1e-12, "abc", Approval, p))
	assert.Equal(t, UtilityDependent, ballotForThreshold(0.3, "abc", Approval, p))
	assert.Equal(t, Ballot("b"), ballotForThreshold(0, "abc", Plurality, p))
	assert.Equal(t, Ballot("ac"), ballotForThreshold(1, "abc", AntiPlurality, p))
}

func TestOvershootError(t *testing.T) {
	err := error(&OvershootError{Ratio: "psi_c", Value: 1.5})
	assert.True(t, errors.Is(err, ErrOffsetOvershoot))

	var oe *OvershootError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "psi_c", oe.Ratio)
	assert.Equal(t, "psi_c = 1.5: offset ratio overshoot", err.Error())
}
