package poisson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBallot(t *testing.T) {
	tests := []struct {
		in      string
		want    Ballot
		wantErr bool
	}{
		{"a", "a", false},
		{"ba", "ab", false},
		{" cb ", "bc", false},
		{"aa", "", true},
		{"abc", "", true},
		{"d", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBallot(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Logf("✓ Ballots accept any letter order")
}

func TestRanking(t *testing.T) {
	r, err := ParseRanking("bca")
	require.NoError(t, err)
	assert.Equal(t, CandidateB, r.Top())
	assert.Equal(t, CandidateC, r.Middle())
	assert.Equal(t, CandidateA, r.Bottom())
	assert.True(t, r.prefers(CandidateC, CandidateA))
	assert.False(t, r.prefers(CandidateA, CandidateB))

	_, err = ParseRanking("abb")
	assert.Error(t, err)

	assert.Equal(t, CandidateB, otherCandidate(CandidateA, CandidateC))

	t.Logf("✓ Rankings")
}

func TestWeakOrder(t *testing.T) {
	lover, err := ParseWeakOrder("a>b~c")
	require.NoError(t, err)
	assert.True(t, lover.IsLover())
	assert.False(t, lover.IsHater())
	assert.True(t, lover.prefers(CandidateA, CandidateB))
	assert.False(t, lover.prefers(CandidateB, CandidateC))

	hater, err := ParseWeakOrder("b~c>a")
	require.NoError(t, err)
	assert.True(t, hater.IsHater())
	assert.Equal(t, CandidateA, hater.low())
	assert.True(t, hater.prefers(CandidateC, CandidateA))
	assert.False(t, hater.prefers(CandidateB, CandidateC))

	_, err = ParseWeakOrder("a>b>c")
	assert.Error(t, err)

	t.Logf("✓ Weak orders")
}

func TestBallotsPerRule(t *testing.T) {
	tests := []struct {
		rule      VotingRule
		low, high Ballot
	}{
		{Approval, "a", "ab"},
		{Plurality, "a", "b"},
		{AntiPlurality, "ac", "ab"},
	}
	for _, tt := range tests {
		t.Run(string(tt.rule), func(t *testing.T) {
			assert.Equal(t, tt.low, BallotLowU("abc", tt.rule))
			assert.Equal(t, tt.high, BallotHighU("abc", tt.rule))
			assert.True(t, tt.rule.allows(tt.low))
			assert.True(t, tt.rule.allows(tt.high))
		})
	}

	assert.False(t, Plurality.allows("ab"))
	assert.False(t, AntiPlurality.allows("a"))
	_, err := ParseVotingRule("borda")
	assert.Error(t, err)

	t.Logf("✓ Low and high ballots per voting rule")
}
