package poisson

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoLeaders(t *testing.T) *ProfileOrdinal[Rat] {
	t.Helper()
	p, err := NewProfileOrdinal(map[Ranking]Rat{
		"abc": NewRat(2, 5),
		"bac": NewRat(2, 5),
		"cab": NewRat(1, 5),
	}, nil, DefaultProfileConfig())
	require.NoError(t, err)
	return p
}

func shareStrings(m map[Ballot]Rat) map[Ballot]string {
	out := make(map[Ballot]string)
	for b, s := range m {
		if !isZero(s) {
			out[b] = s.String()
		}
	}
	return out
}

func TestProfile_MajorityStatistics(t *testing.T) {
	p := twoLeaders(t)

	m := p.WeightedMajGraph()
	a, b, c := CandidateA.index(), CandidateB.index(), CandidateC.index()
	assert.Equal(t, "1/5", m[a][b].String())
	assert.Equal(t, "-1/5", m[b][a].String())
	assert.Equal(t, "3/5", m[a][c].String())
	assert.Equal(t, "3/5", m[b][c].String())
	assert.Equal(t, "0", m[a][a].String())

	assert.Equal(t, []Candidate{CandidateA}, p.CondorcetWinners())
	assert.Equal(t, 1.0, p.IsProfileCondorcet())
	assert.False(t, p.HasMajorityFavorite())
	assert.False(t, p.HasMajorityRanking())
	assert.True(t, p.IsSinglePeaked(), "a is never ranked last")
	assert.Equal(t, []Ranking{"abc", "bac", "cab"}, p.SupportInRankings())
	assert.False(t, p.IsGenericInRankings())

	t.Logf("✓ %v", p)
}

func TestProfile_CondorcetCycle(t *testing.T) {
	third := NewRat(1, 3)
	p, err := NewProfileOrdinal(map[Ranking]Rat{"abc": third, "bca": third, "cab": third}, nil, DefaultProfileConfig())
	require.NoError(t, err)

	assert.Empty(t, p.CondorcetWinners())
	assert.Equal(t, 0.0, p.IsProfileCondorcet())
	assert.False(t, p.IsSinglePeaked())

	tie, err := NewProfileOrdinal(map[Ranking]Rat{"abc": NewRat(1, 2), "bac": NewRat(1, 2)}, nil, DefaultProfileConfig())
	require.NoError(t, err)
	assert.Equal(t, []Candidate{CandidateA, CandidateB}, tie.CondorcetWinners())
	assert.Equal(t, 0.5, tie.IsProfileCondorcet())

	t.Logf("✓ Condorcet paradox and weak winners")
}

func TestProfile_Majorities(t *testing.T) {
	p, err := NewProfileOrdinal(map[Ranking]Rat{"abc": NewRat(3, 10), "acb": NewRat(3, 10), "bca": NewRat(2, 5)}, nil, DefaultProfileConfig())
	require.NoError(t, err)
	assert.True(t, p.HasMajorityFavorite(), "a is first for 60%")
	assert.False(t, p.HasMajorityRanking())

	p, err = NewProfileOrdinal(map[Ranking]Rat{"abc": NewRat(3, 5), "bca": NewRat(2, 5)}, nil, DefaultProfileConfig())
	require.NoError(t, err)
	assert.True(t, p.HasMajorityRanking())
}

func TestProfile_WeakVoters(t *testing.T) {
	tests := []struct {
		name    string
		weak    WeakOrder
		rule    VotingRule
		fanatic map[Ballot]string
		sincere map[Ballot]string
	}{
		{
			name:    "hater in approval",
			weak:    "a~b>c",
			rule:    Approval,
			fanatic: map[Ballot]string{"a": "1/20", "b": "1/20"},
			sincere: map[Ballot]string{"ab": "1/10"},
		},
		{
			name:    "hater in plurality",
			weak:    "a~b>c",
			rule:    Plurality,
			fanatic: map[Ballot]string{"a": "1/20", "b": "1/20"},
			sincere: map[Ballot]string{"a": "1/20", "b": "1/20"},
		},
		{
			name:    "hater in anti-plurality",
			weak:    "a~b>c",
			rule:    AntiPlurality,
			fanatic: map[Ballot]string{"ab": "1/10"},
			sincere: map[Ballot]string{"ab": "1/10"},
		},
		{
			name:    "lover in approval",
			weak:    "a>b~c",
			rule:    Approval,
			fanatic: map[Ballot]string{"a": "1/10"},
			sincere: map[Ballot]string{"a": "1/10"},
		},
		{
			name:    "lover in anti-plurality",
			weak:    "a>b~c",
			rule:    AntiPlurality,
			fanatic: map[Ballot]string{"ab": "1/20", "ac": "1/20"},
			sincere: map[Ballot]string{"ab": "1/20", "ac": "1/20"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProfileOrdinal(
				map[Ranking]Rat{"abc": NewRat(9, 10)},
				map[WeakOrder]Rat{tt.weak: NewRat(1, 10)},
				ProfileConfig{Rule: tt.rule},
			)
			require.NoError(t, err)
			assert.Equal(t, tt.fanatic, shareStrings(p.WeakVotersFanatic()))
			assert.Equal(t, tt.sincere, shareStrings(p.WeakVotersSincere()))
			assert.Equal(t, []WeakOrder{tt.weak}, p.SupportInWeakOrders())
		})
	}

	t.Logf("✓ Weak-order voters split or pair according to the rule")
}

func TestProfile_WeakOrdersInMajorityGraph(t *testing.T) {
	p, err := NewProfileOrdinal(
		map[Ranking]Rat{"cab": NewRat(1, 2)},
		map[WeakOrder]Rat{"a~b>c": NewRat(1, 2)},
		DefaultProfileConfig(),
	)
	require.NoError(t, err)

	m := p.WeightedMajGraph()
	a, b, c := CandidateA.index(), CandidateB.index(), CandidateC.index()
	assert.Equal(t, "1/2", m[a][b].String(), "haters are indifferent between a and b")
	assert.Equal(t, "0", m[a][c].String())
	assert.Equal(t, "0", m[c][b].String())
	assert.Equal(t, "<cab: 1/2, a~b>c: 1/2>", p.String())
}

func TestNewProfile_Invalid(t *testing.T) {
	_, err := NewProfileOrdinal(map[Ranking]Rat{"abc": NewRat(1, 2)}, nil, DefaultProfileConfig())
	assert.ErrorIs(t, err, ErrInvalidProfile)

	_, err = NewProfileOrdinal(map[Ranking]Rat{"abc": NewRat(3, 2), "bac": NewRat(-1, 2)}, nil, DefaultProfileConfig())
	assert.ErrorIs(t, err, ErrInvalidProfile)

	_, err = NewProfileOrdinal(map[Ranking]Rat{"abd": NewRat(1, 1)}, nil, DefaultProfileConfig())
	assert.ErrorIs(t, err, ErrInvalidProfile)

	_, err = NewProfileOrdinal(map[Ranking]Rat{"abc": NewRat(1, 1)}, nil, ProfileConfig{Rule: "borda"})
	assert.ErrorIs(t, err, ErrInvalidProfile)

	_, err = NewProfileDiscrete(map[Ranking][]UtilityShare[Rat]{
		"abc": {{Utility: NewRat(3, 2), Share: NewRat(1, 1)}},
	}, nil, Rat{}, DefaultProfileConfig())
	assert.ErrorIs(t, err, ErrInvalidProfile)

	_, err = NewProfileDiscrete(map[Ranking][]UtilityShare[Rat]{
		"abc": {{Utility: NewRat(1, 2), Share: NewRat(1, 1)}},
	}, nil, NewRat(2, 1), DefaultProfileConfig())
	assert.ErrorIs(t, err, ErrInvalidProfile)
}

func TestProfileOrdinal_IsEquilibrium(t *testing.T) {
	p := twoLeaders(t)

	tests := []struct {
		name    string
		ballots map[Ranking]string
		want    EquilibriumStatus
	}{
		{"outsider votes for a too", map[Ranking]string{"abc": "a", "bac": "b", "cab": "ac"}, StatusEquilibrium},
		{"outsider wastes the vote", map[Ranking]string{"abc": "a", "bac": "b", "cab": "c"}, StatusNotEquilibrium},
		{"present ranking unset", map[Ranking]string{"abc": "a", "bac": "b"}, StatusInconclusive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := MustStrategyOrdinal[Rat](tt.ballots, Approval)
			AssertEquilibrium(t, s, tt.want, p.IsEquilibrium)
		})
	}

	tau, err := p.Tau(MustStrategyOrdinal[Rat](map[Ranking]string{"abc": "a", "bac": "b", "cab": "ac"}, Approval))
	require.NoError(t, err)
	assert.Equal(t, "<a: 2/5, b: 2/5, ac: 1/5>", tau.String())
	AssertTauSumsToOne(t, tau)

	_, err = p.Tau(MustStrategyOrdinal[Rat](map[Ranking]string{"abc": "a"}, Approval))
	assert.ErrorIs(t, err, ErrInvalidStrategy)
}

func TestProfileOrdinal_UtilityDependent(t *testing.T) {
	third := NewRat(1, 3)
	p, err := NewProfileOrdinal(map[Ranking]Rat{"abc": third, "bca": third, "cab": third}, nil, DefaultProfileConfig())
	require.NoError(t, err)

	s := MustStrategyOrdinal[Rat](map[Ranking]string{"abc": "a", "bca": "b", "cab": "c"}, Approval)
	AssertEquilibrium(t, s, StatusUtilityDependent, p.IsEquilibrium)
}

func TestProfileOrdinal_StrategiesAndAnalysis(t *testing.T) {
	p := twoLeaders(t)

	strategies := p.StrategiesOrdinal()
	require.Len(t, strategies, 8, "two ballots for each of three present rankings")
	for _, s := range strategies {
		assert.Len(t, s.Rankings(), len(Rankings))
	}

	analyzed, err := p.AnalyzeStrategiesOrdinal(context.Background(), AnalyzeOptions{Workers: 3})
	require.NoError(t, err)
	assert.Equal(t, 8, analyzed.Len())
	assert.Empty(t, analyzed.Inconclusive)

	want := MustStrategyOrdinal[Rat](map[Ranking]string{
		"abc": "a", "acb": "", "bac": "b", "bca": "", "cab": "ac", "cba": "",
	}, Approval)
	found := false
	for _, s := range analyzed.Equilibria {
		if s.Equal(want) {
			found = true
		}
	}
	assert.True(t, found, "%v is among the equilibria %v", want, analyzed.Equilibria)

	t.Logf("✓ %d equilibria among %d strategies", len(analyzed.Equilibria), analyzed.Len())
}

func discreteTwoLeaders(t *testing.T) *ProfileDiscrete[Rat] {
	t.Helper()
	p, err := NewProfileDiscrete(map[Ranking][]UtilityShare[Rat]{
		"abc": {{Utility: NewRat(3, 10), Share: NewRat(2, 5)}},
		"bac": {{Utility: NewRat(3, 10), Share: NewRat(1, 5)}, {Utility: NewRat(3, 10), Share: NewRat(1, 5)}},
		"cab": {{Utility: NewRat(7, 10), Share: NewRat(1, 5)}, {Utility: NewRat(1, 10), Share: Rat{}}},
	}, nil, Rat{}, DefaultProfileConfig())
	require.NoError(t, err)
	return p
}

func TestProfileDiscrete(t *testing.T) {
	p := discreteTwoLeaders(t)

	assert.Equal(t, "<abc: {3/10: 2/5}, bac: {3/10: 2/5}, cab: {7/10: 1/5}>", p.String())
	require.Len(t, p.Types("bac"), 1, "duplicate utilities merge")
	assert.Equal(t, "2/5", p.Types("bac")[0].Share.String())
	assert.Empty(t, p.Types("cba"))
	assert.Equal(t, "2/5", p.RankingShare("abc").String())

	d := p.Utilities()
	assert.Equal(t, "1/5", d.ShareAbove("cab", NewRat(1, 2)).String())
	assert.Equal(t, "2/5", d.ShareAt("abc", NewRat(3, 10)).String())
	assert.Equal(t, "0", d.ShareBelow("abc", NewRat(3, 10)).String())

	t.Logf("✓ %v", p)
}

func TestProfileDiscrete_Taus(t *testing.T) {
	p := discreteTwoLeaders(t)

	sincere, err := p.TauSincere()
	require.NoError(t, err)
	assert.Equal(t, "<a: 2/5, b: 2/5, ac: 1/5>", sincere.String())

	s, err := StrategyFromValues(map[Ranking]Rat{"abc": NewRat(1, 5), "bac": NewRat(3, 10), "cab": NewRat(1, 1)}, Approval)
	require.NoError(t, err)
	tau, err := p.TauStrategic(s)
	require.NoError(t, err)
	assert.Equal(t, "<b: 2/5, c: 1/5, ab: 2/5>", tau.String(), "voters at the threshold cast the low ballot")

	_, err = p.TauStrategic(s.Restrict(func(r Ranking) bool { return r != "cab" }))
	assert.ErrorIs(t, err, ErrInvalidStrategy)
}

func TestProfileDiscrete_RatioSincere(t *testing.T) {
	p, err := NewProfileDiscrete(map[Ranking][]UtilityShare[Rat]{
		"abc": {{Utility: NewRat(4, 5), Share: NewRat(1, 1)}},
	}, nil, NewRat(1, 4), DefaultProfileConfig())
	require.NoError(t, err)

	s, err := StrategyFromValues(map[Ranking]Rat{"abc": NewRat(1, 1)}, Approval)
	require.NoError(t, err)
	tau, err := p.Tau(s)
	require.NoError(t, err)
	assert.Equal(t, "<a: 3/4, ab: 1/4>", tau.String())
	assert.Contains(t, p.String(), "(ratio_sincere: 1/4)")
}

func TestProfileDiscrete_IsEquilibrium(t *testing.T) {
	p := discreteTwoLeaders(t)

	eq, err := StrategyFromValues(map[Ranking]Rat{"abc": NewRat(1, 1), "bac": NewRat(1, 1), "cab": Rat{}}, Approval)
	require.NoError(t, err)
	AssertEquilibrium(t, eq, StatusEquilibrium, p.IsEquilibrium)

	wasted, err := StrategyFromValues(map[Ranking]Rat{"abc": NewRat(1, 1), "bac": NewRat(1, 1), "cab": NewRat(1, 1)}, Approval)
	require.NoError(t, err)
	AssertEquilibrium(t, wasted, StatusNotEquilibrium, p.IsEquilibrium)

	partial, err := StrategyFromValues(map[Ranking]Rat{"abc": NewRat(1, 1)}, Approval)
	require.NoError(t, err)
	AssertEquilibrium(t, partial, StatusInconclusive, p.IsEquilibrium)
}

func TestProfileDiscrete_IteratedVoting(t *testing.T) {
	p := discreteTwoLeaders(t)

	half := NewRat(1, 2)
	start, err := StrategyFromValues(map[Ranking]Rat{"abc": half, "bac": half, "cab": half, "cba": half}, Approval)
	require.NoError(t, err)

	res, err := p.IteratedVoting(start, 10)
	require.NoError(t, err)
	AssertCycle(t, res, 1)

	assert.Equal(t, 2, res.Rounds)
	require.Len(t, res.Trace, 3)
	assert.Equal(t, []Ranking{"abc", "bac", "cab"}, res.Trace[0].Rankings(), "absent rankings are dropped")
	assert.Equal(t, "<abc: 1, bac: 1, cab: 0>", res.Cycle[0].String())
	assert.True(t, res.Trace[1].Equal(res.Trace[2]))
}

func TestProfileDiscrete_AnalyzeStrategiesOrdinal(t *testing.T) {
	p := discreteTwoLeaders(t)

	analyzed, err := p.AnalyzeStrategiesOrdinal(context.Background(), AnalyzeOptions{})
	require.NoError(t, err)
	assert.Equal(t, 8, analyzed.Len())
	assert.NotEmpty(t, analyzed.Equilibria)
	assert.Empty(t, analyzed.UtilityDependent, "cardinal checks never depend on an unknown utility")
}

func TestProfileDiscrete_StrategiesPure(t *testing.T) {
	p, err := NewProfileDiscrete(map[Ranking][]UtilityShare[Rat]{
		"abc": {{Utility: NewRat(4, 5), Share: NewRat(1, 5)}, {Utility: NewRat(3, 10), Share: NewRat(1, 5)}},
		"bac": {{Utility: NewRat(3, 10), Share: NewRat(2, 5)}},
		"cab": {{Utility: Rat{}, Share: NewRat(1, 5)}},
	}, nil, Rat{}, DefaultProfileConfig())
	require.NoError(t, err)

	var got []string
	for _, s := range p.StrategiesPure() {
		got = append(got, s.String())
	}
	assert.Equal(t, []string{
		"<abc: 1, bac: 1, cab: 1>",
		"<abc: 1, bac: 0, cab: 1>",
		"<abc: 11/20, bac: 1, cab: 1>",
		"<abc: 11/20, bac: 0, cab: 1>",
		"<abc: 0, bac: 1, cab: 1>",
		"<abc: 0, bac: 0, cab: 1>",
	}, got, "cab voters sit at utility 0 and always stay below")

	t.Logf("✓ %d pure strategies", len(got))
}

func TestProfileDiscrete_AnalyzeStrategiesPure(t *testing.T) {
	p := discreteTwoLeaders(t)

	pure, err := p.AnalyzeStrategiesPure(context.Background(), AnalyzeOptions{Workers: 2})
	require.NoError(t, err)
	ordinal, err := p.AnalyzeStrategiesOrdinal(context.Background(), AnalyzeOptions{Workers: 2})
	require.NoError(t, err)

	// One utility level per ranking: the pure strategies are the ordinal ones.
	assert.Equal(t, 8, pure.Len())
	assert.Len(t, pure.Equilibria, len(ordinal.Equilibria))
	for _, s := range pure.Equilibria {
		status, err := p.IsEquilibrium(s)
		require.NoError(t, err)
		assert.Equal(t, StatusEquilibrium, status, "%v", s)
	}
}
