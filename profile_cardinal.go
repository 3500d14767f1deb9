package poisson

import (
	"context"
	"errors"
	"fmt"
)

// UtilityDistribution describes, per ranking, the utilities of voters for
// their middle candidate (top is 1, bottom is 0).
type UtilityDistribution[T Number[T]] interface {
	// ShareAbove is the share of voters with ranking r and utility > u.
	ShareAbove(r Ranking, u T) T
	// ShareAt is the share of voters with ranking r and utility = u.
	ShareAt(r Ranking, u T) T
	// ShareBelow is the share of voters with ranking r and utility < u.
	ShareBelow(r Ranking, u T) T
}

type tauResult[T Number[T]] struct {
	tv  *TauVector[T]
	err error
}

// ProfileCardinal is a profile where the voters of each ranking have a
// distribution of utilities, plus weak-order voters. A share RatioSincere of
// the voters vote sincerely; the others follow a threshold strategy.
type ProfileCardinal[T Number[T]] struct {
	*Profile[T]
	dist         UtilityDistribution[T]
	ratioSincere T
	sincere      memo[tauResult[T]]
}

// NewProfileCardinal derives ranking shares from dist and validates the
// whole population.
func NewProfileCardinal[T Number[T]](dist UtilityDistribution[T], weakOrders map[WeakOrder]T, ratioSincere T, cfg ProfileConfig) (*ProfileCardinal[T], error) {
	if ratioSincere.Sign() < 0 || ratioSincere.Cmp(one[T]()) > 0 {
		return nil, fmt.Errorf("%w: ratio of sincere voters %v is outside [0, 1]", ErrInvalidProfile, ratioSincere)
	}
	rankings := make(map[Ranking]T, len(Rankings))
	for _, r := range Rankings {
		rankings[r] = dist.ShareAbove(r, zero[T]()).Add(dist.ShareAt(r, zero[T]()))
	}
	p, err := newProfile(rankings, weakOrders, cfg)
	if err != nil {
		return nil, err
	}
	return &ProfileCardinal[T]{Profile: p, dist: dist, ratioSincere: ratioSincere}, nil
}

// RatioSincere returns the share of sincere voters.
func (p *ProfileCardinal[T]) RatioSincere() T { return p.ratioSincere }

// Utilities returns the utility distribution.
func (p *ProfileCardinal[T]) Utilities() UtilityDistribution[T] { return p.dist }

func addShare[T Number[T]](t map[Ballot]T, b Ballot, s T) {
	if cur, ok := t[b]; ok {
		t[b] = cur.Add(s)
		return
	}
	t[b] = s
}

// TauSincere is the tau-vector of sincere voting: in approval, voters
// approve their middle candidate iff its utility is above 1/2; in
// plurality they vote for their top candidate; in anti-plurality against
// their bottom one.
func (p *ProfileCardinal[T]) TauSincere() (*TauVector[T], error) {
	res := p.sincere.get(func() tauResult[T] {
		t := make(map[Ballot]T, len(Ballots))
		for _, r := range p.SupportInRankings() {
			share := p.RankingShare(r)
			switch p.cfg.Rule {
			case Plurality:
				addShare(t, MakeBallot(r.Top()), share)
			case AntiPlurality:
				addShare(t, MakeBallot(r.Top(), r.Middle()), share)
			default:
				high := p.dist.ShareAbove(r, frac[T](1, 2))
				addShare(t, BallotLowU(r, p.cfg.Rule), share.Sub(high))
				addShare(t, BallotHighU(r, p.cfg.Rule), high)
			}
		}
		addTau(t, p.WeakVotersSincere(), one[T]())
		tv, err := NewTauVector(t, p.cfg.tauConfig())
		return tauResult[T]{tv: tv, err: err}
	})
	return res.tv, res.err
}

// TauStrategic is the tau-vector when every voter follows s. Every present
// ranking must have a set threshold; voters exactly at the threshold cast
// BallotLowU. Weak-order voters vote fanatically.
func (p *ProfileCardinal[T]) TauStrategic(s *StrategyThreshold[T]) (*TauVector[T], error) {
	t := make(map[Ballot]T, len(Ballots))
	for _, r := range p.SupportInRankings() {
		th, ok := s.Threshold(r)
		if !ok || !th.Valid {
			return nil, fmt.Errorf("%w: ranking %s is present but not specified", ErrInvalidStrategy, r)
		}
		u := th.Value
		addShare(t, BallotLowU(r, p.cfg.Rule), p.dist.ShareAt(r, u).Add(p.dist.ShareBelow(r, u)))
		addShare(t, BallotHighU(r, p.cfg.Rule), p.dist.ShareAbove(r, u))
	}
	addTau(t, p.WeakVotersFanatic(), one[T]())
	return NewTauVector(t, p.cfg.tauConfig())
}

// Tau mixes sincere and strategic voting with weights RatioSincere and
// 1 - RatioSincere.
func (p *ProfileCardinal[T]) Tau(s *StrategyThreshold[T]) (*TauVector[T], error) {
	strategic, err := p.TauStrategic(s)
	if err != nil {
		return nil, err
	}
	if isZero(p.ratioSincere) {
		return strategic, nil
	}
	sincere, err := p.TauSincere()
	if err != nil {
		return nil, err
	}
	t := make(map[Ballot]T, len(Ballots))
	addTau(t, sincere.Shares(), p.ratioSincere)
	addTau(t, strategic.Shares(), one[T]().Sub(p.ratioSincere))
	return NewTauVector(t, p.cfg.tauConfig())
}

// IsEquilibrium checks whether the best responses to Tau(s) induce the same
// tau-vector. It is INCONCLUSIVE when a present ranking is unspecified or
// has an undefined best response. An offset overshoot is returned as an
// error.
func (p *ProfileCardinal[T]) IsEquilibrium(s *StrategyThreshold[T]) (EquilibriumStatus, error) {
	for _, r := range p.SupportInRankings() {
		if th, ok := s.Threshold(r); !ok || !th.Valid {
			return StatusInconclusive, nil
		}
	}
	tau, err := p.Tau(s)
	if err != nil {
		return "", err
	}
	response, err := p.BestResponsesToStrategy(tau)
	switch {
	case errors.Is(err, ErrUndefinedBestResponse):
		return StatusInconclusive, nil
	case err != nil:
		return "", err
	}
	tauResponse, err := p.Tau(response)
	if err != nil {
		return "", err
	}
	if tauResponse.IsClose(tau) {
		return StatusEquilibrium, nil
	}
	return StatusNotEquilibrium, nil
}

// IteratedVoting replaces the strategy by the best responses to its
// tau-vector, at most maxRounds times, and looks for a cycle in the trace.
// The initial strategy is restricted to the present rankings.
func (p *ProfileCardinal[T]) IteratedVoting(init *StrategyThreshold[T], maxRounds int) (*IterationResult[*StrategyThreshold[T]], error) {
	start := init.Restrict(p.present)
	next := func(s *StrategyThreshold[T]) (*StrategyThreshold[T], error) {
		tau, err := p.Tau(s)
		if err != nil {
			return nil, err
		}
		return p.BestResponsesToStrategy(tau)
	}
	closeTol := p.cfg.Precision.zero()
	return Iterate(start, maxRounds, IterateFuncs[*StrategyThreshold[T]]{
		Next:    next,
		Equal:   func(a, b *StrategyThreshold[T]) bool { return a.Equal(b) },
		IsClose: func(a, b *StrategyThreshold[T]) bool { return a.IsClose(b, closeTol) },
		Logger:  p.cfg.logger(),
	})
}

// AnalyzeStrategiesOrdinal classifies every ordinal strategy of p.
func (p *ProfileCardinal[T]) AnalyzeStrategiesOrdinal(ctx context.Context, opts AnalyzeOptions) (*AnalyzedStrategies[*StrategyOrdinal[T]], error) {
	if opts.Logger == nil {
		opts.Logger = p.cfg.Logger
	}
	return AnalyzeStrategies(ctx, p.StrategiesOrdinal(), func(s *StrategyOrdinal[T]) (EquilibriumStatus, error) {
		return p.IsEquilibrium(s.StrategyThreshold)
	}, opts)
}
