package poisson

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ProfileOrdinal is a profile known only through its rankings and weak
// orders. Ordinal strategies are evaluated without utilities: a best
// response whose ballot depends on the utility makes the check
// UTILITY_DEPENDENT rather than conclusive.
type ProfileOrdinal[T Number[T]] struct {
	*Profile[T]
}

// NewProfileOrdinal validates the shares.
func NewProfileOrdinal[T Number[T]](rankings map[Ranking]T, weakOrders map[WeakOrder]T, cfg ProfileConfig) (*ProfileOrdinal[T], error) {
	p, err := newProfile(rankings, weakOrders, cfg)
	if err != nil {
		return nil, err
	}
	return &ProfileOrdinal[T]{Profile: p}, nil
}

// Tau is the tau-vector when each present ranking casts its ballot in s and
// weak-order voters vote fanatically.
func (p *ProfileOrdinal[T]) Tau(s *StrategyOrdinal[T]) (*TauVector[T], error) {
	t := make(map[Ballot]T, len(Ballots))
	for _, r := range p.SupportInRankings() {
		b := s.ballots[r]
		if b == "" {
			return nil, fmt.Errorf("%w: ranking %s is present but not specified", ErrInvalidStrategy, r)
		}
		addShare(t, b, p.RankingShare(r))
	}
	addTau(t, p.WeakVotersFanatic(), one[T]())
	return NewTauVector(t, p.cfg.tauConfig())
}

// IsEquilibrium checks whether every present ranking's best response to
// Tau(s) is the ballot it casts in s. A present ranking left unset, or an
// undefined best response, gives INCONCLUSIVE.
func (p *ProfileOrdinal[T]) IsEquilibrium(s *StrategyOrdinal[T]) (EquilibriumStatus, error) {
	for _, r := range p.SupportInRankings() {
		if s.ballots[r] == "" {
			return StatusInconclusive, nil
		}
	}
	tau, err := p.Tau(s)
	if err != nil {
		return "", err
	}
	status := StatusEquilibrium
	for _, r := range p.SupportInRankings() {
		br, err := tau.BestResponse(r)
		switch {
		case errors.Is(err, ErrUndefinedBestResponse):
			return StatusInconclusive, nil
		case err != nil:
			return "", err
		}
		switch br.Ballot {
		case UtilityDependent:
			status = StatusUtilityDependent
		case s.ballots[r]:
		default:
			return StatusNotEquilibrium, nil
		}
	}
	return status, nil
}

// AnalyzeStrategiesOrdinal classifies every ordinal strategy of p.
func (p *ProfileOrdinal[T]) AnalyzeStrategiesOrdinal(ctx context.Context, opts AnalyzeOptions) (*AnalyzedStrategies[*StrategyOrdinal[T]], error) {
	if opts.Logger == nil {
		opts.Logger = p.cfg.Logger
	}
	return AnalyzeStrategies(ctx, p.StrategiesOrdinal(), p.IsEquilibrium, opts)
}

// String lists the present rankings and weak orders, e.g.
// "<abc: 2/5, bac: 3/5>".
func (p *ProfileOrdinal[T]) String() string {
	var parts []string
	for _, r := range p.SupportInRankings() {
		parts = append(parts, fmt.Sprintf("%s: %v", r, p.RankingShare(r)))
	}
	for _, w := range p.SupportInWeakOrders() {
		parts = append(parts, fmt.Sprintf("%s: %v", w, p.WeakOrderShare(w)))
	}
	s := "<" + strings.Join(parts, ", ") + ">"
	if p.cfg.Rule != Approval {
		s += fmt.Sprintf(" (%s)", p.cfg.Rule)
	}
	return s
}
