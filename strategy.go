package poisson

import (
	"fmt"
	"strings"
)

// Threshold is an optional threshold utility: Valid is false when the
// behaviour of a ranking is left unspecified.
type Threshold[T Number[T]] struct {
	Value T
	Valid bool
}

// ThresholdOf returns a set threshold.
func ThresholdOf[T Number[T]](v T) Threshold[T] { return Threshold[T]{Value: v, Valid: true} }

// Unset returns an unspecified threshold.
func Unset[T Number[T]]() Threshold[T] { return Threshold[T]{} }

func (t Threshold[T]) String() string {
	if !t.Valid {
		return "None"
	}
	return t.Value.String()
}

// StrategyThreshold maps rankings to threshold utilities. A ranking can be
// absent, present but unset, or set to a value in [0, 1]. Voters below the
// threshold cast BallotLowU, voters above cast BallotHighU.
type StrategyThreshold[T Number[T]] struct {
	rule       VotingRule
	thresholds map[Ranking]Threshold[T]
}

// NewStrategyThreshold validates rankings and values.
func NewStrategyThreshold[T Number[T]](thresholds map[Ranking]Threshold[T], rule VotingRule) (*StrategyThreshold[T], error) {
	if rule == "" {
		rule = Approval
	}
	s := &StrategyThreshold[T]{rule: rule, thresholds: make(map[Ranking]Threshold[T], len(thresholds))}
	for r, t := range thresholds {
		if r.Index() < 0 {
			return nil, fmt.Errorf("%w: unknown ranking %q", ErrInvalidStrategy, r)
		}
		if t.Valid && (t.Value.Sign() < 0 || t.Value.Cmp(one[T]()) > 0) {
			return nil, fmt.Errorf("%w: threshold %v for %s is outside [0, 1]", ErrInvalidStrategy, t.Value, r)
		}
		s.thresholds[r] = t
	}
	return s, nil
}

// StrategyFromValues builds a strategy where every given ranking is set.
func StrategyFromValues[T Number[T]](values map[Ranking]T, rule VotingRule) (*StrategyThreshold[T], error) {
	thresholds := make(map[Ranking]Threshold[T], len(values))
	for r, v := range values {
		thresholds[r] = ThresholdOf(v)
	}
	return NewStrategyThreshold(thresholds, rule)
}

// Rule returns the voting rule.
func (s *StrategyThreshold[T]) Rule() VotingRule { return s.rule }

// Threshold returns the threshold of r; ok is false if r is absent.
func (s *StrategyThreshold[T]) Threshold(r Ranking) (t Threshold[T], ok bool) {
	t, ok = s.thresholds[r]
	return t, ok
}

// Rankings lists the rankings mentioned by s, in the order of Rankings.
func (s *StrategyThreshold[T]) Rankings() []Ranking {
	var out []Ranking
	for _, r := range Rankings {
		if _, ok := s.thresholds[r]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Ballot returns the ballot of ranking r: BallotLowU for threshold 1,
// BallotHighU for threshold 0, UtilityDependent in between, and "" for an
// absent or unset ranking.
func (s *StrategyThreshold[T]) Ballot(r Ranking) Ballot {
	t, ok := s.thresholds[r]
	switch {
	case !ok || !t.Valid:
		return ""
	case t.Value.Cmp(one[T]()) == 0:
		return BallotLowU(r, s.rule)
	case t.Value.Sign() == 0:
		return BallotHighU(r, s.rule)
	}
	return UtilityDependent
}

// Restrict keeps the rankings for which keep returns true.
func (s *StrategyThreshold[T]) Restrict(keep func(Ranking) bool) *StrategyThreshold[T] {
	out := &StrategyThreshold[T]{rule: s.rule, thresholds: make(map[Ranking]Threshold[T], len(s.thresholds))}
	for r, t := range s.thresholds {
		if keep(r) {
			out.thresholds[r] = t
		}
	}
	return out
}

// Equal reports exact equality of the rule and every threshold.
func (s *StrategyThreshold[T]) Equal(other *StrategyThreshold[T]) bool {
	return s.compare(other, func(a, b T) bool { return a.Cmp(b) == 0 })
}

// IsClose reports whether s and other mention the same rankings, unset in
// the same places, with thresholds close within tol.
func (s *StrategyThreshold[T]) IsClose(other *StrategyThreshold[T], tol Tolerance) bool {
	return s.compare(other, func(a, b T) bool { return tol.IsClose(a.Float64(), b.Float64()) })
}

func (s *StrategyThreshold[T]) compare(other *StrategyThreshold[T], same func(a, b T) bool) bool {
	if other == nil || s.rule != other.rule || len(s.thresholds) != len(other.thresholds) {
		return false
	}
	for r, t := range s.thresholds {
		u, ok := other.thresholds[r]
		if !ok || t.Valid != u.Valid {
			return false
		}
		if t.Valid && !same(t.Value, u.Value) {
			return false
		}
	}
	return true
}

// String lists the rankings in order, e.g. "<abc: 1/2, bac: None>".
func (s *StrategyThreshold[T]) String() string {
	var parts []string
	for _, r := range s.Rankings() {
		parts = append(parts, fmt.Sprintf("%s: %v", r, s.thresholds[r]))
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

// StrategyOrdinal is a threshold strategy where every voter of a ranking
// casts the same ballot: threshold 1 for BallotLowU, 0 for BallotHighU.
type StrategyOrdinal[T Number[T]] struct {
	*StrategyThreshold[T]
	ballots map[Ranking]Ballot
}

// NewStrategyOrdinal translates ballots such as {"abc": "a", "bac": "ab"}.
// An empty ballot leaves the ranking unset; a pair may be written in either
// letter order.
func NewStrategyOrdinal[T Number[T]](ballots map[Ranking]string, rule VotingRule) (*StrategyOrdinal[T], error) {
	if rule == "" {
		rule = Approval
	}
	thresholds := make(map[Ranking]Threshold[T], len(ballots))
	kept := make(map[Ranking]Ballot, len(ballots))
	for r, raw := range ballots {
		if r.Index() < 0 {
			return nil, fmt.Errorf("%w: unknown ranking %q", ErrInvalidStrategy, r)
		}
		if strings.TrimSpace(raw) == "" {
			thresholds[r] = Unset[T]()
			kept[r] = ""
			continue
		}
		b, err := ParseBallot(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidStrategy, r, err)
		}
		switch b {
		case BallotLowU(r, rule):
			thresholds[r] = ThresholdOf(one[T]())
		case BallotHighU(r, rule):
			thresholds[r] = ThresholdOf(zero[T]())
		default:
			return nil, fmt.Errorf("%w: ballot %s for %s in %s", ErrInvalidStrategy, b, r, rule)
		}
		kept[r] = b
	}
	s, err := NewStrategyThreshold(thresholds, rule)
	if err != nil {
		return nil, err
	}
	return &StrategyOrdinal[T]{StrategyThreshold: s, ballots: kept}, nil
}

// MustStrategyOrdinal is NewStrategyOrdinal that panics on invalid input.
func MustStrategyOrdinal[T Number[T]](ballots map[Ranking]string, rule VotingRule) *StrategyOrdinal[T] {
	s, err := NewStrategyOrdinal[T](ballots, rule)
	if err != nil {
		panic("poisson: " + err.Error())
	}
	return s
}

// Ballots returns a copy of the ballots; unset rankings map to "".
func (s *StrategyOrdinal[T]) Ballots() map[Ranking]Ballot {
	out := make(map[Ranking]Ballot, len(s.ballots))
	for r, b := range s.ballots {
		out[r] = b
	}
	return out
}

// Equal compares ballots.
func (s *StrategyOrdinal[T]) Equal(other *StrategyOrdinal[T]) bool {
	if other == nil || s.rule != other.rule || len(s.ballots) != len(other.ballots) {
		return false
	}
	for r, b := range s.ballots {
		if c, ok := other.ballots[r]; !ok || c != b {
			return false
		}
	}
	return true
}

// String lists the ballots, e.g. "<abc: a, bac: ab, cab: c>".
func (s *StrategyOrdinal[T]) String() string {
	var parts []string
	for _, r := range Rankings {
		if b, ok := s.ballots[r]; ok && b != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", r, b))
		}
	}
	return "<" + strings.Join(parts, ", ") + ">"
}
