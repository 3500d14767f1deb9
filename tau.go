package poisson

import (
	"fmt"
	"math"
	"strings"
	"sync"
)

// memo is a single-assignment cell: f runs at most once, even under
// concurrent readers.
type memo[V any] struct {
	once sync.Once
	v    V
}

func (m *memo[V]) get(f func() V) V {
	m.once.Do(func() { m.v = f() })
	return m.v
}

// TauConfig holds the voting rule and the tolerances of a tau-vector.
type TauConfig struct {
	Rule      VotingRule
	Precision Precision
}

// DefaultTauConfig returns approval voting with the default precision.
func DefaultTauConfig() TauConfig {
	return TauConfig{Rule: Approval, Precision: DefaultPrecision()}
}

type brResult struct {
	br  *BestResponse
	err error
}

// TauVector is the distribution of ballots: one share per ballot, summing to
// 1. Events and best responses are computed on first use and cached; a
// TauVector is safe for concurrent use and must not be copied.
type TauVector[T Number[T]] struct {
	shares [6]T
	cfg    TauConfig

	consecutiveZeros memo[bool]
	// Indexed by pairIndex.
	duos    [3]memo[*Event]
	weak    [3]memo[*Event]
	strict  [3]memo[*Event]
	trio    memo[*Event]
	tij     [6]memo[*Event]
	tjk     [6]memo[*Event]
	trio1t  [6]memo[*Event]
	trio2t  [6]memo[*Event]
	answers [6]memo[brResult]
}

// NewTauVector validates and wraps shares. Missing ballots have share 0 and
// ballots may be written in any letter order. A negative share, an unknown
// ballot, a share on a ballot the rule forbids, or a sum farther than
// Precision.ShareAbs from 1 is ErrInvalidTau. Shares are not normalized; see
// NormalizedTauVector.
func NewTauVector[T Number[T]](shares map[Ballot]T, cfg TauConfig) (*TauVector[T], error) {
	if cfg.Rule == "" {
		cfg.Rule = Approval
	}
	cfg.Precision = cfg.Precision.orDefault()
	if _, err := ParseVotingRule(string(cfg.Rule)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTau, err)
	}
	tv := &TauVector[T]{cfg: cfg}
	for i := range tv.shares {
		tv.shares[i] = zero[T]()
	}
	for raw, share := range shares {
		b, err := ParseBallot(string(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTau, err)
		}
		if share.Sign() < 0 {
			return nil, fmt.Errorf("%w: negative share %v for %s", ErrInvalidTau, share, b)
		}
		if share.Sign() > 0 && !cfg.Rule.allows(b) {
			return nil, fmt.Errorf("%w: ballot %s is not allowed in %s", ErrInvalidTau, b, cfg.Rule)
		}
		tv.shares[b.Index()] = tv.shares[b.Index()].Add(share)
	}
	total := sum(tv.shares[:]...)
	if math.Abs(total.Float64()-1) > cfg.Precision.ShareAbs {
		return nil, fmt.Errorf("%w: shares sum to %v", ErrInvalidTau, total)
	}
	return tv, nil
}

// NormalizedTauVector divides the shares by their sum before validation.
func NormalizedTauVector[T Number[T]](shares map[Ballot]T, cfg TauConfig) (*TauVector[T], error) {
	total := zero[T]()
	for _, s := range shares {
		total = total.Add(s)
	}
	if total.Sign() <= 0 {
		return nil, fmt.Errorf("%w: shares sum to %v", ErrInvalidTau, total)
	}
	normalized := make(map[Ballot]T, len(shares))
	for b, s := range shares {
		normalized[b] = s.Quo(total)
	}
	return NewTauVector(normalized, cfg)
}

// ParseTauVector parses shares such as {"a": "1/10", "ab": "0.6"}.
func ParseTauVector[T Number[T]](shares map[string]string, cfg TauConfig) (*TauVector[T], error) {
	parsed := make(map[Ballot]T, len(shares))
	for b, s := range shares {
		v, err := ParseNumber[T](s)
		if err != nil {
			return nil, fmt.Errorf("%w: ballot %s: %v", ErrInvalidTau, b, err)
		}
		parsed[Ballot(b)] = v
	}
	return NewTauVector(parsed, cfg)
}

// MustTauVector is NewTauVector that panics on invalid input.
func MustTauVector[T Number[T]](shares map[Ballot]T, cfg TauConfig) *TauVector[T] {
	tv, err := NewTauVector(shares, cfg)
	if err != nil {
		panic("poisson: " + err.Error())
	}
	return tv
}

// Rule returns the voting rule.
func (tv *TauVector[T]) Rule() VotingRule { return tv.cfg.Rule }

// Config returns the configuration the vector was built with.
func (tv *TauVector[T]) Config() TauConfig { return tv.cfg }

// Share returns the share of b; 0 for a ballot outside the six.
func (tv *TauVector[T]) Share(b Ballot) T {
	if i := b.Index(); i >= 0 {
		return tv.shares[i]
	}
	return zero[T]()
}

// Shares returns a copy of the shares, keyed by ballot.
func (tv *TauVector[T]) Shares() map[Ballot]T {
	m := make(map[Ballot]T, len(Ballots))
	for i, b := range Ballots {
		m[b] = tv.shares[i]
	}
	return m
}

// slice returns the shares of the triple (x, y, z) in slot order.
func (tv *TauVector[T]) slice(x, y, z Candidate) rates {
	var tau [6]T
	for i, b := range triple(x, y, z) {
		tau[i] = tv.Share(b)
	}
	return ratesOf(tau)
}

func pairIndex(i, j Candidate) int { return otherCandidate(i, j).index() }

// canonical orders a pair alphabetically and completes the triple.
func canonical(i, j Candidate) (Candidate, Candidate, Candidate) {
	if i > j {
		i, j = j, i
	}
	return i, j, otherCandidate(i, j)
}

func (tv *TauVector[T]) pairEvent(cells *[3]memo[*Event], kind EventKind, i, j Candidate) *Event {
	x, y, z := canonical(i, j)
	return cells[pairIndex(x, y)].get(func() *Event {
		return newEvent(kind, x, y, z, tv.slice(x, y, z))
	})
}

// Duo is the event S_i = S_j. Duo(i, j) and Duo(j, i) are the same event.
func (tv *TauVector[T]) Duo(i, j Candidate) *Event {
	return tv.pairEvent(&tv.duos, KindDuo, i, j)
}

// PivotWeak is the event S_i = S_j >= S_k.
func (tv *TauVector[T]) PivotWeak(i, j Candidate) *Event {
	return tv.pairEvent(&tv.weak, KindPivotWeak, i, j)
}

// PivotStrict is the event S_i = S_j > S_k.
func (tv *TauVector[T]) PivotStrict(i, j Candidate) *Event {
	return tv.pairEvent(&tv.strict, KindPivotStrict, i, j)
}

// Pivot is the pivot between i and j: strict, unless the third candidate
// gets no ballot at all, in which case i and j are the only contenders and
// the pivot is weak.
func (tv *TauVector[T]) Pivot(i, j Candidate) *Event {
	k := otherCandidate(i, j)
	support := sum(tv.Share(MakeBallot(k)), tv.Share(MakeBallot(i, k)), tv.Share(MakeBallot(j, k)))
	if isZero(support) {
		return tv.PivotWeak(i, j)
	}
	return tv.PivotStrict(i, j)
}

// Trio is the event S_a = S_b = S_c.
func (tv *TauVector[T]) Trio() *Event {
	return tv.trio.get(func() *Event {
		return newEvent(KindTrio, CandidateA, CandidateB, CandidateC, tv.slice(CandidateA, CandidateB, CandidateC))
	})
}

func (tv *TauVector[T]) rankingEvent(cells *[6]memo[*Event], kind EventKind, r Ranking) *Event {
	idx := r.Index()
	if idx < 0 {
		panic(fmt.Sprintf("poisson: unknown ranking %q", r))
	}
	return cells[idx].get(func() *Event {
		x, y, z := r.Top(), r.Middle(), r.Bottom()
		return newEvent(kind, x, y, z, tv.slice(x, y, z))
	})
}

// PivotTij is the personalized pivot between the two preferred candidates
// of a voter with ranking r.
func (tv *TauVector[T]) PivotTij(r Ranking) *Event {
	return tv.rankingEvent(&tv.tij, KindPivotTij, r)
}

// PivotTjk is the personalized pivot between the two least preferred
// candidates of a voter with ranking r.
func (tv *TauVector[T]) PivotTjk(r Ranking) *Event {
	return tv.rankingEvent(&tv.tjk, KindPivotTjk, r)
}

// Trio1t is the personalized trio S_i+1 = S_j = S_k for ranking ijk.
func (tv *TauVector[T]) Trio1t(r Ranking) *Event {
	return tv.rankingEvent(&tv.trio1t, KindTrio1t, r)
}

// Trio2t is the personalized trio S_i+1 = S_j+1 = S_k for ranking ijk.
func (tv *TauVector[T]) Trio2t(r Ranking) *Event {
	return tv.rankingEvent(&tv.trio2t, KindTrio2t, r)
}

// HasTwoConsecutiveZeros reports whether two neighbours of the compass
// diagram a, ab, b, bc, c, ac (cyclic) both have share 0.
func (tv *TauVector[T]) HasTwoConsecutiveZeros() bool {
	return tv.consecutiveZeros.get(func() bool {
		for i, b := range compass {
			next := compass[(i+1)%len(compass)]
			if isZero(tv.Share(b)) && isZero(tv.Share(next)) {
				return true
			}
		}
		return false
	})
}

// BestResponse returns the best response of a voter with ranking r.
func (tv *TauVector[T]) BestResponse(r Ranking) (*BestResponse, error) {
	idx := r.Index()
	if idx < 0 {
		return nil, fmt.Errorf("best response: unknown ranking %q", r)
	}
	res := tv.answers[idx].get(func() brResult {
		br, err := computeBestResponse(tv, r)
		return brResult{br: br, err: err}
	})
	return res.br, res.err
}

// RankingBestResponses returns the best response of every ranking.
func (tv *TauVector[T]) RankingBestResponses() (map[Ranking]*BestResponse, error) {
	out := make(map[Ranking]*BestResponse, len(Rankings))
	for _, r := range Rankings {
		br, err := tv.BestResponse(r)
		if err != nil {
			return nil, err
		}
		out[r] = br
	}
	return out, nil
}

// IsClose reports whether every share of tv is within Precision.ShareAbs of
// the share of other.
func (tv *TauVector[T]) IsClose(other *TauVector[T]) bool {
	tol := Tolerance{Abs: tv.cfg.Precision.ShareAbs}
	for i := range tv.shares {
		if !tol.IsClose(tv.shares[i].Float64(), other.shares[i].Float64()) {
			return false
		}
	}
	return true
}

// String lists the positive shares, e.g. "<a: 1/10, ab: 3/5, c: 3/10>".
func (tv *TauVector[T]) String() string {
	var parts []string
	for i, b := range Ballots {
		if !isZero(tv.shares[i]) {
			parts = append(parts, fmt.Sprintf("%s: %v", b, tv.shares[i]))
		}
	}
	return "<" + strings.Join(parts, ", ") + ">"
}
