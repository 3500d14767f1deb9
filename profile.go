package poisson

import (
	"fmt"
	"log/slog"
	"math"
)

// ProfileConfig holds the voting rule, tolerances and logger of a profile.
type ProfileConfig struct {
	Rule      VotingRule
	Precision Precision
	// Logger receives per-round debug records of iterated voting. Nil means
	// slog.Default().
	Logger *slog.Logger
}

// DefaultProfileConfig returns approval voting with the default precision.
func DefaultProfileConfig() ProfileConfig {
	return ProfileConfig{Rule: Approval, Precision: DefaultPrecision()}
}

func (c ProfileConfig) tauConfig() TauConfig {
	return TauConfig{Rule: c.Rule, Precision: c.Precision}
}

func (c ProfileConfig) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// condorcetMargin is the margin below which a majority duel counts as a tie.
const condorcetMargin = 1e-8

// Profile is the ordinal content of a population: the shares of voters per
// ranking and per weak order. It summarizes majority relations and weak
// voters' ballots; ProfileCardinal and ProfileOrdinal add strategic
// behaviour on top of it.
type Profile[T Number[T]] struct {
	cfg        ProfileConfig
	rankings   [6]T
	weakOrders [6]T
}

func newProfile[T Number[T]](rankings map[Ranking]T, weakOrders map[WeakOrder]T, cfg ProfileConfig) (*Profile[T], error) {
	if cfg.Rule == "" {
		cfg.Rule = Approval
	}
	cfg.Precision = cfg.Precision.orDefault()
	if _, err := ParseVotingRule(string(cfg.Rule)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	p := &Profile[T]{cfg: cfg}
	for i := range p.rankings {
		p.rankings[i] = zero[T]()
		p.weakOrders[i] = zero[T]()
	}
	for r, s := range rankings {
		if r.Index() < 0 {
			return nil, fmt.Errorf("%w: unknown ranking %q", ErrInvalidProfile, r)
		}
		if s.Sign() < 0 {
			return nil, fmt.Errorf("%w: negative share %v for %s", ErrInvalidProfile, s, r)
		}
		p.rankings[r.Index()] = p.rankings[r.Index()].Add(s)
	}
	for w, s := range weakOrders {
		if w.Index() < 0 {
			return nil, fmt.Errorf("%w: unknown weak order %q", ErrInvalidProfile, w)
		}
		if s.Sign() < 0 {
			return nil, fmt.Errorf("%w: negative share %v for %s", ErrInvalidProfile, s, w)
		}
		p.weakOrders[w.Index()] = p.weakOrders[w.Index()].Add(s)
	}
	total := sum(p.rankings[:]...).Add(sum(p.weakOrders[:]...))
	if math.Abs(total.Float64()-1) > cfg.Precision.ShareAbs {
		return nil, fmt.Errorf("%w: shares sum to %v", ErrInvalidProfile, total)
	}
	return p, nil
}

// Rule returns the voting rule.
func (p *Profile[T]) Rule() VotingRule { return p.cfg.Rule }

// Config returns the configuration of the profile.
func (p *Profile[T]) Config() ProfileConfig { return p.cfg }

// RankingShare returns the share of voters with ranking r.
func (p *Profile[T]) RankingShare(r Ranking) T {
	if i := r.Index(); i >= 0 {
		return p.rankings[i]
	}
	return zero[T]()
}

// WeakOrderShare returns the share of voters with weak order w.
func (p *Profile[T]) WeakOrderShare(w WeakOrder) T {
	if i := w.Index(); i >= 0 {
		return p.weakOrders[i]
	}
	return zero[T]()
}

// present reports whether ranking r has a positive share.
func (p *Profile[T]) present(r Ranking) bool { return p.RankingShare(r).Sign() > 0 }

// WeightedMajGraph returns m where m[x][y] is the share preferring x to y
// minus the share preferring y to x.
func (p *Profile[T]) WeightedMajGraph() [3][3]T {
	var m [3][3]T
	for x := range m {
		for y := range m[x] {
			m[x][y] = zero[T]()
		}
	}
	for _, x := range Candidates {
		for _, y := range Candidates {
			if x == y {
				continue
			}
			margin := zero[T]()
			for i, r := range Rankings {
				switch {
				case r.prefers(x, y):
					margin = margin.Add(p.rankings[i])
				case r.prefers(y, x):
					margin = margin.Sub(p.rankings[i])
				}
			}
			for i, w := range WeakOrders {
				switch {
				case w.prefers(x, y):
					margin = margin.Add(p.weakOrders[i])
				case w.prefers(y, x):
					margin = margin.Sub(p.weakOrders[i])
				}
			}
			m[x.index()][y.index()] = margin
		}
	}
	return m
}

// maximinScores returns, per candidate, its worst majority margin.
func (p *Profile[T]) maximinScores() [3]float64 {
	m := p.WeightedMajGraph()
	var scores [3]float64
	for x := range scores {
		scores[x] = math.Inf(1)
		for y := range scores {
			if x != y {
				scores[x] = math.Min(scores[x], m[x][y].Float64())
			}
		}
	}
	return scores
}

// CondorcetWinners returns the weak Condorcet winners.
func (p *Profile[T]) CondorcetWinners() []Candidate {
	var out []Candidate
	for i, s := range p.maximinScores() {
		if s > -condorcetMargin {
			out = append(out, Candidates[i])
		}
	}
	return out
}

// IsProfileCondorcet is 1 with a strict Condorcet winner, 0.5 with weak
// Condorcet winners only, 0 otherwise.
func (p *Profile[T]) IsProfileCondorcet() float64 {
	scores := p.maximinScores()
	maximin := math.Max(scores[0], math.Max(scores[1], scores[2]))
	switch {
	case maximin > condorcetMargin:
		return 1
	case maximin > -condorcetMargin:
		return 0.5
	}
	return 0
}

// HasMajorityFavorite reports whether more than half of the voters rank the
// same candidate strictly first.
func (p *Profile[T]) HasMajorityFavorite() bool {
	half := frac[T](1, 2)
	for _, c := range Candidates {
		share := zero[T]()
		for i, r := range Rankings {
			if r.Top() == c {
				share = share.Add(p.rankings[i])
			}
		}
		for i, w := range WeakOrders {
			if w.IsLover() && w.high() == c {
				share = share.Add(p.weakOrders[i])
			}
		}
		if share.Cmp(half) > 0 {
			return true
		}
	}
	return false
}

// HasMajorityRanking reports whether one ranking has more than half of the
// voters.
func (p *Profile[T]) HasMajorityRanking() bool {
	half := frac[T](1, 2)
	for _, s := range p.rankings {
		if s.Cmp(half) > 0 {
			return true
		}
	}
	return false
}

// IsSinglePeaked reports whether some candidate is never ranked last, which
// for three candidates is single-peakedness with that candidate in the
// middle of the axis.
func (p *Profile[T]) IsSinglePeaked() bool {
	for _, middle := range Candidates {
		if p.singlePeakedAround(middle) {
			return true
		}
	}
	return false
}

func (p *Profile[T]) singlePeakedAround(middle Candidate) bool {
	for i, r := range Rankings {
		if r.Bottom() == middle && !isZero(p.rankings[i]) {
			return false
		}
	}
	for i, w := range WeakOrders {
		if isZero(p.weakOrders[i]) {
			continue
		}
		// A hater of the middle candidate, or a lover of an extreme who is
		// indifferent between the middle and the other extreme.
		if w.IsHater() && w.low() == middle {
			return false
		}
		if w.IsLover() && w.high() != middle {
			return false
		}
	}
	return true
}

// SupportInRankings lists the rankings with a positive share.
func (p *Profile[T]) SupportInRankings() []Ranking {
	var out []Ranking
	for _, r := range Rankings {
		if p.present(r) {
			out = append(out, r)
		}
	}
	return out
}

// IsGenericInRankings reports whether every ranking has a positive share.
func (p *Profile[T]) IsGenericInRankings() bool {
	return len(p.SupportInRankings()) == len(Rankings)
}

// SupportInWeakOrders lists the weak orders with a positive share.
func (p *Profile[T]) SupportInWeakOrders() []WeakOrder {
	var out []WeakOrder
	for i, w := range WeakOrders {
		if p.weakOrders[i].Sign() > 0 {
			out = append(out, w)
		}
	}
	return out
}

// WeakVotersFanatic returns the ballots of weak-order voters who vote only
// for what they strictly prefer. A lover of x votes x (approval, plurality)
// or splits against each other candidate (anti-plurality); a hater of z
// splits between the two others (approval, plurality) or votes against z
// (anti-plurality).
func (p *Profile[T]) WeakVotersFanatic() map[Ballot]T {
	return p.weakVoters(p.cfg.Rule == AntiPlurality)
}

// WeakVotersSincere is WeakVotersFanatic, except that in approval a hater of
// z approves both other candidates.
func (p *Profile[T]) WeakVotersSincere() map[Ballot]T {
	return p.weakVoters(p.cfg.Rule != Plurality)
}

// weakVoters distributes the weak orders. With pairForHaters, haters cast
// the pair of their two preferred candidates instead of splitting.
func (p *Profile[T]) weakVoters(pairForHaters bool) map[Ballot]T {
	out := make(map[Ballot]T, len(Ballots))
	for _, b := range Ballots {
		out[b] = zero[T]()
	}
	half := frac[T](1, 2)
	for i, w := range WeakOrders {
		share := p.weakOrders[i]
		if isZero(share) {
			continue
		}
		if w.IsLover() {
			x := w.high()
			if p.cfg.Rule == AntiPlurality {
				for _, c := range Candidates {
					if c != x {
						b := MakeBallot(x, c)
						out[b] = out[b].Add(share.Mul(half))
					}
				}
				continue
			}
			b := MakeBallot(x)
			out[b] = out[b].Add(share)
			continue
		}
		x, y := Candidate(w[0]), Candidate(w[2])
		if pairForHaters {
			b := MakeBallot(x, y)
			out[b] = out[b].Add(share)
			continue
		}
		out[MakeBallot(x)] = out[MakeBallot(x)].Add(share.Mul(half))
		out[MakeBallot(y)] = out[MakeBallot(y)].Add(share.Mul(half))
	}
	return out
}

// StrategiesOrdinal enumerates every ordinal strategy: each present ranking
// casts BallotLowU or BallotHighU, absent rankings are unset.
func (p *Profile[T]) StrategiesOrdinal() []*StrategyOrdinal[T] {
	choices := make([][]string, len(Rankings))
	for i, r := range Rankings {
		if p.present(r) {
			choices[i] = []string{string(BallotLowU(r, p.cfg.Rule)), string(BallotHighU(r, p.cfg.Rule))}
		} else {
			choices[i] = []string{""}
		}
	}
	var out []*StrategyOrdinal[T]
	var walk func(i int, ballots map[Ranking]string)
	walk = func(i int, ballots map[Ranking]string) {
		if i == len(Rankings) {
			s, err := NewStrategyOrdinal[T](ballots, p.cfg.Rule)
			if err != nil {
				panic("poisson: " + err.Error())
			}
			out = append(out, s)
			return
		}
		for _, b := range choices[i] {
			ballots[Rankings[i]] = b
			walk(i+1, ballots)
		}
	}
	walk(0, make(map[Ranking]string, len(Rankings)))
	return out
}

// BestResponsesToStrategy turns the best responses to tv into a strategy on
// the present rankings, with thresholds clamped to [0, 1].
func (p *Profile[T]) BestResponsesToStrategy(tv *TauVector[T]) (*StrategyThreshold[T], error) {
	thresholds := make(map[Ranking]Threshold[T])
	for _, r := range p.SupportInRankings() {
		br, err := tv.BestResponse(r)
		if err != nil {
			return nil, err
		}
		u := math.Max(0, math.Min(1, br.ThresholdUtility))
		thresholds[r] = ThresholdOf(fromFloat[T](u))
	}
	return NewStrategyThreshold(thresholds, p.cfg.Rule)
}

// addTau accumulates weighted ballot shares.
func addTau[T Number[T]](dst map[Ballot]T, src map[Ballot]T, weight T) {
	for b, s := range src {
		if _, ok := dst[b]; !ok {
			dst[b] = zero[T]()
		}
		dst[b] = dst[b].Add(s.Mul(weight))
	}
}
