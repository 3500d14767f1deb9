package poisson

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// UtilityShare is a group of voters sharing the same utility for their
// middle candidate.
type UtilityShare[T Number[T]] struct {
	Utility T
	Share   T
}

// discreteUtilities is a UtilityDistribution backed by finitely many
// utility levels per ranking, sorted by utility.
type discreteUtilities[T Number[T]] map[Ranking][]UtilityShare[T]

func (d discreteUtilities[T]) shareWhere(r Ranking, keep func(cmp int) bool, u T) T {
	total := zero[T]()
	for _, us := range d[r] {
		if keep(us.Utility.Cmp(u)) {
			total = total.Add(us.Share)
		}
	}
	return total
}

func (d discreteUtilities[T]) ShareAbove(r Ranking, u T) T {
	return d.shareWhere(r, func(c int) bool { return c > 0 }, u)
}

func (d discreteUtilities[T]) ShareAt(r Ranking, u T) T {
	return d.shareWhere(r, func(c int) bool { return c == 0 }, u)
}

func (d discreteUtilities[T]) ShareBelow(r Ranking, u T) T {
	return d.shareWhere(r, func(c int) bool { return c < 0 }, u)
}

// ProfileDiscrete is a cardinal profile where each ranking has finitely many
// utility levels, e.g. {"abc": {{0.3, 0.1}, {0.8, 0.2}}}: 10% of the voters
// rank abc with utility 0.3 for b, 20% with utility 0.8.
type ProfileDiscrete[T Number[T]] struct {
	*ProfileCardinal[T]
	types discreteUtilities[T]
}

// NewProfileDiscrete validates utilities in [0, 1] and non-negative shares,
// merges duplicate utilities and drops empty groups.
func NewProfileDiscrete[T Number[T]](types map[Ranking][]UtilityShare[T], weakOrders map[WeakOrder]T, ratioSincere T, cfg ProfileConfig) (*ProfileDiscrete[T], error) {
	d := make(discreteUtilities[T], len(types))
	for r, groups := range types {
		if r.Index() < 0 {
			return nil, fmt.Errorf("%w: unknown ranking %q", ErrInvalidProfile, r)
		}
		var merged []UtilityShare[T]
		for _, g := range groups {
			if g.Utility.Sign() < 0 || g.Utility.Cmp(one[T]()) > 0 {
				return nil, fmt.Errorf("%w: utility %v for %s is outside [0, 1]", ErrInvalidProfile, g.Utility, r)
			}
			if g.Share.Sign() < 0 {
				return nil, fmt.Errorf("%w: negative share %v for %s", ErrInvalidProfile, g.Share, r)
			}
			if isZero(g.Share) {
				continue
			}
			i := sort.Search(len(merged), func(i int) bool { return merged[i].Utility.Cmp(g.Utility) >= 0 })
			if i < len(merged) && merged[i].Utility.Cmp(g.Utility) == 0 {
				merged[i].Share = merged[i].Share.Add(g.Share)
				continue
			}
			merged = append(merged, UtilityShare[T]{})
			copy(merged[i+1:], merged[i:])
			merged[i] = g
		}
		if len(merged) > 0 {
			d[r] = merged
		}
	}
	pc, err := NewProfileCardinal[T](d, weakOrders, ratioSincere, cfg)
	if err != nil {
		return nil, err
	}
	return &ProfileDiscrete[T]{ProfileCardinal: pc, types: d}, nil
}

// Types returns a copy of the utility groups of ranking r, by increasing
// utility.
func (p *ProfileDiscrete[T]) Types(r Ranking) []UtilityShare[T] {
	return append([]UtilityShare[T](nil), p.types[r]...)
}

// pureThresholds lists the thresholds that split the groups of r in every
// distinct way, from nobody above to everybody above: 1, the midpoints
// between adjacent utilities, then 0. Voters at the threshold stay below, so
// 0 is dropped when a group sits at utility 0.
func (p *ProfileDiscrete[T]) pureThresholds(r Ranking) []T {
	groups := p.types[r]
	out := []T{one[T]()}
	half := frac[T](1, 2)
	for i := len(groups) - 1; i > 0; i-- {
		out = append(out, groups[i-1].Utility.Add(groups[i].Utility).Mul(half))
	}
	if len(groups) > 0 && groups[0].Utility.Sign() > 0 {
		out = append(out, zero[T]())
	}
	return out
}

// StrategiesPure enumerates the pure strategies of p: every voter of a group
// casts the same ballot, and voters with a higher utility never cast a lower
// one. Only present rankings are set.
func (p *ProfileDiscrete[T]) StrategiesPure() []*StrategyThreshold[T] {
	present := p.SupportInRankings()
	var out []*StrategyThreshold[T]
	var walk func(i int, values map[Ranking]T)
	walk = func(i int, values map[Ranking]T) {
		if i == len(present) {
			s, err := StrategyFromValues(values, p.cfg.Rule)
			if err != nil {
				panic("poisson: " + err.Error())
			}
			out = append(out, s)
			return
		}
		for _, v := range p.pureThresholds(present[i]) {
			values[present[i]] = v
			walk(i+1, values)
		}
	}
	walk(0, make(map[Ranking]T, len(present)))
	return out
}

// AnalyzeStrategiesPure classifies every pure strategy of p.
func (p *ProfileDiscrete[T]) AnalyzeStrategiesPure(ctx context.Context, opts AnalyzeOptions) (*AnalyzedStrategies[*StrategyThreshold[T]], error) {
	if opts.Logger == nil {
		opts.Logger = p.cfg.Logger
	}
	return AnalyzeStrategies(ctx, p.StrategiesPure(), p.IsEquilibrium, opts)
}

// String lists the groups, e.g. "<abc: {3/10: 1/10, 4/5: 1/5}, a~b>c: 7/10>".
func (p *ProfileDiscrete[T]) String() string {
	var parts []string
	for _, r := range Rankings {
		groups := p.types[r]
		if len(groups) == 0 {
			continue
		}
		items := make([]string, len(groups))
		for i, g := range groups {
			items[i] = fmt.Sprintf("%v: %v", g.Utility, g.Share)
		}
		parts = append(parts, fmt.Sprintf("%s: {%s}", r, strings.Join(items, ", ")))
	}
	for _, w := range p.SupportInWeakOrders() {
		parts = append(parts, fmt.Sprintf("%s: %v", w, p.WeakOrderShare(w)))
	}
	s := "<" + strings.Join(parts, ", ") + ">"
	if !isZero(p.ratioSincere) {
		s += fmt.Sprintf(" (ratio_sincere: %v)", p.ratioSincere)
	}
	if p.cfg.Rule != Approval {
		s += fmt.Sprintf(" (%s)", p.cfg.Rule)
	}
	return s
}
