package poisson

import "math"

// Every tie configuration of the three scores reduces to the differences
//
//	D_x = N_x - N_yz,  D_y = N_y - N_xz,  D_z = N_z - N_xy
//
// since S_c = D_c + (number of pair ballots). The D_c are independent Skellam
// variables, so a tie "S_x+o_x = S_y+o_y" is a tie "D_x+o_x = D_y+o_y" and the
// asymptotics follow from one-dimensional saddle points.

// side tells which counts of a Skellam difference can move.
type side uint8

const (
	twoSided side = iota // D ranges over Z
	upward               // only N_a: D >= 0
	downward             // only N_b: D <= 0
	pinned               // D = 0
)

// skellam is D = N_a - N_b with N_a ~ Poisson(n·a), N_b ~ Poisson(n·b).
type skellam struct {
	a, b float64
	side side
}

func newSkellam(a, b float64) skellam {
	d := skellam{a: a, b: b}
	switch {
	case a > 0 && b > 0:
		d.side = twoSided
	case a > 0:
		d.side = upward
	case b > 0:
		d.side = downward
	default:
		d.side = pinned
	}
	return d
}

// at is the asymptotic of P(D = j).
func (d skellam) at(j int) Asymptotic {
	switch d.side {
	case pinned:
		if j == 0 {
			return AsymptoticOne()
		}
		return AsymptoticZero()
	case upward:
		return PoissonValue(d.a, j)
	case downward:
		return PoissonValue(d.b, -j)
	}
	return PoissonEq(d.a, d.b).Scale(math.Pow(d.a/d.b, float64(j)/2))
}

// atMost is the asymptotic of P(D <= j).
func (d skellam) atMost(j int) Asymptotic {
	switch d.side {
	case pinned:
		if j >= 0 {
			return AsymptoticOne()
		}
		return AsymptoticZero()
	case upward:
		total := AsymptoticZero()
		for m := 0; m <= j; m++ {
			total = total.Add(PoissonValue(d.a, m))
		}
		return total
	case downward:
		return AsymptoticOne()
	}
	switch {
	case exponentTolerance.IsClose(d.a, d.b):
		return AsymptoticOne().Scale(0.5)
	case d.a < d.b:
		return AsymptoticOne()
	}
	return d.at(j).Scale(1 / (1 - math.Sqrt(d.b/d.a)))
}

// mean is E[D]/n.
func (d skellam) mean() float64 { return d.a - d.b }

// lowest is the smallest value D can take.
func (d skellam) lowest() float64 {
	if d.side == upward || d.side == pinned {
		return 0
	}
	return math.Inf(-1)
}

// theta solves a·e^θ - b·e^-θ = t: the tilt that makes t·n the typical value
// of D.
func (d skellam) theta(t float64) float64 {
	switch d.side {
	case upward:
		return math.Log(t / d.a)
	case downward:
		return math.Log(d.b / -t)
	case pinned:
		return math.NaN()
	}
	r := math.Sqrt(t*t + 4*d.a*d.b)
	if t >= 0 {
		return math.Log((t + r) / (2 * d.a))
	}
	return math.Log(2 * d.b / (r - t))
}

// boundaryTilt is e^θ at t = 0.
func (d skellam) boundaryTilt() float64 {
	switch d.side {
	case upward:
		return 0
	case downward:
		return math.Inf(1)
	case pinned:
		return math.NaN()
	}
	return math.Sqrt(d.b / d.a)
}

// levels is an integer range [lo, hi]; infinite bounds mean unbounded.
type levels struct {
	lo, hi float64
}

// levels returns the values k for which D + o = k is possible.
func (d skellam) levels(o int) levels {
	k := float64(o)
	switch d.side {
	case upward:
		return levels{lo: k, hi: math.Inf(1)}
	case downward:
		return levels{lo: math.Inf(-1), hi: k}
	case pinned:
		return levels{lo: k, hi: k}
	}
	return levels{lo: math.Inf(-1), hi: math.Inf(1)}
}

func (l levels) and(m levels) levels {
	return levels{lo: math.Max(l.lo, m.lo), hi: math.Min(l.hi, m.hi)}
}

func (l levels) empty() bool { return l.lo > l.hi }

func (l levels) bounded() bool { return !math.IsInf(l.lo, 0) && !math.IsInf(l.hi, 0) }

func (l levels) each(f func(k int)) {
	for k := int(l.lo); k <= int(l.hi); k++ {
		f(k)
	}
}

// tilt holds e^θ per candidate of a labelled triple.
type tilt [3]float64

var neutralTilt = tilt{1, 1, 1}

// normalize fills the pinned candidates so that the product is 1 where
// possible.
func (phi tilt) normalize(d [3]skellam) tilt {
	var free []int
	prod := 1.0
	for c := range d {
		if d[c].side == pinned {
			free = append(free, c)
			continue
		}
		prod *= phi[c]
	}
	for i, c := range free {
		phi[c] = 1
		if i == 0 && len(free) == 1 && !math.IsNaN(1/prod) {
			phi[c] = 1 / prod
		}
	}
	return phi
}

// solveTrio is the asymptotic of P(D_x+o_x = D_y+o_y = D_z+o_z).
func solveTrio(d [3]skellam, off [3]int) (Asymptotic, tilt) {
	ks := d[0].levels(off[0]).and(d[1].levels(off[1])).and(d[2].levels(off[2]))
	var boundary tilt
	for c := range d {
		boundary[c] = d[c].boundaryTilt()
	}
	boundary = boundary.normalize(d)
	switch {
	case ks.empty():
		return AsymptoticZero(), boundary
	case ks.bounded():
		total := AsymptoticZero()
		ks.each(func(k int) {
			term := AsymptoticOne()
			for c := range d {
				term = term.Mul(d[c].at(k - off[c]))
			}
			total = total.Add(term)
		})
		return total, boundary
	}

	g := func(t float64) float64 { return d[0].theta(t) + d[1].theta(t) + d[2].theta(t) }
	t, ok := increasingRoot(g, ks)
	if !ok {
		return AsymptoticNaN(), tilt{math.NaN(), math.NaN(), math.NaN()}
	}
	var phi, sigma tilt
	mu, offset := 0.0, 1.0
	for c := range d {
		phi[c] = math.Exp(d[c].theta(t))
		mu += d[c].a + d[c].b - d[c].a*phi[c] - d[c].b/phi[c]
		sigma[c] = d[c].a*phi[c] + d[c].b/phi[c]
		offset *= math.Pow(phi[c], float64(off[c]))
	}
	spread := sigma[0]*sigma[1] + sigma[0]*sigma[2] + sigma[1]*sigma[2]
	return NewAsymptotic(mu, -1, offset/(2*math.Pi*math.Sqrt(spread))), phi
}

// pivotTolerance decides whether the third candidate sits exactly at the tie
// level of the other two.
var pivotTolerance = Tolerance{Rel: 1e-9, Abs: 1e-12}

// solvePivot is the asymptotic of P(D_p+o_p = D_q+o_q >= D_r+o_r+s), where
// s is 1 for a strict pivot and 0 for a weak one.
func solvePivot(d [3]skellam, off [3]int, strict bool) (Asymptotic, tilt) {
	p, q, r := d[0], d[1], d[2]
	s := 0
	if strict {
		s = 1
	}
	ks := p.levels(off[0]).and(q.levels(off[1]))
	switch {
	case ks.empty():
		return AsymptoticZero(), neutralTilt
	case ks.bounded():
		return finitePivot(d, off, s, ks)
	}

	// Saddle of the duo p = q alone.
	A, B := p.a+q.b, p.b+q.a
	phiP := math.Sqrt(B / A)
	t := p.a*phiP - p.b/phiP
	duo := newSkellam(A, B).at(off[1] - off[0])
	duoTilt := tilt{phiP, 1 / phiP, 1}
	switch mean := r.mean(); {
	case pivotTolerance.IsClose(mean, t):
		return duo.Scale(0.5), duoTilt
	case mean < t:
		return duo, duoTilt
	}

	// r is active: the dominant configuration has D_r at the tie level.
	top := ks.and(levels{lo: r.lowest() + float64(off[2]+s), hi: math.Inf(1)})
	switch {
	case top.empty():
		return AsymptoticZero(), neutralTilt
	case top.bounded():
		return finitePivot(d, off, s, top)
	case r.side == pinned:
		k0 := off[2] + s
		phi := tilt{p.boundaryTilt(), q.boundaryTilt(), 1}.normalize(d)
		if !(phi[2] < 1) {
			return AsymptoticNaN(), phi
		}
		first := p.at(k0 - off[0]).Mul(q.at(k0 - off[1]))
		return first.Scale(1 / (1 - phi[2])), phi
	}
	trio, phi := solveTrio(d, [3]int{off[0], off[1], off[2] + s})
	if !(phi[2] < 1) {
		return AsymptoticNaN(), phi
	}
	return trio.Scale(1 / (1 - phi[2])), phi
}

// finitePivot sums the pivot over a bounded set of tie levels.
func finitePivot(d [3]skellam, off [3]int, s int, ks levels) (Asymptotic, tilt) {
	p, q, r := d[0], d[1], d[2]
	total := AsymptoticZero()
	ks.each(func(k int) {
		term := p.at(k - off[0]).Mul(q.at(k - off[1])).Mul(r.atMost(k - off[2] - s))
		total = total.Add(term)
	})
	phi := tilt{p.boundaryTilt(), q.boundaryTilt(), r.boundaryTilt()}
	if r.side == downward || (r.side == twoSided && r.a <= r.b) {
		phi[2] = 1
	}
	return total, phi.normalize(d)
}

// maxBracket bounds the doublings and halvings needed to bracket a root
// anywhere in the float64 range.
const maxBracket = 2100

// increasingRoot finds the zero of an increasing function g. The sign of the
// root follows the tie levels: positive when they are only bounded below,
// negative when only bounded above.
func increasingRoot(g func(float64) float64, ks levels) (float64, bool) {
	lo, hi := -1.0, 1.0
	switch {
	case !math.IsInf(ks.lo, 0):
		lo, hi = 1, 1
	case !math.IsInf(ks.hi, 0):
		lo, hi = -1, -1
	}
	for i := 0; g(lo) > 0; i++ {
		if i == maxBracket {
			return 0, false
		}
		if lo > 0 {
			lo /= 2
		} else {
			lo *= 2
		}
	}
	for i := 0; g(hi) < 0; i++ {
		if i == maxBracket {
			return 0, false
		}
		if hi > 0 {
			hi *= 2
		} else {
			hi /= 2
		}
	}
	if math.IsNaN(g(lo)) || math.IsNaN(g(hi)) {
		return 0, false
	}
	for i := 0; i < 200 && lo < hi; i++ {
		mid := lo + (hi-lo)/2
		switch v := g(mid); {
		case v == 0:
			return mid, true
		case v < 0:
			lo = mid
		default:
			hi = mid
		}
	}
	return lo + (hi-lo)/2, true
}
