package poisson

import (
	"fmt"
	"math"
	"strings"
)

// EventKind names a tie configuration of the scores S_x, S_y, S_z of a
// labelled triple (x, y, z).
type EventKind uint8

const (
	// KindDuo is S_x = S_y.
	KindDuo EventKind = iota
	// KindPivotWeak is S_x = S_y >= S_z.
	KindPivotWeak
	// KindPivotStrict is S_x = S_y > S_z.
	KindPivotStrict
	// KindPivotTij is S_x+1 = S_y > S_z or S_x+1 = S_y+1 > S_z: adding x or
	// xy makes the voter xyz strictly pivotal between x and y.
	KindPivotTij
	// KindPivotTjk is S_y = S_z > S_x+1 or S_y+1 = S_z > S_x+1.
	KindPivotTjk
	// KindTrio is S_x = S_y = S_z.
	KindTrio
	// KindTrio1t is S_x+1 = S_y = S_z.
	KindTrio1t
	// KindTrio2t is S_x+1 = S_y+1 = S_z.
	KindTrio2t
)

var eventKindNames = [...]string{
	KindDuo:         "Duo",
	KindPivotWeak:   "PivotWeak",
	KindPivotStrict: "PivotStrict",
	KindPivotTij:    "PivotTij",
	KindPivotTjk:    "PivotTjk",
	KindTrio:        "Trio",
	KindTrio1t:      "Trio1t",
	KindTrio2t:      "Trio2t",
}

func (k EventKind) String() string {
	if int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return fmt.Sprintf("EventKind(%d)", k)
}

// EventKinds lists every kind.
var EventKinds = [...]EventKind{
	KindDuo, KindPivotWeak, KindPivotStrict, KindPivotTij,
	KindPivotTjk, KindTrio, KindTrio1t, KindTrio2t,
}

// Event is the asymptotic probability of a tie configuration together with
// the tilts (phi) of its dominant configuration.
//
// Tau, Phi and Psi are indexed by slot: x, y, z, xy, xz, yz. Phi of a
// candidate is the factor by which one more ballot for that candidate
// changes the probability; phi of a pair is the product over its
// candidates. Psi is set for trio kinds only and holds the offset ratios
// used by the offset method. Events are immutable.
type Event struct {
	Kind       EventKind
	X, Y, Z    Candidate
	Tau        [6]float64
	Phi        [6]float64
	Psi        [6]float64
	Asymptotic Asymptotic
}

// rates is the six shares of a labelled triple in slot order, with their
// zero pattern decided on the exact representation.
type rates struct {
	tau  [6]float64
	zero [6]bool
}

func ratesOf[T Number[T]](tau [6]T) rates {
	var r rates
	for i, t := range tau {
		r.zero[i] = isZero(t)
		if !r.zero[i] {
			r.tau[i] = t.Float64()
		}
	}
	return r
}

// diffs returns D_x, D_y, D_z.
func (r rates) diffs() [3]skellam {
	t := r.tau
	return [3]skellam{
		newSkellam(t[slotX], t[slotYZ]),
		newSkellam(t[slotY], t[slotXZ]),
		newSkellam(t[slotZ], t[slotXY]),
	}
}

// NewEvent computes the event of the given kind for the triple (x, y, z)
// with shares in slot order x, y, z, xy, xz, yz.
func NewEvent[T Number[T]](kind EventKind, x, y, z Candidate, tau [6]T) (*Event, error) {
	if !x.valid() || !y.valid() || !z.valid() || x == y || x == z || y == z {
		return nil, fmt.Errorf("event %v: invalid triple %v%v%v", kind, x, y, z)
	}
	if int(kind) >= len(eventKindNames) {
		return nil, fmt.Errorf("unknown event kind %d", kind)
	}
	for i, t := range tau {
		if t.Sign() < 0 {
			return nil, fmt.Errorf("event %v: negative share %v in slot %d", kind, t, i)
		}
	}
	return newEvent(kind, x, y, z, ratesOf(tau)), nil
}

// MustEvent is NewEvent that panics on invalid input.
func MustEvent[T Number[T]](kind EventKind, x, y, z Candidate, tau [6]T) *Event {
	e, err := NewEvent(kind, x, y, z, tau)
	if err != nil {
		panic("poisson: " + err.Error())
	}
	return e
}

func newEvent(kind EventKind, x, y, z Candidate, r rates) *Event {
	e := &Event{Kind: kind, X: x, Y: y, Z: z, Tau: r.tau}
	var phi tilt
	switch kind {
	case KindDuo:
		e.Asymptotic, phi = duo(r)
	case KindPivotWeak:
		e.Asymptotic, phi = solvePivot(r.diffs(), [3]int{}, false)
	case KindPivotStrict:
		e.Asymptotic, phi = solvePivot(r.diffs(), [3]int{}, true)
	case KindPivotTij:
		e.Asymptotic, phi = pivotTij(r)
	case KindPivotTjk:
		e.Asymptotic, phi = pivotTjk(r)
	case KindTrio:
		e.Asymptotic, phi = solveTrio(r.diffs(), [3]int{0, 0, 0})
	case KindTrio1t:
		e.Asymptotic, phi = solveTrio(r.diffs(), [3]int{1, 0, 0})
	case KindTrio2t:
		e.Asymptotic, phi = solveTrio(r.diffs(), [3]int{1, 1, 0})
	}
	e.Phi = slotTilts(phi)
	if e.IsTrio() {
		e.Psi = e.Phi
	} else {
		for i := range e.Psi {
			e.Psi[i] = math.NaN()
		}
	}
	return e
}

// duo is P(S_x = S_y), where z plays no role.
func duo(r rates) (Asymptotic, tilt) {
	t := r.tau
	A, B := t[slotX]+t[slotXZ], t[slotY]+t[slotYZ]
	asym := PoissonEq(A, B)
	switch {
	case A == 0 && B == 0:
		return asym, neutralTilt
	case A == 0:
		return asym, tilt{math.Inf(1), 0, 1}
	case B == 0:
		return asym, tilt{0, math.Inf(1), 1}
	}
	return asym, tilt{math.Sqrt(B / A), math.Sqrt(A / B), 1}
}

// pivotTjk splits S_y = S_z > S_x+1 and S_y+1 = S_z > S_x+1 into two strict
// pivots of (y, z) against x. Phi comes from the weak pivot of (y, z).
func pivotTjk(r rates) (Asymptotic, tilt) {
	d := r.diffs()
	yzx := [3]skellam{d[1], d[2], d[0]}
	first, _ := solvePivot(yzx, [3]int{0, 0, 1}, true)
	second, _ := solvePivot(yzx, [3]int{1, 0, 1}, true)
	_, weak := solvePivot(yzx, [3]int{}, false)
	return first.Add(second), tilt{weak[2], weak[0], weak[1]}
}

// slotTilts extends candidate tilts to pairs. A pair mixing a null and an
// infinite tilt takes the inverse of the third one.
func slotTilts(phi tilt) [6]float64 {
	pair := func(i, j, k int) float64 {
		v := phi[i] * phi[j]
		if math.IsNaN(v) {
			v = 1 / phi[k]
		}
		return v
	}
	return [6]float64{phi[0], phi[1], phi[2], pair(0, 1, 2), pair(0, 2, 1), pair(1, 2, 0)}
}

// IsTrio reports whether e is a trio kind and carries Psi.
func (e *Event) IsTrio() bool {
	return e.Kind == KindTrio || e.Kind == KindTrio1t || e.Kind == KindTrio2t
}

// slot returns the slot of a ballot in e's triple, or -1.
func (e *Event) slot(b Ballot) int {
	for i, q := range triple(e.X, e.Y, e.Z) {
		if q == b {
			return i
		}
	}
	return -1
}

// PhiOf returns the tilt of a ballot, or NaN for an unknown ballot.
func (e *Event) PhiOf(b Ballot) float64 {
	if i := e.slot(b); i >= 0 {
		return e.Phi[i]
	}
	return math.NaN()
}

// PsiOf returns the offset ratio of a ballot; NaN unless e is a trio.
func (e *Event) PsiOf(b Ballot) float64 {
	if i := e.slot(b); i >= 0 {
		return e.Psi[i]
	}
	return math.NaN()
}

// TauOf returns the share of a ballot in e's triple.
func (e *Event) TauOf(b Ballot) float64 {
	if i := e.slot(b); i >= 0 {
		return e.Tau[i]
	}
	return 0
}

// Limit is a shortcut for e.Asymptotic.Limit().
func (e *Event) Limit() float64 { return e.Asymptotic.Limit() }

// String shows the asymptotic and the tilts of the ballots with a positive
// share, e.g. "<asymptotic = exp(-0.1 n + o(1)), phi_a = 0, phi_ab = 1>".
func (e *Event) String() string {
	var sb strings.Builder
	sb.WriteString("<asymptotic = ")
	sb.WriteString(e.Asymptotic.String())
	for _, b := range Ballots {
		i := e.slot(b)
		if i < 0 || e.Tau[i] == 0 {
			continue
		}
		fmt.Fprintf(&sb, ", phi_%s = %s", b, formatFloat(e.Phi[i]))
		if e.IsTrio() {
			fmt.Fprintf(&sb, ", psi_%s = %s", b, formatFloat(e.Psi[i]))
		}
	}
	sb.WriteString(">")
	return sb.String()
}
