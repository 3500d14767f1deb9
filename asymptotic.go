package poisson

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Asymptotic is the order of magnitude of a probability in a Poisson game of
// expected size n:
//
//	C · n^V · exp(-n·Mu + o(1))    as n → ∞
//
// The zero asymptotic (an impossible event) has Mu = +Inf. The undefined
// asymptotic has NaN fields. Values are immutable.
type Asymptotic struct {
	Mu float64 // decay rate
	V  float64 // polynomial exponent
	C  float64 // leading coefficient, > 0
}

// NewAsymptotic returns C · n^V · exp(-n·Mu). A zero coefficient gives the
// zero asymptotic.
func NewAsymptotic(mu, v, c float64) Asymptotic {
	if c == 0 || math.IsInf(mu, 1) {
		return AsymptoticZero()
	}
	return Asymptotic{Mu: mu, V: v, C: c}
}

// AsymptoticZero is the asymptotic of an impossible event.
func AsymptoticZero() Asymptotic { return Asymptotic{Mu: math.Inf(1), C: 0} }

// AsymptoticOne is the asymptotic of a sure event.
func AsymptoticOne() Asymptotic { return Asymptotic{Mu: 0, V: 0, C: 1} }

// AsymptoticNaN is the undefined asymptotic.
func AsymptoticNaN() Asymptotic {
	return Asymptotic{Mu: math.NaN(), V: math.NaN(), C: math.NaN()}
}

// IsZero reports whether a is the zero asymptotic.
func (a Asymptotic) IsZero() bool { return math.IsInf(a.Mu, 1) }

// IsNaN reports whether a is undefined.
func (a Asymptotic) IsNaN() bool {
	return math.IsNaN(a.Mu) || math.IsNaN(a.V) || math.IsNaN(a.C)
}

// Mul multiplies two asymptotics: rates and exponents add, coefficients
// multiply. Zero absorbs everything, including NaN.
func (a Asymptotic) Mul(b Asymptotic) Asymptotic {
	switch {
	case a.IsZero() || b.IsZero():
		return AsymptoticZero()
	case a.IsNaN() || b.IsNaN():
		return AsymptoticNaN()
	}
	return Asymptotic{Mu: a.Mu + b.Mu, V: a.V + b.V, C: a.C * b.C}
}

// Add sums two asymptotics: the dominant term wins. On equal rates the larger
// exponent wins; on equal rates and exponents the coefficients add.
func (a Asymptotic) Add(b Asymptotic) Asymptotic {
	return a.AddWithin(b, exponentTolerance)
}

// AddWithin is Add with an explicit tolerance on rates and exponents.
func (a Asymptotic) AddWithin(b Asymptotic, tol Tolerance) Asymptotic {
	switch {
	case a.IsNaN() || b.IsNaN():
		return AsymptoticNaN()
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	}
	if !tol.IsClose(a.Mu, b.Mu) {
		if a.Mu < b.Mu {
			return a
		}
		return b
	}
	if !tol.IsClose(a.V, b.V) {
		if a.V > b.V {
			return a
		}
		return b
	}
	return Asymptotic{Mu: a.Mu, V: a.V, C: a.C + b.C}
}

// Quo divides two asymptotics. Division by zero is undefined; zero divided by
// anything else is zero.
func (a Asymptotic) Quo(b Asymptotic) Asymptotic {
	switch {
	case a.IsNaN() || b.IsNaN() || b.IsZero():
		return AsymptoticNaN()
	case a.IsZero():
		return AsymptoticZero()
	}
	return Asymptotic{Mu: a.Mu - b.Mu, V: a.V - b.V, C: a.C / b.C}
}

// Scale multiplies the coefficient by k >= 0.
func (a Asymptotic) Scale(k float64) Asymptotic {
	switch {
	case a.IsNaN() || math.IsNaN(k) || k < 0 || math.IsInf(k, 0):
		return AsymptoticNaN()
	case k == 0 || a.IsZero():
		return AsymptoticZero()
	}
	return Asymptotic{Mu: a.Mu, V: a.V, C: a.C * k}
}

// Limit returns the limit of a as n → ∞: 0 for a positive rate, +Inf for a
// negative rate, and for a null rate C, +Inf or 0 depending on the sign of V.
func (a Asymptotic) Limit() float64 {
	switch {
	case a.IsNaN():
		return math.NaN()
	case a.IsZero():
		return 0
	case exponentTolerance.IsClose(a.Mu, 0):
		switch {
		case exponentTolerance.IsClose(a.V, 0):
			return a.C
		case a.V > 0:
			return math.Inf(1)
		}
		return 0
	case a.Mu > 0:
		return 0
	}
	return math.Inf(1)
}

// Compare orders asymptotics by magnitude: -1 if a is negligible before b,
// +1 if b is negligible before a, 0 if they are equivalent. ok is false when
// either side is undefined.
func (a Asymptotic) Compare(b Asymptotic) (cmp int, ok bool) {
	return a.CompareWithin(b, exponentTolerance)
}

// CompareWithin is Compare with an explicit tolerance. The tolerance applies
// to rates, exponents and coefficients.
func (a Asymptotic) CompareWithin(b Asymptotic, tol Tolerance) (int, bool) {
	switch {
	case a.IsNaN() || b.IsNaN():
		return 0, false
	case a.IsZero() && b.IsZero():
		return 0, true
	case a.IsZero():
		return -1, true
	case b.IsZero():
		return 1, true
	}
	if !tol.IsClose(a.Mu, b.Mu) {
		if a.Mu < b.Mu {
			return 1, true
		}
		return -1, true
	}
	if !tol.IsClose(a.V, b.V) {
		if a.V > b.V {
			return 1, true
		}
		return -1, true
	}
	if !tol.IsClose(a.C, b.C) {
		if a.C > b.C {
			return 1, true
		}
		return -1, true
	}
	return 0, true
}

// IsClose reports whether a and b are equivalent. Two undefined asymptotics
// are close to each other.
func (a Asymptotic) IsClose(b Asymptotic) bool {
	if a.IsNaN() || b.IsNaN() {
		return a.IsNaN() && b.IsNaN()
	}
	cmp, _ := a.Compare(b)
	return cmp == 0
}

// String renders a as "c n^v exp(-mu n + o(1))", dropping neutral factors.
func (a Asymptotic) String() string {
	switch {
	case a.IsNaN():
		return "nan"
	case a.IsZero():
		return "0"
	}
	var parts []string
	if a.C != 1 {
		parts = append(parts, formatFloat(a.C))
	}
	if a.V != 0 {
		parts = append(parts, "n^"+formatFloat(a.V))
	}
	if a.Mu != 0 {
		parts = append(parts, "exp(-"+formatFloat(a.Mu)+" n + o(1))")
	} else {
		parts = append(parts, "exp(o(1))")
	}
	return strings.Join(parts, " ")
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', 6, 64)
}

// PoissonValue is the asymptotic of P(X = k) for X ~ Poisson(n·tau).
func PoissonValue(tau float64, k int) Asymptotic {
	switch {
	case k < 0:
		return AsymptoticZero()
	case tau == 0 && k == 0:
		return AsymptoticOne()
	case tau == 0:
		return AsymptoticZero()
	}
	return Asymptotic{Mu: tau, V: float64(k), C: math.Pow(tau, float64(k)) / factorial(k)}
}

// PoissonEq is the asymptotic of P(X = Y) for independent X ~ Poisson(n·a)
// and Y ~ Poisson(n·b).
func PoissonEq(a, b float64) Asymptotic {
	switch {
	case a == 0:
		return PoissonValue(b, 0)
	case b == 0:
		return PoissonValue(a, 0)
	}
	d := math.Sqrt(a) - math.Sqrt(b)
	return Asymptotic{
		Mu: d * d,
		V:  -0.5,
		C:  1 / math.Sqrt(4*math.Pi*math.Sqrt(a*b)),
	}
}

// PoissonOneMore is the asymptotic of P(X = Y + 1).
func PoissonOneMore(a, b float64) Asymptotic {
	switch {
	case a == 0:
		return AsymptoticZero()
	case b == 0:
		return PoissonValue(a, 1)
	}
	return PoissonEq(a, b).Scale(math.Sqrt(a / b))
}

// PoissonGt is the asymptotic of P(X > Y).
func PoissonGt(a, b float64) Asymptotic {
	switch {
	case a == 0:
		return AsymptoticZero()
	case b == 0:
		return AsymptoticOne()
	case exponentTolerance.IsClose(a, b):
		return AsymptoticOne().Scale(0.5)
	case a > b:
		return AsymptoticOne()
	}
	return PoissonEq(a, b).Scale(math.Sqrt(a) / (math.Sqrt(b) - math.Sqrt(a)))
}

// PoissonGe is the asymptotic of P(X >= Y).
func PoissonGe(a, b float64) Asymptotic {
	switch {
	case a == 0:
		return PoissonValue(b, 0)
	case b == 0:
		return AsymptoticOne()
	case exponentTolerance.IsClose(a, b):
		return AsymptoticOne().Scale(0.5)
	case a > b:
		return AsymptoticOne()
	}
	return PoissonEq(a, b).Scale(math.Sqrt(b) / (math.Sqrt(b) - math.Sqrt(a)))
}

func factorial(k int) float64 {
	f := 1.0
	for i := 2; i <= k; i++ {
		f *= float64(i)
	}
	return f
}

// MustLimit returns the limit of a or panics when it is undefined.
func MustLimit(a Asymptotic) float64 {
	l := a.Limit()
	if math.IsNaN(l) {
		panic(fmt.Sprintf("poisson: undefined limit for %v", a))
	}
	return l
}
