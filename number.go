package poisson

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Number is the arithmetic needed by shares, utilities and thresholds.
//
// Two representations are provided: Float (float64, fast) and Rat
// (math/big exact rationals). Every method returns a new value; receivers are
// never mutated. Frac, FromFloat and Parse ignore their receiver and are used
// on the zero value to build constants of the right representation.
type Number[T any] interface {
	Add(T) T
	Sub(T) T
	Mul(T) T
	Quo(T) T
	Cmp(T) int
	Sign() int
	Float64() float64
	Frac(num, den int64) T
	FromFloat(float64) T
	Parse(string) (T, error)
	String() string
}

// Float is the floating representation.
type Float float64

func (f Float) Add(g Float) Float { return f + g }
func (f Float) Sub(g Float) Float { return f - g }
func (f Float) Mul(g Float) Float { return f * g }
func (f Float) Quo(g Float) Float { return f / g }

func (f Float) Cmp(g Float) int {
	switch {
	case f < g:
		return -1
	case f > g:
		return 1
	}
	return 0
}

func (f Float) Sign() int               { return f.Cmp(0) }
func (f Float) Float64() float64        { return float64(f) }
func (Float) FromFloat(x float64) Float { return Float(x) }

func (Float) Frac(num, den int64) Float {
	return Float(float64(num) / float64(den))
}

// Parse accepts decimal numbers and fractions such as "1/3".
func (Float) Parse(s string) (Float, error) {
	s = strings.TrimSpace(s)
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
		if err != nil {
			return 0, fmt.Errorf("parse %q: %w", s, err)
		}
		d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if err != nil {
			return 0, fmt.Errorf("parse %q: %w", s, err)
		}
		if d == 0 {
			return 0, fmt.Errorf("parse %q: zero denominator", s)
		}
		return Float(n / d), nil
	}
	x, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, err)
	}
	return Float(x), nil
}

func (f Float) String() string {
	return strconv.FormatFloat(float64(f), 'g', -1, 64)
}

// Rat is the exact representation. The zero value is 0.
type Rat struct {
	r *big.Rat
}

// NewRat returns num/den. It panics if den is 0.
func NewRat(num, den int64) Rat {
	return Rat{big.NewRat(num, den)}
}

// RatFromBig copies r.
func RatFromBig(r *big.Rat) Rat {
	return Rat{new(big.Rat).Set(r)}
}

// Big returns a copy of the underlying rational.
func (x Rat) Big() *big.Rat {
	return new(big.Rat).Set(x.rat())
}

func (x Rat) rat() *big.Rat {
	if x.r == nil {
		return new(big.Rat)
	}
	return x.r
}

func (x Rat) Add(y Rat) Rat { return Rat{new(big.Rat).Add(x.rat(), y.rat())} }
func (x Rat) Sub(y Rat) Rat { return Rat{new(big.Rat).Sub(x.rat(), y.rat())} }
func (x Rat) Mul(y Rat) Rat { return Rat{new(big.Rat).Mul(x.rat(), y.rat())} }

// Quo panics on a zero divisor, like big.Rat.
func (x Rat) Quo(y Rat) Rat {
	if y.Sign() == 0 {
		panic("poisson: division by zero")
	}
	return Rat{new(big.Rat).Quo(x.rat(), y.rat())}
}

func (x Rat) Cmp(y Rat) int { return x.rat().Cmp(y.rat()) }
func (x Rat) Sign() int     { return x.rat().Sign() }

func (x Rat) Float64() float64 {
	f, _ := x.rat().Float64()
	return f
}

func (Rat) Frac(num, den int64) Rat { return NewRat(num, den) }

// FromFloat converts exactly. It panics on NaN and infinities.
func (Rat) FromFloat(f float64) Rat {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		panic(fmt.Sprintf("poisson: cannot represent %v as a rational", f))
	}
	return Rat{new(big.Rat).SetFloat64(f)}
}

// Parse accepts "3/10", "0.3" and "3e-1".
func (Rat) Parse(s string) (Rat, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok {
		return Rat{}, fmt.Errorf("parse %q: not a rational number", s)
	}
	return Rat{r}, nil
}

func (x Rat) String() string { return x.rat().RatString() }

func zero[T Number[T]]() T {
	var t T
	return t.Frac(0, 1)
}

func one[T Number[T]]() T {
	var t T
	return t.Frac(1, 1)
}

func frac[T Number[T]](num, den int64) T {
	var t T
	return t.Frac(num, den)
}

func fromFloat[T Number[T]](f float64) T {
	var t T
	return t.FromFloat(f)
}

// ParseNumber parses s in the representation T.
func ParseNumber[T Number[T]](s string) (T, error) {
	var t T
	return t.Parse(s)
}

func isZero[T Number[T]](x T) bool { return x.Sign() == 0 }

func sum[T Number[T]](xs ...T) T {
	s := zero[T]()
	for _, x := range xs {
		s = s.Add(x)
	}
	return s
}
