package poisson

import "math"

// Tolerance holds relative and absolute bounds: a and b are close when |a-b| <= max(Rel*max(|a|,|b|), Abs).
type Tolerance struct {
	Rel float64
	Abs float64
}

// IsClose reports whether a and b are equal within t. Equal infinities are
// close; NaN is never close to anything.
func (t Tolerance) IsClose(a, b float64) bool {
	if a == b {
		return true
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return false
	}
	diff := math.Abs(a - b)
	return diff <= math.Max(t.Rel*math.Max(math.Abs(a), math.Abs(b)), t.Abs)
}

// exponentTolerance compares decay rates and exponents of Asymptotic values.
// Saddle-point rates come out of root finding, so an absolute bound is needed
// around 0.
var exponentTolerance = Tolerance{Rel: 1e-9, Abs: 1e-9}

// Precision gathers every tolerance used by best responses and equilibria.
type Precision struct {
	// TightRel decides "tight" pivots and threshold ≈ 1.
	TightRel float64 `yaml:"tight_rel" env:"TIGHT_REL" validate:"gte=0,lt=1"`
	// ZeroAbs decides threshold ≈ 0.
	ZeroAbs float64 `yaml:"zero_abs" env:"ZERO_ABS" validate:"gte=0,lt=1"`
	// PsiRel decides whether a trio offset ratio above 1 is an
	// approximation artifact or a broken assumption.
	PsiRel float64 `yaml:"psi_rel" env:"PSI_REL" validate:"gte=0,lt=1"`
	// ShareAbs bounds the sum check of tau-vectors and profiles, and the
	// share-wise closeness of tau-vectors and strategies.
	ShareAbs float64 `yaml:"share_abs" env:"SHARE_ABS" validate:"gte=0,lt=1"`
}

// DefaultPrecision returns 1e-9 relative for tight checks, 1e-9 around zero
// and 10% for psi overshoot.
func DefaultPrecision() Precision {
	return Precision{
		TightRel: 1e-9,
		ZeroAbs:  1e-9,
		PsiRel:   1e-1,
		ShareAbs: 1e-9,
	}
}

// orDefault replaces an unset Precision by DefaultPrecision.
func (p Precision) orDefault() Precision {
	if p == (Precision{}) {
		return DefaultPrecision()
	}
	return p
}

func (p Precision) tight() Tolerance { return Tolerance{Rel: p.TightRel} }
func (p Precision) zero() Tolerance  { return Tolerance{Rel: p.TightRel, Abs: p.ZeroAbs} }
func (p Precision) psi() Tolerance   { return Tolerance{Rel: p.PsiRel} }
