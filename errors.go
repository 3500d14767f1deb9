package poisson

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTau reports a tau-vector with a negative share, an unknown
	// or forbidden ballot, or shares that do not sum to 1.
	ErrInvalidTau = errors.New("invalid tau-vector")

	// ErrUndefinedBestResponse reports a NaN threshold utility.
	ErrUndefinedBestResponse = errors.New("undefined best response")

	// ErrOffsetOvershoot reports a trio offset ratio at or above 1 beyond
	// tolerance in the offset method.
	ErrOffsetOvershoot = errors.New("offset ratio overshoot")

	// ErrInvalidStrategy reports an unknown ranking, an unknown ballot or a
	// threshold outside [0, 1].
	ErrInvalidStrategy = errors.New("invalid strategy")

	// ErrInvalidProfile reports negative shares, shares that do not sum to
	// 1, or utilities outside [0, 1].
	ErrInvalidProfile = errors.New("invalid profile")

	// ErrInconclusive reports an inconclusive equilibrium check where the
	// limit pivot theorem should always conclude.
	ErrInconclusive = errors.New("inconclusive equilibrium")
)

// OvershootError identifies the offset ratio that left [0, 1).
type OvershootError struct {
	Ratio string  // e.g. "psi_c"
	Value float64 // offending value
}

func (e *OvershootError) Error() string {
	return fmt.Sprintf("%s = %g: %v", e.Ratio, e.Value, ErrOffsetOvershoot)
}

func (e *OvershootError) Unwrap() error { return ErrOffsetOvershoot }
