package poisson

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// verifiedTau carries its proof along.
type verifiedTau struct {
	LawVerified
	Shares map[Ballot]float64
}

func TestLawRegistry_Register(t *testing.T) {
	reg := NewLawRegistry()
	reg.Register(LawVerified{
		TypeName:   "poisson.verifiedTau",
		Laws:       []string{LawCommutative, LawIdentity},
		TestedAt:   time.Now(),
		Samples:    3,
		Properties: map[string]string{"sum": "addition"},
	})

	got, ok := reg.IsVerified("poisson.verifiedTau")
	require.True(t, ok)
	assert.Len(t, got.Laws, 2)
	assert.Equal(t, "addition", got.Properties["sum"])

	_, ok = reg.IsVerified("poisson.Event")
	assert.False(t, ok)
}

func TestLawRegistry_CheckType(t *testing.T) {
	reg := NewLawRegistry()
	reg.Register(LawVerified{TypeName: "poisson.Asymptotic", Laws: []string{LawAssociative, LawCommutative}})

	assert.NoError(t, reg.CheckType(AsymptoticOne(), []string{LawAssociative}))
	assert.ErrorContains(t, reg.CheckType(AsymptoticOne(), []string{LawMonotone}), "missing law Monotone")
	assert.ErrorContains(t, reg.CheckType(Event{}, nil), "not in the law registry")
	assert.Error(t, reg.CheckType(nil, nil))

	embedded := verifiedTau{
		LawVerified: LawVerified{TypeName: "poisson.verifiedTau", Laws: []string{LawCommutative}},
		Shares:      map[Ballot]float64{"a": 1},
	}
	assert.NoError(t, reg.CheckType(embedded, []string{LawCommutative}))
	assert.NoError(t, reg.CheckType(&embedded, []string{LawCommutative}))
	assert.Error(t, reg.CheckType(embedded, []string{LawAbsorbing}))

	t.Logf("✓ Registry and embedded proofs")
}

func TestCheckAsymptoticLaws_FiltersNaN(t *testing.T) {
	proof, err := CheckAsymptoticLaws([]Asymptotic{AsymptoticNaN(), AsymptoticOne(), NewAsymptotic(0.2, 1, 3)})
	require.NoError(t, err)
	assert.Equal(t, 2, proof.Samples)
	assert.Equal(t, "poisson.Asymptotic", proof.TypeName)
	assert.NoError(t, DefaultLawRegistry().CheckType(AsymptoticOne(), AsymptoticLaws))
}

func TestCheckAsymptoticLaws_ReportsViolations(t *testing.T) {
	// A negative coefficient is outside the algebra: adding it can cancel
	// the dominant term.
	broken := []Asymptotic{NewAsymptotic(0.1, 0, 1), {Mu: 0.1, V: 0, C: -1}}
	proof, err := CheckAsymptoticLaws(broken)
	require.Error(t, err)

	var v *LawViolation
	require.True(t, errors.As(err, &v))
	assert.Equal(t, LawMonotone, v.Law)
	assert.NotContains(t, proof.Laws, LawMonotone)
	assert.Contains(t, proof.Laws, LawCommutative)

	// Leave a clean record for the other tests.
	_, err = CheckAsymptoticLaws([]Asymptotic{AsymptoticOne(), NewAsymptotic(0.1, -0.5, 2), {Mu: math.Inf(1)}})
	require.NoError(t, err)
}
