package poisson

import (
	"math"
	"testing"
)

// AssertAsymptoticLaws verifies the algebra of Asymptotic on samples.
//
// Mathematical properties:
//
//	(a·b)·c = a·(b·c)    a+b = b+a    a·0 = 0
//	a ≥ b ∧ b ≥ c ⇒ a ≥ c
func AssertAsymptoticLaws(t *testing.T, samples []Asymptotic) {
	t.Helper()

	proof, err := CheckAsymptoticLaws(samples)
	if err != nil {
		t.Errorf("Asymptotic laws failed (held: %v):\n%v", proof.Laws, err)
		return
	}
	if err := DefaultLawRegistry().CheckType(Asymptotic{}, AsymptoticLaws); err != nil {
		t.Errorf("Asymptotic not registered after a passing check: %v", err)
		return
	}

	t.Logf("✓ Asymptotic laws hold on %d samples: %v", proof.Samples, proof.Laws)
}

// AssertTauSumsToOne verifies that the shares of tv sum to 1.
func AssertTauSumsToOne[T Number[T]](t *testing.T, tv *TauVector[T]) {
	t.Helper()

	total := 0.0
	for _, s := range tv.Shares() {
		total += s.Float64()
	}
	if math.Abs(total-1) > tv.cfg.Precision.ShareAbs {
		t.Errorf("Shares of %v sum to %.12f", tv, total)
		return
	}

	t.Logf("✓ %v sums to 1", tv)
}

// AssertThresholdInUnitInterval verifies every best response to tv has a
// threshold utility in [0, 1] and a ballot consistent with it.
func AssertThresholdInUnitInterval[T Number[T]](t *testing.T, tv *TauVector[T]) {
	t.Helper()

	responses, err := tv.RankingBestResponses()
	if err != nil {
		t.Fatalf("Best responses to %v: %v", tv, err)
	}
	for _, r := range Rankings {
		br := responses[r]
		if br.ThresholdUtility < 0 || br.ThresholdUtility > 1 {
			t.Errorf("%s: threshold %g outside [0, 1] (%s)", r, br.ThresholdUtility, br.Justification)
		}
		if want := ballotForThreshold(br.ThresholdUtility, r, tv.Rule(), tv.cfg.Precision); br.Ballot != want {
			t.Errorf("%s: ballot %s, threshold %g implies %s", r, br.Ballot, br.ThresholdUtility, want)
		}
	}

	t.Logf("✓ Thresholds of %v in [0, 1]", tv)
}

// AssertEquilibrium verifies that check(s) reports want.
func AssertEquilibrium[S any](t *testing.T, s S, want EquilibriumStatus, check func(S) (EquilibriumStatus, error)) {
	t.Helper()

	got, err := check(s)
	if err != nil {
		t.Fatalf("Equilibrium check of %v: %v", s, err)
	}
	if got != want {
		t.Errorf("Strategy %v: status %s, want %s", s, got, want)
		return
	}

	t.Logf("✓ %v: %s", s, got)
}

// AssertCycle verifies that iterated voting found an attractor of the given
// period (1 for a fixed point).
func AssertCycle[S any](t *testing.T, res *IterationResult[S], period int) {
	t.Helper()

	if res.Period() != period {
		t.Errorf("Cycle period %d after %d rounds, want %d\nTrace: %v",
			res.Period(), res.Rounds, period, res.Trace)
		return
	}

	if res.Converged() {
		t.Logf("✓ Fixed point after %d rounds: %v", res.Rounds, res.Cycle[0])
	} else {
		t.Logf("✓ Period-%d cycle after %d rounds", period, res.Rounds)
	}
}
