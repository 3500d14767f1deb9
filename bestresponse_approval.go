package poisson

import (
	"fmt"
	"math"
)

// approvalThreshold compares the ballots i and ij of a voter ijk.
//
// With two consecutive zeros in the compass diagram, the limit pivot theorem
// does not apply and the threshold is the limit of the weighted ratio of the
// personalized pivots and trios. Otherwise the theorem decides from the duos
// whether each pivot is easy (or tight) or difficult.
func approvalThreshold[T Number[T]](tv *TauVector[T], r Ranking) (float64, Justification, error) {
	if tv.HasTwoConsecutiveZeros() {
		return asymptoticMethod(tv, r), JustificationAsymptotic, nil
	}
	return limitPivotTheorem(tv, r)
}

func asymptoticMethod[T Number[T]](tv *TauVector[T], r Ranking) float64 {
	tij := tv.PivotTij(r).Asymptotic
	tjk := tv.PivotTjk(r).Asymptotic
	t1 := tv.Trio1t(r).Asymptotic
	t2 := tv.Trio2t(r).Asymptotic
	num := tij.Scale(1.0 / 2).Add(t1.Scale(1.0 / 3)).Add(t2.Scale(1.0 / 6))
	den := tij.Scale(1.0 / 2).Add(tjk.Scale(1.0 / 2)).Add(t1.Scale(2.0 / 3)).Add(t2.Scale(1.0 / 3))
	return ratioLimit(num, den)
}

func limitPivotTheorem[T Number[T]](tv *TauVector[T], r Ranking) (float64, Justification, error) {
	i, j, k := r.Top(), r.Middle(), r.Bottom()
	bi, bj, bk := MakeBallot(i), MakeBallot(j), MakeBallot(k)
	ij, ik, jk := MakeBallot(i, j), MakeBallot(i, k), MakeBallot(j, k)
	tight := tv.cfg.Precision.tight()

	// A null share contributes nothing, even against an infinite tilt.
	weighted := func(e *Event, ballots ...Ballot) float64 {
		total := 0.0
		for _, b := range ballots {
			if s := tv.Share(b); !isZero(s) {
				total += s.Float64() * e.PhiOf(b)
			}
		}
		return total
	}

	duoIJ := tv.Duo(i, j)
	scoreIJ := weighted(duoIJ, bi, ij, ik)
	scoreK := weighted(duoIJ, bk, ik, jk)
	ijEasy := scoreIJ > scoreK || tight.IsClose(scoreIJ, scoreK)

	duoJK := tv.Duo(j, k)
	scoreJK := weighted(duoJK, bj, ij, jk)
	scoreI := weighted(duoJK, bi, ij, ik)
	jkEasy := scoreJK > scoreI || tight.IsClose(scoreJK, scoreI)

	switch {
	case ijEasy && jkEasy:
		// Both pivots are easy: the trios are negligible.
		tij := tv.PivotTij(r).Asymptotic.Scale(1.0 / 2)
		tjk := tv.PivotTjk(r).Asymptotic.Scale(1.0 / 2)
		return ratioLimit(tij, tij.Add(tjk)), JustificationAsymptoticSimplified, nil
	case ijEasy:
		return 1, JustificationEasyVsDifficult, nil
	case jkEasy:
		return 0, JustificationDifficultVsEasy, nil
	}
	return offsetMethod(tv, r)
}

// offsetMethod handles two difficult pivots through the offset ratios of the
// trio. Those ratios are below 1 in theory; the trio approximation can push
// one slightly above, which is read as an infinite pivot on that side.
func offsetMethod[T Number[T]](tv *TauVector[T], r Ranking) (float64, Justification, error) {
	i, j, k := r.Top(), r.Middle(), r.Bottom()
	trio := tv.Trio()
	psi := tv.cfg.Precision.psi()

	overshoot := func(c Candidate) (bool, error) {
		return offsetOvershoot("psi_"+c.String(), trio.PsiOf(MakeBallot(c)), psi)
	}
	kOver, err := overshoot(k)
	if err != nil {
		return math.NaN(), JustificationOffset, err
	}
	iOver, err := overshoot(i)
	if err != nil {
		return math.NaN(), JustificationOffset, err
	}
	switch {
	case kOver && iOver:
		return math.NaN(), JustificationOffset, &OvershootError{
			Ratio: "psi_" + i.String() + " and psi_" + k.String(),
			Value: trio.PsiOf(MakeBallot(k)),
		}
	case kOver:
		// pij is infinite, pjk is not.
		return 1, JustificationOffsetCorrected, nil
	case iOver:
		return 0, JustificationOffsetCorrected, nil
	}

	psiI := trio.PsiOf(MakeBallot(i))
	psiJ := trio.PsiOf(MakeBallot(j))
	psiK := trio.PsiOf(MakeBallot(k))
	psiIK := trio.PsiOf(MakeBallot(i, k))
	psiIJ := trio.PsiOf(MakeBallot(i, j))

	pij := (1 + psiIK) / (1 - psiK)
	pjk := (1 + psiJ) * psiI * psiI / (1 - psiI)
	p1t, p2t := psiI, psiIJ
	threshold := (pij/2 + p1t/3 + p2t/6) / (pij/2 + pjk/2 + p1t*2/3 + p2t/3)
	return threshold, JustificationOffset, nil
}

// offsetOvershoot reports whether an offset ratio sits at 1 within tol, which
// is read as an infinite pivot. A ratio beyond tol is an OvershootError and
// a NaN ratio means the trio itself is undefined.
func offsetOvershoot(name string, v float64, tol Tolerance) (bool, error) {
	switch {
	case math.IsNaN(v):
		return false, fmt.Errorf("%s: %w", name, ErrUndefinedBestResponse)
	case v < 1:
		return false, nil
	case tol.IsClose(v, 1):
		return true, nil
	}
	return false, &OvershootError{Ratio: name, Value: v}
}
