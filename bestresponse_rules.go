package poisson

import "math"

// pluralityThreshold compares the ballots i and j of a voter ijk. Against
// j, the ballot i wins 1-u on the pivot ij and the trio, 1/2 on the pivot ik,
// and loses u/2 on the pivot jk; i is better below the threshold.
func pluralityThreshold[T Number[T]](tv *TauVector[T], r Ranking) (float64, Justification) {
	i, j, k := r.Top(), r.Middle(), r.Bottom()
	pij := tv.Pivot(i, j).Asymptotic
	pik := tv.Pivot(i, k).Asymptotic
	pjk := tv.Pivot(j, k).Asymptotic
	trio := tv.Trio().Asymptotic
	num := pij.Add(trio).Add(pik.Scale(1.0 / 2))
	den := pij.Add(trio).Add(pjk.Scale(1.0 / 2))
	return math.Min(1, ratioLimit(num, den)), JustificationAsymptotic
}

// antiPluralityThreshold compares the ballots ij (against k) and ik
// (against j) of a voter ijk: ij is better above the threshold.
func antiPluralityThreshold[T Number[T]](tv *TauVector[T], r Ranking) (float64, Justification) {
	i, j, k := r.Top(), r.Middle(), r.Bottom()
	pij := tv.Pivot(i, j).Asymptotic
	pik := tv.Pivot(i, k).Asymptotic
	pjk := tv.Pivot(j, k).Asymptotic
	trio := tv.Trio().Asymptotic
	den := pjk.Add(pij.Scale(1.0 / 2)).Add(trio.Scale(1.0 / 2))
	threshold := ratioLimit(pij.Scale(1.0/2), den) - ratioLimit(pik.Scale(1.0/2), den)
	if math.IsNaN(threshold) {
		return threshold, JustificationAsymptotic
	}
	return math.Max(0, math.Min(1, threshold)), JustificationAsymptotic
}
