package poisson

// pivotTij dispatches on the holes of the flower diagram of (x, y, z). Phi
// is always that of the weak pivot of (x, y).
//
// The cases are exhaustive: the last one takes every pattern not matched
// before, and the weak pivot handles its remaining degeneracies.
func pivotTij(r rates) (Asymptotic, tilt) {
	weak, phi := solvePivot(r.diffs(), [3]int{}, false)
	t, z := r.tau, r.zero

	var asym Asymptotic
	switch {
	case z[slotX] && z[slotXY]:
		// Holes at the bottom, x side.
		asym = PoissonValue(t[slotYZ], 0).
			Mul(PoissonOneMore(t[slotY], t[slotXZ]).Add(PoissonEq(t[slotY], t[slotXZ]))).
			Mul(PoissonValue(t[slotZ], 0))
	case z[slotY] && z[slotXY]:
		// Holes at the bottom, y side.
		asym = PoissonEq(t[slotX], t[slotYZ]).
			Mul(PoissonValue(t[slotXZ], 0)).
			Mul(PoissonValue(t[slotZ], 0))
	case z[slotY] && z[slotYZ]:
		// Consecutive holes on the y side.
		asym = PoissonValue(t[slotX], 0).
			Mul(PoissonValue(t[slotXZ], 0)).
			Mul(PoissonGe(t[slotXY], t[slotZ]))
	case z[slotX] && z[slotXZ]:
		// Consecutive holes on the x side.
		tied := PoissonValue(t[slotYZ], 0).
			Mul(PoissonValue(t[slotY], 0).Add(PoissonValue(t[slotY], 1))).
			Mul(PoissonGe(t[slotXY], t[slotZ]))
		ahead := PoissonValue(t[slotYZ], 1).
			Mul(PoissonValue(t[slotY], 0)).
			Mul(PoissonGt(t[slotXY], t[slotZ]))
		asym = tied.Add(ahead)
	case z[slotZ] && (z[slotXZ] || z[slotYZ]):
		// Holes at the top, around z.
		y, x := t[slotY]+t[slotYZ], t[slotX]+t[slotXZ]
		asym = PoissonOneMore(y, x).Add(PoissonEq(y, x))
	default:
		xz := slotTilts(phi)[slotXZ]
		if z[slotXZ] {
			xz = phi[0] * phi[2]
		}
		asym = weak.Scale(1 + xz)
	}
	return asym, phi
}
