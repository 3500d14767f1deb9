// Package poisson computes best responses and equilibria of three-candidate
// elections in large Poisson games.
//
// # Overview
//
// The number of voters is a Poisson variable of mean n. Each voter casts a
// ballot drawn from a tau-vector, the distribution of ballots, so the number
// of each ballot is an independent Poisson variable. When n grows, the
// probability of every event that can change the winner (a pivot) decays like
//
//	C · n^V · exp(-n·Mu)
//
// and the best response of a voter only depends on how these magnitudes
// compare. The package computes them in closed form and derives best
// responses, equilibria and iterated voting dynamics.
//
// # Architecture
//
// The package components:
//
//   - asymptotic  - Asymptotic algebra and Poisson building blocks
//   - event       - Duo, pivots and trios, with their offset ratios phi and psi
//   - tau         - TauVector: shares of ballots, memoized events and best responses
//   - bestresponse - approval, plurality and anti-plurality best responses
//   - strategy    - threshold and ordinal strategies
//   - profile     - ordinal statistics, cardinal, discrete and ordinal profiles
//   - iterated    - iterated voting and cycle detection
//   - analysis    - parallel classification of ordinal strategies
//   - laws        - registry of the algebraic laws of Asymptotic
//   - config      - YAML and environment configuration of the tools
//
// # Quick Start
//
// Best response of abc voters to a tau-vector in approval:
//
//	tv, err := poisson.NewTauVector(map[poisson.Ballot]poisson.Rat{
//	    "a":  poisson.NewRat(1, 10),
//	    "ab": poisson.NewRat(6, 10),
//	    "c":  poisson.NewRat(3, 10),
//	}, poisson.DefaultTauConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	br, err := tv.BestResponse("abc")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(br.Ballot, br.ThresholdUtility, br.Justification)
//
// # Asymptotic algebra
//
// An Asymptotic is a triple (Mu, V, C). The product adds rates and exponents
// and multiplies coefficients; the sum keeps the dominant term:
//
//	smaller Mu wins, then larger V, then coefficients add
//
// Mu = +Inf is the impossible event and absorbs products. NaN fields mark an
// undefined result, e.g. a quotient by an impossible event.
//
// # Events
//
// For candidates x, y, z the score differences D_x = N_x - N_yz, D_y and D_z
// are independent Skellam variables. Each event constrains them (a tie, a
// near-tie with an offset, a three-way tie) and its asymptotic comes from a
// saddle point of their joint generating function. The saddle point also gives
// the offset ratios phi: the probability of one more ballot of a kind, relative
// to the event itself. Trios additionally expose psi.
//
// # Best responses
//
// A voter with ranking xyz chooses between BallotLowU and BallotHighU. The
// threshold utility for the middle candidate separates them: below it the
// voter casts BallotLowU. In approval the threshold is obtained by:
//
//   - the asymptotic method when two consecutive ballots of the compass
//     order a, ab, b, bc, c, ac are absent
//   - the limit pivot theorem when one pivot is infinitely more likely
//   - the offset method otherwise
//
// # Numbers
//
// Shares and thresholds are generic over Number: Rat for exact rationals and
// Float for float64. Asymptotics always use float64.
//
// # Equilibria
//
// A strategy maps rankings to thresholds. It is an equilibrium when the best
// responses to its tau-vector induce the same tau-vector. Iterated voting
// repeatedly replaces a strategy by its best responses and reports the cycle
// it ends in:
//
//	res, err := profile.IteratedVoting(start, 100)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if res.Converged() {
//	    fmt.Println("fixed point:", res.Cycle[0])
//	}
package poisson
