package poisson

import (
	"fmt"
	"math"
)

// Justification tells which method produced a threshold utility.
type Justification string

const (
	JustificationAsymptotic           Justification = "Asymptotic method"
	JustificationAsymptoticSimplified Justification = "Simplified asymptotic method"
	JustificationEasyVsDifficult      Justification = "Easy vs difficult pivot"
	JustificationDifficultVsEasy      Justification = "Difficult vs easy pivot"
	JustificationOffset               Justification = "Offset method"
	JustificationOffsetCorrected      Justification = "Offset method with trio approximation correction"
)

// BestResponse is the optimal behaviour of a voter with a given ranking
// against a tau-vector.
//
// A voter whose utility for the middle candidate is below ThresholdUtility
// casts BallotLowU; above it, BallotHighU. Ballot is one of those when the
// threshold is 1 or 0 (every utility agrees), and UtilityDependent otherwise.
type BestResponse struct {
	Ranking          Ranking
	Rule             VotingRule
	ThresholdUtility float64
	Justification    Justification
	Ballot           Ballot
}

func (br *BestResponse) String() string {
	return fmt.Sprintf("<ballot = %s, threshold_utility = %s, justification = %s>",
		br.Ballot, formatFloat(br.ThresholdUtility), br.Justification)
}

// IsUtilityDependent reports whether the voter's own utility decides.
func (br *BestResponse) IsUtilityDependent() bool { return br.Ballot == UtilityDependent }

func computeBestResponse[T Number[T]](tv *TauVector[T], r Ranking) (*BestResponse, error) {
	var (
		threshold     float64
		justification Justification
		err           error
	)
	switch tv.cfg.Rule {
	case Plurality:
		threshold, justification = pluralityThreshold(tv, r)
	case AntiPlurality:
		threshold, justification = antiPluralityThreshold(tv, r)
	default:
		threshold, justification, err = approvalThreshold(tv, r)
	}
	if err != nil {
		return nil, fmt.Errorf("best response %s to %v: %w", r, tv, err)
	}
	if math.IsNaN(threshold) {
		return nil, fmt.Errorf("best response %s to %v (%s): %w", r, tv, justification, ErrUndefinedBestResponse)
	}
	return &BestResponse{
		Ranking:          r,
		Rule:             tv.cfg.Rule,
		ThresholdUtility: threshold,
		Justification:    justification,
		Ballot:           ballotForThreshold(threshold, r, tv.cfg.Rule, tv.cfg.Precision),
	}, nil
}

// ballotForThreshold maps a threshold to a ballot: near 1 every voter is
// below, near 0 every voter is above.
func ballotForThreshold(threshold float64, r Ranking, rule VotingRule, p Precision) Ballot {
	switch {
	case p.tight().IsClose(threshold, 1):
		return BallotLowU(r, rule)
	case p.zero().IsClose(threshold, 0):
		return BallotHighU(r, rule)
	}
	return UtilityDependent
}

// ratioLimit is the limit of num/den.
func ratioLimit(num, den Asymptotic) float64 { return num.Quo(den).Limit() }
