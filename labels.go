package poisson

import (
	"fmt"
	"sort"
	"strings"
)

// Candidate is one of the three candidates 'a', 'b', 'c'.
type Candidate byte

const (
	CandidateA Candidate = 'a'
	CandidateB Candidate = 'b'
	CandidateC Candidate = 'c'
)

// Candidates lists the three candidates in order.
var Candidates = [3]Candidate{CandidateA, CandidateB, CandidateC}

func (c Candidate) String() string { return string(rune(c)) }

func (c Candidate) index() int { return int(c - 'a') }

func (c Candidate) valid() bool { return c >= 'a' && c <= 'c' }

// otherCandidate returns the candidate that is neither i nor j.
func otherCandidate(i, j Candidate) Candidate {
	return Candidate('a' + 'b' + 'c' - int(i) - int(j))
}

// Ranking is a strict order of the three candidates, most preferred first,
// e.g. "abc".
type Ranking string

// Rankings lists the six rankings in lexicographic order.
var Rankings = [6]Ranking{"abc", "acb", "bac", "bca", "cab", "cba"}

// ParseRanking validates s.
func ParseRanking(s string) (Ranking, error) {
	r := Ranking(strings.TrimSpace(s))
	if r.Index() < 0 {
		return "", fmt.Errorf("unknown ranking %q", s)
	}
	return r, nil
}

// Index returns the position of r in Rankings, or -1.
func (r Ranking) Index() int {
	for i, q := range Rankings {
		if q == r {
			return i
		}
	}
	return -1
}

func (r Ranking) Top() Candidate    { return Candidate(r[0]) }
func (r Ranking) Middle() Candidate { return Candidate(r[1]) }
func (r Ranking) Bottom() Candidate { return Candidate(r[2]) }

// prefers reports whether r ranks x strictly above y.
func (r Ranking) prefers(x, y Candidate) bool {
	return strings.IndexByte(string(r), byte(x)) < strings.IndexByte(string(r), byte(y))
}

// Ballot is a non-empty proper subset of the candidates, written with sorted
// letters: "a", "b", "c", "ab", "ac", "bc".
type Ballot string

// Ballots lists the six ballots: singles first, then pairs.
var Ballots = [6]Ballot{"a", "b", "c", "ab", "ac", "bc"}

// UtilityDependent is the ballot reported when the best ballot depends on the
// voter's utility for the middle candidate.
const UtilityDependent Ballot = "utility-dependent"

// compass is the cyclic order of the ballots around the compass diagram.
var compass = [6]Ballot{"a", "ab", "b", "bc", "c", "ac"}

// MakeBallot builds the canonical ballot approving the given candidates.
func MakeBallot(cs ...Candidate) Ballot {
	letters := make([]byte, 0, len(cs))
	for _, c := range cs {
		letters = append(letters, byte(c))
	}
	sort.Slice(letters, func(i, j int) bool { return letters[i] < letters[j] })
	return Ballot(letters)
}

// ParseBallot accepts any letter order ("ba" is "ab").
func ParseBallot(s string) (Ballot, error) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 2 {
		return "", fmt.Errorf("unknown ballot %q", s)
	}
	cs := make([]Candidate, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := Candidate(s[i])
		if !c.valid() {
			return "", fmt.Errorf("unknown ballot %q", s)
		}
		cs = append(cs, c)
	}
	b := MakeBallot(cs...)
	if b.Index() < 0 {
		return "", fmt.Errorf("unknown ballot %q", s)
	}
	return b, nil
}

// Index returns the position of b in Ballots, or -1.
func (b Ballot) Index() int {
	for i, q := range Ballots {
		if q == b {
			return i
		}
	}
	return -1
}

// Contains reports whether b approves c.
func (b Ballot) Contains(c Candidate) bool {
	return strings.IndexByte(string(b), byte(c)) >= 0
}

// IsPair reports whether b approves two candidates.
func (b Ballot) IsPair() bool { return len(b) == 2 }

// WeakOrder is a preference with one indifference: "a>b~c" (a lover) or
// "a~b>c" (a hater of c).
type WeakOrder string

// WeakOrders lists the six weak orders.
var WeakOrders = [6]WeakOrder{"a>b~c", "b>a~c", "c>a~b", "a~b>c", "a~c>b", "b~c>a"}

// ParseWeakOrder validates s.
func ParseWeakOrder(s string) (WeakOrder, error) {
	w := WeakOrder(strings.TrimSpace(s))
	if w.Index() < 0 {
		return "", fmt.Errorf("unknown weak order %q", s)
	}
	return w, nil
}

// Index returns the position of w in WeakOrders, or -1.
func (w WeakOrder) Index() int {
	for i, q := range WeakOrders {
		if q == w {
			return i
		}
	}
	return -1
}

// IsLover reports whether w has the form "x>y~z".
func (w WeakOrder) IsLover() bool { return len(w) == 5 && w[1] == '>' }

// IsHater reports whether w has the form "x~y>z".
func (w WeakOrder) IsHater() bool { return len(w) == 5 && w[1] == '~' }

// high is the preferred candidate of a lover.
func (w WeakOrder) high() Candidate { return Candidate(w[0]) }

// low is the rejected candidate of a hater.
func (w WeakOrder) low() Candidate { return Candidate(w[4]) }

// level is 0 in the preferred group of w and 1 in the other.
func (w WeakOrder) level(c Candidate) int {
	if w.IsLover() {
		if c == w.high() {
			return 0
		}
		return 1
	}
	if c == w.low() {
		return 1
	}
	return 0
}

// prefers reports whether w ranks x strictly above y.
func (w WeakOrder) prefers(x, y Candidate) bool { return w.level(x) < w.level(y) }

// VotingRule selects which ballots are allowed.
type VotingRule string

const (
	// Approval allows every ballot.
	Approval VotingRule = "approval"
	// Plurality allows single-candidate ballots only.
	Plurality VotingRule = "plurality"
	// AntiPlurality allows two-candidate ballots only (a vote against the
	// third candidate).
	AntiPlurality VotingRule = "anti_plurality"
)

// ParseVotingRule validates s.
func ParseVotingRule(s string) (VotingRule, error) {
	switch r := VotingRule(strings.TrimSpace(s)); r {
	case Approval, Plurality, AntiPlurality:
		return r, nil
	}
	return "", fmt.Errorf("unknown voting rule %q", s)
}

// allows reports whether a ballot can be cast under the rule.
func (rule VotingRule) allows(b Ballot) bool {
	switch rule {
	case Plurality:
		return !b.IsPair()
	case AntiPlurality:
		return b.IsPair()
	}
	return true
}

// BallotLowU is the ballot of a voter with ranking r whose utility for the
// middle candidate is below the threshold: the top candidate alone in
// approval and plurality, a vote against the middle candidate in
// anti-plurality.
func BallotLowU(r Ranking, rule VotingRule) Ballot {
	if rule == AntiPlurality {
		return MakeBallot(r.Top(), r.Bottom())
	}
	return MakeBallot(r.Top())
}

// BallotHighU is the ballot of a voter with ranking r whose utility for the
// middle candidate is above the threshold: the top two in approval and
// anti-plurality, the middle candidate in plurality.
func BallotHighU(r Ranking, rule VotingRule) Ballot {
	if rule == Plurality {
		return MakeBallot(r.Middle())
	}
	return MakeBallot(r.Top(), r.Middle())
}

// sextet is the slot order of the six rates seen from a labelled triple
// (x, y, z).
const (
	slotX = iota
	slotY
	slotZ
	slotXY
	slotXZ
	slotYZ
)

// triple returns the six ballots seen from (x, y, z), in slot order.
func triple(x, y, z Candidate) [6]Ballot {
	return [6]Ballot{
		MakeBallot(x), MakeBallot(y), MakeBallot(z),
		MakeBallot(x, y), MakeBallot(x, z), MakeBallot(y, z),
	}
}
