package poisson

import (
	"fmt"
	"log/slog"
	"slices"
)

// IterationResult is the trajectory of an iterated best-response process.
type IterationResult[S any] struct {
	// Trace holds every visited strategy, starting with the initial one.
	Trace []S
	// Cycle is the attractor: one strategy for a fixed point, several for a
	// periodic orbit, none when the process neither converged nor cycled
	// within the round budget.
	Cycle []S
	// Rounds is the number of best-response steps performed.
	Rounds int
}

// Converged reports whether the process reached a fixed point.
func (r *IterationResult[S]) Converged() bool { return len(r.Cycle) == 1 }

// Period is the length of the detected cycle; 0 when none was found.
func (r *IterationResult[S]) Period() int { return len(r.Cycle) }

// IterateFuncs are the operations Iterate needs on strategies.
type IterateFuncs[S any] struct {
	// Next maps a strategy to the best responses to its tau-vector.
	Next func(S) (S, error)
	// Equal detects an exact repeat, which stops the iteration early.
	Equal func(a, b S) bool
	// IsClose is used for cycle detection once the iteration is over.
	IsClose func(a, b S) bool
	// Logger receives one debug record per round. Nil means slog.Default().
	Logger *slog.Logger
}

// Iterate applies f.Next at most maxRounds times from start and records the
// trajectory. It stops as soon as a strategy repeats exactly, then searches
// the trace backwards for a cycle.
func Iterate[S any](start S, maxRounds int, f IterateFuncs[S]) (*IterationResult[S], error) {
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}
	res := &IterationResult[S]{Trace: []S{start}}
	logger.Debug("iterated voting", "round", -1, "strategy", start)

	s := start
	for round := 0; round < maxRounds; round++ {
		next, err := f.Next(s)
		if err != nil {
			return nil, fmt.Errorf("iterated voting round %d: %w", round, err)
		}
		res.Rounds++
		logger.Debug("iterated voting", "round", round, "strategy", next)

		repeated := slices.ContainsFunc(res.Trace, func(p S) bool { return f.Equal(p, next) })
		res.Trace = append(res.Trace, next)
		if repeated {
			break
		}
		s = next
	}

	res.Cycle = DetectCycle(res.Trace, f.IsClose)
	logger.Debug("iterated voting done", "rounds", res.Rounds, "period", res.Period())
	return res, nil
}

// DetectCycle looks for the latest strategy that is close to an earlier one:
// for end from the last index down to 1, and begin from end-1 down to 0, the
// first close pair gives trace[begin:end]. It returns nil if no pair is close.
func DetectCycle[S any](trace []S, isClose func(a, b S) bool) []S {
	for end := len(trace) - 1; end > 0; end-- {
		for begin := end - 1; begin >= 0; begin-- {
			if isClose(trace[begin], trace[end]) {
				return trace[begin:end]
			}
		}
	}
	return nil
}
