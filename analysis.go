package poisson

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// EquilibriumStatus is the outcome of an equilibrium check.
type EquilibriumStatus string

const (
	StatusEquilibrium      EquilibriumStatus = "EQUILIBRIUM"
	StatusUtilityDependent EquilibriumStatus = "UTILITY_DEPENDENT"
	StatusInconclusive     EquilibriumStatus = "INCONCLUSIVE"
	StatusNotEquilibrium   EquilibriumStatus = "NOT_EQUILIBRIUM"
)

// AnalyzedStrategies sorts strategies by equilibrium status, keeping the
// input order within each class.
type AnalyzedStrategies[S any] struct {
	Equilibria       []S
	UtilityDependent []S
	Inconclusive     []S
	NonEquilibria    []S
}

// Len is the number of analyzed strategies.
func (a *AnalyzedStrategies[S]) Len() int {
	return len(a.Equilibria) + len(a.UtilityDependent) + len(a.Inconclusive) + len(a.NonEquilibria)
}

// AnalyzeOptions bounds the parallelism of AnalyzeStrategies.
type AnalyzeOptions struct {
	// Workers is the number of concurrent checks; 0 means GOMAXPROCS.
	Workers int
	// Logger receives a debug record per strategy. Nil means slog.Default().
	Logger *slog.Logger
}

// AnalyzeStrategies runs isEquilibrium on every strategy with bounded
// parallelism. An INCONCLUSIVE status aborts the analysis with
// ErrInconclusive: with the limit pivot theorem it cannot happen on a
// complete strategy.
func AnalyzeStrategies[S any](ctx context.Context, strategies []S, isEquilibrium func(S) (EquilibriumStatus, error), opts AnalyzeOptions) (*AnalyzedStrategies[S], error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	statuses := make([]EquilibriumStatus, len(strategies))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, s := range strategies {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			status, err := isEquilibrium(s)
			if err != nil {
				return fmt.Errorf("strategy %v: %w", s, err)
			}
			if status == StatusInconclusive {
				return fmt.Errorf("strategy %v: %w", s, ErrInconclusive)
			}
			logger.Debug("analyzed strategy", "index", i, "strategy", s, "status", status)
			statuses[i] = status
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &AnalyzedStrategies[S]{}
	for i, s := range strategies {
		switch statuses[i] {
		case StatusEquilibrium:
			out.Equilibria = append(out.Equilibria, s)
		case StatusUtilityDependent:
			out.UtilityDependent = append(out.UtilityDependent, s)
		case StatusInconclusive:
			out.Inconclusive = append(out.Inconclusive, s)
		default:
			out.NonEquilibria = append(out.NonEquilibria, s)
		}
	}
	return out, nil
}
