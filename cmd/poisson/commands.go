package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/alexshd/poisson"
)

// --- Global Command Variables ---
var (
	configPath string
	logLevel   string
	numeric    string

	cfg poisson.Config

	rootCmd = &cobra.Command{
		Use:   "poisson",
		Short: "Asymptotic analysis of three-candidate Poisson voting games",
		Long: `poisson computes pivot probabilities, best responses, equilibria and
iterated voting of large Poisson elections with three candidates under
approval, plurality or anti-plurality voting.

Every command reads a YAML document (a path, or - for standard input) and
writes a YAML report.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	bestResponseCmd = &cobra.Command{
		Use:   "best-response [document]",
		Short: "Best response of every ranking to the tau-vector of the document",
		Args:  cobra.ExactArgs(1),
		RunE:  runCommand(bestResponse[poisson.Rat], bestResponse[poisson.Float]),
	}

	eventsCmd = &cobra.Command{
		Use:   "events [document]",
		Short: "Asymptotics and offset ratios of every event of the tau-vector",
		Args:  cobra.ExactArgs(1),
		RunE:  runCommand(events[poisson.Rat], events[poisson.Float]),
	}

	equilibriumCmd = &cobra.Command{
		Use:   "equilibrium [document]",
		Short: "Check whether the strategy of the document is an equilibrium of its profile",
		Args:  cobra.ExactArgs(1),
		RunE:  runCommand(equilibrium[poisson.Rat], equilibrium[poisson.Float]),
	}

	iterateCmd = &cobra.Command{
		Use:   "iterate [document]",
		Short: "Run iterated voting from the strategy of the document",
		Args:  cobra.ExactArgs(1),
		RunE:  runCommand(iterate[poisson.Rat], iterate[poisson.Float]),
	}

	analyzeCmd = &cobra.Command{
		Use:   "analyze [document]",
		Short: "Best responses to a batch of tau-vectors and ordinal equilibria of a profile",
		Args:  cobra.ExactArgs(1),
		RunE:  runCommand(analyze[poisson.Rat], analyze[poisson.Float]),
	}

	lawsCmd = &cobra.Command{
		Use:   "laws [document]",
		Short: "Check the algebraic laws of Asymptotic on the events of the tau-vector",
		Args:  cobra.ExactArgs(1),
		RunE:  runCommand(laws[poisson.Rat], laws[poisson.Float]),
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file (defaults apply when missing)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&numeric, "numeric", "", "Number representation: rat (exact) or float")

	rootCmd.AddCommand(bestResponseCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(equilibriumCmd)
	rootCmd.AddCommand(iterateCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(lawsCmd)
}

// setup loads the configuration, applies flag overrides and installs the
// tint handler.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := poisson.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		loaded.LogLevel = logLevel
	}
	if cmd.Flags().Changed("numeric") {
		loaded.Numeric = numeric
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded

	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      cfg.SlogLevel(),
			TimeFormat: "15:04:05",
		}),
	))
	slog.Debug("configuration loaded", "path", configPath, "rule", cfg.Rule, "numeric", cfg.Numeric)
	return nil
}

// report is the YAML output of every command.
type report struct {
	RunID   string `yaml:"run_id"`
	Command string `yaml:"command"`
	Rule    string `yaml:"rule"`
	Numeric string `yaml:"numeric"`
	Result  any    `yaml:"result"`
}

// commandFunc computes the result of a command for one number type.
type commandFunc func(ctx context.Context, doc *document, c poisson.Config) (any, error)

// runCommand reads the document, applies its rule, dispatches on the
// configured number type and writes the report.
func runCommand(exact, float commandFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		doc, err := readDocument(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		c := cfg
		if doc.Rule != "" {
			c.Rule = poisson.VotingRule(doc.Rule)
		}
		if doc.MaxRounds > 0 {
			c.MaxRounds = doc.MaxRounds
		}

		run := exact
		if c.Numeric == poisson.NumericFloat {
			run = float
		}
		runID := uuid.NewString()
		logger := slog.Default().With("run_id", runID, "command", cmd.Name())
		logger.Info("running", "document", args[0])

		result, err := run(cmd.Context(), doc, c)
		if err != nil {
			logger.Error("failed", "err", err)
			return err
		}
		return writeReport(cmd.OutOrStdout(), report{
			RunID:   runID,
			Command: cmd.Name(),
			Rule:    string(c.Rule),
			Numeric: c.Numeric,
			Result:  result,
		})
	}
}

func writeReport(w io.Writer, r report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return enc.Close()
}

var errNoTau = errors.New("document has no tau")

func tauOf[T poisson.Number[T]](raw map[string]string, c poisson.Config) (*poisson.TauVector[T], error) {
	if len(raw) == 0 {
		return nil, errNoTau
	}
	return poisson.ParseTauVector[T](raw, c.TauConfig())
}

type bestResponseRow struct {
	Ranking          string  `yaml:"ranking"`
	Ballot           string  `yaml:"ballot"`
	ThresholdUtility float64 `yaml:"threshold_utility"`
	Justification    string  `yaml:"justification"`
}

type bestResponseTable struct {
	Tau       string            `yaml:"tau"`
	Responses []bestResponseRow `yaml:"responses,omitempty"`
	Error     string            `yaml:"error,omitempty"`
}

func bestResponses[T poisson.Number[T]](tv *poisson.TauVector[T]) (bestResponseTable, error) {
	table := bestResponseTable{Tau: tv.String()}
	responses, err := tv.RankingBestResponses()
	if err != nil {
		return table, err
	}
	for _, r := range poisson.Rankings {
		br := responses[r]
		table.Responses = append(table.Responses, bestResponseRow{
			Ranking:          string(r),
			Ballot:           string(br.Ballot),
			ThresholdUtility: br.ThresholdUtility,
			Justification:    string(br.Justification),
		})
	}
	return table, nil
}

func bestResponse[T poisson.Number[T]](_ context.Context, doc *document, c poisson.Config) (any, error) {
	tv, err := tauOf[T](doc.Tau, c)
	if err != nil {
		return nil, err
	}
	return bestResponses(tv)
}

type eventRow struct {
	Name       string  `yaml:"name"`
	Asymptotic string  `yaml:"asymptotic"`
	Limit      float64 `yaml:"limit"`
	Detail     string  `yaml:"detail"`
}

func events[T poisson.Number[T]](_ context.Context, doc *document, c poisson.Config) (any, error) {
	tv, err := tauOf[T](doc.Tau, c)
	if err != nil {
		return nil, err
	}
	var rows []eventRow
	add := func(name string, e *poisson.Event) {
		rows = append(rows, eventRow{Name: name, Asymptotic: e.Asymptotic.String(), Limit: e.Limit(), Detail: e.String()})
	}
	pairs := [][2]poisson.Candidate{
		{poisson.CandidateA, poisson.CandidateB},
		{poisson.CandidateA, poisson.CandidateC},
		{poisson.CandidateB, poisson.CandidateC},
	}
	for _, p := range pairs {
		name := p[0].String() + p[1].String()
		add("duo_"+name, tv.Duo(p[0], p[1]))
		add("pivot_weak_"+name, tv.PivotWeak(p[0], p[1]))
		add("pivot_strict_"+name, tv.PivotStrict(p[0], p[1]))
	}
	add("trio", tv.Trio())
	for _, r := range poisson.Rankings {
		add("pivot_tij_"+string(r), tv.PivotTij(r))
		add("pivot_tjk_"+string(r), tv.PivotTjk(r))
		add("trio_1t_"+string(r), tv.Trio1t(r))
		add("trio_2t_"+string(r), tv.Trio2t(r))
	}
	return map[string]any{"tau": tv.String(), "events": rows}, nil
}

func equilibrium[T poisson.Number[T]](_ context.Context, doc *document, c poisson.Config) (any, error) {
	ps, err := buildProfile[T](doc.Profile, c.ProfileConfig(slog.Default()), c.RatioSincere)
	if err != nil {
		return nil, err
	}
	if ps.ordinal != nil {
		s, err := parseStrategyOrdinal[T](doc.Strategy, c.Rule)
		if err != nil {
			return nil, err
		}
		status, err := ps.ordinal.IsEquilibrium(s)
		if err != nil {
			return nil, err
		}
		return map[string]string{"profile": ps.ordinal.String(), "strategy": s.String(), "status": string(status)}, nil
	}
	s, err := parseStrategyThreshold[T](doc.Strategy, c.Rule)
	if err != nil {
		return nil, err
	}
	status, err := ps.discrete.IsEquilibrium(s)
	if err != nil {
		return nil, err
	}
	return map[string]string{"profile": ps.discrete.String(), "strategy": s.String(), "status": string(status)}, nil
}

type iterationReport struct {
	Profile   string   `yaml:"profile"`
	Rounds    int      `yaml:"rounds"`
	Converged bool     `yaml:"converged"`
	Period    int      `yaml:"period"`
	Cycle     []string `yaml:"cycle"`
	Trace     []string `yaml:"trace"`
}

func iterate[T poisson.Number[T]](_ context.Context, doc *document, c poisson.Config) (any, error) {
	ps, err := buildProfile[T](doc.Profile, c.ProfileConfig(slog.Default()), c.RatioSincere)
	if err != nil {
		return nil, err
	}
	if ps.discrete == nil {
		return nil, errors.New("iterated voting needs a profile with utilities")
	}
	start, err := parseStrategyThreshold[T](doc.Strategy, c.Rule)
	if err != nil {
		return nil, err
	}
	res, err := ps.discrete.IteratedVoting(start, c.MaxRounds)
	if err != nil {
		return nil, err
	}
	out := iterationReport{
		Profile:   ps.discrete.String(),
		Rounds:    res.Rounds,
		Converged: res.Converged(),
		Period:    res.Period(),
	}
	for _, s := range res.Cycle {
		out.Cycle = append(out.Cycle, s.String())
	}
	for _, s := range res.Trace {
		out.Trace = append(out.Trace, s.String())
	}
	return out, nil
}

type analysisReport struct {
	BestResponses []bestResponseTable `yaml:"best_responses,omitempty"`
	Profile       string              `yaml:"profile,omitempty"`
	Equilibria    map[string][]string `yaml:"equilibria,omitempty"`
	Pure          map[string][]string `yaml:"pure,omitempty"`
}

func strategyNames[S fmt.Stringer](ss []S) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.String()
	}
	return out
}

func classification[S fmt.Stringer](a *poisson.AnalyzedStrategies[S]) map[string][]string {
	return map[string][]string{
		"equilibria":        strategyNames(a.Equilibria),
		"utility_dependent": strategyNames(a.UtilityDependent),
		"inconclusive":      strategyNames(a.Inconclusive),
		"non_equilibria":    strategyNames(a.NonEquilibria),
	}
}

func analyze[T poisson.Number[T]](ctx context.Context, doc *document, c poisson.Config) (any, error) {
	var out analysisReport

	taus := doc.Taus
	if len(doc.Tau) > 0 {
		taus = append([]map[string]string{doc.Tau}, taus...)
	}
	out.BestResponses = make([]bestResponseTable, len(taus))
	g, gctx := errgroup.WithContext(ctx)
	if c.Workers > 0 {
		g.SetLimit(c.Workers)
	}
	for i, raw := range taus {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tv, err := tauOf[T](raw, c)
			if err != nil {
				return fmt.Errorf("tau #%d: %w", i, err)
			}
			table, err := bestResponses(tv)
			if err != nil {
				// Undefined best responses are reported, not fatal.
				table.Error = err.Error()
				slog.Warn("best responses failed", "tau", tv, "err", err)
			}
			out.BestResponses[i] = table
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if doc.Profile == nil {
		return out, nil
	}
	ps, err := buildProfile[T](doc.Profile, c.ProfileConfig(slog.Default()), c.RatioSincere)
	if err != nil {
		return nil, err
	}
	var analyzed *poisson.AnalyzedStrategies[*poisson.StrategyOrdinal[T]]
	if ps.ordinal != nil {
		out.Profile = ps.ordinal.String()
		analyzed, err = ps.ordinal.AnalyzeStrategiesOrdinal(ctx, c.AnalyzeOptions(slog.Default()))
	} else {
		out.Profile = ps.discrete.String()
		analyzed, err = ps.discrete.AnalyzeStrategiesOrdinal(ctx, c.AnalyzeOptions(slog.Default()))
	}
	if err != nil {
		return nil, err
	}
	out.Equilibria = classification(analyzed)

	if ps.discrete != nil {
		pure, err := ps.discrete.AnalyzeStrategiesPure(ctx, c.AnalyzeOptions(slog.Default()))
		if err != nil {
			return nil, err
		}
		out.Pure = classification(pure)
	}
	return out, nil
}

func laws[T poisson.Number[T]](_ context.Context, doc *document, c poisson.Config) (any, error) {
	samples := []poisson.Asymptotic{
		poisson.AsymptoticZero(),
		poisson.AsymptoticOne(),
		poisson.PoissonEq(0.3, 0.7),
		poisson.PoissonGt(0.2, 0.5),
		poisson.NewAsymptotic(0.5, -1, 2),
	}
	if len(doc.Tau) > 0 {
		tv, err := tauOf[T](doc.Tau, c)
		if err != nil {
			return nil, err
		}
		samples = append(samples, tv.Trio().Asymptotic)
		for _, r := range poisson.Rankings {
			samples = append(samples, tv.PivotTij(r).Asymptotic, tv.PivotTjk(r).Asymptotic)
		}
	}
	proof, err := poisson.CheckAsymptoticLaws(samples)
	out := map[string]any{
		"type":    proof.TypeName,
		"samples": proof.Samples,
		"laws":    proof.Laws,
	}
	if err != nil {
		out["violations"] = err.Error()
	}
	out["registry"] = "verified"
	if err := poisson.DefaultLawRegistry().CheckType(poisson.Asymptotic{}, poisson.AsymptoticLaws); err != nil {
		out["registry"] = err.Error()
	}
	return out, nil
}
