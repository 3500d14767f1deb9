package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/alexshd/poisson"
)

// document is the YAML input of every command. Numbers are kept as strings
// so that "1/3" stays exact with --numeric=rat.
type document struct {
	// Rule overrides the configured voting rule.
	Rule string `yaml:"rule" validate:"omitempty,oneof=approval plurality anti_plurality"`

	// Tau is a single tau-vector, ballot -> share.
	Tau map[string]string `yaml:"tau" validate:"omitempty,max=6"`

	// Taus is a batch of tau-vectors for analyze.
	Taus []map[string]string `yaml:"taus" validate:"omitempty,dive,max=6"`

	Profile *profileDocument `yaml:"profile"`

	// Strategy maps rankings to ballots ("a", "ab") or thresholds ("1/3").
	Strategy map[string]string `yaml:"strategy" validate:"omitempty,max=6"`

	// MaxRounds overrides the configured bound of iterated voting.
	MaxRounds int `yaml:"max_rounds" validate:"gte=0"`
}

// profileDocument describes either a discrete profile (Utilities) or an
// ordinal one (Rankings).
type profileDocument struct {
	RatioSincere string `yaml:"ratio_sincere"`

	// Rankings is ranking -> share for an ordinal profile.
	Rankings map[string]string `yaml:"rankings" validate:"omitempty,max=6"`

	// Utilities is ranking -> utility -> share for a discrete profile.
	Utilities map[string]map[string]string `yaml:"utilities" validate:"omitempty,max=6"`

	WeakOrders map[string]string `yaml:"weak_orders" validate:"omitempty,max=6"`
}

var (
	docValidateOnce sync.Once
	docValidate     *validator.Validate
)

func documentValidator() *validator.Validate {
	docValidateOnce.Do(func() {
		docValidate = validator.New()
	})
	return docValidate
}

// readDocument decodes path, or standard input for "-".
func readDocument(path string, stdin io.Reader) (*document, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document %s: %w", path, err)
	}
	if err := documentValidator().Struct(&doc); err != nil {
		return nil, fmt.Errorf("invalid document %s: %w", path, err)
	}
	if doc.Profile != nil && len(doc.Profile.Rankings) > 0 && len(doc.Profile.Utilities) > 0 {
		return nil, fmt.Errorf("invalid document %s: profile has both rankings and utilities", path)
	}
	return &doc, nil
}

func parseRanking(s string) (poisson.Ranking, error) { return poisson.ParseRanking(s) }

func parseWeakOrders[T poisson.Number[T]](raw map[string]string) (map[poisson.WeakOrder]T, error) {
	out := make(map[poisson.WeakOrder]T, len(raw))
	for k, v := range raw {
		w, err := poisson.ParseWeakOrder(k)
		if err != nil {
			return nil, err
		}
		share, err := poisson.ParseNumber[T](v)
		if err != nil {
			return nil, fmt.Errorf("weak order %s: %w", w, err)
		}
		out[w] = share
	}
	return out, nil
}

func parseRatio[T poisson.Number[T]](raw string, fallback float64) (T, error) {
	if strings.TrimSpace(raw) == "" {
		var zero T
		return zero.FromFloat(fallback), nil
	}
	return poisson.ParseNumber[T](raw)
}

// profiles holds whichever profile the document describes.
type profiles[T poisson.Number[T]] struct {
	discrete *poisson.ProfileDiscrete[T]
	ordinal  *poisson.ProfileOrdinal[T]
}

var errNoProfile = errors.New("document has no profile")

func buildProfile[T poisson.Number[T]](doc *profileDocument, cfg poisson.ProfileConfig, ratioFallback float64) (profiles[T], error) {
	var out profiles[T]
	if doc == nil {
		return out, errNoProfile
	}
	weak, err := parseWeakOrders[T](doc.WeakOrders)
	if err != nil {
		return out, err
	}
	if len(doc.Utilities) > 0 {
		ratio, err := parseRatio[T](doc.RatioSincere, ratioFallback)
		if err != nil {
			return out, fmt.Errorf("ratio_sincere: %w", err)
		}
		types := make(map[poisson.Ranking][]poisson.UtilityShare[T], len(doc.Utilities))
		for k, groups := range doc.Utilities {
			r, err := parseRanking(k)
			if err != nil {
				return out, err
			}
			for u, s := range groups {
				utility, err := poisson.ParseNumber[T](u)
				if err != nil {
					return out, fmt.Errorf("%s utility: %w", r, err)
				}
				share, err := poisson.ParseNumber[T](s)
				if err != nil {
					return out, fmt.Errorf("%s share: %w", r, err)
				}
				types[r] = append(types[r], poisson.UtilityShare[T]{Utility: utility, Share: share})
			}
		}
		out.discrete, err = poisson.NewProfileDiscrete(types, weak, ratio, cfg)
		return out, err
	}
	rankings := make(map[poisson.Ranking]T, len(doc.Rankings))
	for k, v := range doc.Rankings {
		r, err := parseRanking(k)
		if err != nil {
			return out, err
		}
		if rankings[r], err = poisson.ParseNumber[T](v); err != nil {
			return out, fmt.Errorf("ranking %s: %w", r, err)
		}
	}
	out.ordinal, err = poisson.NewProfileOrdinal(rankings, weak, cfg)
	return out, err
}

// isBallotStrategy reports whether every value of raw is a ballot or empty.
func isBallotStrategy(raw map[string]string) bool {
	for _, v := range raw {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, err := poisson.ParseBallot(v); err != nil {
			return false
		}
	}
	return true
}

func parseStrategyOrdinal[T poisson.Number[T]](raw map[string]string, rule poisson.VotingRule) (*poisson.StrategyOrdinal[T], error) {
	ballots := make(map[poisson.Ranking]string, len(raw))
	for k, v := range raw {
		r, err := parseRanking(k)
		if err != nil {
			return nil, err
		}
		ballots[r] = v
	}
	return poisson.NewStrategyOrdinal[T](ballots, rule)
}

// parseStrategyThreshold accepts thresholds, "none" for an unset ranking, or
// ballots.
func parseStrategyThreshold[T poisson.Number[T]](raw map[string]string, rule poisson.VotingRule) (*poisson.StrategyThreshold[T], error) {
	if isBallotStrategy(raw) {
		s, err := parseStrategyOrdinal[T](raw, rule)
		if err != nil {
			return nil, err
		}
		return s.StrategyThreshold, nil
	}
	thresholds := make(map[poisson.Ranking]poisson.Threshold[T], len(raw))
	for k, v := range raw {
		r, err := parseRanking(k)
		if err != nil {
			return nil, err
		}
		if v = strings.TrimSpace(v); v == "" || strings.EqualFold(v, "none") {
			thresholds[r] = poisson.Unset[T]()
			continue
		}
		u, err := poisson.ParseNumber[T](v)
		if err != nil {
			return nil, fmt.Errorf("threshold of %s: %w", r, err)
		}
		thresholds[r] = poisson.ThresholdOf(u)
	}
	return poisson.NewStrategyThreshold(thresholds, rule)
}
