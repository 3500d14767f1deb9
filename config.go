package poisson

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by LoadConfig, e.g.
// POISSON_MAX_ROUNDS or POISSON_PRECISION_TIGHT_REL.
const EnvPrefix = "POISSON_"

// Numeric representations accepted by Config.Numeric.
const (
	NumericFloat = "float"
	NumericRat   = "rat"
)

// Config contains the settings of the command-line tools: the voting rule,
// the numeric representation, iterated voting and analysis parameters, and
// the precision.
type Config struct {
	// Rule is the voting rule of tau-vectors and profiles.
	Rule VotingRule `yaml:"voting_rule" env:"VOTING_RULE" validate:"oneof=approval plurality anti_plurality"`

	// Numeric selects exact rationals ("rat") or float64 ("float").
	Numeric string `yaml:"numeric" env:"NUMERIC" validate:"oneof=float rat"`

	// RatioSincere is the default share of sincere voters in cardinal
	// profiles.
	RatioSincere float64 `yaml:"ratio_sincere" env:"RATIO_SINCERE" validate:"gte=0,lte=1"`

	// MaxRounds bounds iterated voting.
	MaxRounds int `yaml:"max_rounds" env:"MAX_ROUNDS" validate:"gte=1,lte=100000"`

	// Workers bounds parallel analysis; 0 means GOMAXPROCS.
	Workers int `yaml:"workers" env:"WORKERS" validate:"gte=0,lte=1024"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" validate:"oneof=debug info warn error"`

	// Precision holds the tolerances.
	Precision Precision `yaml:"precision" envPrefix:"PRECISION_"`
}

// DefaultConfig returns approval voting on exact rationals, fully strategic
// voters, 100 rounds of iterated voting and the default precision.
func DefaultConfig() Config {
	return Config{
		Rule:         Approval,
		Numeric:      NumericRat,
		RatioSincere: 0,
		MaxRounds:    100,
		Workers:      0,
		LogLevel:     "info",
		Precision:    DefaultPrecision(),
	}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func configValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks every field against its bounds.
func (c Config) Validate() error {
	if err := configValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s: %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value())
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadConfig loads configuration with priority: env > file > defaults.
// An empty path or a missing file keeps the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := loadConfigFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// SlogLevel converts LogLevel; unknown values give slog.LevelInfo.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// TauConfig returns the settings of tau-vectors.
func (c Config) TauConfig() TauConfig {
	return TauConfig{Rule: c.Rule, Precision: c.Precision}
}

// ProfileConfig returns the settings of profiles, logging to logger.
func (c Config) ProfileConfig(logger *slog.Logger) ProfileConfig {
	return ProfileConfig{Rule: c.Rule, Precision: c.Precision, Logger: logger}
}

// AnalyzeOptions returns the options of strategy analysis.
func (c Config) AnalyzeOptions(logger *slog.Logger) AnalyzeOptions {
	return AnalyzeOptions{Workers: c.Workers, Logger: logger}
}
