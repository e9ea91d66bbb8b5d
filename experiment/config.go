// Package experiment reproduces the prognostic breast-cancer experiment:
// repeated seeded train/test splits, the two inverse-optimization loss
// variants, ridge/logistic baselines, a SQLite result store, Prometheus
// metrics and a mean/percentile report.
package experiment

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/invopt/inverse"
	"github.com/YuminosukeSato/invopt/preprocessing"
	"github.com/YuminosukeSato/invopt/pkg/errors"
)

// EnvPrefix prefixes environment overrides, e.g. INVOPT_RUNS=5 or
// INVOPT_BASELINES_RIDGE_ALPHA=0.5.
const EnvPrefix = "INVOPT"

// Config holds every knob of an experiment.
type Config struct {
	DataPath     string  `mapstructure:"data"`
	Runs         int     `mapstructure:"runs" validate:"min=1"`
	TestFraction float64 `mapstructure:"test_fraction" validate:"gt=0,lt=1"`
	Seed         uint64  `mapstructure:"seed"`

	Variants      []string `mapstructure:"variants" validate:"min=1,unique,dive,oneof=ASL-z ASL-yz"`
	RegParam      float64  `mapstructure:"reg_param" validate:"gte=0"`
	DomainBarrier float64  `mapstructure:"domain_barrier" validate:"gte=0"`
	Scaler        string   `mapstructure:"scaler" validate:"oneof=standard minmax none"`

	Solver    SolverConfig   `mapstructure:"solver"`
	Baselines BaselineConfig `mapstructure:"baselines"`

	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
}

// SolverConfig bounds the L-BFGS run of every fit.
type SolverConfig struct {
	MaxIterations  int           `mapstructure:"max_iterations" validate:"min=1"`
	Runtime        time.Duration `mapstructure:"runtime" validate:"gte=0"`
	AcceptGradient float64       `mapstructure:"accept_gradient" validate:"gte=0"`
}

// BaselineConfig configures the ridge and logistic baselines.
type BaselineConfig struct {
	RidgeAlpha float64 `mapstructure:"ridge_alpha" validate:"gte=0"`
	LogisticC  float64 `mapstructure:"logistic_c" validate:"gt=0"`
}

// DefaultConfig mirrors the published experiment: 20 runs, 10% test data and
// both loss variants.
func DefaultConfig() Config {
	lbfgs := inverse.NewLBFGS()
	return Config{
		Runs:          20,
		TestFraction:  0.1,
		Variants:      []string{inverse.DiscreteOnly.String(), inverse.DiscreteAndContinuous.String()},
		RegParam:      inverse.DefaultRegParam,
		DomainBarrier: inverse.DefaultDomainBarrier,
		Scaler:        string(preprocessing.ScalerStandard),
		Solver: SolverConfig{
			MaxIterations:  lbfgs.MaxIterations,
			AcceptGradient: lbfgs.AcceptGradient,
		},
		Baselines: BaselineConfig{
			RidgeAlpha: 1,
			LogisticC:  1,
		},
		LogLevel: "info",
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("data", d.DataPath)
	v.SetDefault("runs", d.Runs)
	v.SetDefault("test_fraction", d.TestFraction)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("variants", d.Variants)
	v.SetDefault("reg_param", d.RegParam)
	v.SetDefault("domain_barrier", d.DomainBarrier)
	v.SetDefault("scaler", d.Scaler)
	v.SetDefault("solver.max_iterations", d.Solver.MaxIterations)
	v.SetDefault("solver.runtime", d.Solver.Runtime)
	v.SetDefault("solver.accept_gradient", d.Solver.AcceptGradient)
	v.SetDefault("baselines.ridge_alpha", d.Baselines.RidgeAlpha)
	v.SetDefault("baselines.logistic_c", d.Baselines.LogisticC)
	v.SetDefault("log_level", d.LogLevel)
}

// LoadConfig reads the optional config file at path (any format viper
// understands), applies INVOPT_* environment overrides on top of the
// defaults and validates the result. Entries of flags whose name matches a key
// (e.g. "runs", "reg_param") take precedence when set on the command line.
func LoadConfig(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, errors.Wrap(err, "bind flags")
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks the struct tags. The first violated field is reported as
// a ValidationError carrying the field path and the failed rule.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return errors.NewValidationError(fe.Namespace(), "failed rule "+fe.Tag(), fe.Value())
	}
	return errors.Wrap(err, "validate config")
}

// LossVariants returns the configured variants in order.
func (c Config) LossVariants() ([]inverse.LossVariant, error) {
	out := make([]inverse.LossVariant, len(c.Variants))
	for i, name := range c.Variants {
		v, err := inverse.ParseLossVariant(name)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// lbfgs builds the minimizer for one fit.
func (c Config) lbfgs() *inverse.LBFGS {
	m := inverse.NewLBFGS()
	m.MaxIterations = c.Solver.MaxIterations
	m.Runtime = c.Solver.Runtime
	m.AcceptGradient = c.Solver.AcceptGradient
	return m
}
