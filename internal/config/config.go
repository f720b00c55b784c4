package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	flag "github.com/spf13/pflag"

	"github.com/colmryan/memora/internal/srs"
)

// envPrefix is the prefix for environment overrides, e.g.
// MEMORA_ADDR or MEMORA_SCHEDULER_MIN_EASINESS.
const envPrefix = "MEMORA_"

// Scheduler holds the SM-2 tunables as they appear in the config file.
type Scheduler struct {
	InitialEasiness float64 `koanf:"initial_easiness" validate:"gt=0"`
	MinEasiness     float64 `koanf:"min_easiness" validate:"gt=0"`
	FirstInterval   int     `koanf:"first_interval" validate:"min=1"`
	SecondInterval  int     `koanf:"second_interval" validate:"min=1"`
	MaxInterval     int     `koanf:"max_interval" validate:"min=1"`
	FailurePolicy   string  `koanf:"failure_policy" validate:"oneof=reset decrement"`
}

// Config is the full service configuration. Precedence, lowest first:
// built-in defaults, yaml config file, MEMORA_* environment, flags.
type Config struct {
	Addr           string        `koanf:"addr" validate:"required"`
	DBPath         string        `koanf:"db" validate:"required"`
	ReposDir       string        `koanf:"repos_dir" validate:"required"`
	SyncInterval   time.Duration `koanf:"sync_interval" validate:"min=0"`
	RetentionModel string        `koanf:"retention_model" validate:"oneof=exponential piecewise-linear"`
	Scheduler      Scheduler     `koanf:"scheduler"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:           ":8447",
		DBPath:         "memora.db",
		ReposDir:       "repos",
		SyncInterval:   time.Hour,
		RetentionModel: "exponential",
		Scheduler: Scheduler{
			InitialEasiness: srs.InitialEasiness,
			MinEasiness:     srs.MinEasiness,
			FirstInterval:   1,
			SecondInterval:  6,
			MaxInterval:     36500,
			FailurePolicy:   "reset",
		},
	}
}

// Load builds the configuration from the given yaml file (optional, ""
// to skip), the environment, and the parsed flag set (may be nil).
func Load(path string, flags *flag.FlagSet) (Config, error) {
	k := koanf.New(".")

	// A missing config file is fine; defaults, env, and flags cover it.
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("loading config file %s: %w", path, err)
			}
		}
	}

	// MEMORA_SCHEDULER_MIN_EASINESS -> scheduler.min_easiness. Only the
	// first underscore separates sections; the rest stay in the key.
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		if rest, ok := strings.CutPrefix(key, "scheduler_"); ok {
			return "scheduler." + rest
		}
		return key
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, fmt.Errorf("loading flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SchedulerParams converts the config section into scheduler parameters.
func (c Config) SchedulerParams() srs.Params {
	policy := srs.ResetRepetitions
	if c.Scheduler.FailurePolicy == "decrement" {
		policy = srs.DecrementRepetitions
	}
	return srs.Params{
		InitialEasiness: c.Scheduler.InitialEasiness,
		MinEasiness:     c.Scheduler.MinEasiness,
		FirstInterval:   c.Scheduler.FirstInterval,
		SecondInterval:  c.Scheduler.SecondInterval,
		MaxInterval:     c.Scheduler.MaxInterval,
		FailurePolicy:   policy,
	}
}

// Model returns the configured retention model.
func (c Config) Model() (srs.RetentionModel, error) {
	return srs.ParseRetentionModel(c.RetentionModel)
}
