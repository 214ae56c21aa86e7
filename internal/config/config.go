// Package config loads simulation settings from YAML files and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfiguration is returned when a configuration cannot start a run.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// #region config-types

// Config is the full settings tree for a simulation run and its collaborators.
type Config struct {
	// Seed fixes the random stream. Two runs with equal config and seed are identical.
	Seed uint64 `json:"seed" yaml:"seed"`

	Population PopulationConfig `json:"population" yaml:"population"`
	Round      RoundConfig      `json:"round" yaml:"round"`
	Adaptation AdaptationConfig `json:"adaptation" yaml:"adaptation"`
	Shift      ShiftConfig      `json:"shift" yaml:"shift"`
	History    HistoryConfig    `json:"history" yaml:"history"`
	Engine     EngineConfig     `json:"engine" yaml:"engine"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging"`
	Store      StoreConfig      `json:"store" yaml:"store"`
	Control    ControlConfig    `json:"control" yaml:"control"`
}

// PopulationConfig sizes the agent population and its vocabulary.
type PopulationConfig struct {
	Agents         int      `json:"agents" yaml:"agents"`
	Vocabulary     []string `json:"vocabulary" yaml:"vocabulary"`
	Dimension      int      `json:"dimension" yaml:"dimension"`
	MemoryCapacity int      `json:"memory_capacity" yaml:"memory_capacity"`
}

// RoundConfig controls a single exchange.
type RoundConfig struct {
	// AcceptanceThreshold: an exchange succeeds iff its average distance is strictly below this.
	AcceptanceThreshold float64 `json:"acceptance_threshold" yaml:"acceptance_threshold"`
	// SingleSymbolBias is the probability that a sequence has one symbol rather than two.
	SingleSymbolBias float64 `json:"single_symbol_bias" yaml:"single_symbol_bias"`
}

// AdaptationConfig controls passive decay.
type AdaptationConfig struct {
	// ForgetAfter is the number of idle steps before a symbol starts to decay.
	ForgetAfter int `json:"forget_after" yaml:"forget_after"`
}

// ShiftConfig schedules context shifts.
type ShiftConfig struct {
	Interval               int     `json:"interval" yaml:"interval"`
	RedefinitionConfidence float64 `json:"redefinition_confidence" yaml:"redefinition_confidence"`
}

// HistoryConfig bounds the rolling logs.
type HistoryConfig struct {
	Communications int `json:"communications" yaml:"communications"`
	Metrics        int `json:"metrics" yaml:"metrics"`
}

// EngineConfig sets the tick cadence used by the driver.
type EngineConfig struct {
	TickInterval time.Duration `json:"tick_interval" yaml:"tick_interval"`
}

// LoggingConfig selects the zap level: debug, info, warn or error.
type LoggingConfig struct {
	Level string `json:"level" yaml:"level"`
}

// StoreConfig points at the SQLite run database. Empty disables recording.
type StoreConfig struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// ControlConfig is the gRPC listen address.
type ControlConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// #endregion config-types

// #region defaults

// DefaultVocabulary is the six-symbol vocabulary used when none is configured.
var DefaultVocabulary = []string{"α", "β", "γ", "δ", "ε", "ζ"}

// Default returns a Config with every standard value filled in.
func Default() *Config {
	return &Config{
		Seed: 1,
		Population: PopulationConfig{
			Agents:         4,
			Vocabulary:     append([]string(nil), DefaultVocabulary...),
			Dimension:      3,
			MemoryCapacity: 50,
		},
		Round: RoundConfig{
			AcceptanceThreshold: 0.5,
			SingleSymbolBias:    0.8,
		},
		Adaptation: AdaptationConfig{
			ForgetAfter: 20,
		},
		Shift: ShiftConfig{
			Interval:               100,
			RedefinitionConfidence: 0.3,
		},
		History: HistoryConfig{
			Communications: 30,
			Metrics:        100,
		},
		Engine: EngineConfig{
			TickInterval: 100 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Control: ControlConfig{
			Addr: "localhost:50061",
		},
	}
}

// #endregion defaults

// #region load

// Load builds a config from defaults, then path (if non-empty), then environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		cfg = fileCfg
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile reads a YAML file over the defaults. Unset keys keep their default.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("SYMDRIFT_AGENTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SYMDRIFT_AGENTS: %w", err)
		}
		cfg.Population.Agents = n
	}
	if v := os.Getenv("SYMDRIFT_SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("SYMDRIFT_SEED: %w", err)
		}
		cfg.Seed = n
	}
	if v := os.Getenv("SYMDRIFT_VOCABULARY"); v != "" {
		cfg.Population.Vocabulary = SplitVocabulary(v)
	}
	if v := os.Getenv("SYMDRIFT_DB"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("SYMDRIFT_ADDR"); v != "" {
		cfg.Control.Addr = v
	}
	if v := os.Getenv("SYMDRIFT_TICK"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SYMDRIFT_TICK: %w", err)
		}
		cfg.Engine.TickInterval = d
	}
	if v := os.Getenv("SYMDRIFT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}

// SplitVocabulary parses a comma separated symbol list, dropping blanks.
func SplitVocabulary(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// #endregion load

// #region validate

// Validate reports the first setting that cannot start a run. The error wraps
// ErrInvalidConfiguration.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
	}
	p := c.Population
	if p.Agents <= 0 {
		return invalid("agent count must be positive, got %d", p.Agents)
	}
	if len(p.Vocabulary) == 0 {
		return invalid("vocabulary is empty")
	}
	seen := make(map[string]bool, len(p.Vocabulary))
	for _, s := range p.Vocabulary {
		if s == "" {
			return invalid("vocabulary contains an empty symbol")
		}
		if seen[s] {
			return invalid("duplicate symbol %q", s)
		}
		seen[s] = true
	}
	if p.Dimension <= 0 {
		return invalid("vector dimension must be positive, got %d", p.Dimension)
	}
	if p.MemoryCapacity <= 0 {
		return invalid("memory capacity must be positive, got %d", p.MemoryCapacity)
	}
	if t := c.Round.AcceptanceThreshold; t <= 0 || t > 2 {
		return invalid("acceptance threshold must be in (0,2], got %g", t)
	}
	if b := c.Round.SingleSymbolBias; b < 0 || b > 1 {
		return invalid("single symbol bias must be in [0,1], got %g", b)
	}
	if c.Adaptation.ForgetAfter < 0 {
		return invalid("forget threshold must not be negative, got %d", c.Adaptation.ForgetAfter)
	}
	if c.Shift.Interval <= 0 {
		return invalid("shift interval must be positive, got %d", c.Shift.Interval)
	}
	if rc := c.Shift.RedefinitionConfidence; rc < 0 || rc > 1 {
		return invalid("redefinition confidence must be in [0,1], got %g", rc)
	}
	if c.History.Communications <= 0 || c.History.Metrics <= 0 {
		return invalid("history capacities must be positive, got %d/%d", c.History.Communications, c.History.Metrics)
	}
	return nil
}

// #endregion validate
