package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 4, cfg.Population.Agents)
	assert.Equal(t, []string{"α", "β", "γ", "δ", "ε", "ζ"}, cfg.Population.Vocabulary)
	assert.Equal(t, 3, cfg.Population.Dimension)
	assert.Equal(t, 50, cfg.Population.MemoryCapacity)
	assert.Equal(t, 0.5, cfg.Round.AcceptanceThreshold)
	assert.Equal(t, 0.8, cfg.Round.SingleSymbolBias)
	assert.Equal(t, 20, cfg.Adaptation.ForgetAfter)
	assert.Equal(t, 100, cfg.Shift.Interval)
	assert.Equal(t, 0.3, cfg.Shift.RedefinitionConfidence)
	assert.Equal(t, 30, cfg.History.Communications)
	assert.Equal(t, 100, cfg.History.Metrics)
	assert.Equal(t, 100*time.Millisecond, cfg.Engine.TickInterval)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestDefaultVocabularyIsCopied(t *testing.T) {
	cfg := Default()
	cfg.Population.Vocabulary[0] = "ω"
	assert.Equal(t, "α", DefaultVocabulary[0])
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symdrift.yaml")
	content := `
seed: 42
population:
  agents: 6
  vocabulary: [a, b, c]
round:
  acceptance_threshold: 0.4
engine:
  tick_interval: 250ms
store:
  path: runs.db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, 6, cfg.Population.Agents)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Population.Vocabulary)
	assert.Equal(t, 0.4, cfg.Round.AcceptanceThreshold)
	assert.Equal(t, 250*time.Millisecond, cfg.Engine.TickInterval)
	assert.Equal(t, "runs.db", cfg.Store.Path)

	// unset keys keep defaults
	assert.Equal(t, 3, cfg.Population.Dimension)
	assert.Equal(t, 0.8, cfg.Round.SingleSymbolBias)
	assert.Equal(t, 100, cfg.Shift.Interval)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("population: [not, a, map"), 0o644))
	_, err = LoadFromFile(path)
	require.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SYMDRIFT_AGENTS", "8")
	t.Setenv("SYMDRIFT_SEED", "99")
	t.Setenv("SYMDRIFT_VOCABULARY", " x, y ,,z ")
	t.Setenv("SYMDRIFT_DB", "/tmp/sym.db")
	t.Setenv("SYMDRIFT_ADDR", "127.0.0.1:9000")
	t.Setenv("SYMDRIFT_TICK", "1s")
	t.Setenv("SYMDRIFT_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Population.Agents)
	assert.Equal(t, uint64(99), cfg.Seed)
	assert.Equal(t, []string{"x", "y", "z"}, cfg.Population.Vocabulary)
	assert.Equal(t, "/tmp/sym.db", cfg.Store.Path)
	assert.Equal(t, "127.0.0.1:9000", cfg.Control.Addr)
	assert.Equal(t, time.Second, cfg.Engine.TickInterval)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadBadEnv(t *testing.T) {
	t.Setenv("SYMDRIFT_AGENTS", "four")
	_, err := Load("")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero agents", func(c *Config) { c.Population.Agents = 0 }},
		{"negative agents", func(c *Config) { c.Population.Agents = -2 }},
		{"empty vocabulary", func(c *Config) { c.Population.Vocabulary = nil }},
		{"duplicate symbol", func(c *Config) { c.Population.Vocabulary = []string{"a", "a"} }},
		{"blank symbol", func(c *Config) { c.Population.Vocabulary = []string{"a", ""} }},
		{"zero dimension", func(c *Config) { c.Population.Dimension = 0 }},
		{"zero memory", func(c *Config) { c.Population.MemoryCapacity = 0 }},
		{"threshold zero", func(c *Config) { c.Round.AcceptanceThreshold = 0 }},
		{"threshold above two", func(c *Config) { c.Round.AcceptanceThreshold = 2.5 }},
		{"bias above one", func(c *Config) { c.Round.SingleSymbolBias = 1.2 }},
		{"negative forget", func(c *Config) { c.Adaptation.ForgetAfter = -1 }},
		{"zero interval", func(c *Config) { c.Shift.Interval = 0 }},
		{"redefinition above one", func(c *Config) { c.Shift.RedefinitionConfidence = 1.5 }},
		{"zero comm log", func(c *Config) { c.History.Communications = 0 }},
		{"zero metrics log", func(c *Config) { c.History.Metrics = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}
}

func TestSplitVocabulary(t *testing.T) {
	assert.Equal(t, []string{"α", "β"}, SplitVocabulary("α,β"))
	assert.Nil(t, SplitVocabulary(" , "))
}
