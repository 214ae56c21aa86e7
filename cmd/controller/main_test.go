package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigLoadedOnceBeforeSubcommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symdrift.yaml")
	require.NoError(t, os.WriteFile(path, []byte("population:\n  agents: 5\n"), 0o644))

	root := newRootCmd()
	var seen int
	checkCmd := &cobra.Command{
		Use: "check",
		RunE: func(cmd *cobra.Command, args []string) error {
			// the file is gone by now; the subcommand must not read it again
			require.NoError(t, os.Remove(path))
			seen = cfg.Population.Agents
			assert.Equal(t, uint64(7), cfg.Seed)
			return nil
		},
	}
	root.AddCommand(checkCmd)
	root.SetArgs([]string{"check", "--config", path, "--seed", "7", "--log-level", "error"})

	require.NoError(t, root.Execute())
	assert.Equal(t, 5, seen)
}

func TestRunCommandUsesLoadedConfig(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"run", "--steps", "20", "--agents", "3", "--log-level", "error", "--json"})
	require.NoError(t, root.Execute())
	assert.Equal(t, 3, cfg.Population.Agents)
}
