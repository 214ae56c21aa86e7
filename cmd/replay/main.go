package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/replay"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/store"
)

// #region main

var errDiverged = errors.New("replay diverged")

func main() {
	rootCmd := &cobra.Command{
		Use:   "replay [fixture.json...]",
		Short: "Re-simulate fixtures or recorded runs and compare the outcome",
		Long: `replay rebuilds a simulation from its seed and configuration and checks
it against stored expectations. Fixture files are verified concurrently.
With --db and --run it re-simulates a recorded run instead.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			runID, _ := cmd.Flags().GetString("run")
			jobs, _ := cmd.Flags().GetInt("jobs")
			jsonOut, _ := cmd.Flags().GetBool("json")

			switch {
			case dbPath != "" && len(args) > 0:
				return errors.New("use either fixture files or --db, not both")
			case dbPath != "":
				if runID == "" {
					return errors.New("--run is required with --db")
				}
				return runRecorded(dbPath, runID, jsonOut)
			case len(args) == 0:
				return cmd.Usage()
			}
			return runFixtures(cmd.Context(), args, jobs, jsonOut)
		},
	}
	rootCmd.Flags().String("db", "", "SQLite database holding recorded runs")
	rootCmd.Flags().String("run", "", "run ID to verify (with --db)")
	rootCmd.Flags().Int("jobs", 4, "fixtures verified in parallel")
	rootCmd.Flags().Bool("json", false, "print results as JSON")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// #endregion main

// #region modes

func runFixtures(ctx context.Context, paths []string, jobs int, jsonOut bool) error {
	fixtures := make([]*replay.Fixture, len(paths))
	for i, p := range paths {
		f, err := replay.LoadFixture(p)
		if err != nil {
			return err
		}
		if f.Description == "" {
			f.Description = p
		}
		fixtures[i] = f
	}
	results, err := replay.RunMany(ctx, fixtures, jobs)
	if err != nil {
		return err
	}
	return report(results, jsonOut)
}

func runRecorded(dbPath, runID string, jsonOut bool) error {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer s.Close()

	res, err := replay.VerifyRecorded(s, runID)
	if err != nil {
		return err
	}
	return report([]replay.Result{res}, jsonOut)
}

// #endregion modes

// #region output

type jsonResult struct {
	Description string         `json:"description"`
	OK          bool           `json:"ok"`
	Mismatches  []string       `json:"mismatches,omitempty"`
	Summary     replay.Summary `json:"summary"`
}

// report prints results and returns errDiverged when any result failed.
func report(results []replay.Result, jsonOut bool) error {
	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}

	if jsonOut {
		out := make([]jsonResult, len(results))
		for i, r := range results {
			out[i] = jsonResult{Description: r.Fixture.Description, OK: r.OK(), Mismatches: r.Mismatches, Summary: r.Summary}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	} else {
		fmt.Printf("%-40s| %-6s| %-6s| %-10s| %s\n", "Fixture", "Steps", "Shifts", "Drift", "Match")
		fmt.Printf("%-40s+%-7s+%-7s+%-11s+%s\n",
			"----------------------------------------", "-------", "-------", "-----------", "------")
		for _, r := range results {
			match := "OK"
			if !r.OK() {
				match = "DIFF"
			}
			fmt.Printf("%-40s| %-6d| %-6d| %-10.6f| %s\n",
				truncate(r.Fixture.Description, 40), r.Summary.Steps, len(r.Summary.Shifts), r.Summary.FinalDrift, match)
			for _, m := range r.Mismatches {
				fmt.Printf("    %s\n", m)
			}
		}
		fmt.Printf("\nSummary: %d total, %d match, %d diverge\n", len(results), len(results)-failed, failed)
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errDiverged, failed, len(results))
	}
	return nil
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// #endregion output
