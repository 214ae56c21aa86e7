package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/replay"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/store"
)

// #region main

func main() {
	rootCmd := &cobra.Command{
		Use:   "fixture-export",
		Short: "Export a recorded run as a replay fixture",
		Long: `fixture-export turns a recorded run into a JSON fixture that the replay
tool can verify without the database. Without --run the most recent run
that was not continued from a reset is exported.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			runID, _ := cmd.Flags().GetString("run")
			outPath, _ := cmd.Flags().GetString("out")
			summaryOnly, _ := cmd.Flags().GetBool("summary-only")
			if dbPath == "" || outPath == "" {
				return errors.New("--db and --out are required")
			}
			return run(dbPath, runID, outPath, summaryOnly)
		},
	}
	rootCmd.Flags().String("db", "", "SQLite database holding recorded runs")
	rootCmd.Flags().String("run", "", "run ID to export (default: latest root run)")
	rootCmd.Flags().String("out", "", "output fixture JSON path")
	rootCmd.Flags().Bool("summary-only", false, "omit the per-step drift series and shift log")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// #endregion main

// #region export

func run(dbPath, runID, outPath string, summaryOnly bool) error {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer s.Close()

	if runID == "" {
		runID, err = latestRootRun(s)
		if err != nil {
			return err
		}
	}

	f, err := replay.FromRecorded(s, runID)
	if err != nil {
		return err
	}
	if summaryOnly {
		f.Expected.Drift = nil
		f.Expected.Shifts = nil
	}
	if err := replay.WriteFixture(outPath, f); err != nil {
		return err
	}
	fmt.Printf("Wrote fixture for run %s to %s (%d steps, %d shifts)\n",
		runID, outPath, f.Steps, len(f.Expected.ShiftSteps))
	return nil
}

// latestRootRun returns the newest run that starts from its own seed.
func latestRootRun(s *store.Store) (string, error) {
	runs, err := s.ListRuns(0)
	if err != nil {
		return "", err
	}
	for _, r := range runs {
		if r.ParentID == "" {
			return r.ID, nil
		}
	}
	return "", errors.New("no replayable runs found")
}

// #endregion export
