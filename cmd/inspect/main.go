package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/metrics"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/round"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/shift"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/store"
)

// #region main

func main() {
	rootCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect runs recorded in a symbol drift database",
		Long: `inspect lists recorded runs, or shows one run in detail with --run:
its summary, context shifts, most frequent syntax patterns and latest
communications.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			runID, _ := cmd.Flags().GetString("run")
			last, _ := cmd.Flags().GetInt("last")
			jsonOut, _ := cmd.Flags().GetBool("json")
			if dbPath == "" {
				return fmt.Errorf("--db is required")
			}

			s, err := store.NewStore(dbPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer s.Close()

			if runID != "" {
				return runDetailMode(s, runID, last, jsonOut)
			}
			return runListMode(s, last, jsonOut)
		},
	}
	rootCmd.Flags().String("db", "", "SQLite database holding recorded runs")
	rootCmd.Flags().String("run", "", "show a single run in detail")
	rootCmd.Flags().Int("last", 20, "runs to list, or communications to show with --run")
	rootCmd.Flags().Bool("json", false, "output as JSON instead of table")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID     string `json:"run_id"`
	ParentID  string `json:"parent_id,omitempty"`
	Seed      uint64 `json:"seed"`
	Agents    int    `json:"agents"`
	Steps     int    `json:"steps"`
	Finished  bool   `json:"finished"`
	CreatedAt string `json:"created_at"`
}

func runListMode(s *store.Store, last int, jsonOut bool) error {
	runs, err := s.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	rows := make([]listRow, len(runs))
	for i, r := range runs {
		rows[i] = listRow{
			RunID:     r.ID,
			ParentID:  r.ParentID,
			Seed:      r.Seed,
			Agents:    r.Config.Population.Agents,
			Steps:     r.Steps,
			Finished:  r.Finished(),
			CreatedAt: r.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}
	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-10s  %-10s  %10s  %6s  %8s  %-8s  %s\n",
		"Run", "Parent", "Seed", "Agents", "Steps", "Finished", "Created")
	fmt.Printf("%-10s+-%-10s+-%10s+-%6s+-%8s+-%-8s+-%s\n",
		"----------", "----------", "----------", "------", "--------", "--------", "--------------------")
	for _, r := range rows {
		parent := "-"
		if r.ParentID != "" {
			parent = shortID(r.ParentID)
		}
		fmt.Printf("%-10s  %-10s  %10d  %6d  %8d  %-8v  %s\n",
			shortID(r.RunID), parent, r.Seed, r.Agents, r.Steps, r.Finished, r.CreatedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	RunID          string                  `json:"run_id"`
	ParentID       string                  `json:"parent_id,omitempty"`
	Seed           uint64                  `json:"seed"`
	Vocabulary     []string                `json:"vocabulary"`
	Steps          int                     `json:"steps"`
	FinalStep      int                     `json:"final_step"`
	CreatedAt      string                  `json:"created_at"`
	FinishedAt     string                  `json:"finished_at,omitempty"`
	Analysis       *metrics.Analysis       `json:"analysis,omitempty"`
	Shifts         []shift.ContextShift    `json:"shifts"`
	Patterns       []metrics.SyntaxPattern `json:"patterns"`
	Communications []round.Communication   `json:"communications"`
}

func runDetailMode(s *store.Store, runID string, last int, jsonOut bool) error {
	run, err := s.GetRun(runID)
	if err != nil {
		return err
	}
	shifts, err := s.ContextShifts(runID)
	if err != nil {
		return err
	}
	patterns, err := s.Patterns(runID)
	if err != nil {
		return err
	}
	comms, err := s.Communications(runID, last)
	if err != nil {
		return err
	}

	out := detailOutput{
		RunID:          run.ID,
		ParentID:       run.ParentID,
		Seed:           run.Seed,
		Vocabulary:     run.Config.Population.Vocabulary,
		Steps:          run.Steps,
		FinalStep:      run.FinalStep,
		CreatedAt:      run.CreatedAt.Format("2006-01-02T15:04:05Z"),
		Shifts:         shifts,
		Patterns:       patterns,
		Communications: comms,
	}
	if run.Finished() {
		out.FinishedAt = run.FinishedAt.Format("2006-01-02T15:04:05Z")
	}
	if run.SummaryJSON != "" {
		var a metrics.Analysis
		if err := json.Unmarshal([]byte(run.SummaryJSON), &a); err == nil {
			out.Analysis = &a
		}
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Run:        %s\n", out.RunID)
	if out.ParentID != "" {
		fmt.Printf("Parent:     %s\n", out.ParentID)
	}
	fmt.Printf("Seed:       %d\n", out.Seed)
	fmt.Printf("Vocabulary: %s\n", strings.Join(out.Vocabulary, " "))
	fmt.Printf("Created:    %s\n", out.CreatedAt)
	if out.FinishedAt != "" {
		fmt.Printf("Finished:   %s (step %d)\n", out.FinishedAt, out.FinalStep)
	}
	fmt.Printf("Steps:      %d\n", out.Steps)

	if a := out.Analysis; a != nil {
		fmt.Printf("\nSummary:\n")
		fmt.Printf("  Rounds:     %d\n", a.Rounds)
		fmt.Printf("  Accuracy:   %.1f%%\n", a.Accuracy*100)
		fmt.Printf("  Drift:      %.4f\n", a.Drift)
		fmt.Printf("  Alignment:  %.1f%%\n", a.Alignment)
		for _, sr := range a.Symbols {
			flag := ""
			if sr.Ambiguous {
				flag = "  ambiguous"
			}
			fmt.Printf("  %-8s drift %.4f  consistency %.2f%s\n", sr.Symbol, sr.Drift, sr.Consistency, flag)
		}
	}

	fmt.Printf("\nContext shifts (%d):\n", len(out.Shifts))
	for _, cs := range out.Shifts {
		fmt.Printf("  %6d  %-14s %s\n", cs.Step, cs.Kind, cs.Symbol)
	}

	if len(out.Patterns) > 0 {
		fmt.Printf("\nTop patterns:\n")
		for i, p := range out.Patterns {
			if i == 10 {
				break
			}
			fmt.Printf("  %-16s %d\n", p.Key, p.Count)
		}
	}

	fmt.Printf("\nLatest communications:\n")
	for _, c := range out.Communications {
		ok := "fail"
		if c.Success {
			ok = "ok"
		}
		fmt.Printf("  %6d  %2d -> %-2d  %-16s %-4s  dist %.4f\n",
			c.Step, c.Sender, c.Receiver, strings.Join(c.Sequence, metrics.PatternSeparator), ok, c.AvgDistance)
	}
	return nil
}

// #endregion detail-mode

// #region output

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
