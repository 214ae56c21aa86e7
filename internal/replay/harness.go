package replay

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/config"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/metrics"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/shift"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/sim"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/store"
)

// driftTolerance covers float formatting in hand-edited fixtures.
const driftTolerance = 1e-12

// #region types

// Summary provides aggregate stats from a replay run.
type Summary struct {
	Steps          int                     `json:"steps"`
	Rounds         int                     `json:"rounds"`
	NoOps          int                     `json:"no_ops"`
	Successes      int                     `json:"successes"`
	Accuracy       float64                 `json:"accuracy"`
	ShiftsByKind   map[shift.Kind]int      `json:"shifts_by_kind"`
	Shifts         []shift.ContextShift    `json:"shifts"`
	Drift          []metrics.DriftSample   `json:"drift"`
	FinalDrift     float64                 `json:"final_drift"`
	FinalAlignment float64                 `json:"final_alignment"`
	TopPatterns    []metrics.SyntaxPattern `json:"top_patterns"`
	Analysis       metrics.Analysis        `json:"analysis"`
}

// Result pairs a fixture with its replay outcome.
type Result struct {
	Fixture    *Fixture
	Summary    Summary
	Mismatches []string
}

// OK reports whether the replay matched every expectation.
func (r Result) OK() bool { return len(r.Mismatches) == 0 }

// collector keeps the unbounded series the engine's rolling logs drop.
type collector struct {
	drift  []metrics.DriftSample
	shifts []shift.ContextShift
}

func (c *collector) OnStep(rep sim.StepReport) error {
	c.drift = append(c.drift, rep.Drift)
	if rep.Shift != nil {
		c.shifts = append(c.shifts, *rep.Shift)
	}
	return nil
}

// #endregion types

// #region run

// replayClock pins shift timestamps so two replays produce equal summaries.
func replayClock() time.Time { return time.Unix(0, 0).UTC() }

// Run simulates steps steps of a fresh engine built from cfg, entirely in memory.
func Run(cfg *config.Config, steps int, opts ...sim.Option) (Summary, error) {
	col := &collector{}
	opts = append([]sim.Option{sim.WithClock(replayClock), sim.WithObserver(col)}, opts...)
	e, err := sim.New(cfg, opts...)
	if err != nil {
		return Summary{}, fmt.Errorf("replay: %w", err)
	}
	e.Advance(steps)
	return summarize(e.Snapshot(), col), nil
}

func summarize(snap sim.Snapshot, col *collector) Summary {
	s := Summary{
		Steps:        snap.Step,
		Rounds:       snap.Stats.Rounds,
		NoOps:        snap.Stats.NoOps,
		Successes:    snap.Stats.Successes,
		ShiftsByKind: make(map[shift.Kind]int),
		Shifts:       col.shifts,
		Drift:        col.drift,
		Analysis:     snap.Analyze(),
	}
	if s.Rounds > 0 {
		s.Accuracy = float64(s.Successes) / float64(s.Rounds)
	}
	for _, cs := range col.shifts {
		s.ShiftsByKind[cs.Kind]++
	}
	if d, ok := snap.LatestDrift(); ok {
		s.FinalDrift = d.Drift
	}
	s.FinalAlignment = 100
	if a, ok := snap.LatestAlignment(); ok {
		s.FinalAlignment = a.Alignment
	}
	s.TopPatterns = snap.Patterns
	if len(s.TopPatterns) > 5 {
		s.TopPatterns = s.TopPatterns[:5]
	}
	return s
}

// #endregion run

// #region verify

// Verify replays f and lists every expectation the replay missed.
func Verify(f *Fixture) (Result, error) {
	sum, err := Run(&f.Config, f.Steps)
	if err != nil {
		return Result{}, err
	}
	return Result{Fixture: f, Summary: sum, Mismatches: compare(f.Expected, sum)}, nil
}

func compare(exp FixtureExpected, sum Summary) []string {
	var out []string
	if exp.ContextShifts != nil && *exp.ContextShifts != len(sum.Shifts) {
		out = append(out, fmt.Sprintf("context_shifts: want %d, got %d", *exp.ContextShifts, len(sum.Shifts)))
	}
	if exp.ShiftSteps != nil {
		got := make([]int, len(sum.Shifts))
		for i, cs := range sum.Shifts {
			got[i] = cs.Step
		}
		if fmt.Sprint(got) != fmt.Sprint(exp.ShiftSteps) {
			out = append(out, fmt.Sprintf("shift_steps: want %v, got %v", exp.ShiftSteps, got))
		}
	}
	if exp.Rounds != nil && *exp.Rounds != sum.Rounds {
		out = append(out, fmt.Sprintf("rounds: want %d, got %d", *exp.Rounds, sum.Rounds))
	}
	if exp.FinalDrift != nil && math.Abs(*exp.FinalDrift-sum.FinalDrift) > driftTolerance {
		out = append(out, fmt.Sprintf("final_drift: want %g, got %g", *exp.FinalDrift, sum.FinalDrift))
	}
	if exp.FinalAlignment != nil && math.Abs(*exp.FinalAlignment-sum.FinalAlignment) > driftTolerance {
		out = append(out, fmt.Sprintf("final_alignment: want %g, got %g", *exp.FinalAlignment, sum.FinalAlignment))
	}
	if exp.Drift != nil {
		out = append(out, compareDrift(exp.Drift, sum.Drift)...)
	}
	if exp.Shifts != nil {
		got := ToFixtureShifts(sum.Shifts)
		if len(got) != len(exp.Shifts) {
			out = append(out, fmt.Sprintf("shifts: want %d, got %d", len(exp.Shifts), len(got)))
		} else {
			for i := range got {
				if got[i] != exp.Shifts[i] {
					out = append(out, fmt.Sprintf("shift %d: want %+v, got %+v", i, exp.Shifts[i], got[i]))
				}
			}
		}
	}
	return out
}

// compareDrift reports the first diverging sample only; everything after it
// diverges too.
func compareDrift(want, got []metrics.DriftSample) []string {
	if len(want) != len(got) {
		return []string{fmt.Sprintf("drift: want %d samples, got %d", len(want), len(got))}
	}
	for i := range want {
		if want[i].Step != got[i].Step || math.Abs(want[i].Drift-got[i].Drift) > driftTolerance {
			return []string{fmt.Sprintf("drift diverges at step %d: want %g, got %g", want[i].Step, want[i].Drift, got[i].Drift)}
		}
	}
	return nil
}

// VerifyRecorded re-simulates a recorded run from its stored config and seed
// and compares the drift series and shift log with the database.
func VerifyRecorded(s *store.Store, runID string) (Result, error) {
	f, err := FromRecorded(s, runID)
	if err != nil {
		return Result{}, err
	}
	return Verify(f)
}

// #endregion verify

// #region run-many

// RunMany verifies fixtures concurrently, at most limit at a time (limit <= 0
// means no limit). Each goroutine owns its engine. Results keep input order.
func RunMany(ctx context.Context, fixtures []*Fixture, limit int) ([]Result, error) {
	results := make([]Result, len(fixtures))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, f := range fixtures {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := Verify(f)
			if err != nil {
				return fmt.Errorf("fixture %q: %w", f.Description, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// #endregion run-many
