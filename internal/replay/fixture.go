package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/config"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/metrics"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/shift"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/store"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string          `json:"description"`
	Config      config.Config   `json:"config"`
	Steps       int             `json:"steps"`
	Expected    FixtureExpected `json:"expected"`
}

// FixtureExpected lists what a replay must reproduce. Nil and empty fields
// are not checked.
type FixtureExpected struct {
	ContextShifts  *int     `json:"context_shifts,omitempty"`
	ShiftSteps     []int    `json:"shift_steps,omitempty"`
	Rounds         *int     `json:"rounds,omitempty"`
	FinalDrift     *float64 `json:"final_drift,omitempty"`
	FinalAlignment *float64 `json:"final_alignment,omitempty"`

	// Exact series, as exported from a recorded run.
	Drift  []metrics.DriftSample `json:"drift,omitempty"`
	Shifts []FixtureShift        `json:"shifts,omitempty"`
}

// FixtureShift is a context shift without its wall-clock timestamp.
type FixtureShift struct {
	Step   int        `json:"step"`
	Kind   shift.Kind `json:"kind"`
	Symbol string     `json:"symbol,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file. Config keys missing from
// the file keep their defaults.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	f := Fixture{Config: *config.Default()}
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if f.Steps < 0 {
		return nil, fmt.Errorf("fixture %s: negative step count", path)
	}
	return &f, nil
}

// WriteFixture stores f as indented JSON.
func WriteFixture(path string, f *Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// ToFixtureShifts drops timestamps from shifts.
func ToFixtureShifts(shifts []shift.ContextShift) []FixtureShift {
	out := make([]FixtureShift, len(shifts))
	for i, cs := range shifts {
		out[i] = FixtureShift{Step: cs.Step, Kind: cs.Kind, Symbol: cs.Symbol}
	}
	return out
}

// FromRecorded builds a fixture that pins the exact drift series and shift
// log of a recorded run.
func FromRecorded(s *store.Store, runID string) (*Fixture, error) {
	run, err := s.GetRun(runID)
	if err != nil {
		return nil, err
	}
	if run.ParentID != "" {
		return nil, fmt.Errorf("run %s continues %s after a reset and cannot be replayed from its seed", runID, run.ParentID)
	}
	drift, err := s.DriftHistory(runID)
	if err != nil {
		return nil, err
	}
	shifts, err := s.ContextShifts(runID)
	if err != nil {
		return nil, err
	}
	comms, err := s.Communications(runID, 0)
	if err != nil {
		return nil, err
	}

	n := len(shifts)
	rounds := len(comms)
	f := &Fixture{
		Description: fmt.Sprintf("recorded run %s", runID),
		Config:      run.Config,
		Steps:       run.Steps,
		Expected: FixtureExpected{
			ContextShifts: &n,
			Rounds:        &rounds,
			Drift:         drift,
			Shifts:        ToFixtureShifts(shifts),
		},
	}
	for _, cs := range shifts {
		f.Expected.ShiftSteps = append(f.Expected.ShiftSteps, cs.Step)
	}
	return f, nil
}

// #endregion fixture-loader
