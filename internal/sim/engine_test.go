package sim

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/config"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/shift"
)

// #region helpers

var fixedClock = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

func newEngine(t *testing.T, mutate func(*config.Config), opts ...Option) *Engine {
	t.Helper()
	cfg := config.Default()
	cfg.Seed = 7
	if mutate != nil {
		mutate(cfg)
	}
	e, err := New(cfg, append([]Option{WithClock(fixedClock)}, opts...)...)
	require.NoError(t, err)
	return e
}

type recordingObserver struct {
	steps  []int
	resets int
	err    error
}

func (o *recordingObserver) OnStep(r StepReport) error {
	o.steps = append(o.steps, r.Step)
	return o.err
}

func (o *recordingObserver) OnReset() error {
	o.resets++
	return o.err
}

// #endregion helpers

// #region construction

func TestNewRejectsInvalidConfig(t *testing.T) {
	cases := map[string]func(*config.Config){
		"no agents":     func(c *config.Config) { c.Population.Agents = 0 },
		"no vocabulary": func(c *config.Config) { c.Population.Vocabulary = nil },
		"no dimension":  func(c *config.Config) { c.Population.Dimension = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(cfg)
			_, err := New(cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, config.ErrInvalidConfiguration)
		})
	}
}

func TestNewStartsIdleAndEmpty(t *testing.T) {
	e := newEngine(t, nil)
	s := e.Snapshot()

	assert.Equal(t, StatusIdle, s.Status)
	assert.Equal(t, 0, s.Step)
	assert.Len(t, s.Agents, 4)
	assert.Len(t, s.Vocabulary, 6)
	assert.Empty(t, s.Communications)
	assert.Empty(t, s.Drift)
	assert.Empty(t, s.Shifts)
	assert.Empty(t, s.Patterns)
	for _, a := range s.Agents {
		assert.Len(t, a.Meanings, 6)
		assert.Len(t, a.Trust, 3)
		_, self := a.Trust[a.ID]
		assert.False(t, self, "agent %d trusts itself", a.ID)
	}
}

// #endregion construction

// #region state-machine

func TestTickOnlyWhileRunning(t *testing.T) {
	e := newEngine(t, nil)

	assert.False(t, e.Tick())
	assert.Equal(t, 0, e.StepCount())

	e.Start()
	assert.Equal(t, StatusRunning, e.Status())
	assert.True(t, e.Tick())
	assert.True(t, e.Tick())
	assert.Equal(t, 2, e.StepCount())

	e.Pause()
	assert.Equal(t, StatusIdle, e.Status())
	assert.False(t, e.Tick())
	assert.Equal(t, 2, e.StepCount())

	// explicit steps always advance
	e.Step()
	assert.Equal(t, 3, e.StepCount())
}

func TestResetClearsEverything(t *testing.T) {
	obs := &recordingObserver{}
	e := newEngine(t, nil, WithObserver(obs))
	e.Start()
	e.Advance(250)

	before := e.Snapshot()
	require.NotEmpty(t, before.Shifts)

	e.Reset()
	s := e.Snapshot()

	assert.Equal(t, StatusIdle, s.Status)
	assert.Equal(t, 0, s.Step)
	assert.Empty(t, s.Communications)
	assert.Empty(t, s.Drift)
	assert.Empty(t, s.Alignment)
	assert.Empty(t, s.Shifts)
	assert.Empty(t, s.Patterns)
	assert.Equal(t, Stats{}, s.Stats)
	assert.Equal(t, 1, obs.resets)
	for i, a := range s.Agents {
		assert.Equal(t, before.Agents[i].ID, a.ID)
		assert.Equal(t, before.Agents[i].Name, a.Name)
		assert.Empty(t, a.Memory)
		for _, m := range a.Meanings {
			assert.Zero(t, m.UsageCount)
			assert.GreaterOrEqual(t, m.Confidence, 0.3)
			assert.Less(t, m.Confidence, 0.7)
		}
		for _, tr := range a.Trust {
			assert.Equal(t, 0.5, tr)
		}
	}
	assert.NotEqual(t, before.Agents[0].Traits, s.Agents[0].Traits)

	rep := e.Step()
	assert.Equal(t, 1, rep.Step)
}

// #endregion state-machine

// #region properties

func TestFiveHundredStepsFiveShifts(t *testing.T) {
	e := newEngine(t, nil)
	e.Advance(500)
	s := e.Snapshot()

	require.Len(t, s.Shifts, 5)
	for i, cs := range s.Shifts {
		assert.Equal(t, (i+1)*100, cs.Step)
		assert.True(t, cs.Kind.Valid(), "invalid kind %q", cs.Kind)
		assert.True(t, cs.CreatedAt.Equal(fixedClock()))
		if cs.Kind == shift.SymbolRedefinition {
			assert.Contains(t, s.Vocabulary, cs.Symbol)
		} else {
			assert.Empty(t, cs.Symbol)
		}
	}
	assert.Equal(t, 500, s.Stats.Rounds+s.Stats.NoOps)
}

func TestDeterministicUnderSeed(t *testing.T) {
	a := newEngine(t, nil)
	b := newEngine(t, nil)
	a.Advance(400)
	b.Advance(400)

	if diff := cmp.Diff(a.Snapshot(), b.Snapshot()); diff != "" {
		t.Fatalf("same seed diverged (-a +b):\n%s", diff)
	}

	c := newEngine(t, func(cfg *config.Config) { cfg.Seed = 8 })
	c.Advance(400)
	if cmp.Equal(a.Snapshot().Drift, c.Snapshot().Drift) {
		t.Error("different seeds produced identical drift histories")
	}
}

func TestBoundsHoldOverLongRun(t *testing.T) {
	e := newEngine(t, nil)
	for i := 0; i < 1200; i++ {
		e.Step()
		if i%97 != 0 {
			continue
		}
		s := e.Snapshot()
		require.LessOrEqual(t, len(s.Communications), 30)
		require.LessOrEqual(t, len(s.Drift), 100)
		require.LessOrEqual(t, len(s.Alignment), 100)
		for _, a := range s.Agents {
			require.LessOrEqual(t, len(a.Memory), 50)
			for _, m := range a.Meanings {
				require.GreaterOrEqual(t, m.Confidence, 0.0)
				require.LessOrEqual(t, m.Confidence, 1.0)
			}
			for _, tr := range a.Trust {
				require.GreaterOrEqual(t, tr, 0.0)
				require.LessOrEqual(t, tr, 1.0)
			}
		}
		for _, d := range s.Drift {
			require.GreaterOrEqual(t, d.Drift, 0.0)
			require.LessOrEqual(t, d.Drift, 2.0)
		}
		for _, al := range s.Alignment {
			require.GreaterOrEqual(t, al.Alignment, 0.0)
			require.LessOrEqual(t, al.Alignment, 100.0)
		}
	}

	s := e.Snapshot()
	assert.Len(t, s.Communications, 30)
	assert.Len(t, s.Drift, 100)
	assert.Equal(t, 1200, s.Drift[len(s.Drift)-1].Step)
	assert.Equal(t, 1101, s.Drift[0].Step)
}

func TestRedefinitionResetsSymbolEverywhere(t *testing.T) {
	e := newEngine(t, nil)
	pop := e.Population()
	seen := 0
	for i := 0; i < 3000; i++ {
		before := e.Snapshot().MeaningTable()
		rep := e.Step()
		if rep.Shift == nil || rep.Shift.Kind != shift.SymbolRedefinition {
			continue
		}
		seen++
		sym, ok := pop.SymbolIndex(rep.Shift.Symbol)
		require.True(t, ok)
		for ai, a := range pop.Agents {
			m := a.Meaning(sym)
			assert.Equal(t, 0.3, m.Confidence, "agent %d", ai)
			assert.NotEqual(t, before[ai][sym].Vector, m.Vector, "agent %d vector unchanged", ai)
		}
	}
	require.NotZero(t, seen, "no symbol redefinition in 30 shifts")
}

func TestSingleAgentPopulation(t *testing.T) {
	e := newEngine(t, func(c *config.Config) { c.Population.Agents = 1 })
	e.Advance(50)
	s := e.Snapshot()

	assert.Equal(t, 50, s.Step)
	assert.Empty(t, s.Communications)
	assert.Equal(t, 50, s.Stats.NoOps)
	require.Len(t, s.Drift, 50)
	for i := range s.Drift {
		assert.Zero(t, s.Drift[i].Drift)
		assert.Equal(t, 100.0, s.Alignment[i].Alignment)
	}
}

func TestPatternsComeFromCommunications(t *testing.T) {
	e := newEngine(t, func(c *config.Config) { c.Round.SingleSymbolBias = 0 })
	e.Advance(200)
	s := e.Snapshot()

	total := 0
	for _, p := range s.Patterns {
		assert.Len(t, p.Sequence, 2)
		total += p.Count
	}
	assert.Equal(t, s.Stats.Rounds, total)
	for _, c := range s.Communications {
		assert.Len(t, c.Sequence, 2)
	}
}

// #endregion properties

// #region observers-and-snapshots

func TestObserverFailureDoesNotCorruptHistory(t *testing.T) {
	good := &recordingObserver{}
	bad := &recordingObserver{err: errors.New("disk full")}
	e := newEngine(t, nil, WithObserver(bad), WithObserver(good))

	e.Advance(10)

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, good.steps)
	assert.Len(t, bad.steps, 10)
	assert.Len(t, e.Snapshot().Drift, 10)
	assert.Equal(t, 10, e.StepCount())
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	e := newEngine(t, nil)
	e.Advance(60)
	s := e.Snapshot()
	require.NotEmpty(t, s.Communications)

	s.Agents[0].Meanings[0].Vector[0] = 42
	s.Agents[0].Meanings[0].Confidence = -1
	for k := range s.Agents[0].Trust {
		s.Agents[0].Trust[k] = 9
	}
	if len(s.Agents[0].Memory) > 0 {
		s.Agents[0].Memory[0].Sequence[0] = "ω"
	}
	s.Communications[0].Sequence[0] = "ω"
	s.Vocabulary[0] = "ω"

	fresh := e.Snapshot()
	assert.NotEqual(t, 42.0, fresh.Agents[0].Meanings[0].Vector[0])
	assert.NotEqual(t, -1.0, fresh.Agents[0].Meanings[0].Confidence)
	for _, tr := range fresh.Agents[0].Trust {
		assert.NotEqual(t, 9.0, tr)
	}
	if len(fresh.Agents[0].Memory) > 0 {
		assert.NotEqual(t, "ω", fresh.Agents[0].Memory[0].Sequence[0])
	}
	assert.NotEqual(t, "ω", fresh.Communications[0].Sequence[0])
	assert.Equal(t, "α", fresh.Vocabulary[0])
}

func TestSnapshotAnalyze(t *testing.T) {
	e := newEngine(t, nil)
	e.Advance(300)
	s := e.Snapshot()
	a := s.Analyze()

	assert.Equal(t, len(s.Communications), a.Rounds)
	assert.Len(t, a.Symbols, len(s.Vocabulary))
	last, ok := s.LatestDrift()
	require.True(t, ok)
	assert.InDelta(t, last.Drift, a.Drift, 1e-12)
}

// #endregion observers-and-snapshots
