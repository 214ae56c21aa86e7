// Package sim drives the symbol drift simulation one atomic step at a time.
//
// An Engine is single-writer: Step, Tick and Reset must not run concurrently.
// Callers that share an Engine across goroutines serialize access themselves
// (see internal/control.Session).
package sim

import (
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/adapt"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/agent"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/config"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/history"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/metrics"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/round"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/shift"
)

// #region status

// Status is the engine's run state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
)

// #endregion status

// #region step-report

// StepReport is everything one step published.
type StepReport struct {
	Step int `json:"step"`
	// Communication is nil when the round was a no-op.
	Communication *round.Communication    `json:"communication,omitempty"`
	Shift         *shift.ContextShift     `json:"shift,omitempty"`
	Drift         metrics.DriftSample     `json:"drift"`
	Alignment     metrics.AlignmentSample `json:"alignment"`
	Decayed       int                     `json:"decayed"`
	Degenerate    int                     `json:"degenerate"`
}

// Observer receives every published step. Errors are logged and never roll
// back the step.
type Observer interface {
	OnStep(StepReport) error
}

// ResetObserver is an Observer that also wants to know about resets.
type ResetObserver interface {
	Observer
	OnReset() error
}

// Stats counts activity since the last reset. Unlike the communication log
// these totals are not bounded.
type Stats struct {
	Rounds     int `json:"rounds"`
	NoOps      int `json:"no_ops"`
	Successes  int `json:"successes"`
	Degenerate int `json:"degenerate"`
}

// #endregion step-report

// #region options

// Option configures an Engine.
type Option func(*Engine)

// WithRand injects the random source. The default is NewRand(cfg.Seed).
func WithRand(r agent.Rand) Option {
	return func(e *Engine) { e.rand = r }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock sets the clock used to timestamp context shifts.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithObserver registers an observer. Observers run in registration order.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, o) }
}

// NewRand returns a PCG-backed generator for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// #endregion options

// #region engine

// Engine owns the population and every history log of one run.
type Engine struct {
	cfg       config.Config
	rand      agent.Rand
	logger    *zap.Logger
	now       func() time.Time
	observers []Observer

	pop       *agent.Population
	adapt     *adapt.Engine
	runner    *round.Runner
	scheduler *shift.Scheduler

	status    Status
	step      int
	stats     Stats
	comms     *history.Ring[round.Communication]
	drift     *history.Ring[metrics.DriftSample]
	alignment *history.Ring[metrics.AlignmentSample]
	shifts    []shift.ContextShift
	patterns  *metrics.PatternTable
}

// New validates cfg and builds an idle engine with a freshly sampled population.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}
	e := &Engine{
		cfg:    *cfg,
		logger: zap.NewNop(),
		now:    time.Now,
		status: StatusIdle,
	}
	e.cfg.Population.Vocabulary = append([]string(nil), cfg.Population.Vocabulary...)
	for _, opt := range opts {
		opt(e)
	}
	if e.rand == nil {
		e.rand = NewRand(cfg.Seed)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}

	ac := adapt.DefaultConfig()
	ac.ForgetAfter = cfg.Adaptation.ForgetAfter
	e.adapt = adapt.NewEngine(ac)
	e.runner = round.NewRunner(round.Config{
		AcceptanceThreshold: cfg.Round.AcceptanceThreshold,
		SingleSymbolBias:    cfg.Round.SingleSymbolBias,
	}, e.adapt, e.logger)
	e.scheduler = shift.NewScheduler(cfg.Shift.Interval, cfg.Shift.RedefinitionConfidence, e.now)

	p := cfg.Population
	e.pop = agent.NewPopulation(p.Agents, p.Vocabulary, p.Dimension, p.MemoryCapacity, e.rand)
	e.comms = history.New[round.Communication](cfg.History.Communications)
	e.drift = history.New[metrics.DriftSample](cfg.History.Metrics)
	e.alignment = history.New[metrics.AlignmentSample](cfg.History.Metrics)
	e.patterns = metrics.NewPatternTable()
	return e, nil
}

// Config returns a copy of the configuration the engine was built with.
func (e *Engine) Config() config.Config {
	c := e.cfg
	c.Population.Vocabulary = append([]string(nil), e.cfg.Population.Vocabulary...)
	return c
}

// Status returns the current run state.
func (e *Engine) Status() Status { return e.status }

// StepCount returns the number of completed steps.
func (e *Engine) StepCount() int { return e.step }

// Population exposes the live population. Callers must not mutate it while
// the engine may step.
func (e *Engine) Population() *agent.Population { return e.pop }

// #endregion engine

// #region transitions

// Start moves the engine to running. Starting a running engine is a no-op.
func (e *Engine) Start() {
	if e.status != StatusRunning {
		e.status = StatusRunning
		e.logger.Info("simulation started", zap.Int("step", e.step))
	}
}

// Pause moves the engine to idle. Pausing an idle engine is a no-op.
func (e *Engine) Pause() {
	if e.status != StatusIdle {
		e.status = StatusIdle
		e.logger.Info("simulation paused", zap.Int("step", e.step))
	}
}

// Tick advances one step if the engine is running and reports whether it did.
func (e *Engine) Tick() bool {
	if e.status != StatusRunning {
		return false
	}
	e.Step()
	return true
}

// Reset returns to idle with step zero, clears every history and resamples
// every agent from the same random stream.
func (e *Engine) Reset() {
	e.status = StatusIdle
	e.step = 0
	e.stats = Stats{}
	e.comms.Clear()
	e.drift.Clear()
	e.alignment.Clear()
	e.shifts = nil
	e.patterns.Reset()
	e.pop.Reset(e.rand)
	e.logger.Info("simulation reset")

	for _, o := range e.observers {
		ro, ok := o.(ResetObserver)
		if !ok {
			continue
		}
		if err := ro.OnReset(); err != nil {
			e.logger.Warn("observer reset failed", zap.Error(err))
		}
	}
}

// #endregion transitions

// #region step

// Step advances exactly one step regardless of status: forgetting, one
// communication round, the scheduled context shift, then metrics. History is
// published only after the whole pipeline has run.
func (e *Engine) Step() StepReport {
	step := e.step + 1

	forgot := e.adapt.Forget(step, e.pop.Agents, e.rand)
	out := e.runner.Run(step, e.pop, e.rand)

	var cs *shift.ContextShift
	if e.scheduler.Due(step) {
		s := e.scheduler.Apply(step, e.pop, e.rand)
		cs = &s
		e.logger.Info("context shift",
			zap.Int("step", step),
			zap.String("kind", string(s.Kind)),
			zap.String("symbol", s.Symbol),
		)
	}

	d, a := metrics.Measure(step, e.pop)

	// publish
	report := StepReport{
		Step:       step,
		Shift:      cs,
		Drift:      d,
		Alignment:  a,
		Decayed:    forgot.Decayed,
		Degenerate: out.Degenerate,
	}
	if c := out.Communication; c != nil {
		e.comms.Push(c.Clone())
		e.patterns.Observe(c.Sequence)
		e.stats.Rounds++
		if c.Success {
			e.stats.Successes++
		}
		report.Communication = c
	} else {
		e.stats.NoOps++
	}
	e.stats.Degenerate += out.Degenerate
	if cs != nil {
		e.shifts = append(e.shifts, *cs)
	}
	e.drift.Push(d)
	e.alignment.Push(a)
	e.step = step

	e.logger.Debug("step",
		zap.Int("step", step),
		zap.Bool("exchanged", out.Communication != nil),
		zap.Float64("drift", d.Drift),
		zap.Float64("alignment", a.Alignment),
	)

	for _, o := range e.observers {
		if err := o.OnStep(report); err != nil {
			e.logger.Warn("observer failed", zap.Int("step", step), zap.Error(err))
		}
	}
	return report
}

// Advance runs n steps and returns the last report. n below 1 runs nothing
// and returns a zero report.
func (e *Engine) Advance(n int) StepReport {
	var last StepReport
	for i := 0; i < n; i++ {
		last = e.Step()
	}
	return last
}

// #endregion step
