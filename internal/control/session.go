package control

import (
	"sync"

	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/metrics"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/sim"
)

// #region state

// State is the engine status reported by every control call.
type State struct {
	Status sim.Status `json:"status"`
	Step   int        `json:"step"`
}

// #endregion state

// #region session

// Session serializes every call into one engine. The tick driver and any
// number of gRPC handlers may share a Session.
type Session struct {
	mu     sync.Mutex
	engine *sim.Engine
}

// NewSession wraps e. The caller must not use e directly afterwards.
func NewSession(e *sim.Engine) *Session {
	return &Session{engine: e}
}

func (s *Session) state() State {
	return State{Status: s.engine.Status(), Step: s.engine.StepCount()}
}

// State returns the current status and step.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

// Start moves the engine to running.
func (s *Session) Start() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Start()
	return s.state()
}

// Pause moves the engine to idle.
func (s *Session) Pause() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Pause()
	return s.state()
}

// Step advances n steps regardless of status.
func (s *Session) Step(n int) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Advance(n)
	return s.state()
}

// Reset returns the engine to idle at step zero.
func (s *Session) Reset() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Reset()
	return s.state()
}

// Tick implements sim.Ticker.
func (s *Session) Tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Tick()
}

// Snapshot returns a deep copy of engine state.
func (s *Session) Snapshot() sim.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Snapshot()
}

// Analyze summarizes the engine's current state.
func (s *Session) Analyze() metrics.Analysis {
	return s.Snapshot().Analyze()
}

// #endregion session
