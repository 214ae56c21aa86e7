package shift

import (
	"time"

	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/agent"
)

// #region kind

// Kind enumerates context shift categories.
type Kind string

const (
	SymbolRedefinition Kind = "symbol_redefinition"
	NewAgent           Kind = "new_agent"
	TaskChange         Kind = "task_change"
)

// Kinds lists every shift kind in draw order.
var Kinds = []Kind{SymbolRedefinition, NewAgent, TaskChange}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// #endregion kind

// #region context-shift

// ContextShift is the immutable record of one scheduled perturbation.
type ContextShift struct {
	Step      int       `json:"step"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	// Symbol is the redefined symbol; empty for other kinds.
	Symbol string `json:"symbol,omitempty"`
}

// #endregion context-shift

// #region scheduler

// Scheduler perturbs the population every Interval steps.
type Scheduler struct {
	interval         int
	redefinitionConf float64
	now              func() time.Time
}

// NewScheduler creates a scheduler. A nil clock defaults to time.Now.
func NewScheduler(interval int, redefinitionConfidence float64, now func() time.Time) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{interval: interval, redefinitionConf: redefinitionConfidence, now: now}
}

// Due reports whether a shift fires at step.
func (s *Scheduler) Due(step int) bool {
	return s.interval > 0 && step > 0 && step%s.interval == 0
}

// Apply draws a shift kind and applies its effect. Only symbol redefinition
// changes state: one symbol gets a fresh random vector and reset confidence
// in every agent. The other kinds are recorded without state effects.
func (s *Scheduler) Apply(step int, pop *agent.Population, r agent.Rand) ContextShift {
	cs := ContextShift{
		Step:      step,
		Kind:      Kinds[r.IntN(len(Kinds))],
		CreatedAt: s.now().UTC(),
	}
	if cs.Kind == SymbolRedefinition && len(pop.Vocabulary) > 0 {
		sym := r.IntN(len(pop.Vocabulary))
		cs.Symbol = pop.Vocabulary[sym]
		for _, a := range pop.Agents {
			m := a.Meaning(sym)
			m.Vector = agent.RandomVector(r, pop.Dim())
			m.Confidence = s.redefinitionConf
		}
	}
	return cs
}

// #endregion scheduler
