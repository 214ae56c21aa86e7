package sim

import (
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/agent"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/metrics"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/round"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/shift"
)

// #region snapshot-types

// AgentView is a read-only copy of one agent.
type AgentView struct {
	ID     int          `json:"id"`
	Name   string       `json:"name"`
	Traits agent.Traits `json:"traits"`
	// Meanings is in vocabulary order.
	Meanings []agent.SymbolMeaning `json:"meanings"`
	Trust    map[int]float64       `json:"trust"`
	Memory   []agent.MemoryEntry   `json:"memory"`
}

// Snapshot is a deep copy of engine state. Mutating it never reaches the engine.
type Snapshot struct {
	Step           int                       `json:"step"`
	Status         Status                    `json:"status"`
	Vocabulary     []string                  `json:"vocabulary"`
	Agents         []AgentView               `json:"agents"`
	Communications []round.Communication     `json:"communications"`
	Drift          []metrics.DriftSample     `json:"drift"`
	Alignment      []metrics.AlignmentSample `json:"alignment"`
	Shifts         []shift.ContextShift      `json:"shifts"`
	Patterns       []metrics.SyntaxPattern   `json:"patterns"`
	Stats          Stats                     `json:"stats"`
}

// #endregion snapshot-types

// #region snapshot

// Snapshot copies everything a presentation layer may read.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Step:       e.step,
		Status:     e.status,
		Vocabulary: append([]string(nil), e.pop.Vocabulary...),
		Agents:     make([]AgentView, len(e.pop.Agents)),
		Drift:      e.drift.Items(),
		Alignment:  e.alignment.Items(),
		Shifts:     append([]shift.ContextShift(nil), e.shifts...),
		Patterns:   e.patterns.Patterns(),
		Stats:      e.stats,
	}
	for i, a := range e.pop.Agents {
		mem := a.Memory()
		for j := range mem {
			mem[j].Sequence = append([]string(nil), mem[j].Sequence...)
		}
		s.Agents[i] = AgentView{
			ID:       a.ID,
			Name:     a.Name,
			Traits:   a.Traits,
			Meanings: a.Meanings(),
			Trust:    a.Trust(),
			Memory:   mem,
		}
	}
	comms := e.comms.Items()
	s.Communications = make([]round.Communication, len(comms))
	for i, c := range comms {
		s.Communications[i] = c.Clone()
	}
	return s
}

// MeaningTable returns the meanings indexed [agent][symbol].
func (s Snapshot) MeaningTable() [][]agent.SymbolMeaning {
	out := make([][]agent.SymbolMeaning, len(s.Agents))
	for i, a := range s.Agents {
		out[i] = a.Meanings
	}
	return out
}

// Analyze runs the post-hoc analysis over the snapshot's retained state.
func (s Snapshot) Analyze() metrics.Analysis {
	return metrics.Analyze(s.Vocabulary, s.MeaningTable(), s.Communications)
}

// LatestDrift returns the most recent drift sample, if any step has run.
func (s Snapshot) LatestDrift() (metrics.DriftSample, bool) {
	if len(s.Drift) == 0 {
		return metrics.DriftSample{}, false
	}
	return s.Drift[len(s.Drift)-1], true
}

// LatestAlignment returns the most recent alignment sample, if any step has run.
func (s Snapshot) LatestAlignment() (metrics.AlignmentSample, bool) {
	if len(s.Alignment) == 0 {
		return metrics.AlignmentSample{}, false
	}
	return s.Alignment[len(s.Alignment)-1], true
}

// #endregion snapshot
