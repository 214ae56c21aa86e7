package agent

import (
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/history"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/vecspace"
)

// #region agent-struct

// Agent is the mutable per-agent record. Meanings are indexed by vocabulary
// position; trust is keyed by peer id and never holds a self entry.
type Agent struct {
	ID     int
	Name   string
	Traits Traits

	meanings []SymbolMeaning
	trust    map[int]float64
	memory   *history.Ring[MemoryEntry]
	peers    []int
	dim      int
}

// #endregion agent-struct

// #region create

// New samples a fresh agent: one meaning per symbol (components uniform in
// [-1,1], confidence in [0.3,0.7)), trust 0.5 toward every peer, empty memory
// and freshly drawn traits.
func New(id int, name string, symbols, dim int, peers []int, memoryCapacity int, r Rand) *Agent {
	a := &Agent{
		ID:     id,
		Name:   name,
		memory: history.New[MemoryEntry](memoryCapacity),
		dim:    dim,
	}
	for _, p := range peers {
		if p != id {
			a.peers = append(a.peers, p)
		}
	}
	a.meanings = make([]SymbolMeaning, symbols)
	a.resample(r)
	return a
}

// Reset discards all learned state and resamples it. ID and Name survive.
func (a *Agent) Reset(r Rand) {
	a.memory.Clear()
	a.resample(r)
}

func (a *Agent) resample(r Rand) {
	for i := range a.meanings {
		a.meanings[i] = SymbolMeaning{
			Vector:     RandomVector(r, a.dim),
			Confidence: Uniform(r, confidenceMin, confidenceMax),
		}
	}
	a.trust = make(map[int]float64, len(a.peers))
	for _, p := range a.peers {
		a.trust[p] = initialTrust
	}
	a.Traits = Traits{
		Adaptability:     Uniform(r, adaptabilityMin, adaptabilityMax),
		ConvergenceSpeed: Uniform(r, convergenceMin, convergenceMax),
		ForgettingRate:   Uniform(r, forgettingMin, forgettingMax),
	}
}

// RandomVector draws dim components uniformly from [-1, 1).
func RandomVector(r Rand, dim int) []float64 {
	v := make([]float64, dim)
	for i := range v {
		v[i] = Uniform(r, -1, 1)
	}
	return v
}

// #endregion create

// #region accessors

// Meaning returns the agent's meaning for the symbol at index sym.
func (a *Agent) Meaning(sym int) *SymbolMeaning {
	return &a.meanings[sym]
}

// SymbolCount returns the number of meanings held.
func (a *Agent) SymbolCount() int { return len(a.meanings) }

// Dim returns the meaning vector dimension.
func (a *Agent) Dim() int { return a.dim }

// TrustToward returns trust toward peer. Unknown peers (including self) read as 0.
func (a *Agent) TrustToward(peer int) float64 {
	return a.trust[peer]
}

// SetTrust stores trust toward peer, clamped to [0,1]. Self-trust is ignored.
func (a *Agent) SetTrust(peer int, v float64) {
	if peer == a.ID {
		return
	}
	a.trust[peer] = vecspace.Clamp01(v)
}

// Trust returns a copy of the trust table.
func (a *Agent) Trust() map[int]float64 {
	out := make(map[int]float64, len(a.trust))
	for k, v := range a.trust {
		out[k] = v
	}
	return out
}

// Remember appends to the bounded interaction memory.
func (a *Agent) Remember(e MemoryEntry) {
	a.memory.Push(e)
}

// Memory returns the interaction memory, oldest first.
func (a *Agent) Memory() []MemoryEntry {
	return a.memory.Items()
}

// MemoryLen returns the number of remembered exchanges.
func (a *Agent) MemoryLen() int { return a.memory.Len() }

// Meanings returns deep copies of every meaning in vocabulary order.
func (a *Agent) Meanings() []SymbolMeaning {
	out := make([]SymbolMeaning, len(a.meanings))
	for i, m := range a.meanings {
		out[i] = m.Clone()
	}
	return out
}

// #endregion accessors
