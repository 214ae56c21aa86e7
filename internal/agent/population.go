package agent

import "fmt"

// #region population

// Population is the fixed set of agents sharing one vocabulary. Agent ids are
// their index in Agents.
type Population struct {
	Vocabulary []string
	Agents     []*Agent

	index map[string]int
	dim   int
}

// NewPopulation creates count agents over vocabulary, each with trust toward every other.
func NewPopulation(count int, vocabulary []string, dim, memoryCapacity int, r Rand) *Population {
	p := &Population{
		Vocabulary: append([]string(nil), vocabulary...),
		index:      make(map[string]int, len(vocabulary)),
		dim:        dim,
	}
	for i, s := range p.Vocabulary {
		p.index[s] = i
	}
	ids := make([]int, count)
	for i := range ids {
		ids[i] = i
	}
	p.Agents = make([]*Agent, count)
	for i := range p.Agents {
		p.Agents[i] = New(i, fmt.Sprintf("agent-%02d", i), len(vocabulary), dim, ids, memoryCapacity, r)
	}
	return p
}

// Reset resamples every agent in id order.
func (p *Population) Reset(r Rand) {
	for _, a := range p.Agents {
		a.Reset(r)
	}
}

// Size returns the number of agents.
func (p *Population) Size() int { return len(p.Agents) }

// Dim returns the meaning vector dimension.
func (p *Population) Dim() int { return p.dim }

// SymbolIndex returns the vocabulary position of symbol.
func (p *Population) SymbolIndex(symbol string) (int, bool) {
	i, ok := p.index[symbol]
	return i, ok
}

// Symbols maps vocabulary indices to symbols.
func (p *Population) Symbols(idx []int) []string {
	out := make([]string, len(idx))
	for i, s := range idx {
		out[i] = p.Vocabulary[s]
	}
	return out
}

// #endregion population
