package metrics

import (
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/agent"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/vecspace"
)

// #region samples

// DriftSample is the population drift after one step, in [0, 2].
type DriftSample struct {
	Step  int     `json:"step"`
	Drift float64 `json:"drift"`
}

// AlignmentSample is the population alignment after one step, in [0, 100].
type AlignmentSample struct {
	Step      int     `json:"step"`
	Alignment float64 `json:"alignment"`
}

// #endregion samples

// #region drift

// vectorFn returns agent a's vector for symbol s.
type vectorFn func(a, s int) []float64

// PopulationDrift averages, over all distinct agent pairs, the mean distance
// across every vocabulary symbol. Fewer than two agents means zero drift.
func PopulationDrift(pop *agent.Population) float64 {
	return drift(pop.Size(), len(pop.Vocabulary), livePopulation(pop))
}

// SymbolDrift is the mean pairwise distance for a single symbol.
func SymbolDrift(pop *agent.Population, sym int) float64 {
	return symbolDrift(pop.Size(), sym, livePopulation(pop))
}

// Alignment maps drift onto a 0..100 convergence score.
func Alignment(drift float64) float64 {
	a := (1 - drift) * 100
	if a < 0 {
		return 0
	}
	return a
}

// Measure computes drift and alignment samples for step.
func Measure(step int, pop *agent.Population) (DriftSample, AlignmentSample) {
	d := PopulationDrift(pop)
	return DriftSample{Step: step, Drift: d}, AlignmentSample{Step: step, Alignment: Alignment(d)}
}

func livePopulation(pop *agent.Population) vectorFn {
	return func(a, s int) []float64 { return pop.Agents[a].Meaning(s).Vector }
}

func drift(agents, symbols int, vec vectorFn) float64 {
	if agents < 2 || symbols == 0 {
		return 0
	}
	var total float64
	pairs := 0
	for i := 0; i < agents; i++ {
		for j := i + 1; j < agents; j++ {
			var sum float64
			for s := 0; s < symbols; s++ {
				sum += vecspace.DistanceOrMax(vec(i, s), vec(j, s))
			}
			total += sum / float64(symbols)
			pairs++
		}
	}
	return total / float64(pairs)
}

func symbolDrift(agents, sym int, vec vectorFn) float64 {
	if agents < 2 {
		return 0
	}
	var total float64
	pairs := 0
	for i := 0; i < agents; i++ {
		for j := i + 1; j < agents; j++ {
			total += vecspace.DistanceOrMax(vec(i, sym), vec(j, sym))
			pairs++
		}
	}
	return total / float64(pairs)
}

// #endregion drift
