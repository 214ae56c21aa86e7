package metrics

import (
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/agent"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/round"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/vecspace"
)

// #region analysis-types

// SymbolReport summarizes how well the population agrees on one symbol.
type SymbolReport struct {
	Symbol string  `json:"symbol"`
	Drift  float64 `json:"drift"`
	// Consistency is the fraction of agents whose meaning is nearest to this
	// symbol's own population centroid.
	Consistency float64 `json:"consistency"`
	Ambiguous   bool    `json:"ambiguous"`
}

// Analysis is a post-hoc summary of a run.
type Analysis struct {
	Rounds    int            `json:"rounds"`
	Successes int            `json:"successes"`
	Accuracy  float64        `json:"accuracy"`
	Drift     float64        `json:"drift"`
	Alignment float64        `json:"alignment"`
	Symbols   []SymbolReport `json:"symbols"`
	Ambiguous []string       `json:"ambiguous,omitempty"`
}

// #endregion analysis-types

// #region analyze

// Analyze summarizes communications and a meaning table (indexed
// [agent][symbol], in vocabulary order). Inputs are not modified.
func Analyze(vocabulary []string, meanings [][]agent.SymbolMeaning, comms []round.Communication) Analysis {
	var out Analysis
	out.Rounds = len(comms)
	for _, c := range comms {
		if c.Success {
			out.Successes++
		}
	}
	if out.Rounds > 0 {
		out.Accuracy = float64(out.Successes) / float64(out.Rounds)
	}

	vec := func(a, s int) []float64 { return meanings[a][s].Vector }
	out.Drift = drift(len(meanings), len(vocabulary), vec)
	out.Alignment = Alignment(out.Drift)

	centroids := make([][]float64, len(vocabulary))
	for s := range vocabulary {
		vs := make([][]float64, len(meanings))
		for a := range meanings {
			vs[a] = meanings[a][s].Vector
		}
		centroids[s] = vecspace.Centroid(vs)
	}

	out.Symbols = make([]SymbolReport, len(vocabulary))
	for s, sym := range vocabulary {
		rep := SymbolReport{Symbol: sym, Drift: symbolDrift(len(meanings), s, vec)}
		if len(meanings) > 0 {
			nearest := 0
			for a := range meanings {
				if nearestCentroid(meanings[a][s].Vector, centroids) == s {
					nearest++
				}
			}
			rep.Consistency = float64(nearest) / float64(len(meanings))
			rep.Ambiguous = nearest < len(meanings)
		}
		if rep.Ambiguous {
			out.Ambiguous = append(out.Ambiguous, sym)
		}
		out.Symbols[s] = rep
	}
	return out
}

// nearestCentroid returns the index of the closest centroid. Ties go to the
// lowest index; degenerate vectors count as maximally distant.
func nearestCentroid(v []float64, centroids [][]float64) int {
	best, bestDist := -1, 0.0
	for i, c := range centroids {
		d := vecspace.DistanceOrMax(v, c)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// #endregion analyze
