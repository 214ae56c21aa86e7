package agent

// #region rand

// Rand is the injected randomness source. *math/rand/v2.Rand satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Uniform draws from [lo, hi).
func Uniform(r Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}

// #endregion rand

// #region symbol-meaning

// SymbolMeaning is one agent's private encoding of a vocabulary symbol.
type SymbolMeaning struct {
	Vector      []float64 `json:"vector"`
	Confidence  float64   `json:"confidence"` // [0,1]
	UsageCount  int       `json:"usage_count"`
	LastUsed    int       `json:"last_used"`
	SuccessRate float64   `json:"success_rate"`
}

// Clone returns a deep copy.
func (m SymbolMeaning) Clone() SymbolMeaning {
	m.Vector = append([]float64(nil), m.Vector...)
	return m
}

// #endregion symbol-meaning

// #region traits

// Traits are sampled once per agent at creation and on reset.
type Traits struct {
	Adaptability     float64 `json:"adaptability"`      // [0.2, 0.8)
	ConvergenceSpeed float64 `json:"convergence_speed"` // [0.1, 0.4)
	ForgettingRate   float64 `json:"forgetting_rate"`   // [0.001, 0.005)
}

// #endregion traits

// #region memory

// Action is the role an agent played in a remembered exchange.
type Action string

const (
	ActionSent     Action = "sent"
	ActionReceived Action = "received"
)

// MemoryEntry records one exchange from the agent's point of view.
type MemoryEntry struct {
	Step     int      `json:"step"`
	Action   Action   `json:"action"`
	Sequence []string `json:"sequence"`
	Success  bool     `json:"success"`
	Partner  int      `json:"partner"`
}

// #endregion memory

// #region sampling-ranges

const (
	initialTrust = 0.5

	confidenceMin = 0.3
	confidenceMax = 0.7

	adaptabilityMin = 0.2
	adaptabilityMax = 0.8
	convergenceMin  = 0.1
	convergenceMax  = 0.4
	forgettingMin   = 0.001
	forgettingMax   = 0.005
)

// #endregion sampling-ranges
