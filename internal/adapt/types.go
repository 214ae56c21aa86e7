package adapt

// #region adapt-config

// Config holds reinforcement, repair and forgetting parameters.
type Config struct {
	ConfidenceGain    float64 // confidence added per successful use (default 0.05)
	TrustGain         float64 // receiver trust toward sender per successful use (default 0.02)
	ConvergenceRate   float64 // scales the receiver's convergence speed (default 0.1)
	RepairConfidence  float64 // confidence after a strong repair (default 0.3)
	StrongRepairNoise float64 // half-width of noise added to the copied vector (default 0.1)
	WeakRepairNoise   float64 // half-width of the weak-repair perturbation (default 0.05)
	ForgetAfter       int     // idle steps before forgetting starts (default 20)
	ForgetNoise       float64 // half-width of disuse drift per component (default 0.005)
}

// DefaultConfig returns the standard adaptation parameters.
func DefaultConfig() Config {
	return Config{
		ConfidenceGain:    0.05,
		TrustGain:         0.02,
		ConvergenceRate:   0.1,
		RepairConfidence:  0.3,
		StrongRepairNoise: 0.1,
		WeakRepairNoise:   0.05,
		ForgetAfter:       20,
		ForgetNoise:       0.005,
	}
}

// #endregion adapt-config

// #region repair-kind

// Repair names the branch taken for one symbol of an exchange.
type Repair string

const (
	RepairNone   Repair = "none" // successful exchange, reinforcement applied
	RepairStrong Repair = "strong"
	RepairWeak   Repair = "weak"
)

// #endregion repair-kind

// #region result

// SymbolUpdate describes what happened to one symbol of the sequence.
type SymbolUpdate struct {
	Symbol int
	Repair Repair
	// Shift is the L2 norm of the change applied to the receiver's vector.
	Shift float64
}

// Result bundles the per-symbol updates from one exchange.
type Result struct {
	Updates    []SymbolUpdate
	TrustDelta float64
}

// ForgetMetrics summarises one forgetting pass.
type ForgetMetrics struct {
	Decayed int // number of (agent, symbol) pairs that decayed
}

// #endregion result
