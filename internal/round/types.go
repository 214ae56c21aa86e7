package round

// #region round-config

// Config holds the exchange parameters.
type Config struct {
	AcceptanceThreshold float64 // success iff average distance is strictly below this (default 0.5)
	SingleSymbolBias    float64 // probability a sequence has length 1, else 2 (default 0.8)
}

// DefaultConfig returns the standard exchange parameters.
func DefaultConfig() Config {
	return Config{
		AcceptanceThreshold: 0.5,
		SingleSymbolBias:    0.8,
	}
}

// #endregion round-config

// #region communication

// Communication is the immutable record of one exchange.
type Communication struct {
	Sender      int      `json:"sender"`
	Receiver    int      `json:"receiver"`
	Sequence    []string `json:"sequence"`
	Success     bool     `json:"success"`
	Step        int      `json:"step"`
	AvgDistance float64  `json:"avg_distance"`
	// TrustBefore is the receiver's trust toward the sender before the exchange.
	TrustBefore float64 `json:"trust_before"`
}

// Clone returns a copy that shares no memory with c.
func (c Communication) Clone() Communication {
	c.Sequence = append([]string(nil), c.Sequence...)
	return c
}

// #endregion communication

// #region outcome

// Outcome is everything a round produced. Communication is nil for a no-op
// round (sender and receiver coincided, or fewer than two agents).
type Outcome struct {
	Communication *Communication
	// Degenerate counts symbols scored at maximal distance because a vector had zero magnitude.
	Degenerate int
}

// #endregion outcome
