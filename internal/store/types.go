package store

import (
	"time"

	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/agent"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/config"
)

// #region run

// Run is one recorded simulation. A run created after an engine reset points
// at the run it continues through ParentID.
type Run struct {
	ID          string
	ParentID    string
	Seed        uint64
	Config      config.Config
	CreatedAt   time.Time
	FinishedAt  time.Time // zero until FinishRun
	FinalStep   int
	SummaryJSON string
	// Steps is the number of recorded step rows.
	Steps int
}

// Finished reports whether FinishRun was called for the run.
func (r Run) Finished() bool { return !r.FinishedAt.IsZero() }

// #endregion run

// #region step-record

// StepRecord is one row of the steps table.
type StepRecord struct {
	Step       int     `json:"step"`
	Drift      float64 `json:"drift"`
	Alignment  float64 `json:"alignment"`
	Decayed    int     `json:"decayed"`
	Degenerate int     `json:"degenerate"`
}

// #endregion step-record

// #region agent-meaning

// AgentMeaning is one agent's final meaning for one symbol.
type AgentMeaning struct {
	AgentID     int
	AgentName   string
	SymbolIndex int
	Symbol      string
	Meaning     agent.SymbolMeaning
}

// #endregion agent-meaning
