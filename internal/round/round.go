package round

import (
	"errors"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/adapt"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/agent"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/vecspace"
)

// #region runner

// Runner executes communicative exchanges between agents of a population.
type Runner struct {
	config Config
	adapt  *adapt.Engine
	logger *zap.Logger
}

// NewRunner creates a Runner. A nil logger is replaced with a no-op logger.
func NewRunner(config Config, engine *adapt.Engine, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{config: config, adapt: engine, logger: logger}
}

// #endregion runner

// #region run

// Run samples a sender, a receiver and a symbol sequence, then performs the
// exchange. Coinciding sender and receiver make the round a no-op.
func (rn *Runner) Run(step int, pop *agent.Population, r agent.Rand) Outcome {
	n := pop.Size()
	if n == 0 {
		return Outcome{}
	}
	sender := r.IntN(n)
	receiver := r.IntN(n)
	if sender == receiver {
		return Outcome{}
	}

	length := 1
	if r.Float64() >= rn.config.SingleSymbolBias {
		length = 2
	}
	seq := make([]int, length)
	for i := range seq {
		seq[i] = r.IntN(len(pop.Vocabulary))
	}

	return rn.Exchange(step, pop, sender, receiver, seq, r)
}

// Exchange scores seq between sender and receiver, applies adaptation and
// records the exchange in both agents' memories.
func (rn *Runner) Exchange(step int, pop *agent.Population, senderID, receiverID int, seq []int, r agent.Rand) Outcome {
	sender := pop.Agents[senderID]
	receiver := pop.Agents[receiverID]

	var out Outcome
	var total float64
	for _, sym := range seq {
		d, err := vecspace.Distance(sender.Meaning(sym).Vector, receiver.Meaning(sym).Vector)
		if err != nil {
			if !errors.Is(err, vecspace.ErrDegenerateVector) {
				rn.logger.Warn("distance failed", zap.Int("step", step), zap.Error(err))
			}
			out.Degenerate++
			d = vecspace.MaxDistance
		}
		total += d
	}
	avg := total / float64(len(seq))
	// a degenerate symbol fails the exchange whatever the threshold
	success := out.Degenerate == 0 && avg < rn.config.AcceptanceThreshold

	symbols := pop.Symbols(seq)
	out.Communication = &Communication{
		Sender:      senderID,
		Receiver:    receiverID,
		Sequence:    symbols,
		Success:     success,
		Step:        step,
		AvgDistance: avg,
		TrustBefore: receiver.TrustToward(senderID),
	}
	if out.Degenerate > 0 {
		rn.logger.Warn("degenerate meaning vector scored as maximal distance",
			zap.Int("step", step),
			zap.Int("sender", senderID),
			zap.Int("receiver", receiverID),
			zap.Int("symbols", out.Degenerate),
		)
	}

	rn.adapt.Apply(step, sender, receiver, seq, success, r)

	sender.Remember(agent.MemoryEntry{
		Step: step, Action: agent.ActionSent, Sequence: append([]string(nil), symbols...),
		Success: success, Partner: receiverID,
	})
	receiver.Remember(agent.MemoryEntry{
		Step: step, Action: agent.ActionReceived, Sequence: append([]string(nil), symbols...),
		Success: success, Partner: senderID,
	})

	return out
}

// #endregion run
