package adapt

import (
	"math"

	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/agent"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/vecspace"
)

// #region engine

// Engine applies reinforcement, repair and forgetting rules to agent state.
type Engine struct {
	config Config
}

// NewEngine creates an adaptation engine with the given configuration.
func NewEngine(config Config) *Engine {
	return &Engine{config: config}
}

// Config returns the engine's parameters.
func (e *Engine) Config() Config { return e.config }

// #endregion engine

// #region apply

// Apply updates sender and receiver for every symbol of seq after an exchange.
// Success reinforces both confidences, raises the receiver's trust toward the
// sender and pulls the receiver's vector toward the sender's. Failure repairs
// the receiver only: strongly with probability adaptability*trust, weakly otherwise.
func (e *Engine) Apply(step int, sender, receiver *agent.Agent, seq []int, success bool, r agent.Rand) Result {
	res := Result{Updates: make([]SymbolUpdate, 0, len(seq))}
	trustBefore := receiver.TrustToward(sender.ID)

	for _, sym := range seq {
		sm := sender.Meaning(sym)
		rm := receiver.Meaning(sym)
		touch(sm, step, success)
		touch(rm, step, success)

		before := append([]float64(nil), rm.Vector...)
		upd := SymbolUpdate{Symbol: sym}

		if success {
			sm.Confidence = vecspace.Clamp01(sm.Confidence + e.config.ConfidenceGain)
			rm.Confidence = vecspace.Clamp01(rm.Confidence + e.config.ConfidenceGain)
			receiver.SetTrust(sender.ID, receiver.TrustToward(sender.ID)+e.config.TrustGain)

			pull := e.config.ConvergenceRate * receiver.Traits.ConvergenceSpeed
			for i := range rm.Vector {
				rm.Vector[i] += (sm.Vector[i] - rm.Vector[i]) * pull
			}
			upd.Repair = RepairNone
		} else {
			p := receiver.Traits.Adaptability * receiver.TrustToward(sender.ID)
			if r.Float64() < p {
				for i := range rm.Vector {
					rm.Vector[i] = sm.Vector[i] + agent.Uniform(r, -e.config.StrongRepairNoise, e.config.StrongRepairNoise)
				}
				rm.Confidence = e.config.RepairConfidence
				upd.Repair = RepairStrong
			} else {
				for i := range rm.Vector {
					rm.Vector[i] += agent.Uniform(r, -e.config.WeakRepairNoise, e.config.WeakRepairNoise)
				}
				upd.Repair = RepairWeak
			}
		}

		upd.Shift = shiftNorm(before, rm.Vector)
		res.Updates = append(res.Updates, upd)
	}

	res.TrustDelta = receiver.TrustToward(sender.ID) - trustBefore
	return res
}

// touch does the usage bookkeeping shared by both parties.
func touch(m *agent.SymbolMeaning, step int, success bool) {
	m.LastUsed = step
	m.UsageCount++
	outcome := 0.0
	if success {
		outcome = 1
	}
	m.SuccessRate += (outcome - m.SuccessRate) / float64(m.UsageCount)
}

// #endregion apply

// #region forget

// Forget decays every meaning idle for more than ForgetAfter steps: confidence
// shrinks by the agent's forgetting rate and each component drifts by a small
// uniform amount. Recently used meanings are left untouched.
func (e *Engine) Forget(step int, agents []*agent.Agent, r agent.Rand) ForgetMetrics {
	var m ForgetMetrics
	for _, a := range agents {
		for s := 0; s < a.SymbolCount(); s++ {
			meaning := a.Meaning(s)
			if step-meaning.LastUsed <= e.config.ForgetAfter {
				continue
			}
			meaning.Confidence = vecspace.Clamp01(meaning.Confidence * (1 - a.Traits.ForgettingRate))
			for i := range meaning.Vector {
				meaning.Vector[i] += agent.Uniform(r, -e.config.ForgetNoise, e.config.ForgetNoise)
			}
			m.Decayed++
		}
	}
	return m
}

// #endregion forget

// #region helpers

func shiftNorm(before, after []float64) float64 {
	var sum float64
	for i := range before {
		d := after[i] - before[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// #endregion helpers
