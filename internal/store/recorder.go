package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/config"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/metrics"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/sim"
)

// #region record-step

// RecordStep writes one published step in a single transaction: the metrics
// row plus its communication and context shift when present.
func (s *Store) RecordStep(runID string, rep sim.StepReport) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO steps (run_id, step, drift, alignment, decayed, degenerate) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, rep.Step, rep.Drift.Drift, rep.Alignment.Alignment, rep.Decayed, rep.Degenerate,
	)
	if err != nil {
		return fmt.Errorf("insert step %d: %w", rep.Step, err)
	}

	if c := rep.Communication; c != nil {
		seqJSON, err := json.Marshal(c.Sequence)
		if err != nil {
			return fmt.Errorf("marshal sequence: %w", err)
		}
		_, err = tx.Exec(
			`INSERT INTO communications (run_id, step, sender, receiver, sequence, success, avg_distance, trust_before)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, c.Step, c.Sender, c.Receiver, string(seqJSON), c.Success, c.AvgDistance, c.TrustBefore,
		)
		if err != nil {
			return fmt.Errorf("insert communication: %w", err)
		}
	}

	if cs := rep.Shift; cs != nil {
		var symbol any
		if cs.Symbol != "" {
			symbol = cs.Symbol
		}
		_, err = tx.Exec(
			`INSERT INTO context_shifts (run_id, step, kind, symbol, created_at) VALUES (?, ?, ?, ?, ?)`,
			runID, cs.Step, string(cs.Kind), symbol, cs.CreatedAt.UTC().Format(timeLayout),
		)
		if err != nil {
			return fmt.Errorf("insert context shift: %w", err)
		}
	}

	return tx.Commit()
}

// #endregion record-step

// #region finish-run

// FinishRun stores the final pattern table and meaning vectors from snap and
// marks the run finished with its analysis summary.
func (s *Store) FinishRun(runID string, snap sim.Snapshot) error {
	summary, err := json.Marshal(snap.Analyze())
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, p := range snap.Patterns {
		seqJSON, err := json.Marshal(p.Sequence)
		if err != nil {
			return fmt.Errorf("marshal pattern: %w", err)
		}
		_, err = tx.Exec(
			`INSERT INTO syntax_patterns (run_id, pattern_key, sequence, count) VALUES (?, ?, ?, ?)
			 ON CONFLICT(run_id, pattern_key) DO UPDATE SET count = excluded.count`,
			runID, p.Key, string(seqJSON), p.Count,
		)
		if err != nil {
			return fmt.Errorf("upsert pattern %s: %w", p.Key, err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM agent_meanings WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("clear meanings: %w", err)
	}
	for _, a := range snap.Agents {
		for i, m := range a.Meanings {
			_, err = tx.Exec(
				`INSERT INTO agent_meanings (run_id, agent_id, agent_name, symbol_index, symbol, vector, confidence, usage_count, last_used, success_rate)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				runID, a.ID, a.Name, i, snap.Vocabulary[i], encodeVector(m.Vector),
				m.Confidence, m.UsageCount, m.LastUsed, m.SuccessRate,
			)
			if err != nil {
				return fmt.Errorf("insert meaning: %w", err)
			}
		}
	}

	res, err := tx.Exec(
		`UPDATE runs SET finished_at = ?, final_step = ?, summary_json = ? WHERE run_id = ?`,
		time.Now().UTC().Format(timeLayout), snap.Step, string(summary), runID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return tx.Commit()
}

// closeRun marks a run finished at its last recorded step without a summary.
// It is used for runs cut short by an engine reset.
func (s *Store) closeRun(runID string) error {
	_, err := s.db.Exec(
		`UPDATE runs SET finished_at = ?, final_step = (SELECT COALESCE(MAX(step), 0) FROM steps WHERE run_id = ?)
		 WHERE run_id = ? AND finished_at IS NULL`,
		time.Now().UTC().Format(timeLayout), runID, runID,
	)
	if err != nil {
		return fmt.Errorf("close run %s: %w", runID, err)
	}
	return nil
}

// #endregion finish-run

// #region recorder

// Recorder persists every step an engine publishes. It implements
// sim.ResetObserver: after a reset it continues into a new child run.
type Recorder struct {
	store *Store
	cfg   config.Config
	runID string
}

// NewRecorder creates a run for cfg and returns a recorder writing to it.
func NewRecorder(s *Store, cfg config.Config) (*Recorder, error) {
	id, err := s.CreateRun(cfg, "")
	if err != nil {
		return nil, err
	}
	return &Recorder{store: s, cfg: cfg, runID: id}, nil
}

// RunID returns the run currently being written.
func (r *Recorder) RunID() string { return r.runID }

// OnStep implements sim.Observer.
func (r *Recorder) OnStep(rep sim.StepReport) error {
	return r.store.RecordStep(r.runID, rep)
}

// OnReset implements sim.ResetObserver.
func (r *Recorder) OnReset() error {
	if err := r.store.closeRun(r.runID); err != nil {
		return err
	}
	id, err := r.store.CreateRun(r.cfg, r.runID)
	if err != nil {
		return fmt.Errorf("continue run after reset: %w", err)
	}
	r.runID = id
	return nil
}

// Finish closes out the current run with the engine's final state.
func (r *Recorder) Finish(snap sim.Snapshot) error {
	return r.store.FinishRun(r.runID, snap)
}

// #endregion recorder

// #region reads

// Steps returns the recorded step rows in step order.
func (s *Store) Steps(runID string) ([]StepRecord, error) {
	rows, err := s.db.Query(
		`SELECT step, drift, alignment, decayed, degenerate FROM steps WHERE run_id = ? ORDER BY step`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	var out []StepRecord
	for rows.Next() {
		var rec StepRecord
		if err := rows.Scan(&rec.Step, &rec.Drift, &rec.Alignment, &rec.Decayed, &rec.Degenerate); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DriftHistory returns the full drift series of a run.
func (s *Store) DriftHistory(runID string) ([]metrics.DriftSample, error) {
	steps, err := s.Steps(runID)
	if err != nil {
		return nil, err
	}
	out := make([]metrics.DriftSample, len(steps))
	for i, st := range steps {
		out[i] = metrics.DriftSample{Step: st.Step, Drift: st.Drift}
	}
	return out, nil
}

// #endregion reads
