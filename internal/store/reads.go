package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/agent"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/metrics"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/round"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/shift"
)

// #region communications

// Communications returns the recorded exchanges of a run in step order.
// limit <= 0 returns all of them; otherwise the last limit exchanges.
func (s *Store) Communications(runID string, limit int) ([]round.Communication, error) {
	query := `SELECT step, sender, receiver, sequence, success, avg_distance, trust_before
		FROM communications WHERE run_id = ? ORDER BY step`
	args := []any{runID}
	if limit > 0 {
		query = `SELECT * FROM (SELECT step, sender, receiver, sequence, success, avg_distance, trust_before
			FROM communications WHERE run_id = ? ORDER BY step DESC LIMIT ?) ORDER BY step`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query communications: %w", err)
	}
	defer rows.Close()

	var out []round.Communication
	for rows.Next() {
		var c round.Communication
		var seqJSON string
		if err := rows.Scan(&c.Step, &c.Sender, &c.Receiver, &seqJSON, &c.Success, &c.AvgDistance, &c.TrustBefore); err != nil {
			return nil, fmt.Errorf("scan communication: %w", err)
		}
		if err := json.Unmarshal([]byte(seqJSON), &c.Sequence); err != nil {
			return nil, fmt.Errorf("unmarshal sequence: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// #endregion communications

// #region context-shifts

// ContextShifts returns every shift of a run in step order.
func (s *Store) ContextShifts(runID string) ([]shift.ContextShift, error) {
	rows, err := s.db.Query(
		`SELECT step, kind, symbol, created_at FROM context_shifts WHERE run_id = ? ORDER BY step`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query context shifts: %w", err)
	}
	defer rows.Close()

	var out []shift.ContextShift
	for rows.Next() {
		var cs shift.ContextShift
		var kind, createdStr string
		var symbol sql.NullString
		if err := rows.Scan(&cs.Step, &kind, &symbol, &createdStr); err != nil {
			return nil, fmt.Errorf("scan context shift: %w", err)
		}
		cs.Kind = shift.Kind(kind)
		cs.Symbol = symbol.String
		at, err := time.Parse(timeLayout, createdStr)
		if err != nil {
			return nil, fmt.Errorf("parse context shift time: %w", err)
		}
		cs.CreatedAt = at
		out = append(out, cs)
	}
	return out, rows.Err()
}

// #endregion context-shifts

// #region patterns

// Patterns returns the final syntax pattern table, most frequent first.
func (s *Store) Patterns(runID string) ([]metrics.SyntaxPattern, error) {
	rows, err := s.db.Query(
		`SELECT pattern_key, sequence, count FROM syntax_patterns WHERE run_id = ?
		 ORDER BY count DESC, pattern_key`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query patterns: %w", err)
	}
	defer rows.Close()

	var out []metrics.SyntaxPattern
	for rows.Next() {
		var p metrics.SyntaxPattern
		var seqJSON string
		if err := rows.Scan(&p.Key, &seqJSON, &p.Count); err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		if err := json.Unmarshal([]byte(seqJSON), &p.Sequence); err != nil {
			return nil, fmt.Errorf("unmarshal pattern: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// #endregion patterns

// #region agent-meanings

// AgentMeanings returns the final meaning table ordered by agent then symbol.
func (s *Store) AgentMeanings(runID string) ([]AgentMeaning, error) {
	rows, err := s.db.Query(
		`SELECT agent_id, agent_name, symbol_index, symbol, vector, confidence, usage_count, last_used, success_rate
		 FROM agent_meanings WHERE run_id = ? ORDER BY agent_id, symbol_index`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query meanings: %w", err)
	}
	defer rows.Close()

	var out []AgentMeaning
	for rows.Next() {
		var am AgentMeaning
		var blob []byte
		var m agent.SymbolMeaning
		if err := rows.Scan(&am.AgentID, &am.AgentName, &am.SymbolIndex, &am.Symbol, &blob,
			&m.Confidence, &m.UsageCount, &m.LastUsed, &m.SuccessRate); err != nil {
			return nil, fmt.Errorf("scan meaning: %w", err)
		}
		m.Vector = decodeVector(blob)
		am.Meaning = m
		out = append(out, am)
	}
	return out, rows.Err()
}

// #endregion agent-meanings
