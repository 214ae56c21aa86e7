package metrics

import (
	"sort"
	"strings"
)

// PatternSeparator joins the symbols of a sequence into a pattern key.
const PatternSeparator = "-"

// SyntaxPattern is a multi-symbol sequence and how often it occurred.
type SyntaxPattern struct {
	Key      string   `json:"key"`
	Sequence []string `json:"sequence"`
	Count    int      `json:"count"`
}

// PatternKey builds the order-preserving key for seq.
func PatternKey(seq []string) string {
	return strings.Join(seq, PatternSeparator)
}

// PatternTable accumulates sequence frequencies for a run. Counts only grow.
type PatternTable struct {
	counts map[string]*SyntaxPattern
}

// NewPatternTable returns an empty table.
func NewPatternTable() *PatternTable {
	return &PatternTable{counts: make(map[string]*SyntaxPattern)}
}

// Observe counts seq. Sequences shorter than two symbols are ignored.
func (t *PatternTable) Observe(seq []string) bool {
	if len(seq) < 2 {
		return false
	}
	key := PatternKey(seq)
	p, ok := t.counts[key]
	if !ok {
		p = &SyntaxPattern{Key: key, Sequence: append([]string(nil), seq...)}
		t.counts[key] = p
	}
	p.Count++
	return true
}

// Count returns the occurrences of seq.
func (t *PatternTable) Count(seq []string) int {
	if p, ok := t.counts[PatternKey(seq)]; ok {
		return p.Count
	}
	return 0
}

// Len returns the number of distinct patterns.
func (t *PatternTable) Len() int { return len(t.counts) }

// Reset empties the table.
func (t *PatternTable) Reset() {
	t.counts = make(map[string]*SyntaxPattern)
}

// Patterns returns copies of every pattern, most frequent first, ties by key.
func (t *PatternTable) Patterns() []SyntaxPattern {
	out := make([]SyntaxPattern, 0, len(t.counts))
	for _, p := range t.counts {
		out = append(out, SyntaxPattern{Key: p.Key, Sequence: append([]string(nil), p.Sequence...), Count: p.Count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}
