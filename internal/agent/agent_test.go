package agent

import (
	"math/rand/v2"
	"testing"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(7, 11))
}

func TestNewSamplesWithinRanges(t *testing.T) {
	a := New(0, "agent-00", 6, 3, []int{0, 1, 2, 3}, 50, testRand())

	if a.SymbolCount() != 6 {
		t.Fatalf("SymbolCount = %d, want 6", a.SymbolCount())
	}
	for i := 0; i < a.SymbolCount(); i++ {
		m := a.Meaning(i)
		if len(m.Vector) != 3 {
			t.Fatalf("symbol %d: vector dim %d, want 3", i, len(m.Vector))
		}
		for _, x := range m.Vector {
			if x < -1 || x > 1 {
				t.Errorf("symbol %d: component %f out of [-1,1]", i, x)
			}
		}
		if m.Confidence < 0.3 || m.Confidence >= 0.7 {
			t.Errorf("symbol %d: confidence %f out of [0.3,0.7)", i, m.Confidence)
		}
		if m.UsageCount != 0 || m.LastUsed != 0 {
			t.Errorf("symbol %d: expected zero usage bookkeeping", i)
		}
	}

	tr := a.Traits
	if tr.Adaptability < 0.2 || tr.Adaptability >= 0.8 {
		t.Errorf("adaptability %f out of range", tr.Adaptability)
	}
	if tr.ConvergenceSpeed < 0.1 || tr.ConvergenceSpeed >= 0.4 {
		t.Errorf("convergence speed %f out of range", tr.ConvergenceSpeed)
	}
	if tr.ForgettingRate < 0.001 || tr.ForgettingRate >= 0.005 {
		t.Errorf("forgetting rate %f out of range", tr.ForgettingRate)
	}
}

func TestTrustIsNotReflexive(t *testing.T) {
	a := New(1, "agent-01", 2, 3, []int{0, 1, 2}, 50, testRand())
	trust := a.Trust()
	if len(trust) != 2 {
		t.Fatalf("trust entries = %d, want 2", len(trust))
	}
	if _, ok := trust[1]; ok {
		t.Error("agent holds a self-trust entry")
	}
	for peer, v := range trust {
		if v != 0.5 {
			t.Errorf("trust toward %d = %f, want 0.5", peer, v)
		}
	}
	a.SetTrust(1, 0.9)
	if _, ok := a.Trust()[1]; ok {
		t.Error("SetTrust created a self-trust entry")
	}
}

func TestSetTrustClamps(t *testing.T) {
	a := New(0, "agent-00", 1, 3, []int{0, 1}, 50, testRand())
	a.SetTrust(1, 1.7)
	if got := a.TrustToward(1); got != 1 {
		t.Errorf("TrustToward = %f, want 1", got)
	}
	a.SetTrust(1, -0.2)
	if got := a.TrustToward(1); got != 0 {
		t.Errorf("TrustToward = %f, want 0", got)
	}
}

func TestMemoryBounded(t *testing.T) {
	a := New(0, "agent-00", 1, 3, []int{0, 1}, 50, testRand())
	for i := 0; i < 75; i++ {
		a.Remember(MemoryEntry{Step: i, Action: ActionSent, Partner: 1})
	}
	mem := a.Memory()
	if len(mem) != 50 {
		t.Fatalf("memory length = %d, want 50", len(mem))
	}
	if mem[0].Step != 25 || mem[49].Step != 74 {
		t.Errorf("expected oldest entries evicted, got first=%d last=%d", mem[0].Step, mem[49].Step)
	}
}

func TestResetPreservesIdentity(t *testing.T) {
	r := testRand()
	a := New(2, "agent-02", 3, 3, []int{0, 1, 2}, 50, r)
	before := a.Meanings()
	a.SetTrust(0, 0.9)
	a.Meaning(0).UsageCount = 7
	a.Remember(MemoryEntry{Step: 1})

	a.Reset(r)

	if a.ID != 2 || a.Name != "agent-02" {
		t.Fatalf("identity changed: %d %s", a.ID, a.Name)
	}
	if a.MemoryLen() != 0 {
		t.Error("memory not cleared")
	}
	if a.TrustToward(0) != 0.5 {
		t.Errorf("trust not reset: %f", a.TrustToward(0))
	}
	if a.Meaning(0).UsageCount != 0 {
		t.Error("usage not reset")
	}
	if a.Meaning(0).Vector[0] == before[0].Vector[0] {
		t.Error("expected resampled vector")
	}
}

func TestMeaningsAreCopies(t *testing.T) {
	a := New(0, "agent-00", 1, 3, []int{0}, 50, testRand())
	ms := a.Meanings()
	ms[0].Vector[0] = 42
	if a.Meaning(0).Vector[0] == 42 {
		t.Error("Meanings() leaked internal vector")
	}
}

func TestPopulation(t *testing.T) {
	vocab := []string{"α", "β", "γ"}
	p := NewPopulation(4, vocab, 3, 50, testRand())
	if p.Size() != 4 {
		t.Fatalf("Size = %d, want 4", p.Size())
	}
	for i, a := range p.Agents {
		if a.ID != i {
			t.Errorf("agent %d has id %d", i, a.ID)
		}
		if a.SymbolCount() != len(vocab) {
			t.Errorf("agent %d: %d meanings, want %d", i, a.SymbolCount(), len(vocab))
		}
		if len(a.Trust()) != 3 {
			t.Errorf("agent %d: %d trust entries, want 3", i, len(a.Trust()))
		}
	}
	if idx, ok := p.SymbolIndex("γ"); !ok || idx != 2 {
		t.Errorf("SymbolIndex(γ) = %d,%v", idx, ok)
	}
	if got := p.Symbols([]int{2, 0}); got[0] != "γ" || got[1] != "α" {
		t.Errorf("Symbols = %v", got)
	}

	vocab[0] = "changed"
	if p.Vocabulary[0] != "α" {
		t.Error("population aliases caller vocabulary")
	}
}
