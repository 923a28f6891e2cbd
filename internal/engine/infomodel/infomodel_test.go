package infomodel

import (
	"math"
	"testing"
)

func TestObserveIncreasesMass(t *testing.T) {
	m := New(0.9999, 1.0, 100, 100)
	m.Tick()
	m.ObserveTokens([]string{"a", "b"})
	m.ObserveTemplate("tpl")

	if got := m.TotalTokenMass(); math.Abs(got-2) > 1e-9 {
		t.Errorf("TotalTokenMass() = %v, want 2", got)
	}
	if got := m.TotalTemplateMass(); math.Abs(got-1) > 1e-9 {
		t.Errorf("TotalTemplateMass() = %v, want 1", got)
	}
}

func TestUnseenTokenUsesSmoothedProbability(t *testing.T) {
	m := New(0.9999, 1.0, 100, 100)
	// With nothing observed the smoothed formula yields p = k/k = 1, so
	// observe one other token first: p(unseen) = 1 / (1 + 1*(1+1)) = 1/3.
	m.Tick()
	m.ObserveTokens([]string{"seen"})
	bits, prob := m.TokenBits("never-seen")
	if prob <= 0 || prob >= 1 {
		t.Errorf("prob = %v, want in (0,1)", prob)
	}
	if math.IsInf(bits, 0) || bits <= 0 {
		t.Errorf("bits = %v, want finite positive", bits)
	}
}

func TestFrequentTokenHasLowerBitsThanRareToken(t *testing.T) {
	m := New(0.9999, 1.0, 1000, 1000)
	for i := 0; i < 1000; i++ {
		m.Tick()
		m.ObserveTokens([]string{"common"})
		m.ObserveTemplate("tpl")
	}

	commonBits, _ := m.TokenBits("common")
	rareBits, _ := m.TokenBits("rare")
	if commonBits >= rareBits {
		t.Errorf("commonBits = %v, want < rareBits = %v", commonBits, rareBits)
	}
}

func TestDecayScenario(t *testing.T) {
	m := New(0.5, 1.0, 1000, 1000)
	m.Tick()
	m.ObserveTokens([]string{"x"})

	for i := 0; i < 10; i++ {
		m.Tick()
		m.ObserveTokens([]string{"unrelated"})
	}

	got := m.TokenEffectiveCount("x")
	want := math.Pow(2, -10)
	if math.Abs(got-want)/want > 0.05 {
		t.Errorf("effective_count(x) = %v, want approx %v", got, want)
	}
}

func TestLRUEvictionKeepsMostRecent(t *testing.T) {
	m := New(1.0, 1.0, 3, 100)
	for _, line := range [][]string{{"a"}, {"b"}, {"c"}, {"d"}} {
		m.Tick()
		m.ObserveTokens(line)
	}

	if m.TokenVocabSize() != 3 {
		t.Fatalf("TokenVocabSize() = %d, want 3", m.TokenVocabSize())
	}
	for _, tok := range []string{"b", "c", "d"} {
		if m.TokenEffectiveCount(tok) == 0 {
			t.Errorf("expected %q to survive eviction", tok)
		}
	}
	if m.TokenEffectiveCount("a") != 0 {
		t.Error("expected 'a' to be evicted")
	}
}

func TestCurrentLineTokensNeverEvicted(t *testing.T) {
	// A single line with more distinct tokens than max_tokens has nothing
	// evictable: every candidate is protected. The cap is restored on a
	// later line once some of these tokens are no longer "current".
	m := New(1.0, 1.0, 2, 100)
	m.Tick()
	m.ObserveTokens([]string{"a", "b", "c"})

	if m.TokenVocabSize() != 3 {
		t.Fatalf("TokenVocabSize() = %d, want 3 (nothing unprotected to evict)", m.TokenVocabSize())
	}
	for _, tok := range []string{"a", "b", "c"} {
		if m.TokenEffectiveCount(tok) == 0 {
			t.Errorf("token %q from the just-inserted line should not have been evicted mid-update", tok)
		}
	}

	m.Tick()
	m.ObserveTokens([]string{"d"})
	if m.TokenVocabSize() != 2 {
		t.Errorf("TokenVocabSize() = %d, want 2 once eviction has unprotected candidates again", m.TokenVocabSize())
	}
}

func TestExportRestoreRoundTrip(t *testing.T) {
	m := New(0.9, 1.0, 100, 100)
	for i := 0; i < 5; i++ {
		m.Tick()
		m.ObserveTokens([]string{"a", "b"})
		m.ObserveTemplate("tpl")
	}

	state := m.Export()

	m2 := New(0.9, 1.0, 100, 100)
	m2.Restore(state)

	for _, tok := range []string{"a", "b"} {
		got, want := m2.TokenEffectiveCount(tok), m.TokenEffectiveCount(tok)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("restored effective_count(%q) = %v, want %v", tok, got, want)
		}
	}

	b1, _ := m.TokenBits("a")
	b2, _ := m2.TokenBits("a")
	if math.Abs(b1-b2) > 1e-9 {
		t.Errorf("restored TokenBits(a) = %v, want %v", b2, b1)
	}
}

func TestQueryDoesNotMutateState(t *testing.T) {
	m := New(0.9999, 1.0, 100, 100)
	m.Tick()
	m.ObserveTokens([]string{"a"})

	before := m.TotalTokenMass()
	m.TokenBits("a")
	m.TokenBits("never-seen")
	after := m.TotalTokenMass()

	if before != after {
		t.Errorf("TotalTokenMass changed across read-only queries: %v -> %v", before, after)
	}
}
