package engine

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/crimson-sun/novelty/internal/model"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := New(model.DefaultConfig())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return eng
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Decay = 0
	if _, err := New(cfg); err == nil {
		t.Fatal("expected an error for decay = 0")
	}
}

func TestScoreDoesNotMutate(t *testing.T) {
	eng := newTestEngine(t)
	if _, err := eng.Score("hello world"); err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if eng.SeenLines() != 0 {
		t.Errorf("SeenLines() = %d, want 0 after Score alone", eng.SeenLines())
	}
}

func TestScoreAndObserveMutates(t *testing.T) {
	eng := newTestEngine(t)
	if _, err := eng.ScoreAndObserve("hello world"); err != nil {
		t.Fatalf("ScoreAndObserve() error: %v", err)
	}
	if eng.SeenLines() != 1 {
		t.Errorf("SeenLines() = %d, want 1", eng.SeenLines())
	}
}

func TestScenarioTimestampCanonicalization(t *testing.T) {
	eng := newTestEngine(t)
	r, err := eng.Score("2025-10-01T12:00:00Z user=9922 code=402")
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if r.Template != "<ts> user=<num> code=<num>" {
		t.Errorf("Template = %q, want %q", r.Template, "<ts> user=<num> code=<num>")
	}
}

func TestScenarioSeverityExtraction(t *testing.T) {
	eng := newTestEngine(t)
	r, err := eng.Score("ERROR payment declined code=402")
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if r.Level != model.ErrorLevel {
		t.Errorf("Level = %v, want ERROR", r.Level)
	}
	if r.LevelBonus != 1.0 {
		t.Errorf("LevelBonus = %v, want 1.0", r.LevelBonus)
	}
}

func TestScenarioRareTokenNovelty(t *testing.T) {
	eng := newTestEngine(t)
	for i := 0; i < 10000; i++ {
		if _, err := eng.ScoreAndObserve("info ok ping"); err != nil {
			t.Fatalf("ScoreAndObserve() error: %v", err)
		}
	}
	r, err := eng.Score("ERROR declined")
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if r.Novelty <= 0.9 {
		t.Errorf("Novelty = %v, want > 0.9", r.Novelty)
	}
}

func TestNoveltyAlwaysInRange(t *testing.T) {
	eng := newTestEngine(t)
	lines := []string{
		"hello world", "ERROR something broke", "2025-01-01T00:00:00Z x=1",
		"", "FATAL out of memory at /var/run/app", "another line entirely",
	}
	for _, line := range lines {
		r, err := eng.ScoreAndObserve(line)
		if err != nil {
			t.Fatalf("ScoreAndObserve(%q) error: %v", line, err)
		}
		if r.Novelty < 0 || r.Novelty >= 1 {
			t.Errorf("Novelty = %v for %q, want in [0,1)", r.Novelty, line)
		}
	}
}

func TestInvalidUTF8IsRejected(t *testing.T) {
	eng := newTestEngine(t)
	bad := string([]byte{0xff, 0xfe, 0xfd})
	_, err := eng.Score(bad)
	if err == nil {
		t.Fatal("expected an error for invalid UTF-8")
	}
	me, ok := err.(*model.Error)
	if !ok {
		t.Fatalf("error is not *model.Error: %v", err)
	}
	if me.Kind != model.InvalidInput {
		t.Errorf("Kind = %v, want INVALID_INPUT", me.Kind)
	}
}

func TestAlertEligibleRequiresBurnIn(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.BurnIn = 5
	eng, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := eng.RegisterQuantile(0.99); err != nil {
		t.Fatalf("RegisterQuantile() error: %v", err)
	}

	for i := 0; i < 4; i++ {
		eng.ScoreAndObserve("line")
		if eng.AlertEligible() {
			t.Errorf("AlertEligible() = true before burn-in elapsed (i=%d)", i)
		}
	}
	for i := 0; i < 10; i++ {
		eng.ScoreAndObserve("line")
	}
	if !eng.AlertEligible() {
		t.Error("AlertEligible() = false after burn-in and 10+ samples")
	}
}

func TestQuantileRegistrationAndThreshold(t *testing.T) {
	eng := newTestEngine(t)
	if err := eng.RegisterQuantile(0.5); err != nil {
		t.Fatalf("RegisterQuantile(0.5) error: %v", err)
	}
	if err := eng.RegisterQuantile(0.99); err != nil {
		t.Fatalf("RegisterQuantile(0.99) error: %v", err)
	}
	for i := 0; i < 50; i++ {
		eng.ScoreAndObserve("line number and text")
	}
	if _, err := eng.Quantile(0.5); err != nil {
		t.Errorf("Quantile(0.5) error: %v", err)
	}
	if _, err := eng.Quantile(0.7); err == nil {
		t.Error("expected CONFIG_ERROR for an unregistered quantile")
	}
	_, q, ok := eng.Threshold()
	if !ok || q != 0.99 {
		t.Errorf("Threshold() quantile = %v, ok = %v, want 0.99/true", q, ok)
	}
}

func TestNeighborsReturnsSimilarRecentLines(t *testing.T) {
	eng := newTestEngine(t)
	if _, err := eng.ScoreAndObserve("connection refused from host db-1"); err != nil {
		t.Fatalf("ScoreAndObserve() error: %v", err)
	}
	if _, err := eng.ScoreAndObserve("totally unrelated text about weather"); err != nil {
		t.Fatalf("ScoreAndObserve() error: %v", err)
	}

	res, err := eng.Score("connection refused from host db-2")
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	neighbors := eng.Neighbors(res.Tokens, 3)
	if len(neighbors) == 0 {
		t.Fatal("expected at least one neighbor")
	}
	if neighbors[0].Line != "connection refused from host db-1" {
		t.Errorf("top neighbor = %q, want the similar connection-refused line", neighbors[0].Line)
	}
}

func TestSnapshotRoundTripPreservesScores(t *testing.T) {
	eng := newTestEngine(t)
	lines := []string{
		"hello world", "ERROR something broke", "2025-01-01T00:00:00Z x=1",
		"FATAL out of memory", "another line entirely", "hello world again",
	}
	for _, line := range lines {
		if _, err := eng.ScoreAndObserve(line); err != nil {
			t.Fatalf("ScoreAndObserve(%q) error: %v", line, err)
		}
	}

	path := filepath.Join(t.TempDir(), "snap.json")
	if err := eng.SnapshotSave(path); err != nil {
		t.Fatalf("SnapshotSave() error: %v", err)
	}

	restored, err := New(model.DefaultConfig())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := restored.SnapshotLoad(path); err != nil {
		t.Fatalf("SnapshotLoad() error: %v", err)
	}

	probe := "hello world once more"
	want, err := eng.Score(probe)
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	got, err := restored.Score(probe)
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if math.Abs(want.Novelty-got.Novelty) > 1e-9 {
		t.Errorf("Novelty after restore = %v, want %v", got.Novelty, want.Novelty)
	}
	if want.Template != got.Template {
		t.Errorf("Template after restore = %q, want %q", got.Template, want.Template)
	}
}

func TestGuardrailTruncationCounters(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.MaxLineLength = 5
	eng, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := eng.Observe("this line is much longer than five runes"); err != nil {
		t.Fatalf("Observe() error: %v", err)
	}
	if eng.TruncatedLines() != 1 {
		t.Errorf("TruncatedLines() = %d, want 1", eng.TruncatedLines())
	}
}
