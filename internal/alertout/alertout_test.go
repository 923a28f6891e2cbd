package alertout

import (
	"testing"
	"time"

	"github.com/crimson-sun/novelty/internal/engine/scorer"
	"github.com/crimson-sun/novelty/internal/model"
)

func TestNewBuildsRecordFromScoreResult(t *testing.T) {
	result := scorer.Result{
		Novelty:  0.95,
		RawScore: 3.2,
		Template: "<ts> user=<num>",
		Tokens:   []string{"user", "login"},
		Level:    model.ErrorLevel,
		TokenContributors: []scorer.Contributor{
			{Token: "login", Bits: 4.1, Probability: 0.02, EffectiveCount: 3},
		},
	}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	r := New(result, "raw line text", 0.8, 0.99, nil, nil, now)

	if r.ID == "" {
		t.Error("ID should be populated")
	}
	if r.Level != "ERROR" {
		t.Errorf("Level = %q, want ERROR", r.Level)
	}
	if r.Line != "raw line text" {
		t.Errorf("Line = %q, want original raw line", r.Line)
	}
	if len(r.TokenContributors) != 1 || r.TokenContributors[0].Token != "login" {
		t.Errorf("TokenContributors = %+v, want a single login entry", r.TokenContributors)
	}
	if r.Timestamp != now {
		t.Errorf("Timestamp = %v, want %v", r.Timestamp, now)
	}
}

func TestDedupKeyGroupsByLevelAndTemplate(t *testing.T) {
	a := AlertRecord{Level: "ERROR", Template: "x"}
	b := AlertRecord{Level: "ERROR", Template: "x"}
	c := AlertRecord{Level: "WARN", Template: "x"}

	if a.DedupKey() != b.DedupKey() {
		t.Error("identical level+template should share a dedup key")
	}
	if a.DedupKey() == c.DedupKey() {
		t.Error("different level should produce a different dedup key")
	}
}
