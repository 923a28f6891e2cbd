package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveEmitsOnlyForwardDeltas(t *testing.T) {
	r := newDeltaRecorder()

	r.observe(Snapshot{SeenLines: 5, TokenVocabSize: 2, TemplateVocabSize: 1})
	if r.lastSeenLines != 5 {
		t.Fatalf("lastSeenLines = %d, want 5", r.lastSeenLines)
	}

	r.observe(Snapshot{SeenLines: 5, TokenVocabSize: 2, TemplateVocabSize: 1})
	if r.lastSeenLines != 5 {
		t.Fatalf("lastSeenLines after no-op observe = %d, want 5", r.lastSeenLines)
	}
}

func TestVocabularySizeGaugeReflectsLatestObserve(t *testing.T) {
	Observe(Snapshot{TokenVocabSize: 7, TemplateVocabSize: 3})

	if got := testutil.ToFloat64(VocabularySize.WithLabelValues("token")); got != 7 {
		t.Errorf("token vocabulary gauge = %v, want 7", got)
	}
	if got := testutil.ToFloat64(VocabularySize.WithLabelValues("template")); got != 3 {
		t.Errorf("template vocabulary gauge = %v, want 3", got)
	}
}
