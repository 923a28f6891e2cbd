package neighbor

import "testing"

func TestQueryRanksBySimilarityDescending(t *testing.T) {
	b := New(10)
	b.Add("exact match line", []string{"foo", "bar", "baz"})
	b.Add("partial overlap line", []string{"foo", "qux"})
	b.Add("unrelated line", []string{"zzz", "yyy"})

	got := b.Query([]string{"foo", "bar", "baz"}, 3)
	if len(got) == 0 {
		t.Fatal("expected at least one neighbor")
	}
	if got[0].Line != "exact match line" {
		t.Errorf("top neighbor = %q, want exact match", got[0].Line)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Similarity > got[i-1].Similarity {
			t.Errorf("results not sorted descending by similarity: %+v", got)
		}
	}
}

func TestQueryExcludesBelowSimilarityFloor(t *testing.T) {
	b := New(10)
	b.Add("totally different", []string{"zzz", "yyy", "xxx"})

	got := b.Query([]string{"foo", "bar"}, 3)
	if len(got) != 0 {
		t.Errorf("expected no neighbors above the similarity floor, got %+v", got)
	}
}

func TestQueryRespectsCapacityRing(t *testing.T) {
	b := New(2)
	b.Add("first", []string{"a"})
	b.Add("second", []string{"a"})
	b.Add("third", []string{"a"})

	if b.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", b.Len())
	}
	got := b.Query([]string{"a"}, 10)
	for _, n := range got {
		if n.Line == "first" {
			t.Error("expected the oldest line to have been evicted from the ring")
		}
	}
}

func TestQueryTiesBrokenByRecency(t *testing.T) {
	b := New(10)
	b.Add("older", []string{"a", "b"})
	b.Add("newer", []string{"a", "b"})

	got := b.Query([]string{"a", "b"}, 2)
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	if got[0].Line != "newer" {
		t.Errorf("got[0].Line = %q, want %q (most recent first on a similarity tie)", got[0].Line, "newer")
	}
}

func TestQueryLimitsToK(t *testing.T) {
	b := New(10)
	for i := 0; i < 5; i++ {
		b.Add("line", []string{"a", "b", "c"})
	}
	got := b.Query([]string{"a", "b", "c"}, 2)
	if len(got) != 2 {
		t.Errorf("len(got) = %d, want 2", len(got))
	}
}
