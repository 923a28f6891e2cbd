package tokenize

import (
	"reflect"
	"testing"

	"github.com/crimson-sun/novelty/internal/model"
)

func TestTokenizeUnigrams(t *testing.T) {
	tok := New(false, 400)
	r := tok.Tokenize("<ts> user=<num> code=<num>")
	want := []string{"ts", "user", "num", "code", "num"}
	if !reflect.DeepEqual(r.Tokens, want) {
		t.Errorf("Tokens = %v, want %v", r.Tokens, want)
	}
}

func TestTokenizeBigramsAreAdditive(t *testing.T) {
	tok := New(true, 400)
	r := tok.Tokenize("alpha beta gamma")
	wantUnigrams := []string{"alpha", "beta", "gamma"}
	if len(r.Tokens) != len(wantUnigrams)+2 {
		t.Fatalf("Tokens = %v, want %d unigrams + 2 bigrams", r.Tokens, len(wantUnigrams))
	}
	for i, u := range wantUnigrams {
		if r.Tokens[i] != u {
			t.Errorf("Tokens[%d] = %q, want %q", i, r.Tokens[i], u)
		}
	}
	if r.Tokens[3] != "alpha"+bigramDelim+"beta" {
		t.Errorf("Tokens[3] = %q, want bigram", r.Tokens[3])
	}
	if r.Tokens[4] != "beta"+bigramDelim+"gamma" {
		t.Errorf("Tokens[4] = %q, want bigram", r.Tokens[4])
	}
}

func TestTokenizeLowercasesAndStripsAccents(t *testing.T) {
	tok := New(false, 400)
	r := tok.Tokenize("Café ERROR")
	want := []string{"cafe", "error"}
	if !reflect.DeepEqual(r.Tokens, want) {
		t.Errorf("Tokens = %v, want %v", r.Tokens, want)
	}
}

func TestTokenizeEnforcesPerLineCap(t *testing.T) {
	tok := New(false, 3)
	r := tok.Tokenize("one two three four five")
	if len(r.Tokens) != 3 {
		t.Fatalf("len(Tokens) = %d, want 3", len(r.Tokens))
	}
	if !r.Truncated {
		t.Error("expected Truncated = true")
	}
}

func TestTokenizeExtractsSeverity(t *testing.T) {
	cases := []struct {
		canonical string
		want      model.Level
	}{
		{"ERROR payment declined code=<num>", model.ErrorLevel},
		{"critical: disk usage at <num> percent", model.Fatal},
		{"a b c d e f WARN this is past the window", model.Unknown},
		{"WARN connection refused", model.Warn},
		{"nothing special here", model.Unknown},
	}
	tok := New(false, 400)
	for _, c := range cases {
		r := tok.Tokenize(c.canonical)
		if r.Level != c.want {
			t.Errorf("Tokenize(%q).Level = %v, want %v", c.canonical, r.Level, c.want)
		}
	}
}

func TestTokenizeDropsEmptyPieces(t *testing.T) {
	tok := New(false, 400)
	r := tok.Tokenize("<ts>   user==<num>")
	want := []string{"ts", "user", "num"}
	if !reflect.DeepEqual(r.Tokens, want) {
		t.Errorf("Tokens = %v, want %v", r.Tokens, want)
	}
}
