package alertout

import "testing"

func longLine(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'x'
	}
	return string(b)
}

func TestFormatMinimalTruncatesLine(t *testing.T) {
	r := AlertRecord{Line: longLine(500), Neighbors: []Neighbor{{Line: longLine(500)}}}
	got := Format(r, Minimal)
	if len(got.Line) != minimalLineCap+len("...") {
		t.Errorf("len(Line) = %d, want %d", len(got.Line), minimalLineCap+len("..."))
	}
	if len(got.Neighbors[0].Line) != minimalLineCap+len("...") {
		t.Errorf("neighbor line not truncated: len = %d", len(got.Neighbors[0].Line))
	}
}

func TestFormatFullPreservesLine(t *testing.T) {
	r := AlertRecord{Line: longLine(5000)}
	got := Format(r, Full)
	if got.Line != r.Line {
		t.Error("Full verbosity should preserve the line verbatim")
	}
}

func TestFormatStandardLeavesShortLinesUntouched(t *testing.T) {
	r := AlertRecord{Line: "short line"}
	got := Format(r, Standard)
	if got.Line != "short line" {
		t.Errorf("Line = %q, want unchanged", got.Line)
	}
}
