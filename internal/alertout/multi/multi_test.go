package multi

import (
	"context"
	"errors"
	"testing"

	"github.com/crimson-sun/novelty/internal/alertout"
)

// mockOutput records calls for test assertions.
type mockOutput struct {
	records []alertout.AlertRecord
	closed  bool
	err     error // if set, Write returns this error
}

func (m *mockOutput) Write(_ context.Context, record alertout.AlertRecord) error {
	m.records = append(m.records, record)
	return m.err
}

func (m *mockOutput) Close() error {
	m.closed = true
	return m.err
}

func testRecord(template string) alertout.AlertRecord {
	return alertout.AlertRecord{Level: "INFO", Template: template}
}

func TestFanOutDeliversToAll(t *testing.T) {
	a := &mockOutput{}
	b := &mockOutput{}
	c := &mockOutput{}
	m := New(a, b, c)

	rec := testRecord("success")
	if err := m.Write(context.Background(), rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, out := range []*mockOutput{a, b, c} {
		if len(out.records) != 1 {
			t.Errorf("output %d: got %d records, want 1", i, len(out.records))
		}
		if out.records[0].Template != "success" {
			t.Errorf("output %d: got template %q, want %q", i, out.records[0].Template, "success")
		}
	}
}

func TestErrorDoesNotPreventDelivery(t *testing.T) {
	failing := &mockOutput{err: errors.New("disk full")}
	healthy := &mockOutput{}
	m := New(failing, healthy)

	err := m.Write(context.Background(), testRecord("connection_failure"))
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if len(healthy.records) != 1 {
		t.Fatalf("healthy output got %d records, want 1", len(healthy.records))
	}
	if len(failing.records) != 1 {
		t.Fatalf("failing output got %d records, want 1", len(failing.records))
	}
}

func TestCloseCallsAllOutputs(t *testing.T) {
	a := &mockOutput{}
	b := &mockOutput{}
	m := New(a, b)

	if err := m.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.closed || !b.closed {
		t.Errorf("Close not called on all outputs: a=%v b=%v", a.closed, b.closed)
	}
}

func TestCloseCollectsErrors(t *testing.T) {
	a := &mockOutput{err: errors.New("err-a")}
	b := &mockOutput{err: errors.New("err-b")}
	m := New(a, b)

	err := m.Close()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !a.closed || !b.closed {
		t.Error("Close should be called on all outputs even when errors occur")
	}
}

func TestSingleOutputIdentity(t *testing.T) {
	inner := &mockOutput{}
	m := New(inner)

	if err := m.Write(context.Background(), testRecord("build_succeeded")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(inner.records) != 1 || inner.records[0].Template != "build_succeeded" {
		t.Error("single-output Multi did not behave identically to wrapped output")
	}
	if !inner.closed {
		t.Error("single-output Multi did not close inner output")
	}
}
