package alertout

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestDeduplicatorAdmitsFirstAndSuppressesRepeats(t *testing.T) {
	mock := clock.NewMock()
	d := NewDeduplicator(DedupConfig{Window: 5 * time.Second}, mock)

	r := AlertRecord{Level: "ERROR", Template: "conn refused"}

	_, admitted := d.Admit(r)
	if !admitted {
		t.Fatal("first alert for a key should be admitted")
	}

	mock.Add(time.Second)
	_, admitted = d.Admit(r)
	if admitted {
		t.Error("second alert within the window should be suppressed")
	}
}

func TestDeduplicatorReadmitsAfterWindowElapses(t *testing.T) {
	mock := clock.NewMock()
	d := NewDeduplicator(DedupConfig{Window: time.Second}, mock)

	r := AlertRecord{Level: "ERROR", Template: "conn refused"}
	d.Admit(r)

	mock.Add(2 * time.Second)
	_, admitted := d.Admit(r)
	if !admitted {
		t.Error("alert after the window elapsed should be admitted again")
	}
}

func TestSummaryReportsSuppressedCount(t *testing.T) {
	mock := clock.NewMock()
	d := NewDeduplicator(DedupConfig{Window: 10 * time.Second}, mock)

	r := AlertRecord{Level: "WARN", Template: "disk low"}
	d.Admit(r)
	mock.Add(time.Second)
	d.Admit(r)
	mock.Add(time.Second)
	d.Admit(r)

	s := d.Summary(r)
	if s == "" {
		t.Fatal("expected a non-empty summary after suppressed duplicates")
	}
}
