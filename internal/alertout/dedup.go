package alertout

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
)

// DedupConfig controls alert deduplication.
type DedupConfig struct {
	Window time.Duration // grouping window (default 5s)
}

// Deduplicator collapses alerts sharing a DedupKey within a window that
// opens at the first admitted alert of the group, so a recurring novel template doesn't page the same sink once per line.
// Clock is injectable so tests can advance time deterministically instead
// of sleeping.
type Deduplicator struct {
	cfg   DedupConfig
	clock clock.Clock
	open  map[string]*dedupGroup
}

type dedupGroup struct {
	record   AlertRecord
	count    int
	firstSeen time.Time
	lastSeen  time.Time
}

// NewDeduplicator creates a Deduplicator with the given config and clock.
// A nil clock defaults to the real wall clock.
func NewDeduplicator(cfg DedupConfig, c clock.Clock) *Deduplicator {
	if c == nil {
		c = clock.New()
	}
	if cfg.Window <= 0 {
		cfg.Window = 5 * time.Second
	}
	return &Deduplicator{cfg: cfg, clock: c, open: make(map[string]*dedupGroup)}
}

// Admit reports whether record should be forwarded to sinks now. The first
// alert for a given DedupKey within a window is always admitted; subsequent
// alerts for the same key inside the window are suppressed and folded into
// the open group's count. A later call after the window has elapsed starts
// a fresh group and is admitted again.
func (d *Deduplicator) Admit(record AlertRecord) (AlertRecord, bool) {
	now := d.clock.Now()
	key := record.DedupKey()

	g, exists := d.open[key]
	if exists && now.Sub(g.firstSeen) <= d.cfg.Window {
		g.count++
		g.lastSeen = now
		return AlertRecord{}, false
	}

	d.open[key] = &dedupGroup{record: record, count: 1, firstSeen: now, lastSeen: now}
	return record, true
}

// Summary returns a human-readable suffix giving how many alerts the
// record's current group holds (the admitted one plus the suppressed
// duplicates) and the span between the first and the last, or "" if no
// duplicate was suppressed.
func (d *Deduplicator) Summary(record AlertRecord) string {
	g, ok := d.open[record.DedupKey()]
	if !ok || g.count <= 1 {
		return ""
	}
	return fmt.Sprintf(" (x%d in %s)", g.count, formatDuration(g.lastSeen.Sub(g.firstSeen)))
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if secs == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dm%ds", mins, secs)
}
