// Package tail reads log lines from stdin or from one or more files and
// feeds them through a detector, emitting an alert for every line whose
// novelty crosses the active quantile threshold (or every line, in
// emit-all mode, for offline tuning). File mode follows rotation —
// truncate-in-place and rename-and-recreate — by watching the
// containing directory and re-opening when the watched file shrinks or
// disappears. The tailer never blocks the detector; backpressure is the
// caller's problem; the detector itself does no I/O.
package tail

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/crimson-sun/novelty/internal/engine"
	"github.com/crimson-sun/novelty/internal/engine/scorer"
)

// AlertFunc receives a scored line that crossed the alert threshold (or
// every line, in emit-all mode).
type AlertFunc func(result scorer.Result, raw string)

// Tailer scores every line it reads through e and reports alert-worthy
// ones via onAlert.
type Tailer struct {
	e        *engine.Engine
	emitAll  bool
	onAlert  AlertFunc
	log      *slog.Logger
	pollWait time.Duration
}

// Option configures a Tailer.
type Option func(*Tailer)

// WithEmitAll makes every scored line alert-worthy, regardless of
// threshold — useful for offline tuning.
func WithEmitAll() Option {
	return func(t *Tailer) { t.emitAll = true }
}

// WithLogger overrides the tailer's logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(t *Tailer) { t.log = log }
}

// New builds a Tailer around an existing engine.
func New(e *engine.Engine, onAlert AlertFunc, opts ...Option) *Tailer {
	t := &Tailer{e: e, onAlert: onAlert, log: slog.Default(), pollWait: 200 * time.Millisecond}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TailStdin scores every line read from stdin until EOF or ctx is
// canceled.
func (t *Tailer) TailStdin(ctx context.Context) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		t.process(scanner.Text())
	}
	return scanner.Err()
}

// TailFiles follows every path, emitting new lines as they're appended
// and handling rotation, until ctx is canceled.
func (t *Tailer) TailFiles(ctx context.Context, paths []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tail: creating watcher: %w", err)
	}
	defer watcher.Close()

	dirs := make(map[string]struct{})
	for _, p := range paths {
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("tail: watching %s: %w", dir, err)
		}
	}

	followers := make(map[string]*fileFollower, len(paths))
	for _, p := range paths {
		f, err := newFollower(p)
		if err != nil {
			t.log.Warn("tail: could not open file, will retry on create event", "path", p, "error", err)
		}
		followers[p] = f
	}

	ticker := time.NewTicker(t.pollWait)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			for _, f := range followers {
				f.close()
			}
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			f, tracked := followers[ev.Name]
			if !tracked {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				if f == nil {
					nf, err := newFollower(ev.Name)
					if err == nil {
						followers[ev.Name] = nf
						f = nf
					}
				}
				if f != nil {
					t.drain(f)
				}
			}
			if ev.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
				if f != nil {
					f.close()
				}
				nf, err := newFollower(ev.Name)
				if err == nil {
					followers[ev.Name] = nf
				} else {
					followers[ev.Name] = nil
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			t.log.Error("tail: watcher error", "error", err)

		case <-ticker.C:
			for name, f := range followers {
				if f == nil {
					if nf, err := newFollower(name); err == nil {
						followers[name] = nf
						f = nf
					} else {
						continue
					}
				}
				if f.truncated() {
					f.reopen()
				}
				t.drain(f)
			}
		}
	}
}

// drain reads every complete line currently available from f and scores
// it.
func (t *Tailer) drain(f *fileFollower) {
	for {
		line, err := f.readLine()
		if err != nil {
			if err != io.EOF {
				t.log.Warn("tail: read error", "path", f.path, "error", err)
			}
			return
		}
		t.process(line)
	}
}

func (t *Tailer) process(line string) {
	result, err := t.e.ScoreAndObserve(line)
	if err != nil {
		t.log.Warn("tail: score error", "error", err)
		return
	}

	if t.emitAll {
		t.onAlert(result, line)
		return
	}
	if !t.e.AlertEligible() {
		return
	}
	threshold, _, ok := t.e.Threshold()
	if ok && result.Novelty >= threshold {
		t.onAlert(result, line)
	}
}

// fileFollower tracks a single file's read position and any bytes read
// past the last complete line, so rotation (truncate-in-place or
// rename-and-recreate) can be detected and partial lines survive across
// readLine calls until their terminator arrives.
type fileFollower struct {
	path    string
	f       *os.File
	pending []byte
	size    int64
}

func newFollower(path string) (*fileFollower, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return nil, err
	}
	return &fileFollower{path: path, f: f, size: info.Size()}, nil
}

// truncated reports whether the file on disk has shrunk below the last
// known size, which can only happen via truncate-in-place.
func (ff *fileFollower) truncated() bool {
	info, err := os.Stat(ff.path)
	if err != nil {
		return false
	}
	return info.Size() < ff.size
}

func (ff *fileFollower) reopen() {
	ff.close()
	if f, err := os.Open(ff.path); err == nil {
		ff.f = f
		ff.pending = nil
		ff.size = 0
	}
}

// readLine returns the next complete line, reading more of the file as
// needed. It returns io.EOF when no complete line is currently
// available; any bytes read without a terminator are held in pending
// for the next call.
func (ff *fileFollower) readLine() (string, error) {
	if ff.f == nil {
		return "", io.EOF
	}
	for {
		if idx := bytes.IndexByte(ff.pending, '\n'); idx >= 0 {
			line := ff.pending[:idx]
			ff.pending = ff.pending[idx+1:]
			return trimNewline(string(line)), nil
		}
		buf := make([]byte, 64*1024)
		n, err := ff.f.Read(buf)
		if n > 0 {
			ff.pending = append(ff.pending, buf[:n]...)
			ff.size += int64(n)
			continue
		}
		if err != nil {
			return "", io.EOF
		}
		return "", io.EOF
	}
}

func trimNewline(s string) string {
	if n := len(s); n > 0 && s[n-1] == '\r' {
		s = s[:n-1]
	}
	return s
}

func (ff *fileFollower) close() {
	if ff.f != nil {
		ff.f.Close()
		ff.f = nil
	}
}
