package jsonl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Poll intervals for Follow. The slow poll backs up fsnotify; the fast one
// replaces it when no watcher can be created.
const (
	slowPoll = time.Second
	fastPoll = 100 * time.Millisecond
)

// Tailer follows a JSONL file that is still being appended to. A trailing
// line without its newline is held back until the writer finishes it, and a
// file that shrinks is read again from the start.
//
// Backlog must not be called once Follow has started.
type Tailer struct {
	path string
	file *os.File
	off  int64
}

// OpenTailer opens path positioned at its current end.
func OpenTailer(path string) (*Tailer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open jsonl file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return &Tailer{path: path, file: f, off: info.Size()}, nil
}

// Backlog returns every complete record already in the file. Follow then
// continues right after the last one.
func (t *Tailer) Backlog() ([]json.RawMessage, error) {
	t.off = 0
	var out []json.RawMessage
	err := t.drain(func(rec json.RawMessage) { out = append(out, rec) })
	return out, err
}

// Follow sends records as they are appended until ctx is done, then closes
// the channel.
func (t *Tailer) Follow(ctx context.Context) <-chan json.RawMessage {
	out := make(chan json.RawMessage, 64)
	go func() {
		defer close(out)

		var (
			events <-chan fsnotify.Event
			errs   <-chan error
		)
		poll := fastPoll
		// The directory is watched so the watch survives the file being
		// recreated by a restarted run.
		if w, err := fsnotify.NewWatcher(); err == nil {
			defer w.Close()
			if w.Add(filepath.Dir(t.path)) == nil {
				events, errs = w.Events, w.Errors
				poll = slowPoll
			}
		}
		tick := time.NewTicker(poll)
		defer tick.Stop()

		name := filepath.Base(t.path)
		for {
			var batch []json.RawMessage
			// Read errors are transient here; the next event or tick retries.
			_ = t.drain(func(rec json.RawMessage) { batch = append(batch, rec) })
			for _, rec := range batch {
				select {
				case out <- rec:
				case <-ctx.Done():
					return
				}
			}

		wait:
			for {
				select {
				case <-ctx.Done():
					return
				case <-tick.C:
					break wait
				case ev, ok := <-events:
					if !ok {
						events = nil
						tick.Reset(fastPoll)
						continue
					}
					if filepath.Base(ev.Name) == name && (ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
						break wait
					}
				case _, ok := <-errs:
					if !ok {
						errs = nil
					}
				}
			}
		}
	}()
	return out
}

// Close closes the file. Call it after the Follow context is done.
func (t *Tailer) Close() error {
	return t.file.Close()
}

func (t *Tailer) drain(fn func(json.RawMessage)) error {
	info, err := t.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size < t.off {
		t.off = 0
	}
	if size == t.off {
		return nil
	}
	n, err := scan(io.NewSectionReader(t.file, t.off, size-t.off), false, fn)
	t.off += n
	return err
}
