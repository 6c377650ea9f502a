package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Writer appends JSON records to a file, one per line.
//
// Every Append is flushed to the file before it returns so that a crashed
// run leaves only whole lines behind. Writer is not safe for concurrent use.
type Writer struct {
	path  string
	file  *os.File
	buf   *bufio.Writer
	count int
}

// Create opens path for writing, truncating any previous content.
// Parent directories are created as needed.
func Create(path string) (*Writer, error) {
	return open(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC)
}

// OpenAppend opens path for appending, creating it if needed.
func OpenAppend(path string) (*Writer, error) {
	return open(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND)
}

func open(path string, flag int) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create jsonl dir: %w", err)
	}
	file, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open jsonl file: %w", err)
	}
	return &Writer{path: path, file: file, buf: bufio.NewWriter(file)}, nil
}

// Path returns the file path being written.
func (w *Writer) Path() string {
	return w.path
}

// Count returns the number of records appended by this writer.
func (w *Writer) Count() int {
	return w.count
}

// Append encodes v as one JSON line and flushes it. Markup such as
// "<padding>" is written as-is, not HTML-escaped.
func (w *Writer) Append(v any) error {
	enc := json.NewEncoder(w.buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode jsonl record: %w", err)
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("flush jsonl record: %w", err)
	}
	w.count++
	return nil
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}
	flushErr := w.buf.Flush()
	closeErr := w.file.Close()
	w.file = nil
	if flushErr != nil {
		return fmt.Errorf("flush jsonl file: %w", flushErr)
	}
	return closeErr
}
