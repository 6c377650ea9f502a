// Package jsonl reads, writes and tails newline-delimited JSON record files.
//
// The pipeline persists generated replies and seeker turns as JSONL: one
// JSON object per line, appended in emission order. Writer appends during a
// run; Tailer follows a file another process is still writing.
package jsonl

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// maxRecord bounds one line. Flattened dialogues can be long.
const maxRecord = 10 << 20

// ReadFile returns every valid record in path. Blank lines and lines that
// are not JSON are skipped.
func ReadFile(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open jsonl file: %w", err)
	}
	defer f.Close()

	var out []json.RawMessage
	if _, err := scan(f, true, func(rec json.RawMessage) { out = append(out, rec) }); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}

// Decode reads path and unmarshals every record into T.
func Decode[T any](path string) ([]T, error) {
	records, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(records))
	for i, rec := range records {
		if err := json.Unmarshal(rec, &out[i]); err != nil {
			return nil, fmt.Errorf("decode %s record %d: %w", path, i, err)
		}
	}
	return out, nil
}

// scan calls fn for every record in r and returns the number of bytes
// consumed. A last line without a trailing newline is consumed only when eof
// is true; otherwise it may still be mid-write.
func scan(r io.Reader, eof bool, fn func(json.RawMessage)) (int64, error) {
	br := bufio.NewReaderSize(r, 64<<10)
	var n int64
	for {
		line, err := br.ReadSlice('\n')
		if err == bufio.ErrBufferFull {
			line, err = readLong(br, line)
		}
		if err == io.EOF {
			if eof && len(line) > 0 {
				n += int64(len(line))
				if rec, ok := record(line); ok {
					fn(rec)
				}
			}
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n += int64(len(line))
		if rec, ok := record(line); ok {
			fn(rec)
		}
	}
}

// readLong finishes a line longer than the reader's buffer.
func readLong(br *bufio.Reader, head []byte) ([]byte, error) {
	line := bytes.Clone(head)
	for {
		more, err := br.ReadSlice('\n')
		line = append(line, more...)
		if len(line) > maxRecord {
			return nil, fmt.Errorf("record exceeds %d bytes", maxRecord)
		}
		if err != bufio.ErrBufferFull {
			return line, err
		}
	}
}

func record(line []byte) (json.RawMessage, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 || !json.Valid(line) {
		return nil, false
	}
	return json.RawMessage(bytes.Clone(line)), true
}
