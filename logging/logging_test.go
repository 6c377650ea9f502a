package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFileName(t *testing.T) {
	got := FileName(time.Date(2022, 3, 7, 15, 4, 5, 0, time.UTC))
	if got != "20220307.log" {
		t.Errorf("FileName() = %q", got)
	}
}

func TestNew_ConsoleAndFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	logger := New(Options{
		Level:   slog.LevelInfo,
		Console: &console,
		Dir:     dir,
		Now:     func() time.Time { return time.Date(2022, 3, 7, 0, 0, 0, 0, time.UTC) },
	})
	logger.With(slog.Int("index", 3)).Info("generated", slog.String("reply", "feels sad"))
	logger.Debug("hidden")
	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}

	if want := filepath.Join(dir, "20220307.log"); logger.Path() != want {
		t.Errorf("Path() = %q, want %q", logger.Path(), want)
	}

	if !strings.Contains(console.String(), "msg=generated") || !strings.Contains(console.String(), "index=3") {
		t.Errorf("console output = %q", console.String())
	}
	if strings.Contains(console.String(), "hidden") {
		t.Error("debug record should be filtered")
	}

	data, err := os.ReadFile(logger.Path())
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 file record, got %d: %q", len(lines), data)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["msg"] != "generated" || rec["reply"] != "feels sad" || rec["index"] != float64(3) {
		t.Errorf("file record = %v", rec)
	}
}

func TestNew_NoSinks(t *testing.T) {
	logger := New(Options{})
	logger.Info("dropped")
	if logger.Path() != "" {
		t.Errorf("Path() = %q, want empty", logger.Path())
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
