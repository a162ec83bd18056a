package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phuslu/log"
)

func TestOpen_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "wind-wave.log")

	for _, msg := range []string{"first run", "second run"} {
		var console bytes.Buffer
		logger, closer, err := Open(Options{Path: path, Stderr: &console})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		logger.Info().Str("variant", "reg").Msg(msg)
		if err := closer.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if !strings.Contains(console.String(), msg) {
			t.Errorf("console output %q missing %q", console.String(), msg)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "first run") || !strings.Contains(text, "second run") {
		t.Errorf("log file should keep both runs, got %q", text)
	}
	if !strings.Contains(text, "variant=reg") {
		t.Errorf("log file should carry fields, got %q", text)
	}
}

func TestOpen_Quiet(t *testing.T) {
	var console bytes.Buffer
	logger, closer, err := Open(Options{Quiet: true, Stderr: &console})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer closer.Close()

	logger.Error().Err(errors.New("boom")).Msg("fetch failed")
	if console.Len() != 0 {
		t.Errorf("quiet logger wrote to console: %q", console.String())
	}
}

func TestOpen_Level(t *testing.T) {
	var console bytes.Buffer
	logger, closer, err := Open(Options{Level: "warn", Stderr: &console})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer closer.Close()

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	if strings.Contains(console.String(), "hidden") {
		t.Error("info line written at warn level")
	}
	if !strings.Contains(console.String(), "shown") {
		t.Error("warn line missing")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Level
	}{
		{"debug", log.DebugLevel},
		{"info", log.InfoLevel},
		{"warn", log.WarnLevel},
		{"warning", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"", log.InfoLevel},
		{"loud", log.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
