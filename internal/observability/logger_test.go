package observability

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.expected {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestWithKeepsRotatingFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "lanews.log")
	logger := NewLogger(logPath, "info", Rotation{MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})

	child := logger.With("run_id", "run-42")
	if child.file == nil || child.file != logger.file {
		t.Fatal("With must keep the rotating file closer")
	}

	child.Info("Run completed", "collected", 5)
	child.Debug("Hidden at info level")

	if err := child.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	content := string(data)

	for _, want := range []string{"Run completed", "run_id=run-42", "collected=5"} {
		if !strings.Contains(content, want) {
			t.Errorf("log file missing %q: %s", want, content)
		}
	}
	if strings.Contains(content, "Hidden at info level") {
		t.Error("debug record written at info level")
	}
}

func TestNopLoggerClose(t *testing.T) {
	logger := NewNopLogger()
	logger.With("k", "v").Info("discarded")

	if err := logger.Close(); err != nil {
		t.Errorf("Close on nop logger = %v, want nil", err)
	}
}
