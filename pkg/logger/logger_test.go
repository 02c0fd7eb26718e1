package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"celvest/pkg/config"
)

func TestNew(t *testing.T) {
	log, err := New(&config.LoggingConfig{Level: "debug"})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	if log == nil {
		t.Fatal("Expected a logger instance")
	}
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Errorf("Expected debug level, got %v", zerolog.GlobalLevel())
	}
}

func TestNewRejectsInvalidLevel(t *testing.T) {
	if _, err := New(&config.LoggingConfig{Level: "verbose"}); err == nil {
		t.Error("Expected an error for an invalid log level")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"DEBUG", zerolog.DebugLevel},
	}

	for _, tt := range tests {
		got, err := parseLogLevel(tt.input)
		if err != nil {
			t.Errorf("parseLogLevel(%q) failed: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "celvest.log")

	log, err := New(&config.LoggingConfig{Level: "info", File: logFile})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	log.InfoWithFields("file output test", map[string]interface{}{
		"offset": int64(700),
	})

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "file output test") {
		t.Error("Expected the log message to be written to the file")
	}
	if !strings.Contains(string(content), `"offset":700`) {
		t.Error("Expected structured fields in the file output")
	}
}

func TestWithFieldReturnsNewLogger(t *testing.T) {
	base, err := New(&config.LoggingConfig{Level: "info"})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	derived := base.WithField("address", "celestia1abc")
	if derived == base {
		t.Error("Expected WithField to return a new logger")
	}

	// Chaining must not clobber earlier fields
	chained := derived.WithField("offset", int64(100)).WithError(nil)
	if chained == nil {
		t.Fatal("Expected a logger from the chain")
	}
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()

	// Must not panic and must support chaining
	log.Debug("a")
	log.Info("b")
	log.Warn("c")
	log.Error("d")
	log.WithField("k", "v").WithFields(map[string]interface{}{"x": 1}).Info("chained")
	log.InfoWithFields("fields", map[string]interface{}{"n": 1})

	if log.GetZerolog() == nil {
		t.Error("Expected a zerolog instance even from the nop logger")
	}
}
