package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "newsdigest.log")
	logger, closeLog, err := New(Options{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("fetched articles")
	closeLog()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !strings.Contains(string(data), "fetched articles") {
		t.Errorf("log file missing message: %s", data)
	}
}

func TestNewRespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, closeLog, err := New(Options{Level: "warn", File: path})
	if err != nil {
		t.Fatal(err)
	}
	defer closeLog()
	logger.Info("hidden")
	logger.Warn("shown")
	_ = logger.Sync()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(string(data), "shown") {
		t.Error("warn message should be written")
	}
}

func TestNewInvalidLevel(t *testing.T) {
	if _, _, err := New(Options{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNewNoOutputs(t *testing.T) {
	logger, closeLog, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("discarded")
	closeLog()
}

func TestCloseReleasesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, closeLog, err := New(Options{File: path})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("before close")
	closeLog()

	// Writes after close fail on the closed file and never reach disk.
	logger = logger.WithOptions(zap.ErrorOutput(zapcore.AddSync(io.Discard)))
	logger.Info("after close")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "before close") {
		t.Error("message logged before close was not flushed")
	}
	if strings.Contains(string(data), "after close") {
		t.Error("log file still open after close")
	}
}
