package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"framegrab/internal/logging"
)

func TestNewWritesJSONToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "out.log")

	logger, err := logging.New(logging.Options{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("captured frame", logging.Int(logging.FieldIndex, 3))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, `"captured frame"`) {
		t.Fatalf("log output missing message: %s", content)
	}
	if !strings.Contains(content, `"index":3`) {
		t.Fatalf("log output missing attr: %s", content)
	}
}

func TestNewConsoleRespectsLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "out.log")

	logger, err := logging.New(logging.Options{
		Level:       "warn",
		Format:      "console",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("below threshold")
	logger.Warn("at threshold")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	if strings.Contains(content, "below threshold") {
		t.Fatalf("info line should be filtered: %s", content)
	}
	if !strings.Contains(content, "at threshold") {
		t.Fatalf("warn line missing: %s", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected an error for an unsupported format")
	}
}

func TestComponentLoggerCarriesComponent(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "out.log")

	base, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logging.NewComponentLogger(base, "tonemap").Info("probe succeeded")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"component":"tonemap"`) {
		t.Fatalf("component attr missing: %s", data)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("discarded", logging.Error(os.ErrNotExist))
}
