package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		level      string
		format     string
		output     string
		outputFile string
		wantErr    bool
	}{
		{
			name:    "valid json stdout debug",
			level:   "debug",
			format:  "json",
			output:  "stdout",
			wantErr: false,
		},
		{
			name:    "valid text stderr info",
			level:   "info",
			format:  "text",
			output:  "stderr",
			wantErr: false,
		},
		{
			name:    "invalid log level",
			level:   "loud",
			format:  "json",
			output:  "stdout",
			wantErr: true,
		},
		{
			name:    "invalid format",
			level:   "info",
			format:  "xml",
			output:  "stdout",
			wantErr: true,
		},
		{
			name:    "invalid output",
			level:   "info",
			format:  "json",
			output:  "syslog",
			wantErr: true,
		},
		{
			name:       "file output missing file path",
			level:      "info",
			format:     "json",
			output:     "file",
			outputFile: "",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Initialize(tt.level, tt.format, tt.output, tt.outputFile)
			if (err != nil) != tt.wantErr {
				t.Errorf("Initialize() error = %v, wantErr %v", err, tt.wantErr)
			}

			if !tt.wantErr {
				expectedLevel, _ := logrus.ParseLevel(tt.level)
				if Get().GetLevel() != expectedLevel {
					t.Errorf("Expected log level %v, got %v", expectedLevel, Get().GetLevel())
				}
			}
		})
	}
}

func TestInitializeKeepsLoggerOnError(t *testing.T) {
	if err := Initialize("warn", "text", "stderr", ""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	before := Get()

	if err := Initialize("info", "xml", "stdout", ""); err == nil {
		t.Fatal("Initialize() with bad format should fail")
	}
	if Get() != before {
		t.Error("failed Initialize() must not replace the logger")
	}
}

func TestInitializeWithFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "displaywatcher.log")

	if err := Initialize("info", "json", "file", logFile); err != nil {
		t.Fatalf("Failed to initialize with file: %v", err)
	}

	Get().Infof("run finished: %s", "accepted")

	if err := Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}
	if err := Close(); err != nil {
		t.Fatalf("Second Close() should be a no-op, got: %v", err)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	var logEntry map[string]interface{}
	if err := json.Unmarshal(data, &logEntry); err != nil {
		t.Fatalf("Log output is not valid JSON: %v", err)
	}
	if logEntry["msg"] != "run finished: accepted" {
		t.Errorf("Expected msg='run finished: accepted', got %v", logEntry["msg"])
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Initialize("info", "text", "stdout", ""); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	Get().SetOutput(&buf)

	Get().Warnf("attempt %d of %d", 2, 3)

	output := buf.String()
	if !strings.Contains(output, "attempt 2 of 3") {
		t.Errorf("Expected output to contain message, got: %s", output)
	}
	if !strings.Contains(output, "level=warning") {
		t.Errorf("Expected output to contain 'level=warning', got: %s", output)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	if err := Initialize("error", "text", "stdout", ""); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	Get().SetOutput(&buf)

	Get().Infof("hidden")
	Get().Warnf("hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected no output below error level, got: %s", buf.String())
	}

	Get().Errorf("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("Expected error output, got: %s", buf.String())
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	if err := Initialize("info", "json", "stdout", ""); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	Get().SetOutput(&buf)

	WithFields(logrus.Fields{
		"outcome":  "gave-up",
		"attempts": 3,
	}).Info("run finished")

	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}

	if logEntry["outcome"] != "gave-up" {
		t.Errorf("Expected outcome='gave-up', got %v", logEntry["outcome"])
	}
	if logEntry["attempts"] != float64(3) {
		t.Errorf("Expected attempts=3, got %v", logEntry["attempts"])
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	if err := Initialize("info", "json", "stdout", ""); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	Get().SetOutput(&buf)

	Get().WithError(os.ErrNotExist).WithField("kind", "storage").Error("counter unreadable")

	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}

	if logEntry["error"] == nil {
		t.Error("Expected 'error' field in log entry")
	}
	if logEntry["kind"] != "storage" {
		t.Errorf("Expected kind='storage', got %v", logEntry["kind"])
	}
}

func TestGetSatisfiesLogger(t *testing.T) {
	var l Logger = Get()
	if l == nil {
		t.Fatal("Get() returned nil logger")
	}
	var _ Logger = Get().WithField("component", "test")
}

func TestSetHost(t *testing.T) {
	var buf bytes.Buffer
	if err := Initialize("info", "json", "stdout", ""); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	Get().SetOutput(&buf)

	SetHost("")
	Get().Infof("before")
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if _, ok := entry["host"]; ok {
		t.Errorf("Empty hostname should not add a host field, got %v", entry["host"])
	}

	buf.Reset()
	SetHost("kiosk-01")
	Get().Infof("after")
	entry = nil
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if entry["host"] != "kiosk-01" {
		t.Errorf("Expected host='kiosk-01', got %v", entry["host"])
	}

	buf.Reset()
	Get().WithField("host", "override").Info("explicit")
	entry = nil
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if entry["host"] != "override" {
		t.Errorf("Explicit host field should win, got %v", entry["host"])
	}

	if err := Initialize("info", "json", "stdout", ""); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	buf.Reset()
	Get().SetOutput(&buf)
	Get().Infof("reinitialized")
	entry = nil
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if _, ok := entry["host"]; ok {
		t.Error("Initialize should drop the host hook")
	}
}
