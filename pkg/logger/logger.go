// Package logger provides structured logging for displaywatcher using Logrus.
// It supports both JSON and text formats and stdout, stderr or file output.
package logger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Global logger instance
var (
	log            *logrus.Logger
	mu             sync.RWMutex
	currentLogFile io.Closer
)

func init() {
	log = logrus.New()
	log.SetLevel(logrus.InfoLevel)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	log.SetOutput(os.Stderr)
}

// Logger is the minimal logging surface components depend on.
// *logrus.Logger and *logrus.Entry both satisfy it.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Initialize sets up the global logger.
// Parameters:
//   - level: Log level (debug, info, warn, error)
//   - format: Output format (json, text)
//   - output: Output destination (stdout, stderr, file)
//   - outputFile: File path when output is "file"
func Initialize(level, format, output string, outputFile string) error {
	mu.Lock()
	defer mu.Unlock()

	if currentLogFile != nil {
		if err := currentLogFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close previous log file: %v\n", err)
		}
		currentLogFile = nil
	}

	next := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	next.SetLevel(lvl)

	switch format {
	case "json":
		next.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	case "text":
		next.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		return fmt.Errorf("invalid log format %q: must be json or text", format)
	}

	var writer io.Writer
	switch output {
	case "stdout":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	case "file":
		if outputFile == "" {
			return fmt.Errorf("logFile must be specified when logOutput is 'file'")
		}
		file, err := os.OpenFile(outputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file %q: %w", outputFile, err)
		}

		// The process is short-lived; a small buffer is enough and Close flushes it.
		bufferedWriter := bufio.NewWriterSize(file, 16*1024)
		currentLogFile = &bufferedFileWriter{
			Writer: bufferedWriter,
			file:   file,
		}
		writer = bufferedWriter
	default:
		return fmt.Errorf("invalid log output %q: must be stdout, stderr, or file", output)
	}
	next.SetOutput(writer)

	log = next
	return nil
}

// bufferedFileWriter wraps a buffered writer and file for proper cleanup
type bufferedFileWriter struct {
	*bufio.Writer
	file *os.File
}

// Close flushes the buffer and closes the file
func (w *bufferedFileWriter) Close() error {
	if err := w.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to flush log buffer: %w", err)
	}
	return w.file.Close()
}

// hostHook stamps every entry with the machine name unless the entry sets its
// own host field.
type hostHook struct {
	hostname string
}

func (h *hostHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *hostHook) Fire(entry *logrus.Entry) error {
	if _, ok := entry.Data["host"]; !ok {
		entry.Data["host"] = h.hostname
	}
	return nil
}

// SetHost adds a host field to every entry logged after the call.
// Initialize drops it.
func SetHost(hostname string) {
	if hostname == "" {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	log.AddHook(&hostHook{hostname: hostname})
}

// Get returns the global logger instance
func Get() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// WithFields returns a logger entry with structured fields.
//
//	logger.WithFields(logrus.Fields{
//	    "outcome":  "retried-reboot",
//	    "attempts": 2,
//	}).Info("Run finished")
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Get().WithFields(fields)
}

// Close flushes any buffered log data and closes the log file if one is open.
// It's safe to call Close() multiple times.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if currentLogFile != nil {
		err := currentLogFile.Close()
		currentLogFile = nil
		return err
	}
	return nil
}
