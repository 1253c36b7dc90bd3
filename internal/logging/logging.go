// Package logging configures the shared logrus instance used across the CLI
// and optionally routes output to rotating log files.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var setupOnce sync.Once

// Formatter renders log entries as
// [2026-08-30 14:02:11] [debug] [loopback.go:87] message.
type Formatter struct{}

// Format renders a single log entry.
func (f *Formatter) Format(entry *log.Entry) ([]byte, error) {
	buffer := entry.Buffer
	if buffer == nil {
		buffer = &bytes.Buffer{}
	}

	level := entry.Level.String()
	if level == "warning" {
		level = "warn"
	}

	timestamp := entry.Time.Format("2006-01-02 15:04:05")
	message := strings.TrimRight(entry.Message, "\r\n")

	if entry.Caller != nil {
		fmt.Fprintf(buffer, "[%s] [%-5s] [%s:%d] %s\n", timestamp, level, filepath.Base(entry.Caller.File), entry.Caller.Line, message)
	} else {
		fmt.Fprintf(buffer, "[%s] [%-5s] %s\n", timestamp, level, message)
	}
	return buffer.Bytes(), nil
}

// Setup configures the shared logrus instance. Safe to call multiple times;
// initialization happens once.
func Setup() {
	setupOnce.Do(func() {
		log.SetOutput(os.Stderr)
		log.SetReportCaller(true)
		log.SetFormatter(&Formatter{})
		log.SetLevel(log.InfoLevel)
	})
}

// SetDebug raises the log level to debug.
func SetDebug() {
	log.SetLevel(log.DebugLevel)
}

// ConfigureFileOutput mirrors log output to a rotating file under dir while
// keeping stderr. An empty dir leaves the destination unchanged.
func ConfigureFileOutput(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	rotating := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "linearctl.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     30, // days
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotating))
	return nil
}
