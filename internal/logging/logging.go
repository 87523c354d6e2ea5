// Package logging wires up the server's rotating log file and stderr
// mirror, using lumberjack-backed rotation for long-running daemon output.
package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logFileName = "server.log"
	maxSizeMB   = 10
	maxBackups  = 5
	maxAgeDays  = 28
	debugEnvVar = "MCP_TASKS_DEBUG"
)

// New builds a *log.Logger that writes to both stderr and a rotating file
// under <dataDir>/server.log. Debug-level output goes through Debugf, which
// is gated by MCP_TASKS_DEBUG.
func New(dataDir string) (*log.Logger, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(dataDir, logFileName),
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}
	out := io.MultiWriter(os.Stderr, rotator)
	return log.New(out, "", log.LstdFlags|log.Lmicroseconds), nil
}

// Debug reports whether MCP_TASKS_DEBUG is set, gating verbose logging.
func Debug() bool {
	v := os.Getenv(debugEnvVar)
	return v != "" && v != "0" && v != "false"
}

// Debugf logs via logger only when Debug() is true.
func Debugf(logger *log.Logger, format string, args ...any) {
	if !Debug() {
		return
	}
	logger.Printf("[debug] "+format, args...)
}
