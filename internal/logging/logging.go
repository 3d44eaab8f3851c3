// Package logging builds the process logger. The TUI owns stdout and
// stderr, so logs go to a file under the user's state directory.
package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultPath is where session logs land when no override is given.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", "slotbook", "slotbook.log"), nil
}

// New opens a file-backed zap logger. debug lowers the level to Debug.
// An unwritable path degrades to a no-op logger rather than failing
// the session.
func New(path string, debug bool) *zap.Logger {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return zap.NewNop()
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zap.NewNop()
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zap.NewNop()
	}

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), level)
	return zap.New(core)
}
