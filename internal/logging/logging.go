// Package logging builds the zap logger shared by the CLI, TUI and HTTP server.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls where logs go.
type Options struct {
	Level string
	// File receives JSON logs. Empty disables file output.
	File string
	// Stderr mirrors logs to stderr in console format. The TUI leaves this off
	// because it owns the terminal.
	Stderr bool
}

// New builds a logger from opts. The returned close func flushes the logger
// and releases the log file; it is never nil. With no outputs at all the
// logger is a no-op.
func New(opts Options) (*zap.Logger, func(), error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		l, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing log level: %w", err)
		}
		level = l
	}

	var cores []zapcore.Core
	release := func() {}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log dir: %w", err)
		}
		ws, cleanup, err := zap.Open(opts.File)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		release = cleanup
		enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		cores = append(cores, zapcore.NewCore(enc, ws, level))
	}
	if opts.Stderr {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level))
	}
	if len(cores) == 0 {
		return zap.NewNop(), release, nil
	}
	log := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return log, func() {
		_ = log.Sync()
		release()
	}, nil
}
