package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the application logger. The TUI owns the terminal, so
// logs always go to a file: LogFile when set, otherwise DefaultDebugLogFile in
// the temp dir when debug is on. With neither, logging is off. cfg.LogFile is
// updated to the file actually used.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.LogFile == "" && !cfg.Debug {
		return zap.NewNop(), nil
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(os.TempDir(), DefaultDebugLogFile)
	}

	var zcfg zap.Config
	if cfg.Debug {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	zcfg.OutputPaths = []string{cfg.LogFile}
	zcfg.ErrorOutputPaths = []string{cfg.LogFile}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger.Named("logomotion"), nil
}
