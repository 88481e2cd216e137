package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLevel resolves the configured log level. A non-empty override wins,
// and an empty level means info.
func (l LoggingConfig) ZapLevel(override string) (zapcore.Level, error) {
	level := strings.ToLower(strings.TrimSpace(l.Level))
	if o := strings.ToLower(strings.TrimSpace(override)); o != "" {
		level = o
	}

	switch level {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level: %s", level)
	}
}

// ZapConfig builds the zap configuration: production JSON by default, the
// development encoder for "console". Logs go to stderr unless OutputFile is
// set.
func (l LoggingConfig) ZapConfig(levelOverride string) (zap.Config, error) {
	level, err := l.ZapLevel(levelOverride)
	if err != nil {
		return zap.Config{}, err
	}

	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(l.Format)) {
	case "", "json":
		cfg = zap.NewProductionConfig()
	case "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		return zap.Config{}, fmt.Errorf("invalid log format: %s", l.Format)
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	if l.OutputFile != "" {
		cfg.OutputPaths = []string{l.OutputFile}
		cfg.ErrorOutputPaths = []string{l.OutputFile}
	}
	return cfg, nil
}

// NewLogger builds the logger, creating the OutputFile directory when needed.
func (l LoggingConfig) NewLogger(levelOverride string) (*zap.Logger, error) {
	cfg, err := l.ZapConfig(levelOverride)
	if err != nil {
		return nil, err
	}
	if l.OutputFile != "" {
		if dir := filepath.Dir(l.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
			}
		}
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
