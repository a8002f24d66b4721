// Package logging provides categorized file-based logging for printguard.
// Logs are written to .printguard/logs/ with a separate file per category.
// Logging is a silent no-op unless debug mode is enabled, so production
// runs never touch the filesystem.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category is a log category, one file per category.
type Category string

const (
	CategoryBoot    Category = "boot"    // startup, config, run IDs
	CategoryParser  Category = "parser"  // tree-sitter extraction
	CategoryChecker Category = "checker" // site validation
	CategoryWatch   Category = "watch"   // filesystem watcher
	CategoryHistory Category = "history" // run history store
)

// Options controls logging behavior. Mirrors config.LoggingConfig so this
// package does not import config.
type Options struct {
	DebugMode  bool
	Level      string
	Categories map[string]bool
}

var (
	mu      sync.RWMutex
	loggers = make(map[Category]*zap.SugaredLogger)
	nop     = zap.NewNop().Sugar()

	logsDir string
	opts    Options
	level   zapcore.Level
)

// Initialize sets up the logging directory from the workspace path. Must
// be called before Get; in production mode (debug off) it does nothing.
func Initialize(workspace string, o Options) error {
	mu.Lock()
	defer mu.Unlock()

	opts = o
	if !opts.DebugMode {
		return nil
	}
	if workspace == "" {
		return fmt.Errorf("workspace path required")
	}

	switch opts.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn", "warning":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	logsDir = filepath.Join(workspace, ".printguard", "logs")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}
	return nil
}

// Get returns the logger for a category. Disabled categories and
// production mode get a nop logger, so call sites never nil-check.
func Get(c Category) *zap.SugaredLogger {
	mu.RLock()
	if logger, ok := loggers[c]; ok {
		mu.RUnlock()
		return logger
	}
	enabled := opts.DebugMode && categoryEnabled(c)
	mu.RUnlock()

	if !enabled {
		return nop
	}

	mu.Lock()
	defer mu.Unlock()
	if logger, ok := loggers[c]; ok {
		return logger
	}

	file, err := os.OpenFile(
		filepath.Join(logsDir, string(c)+".log"),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] cannot open %s log: %v\n", c, err)
		return nop
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(file), level)
	logger := zap.New(core).Sugar().Named(string(c))
	loggers[c] = logger
	return logger
}

// Sync flushes all category loggers.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	for _, logger := range loggers {
		_ = logger.Sync()
	}
}

// Reset drops all loggers and configuration. Used by tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	for _, logger := range loggers {
		_ = logger.Sync()
	}
	loggers = make(map[Category]*zap.SugaredLogger)
	opts = Options{}
	logsDir = ""
}

func categoryEnabled(c Category) bool {
	if opts.Categories == nil {
		return true
	}
	enabled, ok := opts.Categories[string(c)]
	if !ok {
		return true
	}
	return enabled
}
