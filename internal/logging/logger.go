// Package logging provides categorized file-based logging for thoth.
// Logs are written to <state dir>/logs/ with one file per category, backed
// by zap. Nothing is written until Init is called, so the import is free
// for hot paths and tests.
package logging

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/subsystem.
type Category string

const (
	CategoryBoot      Category = "boot"      // Startup and CLI wiring
	CategorySession   Category = "session"   // Credential and session lifecycle
	CategoryAPI       Category = "api"       // Backend HTTP calls
	CategoryChat      Category = "chat"      // Chat orchestration
	CategoryFiles     Category = "files"     // File list/upload sync
	CategoryHeartbeat Category = "heartbeat" // Liveness loop
	CategoryStore     Category = "store"     // Local history store
)

var (
	mu      sync.RWMutex
	loggers map[Category]*zap.SugaredLogger
	logsDir string
	enabled bool
	debug   bool
)

// Init configures the logging root directory and verbosity. Safe to call
// more than once; the last call wins. With enableDebug false, Debugf calls
// are suppressed.
func Init(stateDir string, enableDebug bool) error {
	mu.Lock()
	defer mu.Unlock()

	dir := filepath.Join(stateDir, "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	closeAllLocked()
	logsDir = dir
	enabled = true
	debug = enableDebug
	loggers = make(map[Category]*zap.SugaredLogger)
	return nil
}

// Close flushes and drops all category loggers.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	closeAllLocked()
	enabled = false
}

func closeAllLocked() {
	for _, l := range loggers {
		_ = l.Sync()
	}
	loggers = nil
}

// Get returns the logger for a category, creating it on first use.
// Before Init (or after Close) a no-op logger is returned.
func Get(cat Category) *zap.SugaredLogger {
	mu.RLock()
	if !enabled {
		mu.RUnlock()
		return zap.NewNop().Sugar()
	}
	if l, ok := loggers[cat]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if !enabled {
		return zap.NewNop().Sugar()
	}
	if l, ok := loggers[cat]; ok {
		return l
	}
	l := newCategoryLoggerLocked(cat)
	loggers[cat] = l
	return l
}

func newCategoryLoggerLocked(cat Category) *zap.SugaredLogger {
	path := filepath.Join(logsDir, string(cat)+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zap.NewNop().Sugar()
	}

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(f),
		level,
	)
	return zap.New(core).Sugar().Named(string(cat))
}

// =============================================================================
// CONVENIENCE HELPERS
// =============================================================================
// Thin wrappers so call sites read like logging.APIDebug("...") rather than
// logging.Get(logging.CategoryAPI).Debugf("...").

func API(format string, args ...interface{})      { Get(CategoryAPI).Infof(format, args...) }
func APIDebug(format string, args ...interface{}) { Get(CategoryAPI).Debugf(format, args...) }
func APIWarn(format string, args ...interface{})  { Get(CategoryAPI).Warnf(format, args...) }

func Session(format string, args ...interface{})     { Get(CategorySession).Infof(format, args...) }
func SessionWarn(format string, args ...interface{}) { Get(CategorySession).Warnf(format, args...) }

func Chat(format string, args ...interface{})      { Get(CategoryChat).Infof(format, args...) }
func ChatDebug(format string, args ...interface{}) { Get(CategoryChat).Debugf(format, args...) }

func Files(format string, args ...interface{})     { Get(CategoryFiles).Infof(format, args...) }
func FilesWarn(format string, args ...interface{}) { Get(CategoryFiles).Warnf(format, args...) }

func Heartbeat(format string, args ...interface{}) { Get(CategoryHeartbeat).Debugf(format, args...) }

func Store(format string, args ...interface{})     { Get(CategoryStore).Infof(format, args...) }
func StoreWarn(format string, args ...interface{}) { Get(CategoryStore).Warnf(format, args...) }

func Boot(format string, args ...interface{}) { Get(CategoryBoot).Infof(format, args...) }
