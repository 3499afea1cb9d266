// Package logging provides the named, leveled loggers used by the collision core and kcltool.
// Entries are zapcore entries fanned out to appenders: a console writer for the terminal, a
// rotated file, the test log, or a zap observer in tests.
package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// NewBlankLogger returns a logger at DEBUG with no appenders, stamping entries in UTC. Callers
// attach outputs with AddAppender.
func NewBlankLogger(name string) Logger {
	return newNamedLogger(name, DEBUG, true)
}

// NewTestLogger returns a DEBUG logger that writes to the test's log in local time.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is NewTestLogger that also records every entry for assertions.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	logger := newNamedLogger("", DEBUG, false)
	logger.AddAppender(testAppender{tb})

	core, logs := observer.New(zap.LevelEnablerFunc(zapcore.DebugLevel.Enabled))
	logger.AddAppender(core)
	return logger, logs
}
