package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

// testAppender sends each line to tb.Log so it is reported with the test that logged it.
type testAppender struct {
	tb testing.TB
}

func (ta testAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	ta.tb.Helper()
	line, err := formatLine(entry, fields)
	ta.tb.Log(line)
	return err
}

func (ta testAppender) Sync() error {
	return nil
}
