package logging

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// namedLogger is the only Logger implementation. A sublogger copies the appender list of its
// parent when it is created and keeps its own level, so the registry can quiet
// "kcltool.collision" without touching "kcltool.kcl".
type namedLogger struct {
	name      string
	level     AtomicLevel
	utc       bool
	appenders []Appender
}

func newNamedLogger(name string, level Level, utc bool) *namedLogger {
	return &namedLogger{name: name, level: NewAtomicLevelAt(level), utc: utc}
}

func (nl *namedLogger) Sublogger(subname string) Logger {
	name := subname
	if nl.name != "" {
		name = nl.name + "." + subname
	}
	return &namedLogger{
		name:      name,
		level:     NewAtomicLevelAt(nl.level.Get()),
		utc:       nl.utc,
		appenders: nl.appenders,
	}
}

func (nl *namedLogger) AddAppender(appender Appender) {
	nl.appenders = append(nl.appenders, appender)
}

func (nl *namedLogger) SetLevel(level Level) {
	nl.level.Set(level)
}

func (nl *namedLogger) GetLevel() Level {
	return nl.level.Get()
}

func (nl *namedLogger) Sync() error {
	var err error
	for _, appender := range nl.appenders {
		err = multierr.Append(err, appender.Sync())
	}
	return err
}

func (nl *namedLogger) Debugw(msg string, keysAndValues ...interface{}) {
	nl.write(DEBUG, msg, keysAndValues)
}

func (nl *namedLogger) Infow(msg string, keysAndValues ...interface{}) {
	nl.write(INFO, msg, keysAndValues)
}

func (nl *namedLogger) Warnw(msg string, keysAndValues ...interface{}) {
	nl.write(WARN, msg, keysAndValues)
}

func (nl *namedLogger) write(level Level, msg string, keysAndValues []interface{}) {
	if level < nl.level.Get() {
		return
	}
	entry := zapcore.Entry{
		Level:      level.AsZap(),
		Time:       time.Now(),
		LoggerName: nl.name,
		Message:    msg,
		Caller:     callSite(),
	}
	if nl.utc {
		entry.Time = entry.Time.UTC()
	}
	fields := pairFields(keysAndValues)
	for _, appender := range nl.appenders {
		if err := appender.Write(entry, fields); err != nil {
			//nolint:errcheck
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

// pairFields turns alternating keys and values into zap fields. A trailing key without a value
// is kept with an error value so the mistake is visible in the output.
func pairFields(keysAndValues []interface{}) []zapcore.Field {
	if len(keysAndValues) == 0 {
		return nil
	}
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 == len(keysAndValues) {
			fields = append(fields, zap.Error(errors.Errorf("no value for log key %q", key)))
			break
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

// callSite reports the caller of Debugw, Infow or Warnw.
func callSite() zapcore.EntryCaller {
	// callSite, write, the level method, then the caller.
	const skip = 3
	pc, file, line, ok := runtime.Caller(skip)
	return zapcore.NewEntryCaller(pc, file, line, ok)
}
