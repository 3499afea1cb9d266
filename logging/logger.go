package logging

// Logger is the structured logger handed to the geometry loader, the query engine and kcltool.
// Every line carries the dotted logger name, e.g. "kcltool.collision.cache", which is also the
// key used by Registry to set its level.
type Logger interface {
	// Sublogger returns a child named "<name>.<subname>" that writes to the same appenders.
	Sublogger(subname string) Logger
	AddAppender(appender Appender)
	SetLevel(level Level)
	GetLevel() Level
	Sync() error

	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
}
