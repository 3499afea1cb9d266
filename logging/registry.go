package logging

import (
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// LoggerPatternConfig sets the level of every logger whose name matches Pattern. A pattern is a
// dotted logger name where any section may be "*".
type LoggerPatternConfig struct {
	Pattern string `json:"pattern"`
	Level   string `json:"level"`
}

const (
	// e.g. "collision".
	validLoggerSectionName = `[a-zA-Z0-9]+([_-]*[a-zA-Z0-9]+)*`
	// e.g. "collision" or "*".
	validLoggerSectionNameWithWildcard = `(` + validLoggerSectionName + `|\*)`
	// e.g. "kcltool.*.cache", anchored.
	validLoggerName = `^` + validLoggerSectionNameWithWildcard + `(\.` + validLoggerSectionNameWithWildcard + `)*$`
)

var loggerPatternRegexp = regexp.MustCompile(validLoggerName)

// ValidatePattern reports whether pattern is a well formed logger name pattern.
func ValidatePattern(pattern string) bool {
	return loggerPatternRegexp.MatchString(pattern)
}

func buildRegexFromPattern(pattern string) string {
	var matcher strings.Builder
	matcher.WriteRune('^')
	for _, ch := range pattern {
		switch ch {
		case '*':
			matcher.WriteString(`.*`)
		case '.':
			matcher.WriteString(`\.`)
		default:
			matcher.WriteRune(ch)
		}
	}
	matcher.WriteRune('$')
	return matcher.String()
}

type compiledPattern struct {
	matcher *regexp.Regexp
	level   Level
}

// Registry tracks named loggers so their levels can be set from configured patterns. Loggers that
// no pattern matches run at the registry's fallback level. When several patterns match a name the
// last one wins.
type Registry struct {
	mu       sync.RWMutex
	loggers  map[string]Logger
	patterns []compiledPattern
	fallback Level
}

// NewRegistry returns an empty registry.
func NewRegistry(fallback Level) *Registry {
	return &Registry{
		loggers:  make(map[string]Logger),
		fallback: fallback,
	}
}

// Register adds logger under name and sets its level from the current patterns. If a logger is
// already registered under name, that logger is returned instead.
func (lr *Registry) Register(name string, logger Logger) Logger {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	if existing, ok := lr.loggers[name]; ok {
		return existing
	}
	lr.loggers[name] = logger
	logger.SetLevel(lr.levelFor(name))
	return logger
}

// Named returns the logger registered under name.
func (lr *Registry) Named(name string) (Logger, bool) {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	logger, ok := lr.loggers[name]
	return logger, ok
}

// Names returns the registered names in sorted order.
func (lr *Registry) Names() []string {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	names := lo.Keys(lr.loggers)
	slices.Sort(names)
	return names
}

// Update replaces the patterns and relevels every registered logger. Malformed patterns are
// reported to warnLogger and skipped. An unknown level fails the whole update and leaves the
// previous patterns in place.
func (lr *Registry) Update(patterns []LoggerPatternConfig, warnLogger Logger) error {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, lpc := range patterns {
		if !ValidatePattern(lpc.Pattern) {
			warnLogger.Warnw("failed to validate a logger pattern", "pattern", lpc.Pattern)
			continue
		}
		level, err := LevelFromString(lpc.Level)
		if err != nil {
			return errors.Wrapf(err, "logger pattern %q", lpc.Pattern)
		}
		compiled = append(compiled, compiledPattern{
			matcher: regexp.MustCompile(buildRegexFromPattern(lpc.Pattern)),
			level:   level,
		})
	}

	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.patterns = compiled
	for name, logger := range lr.loggers {
		logger.SetLevel(lr.levelFor(name))
	}
	return nil
}

func (lr *Registry) levelFor(name string) Level {
	level := lr.fallback
	for _, p := range lr.patterns {
		if p.matcher.MatchString(name) {
			level = p.level
		}
	}
	return level
}
