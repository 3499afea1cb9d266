package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"go.viam.com/test"
)

type planeSummary struct {
	Index int
	Type  uint16
	note  string
}

// nextLine splits the next console line into its tab separated parts and checks that the first
// one is a timestamp.
func nextLine(t *testing.T, out *bytes.Buffer) []string {
	t.Helper()
	line, err := out.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)
	parts := strings.Split(strings.TrimSuffix(line, "\n"), "\t")
	_, err = time.Parse(DefaultTimeFormatStr, parts[0])
	test.That(t, err, test.ShouldBeNil)
	return parts
}

func TestConsoleOutputFormat(t *testing.T) {
	out := &bytes.Buffer{}
	logger := newNamedLogger("kcltool", DEBUG, false)
	logger.AddAppender(NewWriterAppender(out))

	logger.Infow("loaded geometry")
	parts := nextLine(t, out)
	test.That(t, parts, test.ShouldHaveLength, 5)
	test.That(t, parts[1:3], test.ShouldResemble, []string{"INFO", "kcltool"})
	test.That(t, parts[3], test.ShouldStartWith, "logging/impl_test.go:")
	test.That(t, parts[4], test.ShouldEqual, "loaded geometry")

	logger.Sublogger("collision").Debugw("retransformed collider", "planes", 4, "frame", 7)
	parts = nextLine(t, out)
	test.That(t, parts, test.ShouldHaveLength, 6)
	test.That(t, parts[1:3], test.ShouldResemble, []string{"DEBUG", "kcltool.collision"})
	test.That(t, parts[3], test.ShouldStartWith, "logging/impl_test.go:")
	var fields map[string]any
	test.That(t, json.Unmarshal([]byte(parts[5]), &fields), test.ShouldBeNil)
	test.That(t, fields, test.ShouldResemble, map[string]any{"planes": 4.0, "frame": 7.0})

	// only exported struct fields are encoded
	logger.Warnw("odd plane", "plane", planeSummary{3, 0x0800, "wall"})
	parts = nextLine(t, out)
	test.That(t, parts[1], test.ShouldEqual, "WARN")
	test.That(t, parts[5], test.ShouldEqual, `{"plane":{"Index":3,"Type":2048}}`)

	logger.Warnw("unpaired", "cell")
	parts = nextLine(t, out)
	test.That(t, parts[5], test.ShouldContainSubstring, `no value for log key \"cell\"`)
}

func TestUTCTimestamps(t *testing.T) {
	out := &bytes.Buffer{}
	logger := NewBlankLogger("kcltool")
	logger.AddAppender(NewWriterAppender(out))
	logger.Infow("tick")

	parts := nextLine(t, out)
	test.That(t, parts[0], test.ShouldEndWith, "Z")
}

func TestLevels(t *testing.T) {
	out := &bytes.Buffer{}
	logger := newNamedLogger("", INFO, false)
	logger.AddAppender(NewWriterAppender(out))

	logger.Debugw("hidden")
	test.That(t, out.Len(), test.ShouldEqual, 0)

	logger.SetLevel(DEBUG)
	logger.Debugw("shown")
	test.That(t, out.String(), test.ShouldContainSubstring, "shown")

	logger.SetLevel(ERROR)
	out.Reset()
	logger.Warnw("quiet")
	test.That(t, out.Len(), test.ShouldEqual, 0)

	for _, tc := range []struct {
		in       string
		expected Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"warning", WARN},
		{"Error", ERROR},
	} {
		level, err := LevelFromString(tc.in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.expected)
		again, err := LevelFromString(level.String())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, again, test.ShouldEqual, level)
	}

	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSubloggerLevels(t *testing.T) {
	out := &bytes.Buffer{}
	parent := newNamedLogger("kcl", INFO, false)
	parent.AddAppender(NewWriterAppender(out))

	child := parent.Sublogger("octree")
	test.That(t, child.GetLevel(), test.ShouldEqual, INFO)
	child.SetLevel(WARN)
	test.That(t, parent.GetLevel(), test.ShouldEqual, INFO)

	child.Infow("decoded")
	test.That(t, out.Len(), test.ShouldEqual, 0)
	parent.Infow("decoded")
	test.That(t, out.String(), test.ShouldContainSubstring, "\tkcl\t")

	blank := newNamedLogger("", INFO, false)
	test.That(t, blank.Sublogger("engine").(*namedLogger).name, test.ShouldEqual, "engine")
}

func TestObservedTestLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Infow("swept", "t", 0.25)
	logger.Debugw("cache hit")

	test.That(t, logs.Len(), test.ShouldEqual, 2)
	test.That(t, logs.FilterMessage("swept").Len(), test.ShouldEqual, 1)
	test.That(t, logs.All()[0].ContextMap()["t"], test.ShouldEqual, 0.25)
	test.That(t, logs.All()[0].Caller.TrimmedPath(), test.ShouldStartWith, "logging/impl_test.go:")
	test.That(t, logger.Sync(), test.ShouldBeNil)
}
