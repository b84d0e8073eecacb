package msg

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOut(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevNoColor := Out, color.NoColor
	Out, color.NoColor = &buf, true
	t.Cleanup(func() { Out, color.NoColor = prevOut, prevNoColor })
	return &buf
}

func TestMessages(t *testing.T) {
	buf := captureOut(t)

	Info("wrote %d files", 3)
	Warn("source directory %s does not exist, skipping", "includes")
	Error("oops")
	Debug("hidden")

	assert.Equal(t, "info: wrote 3 files\nwarn: source directory includes does not exist, skipping\nerror: oops\n", buf.String())

	Verbose = true
	t.Cleanup(func() { Verbose = false })
	Debug("shown")
	assert.True(t, strings.HasSuffix(buf.String(), "debug: shown\n"))
}

func TestIndentWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &IndentWriter{Indent: "  ", W: &buf}

	w.Write([]byte("a\nb"))
	w.Write([]byte("c\n"))
	w.Write([]byte("d\n"))
	assert.Equal(t, "  a\n  bc\n  d\n", buf.String())
}

func TestProgressBar(t *testing.T) {
	var buf bytes.Buffer
	pb := NewProgressBar(2, &buf)
	for _, f := range []string{"src/a.cpp", "src/b.cpp", "src/gui/c.h"} {
		pb.Add(f)
	}
	pb.Finish()

	assert.Equal(t, int64(3), pb.Current)
	out := buf.String()
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.Contains(t, out, "\r    3 files in ")
}

func TestProgressBarTruncatesOnRunes(t *testing.T) {
	var buf bytes.Buffer
	pb := NewProgressBar(0, &buf)
	t.Cleanup(pb.Finish)

	pb.lastPrint = time.Time{}
	pb.Add(strings.Repeat("ü", 60) + "/x.cpp")

	out := buf.String()
	assert.True(t, utf8.ValidString(out))
	assert.Contains(t, out, "1 files ..."+strings.Repeat("ü", dirWidth-3))
}

func TestLogBreaksProgressLine(t *testing.T) {
	buf := captureOut(t)
	var bar bytes.Buffer
	pb := NewProgressBar(0, &bar)

	// nothing drawn yet, so no extra newline
	Warn("first")
	assert.Empty(t, bar.String())

	pb.lastPrint = time.Time{}
	pb.Add("src/main.cpp")
	require.True(t, strings.HasPrefix(bar.String(), "\r| 1 files src"))

	Warn("source directory %s does not exist, skipping", "includes")
	assert.True(t, strings.HasSuffix(bar.String(), "\n"), "counter line ended before the warning")
	assert.Equal(t, "warn: first\nwarn: source directory includes does not exist, skipping\n", buf.String())

	// a second message does not add blank lines
	Warn("again")
	assert.Equal(t, 1, strings.Count(bar.String(), "\n"))

	pb.Finish()
	bar.Reset()
	Warn("after finish")
	assert.Empty(t, bar.String())
}
