package msg

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	// Out receives every message; color.Output strips escapes on consoles that need it
	Out io.Writer = color.Output
	// Verbose enables Debug messages
	Verbose bool
)

func log(prefix, format string, a ...any) {
	breakLine()
	fmt.Fprintf(Out, "%s: %s\n", prefix, fmt.Sprintf(format, a...))
}

func Error(format string, a ...any) {
	log(color.HiRedString("error"), format, a...)
}

func Warn(format string, a ...any) {
	log(color.YellowString("warn"), format, a...)
}

func Fatal(format string, a ...any) {
	log(color.RedString("fatal"), format, a...)
	os.Exit(1)
}

func Info(format string, a ...any) {
	log(color.HiGreenString("info"), format, a...)
}

func Debug(format string, a ...any) {
	if Verbose {
		log(color.HiBlackString("debug"), format, a...)
	}
}

// IndentWriter prefixes every line written through it with Indent
type IndentWriter struct {
	Indent    string
	W         io.Writer
	didIndent bool
}

func (w *IndentWriter) Write(p []byte) (n int, err error) {
	var buf bytes.Buffer
	for _, c := range p {
		if !w.didIndent {
			buf.WriteString(w.Indent)
			w.didIndent = true
		}
		buf.WriteByte(c)
		if c == '\n' || c == '\r' {
			w.didIndent = false
		}
	}
	if _, err := w.W.Write(buf.Bytes()); err != nil {
		return 0, err
	}
	return len(p), nil
}
