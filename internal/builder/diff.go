package builder

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/qobs-build/vsgen/internal/builder/gen"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// FileDiff is the line difference between a file on disk and its freshly rendered content
type FileDiff struct {
	Name  string
	New   bool
	Lines []DiffLine
}

// DiffLine is a changed line: Op is '+' for added and '-' for removed
type DiffLine struct {
	Op   byte
	Text string
}

func (d FileDiff) Added() (n int) {
	for _, l := range d.Lines {
		if l.Op == '+' {
			n++
		}
	}
	return
}

func (d FileDiff) Removed() int { return len(d.Lines) - d.Added() }

// Diff compares rendered outputs with the files on disk. Unchanged files are left out.
func (b *Builder) Diff(outputs []gen.Output) ([]FileDiff, error) {
	var diffs []FileDiff
	dmp := diffmatchpatch.New()

	for _, out := range outputs {
		existing, err := os.ReadFile(filepath.Join(b.OutDir(), out.Name))
		isNew := errors.Is(err, os.ErrNotExist)
		if err != nil && !isNew {
			return nil, err
		}
		if string(existing) == string(out.Content) {
			continue
		}

		// line mode diff: every line becomes one rune, diffed, then mapped back
		a, c, lines := dmp.DiffLinesToChars(string(existing), string(out.Content))
		changes := dmp.DiffCharsToLines(dmp.DiffMain(a, c, false), lines)

		fd := FileDiff{Name: out.Name, New: isNew}
		for _, change := range changes {
			var op byte
			switch change.Type {
			case diffmatchpatch.DiffInsert:
				op = '+'
			case diffmatchpatch.DiffDelete:
				op = '-'
			default:
				continue
			}
			for _, line := range strings.SplitAfter(change.Text, "\n") {
				if line == "" {
					continue
				}
				fd.Lines = append(fd.Lines, DiffLine{Op: op, Text: strings.TrimSuffix(line, "\n")})
			}
		}
		diffs = append(diffs, fd)
	}
	return diffs, nil
}
