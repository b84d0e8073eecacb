// vsgen diff [path]
package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/qobs-build/vsgen/internal/builder"
	"github.com/qobs-build/vsgen/internal/msg"
	"github.com/spf13/cobra"
)

// printDiffs writes every changed line of the diffs, indented under a header naming the file
func printDiffs(w io.Writer, b *builder.Builder, diffs []builder.FileDiff) {
	added, removed := color.New(color.FgGreen), color.New(color.FgRed)
	for _, d := range diffs {
		state := "modified"
		if d.New {
			state = "new file"
		}
		fmt.Fprintf(w, "%s %s (%s, %s)\n",
			color.HiCyanString(state+":"),
			relPath(b, d.Name),
			added.Sprintf("+%d", d.Added()),
			removed.Sprintf("-%d", d.Removed()),
		)

		iw := &msg.IndentWriter{Indent: "  ", W: w}
		for _, l := range d.Lines {
			c := added
			if l.Op == '-' {
				c = removed
			}
			fmt.Fprintln(iw, c.Sprintf("%c %s", l.Op, l.Text))
		}
	}
}

// showDiff renders the project files and prints how they differ from disk
func showDiff(w io.Writer, b *builder.Builder, done func()) ([]builder.FileDiff, error) {
	outputs, err := b.Render()
	done()
	if err != nil {
		return nil, err
	}

	diffs, err := b.Diff(outputs)
	if err != nil {
		return nil, err
	}
	if len(diffs) == 0 {
		msg.Info("project files are up to date")
		return nil, nil
	}
	printDiffs(w, b, diffs)
	return diffs, nil
}

var diffCmd = &cobra.Command{
	Use:   "diff [project path]",
	Short: "Show how the project files would change",
	Long:  `Render the project files and print the lines that differ from the files on disk. Nothing is written.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		b, done := newBuilder(cmd, args)
		if _, err := showDiff(color.Output, b, done); err != nil {
			msg.Fatal("%v", err)
		}
	},
}

func init() {
	// vsgen diff subcommand
	rootCmd.AddCommand(diffCmd)
	addGenerateFlags(diffCmd)
}
