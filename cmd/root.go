// vsgen [path], vsgen generate [path]
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/qobs-build/vsgen/internal/builder"
	"github.com/qobs-build/vsgen/internal/builder/gen"
	"github.com/qobs-build/vsgen/internal/msg"
	"github.com/spf13/cobra"
)

var (
	flagOut      string
	flagName     string
	flagToolset  string
	flagCheck    bool
	flagPlatform EnumValue = NewEnumValue("Win32", map[string]string{
		"Win32": "32-bit x86 (default)",
		"x64":   "64-bit x86",
		"ARM64": "64-bit ARM",
	})
)

// newBuilder opens the project at the optional path argument with the command line overrides applied.
// done ends the scan progress line and must be called once the tree has been walked.
func newBuilder(cmd *cobra.Command, args []string) (b *builder.Builder, done func()) {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}

	opts := builder.Options{
		Name:    flagName,
		Toolset: flagToolset,
		OutDir:  flagOut,
	}
	if f := cmd.Flags().Lookup("platform"); f != nil && f.Changed {
		opts.Platform = flagPlatform.Value()
	}

	var progress *msg.ProgressBar
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		progress = msg.NewProgressBar(0, os.Stdout)
		opts.OnFile = progress.Add
	}

	b, err := builder.NewBuilderInDirectory(target, opts)
	if err != nil {
		msg.Fatal("%v", err)
	}
	msg.Debug("project directory %s, writing to %s", b.Dir(), b.OutDir())

	done = func() {}
	if progress != nil {
		done = progress.Finish
	}
	return b, done
}

// checkStale renders the project files without writing them and reports those that differ from disk.
// total is the number of rendered files.
func checkStale(b *builder.Builder, done func()) (stale []gen.Output, total int, err error) {
	outputs, err := b.Render()
	done()
	if err != nil {
		return nil, 0, err
	}
	stale, err = b.Stale(outputs)
	if err != nil {
		return nil, 0, err
	}
	for _, out := range stale {
		msg.Error("%s is out of date", relPath(b, out.Name))
	}
	return stale, len(outputs), nil
}

// generate writes the stale project files and reports each one
func generate(b *builder.Builder, done func()) ([]string, error) {
	written, err := b.Generate()
	done()
	if err != nil {
		return nil, err
	}
	if len(written) == 0 {
		msg.Info("project files are up to date")
	}
	for _, name := range written {
		msg.Info("wrote %s", relPath(b, name))
	}
	return written, nil
}

func doGenerate(cmd *cobra.Command, args []string) {
	b, done := newBuilder(cmd, args)

	if flagCheck {
		stale, total, err := checkStale(b, done)
		if err != nil {
			msg.Fatal("%v", err)
		}
		if len(stale) > 0 {
			msg.Fatal("%d of %d project files are out of date, run %s to regenerate", len(stale), total, getProgramName())
		}
		msg.Info("project files are up to date")
		return
	}

	if _, err := generate(b, done); err != nil {
		msg.Fatal("%v", err)
	}
}

// relPath returns the path of an output file relative to the working directory when possible
func relPath(b *builder.Builder, name string) string {
	path := filepath.Join(b.OutDir(), name)
	if wd, err := os.Getwd(); err == nil {
		if rel, err := filepath.Rel(wd, path); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return path
}

var rootCmd = &cobra.Command{
	Use:   "vsgen [project path]",
	Short: "Generate Visual Studio project files from a source tree",
	Long: `Generate a Visual Studio solution, project and filters file whose folders mirror the
directory layout of the source tree. Settings are read from ` + builder.ConfigFilename + ` if present.`,
	Args: cobra.MaximumNArgs(1),
	Run:  doGenerate,
}

var generateCmd = &cobra.Command{
	Use:     "generate [project path]",
	Aliases: []string{"gen"},
	Short:   "Generate the project files",
	Long:    `Generate the project files. If no project path is given, uses "."`,
	Args:    cobra.MaximumNArgs(1),
	Run:     doGenerate,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&msg.Verbose, "verbose", "v", false, "Print debug messages")

	addGenerateFlags(rootCmd)
	rootCmd.Flags().BoolVar(&flagCheck, "check", false, "Exit with an error if the project files are out of date instead of writing them")

	// vsgen generate subcommand
	rootCmd.AddCommand(generateCmd)
	addGenerateFlags(generateCmd)
	generateCmd.Flags().BoolVar(&flagCheck, "check", false, "Exit with an error if the project files are out of date instead of writing them")
}

// addGenerateFlags registers the flags shared by every command that renders project files
func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagOut, "out", "o", "", "Directory to write the project files to, relative to the project path")
	cmd.Flags().StringVarP(&flagName, "name", "n", "", "Project name, defaults to [project] name or the directory name")
	cmd.Flags().StringVar(&flagToolset, "toolset", "", "Platform toolset, e.g. v143")
	cmd.Flags().VarP(&flagPlatform, "platform", "p", "Target platform, one of "+flagPlatform.HelpString())
	cmd.RegisterFlagCompletionFunc("platform", flagPlatform.CompletionFunc())
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
