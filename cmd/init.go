// vsgen init [path]
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/qobs-build/vsgen/internal/builder"
	"github.com/qobs-build/vsgen/internal/msg"
	"github.com/spf13/cobra"
)

// writefile creates the file unless it already exists. Returns whether it was written.
func writefile(content string, elem ...string) (bool, error) {
	path := filepath.Join(elem...)
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("create file %s: %w", path, err)
	}
	fmt.Fprintf(color.Output, "%s file: %s\n", color.HiGreenString("Created"), filepath.ToSlash(path))
	return true, nil
}

func mkdir(elem ...string) error {
	path := filepath.Join(elem...)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}

func getProgramName() string {
	if len(os.Args) == 0 {
		return "vsgen"
	}
	basename := filepath.Base(os.Args[0])
	return strings.TrimSuffix(basename, filepath.Ext(basename))
}

// starterConfig returns a commented configuration listing the directories that exist in dir
func starterConfig(dir, name string) string {
	var dirs []string
	for _, d := range []string{"src", "source", "include", "includes", "lib"} {
		if stat, err := os.Stat(filepath.Join(dir, d)); err == nil && stat.IsDir() {
			dirs = append(dirs, `"`+d+`"`)
		}
	}
	if len(dirs) == 0 {
		dirs = []string{`"src"`}
	}

	return `[project]
name = "` + name + `"
# platform = "x64"
# toolset = "v143"
configurations = ["Debug", "Release"]

[sources]
dirs = [` + strings.Join(dirs, ", ") + `]
# compile-ext = ["cpp", "c"]
# include-ext = ["hpp", "h"]
# exclude = ["src/third_party/**"]

# [items]
# compile = ["tools/*.c"]
# resources = ["resources/app.rc"]
# none = ["README.md"]

[settings]
include-path = [` + strings.Join(dirs, ", ") + `]
multi-processor = true

[configuration.Debug]
debug = true
defines = ["_DEBUG"]

[configuration.Release]
defines = ["NDEBUG"]

# sections can be made conditional, for example:
# [settings.'target_os == "windows"']
# libraries = ["ws2_32.lib"]
`
}

// initIn writes a starter configuration into dir, creating it if needed. An existing configuration
// is left untouched and reported with written == false.
func initIn(dir string) (written bool, err error) {
	if err := mkdir(dir); err != nil {
		return false, err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return false, err
	}

	written, err = writefile(starterConfig(dir, filepath.Base(abs)), dir, builder.ConfigFilename)
	if err != nil || !written {
		return written, err
	}

	programName := getProgramName()
	fmt.Fprintf(color.Output, "You can now do %s to generate the project files.\n", color.HiCyanString(programName+" "+dir))
	return true, nil
}

var initCmd = &cobra.Command{
	Use:   "init [project path]",
	Short: "Create a " + builder.ConfigFilename + " in the project directory",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}
		written, err := initIn(dir)
		if err != nil {
			msg.Fatal("%v", err)
		}
		if !written {
			msg.Warn("%s already exists in %s, leaving it untouched", builder.ConfigFilename, dir)
		}
	},
}

func init() {
	// vsgen init subcommand
	rootCmd.AddCommand(initCmd)
}
