// vsgen manifest [path]
package cmd

import (
	"io"
	"os"

	"github.com/qobs-build/vsgen/internal/manifest"
	"github.com/qobs-build/vsgen/internal/msg"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// manifestDump is the YAML view of a scanned tree. Dirs are computed, so they are copied in explicitly.
type manifestDump struct {
	manifest.Manifest `yaml:",inline"`
	Dirs              []string `yaml:"dirs"`
}

func writeManifest(w io.Writer, m *manifest.Manifest) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(manifestDump{Manifest: *m, Dirs: m.Dirs()}); err != nil {
		return err
	}
	return enc.Close()
}

var manifestCmd = &cobra.Command{
	Use:   "manifest [project path]",
	Short: "Print the files and directories the project would contain",
	Long:  `Scan the source tree and print the collected items and filter directories as YAML. Nothing is written.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		b, done := newBuilder(cmd, args)
		m, err := b.Scan()
		done()
		if err != nil {
			msg.Fatal("%v", err)
		}
		if err := writeManifest(os.Stdout, m); err != nil {
			msg.Fatal("encode manifest: %v", err)
		}
	},
}

func init() {
	// vsgen manifest subcommand
	rootCmd.AddCommand(manifestCmd)
}
