// Command curriculumctl checks, normalizes and exports course curricula from the command line
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand(openTreeReader).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(open treeReaderOpener) *cobra.Command {
	root := &cobra.Command{
		Use:          "curriculumctl",
		Short:        "Work with course curricula stored as YAML or JSON files",
		SilenceUsage: true,
	}
	root.AddCommand(
		newCheckCommand(),
		newNormalizeCommand(),
		newExportCommand(open),
	)
	return root
}
