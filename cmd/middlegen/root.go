package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/middle-dev/middle-sdk/internal/generator"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "middlegen [dir]",
		Short: "Generate middle entry points for a guest package",
		Long: `middlegen scans a Go package for functions annotated with //middle:fn
or //middle:workflow and writes two files next to them:

  middle_exports.go         registers every entry point at init
  middle_exports_wasip1.go  exports the entry points from a wasip1 build

The package defaults to the current directory.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE:         runGenerate,
	}
	cmd.Flags().StringP("out", "o", "", "Output directory (default: the package directory)")
	cmd.Flags().Bool("dry-run", false, "Print generated files instead of writing them")
	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = dir
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	files, err := generator.New().GenerateDir(dir)
	if err != nil {
		return err
	}

	if dryRun {
		for _, f := range files {
			fmt.Fprintf(cmd.OutOrStdout(), "// --- %s ---\n%s", f.Name, f.Content)
		}
		return nil
	}

	if err := generator.WriteFiles(out, files); err != nil {
		return err
	}
	for _, f := range files {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", f.Name)
	}
	return nil
}
