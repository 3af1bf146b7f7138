package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <module.wasm>",
		Short: "List the entry points of a guest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mod, cleanup, err := openModule(cmd, args[0])
			if err != nil {
				return err
			}
			defer cleanup()

			fns := mod.Functions()
			if len(fns) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no entry points")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tKIND\tEXPORT")
			for _, fn := range fns {
				kind := "function"
				if fn.Workflow {
					kind = "workflow"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", fn.Name, kind, fn.Export)
			}
			return w.Flush()
		},
	}
}
