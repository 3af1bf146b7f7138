package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/middle-dev/middle-sdk/application/codec"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <module.wasm> <function>",
		Short: "Print the description and schemas of an entry point",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mod, cleanup, err := openModule(cmd, args[0])
			if err != nil {
				return err
			}
			defer cleanup()

			info, err := mod.Info(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			data, err := codec.ToJSON(info)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
