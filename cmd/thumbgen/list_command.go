package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the thumbnails a run would generate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			items, err := ctx.worklist(logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "Nothing to generate.")
				return nil
			}
			fmt.Fprintln(out, renderWorklist(items))
			return nil
		},
	}
	ctx.plan.register(cmd)
	return cmd
}
