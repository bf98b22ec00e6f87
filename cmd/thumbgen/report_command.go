package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"thumbgen/internal/thumbnail"
)

func newReportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "report <run.json>",
		Short: "Summarize a run report written with --report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := thumbnail.LoadReport(args[0])
			if err != nil {
				return fmt.Errorf("load report: %w", err)
			}
			out := cmd.OutOrStdout()
			mode := "write"
			if report.DryRun {
				mode = "dry run"
			}
			fmt.Fprintf(out, "Run %s (%s) started %s, %d thumbnails in %.1f minutes\n",
				report.RunID, mode, report.StartedAt.Local().Format("2006-01-02 15:04:05"),
				len(report.Items), report.Elapsed().Minutes())
			if len(report.Items) > 0 {
				fmt.Fprintln(out, renderReport(report))
			}
			return nil
		},
	}
}
