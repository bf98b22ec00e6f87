package main

import (
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"thumbgen/internal/manifest"
	"thumbgen/internal/thumbnail"
)

// renderWorklist numbers the planned items in generation order.
func renderWorklist(items []manifest.WorkItem) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Category", "Part"})
	for i, item := range items {
		tw.AppendRow(table.Row{i + 1, item.Category, item.Part})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func renderReport(report thumbnail.Report) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Category", "Part", "Bytes", "Time", "Output"})

	var total int
	for _, item := range report.Items {
		output := item.Output
		if output == "" {
			output = "-"
		}
		total += item.Bytes
		tw.AppendRow(table.Row{
			item.Category,
			item.Part,
			strconv.Itoa(item.Bytes),
			item.Duration.Round(10 * time.Millisecond).String(),
			output,
		})
	}
	if len(report.Items) > 1 {
		tw.AppendFooter(table.Row{"", strconv.Itoa(len(report.Items)) + " parts", strconv.Itoa(total), report.Elapsed().Round(time.Second).String(), ""})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft, AlignFooter: text.AlignRight},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft, AlignFooter: text.AlignRight},
	})
	return tw.Render()
}
