package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/platewise/reviewpipe/internal/domain"
	"github.com/platewise/reviewpipe/internal/usecase"
)

func printSummary(w io.Writer, report *usecase.Report, outputPath string) {
	if report.Harvest != nil {
		fmt.Fprintln(w, renderHarvest(report.Harvest))
	}
	if report.Match != nil {
		fmt.Fprintln(w, renderMatch(report.Match))
	}
	if report.Generate != nil {
		fmt.Fprintln(w, renderGenerate(report.Generate, outputPath))
	}
}

func newTable(title string) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(title)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	return tw
}

func renderHarvest(stats *usecase.HarvestStats) string {
	tw := newTable("Harvest")
	tw.AppendHeader(table.Row{"Source", "Reviews", "Failed calls"})
	for _, source := range []domain.Source{domain.SourceGoogle, domain.SourceYelp} {
		tw.AppendRow(table.Row{string(source), stats.Reviews[source], stats.Failures[source]})
	}
	tw.AppendFooter(table.Row{
		fmt.Sprintf("%d restaurants, %d skipped", stats.Restaurants, stats.Skipped),
		stats.Reviews[domain.SourceGoogle] + stats.Reviews[domain.SourceYelp],
		stats.Failures[domain.SourceGoogle] + stats.Failures[domain.SourceYelp],
	})
	return tw.Render()
}

func renderMatch(stats *domain.MatchStats) string {
	tw := newTable("Match")
	tw.AppendHeader(table.Row{"Outcome", "Count"})
	tw.AppendRow(table.Row{"reviews", stats.Reviews})
	tw.AppendRow(table.Row{"name matches", stats.Name})
	tw.AppendRow(table.Row{"keyword matches", stats.Keyword})

	reasons := make([]string, 0, len(stats.Reasons))
	for reason := range stats.Reasons {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		tw.AppendRow(table.Row{"rejected: " + reason, stats.Reasons[reason]})
	}

	tw.AppendFooter(table.Row{"final matches", strconv.Itoa(stats.Final)})
	return tw.Render()
}

func renderGenerate(stats *usecase.GenerateStats, outputPath string) string {
	tw := newTable("Generate")
	tw.AppendHeader(table.Row{"Output", "Statements"})
	tw.AppendRow(table.Row{outputPath, stats.Statements})
	tw.AppendFooter(table.Row{"batch " + stats.BatchID, ""})
	return tw.Render()
}
