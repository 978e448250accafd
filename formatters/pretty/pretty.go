package pretty

import (
	"context"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/rs/zerolog/log"

	"github.com/depsentry/depsentry/results"
)

func NewFormat(out io.Writer) *Format {
	return &Format{out: out}
}

type Format struct {
	out io.Writer
}

func (f *Format) Format(ctx context.Context, report *results.ScanReport) error {
	if report.Count() == 0 {
		log.Info().Msg("No findings returned by scan")
		return nil
	}

	printFindingsTable(f.out, report)
	printSummaryTable(f.out, report)

	return nil
}

func newTable(out io.Writer, mergeRows bool) *tablewriter.Table {
	cfg := tablewriter.Config{
		Row: tw.CellConfig{
			ColMaxWidths: tw.CellWidth{Global: 80},
		},
	}
	if mergeRows {
		cfg.Row.Formatting.MergeMode = tw.MergeVertical
	}
	return tablewriter.NewTable(out, tablewriter.WithConfig(cfg))
}

func printFindingsTable(out io.Writer, report *results.ScanReport) {
	table := newTable(out, true)
	table.Header("Repository", "Type", "Subject", "Details")

	for _, finding := range report.Findings {
		switch finding.Type {
		case results.TypeLifecycleScript:
			for _, hook := range finding.Details.Scripts.Keys() {
				body, _ := finding.Details.Scripts.Get(hook)
				table.Append([]string{finding.Repo, finding.Type, hook, body})
			}
		case results.TypeCompromisedDependency:
			d := finding.Details
			subject := fmt.Sprintf("%s@%s (%s)", d.Package, d.VersionRange, d.Section)
			table.Append([]string{finding.Repo, finding.Type, subject, d.Reason})
		}
	}

	table.Render()
	fmt.Fprint(out, "\n")
}

func printSummaryTable(out io.Writer, report *results.ScanReport) {
	counts := map[string]int{}
	repos := map[string]map[string]bool{}
	for _, finding := range report.Findings {
		counts[finding.Type]++
		if repos[finding.Type] == nil {
			repos[finding.Type] = map[string]bool{}
		}
		repos[finding.Type][finding.Repo] = true
	}

	table := newTable(out, false)
	table.Header("Finding Type", "Findings", "Repositories")

	for _, findingType := range []string{results.TypeLifecycleScript, results.TypeCompromisedDependency} {
		if counts[findingType] == 0 {
			continue
		}
		table.Append([]string{
			findingType,
			fmt.Sprintf("%d", counts[findingType]),
			fmt.Sprintf("%d", len(repos[findingType])),
		})
	}

	fmt.Fprint(out, "\nSummary of findings:\n")
	table.Render()
}
