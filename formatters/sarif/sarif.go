package sarif

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/depsentry/depsentry/docs"
	"github.com/depsentry/depsentry/models"
	"github.com/depsentry/depsentry/results"
)

const (
	RuleLifecycleScript       = "npm_lifecycle_script"
	RuleCompromisedDependency = "npm_compromised_dependency"
)

var ruleTitles = map[string]string{
	RuleLifecycleScript:       "npm install lifecycle script",
	RuleCompromisedDependency: "Known compromised npm dependency",
}

func NewFormat(out io.Writer, version string) *Format {
	return &Format{
		out:     out,
		version: version,
	}
}

type Format struct {
	out     io.Writer
	version string
}

func (f *Format) Format(ctx context.Context, report *results.ScanReport) error {
	sarifReport, err := sarif.New(sarif.Version210)
	if err != nil {
		return err
	}

	pages := docs.GetPagesContent()

	run := sarif.NewRunWithInformationURI("depsentry", "https://github.com/depsentry/depsentry")
	run.Tool.Driver.WithSemanticVersion(f.version)

	for _, finding := range report.Findings {
		ruleID := ruleIDFor(finding.Type)

		run.AddRule(ruleID).
			WithName(ruleTitles[ruleID]).
			WithDescription(ruleTitles[ruleID]).
			WithFullDescription(
				sarif.NewMultiformatMessageString(ruleTitles[ruleID]),
			).
			WithMarkdownHelp(pages[ruleID])

		run.AddDistinctArtifact(models.ManifestPath)

		run.CreateResultForRule(ruleID).
			WithLevel("warning").
			WithMessage(sarif.NewTextMessage(messageFor(finding))).
			AddLocation(
				sarif.NewLocationWithPhysicalLocation(
					sarif.NewPhysicalLocation().
						WithArtifactLocation(
							sarif.NewSimpleArtifactLocation(models.ManifestPath),
						).
						WithRegion(
							sarif.NewSimpleRegion(1, 1),
						),
				),
			)
	}

	sarifReport.AddRun(run)

	return sarifReport.PrettyWrite(f.out)
}

func ruleIDFor(findingType string) string {
	if findingType == results.TypeLifecycleScript {
		return RuleLifecycleScript
	}
	return RuleCompromisedDependency
}

func messageFor(finding results.Finding) string {
	switch finding.Type {
	case results.TypeLifecycleScript:
		return fmt.Sprintf("%s: install lifecycle scripts present: %s",
			finding.Repo, strings.Join(finding.Details.Scripts.Keys(), ", "))
	default:
		d := finding.Details
		return fmt.Sprintf("%s: %s@%s in %s is a known compromised package: %s",
			finding.Repo, d.Package, d.VersionRange, d.Section, d.Reason)
	}
}
