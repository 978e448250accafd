// Package audit inspects a single package manifest for supply-chain risk
// signals. It performs no I/O.
package audit

import (
	"strings"

	"github.com/package-url/packageurl-go"

	"github.com/depsentry/depsentry/blocklist"
	"github.com/depsentry/depsentry/models"
	"github.com/depsentry/depsentry/results"
)

// LifecycleHooks are the npm install-time hooks that run arbitrary commands
// on the machine installing the package, in the fixed order they are checked.
var LifecycleHooks = []string{"preinstall", "install", "postinstall", "prepare"}

type Auditor struct {
	matcher *blocklist.Matcher
}

func NewAuditor(registry *blocklist.Registry) *Auditor {
	return &Auditor{matcher: blocklist.NewMatcher(registry)}
}

// Audit returns the findings for one repository's manifest: at most one
// lifecycle-script finding bundling all risky hooks, followed by one
// compromised-dependency finding per blocklisted entry, in section order then
// manifest declaration order. A nil manifest yields no findings.
func (a *Auditor) Audit(repoFullName string, manifest *models.PackageManifest) []results.Finding {
	if manifest == nil {
		return nil
	}

	var findings []results.Finding

	var risky models.OrderedMap
	for _, hook := range LifecycleHooks {
		if body, ok := manifest.Scripts[hook]; ok {
			risky.Set(hook, body)
		}
	}
	if risky.Len() > 0 {
		findings = append(findings, results.Finding{
			Type:    results.TypeLifecycleScript,
			Repo:    repoFullName,
			Details: results.Details{Scripts: &risky},
		})
	}

	for _, section := range models.DependencySections {
		deps := manifest.DependencySection(section)
		for _, name := range deps.Keys() {
			versionRange, _ := deps.Get(name)
			entry, ok := a.matcher.Match(name, versionRange)
			if !ok {
				continue
			}
			findings = append(findings, results.Finding{
				Type: results.TypeCompromisedDependency,
				Repo: repoFullName,
				Details: results.Details{
					Section:      section,
					Package:      name,
					Purl:         npmPurl(name),
					VersionRange: versionRange,
					Reason:       entry.Reason,
					BadVersions:  entry.BadVersions,
				},
			})
		}
	}

	return findings
}

func npmPurl(name string) string {
	namespace := ""
	if strings.HasPrefix(name, "@") {
		if i := strings.Index(name, "/"); i > 0 {
			namespace, name = name[:i], name[i+1:]
		}
	}
	return packageurl.NewPackageURL(packageurl.TypeNPM, namespace, name, "", nil, "").ToString()
}
