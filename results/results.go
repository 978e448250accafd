package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/depsentry/depsentry/models"
)

const (
	TypeLifecycleScript       = "lifecycle-script"
	TypeCompromisedDependency = "compromised-dependency"
)

// Finding is one reported risk signal tied to a repository. Type
// discriminates which Details fields are populated.
type Finding struct {
	Type    string  `json:"type"`
	Repo    string  `json:"repo"`
	Details Details `json:"details"`
}

type Details struct {
	// lifecycle-script: risky hooks in fixed hook order, name to body.
	Scripts *models.OrderedMap `json:"scripts,omitempty"`

	// compromised-dependency
	Section      string   `json:"section,omitempty"`
	Package      string   `json:"package,omitempty"`
	Purl         string   `json:"purl,omitempty"`
	VersionRange string   `json:"version_range,omitempty"`
	Reason       string   `json:"reason,omitempty"`
	BadVersions  []string `json:"bad_versions,omitempty"`
}

// ScanReport aggregates findings across all scanned repositories in
// enumeration order.
type ScanReport struct {
	Findings []Finding
}

func (r *ScanReport) Append(findings ...Finding) {
	r.Findings = append(r.Findings, findings...)
}

func (r *ScanReport) Count() int {
	return len(r.Findings)
}

// WriteFile persists the findings as a pretty-printed JSON array, overwriting
// any previous report, and returns the resolved path.
func (r *ScanReport) WriteFile(path string) (string, error) {
	findings := r.Findings
	if findings == nil {
		findings = []Finding{}
	}

	data, err := json.MarshalIndent(findings, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal scan report: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write scan report: %w", err)
	}

	resolved, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return resolved, nil
}
