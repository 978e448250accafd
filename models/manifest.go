package models

import (
	"encoding/json"
	"fmt"
)

// ManifestPath is where the npm package descriptor lives in every repository.
const ManifestPath = "package.json"

// DependencySections lists the manifest dependency sections in the fixed
// order they are audited.
var DependencySections = []string{
	"dependencies",
	"devDependencies",
	"peerDependencies",
	"optionalDependencies",
}

// PackageManifest is the subset of package.json the auditor cares about.
// Dependency sections keep their declaration order.
type PackageManifest struct {
	Name                 string            `json:"name"`
	Scripts              map[string]string `json:"scripts"`
	Dependencies         OrderedMap        `json:"dependencies"`
	DevDependencies      OrderedMap        `json:"devDependencies"`
	PeerDependencies     OrderedMap        `json:"peerDependencies"`
	OptionalDependencies OrderedMap        `json:"optionalDependencies"`
}

func ParsePackageManifest(data []byte) (*PackageManifest, error) {
	var manifest PackageManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("invalid package manifest: %w", err)
	}
	return &manifest, nil
}

// DependencySection returns the named dependency section, or nil for an
// unrecognized section name.
func (m *PackageManifest) DependencySection(section string) *OrderedMap {
	switch section {
	case "dependencies":
		return &m.Dependencies
	case "devDependencies":
		return &m.DevDependencies
	case "peerDependencies":
		return &m.PeerDependencies
	case "optionalDependencies":
		return &m.OptionalDependencies
	default:
		return nil
	}
}
