// Package blocklist holds the registry of npm packages known to have been
// compromised or weaponized, and decides whether a declared dependency
// matches one of them.
package blocklist

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed compromised_packages.yml
var defaultEntries []byte

// Wildcard in BadVersions flags every version of a package.
const Wildcard = "*"

type Entry struct {
	Name        string   `json:"name" yaml:"name"`
	Reason      string   `json:"reason" yaml:"reason"`
	BadVersions []string `json:"bad_versions" yaml:"bad_versions"`
}

// MatchesAnyVersion reports whether the entry carries the wildcard specifier.
func (e Entry) MatchesAnyVersion() bool {
	for _, v := range e.BadVersions {
		if v == Wildcard {
			return true
		}
	}
	return false
}

// Registry is an immutable name-to-entry table. Construct it once at startup
// and share it; Lookup is safe for concurrent use.
type Registry struct {
	entries map[string]Entry
}

func NewRegistry(entries []Entry) *Registry {
	registry := &Registry{entries: make(map[string]Entry, len(entries))}
	for _, entry := range entries {
		registry.entries[entry.Name] = entry
	}
	return registry
}

func (r *Registry) Lookup(packageName string) (Entry, bool) {
	entry, ok := r.entries[packageName]
	return entry, ok
}

func (r *Registry) Len() int {
	return len(r.entries)
}

// DefaultEntries parses the embedded blocklist data.
func DefaultEntries() ([]Entry, error) {
	var entries []Entry
	if err := yaml.Unmarshal(defaultEntries, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse embedded blocklist: %w", err)
	}
	return entries, nil
}

// DefaultRegistry builds a registry from the embedded blocklist data.
func DefaultRegistry() (*Registry, error) {
	entries, err := DefaultEntries()
	if err != nil {
		return nil, err
	}
	return NewRegistry(entries), nil
}

// LoadEntriesFile reads additional blocklist entries from a YAML file so
// operators can extend the embedded data without rebuilding.
func LoadEntriesFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read blocklist file: %w", err)
	}
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse blocklist file %s: %w", path, err)
	}
	return entries, nil
}
