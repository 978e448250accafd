package blocklist

import (
	goversion "github.com/hashicorp/go-version"
)

// VersionMatcher decides whether a declared version range is affected by an
// entry's bad versions.
type VersionMatcher interface {
	Matches(versionRange string) bool
}

// AlwaysMatch is the wildcard matcher: every version of the package is bad.
type AlwaysMatch struct{}

func (AlwaysMatch) Matches(string) bool { return true }

// RangeIntersects matches when one of the known bad versions satisfies the
// declared range. Ranges go-version cannot parse (npm operators like ^ and ~,
// or dist-tags like "latest") fall back to exact membership in BadVersions.
type RangeIntersects struct {
	BadVersions []string
}

func (m RangeIntersects) Matches(versionRange string) bool {
	constraints, err := goversion.NewConstraint(versionRange)
	if err != nil {
		for _, bad := range m.BadVersions {
			if bad == versionRange {
				return true
			}
		}
		return false
	}

	for _, bad := range m.BadVersions {
		v, err := goversion.NewVersion(bad)
		if err != nil {
			continue
		}
		if constraints.Check(v) {
			return true
		}
	}
	return false
}

func matcherFor(entry Entry) VersionMatcher {
	if entry.MatchesAnyVersion() {
		return AlwaysMatch{}
	}
	return RangeIntersects{BadVersions: entry.BadVersions}
}

// Matcher resolves dependency declarations against a registry.
type Matcher struct {
	registry *Registry
}

func NewMatcher(registry *Registry) *Matcher {
	return &Matcher{registry: registry}
}

// Match returns the matched registry entry for a declared dependency, if any.
func (m *Matcher) Match(packageName, versionRange string) (Entry, bool) {
	entry, ok := m.registry.Lookup(packageName)
	if !ok {
		return Entry{}, false
	}
	if !matcherFor(entry).Matches(versionRange) {
		return Entry{}, false
	}
	return entry, true
}
