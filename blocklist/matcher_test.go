package blocklist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcherWildcard(t *testing.T) {
	matcher := NewMatcher(NewRegistry([]Entry{
		{Name: "shai-hulud", Reason: "worm", BadVersions: []string{"*"}},
	}))

	// any declared range matches a wildcard entry
	for _, versionRange := range []string{"", "1.0.0", "^2.0.0", "latest"} {
		entry, ok := matcher.Match("shai-hulud", versionRange)
		require.True(t, ok, "range %q", versionRange)
		assert.Equal(t, "worm", entry.Reason)
	}
}

func TestMatcherUnknownPackage(t *testing.T) {
	matcher := NewMatcher(NewRegistry([]Entry{
		{Name: "shai-hulud", Reason: "worm", BadVersions: []string{"*"}},
	}))

	for _, versionRange := range []string{"", "1.0.0", "^2.0.0", "latest"} {
		_, ok := matcher.Match("left-pad", versionRange)
		assert.False(t, ok)
	}
}

func TestRangeIntersects(t *testing.T) {
	matcher := RangeIntersects{BadVersions: []string{"1.5.0", "2.0.1"}}

	tests := []struct {
		versionRange string
		expected     bool
	}{
		{">= 1.0.0, < 2.0.0", true},  // 1.5.0 satisfies
		{">= 3.0.0", false},          // no bad version satisfies
		{"2.0.1", true},              // exact pin on a bad version
		{"1.4.9", false},             // exact pin on a clean version
		{"^1.0.0", false},            // npm operator, falls back to exact membership
		{"latest", false},            // unparsable, not a bad version literal
		{"1.5.0", true},
	}

	for _, test := range tests {
		t.Run(test.versionRange, func(t *testing.T) {
			assert.Equal(t, test.expected, matcher.Matches(test.versionRange))
		})
	}
}

func TestRangeIntersectsSkipsUnparsableBadVersion(t *testing.T) {
	matcher := RangeIntersects{BadVersions: []string{"not-a-version", "1.5.0"}}
	assert.True(t, matcher.Matches(">= 1.0.0"))
}

func TestAlwaysMatch(t *testing.T) {
	assert.True(t, AlwaysMatch{}.Matches(""))
	assert.True(t, AlwaysMatch{}.Matches("anything"))
}
