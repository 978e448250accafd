package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePackageManifest(t *testing.T) {
	data := []byte(`{
		"name": "example",
		"scripts": {
			"build": "tsc",
			"postinstall": "node setup.js"
		},
		"dependencies": {
			"zzz-last": "1.0.0",
			"aaa-first": "^2.0.0"
		},
		"devDependencies": {
			"typescript": "~5.4.0"
		}
	}`)

	manifest, err := ParsePackageManifest(data)
	require.NoError(t, err)

	assert.Equal(t, "example", manifest.Name)
	assert.Equal(t, "node setup.js", manifest.Scripts["postinstall"])

	// declaration order survives decoding, not lexical order
	assert.Equal(t, []string{"zzz-last", "aaa-first"}, manifest.Dependencies.Keys())

	version, ok := manifest.Dependencies.Get("aaa-first")
	assert.True(t, ok)
	assert.Equal(t, "^2.0.0", version)

	assert.Equal(t, 0, manifest.PeerDependencies.Len())
	assert.Equal(t, 0, manifest.OptionalDependencies.Len())
}

func TestParsePackageManifestEmpty(t *testing.T) {
	manifest, err := ParsePackageManifest([]byte(`{}`))
	require.NoError(t, err)

	assert.Empty(t, manifest.Scripts)
	for _, section := range DependencySections {
		assert.Equal(t, 0, manifest.DependencySection(section).Len())
	}
}

func TestParsePackageManifestInvalid(t *testing.T) {
	tests := map[string]string{
		"not json":           `pname = "example"`,
		"non-string value":   `{"dependencies": {"left-pad": {"version": "1.0.0"}}}`,
		"non-object section": `{"dependencies": ["left-pad"]}`,
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePackageManifest([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestOrderedMapRoundTrip(t *testing.T) {
	var m OrderedMap
	m.Set("preinstall", "echo pre")
	m.Set("install", "echo in")
	m.Set("preinstall", "echo updated") // no duplicate key

	data, err := m.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"preinstall":"echo updated","install":"echo in"}`, string(data))
}

func TestOrderedMapNull(t *testing.T) {
	var m OrderedMap
	require.NoError(t, m.UnmarshalJSON([]byte(`null`)))
	assert.Equal(t, 0, m.Len())
}
