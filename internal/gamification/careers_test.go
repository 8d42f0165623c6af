package gamification

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCareers(t *testing.T) {
	c := DefaultCareers()

	assert.Len(t, c.All(), 8)
	assert.Equal(t, "Concurseiro", c.Lookup("").Ranks[0])
	assert.Equal(t, "CTO", c.Lookup("ti").Ranks[5])
	assert.False(t, c.Has("astronaut"))
}

func TestLoadCareers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "careers.yaml")
	content := `default: astro
careers:
  - id: astro
    label: Astronomy
    ranks: [Stargazer, Observer, Researcher, Astronomer, Director, Laureate]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := LoadCareers(path)
	require.NoError(t, err)

	assert.Len(t, c.All(), 9)
	assert.Equal(t, "astro", c.DefaultID())
	assert.Equal(t, "Stargazer", c.Lookup("missing").Ranks[0])
	assert.Equal(t, "Junior", c.Lookup("ti").Ranks[0])
}

func TestLoadCareers_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"short rank list", "careers:\n  - id: x\n    ranks: [a, b]\n"},
		{"missing id", "careers:\n  - label: x\n    ranks: [a, b, c, d, e, f]\n"},
		{"unknown default", "default: nope\n"},
		{"bad yaml", "careers: [\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))
			_, err := LoadCareers(path)
			assert.Error(t, err)
		})
	}

	_, err := LoadCareers(filepath.Join(dir, "absent.yaml"))
	assert.Error(t, err)

	c, err := LoadCareers("")
	require.NoError(t, err)
	assert.Equal(t, DefaultCareerID, c.DefaultID())
}
