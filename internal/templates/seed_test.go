package templates

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSeed(t *testing.T) {
	seed, err := DefaultSeed()
	require.NoError(t, err)
	require.Equal(t, 10, seed.Len())

	templates := seed.Templates(fixedNow)
	assert.Equal(t, []string{
		"booking-issue", "payment-problem", "instructor-feedback", "membership-inquiry",
		"safety-incident", "app-technical", "class-cancellation", "front-desk",
		"equipment-issue", "retail-product",
	}, catalogIDs(templates))

	safety := templates[4]
	assert.Equal(t, "critical", string(safety.Priority))
	assert.Equal(t, 1, safety.SLAHours)
	require.NotNil(t, safety.LastUsedAt)
	assert.Equal(t, fixedNow.Add(-72*time.Hour), *safety.LastUsedAt)
	for _, tpl := range templates {
		assert.False(t, tpl.IsCustom, tpl.ID)
		assert.NotEmpty(t, tpl.SuggestedTitle, tpl.ID)
	}
}

func TestParseSeedRejectsBadInput(t *testing.T) {
	tests := map[string]string{
		"empty":        "templates: []",
		"missing id":   "templates:\n  - name: A\n    priority: low\n",
		"duplicate id": "templates:\n  - {id: a, name: A, priority: low}\n  - {id: a, name: B, priority: low}\n",
		"bad priority": "templates:\n  - {id: a, name: A, priority: urgent}\n",
		"bad duration": "templates:\n  - {id: a, name: A, priority: low, last_used_ago: soon}\n",
		"not yaml":     "templates: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSeed([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("templates:\n  - {id: lockers, name: Lockers, priority: low, tags: [facility]}\n"), 0o600))

	seed, err := LoadSeedFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, seed.Len())

	seed, err = LoadSeedFile("")
	require.NoError(t, err)
	assert.Equal(t, 10, seed.Len())
}
