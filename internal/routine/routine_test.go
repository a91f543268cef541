package routine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	routines := Catalog()
	require.Len(t, routines, 4)

	seen := make(map[string]bool)
	for _, r := range routines {
		assert.NotEmpty(t, r.Name)
		assert.NotEmpty(t, r.Description)
		assert.NotEmpty(t, r.Drills, "routine %q has no drills", r.ID)
		assert.False(t, seen[r.ID], "duplicate routine id %q", r.ID)
		seen[r.ID] = true

		for i, d := range r.Drills {
			assert.Greater(t, d.Distance, 0, "routine %q drill %d", r.ID, i)
			assert.Greater(t, d.TargetAttempts, 0, "routine %q drill %d", r.ID, i)
		}
	}
}

func TestByID(t *testing.T) {
	r, ok := ByID("ladder_drill")
	require.True(t, ok)
	assert.Equal(t, "Ladder Drill", r.Name)
	assert.Len(t, r.Drills, 5)

	_, ok = ByID("nonexistent")
	assert.False(t, ok)
}
