package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogCoversEveryScoringType(t *testing.T) {
	games := Catalog()
	require.Len(t, games, 7)

	seenID := make(map[string]bool)
	seenType := make(map[ScoringType]bool)
	for _, g := range games {
		assert.NotEmpty(t, g.Name)
		assert.NotEmpty(t, g.Description)
		assert.False(t, seenID[g.ID], "duplicate game id %q", g.ID)
		seenID[g.ID] = true
		seenType[g.ScoringType] = true
	}

	for _, typ := range []ScoringType{
		ScoringTime, ScoringStrokes, ScoringPoints, ScoringDistance,
		ScoringStreak, ScoringElimination, ScoringRotations,
	} {
		assert.True(t, seenType[typ], "no game with scoring type %q", typ)
	}
}

func TestCatalogTargets(t *testing.T) {
	for _, g := range Catalog() {
		switch g.ScoringType {
		case ScoringElimination:
			assert.Zero(t, g.Target, "elimination game %q should have no target", g.ID)
		case ScoringRotations:
			assert.Greater(t, g.Distance, 0, "rotations game %q needs a distance", g.ID)
			assert.Greater(t, g.Turns, 0, "rotations game %q needs turns", g.ID)
		default:
			assert.Greater(t, g.Target, 0, "game %q needs a target", g.ID)
		}
	}
}

func TestByID(t *testing.T) {
	g, ok := ByID("around_the_world")
	require.True(t, ok)
	assert.Equal(t, ScoringRotations, g.ScoringType)

	_, ok = ByID("nope")
	assert.False(t, ok)
}
