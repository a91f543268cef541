package challenge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"puttPracticeAPI/internal/session"
)

func TestExpired(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	c := &Challenge{StartDate: start}

	assert.False(t, c.Expired(start))
	assert.False(t, c.Expired(start.Add(Lifetime-time.Second)))
	assert.True(t, c.Expired(start.Add(Lifetime)))
	assert.True(t, c.Expired(start.AddDate(0, 1, 0)))
}

func TestTemplatesCoverEveryType(t *testing.T) {
	seen := make(map[Type]bool)
	for _, tpl := range Templates() {
		assert.NotEmpty(t, tpl.Description)
		assert.Greater(t, tpl.Target, 0)
		assert.Greater(t, tpl.Reward, 0)
		assert.False(t, seen[tpl.Type], "duplicate template for type %q", tpl.Type)
		seen[tpl.Type] = true
	}

	for _, typ := range []Type{TypeAccuracy, TypeDistance, TypeVolume, TypeStreak, TypePoints} {
		assert.True(t, seen[typ], "no template for type %q", typ)
	}
}

func TestSatisfiedAccuracy(t *testing.T) {
	c := &Challenge{Type: TypeAccuracy, Target: 80}
	assert.True(t, Satisfied(c, &session.Session{Percentage: 80}, 0, 0))
	assert.True(t, Satisfied(c, &session.Session{Percentage: 92.5}, 0, 0))
	assert.False(t, Satisfied(c, &session.Session{Percentage: 79.9}, 0, 0))
}

func TestSatisfiedDistance(t *testing.T) {
	c := &Challenge{Type: TypeDistance, Target: 30}
	assert.True(t, Satisfied(c, &session.Session{Distance: 30}, 0, 0))
	assert.False(t, Satisfied(c, &session.Session{Distance: 29}, 0, 0))
}

func TestSatisfiedPoints(t *testing.T) {
	c := &Challenge{Type: TypePoints, Target: 150}
	assert.True(t, Satisfied(c, &session.Session{Points: 150}, 0, 0))
	assert.False(t, Satisfied(c, &session.Session{Points: 149}, 0, 0))
}

func TestSatisfiedVolumeReadsWeeklyMakes(t *testing.T) {
	c := &Challenge{Type: TypeVolume, Target: 100}

	// The triggering session alone doesn't matter; the aggregated weekly
	// total does.
	assert.True(t, Satisfied(c, &session.Session{Makes: 5}, 100, 0))
	assert.False(t, Satisfied(c, &session.Session{Makes: 99}, 99, 0))
}

func TestSatisfiedStreakReadsCurrentStreak(t *testing.T) {
	c := &Challenge{Type: TypeStreak, Target: 3}
	assert.True(t, Satisfied(c, &session.Session{}, 0, 3))
	assert.False(t, Satisfied(c, &session.Session{}, 0, 2))
}

func TestSatisfiedUnknownType(t *testing.T) {
	c := &Challenge{Type: Type("bogus"), Target: 1}
	assert.False(t, Satisfied(c, &session.Session{Percentage: 100}, 100, 100))
}
