package achievement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puttPracticeAPI/internal/session"
	"puttPracticeAPI/internal/stats"
	"puttPracticeAPI/internal/user"
)

func emptyContext() Context {
	return Context{User: &user.User{}, RoutineCounts: map[string]int{}}
}

func TestCatalogIsWellFormed(t *testing.T) {
	defs := Catalog()
	assert.Len(t, defs, 40)

	seen := make(map[string]bool)
	for _, d := range defs {
		assert.NotEmpty(t, d.ID)
		assert.NotEmpty(t, d.Name)
		assert.NotEmpty(t, d.Description)
		assert.Greater(t, d.Points, 0)
		assert.False(t, seen[d.ID], "duplicate achievement id %q", d.ID)
		seen[d.ID] = true
	}
}

func TestCatalogOnlyChallengeBadgeHasNoPredicate(t *testing.T) {
	for _, d := range Catalog() {
		if d.ID == ChallengeAccepted {
			assert.Nil(t, d.Predicate)
			continue
		}
		assert.NotNil(t, d.Predicate, "achievement %q needs a predicate", d.ID)
	}
}

func TestNoPredicateFiresOnEmptyContext(t *testing.T) {
	c := emptyContext()
	for _, d := range Catalog() {
		if d.Predicate == nil {
			continue
		}
		assert.False(t, d.Predicate(c), "achievement %q unlocked for a brand new user", d.ID)
	}
}

func TestByID(t *testing.T) {
	d, ok := ByID("first_steps")
	require.True(t, ok)
	assert.Equal(t, "First Steps", d.Name)

	_, ok = ByID("no_such_badge")
	assert.False(t, ok)
}

func TestFirstSteps(t *testing.T) {
	d, _ := ByID("first_steps")
	c := emptyContext()
	assert.False(t, d.Predicate(c))

	c.User.TotalSessions = 1
	assert.True(t, d.Predicate(c))
}

func TestPerfect10(t *testing.T) {
	d, _ := ByID("perfect_10")
	c := emptyContext()
	c.Sessions = []session.Session{{Makes: 10, Attempts: 10, Percentage: 100}}
	assert.True(t, d.Predicate(c))

	// 9 perfect makes is not enough, 10 makes at 90% is not either.
	c.Sessions = []session.Session{
		{Makes: 9, Attempts: 9, Percentage: 100},
		{Makes: 18, Attempts: 20, Percentage: 90},
	}
	assert.False(t, d.Predicate(c))
}

func TestPrecisionProRequiresDistance(t *testing.T) {
	d, _ := ByID("precision_pro")
	c := emptyContext()

	c.Sessions = []session.Session{{Makes: 19, Attempts: 20, Percentage: 95, Distance: 15}}
	assert.False(t, d.Predicate(c))

	c.Sessions = []session.Session{{Makes: 19, Attempts: 20, Percentage: 95, Distance: 20}}
	assert.True(t, d.Predicate(c))
}

func TestStreakBadges(t *testing.T) {
	c := emptyContext()
	c.Stats = stats.Stats{CurrentStreak: 14}

	for id, want := range map[string]bool{
		"streak_7":  true,
		"streak_14": true,
		"streak_30": false,
	} {
		d, ok := ByID(id)
		require.True(t, ok)
		assert.Equal(t, want, d.Predicate(c), id)
	}
}

func TestRoutineExplorer(t *testing.T) {
	d, _ := ByID("routine_explorer")
	c := emptyContext()
	c.RoutineCounts = map[string]int{
		"circle_1_confidence": 1,
		"ladder_drill":        2,
		"consistency_builder": 1,
	}
	assert.False(t, d.Predicate(c))

	c.RoutineCounts["distance_challenge"] = 1
	assert.True(t, d.Predicate(c))
}

func TestLeaderboardBadgesIgnoreUnrankedUsers(t *testing.T) {
	c := emptyContext()
	c.Rank = 0 // hidden from leaderboard or no rank yet

	for _, id := range []string{"top_10", "podium_finish", "number_one"} {
		d, ok := ByID(id)
		require.True(t, ok)
		assert.False(t, d.Predicate(c), id)
	}

	c.Rank = 1
	for _, id := range []string{"top_10", "podium_finish", "number_one"} {
		d, _ := ByID(id)
		assert.True(t, d.Predicate(c), id)
	}
}

func TestProfileBadges(t *testing.T) {
	discs, _ := ByID("disc_collector")
	full, _ := ByID("profile_complete")

	c := emptyContext()
	assert.False(t, discs.Predicate(c))
	assert.False(t, full.Predicate(c))

	c.User.FavoriteDiscs = user.FavoriteDiscs{Putter: "P2", Midrange: "M4", Driver: "D1"}
	assert.True(t, discs.Predicate(c))
	assert.False(t, full.Predicate(c), "profile badge still needs gender and birthday")

	gender := user.GenderMale
	birthday := "1994-06-01"
	c.User.Gender = &gender
	c.User.Birthday = &birthday
	assert.True(t, full.Predicate(c))
}
