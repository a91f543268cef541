package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"puttPracticeAPI/internal/game"
)

func TestSessionScore(t *testing.T) {
	tests := []struct {
		name       string
		makes      int
		attempts   int
		distance   int
		wantPoints int
		wantPct    float64
	}{
		{name: "perfect short session", makes: 10, attempts: 10, distance: 10, wantPoints: 100, wantPct: 100},
		{name: "half accuracy", makes: 5, attempts: 10, distance: 10, wantPoints: 25, wantPct: 50},
		{name: "long distance scales up", makes: 10, attempts: 10, distance: 30, wantPoints: 300, wantPct: 100},
		{name: "zero makes", makes: 0, attempts: 10, distance: 20, wantPoints: 0, wantPct: 0},
		{name: "single putt made", makes: 1, attempts: 1, distance: 15, wantPoints: 15, wantPct: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points, pct := SessionScore(tt.makes, tt.attempts, tt.distance)
			assert.Equal(t, tt.wantPoints, points)
			assert.Equal(t, tt.wantPct, pct)
		})
	}
}

func TestSessionScoreAccuracyBeatsVolume(t *testing.T) {
	// Same makes from the same distance, but the clean session needed half
	// the attempts. Accuracy feeds the multiplier, so it pays more.
	sloppy, _ := SessionScore(10, 20, 20)
	clean, _ := SessionScore(10, 10, 20)
	assert.Greater(t, clean, sloppy)
}

func TestRoutinePoints(t *testing.T) {
	drills := []Drill{
		{Makes: 10, Attempts: 10, Distance: 10},
		{Makes: 5, Attempts: 10, Distance: 20},
	}

	perDrill1, _ := SessionScore(10, 10, 10)
	perDrill2, _ := SessionScore(5, 10, 20)
	assert.Equal(t, perDrill1+perDrill2, RoutinePoints(drills))
}

func TestRoutinePointsSkipsEmptyDrills(t *testing.T) {
	drills := []Drill{
		{Makes: 0, Attempts: 0, Distance: 10},
		{Makes: 10, Attempts: 10, Distance: 10},
	}
	assert.Equal(t, 100, RoutinePoints(drills))
	assert.Equal(t, 0, RoutinePoints(nil))
}

func TestGamePointsPoints(t *testing.T) {
	g := game.Game{ScoringType: game.ScoringPoints, Target: 50}
	assert.Equal(t, 62, GamePoints(g, game.Result{Score: 62}))
	assert.True(t, GoalAchieved(g, game.Result{Score: 50}))
	assert.False(t, GoalAchieved(g, game.Result{Score: 49}))
}

func TestGamePointsElimination(t *testing.T) {
	g := game.Game{ScoringType: game.ScoringElimination}
	assert.Equal(t, 25, GamePoints(g, game.Result{Won: true}))
	assert.Equal(t, 0, GamePoints(g, game.Result{Won: false}))
	assert.True(t, GoalAchieved(g, game.Result{Won: true}))
}

func TestGamePointsRotations(t *testing.T) {
	g := game.Game{ScoringType: game.ScoringRotations, Distance: 20}

	// A rotations game must pay the same as an equivalent session.
	sessionPoints, _ := SessionScore(30, 50, 20)
	assert.Equal(t, sessionPoints, GamePoints(g, game.Result{TotalMakes: 30, TotalAttempts: 50}))

	assert.Equal(t, 0, GamePoints(g, game.Result{TotalAttempts: 0}))
	assert.False(t, GoalAchieved(g, game.Result{TotalMakes: 50, TotalAttempts: 50}))
}

func TestGamePointsTime(t *testing.T) {
	g := game.Game{ScoringType: game.ScoringTime, Target: 120}

	// Exactly on target: base 25 plus the goal bonus.
	assert.Equal(t, 50, GamePoints(g, game.Result{Score: 120}))
	// Twice the target: base 13 rounded, no bonus.
	assert.Equal(t, 13, GamePoints(g, game.Result{Score: 240}))
	// Near-zero times are capped at 100 base.
	assert.Equal(t, 125, GamePoints(g, game.Result{Score: 1}))
	// A zero time is invalid, not infinitely good.
	assert.Equal(t, 0, GamePoints(g, game.Result{Score: 0}))

	assert.True(t, GoalAchieved(g, game.Result{Score: 119}))
	assert.False(t, GoalAchieved(g, game.Result{Score: 121}))
	assert.False(t, GoalAchieved(g, game.Result{Score: 0}))
}

func TestGamePointsStrokes(t *testing.T) {
	g := game.Game{ScoringType: game.ScoringStrokes, Target: 18}
	assert.Equal(t, 50, GamePoints(g, game.Result{Score: 18}))
	assert.True(t, GoalAchieved(g, game.Result{Score: 17}))
	assert.False(t, GoalAchieved(g, game.Result{Score: 19}))
}

func TestGamePointsDistance(t *testing.T) {
	g := game.Game{ScoringType: game.ScoringDistance, Target: 40}
	assert.Equal(t, 65, GamePoints(g, game.Result{Score: 40}))
	assert.Equal(t, 35, GamePoints(g, game.Result{Score: 35}))
	assert.Equal(t, 0, GamePoints(g, game.Result{Score: -5}))
}

func TestGamePointsStreak(t *testing.T) {
	g := game.Game{ScoringType: game.ScoringStreak, Target: 10}
	assert.Equal(t, 75, GamePoints(g, game.Result{Score: 10}))
	assert.Equal(t, 35, GamePoints(g, game.Result{Score: 7}))
	assert.Equal(t, 0, GamePoints(g, game.Result{Score: -1}))
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 66.7, Round1(66.666))
	assert.Equal(t, 50.0, Round1(50))
	assert.Equal(t, 33.3, Round1(100.0/3))
}
