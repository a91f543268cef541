package scoring

import (
	"math"

	"puttPracticeAPI/internal/game"
)

// SessionScore converts raw putting numbers into points and a make
// percentage. Points scale linearly with volume (makes) and distance, and
// accuracy feeds both the direct multiplier and the makes count, so a short
// high-volume sloppy session can lose to a long accurate one.
//
// Callers must have validated attempts >= 1 first; this function does not
// guard the division itself.
func SessionScore(makes, attempts, distance int) (points int, percentage float64) {
	percentage = Round1(float64(makes) / float64(attempts) * 100)

	distanceMultiplier := float64(distance) / 10
	accuracyMultiplier := percentage / 100

	points = int(math.Round(float64(makes) * distanceMultiplier * accuracyMultiplier * 10))
	return points, percentage
}

// Drill is one scored step of a routine.
type Drill struct {
	Makes    int
	Attempts int
	Distance int
}

// RoutinePoints sums per-drill session scores. Each drill scores
// independently; there is no completion bonus on top of the sum.
func RoutinePoints(drills []Drill) int {
	total := 0
	for _, d := range drills {
		if d.Attempts < 1 {
			continue
		}
		p, _ := SessionScore(d.Makes, d.Attempts, d.Distance)
		total += p
	}
	return total
}

// eliminationWin is the fixed award for winning an elimination game; a loss
// pays nothing.
const eliminationWin = 25

// goalBonus is added on top of the base mapping for the four gated types
// (time, strokes, distance, streak) when the game's goal is met.
const goalBonus = 25

// GamePoints maps a game result to points. points-type games pass the
// entered score through untouched; rotations reuse the session formula on
// the aggregate makes/attempts so a rotations game and an equivalent
// session are worth the same. The gated types use a base mapping that is
// monotone in performance plus a flat bonus when the goal is achieved.
func GamePoints(g game.Game, r game.Result) int {
	switch g.ScoringType {
	case game.ScoringPoints:
		return int(r.Score)

	case game.ScoringElimination:
		if r.Won {
			return eliminationWin
		}
		return 0

	case game.ScoringRotations:
		if r.TotalAttempts < 1 {
			return 0
		}
		p, _ := SessionScore(r.TotalMakes, r.TotalAttempts, g.Distance)
		return p

	case game.ScoringTime, game.ScoringStrokes:
		// Lower is better: score at target pays 25, halving it pays 50,
		// capped at 100 so a near-zero result can't explode.
		if r.Score <= 0 {
			return 0
		}
		base := int(math.Round(float64(g.Target) / r.Score * 25))
		if base > 100 {
			base = 100
		}
		if GoalAchieved(g, r) {
			base += goalBonus
		}
		return base

	case game.ScoringDistance:
		base := int(math.Round(r.Score))
		if base < 0 {
			base = 0
		}
		if GoalAchieved(g, r) {
			base += goalBonus
		}
		return base

	case game.ScoringStreak:
		base := int(r.Score) * 5
		if base < 0 {
			base = 0
		}
		if GoalAchieved(g, r) {
			base += goalBonus
		}
		return base
	}

	return 0
}

// GoalAchieved is the per-type success rule table: time and strokes want
// lower-or-equal, points/distance/streak want higher-or-equal, elimination
// is simply the win flag. Rotations games have no goal gate.
func GoalAchieved(g game.Game, r game.Result) bool {
	switch g.ScoringType {
	case game.ScoringTime:
		return r.Score > 0 && r.Score <= float64(g.Target)
	case game.ScoringStrokes:
		return r.Score > 0 && r.Score <= float64(g.Target)
	case game.ScoringPoints:
		return r.Score >= float64(g.Target)
	case game.ScoringDistance:
		return r.Score >= float64(g.Target)
	case game.ScoringStreak:
		return r.Score >= float64(g.Target)
	case game.ScoringElimination:
		return r.Won
	}
	return false
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
