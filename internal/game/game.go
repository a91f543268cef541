package game

import (
	"time"

	"github.com/google/uuid"
)

// ScoringType is the closed set of mini-game scoring variants. All scoring
// and goal-check logic dispatches on this value through a single table, so
// a new variant only needs a catalog entry and a scoring branch.
type ScoringType string

const (
	ScoringTime        ScoringType = "time"
	ScoringStrokes     ScoringType = "strokes"
	ScoringPoints      ScoringType = "points"
	ScoringDistance    ScoringType = "distance"
	ScoringStreak      ScoringType = "streak"
	ScoringElimination ScoringType = "elimination"
	ScoringRotations   ScoringType = "rotations"
)

// Game is a static catalog entry for a mini-game.
type Game struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	ScoringType ScoringType `json:"scoring_type"`
	// Target semantics depend on ScoringType: seconds for time, par for
	// strokes, score for points, feet for distance, length for streak.
	// Unused for elimination and rotations.
	Target int `json:"target"`
	// Distance is the putting distance in feet for rotations games.
	Distance int `json:"distance,omitempty"`
	Turns    int `json:"turns,omitempty"`
}

// Result is the raw outcome of one play, as submitted by the client.
type Result struct {
	Score float64 `json:"score"`
	Won   bool    `json:"won"`
	// Rotations games report aggregate makes/attempts across all turns.
	TotalMakes    int `json:"total_makes"`
	TotalAttempts int `json:"total_attempts"`
}

// Completion is one logged play of a mini-game.
type Completion struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	UserID       uuid.UUID   `json:"user_id" db:"user_id"`
	GameID       string      `json:"game_id" db:"game_id"`
	GameName     string      `json:"game_name" db:"game_name"`
	ScoringType  ScoringType `json:"scoring_type" db:"scoring_type"`
	Score        float64     `json:"score" db:"score"`
	GoalAchieved bool        `json:"goal_achieved" db:"goal_achieved"`
	Points       int         `json:"points" db:"points"`
	Duration     int         `json:"duration" db:"duration"`
	Notes        *string     `json:"notes,omitempty" db:"notes"`
	LoggedBy     *uuid.UUID  `json:"logged_by,omitempty" db:"logged_by"`
	LoggedByName *string     `json:"logged_by_name,omitempty" db:"logged_by_name"`
	Pending      bool        `json:"pending" db:"pending"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

type CompleteGameRequest struct {
	GameID   string  `json:"game_id"`
	Result   Result  `json:"result"`
	Duration int     `json:"duration"`
	Notes    *string `json:"notes,omitempty"`
}

// CrossLogRequest records a game completion on behalf of another user.
// With RequireApproval set the entry stays pending and the target's
// aggregates are untouched until they accept it.
type CrossLogRequest struct {
	TargetClerkID   string  `json:"target_clerk_id"`
	GameID          string  `json:"game_id"`
	Result          Result  `json:"result"`
	Duration        int     `json:"duration"`
	Notes           *string `json:"notes,omitempty"`
	RequireApproval bool    `json:"require_approval"`
}

type EditCompletionRequest struct {
	Result   Result  `json:"result"`
	Duration int     `json:"duration"`
	Notes    *string `json:"notes,omitempty"`
}

// Catalog returns the built-in mini-games, one per scoring type.
func Catalog() []Game {
	return []Game{
		{
			ID: "beat_the_clock", Name: "Beat the Clock",
			Description: "Make 10 putts from 15 feet as fast as you can.",
			ScoringType: ScoringTime, Target: 120,
		},
		{
			ID: "par_saver", Name: "Par Saver",
			Description: "Finish the 9-station putting course in as few throws as possible.",
			ScoringType: ScoringStrokes, Target: 18,
		},
		{
			ID: "points_blitz", Name: "Points Blitz",
			Description: "Five putts per station, stations score 1-5 points by distance.",
			ScoringType: ScoringPoints, Target: 50,
		},
		{
			ID: "ladder_climb", Name: "Ladder Climb",
			Description: "Step back 5 feet after every make. Score is the longest distance made.",
			ScoringType: ScoringDistance, Target: 40,
		},
		{
			ID: "streak_master", Name: "Streak Master",
			Description: "Putt from 20 feet until you miss. Score is the streak length.",
			ScoringType: ScoringStreak, Target: 10,
		},
		{
			ID: "knockout", Name: "Knockout",
			Description: "Head-to-head elimination. Match an opponent's make or you're out.",
			ScoringType: ScoringElimination,
		},
		{
			ID: "around_the_world", Name: "Around the World",
			Description: "Ten turns of five putts from 20 feet, moving around the basket.",
			ScoringType: ScoringRotations, Distance: 20, Turns: 10,
		},
	}
}

// ByID looks a catalog game up by id.
func ByID(id string) (Game, bool) {
	for _, g := range Catalog() {
		if g.ID == id {
			return g, true
		}
	}
	return Game{}, false
}
