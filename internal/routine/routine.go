package routine

import (
	"time"

	"github.com/google/uuid"
)

// Drill is one step within a routine: a target distance and attempt count,
// plus the achieved numbers once logged.
type Drill struct {
	Distance       int     `json:"distance"`
	TargetAttempts int     `json:"target_attempts"`
	Description    string  `json:"description"`
	Makes          int     `json:"makes"`
	Attempts       int     `json:"attempts"`
	Percentage     float64 `json:"percentage"`
}

// Routine is a static catalog entry: an ordered drill sequence a user can
// follow and log completion of.
type Routine struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Drills      []Drill `json:"drills"`
}

// TotalStats aggregates makes/attempts across a completion's drills. It is
// always derived from the drills array, never edited independently.
type TotalStats struct {
	TotalMakes        int     `json:"total_makes"`
	TotalAttempts     int     `json:"total_attempts"`
	OverallPercentage float64 `json:"overall_percentage"`
}

// Completion is one logged pass through a routine.
type Completion struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	UserID       uuid.UUID  `json:"user_id" db:"user_id"`
	RoutineID    string     `json:"routine_id" db:"routine_id"`
	RoutineName  string     `json:"routine_name" db:"routine_name"`
	StartTime    time.Time  `json:"start_time" db:"start_time"`
	EndTime      time.Time  `json:"end_time" db:"end_time"`
	Duration     int        `json:"duration" db:"duration"`
	Drills       []Drill    `json:"drills" db:"drills"`
	TotalStats   TotalStats `json:"total_stats" db:"total_stats"`
	Points       int        `json:"points" db:"points"`
	Notes        *string    `json:"notes,omitempty" db:"notes"`
	LoggedBy     *uuid.UUID `json:"logged_by,omitempty" db:"logged_by"`
	LoggedByName *string    `json:"logged_by_name,omitempty" db:"logged_by_name"`
	Pending      bool       `json:"pending" db:"pending"`
}

type CompleteRoutineRequest struct {
	RoutineID string  `json:"routine_id"`
	Duration  int     `json:"duration"`
	Drills    []Drill `json:"drills"`
	Notes     *string `json:"notes,omitempty"`
}

// CrossLogRequest records a routine completion on behalf of another user.
// With RequireApproval set the entry stays pending and the target's
// aggregates are untouched until they accept it.
type CrossLogRequest struct {
	TargetClerkID   string  `json:"target_clerk_id"`
	RoutineID       string  `json:"routine_id"`
	Duration        int     `json:"duration"`
	Drills          []Drill `json:"drills"`
	Notes           *string `json:"notes,omitempty"`
	RequireApproval bool    `json:"require_approval"`
}

type EditCompletionRequest struct {
	Duration int     `json:"duration"`
	Drills   []Drill `json:"drills,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

// Catalog returns the four built-in routines.
func Catalog() []Routine {
	return []Routine{
		{
			ID: "circle_1_confidence", Name: "Circle 1 Confidence",
			Description: "Stack makes inside the circle to groove a repeatable stroke.",
			Drills: []Drill{
				{Distance: 10, TargetAttempts: 10, Description: "10 putts from 10 feet"},
				{Distance: 15, TargetAttempts: 10, Description: "10 putts from 15 feet"},
				{Distance: 20, TargetAttempts: 10, Description: "10 putts from 20 feet"},
			},
		},
		{
			ID: "ladder_drill", Name: "Ladder Drill",
			Description: "Work up the ladder five feet at a time.",
			Drills: []Drill{
				{Distance: 10, TargetAttempts: 5, Description: "5 putts from 10 feet"},
				{Distance: 15, TargetAttempts: 5, Description: "5 putts from 15 feet"},
				{Distance: 20, TargetAttempts: 5, Description: "5 putts from 20 feet"},
				{Distance: 25, TargetAttempts: 5, Description: "5 putts from 25 feet"},
				{Distance: 30, TargetAttempts: 5, Description: "5 putts from 30 feet"},
			},
		},
		{
			ID: "consistency_builder", Name: "Consistency Builder",
			Description: "High-volume reps from your money distance.",
			Drills: []Drill{
				{Distance: 15, TargetAttempts: 20, Description: "20 putts from 15 feet"},
				{Distance: 15, TargetAttempts: 20, Description: "20 more putts from 15 feet"},
			},
		},
		{
			ID: "distance_challenge", Name: "Distance Challenge",
			Description: "Long-range work outside the circle.",
			Drills: []Drill{
				{Distance: 30, TargetAttempts: 10, Description: "10 putts from 30 feet"},
				{Distance: 40, TargetAttempts: 10, Description: "10 putts from 40 feet"},
				{Distance: 50, TargetAttempts: 5, Description: "5 putts from 50 feet"},
			},
		},
	}
}

// ByID looks a catalog routine up by id.
func ByID(id string) (Routine, bool) {
	for _, r := range Catalog() {
		if r.ID == id {
			return r, true
		}
	}
	return Routine{}, false
}
