package challenge

import (
	"time"

	"github.com/google/uuid"

	"puttPracticeAPI/internal/session"
)

type Type string

const (
	TypeAccuracy Type = "accuracy"
	TypeDistance Type = "distance"
	TypeVolume   Type = "volume"
	TypeStreak   Type = "streak"
	TypePoints   Type = "points"
)

// Lifetime is how long a challenge instance stays active before the next
// load replaces it.
const Lifetime = 7 * 24 * time.Hour

// Challenge is the process-wide singleton rotating goal. CompletedBy holds
// each claiming user at most once per instance; a fresh instance resets
// eligibility for everyone.
type Challenge struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	Type        Type        `json:"type" db:"type"`
	Target      int         `json:"target" db:"target"`
	Description string      `json:"description" db:"description"`
	Reward      int         `json:"reward" db:"reward"`
	StartDate   time.Time   `json:"start_date" db:"start_date"`
	CompletedBy []uuid.UUID `json:"completed_by" db:"completed_by"`
}

func (c *Challenge) Expired(now time.Time) bool {
	return now.Sub(c.StartDate) >= Lifetime
}

// Template is a catalog entry a new instance is drawn from.
type Template struct {
	Type        Type
	Target      int
	Description string
	Reward      int
}

// Templates returns the fixed rotation catalog, one entry per type.
func Templates() []Template {
	return []Template{
		{Type: TypeAccuracy, Target: 80, Reward: 50, Description: "Log a session at 80% accuracy or better."},
		{Type: TypeDistance, Target: 30, Reward: 40, Description: "Log a session from 30 feet or beyond."},
		{Type: TypeVolume, Target: 100, Reward: 60, Description: "Make 100 putts within a week."},
		{Type: TypeStreak, Target: 3, Reward: 45, Description: "Practice 3 days in a row."},
		{Type: TypePoints, Target: 150, Reward: 55, Description: "Score 150 points in a single session."},
	}
}

// Satisfied evaluates the active challenge against the session that was
// just logged. Accuracy, distance and points look at the new session alone;
// volume and streak read the aggregated weekly makes and current streak the
// caller derived from the full history.
func Satisfied(c *Challenge, s *session.Session, weeklyMakes, currentStreak int) bool {
	switch c.Type {
	case TypeAccuracy:
		return s.Percentage >= float64(c.Target)
	case TypeDistance:
		return s.Distance >= c.Target
	case TypePoints:
		return s.Points >= c.Target
	case TypeVolume:
		return weeklyMakes >= c.Target
	case TypeStreak:
		return currentStreak >= c.Target
	}
	return false
}
