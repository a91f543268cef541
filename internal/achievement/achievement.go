package achievement

import (
	"time"

	"github.com/google/uuid"

	"puttPracticeAPI/internal/session"
	"puttPracticeAPI/internal/stats"
	"puttPracticeAPI/internal/user"
)

// Context is the state snapshot the predicates read. All rules are
// independent of each other, so the evaluator may run them in any order.
type Context struct {
	User          *user.User
	Sessions      []session.Session
	Stats         stats.Stats
	RoutineCounts map[string]int
	FriendsCount  int
	Rank          int
}

// Definition is a static catalog entry. Points are display-only: unlocking
// never credits them to the user's running total. A nil Predicate marks a
// badge another component unlocks directly (the weekly challenge manager).
type Definition struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Points      int
	Predicate   func(Context) bool
}

// Unlock is one row of the per-user unlock table.
type Unlock struct {
	ID            uuid.UUID `json:"id" db:"id"`
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	AchievementID string    `json:"achievement_id" db:"achievement_id"`
	UnlockedAt    time.Time `json:"unlocked_at" db:"unlocked_at"`
}

// WithStatus is the catalog entry plus the viewing user's unlock state.
type WithStatus struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Points      int        `json:"points"`
	Unlocked    bool       `json:"unlocked"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
}
