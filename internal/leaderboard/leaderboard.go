package leaderboard

import "github.com/google/uuid"

// Metric is the ranking field a leaderboard is ordered by.
type Metric string

const (
	MetricPoints   Metric = "points"
	MetricSessions Metric = "sessions"
	MetricRoutines Metric = "routines"
	MetricGames    Metric = "games"
)

// Valid reports whether m is one of the supported ranking metrics.
func (m Metric) Valid() bool {
	switch m {
	case MetricPoints, MetricSessions, MetricRoutines, MetricGames:
		return true
	}
	return false
}

type LeaderboardEntry struct {
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	DisplayName string    `json:"display_name" db:"display_name"`
	ImageURL    *string   `json:"image_url" db:"image_url"`
	Value       int       `json:"value" db:"value"`
	Rank        int       `json:"rank" db:"rank"`
}

type Leaderboard struct {
	Metric       Metric              `json:"metric"`
	Entries      []*LeaderboardEntry `json:"entries"`
	UserPosition *LeaderboardEntry   `json:"user_position"`
	TotalUsers   int                 `json:"total_users"`
}
