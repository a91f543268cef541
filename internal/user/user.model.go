package user

import (
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Goals are per-activity weekly targets shown against actual counts.
type Goals struct {
	SessionsPerWeek int `json:"sessions_per_week"`
	RoutinesPerWeek int `json:"routines_per_week"`
	GamesPerWeek    int `json:"games_per_week"`
}

// FavoriteDiscs holds the three free-text disc slots on the profile.
type FavoriteDiscs struct {
	Putter   string `json:"putter"`
	Midrange string `json:"midrange"`
	Driver   string `json:"driver"`
}

// User is the identity plus aggregate progression state. The counters are
// kept consistent with the underlying record counts by routing every
// add/edit/delete through the services; total_points never goes negative
// (deletions clamp at zero).
type User struct {
	ID            uuid.UUID     `json:"id"`
	ClerkID       string        `json:"clerkId"`
	Email         string        `json:"email"`
	DisplayName   string        `json:"displayName"`
	ImageURL      string        `json:"imageUrl,omitempty"`
	Gender        *Gender       `json:"gender,omitempty"`
	Birthday      *string       `json:"birthday,omitempty"`
	FavoriteDiscs FavoriteDiscs `json:"favoriteDiscs"`

	TotalPoints   int `json:"totalPoints"`
	TotalSessions int `json:"totalSessions"`
	TotalRoutines int `json:"totalRoutines"`
	TotalGames    int `json:"totalGames"`
	TotalPutts    int `json:"totalPutts"`
	TotalMakes    int `json:"totalMakes"`

	BestSessionPoints int     `json:"bestSessionPoints"`
	BestAccuracy      float64 `json:"bestAccuracy"`

	Goals               Goals `json:"goals"`
	HideFromLeaderboard bool  `json:"hideFromLeaderboard"`
	OptOutSharedLogging bool  `json:"optOutSharedLogging"`

	CreatedAt time.Time `json:"createdAt"`
	LastLogin time.Time `json:"lastLogin"`
}
