package session

import (
	"time"

	"github.com/google/uuid"
)

// Session is one logged set of putting attempts at a fixed distance.
// Percentage and points are always recomputed from makes/attempts/distance,
// never stored independently of that derivation.
type Session struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	UserID       uuid.UUID  `json:"user_id" db:"user_id"`
	Date         time.Time  `json:"date" db:"date"`
	LoggedAt     *time.Time `json:"logged_at,omitempty" db:"logged_at"`
	Distance     int        `json:"distance" db:"distance"`
	Makes        int        `json:"makes" db:"makes"`
	Attempts     int        `json:"attempts" db:"attempts"`
	Percentage   float64    `json:"percentage" db:"percentage"`
	Points       int        `json:"points" db:"points"`
	RoutineName  *string    `json:"routine_name,omitempty" db:"routine_name"`
	LoggedBy     *uuid.UUID `json:"logged_by,omitempty" db:"logged_by"`
	LoggedByName *string    `json:"logged_by_name,omitempty" db:"logged_by_name"`
	Pending      bool       `json:"pending" db:"pending"`
}

type AddSessionRequest struct {
	Date        string  `json:"date,omitempty"`
	Distance    int     `json:"distance"`
	Makes       int     `json:"makes"`
	Attempts    int     `json:"attempts"`
	RoutineName *string `json:"routine_name,omitempty"`
}

type EditSessionRequest struct {
	Distance int `json:"distance"`
	Makes    int `json:"makes"`
	Attempts int `json:"attempts"`
}

// CrossLogRequest records a session on behalf of another user. With
// RequireApproval set the entry stays pending and the target's aggregates
// are untouched until they accept it.
type CrossLogRequest struct {
	TargetClerkID   string `json:"target_clerk_id"`
	Distance        int    `json:"distance"`
	Makes           int    `json:"makes"`
	Attempts        int    `json:"attempts"`
	RequireApproval bool   `json:"require_approval"`
}

// BulkLogRequest is the cross-user flow applied to several targets in one
// submission, each with independently entered numbers.
type BulkLogRequest struct {
	RequireApproval bool           `json:"require_approval"`
	Entries         []BulkLogEntry `json:"entries"`
}

type BulkLogEntry struct {
	TargetClerkID string `json:"target_clerk_id"`
	Distance      int    `json:"distance"`
	Makes         int    `json:"makes"`
	Attempts      int    `json:"attempts"`
}

// BulkLogResult reports the per-target outcome; one invalid target never
// blocks the rest of the batch.
type BulkLogResult struct {
	TargetClerkID string   `json:"target_clerk_id"`
	Session       *Session `json:"session,omitempty"`
	Error         string   `json:"error,omitempty"`
}
