package validation

import (
	"fmt"

	"puttPracticeAPI/internal/apperr"
)

const (
	MinDistance = 1
	MaxDistance = 100
)

// CheckSessionInput validates raw putting numbers before they reach the
// scoring calculator. Every violated constraint is collected so the client
// gets the full list in one round trip.
func CheckSessionInput(makes, attempts, distance int) *apperr.ValidationError {
	var reasons []string

	if attempts < 1 {
		reasons = append(reasons, "attempts must be at least 1")
	}
	if makes < 0 {
		reasons = append(reasons, "makes cannot be negative")
	}
	if attempts >= 1 && makes > attempts {
		reasons = append(reasons, "makes cannot exceed attempts")
	}
	if distance < MinDistance || distance > MaxDistance {
		reasons = append(reasons, fmt.Sprintf("distance must be between %d and %d feet", MinDistance, MaxDistance))
	}

	if len(reasons) == 0 {
		return nil
	}
	return &apperr.ValidationError{Reasons: reasons}
}

// CheckDuration validates an optional duration in minutes.
func CheckDuration(minutes int) *apperr.ValidationError {
	if minutes < 0 {
		return &apperr.ValidationError{Reasons: []string{"duration cannot be negative"}}
	}
	return nil
}
