package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckSessionInputValid(t *testing.T) {
	assert.Nil(t, CheckSessionInput(5, 10, 20))
	assert.Nil(t, CheckSessionInput(0, 1, MinDistance))
	assert.Nil(t, CheckSessionInput(10, 10, MaxDistance))
}

func TestCheckSessionInputInvalid(t *testing.T) {
	tests := []struct {
		name     string
		makes    int
		attempts int
		distance int
		reason   string
	}{
		{name: "zero attempts", makes: 0, attempts: 0, distance: 20, reason: "attempts must be at least 1"},
		{name: "negative makes", makes: -1, attempts: 10, distance: 20, reason: "makes cannot be negative"},
		{name: "makes exceed attempts", makes: 11, attempts: 10, distance: 20, reason: "makes cannot exceed attempts"},
		{name: "distance too short", makes: 5, attempts: 10, distance: 0, reason: "distance must be between 1 and 100 feet"},
		{name: "distance too long", makes: 5, attempts: 10, distance: 101, reason: "distance must be between 1 and 100 feet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSessionInput(tt.makes, tt.attempts, tt.distance)
			require.NotNil(t, err)
			assert.Contains(t, err.Reasons, tt.reason)
		})
	}
}

func TestCheckSessionInputCollectsAllReasons(t *testing.T) {
	err := CheckSessionInput(-1, 0, 500)
	require.NotNil(t, err)
	assert.Len(t, err.Reasons, 3)
}

func TestCheckDuration(t *testing.T) {
	assert.Nil(t, CheckDuration(0))
	assert.Nil(t, CheckDuration(600))
	assert.NotNil(t, CheckDuration(-1))
}
