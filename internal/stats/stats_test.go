package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puttPracticeAPI/internal/session"
)

func day(offset int) time.Time {
	base := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func sessionOn(date time.Time, makes, attempts, distance, points int) session.Session {
	return session.Session{
		Date:     date,
		Makes:    makes,
		Attempts: attempts,
		Distance: distance,
		Points:   points,
	}
}

func TestCalculateEmptyHistory(t *testing.T) {
	s := Calculate(nil, day(0))
	assert.Equal(t, 0, s.TotalSessions)
	assert.Equal(t, 0.0, s.Accuracy)
	assert.Nil(t, s.BestSession)
	assert.Equal(t, 0, s.CurrentStreak)
	assert.Equal(t, 0, s.LongestStreak)
}

func TestCalculate(t *testing.T) {
	sessions := []session.Session{
		sessionOn(day(0), 8, 10, 20, 128),
		sessionOn(day(-1), 5, 10, 15, 37),
		sessionOn(day(-2), 10, 10, 10, 100),
	}

	s := Calculate(sessions, day(0))

	assert.Equal(t, 3, s.TotalSessions)
	assert.Equal(t, 30, s.TotalPutts)
	assert.Equal(t, 23, s.TotalMakes)
	assert.Equal(t, 76.7, s.Accuracy)
	require.NotNil(t, s.BestSession)
	assert.Equal(t, 128, s.BestSession.Points)
	assert.Equal(t, 3, s.CurrentStreak)
	assert.Equal(t, 3, s.LongestStreak)
}

func TestStreaksBrokenToday(t *testing.T) {
	// Last practice was two days ago: no current streak, but the old run
	// still counts as the longest.
	sessions := []session.Session{
		sessionOn(day(-2), 5, 10, 20, 50),
		sessionOn(day(-3), 5, 10, 20, 50),
		sessionOn(day(-4), 5, 10, 20, 50),
	}

	current, longest := Streaks(sessions, day(0))
	assert.Equal(t, 0, current)
	assert.Equal(t, 3, longest)
}

func TestStreaksMultipleSessionsSameDay(t *testing.T) {
	sessions := []session.Session{
		sessionOn(day(0), 5, 10, 20, 50),
		sessionOn(day(0).Add(3*time.Hour), 6, 10, 20, 60),
		sessionOn(day(-1), 5, 10, 20, 50),
	}

	current, longest := Streaks(sessions, day(0))
	assert.Equal(t, 2, current)
	assert.Equal(t, 2, longest)
}

func TestStreaksGapInMiddle(t *testing.T) {
	sessions := []session.Session{
		sessionOn(day(0), 5, 10, 20, 50),
		sessionOn(day(-1), 5, 10, 20, 50),
		// gap at day -2
		sessionOn(day(-3), 5, 10, 20, 50),
		sessionOn(day(-4), 5, 10, 20, 50),
		sessionOn(day(-5), 5, 10, 20, 50),
	}

	current, longest := Streaks(sessions, day(0))
	assert.Equal(t, 2, current)
	assert.Equal(t, 3, longest)
}

func TestDistinctDistances(t *testing.T) {
	sessions := []session.Session{
		sessionOn(day(0), 5, 10, 20, 50),
		sessionOn(day(-1), 5, 10, 20, 50),
		sessionOn(day(-2), 5, 10, 30, 50),
	}
	assert.Equal(t, 2, DistinctDistances(sessions))
	assert.Equal(t, 0, DistinctDistances(nil))
}

func TestPracticedAll(t *testing.T) {
	sessions := []session.Session{
		sessionOn(day(0), 5, 10, 10, 50),
		sessionOn(day(-1), 5, 10, 20, 50),
		sessionOn(day(-2), 5, 10, 30, 50),
	}
	assert.True(t, PracticedAll(sessions, []int{10, 20, 30}))
	assert.False(t, PracticedAll(sessions, []int{10, 20, 30, 40}))
	assert.True(t, PracticedAll(sessions, nil))
}

func TestMakesInLastDays(t *testing.T) {
	sessions := []session.Session{
		sessionOn(day(0), 10, 20, 20, 50),
		sessionOn(day(-6), 15, 20, 20, 50),
		sessionOn(day(-7), 100, 100, 20, 50), // just outside a 7-day window
	}
	assert.Equal(t, 25, MakesInLastDays(sessions, 7, day(0)))
	assert.Equal(t, 125, MakesInLastDays(sessions, 8, day(0)))
}
