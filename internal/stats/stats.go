package stats

import (
	"sort"
	"time"

	"puttPracticeAPI/internal/scoring"
	"puttPracticeAPI/internal/session"
)

// Stats is the derived view over a user's full session history.
type Stats struct {
	TotalSessions int              `json:"total_sessions"`
	TotalPutts    int              `json:"total_putts"`
	TotalMakes    int              `json:"total_makes"`
	Accuracy      float64          `json:"accuracy"`
	BestSession   *session.Session `json:"best_session,omitempty"`
	CurrentStreak int              `json:"current_streak"`
	LongestStreak int              `json:"longest_streak"`
}

// WeeklyProgress pairs a weekly goal with the count achieved so far this
// week (Monday-based).
type WeeklyProgress struct {
	Goal int `json:"goal"`
	Done int `json:"done"`
}

// UserStats is the profile stats payload: history-derived numbers plus the
// aggregate counters and social context the achievement rules read.
type UserStats struct {
	Stats
	TotalPoints       int     `json:"total_points"`
	TotalRoutines     int     `json:"total_routines"`
	TotalGames        int     `json:"total_games"`
	BestAccuracy      float64 `json:"best_accuracy"`
	AchievementsCount int     `json:"achievements_count"`
	FriendsCount      int     `json:"friends_count"`
	Rank              int     `json:"rank"`

	WeekSessions WeeklyProgress `json:"week_sessions"`
	WeekRoutines WeeklyProgress `json:"week_routines"`
	WeekGames    WeeklyProgress `json:"week_games"`
}

// Calculate derives accuracy, best session and streaks from the session
// history. An empty history yields the zero value, not an error. Pending
// cross-logged entries must be filtered out by the caller before this runs.
func Calculate(sessions []session.Session, now time.Time) Stats {
	s := Stats{TotalSessions: len(sessions)}

	for i := range sessions {
		s.TotalPutts += sessions[i].Attempts
		s.TotalMakes += sessions[i].Makes
		if s.BestSession == nil || sessions[i].Points > s.BestSession.Points {
			s.BestSession = &sessions[i]
		}
	}

	if s.TotalPutts > 0 {
		s.Accuracy = scoring.Round1(float64(s.TotalMakes) / float64(s.TotalPutts) * 100)
	}

	s.CurrentStreak, s.LongestStreak = Streaks(sessions, now)
	return s
}

// Streaks collapses the history to unique practice days and walks them
// newest-first. The current streak counts back from today with no gaps; the
// longest streak is the best consecutive run anywhere in the history,
// floored at the current streak.
func Streaks(sessions []session.Session, now time.Time) (current, longest int) {
	if len(sessions) == 0 {
		return 0, 0
	}

	seen := make(map[string]time.Time, len(sessions))
	for _, s := range sessions {
		d := dayOf(s.Date)
		seen[d.Format("2006-01-02")] = d
	}

	days := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	today := dayOf(now)
	for i, d := range days {
		if d.Equal(today.AddDate(0, 0, -i)) {
			current = i + 1
		} else {
			break
		}
	}

	run := 1
	longest = 1
	for i := 1; i < len(days); i++ {
		if days[i-1].Sub(days[i]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	if current > longest {
		longest = current
	}
	return current, longest
}

// DistinctDistances returns how many different distances appear in the
// history; the achievement rules read this.
func DistinctDistances(sessions []session.Session) int {
	seen := make(map[int]bool)
	for _, s := range sessions {
		seen[s.Distance] = true
	}
	return len(seen)
}

// PracticedAll reports whether every distance in the list shows up at least
// once in the history.
func PracticedAll(sessions []session.Session, distances []int) bool {
	seen := make(map[int]bool)
	for _, s := range sessions {
		seen[s.Distance] = true
	}
	for _, d := range distances {
		if !seen[d] {
			return false
		}
	}
	return true
}

// MakesInLastDays sums makes over sessions dated within the trailing
// window; the weekly challenge volume check reads this.
func MakesInLastDays(sessions []session.Session, days int, now time.Time) int {
	cutoff := dayOf(now).AddDate(0, 0, -days+1)
	total := 0
	for _, s := range sessions {
		if !dayOf(s.Date).Before(cutoff) {
			total += s.Makes
		}
	}
	return total
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
