package achievement

import (
	"puttPracticeAPI/internal/session"
	"puttPracticeAPI/internal/stats"
)

// ChallengeAccepted is unlocked by the weekly challenge manager when a user
// first completes any challenge; it has no predicate of its own.
const ChallengeAccepted = "challenge_accepted"

// Session aliases the entity type so the predicate literals stay short.
type Session = session.Session

func anySession(c Context, pred func(s *Session) bool) bool {
	for i := range c.Sessions {
		if pred(&c.Sessions[i]) {
			return true
		}
	}
	return false
}

// Catalog returns the full badge catalog. Every rule is a threshold-style
// predicate over the snapshot; re-running the evaluator can never unlock a
// badge twice because the unlock table membership is the guard.
func Catalog() []Definition {
	return []Definition{
		// Getting started
		{
			ID: "first_steps", Name: "First Steps", Icon: "👣", Points: 10,
			Description: "Log your first practice session.",
			Predicate:   func(c Context) bool { return c.User.TotalSessions >= 1 },
		},
		{
			ID: "first_routine", Name: "Routine Rookie", Icon: "📋", Points: 15,
			Description: "Complete your first routine.",
			Predicate:   func(c Context) bool { return c.User.TotalRoutines >= 1 },
		},
		{
			ID: "first_game", Name: "Game On", Icon: "🎲", Points: 15,
			Description: "Finish your first mini-game.",
			Predicate:   func(c Context) bool { return c.User.TotalGames >= 1 },
		},

		// Single-session accuracy
		{
			ID: "perfect_10", Name: "Perfect 10", Icon: "🎯", Points: 25,
			Description: "Make 10 or more putts at 100% in one session.",
			Predicate: func(c Context) bool {
				return anySession(c, func(s *Session) bool { return s.Makes >= 10 && s.Percentage == 100 })
			},
		},
		{
			ID: "perfect_50", Name: "Flawless Fifty", Icon: "💎", Points: 100,
			Description: "Make 50 or more putts at 100% in one session.",
			Predicate: func(c Context) bool {
				return anySession(c, func(s *Session) bool { return s.Makes >= 50 && s.Percentage == 100 })
			},
		},
		{
			ID: "sharpshooter", Name: "Sharpshooter", Icon: "🏹", Points: 30,
			Description: "Hit 90% accuracy in a session.",
			Predicate: func(c Context) bool {
				return anySession(c, func(s *Session) bool { return s.Percentage >= 90 })
			},
		},
		{
			ID: "precision_pro", Name: "Precision Pro", Icon: "🔬", Points: 50,
			Description: "Hit 95% from 20 feet or beyond.",
			Predicate: func(c Context) bool {
				return anySession(c, func(s *Session) bool { return s.Percentage >= 95 && s.Distance >= 20 })
			},
		},

		// Single-session volume
		{
			ID: "century_session", Name: "Century Session", Icon: "💯", Points: 40,
			Description: "Score 100 points in a single session.",
			Predicate: func(c Context) bool {
				return anySession(c, func(s *Session) bool { return s.Points >= 100 })
			},
		},
		{
			ID: "makes_100", Name: "Hundred Club", Icon: "🧺", Points: 50,
			Description: "Make 100 putts in one session.",
			Predicate: func(c Context) bool {
				return anySession(c, func(s *Session) bool { return s.Makes >= 100 })
			},
		},
		{
			ID: "makes_200", Name: "Double Century", Icon: "🏋️", Points: 90,
			Description: "Make 200 putts in one session.",
			Predicate: func(c Context) bool {
				return anySession(c, func(s *Session) bool { return s.Makes >= 200 })
			},
		},
		{
			ID: "attempts_500", Name: "Grinder", Icon: "⚙️", Points: 60,
			Description: "Throw 500 putts in one session.",
			Predicate: func(c Context) bool {
				return anySession(c, func(s *Session) bool { return s.Attempts >= 500 })
			},
		},
		{
			ID: "attempts_1000", Name: "Marathon", Icon: "🏃", Points: 120,
			Description: "Throw 1000 putts in one session.",
			Predicate: func(c Context) bool {
				return anySession(c, func(s *Session) bool { return s.Attempts >= 1000 })
			},
		},

		// Distance
		{
			ID: "range_30", Name: "Edge of the Circle", Icon: "📏", Points: 20,
			Description: "Practice from 30 feet or beyond.",
			Predicate: func(c Context) bool {
				return anySession(c, func(s *Session) bool { return s.Distance >= 30 })
			},
		},
		{
			ID: "range_50", Name: "Circle Two Sniper", Icon: "🛰️", Points: 40,
			Description: "Practice from 50 feet or beyond.",
			Predicate: func(c Context) bool {
				return anySession(c, func(s *Session) bool { return s.Distance >= 50 })
			},
		},
		{
			ID: "range_60", Name: "Downtown", Icon: "🌆", Points: 60,
			Description: "Practice from 60 feet or beyond.",
			Predicate: func(c Context) bool {
				return anySession(c, func(s *Session) bool { return s.Distance >= 60 })
			},
		},
		{
			ID: "long_range_hero", Name: "Long Range Hero", Icon: "🚀", Points: 50,
			Description: "Make 5 putts in a session from 40 feet or beyond.",
			Predicate: func(c Context) bool {
				return anySession(c, func(s *Session) bool { return s.Makes >= 5 && s.Distance >= 40 })
			},
		},
		{
			ID: "distance_explorer", Name: "Distance Explorer", Icon: "🧭", Points: 35,
			Description: "Practice from 10 different distances.",
			Predicate:   func(c Context) bool { return stats.DistinctDistances(c.Sessions) >= 10 },
		},
		{
			ID: "ladder_complete", Name: "Full Ladder", Icon: "🪜", Points: 45,
			Description: "Practice from 10, 20, 30, 40 and 50 feet at least once each.",
			Predicate:   func(c Context) bool { return stats.PracticedAll(c.Sessions, []int{10, 20, 30, 40, 50}) },
		},

		// Streaks
		{
			ID: "streak_7", Name: "Week Warrior", Icon: "🔥", Points: 50,
			Description: "Practice 7 days in a row.",
			Predicate:   func(c Context) bool { return c.Stats.CurrentStreak >= 7 },
		},
		{
			ID: "streak_14", Name: "Fortnight Fire", Icon: "🧨", Points: 80,
			Description: "Practice 14 days in a row.",
			Predicate:   func(c Context) bool { return c.Stats.CurrentStreak >= 14 },
		},
		{
			ID: "streak_30", Name: "Monthly Machine", Icon: "📆", Points: 150,
			Description: "Practice 30 days in a row.",
			Predicate:   func(c Context) bool { return c.Stats.CurrentStreak >= 30 },
		},
		{
			ID: "streak_60", Name: "Iron Habit", Icon: "🛡️", Points: 250,
			Description: "Practice 60 days in a row.",
			Predicate:   func(c Context) bool { return c.Stats.CurrentStreak >= 60 },
		},
		{
			ID: "streak_100", Name: "Unstoppable", Icon: "⚡", Points: 400,
			Description: "Practice 100 days in a row.",
			Predicate:   func(c Context) bool { return c.Stats.CurrentStreak >= 100 },
		},

		// Career totals
		{
			ID: "session_50", Name: "Regular", Icon: "🗓️", Points: 60,
			Description: "Log 50 sessions.",
			Predicate:   func(c Context) bool { return c.User.TotalSessions >= 50 },
		},
		{
			ID: "session_100", Name: "Range Rat", Icon: "🐀", Points: 120,
			Description: "Log 100 sessions.",
			Predicate:   func(c Context) bool { return c.User.TotalSessions >= 100 },
		},
		{
			ID: "point_collector", Name: "Point Collector", Icon: "🪙", Points: 50,
			Description: "Earn 1,000 total points.",
			Predicate:   func(c Context) bool { return c.User.TotalPoints >= 1000 },
		},
		{
			ID: "point_hoarder", Name: "Point Hoarder", Icon: "🏦", Points: 150,
			Description: "Earn 5,000 total points.",
			Predicate:   func(c Context) bool { return c.User.TotalPoints >= 5000 },
		},
		{
			ID: "iron_volume", Name: "Thousand Makes", Icon: "🧱", Points: 80,
			Description: "Make 1,000 career putts.",
			Predicate:   func(c Context) bool { return c.User.TotalMakes >= 1000 },
		},
		{
			ID: "dedicated", Name: "Dedicated", Icon: "⏳", Points: 100,
			Description: "Throw 5,000 career putts.",
			Predicate:   func(c Context) bool { return c.User.TotalPutts >= 5000 },
		},

		// Routines and games
		{
			ID: "routine_explorer", Name: "Routine Explorer", Icon: "🗺️", Points: 40,
			Description: "Complete all four original routines.",
			Predicate: func(c Context) bool {
				for _, id := range []string{"circle_1_confidence", "ladder_drill", "consistency_builder", "distance_challenge"} {
					if c.RoutineCounts[id] == 0 {
						return false
					}
				}
				return true
			},
		},
		{
			ID: "consistency_builder", Name: "Consistency Builder", Icon: "🔁", Points: 35,
			Description: "Complete the same routine 3 times.",
			Predicate: func(c Context) bool {
				for _, n := range c.RoutineCounts {
					if n >= 3 {
						return true
					}
				}
				return false
			},
		},
		{
			ID: "routine_25", Name: "Drill Sergeant", Icon: "🎖️", Points: 90,
			Description: "Complete 25 routines.",
			Predicate:   func(c Context) bool { return c.User.TotalRoutines >= 25 },
		},
		{
			ID: "game_10", Name: "Game Night", Icon: "🕹️", Points: 45,
			Description: "Finish 10 mini-games.",
			Predicate:   func(c Context) bool { return c.User.TotalGames >= 10 },
		},

		// Social and leaderboard
		{
			ID: "social_butterfly", Name: "Social Butterfly", Icon: "🦋", Points: 25,
			Description: "Add 5 friends.",
			Predicate:   func(c Context) bool { return c.FriendsCount >= 5 },
		},
		{
			ID: "top_10", Name: "Top Ten", Icon: "🔟", Points: 60,
			Description: "Reach the leaderboard top 10.",
			Predicate:   func(c Context) bool { return c.Rank >= 1 && c.Rank <= 10 },
		},
		{
			ID: "podium_finish", Name: "Podium Finish", Icon: "🥉", Points: 100,
			Description: "Reach the leaderboard top 3.",
			Predicate:   func(c Context) bool { return c.Rank >= 1 && c.Rank <= 3 },
		},
		{
			ID: "number_one", Name: "Number One", Icon: "🥇", Points: 200,
			Description: "Take the leaderboard's first place.",
			Predicate:   func(c Context) bool { return c.Rank == 1 },
		},

		// Profile
		{
			ID: "disc_collector", Name: "Disc Collector", Icon: "🥏", Points: 15,
			Description: "Name your favorite putter, midrange and driver.",
			Predicate: func(c Context) bool {
				d := c.User.FavoriteDiscs
				return d.Putter != "" && d.Midrange != "" && d.Driver != ""
			},
		},
		{
			ID: "profile_complete", Name: "Open Book", Icon: "📖", Points: 20,
			Description: "Fill out your entire profile.",
			Predicate: func(c Context) bool {
				d := c.User.FavoriteDiscs
				return c.User.Gender != nil && c.User.Birthday != nil &&
					d.Putter != "" && d.Midrange != "" && d.Driver != ""
			},
		},

		// Challenge badge, granted by the weekly challenge manager.
		{
			ID: ChallengeAccepted, Name: "Challenge Accepted", Icon: "🏁", Points: 30,
			Description: "Complete a weekly challenge.",
		},
	}
}

// ByID looks a catalog definition up by id.
func ByID(id string) (Definition, bool) {
	for _, d := range Catalog() {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}
