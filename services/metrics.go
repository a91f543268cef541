package services

import "github.com/prometheus/client_golang/prometheus"

var (
	sessionsLogged = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "putt_sessions_logged_total",
		Help: "Total number of practice sessions logged",
	})
	routinesCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "putt_routines_completed_total",
		Help: "Total number of routine completions logged",
	})
	gamesCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "putt_games_completed_total",
		Help: "Total number of game completions logged",
	})
	achievementsUnlocked = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "putt_achievements_unlocked_total",
		Help: "Total number of achievements unlocked",
	})
	challengesCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "putt_challenges_completed_total",
		Help: "Total number of weekly challenge completions",
	})
)

// InitMetrics registers the domain counters. Call this from main.go
// alongside middleware.InitPrometheus.
func InitMetrics() {
	prometheus.MustRegister(sessionsLogged)
	prometheus.MustRegister(routinesCompleted)
	prometheus.MustRegister(gamesCompleted)
	prometheus.MustRegister(achievementsUnlocked)
	prometheus.MustRegister(challengesCompleted)
}
