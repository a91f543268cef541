package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"puttPracticeAPI/internal/achievement"
	"puttPracticeAPI/internal/apperr"
	"puttPracticeAPI/internal/notification"
	"puttPracticeAPI/internal/session"
	"puttPracticeAPI/internal/stats"
	"puttPracticeAPI/internal/user"
)

// AchievementService evaluates the badge catalog against a user's current
// state and records new unlocks. Evaluation is idempotent: the unlock table
// membership is the de-duplication guard, so re-running after any mutation
// can never award a badge twice.
type AchievementService struct {
	db                  *pgxpool.Pool
	notificationService *NotificationService
}

func NewAchievementService(db *pgxpool.Pool, notificationService *NotificationService) *AchievementService {
	return &AchievementService{db: db, notificationService: notificationService}
}

// Evaluate runs every catalog predicate over a fresh snapshot and unlocks
// whatever newly holds. All rules are checked on every call since several
// may flip at once; the full list of newly unlocked ids is returned.
func (s *AchievementService) Evaluate(ctx context.Context, userID uuid.UUID) ([]string, error) {
	snap, err := s.loadContext(ctx, userID)
	if err != nil {
		return nil, err
	}

	unlocked, err := s.unlockedSet(ctx, userID)
	if err != nil {
		return nil, err
	}

	var newlyUnlocked []string
	for _, def := range achievement.Catalog() {
		if unlocked[def.ID] || def.Predicate == nil {
			continue
		}
		if def.Predicate(*snap) {
			isNew, err := s.insertUnlock(ctx, userID, def.ID)
			if err != nil {
				return nil, err
			}
			if isNew {
				newlyUnlocked = append(newlyUnlocked, def.ID)
				s.announce(ctx, userID, def)
			}
		}
	}

	return newlyUnlocked, nil
}

// UnlockDirect grants a specific badge outside predicate evaluation; the
// weekly challenge manager uses it for challenge_accepted. Returns whether
// the unlock was new.
func (s *AchievementService) UnlockDirect(ctx context.Context, userID uuid.UUID, achievementID string) (bool, error) {
	def, ok := achievement.ByID(achievementID)
	if !ok {
		return false, fmt.Errorf("unknown achievement id %q", achievementID)
	}

	isNew, err := s.insertUnlock(ctx, userID, achievementID)
	if err != nil {
		return false, err
	}
	if isNew {
		s.announce(ctx, userID, def)
	}
	return isNew, nil
}

// GetAchievements returns the full catalog with the viewing user's unlock
// status, unlocked badges first.
func (s *AchievementService) GetAchievements(ctx context.Context, clerkID string) ([]*achievement.WithStatus, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	unlockedAt := make(map[string]time.Time)
	rows, err := s.db.Query(ctx,
		"SELECT achievement_id, unlocked_at FROM user_achievements WHERE user_id = $1", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unlocks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var at time.Time
		if err := rows.Scan(&id, &at); err != nil {
			return nil, err
		}
		unlockedAt[id] = at
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var unlocked, locked []*achievement.WithStatus
	for _, def := range achievement.Catalog() {
		ws := &achievement.WithStatus{
			ID:          def.ID,
			Name:        def.Name,
			Description: def.Description,
			Icon:        def.Icon,
			Points:      def.Points,
		}
		if at, ok := unlockedAt[def.ID]; ok {
			ws.Unlocked = true
			t := at
			ws.UnlockedAt = &t
			unlocked = append(unlocked, ws)
		} else {
			locked = append(locked, ws)
		}
	}

	return append(unlocked, locked...), nil
}

func (s *AchievementService) unlockedSet(ctx context.Context, userID uuid.UUID) (map[string]bool, error) {
	rows, err := s.db.Query(ctx, "SELECT achievement_id FROM user_achievements WHERE user_id = $1", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unlocked achievements: %w", err)
	}
	defer rows.Close()

	set := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		set[id] = true
	}
	return set, rows.Err()
}

// insertUnlock appends the badge id; the (user_id, achievement_id) unique
// constraint makes a concurrent double-unlock a no-op instead of a
// duplicate.
func (s *AchievementService) insertUnlock(ctx context.Context, userID uuid.UUID, achievementID string) (bool, error) {
	result, err := s.db.Exec(ctx, `
		INSERT INTO user_achievements (id, user_id, achievement_id, unlocked_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, achievement_id) DO NOTHING
	`, uuid.New(), userID, achievementID)
	if err != nil {
		return false, fmt.Errorf("failed to unlock achievement %s: %w", achievementID, err)
	}
	isNew := result.RowsAffected() > 0
	if isNew {
		achievementsUnlocked.Inc()
	}
	return isNew, nil
}

func (s *AchievementService) announce(ctx context.Context, userID uuid.UUID, def achievement.Definition) {
	_, err := s.notificationService.Notify(ctx, &notification.CreateNotificationRequest{
		UserID:  userID,
		Type:    notification.NotificationAchievement,
		Title:   "Achievement unlocked",
		Message: fmt.Sprintf("%s %s — %s", def.Icon, def.Name, def.Description),
		Data:    map[string]any{"achievement_id": def.ID},
	})
	if err != nil {
		log.Printf("Evaluate: failed to notify unlock %s for %s: %v", def.ID, userID, err)
	}
}

// loadContext assembles the snapshot the predicates read: the aggregate
// user record, the non-pending session history with derived stats, routine
// completion counts, friends count and leaderboard rank.
func (s *AchievementService) loadContext(ctx context.Context, userID uuid.UUID) (*achievement.Context, error) {
	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	sessions, err := loadUserSessions(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	routineCounts := make(map[string]int)
	rows, err := s.db.Query(ctx,
		"SELECT routine_id, COUNT(*) FROM routine_completions WHERE user_id = $1 AND pending = false GROUP BY routine_id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count routine completions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		routineCounts[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var friendsCount int
	err = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM friendships
		WHERE (user_id = $1 OR friend_id = $1) AND status = 'accepted'
	`, userID).Scan(&friendsCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count friends: %w", err)
	}

	rank := 0
	if !u.HideFromLeaderboard {
		err = s.db.QueryRow(ctx, `
			SELECT COUNT(*) + 1 FROM users
			WHERE hide_from_leaderboard = false AND total_points > $1
		`, u.TotalPoints).Scan(&rank)
		if err != nil {
			return nil, fmt.Errorf("failed to compute rank: %w", err)
		}
	}

	return &achievement.Context{
		User:          u,
		Sessions:      sessions,
		Stats:         stats.Calculate(sessions, time.Now()),
		RoutineCounts: routineCounts,
		FriendsCount:  friendsCount,
		Rank:          rank,
	}, nil
}

func (s *AchievementService) loadUser(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	u := &user.User{}
	err := s.db.QueryRow(ctx, `
		SELECT id, clerk_id, email, display_name, image_url, gender, birthday,
		       fav_putter, fav_midrange, fav_driver,
		       total_points, total_sessions, total_routines, total_games,
		       total_putts, total_makes, best_session_points, best_accuracy,
		       goal_sessions_week, goal_routines_week, goal_games_week,
		       hide_from_leaderboard, opt_out_shared_logging, created_at, last_login
		FROM users WHERE id = $1
	`, userID).Scan(
		&u.ID, &u.ClerkID, &u.Email, &u.DisplayName, &u.ImageURL, &u.Gender, &u.Birthday,
		&u.FavoriteDiscs.Putter, &u.FavoriteDiscs.Midrange, &u.FavoriteDiscs.Driver,
		&u.TotalPoints, &u.TotalSessions, &u.TotalRoutines, &u.TotalGames,
		&u.TotalPutts, &u.TotalMakes, &u.BestSessionPoints, &u.BestAccuracy,
		&u.Goals.SessionsPerWeek, &u.Goals.RoutinesPerWeek, &u.Goals.GamesPerWeek,
		&u.HideFromLeaderboard, &u.OptOutSharedLogging, &u.CreatedAt, &u.LastLogin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// getUserID resolves a Clerk ID to the internal user id.
func getUserID(ctx context.Context, db *pgxpool.Pool, clerkID string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("user %s: %w", clerkID, apperr.ErrNotFound)
		}
		return uuid.Nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return id, nil
}

// loadUserSessions fetches the non-pending history newest-first; shared by
// the evaluator and the challenge manager.
func loadUserSessions(ctx context.Context, db *pgxpool.Pool, userID uuid.UUID) ([]session.Session, error) {
	rows, err := db.Query(ctx, `
		SELECT id, user_id, date, logged_at, distance, makes, attempts,
		       percentage, points, routine_name, logged_by, logged_by_name, pending
		FROM sessions
		WHERE user_id = $1 AND pending = false
		ORDER BY date DESC, logged_at DESC NULLS LAST
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}
	defer rows.Close()

	var sessions []session.Session
	for rows.Next() {
		var sess session.Session
		err := rows.Scan(
			&sess.ID, &sess.UserID, &sess.Date, &sess.LoggedAt, &sess.Distance,
			&sess.Makes, &sess.Attempts, &sess.Percentage, &sess.Points,
			&sess.RoutineName, &sess.LoggedBy, &sess.LoggedByName, &sess.Pending,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}
