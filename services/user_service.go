package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"puttPracticeAPI/internal/apperr"
	"puttPracticeAPI/internal/leaderboard"
	"puttPracticeAPI/internal/notification"
	"puttPracticeAPI/internal/stats"
	"puttPracticeAPI/internal/user"
)

type UserService struct {
	db                  *pgxpool.Pool
	notificationService *NotificationService
}

func NewUserService(db *pgxpool.Pool, notificationService *NotificationService) *UserService {
	return &UserService{db: db, notificationService: notificationService}
}

const userColumns = `id, clerk_id, email, display_name, image_url, gender, birthday,
	fav_putter, fav_midrange, fav_driver,
	total_points, total_sessions, total_routines, total_games, total_putts, total_makes,
	best_session_points, best_accuracy,
	goal_sessions_week, goal_routines_week, goal_games_week,
	hide_from_leaderboard, opt_out_shared_logging, created_at, last_login`

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(
		&u.ID, &u.ClerkID, &u.Email, &u.DisplayName, &u.ImageURL, &u.Gender, &u.Birthday,
		&u.FavoriteDiscs.Putter, &u.FavoriteDiscs.Midrange, &u.FavoriteDiscs.Driver,
		&u.TotalPoints, &u.TotalSessions, &u.TotalRoutines, &u.TotalGames, &u.TotalPutts, &u.TotalMakes,
		&u.BestSessionPoints, &u.BestAccuracy,
		&u.Goals.SessionsPerWeek, &u.Goals.RoutinesPerWeek, &u.Goals.GamesPerWeek,
		&u.HideFromLeaderboard, &u.OptOutSharedLogging, &u.CreatedAt, &u.LastLogin,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser seeds a profile from the Clerk webhook payload. All counters
// start at zero; the default weekly goal is three sessions.
func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO users (id, clerk_id, email, display_name, image_url, goal_sessions_week, created_at, last_login)
		VALUES ($1, $2, $3, $4, $5, 3, NOW(), NOW())
		RETURNING `+userColumns,
		uuid.New(), req.ClerkID, req.Email, req.DisplayName, req.ImageURL)

	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE clerk_id = $1`, clerkID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", clerkID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// UpdateProfile applies a partial update: empty strings and nil pointers
// leave the stored value untouched.
func (s *UserService) UpdateProfile(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	var favPutter, favMidrange, favDriver *string
	if req.FavoriteDiscs != nil {
		favPutter = &req.FavoriteDiscs.Putter
		favMidrange = &req.FavoriteDiscs.Midrange
		favDriver = &req.FavoriteDiscs.Driver
	}
	var goalSessions, goalRoutines, goalGames *int
	if req.Goals != nil {
		goalSessions = &req.Goals.SessionsPerWeek
		goalRoutines = &req.Goals.RoutinesPerWeek
		goalGames = &req.Goals.GamesPerWeek
	}

	row := s.db.QueryRow(ctx, `
		UPDATE users SET
			display_name = COALESCE(NULLIF($2, ''), display_name),
			image_url = COALESCE(NULLIF($3, ''), image_url),
			gender = COALESCE($4, gender),
			birthday = COALESCE($5, birthday),
			fav_putter = COALESCE($6, fav_putter),
			fav_midrange = COALESCE($7, fav_midrange),
			fav_driver = COALESCE($8, fav_driver),
			goal_sessions_week = COALESCE($9, goal_sessions_week),
			goal_routines_week = COALESCE($10, goal_routines_week),
			goal_games_week = COALESCE($11, goal_games_week),
			hide_from_leaderboard = COALESCE($12, hide_from_leaderboard),
			opt_out_shared_logging = COALESCE($13, opt_out_shared_logging)
		WHERE clerk_id = $1
		RETURNING `+userColumns,
		clerkID, req.DisplayName, req.ImageURL, req.Gender, req.Birthday,
		favPutter, favMidrange, favDriver,
		goalSessions, goalRoutines, goalGames,
		req.HideFromLeaderboard, req.OptOutSharedLogging)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", clerkID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return u, nil
}

func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	result, err := s.db.Exec(ctx, `DELETE FROM users WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", clerkID, apperr.ErrNotFound)
	}
	return nil
}

func (s *UserService) UpdateLastLogin(ctx context.Context, clerkID string) error {
	_, err := s.db.Exec(ctx, `UPDATE users SET last_login = NOW() WHERE clerk_id = $1`, clerkID)
	return err
}

func (s *UserService) GetFriends(ctx context.Context, clerkID string) ([]*user.User, error) {
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT `+prefixedUserColumns("u")+`
		FROM users u
		INNER JOIN friendships f ON (
			(f.user_id = u.id AND f.friend_id = (SELECT id FROM users WHERE clerk_id = $1))
			OR
			(f.friend_id = u.id AND f.user_id = (SELECT id FROM users WHERE clerk_id = $1))
		)
		WHERE f.status = 'accepted' AND u.clerk_id != $1
		ORDER BY u.display_name
	`, clerkID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch friends: %w", err)
	}
	defer rows.Close()

	friends := []*user.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		friends = append(friends, u)
	}
	return friends, rows.Err()
}

func prefixedUserColumns(alias string) string {
	cols := strings.Split(userColumns, ",")
	for i := range cols {
		cols[i] = alias + "." + strings.TrimSpace(cols[i])
	}
	return strings.Join(cols, ", ")
}

func (s *UserService) AddFriend(ctx context.Context, clerkID string, friendClerkID string) error {
	userID, userName, _, err := resolveUser(ctx, s.db, clerkID)
	if err != nil {
		return err
	}
	friendID, err := getUserID(ctx, s.db, friendClerkID)
	if err != nil {
		return err
	}
	if userID == friendID {
		return &apperr.ValidationError{Reasons: []string{"cannot add yourself as a friend"}}
	}

	var exists bool
	err = s.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM friendships
			WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)
		)
	`, userID, friendID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check existing friendship: %w", err)
	}
	if exists {
		return fmt.Errorf("friendship already exists: %w", apperr.ErrState)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO friendships (user_id, friend_id, status, created_at)
		VALUES ($1, $2, 'accepted', NOW())
	`, userID, friendID)
	if err != nil {
		return fmt.Errorf("failed to create friendship: %w", err)
	}

	_, nerr := s.notificationService.Notify(ctx, &notification.CreateNotificationRequest{
		UserID:  friendID,
		Type:    notification.NotificationFriendAdded,
		Title:   "New friend",
		Message: fmt.Sprintf("%s added you as a friend", userName),
		ActorID: &userID,
	})
	if nerr != nil {
		log.Printf("AddFriend: failed to notify %s: %v", friendID, nerr)
	}

	log.Printf("AddFriend: %s added %s", clerkID, friendClerkID)
	return nil
}

func (s *UserService) RemoveFriend(ctx context.Context, clerkID string, friendClerkID string) error {
	userID, err := getUserID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}
	friendID, err := getUserID(ctx, s.db, friendClerkID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx, `
		DELETE FROM friendships
		WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)
	`, userID, friendID)
	if err != nil {
		return fmt.Errorf("failed to remove friendship: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("friendship: %w", apperr.ErrNotFound)
	}
	return nil
}

// SearchUsers matches display names and emails, exact and prefix hits
// ranked first.
func (s *UserService) SearchUsers(ctx context.Context, clerkID string, query string) ([]*user.User, error) {
	cleanQuery := strings.TrimSpace(query)
	if cleanQuery == "" {
		return []*user.User{}, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE (display_name ILIKE $1 OR email ILIKE $1) AND clerk_id != $2
		ORDER BY
			CASE
				WHEN LOWER(display_name) = LOWER($3) THEN 0
				WHEN display_name ILIKE $4 THEN 1
				ELSE 2
			END,
			display_name
		LIMIT 50
	`, "%"+cleanQuery+"%", clerkID, cleanQuery, cleanQuery+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	users := []*user.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func metricColumn(metric leaderboard.Metric) string {
	switch metric {
	case leaderboard.MetricSessions:
		return "total_sessions"
	case leaderboard.MetricRoutines:
		return "total_routines"
	case leaderboard.MetricGames:
		return "total_games"
	default:
		return "total_points"
	}
}

// GetGlobalLeaderboard ranks the top 100 visible users by the requested
// metric. The caller's own row is returned separately when they fall
// outside the page; hidden users never appear and get no position.
func (s *UserService) GetGlobalLeaderboard(ctx context.Context, clerkID string, metric leaderboard.Metric) (*leaderboard.Leaderboard, error) {
	if !metric.Valid() {
		return nil, &apperr.ValidationError{Reasons: []string{fmt.Sprintf("unknown leaderboard metric %q", metric)}}
	}

	userID, err := getUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	col := metricColumn(metric)
	query := fmt.Sprintf(`
		WITH ranked AS (
			SELECT
				id AS user_id,
				display_name,
				image_url,
				%s AS value,
				RANK() OVER (ORDER BY %s DESC) AS rank
			FROM users
			WHERE hide_from_leaderboard = false
		)
		SELECT user_id, display_name, image_url, value, rank
		FROM ranked
		ORDER BY rank
		LIMIT 100
	`, col, col)

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []*leaderboard.LeaderboardEntry{}
	var userPosition *leaderboard.LeaderboardEntry
	for rows.Next() {
		entry := &leaderboard.LeaderboardEntry{}
		if err := rows.Scan(&entry.UserID, &entry.DisplayName, &entry.ImageURL, &entry.Value, &entry.Rank); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		entries = append(entries, entry)
		if entry.UserID == userID {
			userPosition = entry
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var totalUsers int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE hide_from_leaderboard = false`).Scan(&totalUsers); err != nil {
		return nil, fmt.Errorf("failed to count leaderboard users: %w", err)
	}

	if userPosition == nil {
		// Caller is outside the page; fetch their own rank unless hidden.
		entry := &leaderboard.LeaderboardEntry{}
		err := s.db.QueryRow(ctx, fmt.Sprintf(`
			WITH ranked AS (
				SELECT id AS user_id, display_name, image_url, %s AS value,
				       RANK() OVER (ORDER BY %s DESC) AS rank
				FROM users
				WHERE hide_from_leaderboard = false
			)
			SELECT user_id, display_name, image_url, value, rank FROM ranked WHERE user_id = $1
		`, col, col), userID).Scan(&entry.UserID, &entry.DisplayName, &entry.ImageURL, &entry.Value, &entry.Rank)
		if err == nil {
			userPosition = entry
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to fetch own rank: %w", err)
		}
	}

	return &leaderboard.Leaderboard{
		Metric:       metric,
		Entries:      entries,
		UserPosition: userPosition,
		TotalUsers:   totalUsers,
	}, nil
}

// GetFriendsLeaderboard ranks the caller plus their accepted friends.
// The hide flag does not apply here: friends always see each other.
func (s *UserService) GetFriendsLeaderboard(ctx context.Context, clerkID string, metric leaderboard.Metric) (*leaderboard.Leaderboard, error) {
	if !metric.Valid() {
		return nil, &apperr.ValidationError{Reasons: []string{fmt.Sprintf("unknown leaderboard metric %q", metric)}}
	}

	userID, err := getUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	col := metricColumn(metric)
	query := fmt.Sprintf(`
		SELECT
			u.id AS user_id,
			u.display_name,
			u.image_url,
			u.%s AS value,
			RANK() OVER (ORDER BY u.%s DESC) AS rank
		FROM users u
		WHERE u.id = $1 OR u.id IN (
			SELECT friend_id FROM friendships WHERE user_id = $1 AND status = 'accepted'
			UNION
			SELECT user_id FROM friendships WHERE friend_id = $1 AND status = 'accepted'
		)
		ORDER BY rank
		LIMIT 50
	`, col, col)

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch friends leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []*leaderboard.LeaderboardEntry{}
	var userPosition *leaderboard.LeaderboardEntry
	for rows.Next() {
		entry := &leaderboard.LeaderboardEntry{}
		if err := rows.Scan(&entry.UserID, &entry.DisplayName, &entry.ImageURL, &entry.Value, &entry.Rank); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		entries = append(entries, entry)
		if entry.UserID == userID {
			userPosition = entry
		}
	}

	return &leaderboard.Leaderboard{
		Metric:       metric,
		Entries:      entries,
		UserPosition: userPosition,
		TotalUsers:   len(entries),
	}, rows.Err()
}

// GetUserStats assembles the profile stats payload: the history-derived
// numbers plus the aggregate counters and social context.
func (s *UserService) GetUserStats(ctx context.Context, clerkID string) (*stats.UserStats, error) {
	u, err := s.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	sessions, err := loadUserSessions(ctx, s.db, u.ID)
	if err != nil {
		return nil, err
	}

	result := &stats.UserStats{
		Stats:         stats.Calculate(sessions, time.Now()),
		TotalPoints:   u.TotalPoints,
		TotalRoutines: u.TotalRoutines,
		TotalGames:    u.TotalGames,
		BestAccuracy:  u.BestAccuracy,
	}

	err = s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_achievements WHERE user_id = $1`, u.ID).Scan(&result.AchievementsCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count achievements: %w", err)
	}

	err = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM friendships
		WHERE (user_id = $1 OR friend_id = $1) AND status = 'accepted'
	`, u.ID).Scan(&result.FriendsCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count friends: %w", err)
	}

	if u.HideFromLeaderboard {
		result.Rank = 0
	} else {
		err = s.db.QueryRow(ctx, `
			SELECT COUNT(*) + 1 FROM users
			WHERE hide_from_leaderboard = false AND total_points > $1
		`, u.TotalPoints).Scan(&result.Rank)
		if err != nil {
			return nil, fmt.Errorf("failed to compute rank: %w", err)
		}
	}

	result.WeekSessions.Goal = u.Goals.SessionsPerWeek
	result.WeekRoutines.Goal = u.Goals.RoutinesPerWeek
	result.WeekGames.Goal = u.Goals.GamesPerWeek
	err = s.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM sessions
			 WHERE user_id = $1 AND pending = false AND date >= date_trunc('week', NOW())),
			(SELECT COUNT(*) FROM routine_completions
			 WHERE user_id = $1 AND pending = false AND end_time >= date_trunc('week', NOW())),
			(SELECT COUNT(*) FROM game_completions
			 WHERE user_id = $1 AND pending = false AND created_at >= date_trunc('week', NOW()))
	`, u.ID).Scan(&result.WeekSessions.Done, &result.WeekRoutines.Done, &result.WeekGames.Done)
	if err != nil {
		return nil, fmt.Errorf("failed to compute weekly progress: %w", err)
	}

	return result, nil
}

// GetProfile is the public profile view another user sees: identity,
// stats and whether the viewer is already friends with them.
func (s *UserService) GetProfile(ctx context.Context, viewerClerkID string, profileUserID uuid.UUID) (*user.ProfileResponse, error) {
	viewerID, err := getUserID(ctx, s.db, viewerClerkID)
	if err != nil {
		return nil, err
	}

	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, profileUserID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", profileUserID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	userStats, err := s.GetUserStats(ctx, u.ClerkID)
	if err != nil {
		return nil, err
	}

	var isFriend bool
	err = s.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM friendships
			WHERE ((user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1))
			AND status = 'accepted'
		)
	`, viewerID, profileUserID).Scan(&isFriend)
	if err != nil {
		return nil, fmt.Errorf("failed to check friendship: %w", err)
	}

	return &user.ProfileResponse{User: u, Stats: userStats, IsFriend: isFriend}, nil
}
