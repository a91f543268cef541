package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"puttPracticeAPI/internal/achievement"
	"puttPracticeAPI/internal/apperr"
	"puttPracticeAPI/internal/challenge"
	"puttPracticeAPI/internal/notification"
	"puttPracticeAPI/internal/session"
	"puttPracticeAPI/internal/stats"
)

// ChallengeService maintains the singleton rotating weekly challenge:
// NoChallenge → Active → (Expired → Active[new]).
type ChallengeService struct {
	db                  *pgxpool.Pool
	achievementService  *AchievementService
	notificationService *NotificationService
}

func NewChallengeService(db *pgxpool.Pool, achievementService *AchievementService, notificationService *NotificationService) *ChallengeService {
	return &ChallengeService{
		db:                  db,
		achievementService:  achievementService,
		notificationService: notificationService,
	}
}

// LoadWeeklyChallenge returns the active challenge, lazily creating a fresh
// one when none exists or the current one has outlived its 7 days.
func (s *ChallengeService) LoadWeeklyChallenge(ctx context.Context) (*challenge.Challenge, error) {
	c, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	if c != nil && !c.Expired(time.Now()) {
		return c, nil
	}
	return s.createNewChallenge(ctx)
}

// WeeklyChallengeView is the client payload: the active challenge plus the
// viewing user's completion state and the rotation deadline.
type WeeklyChallengeView struct {
	Challenge *challenge.Challenge `json:"challenge"`
	Completed bool                 `json:"completed"`
	ExpiresAt time.Time            `json:"expires_at"`
}

// GetWeeklyChallenge resolves the active challenge for one viewer.
func (s *ChallengeService) GetWeeklyChallenge(ctx context.Context, clerkID string) (*WeeklyChallengeView, error) {
	userID, err := getUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	c, err := s.LoadWeeklyChallenge(ctx)
	if err != nil {
		return nil, err
	}

	completed := false
	for _, id := range c.CompletedBy {
		if id == userID {
			completed = true
			break
		}
	}

	return &WeeklyChallengeView{
		Challenge: c,
		Completed: completed,
		ExpiresAt: c.StartDate.Add(challenge.Lifetime),
	}, nil
}

func (s *ChallengeService) current(ctx context.Context) (*challenge.Challenge, error) {
	c := &challenge.Challenge{}
	err := s.db.QueryRow(ctx, `
		SELECT id, type, target, description, reward, start_date, completed_by
		FROM weekly_challenges
		ORDER BY start_date DESC
		LIMIT 1
	`).Scan(&c.ID, &c.Type, &c.Target, &c.Description, &c.Reward, &c.StartDate, &c.CompletedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load weekly challenge: %w", err)
	}
	return c, nil
}

// createNewChallenge picks uniformly at random from the template catalog
// and persists a fresh instance, which resets eligibility for everyone.
func (s *ChallengeService) createNewChallenge(ctx context.Context) (*challenge.Challenge, error) {
	templates := challenge.Templates()
	tpl := templates[rand.Intn(len(templates))]

	c := &challenge.Challenge{
		ID:          uuid.New(),
		Type:        tpl.Type,
		Target:      tpl.Target,
		Description: tpl.Description,
		Reward:      tpl.Reward,
		StartDate:   time.Now(),
		CompletedBy: []uuid.UUID{},
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO weekly_challenges (id, type, target, description, reward, start_date, completed_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.Type, c.Target, c.Description, c.Reward, c.StartDate, c.CompletedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to create weekly challenge: %w", err)
	}

	log.Printf("ChallengeService: rotated to new %s challenge (target %d, reward %d)", c.Type, c.Target, c.Reward)
	return c, nil
}

// CheckCompletion evaluates the active challenge against a just-logged
// session. history must be the user's up-to-date non-pending session list
// (the new session included). Returns the credited reward, or 0 when the
// challenge is not satisfied or already claimed by this user.
func (s *ChallengeService) CheckCompletion(ctx context.Context, userID uuid.UUID, sess *session.Session, history []session.Session) (int, error) {
	if sess == nil {
		return 0, fmt.Errorf("%w: challenge check requires a session", apperr.ErrState)
	}

	c, err := s.LoadWeeklyChallenge(ctx)
	if err != nil {
		return 0, err
	}

	for _, id := range c.CompletedBy {
		if id == userID {
			return 0, nil
		}
	}

	weeklyMakes := stats.MakesInLastDays(history, 7, time.Now())
	currentStreak, _ := stats.Streaks(history, time.Now())
	if !challenge.Satisfied(c, sess, weeklyMakes, currentStreak) {
		return 0, nil
	}

	// Atomic add-to-set: the WHERE clause makes a concurrent double claim
	// lose the race instead of double-awarding the reward.
	result, err := s.db.Exec(ctx, `
		UPDATE weekly_challenges
		SET completed_by = array_append(completed_by, $2)
		WHERE id = $1 AND NOT ($2 = ANY(completed_by))
	`, c.ID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to claim challenge: %w", err)
	}
	if result.RowsAffected() == 0 {
		return 0, nil
	}

	_, err = s.db.Exec(ctx, `UPDATE users SET total_points = total_points + $2 WHERE id = $1`, userID, c.Reward)
	if err != nil {
		return 0, fmt.Errorf("failed to credit challenge reward: %w", err)
	}

	if _, err := s.achievementService.UnlockDirect(ctx, userID, achievement.ChallengeAccepted); err != nil {
		log.Printf("CheckCompletion: failed to unlock challenge badge for %s: %v", userID, err)
	}

	_, err = s.notificationService.Notify(ctx, &notification.CreateNotificationRequest{
		UserID:  userID,
		Type:    notification.NotificationChallenge,
		Title:   "Weekly challenge complete",
		Message: fmt.Sprintf("%s (+%d points)", c.Description, c.Reward),
		Data:    map[string]any{"challenge_id": c.ID.String(), "reward": c.Reward},
	})
	if err != nil {
		log.Printf("CheckCompletion: failed to notify %s: %v", userID, err)
	}

	challengesCompleted.Inc()
	return c.Reward, nil
}
