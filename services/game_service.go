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

	"puttPracticeAPI/internal/apperr"
	"puttPracticeAPI/internal/game"
	"puttPracticeAPI/internal/notification"
	"puttPracticeAPI/internal/scoring"
	"puttPracticeAPI/internal/validation"
)

// GameService handles the mini-game catalog and completion lifecycle.
// Points are always derived from the submitted result through the scoring
// table, never trusted from the client.
type GameService struct {
	db                  *pgxpool.Pool
	achievementService  *AchievementService
	notificationService *NotificationService
}

func NewGameService(db *pgxpool.Pool, achievementService *AchievementService, notificationService *NotificationService) *GameService {
	return &GameService{
		db:                  db,
		achievementService:  achievementService,
		notificationService: notificationService,
	}
}

// GetGames returns the static catalog.
func (s *GameService) GetGames() []game.Game {
	return game.Catalog()
}

type CompleteGameResult struct {
	Completion      *game.Completion `json:"completion"`
	NewAchievements []string         `json:"new_achievements"`
}

func checkGameResult(g game.Game, r game.Result) *apperr.ValidationError {
	reasons := []string{}
	if r.Score < 0 {
		reasons = append(reasons, "score cannot be negative")
	}
	if g.ScoringType == game.ScoringRotations {
		if r.TotalAttempts < 1 {
			reasons = append(reasons, "rotations games require total_attempts of at least 1")
		}
		if r.TotalMakes < 0 {
			reasons = append(reasons, "total_makes cannot be negative")
		}
		if r.TotalAttempts >= 1 && r.TotalMakes > r.TotalAttempts {
			reasons = append(reasons, "total_makes cannot exceed total_attempts")
		}
	}
	if len(reasons) > 0 {
		return &apperr.ValidationError{Reasons: reasons}
	}
	return nil
}

// insertCompletion persists the record and, unless pending, applies the
// aggregate updates in the same locked transaction. Rotations games also
// feed makes/attempts into the putting totals since they are real putts.
func (s *GameService) insertCompletion(ctx context.Context, userID uuid.UUID, g game.Game, result game.Result, duration int, notes *string, loggedBy *uuid.UUID, loggedByName *string, pending bool) (*game.Completion, error) {
	points := scoring.GamePoints(g, result)
	goal := scoring.GoalAchieved(g, result)

	comp := &game.Completion{
		ID:           uuid.New(),
		UserID:       userID,
		GameID:       g.ID,
		GameName:     g.Name,
		ScoringType:  g.ScoringType,
		Score:        result.Score,
		GoalAchieved: goal,
		Points:       points,
		Duration:     duration,
		Notes:        notes,
		LoggedBy:     loggedBy,
		LoggedByName: loggedByName,
		Pending:      pending,
		CreatedAt:    time.Now(),
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID); err != nil {
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO game_completions (id, user_id, game_id, game_name, scoring_type, score,
		                              goal_achieved, points, duration, total_makes, total_attempts,
		                              notes, logged_by, logged_by_name, pending, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, comp.ID, comp.UserID, comp.GameID, comp.GameName, comp.ScoringType, comp.Score,
		comp.GoalAchieved, comp.Points, comp.Duration, result.TotalMakes, result.TotalAttempts,
		comp.Notes, comp.LoggedBy, comp.LoggedByName, comp.Pending, comp.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert game completion: %w", err)
	}

	if !pending {
		if err := applyGameAdd(ctx, tx, userID, points, result.TotalMakes, result.TotalAttempts); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit game completion: %w", err)
	}
	return comp, nil
}

func applyGameAdd(ctx context.Context, tx pgx.Tx, userID uuid.UUID, points, totalMakes, totalAttempts int) error {
	_, err := tx.Exec(ctx, `
		UPDATE users SET
			total_points = total_points + $2,
			total_games = total_games + 1,
			total_putts = total_putts + $3,
			total_makes = total_makes + $4
		WHERE id = $1
	`, userID, points, totalAttempts, totalMakes)
	if err != nil {
		return fmt.Errorf("failed to update user aggregates: %w", err)
	}
	return nil
}

// CompleteGame logs one play: validates the result against the catalog
// entry, derives points and the goal flag, persists the completion and
// updates the aggregates in one locked transaction.
func (s *GameService) CompleteGame(ctx context.Context, clerkID string, req *game.CompleteGameRequest) (*CompleteGameResult, error) {
	g, ok := game.ByID(req.GameID)
	if !ok {
		return nil, fmt.Errorf("game %q: %w", req.GameID, apperr.ErrNotFound)
	}
	if verr := checkGameResult(g, req.Result); verr != nil {
		return nil, verr
	}
	if verr := validation.CheckDuration(req.Duration); verr != nil {
		return nil, verr
	}

	userID, err := getUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	comp, err := s.insertCompletion(ctx, userID, g, req.Result, req.Duration, req.Notes, nil, nil, false)
	if err != nil {
		return nil, err
	}

	newAchievements, err := s.achievementService.Evaluate(ctx, userID)
	if err != nil {
		return nil, err
	}

	gamesCompleted.Inc()
	return &CompleteGameResult{Completion: comp, NewAchievements: newAchievements}, nil
}

// CrossLogCompletion records a game play on behalf of another user.
// Without approval required the target's aggregates update immediately;
// with it the entry stays pending until the target accepts.
func (s *GameService) CrossLogCompletion(ctx context.Context, actorClerkID string, req *game.CrossLogRequest) (*game.Completion, error) {
	g, ok := game.ByID(req.GameID)
	if !ok {
		return nil, fmt.Errorf("game %q: %w", req.GameID, apperr.ErrNotFound)
	}
	if verr := checkGameResult(g, req.Result); verr != nil {
		return nil, verr
	}
	if verr := validation.CheckDuration(req.Duration); verr != nil {
		return nil, verr
	}

	actorID, actorName, _, err := resolveUser(ctx, s.db, actorClerkID)
	if err != nil {
		return nil, err
	}
	targetID, _, optOut, err := resolveUser(ctx, s.db, req.TargetClerkID)
	if err != nil {
		return nil, err
	}
	if targetID == actorID {
		return nil, &apperr.ValidationError{Reasons: []string{"use the regular completion endpoint to log for yourself"}}
	}
	if optOut {
		return nil, fmt.Errorf("target opted out of shared logging: %w", apperr.ErrPermission)
	}

	comp, err := s.insertCompletion(ctx, targetID, g, req.Result, req.Duration, req.Notes, &actorID, &actorName, req.RequireApproval)
	if err != nil {
		return nil, err
	}

	if req.RequireApproval {
		_, nerr := s.notificationService.Notify(ctx, &notification.CreateNotificationRequest{
			UserID:  targetID,
			Type:    notification.NotificationApprovalRequest,
			Title:   "Game logged for you",
			Message: fmt.Sprintf("%s logged a round of %s for you — accept or reject it", actorName, g.Name),
			Data:    map[string]any{"completion_id": comp.ID.String()},
			ActorID: &actorID,
		})
		if nerr != nil {
			log.Printf("CrossLogCompletion: failed to notify target %s: %v", targetID, nerr)
		}
		return comp, nil
	}

	if _, err := s.achievementService.Evaluate(ctx, targetID); err != nil {
		log.Printf("CrossLogCompletion: achievement evaluation failed for target %s: %v", targetID, err)
	}
	gamesCompleted.Inc()
	return comp, nil
}

// AcceptPendingCompletion is the approval gate: only the owning user may
// accept, and acceptance applies the same aggregate update as a normal
// play.
func (s *GameService) AcceptPendingCompletion(ctx context.Context, clerkID string, completionID uuid.UUID) (*CompleteGameResult, error) {
	userID, err := getUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID); err != nil {
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}

	comp := &game.Completion{}
	var totalMakes, totalAttempts int
	err = tx.QueryRow(ctx, `
		UPDATE game_completions SET pending = false
		WHERE id = $1 AND user_id = $2 AND pending = true
		RETURNING id, user_id, game_id, game_name, scoring_type, score, goal_achieved,
		          points, duration, total_makes, total_attempts, notes,
		          logged_by, logged_by_name, pending, created_at
	`, completionID, userID).Scan(
		&comp.ID, &comp.UserID, &comp.GameID, &comp.GameName, &comp.ScoringType,
		&comp.Score, &comp.GoalAchieved, &comp.Points, &comp.Duration,
		&totalMakes, &totalAttempts, &comp.Notes,
		&comp.LoggedBy, &comp.LoggedByName, &comp.Pending, &comp.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pendingGateError(ctx, tx, "game_completions", completionID, userID)
		}
		return nil, fmt.Errorf("failed to accept game completion: %w", err)
	}

	if err := applyGameAdd(ctx, tx, userID, comp.Points, totalMakes, totalAttempts); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit accept: %w", err)
	}

	newAchievements, err := s.achievementService.Evaluate(ctx, userID)
	if err != nil {
		return nil, err
	}

	gamesCompleted.Inc()
	return &CompleteGameResult{Completion: comp, NewAchievements: newAchievements}, nil
}

// RejectPendingCompletion deletes the pending record with no aggregate
// effect.
func (s *GameService) RejectPendingCompletion(ctx context.Context, clerkID string, completionID uuid.UUID) error {
	userID, err := getUserID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx,
		`DELETE FROM game_completions WHERE id = $1 AND user_id = $2 AND pending = true`,
		completionID, userID)
	if err != nil {
		return fmt.Errorf("failed to reject game completion: %w", err)
	}
	if result.RowsAffected() == 0 {
		return pendingGateError(ctx, s.db, "game_completions", completionID, userID)
	}
	return nil
}

// GetCompletions lists the user's game completions newest-first, pending
// included so the client can render the approval queue.
func (s *GameService) GetCompletions(ctx context.Context, clerkID string) ([]game.Completion, error) {
	userID, err := getUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, game_id, game_name, scoring_type, score, goal_achieved,
		       points, duration, notes, logged_by, logged_by_name, pending, created_at
		FROM game_completions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch game completions: %w", err)
	}
	defer rows.Close()

	completions := []game.Completion{}
	for rows.Next() {
		var comp game.Completion
		err := rows.Scan(
			&comp.ID, &comp.UserID, &comp.GameID, &comp.GameName, &comp.ScoringType,
			&comp.Score, &comp.GoalAchieved, &comp.Points, &comp.Duration,
			&comp.Notes, &comp.LoggedBy, &comp.LoggedByName, &comp.Pending, &comp.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game completion: %w", err)
		}
		completions = append(completions, comp)
	}
	return completions, rows.Err()
}

// EditCompletion rescores the play from the new result and applies the
// point and putting-total deltas.
func (s *GameService) EditCompletion(ctx context.Context, clerkID string, completionID uuid.UUID, req *game.EditCompletionRequest) (*game.Completion, error) {
	userID, err := getUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}
	if verr := validation.CheckDuration(req.Duration); verr != nil {
		return nil, verr
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID); err != nil {
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}

	old := &game.Completion{}
	var oldMakes, oldAttempts int
	err = tx.QueryRow(ctx, `
		SELECT id, user_id, game_id, game_name, scoring_type, score, goal_achieved,
		       points, duration, total_makes, total_attempts, notes,
		       logged_by, logged_by_name, pending, created_at
		FROM game_completions WHERE id = $1 AND user_id = $2
	`, completionID, userID).Scan(
		&old.ID, &old.UserID, &old.GameID, &old.GameName, &old.ScoringType,
		&old.Score, &old.GoalAchieved, &old.Points, &old.Duration,
		&oldMakes, &oldAttempts, &old.Notes,
		&old.LoggedBy, &old.LoggedByName, &old.Pending, &old.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("game completion %s: %w", completionID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load game completion: %w", err)
	}

	g, ok := game.ByID(old.GameID)
	if !ok {
		return nil, fmt.Errorf("game %q: %w", old.GameID, apperr.ErrNotFound)
	}
	if verr := checkGameResult(g, req.Result); verr != nil {
		return nil, verr
	}

	newPoints := scoring.GamePoints(g, req.Result)
	newGoal := scoring.GoalAchieved(g, req.Result)

	notes := old.Notes
	if req.Notes != nil {
		notes = req.Notes
	}

	_, err = tx.Exec(ctx, `
		UPDATE game_completions
		SET score = $3, goal_achieved = $4, points = $5, duration = $6,
		    total_makes = $7, total_attempts = $8, notes = $9
		WHERE id = $1 AND user_id = $2
	`, completionID, userID, req.Result.Score, newGoal, newPoints, req.Duration,
		req.Result.TotalMakes, req.Result.TotalAttempts, notes)
	if err != nil {
		return nil, fmt.Errorf("failed to update game completion: %w", err)
	}

	if !old.Pending {
		_, err = tx.Exec(ctx, `
			UPDATE users SET
				total_points = GREATEST(0, total_points + $2),
				total_putts = GREATEST(0, total_putts + $3),
				total_makes = GREATEST(0, total_makes + $4)
			WHERE id = $1
		`, userID, newPoints-old.Points, req.Result.TotalAttempts-oldAttempts,
			req.Result.TotalMakes-oldMakes)
		if err != nil {
			return nil, fmt.Errorf("failed to apply aggregate delta: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit edit: %w", err)
	}

	updated := *old
	updated.Score = req.Result.Score
	updated.GoalAchieved = newGoal
	updated.Points = newPoints
	updated.Duration = req.Duration
	updated.Notes = notes

	if _, err := s.achievementService.Evaluate(ctx, userID); err != nil {
		log.Printf("EditCompletion: achievement evaluation failed for %s: %v", userID, err)
	}
	return &updated, nil
}

// DeleteCompletion removes the record and reverses its aggregate
// contribution, floored at zero.
func (s *GameService) DeleteCompletion(ctx context.Context, clerkID string, completionID uuid.UUID) error {
	userID, err := getUserID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID); err != nil {
		return fmt.Errorf("failed to lock user: %w", err)
	}

	var points, totalMakes, totalAttempts int
	var pending bool
	err = tx.QueryRow(ctx, `
		DELETE FROM game_completions WHERE id = $1 AND user_id = $2
		RETURNING points, total_makes, total_attempts, pending
	`, completionID, userID).Scan(&points, &totalMakes, &totalAttempts, &pending)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("game completion %s: %w", completionID, apperr.ErrNotFound)
		}
		return fmt.Errorf("failed to delete game completion: %w", err)
	}

	if !pending {
		_, err = tx.Exec(ctx, `
			UPDATE users SET
				total_points = GREATEST(0, total_points - $2),
				total_games = GREATEST(0, total_games - 1),
				total_putts = GREATEST(0, total_putts - $3),
				total_makes = GREATEST(0, total_makes - $4)
			WHERE id = $1
		`, userID, points, totalAttempts, totalMakes)
		if err != nil {
			return fmt.Errorf("failed to reverse aggregates: %w", err)
		}
	}

	return tx.Commit(ctx)
}
