package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"puttPracticeAPI/internal/apperr"
	"puttPracticeAPI/internal/notification"
	"puttPracticeAPI/internal/routine"
	"puttPracticeAPI/internal/scoring"
	"puttPracticeAPI/internal/validation"
)

// RoutineService handles the routine catalog and completion lifecycle.
// Completion totals are always derived from the drills array, so an edit
// can never desync the stored stats from the drill numbers.
type RoutineService struct {
	db                  *pgxpool.Pool
	achievementService  *AchievementService
	notificationService *NotificationService
}

func NewRoutineService(db *pgxpool.Pool, achievementService *AchievementService, notificationService *NotificationService) *RoutineService {
	return &RoutineService{
		db:                  db,
		achievementService:  achievementService,
		notificationService: notificationService,
	}
}

// GetRoutines returns the static catalog.
func (s *RoutineService) GetRoutines() []routine.Routine {
	return routine.Catalog()
}

type CompleteRoutineResult struct {
	Completion      *routine.Completion `json:"completion"`
	NewAchievements []string            `json:"new_achievements"`
}

func checkDrills(drills []routine.Drill) *apperr.ValidationError {
	reasons := []string{}
	if len(drills) == 0 {
		reasons = append(reasons, "at least one drill is required")
	}
	for i, d := range drills {
		if verr := validation.CheckSessionInput(d.Makes, d.Attempts, d.Distance); verr != nil {
			for _, r := range verr.Reasons {
				reasons = append(reasons, fmt.Sprintf("drill %d: %s", i+1, r))
			}
		}
	}
	if len(reasons) > 0 {
		return &apperr.ValidationError{Reasons: reasons}
	}
	return nil
}

// scoreDrills fills each drill's percentage, sums the routine points and
// derives the completion totals.
func scoreDrills(drills []routine.Drill) (int, routine.TotalStats) {
	totals := routine.TotalStats{}
	for i := range drills {
		_, pct := scoring.SessionScore(drills[i].Makes, drills[i].Attempts, drills[i].Distance)
		drills[i].Percentage = pct
		totals.TotalMakes += drills[i].Makes
		totals.TotalAttempts += drills[i].Attempts
	}
	if totals.TotalAttempts > 0 {
		totals.OverallPercentage = scoring.Round1(float64(totals.TotalMakes) / float64(totals.TotalAttempts) * 100)
	}
	points := scoring.RoutinePoints(toScoringDrills(drills))
	return points, totals
}

func toScoringDrills(drills []routine.Drill) []scoring.Drill {
	out := make([]scoring.Drill, len(drills))
	for i, d := range drills {
		out[i] = scoring.Drill{Makes: d.Makes, Attempts: d.Attempts, Distance: d.Distance}
	}
	return out
}

// insertCompletion persists the record and, unless pending, applies the
// aggregate updates in the same locked transaction. Pending completions
// wait for the owner's accept before counting.
func (s *RoutineService) insertCompletion(ctx context.Context, userID uuid.UUID, r routine.Routine, duration int, drills []routine.Drill, notes *string, loggedBy *uuid.UUID, loggedByName *string, pending bool) (*routine.Completion, error) {
	points, totals := scoreDrills(drills)
	now := time.Now()

	comp := &routine.Completion{
		ID:           uuid.New(),
		UserID:       userID,
		RoutineID:    r.ID,
		RoutineName:  r.Name,
		StartTime:    now.Add(-time.Duration(duration) * time.Minute),
		EndTime:      now,
		Duration:     duration,
		Drills:       drills,
		TotalStats:   totals,
		Points:       points,
		Notes:        notes,
		LoggedBy:     loggedBy,
		LoggedByName: loggedByName,
		Pending:      pending,
	}

	drillsJSON, err := json.Marshal(comp.Drills)
	if err != nil {
		return nil, fmt.Errorf("failed to encode drills: %w", err)
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
		INSERT INTO routine_completions (id, user_id, routine_id, routine_name, start_time,
		                                 end_time, duration, drills, points, notes,
		                                 logged_by, logged_by_name, pending)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, comp.ID, comp.UserID, comp.RoutineID, comp.RoutineName, comp.StartTime,
		comp.EndTime, comp.Duration, drillsJSON, comp.Points, comp.Notes,
		comp.LoggedBy, comp.LoggedByName, comp.Pending)
	if err != nil {
		return nil, fmt.Errorf("failed to insert routine completion: %w", err)
	}

	if !pending {
		if err := applyRoutineAdd(ctx, tx, userID, points, totals); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit routine completion: %w", err)
	}
	return comp, nil
}

func applyRoutineAdd(ctx context.Context, tx pgx.Tx, userID uuid.UUID, points int, totals routine.TotalStats) error {
	_, err := tx.Exec(ctx, `
		UPDATE users SET
			total_points = total_points + $2,
			total_routines = total_routines + 1,
			total_putts = total_putts + $3,
			total_makes = total_makes + $4
		WHERE id = $1
	`, userID, points, totals.TotalAttempts, totals.TotalMakes)
	if err != nil {
		return fmt.Errorf("failed to update user aggregates: %w", err)
	}
	return nil
}

// CompleteRoutine logs a full pass through a catalog routine: validates
// every drill, derives points and totals, persists the completion and
// applies the aggregate update in one locked transaction.
func (s *RoutineService) CompleteRoutine(ctx context.Context, clerkID string, req *routine.CompleteRoutineRequest) (*CompleteRoutineResult, error) {
	r, ok := routine.ByID(req.RoutineID)
	if !ok {
		return nil, fmt.Errorf("routine %q: %w", req.RoutineID, apperr.ErrNotFound)
	}
	if verr := checkDrills(req.Drills); verr != nil {
		return nil, verr
	}
	if verr := validation.CheckDuration(req.Duration); verr != nil {
		return nil, verr
	}

	userID, err := getUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	comp, err := s.insertCompletion(ctx, userID, r, req.Duration, req.Drills, req.Notes, nil, nil, false)
	if err != nil {
		return nil, err
	}

	newAchievements, err := s.achievementService.Evaluate(ctx, userID)
	if err != nil {
		return nil, err
	}

	routinesCompleted.Inc()
	return &CompleteRoutineResult{Completion: comp, NewAchievements: newAchievements}, nil
}

// CrossLogCompletion records a routine completion on behalf of another
// user. Without approval required the target's aggregates update
// immediately; with it the entry stays pending until the target accepts.
func (s *RoutineService) CrossLogCompletion(ctx context.Context, actorClerkID string, req *routine.CrossLogRequest) (*routine.Completion, error) {
	r, ok := routine.ByID(req.RoutineID)
	if !ok {
		return nil, fmt.Errorf("routine %q: %w", req.RoutineID, apperr.ErrNotFound)
	}
	if verr := checkDrills(req.Drills); verr != nil {
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

	comp, err := s.insertCompletion(ctx, targetID, r, req.Duration, req.Drills, req.Notes, &actorID, &actorName, req.RequireApproval)
	if err != nil {
		return nil, err
	}

	if req.RequireApproval {
		_, nerr := s.notificationService.Notify(ctx, &notification.CreateNotificationRequest{
			UserID:  targetID,
			Type:    notification.NotificationApprovalRequest,
			Title:   "Routine logged for you",
			Message: fmt.Sprintf("%s logged %s for you — accept or reject it", actorName, r.Name),
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
	routinesCompleted.Inc()
	return comp, nil
}

// AcceptPendingCompletion is the approval gate: only the owning user may
// accept, and acceptance applies the same aggregate update as a normal
// completion.
func (s *RoutineService) AcceptPendingCompletion(ctx context.Context, clerkID string, completionID uuid.UUID) (*CompleteRoutineResult, error) {
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

	comp := &routine.Completion{}
	var drillsJSON []byte
	err = tx.QueryRow(ctx, `
		UPDATE routine_completions SET pending = false
		WHERE id = $1 AND user_id = $2 AND pending = true
		RETURNING id, user_id, routine_id, routine_name, start_time, end_time,
		          duration, drills, points, notes, logged_by, logged_by_name, pending
	`, completionID, userID).Scan(
		&comp.ID, &comp.UserID, &comp.RoutineID, &comp.RoutineName, &comp.StartTime,
		&comp.EndTime, &comp.Duration, &drillsJSON, &comp.Points, &comp.Notes,
		&comp.LoggedBy, &comp.LoggedByName, &comp.Pending,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pendingGateError(ctx, tx, "routine_completions", completionID, userID)
		}
		return nil, fmt.Errorf("failed to accept routine completion: %w", err)
	}
	if err := json.Unmarshal(drillsJSON, &comp.Drills); err != nil {
		return nil, fmt.Errorf("failed to decode drills: %w", err)
	}
	_, comp.TotalStats = scoreDrills(comp.Drills)

	if err := applyRoutineAdd(ctx, tx, userID, comp.Points, comp.TotalStats); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit accept: %w", err)
	}

	newAchievements, err := s.achievementService.Evaluate(ctx, userID)
	if err != nil {
		return nil, err
	}

	routinesCompleted.Inc()
	return &CompleteRoutineResult{Completion: comp, NewAchievements: newAchievements}, nil
}

// RejectPendingCompletion deletes the pending record with no aggregate
// effect.
func (s *RoutineService) RejectPendingCompletion(ctx context.Context, clerkID string, completionID uuid.UUID) error {
	userID, err := getUserID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx,
		`DELETE FROM routine_completions WHERE id = $1 AND user_id = $2 AND pending = true`,
		completionID, userID)
	if err != nil {
		return fmt.Errorf("failed to reject routine completion: %w", err)
	}
	if result.RowsAffected() == 0 {
		return pendingGateError(ctx, s.db, "routine_completions", completionID, userID)
	}
	return nil
}

// GetCompletions lists the user's routine completions newest-first,
// pending included so the client can render the approval queue.
func (s *RoutineService) GetCompletions(ctx context.Context, clerkID string) ([]routine.Completion, error) {
	userID, err := getUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, routine_id, routine_name, start_time, end_time,
		       duration, drills, points, notes, logged_by, logged_by_name, pending
		FROM routine_completions
		WHERE user_id = $1
		ORDER BY end_time DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch routine completions: %w", err)
	}
	defer rows.Close()

	completions := []routine.Completion{}
	for rows.Next() {
		var comp routine.Completion
		var drillsJSON []byte
		err := rows.Scan(
			&comp.ID, &comp.UserID, &comp.RoutineID, &comp.RoutineName,
			&comp.StartTime, &comp.EndTime, &comp.Duration, &drillsJSON,
			&comp.Points, &comp.Notes, &comp.LoggedBy, &comp.LoggedByName, &comp.Pending,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan routine completion: %w", err)
		}
		if err := json.Unmarshal(drillsJSON, &comp.Drills); err != nil {
			return nil, fmt.Errorf("failed to decode drills: %w", err)
		}
		_, comp.TotalStats = scoreDrills(comp.Drills)
		completions = append(completions, comp)
	}
	return completions, rows.Err()
}

// EditCompletion replaces the drill numbers and duration, rescores, and
// applies the point delta to the user aggregate.
func (s *RoutineService) EditCompletion(ctx context.Context, clerkID string, completionID uuid.UUID, req *routine.EditCompletionRequest) (*routine.Completion, error) {
	if verr := checkDrills(req.Drills); verr != nil {
		return nil, verr
	}
	if verr := validation.CheckDuration(req.Duration); verr != nil {
		return nil, verr
	}

	userID, err := getUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	newPoints, newTotals := scoreDrills(req.Drills)
	drillsJSON, err := json.Marshal(req.Drills)
	if err != nil {
		return nil, fmt.Errorf("failed to encode drills: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID); err != nil {
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}

	old := &routine.Completion{}
	var oldDrillsJSON []byte
	err = tx.QueryRow(ctx, `
		SELECT id, user_id, routine_id, routine_name, start_time, end_time,
		       duration, drills, points, notes, logged_by, logged_by_name, pending
		FROM routine_completions WHERE id = $1 AND user_id = $2
	`, completionID, userID).Scan(
		&old.ID, &old.UserID, &old.RoutineID, &old.RoutineName, &old.StartTime,
		&old.EndTime, &old.Duration, &oldDrillsJSON, &old.Points, &old.Notes,
		&old.LoggedBy, &old.LoggedByName, &old.Pending,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("routine completion %s: %w", completionID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load routine completion: %w", err)
	}
	if err := json.Unmarshal(oldDrillsJSON, &old.Drills); err != nil {
		return nil, fmt.Errorf("failed to decode drills: %w", err)
	}
	_, oldTotals := scoreDrills(old.Drills)

	notes := old.Notes
	if req.Notes != nil {
		notes = req.Notes
	}

	_, err = tx.Exec(ctx, `
		UPDATE routine_completions SET duration = $3, drills = $4, points = $5, notes = $6
		WHERE id = $1 AND user_id = $2
	`, completionID, userID, req.Duration, drillsJSON, newPoints, notes)
	if err != nil {
		return nil, fmt.Errorf("failed to update routine completion: %w", err)
	}

	if !old.Pending {
		_, err = tx.Exec(ctx, `
			UPDATE users SET
				total_points = GREATEST(0, total_points + $2),
				total_putts = GREATEST(0, total_putts + $3),
				total_makes = GREATEST(0, total_makes + $4)
			WHERE id = $1
		`, userID, newPoints-old.Points, newTotals.TotalAttempts-oldTotals.TotalAttempts,
			newTotals.TotalMakes-oldTotals.TotalMakes)
		if err != nil {
			return nil, fmt.Errorf("failed to apply aggregate delta: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit edit: %w", err)
	}

	updated := *old
	updated.Duration = req.Duration
	updated.Drills = req.Drills
	updated.TotalStats = newTotals
	updated.Points = newPoints
	updated.Notes = notes

	if _, err := s.achievementService.Evaluate(ctx, userID); err != nil {
		log.Printf("EditCompletion: achievement evaluation failed for %s: %v", userID, err)
	}
	return &updated, nil
}

// DeleteCompletion removes the record and reverses its aggregate
// contribution, floored at zero.
func (s *RoutineService) DeleteCompletion(ctx context.Context, clerkID string, completionID uuid.UUID) error {
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

	var points int
	var drillsJSON []byte
	var pending bool
	err = tx.QueryRow(ctx,
		`DELETE FROM routine_completions WHERE id = $1 AND user_id = $2 RETURNING points, drills, pending`,
		completionID, userID).Scan(&points, &drillsJSON, &pending)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("routine completion %s: %w", completionID, apperr.ErrNotFound)
		}
		return fmt.Errorf("failed to delete routine completion: %w", err)
	}

	if !pending {
		var drills []routine.Drill
		if err := json.Unmarshal(drillsJSON, &drills); err != nil {
			return fmt.Errorf("failed to decode drills: %w", err)
		}
		_, totals := scoreDrills(drills)

		_, err = tx.Exec(ctx, `
			UPDATE users SET
				total_points = GREATEST(0, total_points - $2),
				total_routines = GREATEST(0, total_routines - 1),
				total_putts = GREATEST(0, total_putts - $3),
				total_makes = GREATEST(0, total_makes - $4)
			WHERE id = $1
		`, userID, points, totals.TotalAttempts, totals.TotalMakes)
		if err != nil {
			return fmt.Errorf("failed to reverse aggregates: %w", err)
		}
	}

	return tx.Commit(ctx)
}
