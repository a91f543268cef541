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
	"puttPracticeAPI/internal/notification"
	"puttPracticeAPI/internal/scoring"
	"puttPracticeAPI/internal/session"
	"puttPracticeAPI/internal/validation"
)

// PracticeService is the session half of the progression store: it owns
// every session mutation and keeps the user aggregates consistent with the
// record collection. All aggregate updates run in one transaction with the
// owning user row locked, so two cross-loggers hitting the same target
// serialize instead of losing an update.
type PracticeService struct {
	db                  *pgxpool.Pool
	achievementService  *AchievementService
	challengeService    *ChallengeService
	notificationService *NotificationService
}

func NewPracticeService(db *pgxpool.Pool, achievementService *AchievementService, challengeService *ChallengeService, notificationService *NotificationService) *PracticeService {
	return &PracticeService{
		db:                  db,
		achievementService:  achievementService,
		challengeService:    challengeService,
		notificationService: notificationService,
	}
}

// AddSessionResult reports everything one add triggered, so the client
// renders the session, any badge splashes and the challenge banner from a
// single response.
type AddSessionResult struct {
	Session         *session.Session `json:"session"`
	NewAchievements []string         `json:"new_achievements"`
	ChallengeReward int              `json:"challenge_reward"`
}

// resolveUser looks a user up by Clerk id with the fields the cross-user
// flows need: the internal id, the display name to stamp on logged_by_name
// and the shared-logging opt-out flag.
func resolveUser(ctx context.Context, db *pgxpool.Pool, clerkID string) (uuid.UUID, string, bool, error) {
	var id uuid.UUID
	var displayName string
	var optOut bool
	err := db.QueryRow(ctx,
		`SELECT id, display_name, opt_out_shared_logging FROM users WHERE clerk_id = $1`, clerkID).
		Scan(&id, &displayName, &optOut)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, "", false, fmt.Errorf("user %s: %w", clerkID, apperr.ErrNotFound)
		}
		return uuid.Nil, "", false, fmt.Errorf("failed to resolve user: %w", err)
	}
	return id, displayName, optOut, nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pendingGateError classifies a failed accept/reject on a pending record:
// the record may not exist, belong to another user, or already be applied.
// Only the owning user may resolve a pending record, so a foreign owner is
// a permission failure, not a lookup miss.
func pendingGateError(ctx context.Context, q rowQuerier, table string, recordID, userID uuid.UUID) error {
	var ownerID uuid.UUID
	var pending bool
	err := q.QueryRow(ctx,
		fmt.Sprintf(`SELECT user_id, pending FROM %s WHERE id = $1`, table), recordID).
		Scan(&ownerID, &pending)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("pending record %s: %w", recordID, apperr.ErrNotFound)
		}
		return fmt.Errorf("failed to inspect record: %w", err)
	}
	if ownerID != userID {
		return fmt.Errorf("record %s belongs to another user: %w", recordID, apperr.ErrPermission)
	}
	if !pending {
		return fmt.Errorf("record %s is not pending: %w", recordID, apperr.ErrState)
	}
	return fmt.Errorf("pending record %s: %w", recordID, apperr.ErrNotFound)
}

// AddSession logs a session for the acting user and runs the full
// pipeline: validate → score → persist → aggregates → achievements →
// challenge.
func (s *PracticeService) AddSession(ctx context.Context, clerkID string, req *session.AddSessionRequest) (*AddSessionResult, error) {
	if verr := validation.CheckSessionInput(req.Makes, req.Attempts, req.Distance); verr != nil {
		return nil, verr
	}

	userID, _, _, err := resolveUser(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, &apperr.ValidationError{Reasons: []string{"date must be YYYY-MM-DD"}}
	}

	sess, err := s.insertSession(ctx, userID, date, req.Distance, req.Makes, req.Attempts, req.RoutineName, nil, nil, false)
	if err != nil {
		return nil, err
	}

	return s.afterSessionApplied(ctx, userID, sess)
}

// afterSessionApplied runs the post-persist stages in pipeline order. The
// session and aggregates are already committed, so the evaluator and the
// challenge check observe the write.
func (s *PracticeService) afterSessionApplied(ctx context.Context, userID uuid.UUID, sess *session.Session) (*AddSessionResult, error) {
	newAchievements, err := s.achievementService.Evaluate(ctx, userID)
	if err != nil {
		return nil, err
	}

	history, err := loadUserSessions(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	reward, err := s.challengeService.CheckCompletion(ctx, userID, sess, history)
	if err != nil {
		return nil, err
	}

	sessionsLogged.Inc()
	return &AddSessionResult{
		Session:         sess,
		NewAchievements: newAchievements,
		ChallengeReward: reward,
	}, nil
}

// insertSession persists the record and, unless pending, applies the
// aggregate updates in the same transaction. A failed write aborts the
// whole action; aggregates are never optimistically incremented.
func (s *PracticeService) insertSession(ctx context.Context, userID uuid.UUID, date time.Time, distance, makes, attempts int, routineName *string, loggedBy *uuid.UUID, loggedByName *string, pending bool) (*session.Session, error) {
	points, percentage := scoring.SessionScore(makes, attempts, distance)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID); err != nil {
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}

	now := time.Now()
	sess := &session.Session{
		ID:           uuid.New(),
		UserID:       userID,
		Date:         date,
		LoggedAt:     &now,
		Distance:     distance,
		Makes:        makes,
		Attempts:     attempts,
		Percentage:   percentage,
		Points:       points,
		RoutineName:  routineName,
		LoggedBy:     loggedBy,
		LoggedByName: loggedByName,
		Pending:      pending,
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO sessions (id, user_id, date, logged_at, distance, makes, attempts,
		                      percentage, points, routine_name, logged_by, logged_by_name, pending)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, sess.ID, sess.UserID, sess.Date, sess.LoggedAt, sess.Distance, sess.Makes, sess.Attempts,
		sess.Percentage, sess.Points, sess.RoutineName, sess.LoggedBy, sess.LoggedByName, sess.Pending)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}

	if !pending {
		if err := applySessionAdd(ctx, tx, userID, sess); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit session: %w", err)
	}
	return sess, nil
}

func applySessionAdd(ctx context.Context, tx pgx.Tx, userID uuid.UUID, sess *session.Session) error {
	_, err := tx.Exec(ctx, `
		UPDATE users SET
			total_points = total_points + $2,
			total_sessions = total_sessions + 1,
			total_putts = total_putts + $3,
			total_makes = total_makes + $4,
			best_session_points = GREATEST(best_session_points, $2),
			best_accuracy = GREATEST(best_accuracy, $5)
		WHERE id = $1
	`, userID, sess.Points, sess.Attempts, sess.Makes, sess.Percentage)
	if err != nil {
		return fmt.Errorf("failed to update user aggregates: %w", err)
	}
	return nil
}

// EditSession recomputes points/percentage from the new numbers and applies
// only the point delta to the aggregate, never a full recompute. Pending
// records get their stored fields refreshed without touching aggregates
// (they were never applied).
func (s *PracticeService) EditSession(ctx context.Context, clerkID string, sessionID uuid.UUID, req *session.EditSessionRequest) (*session.Session, error) {
	if verr := validation.CheckSessionInput(req.Makes, req.Attempts, req.Distance); verr != nil {
		return nil, verr
	}

	userID, _, _, err := resolveUser(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	newPoints, newPercentage := scoring.SessionScore(req.Makes, req.Attempts, req.Distance)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID); err != nil {
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}

	old := &session.Session{}
	err = tx.QueryRow(ctx, `
		SELECT id, user_id, date, logged_at, distance, makes, attempts, percentage,
		       points, routine_name, logged_by, logged_by_name, pending
		FROM sessions WHERE id = $1 AND user_id = $2
	`, sessionID, userID).Scan(
		&old.ID, &old.UserID, &old.Date, &old.LoggedAt, &old.Distance, &old.Makes,
		&old.Attempts, &old.Percentage, &old.Points, &old.RoutineName,
		&old.LoggedBy, &old.LoggedByName, &old.Pending,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", sessionID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE sessions SET distance = $3, makes = $4, attempts = $5, percentage = $6, points = $7
		WHERE id = $1 AND user_id = $2
	`, sessionID, userID, req.Distance, req.Makes, req.Attempts, newPercentage, newPoints)
	if err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	if !old.Pending {
		pointsDiff := newPoints - old.Points
		_, err = tx.Exec(ctx, `
			UPDATE users SET
				total_points = GREATEST(0, total_points + $2),
				total_putts = GREATEST(0, total_putts + $3),
				total_makes = GREATEST(0, total_makes + $4)
			WHERE id = $1
		`, userID, pointsDiff, req.Attempts-old.Attempts, req.Makes-old.Makes)
		if err != nil {
			return nil, fmt.Errorf("failed to apply aggregate delta: %w", err)
		}
		if err := recomputeBests(ctx, tx, userID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit edit: %w", err)
	}

	updated := *old
	updated.Distance = req.Distance
	updated.Makes = req.Makes
	updated.Attempts = req.Attempts
	updated.Percentage = newPercentage
	updated.Points = newPoints

	if _, err := s.achievementService.Evaluate(ctx, userID); err != nil {
		log.Printf("EditSession: achievement evaluation failed for %s: %v", userID, err)
	}
	return &updated, nil
}

// DeleteSession removes the record and reverses the aggregates, floored at
// zero. Deleting a pending record has no aggregate effect.
func (s *PracticeService) DeleteSession(ctx context.Context, clerkID string, sessionID uuid.UUID) error {
	userID, _, _, err := resolveUser(ctx, s.db, clerkID)
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

	var points, makes, attempts int
	var pending bool
	err = tx.QueryRow(ctx,
		`DELETE FROM sessions WHERE id = $1 AND user_id = $2 RETURNING points, makes, attempts, pending`,
		sessionID, userID).Scan(&points, &makes, &attempts, &pending)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("session %s: %w", sessionID, apperr.ErrNotFound)
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if !pending {
		_, err = tx.Exec(ctx, `
			UPDATE users SET
				total_points = GREATEST(0, total_points - $2),
				total_sessions = GREATEST(0, total_sessions - 1),
				total_putts = GREATEST(0, total_putts - $3),
				total_makes = GREATEST(0, total_makes - $4)
			WHERE id = $1
		`, userID, points, attempts, makes)
		if err != nil {
			return fmt.Errorf("failed to reverse aggregates: %w", err)
		}
		if err := recomputeBests(ctx, tx, userID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// recomputeBests rebuilds the denormalized best-session/best-accuracy
// snapshots after an edit or delete, when GREATEST alone can go stale.
func recomputeBests(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE users SET
			best_session_points = COALESCE((SELECT MAX(points) FROM sessions WHERE user_id = $1 AND pending = false), 0),
			best_accuracy = COALESCE((SELECT MAX(percentage) FROM sessions WHERE user_id = $1 AND pending = false), 0)
		WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to recompute bests: %w", err)
	}
	return nil
}

// GetSessions lists the user's own sessions newest-first, pending included
// so the client can render the approval queue.
func (s *PracticeService) GetSessions(ctx context.Context, clerkID string) ([]session.Session, error) {
	userID, _, _, err := resolveUser(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, date, logged_at, distance, makes, attempts,
		       percentage, points, routine_name, logged_by, logged_by_name, pending
		FROM sessions
		WHERE user_id = $1
		ORDER BY date DESC, logged_at DESC NULLS LAST
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}
	defer rows.Close()

	sessions := []session.Session{}
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

// CrossLog records a session on behalf of another user. Without approval
// required the target's aggregates update immediately; with it the entry
// stays pending and untouched until the target accepts.
func (s *PracticeService) CrossLog(ctx context.Context, actorClerkID string, req *session.CrossLogRequest) (*session.Session, error) {
	if verr := validation.CheckSessionInput(req.Makes, req.Attempts, req.Distance); verr != nil {
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
		return nil, &apperr.ValidationError{Reasons: []string{"use the regular add endpoint to log for yourself"}}
	}
	if optOut {
		return nil, fmt.Errorf("target opted out of shared logging: %w", apperr.ErrPermission)
	}

	sess, err := s.insertSession(ctx, targetID, dayOfToday(), req.Distance, req.Makes, req.Attempts, nil, &actorID, &actorName, req.RequireApproval)
	if err != nil {
		return nil, err
	}

	if req.RequireApproval {
		_, nerr := s.notificationService.Notify(ctx, &notification.CreateNotificationRequest{
			UserID:  targetID,
			Type:    notification.NotificationApprovalRequest,
			Title:   "Session logged for you",
			Message: fmt.Sprintf("%s logged %d/%d from %d ft for you — accept or reject it", actorName, req.Makes, req.Attempts, req.Distance),
			Data:    map[string]any{"session_id": sess.ID.String()},
			ActorID: &actorID,
		})
		if nerr != nil {
			log.Printf("CrossLog: failed to notify target %s: %v", targetID, nerr)
		}
		return sess, nil
	}

	// Immediate mode: run the target's pipeline so their badges and
	// challenge progress stay current.
	if _, err := s.afterSessionApplied(ctx, targetID, sess); err != nil {
		log.Printf("CrossLog: post-pipeline failed for target %s: %v", targetID, err)
	}
	return sess, nil
}

// BulkLog applies the cross-user flow to a batch of targets; each entry is
// validated and persisted independently so one failure never blocks the
// rest.
func (s *PracticeService) BulkLog(ctx context.Context, actorClerkID string, req *session.BulkLogRequest) ([]session.BulkLogResult, error) {
	if len(req.Entries) == 0 {
		return nil, &apperr.ValidationError{Reasons: []string{"no targets selected"}}
	}

	results := make([]session.BulkLogResult, 0, len(req.Entries))
	for _, entry := range req.Entries {
		res := session.BulkLogResult{TargetClerkID: entry.TargetClerkID}
		sess, err := s.CrossLog(ctx, actorClerkID, &session.CrossLogRequest{
			TargetClerkID:   entry.TargetClerkID,
			Distance:        entry.Distance,
			Makes:           entry.Makes,
			Attempts:        entry.Attempts,
			RequireApproval: req.RequireApproval,
		})
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Session = sess
		}
		results = append(results, res)
	}
	return results, nil
}

// AcceptPendingSession is the approval gate: only the owning user may
// accept, and acceptance applies the same aggregate update as a normal add.
func (s *PracticeService) AcceptPendingSession(ctx context.Context, clerkID string, sessionID uuid.UUID) (*AddSessionResult, error) {
	userID, _, _, err := resolveUser(ctx, s.db, clerkID)
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

	sess := &session.Session{}
	err = tx.QueryRow(ctx, `
		UPDATE sessions SET pending = false
		WHERE id = $1 AND user_id = $2 AND pending = true
		RETURNING id, user_id, date, logged_at, distance, makes, attempts,
		          percentage, points, routine_name, logged_by, logged_by_name, pending
	`, sessionID, userID).Scan(
		&sess.ID, &sess.UserID, &sess.Date, &sess.LoggedAt, &sess.Distance,
		&sess.Makes, &sess.Attempts, &sess.Percentage, &sess.Points,
		&sess.RoutineName, &sess.LoggedBy, &sess.LoggedByName, &sess.Pending,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pendingGateError(ctx, tx, "sessions", sessionID, userID)
		}
		return nil, fmt.Errorf("failed to accept session: %w", err)
	}

	if err := applySessionAdd(ctx, tx, userID, sess); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit accept: %w", err)
	}

	return s.afterSessionApplied(ctx, userID, sess)
}

// RejectPendingSession deletes the pending record with no aggregate effect.
func (s *PracticeService) RejectPendingSession(ctx context.Context, clerkID string, sessionID uuid.UUID) error {
	userID, _, _, err := resolveUser(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx,
		`DELETE FROM sessions WHERE id = $1 AND user_id = $2 AND pending = true`, sessionID, userID)
	if err != nil {
		return fmt.Errorf("failed to reject session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return pendingGateError(ctx, s.db, "sessions", sessionID, userID)
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return dayOfToday(), nil
	}
	return time.Parse("2006-01-02", s)
}

func dayOfToday() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
