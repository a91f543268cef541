package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"puttPracticeAPI/internal/notification"
)

// PushProvider abstracts the FCM client so tests can run without firebase
// credentials.
type PushProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

type NotificationService struct {
	db   *pgxpool.Pool
	push PushProvider
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	return &NotificationService{db: db}
}

// SetPushProvider injects the push backend after construction; main wires
// it only when FCM credentials are available.
func (s *NotificationService) SetPushProvider(p PushProvider) {
	s.push = p
}

func (s *NotificationService) getUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, "SELECT id FROM users WHERE clerk_id = $1", clerkID).Scan(&userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("user not found for clerk_id %s: %w", clerkID, err)
	}
	return userID, nil
}

// Notify inserts a notification row and fires a best-effort push. Push
// failures are logged, never propagated: losing a push must not abort the
// progression pipeline that triggered it.
func (s *NotificationService) Notify(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error) {
	dataJSON, _ := json.Marshal(req.Data)

	query := `
		INSERT INTO notifications (user_id, type, title, message, data, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, user_id, type, title, message, is_read, data, actor_id, created_at
	`

	notif := &notification.Notification{}
	var dataStr string
	err := s.db.QueryRow(ctx, query,
		req.UserID, req.Type, req.Title, req.Message, dataJSON, req.ActorID,
	).Scan(
		&notif.ID, &notif.UserID, &notif.Type, &notif.Title, &notif.Message,
		&notif.IsRead, &dataStr, &notif.ActorID, &notif.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	json.Unmarshal([]byte(dataStr), &notif.Data)

	if s.push != nil {
		go func() {
			tokens, err := s.deviceTokens(context.Background(), req.UserID)
			if err != nil {
				log.Printf("Notify: failed to load device tokens for %s: %v", req.UserID, err)
				return
			}
			if err := s.push.SendPush(context.Background(), tokens, req.Title, req.Message, req.Data); err != nil {
				log.Printf("Notify: push failed for %s: %v", req.UserID, err)
			}
		}()
	}

	return notif, nil
}

func (s *NotificationService) deviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx, "SELECT token, platform FROM device_tokens WHERE user_id = $1", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.Token, &t.Platform); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (s *NotificationService) RegisterDevice(ctx context.Context, clerkID string, req *notification.RegisterDeviceRequest) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO device_tokens (user_id, token, platform, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (token) DO UPDATE SET user_id = $1, platform = $3
	`
	_, err = s.db.Exec(ctx, query, userID, req.Token, req.Platform)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (s *NotificationService) GetNotifications(ctx context.Context, clerkID string, page, pageSize int, unreadOnly bool) (*notification.NotificationListResponse, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	offset := (page - 1) * pageSize
	whereClause := "WHERE user_id = $1"
	if unreadOnly {
		whereClause += " AND is_read = false"
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, type, title, message, is_read, data, actor_id, created_at
		FROM notifications
		%s
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, whereClause)

	rows, err := s.db.Query(ctx, query, userID, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*notification.Notification
	for rows.Next() {
		notif := &notification.Notification{}
		var dataStr string
		err := rows.Scan(
			&notif.ID, &notif.UserID, &notif.Type, &notif.Title, &notif.Message,
			&notif.IsRead, &dataStr, &notif.ActorID, &notif.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		json.Unmarshal([]byte(dataStr), &notif.Data)
		notifications = append(notifications, notif)
	}

	var unreadCount, totalCount int
	s.db.QueryRow(ctx, "SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false", userID).Scan(&unreadCount)
	s.db.QueryRow(ctx, "SELECT COUNT(*) FROM notifications WHERE user_id = $1", userID).Scan(&totalCount)

	return &notification.NotificationListResponse{
		Notifications: notifications,
		UnreadCount:   unreadCount,
		TotalCount:    totalCount,
		Page:          page,
		PageSize:      pageSize,
	}, nil
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, clerkID string) (int, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return 0, err
	}

	var unreadCount int
	err = s.db.QueryRow(ctx, "SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false", userID).Scan(&unreadCount)
	if err != nil {
		return 0, fmt.Errorf("failed to get unread count: %w", err)
	}
	return unreadCount, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID uuid.UUID, clerkID string) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx,
		"UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2 AND is_read = false",
		notificationID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("notification not found or already read")
	}
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, clerkID string) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, "UPDATE notifications SET is_read = true WHERE user_id = $1 AND is_read = false", userID)
	return err
}

func (s *NotificationService) DeleteNotification(ctx context.Context, notificationID uuid.UUID, clerkID string) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx, "DELETE FROM notifications WHERE id = $1 AND user_id = $2", notificationID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("notification not found")
	}
	return nil
}
