package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puttPracticeAPI/internal/notification"
	"puttPracticeAPI/internal/user"
	"puttPracticeAPI/services"
	"puttPracticeAPI/tests/helpers"
)

func TestNotificationFlow(t *testing.T) {
	db := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, db)

	svc := services.NewNotificationService(db)
	userService := services.NewUserService(db, svc)

	ctx := context.Background()

	clerkID := "user_test_notif_" + time.Now().Format("20060102150405")
	u, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:     clerkID,
		Email:       "testnotif@example.com",
		DisplayName: "Notif Tester",
	})
	require.NoError(t, err)

	// Create a notification
	notif, err := svc.Notify(ctx, &notification.CreateNotificationRequest{
		UserID:  u.ID,
		Type:    notification.NotificationAchievement,
		Title:   "Achievement Unlocked!",
		Message: "You earned Week Warrior",
		Data:    map[string]any{"achievement_id": "streak_7"},
	})
	require.NoError(t, err)
	assert.False(t, notif.IsRead)

	// It shows up in the list and the unread count
	list, err := svc.GetNotifications(ctx, clerkID, 1, 20, false)
	require.NoError(t, err)
	assert.Equal(t, 1, list.TotalCount)
	assert.Equal(t, 1, list.UnreadCount)

	count, err := svc.GetUnreadCount(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Mark as read
	err = svc.MarkAsRead(ctx, notif.ID, clerkID)
	require.NoError(t, err)

	count, err = svc.GetUnreadCount(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// unread_only filtering skips read notifications
	list, err = svc.GetNotifications(ctx, clerkID, 1, 20, true)
	require.NoError(t, err)
	assert.Empty(t, list.Notifications)

	// Delete
	err = svc.DeleteNotification(ctx, notif.ID, clerkID)
	require.NoError(t, err)

	list, err = svc.GetNotifications(ctx, clerkID, 1, 20, false)
	require.NoError(t, err)
	assert.Equal(t, 0, list.TotalCount)
}
