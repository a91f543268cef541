package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puttPracticeAPI/internal/notification"
	modelUser "puttPracticeAPI/internal/user"
	"puttPracticeAPI/services"
	"puttPracticeAPI/tests/helpers"
)

// TestAddFriendNotifiesFriend verifies that adding a friend leaves a
// friend_added notification for the other user.
func TestAddFriendNotifiesFriend(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	notificationService := services.NewNotificationService(pool)
	userService := services.NewUserService(pool, notificationService)

	ctx := context.Background()
	stamp := time.Now().Format("20060102150405")
	aliceID := "user_test_friend_a_" + stamp
	bobID := "user_test_friend_b_" + stamp

	_, err := userService.CreateUser(ctx, &modelUser.CreateUserRequest{
		ClerkID: aliceID, Email: "friend.a@example.com", DisplayName: "Alice",
	})
	require.NoError(t, err)
	_, err = userService.CreateUser(ctx, &modelUser.CreateUserRequest{
		ClerkID: bobID, Email: "friend.b@example.com", DisplayName: "Bob",
	})
	require.NoError(t, err)

	err = userService.AddFriend(ctx, aliceID, bobID)
	require.NoError(t, err)

	list, err := notificationService.GetNotifications(ctx, bobID, 1, 20, false)
	require.NoError(t, err)
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, notification.NotificationFriendAdded, list.Notifications[0].Type)
	assert.Contains(t, list.Notifications[0].Message, "Alice")

	// The initiator gets no notification
	list, err = notificationService.GetNotifications(ctx, aliceID, 1, 20, false)
	require.NoError(t, err)
	assert.Empty(t, list.Notifications)
}
