package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puttPracticeAPI/handlers"
	"puttPracticeAPI/internal/apperr"
	modelSession "puttPracticeAPI/internal/session"
	modelUser "puttPracticeAPI/internal/user"
	"puttPracticeAPI/middleware"
	"puttPracticeAPI/services"
	"puttPracticeAPI/tests/helpers"
)

// TestFullPracticeFlow simulates the complete flow: sign up, log a
// session, check stats and achievements, delete the account.
func TestFullPracticeFlow(t *testing.T) {
	// Setup
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	notificationService := services.NewNotificationService(pool)
	userService := services.NewUserService(pool, notificationService)
	achievementService := services.NewAchievementService(pool, notificationService)
	challengeService := services.NewChallengeService(pool, achievementService, notificationService)
	practiceService := services.NewPracticeService(pool, achievementService, challengeService, notificationService)

	userHandler := handlers.NewUserHandler(userService, achievementService)
	sessionHandler := handlers.NewSessionHandler(practiceService)
	webhookHandler := handlers.NewWebhookHandler(userService)

	os.Setenv("CLERK_WEBHOOK_SECRET", "")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	clerkID := "user_test_" + time.Now().Format("20060102150405")

	// Step 1: Simulate user signs up via Clerk
	t.Log("Step 1: User signs up")

	createPayload := helpers.MockClerkWebhookPayload("user.created", clerkID)
	req1 := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(createPayload))
	rr1 := httptest.NewRecorder()

	webhookHandler.HandleClerkWebhook(rr1, req1)
	assert.Equal(t, http.StatusOK, rr1.Code, "Webhook should succeed")

	// Step 2: Verify user exists in database
	t.Log("Step 2: Verify user in database")

	ctx := context.Background()
	u, err := userService.GetUserByClerkID(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, "test.user@example.com", u.Email)
	assert.Equal(t, 0, u.TotalSessions)

	// Step 3: User logs in and gets profile
	t.Log("Step 3: User gets profile")

	req2 := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	ctx = context.WithValue(req2.Context(), middleware.ClerkIDKey, clerkID)
	req2 = req2.WithContext(ctx)
	rr2 := httptest.NewRecorder()

	userHandler.GetProfile(rr2, req2)
	assert.Equal(t, http.StatusOK, rr2.Code)

	var profile modelUser.User
	err = json.Unmarshal(rr2.Body.Bytes(), &profile)
	require.NoError(t, err)
	assert.Equal(t, u.Email, profile.Email)

	// Step 4: User logs a practice session
	t.Log("Step 4: User logs a session")

	sessionData := `{"distance": 20, "makes": 8, "attempts": 10}`
	req3 := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(sessionData))
	req3.Header.Set("Content-Type", "application/json")
	ctx = context.WithValue(req3.Context(), middleware.ClerkIDKey, clerkID)
	req3 = req3.WithContext(ctx)
	rr3 := httptest.NewRecorder()

	sessionHandler.AddSession(rr3, req3)
	require.Equal(t, http.StatusCreated, rr3.Code, rr3.Body.String())

	var result services.AddSessionResult
	err = json.Unmarshal(rr3.Body.Bytes(), &result)
	require.NoError(t, err)
	require.NotNil(t, result.Session)
	assert.Equal(t, 80.0, result.Session.Percentage)
	assert.Contains(t, result.NewAchievements, "first_steps", "first session unlocks First Steps")

	// Step 5: Aggregates reflect the session
	t.Log("Step 5: Verify aggregates")

	u, err = userService.GetUserByClerkID(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, 1, u.TotalSessions)
	assert.Equal(t, 10, u.TotalPutts)
	assert.Equal(t, 8, u.TotalMakes)
	assert.Equal(t, result.Session.Points, u.TotalPoints)
	assert.Equal(t, result.Session.Points, u.BestSessionPoints)

	// Step 6: Deleting the session rolls the aggregates back
	t.Log("Step 6: Delete session and verify rollback")

	err = practiceService.DeleteSession(ctx, clerkID, result.Session.ID)
	require.NoError(t, err)

	u, err = userService.GetUserByClerkID(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, 0, u.TotalSessions)
	assert.Equal(t, 0, u.TotalPoints)
	assert.Equal(t, 0, u.BestSessionPoints)

	// Step 7: User deletes account
	t.Log("Step 7: User deletes account")

	req4 := httptest.NewRequest(http.MethodDelete, "/api/v1/user/delete-account", nil)
	ctx = context.WithValue(req4.Context(), middleware.ClerkIDKey, clerkID)
	req4 = req4.WithContext(ctx)
	rr4 := httptest.NewRecorder()

	userHandler.DeleteAccount(rr4, req4)
	assert.Equal(t, http.StatusOK, rr4.Code)

	// Verify deletion
	_, err = userService.GetUserByClerkID(ctx, clerkID)
	assert.Error(t, err, "User should be deleted")
}

// TestCrossLogApprovalFlow exercises the pending path: a friend logs a
// session for the user, aggregates stay untouched until the user accepts.
func TestCrossLogApprovalFlow(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	notificationService := services.NewNotificationService(pool)
	userService := services.NewUserService(pool, notificationService)
	achievementService := services.NewAchievementService(pool, notificationService)
	challengeService := services.NewChallengeService(pool, achievementService, notificationService)
	practiceService := services.NewPracticeService(pool, achievementService, challengeService, notificationService)

	ctx := context.Background()

	stamp := time.Now().Format("20060102150405")
	actorID := "user_test_actor_" + stamp
	targetID := "user_test_target_" + stamp

	_, err := userService.CreateUser(ctx, &modelUser.CreateUserRequest{
		ClerkID: actorID, Email: "testactor@example.com", DisplayName: "Actor",
	})
	require.NoError(t, err)
	_, err = userService.CreateUser(ctx, &modelUser.CreateUserRequest{
		ClerkID: targetID, Email: "testtarget@example.com", DisplayName: "Target",
	})
	require.NoError(t, err)

	// Actor logs a pending session for the target
	logged, err := practiceService.CrossLog(ctx, actorID, &modelSession.CrossLogRequest{
		TargetClerkID:   targetID,
		Distance:        20,
		Makes:           9,
		Attempts:        10,
		RequireApproval: true,
	})
	require.NoError(t, err)
	assert.True(t, logged.Pending)

	target, err := userService.GetUserByClerkID(ctx, targetID)
	require.NoError(t, err)
	assert.Equal(t, 0, target.TotalSessions, "pending sessions never touch aggregates")

	// Only the owner may resolve a pending record
	_, err = practiceService.AcceptPendingSession(ctx, actorID, logged.ID)
	assert.ErrorIs(t, err, apperr.ErrPermission)
	err = practiceService.RejectPendingSession(ctx, actorID, logged.ID)
	assert.ErrorIs(t, err, apperr.ErrPermission)

	// Target accepts
	result, err := practiceService.AcceptPendingSession(ctx, targetID, logged.ID)
	require.NoError(t, err)
	assert.False(t, result.Session.Pending)

	target, err = userService.GetUserByClerkID(ctx, targetID)
	require.NoError(t, err)
	assert.Equal(t, 1, target.TotalSessions)
	assert.Equal(t, 10, target.TotalPutts)
}
