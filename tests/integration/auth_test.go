package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puttPracticeAPI/handlers"
	"puttPracticeAPI/internal/user"
	"puttPracticeAPI/middleware"
	"puttPracticeAPI/services"
	"puttPracticeAPI/tests/helpers"
)

func newUserHandler(userService *services.UserService, achievementService *services.AchievementService) *handlers.UserHandler {
	return handlers.NewUserHandler(userService, achievementService)
}

func TestGetProfile_Authenticated(t *testing.T) {
	// Setup
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	notificationService := services.NewNotificationService(pool)
	userService := services.NewUserService(pool, notificationService)
	achievementService := services.NewAchievementService(pool, notificationService)
	userHandler := newUserHandler(userService, achievementService)

	// Create a test user
	clerkID := "user_test_" + time.Now().Format("20060102150405")
	ctx := context.Background()

	createReq := &user.CreateUserRequest{
		ClerkID:     clerkID,
		Email:       "testauth@example.com",
		DisplayName: "Test Auth",
		ImageURL:    "https://example.com/image.jpg",
	}

	createdUser, err := userService.CreateUser(ctx, createReq)
	require.NoError(t, err)

	// Create request with auth context (simulating successful auth middleware)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	ctx = context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()

	// Execute
	userHandler.GetProfile(rr, req)

	// Assert
	assert.Equal(t, http.StatusOK, rr.Code)

	var response user.User
	err = json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, createdUser.ID, response.ID)
	assert.Equal(t, clerkID, response.ClerkID)
	assert.Equal(t, "testauth@example.com", response.Email)
	assert.Equal(t, "Test Auth", response.DisplayName)
	assert.Equal(t, 0, response.TotalPoints)
}

func TestGetProfile_Unauthenticated(t *testing.T) {
	// Setup
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	notificationService := services.NewNotificationService(pool)
	userService := services.NewUserService(pool, notificationService)
	achievementService := services.NewAchievementService(pool, notificationService)
	userHandler := newUserHandler(userService, achievementService)

	// Create request WITHOUT auth
	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	rr := httptest.NewRecorder()

	// Execute
	userHandler.GetProfile(rr, req)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	var response map[string]string
	err := json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Contains(t, response["error"], "not authenticated")
}

func TestUpdateProfile_Authenticated(t *testing.T) {
	// Setup
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	notificationService := services.NewNotificationService(pool)
	userService := services.NewUserService(pool, notificationService)
	achievementService := services.NewAchievementService(pool, notificationService)
	userHandler := newUserHandler(userService, achievementService)

	// Create a test user
	clerkID := "user_test_" + time.Now().Format("20060102150405")
	ctx := context.Background()

	_, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:     clerkID,
		Email:       "testupdate@example.com",
		DisplayName: "Test Update",
	})
	require.NoError(t, err)

	// Create update request
	updateData := `{
		"displayName": "Updated Name",
		"favoriteDiscs": {"putter": "P2", "midrange": "M4", "driver": "D1"},
		"goals": {"sessions_per_week": 5, "routines_per_week": 2, "games_per_week": 1}
	}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/user/update-profile", strings.NewReader(updateData))
	req.Header.Set("Content-Type", "application/json")

	// Add auth context
	ctx = context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()

	// Execute
	userHandler.UpdateProfile(rr, req)

	// Assert
	assert.Equal(t, http.StatusOK, rr.Code)

	var response user.User
	err = json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, "Updated Name", response.DisplayName)
	assert.Equal(t, "P2", response.FavoriteDiscs.Putter)
	assert.Equal(t, 5, response.Goals.SessionsPerWeek)

	// Fields left out of the payload keep their values
	assert.Equal(t, "testupdate@example.com", response.Email)
}

func TestDeleteAccount_Authenticated(t *testing.T) {
	// Setup
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	notificationService := services.NewNotificationService(pool)
	userService := services.NewUserService(pool, notificationService)
	achievementService := services.NewAchievementService(pool, notificationService)
	userHandler := newUserHandler(userService, achievementService)

	// Create a test user
	clerkID := "user_test_" + time.Now().Format("20060102150405")
	ctx := context.Background()

	_, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:     clerkID,
		Email:       "testdelete@example.com",
		DisplayName: "Test Delete",
	})
	require.NoError(t, err)

	// Create delete request
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/user/delete-account", nil)

	// Add auth context
	ctx = context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()

	// Execute
	userHandler.DeleteAccount(rr, req)

	// Assert
	assert.Equal(t, http.StatusOK, rr.Code)

	// Verify deletion
	_, err = userService.GetUserByClerkID(ctx, clerkID)
	assert.Error(t, err, "User should be deleted")
}
