package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"puttPracticeAPI/internal/leaderboard"
	"puttPracticeAPI/internal/user"
	"puttPracticeAPI/middleware"
	"puttPracticeAPI/services"
)

type UserHandler struct {
	userService        *services.UserService
	achievementService *services.AchievementService
}

func NewUserHandler(userService *services.UserService, achievementService *services.AchievementService) *UserHandler {
	return &UserHandler{
		userService:        userService,
		achievementService: achievementService,
	}
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	u, err := h.userService.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	if err := h.userService.UpdateLastLogin(ctx, clerkID); err != nil {
		log.Printf("GetProfile: failed to update last login for %s: %v", clerkID, err)
	}

	respondWithJSON(w, http.StatusOK, u)
}

// GetUserProfile is the public view of another user's profile.
func (h *UserHandler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	profileID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	profile, err := h.userService.GetProfile(ctx, clerkID, profileID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req user.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, err := h.userService.UpdateProfile(ctx, clerkID, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, u)
}

func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := h.userService.DeleteUserByClerkID(ctx, clerkID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Account deleted successfully"})
}

func (h *UserHandler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	userStats, err := h.userService.GetUserStats(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, userStats)
}

func (h *UserHandler) GetAchievements(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	achievements, err := h.achievementService.GetAchievements(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, achievements)
}

func (h *UserHandler) GetFriends(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	friends, err := h.userService.GetFriends(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, friends)
}

func (h *UserHandler) AddFriend(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req struct {
		FriendClerkID string `json:"friend_clerk_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FriendClerkID == "" {
		respondWithError(w, http.StatusBadRequest, "friend_clerk_id is required")
		return
	}

	if err := h.userService.AddFriend(ctx, clerkID, req.FriendClerkID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{"message": "Friend added"})
}

func (h *UserHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	friendClerkID := mux.Vars(r)["clerkId"]
	if friendClerkID == "" {
		respondWithError(w, http.StatusBadRequest, "friend clerk id is required")
		return
	}

	if err := h.userService.RemoveFriend(ctx, clerkID, friendClerkID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Friend removed"})
}

func (h *UserHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "Search query parameter 'q' is required")
		return
	}

	users, err := h.userService.SearchUsers(ctx, clerkID, query)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, users)
}

func leaderboardMetric(r *http.Request) leaderboard.Metric {
	metric := leaderboard.Metric(r.URL.Query().Get("metric"))
	if metric == "" {
		metric = leaderboard.MetricPoints
	}
	return metric
}

func (h *UserHandler) GetGlobalLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	board, err := h.userService.GetGlobalLeaderboard(ctx, clerkID, leaderboardMetric(r))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, board)
}

func (h *UserHandler) GetFriendsLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	board, err := h.userService.GetFriendsLeaderboard(ctx, clerkID, leaderboardMetric(r))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, board)
}

// AccountDeletionInstructions is the public page app stores require for
// account removal.
func (h *UserHandler) AccountDeletionInstructions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>Account Deletion</title></head>
<body>
    <h1>Delete your account</h1>
    <ol>
        <li>Open the app</li>
        <li>Go to Profile</li>
        <li>Tap "Delete account"</li>
    </ol>
    <p>All sessions, routines, games and achievements are removed permanently.</p>
</body>
</html>
`)
}
