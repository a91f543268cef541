package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"puttPracticeAPI/internal/user"
	"puttPracticeAPI/services"
)

// WebhookHandler seeds and syncs profiles from Clerk user lifecycle events.
type WebhookHandler struct {
	userService *services.UserService
}

func NewWebhookHandler(userService *services.UserService) *WebhookHandler {
	return &WebhookHandler{
		userService: userService,
	}
}

type clerkWebhookEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type clerkUserData struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	ImageURL        string `json:"image_url"`
	ProfileImageURL string `json:"profile_image_url"`
	EmailAddresses  []struct {
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
}

func (h *WebhookHandler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Error reading webhook body: %v", err)
		http.Error(w, "Error reading body", http.StatusBadRequest)
		return
	}

	if !verifyClerkSignature(r, body) {
		log.Println("Invalid webhook signature")
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var event clerkWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("Error parsing webhook: %v", err)
		http.Error(w, "Error parsing webhook", http.StatusBadRequest)
		return
	}

	log.Printf("Received webhook event: %s", event.Type)

	ctx := r.Context()
	switch event.Type {
	case "user.created":
		if err := h.handleUserCreated(ctx, event.Data); err != nil {
			log.Printf("Error handling user.created: %v", err)
			http.Error(w, "Error processing webhook", http.StatusInternalServerError)
			return
		}

	case "user.updated":
		if err := h.handleUserUpdated(ctx, event.Data); err != nil {
			log.Printf("Error handling user.updated: %v", err)
			http.Error(w, "Error processing webhook", http.StatusInternalServerError)
			return
		}

	case "user.deleted":
		if err := h.handleUserDeleted(ctx, event.Data); err != nil {
			log.Printf("Error handling user.deleted: %v", err)
			http.Error(w, "Error processing webhook", http.StatusInternalServerError)
			return
		}

	default:
		log.Printf("Unhandled webhook event type: %s", event.Type)
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"success": true}`))
}

func displayNameFrom(data *clerkUserData) string {
	if data.Username != "" {
		return data.Username
	}
	name := data.FirstName
	if data.LastName != "" {
		if name != "" {
			name += " "
		}
		name += data.LastName
	}
	return name
}

func imageURLFrom(data *clerkUserData) string {
	if data.ImageURL != "" {
		return data.ImageURL
	}
	return data.ProfileImageURL
}

func (h *WebhookHandler) handleUserCreated(ctx context.Context, data json.RawMessage) error {
	var userData clerkUserData
	if err := json.Unmarshal(data, &userData); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}

	email := ""
	if len(userData.EmailAddresses) > 0 {
		email = userData.EmailAddresses[0].EmailAddress
	}

	createReq := &user.CreateUserRequest{
		ClerkID:     userData.ID,
		Email:       email,
		DisplayName: displayNameFrom(&userData),
		ImageURL:    imageURLFrom(&userData),
	}

	created, err := h.userService.CreateUser(ctx, createReq)
	if err != nil {
		return fmt.Errorf("failed to create user in database: %w", err)
	}

	log.Printf("Successfully created user: %s (Clerk ID: %s)", created.Email, created.ClerkID)
	return nil
}

func (h *WebhookHandler) handleUserUpdated(ctx context.Context, data json.RawMessage) error {
	var userData clerkUserData
	if err := json.Unmarshal(data, &userData); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}

	updateReq := &user.UpdateProfileRequest{
		DisplayName: displayNameFrom(&userData),
		ImageURL:    imageURLFrom(&userData),
	}

	if _, err := h.userService.UpdateProfile(ctx, userData.ID, updateReq); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	log.Printf("Successfully updated user: Clerk ID: %s", userData.ID)
	return nil
}

func (h *WebhookHandler) handleUserDeleted(ctx context.Context, data json.RawMessage) error {
	var userData struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &userData); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}

	if err := h.userService.DeleteUserByClerkID(ctx, userData.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	log.Printf("Successfully deleted user: Clerk ID: %s", userData.ID)
	return nil
}

// verifyClerkSignature checks the svix v1 HMAC over id.timestamp.body.
func verifyClerkSignature(r *http.Request, body []byte) bool {
	webhookSecret := os.Getenv("CLERK_WEBHOOK_SECRET")
	if webhookSecret == "" {
		log.Println("CLERK_WEBHOOK_SECRET not set, skipping signature verification")
		return true
	}

	svixID := r.Header.Get("svix-id")
	svixTimestamp := r.Header.Get("svix-timestamp")
	svixSignature := r.Header.Get("svix-signature")

	if svixID == "" || svixTimestamp == "" || svixSignature == "" {
		log.Println("Missing webhook signature headers")
		return false
	}

	signedContent := fmt.Sprintf("%s.%s.%s", svixID, svixTimestamp, string(body))

	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write([]byte(signedContent))
	expectedSignature := hex.EncodeToString(mac.Sum(nil))

	providedSignature := ""
	if len(svixSignature) > 3 && svixSignature[:3] == "v1," {
		providedSignature = svixSignature[3:]
	}

	return hmac.Equal([]byte(expectedSignature), []byte(providedSignature))
}
