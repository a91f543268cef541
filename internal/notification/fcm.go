package notification

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

type FCMService struct {
	client *messaging.Client
}

// NewFCMService initializes the push provider. Credentials come from the
// FCM_SERVICE_ACCOUNT_JSON environment variable (Base64 encoded) when set,
// otherwise from a local service account key file.
func NewFCMService(localFilePath string) (*FCMService, error) {
	var opt option.ClientOption

	encodedCreds := os.Getenv("FCM_SERVICE_ACCOUNT_JSON")
	if encodedCreds != "" {
		decoded, err := base64.StdEncoding.DecodeString(encodedCreds)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 firebase credentials from FCM_SERVICE_ACCOUNT_JSON: %v", err)
		}
		opt = option.WithCredentialsJSON(decoded)
		log.Println("FCM Service: Initializing from FCM_SERVICE_ACCOUNT_JSON environment variable.")
	} else {
		if _, err := os.Stat(localFilePath); os.IsNotExist(err) {
			return nil, fmt.Errorf("local firebase file not found: %s, and FCM_SERVICE_ACCOUNT_JSON environment variable is not set", localFilePath)
		}
		opt = option.WithCredentialsFile(localFilePath)
		log.Printf("FCM Service: Initializing from local file: %s.", localFilePath)
	}

	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %v", err)
	}

	client, err := app.Messaging(context.Background())
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %v", err)
	}

	return &FCMService{client: client}, nil
}

// SendPush delivers a notification to every registered device token.
// Messages go out one at a time; the batch endpoint 404s on current
// firebase-admin, so individual sends are the reliable path.
func (s *FCMService) SendPush(ctx context.Context, tokens []DeviceToken, title, body string, data map[string]any) error {
	if len(tokens) == 0 {
		return nil
	}

	stringData := make(map[string]string)
	for k, v := range data {
		stringData[k] = fmt.Sprintf("%v", v)
	}

	successCount := 0
	failureCount := 0

	for _, t := range tokens {
		message := &messaging.Message{
			Token: t.Token,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Data: stringData,
			Android: &messaging.AndroidConfig{
				Priority: "high",
				Notification: &messaging.AndroidNotification{
					Sound: "default",
				},
			},
		}

		_, err := s.client.Send(ctx, message)
		if err != nil {
			log.Printf("FCM: Failed to send to token %s: %v", t.Token, err)
			failureCount++
		} else {
			successCount++
		}
	}

	log.Printf("FCM: Sent %d messages, %d failed", successCount, failureCount)

	if successCount == 0 && failureCount > 0 {
		return fmt.Errorf("all push notifications failed")
	}

	return nil
}
