package notification

import (
	"context"
)

// Service defines the notification service interface
type Service interface {
	// QueueNotification hands the notification to background workers
	QueueNotification(ctx context.Context, req CreateNotificationRequest) error

	// ListForRecipient returns the newest notifications of a user
	ListForRecipient(ctx context.Context, recipientID string, limit int) ([]NotificationResponse, error)

	// Stop flushes pending batches and waits for the workers
	Stop()
}
