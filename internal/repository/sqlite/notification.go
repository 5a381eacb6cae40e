package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
)

type notificationRepository struct {
	db *database.SQLiteDB
}

func NewNotificationRepository(db *database.SQLiteDB) notification.Repository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	return r.CreateBatch(ctx, []*notification.Notification{n})
}

func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []*notification.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	q := getQuerier(ctx, r.db)

	for _, n := range notifications {
		dataJSON, err := json.Marshal(n.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal notification data: %w", err)
		}
		_, err = q.ExecContext(ctx, `
			INSERT INTO notifications (id, company_id, recipient_id, sender_id, type, title, message, data, is_read, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			n.ID, n.CompanyID, n.RecipientID, n.SenderID, string(n.Type),
			n.Title, n.Message, string(dataJSON), n.IsRead, formatTime(n.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}
	}
	return nil
}

func (r *notificationRepository) GetByRecipientID(ctx context.Context, recipientID string, limit int) ([]*notification.Notification, error) {
	q := getQuerier(ctx, r.db)

	rows, err := q.QueryContext(ctx, `
		SELECT id, company_id, recipient_id, sender_id, type, title, message, data, is_read, read_at, created_at
		FROM notifications
		WHERE recipient_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	defer rows.Close()

	var result []*notification.Notification
	for rows.Next() {
		var n notification.Notification
		var notifType string
		var dataJSON *string
		if err := rows.Scan(&n.ID, &n.CompanyID, &n.RecipientID, &n.SenderID, &notifType,
			&n.Title, &n.Message, &dataJSON, &n.IsRead, nullTimeColumn{&n.ReadAt}, timeColumn{&n.CreatedAt}); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Type = notification.NotificationType(notifType)
		if dataJSON != nil {
			if err := json.Unmarshal([]byte(*dataJSON), &n.Data); err != nil {
				return nil, fmt.Errorf("failed to unmarshal notification data: %w", err)
			}
		}
		result = append(result, &n)
	}
	return result, rows.Err()
}
