package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	mu      sync.Mutex
	batches int
	direct  int
	stored  []*notification.Notification
}

func (m *memoryRepo) Create(ctx context.Context, n *notification.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.direct++
	m.stored = append(m.stored, n)
	return nil
}

func (m *memoryRepo) CreateBatch(ctx context.Context, ns []*notification.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches++
	m.stored = append(m.stored, ns...)
	return nil
}

func (m *memoryRepo) GetByRecipientID(ctx context.Context, recipientID string, limit int) ([]*notification.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*notification.Notification
	for _, n := range m.stored {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, nil
}

func request(recipient string) notification.CreateNotificationRequest {
	return notification.CreateNotificationRequest{
		CompanyID:   "company-1",
		RecipientID: recipient,
		Type:        notification.TypePayrollFinalized,
		Title:       "Salary slip finalized",
		Message:     "Your salary slip for 2024-04 is available",
	}
}

func TestService_StopFlushesQueuedNotifications(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewNotificationService(repo, Config{WorkerCount: 1, BatchSize: 10, FlushInterval: time.Hour})

	for _, r := range []string{"user-1", "user-2", "user-1"} {
		require.NoError(t, svc.QueueNotification(context.Background(), request(r)))
	}
	svc.Stop()
	svc.Stop()

	got, err := repo.GetByRecipientID(context.Background(), "user-1", 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Len(t, repo.stored, 3)
	assert.Zero(t, repo.direct)
	for _, n := range repo.stored {
		assert.NotEmpty(t, n.ID)
		assert.False(t, n.IsRead)
	}
}

func TestService_FlushesWhenBatchIsFull(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewNotificationService(repo, Config{WorkerCount: 1, BatchSize: 2, FlushInterval: time.Hour})
	defer svc.Stop()

	require.NoError(t, svc.QueueNotification(context.Background(), request("user-1")))
	require.NoError(t, svc.QueueNotification(context.Background(), request("user-2")))

	assert.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return repo.batches == 1 && len(repo.stored) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestService_ListForRecipient(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewNotificationService(repo, Config{WorkerCount: 1, BatchSize: 10, FlushInterval: time.Hour})

	require.NoError(t, svc.QueueNotification(context.Background(), request("user-1")))
	require.NoError(t, svc.QueueNotification(context.Background(), request("user-2")))
	svc.Stop()

	got, err := svc.ListForRecipient(context.Background(), "user-1", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, notification.TypePayrollFinalized, got[0].Type)
	assert.Equal(t, "Salary slip finalized", got[0].Title)
	assert.NotEmpty(t, got[0].CreatedAt)
}
