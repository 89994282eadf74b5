package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/citedocs-api/internal/models"
	appErrors "github.com/noah-isme/citedocs-api/pkg/errors"
	"github.com/noah-isme/citedocs-api/pkg/jobs"
)

type notificationStoreStub struct {
	created   []models.Notification
	createErr error
	missing   bool
	readAll   string
}

func (n *notificationStoreStub) Create(ctx context.Context, item *models.Notification) error {
	if n.createErr != nil {
		return n.createErr
	}
	item.NotificationID = int64(len(n.created) + 1)
	n.created = append(n.created, *item)
	return nil
}

func (n *notificationStoreStub) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	return nil, nil
}

func (n *notificationStoreStub) MarkRead(ctx context.Context, id int64, userID string) error {
	if n.missing {
		return sql.ErrNoRows
	}
	return nil
}

func (n *notificationStoreStub) MarkAllRead(ctx context.Context, userID string) error {
	n.readAll = userID
	return nil
}

func (n *notificationStoreStub) Delete(ctx context.Context, id int64, userID string) error {
	if n.missing {
		return sql.ErrNoRows
	}
	return nil
}

func (n *notificationStoreStub) DeleteAll(ctx context.Context, userID string) error {
	return nil
}

func TestNotificationServiceHandleJob(t *testing.T) {
	store := &notificationStoreStub{}
	svc := NewNotificationService(store, NewMetricsService(), nil)
	requestID := int64(7)

	err := svc.HandleJob(context.Background(), jobs.Job{ID: "j1", Payload: models.Notification{UserID: "stu-1", RequestID: &requestID, Title: "Request Approved"}})
	require.NoError(t, err)
	require.Len(t, store.created, 1)
	assert.Equal(t, "stu-1", store.created[0].UserID)

	assert.Error(t, svc.HandleJob(context.Background(), jobs.Job{ID: "j2", Payload: "oops"}))
	assert.Error(t, svc.HandleJob(context.Background(), jobs.Job{ID: "j3", Payload: &models.Notification{}}))
}

func TestNotificationServiceMissingRowsAreNotFound(t *testing.T) {
	svc := NewNotificationService(&notificationStoreStub{missing: true}, nil, nil)

	assert.True(t, errors.Is(svc.MarkRead(context.Background(), 1, student), appErrors.ErrNotFound))
	assert.True(t, errors.Is(svc.Delete(context.Background(), 1, student), appErrors.ErrNotFound))
	assert.True(t, errors.Is(svc.MarkRead(context.Background(), 1, nil), appErrors.ErrUnauthorized))
}

func TestNotificationServiceListNeverNil(t *testing.T) {
	store := &notificationStoreStub{}
	svc := NewNotificationService(store, nil, nil)

	items, err := svc.List(context.Background(), student, true)
	require.NoError(t, err)
	assert.NotNil(t, items)

	require.NoError(t, svc.MarkAllRead(context.Background(), student))
	assert.Equal(t, "stu-1", store.readAll)
}
