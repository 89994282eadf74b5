package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/citedocs-api/internal/models"
)

func TestNotificationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	requestID := int64(42)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO notifications")).
		WithArgs("u-1", requestID, "Request Approved", "Your REQ-42 (Diploma Copy) has been approved.").
		WillReturnRows(sqlmock.NewRows([]string{"notification_id", "created_at"}).AddRow(int64(3), time.Now()))

	n := &models.Notification{UserID: "u-1", RequestID: &requestID, Title: "Request Approved", Message: "Your REQ-42 (Diploma Copy) has been approved."}
	require.NoError(t, repo.Create(context.Background(), n))
	assert.Equal(t, int64(3), n.NotificationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryListUnread(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	rows := sqlmock.NewRows([]string{"notification_id", "user_id", "request_id", "title", "message", "is_read", "created_at"}).
		AddRow(int64(3), "u-1", int64(42), "Request Approved", "msg", false, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND is_read = FALSE ORDER BY created_at DESC")).
		WithArgs("u-1").
		WillReturnRows(rows)

	items, err := repo.ListByUser(context.Background(), "u-1", true)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.False(t, items[0].IsRead)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryMarkReadUnknown(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET is_read = TRUE WHERE notification_id = $1 AND user_id = $2")).
		WithArgs(int64(99), "u-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.MarkRead(context.Background(), 99, "u-1"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryDeleteAll(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notifications WHERE user_id = $1")).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 4))

	require.NoError(t, repo.DeleteAll(context.Background(), "u-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
