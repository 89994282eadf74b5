package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/citedocs-api/internal/models"
)

// NotificationRepository persists in-app notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification and fills its id and timestamp.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	const query = `INSERT INTO notifications (user_id, request_id, title, message, is_read)
	VALUES ($1, $2, $3, $4, FALSE) RETURNING notification_id, created_at`
	if err := r.db.QueryRowxContext(ctx, query, n.UserID, n.RequestID, n.Title, n.Message).
		Scan(&n.NotificationID, &n.CreatedAt); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListByUser returns a user's notifications, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	query := `SELECT notification_id, user_id, request_id, title, message, is_read, created_at FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC, notification_id DESC`

	var items []models.Notification
	if err := r.db.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

// MarkRead flags one notification of userID as read. Unknown ids return sql.ErrNoRows.
func (r *NotificationRepository) MarkRead(ctx context.Context, id int64, userID string) error {
	const query = `UPDATE notifications SET is_read = TRUE WHERE notification_id = $1 AND user_id = $2`
	return r.execOne(ctx, "mark notification read", query, id, userID)
}

// MarkAllRead flags every notification of userID as read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	const query = `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

// Delete removes one notification of userID. Unknown ids return sql.ErrNoRows.
func (r *NotificationRepository) Delete(ctx context.Context, id int64, userID string) error {
	const query = `DELETE FROM notifications WHERE notification_id = $1 AND user_id = $2`
	return r.execOne(ctx, "delete notification", query, id, userID)
}

// DeleteAll removes every notification of userID.
func (r *NotificationRepository) DeleteAll(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}
	return nil
}

func (r *NotificationRepository) execOne(ctx context.Context, op, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
