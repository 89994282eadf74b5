package models

import "time"

// Notification is an in-app message for a single user.
type Notification struct {
	NotificationID int64     `db:"notification_id" json:"notificationId"`
	UserID         string    `db:"user_id" json:"userId"`
	RequestID      *int64    `db:"request_id" json:"requestId,omitempty"`
	Title          string    `db:"title" json:"title"`
	Message        string    `db:"message" json:"message"`
	IsRead         bool      `db:"is_read" json:"isRead"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}
