package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/citedocs-api/internal/models"
	appErrors "github.com/noah-isme/citedocs-api/pkg/errors"
	"github.com/noah-isme/citedocs-api/pkg/jobs"
)

// NotificationJobType tags queued status change notifications.
const NotificationJobType = "request.status_notification"

type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, id int64, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, id int64, userID string) error
	DeleteAll(ctx context.Context, userID string) error
}

// NotificationService persists and serves in-app notifications.
type NotificationService struct {
	repo    notificationStore
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(repo notificationStore, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, metrics: metrics, logger: logger}
}

// HandleJob stores the notification carried by a queued job.
func (s *NotificationService) HandleJob(ctx context.Context, job jobs.Job) error {
	var n models.Notification
	switch payload := job.Payload.(type) {
	case models.Notification:
		n = payload
	case *models.Notification:
		if payload == nil {
			return fmt.Errorf("job %s: nil notification", job.ID)
		}
		n = *payload
	default:
		return fmt.Errorf("job %s: unexpected payload %T", job.ID, job.Payload)
	}
	if n.UserID == "" {
		return fmt.Errorf("job %s: notification without recipient", job.ID)
	}
	if err := s.repo.Create(ctx, &n); err != nil {
		return err
	}
	return nil
}

// ObserveJob records the outcome of a notification attempt.
func (s *NotificationService) ObserveJob(job jobs.Job, err error) {
	s.metrics.ObserveNotificationJob(err)
	if err != nil {
		s.logger.Warn("notification attempt failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
	}
}

// List returns the actor's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, actor *models.JWTClaims, unreadOnly bool) ([]models.Notification, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	items, err := s.repo.ListByUser(ctx, actor.UserID, unreadOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	if items == nil {
		items = []models.Notification{}
	}
	return items, nil
}

// MarkRead flags one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id int64, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	return s.mapSingle(s.repo.MarkRead(ctx, id, actor.UserID), "failed to mark notification read")
}

// MarkAllRead flags all of the actor's notifications as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if err := s.repo.MarkAllRead(ctx, actor.UserID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return nil
}

// Delete removes one notification.
func (s *NotificationService) Delete(ctx context.Context, id int64, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	return s.mapSingle(s.repo.Delete(ctx, id, actor.UserID), "failed to delete notification")
}

// DeleteAll clears the actor's notifications.
func (s *NotificationService) DeleteAll(ctx context.Context, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if err := s.repo.DeleteAll(ctx, actor.UserID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notifications")
	}
	return nil
}

func (s *NotificationService) mapSingle(err error, message string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
