package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/citedocs-api/internal/dto"
	"github.com/noah-isme/citedocs-api/internal/models"
	"github.com/noah-isme/citedocs-api/internal/workflow"
	appErrors "github.com/noah-isme/citedocs-api/pkg/errors"
)

type statusLogStore interface {
	List(ctx context.Context, filter models.StatusLogFilter) ([]models.StatusLogEntry, error)
}

// StatusLogService serves the status history and the activity feed built from it.
type StatusLogService struct {
	logs   statusLogStore
	logger *zap.Logger
	now    func() time.Time
}

// NewStatusLogService constructs the service.
func NewStatusLogService(logs statusLogStore, logger *zap.Logger) *StatusLogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusLogService{logs: logs, logger: logger, now: time.Now}
}

// List returns raw log entries. Students are limited to their own requests.
func (s *StatusLogService) List(ctx context.Context, query dto.StatusLogQuery, actor *models.JWTClaims) ([]models.StatusLogEntry, error) {
	filter, err := scopeLogFilter(query, actor)
	if err != nil {
		return nil, err
	}
	entries, err := s.logs.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list status logs")
	}
	if entries == nil {
		entries = []models.StatusLogEntry{}
	}
	return entries, nil
}

// Activity renders the caller's feed. Entries at or before since are dropped.
func (s *StatusLogService) Activity(ctx context.Context, actor *models.JWTClaims, since *time.Time) ([]models.ActivityItem, error) {
	filter, err := scopeLogFilter(dto.StatusLogQuery{}, actor)
	if err != nil {
		return nil, err
	}
	filter.Since = since
	entries, err := s.logs.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	audience := models.AudienceStudent
	if actor.IsRegistrar() {
		audience = models.AudienceRegistrar
	}
	return workflow.FormatActivity(entries, audience, s.now()), nil
}

func scopeLogFilter(query dto.StatusLogQuery, actor *models.JWTClaims) (models.StatusLogFilter, error) {
	if actor == nil {
		return models.StatusLogFilter{}, appErrors.ErrUnauthorized
	}
	filter := models.StatusLogFilter{UserID: strings.TrimSpace(query.UserID), RequestID: query.RequestID}
	if !actor.IsRegistrar() {
		if filter.UserID != "" && filter.UserID != actor.UserID {
			return models.StatusLogFilter{}, appErrors.ErrForbidden
		}
		filter.UserID = actor.UserID
	}
	return filter, nil
}
