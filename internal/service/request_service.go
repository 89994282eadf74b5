package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/citedocs-api/internal/dto"
	"github.com/noah-isme/citedocs-api/internal/models"
	"github.com/noah-isme/citedocs-api/internal/workflow"
	appErrors "github.com/noah-isme/citedocs-api/pkg/errors"
	"github.com/noah-isme/citedocs-api/pkg/jobs"
)

const statsCachePrefix = "requests:stats:"

type requestStore interface {
	Create(ctx context.Context, input models.CreateRequestInput) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Request, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.Request, error)
	UpdateStatus(ctx context.Context, change models.StatusChange) error
	Stats(ctx context.Context, userID string) (*models.RequestStats, error)
}

type documentLookup interface {
	GetByID(ctx context.Context, id int64) (*models.DocumentType, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// RequestServiceParams groups constructor dependencies.
type RequestServiceParams struct {
	Requests      requestStore
	Documents     documentLookup
	Audit         auditLogger
	Notifications jobEnqueuer
	Cache         *CacheService
	Metrics       *MetricsService
	Validator     *validator.Validate
	Logger        *zap.Logger
	StatsTTL      time.Duration
}

// RequestService owns the document request lifecycle.
type RequestService struct {
	requests      requestStore
	documents     documentLookup
	audit         auditLogger
	notifications jobEnqueuer
	cache         *CacheService
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
	statsTTL      time.Duration
	now           func() time.Time
}

// NewRequestService constructs the service.
func NewRequestService(params RequestServiceParams) *RequestService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	return &RequestService{
		requests:      params.Requests,
		documents:     params.Documents,
		audit:         params.Audit,
		notifications: params.Notifications,
		cache:         params.Cache,
		metrics:       params.Metrics,
		validator:     validate,
		logger:        logger,
		statsTTL:      params.StatsTTL,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Submit creates a PENDING request owned by the calling student.
func (s *RequestService) Submit(ctx context.Context, payload dto.CreateRequestPayload, actor *models.JWTClaims) (*models.Request, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can submit requests")
	}
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload")
	}
	if payload.DateNeeded.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dateNeeded is required")
	}
	today := models.NewDate(s.now())
	if payload.DateNeeded.Before(today) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dateNeeded cannot be in the past")
	}

	doc, err := s.documents.GetByID(ctx, payload.DocumentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown document type")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document type")
	}
	if !doc.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "document type is not available")
	}

	studentID := actor.StudentNumber
	if studentID == "" {
		studentID = actor.UserID
	}
	id, err := s.requests.Create(ctx, models.CreateRequestInput{
		UserID:      actor.UserID,
		StudentID:   studentID,
		StudentName: actor.FullName,
		DocumentID:  doc.DocumentID,
		Copies:      payload.Copies,
		DateNeeded:  payload.DateNeeded,
		Remarks:     optionalString(payload.Remarks),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create request")
	}

	created, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load created request")
	}

	s.invalidateStats(ctx)
	s.emitAudit(ctx, actor.UserID, models.AuditActionRequestCreate, id, nil, created)
	s.logger.Info("request submitted", zap.Int64("request_id", id), zap.String("user_id", actor.UserID))
	return created, nil
}

// Get returns a single request visible to actor.
func (s *RequestService) Get(ctx context.Context, id int64, actor *models.JWTClaims) (*models.Request, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsRegistrar() && req.UserID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	return req, nil
}

// List returns the projected request list. Students only ever see their own requests.
func (s *RequestService) List(ctx context.Context, query dto.RequestListQuery, actor *models.JWTClaims) ([]models.Request, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.RequestFilter{UserID: strings.TrimSpace(query.UserID)}
	if !actor.IsRegistrar() {
		if filter.UserID != "" && filter.UserID != actor.UserID {
			return nil, appErrors.ErrForbidden
		}
		filter.UserID = actor.UserID
	}

	view := workflow.View(strings.ToLower(strings.TrimSpace(query.View)))
	switch view {
	case "":
		view = workflow.ViewAll
	case workflow.ViewAll, workflow.ViewRecent:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "view must be recent or all")
	}

	start := time.Now()
	rows, err := s.requests.List(ctx, filter)
	s.metrics.ObserveDBQuery("requests_list", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	return workflow.Project(rows, workflow.ProjectionQuery{
		StatusFilter:       query.Status,
		DocumentTypeFilter: query.DocumentType,
		Search:             query.Search,
		View:               view,
	}), nil
}

// UpdateStatus applies a registrar's status change.
//
// A change to the current status is a no-op and returns the stored record without writing
// a log entry. When ExpectedStatus is set and differs from the stored status the change is
// rejected with a conflict, as is a change that loses a concurrent update.
func (s *RequestService) UpdateStatus(ctx context.Context, id int64, payload dto.UpdateStatusPayload, actor *models.JWTClaims) (*models.Request, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !actor.IsRegistrar() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only registrar staff can change request status")
	}
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	next, ok := models.ParseRequestStatus(payload.Status)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", payload.Status))
	}

	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if payload.ExpectedStatus != "" {
		expected, ok := models.ParseRequestStatus(payload.ExpectedStatus)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown expectedStatus %q", payload.ExpectedStatus))
		}
		if expected != current.Status {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("request is now %s, refresh and retry", current.Status))
		}
	}
	if next == current.Status {
		return current, nil
	}
	if err := workflow.ValidateTransition(current.Status, next); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidTransition.Code, appErrors.ErrInvalidTransition.Status, err.Error())
	}

	at := s.now()
	change := models.StatusChange{
		RequestID:      current.RequestID,
		ExpectedStatus: current.Status,
		NewStatus:      next,
		Remarks:        optionalString(payload.Remarks),
		DateReady:      workflow.ResolveDateReady(next, payload.DateReady, at),
		ChangedBy:      actor.UserID,
		ChangedAt:      at,
	}
	if err := s.requests.UpdateStatus(ctx, change); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "request was changed by someone else, refresh and retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request status")
	}

	previous := *current
	updated := *current
	updated.Status = next
	updated.Remarks = change.Remarks
	if change.DateReady != nil {
		updated.DateReady = change.DateReady
	}
	updated.UpdatedAt = at

	s.metrics.ObserveStatusTransition(previous.Status, next)
	s.invalidateStats(ctx)
	s.notifyOwner(previous, next, actor)
	s.emitAudit(ctx, actor.UserID, models.AuditActionStatusChange, id, &previous, &updated)
	s.logger.Info("request status changed",
		zap.Int64("request_id", id),
		zap.String("from", string(previous.Status)),
		zap.String("to", string(next)),
		zap.String("changed_by", actor.UserID),
	)
	return &updated, nil
}

// Stats returns per-status counts scoped to actor.
func (s *RequestService) Stats(ctx context.Context, actor *models.JWTClaims) (*models.RequestStats, bool, error) {
	if actor == nil {
		return nil, false, appErrors.ErrUnauthorized
	}
	userID := ""
	key := statsCachePrefix + "all"
	if !actor.IsRegistrar() {
		userID = actor.UserID
		key = statsCachePrefix + userID
	}

	var cached models.RequestStats
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	start := time.Now()
	stats, err := s.requests.Stats(ctx, userID)
	s.metrics.ObserveDBQuery("requests_stats", time.Since(start))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute request stats")
	}
	_ = s.cache.Set(ctx, key, stats, s.statsTTL)
	return stats, false, nil
}

func (s *RequestService) load(ctx context.Context, id int64) (*models.Request, error) {
	if id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid request id")
	}
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	return req, nil
}

func (s *RequestService) invalidateStats(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, statsCachePrefix+"*")
}

func (s *RequestService) notifyOwner(previous models.Request, next models.RequestStatus, actor *models.JWTClaims) {
	if s.notifications == nil {
		return
	}
	old := previous.Status
	entry := models.StatusLogEntry{
		RequestID:    previous.RequestID,
		OldStatus:    &old,
		NewStatus:    next,
		DocumentName: previous.DocumentType.Name,
	}
	if actor.FullName != "" {
		name := actor.FullName
		entry.ChangedByName = &name
	}
	title, message := workflow.DescribeEntry(entry, models.AudienceStudent)
	requestID := previous.RequestID
	job := jobs.Job{
		ID:   uuid.NewString(),
		Type: NotificationJobType,
		Payload: models.Notification{
			UserID:    previous.UserID,
			RequestID: &requestID,
			Title:     title,
			Message:   message,
		},
	}
	if err := s.notifications.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue status notification", zap.Int64("request_id", requestID), zap.Error(err))
	}
}

func (s *RequestService) emitAudit(ctx context.Context, userID, action string, requestID int64, before, after *models.Request) {
	if s.audit == nil {
		return
	}
	resourceID := strconv.FormatInt(requestID, 10)
	log := &models.AuditLog{
		ID:         uuid.NewString(),
		UserID:     &userID,
		Action:     action,
		Resource:   "request",
		ResourceID: &resourceID,
		IPAddress:  "system",
		UserAgent:  "request-service",
		CreatedAt:  s.now(),
	}
	if before != nil {
		log.OldValues, _ = json.Marshal(before)
	}
	if after != nil {
		log.NewValues, _ = json.Marshal(after)
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.String("action", action), zap.Error(err))
	}
}
