package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/citedocs-api/internal/dto"
	"github.com/noah-isme/citedocs-api/internal/models"
	appErrors "github.com/noah-isme/citedocs-api/pkg/errors"
	"github.com/noah-isme/citedocs-api/pkg/response"
)

type statusLogService interface {
	List(ctx context.Context, query dto.StatusLogQuery, actor *models.JWTClaims) ([]models.StatusLogEntry, error)
	Activity(ctx context.Context, actor *models.JWTClaims, since *time.Time) ([]models.ActivityItem, error)
}

// StatusLogHandler serves status history and the activity feed.
type StatusLogHandler struct {
	service statusLogService
}

// NewStatusLogHandler constructs a StatusLogHandler.
func NewStatusLogHandler(svc statusLogService) *StatusLogHandler {
	return &StatusLogHandler{service: svc}
}

// List godoc
// @Summary List status log entries
// @Tags Activity
// @Produce json
// @Param userId query string false "Owner filter (registrar only)"
// @Param requestId query int false "Request filter"
// @Success 200 {object} response.Envelope
// @Router /request-status-logs [get]
func (h *StatusLogHandler) List(c *gin.Context) {
	var query dto.StatusLogQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	entries, err := h.service.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Activity godoc
// @Summary Activity feed
// @Description Display-ready status changes, newest first.
// @Tags Activity
// @Produce json
// @Param since query string false "RFC3339 lower bound"
// @Success 200 {object} response.Envelope
// @Router /activity [get]
func (h *StatusLogHandler) Activity(c *gin.Context) {
	var since *time.Time
	if raw := strings.TrimSpace(c.Query("since")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "since must be RFC3339"))
			return
		}
		since = &parsed
	}
	items, err := h.service.Activity(c.Request.Context(), claimsFromContext(c), since)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
