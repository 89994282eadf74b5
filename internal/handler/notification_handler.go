package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/citedocs-api/internal/middleware"
	"github.com/noah-isme/citedocs-api/internal/models"
	"github.com/noah-isme/citedocs-api/pkg/response"
)

type notificationService interface {
	List(ctx context.Context, actor *models.JWTClaims, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, id int64, actor *models.JWTClaims) error
	MarkAllRead(ctx context.Context, actor *models.JWTClaims) error
	Delete(ctx context.Context, id int64, actor *models.JWTClaims) error
	DeleteAll(ctx context.Context, actor *models.JWTClaims) error
}

// NotificationHandler exposes the caller's notifications.
type NotificationHandler struct {
	service notificationService
}

// NewNotificationHandler constructs a NotificationHandler.
func NewNotificationHandler(svc notificationService) *NotificationHandler {
	return &NotificationHandler{service: svc}
}

// List godoc
// @Summary List notifications
// @Tags Notifications
// @Produce json
// @Param unread query bool false "Only unread notifications"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	h.list(c, c.Query("unread") == "true")
}

// Unread godoc
// @Summary List unread notifications
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/unread [get]
func (h *NotificationHandler) Unread(c *gin.Context) {
	h.list(c, true)
}

func (h *NotificationHandler) list(c *gin.Context, unreadOnly bool) {
	items, err := h.service.List(c.Request.Context(), claimsFromContext(c), unreadOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	unread := 0
	for _, item := range items {
		if !item.IsRead {
			unread++
		}
	}
	middleware.SetMeta(c, "unread", unread)
	response.JSON(c, http.StatusOK, items, nil, middleware.ExtractMeta(c))
}

// MarkRead godoc
// @Summary Mark notification as read
// @Tags Notifications
// @Param id path int true "Notification ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.MarkRead(c.Request.Context(), id, claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MarkAllRead godoc
// @Summary Mark every notification as read
// @Tags Notifications
// @Success 204
// @Router /notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.service.MarkAllRead(c.Request.Context(), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete notification
// @Tags Notifications
// @Param id path int true "Notification ID"
// @Success 204
// @Router /notifications/{id} [delete]
func (h *NotificationHandler) Delete(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id, claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteAll godoc
// @Summary Delete every notification
// @Tags Notifications
// @Success 204
// @Router /notifications [delete]
func (h *NotificationHandler) DeleteAll(c *gin.Context) {
	if err := h.service.DeleteAll(c.Request.Context(), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
