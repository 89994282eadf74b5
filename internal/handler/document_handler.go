package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/citedocs-api/internal/middleware"
	"github.com/noah-isme/citedocs-api/internal/models"
	"github.com/noah-isme/citedocs-api/pkg/response"
)

type documentService interface {
	List(ctx context.Context, activeOnly bool) ([]models.DocumentType, bool, error)
}

// DocumentHandler exposes the document catalogue.
type DocumentHandler struct {
	service documentService
}

// NewDocumentHandler constructs a DocumentHandler.
func NewDocumentHandler(svc documentService) *DocumentHandler {
	return &DocumentHandler{service: svc}
}

// List godoc
// @Summary List requestable documents
// @Tags Documents
// @Produce json
// @Param all query bool false "Include inactive documents (registrar only)"
// @Success 200 {object} response.Envelope
// @Router /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	activeOnly := true
	if claims := claimsFromContext(c); claims != nil && claims.IsRegistrar() && c.Query("all") == "true" {
		activeOnly = false
	}
	items, hit, err := h.service.List(c.Request.Context(), activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	meta := middleware.ExtractMeta(c)
	response.JSON(c, http.StatusOK, items, nil, meta)
}
