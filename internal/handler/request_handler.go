package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/citedocs-api/internal/dto"
	"github.com/noah-isme/citedocs-api/internal/middleware"
	"github.com/noah-isme/citedocs-api/internal/models"
	"github.com/noah-isme/citedocs-api/internal/service"
	appErrors "github.com/noah-isme/citedocs-api/pkg/errors"
	"github.com/noah-isme/citedocs-api/pkg/response"
)

type requestService interface {
	Submit(ctx context.Context, payload dto.CreateRequestPayload, actor *models.JWTClaims) (*models.Request, error)
	Get(ctx context.Context, id int64, actor *models.JWTClaims) (*models.Request, error)
	List(ctx context.Context, query dto.RequestListQuery, actor *models.JWTClaims) ([]models.Request, error)
	UpdateStatus(ctx context.Context, id int64, payload dto.UpdateStatusPayload, actor *models.JWTClaims) (*models.Request, error)
	Stats(ctx context.Context, actor *models.JWTClaims) (*models.RequestStats, bool, error)
}

type claimSlipService interface {
	Slip(ctx context.Context, id int64, actor *models.JWTClaims) (*models.ClaimSlip, error)
	PDF(ctx context.Context, id int64, actor *models.JWTClaims) (*service.ExportFile, error)
}

type registerExporter interface {
	Register(ctx context.Context, query dto.ExportQuery, actor *models.JWTClaims) (*service.ExportFile, error)
}

// RequestHandler exposes document request endpoints.
type RequestHandler struct {
	requests requestService
	slips    claimSlipService
	exporter registerExporter
}

// NewRequestHandler constructs a RequestHandler.
func NewRequestHandler(requests requestService, slips claimSlipService, exporter registerExporter) *RequestHandler {
	return &RequestHandler{requests: requests, slips: slips, exporter: exporter}
}

// List godoc
// @Summary List document requests
// @Description Students see their own requests, registrars see every request. view=recent keeps the ten newest.
// @Tags Requests
// @Produce json
// @Param userId query string false "Owner filter (registrar only)"
// @Param status query string false "Status filter"
// @Param documentType query string false "Document type filter"
// @Param search query string false "Free text search"
// @Param view query string false "all or recent"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	var query dto.RequestListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	items, err := h.requests.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "total", len(items))
	response.JSON(c, http.StatusOK, items, nil, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get document request
// @Tags Requests
// @Produce json
// @Param id path int true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id} [get]
func (h *RequestHandler) Get(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.requests.Get(c.Request.Context(), id, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Submit document request
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body dto.CreateRequestPayload true "Request payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /requests [post]
func (h *RequestHandler) Create(c *gin.Context) {
	var payload dto.CreateRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request payload"))
		return
	}
	item, err := h.requests.Submit(c.Request.Context(), payload, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// UpdateStatus godoc
// @Summary Change request status
// @Description Applies a registrar status transition. Conflicting concurrent edits return 409.
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path int true "Request ID"
// @Param payload body dto.UpdateStatusPayload true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /requests/{id}/status [put]
func (h *RequestHandler) UpdateStatus(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var payload dto.UpdateStatusPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	item, err := h.requests.UpdateStatus(c.Request.Context(), id, payload, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Stats godoc
// @Summary Request counts per status
// @Tags Requests
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /requests/stats [get]
func (h *RequestHandler) Stats(c *gin.Context) {
	stats, hit, err := h.requests.Stats(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	meta := middleware.ExtractMeta(c)
	response.JSON(c, http.StatusOK, stats, nil, meta)
}

// ClaimSlip godoc
// @Summary Claim slip of a ready request
// @Tags Requests
// @Produce json
// @Produce application/pdf
// @Param id path int true "Request ID"
// @Param format query string false "json (default) or pdf"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/claim-slip [get]
func (h *RequestHandler) ClaimSlip(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	actor := claimsFromContext(c)
	switch c.DefaultQuery("format", "json") {
	case "json":
		slip, err := h.slips.Slip(c.Request.Context(), id, actor)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, slip, nil)
	case "pdf":
		file, err := h.slips.PDF(c.Request.Context(), id, actor)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.File(c, file.Filename, file.ContentType, file.Body)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be json or pdf"))
	}
}

// Export godoc
// @Summary Export request register
// @Tags Requests
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Param status query string false "Status filter"
// @Param documentType query string false "Document type filter"
// @Param search query string false "Free text search"
// @Success 200 {file} file
// @Router /requests/export [get]
func (h *RequestHandler) Export(c *gin.Context) {
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	file, err := h.exporter.Register(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Body)
}
