package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/citedocs-api/internal/models"
	"github.com/noah-isme/citedocs-api/internal/service"
	appErrors "github.com/noah-isme/citedocs-api/pkg/errors"
	"github.com/noah-isme/citedocs-api/pkg/response"
)

type paymentService interface {
	Upload(ctx context.Context, upload service.PaymentUpload, actor *models.JWTClaims) (*models.Payment, error)
	GetByRequest(ctx context.Context, requestID int64, actor *models.JWTClaims) (*models.Payment, error)
	Download(ctx context.Context, token string) (*service.PaymentDownload, error)
}

// PaymentHandler manages proof of payment endpoints.
type PaymentHandler struct {
	service paymentService
}

// NewPaymentHandler constructs the handler.
func NewPaymentHandler(svc paymentService) *PaymentHandler {
	return &PaymentHandler{service: svc}
}

// Upload godoc
// @Summary Upload proof of payment
// @Tags Payments
// @Accept multipart/form-data
// @Produce json
// @Param requestId formData int true "Request ID"
// @Param remarks formData string false "Remarks"
// @Param proofFile formData file true "Receipt image or PDF"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /payments/upload [post]
func (h *PaymentHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	requestID, err := strconv.ParseInt(strings.TrimSpace(c.PostForm("requestId")), 10, 64)
	if err != nil || requestID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "requestId is required"))
		return
	}
	fileHeader, err := c.FormFile("proofFile")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "proofFile is required"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close()

	reader, ok := src.(io.ReadSeeker)
	if !ok {
		buf, readErr := io.ReadAll(src)
		if readErr != nil {
			response.Error(c, appErrors.Wrap(readErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer file"))
			return
		}
		reader = bytes.NewReader(buf)
	}
	payment, err := h.service.Upload(c.Request.Context(), service.PaymentUpload{
		RequestID: requestID,
		Filename:  fileHeader.Filename,
		Size:      fileHeader.Size,
		MimeType:  fileHeader.Header.Get("Content-Type"),
		Content:   reader,
		Remarks:   c.PostForm("remarks"),
	}, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}

// GetByRequest godoc
// @Summary Proof of payment of a request
// @Tags Payments
// @Produce json
// @Param id path int true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /payments/request/{id} [get]
func (h *PaymentHandler) GetByRequest(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	payment, err := h.service.GetByRequest(c.Request.Context(), id, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// Download godoc
// @Summary Download proof of payment via signed token
// @Tags Payments
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /payments/files/{token} [get]
func (h *PaymentHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.service.Download(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, result.SizeBytes, result.MimeType, result.File, nil)
}
