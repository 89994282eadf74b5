package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/citedocs-api/internal/models"
	"github.com/noah-isme/citedocs-api/internal/workflow"
	appErrors "github.com/noah-isme/citedocs-api/pkg/errors"
	"github.com/noah-isme/citedocs-api/pkg/export"
)

// ClaimSlipOffice is printed in the slip header.
const ClaimSlipOffice = "Office of the Registrar"

type visibleRequestGetter interface {
	Get(ctx context.Context, id int64, actor *models.JWTClaims) (*models.Request, error)
}

type paymentLookup interface {
	Lookup(ctx context.Context, requestID int64) (*models.Payment, error)
}

type claimSlipRenderer interface {
	Render(slip export.ClaimSlipContent) ([]byte, error)
}

// ClaimSlipService derives claim slips for ready requests.
type ClaimSlipService struct {
	requests visibleRequestGetter
	payments paymentLookup
	renderer claimSlipRenderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewClaimSlipService constructs the service.
func NewClaimSlipService(requests visibleRequestGetter, payments paymentLookup, renderer claimSlipRenderer, logger *zap.Logger) *ClaimSlipService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderer == nil {
		renderer = export.NewClaimSlipPDF()
	}
	return &ClaimSlipService{requests: requests, payments: payments, renderer: renderer, logger: logger, now: time.Now}
}

// Slip returns the claim slip of a request that is APPROVED or COMPLETED.
func (s *ClaimSlipService) Slip(ctx context.Context, id int64, actor *models.JWTClaims) (*models.ClaimSlip, error) {
	req, err := s.requests.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	var payment *models.Payment
	if s.payments != nil {
		payment, err = s.payments.Lookup(ctx, id)
		if err != nil {
			s.logger.Warn("claim slip without payment details", zap.Int64("request_id", id), zap.Error(err))
			payment = nil
		}
	}
	slip, err := workflow.BuildClaimSlip(*req, payment, s.now())
	if err != nil {
		if errors.Is(err, workflow.ErrNotReady) {
			return nil, appErrors.Wrap(err, appErrors.ErrNotReady.Code, appErrors.ErrNotReady.Status, "request is not ready for pickup")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build claim slip")
	}
	return slip, nil
}

// PDF renders the claim slip as a printable document.
func (s *ClaimSlipService) PDF(ctx context.Context, id int64, actor *models.JWTClaims) (*ExportFile, error) {
	slip, err := s.Slip(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	body, err := s.renderer.Render(export.ClaimSlipContent{
		Office:       ClaimSlipOffice,
		ClaimNumber:  slip.ClaimNumber,
		StudentName:  slip.StudentName,
		StudentID:    slip.StudentID,
		DocumentType: slip.DocumentType,
		Copies:       slip.Copies,
		DateReady:    slip.DateReady.Format(workflow.AbsoluteDateLayout),
		Estimated:    slip.DateReadyEstimated,
		Instructions: slip.Instructions,
		GeneratedAt:  slip.GeneratedAt.Format("01/02/2006 15:04 MST"),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render claim slip")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("claim-slip-%s.pdf", slip.ClaimNumber),
		ContentType: "application/pdf",
		Body:        body,
	}, nil
}
