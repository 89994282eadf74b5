package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/citedocs-api/internal/models"
)

// ErrNotReady is returned for requests that are not approved or completed.
var ErrNotReady = errors.New("request is not ready for pickup")

// ClaimInstructions are printed on every slip.
var ClaimInstructions = []string{
	"Present this claim slip and a valid school ID at the registrar's window.",
	"An authorized representative must bring a signed authorization letter and both IDs.",
	"Documents not claimed within 30 days of the ready date may be returned to processing.",
}

// BuildClaimSlip derives the slip for req. payment may be nil.
// When the request has no dateReady the slip shows today's date with DateReadyEstimated set.
func BuildClaimSlip(req models.Request, payment *models.Payment, now time.Time) (*models.ClaimSlip, error) {
	status, ok := models.ParseRequestStatus(string(req.Status))
	if !ok || !status.Ready() {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotReady, FormatRequestID(req.RequestID), req.Status)
	}

	slip := &models.ClaimSlip{
		ClaimNumber:  FormatRequestID(req.RequestID),
		RequestID:    req.RequestID,
		StudentName:  req.StudentName,
		StudentID:    req.StudentID,
		DocumentType: req.DocumentType.Name,
		Copies:       req.Copies,
		Status:       status,
		Instructions: append([]string(nil), ClaimInstructions...),
		GeneratedAt:  now.UTC(),
	}

	if req.DateReady != nil && !req.DateReady.IsZero() {
		slip.DateReady = *req.DateReady
	} else {
		slip.DateReady = models.NewDate(now)
		slip.DateReadyEstimated = true
	}

	if payment != nil && payment.ProofOfPayment != "" {
		proof := payment.ProofOfPayment
		slip.ProofOfPayment = &proof
	} else if req.ProofOfPayment != nil {
		proof := *req.ProofOfPayment
		slip.ProofOfPayment = &proof
	}

	return slip, nil
}
