package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/citedocs-api/internal/models"
)

const paymentColumns = `payment_id, request_id, proof_of_payment, original_name, content_type, size_bytes, remarks, created_at`

// PaymentRepository persists proof-of-payment records.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create stores a payment. A second payment for the same request returns ErrDuplicate.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	const query = `INSERT INTO payments (request_id, proof_of_payment, original_name, content_type, size_bytes, remarks)
	VALUES ($1, $2, $3, $4, $5, $6) RETURNING payment_id, created_at`
	err := r.db.QueryRowxContext(ctx, query,
		payment.RequestID, payment.ProofOfPayment, payment.OriginalName, payment.ContentType, payment.SizeBytes, payment.Remarks,
	).Scan(&payment.PaymentID, &payment.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// GetByRequestID returns the payment of a request or sql.ErrNoRows.
func (r *PaymentRepository) GetByRequestID(ctx context.Context, requestID int64) (*models.Payment, error) {
	var payment models.Payment
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE request_id = $1`
	if err := r.db.GetContext(ctx, &payment, query, requestID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &payment, nil
}
