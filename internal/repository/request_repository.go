package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/citedocs-api/internal/models"
)

const requestSelect = `SELECT r.request_id, r.user_id, r.student_id, r.student_name, r.document_id, d.name AS document_name,
       r.copies, r.date_needed, r.status, r.remarks, r.date_ready, r.created_at, r.updated_at, p.proof_of_payment
FROM requests r
JOIN documents d ON d.document_id = r.document_id
LEFT JOIN payments p ON p.request_id = r.request_id`

type requestRow struct {
	RequestID      int64                `db:"request_id"`
	UserID         string               `db:"user_id"`
	StudentID      string               `db:"student_id"`
	StudentName    string               `db:"student_name"`
	DocumentID     int64                `db:"document_id"`
	DocumentName   string               `db:"document_name"`
	Copies         int                  `db:"copies"`
	DateNeeded     models.Date          `db:"date_needed"`
	Status         models.RequestStatus `db:"status"`
	Remarks        *string              `db:"remarks"`
	DateReady      *models.Date         `db:"date_ready"`
	CreatedAt      time.Time            `db:"created_at"`
	UpdatedAt      time.Time            `db:"updated_at"`
	ProofOfPayment *string              `db:"proof_of_payment"`
}

func (row requestRow) toModel() models.Request {
	status, ok := models.ParseRequestStatus(string(row.Status))
	if !ok {
		status = row.Status
	}
	return models.Request{
		RequestID:      row.RequestID,
		UserID:         row.UserID,
		StudentID:      row.StudentID,
		StudentName:    row.StudentName,
		DocumentType:   models.DocumentType{DocumentID: row.DocumentID, Name: row.DocumentName},
		Copies:         row.Copies,
		DateNeeded:     row.DateNeeded,
		Status:         status,
		Remarks:        row.Remarks,
		DateReady:      row.DateReady,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
		ProofOfPayment: row.ProofOfPayment,
	}
}

// RequestRepository persists document requests and their status history.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs the repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create inserts a PENDING request together with its submission log entry.
func (r *RequestRepository) Create(ctx context.Context, input models.CreateRequestInput) (id int64, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin create request: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const insertRequest = `INSERT INTO requests (user_id, student_id, student_name, document_id, copies, date_needed, status, remarks, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9) RETURNING request_id`
	if err = tx.QueryRowxContext(ctx, insertRequest,
		input.UserID, input.StudentID, input.StudentName, input.DocumentID, input.Copies,
		input.DateNeeded, models.RequestStatusPending, input.Remarks, now,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert request: %w", err)
	}

	const insertLog = `INSERT INTO request_status_logs (request_id, old_status, new_status, changed_at, changed_by, remarks)
	VALUES ($1, NULL, $2, $3, NULL, $4)`
	if _, err = tx.ExecContext(ctx, insertLog, id, models.RequestStatusPending, now, input.Remarks); err != nil {
		return 0, fmt.Errorf("insert submission log: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create request: %w", err)
	}
	return id, nil
}

// GetByID fetches a request with its document type and proof of payment.
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*models.Request, error) {
	var row requestRow
	if err := r.db.GetContext(ctx, &row, requestSelect+` WHERE r.request_id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get request: %w", err)
	}
	req := row.toModel()
	return &req, nil
}

// List returns requests matching the filter, newest first.
func (r *RequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.Request, error) {
	builder := strings.Builder{}
	builder.WriteString(requestSelect)
	args := make([]interface{}, 0, 1+len(filter.Status))
	conditions := make([]string, 0, 2)

	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf("r.user_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("r.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY r.created_at DESC, r.request_id DESC")

	var rows []requestRow
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	out := make([]models.Request, len(rows))
	for i, row := range rows {
		out[i] = row.toModel()
	}
	return out, nil
}

// UpdateStatus applies a status change and appends its log entry atomically.
// It returns sql.ErrNoRows when the stored status is no longer change.ExpectedStatus.
func (r *RequestRepository) UpdateStatus(ctx context.Context, change models.StatusChange) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update request status: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const update = `UPDATE requests SET status = $1, remarks = $2, date_ready = COALESCE($3, date_ready), updated_at = $4
	WHERE request_id = $5 AND status = $6`
	result, err := tx.ExecContext(ctx, update,
		change.NewStatus, change.Remarks, change.DateReady, change.ChangedAt, change.RequestID, change.ExpectedStatus,
	)
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check request update rows: %w", err)
	}
	if rows == 0 {
		err = sql.ErrNoRows
		return err
	}

	const insertLog = `INSERT INTO request_status_logs (request_id, old_status, new_status, changed_at, changed_by, remarks)
	VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err = tx.ExecContext(ctx, insertLog,
		change.RequestID, change.ExpectedStatus, change.NewStatus, change.ChangedAt, change.ChangedBy, change.Remarks,
	); err != nil {
		return fmt.Errorf("insert status log: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit request status: %w", err)
	}
	return nil
}

// Stats counts requests per status, optionally scoped to one owner.
func (r *RequestRepository) Stats(ctx context.Context, userID string) (*models.RequestStats, error) {
	query := `SELECT status, COUNT(*) AS total FROM requests`
	args := []interface{}{}
	if userID != "" {
		query += ` WHERE user_id = $1`
		args = append(args, userID)
	}
	query += ` GROUP BY status`

	var rows []struct {
		Status models.RequestStatus `db:"status"`
		Total  int                  `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("request stats: %w", err)
	}

	stats := &models.RequestStats{}
	for _, row := range rows {
		status, _ := models.ParseRequestStatus(string(row.Status))
		switch status {
		case models.RequestStatusPending:
			stats.Pending += row.Total
		case models.RequestStatusProcessing:
			stats.Processing += row.Total
		case models.RequestStatusApproved:
			stats.Approved += row.Total
		case models.RequestStatusCompleted:
			stats.Completed += row.Total
		case models.RequestStatusRejected:
			stats.Rejected += row.Total
		}
		stats.Total += row.Total
	}
	stats.ReadyForPickup = stats.Approved + stats.Completed
	return stats, nil
}
