package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/citedocs-api/internal/models"
)

// StatusLogRepository reads the append-only request status history.
type StatusLogRepository struct {
	db *sqlx.DB
}

// NewStatusLogRepository constructs the repository.
func NewStatusLogRepository(db *sqlx.DB) *StatusLogRepository {
	return &StatusLogRepository{db: db}
}

// List returns log entries newest first. changed_by_name is only resolved for registrar staff.
func (r *StatusLogRepository) List(ctx context.Context, filter models.StatusLogFilter) ([]models.StatusLogEntry, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT l.log_id, l.request_id, l.old_status, l.new_status, l.changed_at, l.changed_by,
       CASE WHEN u.role = 'REGISTRAR' THEN u.full_name END AS changed_by_name,
       l.remarks, d.name AS document_name, r.student_name
FROM request_status_logs l
JOIN requests r ON r.request_id = l.request_id
JOIN documents d ON d.document_id = r.document_id
LEFT JOIN users u ON u.id = l.changed_by`)

	args := make([]interface{}, 0, 3)
	conditions := make([]string, 0, 3)
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf("r.user_id = $%d", len(args)))
	}
	if filter.RequestID > 0 {
		args = append(args, filter.RequestID)
		conditions = append(conditions, fmt.Sprintf("l.request_id = $%d", len(args)))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		conditions = append(conditions, fmt.Sprintf("l.changed_at > $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY l.changed_at DESC, l.log_id DESC")

	var entries []models.StatusLogEntry
	if err := r.db.SelectContext(ctx, &entries, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list status logs: %w", err)
	}
	for i := range entries {
		if entries[i].OldStatus != nil {
			if parsed, ok := models.ParseRequestStatus(string(*entries[i].OldStatus)); ok {
				entries[i].OldStatus = &parsed
			}
		}
		if parsed, ok := models.ParseRequestStatus(string(entries[i].NewStatus)); ok {
			entries[i].NewStatus = parsed
		}
	}
	return entries, nil
}
