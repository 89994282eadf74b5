package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/citedocs-api/internal/models"
)

func TestStatusLogRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStatusLogRepository(db)

	since := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"log_id", "request_id", "old_status", "new_status", "changed_at", "changed_by", "changed_by_name", "remarks", "document_name", "student_name"}).
		AddRow(int64(2), int64(42), "processing", "APPROVED", now, "reg-1", "Reyes", nil, "Transcript of Records", "Ana Cruz").
		AddRow(int64(1), int64(42), nil, "PENDING", now.Add(-time.Hour), nil, nil, nil, "Transcript of Records", "Ana Cruz")
	mock.ExpectQuery(regexp.QuoteMeta("CASE WHEN u.role = 'REGISTRAR' THEN u.full_name END AS changed_by_name")).
		WithArgs("u-1", int64(42), since).
		WillReturnRows(rows)

	entries, err := repo.List(context.Background(), models.StatusLogFilter{UserID: "u-1", RequestID: 42, Since: &since})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.NotNil(t, entries[0].OldStatus)
	assert.Equal(t, models.RequestStatusProcessing, *entries[0].OldStatus)
	require.NotNil(t, entries[0].ChangedByName)
	assert.Equal(t, "Reyes", *entries[0].ChangedByName)
	assert.True(t, entries[1].IsSubmission())
	assert.Nil(t, entries[1].ChangedByName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusLogRepositoryListUnfiltered(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStatusLogRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN users u ON u.id = l.changed_by ORDER BY l.changed_at DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"log_id"}))

	entries, err := repo.List(context.Background(), models.StatusLogFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}
