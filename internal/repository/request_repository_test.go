package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/citedocs-api/internal/models"
)

var requestRowColumns = []string{
	"request_id", "user_id", "student_id", "student_name", "document_id", "document_name",
	"copies", "date_needed", "status", "remarks", "date_ready", "created_at", "updated_at", "proof_of_payment",
}

func TestRequestRepositoryCreateWritesSubmissionLog(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	needed, err := models.ParseDate("2024-06-01")
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO requests")).
		WithArgs("u-1", "2021-0042", "Ana Cruz", int64(3), 2, sqlmock.AnyArg(), models.RequestStatusPending, nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"request_id"}).AddRow(int64(42)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO request_status_logs (request_id, old_status, new_status, changed_at, changed_by, remarks)")).
		WithArgs(int64(42), models.RequestStatusPending, sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	id, err := repo.Create(context.Background(), models.CreateRequestInput{
		UserID:      "u-1",
		StudentID:   "2021-0042",
		StudentName: "Ana Cruz",
		DocumentID:  3,
		Copies:      2,
		DateNeeded:  needed,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryCreateRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO requests")).
		WillReturnRows(sqlmock.NewRows([]string{"request_id"}).AddRow(int64(7)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO request_status_logs")).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), models.CreateRequestInput{UserID: "u-1", DocumentID: 1, Copies: 1})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	now := time.Now().UTC()
	ready := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(requestRowColumns).
		AddRow(int64(42), "u-1", "2021-0042", "Ana Cruz", int64(3), "Transcript of Records",
			2, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), "approved", "ready soon", ready, now, now, "1715000000000_receipt.png")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE r.request_id = $1")).
		WithArgs(int64(42)).
		WillReturnRows(rows)

	req, err := repo.GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, req.Status)
	assert.Equal(t, "Transcript of Records", req.DocumentType.Name)
	require.NotNil(t, req.DateReady)
	assert.Equal(t, "2024-06-03", req.DateReady.String())
	require.NotNil(t, req.ProofOfPayment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows(requestRowColumns).
		AddRow(int64(2), "u-1", "2021-0042", "Ana Cruz", int64(1), "Diploma Copy", 1, now, "PENDING", nil, nil, now, now, nil)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE r.user_id = $1 AND r.status IN ($2,$3) ORDER BY r.created_at DESC, r.request_id DESC")).
		WithArgs("u-1", models.RequestStatusPending, models.RequestStatusProcessing).
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.RequestFilter{
		UserID: "u-1",
		Status: []models.RequestStatus{models.RequestStatusPending, models.RequestStatusProcessing},
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].DateReady)
	assert.Nil(t, list[0].ProofOfPayment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func statusChange() models.StatusChange {
	ready := models.NewDate(time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC))
	remarks := "ready for pickup"
	return models.StatusChange{
		RequestID:      42,
		ExpectedStatus: models.RequestStatusProcessing,
		NewStatus:      models.RequestStatusApproved,
		Remarks:        &remarks,
		DateReady:      &ready,
		ChangedBy:      "reg-1",
		ChangedAt:      time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC),
	}
}

func TestRequestRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)
	change := statusChange()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests SET status = $1")).
		WithArgs(models.RequestStatusApproved, "ready for pickup", sqlmock.AnyArg(), change.ChangedAt, int64(42), models.RequestStatusProcessing).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO request_status_logs")).
		WithArgs(int64(42), models.RequestStatusProcessing, models.RequestStatusApproved, change.ChangedAt, "reg-1", "ready for pickup").
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.UpdateStatus(context.Background(), change))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryUpdateStatusConflict(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests SET status = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.UpdateStatus(context.Background(), statusChange())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryUpdateStatusLogFailureRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests SET status = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO request_status_logs")).
		WillReturnError(errors.New("constraint"))
	mock.ExpectRollback()

	err := repo.UpdateStatus(context.Background(), statusChange())
	require.Error(t, err)
	assert.NotErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryStats(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	rows := sqlmock.NewRows([]string{"status", "total"}).
		AddRow("PENDING", 4).
		AddRow("APPROVED", 2).
		AddRow("COMPLETED", 3).
		AddRow("REJECTED", 1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) AS total FROM requests GROUP BY status")).
		WillReturnRows(rows)

	stats, err := repo.Stats(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Total)
	assert.Equal(t, 4, stats.Pending)
	assert.Equal(t, 5, stats.ReadyForPickup)
	assert.NoError(t, mock.ExpectationsWereMet())
}
