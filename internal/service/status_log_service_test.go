package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/citedocs-api/internal/dto"
	"github.com/noah-isme/citedocs-api/internal/models"
	appErrors "github.com/noah-isme/citedocs-api/pkg/errors"
)

type statusLogStoreStub struct {
	entries []models.StatusLogEntry
	filter  models.StatusLogFilter
}

func (s *statusLogStoreStub) List(ctx context.Context, filter models.StatusLogFilter) ([]models.StatusLogEntry, error) {
	s.filter = filter
	return s.entries, nil
}

func TestStatusLogServiceListScopesStudents(t *testing.T) {
	store := &statusLogStoreStub{}
	svc := NewStatusLogService(store, nil)

	entries, err := svc.List(context.Background(), dto.StatusLogQuery{RequestID: 4}, student)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Equal(t, "stu-1", store.filter.UserID)
	assert.Equal(t, int64(4), store.filter.RequestID)

	_, err = svc.List(context.Background(), dto.StatusLogQuery{UserID: "stu-2"}, student)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = svc.List(context.Background(), dto.StatusLogQuery{UserID: "stu-2"}, registrar)
	require.NoError(t, err)
	assert.Equal(t, "stu-2", store.filter.UserID)
}

func TestStatusLogServiceActivityUsesAudience(t *testing.T) {
	pending := models.RequestStatusPending
	staff := "Reyes"
	store := &statusLogStoreStub{entries: []models.StatusLogEntry{
		{LogID: 1, RequestID: 9, NewStatus: models.RequestStatusPending, ChangedAt: fixedNow.Add(-2 * time.Hour), DocumentName: "Diploma"},
		{LogID: 2, RequestID: 9, OldStatus: &pending, NewStatus: models.RequestStatusProcessing, ChangedAt: fixedNow.Add(-30 * time.Second), ChangedByName: &staff, DocumentName: "Diploma"},
	}}
	svc := NewStatusLogService(store, nil)
	svc.now = func() time.Time { return fixedNow }
	since := fixedNow.Add(-24 * time.Hour)

	items, err := svc.Activity(context.Background(), student, &since)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Request Processing", items[0].Title)
	assert.Equal(t, "just now", items[0].RelativeTime)
	assert.Equal(t, "You submitted REQ-9 (Diploma)", items[1].Message)
	assert.Equal(t, "2 hours ago", items[1].RelativeTime)
	require.NotNil(t, store.filter.Since)
	assert.Equal(t, since, *store.filter.Since)

	items, err = svc.Activity(context.Background(), registrar, nil)
	require.NoError(t, err)
	assert.Equal(t, "REQ-9 (Diploma) was submitted", items[1].Message)
	assert.Empty(t, store.filter.UserID)
}
