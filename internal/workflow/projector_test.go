package workflow

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/citedocs-api/internal/models"
)

var baseTime = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func sampleRequest(id int64, status models.RequestStatus, doc string, offset time.Duration) models.Request {
	return models.Request{
		RequestID:    id,
		UserID:       "user-1",
		StudentID:    fmt.Sprintf("2021-%04d", id),
		StudentName:  fmt.Sprintf("Student %d", id),
		DocumentType: models.DocumentType{DocumentID: 1, Name: doc},
		Copies:       1,
		Status:       status,
		CreatedAt:    baseTime.Add(offset),
	}
}

func ids(rows []models.Request) []int64 {
	out := make([]int64, len(rows))
	for i, row := range rows {
		out[i] = row.RequestID
	}
	return out
}

func TestProjectRecentViewReturnsTenNewest(t *testing.T) {
	rows := make([]models.Request, 0, 15)
	for i := int64(1); i <= 15; i++ {
		rows = append(rows, sampleRequest(i, models.RequestStatusPending, "Transcript of Records", time.Duration(i)*time.Hour))
	}

	out := Project(rows, ProjectionQuery{StatusFilter: FilterAll, View: ViewRecent})
	require.Len(t, out, 10)
	assert.Equal(t, []int64{15, 14, 13, 12, 11, 10, 9, 8, 7, 6}, ids(out))

	all := Project(rows, ProjectionQuery{StatusFilter: FilterAll, View: ViewAll})
	assert.Len(t, all, 15)
}

func TestProjectSearchOfTwoCharacters(t *testing.T) {
	rows := []models.Request{
		sampleRequest(1, models.RequestStatusPending, "Transcript of Records", 0),
		sampleRequest(2, models.RequestStatusPending, "Diploma Copy", time.Minute),
	}
	out := Project(rows, ProjectionQuery{Search: "tr"})
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].RequestID)
}

func TestProjectSearchLengthCountsWhitespace(t *testing.T) {
	rows := []models.Request{
		sampleRequest(1, models.RequestStatusPending, "Transcript of Records", 0),
		sampleRequest(2, models.RequestStatusPending, "Diploma Copy", time.Minute),
	}
	out := Project(rows, ProjectionQuery{Search: " r"})
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].RequestID)

	assert.Empty(t, Project(rows, ProjectionQuery{Search: " z"}))
}

func TestProjectShortSearchIsNoop(t *testing.T) {
	rows := []models.Request{
		sampleRequest(1, models.RequestStatusPending, "Transcript of Records", 0),
		sampleRequest(2, models.RequestStatusApproved, "Diploma Copy", time.Minute),
		sampleRequest(3, models.RequestStatusPending, "Good Moral Certificate", 2*time.Minute),
	}
	for _, search := range []string{"", "z", " "} {
		withSearch := Project(rows, ProjectionQuery{StatusFilter: "pending", Search: search})
		without := Project(rows, ProjectionQuery{StatusFilter: "pending"})
		assert.Equal(t, without, withSearch, "search %q", search)
	}
}

func TestProjectSearchFields(t *testing.T) {
	row := sampleRequest(42, models.RequestStatusPending, "Diploma Copy", 0)
	row.StudentName = "Maria Santos"
	row.StudentID = "2020-1187"
	rows := []models.Request{row, sampleRequest(7, models.RequestStatusPending, "Transcript of Records", 0)}

	for _, search := range []string{"santos", "MARIA", "1187", "diploma", "req-42"} {
		out := Project(rows, ProjectionQuery{Search: search})
		require.Len(t, out, 1, search)
		assert.Equal(t, int64(42), out[0].RequestID, search)
	}
}

func TestProjectTiesBrokenByRequestID(t *testing.T) {
	rows := []models.Request{
		sampleRequest(3, models.RequestStatusPending, "Diploma Copy", 0),
		sampleRequest(9, models.RequestStatusPending, "Diploma Copy", 0),
		sampleRequest(5, models.RequestStatusPending, "Diploma Copy", time.Second),
	}
	out := Project(rows, ProjectionQuery{})
	assert.Equal(t, []int64{5, 9, 3}, ids(out))
}

func TestProjectFilters(t *testing.T) {
	rows := []models.Request{
		sampleRequest(1, models.RequestStatusPending, "Transcript of Records", 0),
		sampleRequest(2, models.RequestStatus("approved"), "Diploma Copy", time.Minute),
		sampleRequest(3, models.RequestStatusApproved, "Transcript of Records", 2*time.Minute),
	}

	out := Project(rows, ProjectionQuery{StatusFilter: "APPROVED", DocumentTypeFilter: FilterAll})
	assert.Equal(t, []int64{3, 2}, ids(out))

	out = Project(rows, ProjectionQuery{StatusFilter: FilterAll, DocumentTypeFilter: "Transcript of Records"})
	assert.Equal(t, []int64{3, 1}, ids(out))

	out = Project(rows, ProjectionQuery{DocumentTypeFilter: "transcript of records"})
	assert.Empty(t, out)

	out = Project(rows, ProjectionQuery{StatusFilter: "archived"})
	assert.Empty(t, out)
}

func TestProjectDoesNotMutateInput(t *testing.T) {
	rows := []models.Request{
		sampleRequest(1, models.RequestStatusPending, "Diploma Copy", 0),
		sampleRequest(2, models.RequestStatusPending, "Diploma Copy", time.Hour),
	}
	snapshot := append([]models.Request(nil), rows...)

	first := Project(rows, ProjectionQuery{View: ViewRecent})
	second := Project(rows, ProjectionQuery{View: ViewRecent})

	assert.Equal(t, snapshot, rows)
	assert.Equal(t, first, second)
}
