package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	rows := sqlmock.NewRows([]string{"document_id", "name", "description", "fee", "active"}).
		AddRow(int64(2), "Diploma Copy", nil, 150.0, true).
		AddRow(int64(1), "Transcript of Records", "Official TOR", 300.0, true)
	mock.ExpectQuery(regexp.QuoteMeta("FROM documents WHERE active = TRUE ORDER BY name")).
		WillReturnRows(rows)

	docs, err := repo.List(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Diploma Copy", docs[0].Name)
	assert.Nil(t, docs[0].Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}
