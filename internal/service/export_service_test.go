package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/citedocs-api/internal/dto"
	"github.com/noah-isme/citedocs-api/internal/models"
	appErrors "github.com/noah-isme/citedocs-api/pkg/errors"
)

func TestExportServiceRegisterCSV(t *testing.T) {
	f := newRequestFixture(pendingRequest(1, "stu-1"), pendingRequest(2, "stu-2"))
	audit := &auditStub{}
	svc := NewExportService(f.svc, nil, nil, audit, nil)
	svc.now = func() time.Time { return fixedNow }

	file, err := svc.Register(context.Background(), dto.ExportQuery{Format: "CSV"}, registrar)
	require.NoError(t, err)
	assert.Equal(t, "requests_20240510_093000.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)

	lines := strings.Split(strings.TrimSpace(string(file.Body)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Request ID,Student ID"))
	assert.True(t, strings.HasPrefix(lines[1], "REQ-1,"))
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionExport, audit.logs[0].Action)
}

func TestExportServiceRegisterPDF(t *testing.T) {
	f := newRequestFixture(pendingRequest(1, "stu-1"))
	svc := NewExportService(f.svc, nil, nil, nil, nil)

	file, err := svc.Register(context.Background(), dto.ExportQuery{Format: "pdf"}, registrar)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Body), "%PDF"))
}

func TestExportServiceRegisterRejects(t *testing.T) {
	svc := NewExportService(newRequestFixture().svc, nil, nil, nil, nil)

	_, err := svc.Register(context.Background(), dto.ExportQuery{Format: "xlsx"}, registrar)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Register(context.Background(), dto.ExportQuery{}, student)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

type documentStoreStub struct {
	docs  []models.DocumentType
	calls int
}

func (d *documentStoreStub) List(ctx context.Context, activeOnly bool) ([]models.DocumentType, error) {
	d.calls++
	return d.docs, nil
}

func TestDocumentServiceListWithoutCache(t *testing.T) {
	store := &documentStoreStub{docs: []models.DocumentType{{DocumentID: 1, Name: "Diploma", Active: true}}}
	svc := NewDocumentService(store, nil, time.Minute, nil)

	docs, hit, err := svc.List(context.Background(), true)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, docs, 1)
	assert.Equal(t, 1, store.calls)

	empty := NewDocumentService(&documentStoreStub{}, nil, time.Minute, nil)
	docs, _, err = empty.List(context.Background(), false)
	require.NoError(t, err)
	assert.NotNil(t, docs)
}
