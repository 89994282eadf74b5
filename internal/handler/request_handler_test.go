package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/citedocs-api/internal/dto"
	"github.com/noah-isme/citedocs-api/internal/middleware"
	"github.com/noah-isme/citedocs-api/internal/models"
	"github.com/noah-isme/citedocs-api/internal/service"
	appErrors "github.com/noah-isme/citedocs-api/pkg/errors"
)

type requestServiceMock struct {
	listResp    []models.Request
	lastQuery   dto.RequestListQuery
	getResp     *models.Request
	getErr      error
	updateResp  *models.Request
	updateErr   error
	lastID      int64
	lastPayload dto.UpdateStatusPayload
	submitResp  *models.Request
	statsResp   *models.RequestStats
	statsHit    bool
}

func (m *requestServiceMock) Submit(ctx context.Context, payload dto.CreateRequestPayload, actor *models.JWTClaims) (*models.Request, error) {
	return m.submitResp, nil
}

func (m *requestServiceMock) Get(ctx context.Context, id int64, actor *models.JWTClaims) (*models.Request, error) {
	m.lastID = id
	return m.getResp, m.getErr
}

func (m *requestServiceMock) List(ctx context.Context, query dto.RequestListQuery, actor *models.JWTClaims) ([]models.Request, error) {
	m.lastQuery = query
	return m.listResp, nil
}

func (m *requestServiceMock) UpdateStatus(ctx context.Context, id int64, payload dto.UpdateStatusPayload, actor *models.JWTClaims) (*models.Request, error) {
	m.lastID = id
	m.lastPayload = payload
	return m.updateResp, m.updateErr
}

func (m *requestServiceMock) Stats(ctx context.Context, actor *models.JWTClaims) (*models.RequestStats, bool, error) {
	return m.statsResp, m.statsHit, nil
}

type claimSlipServiceMock struct {
	slip    *models.ClaimSlip
	file    *service.ExportFile
	err     error
	pdfUsed bool
}

func (m *claimSlipServiceMock) Slip(ctx context.Context, id int64, actor *models.JWTClaims) (*models.ClaimSlip, error) {
	return m.slip, m.err
}

func (m *claimSlipServiceMock) PDF(ctx context.Context, id int64, actor *models.JWTClaims) (*service.ExportFile, error) {
	m.pdfUsed = true
	return m.file, m.err
}

type exporterMock struct {
	lastQuery dto.ExportQuery
}

func (m *exporterMock) Register(ctx context.Context, query dto.ExportQuery, actor *models.JWTClaims) (*service.ExportFile, error) {
	m.lastQuery = query
	return &service.ExportFile{Filename: "requests.csv", ContentType: "text/csv", Body: []byte("Request ID\n")}, nil
}

var registrarClaims = &models.JWTClaims{UserID: "staff-1", Role: models.RoleRegistrar}

func newTestContext(method, target string, body []byte, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *appErrors.Error {
	t.Helper()
	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	return envelope.Error
}

func TestRequestHandlerListBindsQuery(t *testing.T) {
	mockSvc := &requestServiceMock{listResp: []models.Request{{RequestID: 1}, {RequestID: 2}}}
	h := NewRequestHandler(mockSvc, nil, nil)

	c, w := newTestContext(http.MethodGet, "/requests?status=pending&documentType=Transcript&search=ana&view=recent", nil, registrarClaims)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pending", mockSvc.lastQuery.Status)
	assert.Equal(t, "Transcript", mockSvc.lastQuery.DocumentType)
	assert.Equal(t, "ana", mockSvc.lastQuery.Search)
	assert.Equal(t, "recent", mockSvc.lastQuery.View)
	assert.Contains(t, w.Body.String(), `"total":2`)
}

func TestRequestHandlerGetInvalidID(t *testing.T) {
	h := NewRequestHandler(&requestServiceMock{}, nil, nil)
	c, w := newTestContext(http.MethodGet, "/requests/abc", nil, registrarClaims)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	h.Get(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestHandlerUpdateStatus(t *testing.T) {
	mockSvc := &requestServiceMock{updateResp: &models.Request{RequestID: 7, Status: models.RequestStatusProcessing}}
	h := NewRequestHandler(mockSvc, nil, nil)

	c, w := newTestContext(http.MethodPut, "/requests/7/status", []byte(`{"status":"processing","remarks":"on it","expectedStatus":"pending"}`), registrarClaims)
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	h.UpdateStatus(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(7), mockSvc.lastID)
	assert.Equal(t, "processing", mockSvc.lastPayload.Status)
	assert.Equal(t, "pending", mockSvc.lastPayload.ExpectedStatus)
	assert.Equal(t, "on it", mockSvc.lastPayload.Remarks)
}

func TestRequestHandlerUpdateStatusErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid transition", appErrors.Clone(appErrors.ErrInvalidTransition, "cannot move"), http.StatusUnprocessableEntity, "INVALID_TRANSITION"},
		{"conflict", appErrors.Clone(appErrors.ErrConflict, "changed"), http.StatusConflict, "CONFLICT"},
		{"not found", appErrors.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewRequestHandler(&requestServiceMock{updateErr: tc.err}, nil, nil)
			c, w := newTestContext(http.MethodPut, "/requests/3/status", []byte(`{"status":"completed"}`), registrarClaims)
			c.Params = gin.Params{{Key: "id", Value: "3"}}

			h.UpdateStatus(c)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, decodeError(t, w).Code)
		})
	}
}

func TestRequestHandlerUpdateStatusInvalidBody(t *testing.T) {
	mockSvc := &requestServiceMock{}
	h := NewRequestHandler(mockSvc, nil, nil)
	c, w := newTestContext(http.MethodPut, "/requests/3/status", []byte(`{"status":`), registrarClaims)
	c.Params = gin.Params{{Key: "id", Value: "3"}}

	h.UpdateStatus(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, mockSvc.lastID)
}

func TestRequestHandlerStatsCacheMeta(t *testing.T) {
	h := NewRequestHandler(&requestServiceMock{statsResp: &models.RequestStats{Total: 3}, statsHit: true}, nil, nil)
	c, w := newTestContext(http.MethodGet, "/requests/stats", nil, registrarClaims)

	h.Stats(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cacheHit":true`)
}

func TestRequestHandlerClaimSlipFormats(t *testing.T) {
	slips := &claimSlipServiceMock{
		slip: &models.ClaimSlip{ClaimNumber: "REQ-5"},
		file: &service.ExportFile{Filename: "claim-slip-REQ-5.pdf", ContentType: "application/pdf", Body: []byte("%PDF")},
	}
	h := NewRequestHandler(&requestServiceMock{}, slips, nil)

	c, w := newTestContext(http.MethodGet, "/requests/5/claim-slip", nil, registrarClaims)
	c.Params = gin.Params{{Key: "id", Value: "5"}}
	h.ClaimSlip(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"claimNumber":"REQ-5"`)

	c, w = newTestContext(http.MethodGet, "/requests/5/claim-slip?format=pdf", nil, registrarClaims)
	c.Params = gin.Params{{Key: "id", Value: "5"}}
	h.ClaimSlip(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, slips.pdfUsed)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "claim-slip-REQ-5.pdf")

	c, w = newTestContext(http.MethodGet, "/requests/5/claim-slip?format=docx", nil, registrarClaims)
	c.Params = gin.Params{{Key: "id", Value: "5"}}
	h.ClaimSlip(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestHandlerClaimSlipNotReady(t *testing.T) {
	slips := &claimSlipServiceMock{err: appErrors.Clone(appErrors.ErrNotReady, "request is still pending")}
	h := NewRequestHandler(&requestServiceMock{}, slips, nil)
	c, w := newTestContext(http.MethodGet, "/requests/5/claim-slip", nil, registrarClaims)
	c.Params = gin.Params{{Key: "id", Value: "5"}}

	h.ClaimSlip(c)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "NOT_READY", decodeError(t, w).Code)
}

func TestRequestHandlerExport(t *testing.T) {
	exporter := &exporterMock{}
	h := NewRequestHandler(&requestServiceMock{}, nil, exporter)
	c, w := newTestContext(http.MethodGet, "/requests/export?format=csv&status=approved", nil, registrarClaims)

	h.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", exporter.lastQuery.Format)
	assert.Equal(t, "approved", exporter.lastQuery.Status)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "requests.csv")
}
