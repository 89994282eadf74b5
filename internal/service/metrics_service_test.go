package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/citedocs-api/internal/models"
)

func TestMetricsServiceExposesDomainCounters(t *testing.T) {
	m := NewMetricsService()
	m.ObserveStatusTransition(models.RequestStatusPending, models.RequestStatusProcessing)
	m.ObserveNotificationJob(nil)
	m.ObserveNotificationJob(errors.New("boom"))
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/api/requests", 200, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `request_status_transitions_total{from="PENDING",to="PROCESSING"} 1`)
	assert.Contains(t, body, `notification_jobs_total{result="failure"} 1`)
	assert.Contains(t, body, `cache_lookups_total{result="hit"} 1`)

	snapshot := m.Snapshot()
	assert.Equal(t, 0.5, snapshot.CacheHitRatio)
	assert.Equal(t, uint64(1), snapshot.RequestsTotal)
	assert.Equal(t, uint64(1), snapshot.StatusTransitions)
	assert.Equal(t, uint64(1), snapshot.NotificationsSent)
	assert.Equal(t, uint64(1), snapshot.NotificationsFailed)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveStatusTransition(models.RequestStatusPending, models.RequestStatusRejected)
	m.ObserveNotificationJob(nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, models.SystemMetrics{}, m.Snapshot())
}
