package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/citedocs-api/internal/models"
	appErrors "github.com/noah-isme/citedocs-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type validatorStub struct {
	claims *models.JWTClaims
}

func (v validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return v.claims, nil
}

type auditRecorder struct {
	logs []*models.AuditLog
}

func (a *auditRecorder) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type observerStub struct {
	path   string
	status int
}

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.path = path
	o.status = status
}

func newRouter(claims *models.JWTClaims, roles ...models.UserRole) *gin.Engine {
	r := gin.New()
	r.GET("/requests/:id", JWT(validatorStub{claims: claims}), RequireRoles(roles...), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": CurrentUser(c).UserID})
	})
	return r
}

func TestJWTRejectsMissingAndMalformedHeaders(t *testing.T) {
	r := newRouter(&models.JWTClaims{UserID: "u1", Role: models.RoleStudent}, models.RoleStudent)

	for _, header := range []string{"", "Token good", "Bearer ", "Bearer bad"} {
		req := httptest.NewRequest(http.MethodGet, "/requests/1", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
	}
}

func TestRequireRoles(t *testing.T) {
	student := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}

	req := httptest.NewRequest(http.MethodGet, "/requests/1", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	newRouter(student, models.RoleRegistrar).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	newRouter(student, models.RoleStudent, models.RoleRegistrar).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user":"u1"`)
}

func TestAuditRecordsSuccessfulRequests(t *testing.T) {
	recorder := &auditRecorder{}
	r := gin.New()
	r.GET("/requests/:id/claim-slip", func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{UserID: "staff-1"})
		c.Next()
	}, Audit(recorder, models.AuditActionClaimSlip, "request"), func(c *gin.Context) {
		if c.Query("fail") != "" {
			c.Status(http.StatusConflict)
			return
		}
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/requests/9/claim-slip", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/requests/9/claim-slip?fail=1", nil))

	require.Len(t, recorder.logs, 1)
	log := recorder.logs[0]
	assert.Equal(t, models.AuditActionClaimSlip, log.Action)
	require.NotNil(t, log.ResourceID)
	assert.Equal(t, "9", *log.ResourceID)
	require.NotNil(t, log.UserID)
	assert.Equal(t, "staff-1", *log.UserID)
	assert.NotEmpty(t, log.ID)
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	observer := &observerStub{}
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/requests/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/requests/42", nil))
	assert.Equal(t, "/requests/:id", observer.path)
	assert.Equal(t, http.StatusNoContent, observer.status)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, "/missing", observer.path)
}

func TestResponseMeta(t *testing.T) {
	var meta map[string]interface{}
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/documents", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/documents", nil))
	require.NotNil(t, meta)
	assert.Equal(t, true, meta["cacheHit"])
	assert.Contains(t, meta, "processingTimeMs")
}

func TestResponseMetaReachesBody(t *testing.T) {
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/requests", func(c *gin.Context) {
		SetMeta(c, "total", 3)
		c.JSON(http.StatusOK, gin.H{"meta": ExtractMeta(c)})
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/requests", nil))
	assert.Contains(t, rec.Body.String(), `"total":3`)
	assert.Contains(t, rec.Body.String(), `"processingTimeMs":`)
}

func TestExtractMetaWithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, ExtractMeta(c))

	SetMeta(c, "unread", 2)
	assert.Equal(t, map[string]interface{}{"unread": 2}, ExtractMeta(c))
}
