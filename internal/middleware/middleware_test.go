package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oktel/attendance-report/internal/models"
	"github.com/oktel/attendance-report/internal/service"
	appErrors "github.com/oktel/attendance-report/pkg/errors"
)

type validatorStub struct {
	claims *models.JWTClaims
	err    error
	seen   string
}

func (v *validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	v.seen = token
	return v.claims, v.err
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, claims.UserID)
	})
	return r
}

func serve(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTMiddleware(t *testing.T) {
	stub := &validatorStub{claims: &models.JWTClaims{UserID: "u1"}}
	r := newRouter(JWT(stub))

	w := serve(r, "Bearer abc")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())
	assert.Equal(t, "abc", stub.seen)

	assert.Equal(t, http.StatusUnauthorized, serve(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Bearer ").Code)

	stub.err = appErrors.Wrap(errors.New("expired"), appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Bearer abc").Code)
}

func TestOptionalJWTMiddleware(t *testing.T) {
	stub := &validatorStub{err: errors.New("bad")}
	r := newRouter(OptionalJWT(stub))

	w := serve(r, "Bearer abc")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anonymous", w.Body.String())
}

func TestRequireRoles(t *testing.T) {
	stub := &validatorStub{claims: &models.JWTClaims{UserID: "u1", Roles: []string{models.RoleUser}}}
	r := newRouter(JWT(stub), RequireRoles(models.RoleSystemAdmin, models.RoleTeamAdmin))

	assert.Equal(t, http.StatusForbidden, serve(r, "Bearer abc").Code)

	stub.claims = &models.JWTClaims{UserID: "u2", Roles: []string{models.RoleTeamAdmin}}
	assert.Equal(t, http.StatusOK, serve(r, "Bearer abc").Code)

	anonymous := newRouter(RequireRoles(models.RoleSystemAdmin))
	assert.Equal(t, http.StatusUnauthorized, serve(anonymous, "").Code)
}

func TestSetCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	_, known := CacheHit(c)
	assert.False(t, known)

	SetCacheHit(c, true)
	hit, known := CacheHit(c)
	assert.True(t, known)
	assert.True(t, hit)
	assert.Equal(t, "HIT", w.Header().Get(CacheStatusHeader))

	SetCacheHit(c, false)
	assert.Equal(t, "MISS", w.Header().Get(CacheStatusHeader))
}

func TestMetricsMiddleware(t *testing.T) {
	metrics := service.NewMetricsService("test")
	r := newRouter(Metrics(metrics))

	serve(r, "")
	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	paths := map[string]bool{}
	for _, mf := range families {
		if mf.GetName() != "test_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "path" {
					paths[label.GetValue()] = true
				}
			}
		}
	}
	assert.Equal(t, map[string]bool{"/ping": true, "unmatched": true}, paths)
}

func TestMetricsMiddlewareCountsCachedResponses(t *testing.T) {
	metrics := service.NewMetricsService("test")
	r := newRouter(Metrics(metrics))
	r.GET("/report", func(c *gin.Context) {
		SetCacheHit(c, c.Query("hit") == "1")
		c.Status(http.StatusOK)
	})

	for _, target := range []string{"/report?hit=1", "/report?hit=0", "/report?hit=1", "/ping"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "test_http_cached_responses_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			key := ""
			for _, label := range m.GetLabel() {
				key += label.GetValue() + ";"
			}
			counts[key] = m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, map[string]float64{"/report;hit;": 2, "/report;miss;": 1}, counts)
}
