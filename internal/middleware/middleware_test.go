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

	"github.com/noah-isme/groupcal-api/internal/models"
	appErrors "github.com/noah-isme/groupcal-api/pkg/errors"
)

type authenticatorStub struct {
	claims map[string]*models.JWTClaims
}

func (a authenticatorStub) Authenticate(ctx context.Context, token string) (*models.JWTClaims, error) {
	claims, ok := a.claims[token]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return claims, nil
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, Claims(c).UserID)
	})
	r.GET("/sites/:site/feed", chain...)
	r.GET("/users/:id", chain...)
	return r
}

func do(r http.Handler, path, header string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	r.ServeHTTP(w, req)
	return w
}

var auth = authenticatorStub{claims: map[string]*models.JWTClaims{
	"admin":   {UserID: "u-admin", Role: models.RoleAdmin, Site: "Calendar"},
	"member":  {UserID: "u-member", Role: models.RoleUser, Site: "Calendar"},
	"removed": {UserID: "u-gone", Role: models.RoleRemoved, Site: models.RemovedSite},
	"new":     {UserID: "u-new"},
}}

func TestJWT(t *testing.T) {
	r := newRouter(JWT(auth))

	w := do(r, "/sites/Calendar/feed", "Bearer admin")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-admin", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(r, "/sites/Calendar/feed", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/sites/Calendar/feed", "Token admin").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/sites/Calendar/feed", "Bearer forged").Code)

	w = do(r, "/sites/Calendar/feed?access_token=member", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-member", w.Body.String())
}

func TestSiteScope(t *testing.T) {
	r := newRouter(JWT(auth), SiteScope())

	assert.Equal(t, http.StatusOK, do(r, "/sites/Calendar/feed", "Bearer member").Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/sites/Raiders/feed", "Bearer member").Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/sites/Calendar/feed", "Bearer new").Code)

	w := do(r, "/sites/removed/feed", "Bearer removed")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), appErrors.ErrAccessRemoved.Code)
}

func TestRequireEditor(t *testing.T) {
	r := newRouter(JWT(auth), SiteScope(), RequireEditor())

	assert.Equal(t, http.StatusOK, do(r, "/sites/Calendar/feed", "Bearer admin").Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/sites/Calendar/feed", "Bearer member").Code)
}

func TestRBACAllowsSelf(t *testing.T) {
	r := newRouter(JWT(auth), RBAC(string(models.RoleAdmin), "SELF"))

	assert.Equal(t, http.StatusOK, do(r, "/users/u-member", "Bearer member").Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/users/u-admin", "Bearer member").Code)
	assert.Equal(t, http.StatusOK, do(r, "/users/u-member", "Bearer admin").Code)
}

func TestRBACWithoutClaims(t *testing.T) {
	r := newRouter(RequireMember())
	assert.Equal(t, http.StatusUnauthorized, do(r, "/sites/Calendar/feed", "").Code)
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var meta map[string]interface{}
	r.Use(WithResponseMeta())
	r.GET("/", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusNoContent)
	})

	do(r, "/", "")
	require.NotNil(t, meta)
	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
}

type observerStub struct {
	routes   []string
	statuses []int
}

func (o *observerStub) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	o.routes = append(o.routes, method+" "+route)
	o.statuses = append(o.statuses, status)
}

func TestMetricsLabelsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	obs := &observerStub{}
	r := gin.New()
	r.Use(Metrics(obs))
	r.GET("/sites/:site/feed", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(r, "/sites/Raid/feed", "")
	do(r, "/nowhere", "")

	assert.Equal(t, []string{"GET /sites/:site/feed", "GET unmatched"}, obs.routes)
	assert.Equal(t, []int{http.StatusOK, http.StatusNotFound}, obs.statuses)
}
