package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proteia_back_end/internal/apperr"
	"proteia_back_end/internal/auth"
	"proteia_back_end/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeValidator map[string]*auth.Principal

func (f fakeValidator) Validate(_ context.Context, token string) (*auth.Principal, error) {
	if token == "boom" {
		return nil, apperr.Internal(nil, "store en panne")
	}
	p, ok := f[token]
	if !ok {
		return nil, apperr.Unauthorized("token invalide")
	}
	return p, nil
}

type fakeLimiter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newLimiter() *fakeLimiter {
	return &fakeLimiter{counts: map[string]int64{}}
}

func (f *fakeLimiter) IncrementRateLimit(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeLimiter) RateLimitCount(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[key], nil
}

func (f *fakeLimiter) RateLimitTTL(context.Context, string) time.Duration { return 0 }

func (f *fakeLimiter) ResetRateLimit(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.counts, key)
	return nil
}

func validator() fakeValidator {
	return fakeValidator{
		"viewer": {UserID: 1, Roles: []string{models.RoleViewer}},
		"admin":  {UserID: 2, Roles: []string{models.RoleAdmin}},
	}
}

func do(r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	r := gin.New()
	r.GET("/me", AuthRequired(validator()), func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": p.UserID})
	})

	assert.Equal(t, http.StatusUnauthorized, do(r, "GET", "/me", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "GET", "/me", "inconnu", "").Code)
	assert.Equal(t, http.StatusInternalServerError, do(r, "GET", "/me", "boom", "").Code)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Token viewer")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, "GET", "/me", "viewer", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1}`, w.Body.String())
}

func TestRequireRole(t *testing.T) {
	r := gin.New()
	r.POST("/admin", AuthRequired(validator()), RequireRole(models.RoleAdmin), AuditAction(ActionCacheInvalidate),
		func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.POST("/open", RequireRole(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusForbidden, do(r, "POST", "/admin", "viewer", "").Code)
	assert.Equal(t, http.StatusNoContent, do(r, "POST", "/admin", "admin", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "POST", "/open", "", "").Code)
}

func TestLoginRateLimit(t *testing.T) {
	limiter := newLimiter()
	r := gin.New()
	r.POST("/login", LoginRateLimit(limiter), func(c *gin.Context) {
		var in struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		require.NoError(t, c.ShouldBindJSON(&in), "le body doit rester lisible")
		if in.Password != "ok" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "identifiants invalides"})
			return
		}
		c.JSON(http.StatusOK, gin.H{})
	})

	bad := `{"email":"Ana@proteia.test","password":"ko"}`
	for i := 0; i < LoginMaxAttempts; i++ {
		assert.Equal(t, http.StatusUnauthorized, do(r, "POST", "/login", "", bad).Code)
	}
	w := do(r, "POST", "/login", "", `{"email":"ana@proteia.test","password":"ok"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// un autre email n'est pas concerné
	assert.Equal(t, http.StatusOK, do(r, "POST", "/login", "", `{"email":"bob@proteia.test","password":"ok"}`).Code)
}

func TestLoginRateLimitResetsOnSuccess(t *testing.T) {
	limiter := newLimiter()
	r := gin.New()
	r.POST("/login", LoginRateLimit(limiter), func(c *gin.Context) {
		if strings.Contains(c.GetHeader("X-Test"), "ok") {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{})
	})

	body := `{"email":"ana@proteia.test"}`
	do(r, "POST", "/login", "", body)
	do(r, "POST", "/login", "", body)
	assert.Equal(t, int64(2), limiter.counts["login_attempts:ana@proteia.test"])

	req := httptest.NewRequest("POST", "/login", strings.NewReader(body))
	req.Header.Set("X-Test", "ok")
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Zero(t, limiter.counts["login_attempts:ana@proteia.test"])
}

func TestAPIRateLimit(t *testing.T) {
	limiter := newLimiter()
	r := gin.New()
	r.GET("/ping", APIRateLimit(limiter), func(c *gin.Context) { c.Status(http.StatusOK) })

	var last *httptest.ResponseRecorder
	for i := 0; i < APIMaxRequests; i++ {
		last = do(r, "GET", "/ping", "", "")
		require.Equal(t, http.StatusOK, last.Code)
	}
	assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))

	w := do(r, "GET", "/ping", "", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest("OPTIONS", "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
