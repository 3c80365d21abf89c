package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CorrelationIDMiddleware())
	r.Use(mw...)
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetCorrelationID(c)) })
	return r
}

func TestWebhookSecretMiddleware(t *testing.T) {
	r := newEngine(WebhookSecretMiddleware("s3cret"))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "nope", http.StatusUnauthorized},
		{"prefix", "s3cre", http.StatusUnauthorized},
		{"ok", "s3cret", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set(WebhookSecretHeader, tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestWebhookSecretMiddlewareUnconfigured(t *testing.T) {
	r := newEngine(WebhookSecretMiddleware(""))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(WebhookSecretHeader, "anything")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	setRole := func(role string) gin.HandlerFunc {
		return func(c *gin.Context) { c.Set(RoleKey, role) }
	}

	w := httptest.NewRecorder()
	newEngine(setRole("user"), RequireAdmin()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	newEngine(setRole("admin"), RequireAdmin()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPasswordGate(t *testing.T) {
	mustChange := func(c *gin.Context) { c.Set(MustChangePasswordKey, true) }
	w := httptest.NewRecorder()
	newEngine(mustChange, RequirePasswordChangeCompletedMiddleware()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCorrelationIDEchoed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "abc")
	w := httptest.NewRecorder()
	newEngine().ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get("X-Correlation-ID"))
	assert.Equal(t, "abc", w.Body.String())
}

func TestCorrelationIDReplacesUnsafeValue(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CorrelationIDHeader, "bad id\nwith newline")
	w := httptest.NewRecorder()
	newEngine().ServeHTTP(w, req)

	got := w.Header().Get(CorrelationIDHeader)
	assert.NotEqual(t, "bad id\nwith newline", got)
	assert.Len(t, got, 36)
	assert.Equal(t, got, w.Body.String())
}
