package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/sakugabase/internal/model"
	"github.com/d60-Lab/sakugabase/internal/service"
	"github.com/d60-Lab/sakugabase/pkg/apperrors"
	"github.com/d60-Lab/sakugabase/pkg/response"
)

func init() { gin.SetMode(gin.TestMode) }

type stubParser map[string]*service.Claims

func (p stubParser) ParseToken(token string) (*service.Claims, error) {
	if c, ok := p[token]; ok {
		return c, nil
	}
	return nil, apperrors.Unauthorized("invalid token")
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var r response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r))
	return r
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var r struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r))
	return r.Error.Code
}

func TestAuth(t *testing.T) {
	claims := &service.Claims{Role: model.RoleModerator}
	claims.Subject = "u1"
	parser := stubParser{"good": claims}

	r := gin.New()
	whoami := func(c *gin.Context) {
		a := ActorFrom(c)
		c.JSON(http.StatusOK, gin.H{"id": a.UserID, "role": a.Role})
	}
	r.GET("/private", AuthRequired(parser), whoami)
	r.GET("/public", OptionalAuth(parser), whoami)

	tests := []struct {
		name   string
		path   string
		header string
		status int
		body   string
	}{
		{"private with token", "/private", "Bearer good", http.StatusOK, `{"id":"u1","role":"MODERATOR"}`},
		{"private lowercase scheme", "/private", "bearer good", http.StatusOK, `{"id":"u1","role":"MODERATOR"}`},
		{"private without token", "/private", "", http.StatusUnauthorized, ""},
		{"private bad token", "/private", "Bearer bad", http.StatusUnauthorized, ""},
		{"public anonymous", "/public", "", http.StatusOK, `{"id":"","role":""}`},
		{"public bad token is anonymous", "/public", "Bearer bad", http.StatusOK, `{"id":"","role":""}`},
		{"public with token", "/public", "Bearer good", http.StatusOK, `{"id":"u1","role":"MODERATOR"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.JSONEq(t, tt.body, w.Body.String())
			} else {
				assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(0.5, 2)
	defer rl.Stop()
	r := gin.New()
	r.GET("/", RateLimit(rl), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusNoContent, do("10.0.0.1").Code)
	assert.Equal(t, http.StatusNoContent, do("10.0.0.1").Code)

	w := do("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, w))
	assert.Equal(t, "2", w.Header().Get("Retry-After"))

	// 其他客户端不受影响
	assert.Equal(t, http.StatusNoContent, do("10.0.0.2").Code)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(10, 10)
	rl.Allow("a")
	rl.Allow("b")
	require.Equal(t, 2, rl.size())

	rl.cleanup(time.Now())
	assert.Equal(t, 2, rl.size())
	rl.cleanup(time.Now().Add(2 * time.Hour))
	assert.Equal(t, 0, rl.size())
}

func TestRequestIDAndRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery(), Metrics())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.False(t, body.Success)
	require.NotNil(t, body.Error)
	assert.Equal(t, apperrors.CodeInternal, body.Error.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Body.String())
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}
