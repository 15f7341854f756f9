package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insta-giveaway-backend/internal/common/errors"
	"insta-giveaway-backend/internal/domain/account"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuth struct {
	users map[string]*account.User
}

func (s stubAuth) Authenticate(_ context.Context, token string) (*account.User, error) {
	if u, ok := s.users[token]; ok {
		return u, nil
	}
	return nil, errors.NewUnauthorizedError("invalid token")
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code errors.ErrorCode
		want int
	}{
		{errors.ErrCodeVerification, http.StatusBadRequest},
		{errors.ErrCodeExternalAPI, http.StatusBadRequest},
		{errors.ErrCodeValidation, http.StatusBadRequest},
		{errors.ErrCodeGiveawayNotFound, http.StatusNotFound},
		{errors.ErrCodeUnauthorized, http.StatusUnauthorized},
		{errors.ErrCodeForbidden, http.StatusForbidden},
		{errors.ErrCodeConflict, http.StatusConflict},
		{errors.ErrCodeRateLimit, http.StatusTooManyRequests},
		{errors.ErrCodeDatabaseError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(errors.New(tt.code, "x")))
		})
	}
}

func TestHandleErrorWrapper_RendersAppError(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", HandleErrorWrapper(func(c *gin.Context) {
		_ = c.Error(errors.NewVerificationError("This giveaway is not currently active"))
	}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "req-1")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Success   bool   `json:"success"`
		RequestID string `json:"request_id"`
		Error     struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "req-1", body.RequestID)
	assert.Equal(t, "VERIFICATION_ERROR", body.Error.Code)
	assert.Equal(t, "This giveaway is not currently active", body.Error.Message)
}

func TestHandleErrorWrapper_WrapsPlainError(t *testing.T) {
	r := gin.New()
	r.GET("/x", HandleErrorWrapper(func(c *gin.Context) {
		_ = c.Error(assert.AnError)
	}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestErrorHandler_RecoversPanic(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}

func TestBearerAuth(t *testing.T) {
	auth := stubAuth{users: map[string]*account.User{
		"good":  {ID: 7, Email: "a@b.c"},
		"staff": {ID: 8, Email: "s@b.c", IsStaff: true},
	}}

	r := gin.New()
	r.GET("/me", BearerAuth(auth), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CurrentUser(c).ID})
	})
	r.GET("/staff", BearerAuth(auth), RequireStaff(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	do := func(path, header string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusUnauthorized, do("/me", ""))
	assert.Equal(t, http.StatusUnauthorized, do("/me", "Token good"))
	assert.Equal(t, http.StatusUnauthorized, do("/me", "Bearer bad"))
	assert.Equal(t, http.StatusOK, do("/me", "Bearer good"))
	assert.Equal(t, http.StatusForbidden, do("/staff", "Bearer good"))
	assert.Equal(t, http.StatusNoContent, do("/staff", "Bearer staff"))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	defer rl.Stop()

	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 1, len(rl.limiters))
}
