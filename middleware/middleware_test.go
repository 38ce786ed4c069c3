package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func protected(t *testing.T) http.Handler {
	t.Helper()
	return AuthMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, username := UserFromContext(r.Context())
		assert.Equal(t, 42, userID)
		assert.Equal(t, "alice", username)
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	token, err := GenerateToken(testSecret, 42, "alice")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/items", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	protected(t).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuthMiddlewareTokenInQuery(t *testing.T) {
	token, err := GenerateToken(testSecret, 42, "alice")
	require.NoError(t, err)

	// Websocket upgrades cannot set headers, so the token rides the query.
	req := httptest.NewRequest("GET", "/api/ws?token="+token, nil)
	rec := httptest.NewRecorder()

	protected(t).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuthMiddlewareRejections(t *testing.T) {
	wrongSecret, err := GenerateToken("some-other-secret", 42, "alice")
	require.NoError(t, err)

	testCases := []struct {
		name   string
		header string
	}{
		{name: "missing token", header: ""},
		{name: "malformed token", header: "Bearer not.a.token"},
		{name: "wrong signing secret", header: "Bearer " + wrongSecret},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/items", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			protected(t).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestLoggingMiddlewarePassesThrough(t *testing.T) {
	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/items", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := RateLimitMiddleware(1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/items", nil)
	req.RemoteAddr = "192.0.2.1:1234"

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, req)
	assert.Equal(t, http.StatusOK, first.Code)

	// Second request inside the same second must be throttled.
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, req)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
