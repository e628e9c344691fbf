package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyToken(t *testing.T) {
	auth := NewAuth("test-secret")
	token, err := auth.SignToken("user-1", "jordan@example.com", time.Hour)
	require.NoError(t, err)

	var gotUID string
	handler := auth.WithAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUID, _ = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "user-1", gotUID)
}

func TestWithAuthIgnoresInvalidToken(t *testing.T) {
	auth := NewAuth("test-secret")
	forged, err := NewAuth("other-secret").SignToken("user-1", "jordan@example.com", time.Hour)
	require.NoError(t, err)

	called := false
	handler := auth.WithAuth(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.False(t, called, "forged token must not authenticate")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthWithoutToken(t *testing.T) {
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExpiredToken(t *testing.T) {
	auth := NewAuth("test-secret")
	token, err := auth.SignToken("user-1", "jordan@example.com", -time.Minute)
	require.NoError(t, err)

	handler := auth.WithAuth(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("expired token must not authenticate")
	})))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
