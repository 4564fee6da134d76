package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, expired bool) string {
	t.Helper()
	exp := time.Now().Add(time.Hour)
	if expired {
		exp = time.Now().Add(-time.Hour)
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()})
	signed, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestRequireJWTAcceptsValidToken(t *testing.T) {
	s := newTestServer(&fakeBackend{})
	s.JWTSecret = "supersecret"

	called := false
	handler := s.requireJWT(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/flush", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "supersecret", false))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
}

func TestRequireJWTRejectsExpiredToken(t *testing.T) {
	s := newTestServer(&fakeBackend{})
	s.JWTSecret = "supersecret"

	handler := s.requireJWT(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run for an expired token")
	}))

	req := httptest.NewRequest(http.MethodPost, "/flush", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "supersecret", true))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireJWTRejectsWrongSecret(t *testing.T) {
	s := newTestServer(&fakeBackend{})
	s.JWTSecret = "supersecret"

	handler := s.requireJWT(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run for a token signed with the wrong secret")
	}))

	req := httptest.NewRequest(http.MethodPost, "/flush", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "wrong-secret", false))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireJWTRejectsMissingHeader(t *testing.T) {
	s := newTestServer(&fakeBackend{})
	s.JWTSecret = "supersecret"

	handler := s.requireJWT(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run without an Authorization header")
	}))

	req := httptest.NewRequest(http.MethodPost, "/flush", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
