// ABOUTME: Tests for the HTTP Basic Auth credential gate and jwt cookie
// ABOUTME: Covers 401 behavior, cookie attributes and token replacement

package auth

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testUsername = "admin"
	testPassword = "hunter2"
	testUIPath   = "/browser/dist/admin/"
)

type recordingAuditor struct {
	entries []string
}

func (a *recordingAuditor) Append(actor, action, detail string) {
	a.entries = append(a.entries, action)
}

func newTestGate(t *testing.T, audit Auditor) (*Gate, *TokenStore) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	tokens := NewTokenStore([]byte("gate-test-secret"), time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewGate(testUsername, string(hash), testUIPath, tokens, audit, logger), tokens
}

func protectedOK() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestGate_NoCredentials(t *testing.T) {
	gate, _ := newTestGate(t, nil)
	handler := gate.Protect(protectedOK())

	req := httptest.NewRequest(http.MethodGet, testUIPath, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")
	assert.Empty(t, rec.Result().Cookies())
}

func TestGate_WrongPassword(t *testing.T) {
	gate, tokens := newTestGate(t, nil)
	handler := gate.Protect(protectedOK())

	req := httptest.NewRequest(http.MethodGet, testUIPath, nil)
	req.SetBasicAuth(testUsername, "wrong")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	// Failure must not install any token.
	assert.False(t, tokens.Validate(""))
}

func TestGate_WrongUsername(t *testing.T) {
	gate, _ := newTestGate(t, nil)
	handler := gate.Protect(protectedOK())

	req := httptest.NewRequest(http.MethodGet, testUIPath, nil)
	req.SetBasicAuth("root", testPassword)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGate_SuccessSetsCookie(t *testing.T) {
	gate, tokens := newTestGate(t, nil)
	handler := gate.Protect(protectedOK())

	req := httptest.NewRequest(http.MethodGet, testUIPath, nil)
	req.SetBasicAuth(testUsername, testPassword)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	cookie := cookies[0]
	assert.Equal(t, CookieName, cookie.Name)
	assert.Equal(t, testUIPath, cookie.Path)
	assert.True(t, cookie.Secure, "cookie must be Secure")
	assert.True(t, cookie.HttpOnly, "cookie must be HttpOnly")
	assert.NotEmpty(t, cookie.Value)

	assert.True(t, tokens.Validate(cookie.Value), "cookie token must validate")
}

func TestGate_NewLoginInvalidatesOldToken(t *testing.T) {
	gate, tokens := newTestGate(t, nil)
	handler := gate.Protect(protectedOK())

	login := func() string {
		req := httptest.NewRequest(http.MethodGet, testUIPath, nil)
		req.SetBasicAuth(testUsername, testPassword)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		return cookies[0].Value
	}

	first := login()
	second := login()

	assert.False(t, tokens.Validate(first), "replaced token must stop validating")
	assert.True(t, tokens.Validate(second))
}

func TestGate_AuditTrail(t *testing.T) {
	audit := &recordingAuditor{}
	gate, _ := newTestGate(t, audit)
	handler := gate.Protect(protectedOK())

	bad := httptest.NewRequest(http.MethodGet, testUIPath, nil)
	bad.SetBasicAuth(testUsername, "wrong")
	handler.ServeHTTP(httptest.NewRecorder(), bad)

	good := httptest.NewRequest(http.MethodGet, testUIPath, nil)
	good.SetBasicAuth(testUsername, testPassword)
	handler.ServeHTTP(httptest.NewRecorder(), good)

	assert.Equal(t, []string{"login_failed", "login_ok", "token_issued"}, audit.entries)
}
