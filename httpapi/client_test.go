package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/user/taskboard-go/apperror"
	"github.com/user/taskboard-go/config"
)

type staticTokens string

func (s staticTokens) Token() string { return string(s) }

func newClient(t *testing.T, url string, token string) *Client {
	t.Helper()
	cfg := &config.APIConfig{BaseURL: url, Timeout: 5 * time.Second}
	return New(cfg, staticTokens(token), zaptest.NewLogger(t))
}

func TestRequestHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, "tok-123")
	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, c.Post(context.Background(), "/task/save", map[string]string{"title": "x"}, &out))

	assert.True(t, out.OK)
	assert.Equal(t, "Bearer tok-123", got.Get("Authorization"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.NotEmpty(t, got.Get("X-Request-Id"))
}

func TestNoAuthorizationHeaderWithoutToken(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, "")
	require.NoError(t, c.Get(context.Background(), "/auth/ping", nil))
	assert.Empty(t, got.Get("Authorization"))
	assert.False(t, c.HasToken())
}

func TestUnauthorizedTriggersHookAndSessionExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "token expired"})
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, "stale")
	hookCalls := 0
	c.OnUnauthorized(func() { hookCalls++ })

	err := c.Get(context.Background(), "/task/all", nil)
	require.Error(t, err)
	assert.True(t, apperror.IsSessionExpired(err))
	assert.Equal(t, "token expired", err.(*apperror.AppError).Message)
	assert.Equal(t, 1, hookCalls)
}

func TestNonAuthFailureHasNoSideEffects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"email already exists"}`))
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, "tok")
	hookCalls := 0
	c.OnUnauthorized(func() { hookCalls++ })

	err := c.Post(context.Background(), "/auth/signup", map[string]string{}, nil)
	require.Error(t, err)
	assert.Equal(t, 0, hookCalls)
	assert.Equal(t, http.StatusConflict, apperror.StatusOf(err))
	assert.Equal(t, "email already exists", err.(*apperror.AppError).Message)
}

func TestPublicRequestSkipsAuthAndHook(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"invalid credentials"}`))
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, "existing-session-token")
	hookCalls := 0
	c.OnUnauthorized(func() { hookCalls++ })

	err := c.PostPublic(context.Background(), "/auth/signin", map[string]string{"email": "a@b.c"}, nil)
	require.Error(t, err)

	assert.Empty(t, got.Get("Authorization"), "public endpoints carry no bearer token")
	assert.Equal(t, 0, hookCalls, "credential rejection must not tear down the existing session")
	assert.False(t, apperror.IsSessionExpired(err))
	assert.Equal(t, http.StatusUnauthorized, apperror.StatusOf(err))
}

func TestFailureWithoutBodyFallsBackToStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, "tok")
	err := c.Get(context.Background(), "/task/all", nil)
	require.Error(t, err)
	assert.True(t, apperror.IsNetworkError(err))
	assert.Contains(t, err.(*apperror.AppError).Message, "Internal Server Error")
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // closed before use

	c := newClient(t, srv.URL, "tok")
	err := c.Get(context.Background(), "/task/all", nil)
	require.Error(t, err)
	assert.True(t, apperror.IsNetworkError(err))
}

func TestEmptySuccessBodyLeavesOutUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, "tok")
	out := map[string]string{"keep": "me"}
	require.NoError(t, c.Get(context.Background(), "/task/all", &out))
	assert.Equal(t, "me", out["keep"])
}
