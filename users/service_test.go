package users

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

	"github.com/user/taskboard-go/auth"
	"github.com/user/taskboard-go/config"
	"github.com/user/taskboard-go/httpapi"
)

type staticTokens string

func (s staticTokens) Token() string { return string(s) }

func newTestStore(t *testing.T, url string) *Store {
	t.Helper()
	logger := zaptest.NewLogger(t)
	client := httpapi.New(&config.APIConfig{BaseURL: url, Timeout: 5 * time.Second}, staticTokens("tok"), logger)
	return NewStore(client, logger)
}

func TestListUpdateRemove(t *testing.T) {
	users := []auth.User{
		{ID: 1, Name: "Admin", Email: "admin@example.com", Role: auth.RoleAdmin},
		{ID: 2, Name: "Jane", Email: "jane@example.com", Role: auth.RoleUser},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/users/all":
			json.NewEncoder(w).Encode(users)
		case r.Method == http.MethodPut && r.URL.Path == "/users/update/2":
			var body auth.User
			json.NewDecoder(r.Body).Decode(&body)
			json.NewEncoder(w).Encode(body.Sanitized())
		case r.Method == http.MethodDelete && r.URL.Path == "/users/delete/1":
			w.WriteHeader(http.StatusOK)
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	s := newTestStore(t, srv.URL)

	listed, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 2)

	updated, err := s.Update(context.Background(), auth.User{ID: 2, Name: "Jane D", Email: "jane@example.com", Password: "newpass", Role: auth.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, "Jane D", updated.Name)
	assert.Empty(t, updated.Password)
	assert.Equal(t, "Jane D", s.Snapshot()[1].Name)

	require.NoError(t, s.Remove(context.Background(), 1))
	snapshot := s.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, 2, snapshot[0].ID)
}
