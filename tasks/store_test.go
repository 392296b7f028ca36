package tasks

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

	"github.com/user/taskboard-go/config"
	"github.com/user/taskboard-go/httpapi"
)

type staticTokens string

func (s staticTokens) Token() string { return string(s) }

func TestToggled(t *testing.T) {
	task := Task{ID: 1, Title: "a", Status: StatusPending}

	flipped := task.Toggled()
	assert.Equal(t, StatusCompleted, flipped.Status)
	assert.Equal(t, task.Title, flipped.Title)

	// Toggling twice restores the original status.
	assert.Equal(t, task.Status, flipped.Toggled().Status)
}

func TestNewDraft(t *testing.T) {
	draft := NewDraft("title", "desc")
	assert.Zero(t, draft.ID)
	assert.Equal(t, StatusPending, draft.Status)
	assert.WithinDuration(t, time.Now(), draft.CreatedAt, time.Minute)
}

func TestToggleStatusRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			json.NewEncoder(w).Encode([]Task{{ID: 5, Title: "a", Status: StatusPending}})
		case r.Method == http.MethodPut:
			require.Equal(t, "/task/update/5", r.URL.Path)
			var body Task
			json.NewDecoder(r.Body).Decode(&body)
			json.NewEncoder(w).Encode(body)
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	logger := zaptest.NewLogger(t)
	client := httpapi.New(&config.APIConfig{BaseURL: srv.URL, Timeout: 5 * time.Second}, staticTokens("tok"), logger)
	s := NewStore(client, logger)

	_, err := s.List(context.Background())
	require.NoError(t, err)

	toggled, err := s.ToggleStatus(context.Background(), s.Snapshot()[0])
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, toggled.Status)
	assert.Equal(t, StatusCompleted, s.Snapshot()[0].Status, "cache patched from the response")

	again, err := s.ToggleStatus(context.Background(), toggled)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, again.Status)
	assert.Equal(t, StatusPending, s.Snapshot()[0].Status)
}
