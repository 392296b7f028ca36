package tasks

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/user/taskboard-go/httpapi"
	"github.com/user/taskboard-go/store"
)

// Store is the observable task collection over the /task endpoints.
type Store struct {
	*store.Store[Task]
}

// NewStore creates the task store.
func NewStore(client *httpapi.Client, logger *zap.Logger) *Store {
	paths := store.Paths{
		List:   "/task/all",
		Create: "/task/save",
		Update: func(id int) string { return "/task/update/" + strconv.Itoa(id) },
		Delete: func(id int) string { return "/task/delete/" + strconv.Itoa(id) },
	}
	return &Store{Store: store.New[Task]("tasks", client, paths, logger)}
}

// ToggleStatus flips the task's status between PENDING and COMPLETED and
// delegates to Update with the rest of the task unchanged.
func (s *Store) ToggleStatus(ctx context.Context, task Task) (Task, error) {
	return s.Update(ctx, task.Toggled())
}
