// Package tasks provides the task model, the observable task collection, and
// the search/filter composition used by the task list surface.
package tasks

import "time"

// Status is the lifecycle state of a task.
type Status string

const (
	// StatusPending marks a task that is not done yet.
	StatusPending Status = "PENDING"
	// StatusCompleted marks a finished task.
	StatusCompleted Status = "COMPLETED"
)

// Task represents a task as exchanged with the backend. ID is absent (0) only
// for a client-constructed draft prior to server acknowledgment.
type Task struct {
	ID          int       `json:"id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// EntityID returns the server-assigned id, or 0 for a draft.
func (t Task) EntityID() int {
	return t.ID
}

// Toggled returns a copy with the status flipped between PENDING and
// COMPLETED; everything else is unchanged.
func (t Task) Toggled() Task {
	if t.Status == StatusPending {
		t.Status = StatusCompleted
	} else {
		t.Status = StatusPending
	}
	return t
}

// NewDraft builds an unacknowledged pending task stamped with the current
// time.
func NewDraft(title, description string) Task {
	return Task{
		Title:       title,
		Description: description,
		Status:      StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
}
