// Package auth owns the client's session state: who is logged in, the token
// that proves it, and the operations that change either. This file defines the
// user model shared across the session layer and the users collection.
package auth

// Role is the authorization role assigned to a user account.
type Role string

const (
	// RoleUser is a regular account.
	RoleUser Role = "USER"
	// RoleAdmin is an administrative account.
	RoleAdmin Role = "ADMIN"
)

// User represents a user account as exchanged with the backend.
// Password is write-only: it is set on signup and update requests and never
// kept in client state or round-tripped into the UI.
type User struct {
	ID       int    `json:"id,omitempty"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Role     Role   `json:"role"`
}

// EntityID returns the server-assigned id, or 0 for a draft.
func (u User) EntityID() int {
	return u.ID
}

// Sanitized returns a copy with the write-only password cleared.
func (u User) Sanitized() User {
	u.Password = ""
	return u
}
