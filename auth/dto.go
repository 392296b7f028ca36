// Request and response payloads for the authentication endpoints.
package auth

// Credentials is the signin request payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest is the new-account request payload. Validation tags are
// enforced locally before the request is sent.
type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     Role   `json:"role" validate:"required,oneof=USER ADMIN"`
}

// AuthResponse is the signin response payload. User is optional: some
// deployments return only the token and the profile is fetched separately.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}
