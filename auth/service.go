// Session management: login, signup, logout, forced logout on expiry, and the
// observable current-user value the rest of the client subscribes to.
package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/user/taskboard-go/apperror"
	"github.com/user/taskboard-go/httpapi"
	"github.com/user/taskboard-go/observable"
	"github.com/user/taskboard-go/storage"
)

// Backend endpoints owned by this service.
const (
	signinPath  = "/auth/signin"
	signupPath  = "/auth/signup"
	profilePath = "/user/profile"
)

// Navigator is how the session layer sends the surface back to the login
// screen after a logout. The CLI front end prints a prompt; a richer front end
// would switch views.
type Navigator interface {
	NavigateToLogin()
}

// Service is the authentication state manager. It owns the persisted token and
// cached user, publishes session changes to subscribers, and is the single
// place the process-wide forced-logout path runs through. Construct exactly
// one per process and inject it where needed.
type Service struct {
	store    *storage.Store
	client   *httpapi.Client
	nav      Navigator
	validate *validator.Validate
	current  *observable.Value[*User]
	logger   *zap.Logger
}

// NewService creates the session manager and hydrates it from persisted state.
// A stored user record that fails to parse is recovered locally by clearing
// storage; it is never surfaced to the caller.
func NewService(store *storage.Store, client *httpapi.Client, nav Navigator, logger *zap.Logger) *Service {
	s := &Service{
		store:    store,
		client:   client,
		nav:      nav,
		validate: validator.New(),
		current:  observable.NewValue[*User](nil),
		logger:   logger,
	}
	s.loadUserFromStorage()
	return s
}

func (s *Service) loadUserFromStorage() {
	raw, ok, err := s.store.Get(storage.KeyCurrentUser)
	if err != nil {
		s.logger.Warn("failed to read persisted user", zap.Error(err))
		return
	}
	if !ok {
		return
	}
	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		s.logger.Warn("persisted user is malformed, clearing session state", zap.Error(err))
		s.clearStorage()
		return
	}
	s.current.Set(&user)
}

// Login authenticates against the backend. On success the token (and user, if
// the response includes one) is persisted and the new session is published.
// A rejected login returns InvalidCredentials and leaves prior session state
// untouched.
func (s *Service) Login(ctx context.Context, email, password string) error {
	var resp AuthResponse
	err := s.client.PostPublic(ctx, signinPath, Credentials{Email: email, Password: password}, &resp)
	if err != nil {
		if status := apperror.StatusOf(err); status >= 400 && status < 500 {
			return apperror.NewInvalidCredentialsError("invalid credentials", err)
		}
		return err
	}
	if resp.Token == "" {
		return apperror.NewInvalidCredentialsError("signin response carried no token", nil)
	}

	if err := s.store.SetToken(resp.Token); err != nil {
		return err
	}
	if resp.User != nil {
		user := resp.User.Sanitized()
		if err := s.persistUser(&user); err != nil {
			return err
		}
		s.current.Set(&user)
	}
	s.logger.Info("logged in", zap.String("email", email))
	return nil
}

// Signup registers a new account. It does not authenticate; the caller logs in
// separately. A conflict on the email maps to DuplicateEmail, any other
// rejection to ValidationError.
func (s *Service) Signup(ctx context.Context, draft SignupRequest) error {
	if draft.Role == "" {
		draft.Role = RoleUser
	}
	if err := s.validate.Struct(draft); err != nil {
		return apperror.NewValidationError(fmt.Sprintf("invalid signup draft: %v", err), err)
	}

	if err := s.client.PostPublic(ctx, signupPath, draft, nil); err != nil {
		status := apperror.StatusOf(err)
		switch {
		case status == 409:
			return apperror.NewDuplicateEmailError("email already registered", err)
		case status >= 400 && status < 500:
			return apperror.NewValidationError("signup rejected", err)
		}
		return err
	}
	s.logger.Info("signed up", zap.String("email", draft.Email))
	return nil
}

// Logout synchronously clears the persisted session, publishes the null
// session, and sends the surface back to the login screen. No network call is
// involved.
func (s *Service) Logout() {
	s.clearSession()
	s.logger.Info("logged out")
	s.nav.NavigateToLogin()
}

// ForceLogout is the process-wide reaction to an expired session: any 401
// observed anywhere routes through here via the HTTP layer's hook.
func (s *Service) ForceLogout() {
	s.clearSession()
	s.logger.Warn("session expired, forcing logout")
	s.nav.NavigateToLogin()
}

func (s *Service) clearSession() {
	s.clearStorage()
	s.current.Set(nil)
}

func (s *Service) clearStorage() {
	if err := s.store.Delete(storage.KeyAuthToken); err != nil {
		s.logger.Warn("failed to clear persisted token", zap.Error(err))
	}
	if err := s.store.Delete(storage.KeyCurrentUser); err != nil {
		s.logger.Warn("failed to clear persisted user", zap.Error(err))
	}
}

func (s *Service) persistUser(user *User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return apperror.NewInternalError("failed to encode user for storage", err)
	}
	return s.store.Set(storage.KeyCurrentUser, string(data))
}

// IsAuthenticated reports whether a non-empty token is currently persisted.
func (s *Service) IsAuthenticated() bool {
	return s.store.Token() != ""
}

// CurrentUser returns the session's user, or nil when only a token (or
// nothing) is known.
func (s *Service) CurrentUser() *User {
	return s.current.Get()
}

// Subscribe registers for session updates. The channel is primed with the
// current user and receives every subsequent publish; nil means logged out.
func (s *Service) Subscribe() (string, <-chan *User) {
	return s.current.Subscribe(4)
}

// Unsubscribe releases a session subscription.
func (s *Service) Unsubscribe(id string) {
	s.current.Unsubscribe(id)
}

// FetchProfile fetches the current user from the backend and republishes it
// into session state. Used to hydrate user details when only a token is
// available.
func (s *Service) FetchProfile(ctx context.Context) (*User, error) {
	if !s.IsAuthenticated() {
		return nil, apperror.NewUnauthenticatedError("no token available", nil)
	}
	var user User
	if err := s.client.Get(ctx, profilePath, &user); err != nil {
		return nil, err
	}
	sanitized := user.Sanitized()
	if err := s.persistUser(&sanitized); err != nil {
		return nil, err
	}
	s.current.Set(&sanitized)
	return &sanitized, nil
}
