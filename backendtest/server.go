// Package backendtest provides an in-memory implementation of the backend
// REST contract the client consumes. Tests stand it up behind httptest to
// exercise full flows (signup, signin, task and user CRUD, expiry) against
// real HTTP instead of canned responses. It reproduces the contract as a
// browser client sees it: bearer-token auth on protected routes, JSON error
// bodies with a "message" field, and permissive CORS.
package backendtest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/taskboard-go/auth"
	"github.com/user/taskboard-go/tasks"
)

const tokenLifetime = time.Hour

// Server holds the in-memory state behind the fake backend.
type Server struct {
	secret []byte

	mu         sync.Mutex
	users      []auth.User
	passwords  map[int][]byte // user id -> bcrypt hash
	tasks      []tasks.Task
	nextUserID int
	nextTaskID int
}

// New creates an empty fake backend signing tokens with the given secret.
func New(secret string) *Server {
	return &Server{
		secret:    []byte(secret),
		passwords: make(map[int][]byte),
	}
}

// claims is the JWT payload the fake backend issues and verifies.
type claims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

// SeedUser registers an account directly, bypassing the signup endpoint.
func (s *Server) SeedUser(name, email, password string, role auth.Role) auth.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUserID++
	user := auth.User{ID: s.nextUserID, Name: name, Email: strings.ToLower(email), Role: role}
	s.users = append(s.users, user)
	s.passwords[user.ID] = hash
	return user
}

// SeedTask inserts a task directly.
func (s *Server) SeedTask(title, description string, status tasks.Status) tasks.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTaskID++
	task := tasks.Task{
		ID:          s.nextTaskID,
		Title:       title,
		Description: description,
		Status:      status,
		CreatedAt:   time.Now().UTC(),
	}
	s.tasks = append(s.tasks, task)
	return task
}

// IssueToken signs a token for the given user id, expiring after d.
// A negative d produces an already-expired token.
func (s *Server) IssueToken(userID int, d time.Duration) string {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   strconv.Itoa(userID),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return signed
}

// Handler returns the routed HTTP handler for the fake backend.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/signin", s.handleSignin)
	r.Post("/auth/signup", s.handleSignup)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/user/profile", s.handleProfile)

		r.Get("/task/all", s.handleTaskList)
		r.Post("/task/save", s.handleTaskSave)
		r.Put("/task/update/{id}", s.handleTaskUpdate)
		r.Delete("/task/delete/{id}", s.handleTaskDelete)

		r.Get("/users/all", s.handleUserList)
		r.Put("/users/update/{id}", s.handleUserUpdate)
		r.Delete("/users/delete/{id}", s.handleUserDelete)
	})

	return r
}

type contextKey string

const userIDKey contextKey = "userID"

// requireAuth verifies the bearer token and stashes the user id in the
// request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		parts := strings.Split(header, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			writeMessage(w, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		parsed := &claims{}
		token, err := jwt.ParseWithClaims(parts[1], parsed, func(token *jwt.Token) (interface{}, error) {
			return s.secret, nil
		})
		if err != nil || !token.Valid || parsed.UserID == 0 {
			writeMessage(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := contextWithUserID(r.Context(), parsed.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleSignin(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email != strings.ToLower(creds.Email) {
			continue
		}
		if bcrypt.CompareHashAndPassword(s.passwords[user.ID], []byte(creds.Password)) != nil {
			break
		}
		token := s.IssueToken(user.ID, tokenLifetime)
		writeJSON(w, http.StatusOK, auth.AuthResponse{Token: token, User: &user})
		return
	}
	writeMessage(w, http.StatusUnauthorized, "invalid credentials")
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var draft auth.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if draft.Name == "" || draft.Email == "" || draft.Password == "" {
		writeMessage(w, http.StatusBadRequest, "name, email, and password are required")
		return
	}

	email := strings.ToLower(draft.Email)
	s.mu.Lock()
	for _, user := range s.users {
		if user.Email == email {
			s.mu.Unlock()
			writeMessage(w, http.StatusConflict, "email already exists")
			return
		}
	}
	s.mu.Unlock()

	role := draft.Role
	if role == "" {
		role = auth.RoleUser
	}
	s.SeedUser(draft.Name, email, draft.Password, role)
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.ID == userID {
			writeJSON(w, http.StatusOK, user)
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "user not found")
}

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]tasks.Task, len(s.tasks))
	copy(list, s.tasks)
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleTaskSave(w http.ResponseWriter, r *http.Request) {
	var draft tasks.Task
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTaskID++
	draft.ID = s.nextTaskID
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = time.Now().UTC()
	}
	s.tasks = append(s.tasks, draft)
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleTaskUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid task id")
		return
	}
	var updated tasks.Task
	if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated.ID = id

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i] = updated
			writeJSON(w, http.StatusOK, updated)
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "task not found")
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid task id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := make([]tasks.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		if task.ID != id {
			kept = append(kept, task)
		}
	}
	s.tasks = kept
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleUserList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]auth.User, len(s.users))
	copy(list, s.users)
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleUserUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var updated auth.User
	if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated.ID = id

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			if updated.Password != "" {
				hash, err := bcrypt.GenerateFromPassword([]byte(updated.Password), bcrypt.MinCost)
				if err != nil {
					writeMessage(w, http.StatusInternalServerError, "failed to hash password")
					return
				}
				s.passwords[id] = hash
			}
			sanitized := updated.Sanitized()
			s.users[i] = sanitized
			writeJSON(w, http.StatusOK, sanitized)
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "user not found")
}

func (s *Server) handleUserDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid user id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := make([]auth.User, 0, len(s.users))
	for _, user := range s.users {
		if user.ID != id {
			kept = append(kept, user)
		}
	}
	s.users = kept
	delete(s.passwords, id)
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
