// Package httpapi implements the HTTP request layer between the client and
// the task backend. It attaches the bearer token and JSON headers, normalizes
// every non-2xx response into an apperror, and routes 401 responses through
// the forced-logout hook before propagating them, so an expired session is
// torn down no matter which call site observed it.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/taskboard-go/apperror"
	"github.com/user/taskboard-go/config"
)

// maxErrorBody caps how much of an error response body is read when
// extracting a message.
const maxErrorBody = 64 * 1024

// TokenSource supplies the current bearer token, or "" when no session exists.
type TokenSource interface {
	Token() string
}

// Client issues requests against the backend REST API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *zap.Logger

	mu             sync.RWMutex
	onUnauthorized func()
}

// New creates a Client for the configured backend.
func New(cfg *config.APIConfig, tokens TokenSource, logger *zap.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		tokens:  tokens,
		logger:  logger,
	}
}

// OnUnauthorized registers the forced-logout hook invoked whenever any
// response comes back 401. The hook is set once at wiring time, after the
// session manager exists.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

// HasToken reports whether a non-empty bearer token is currently available.
func (c *Client) HasToken() bool {
	return c.tokens.Token() != ""
}

// Get issues a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST request with a JSON body and decodes the response into
// out when out is non-nil.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// PostPublic is Post for unprotected endpoints (signin, signup): no bearer
// token is attached and a 401 is a plain rejection rather than an expired
// session, so the forced-logout hook is not invoked and prior session state
// stays untouched.
func (c *Client) PostPublic(ctx context.Context, path string, body, out interface{}) error {
	return c.doOpts(ctx, http.MethodPost, path, body, out, true)
}

// Put issues a PUT request with a JSON body and decodes the response into out
// when out is non-nil.
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// Delete issues a DELETE request. The response body carries no meaningful
// payload on this API, so none is decoded.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// errorBody is the shape of error payloads the backend is known to produce.
// Some endpoints use "message", others "error".
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	return c.doOpts(ctx, method, path, body, out, false)
}

func (c *Client) doOpts(ctx context.Context, method, path string, body, out interface{}, public bool) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperror.NewInternalError("failed to encode request body", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperror.NewInternalError("failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.New().String())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !public {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return apperror.NewNetworkError(fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleFailure(method, path, resp, public)
	}

	if out == nil {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperror.NewNetworkError(fmt.Sprintf("failed to read %s %s response", method, path), err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperror.NewNetworkError(fmt.Sprintf("failed to decode %s %s response", method, path), err)
	}
	return nil
}

// handleFailure normalizes a non-2xx response. A 401 additionally triggers the
// forced-logout hook before the error is propagated; all other statuses have
// no side effects.
func (c *Client) handleFailure(method, path string, resp *http.Response, public bool) error {
	message := extractMessage(resp)
	if message == "" {
		message = resp.Status
	}

	if public {
		c.logger.Debug("request rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", message))
		if resp.StatusCode == http.StatusUnauthorized {
			// A 401 on a public endpoint is a credential rejection, not an
			// expired session.
			return &apperror.AppError{
				Type:    apperror.NetworkError,
				Message: message,
				Status:  resp.StatusCode,
			}
		}
		return apperror.FromStatus(resp.StatusCode, message)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Info("received 401, forcing logout",
			zap.String("method", method),
			zap.String("path", path))
		c.mu.RLock()
		hook := c.onUnauthorized
		c.mu.RUnlock()
		if hook != nil {
			hook()
		}
	} else {
		c.logger.Debug("request rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", message))
	}

	return apperror.FromStatus(resp.StatusCode, message)
}

// extractMessage pulls a human-readable message out of an error response body,
// or "" when the body has none.
func extractMessage(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var parsed errorBody
	if err := json.Unmarshal(data, &parsed); err != nil {
		return ""
	}
	if parsed.Message != "" {
		return parsed.Message
	}
	return parsed.Error
}
