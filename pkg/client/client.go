// Package client is a typed HTTP client for the campusdesk API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	DefaultBasePath = "/api/v1"
	DefaultTimeout  = 10 * time.Second
)

// APIError is returned for a response with success=false or a non-2xx status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.StatusCode)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not an APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Client calls the campusdesk API with a bearer token held in memory.
type Client struct {
	baseURL    string
	basePath   string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithBasePath overrides the API prefix.
func WithBasePath(path string) Option {
	return func(c *Client) {
		c.basePath = "/" + strings.Trim(path, "/")
	}
}

// WithToken starts the client with an existing token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// New creates a Client for baseURL, e.g. "http://127.0.0.1:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		basePath:   DefaultBasePath,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the current session token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the session token; an empty token sends anonymous requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/create", req, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Login authenticates and keeps the returned token for later calls.
func (c *Client) Login(ctx context.Context, sid, password string) (*LoginResult, error) {
	var out LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{SID: sid, Password: password}, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// Logout revokes the session and drops the token.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// ChangePassword replaces the password of sid, which must be the caller. The token is dropped.
func (c *Client) ChangePassword(ctx context.Context, sid, oldPassword, newPassword string) error {
	req := changePasswordRequest{SID: sid, OldPassword: oldPassword, Password: newPassword}
	if err := c.do(ctx, http.MethodPost, "/auth/changePassword", req, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// Check returns the caller's profile with their problem ids.
func (c *Client) Check(ctx context.Context) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/check", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// CreateProblem submits a grievance as a student.
func (c *Client) CreateProblem(ctx context.Context, req CreateProblemRequest) (*Problem, error) {
	return c.problem(ctx, http.MethodPost, "/student/createProblem", req)
}

// MyProblems lists the student's own problems.
func (c *Client) MyProblems(ctx context.Context) ([]Problem, error) {
	return c.problems(ctx, "/student/allProblem")
}

// MyProblem fetches one of the student's problems.
func (c *Client) MyProblem(ctx context.Context, id string) (*Problem, error) {
	return c.problem(ctx, http.MethodGet, "/student/getProblemById/"+url.PathEscape(id), nil)
}

// AllProblems lists every problem as a professor.
func (c *Client) AllProblems(ctx context.Context) ([]Problem, error) {
	return c.problems(ctx, "/professor/getAllProblems")
}

// Problem fetches any problem as a professor.
func (c *Client) Problem(ctx context.Context, id string) (*Problem, error) {
	return c.problem(ctx, http.MethodGet, "/professor/getProblemById/"+url.PathEscape(id), nil)
}

// Respond records a response on a problem as a professor.
func (c *Client) Respond(ctx context.Context, id string, req RespondRequest) (*Problem, error) {
	return c.problem(ctx, http.MethodPost, "/professor/respondToProblemById/"+url.PathEscape(id), req)
}

func (c *Client) problem(ctx context.Context, method, path string, body interface{}) (*Problem, error) {
	var out struct {
		Problem Problem `json:"problem"`
	}
	if err := c.do(ctx, method, path, body, &out); err != nil {
		return nil, err
	}
	return &out.Problem, nil
}

func (c *Client) problems(ctx context.Context, path string) ([]Problem, error) {
	var out struct {
		Problems []Problem `json:"problems"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out.Problems == nil {
		out.Problems = []Problem{}
	}
	return out.Problems, nil
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request failed: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+c.basePath+path, reader)
	if err != nil {
		return fmt.Errorf("build request failed: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body failed: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("decode response failed: %w", err)
	}
	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response failed: %w", err)
		}
	}
	return nil
}
