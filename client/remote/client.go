// Package remote talks to the task tracker HTTP API. Every call decodes the
// response envelope and turns non-2xx answers and network failures into
// *Error.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/domain/user"
	"github.com/gofiber/fiber/v2"
)

// DefaultTimeout bounds a single request when the context has no deadline.
const DefaultTimeout = 10 * time.Second

// Envelope is the body of every API response.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Error is a failed call. Status is 0 when no response arrived.
type Error struct {
	Status int
	Server string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Server != "":
		return e.Server
	case e.Err != nil:
		return e.Err.Error()
	default:
		return fmt.Sprintf("request failed with status code %d", e.Status)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var rerr *Error
	return errors.As(err, &rerr) && rerr.Status == fiber.StatusUnauthorized
}

// TokenSource returns the bearer token to send, or "" for none.
type TokenSource func() string

// LoginResult is the data of a successful login.
type LoginResult struct {
	Token string        `json:"token"`
	User  *user.Profile `json:"user"`
}

// Credentials is the body of register and login calls.
type Credentials struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
}

// Client calls the API at a base URL.
type Client struct {
	baseURL string
	timeout time.Duration
	token   TokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTokenSource sets where the bearer token comes from.
func WithTokenSource(src TokenSource) Option {
	return func(c *Client) {
		c.token = src
	}
}

// New creates a Client for baseURL, e.g. http://localhost:3000.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
		token:   func() string { return "" },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, creds Credentials) (*user.Profile, error) {
	var env Envelope[*user.Profile]
	if err := c.do(ctx, fiber.MethodPost, "/api/auth/register", creds, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var env Envelope[LoginResult]
	creds := Credentials{Username: username, Password: password}
	if err := c.do(ctx, fiber.MethodPost, "/api/auth/login", creds, &env); err != nil {
		return LoginResult{}, err
	}
	return env.Data, nil
}

// Me returns the profile behind the current token.
func (c *Client) Me(ctx context.Context) (*user.Profile, error) {
	var env Envelope[*user.Profile]
	if err := c.do(ctx, fiber.MethodGet, "/api/auth/me", nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// ListTasks returns the caller's tasks in server order.
func (c *Client) ListTasks(ctx context.Context) ([]task.Task, error) {
	var env Envelope[[]task.Task]
	if err := c.do(ctx, fiber.MethodGet, "/api/tasks", nil, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return []task.Task{}, nil
	}
	return env.Data, nil
}

// CreateTask submits a draft and returns the stored task.
func (c *Client) CreateTask(ctx context.Context, draft task.Draft) (task.Task, error) {
	var env Envelope[task.Task]
	if err := c.do(ctx, fiber.MethodPost, "/api/tasks", draft, &env); err != nil {
		return task.Task{}, err
	}
	return env.Data, nil
}

// UpdateTask applies patch to task id and returns the stored task.
func (c *Client) UpdateTask(ctx context.Context, id string, patch task.Patch) (task.Task, error) {
	var env Envelope[task.Task]
	if err := c.do(ctx, fiber.MethodPut, "/api/tasks/"+id, patch, &env); err != nil {
		return task.Task{}, err
	}
	return env.Data, nil
}

// DeleteTask removes task id.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	var env Envelope[struct {
		ID string `json:"id"`
	}]
	return c.do(ctx, fiber.MethodDelete, "/api/tasks/"+id, nil, &env)
}

// do sends one request and decodes the envelope into out.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	if err := ctx.Err(); err != nil {
		return &Error{Err: err}
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	agent.Timeout(timeout)
	if token := c.token(); token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	if body != nil {
		agent.JSON(body)
	}
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return &Error{Err: fmt.Errorf("failed to build request: %w", err)}
	}

	status, raw, errs := agent.Bytes()
	if len(errs) > 0 {
		return &Error{Err: errors.Join(errs...)}
	}

	var env Envelope[json.RawMessage]
	decodeErr := json.Unmarshal(raw, &env)

	if status < 200 || status >= 300 {
		rerr := &Error{Status: status}
		if decodeErr == nil {
			rerr.Server = env.Error
			if rerr.Server == "" {
				rerr.Server = env.Message
			}
		}
		return rerr
	}
	if decodeErr != nil {
		return &Error{Status: status, Err: fmt.Errorf("failed to decode response: %w", decodeErr)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Status: status, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
