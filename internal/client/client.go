// Package client is a typed HTTP client for the todos API.
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
	"time"

	"github.com/Tomlord1122/todos-api/internal/api"
)

// Error is a failure reported by the server in an error envelope.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("todos api: %d %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client talks to one todos API base URL, e.g. http://localhost:8080/api/v1.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New returns a Client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetTodos lists every todo, newest first.
func (c *Client) GetTodos(ctx context.Context) ([]api.Todo, error) {
	var todos []api.Todo
	if err := c.do(ctx, http.MethodGet, "/todos", nil, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// GetTodo fetches one todo.
func (c *Client) GetTodo(ctx context.Context, id string) (*api.Todo, error) {
	var todo api.Todo
	if err := c.do(ctx, http.MethodGet, todoPath(id), nil, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// CreateTodo creates a todo with the given title.
func (c *Client) CreateTodo(ctx context.Context, title string) (*api.Todo, error) {
	var todo api.Todo
	if err := c.do(ctx, http.MethodPost, "/todos", api.CreateTodoRequest{Title: title}, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// PatchTodo sends a partial update. Nil fields are left out of the body.
func (c *Client) PatchTodo(ctx context.Context, id string, req api.UpdateTodoRequest) (*api.Todo, error) {
	var todo api.Todo
	if err := c.do(ctx, http.MethodPatch, todoPath(id), req, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// DeleteTodo removes a todo.
func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, todoPath(id), nil, nil)
}

func todoPath(id string) string {
	return "/todos/" + url.PathEscape(id)
}

// do sends body as JSON and decodes the success envelope's data into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, raw)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	env := api.SuccessResponse[json.RawMessage]{}
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// decodeError prefers the server's envelope and falls back to the status text
// for proxies and other non-API responses.
func decodeError(status int, raw []byte) error {
	var env api.ErrorResponse
	if err := json.Unmarshal(raw, &env); err == nil && env.Error.Message != "" {
		return &Error{Status: status, Message: env.Error.Message}
	}
	return &Error{Status: status, Message: http.StatusText(status)}
}
