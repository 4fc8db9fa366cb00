// Package api is the single outbound gateway to the backend REST API.
// It attaches credentials, speaks JSON, and normalizes every failure
// into the taxonomy in errors.go. It performs no retries: retry
// policy, if any, belongs to the caller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/valter-silva-au/taskdeck/pkg/models"
)

// TokenSource supplies the bearer token for outgoing calls and is
// cleared when the backend reports 401. Implemented by session.Store.
type TokenSource interface {
	Token() string
	Clear()
}

// Client is the API gateway. One method per remote operation.
type Client struct {
	baseURL string
	tokens  TokenSource
	http    *http.Client
}

// NewClient creates a gateway against baseURL. The timeout bounds
// every call; an expired deadline surfaces as ErrUnavailable.
func NewClient(baseURL string, tokens TokenSource, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		http:    &http.Client{Timeout: timeout},
	}
}

// errorBody is the shape backend error responses carry detail in.
type errorBody struct {
	Detail  string `json:"detail,omitempty"`
	Message string `json:"message,omitempty"`
}

// do issues one request and decodes a 2xx JSON body into out (when
// out is non-nil). Non-2xx responses become typed errors; a 401
// additionally clears the token source.
func (c *Client) do(ctx context.Context, op, method, path, rawQuery string, in, out any) error {
	u := c.baseURL + path
	if rawQuery != "" {
		u += "?" + rawQuery
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := ""
		var eb errorBody
		if data, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); readErr == nil {
			if json.Unmarshal(data, &eb) == nil {
				detail = eb.Detail
				if detail == "" {
					detail = eb.Message
				}
			}
		}
		if resp.StatusCode == http.StatusUnauthorized {
			c.tokens.Clear()
		}
		return newError(op, resp.StatusCode, detail)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}

// --- Tasks ---

// ListTasks fetches tasks matching the canonical query produced by the
// filter resolver. The query string is passed through verbatim so the
// cache key and the wire request stay byte-identical.
func (c *Client) ListTasks(ctx context.Context, rawQuery string) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.do(ctx, "listing tasks", http.MethodGet, "/tasks", rawQuery, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask fetches a single task by ID.
func (c *Client) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := c.do(ctx, "getting task", http.MethodGet, "/tasks/"+url.PathEscape(id), "", nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CreateTask creates a task and returns the server entity, including
// the server-assigned ID and timestamps.
func (c *Client) CreateTask(ctx context.Context, draft models.TaskDraft) (*models.Task, error) {
	var task models.Task
	if err := c.do(ctx, "creating task", http.MethodPost, "/tasks", "", draft, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask applies a partial update and returns the confirmed entity.
func (c *Client) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	var task models.Task
	if err := c.do(ctx, "updating task", http.MethodPut, "/tasks/"+url.PathEscape(id), "", patch, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask removes a task by ID.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, "deleting task", http.MethodDelete, "/tasks/"+url.PathEscape(id), "", nil, nil)
}

// --- Projects ---

// ListProjects fetches all projects for the current user.
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := c.do(ctx, "listing projects", http.MethodGet, "/projects", "", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject creates a project and returns the server entity.
func (c *Client) CreateProject(ctx context.Context, draft models.ProjectDraft) (*models.Project, error) {
	var project models.Project
	if err := c.do(ctx, "creating project", http.MethodPost, "/projects", "", draft, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateProject applies a partial update to a project.
func (c *Client) UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error) {
	var project models.Project
	if err := c.do(ctx, "updating project", http.MethodPut, "/projects/"+url.PathEscape(id), "", patch, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// DeleteProject removes a project. Tasks referencing it keep their
// projectId; the backend does not cascade.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, "deleting project", http.MethodDelete, "/projects/"+url.PathEscape(id), "", nil, nil)
}

// --- Auth ---

// Credentials is the sign-in/sign-up response shape.
type Credentials struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type,omitempty"`
	User        *models.User `json:"user,omitempty"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// SignIn exchanges credentials for a bearer token.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Credentials, error) {
	var creds Credentials
	if err := c.do(ctx, "signing in", http.MethodPost, "/auth/sign-in", "", signInRequest{Email: email, Password: password}, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// SignUp registers a new account and returns its first token.
func (c *Client) SignUp(ctx context.Context, email, password, name string) (*Credentials, error) {
	var creds Credentials
	if err := c.do(ctx, "signing up", http.MethodPost, "/auth/sign-up", "", signUpRequest{Email: email, Password: password, Name: name}, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// SignOut invalidates the token server-side. Callers treat this as
// best effort; the local session is cleared regardless of the result.
func (c *Client) SignOut(ctx context.Context) error {
	return c.do(ctx, "signing out", http.MethodPost, "/auth/sign-out", "", nil, nil)
}

// --- Chat ---

// ChatReply is the assistant's answer to one chat message. The server
// owns conversation continuity: it finds or creates the user's
// conversation and returns its ID with every reply.
type ChatReply struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
}

type chatRequest struct {
	Message string `json:"message"`
}

// Chat sends one message to the task assistant and returns its reply.
func (c *Client) Chat(ctx context.Context, message string) (*ChatReply, error) {
	var reply ChatReply
	if err := c.do(ctx, "sending chat message", http.MethodPost, "/chat", "", chatRequest{Message: message}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// VerifyToken validates the current token and returns the identity it
// belongs to. Satisfies session.Verifier.
func (c *Client) VerifyToken(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, "verifying token", http.MethodGet, "/auth/verify-token", "", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
