package internal

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
)

// ChatRequest is the body of the chat endpoints
type ChatRequest struct {
	Message     string `json:"message"`
	UserID      string `json:"user_id"`
	AutoExecute bool   `json:"auto_execute"`
	SessionID   string `json:"session_id,omitempty"`
}

// OneShotResponse is the reply of the non-streaming chat endpoint
type OneShotResponse struct {
	Type     string          `json:"type"` // "action_result" or "question"
	Message  string          `json:"message,omitempty"`
	Question string          `json:"question,omitempty"`
	Result   json.RawMessage `json:"result,omitempty"`
	Detail   string          `json:"detail,omitempty"`
}

// Text returns the message to show the user for this response
func (r *OneShotResponse) Text() string {
	switch r.Type {
	case "question":
		if r.Question != "" {
			return r.Question
		}
		return r.Message
	case "action_result":
		if r.Message != "" {
			return r.Message
		}
		if len(r.Result) > 0 {
			return string(r.Result)
		}
	}
	if r.Message != "" {
		return r.Message
	}
	return r.Detail
}

// Backend is the remote side the Controller talks to
type Backend interface {
	CreateSession(ctx context.Context, userID string) (string, error)
	ListSessions(ctx context.Context, userID string) ([]Session, error)
	LoadMessages(ctx context.Context, sessionID string) ([]Message, error)
	DeleteSession(ctx context.Context, sessionID string) error
	OpenStream(ctx context.Context, req ChatRequest) (io.ReadCloser, error)
	Chat(ctx context.Context, req ChatRequest) (*OneShotResponse, error)
}

// Client is the HTTP implementation of Backend
type Client struct {
	baseURL     string
	httpClient  *http.Client
	listTimeout time.Duration
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithListTimeout overrides the session list timeout
func WithListTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.listTimeout = d
		}
	}
}

// NewClient creates a client for the backend at baseURL. The default
// http.Client has no timeout since chat streams are unbounded.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{},
		listTimeout: DefaultListTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// CreateSession creates a session and returns its id
func (c *Client) CreateSession(ctx context.Context, userID string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/sessions", map[string]string{"user_id": userID}, &out); err != nil {
		return "", &PersistenceError{Op: "create", Err: err}
	}
	if out.ID == "" {
		return "", &PersistenceError{Op: "create", Err: fmt.Errorf("response has no session id")}
	}
	return out.ID, nil
}

// ListSessions lists a user's sessions, bounded by the list timeout
func (c *Client) ListSessions(ctx context.Context, userID string) ([]Session, error) {
	ctx, cancel := context.WithTimeout(ctx, c.listTimeout)
	defer cancel()

	var out struct {
		Sessions []Session `json:"sessions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/sessions/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}
	if out.Sessions == nil {
		out.Sessions = []Session{}
	}
	return out.Sessions, nil
}

// LoadMessages returns a session's history with ids and timestamps backfilled
func (c *Client) LoadMessages(ctx context.Context, sessionID string) ([]Message, error) {
	var out struct {
		Messages []Message `json:"messages"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/session/"+url.PathEscape(sessionID), nil, &out); err != nil {
		return nil, &PersistenceError{Op: "load", SessionID: sessionID, Err: err}
	}
	return BackfillMessages(sessionID, out.Messages), nil
}

// DeleteSession deletes a session
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/session/"+url.PathEscape(sessionID), nil, nil); err != nil {
		return &PersistenceError{Op: "delete", SessionID: sessionID, Err: err}
	}
	return nil
}

// OpenStream starts a streaming chat exchange. The caller must close the body.
func (c *Client) OpenStream(ctx context.Context, req ChatRequest) (io.ReadCloser, error) {
	resp, err := c.do(ctx, http.MethodPost, "/chat/stream", req)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		_ = resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

// Chat performs a one-shot, non-streaming exchange
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*OneShotResponse, error) {
	var out OneShotResponse
	if err := c.doJSON(ctx, http.MethodPost, "/chat", req, &out); err != nil {
		return nil, err
	}
	if out.Type == "" && out.Detail != "" {
		return nil, &BackendError{Status: http.StatusOK, Detail: out.Detail}
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	endpoint := c.baseURL + path

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: strings.ToLower(method), URL: endpoint, Err: err}
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// checkStatus turns a non-2xx response into a *BackendError, reading its detail field
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body struct {
		Detail any `json:"detail"`
	}
	detail := strings.TrimSpace(string(data))
	if err := json.Unmarshal(data, &body); err == nil && body.Detail != nil {
		if s, ok := body.Detail.(string); ok {
			detail = s
		} else if b, err := json.Marshal(body.Detail); err == nil {
			detail = string(b)
		}
	}
	return &BackendError{Status: resp.StatusCode, Detail: detail}
}
