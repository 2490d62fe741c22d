package internal

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/agent-chat/testutil"
)

func TestClient_SessionEndpoints(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	fb.Messages["s1"] = []map[string]any{
		{"role": "user", "content": "hi"},
		{"role": "assistant", "content": "hello"},
	}
	c := NewClient(fb.URL() + "/")
	ctx := context.Background()

	id, err := c.CreateSession(ctx, "u1")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if id != "session-1" {
		t.Errorf("CreateSession() = %q, want session-1", id)
	}

	sessions, err := c.ListSessions(ctx, "u1")
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != id || sessions[0].Title != "New Chat" {
		t.Errorf("ListSessions() = %+v", sessions)
	}

	empty, err := c.ListSessions(ctx, "nobody")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("ListSessions(nobody) = %v, %v; want empty non-nil list", empty, err)
	}

	msgs, err := c.LoadMessages(ctx, "s1")
	if err != nil {
		t.Fatalf("LoadMessages() error = %v", err)
	}
	if len(msgs) != 2 || msgs[0].ID != "s1-0" || msgs[1].Role != RoleAssistant || msgs[1].Timestamp == "" {
		t.Errorf("LoadMessages() = %+v", msgs)
	}

	if err := c.DeleteSession(ctx, id); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if sessions, _ := c.ListSessions(ctx, "u1"); len(sessions) != 0 {
		t.Errorf("session still listed after delete: %+v", sessions)
	}

	reqs := fb.Requests()
	if reqs[0].Method != http.MethodPost || reqs[0].Path != "/sessions" || reqs[0].Body["user_id"] != "u1" {
		t.Errorf("unexpected create request: %+v", reqs[0])
	}
}

func TestClient_LoadMissingSession(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	c := NewClient(fb.URL())

	_, err := c.LoadMessages(context.Background(), "missing")

	var pe *PersistenceError
	if !errors.As(err, &pe) || pe.Op != "load" || pe.SessionID != "missing" {
		t.Fatalf("LoadMessages() error = %v, want load PersistenceError", err)
	}
	var be *BackendError
	if !errors.As(err, &be) || be.Status != http.StatusNotFound || be.Detail != "Session not found" {
		t.Errorf("BackendError = %+v", be)
	}
}

func TestClient_OpenStream(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	fb.StreamLines = []string{testutil.TokenLine("Hel"), testutil.TokenLine("lo"), testutil.LineFinalDone}
	c := NewClient(fb.URL())

	body, err := c.OpenStream(context.Background(), ChatRequest{Message: "hi", UserID: "u1", AutoExecute: true, SessionID: "s1"})
	if err != nil {
		t.Fatalf("OpenStream() error = %v", err)
	}
	defer body.Close()

	events, err := DecodeAll(body)
	if err != nil {
		t.Fatalf("DecodeAll() error = %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if _, ok := events[2].(FinalResultEvent); !ok {
		t.Errorf("last event = %T, want FinalResultEvent", events[2])
	}

	req := fb.Requests()[0]
	if req.Body["message"] != "hi" || req.Body["session_id"] != "s1" || req.Body["auto_execute"] != true {
		t.Errorf("unexpected request body: %+v", req.Body)
	}
}

func TestClient_OpenStreamBackendError(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	fb.SetFailure(http.MethodPost, "/chat/stream", http.StatusInternalServerError)
	c := NewClient(fb.URL())

	_, err := c.OpenStream(context.Background(), ChatRequest{Message: "hi", UserID: "u1"})

	var be *BackendError
	if !errors.As(err, &be) {
		t.Fatalf("OpenStream() error = %v, want *BackendError", err)
	}
	if be.Status != http.StatusInternalServerError || !strings.Contains(be.Detail, "fake failure") {
		t.Errorf("BackendError = %+v", be)
	}
}

func TestClient_TransportError(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	url := fb.URL()
	fb.Server.Close()

	_, err := NewClient(url).OpenStream(context.Background(), ChatRequest{Message: "hi"})

	var te *TransportError
	if !errors.As(err, &te) || te.Op != "post" {
		t.Fatalf("OpenStream() error = %v, want post TransportError", err)
	}
}

func TestClient_ListTimeout(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	hang := make(chan struct{})
	defer close(hang)
	slow := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		select {
		case <-r.Context().Done():
			return nil, r.Context().Err()
		case <-hang:
			return nil, io.EOF
		}
	})}
	c := NewClient(fb.URL(), WithHTTPClient(slow), WithListTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := c.ListSessions(context.Background(), "u1")
	if err == nil {
		t.Fatal("ListSessions() should time out")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("ListSessions() did not honor the list timeout")
	}
}

func TestClient_Chat(t *testing.T) {
	tests := []struct {
		name     string
		response map[string]any
		want     string
		wantErr  bool
	}{
		{"action result", map[string]any{"type": "action_result", "message": "Email sent"}, "Email sent", false},
		{"question", map[string]any{"type": "question", "question": "Which date?"}, "Which date?", false},
		{"raw result", map[string]any{"type": "action_result", "result": map[string]any{"ok": true}}, `{"ok":true}`, false},
		{"detail only", map[string]any{"detail": "Agent unavailable"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := testutil.NewFakeBackend(t)
			fb.OneShot = tt.response

			resp, err := NewClient(fb.URL()).Chat(context.Background(), ChatRequest{Message: "go", UserID: "u1"})
			if tt.wantErr {
				var be *BackendError
				if !errors.As(err, &be) || be.Detail != "Agent unavailable" {
					t.Fatalf("Chat() error = %v, want BackendError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Chat() error = %v", err)
			}
			if got := resp.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCheckStatus_StructuredDetail(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusUnprocessableEntity,
		Body:       io.NopCloser(strings.NewReader(`{"detail":[{"loc":["body","message"],"msg":"field required"}]}`)),
	}
	err := checkStatus(resp)

	var be *BackendError
	if !errors.As(err, &be) {
		t.Fatalf("checkStatus() = %v, want *BackendError", err)
	}
	if !strings.Contains(be.Detail, "field required") {
		t.Errorf("Detail = %q", be.Detail)
	}

	plain := &http.Response{StatusCode: http.StatusBadGateway, Body: io.NopCloser(strings.NewReader("upstream down\n"))}
	if err := checkStatus(plain); !errors.As(err, &be) || be.Detail != "upstream down" {
		t.Errorf("plain body detail = %q", be.Detail)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
