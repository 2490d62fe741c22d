package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// FakeBackend is an in-process chat backend speaking the session and
// streaming endpoints. Responses are configured through its exported fields
// before requests are made; Requests is safe to read after the call returns.
type FakeBackend struct {
	Server *httptest.Server

	mu sync.Mutex
	// Sessions maps user id to the session objects returned by the list endpoint
	Sessions map[string][]map[string]any
	// Messages maps session id to its stored messages
	Messages map[string][]map[string]any
	// StreamLines is written, one flushed line at a time, by /chat/stream
	StreamLines []string
	// StreamGate, when set, is received from before the stream body is written
	StreamGate chan struct{}
	// OneShot is encoded as the /chat response
	OneShot map[string]any
	// Fail maps "METHOD /path-prefix" to a status code answered with a detail body
	Fail map[string]int

	nextID   int
	requests []Request
}

// Request is a recorded request
type Request struct {
	Method string
	Path   string
	Body   map[string]any
}

// NewFakeBackend starts a fake backend closed at test end
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	fb := &FakeBackend{
		Sessions: make(map[string][]map[string]any),
		Messages: make(map[string][]map[string]any),
		Fail:     make(map[string]int),
	}
	fb.Server = httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(fb.Server.Close)
	return fb
}

// URL returns the base URL of the server
func (fb *FakeBackend) URL() string {
	return fb.Server.URL
}

// Requests returns a copy of the recorded requests
func (fb *FakeBackend) Requests() []Request {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]Request(nil), fb.requests...)
}

// CountRequests counts recorded requests matching method and path prefix
func (fb *FakeBackend) CountRequests(method, pathPrefix string) int {
	n := 0
	for _, r := range fb.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, pathPrefix) {
			n++
		}
	}
	return n
}

// SetFailure makes matching requests answer with status and a detail body
func (fb *FakeBackend) SetFailure(method, pathPrefix string, status int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.Fail[method+" "+pathPrefix] = status
}

func (fb *FakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	fb.mu.Lock()
	fb.requests = append(fb.requests, Request{Method: r.Method, Path: r.URL.Path, Body: body})
	for key, status := range fb.Fail {
		method, prefix, _ := strings.Cut(key, " ")
		if method == r.Method && strings.HasPrefix(r.URL.Path, prefix) {
			fb.mu.Unlock()
			writeJSON(w, status, map[string]any{"detail": fmt.Sprintf("fake failure for %s %s", r.Method, r.URL.Path)})
			return
		}
	}
	fb.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/chat/stream":
		fb.serveStream(w)
	case r.Method == http.MethodPost && r.URL.Path == "/chat":
		fb.mu.Lock()
		resp := fb.OneShot
		fb.mu.Unlock()
		writeJSON(w, http.StatusOK, resp)
	case r.Method == http.MethodPost && r.URL.Path == "/sessions":
		userID, _ := body["user_id"].(string)
		fb.mu.Lock()
		fb.nextID++
		id := fmt.Sprintf("session-%d", fb.nextID)
		fb.Sessions[userID] = append(fb.Sessions[userID], map[string]any{
			"id":         id,
			"user_id":    userID,
			"title":      "New Chat",
			"created_at": "2024-01-01T00:00:00Z",
			"updated_at": "2024-01-01T00:00:00Z",
		})
		fb.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"id": id})
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/sessions/"):
		userID := strings.TrimPrefix(r.URL.Path, "/sessions/")
		fb.mu.Lock()
		sessions := fb.Sessions[userID]
		fb.mu.Unlock()
		if sessions == nil {
			sessions = []map[string]any{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/session/"):
		id := strings.TrimPrefix(r.URL.Path, "/session/")
		fb.mu.Lock()
		msgs, ok := fb.Messages[id]
		fb.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Session not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/session/"):
		id := strings.TrimPrefix(r.URL.Path, "/session/")
		fb.mu.Lock()
		delete(fb.Messages, id)
		for user, list := range fb.Sessions {
			kept := list[:0]
			for _, s := range list {
				if s["id"] != id {
					kept = append(kept, s)
				}
			}
			fb.Sessions[user] = kept
		}
		fb.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not Found"})
	}
}

func (fb *FakeBackend) serveStream(w http.ResponseWriter) {
	fb.mu.Lock()
	lines := append([]string(nil), fb.StreamLines...)
	gate := fb.StreamGate
	fb.mu.Unlock()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	if gate != nil {
		<-gate
	}
	for _, line := range lines {
		_, _ = fmt.Fprintf(w, "%s\n", line)
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
