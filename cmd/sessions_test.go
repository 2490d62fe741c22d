package cmd

import (
	"bytes"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/agent-chat/internal"
	"github.com/iksnae/agent-chat/testutil"
)

func TestSessionsCommand(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	fb.Sessions["u1"] = []map[string]any{
		{"id": "s1", "user_id": "u1", "title": "Trip to Lisbon", "updated_at": "2024-01-01T00:00:00Z", "message_count": 4},
	}
	config := writeTestConfig(t, fb.URL())

	out, err := runRoot(t, "sessions", "--config", config)
	if err != nil {
		t.Fatalf("sessions error = %v", err)
	}
	if !strings.Contains(out, "Trip to Lisbon") || !strings.Contains(out, "Found 1 session(s)") {
		t.Errorf("unexpected output:\n%s", out)
	}

	// backend down: the cached copy is shown
	fb.SetFailure(http.MethodGet, "/sessions/", http.StatusBadGateway)
	out, err = runRoot(t, "sessions", "--config", config)
	if err != nil {
		t.Fatalf("sessions with backend down error = %v", err)
	}
	if !strings.Contains(out, "Trip to Lisbon") {
		t.Errorf("cached list not shown:\n%s", out)
	}
}

func TestSessionsCommand_NoCache(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	fb.SetFailure(http.MethodGet, "/sessions/", http.StatusInternalServerError)
	config := writeTestConfig(t, fb.URL())

	if _, err := runRoot(t, "sessions", "--config", config); err == nil {
		t.Error("sessions should fail without backend or cache")
	}
}

func TestDisplaySessions(t *testing.T) {
	four := 4
	tests := []struct {
		name     string
		sessions []internal.Session
		want     string
	}{
		{"empty", nil, "No sessions found"},
		{"untitled", []internal.Session{{ID: "s1"}}, "Untitled"},
		{"full", []internal.Session{{ID: "s1", Title: "Taxes", MessageCount: &four, Preview: "line one\nline two", UpdatedAt: "2024-01-01T00:00:00Z"}}, "line one line two"},
		{"long title", []internal.Session{{ID: "s1", Title: strings.Repeat("x", 60)}}, "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			displaySessions(&buf, tt.sessions)
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, buf.String())
			}
		})
	}
}

func TestFormatRelative(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.Local)
	tests := []struct {
		t    time.Time
		want string
	}{
		{now.Add(-time.Hour), "Today 11:00"},
		{now.Add(-3 * 24 * time.Hour), "Wed 12:00"},
		{now.Add(-60 * 24 * time.Hour), "Apr 16 12:00"},
		{now.Add(-400 * 24 * time.Hour), "2023-05-12"},
	}
	for _, tt := range tests {
		if got := formatRelative(tt.t, now); got != tt.want {
			t.Errorf("formatRelative(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate() = %q", got)
	}
	if got := truncate("héllo wörld", 8); got != "héllo..." {
		t.Errorf("truncate() = %q, want rune-safe cut", got)
	}
}
