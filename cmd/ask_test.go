package cmd

import (
	"net/http"
	"strings"
	"testing"

	"github.com/iksnae/agent-chat/testutil"
)

func TestAskCommand(t *testing.T) {
	tests := []struct {
		name    string
		oneShot map[string]any
		fail    bool
		want    string
		wantErr bool
	}{
		{"action result", map[string]any{"type": "action_result", "message": "Invoice emailed"}, false, "Invoice emailed", false},
		{"clarifying question", map[string]any{"type": "question", "question": "Which invoice?"}, false, "Which invoice?", false},
		{"backend failure", nil, true, "❌ fake failure for POST /chat", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := testutil.NewFakeBackend(t)
			fb.OneShot = tt.oneShot
			if tt.fail {
				fb.SetFailure(http.MethodPost, "/chat", http.StatusInternalServerError)
			}
			config := writeTestConfig(t, fb.URL())

			out, err := runRoot(t, "ask", "--config", config, "email", "the", "invoice")
			if (err != nil) != tt.wantErr {
				t.Fatalf("ask error = %v, wantErr %v", err, tt.wantErr)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output = %q, want %q", out, tt.want)
			}

			req := fb.Requests()[0]
			if req.Body["message"] != "email the invoice" || req.Body["user_id"] != "u1" {
				t.Errorf("request body = %+v", req.Body)
			}
		})
	}

	if _, err := runRoot(t, "ask"); err == nil {
		t.Error("ask without a message should fail")
	}
}
