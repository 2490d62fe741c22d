package cmd

import (
	"strings"
	"testing"

	"github.com/iksnae/agent-chat/testutil"
)

func TestHistoryCommand(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	config := writeTestConfig(t, fb.URL())

	out, err := runRoot(t, "history", "--config", config, "--limit", "0")
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	if !strings.Contains(out, "Archive is empty") {
		t.Errorf("unexpected output for an empty archive:\n%s", out)
	}

	seedArchive(t, config)

	out, err = runRoot(t, "history", "--config", config, "--limit", "0")
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	if !strings.Contains(out, "2 archived session(s)") || !strings.Contains(out, "s1") {
		t.Errorf("unexpected session listing:\n%s", out)
	}

	out, err = runRoot(t, "history", "s1", "--config", config, "--limit", "1")
	if err != nil {
		t.Fatalf("history s1 error = %v", err)
	}
	if !strings.Contains(out, "answer for s1") || strings.Contains(out, "question for s1") {
		t.Errorf("--limit 1 should show only the newest message:\n%s", out)
	}

	out, err = runRoot(t, "history", "unknown", "--config", config, "--limit", "0")
	if err != nil {
		t.Fatalf("history unknown error = %v", err)
	}
	if !strings.Contains(out, "No archived messages") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
