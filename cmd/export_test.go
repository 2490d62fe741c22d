package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/agent-chat/internal"
	"github.com/iksnae/agent-chat/testutil"
)

func seedArchive(t *testing.T, config string) {
	t.Helper()
	// loading a harmless command sets cfg from the config file
	if _, err := runRoot(t, "history", "--config", config, "--limit", "0"); err != nil {
		t.Fatalf("history error = %v", err)
	}
	archive, err := openArchive()
	if err != nil {
		t.Fatalf("openArchive() error = %v", err)
	}
	defer archive.Close()

	for _, id := range []string{"s1", "s2"} {
		rec := internal.ExchangeRecord{
			SessionID: id,
			User:      internal.Message{ID: id + "-u", Role: internal.RoleUser, Content: "question for " + id, Timestamp: "2024-01-01T00:00:00Z"},
			Assistant: internal.Message{ID: id + "-a", Role: internal.RoleAssistant, Content: "answer for " + id, Timestamp: "2024-01-01T00:00:01Z"},
			State:     internal.StateSettled,
		}
		if err := archive.RecordExchange(rec); err != nil {
			t.Fatalf("RecordExchange() error = %v", err)
		}
	}
}

func TestExportCommand(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	config := writeTestConfig(t, fb.URL())
	seedArchive(t, config)

	tests := []struct {
		name      string
		args      []string
		wantFiles []string
		wantErr   bool
	}{
		{
			name:    "export with invalid format",
			args:    []string{"--format", "invalid"},
			wantErr: true,
		},
		{
			name:      "all sessions as markdown",
			args:      []string{"--format", "md", "--session-id", ""},
			wantFiles: []string{"session_s1.md", "session_s2.md"},
		},
		{
			name:      "one session as jsonl",
			args:      []string{"--format", "jsonl", "--session-id", "s2"},
			wantFiles: []string{"session_s2.jsonl"},
		},
		{
			name:    "unknown session",
			args:    []string{"--format", "json", "--session-id", "nope"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outDir := testutil.CreateTempDir(t)
			args := append([]string{"export", "--config", config, "--out", outDir}, tt.args...)

			_, err := runRoot(t, args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("export error = %v, wantErr %v", err, tt.wantErr)
			}

			entries, _ := os.ReadDir(outDir)
			if len(entries) != len(tt.wantFiles) {
				t.Errorf("wrote %d file(s), want %d", len(entries), len(tt.wantFiles))
			}
			for _, name := range tt.wantFiles {
				data, err := os.ReadFile(filepath.Join(outDir, name))
				if err != nil {
					t.Errorf("missing %s: %v", name, err)
					continue
				}
				id := strings.TrimSuffix(strings.TrimPrefix(name, "session_"), filepath.Ext(name))
				if !strings.Contains(string(data), "answer for "+id) {
					t.Errorf("%s does not contain the archived reply:\n%s", name, data)
				}
			}
		})
	}
}

func TestCollectTranscripts_CacheFallback(t *testing.T) {
	archive, err := internal.NewArchive(testutil.CreateInMemoryDB(t))
	if err != nil {
		t.Fatalf("NewArchive() error = %v", err)
	}
	cm := internal.NewCacheManager(testutil.CreateTempDir(t))
	if err := cm.SaveTranscript(internal.CreateTestTranscript("cached")); err != nil {
		t.Fatalf("SaveTranscript() error = %v", err)
	}

	got, err := collectTranscripts(archive, cm, "cached")
	if err != nil {
		t.Fatalf("collectTranscripts() error = %v", err)
	}
	if len(got) != 1 || got[0].Title != "Test Conversation" {
		t.Errorf("collectTranscripts() = %+v", got)
	}
}
