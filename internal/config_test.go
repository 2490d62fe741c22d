package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/agent-chat/testutil"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.BaseURL != "http://localhost:8000" || cfg.UserID != "default" {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
	if !cfg.AutoExecute {
		t.Error("AutoExecute should default to true")
	}
	if cfg.ListTimeout != DefaultListTimeout {
		t.Errorf("ListTimeout = %v, want %v", cfg.ListTimeout, DefaultListTimeout)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := testutil.CreateTempDir(t)

	tests := []struct {
		name    string
		content string
		wantErr string
		check   func(t *testing.T, cfg Config)
	}{
		{
			name: "overrides",
			content: `base_url: https://agent.example.com/
user_id: alice
auto_execute: false
list_timeout: 3s
`,
			check: func(t *testing.T, cfg Config) {
				if cfg.BaseURL != "https://agent.example.com" {
					t.Errorf("BaseURL = %q, trailing slash should be trimmed", cfg.BaseURL)
				}
				if cfg.UserID != "alice" || cfg.AutoExecute {
					t.Errorf("unexpected config: %+v", cfg)
				}
				if cfg.ListTimeout != 3*time.Second {
					t.Errorf("ListTimeout = %v, want 3s", cfg.ListTimeout)
				}
			},
		},
		{
			name:    "partial keeps defaults",
			content: "user_id: bob\n",
			check: func(t *testing.T, cfg Config) {
				if cfg.BaseURL != "http://localhost:8000" || cfg.UserID != "bob" || !cfg.AutoExecute {
					t.Errorf("unexpected config: %+v", cfg)
				}
			},
		},
		{
			name:    "bad scheme",
			content: "base_url: ftp://example.com\n",
			wantErr: "http(s)",
		},
		{
			name:    "empty user",
			content: "user_id: \"  \"\n",
			wantErr: "user_id",
		},
		{
			name:    "invalid yaml",
			content: "base_url: [unterminated\n",
			wantErr: "failed to parse config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}

			cfg, err := LoadConfig(path)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("LoadConfig() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadConfig() error = %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(testutil.CreateTempDir(t), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() of a missing file error = %v", err)
	}
	if cfg.BaseURL != "http://localhost:8000" {
		t.Errorf("BaseURL = %q, want default", cfg.BaseURL)
	}

	if _, err := LoadConfig(""); err != nil {
		t.Errorf("LoadConfig(\"\") error = %v", err)
	}
}

func TestConfig_ValidateTimeout(t *testing.T) {
	cfg := Config{BaseURL: "http://x", UserID: "u", ListTimeout: -1}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.ListTimeout != DefaultListTimeout {
		t.Errorf("ListTimeout = %v, want default", cfg.ListTimeout)
	}
}
