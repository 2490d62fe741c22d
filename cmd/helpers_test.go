package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/iksnae/agent-chat/testutil"
	"github.com/spf13/cobra"
)

// writeTestConfig writes a config pointing at baseURL with cache and
// archive inside a temp dir, and returns its path
func writeTestConfig(t *testing.T, baseURL string) string {
	t.Helper()
	dir := testutil.CreateTempDir(t)
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`base_url: %s
user_id: u1
auto_execute: true
list_timeout: 2s
cache_dir: %s
archive_path: %s
`, baseURL, filepath.Join(dir, "cache"), filepath.Join(dir, "history.db"))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

// resetBuiltinFlags clears --help and --version on every command. Cobra
// keeps flag values between Execute calls on the same command tree.
func resetBuiltinFlags(c *cobra.Command) {
	for _, name := range []string{"help", "version"} {
		if f := c.Flags().Lookup(name); f != nil {
			_ = f.Value.Set("false")
			f.Changed = false
		}
	}
	for _, sub := range c.Commands() {
		resetBuiltinFlags(sub)
	}
}

// runRoot executes the root command with args and returns its output
func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetBuiltinFlags(rootCmd)
	var stdout bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&bytes.Buffer{})
	err := rootCmd.Execute()
	return stdout.String(), err
}
