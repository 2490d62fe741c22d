package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/agent-chat/internal"
	"github.com/spf13/cobra"
)

var (
	verbose     bool
	configPath  string
	serverURL   string
	userID      string
	autoExecute bool
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"

	// cfg is loaded before any subcommand runs
	cfg = internal.DefaultConfig()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "agent-chat",
	Short: "Chat with a tool-using agent backend from the terminal",
	Long: `A terminal client for agent chat backends that stream their replies.

Messages are sent to the backend's streaming endpoint and the reply is
rendered as it arrives, together with an activity feed of the tools the
agent runs (searches, crawls, emails, PDFs).

Features:
  • Interactive chat with live token streaming
  • Session management (list, show, delete)
  • Offline session cache and a local history archive
  • Export transcripts (JSONL, Markdown, YAML, JSON)

Quick Start:
  agent-chat chat                        # Start an interactive chat
  agent-chat ask "summarize my inbox"    # One-shot question
  agent-chat sessions                    # List your sessions
  agent-chat show <session-id>           # View a session`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		internal.SetVerbose(verbose)
		return loadConfig(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies flag overrides
func loadConfig(cmd *cobra.Command) error {
	path := configPath
	if path == "" {
		p, err := internal.DefaultConfigPath()
		if err != nil {
			internal.LogWarn("Using built-in defaults: %v", err)
		}
		path = p
	}

	loaded, err := internal.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("server") {
		loaded.BaseURL = serverURL
	}
	if flags.Changed("user") {
		loaded.UserID = userID
	}
	if flags.Changed("auto-execute") {
		loaded.AutoExecute = autoExecute
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cfg = loaded
	internal.LogDebug("Using backend %s as user %s", cfg.BaseURL, cfg.UserID)
	return nil
}

func newClient() *internal.Client {
	return internal.NewClient(cfg.BaseURL, internal.WithListTimeout(cfg.ListTimeout))
}

func newCacheManager() *internal.CacheManager {
	return internal.NewCacheManager(cfg.CacheDir)
}

// openArchive opens the history archive. Commands that only want to record
// history keep going without it.
func openArchive() (*internal.Archive, error) {
	if cfg.ArchivePath == "" {
		return nil, fmt.Errorf("no archive path configured")
	}
	return internal.OpenArchive(cfg.ArchivePath)
}

// newController builds a controller wired to the cache and, when it can be
// opened, the archive. The returned func releases the archive.
func newController(opts ...internal.ControllerOption) (*internal.Controller, func()) {
	opts = append(opts, internal.WithCache(newCacheManager()))

	closeFn := func() {}
	archive, err := openArchive()
	if err != nil {
		internal.LogWarn("History archive unavailable: %v", err)
	} else {
		opts = append(opts, internal.WithArchive(archive))
		closeFn = func() {
			if err := archive.Close(); err != nil {
				internal.LogWarn("Failed to close archive: %v", err)
			}
		}
	}
	return internal.NewController(newClient(), cfg, opts...), closeFn
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.agent-chat/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Backend base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "", "User id (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&autoExecute, "auto-execute", true, "Let the agent run tools without confirmation")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
