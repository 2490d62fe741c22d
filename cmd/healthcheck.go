package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	healthcheckVerbose bool
)

var (
	checkOKStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	checkWarnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	checkFailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that the backend, cache and archive are reachable",
	Long: `Check the health of agent-chat by verifying:
  • Configuration
  • Backend reachability (session list endpoint)
  • Session cache directory
  • History archive

This command is useful for debugging connection issues before starting a chat.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sectionStyle.Render("🔍 Agent Chat Health Check"))
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 1: Configuration..."))
		fmt.Fprintln(out, checkOKStyle.Render("✅ Configuration loaded"))
		if healthcheckVerbose {
			fmt.Fprintf(out, "   Backend: %s\n", cfg.BaseURL)
			fmt.Fprintf(out, "   User: %s\n", cfg.UserID)
			fmt.Fprintf(out, "   Auto-execute: %v\n", cfg.AutoExecute)
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 2: Contacting backend..."))
		sessions, err := newClient().ListSessions(context.Background(), cfg.UserID)
		if err != nil {
			fmt.Fprintln(out, checkFailStyle.Render("❌ Backend unreachable:"), err)
			return fmt.Errorf("backend health check failed: %w", err)
		}
		fmt.Fprintln(out, checkOKStyle.Render(fmt.Sprintf("✅ Backend reachable, %d session(s) for %s", len(sessions), cfg.UserID)))
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 3: Checking session cache..."))
		cm := newCacheManager()
		if err := cm.EnsureCacheDir(); err != nil {
			fmt.Fprintln(out, checkWarnStyle.Render("⚠️  Cache directory not writable:"), err)
		} else {
			fmt.Fprintln(out, checkOKStyle.Render("✅ Cache directory ready"))
			if healthcheckVerbose {
				fmt.Fprintf(out, "   Directory: %s\n", cfg.CacheDir)
			}
			if _, err := os.Stat(cm.GetIndexPath()); err == nil {
				fmt.Fprintln(out, checkOKStyle.Render("✅ Offline session index present"))
			}
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 4: Checking history archive..."))
		archive, err := openArchive()
		if err != nil {
			fmt.Fprintln(out, checkWarnStyle.Render("⚠️  Archive unavailable:"), err)
		} else {
			defer archive.Close()
			archived, err := archive.Sessions()
			if err != nil {
				fmt.Fprintln(out, checkWarnStyle.Render("⚠️  Archive unreadable:"), err)
			} else {
				fmt.Fprintln(out, checkOKStyle.Render(fmt.Sprintf("✅ Archive holds %d session(s)", len(archived))))
			}
			if healthcheckVerbose {
				fmt.Fprintf(out, "   Database: %s\n", cfg.ArchivePath)
			}
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, checkOKStyle.Render("✅ Health check passed"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckVerbose, "verbose", "v", false, "Show detailed information")
}
