package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/agent-chat/internal"
	"github.com/spf13/cobra"
)

var (
	sessionsOffline    bool
	sessionsClearCache bool
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	previewStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Italic(true)
)

// sessionsCmd represents the sessions command
var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"list"},
	Short:   "List your chat sessions",
	Long: `List the chat sessions stored by the backend for the configured user.

The list is cached locally; with --offline, or when the backend cannot be
reached, the cached copy is shown instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		cm := newCacheManager()

		if sessionsClearCache {
			if err := cm.ClearCache(); err != nil {
				internal.LogWarn("Failed to clear cache: %v", err)
			} else {
				internal.LogInfo("Cache cleared")
			}
		}

		if !sessionsOffline {
			sessions, err := newClient().ListSessions(cmd.Context(), cfg.UserID)
			if err == nil {
				if err := cm.SaveSessions(cfg.BaseURL, cfg.UserID, sessions); err != nil {
					internal.LogWarn("Failed to save cache: %v", err)
				}
				displaySessions(out, sessions)
				return nil
			}
			internal.LogWarn("Failed to list sessions: %v, falling back to cache...", err)
		}

		sessions, err := cm.LoadSessions(cfg.BaseURL, cfg.UserID)
		if err != nil {
			return fmt.Errorf("no cached session list available: %w", err)
		}
		internal.LogInfo("Loaded %d session(s) from cache", len(sessions))
		displaySessions(out, sessions)
		return nil
	},
}

func displaySessions(out io.Writer, sessions []internal.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(out, headerStyle.Render("📋 No sessions found"))
		return
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("📋 Found %d session(s)", len(sessions))))
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Title")+"\t"+titleStyle.Render("Messages")+"\t"+titleStyle.Render("Updated")+"\t"+titleStyle.Render("Preview")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 100))

	for _, s := range sessions {
		title := s.Title
		if title == "" {
			title = "Untitled"
		}
		title = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Render(truncate(title, 40))

		msgCount := dateStyle.Render("—")
		if s.MessageCount != nil {
			msgCount = countStyle.Render(strconv.Itoa(*s.MessageCount))
		}

		updated := dateStyle.Render("—")
		if t := s.GetUpdatedAt(); !t.IsZero() {
			updated = dateStyle.Render(formatRelative(t, time.Now()))
		}

		preview := ""
		if s.Preview != "" {
			preview = previewStyle.Render(truncate(strings.ReplaceAll(s.Preview, "\n", " "), 30))
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n", idStyle.Render(s.ID), title, msgCount, updated, preview)
	}

	_ = w.Flush()
	fmt.Fprintln(out)
	fmt.Fprintln(out, idStyle.Render("💡 Tip: Use ")+
		lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Render("agent-chat chat --session "+sessions[0].ID)+
		idStyle.Render(" to continue a session"))
}

// formatRelative renders t compactly relative to now
func formatRelative(t, now time.Time) string {
	t = t.Local()
	diff := now.Sub(t)
	switch {
	case diff < 24*time.Hour:
		return t.Format("Today 15:04")
	case diff < 7*24*time.Hour:
		return t.Format("Mon 15:04")
	case diff < 365*24*time.Hour:
		return t.Format("Jan 02 15:04")
	default:
		return t.Format("2006-01-02")
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.Flags().BoolVar(&sessionsOffline, "offline", false, "Show the cached list without contacting the backend")
	sessionsCmd.Flags().BoolVar(&sessionsClearCache, "clear-cache", false, "Clear the cache before running")
}
