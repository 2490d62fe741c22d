package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/agent-chat/internal"
	"github.com/spf13/cobra"
)

var (
	limit       int
	since       string
	showOffline bool
	showLogs    bool
)

var (
	// Styles for show command
	sessionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	sessionMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				MarginBottom(1)

	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 1)

	assistantMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true).
				Padding(0, 1)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2).
				MarginBottom(1)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show messages for a specific session",
	Long: `Display the messages of a stored session.

The session is fetched from the backend. With --offline, or when the backend
cannot be reached, the cached transcript or the local archive is used.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]

		var sinceTime time.Time
		if since != "" {
			parsed, err := time.Parse(time.RFC3339, since)
			if err != nil {
				return fmt.Errorf("invalid --since timestamp format (expected RFC3339): %w", err)
			}
			sinceTime = parsed
		}

		transcript, err := loadTranscript(cmd, sessionID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		displaySessionHeader(out, transcript)

		messages := filterSince(transcript.Messages, sinceTime)
		total := len(messages)
		if limit > 0 && limit < len(messages) {
			messages = messages[:limit]
		}
		for i, msg := range messages {
			displayMessage(out, i+1, msg, total)
		}

		if limit > 0 && limit < total {
			fmt.Fprintln(out)
			fmt.Fprintln(out, lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				Italic(true).
				Render(fmt.Sprintf("... (%d more message(s))", total-limit)))
		}

		if showLogs && len(transcript.Logs) > 0 {
			fmt.Fprintln(out, sessionMetaStyle.Render("Activity"))
			for _, l := range transcript.Logs {
				fmt.Fprintln(out, formatLog(l))
			}
		}
		return nil
	},
}

// loadTranscript fetches a session from the backend, falling back to the
// cache and then the archive
func loadTranscript(cmd *cobra.Command, sessionID string) (*internal.Transcript, error) {
	cm := newCacheManager()

	if !showOffline {
		msgs, err := newClient().LoadMessages(cmd.Context(), sessionID)
		if err == nil {
			t := &internal.Transcript{SessionID: sessionID, Messages: msgs}
			if cached, err := cm.LoadTranscript(sessionID); err == nil {
				t.Title = cached.Title
				t.Logs = cached.Logs
			}
			return t, nil
		}
		internal.LogWarn("Failed to load session from backend: %v", err)
	}

	t, err := cm.LoadTranscript(sessionID)
	if err == nil {
		internal.LogInfo("Found session in cache")
		return t, nil
	}
	internal.LogDebug("Cache miss: %v", err)

	archive, err := openArchive()
	if err != nil {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	defer archive.Close()

	t, err = archive.Transcript(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	internal.LogInfo("Found session in archive")
	return t, nil
}

func filterSince(messages []internal.Message, since time.Time) []internal.Message {
	if since.IsZero() {
		return messages
	}
	filtered := make([]internal.Message, 0, len(messages))
	for _, msg := range messages {
		if t, err := time.Parse(time.RFC3339, msg.Timestamp); err == nil && !t.Before(since) {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

func displaySessionHeader(out io.Writer, t *internal.Transcript) {
	if t == nil {
		return
	}
	title := t.Title
	if title == "" {
		title = "Session " + t.SessionID
	}
	fmt.Fprintln(out, sessionHeaderStyle.Render(fmt.Sprintf("💬 %s", title)))

	metaParts := []string{
		fmt.Sprintf("ID: %s", t.SessionID),
		fmt.Sprintf("Messages: %d", len(t.Messages)),
	}
	if len(t.Logs) > 0 {
		metaParts = append(metaParts, fmt.Sprintf("Tool runs: %d", len(t.Logs)))
	}
	fmt.Fprintln(out, sessionMetaStyle.Render(strings.Join(metaParts, " • ")))
	fmt.Fprintln(out)
}

func displayMessage(out io.Writer, index int, msg internal.Message, total int) {
	var actorStyle lipgloss.Style
	var actorLabel string

	switch msg.Role {
	case internal.RoleUser:
		actorStyle = userMessageStyle
		actorLabel = "👤 User"
	default:
		actorStyle = assistantMessageStyle
		actorLabel = "🤖 Assistant"
	}

	header := actorStyle.Render(actorLabel) + " " + timestampStyle.Render(fmt.Sprintf("[%d/%d]", index, total))
	if msg.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339, msg.Timestamp); err == nil {
			header += " " + timestampStyle.Render(t.Local().Format("15:04:05"))
		} else {
			header += " " + timestampStyle.Render(msg.Timestamp)
		}
	}
	fmt.Fprintln(out, header)

	content := strings.TrimSpace(msg.Content)
	if content != "" {
		fmt.Fprintln(out, messageContentStyle.Render(wrapText(content, 80)))
	} else {
		fmt.Fprintln(out, messageContentStyle.Foreground(lipgloss.Color("240")).Render("(empty message)"))
	}
	fmt.Fprintln(out)
}

func wrapText(text string, width int) string {
	lines := strings.Split(text, "\n")
	var wrapped []string

	for _, line := range lines {
		if len(line) <= width {
			wrapped = append(wrapped, line)
			continue
		}

		current := ""
		for _, word := range strings.Fields(line) {
			switch {
			case current == "":
				current = word
			case len(current)+len(word)+1 > width:
				wrapped = append(wrapped, current)
				current = word
			default:
				current += " " + word
			}
		}
		if current != "" {
			wrapped = append(wrapped, current)
		}
	}

	return strings.Join(wrapped, "\n")
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Limit number of messages to show")
	showCmd.Flags().StringVar(&since, "since", "", "Show messages since timestamp (RFC3339)")
	showCmd.Flags().BoolVar(&showOffline, "offline", false, "Read from the cache or archive without contacting the backend")
	showCmd.Flags().BoolVar(&showLogs, "logs", false, "Also print the activity feed")
}
