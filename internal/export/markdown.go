package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/agent-chat/internal"
)

// MarkdownExporter exports transcripts in Markdown format
type MarkdownExporter struct{}

var statusIcons = map[internal.LogStatus]string{
	internal.LogStatusRunning: "⏳",
	internal.LogStatusSuccess: "✅",
	internal.LogStatusError:   "❌",
}

// Export writes a readable transcript with the activity feed at the end
func (e *MarkdownExporter) Export(transcript *internal.Transcript, w io.Writer) error {
	title := transcript.Title
	if title == "" {
		title = "Session " + transcript.SessionID
	}
	_, _ = fmt.Fprintf(w, "# %s\n\n", title)
	if transcript.SessionID != "" {
		_, _ = fmt.Fprintf(w, "**Session:** %s  \n", transcript.SessionID)
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(transcript.Messages))

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Messages\n\n")

	for i, msg := range transcript.Messages {
		timestamp := ""
		if msg.Timestamp != "" {
			timestamp = fmt.Sprintf(" (%s)", msg.Timestamp)
		}

		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", msg.Role, timestamp, escapeMarkdown(msg.Content))

		if i < len(transcript.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	if len(transcript.Logs) > 0 {
		_, _ = fmt.Fprintf(w, "## Activity\n\n")
		for _, l := range transcript.Logs {
			line := fmt.Sprintf("- %s **%s** `%s`", statusIcons[l.Status], l.Title, l.Type)
			if l.Detail != "" {
				line += ": " + strings.ReplaceAll(l.Detail, "\n", " ")
			}
			_, _ = fmt.Fprintln(w, line)
		}
		_, _ = fmt.Fprintln(w)
	}

	return nil
}

// escapeMarkdown escapes emphasis markers outside code fences
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
