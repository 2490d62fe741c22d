package cmd

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/agent-chat/internal"
)

var (
	logRunningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	logSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	logErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	logTypeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
)

// streamRenderer prints an exchange as it happens: new activity feed
// entries and status changes, and the assistant reply token by token
type streamRenderer struct {
	out io.Writer

	mu        sync.Mutex
	tracking  bool
	baseline  int
	replyID   string
	printed   int
	midLine   bool
	logStatus map[string]internal.LogStatus
}

func newStreamRenderer(out io.Writer) *streamRenderer {
	return &streamRenderer{out: out, logStatus: make(map[string]internal.LogStatus)}
}

// Update implements internal.Observer
func (r *streamRenderer) Update(s internal.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, l := range s.Logs {
		if r.logStatus[l.ID] == l.Status {
			continue
		}
		r.logStatus[l.ID] = l.Status
		r.breakLine()
		fmt.Fprintln(r.out, formatLog(l))
	}

	if s.State.InFlight() && !r.tracking {
		// only messages appended from here on belong to this exchange
		r.tracking = true
		r.baseline = len(s.Messages)
		r.replyID = ""
		r.printed = 0
	}
	if !r.tracking {
		return
	}

	for i := len(s.Messages) - 1; i >= r.baseline && i >= 0; i-- {
		msg := s.Messages[i]
		if msg.Role != internal.RoleAssistant {
			continue
		}
		if msg.ID != r.replyID {
			r.replyID = msg.ID
			r.printed = 0
		}
		if len(msg.Content) > r.printed {
			fmt.Fprint(r.out, msg.Content[r.printed:])
			r.printed = len(msg.Content)
			r.midLine = true
		}
		break
	}

	if !s.State.InFlight() {
		r.breakLine()
		r.tracking = false
	}
}

// breakLine ends a partially printed reply so a feed entry gets its own line
func (r *streamRenderer) breakLine() {
	if r.midLine {
		fmt.Fprintln(r.out)
		r.midLine = false
	}
}

func formatLog(l internal.AgentLog) string {
	var icon string
	style := logRunningStyle
	switch l.Status {
	case internal.LogStatusRunning:
		icon = "⏳"
	case internal.LogStatusSuccess:
		icon = "✅"
		style = logSuccessStyle
	default:
		icon = "❌"
		style = logErrorStyle
	}

	line := fmt.Sprintf("%s %s %s", icon, style.Render(l.Title), logTypeStyle.Render("["+string(l.Type)+"]"))
	if l.Detail != "" {
		line += " " + l.Detail
	}
	return line
}
