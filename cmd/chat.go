package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/agent-chat/internal"
	"github.com/spf13/cobra"
)

var (
	chatSessionID string
)

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	replyLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)
)

const chatHelp = `Commands:
  /new             start a new chat
  /load <id>       continue a stored session
  /sessions        list your sessions
  /delete <id>     delete a session
  /help            show this help
  /quit            leave`

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat",
	Long: `Start an interactive chat with the agent.

Each line you type is sent to the backend's streaming endpoint. The reply is
printed as it arrives, along with the tools the agent runs. A session is
created with your first message unless --session picks an existing one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		out := cmd.OutOrStdout()
		renderer := newStreamRenderer(out)
		ctrl, closeArchive := newController(internal.WithObserver(renderer))
		defer closeArchive()

		if chatSessionID != "" {
			if err := ctrl.LoadSession(ctx, chatSessionID); err != nil {
				return fmt.Errorf("failed to load session: %w", err)
			}
			printHistory(out, ctrl.Snapshot().Messages)
		}

		fmt.Fprintln(out, hintStyle.Render(fmt.Sprintf("Connected to %s as %s. Type /help for commands.", cfg.BaseURL, cfg.UserID)))
		return runChatLoop(ctx, ctrl, cmd.InOrStdin(), out)
	},
}

// runChatLoop reads lines until EOF, /quit or cancellation
func runChatLoop(ctx context.Context, ctrl *internal.Controller, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, promptStyle.Render("you> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := runSlashCommand(ctx, ctrl, line, out); quit {
				return nil
			}
			continue
		}

		fmt.Fprint(out, replyLabelStyle.Render("agent> "))
		if err := ctrl.Send(ctx, line); err != nil {
			if errors.Is(err, internal.ErrBusy) {
				fmt.Fprintln(out, hintStyle.Render("still working on the previous message"))
				continue
			}
			return err
		}
	}
}

// runSlashCommand handles one REPL command and reports whether to quit
func runSlashCommand(ctx context.Context, ctrl *internal.Controller, line string, out io.Writer) bool {
	fields := strings.Fields(line)
	name, arg := fields[0], ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch name {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(out, chatHelp)
	case "/new":
		ctrl.StartNewChat()
		fmt.Fprintln(out, hintStyle.Render("Started a new chat."))
	case "/load":
		if arg == "" {
			fmt.Fprintln(out, hintStyle.Render("usage: /load <session-id>"))
			break
		}
		if err := ctrl.LoadSession(ctx, arg); err == nil {
			printHistory(out, ctrl.Snapshot().Messages)
		}
	case "/sessions":
		if err := ctrl.RefreshSessions(ctx); err == nil {
			displaySessions(out, ctrl.Snapshot().Sessions)
		}
	case "/delete":
		if arg == "" {
			fmt.Fprintln(out, hintStyle.Render("usage: /delete <session-id>"))
			break
		}
		if err := ctrl.DeleteSession(ctx, arg); err == nil {
			fmt.Fprintln(out, hintStyle.Render("Deleted "+arg))
		}
	default:
		fmt.Fprintln(out, hintStyle.Render("unknown command "+name+"; type /help"))
	}
	return false
}

func printHistory(out io.Writer, messages []internal.Message) {
	for i, msg := range messages {
		displayMessage(out, i+1, msg, len(messages))
	}
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&chatSessionID, "session", "s", "", "Continue an existing session")
}
