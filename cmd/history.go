package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/iksnae/agent-chat/internal"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "Show locally archived exchanges",
	Long: `Show exchanges recorded in the local history archive, newest last.

Without a session id the archived sessions are listed. With one, that
session's archived messages are printed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, err := openArchive()
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer archive.Close()

		out := cmd.OutOrStdout()
		if len(args) == 0 {
			sessions, err := archive.Sessions()
			if err != nil {
				return fmt.Errorf("failed to read archive: %w", err)
			}
			displayArchivedSessions(cmd, sessions)
			return nil
		}

		msgs, err := archive.History(args[0], historyLimit)
		if err != nil {
			return fmt.Errorf("failed to read archive: %w", err)
		}
		if len(msgs) == 0 {
			fmt.Fprintln(out, headerStyle.Render("📋 No archived messages for "+args[0]))
			return nil
		}
		for i, m := range msgs {
			displayMessage(out, i+1, m.Message, len(msgs))
			if m.State == internal.StateFailed.String() && m.Message.Role == internal.RoleAssistant {
				fmt.Fprintln(out, logErrorStyle.Render("   (exchange failed)"))
			}
		}
		return nil
	},
}

func displayArchivedSessions(cmd *cobra.Command, sessions []internal.ArchivedSession) {
	out := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(out, headerStyle.Render("📋 Archive is empty"))
		return
	}
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("📋 %d archived session(s)", len(sessions))))
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Messages")+"\t"+titleStyle.Render("Last activity")+"\t")
	for _, s := range sessions {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t\n", idStyle.Render(s.SessionID), countStyle.Render(fmt.Sprint(s.MessageCount)), dateStyle.Render(s.LastActivity))
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Show only the last N messages")
}
