package cmd

import (
	"fmt"
	"strings"

	"github.com/iksnae/agent-chat/internal"
	"github.com/spf13/cobra"
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Send one message and print the reply",
	Long: `Send a single message to the backend's non-streaming chat endpoint and
print the reply. Use 'chat' for a streamed, multi-turn conversation.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message := strings.Join(args, " ")
		ctrl := internal.NewController(newClient(), cfg)

		err := internal.ShowProgress(cmd.Context(), "Waiting for the agent", func() error {
			return ctrl.Ask(cmd.Context(), message)
		})
		if err != nil {
			return err
		}

		snap := ctrl.Snapshot()
		reply, ok := snap.LastMessage()
		if !ok || reply.Role != internal.RoleAssistant {
			return fmt.Errorf("no reply received")
		}
		fmt.Fprintln(cmd.OutOrStdout(), reply.Content)
		if snap.State == internal.StateFailed {
			return fmt.Errorf("the agent could not complete the request")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
