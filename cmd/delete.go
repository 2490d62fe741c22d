package cmd

import (
	"fmt"

	"github.com/iksnae/agent-chat/internal"
	"github.com/spf13/cobra"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session",
	Long:  `Delete a session on the backend and drop its cached transcript and archived history.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, closeArchive := newController()
		defer closeArchive()

		if err := ctrl.DeleteSession(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		internal.PrintSuccess(fmt.Sprintf("Deleted session %s", args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
