package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Ask the task assistant",
	Long: `Send a message to the task assistant.

The assistant can act on your tasks server-side ("add a task to buy
milk tomorrow", "what's due this week?"). Conversation continuity is
kept by the server; each reply prints the conversation ID it belongs
to when --verbose is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Gateway == nil || Sessions == nil {
			return fmt.Errorf("client not initialized")
		}
		if Sessions.Token() == "" {
			return fmt.Errorf("not signed in (use 'taskdeck auth login')")
		}

		reply, err := Gateway.Chat(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return describeAuthErr(err)
		}

		fmt.Println(reply.Response)
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			fmt.Printf("\n(conversation %s)\n", reply.ConversationID)
		}
		return nil
	},
}

func init() {
	chatCmd.Flags().Bool("verbose", false, "print the conversation ID with the reply")
	rootCmd.AddCommand(chatCmd)
}
