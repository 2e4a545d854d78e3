package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iordanov05/AutoSMM/internal/generate"
	"github.com/iordanov05/AutoSMM/internal/session"
)

var (
	flagAccount   int64
	flagCommunity int64
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant about a community",
	Long: `Chat starts an interactive session. Each message is answered by the
generation engine, grounded in the community's indexed content. The
conversation history lives only for the duration of the session and is
discarded on exit.`,
	RunE: runChat,
}

func init() {
	rootCmd.PersistentFlags().Int64VarP(&flagAccount, "account", "a", 0, "account id")
	rootCmd.PersistentFlags().Int64VarP(&flagCommunity, "community", "c", 0, "community id")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if flagAccount == 0 || flagCommunity == 0 {
		return fmt.Errorf("--account and --community are required")
	}

	app, cleanup, err := setupApp(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	key := session.Key{AccountID: flagAccount, CommunityID: flagCommunity}
	defer app.Sessions.Drop(key)

	fmt.Printf("Chatting about community %d. Type 'exit' to quit.\n", flagCommunity)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if query == "exit" || query == "quit" {
			break
		}

		history := app.Sessions.Render(key)
		reply, err := app.Engine.ReplyToQuery(cmd.Context(), flagCommunity, query, history)
		if err != nil {
			if errors.Is(err, generate.ErrGenerationFailed) {
				fmt.Fprintf(os.Stderr, "generation failed, try again: %v\n", err)
				continue
			}
			return err
		}

		app.Sessions.Append(key, session.RoleUser, query)
		app.Sessions.Append(key, session.RoleAssistant, reply)

		fmt.Println()
		fmt.Println(reply)
		fmt.Println()
	}

	return scanner.Err()
}
