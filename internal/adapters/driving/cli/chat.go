package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mailrag/internal/adapters/driving/tui"
	"github.com/custodia-labs/mailrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/mailrag/internal/logger"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with your email in the terminal",
	Long: `Opens an interactive chat. Each question is answered from the stored
emails with the conversation so far as context. Press esc for the menu and
ctrl+c to quit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runTUI(cmd, messages.ViewChat)
	},
}

var inboxCmd = &cobra.Command{
	Use:     "inbox",
	Aliases: []string{"tui"},
	Short:   "Browse emails and chat in the terminal",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runTUI(cmd, messages.ViewMenu)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd, inboxCmd)
}

// newTUI builds the app for the given start view without running it.
func newTUI(cmd *cobra.Command, start messages.ViewType) (*tui.App, error) {
	if err := ensureServices(cmd); err != nil {
		return nil, err
	}
	if chatService == nil {
		return nil, fmt.Errorf("chat service: %w", errNotConfigured)
	}

	app, err := tui.NewApp(cmd.Context(), &tui.Ports{
		Chat:   chatService,
		Emails: emailService,
	})
	if err != nil {
		return nil, err
	}
	return app.StartIn(start), nil
}

func runTUI(cmd *cobra.Command, start messages.ViewType) error {
	app, err := newTUI(cmd, start)
	if err != nil {
		return err
	}

	// Log lines would tear the alternate screen.
	if !logger.IsVerbose() {
		logger.SetOutput(io.Discard)
		defer logger.SetOutput(os.Stderr)
	}
	return app.Run()
}
