// Package cli provides the cobra command tree for mailrag.
package cli

import (
	"context"
	"errors"
	"sync"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mailrag/internal/core/ports/driving"
	"github.com/custodia-labs/mailrag/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Services holds the driving ports commands call into.
type Services struct {
	Emails     driving.EmailService
	Categories driving.CategoryService
	Chat       driving.ChatService
	Settings   driving.SettingsService
}

// Bootstrap builds the services on first use. The returned func releases
// whatever the services hold open.
type Bootstrap func(ctx context.Context) (*Services, func(), error)

var (
	emailService    driving.EmailService
	categoryService driving.CategoryService
	chatService     driving.ChatService
	settingsService driving.SettingsService

	bootstrap     Bootstrap
	bootstrapOnce = new(sync.Once)
	bootstrapErr  error
	cleanup       = func() {}

	verbose bool
)

var errNotConfigured = errors.New("services not configured")

var rootCmd = &cobra.Command{
	Use:   "mailrag",
	Short: "Classify your email and ask questions about it",
	Long: `mailrag classifies incoming email with an LLM, indexes it for semantic
retrieval, and answers questions grounded in the messages you have added.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap installs the function that builds services on demand.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs ready-made services, bypassing bootstrap.
func SetServices(s *Services) {
	emailService = s.Emails
	categoryService = s.Categories
	chatService = s.Chat
	settingsService = s.Settings
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	defer func() { cleanup() }()
	return rootCmd.ExecuteContext(ctx)
}

// ensureServices runs the bootstrap once. Commands call it before touching
// any service so that version and help never open the database.
func ensureServices(cmd *cobra.Command) error {
	if bootstrap == nil {
		return nil
	}
	bootstrapOnce.Do(func() {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		s, release, err := bootstrap(ctx)
		if err != nil {
			bootstrapErr = err
			return
		}
		SetServices(s)
		if release != nil {
			cleanup = release
		}
	})
	return bootstrapErr
}
