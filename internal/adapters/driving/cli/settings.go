package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/mailrag/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the AI providers, vector index and storage.

Run without a subcommand to print the current settings.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Interactively choose the provider and model used to embed email chunks and questions.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Interactively choose the provider and model used for classification and answers.`,
	RunE:  runSettingsLLM,
}

var settingsVectorCmd = &cobra.Command{
	Use:   "vector [memory|chroma]",
	Short: "Select the vector index backend",
	Long: `Select where chunk embeddings are stored.

  memory - in process, rebuilt from scratch each run
  chroma - a Chroma server collection (use --url to point at it)`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsVector,
}

var settingsSetKeyCmd = &cobra.Command{
	Use:   "set-key [llm|embedding]",
	Short: "Store an API key",
	Long: `Store the API key for the LLM or embedding provider. The key is read
from the terminal without echo. Keys found in GITHUB_TOKEN, OPENAI_API_KEY or
ANTHROPIC_API_KEY are used when nothing is stored.`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsSetKey,
}

var settingsTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Check that the configured providers respond",
	Args:  cobra.NoArgs,
	RunE:  runSettingsTest,
}

func init() {
	settingsVectorCmd.Flags().String("url", "", "Chroma server URL")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsVectorCmd)
	settingsCmd.AddCommand(settingsSetKeyCmd)
	settingsCmd.AddCommand(settingsTestCmd)
	rootCmd.AddCommand(settingsCmd)
}

func requireSettingsService(cmd *cobra.Command) error {
	if err := ensureServices(cmd); err != nil {
		return err
	}
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return nil
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if err := requireSettingsService(cmd); err != nil {
		return err
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	printProvider(cmd, settings.Embedding.Provider, settings.Embedding.Model,
		settings.Embedding.BaseURL, settings.Embedding.APIKey, settings.Embedding.IsConfigured())
	cmd.Println()

	cmd.Println("[LLM]")
	printProvider(cmd, settings.LLM.Provider, settings.LLM.Model,
		settings.LLM.BaseURL, settings.LLM.APIKey, settings.LLM.IsConfigured())
	if settings.LLM.RequestsPerSecond > 0 {
		cmd.Printf("  Rate limit: %.2f req/s\n", settings.LLM.RequestsPerSecond)
	}
	cmd.Println()

	cmd.Println("[Vector Index]")
	cmd.Printf("  Backend: %s\n", settings.VectorIndex.Backend)
	if settings.VectorIndex.Backend == domain.VectorBackendChroma {
		cmd.Printf("  URL: %s\n", settings.VectorIndex.URL)
		cmd.Printf("  Collection: %s\n", settings.VectorIndex.Collection)
	}
	cmd.Println()

	cmd.Println("[Storage]")
	path := settings.Storage.Path
	if path == "" {
		path = "(default)"
	}
	cmd.Printf("  Path: %s\n", path)

	if !settings.LLM.IsConfigured() || !settings.Embedding.IsConfigured() {
		cmd.Println()
		cmd.Println("Run 'mailrag settings set-key' or set GITHUB_TOKEN to finish configuration.")
	}
	return nil
}

func printProvider(cmd *cobra.Command, p domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	cmd.Printf("  Provider: %s\n", p.Description())
	cmd.Printf("  Model: %s\n", model)
	if baseURL != "" {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if p.RequiresAPIKey() {
		if apiKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if err := requireSettingsService(cmd); err != nil {
		return err
	}
	return configureEmbeddingProvider(cmd, bufio.NewReader(cmd.InOrStdin()))
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if err := requireSettingsService(cmd); err != nil {
		return err
	}
	return configureLLMProvider(cmd, bufio.NewReader(cmd.InOrStdin()))
}

func runSettingsVector(cmd *cobra.Command, args []string) error {
	if err := requireSettingsService(cmd); err != nil {
		return err
	}
	url, err := cmd.Flags().GetString("url")
	if err != nil {
		return fmt.Errorf("getting url flag: %w", err)
	}

	backend := domain.VectorBackend(strings.ToLower(args[0]))
	if err := settingsService.SetVectorBackend(backend, url); err != nil {
		return fmt.Errorf("failed to set vector backend: %w", err)
	}
	cmd.Printf("Vector backend set to: %s\n", backend)
	return nil
}

func runSettingsSetKey(cmd *cobra.Command, args []string) error {
	if err := requireSettingsService(cmd); err != nil {
		return err
	}

	cmd.Printf("Enter %s API key: ", args[0])
	key := readPassword(cmd.InOrStdin(), bufio.NewReader(cmd.InOrStdin()))
	cmd.Println()

	if err := settingsService.SetAPIKey(args[0], key); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}
	cmd.Printf("Stored %s API key %s\n", args[0], maskAPIKey(key))
	return nil
}

func runSettingsTest(cmd *cobra.Command, _ []string) error {
	if err := requireSettingsService(cmd); err != nil {
		return err
	}

	var failed bool
	cmd.Print("Embedding... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		failed = true
	} else {
		cmd.Println("OK")
	}

	cmd.Print("LLM... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		failed = true
	} else {
		cmd.Println("OK")
	}

	if failed {
		return errors.New("provider check failed")
	}
	return nil
}

type providerSetter func(domain.AIProvider, string, string) error

func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	return configureProvider(cmd, reader, "Embedding", domain.AllEmbeddingProviders(),
		domain.DefaultEmbeddingModels(), settingsService.SetEmbeddingProvider, settingsService.ValidateEmbeddingConfig)
}

func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	return configureProvider(cmd, reader, "LLM", domain.AllLLMProviders(),
		domain.DefaultLLMModels(), settingsService.SetLLMProvider, settingsService.ValidateLLMConfig)
}

func configureProvider(
	cmd *cobra.Command,
	reader *bufio.Reader,
	label string,
	providers []domain.AIProvider,
	defaults map[domain.AIProvider]string,
	set providerSetter,
	validate func() error,
) error {
	cmd.Printf("Select %s Provider\n", label)
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	selected := providers[idx-1]

	defaultModel := defaults[selected]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// An empty key falls back to the environment.
	var apiKey string
	if selected.RequiresAPIKey() {
		cmd.Print("Enter API key (blank to use the environment): ")
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
	}

	if err := set(selected, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", label, err)
	}

	cmd.Print("Validating configuration... ")
	if err := validate(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s configuration validation failed: %w", label, err)
	}
	cmd.Println("OK")

	cmd.Printf("%s provider configured: %s (%s)\n", label, selected.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// parseChoice maps a 1-based menu answer to an option, falling back on
// anything blank or out of range.
func parseChoice(input string, options, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 1 || n > options {
		return fallback
	}
	return n
}

// readPassword reads without echo when in is a terminal and falls back to
// a plain line read otherwise.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
