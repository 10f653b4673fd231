package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your email",
	Long: `Answers a question using the most relevant stored emails and lists
the emails the answer was drawn from.

Examples:
  mailrag ask "when is the team offsite?"
  mailrag ask what did HR say about payday --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := ensureServices(cmd); err != nil {
		return err
	}
	if chatService == nil {
		return fmt.Errorf("chat service: %w", errNotConfigured)
	}

	question := strings.Join(args, " ")
	resp, err := chatService.Ask(cmd.Context(), question, nil)
	if err != nil {
		return fmt.Errorf("asking: %w", err)
	}

	if askJSON {
		type source struct {
			EmailID int64  `json:"email_id"`
			Sender  string `json:"sender"`
			Subject string `json:"subject"`
			Summary string `json:"summary"`
			Preview string `json:"preview"`
		}
		out := struct {
			Answer    string   `json:"answer"`
			SourceIDs []int64  `json:"source_ids"`
			Sources   []source `json:"sources"`
		}{
			Answer:    resp.Answer.Text,
			SourceIDs: resp.Answer.SourceIDs,
			Sources:   make([]source, 0, len(resp.Sources)),
		}
		if out.SourceIDs == nil {
			out.SourceIDs = []int64{}
		}
		for _, s := range resp.Sources {
			out.Sources = append(out.Sources, source(s))
		}
		return printJSON(cmd, out)
	}

	cmd.Println(resp.Answer.Text)
	if len(resp.Sources) == 0 {
		return nil
	}
	cmd.Println()
	cmd.Println("Sources:")
	for _, s := range resp.Sources {
		subject := s.Subject
		if subject == "" {
			subject = "(no subject)"
		}
		cmd.Printf("  [doc #%d] %s", s.EmailID, subject)
		if s.Sender != "" {
			cmd.Printf(" (%s)", s.Sender)
		}
		cmd.Println()
	}
	return nil
}
