package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mailrag/internal/core/domain"
	"github.com/custodia-labs/mailrag/internal/normalisers/eml"
)

var (
	emailFile     string
	emailBody     string
	emailSender   string
	emailSubject  string
	emailCategory string
	emailLimit    int
	emailOffset   int
	emailJSON     bool
)

var emailCmd = &cobra.Command{
	Use:   "email",
	Short: "Add, list and manage emails",
}

var emailAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Classify, store and index an email",
	Long: `Adds an email. The body is taken from --file (an .eml message),
from --body, or from stdin when neither is given.

Examples:
  mailrag email add --file ~/Downloads/offsite.eml
  mailrag email add --sender hr@example.com --body "Payday moves to the 24th."
  pbpaste | mailrag email add --subject "Release notes"`,
	Args: cobra.NoArgs,
	RunE: runEmailAdd,
}

var emailListCmd = &cobra.Command{
	Use:   "list",
	Short: "List emails, newest first",
	Args:  cobra.NoArgs,
	RunE:  runEmailList,
}

var emailShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one email",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmailShow,
}

var emailCategoryCmd = &cobra.Command{
	Use:   "category [id] [category]",
	Short: "Change an email's category",
	Args:  cobra.ExactArgs(2),
	RunE:  runEmailCategory,
}

var emailDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an email and its index entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmailDelete,
}

var emailReclassifyCmd = &cobra.Command{
	Use:   "reclassify",
	Short: "Retry classification for deferred emails",
	Args:  cobra.NoArgs,
	RunE:  runEmailReclassify,
}

func init() {
	emailAddCmd.Flags().StringVarP(&emailFile, "file", "f", "", "path to an .eml message")
	emailAddCmd.Flags().StringVar(&emailBody, "body", "", "email body text")
	emailAddCmd.Flags().StringVar(&emailSender, "sender", "", "sender address")
	emailAddCmd.Flags().StringVar(&emailSubject, "subject", "", "subject, used when the model extracts none")
	emailAddCmd.Flags().BoolVar(&emailJSON, "json", false, "output as JSON")

	emailListCmd.Flags().StringVarP(&emailCategory, "category", "c", "", "only list this category")
	emailListCmd.Flags().IntVarP(&emailLimit, "limit", "n", domain.DefaultListLimit, "page size")
	emailListCmd.Flags().IntVar(&emailOffset, "offset", 0, "emails to skip")
	emailListCmd.Flags().BoolVar(&emailJSON, "json", false, "output as JSON")

	emailShowCmd.Flags().BoolVar(&emailJSON, "json", false, "output as JSON")

	emailCmd.AddCommand(emailAddCmd, emailListCmd, emailShowCmd, emailCategoryCmd, emailDeleteCmd, emailReclassifyCmd)
	rootCmd.AddCommand(emailCmd)
}

func requireEmailService(cmd *cobra.Command) error {
	if err := ensureServices(cmd); err != nil {
		return err
	}
	if emailService == nil {
		return fmt.Errorf("email service: %w", errNotConfigured)
	}
	return nil
}

func runEmailAdd(cmd *cobra.Command, _ []string) error {
	if err := requireEmailService(cmd); err != nil {
		return err
	}

	req, err := buildIngestRequest(cmd)
	if err != nil {
		return err
	}

	email, err := emailService.Ingest(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("adding email: %w", err)
	}

	if emailJSON {
		return printJSON(cmd, toEmailJSON(email, false))
	}
	cmd.Printf("Added email #%d\n", email.ID)
	printEmailSummary(cmd, email)
	if email.Status == domain.StatusPending {
		cmd.Println("Classification was deferred. Run 'mailrag email reclassify' later.")
	}
	return nil
}

func buildIngestRequest(cmd *cobra.Command) (domain.IngestRequest, error) {
	var req domain.IngestRequest
	switch {
	case emailFile != "":
		parsed, err := eml.New().NormaliseFile(emailFile)
		if err != nil {
			return req, err
		}
		req = parsed
	case emailBody != "":
		req.Body = emailBody
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return req, fmt.Errorf("reading stdin: %w", err)
		}
		req.Body = string(data)
	}

	if emailSender != "" {
		req.Sender = emailSender
	}
	if emailSubject != "" {
		req.Subject = emailSubject
	}
	if strings.TrimSpace(req.Body) == "" {
		return req, errors.New("email body is empty")
	}
	return req, nil
}

func runEmailList(cmd *cobra.Command, _ []string) error {
	if err := requireEmailService(cmd); err != nil {
		return err
	}

	emails, err := emailService.List(cmd.Context(), domain.EmailFilter{
		Category: emailCategory,
		Limit:    emailLimit,
		Offset:   emailOffset,
	})
	if err != nil {
		return fmt.Errorf("listing emails: %w", err)
	}

	if emailJSON {
		out := make([]emailJSONView, len(emails))
		for i := range emails {
			out[i] = toEmailJSON(&emails[i], false)
		}
		return printJSON(cmd, out)
	}

	if len(emails) == 0 {
		cmd.Println("No emails found.")
		return nil
	}
	for i := range emails {
		e := &emails[i]
		marker := ""
		if e.Status == domain.StatusPending {
			marker = " (pending)"
		}
		cmd.Printf("  #%-5d %-14s %s%s\n", e.ID, "["+e.Category+"]", displaySubject(e), marker)
		if e.Sender != "" {
			cmd.Printf("         from %s, %s\n", e.Sender, e.CreatedAt.Format("2006-01-02 15:04"))
		}
	}
	return nil
}

func runEmailShow(cmd *cobra.Command, args []string) error {
	if err := requireEmailService(cmd); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	email, err := emailService.Get(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("email #%d: %w", id, err)
	}

	if emailJSON {
		return printJSON(cmd, toEmailJSON(email, true))
	}
	cmd.Printf("Email #%d\n", email.ID)
	cmd.Printf("  From:     %s\n", orDash(email.Sender))
	cmd.Printf("  Received: %s\n", email.CreatedAt.Format("2006-01-02 15:04"))
	printEmailSummary(cmd, email)
	cmd.Println()
	cmd.Println(email.Body)
	return nil
}

func runEmailCategory(cmd *cobra.Command, args []string) error {
	if err := requireEmailService(cmd); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	email, err := emailService.ChangeCategory(cmd.Context(), id, args[1])
	if err != nil {
		return fmt.Errorf("changing category: %w", err)
	}
	cmd.Printf("Email #%d moved to %s\n", email.ID, email.Category)
	return nil
}

func runEmailDelete(cmd *cobra.Command, args []string) error {
	if err := requireEmailService(cmd); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	if err := emailService.Delete(cmd.Context(), id); err != nil {
		return fmt.Errorf("deleting email: %w", err)
	}
	cmd.Printf("Deleted email #%d\n", id)
	return nil
}

func runEmailReclassify(cmd *cobra.Command, _ []string) error {
	if err := requireEmailService(cmd); err != nil {
		return err
	}

	n, err := emailService.ReclassifyPending(cmd.Context())
	if err != nil {
		return fmt.Errorf("reclassifying: %w", err)
	}
	cmd.Printf("Reclassified %d pending emails\n", n)
	return nil
}

func printEmailSummary(cmd *cobra.Command, e *domain.Email) {
	cmd.Printf("  Subject:  %s\n", displaySubject(e))
	cmd.Printf("  Category: %s\n", e.Category)
	if e.ExtractedDate != nil {
		cmd.Printf("  Date:     %s\n", *e.ExtractedDate)
	}
	cmd.Printf("  Summary:  %s\n", orDash(e.Summary))
}

type emailJSONView struct {
	ID            int64   `json:"id"`
	Sender        string  `json:"sender"`
	Subject       string  `json:"subject"`
	Category      string  `json:"category"`
	Summary       string  `json:"summary"`
	ExtractedDate *string `json:"extracted_date"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"created_at"`
	Body          string  `json:"body,omitempty"`
}

func toEmailJSON(e *domain.Email, withBody bool) emailJSONView {
	v := emailJSONView{
		ID:            e.ID,
		Sender:        e.Sender,
		Subject:       e.Subject,
		Category:      e.Category,
		Summary:       e.Summary,
		ExtractedDate: e.ExtractedDate,
		Status:        string(e.Status),
		CreatedAt:     e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if withBody {
		v.Body = e.Body
	}
	return v
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func displaySubject(e *domain.Email) string {
	if e.Subject == "" {
		return "(no subject)"
	}
	return e.Subject
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
