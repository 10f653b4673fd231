package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mailrag/internal/adapters/driving/watch"
)

var (
	watchExisting bool
	watchDebounce int
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest .eml files as they appear in a directory",
	Long: `Watches a directory and adds every .eml file that is created or
rewritten there. Point a mail client's export folder or an MDA drop
directory at it. Stop with ctrl+c.

Examples:
  mailrag watch ~/Mail/drop
  mailrag watch ~/Mail/drop --existing`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "ingest files already in the directory first")
	watchCmd.Flags().IntVar(&watchDebounce, "debounce-ms", int(watch.DefaultDebounce.Milliseconds()),
		"wait this long after the last write before ingesting")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := requireEmailService(cmd); err != nil {
		return err
	}
	dir := args[0]
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	w := watch.New(dir, emailService,
		watch.WithDebounce(time.Duration(watchDebounce)*time.Millisecond),
		watch.WithResults(func(r watch.Result) { reportWatchResult(cmd, r) }),
	)

	if watchExisting {
		n, err := w.IngestExisting(cmd.Context())
		if err != nil {
			return err
		}
		cmd.Printf("Ingested %d existing messages\n", n)
	}

	cmd.Printf("Watching %s (ctrl+c to stop)\n", dir)
	return w.Run(cmd.Context())
}

func reportWatchResult(cmd *cobra.Command, r watch.Result) {
	if errors.Is(r.Err, watch.ErrUnchanged) {
		return
	}
	if r.Err != nil {
		cmd.PrintErrf("  %s: %v\n", r.Path, r.Err)
		return
	}
	cmd.Printf("  #%-5d %-14s %s\n", r.Email.ID, "["+r.Email.Category+"]", displaySubject(r.Email))
}
