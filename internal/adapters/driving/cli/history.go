package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/promptlens/internal/core/domain"
)

const (
	historyTimeLayout = "2006-01-02 15:04"
	historyTitleWidth = 60
	shortIDLength     = 8
)

var (
	historyLimit     int
	historyJSON      bool
	historyFormatted bool
	historyRaw       bool
	historyRefresh   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse captured prompts",
	Long: `Browse the prompt history captured by the AI assistant.

Entries are identified by an ID; any unique prefix of at least four
characters can be used in place of the full ID.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent prompts, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a prompt with its attachments spliced back in",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print prompts as they are captured",
	Long:  `Follow the history file and print each new prompt until interrupted.`,
	Args:  cobra.NoArgs,
	RunE:  runHistoryWatch,
}

func init() {
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of entries (0 for all)")
	historyListCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON")

	historyShowCmd.Flags().BoolVarP(&historyFormatted, "formatted", "f", false, "reformat the prompt with the AI provider")
	historyShowCmd.Flags().BoolVar(&historyRaw, "raw", false, "print the prompt as captured, placeholders included")
	historyShowCmd.Flags().BoolVar(&historyRefresh, "refresh", false, "with --formatted, discard any stored result first")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyWatchCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	if transcriptService == nil {
		return errors.New("history service not configured")
	}

	entries, err := transcriptService.List(cmd.Context(), historyLimit)
	if err != nil {
		if errors.Is(err, domain.ErrTranscriptUnavailable) {
			return fmt.Errorf("no history at %s: %w", transcriptService.Location(), err)
		}
		return fmt.Errorf("failed to list history: %w", err)
	}

	if historyJSON {
		if entries == nil {
			entries = []domain.TranscriptEntry{}
		}
		return printJSON(cmd, entries)
	}

	if len(entries) == 0 {
		cmd.Println("No prompts found.")
		return nil
	}

	for i := range entries {
		cmd.Println(historyLine(&entries[i]))
	}
	cmd.Printf("\nTotal: %d prompts\n", len(entries))
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	if transcriptService == nil {
		return errors.New("history service not configured")
	}
	if historyRaw && historyFormatted {
		return errors.New("--raw and --formatted cannot be combined")
	}

	entry, err := transcriptService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get prompt: %w", err)
	}

	cmd.Printf("Prompt:  %s\n", entry.ID)
	cmd.Printf("Time:    %s\n", entry.Timestamp.Local().Format(historyTimeLayout))
	if entry.Project != "" {
		cmd.Printf("Project: %s\n", entry.Project)
	}
	cmd.Println()

	if historyRaw {
		cmd.Println(entry.Display)
		return nil
	}

	if historyFormatted {
		if formatService == nil {
			return errors.New("format service not configured")
		}
		text := transcriptService.Reconstruct(entry)
		formatted := requestFormat(cmd, text, historyRefresh)
		printFormatted(cmd, formatted, text)
		return nil
	}

	d := transcriptService.Directive(entry, 0)
	r := newRenderer(cmd)
	cmd.Println(r.Header(d))
	cmd.Println(r.Render(d))
	return nil
}

func runHistoryWatch(cmd *cobra.Command, _ []string) error {
	if transcriptService == nil {
		return errors.New("history service not configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	entries, err := transcriptService.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch history: %w", err)
	}

	cmd.PrintErrf("Watching %s (Ctrl+C to stop)\n", transcriptService.Location())
	for entry := range entries {
		cmd.Println(historyLine(&entry))
	}
	return nil
}

// historyLine is the one-line listing of an entry.
func historyLine(entry *domain.TranscriptEntry) string {
	id := entry.ID
	if len(id) > shortIDLength {
		id = id[:shortIDLength]
	}

	line := fmt.Sprintf("%s  %s  %s", id, entry.Timestamp.Local().Format(historyTimeLayout), entry.Title(historyTitleWidth))
	if n := len(entry.PastedContents); n > 0 {
		line += fmt.Sprintf("  [+%d pasted]", n)
	}
	if entry.Project != "" {
		line += "  (" + filepath.Base(entry.Project) + ")"
	}
	return line
}
