package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/promptlens/internal/core/domain"
)

var (
	formatRefresh bool
	formatRaw     bool
)

var formatCmd = &cobra.Command{
	Use:   "format [file|-]",
	Short: "Reformat text as Markdown with the AI provider",
	Long: `Reformat text into readable Markdown with the configured AI provider.
Reads stdin when no file (or "-") is given.

Each distinct text is sent at most once. Results are remembered, so asking
again returns the stored answer. Use --refresh to discard it and ask again.

When reformatting is disabled, not configured or fails, a warning is printed
to stderr and the original text is printed instead.

Configure a provider with 'promptlens settings ai'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFormat,
}

func init() {
	formatCmd.Flags().BoolVar(&formatRefresh, "refresh", false, "discard any stored result and ask again")
	formatCmd.Flags().BoolVar(&formatRaw, "raw", false, "print Markdown source instead of rendering it")
	rootCmd.AddCommand(formatCmd)
}

func runFormat(cmd *cobra.Command, args []string) error {
	if formatService == nil {
		return errors.New("format service not configured")
	}

	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	entry := requestFormat(cmd, text, formatRefresh)
	printFormatted(cmd, entry, text)
	return nil
}

// requestFormat runs the format cache for text, warning on stderr when the
// original has to be shown.
func requestFormat(cmd *cobra.Command, text string, refresh bool) domain.FormatCacheEntry {
	formatService.Focus(text)

	var entry domain.FormatCacheEntry
	if refresh {
		entry = formatService.Refresh(cmd.Context(), text)
	} else {
		entry = formatService.Request(cmd.Context(), text)
	}

	switch entry.Status {
	case domain.FormatFailed:
		cmd.PrintErrf("Warning: reformatting failed (%s), showing original\n", entry.ErrorMessage)
	case domain.FormatPending:
		cmd.PrintErrln("Warning: reformatting did not finish, showing original")
	}
	return entry
}

// printFormatted prints the formatted text, or original when the entry did not succeed.
func printFormatted(cmd *cobra.Command, entry domain.FormatCacheEntry, original string) {
	if !formatService.Surface(entry) {
		cmd.Println(original)
		return
	}

	text := entry.TextOr(original)
	if entry.Status == domain.FormatSucceeded && !formatRaw {
		text = newRenderer(cmd).Markdown(text)
	}
	cmd.Println(text)
}
