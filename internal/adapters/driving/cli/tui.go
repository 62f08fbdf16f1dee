package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/promptlens/internal/adapters/driving/tui"
	"github.com/custodia-labs/promptlens/internal/logger"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for promptlens.

The TUI lists captured prompts as they arrive, shows each prompt with its
pasted content spliced back in, and can reformat a prompt with the AI
provider. When reformatting is off or fails the original is shown.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Open
  /        - Filter
  f        - Toggle reformatted text
  a        - Toggle attachments
  Esc      - Back
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// runTUIApp runs the application. Tests replace it to avoid taking over
// the terminal.
var runTUIApp = func(app *tui.App) error {
	return app.Run()
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	if transcriptService == nil {
		return errors.New("history service not configured")
	}

	ports := tui.NewPorts(transcriptService, contentService, promptService)
	ports.Format = formatService
	ports.Settings = settingsService

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	// Log lines would tear the alternate screen.
	logger.SetOutput(io.Discard)
	defer logger.SetOutput(os.Stderr)

	if err := runTUIApp(app); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
