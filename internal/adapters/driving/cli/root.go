// Package cli provides the promptlens command line interface.
package cli

import (
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/promptlens/internal/adapters/driving/mcp"
	"github.com/custodia-labs/promptlens/internal/core/ports/driving"
	"github.com/custodia-labs/promptlens/internal/logger"
)

// version is set at build time or by SetVersion.
var version = "dev"

// Global flags.
var (
	verbose   bool
	configDir string
	noColor   bool
)

// Services wired by main.
var (
	contentService    driving.ContentService
	promptService     driving.PromptService
	formatService     driving.FormatService
	transcriptService driving.TranscriptService
	settingsService   driving.SettingsService
	toolObserver      mcp.ToolObserver
	metricsHandler    http.Handler
)

// skipBootstrap marks commands that run without wired services.
const skipBootstrap = "skip-bootstrap"

// Services holds everything the commands need.
type Services struct {
	Content    driving.ContentService
	Prompt     driving.PromptService
	Format     driving.FormatService
	Transcript driving.TranscriptService
	Settings   driving.SettingsService

	// ToolObserver records MCP tool calls. Optional.
	ToolObserver mcp.ToolObserver

	// Metrics serves the Prometheus registry. Optional.
	Metrics http.Handler
}

// Options are the global flag values handed to the bootstrap function.
type Options struct {
	// ConfigDir overrides ~/.promptlens.
	ConfigDir string

	// Verbose is true when --verbose was given.
	Verbose bool
}

// BootstrapFunc builds the services once flags are parsed. The returned
// cleanup runs after the command finishes.
type BootstrapFunc func(opts Options) (*Services, func(), error)

var (
	bootstrap BootstrapFunc
	cleanup   func()
)

var rootCmd = &cobra.Command{
	Use:   "promptlens",
	Short: "Inspect, rebuild and reformat AI assistant prompts",
	Long: `promptlens reads the prompt history of an AI coding assistant, rebuilds
prompts whose pasted content was replaced by [Pasted text #N] placeholders,
detects what kind of content each prompt holds, and can reformat prompts
into readable Markdown with an AI provider.

Reformatting is optional. When it is off or fails the original text is shown.`,
	SilenceUsage:      true,
	PersistentPreRunE: runBootstrap,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.promptlens)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable coloured output")

	// Results go to stdout, warnings and errors to stderr.
	rootCmd.SetOut(os.Stdout)
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap sets the function that wires services before a command runs.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetServices installs services directly, bypassing the bootstrap function.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	contentService = s.Content
	promptService = s.Prompt
	formatService = s.Format
	transcriptService = s.Transcript
	settingsService = s.Settings
	toolObserver = s.ToolObserver
	metricsHandler = s.Metrics
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	runCleanup()
	return err
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd.Annotations[skipBootstrap] == "true" || bootstrap == nil {
		return nil
	}

	services, done, err := bootstrap(Options{ConfigDir: configDir, Verbose: verbose})
	if err != nil {
		return err
	}
	SetServices(services)
	cleanup = done
	return nil
}

func runCleanup() {
	if cleanup != nil {
		cleanup()
		cleanup = nil
	}
}

// colorEnabled reports whether w is a terminal and colour was not disabled.
func colorEnabled(w io.Writer) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of w, or 0 when it is not a terminal.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}
