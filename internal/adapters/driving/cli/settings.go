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

	"github.com/custodia-labs/promptlens/internal/core/domain"
)

var aiDisable bool

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI reformatting, display options and the history location.

Use subcommands to change a specific setting.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsAICmd = &cobra.Command{
	Use:   "ai",
	Short: "Configure AI reformatting",
	Long: `Choose the AI provider used to reformat prompts, then check it responds.

Available providers:
  deepseek  - DeepSeek cloud API (default)
  openai    - OpenAI cloud API
  anthropic - Anthropic cloud API
  ollama    - Local Ollama instance

Use --disable to turn reformatting off and keep the provider settings.`,
	Args: cobra.NoArgs,
	RunE: runSettingsAI,
}

var settingsThemeCmd = &cobra.Command{
	Use:   "theme [system|light|dark]",
	Short: "Set the colour theme",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSettingsTheme,
}

var settingsPreviewLinesCmd = &cobra.Command{
	Use:   "preview-lines [n]",
	Short: "Set how many lines inline previews show (0 for all)",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsPreviewLines,
}

var settingsHistoryPathCmd = &cobra.Command{
	Use:   "history-path [path]",
	Short: "Set the history file location (no argument restores the default)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSettingsHistoryPath,
}

func init() {
	settingsAICmd.Flags().BoolVar(&aiDisable, "disable", false, "turn AI reformatting off")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsAICmd)
	settingsCmd.AddCommand(settingsThemeCmd)
	settingsCmd.AddCommand(settingsPreviewLinesCmd)
	settingsCmd.AddCommand(settingsHistoryPathCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	// AI settings
	cmd.Println("[AI Reformatting]")
	enabled := "no"
	if settings.AI.Enabled {
		enabled = "yes"
	}
	cmd.Printf("  Enabled: %s\n", enabled)
	cmd.Printf("  Provider: %s\n", settings.AI.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.AI.Model)
	cmd.Printf("  Base URL: %s\n", settings.AI.BaseURL)
	if settings.AI.Provider.RequiresAPIKey() {
		if settings.AI.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.AI.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !settings.AI.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	// Display settings
	cmd.Println("[Display]")
	cmd.Printf("  Theme: %s\n", settings.Display.Theme.Description())
	if settings.Display.PreviewLines == 0 {
		cmd.Printf("  Preview lines: all\n")
	} else {
		cmd.Printf("  Preview lines: %d\n", settings.Display.PreviewLines)
	}
	cmd.Println()

	// History settings
	cmd.Println("[History]")
	if settings.History.Path != "" {
		cmd.Printf("  Path: %s\n", settings.History.Path)
	} else {
		cmd.Printf("  Path: (default)\n")
	}
	if transcriptService != nil {
		found := "no"
		if transcriptService.Available() {
			found = "yes"
		}
		cmd.Printf("  Reading: %s (found: %s)\n", transcriptService.Location(), found)
	}
	cmd.Println()

	// Validation
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'promptlens settings ai' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsAI(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if aiDisable {
		if err := settingsService.SetAIEnabled(false); err != nil {
			return fmt.Errorf("failed to disable AI reformatting: %w", err)
		}
		cmd.Println("AI reformatting disabled.")
		return nil
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureAIProvider(cmd, reader)
}

func configureAIProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select AI Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaultModel := domain.DefaultLLMModels()[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// Get base URL
	defaultBaseURL := domain.DefaultBaseURLs()[selectedProvider]
	cmd.Printf("Enter base URL [%s]: ", defaultBaseURL)
	baseURL := readLine(reader)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	// Get API key if needed
	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		current := currentSettings()
		keep := current != nil && current.AI.Provider == selectedProvider && current.AI.APIKey != ""
		if keep {
			cmd.Print("Enter API key (leave empty to keep the current key): ")
		} else {
			cmd.Print("Enter API key: ")
		}
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey == "" && !keep {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetAI(true, selectedProvider, model, baseURL, apiKey); err != nil {
		return fmt.Errorf("failed to configure AI provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateAIConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("AI configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("AI reformatting configured: %s (%s)\n", selectedProvider.Description(), model)
	return nil
}

func runSettingsTheme(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	var mode domain.ThemeMode
	if len(args) == 1 {
		mode = domain.ThemeMode(strings.ToLower(args[0]))
	} else {
		reader := bufio.NewReader(cmd.InOrStdin())
		cmd.Println("Select Theme")
		modes := domain.AllThemeModes()
		for i, m := range modes {
			cmd.Printf("  %d. %s\n", i+1, m.Description())
		}
		cmd.Print("\nEnter choice: ")
		idx := parseChoice(readLine(reader), len(modes), 0)
		if idx == 0 {
			return errors.New("invalid selection")
		}
		mode = modes[idx-1]
	}

	if err := settingsService.SetTheme(mode); err != nil {
		return fmt.Errorf("failed to set theme: %w", err)
	}
	cmd.Printf("Theme set to: %s\n", mode.Description())
	return nil
}

func runSettingsPreviewLines(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	lines, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid number of lines: %s", args[0])
	}
	if err := settingsService.SetPreviewLines(lines); err != nil {
		return fmt.Errorf("failed to set preview lines: %w", err)
	}

	if lines == 0 {
		cmd.Println("Previews will show all lines.")
	} else {
		cmd.Printf("Previews will show up to %d lines.\n", lines)
	}
	return nil
}

func runSettingsHistoryPath(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	path := ""
	if len(args) == 1 {
		path = strings.TrimSpace(args[0])
	}
	if err := settingsService.SetHistoryPath(path); err != nil {
		return fmt.Errorf("failed to set history path: %w", err)
	}

	if path == "" {
		cmd.Println("History path reset to the default.")
	} else {
		cmd.Printf("History path set to: %s\n", path)
	}
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads a secret without echo when in is a terminal, otherwise
// a plain line from reader.
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
