package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/promptlens/internal/adapters/driving/render"
	"github.com/custodia-labs/promptlens/internal/core/domain"
)

// maxInputBytes caps text read from files and stdin.
const maxInputBytes = 16 << 20

// readInput returns the text named by args: a file path, or stdin for "-" or
// no argument.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		return readAll(cmd.InOrStdin(), "stdin")
	}
	return readFile(args[0])
}

func readFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readAll(f, path)
}

func readAll(r io.Reader, name string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxInputBytes+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) > maxInputBytes {
		return "", fmt.Errorf("%w: %s is larger than %d bytes", domain.ErrInvalidInput, name, maxInputBytes)
	}
	return string(data), nil
}

// loadAttachments reads a JSON object of pasted contents.
func loadAttachments(path string) (domain.AttachmentMap, error) {
	if path == "" {
		return domain.AttachmentMap{}, nil
	}
	text, err := readFile(path)
	if err != nil {
		return nil, err
	}
	var attachments domain.AttachmentMap
	if err := json.Unmarshal([]byte(text), &attachments); err != nil {
		return nil, fmt.Errorf("%w: %s is not a JSON object of attachments: %v", domain.ErrInvalidInput, path, err)
	}
	return attachments, nil
}

// newRenderer builds a renderer for cmd's output using the display settings.
func newRenderer(cmd *cobra.Command) *render.Renderer {
	out := cmd.OutOrStdout()
	opts := render.Options{
		Width: terminalWidth(out),
		Theme: domain.ThemeSystem,
		Color: colorEnabled(out),
	}
	if settings := currentSettings(); settings != nil {
		opts.Theme = settings.Display.Theme
	}
	return render.New(opts)
}

// previewLines returns the configured preview cap, or the default.
func previewLines() int {
	if settings := currentSettings(); settings != nil {
		return settings.Display.PreviewLines
	}
	return domain.DefaultAppSettings().Display.PreviewLines
}

func currentSettings() *domain.AppSettings {
	if settingsService == nil {
		return nil
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil
	}
	return settings
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
