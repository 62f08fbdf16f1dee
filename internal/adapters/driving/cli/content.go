package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/promptlens/internal/core/domain"
)

var (
	classifyJSON   bool
	classifyRender bool

	resolvePromptFile  string
	resolveAttachments string

	attachmentsJSON bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify [file|-]",
	Short: "Detect the kind and language of text",
	Long: `Classify text as code, structured data, formatted text or plain text and
detect its language. Reads stdin when no file (or "-") is given.

Use --render to print a preview the way the history viewer shows it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClassify,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Rebuild a prompt from its pasted attachments",
	Long: `Replace each [Pasted text #N] or [Pasted text #N +K lines] placeholder in a
prompt with the matching pasted content. JSON attachments are pretty-printed.
Placeholders without an attachment are left as they are.

The attachments file is a JSON object keyed by "N" or "Pasted text #N". Each
value is either a string or an object with a "content" field.`,
	Args: cobra.NoArgs,
	RunE: runResolve,
}

var attachmentsCmd = &cobra.Command{
	Use:   "attachments [file]",
	Short: "List pasted attachments with their labels",
	Args:  cobra.ExactArgs(1),
	RunE:  runAttachments,
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "output as JSON")
	classifyCmd.Flags().BoolVar(&classifyRender, "render", false, "print a rendered preview")

	resolveCmd.Flags().StringVarP(&resolvePromptFile, "prompt-file", "p", "", "file holding the prompt (default stdin)")
	resolveCmd.Flags().StringVarP(&resolveAttachments, "attachments", "a", "", "JSON file of pasted contents")

	attachmentsCmd.Flags().BoolVar(&attachmentsJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(attachmentsCmd)
}

// classifyOutput is the --json shape of classify.
type classifyOutput struct {
	domain.Classification
	TotalLines int      `json:"total_lines"`
	Links      []string `json:"links,omitempty"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	if contentService == nil {
		return errors.New("content service not configured")
	}

	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	d := contentService.Directive(text, previewLines())

	if classifyJSON {
		return printJSON(cmd, classifyOutput{
			Classification: domain.Classification{Kind: d.Kind, Language: d.Language},
			TotalLines:     d.TotalLines,
			Links:          d.Links,
		})
	}

	if classifyRender {
		r := newRenderer(cmd)
		cmd.Println(r.Header(d))
		cmd.Println(r.Render(d))
		return nil
	}

	cmd.Printf("Kind:     %s\n", d.Kind.Description())
	if d.Kind.HasLanguage() {
		cmd.Printf("Language: %s\n", d.Language)
	}
	cmd.Printf("Lines:    %d\n", d.TotalLines)
	if len(d.Links) > 0 {
		cmd.Println("Links:")
		for _, link := range d.Links {
			cmd.Printf("  %s\n", link)
		}
	}
	return nil
}

func runResolve(cmd *cobra.Command, _ []string) error {
	if promptService == nil {
		return errors.New("prompt service not configured")
	}

	var args []string
	if resolvePromptFile != "" {
		args = []string{resolvePromptFile}
	}
	prompt, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	attachments, err := loadAttachments(resolveAttachments)
	if err != nil {
		return err
	}

	if missing := promptService.Unresolved(prompt, attachments); len(missing) > 0 {
		labels := make([]string, len(missing))
		for i, n := range missing {
			labels[i] = "#" + fmt.Sprint(n)
		}
		cmd.PrintErrf("Warning: no attachment for %s\n", strings.Join(labels, ", "))
	}

	cmd.Print(promptService.Resolve(prompt, attachments))
	if !strings.HasSuffix(prompt, "\n") {
		cmd.Println()
	}
	return nil
}

func runAttachments(cmd *cobra.Command, args []string) error {
	if promptService == nil {
		return errors.New("prompt service not configured")
	}

	attachments, err := loadAttachments(args[0])
	if err != nil {
		return err
	}

	entries := promptService.FormatForDisplay(attachments)
	if attachmentsJSON {
		if entries == nil {
			entries = []domain.AttachmentEntry{}
		}
		return printJSON(cmd, entries)
	}

	if len(entries) == 0 {
		cmd.Println("No attachments found.")
		return nil
	}

	for i, entry := range entries {
		if i > 0 {
			cmd.Println()
		}
		cmd.Printf("--- %s ---\n", entry.Label)
		cmd.Println(entry.Content)
	}
	cmd.Printf("\nTotal: %d attachments\n", len(entries))
	return nil
}
