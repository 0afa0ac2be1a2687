package validate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/chatdeploy/configurator/cli/cmd"
	"github.com/chatdeploy/configurator/cli/helpers"
	"github.com/chatdeploy/configurator/engine/settings"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const (
	flagInput       = "input"
	flagInputFormat = "input-format"
)

// NewValidateCommand checks a configuration file, a generated package
// directory or stdin and reports per-category status.
func NewValidateCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "validate",
		Short: "Validate a LibreChat configuration",
		Long: `Validate a profile JSON, librechat.yaml, .env file or generated package
directory. Use "-" to read from stdin. Exits non-zero when the configuration
is invalid.`,
		Args: cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(cobraCmd, cmd.ModeHandlers{
				JSON: handleValidateJSON,
				TUI:  handleValidateTUI,
			}, args)
		},
	}
	c.Flags().StringP(flagInput, "i", "", "Configuration to validate (file, directory or - for stdin)")
	c.Flags().String(flagInputFormat, "", "Input format hint (profile, yaml, env); detected when empty")
	return c
}

func summarize(cobraCmd *cobra.Command) (settings.Summary, error) {
	input, err := cobraCmd.Flags().GetString(flagInput)
	if err != nil {
		return settings.Summary{}, err
	}
	hint, err := cobraCmd.Flags().GetString(flagInputFormat)
	if err != nil {
		return settings.Summary{}, err
	}
	cfg, err := cmd.LoadConfiguration(afero.NewOsFs(), input, hint, cobraCmd.InOrStdin())
	var verrs settings.ValidationErrors
	if err != nil && !errors.As(err, &verrs) {
		return settings.Summary{}, err
	}
	return settings.Summarize(cfg, verrs), nil
}

func invalidError(summary settings.Summary) error {
	n := len(summary.Errors)
	return helpers.NewCliError("VALIDATION_FAILED",
		fmt.Sprintf("configuration is invalid: %d %s", n, helpers.Pluralize(n, "error", "errors")))
}

func handleValidateJSON(_ context.Context, cobraCmd *cobra.Command, _ *cmd.CommandExecutor, _ []string) error {
	summary, err := summarize(cobraCmd)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cobraCmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return err
	}
	if !summary.Valid {
		return invalidError(summary)
	}
	return nil
}

func handleValidateTUI(_ context.Context, cobraCmd *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	summary, err := summarize(cobraCmd)
	if err != nil {
		return err
	}
	renderSummary(cobraCmd.OutOrStdout(), summary, executor.UseColor())
	if !summary.Valid {
		return invalidError(summary)
	}
	return nil
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	validStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#06D6A0"))
	invalidStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD166"))
)

func renderSummary(w io.Writer, summary settings.Summary, color bool) {
	render := func(style lipgloss.Style, s string) string {
		if !color {
			return s
		}
		return style.Render(s)
	}
	var b strings.Builder
	b.WriteString(render(headerStyle, "Configuration validation") + "\n\n")
	for _, st := range summary.Categories {
		var mark string
		switch st.Status {
		case settings.StatusValid:
			mark = render(validStyle, "✓ valid  ")
		case settings.StatusInvalid:
			mark = render(invalidStyle, "✗ invalid")
		default:
			mark = render(pendingStyle, "· pending")
		}
		fmt.Fprintf(&b, "%s  %-14s %d/%d\n", mark, st.Category, st.SettingsValid, st.SettingsTotal)
	}
	if len(summary.Errors) > 0 {
		b.WriteString("\n")
		for _, e := range summary.Errors {
			fmt.Fprintf(&b, "  %s %s\n", render(pathStyle, e.Path), e.Message)
		}
	}
	_, _ = io.WriteString(w, b.String())
}
