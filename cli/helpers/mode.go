package helpers

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var ciVars = []string{
	"CI",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"CIRCLECI",
	"BUILDKITE",
	"JENKINS_URL",
	"TF_BUILD",
	"CODEBUILD_BUILD_ID",
	"CONTINUOUS_INTEGRATION",
}

func isRunningInCI() bool {
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func isInteractiveEnvironment() bool {
	if isRunningInCI() {
		return false
	}
	if !isTerminal(os.Stdout) {
		return false
	}
	term := os.Getenv("TERM")
	return term != "dumb" && term != ""
}

// DetectMode honors an explicit --format and otherwise picks TUI only for an
// interactive terminal.
func DetectMode(cmd *cobra.Command) Mode {
	if cmd != nil {
		if format, err := cmd.Flags().GetString(FlagFormat); err == nil {
			switch OutputFormat(format) {
			case OutputFormatJSON:
				return ModeJSON
			case OutputFormatTUI:
				return ModeTUI
			}
		}
	}
	if isInteractiveEnvironment() {
		return ModeTUI
	}
	return ModeJSON
}

// ShouldUseColor respects --no-color and NO_COLOR before probing the terminal.
func ShouldUseColor(cmd *cobra.Command) bool {
	if cmd != nil {
		if noColor, err := cmd.Flags().GetBool(FlagNoColor); err == nil && noColor {
			return false
		}
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isInteractiveEnvironment()
}
