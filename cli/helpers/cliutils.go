package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/chatdeploy/configurator/engine/settings"
)

// CliError represents a CLI-specific error with enhanced context
type CliError struct {
	Code      string                `json:"code"`
	Message   string                `json:"message"`
	Details   string                `json:"details,omitempty"`
	Fields    []settings.FieldError `json:"fields,omitempty"`
	Context   map[string]any        `json:"context,omitempty"`
	Timestamp time.Time             `json:"timestamp"`
}

func (e *CliError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewCliError(code, message string, details ...string) *CliError {
	err := &CliError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Context:   make(map[string]any),
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

func (e *CliError) WithContext(key string, value any) *CliError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// ValidationError wraps field errors so they print one per line.
func ValidationError(errs settings.ValidationErrors) *CliError {
	err := NewCliError("VALIDATION_FAILED",
		fmt.Sprintf("configuration is invalid: %d %s", len(errs), Pluralize(len(errs), "error", "errors")))
	err.Fields = errs
	return err
}

// AsCliError converts known domain errors into a CliError.
func AsCliError(err error) (*CliError, bool) {
	var cliErr *CliError
	if errors.As(err, &cliErr) {
		return cliErr, true
	}
	var verrs settings.ValidationErrors
	if errors.As(err, &verrs) {
		return ValidationError(verrs), true
	}
	return nil, false
}

func FormatError(err error, mode Mode) string {
	if err == nil {
		return ""
	}
	switch mode {
	case ModeJSON:
		return formatErrorJSON(err)
	case ModeTUI:
		return formatErrorTUI(err)
	default:
		return err.Error()
	}
}

func formatErrorJSON(err error) string {
	body := map[string]any{"error": err.Error()}
	if cliErr, ok := AsCliError(err); ok {
		body = map[string]any{"error": cliErr.Message, "code": cliErr.Code}
		if cliErr.Details != "" {
			body["details"] = cliErr.Details
		}
		if len(cliErr.Fields) > 0 {
			body["fields"] = cliErr.Fields
		}
	}
	data, mErr := json.MarshalIndent(body, "", "  ")
	if mErr != nil {
		return `{"error": "JSON marshaling failed"}`
	}
	return string(data)
}

var (
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true)
	pathStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD166"))
)

func formatErrorTUI(err error) string {
	message, details := err.Error(), ""
	var fields []settings.FieldError
	if cliErr, ok := AsCliError(err); ok {
		message, details, fields = cliErr.Message, cliErr.Details, cliErr.Fields
	}
	var b strings.Builder
	b.WriteString("✗ " + errorStyle.Render(message))
	if details != "" {
		b.WriteString("\n" + detailStyle.Render("Details: "+details))
	}
	for _, f := range fields {
		b.WriteString(fmt.Sprintf("\n  %s %s", pathStyle.Render(f.Path), f.Message))
	}
	return b.String()
}

// OutputError outputs an error to stderr in the appropriate format
func OutputError(err error, mode Mode) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, FormatError(err, mode))
}

// ReadInput reads a file, or standard input when path is "-".
func ReadInput(path string, stdin io.Reader) ([]byte, error) {
	if path == StdinPath {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, NewCliError("INPUT_ERROR", "failed to read standard input", err.Error())
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewCliError("INPUT_ERROR", fmt.Sprintf("failed to read %s", path), err.Error())
	}
	return data, nil
}

// Pluralize returns singular or plural form based on count
func Pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}

// FileExists checks if a file exists and is not a directory
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists checks if a directory exists
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
