// Package cmd holds the shared execution plumbing for configurator commands.
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/chatdeploy/configurator/cli/helpers"
	"github.com/chatdeploy/configurator/pkg/config"
	"github.com/chatdeploy/configurator/pkg/logger"
	"github.com/spf13/cobra"
)

// CommandExecutor resolves the output mode once and dispatches to the handler
// for that mode.
type CommandExecutor struct {
	mode  helpers.Mode
	color bool
}

// HandlerFunc defines the signature for command handlers.
type HandlerFunc func(ctx context.Context, cmd *cobra.Command, executor *CommandExecutor, args []string) error

// ModeHandlers contains handlers for different execution modes.
type ModeHandlers struct {
	JSON HandlerFunc
	TUI  HandlerFunc
}

func NewCommandExecutor(cmd *cobra.Command) (*CommandExecutor, error) {
	ctx := cmd.Context()
	if config.ManagerFromContext(ctx) == nil {
		return nil, fmt.Errorf("configuration manager not found in context")
	}
	mode := helpers.DetectMode(cmd)
	logger.FromContext(ctx).Debug("detected execution mode", "mode", mode)
	return &CommandExecutor{mode: mode, color: helpers.ShouldUseColor(cmd)}, nil
}

// Execute runs the appropriate handler based on the detected mode.
func (e *CommandExecutor) Execute(ctx context.Context, cmd *cobra.Command, handlers ModeHandlers, args []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	switch e.mode {
	case helpers.ModeJSON:
		if handlers.JSON == nil {
			return fmt.Errorf("JSON mode handler not implemented")
		}
		return handlers.JSON(ctx, cmd, e, args)
	case helpers.ModeTUI:
		if handlers.TUI == nil && handlers.JSON != nil {
			return handlers.JSON(ctx, cmd, e, args)
		}
		if handlers.TUI == nil {
			return fmt.Errorf("TUI mode handler not implemented")
		}
		return handlers.TUI(ctx, cmd, e, args)
	default:
		return fmt.Errorf("unsupported mode: %s", e.mode)
	}
}

func (e *CommandExecutor) GetMode() helpers.Mode {
	return e.mode
}

// UseColor reports whether TUI output may carry ANSI styles.
func (e *CommandExecutor) UseColor() bool {
	return e.color
}

// ExecuteCommand is a convenience function that combines executor creation and execution.
func ExecuteCommand(cmd *cobra.Command, handlers ModeHandlers, args []string) error {
	executor, err := NewCommandExecutor(cmd)
	if err != nil {
		return HandleCommonErrors(err, helpers.DetectMode(cmd))
	}
	return HandleCommonErrors(executor.Execute(cmd.Context(), cmd, handlers, args), executor.GetMode())
}

// ReportedError marks an error that was already printed to the user.
type ReportedError struct {
	Err error
}

func (e *ReportedError) Error() string {
	return e.Err.Error()
}

func (e *ReportedError) Unwrap() error {
	return e.Err
}

// HandleCommonErrors prints err once in the command's mode and returns it so
// the process exits non-zero.
func HandleCommonErrors(err error, mode helpers.Mode) error {
	if err == nil {
		return nil
	}
	var reported *ReportedError
	if errors.As(err, &reported) {
		return err
	}
	if cliErr := categorizeError(err); cliErr != nil {
		err = cliErr
	}
	helpers.OutputError(err, mode)
	return &ReportedError{Err: err}
}

func categorizeError(err error) *helpers.CliError {
	switch {
	case errors.Is(err, context.Canceled):
		return helpers.NewCliError("OPERATION_CANCELED", "Operation was canceled by user")
	case errors.Is(err, context.DeadlineExceeded):
		return helpers.NewCliError("OPERATION_TIMEOUT", "Operation timed out")
	}
	if cliErr, ok := helpers.AsCliError(err); ok {
		return cliErr
	}
	return nil
}
