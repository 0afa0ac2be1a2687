package schema

import (
	"context"
	"fmt"
	"os"

	"github.com/chatdeploy/configurator/cli/cmd"
	"github.com/chatdeploy/configurator/engine/settings"
	"github.com/spf13/cobra"
)

const flagOut = "out"

// NewSchemaCommand prints the JSON Schema of the configuration.
func NewSchemaCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "schema",
		Short: "Print the configuration JSON Schema",
		Args:  cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(cobraCmd, cmd.ModeHandlers{JSON: runSchema}, args)
		},
	}
	c.Flags().StringP(flagOut, "o", "", "Write the schema to a file instead of stdout")
	return c
}

func runSchema(_ context.Context, cobraCmd *cobra.Command, _ *cmd.CommandExecutor, _ []string) error {
	data, err := settings.JSONSchemaBytes()
	if err != nil {
		return fmt.Errorf("failed to build schema: %w", err)
	}
	out, err := cobraCmd.Flags().GetString(flagOut)
	if err != nil {
		return err
	}
	if out == "" {
		_, err = fmt.Fprintln(cobraCmd.OutOrStdout(), string(data))
		return err
	}
	if err := os.WriteFile(out, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write schema: %w", err)
	}
	return nil
}
