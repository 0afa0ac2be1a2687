// Package cli wires the configurator commands to the configuration manager.
package cli

import (
	"fmt"

	configcmd "github.com/chatdeploy/configurator/cli/cmd/config"
	"github.com/chatdeploy/configurator/cli/cmd/generate"
	"github.com/chatdeploy/configurator/cli/cmd/schema"
	"github.com/chatdeploy/configurator/cli/cmd/serve"
	"github.com/chatdeploy/configurator/cli/cmd/validate"
	"github.com/chatdeploy/configurator/cli/helpers"
	"github.com/chatdeploy/configurator/pkg/config"
	"github.com/chatdeploy/configurator/pkg/logger"
	"github.com/chatdeploy/configurator/pkg/version"
	"github.com/spf13/cobra"
)

const (
	flagConfig        = "config"
	flagEnvFile       = "env-file"
	defaultConfigFile = "configurator.yaml"
	defaultEnvFile    = ".env"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "configurator",
		Short: "Generate, validate and deploy LibreChat configurations",
		Long: `configurator builds LibreChat configuration packages (.env, librechat.yaml,
docker-compose.yml and install scripts) from a single typed configuration.
Run "configurator serve" for the HTTP API or use the offline commands.`,
		Version:       version.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return SetupGlobalConfig(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if m := config.ManagerFromContext(cmd.Context()); m != nil {
				return m.Close(cmd.Context())
			}
			return nil
		},
	}
	pf := root.PersistentFlags()
	pf.StringP(flagConfig, "c", defaultConfigFile, "Path to the configurator YAML file")
	pf.String(flagEnvFile, defaultEnvFile, "Path to a .env file loaded before configuration")
	pf.String(helpers.FlagFormat, string(helpers.OutputFormatAuto), "Output format (auto, json, tui)")
	pf.Bool(helpers.FlagNoColor, false, "Disable colored output")
	addConfigFlags(pf)

	root.AddCommand(
		serve.NewServeCommand(),
		generate.NewGenerateCommand(),
		validate.NewValidateCommand(),
		schema.NewSchemaCommand(),
		configcmd.NewConfigCommand(),
	)
	return root
}

// SetupGlobalConfig loads the env file and the layered configuration, then
// attaches the manager and logger to the command context.
func SetupGlobalConfig(cmd *cobra.Command) error {
	if _, err := loadEnvFile(cmd); err != nil {
		return err
	}
	configFile, err := flagSet(cmd, flagConfig).GetString(flagConfig)
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	sources := []config.Source{config.NewDefaultProvider()}
	if configFile != "" {
		sources = append(sources, config.NewYAMLProvider(configFile))
	}
	sources = append(sources, config.NewEnvProvider(), config.NewCLIProvider(extractCLIFlags(cmd)))

	ctx := cmd.Context()
	manager := config.NewManager(nil)
	cfg, err := manager.Load(ctx, sources...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.SetupLogger(cfg.Runtime.LogLevel, cfg.Runtime.LogJSON, cfg.Runtime.LogSource)
	ctx = logger.ContextWithLogger(ctx, log)
	ctx = config.ContextWithManager(ctx, manager)
	cmd.SetContext(ctx)
	log.Debug("configuration loaded", "config_file", configFile, "environment", cfg.Runtime.Environment)
	return nil
}
