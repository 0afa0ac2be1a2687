package config

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/chatdeploy/configurator/cli/cmd"
	"github.com/chatdeploy/configurator/pkg/config"
	"github.com/chatdeploy/configurator/pkg/config/definition"
	"github.com/chatdeploy/configurator/pkg/logger"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	flagOutput  = "output"
	flagSources = "sources"
	flagGroup   = "group"
	redacted    = "[REDACTED]"
)

// NewConfigCommand groups commands about the configurator's own settings.
func NewConfigCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configurator's runtime configuration",
	}
	c.AddCommand(NewConfigShowCommand())
	return c
}

func NewConfigShowCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration values",
		Long: `Display the effective configuration after defaults, the YAML file,
environment variables and flags are merged. Secrets are redacted.`,
		Args: cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(cobraCmd, cmd.ModeHandlers{JSON: handleConfigShow}, args)
		},
	}
	c.Flags().StringP(flagOutput, "o", "table", "Output format (json, yaml, table)")
	c.Flags().Bool(flagSources, false, "Show which source set each value")
	c.Flags().String(flagGroup, "", "Only show one section ("+strings.Join(definition.CreateRegistry().Groups(), ", ")+")")
	return c
}

func handleConfigShow(ctx context.Context, cobraCmd *cobra.Command, _ *cmd.CommandExecutor, _ []string) error {
	log := logger.FromContext(ctx)
	log.Debug("executing config show command")
	format, err := cobraCmd.Flags().GetString(flagOutput)
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	showSources, err := cobraCmd.Flags().GetBool(flagSources)
	if err != nil {
		return fmt.Errorf("failed to get sources flag: %w", err)
	}
	group, err := cobraCmd.Flags().GetString(flagGroup)
	if err != nil {
		return fmt.Errorf("failed to get group flag: %w", err)
	}
	manager := config.ManagerFromContext(ctx)
	flat, err := flattenConfig(manager.Get())
	if err != nil {
		return err
	}
	if flat, err = filterGroup(flat, group); err != nil {
		return err
	}
	var sources map[string]config.SourceType
	if showSources {
		sources = make(map[string]config.SourceType, len(flat))
		for key := range flat {
			sources[key] = manager.Service.GetSource(key)
		}
	}
	return formatConfigOutput(cobraCmd.OutOrStdout(), flat, sources, format)
}

// flattenConfig renders cfg as dotted keys with secrets redacted.
func flattenConfig(cfg *config.Config) (map[string]string, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(cfg, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to flatten configuration: %w", err)
	}
	out := make(map[string]string)
	for key, value := range k.All() {
		if config.IsSensitiveConfigPath(key) {
			if fmt.Sprint(value) != "" {
				out[key] = redacted
			} else {
				out[key] = ""
			}
			continue
		}
		out[key] = formatValue(value)
	}
	return out, nil
}

// filterGroup keeps the keys of one registry group. An empty group keeps all.
func filterGroup(flat map[string]string, group string) (map[string]string, error) {
	if group == "" {
		return flat, nil
	}
	groups := definition.CreateRegistry().Groups()
	if !slices.Contains(groups, group) {
		return nil, fmt.Errorf("unknown group %q: expected one of %s", group, strings.Join(groups, ", "))
	}
	out := make(map[string]string)
	for key, value := range flat {
		if strings.HasPrefix(key, group+".") {
			out[key] = value
		}
	}
	return out, nil
}

func formatValue(v any) string {
	switch t := v.(type) {
	case []string:
		return strings.Join(t, ",")
	case []any:
		parts := make([]string, len(t))
		for i, p := range t {
			parts[i] = fmt.Sprint(p)
		}
		return strings.Join(parts, ",")
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

func formatConfigOutput(w io.Writer, flat map[string]string, sources map[string]config.SourceType, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(document(flat, sources))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(document(flat, sources)); err != nil {
			return err
		}
		return enc.Close()
	case "table":
		return outputTable(w, flat, sources)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func document(flat map[string]string, sources map[string]config.SourceType) map[string]any {
	doc := map[string]any{"config": flat}
	if len(sources) > 0 {
		doc["sources"] = sources
	}
	return doc
}

func outputTable(w io.Writer, flat map[string]string, sources map[string]config.SourceType) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	if sources != nil {
		fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")
	} else {
		fmt.Fprintln(tw, "KEY\tVALUE")
	}
	for _, key := range keys {
		if sources != nil {
			source := sources[key]
			if source == "" {
				source = config.SourceDefault
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", key, flat[key], source)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\n", key, flat[key])
	}
	return tw.Flush()
}
