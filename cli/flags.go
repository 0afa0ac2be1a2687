package cli

import (
	"reflect"
	"time"

	"github.com/chatdeploy/configurator/pkg/config/definition"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// addConfigFlags exposes every registry field that declares a CLI flag, in
// registry order.
func addConfigFlags(fs *pflag.FlagSet) {
	for _, f := range definition.CreateRegistry().Fields() {
		if f.CLIFlag == "" || fs.Lookup(f.CLIFlag) != nil {
			continue
		}
		addFieldFlag(fs, f)
	}
}

func addFieldFlag(fs *pflag.FlagSet, f definition.FieldDef) {
	switch f.Type {
	case reflect.TypeOf(0):
		v, _ := f.Default.(int)
		fs.IntP(f.CLIFlag, f.Shorthand, v, f.Help)
	case reflect.TypeOf(int64(0)):
		v, _ := f.Default.(int64)
		fs.Int64P(f.CLIFlag, f.Shorthand, v, f.Help)
	case reflect.TypeOf(true):
		v, _ := f.Default.(bool)
		fs.BoolP(f.CLIFlag, f.Shorthand, v, f.Help)
	case reflect.TypeOf(time.Duration(0)):
		v, _ := f.Default.(time.Duration)
		fs.DurationP(f.CLIFlag, f.Shorthand, v, f.Help)
	case reflect.TypeOf([]string{}):
		v, _ := f.Default.([]string)
		fs.StringSliceP(f.CLIFlag, f.Shorthand, v, f.Help)
	default:
		v, _ := f.Default.(string)
		fs.StringP(f.CLIFlag, f.Shorthand, v, f.Help)
	}
}

// extractCLIFlags collects only the registry flags the user set explicitly,
// keyed by flag name for config.NewCLIProvider.
func extractCLIFlags(cmd *cobra.Command) map[string]any {
	flags := make(map[string]any)
	for flagName := range definition.CreateRegistry().GetCLIFlagMapping() {
		fs := flagSet(cmd, flagName)
		f := fs.Lookup(flagName)
		if f == nil || !f.Changed {
			continue
		}
		if value, ok := flagValue(fs, f); ok {
			flags[flagName] = value
		}
	}
	return flags
}

func flagValue(fs *pflag.FlagSet, f *pflag.Flag) (any, bool) {
	var (
		value any
		err   error
	)
	switch f.Value.Type() {
	case "int":
		value, err = fs.GetInt(f.Name)
	case "int64":
		value, err = fs.GetInt64(f.Name)
	case "bool":
		value, err = fs.GetBool(f.Name)
	case "duration":
		value, err = fs.GetDuration(f.Name)
	case "stringSlice":
		value, err = fs.GetStringSlice(f.Name)
	default:
		value, err = fs.GetString(f.Name)
	}
	return value, err == nil
}

// flagSet returns the set holding name. Persistent flags only join
// cmd.Flags() once cobra parses the command line.
func flagSet(cmd *cobra.Command, name string) *pflag.FlagSet {
	if cmd.Flags().Lookup(name) != nil {
		return cmd.Flags()
	}
	return cmd.PersistentFlags()
}
