package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/chatdeploy/configurator/cli/cmd"
	"github.com/chatdeploy/configurator/cli/helpers"
	"github.com/chatdeploy/configurator/engine/bundle"
	"github.com/chatdeploy/configurator/engine/settings"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const (
	flagInput       = "input"
	flagInputFormat = "input-format"
	flagOut         = "out"
	flagInclude     = "include"
	flagSanitize    = "sanitize"
	flagName        = "name"
	flagDescription = "description"
	flagZip         = "zip"
)

// Result describes what generate wrote.
type Result struct {
	PackageName    string   `json:"packageName"`
	Path           string   `json:"path"`
	Files          []string `json:"files"`
	PendingSecrets []string `json:"pendingSecrets,omitempty"`
}

// NewGenerateCommand renders a deployment package to disk without a server.
func NewGenerateCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "generate",
		Short: "Generate a LibreChat deployment package",
		Long: `Generate .env, librechat.yaml, docker-compose.yml, install scripts and the
rest of a deployment package from a configuration file. Without --input the
defaults are used. Files are written to <out>/<package-name>/ or, with --zip,
to <out>/<package-name>.zip.`,
		Args: cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(cobraCmd, cmd.ModeHandlers{
				JSON: handleGenerateJSON,
				TUI:  handleGenerateTUI,
			}, args)
		},
	}
	f := c.Flags()
	f.StringP(flagInput, "i", "", "Source configuration (file, package directory or - for stdin)")
	f.String(flagInputFormat, "", "Input format hint (profile, yaml, env); detected when empty")
	f.StringP(flagOut, "o", ".", "Output directory")
	f.StringSlice(flagInclude, nil, "Artifacts to render (env, yaml, docker-compose, ...); all when empty")
	f.Bool(flagSanitize, false, "Replace secrets with placeholders")
	f.String(flagName, "", "Package name")
	f.String(flagDescription, "", "Package description")
	f.Bool(flagZip, false, "Write a zip archive instead of a directory")
	return c
}

type options struct {
	input       string
	inputFormat string
	out         string
	include     []string
	sanitize    bool
	name        string
	description string
	zip         bool
}

func readOptions(c *cobra.Command) (*options, error) {
	f := c.Flags()
	var (
		o   options
		err error
	)
	if o.input, err = f.GetString(flagInput); err != nil {
		return nil, err
	}
	if o.inputFormat, err = f.GetString(flagInputFormat); err != nil {
		return nil, err
	}
	if o.out, err = f.GetString(flagOut); err != nil {
		return nil, err
	}
	if o.include, err = f.GetStringSlice(flagInclude); err != nil {
		return nil, err
	}
	if o.sanitize, err = f.GetBool(flagSanitize); err != nil {
		return nil, err
	}
	if o.name, err = f.GetString(flagName); err != nil {
		return nil, err
	}
	if o.description, err = f.GetString(flagDescription); err != nil {
		return nil, err
	}
	if o.zip, err = f.GetBool(flagZip); err != nil {
		return nil, err
	}
	return &o, nil
}

// run generates and writes the package described by o.
func run(ctx context.Context, fs afero.Fs, stdin io.Reader, o *options) (*Result, error) {
	cfg, err := cmd.LoadConfiguration(fs, o.input, o.inputFormat, stdin)
	if err != nil {
		return nil, err
	}
	cfgMap, err := settings.ToMap(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	pkg, err := bundle.NewGenerate(nil, nil, nil).Execute(ctx, &bundle.Request{
		Configuration: cfgMap,
		IncludeFiles:  o.include,
		PackageName:   o.name,
		Description:   o.description,
		Sanitize:      o.sanitize,
	})
	if err != nil {
		return nil, err
	}
	if err := fs.MkdirAll(o.out, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	result := &Result{
		PackageName:    pkg.Name,
		Files:          pkg.FileNames(),
		PendingSecrets: pkg.PendingSecrets,
	}
	if o.zip {
		result.Path = filepath.Join(o.out, bundle.ArchiveName(pkg))
		return result, writeArchive(fs, result.Path, pkg)
	}
	result.Path = filepath.Join(o.out, pkg.Name)
	return result, writeFiles(fs, result.Path, pkg)
}

func writeArchive(fs afero.Fs, target string, pkg *bundle.Package) error {
	f, err := fs.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	if err := bundle.WriteArchive(f, pkg); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeFiles(fs afero.Fs, dir string, pkg *bundle.Package) error {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create package directory: %w", err)
	}
	for _, name := range pkg.FileNames() {
		mode := os.FileMode(0o644)
		if path.Ext(name) == ".sh" {
			mode = 0o755
		}
		if err := afero.WriteFile(fs, filepath.Join(dir, name), []byte(pkg.Files[name]), mode); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}

func handleGenerateJSON(ctx context.Context, c *cobra.Command, _ *cmd.CommandExecutor, _ []string) error {
	o, err := readOptions(c)
	if err != nil {
		return err
	}
	result, err := run(ctx, afero.NewOsFs(), c.InOrStdin(), o)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#06D6A0")).Bold(true)
	fileStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#118AB2"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD166"))
)

func handleGenerateTUI(ctx context.Context, c *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	o, err := readOptions(c)
	if err != nil {
		return err
	}
	result, err := run(ctx, afero.NewOsFs(), c.InOrStdin(), o)
	if err != nil {
		return err
	}
	render := func(style lipgloss.Style, s string) string {
		if !executor.UseColor() {
			return s
		}
		return style.Render(s)
	}
	var b strings.Builder
	n := len(result.Files)
	fmt.Fprintf(&b, "%s %s (%d %s)\n", render(successStyle, "✓ Generated"), result.Path, n,
		helpers.Pluralize(n, "file", "files"))
	for _, name := range result.Files {
		b.WriteString("  " + render(fileStyle, name) + "\n")
	}
	if len(result.PendingSecrets) > 0 {
		b.WriteString("\n" + render(warnStyle, "Secrets still to fill in:") + "\n")
		for _, key := range result.PendingSecrets {
			b.WriteString("  " + key + "\n")
		}
	}
	_, err = io.WriteString(c.OutOrStdout(), b.String())
	return err
}
