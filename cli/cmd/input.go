package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chatdeploy/configurator/cli/helpers"
	"github.com/chatdeploy/configurator/engine/importer"
	"github.com/chatdeploy/configurator/engine/settings"
	"github.com/spf13/afero"
)

// bundleFiles are the generated files a directory input is rebuilt from.
var bundleFiles = []string{"configuration-profile.json", ".env", "librechat.yaml"}

// LoadConfiguration resolves an --input value. An empty path yields the
// defaults, a directory is read as a previously generated package and
// anything else is imported with the given format hint. When the input
// parses but is invalid the configuration is returned with the
// settings.ValidationErrors.
func LoadConfiguration(fs afero.Fs, path, hint string, stdin io.Reader) (*settings.Configuration, error) {
	if path == "" {
		return settings.Default(), nil
	}
	if path != helpers.StdinPath {
		if isDir, _ := afero.IsDir(fs, path); isDir {
			return loadBundleDir(fs, path)
		}
	}
	var (
		data []byte
		err  error
	)
	if path == helpers.StdinPath {
		data, err = helpers.ReadInput(path, stdin)
	} else {
		data, err = afero.ReadFile(fs, path)
		if err != nil {
			err = helpers.NewCliError("INPUT_ERROR", fmt.Sprintf("failed to read %s", path), err.Error())
		}
	}
	if err != nil {
		return nil, err
	}
	if hint == "" && path != helpers.StdinPath {
		if _, err := importer.ParseFormat(filepath.Base(path)); err == nil {
			hint = filepath.Base(path)
		}
	}
	cfg, _, err := importer.Import(data, hint)
	return cfg, wrapImportError(err)
}

func loadBundleDir(fs afero.Fs, dir string) (*settings.Configuration, error) {
	files := make(map[string][]byte)
	for _, name := range bundleFiles {
		data, err := afero.ReadFile(fs, filepath.Join(dir, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, helpers.NewCliError("INPUT_ERROR", fmt.Sprintf("failed to read %s", name), err.Error())
		}
		files[name] = data
	}
	cfg, err := importer.ImportBundle(files)
	return cfg, wrapImportError(err)
}

func wrapImportError(err error) error {
	if err == nil {
		return nil
	}
	var verrs settings.ValidationErrors
	if errors.As(err, &verrs) {
		return err
	}
	return helpers.NewCliError("IMPORT_FAILED", "failed to import configuration", err.Error())
}
