package generate

import (
	"bytes"
	"testing"

	"github.com/chatdeploy/configurator/engine/generator"
	"github.com/chatdeploy/configurator/engine/settings"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	t.Run("Should write every artifact from the defaults", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		result, err := run(t.Context(), fs, nil, &options{out: "/out"})
		require.NoError(t, err)
		assert.Equal(t, generator.DefaultPackageName, result.PackageName)
		assert.Equal(t, "/out/librechat", result.Path)
		assert.Len(t, result.Files, len(generator.DefaultRegistry().Names()))
		for _, name := range result.Files {
			ok, err := afero.Exists(fs, "/out/librechat/"+name)
			require.NoError(t, err)
			assert.True(t, ok, name)
		}
	})

	t.Run("Should render only the requested artifacts from a profile", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/in/team.json", []byte(`{"appTitle": "Team Chat"}`), 0o644))
		result, err := run(t.Context(), fs, nil, &options{
			input:   "/in/team.json",
			out:     "/out",
			include: []string{"env"},
			name:    "Team Chat",
		})
		require.NoError(t, err)
		assert.Equal(t, "team-chat", result.PackageName)
		assert.Equal(t, []string{".env"}, result.Files)
		assert.Contains(t, result.PendingSecrets, "OPENAI_API_KEY")
		env, err := afero.ReadFile(fs, "/out/team-chat/.env")
		require.NoError(t, err)
		assert.Contains(t, string(env), "Team Chat")
	})

	t.Run("Should read the configuration from stdin", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		result, err := run(t.Context(), fs, bytes.NewBufferString(`{"port": 4000}`), &options{
			input:       "-",
			inputFormat: "profile",
			out:         "/out",
			include:     []string{"env"},
		})
		require.NoError(t, err)
		env, err := afero.ReadFile(fs, result.Path+"/.env")
		require.NoError(t, err)
		assert.Contains(t, string(env), "4000")
	})

	t.Run("Should write a zip archive", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		result, err := run(t.Context(), fs, nil, &options{out: "/out", zip: true, include: []string{"env"}})
		require.NoError(t, err)
		assert.Equal(t, "/out/librechat.zip", result.Path)
		data, err := afero.ReadFile(fs, result.Path)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("PK")))
	})

	t.Run("Should refuse an invalid configuration without writing", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/in/bad.json", []byte(`{"port": 0}`), 0o644))
		_, err := run(t.Context(), fs, nil, &options{input: "/in/bad.json", out: "/out"})
		var verrs settings.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs.Paths(), "port")
		ok, err := afero.Exists(fs, "/out")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
