package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusOf(t *testing.T, report []ValidationStatus, c Category) ValidationStatus {
	t.Helper()
	for _, st := range report {
		if st.Category == c {
			return st
		}
	}
	require.Failf(t, "category missing", "%s", c)
	return ValidationStatus{}
}

func TestReport(t *testing.T) {
	t.Run("Should list every category in display order", func(t *testing.T) {
		report := Report(Default(), nil)
		require.Len(t, report, len(Categories))
		for i, st := range report {
			assert.Equal(t, Categories[i], st.Category)
			assert.NotNil(t, st.Errors)
		}
	})

	t.Run("Should mark categories with errors invalid", func(t *testing.T) {
		cfg := Default()
		cfg.Port = 0
		cfg.RAGPort = 70000
		report := Report(cfg, Validate(cfg))

		server := statusOf(t, report, CategoryServer)
		assert.Equal(t, StatusInvalid, server.Status)
		assert.Len(t, server.Errors, 2)
		assert.Equal(t, server.SettingsTotal-2, server.SettingsValid)
		assert.Equal(t, StatusValid, statusOf(t, report, CategorySecurity).Status)
	})

	t.Run("Should mark untouched categories pending", func(t *testing.T) {
		report := Report(Default(), nil)
		assert.Equal(t, StatusPending, statusOf(t, report, CategoryMCP).Status)
		assert.Equal(t, StatusPending, statusOf(t, report, CategoryActions).Status)
		assert.Equal(t, StatusValid, statusOf(t, report, CategoryServer).Status)
	})

	t.Run("Should count a list field once however many items fail", func(t *testing.T) {
		cfg := Default()
		cfg.ActionsAllowedDomains = []string{"bad one", "bad two"}
		errs := Validate(cfg)
		actions := statusOf(t, Report(cfg, errs), CategoryActions)
		assert.Len(t, actions.Errors, 2)
		assert.Equal(t, 1, actions.SettingsTotal)
		assert.Equal(t, 0, actions.SettingsValid)
	})

	t.Run("Should keep totals in step with the schema", func(t *testing.T) {
		total := 0
		for _, st := range Report(Default(), nil) {
			total += st.SettingsTotal
		}
		assert.Equal(t, len(Fields()), total)
	})
}

func TestSummarize(t *testing.T) {
	t.Run("Should report valid with an empty error list", func(t *testing.T) {
		s := Summarize(Default(), nil)
		assert.True(t, s.Valid)
		assert.NotNil(t, s.Errors)
		assert.Len(t, s.Categories, len(Categories))
	})
}

func TestCategoryOf(t *testing.T) {
	t.Run("Should resolve nested and indexed paths", func(t *testing.T) {
		assert.Equal(t, CategorySearch, CategoryOf("webSearch.searchProvider"))
		assert.Equal(t, CategoryMCP, CategoryOf("mcpServers[3].url"))
		assert.Equal(t, CategoryEndpoints, CategoryOf("stt.model"))
		assert.Equal(t, Category(""), CategoryOf(RootPath))
	})
}
