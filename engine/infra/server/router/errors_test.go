package router

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/chatdeploy/configurator/engine/bundle"
	"github.com/chatdeploy/configurator/engine/deployment"
	"github.com/chatdeploy/configurator/engine/generator"
	"github.com/chatdeploy/configurator/engine/importer"
	"github.com/chatdeploy/configurator/engine/settings"
	"github.com/chatdeploy/configurator/engine/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", settings.ValidationErrors{{Path: "port", Message: "must be at most 65535"}}, 400, ErrValidationCode},
		{"profile not found", fmt.Errorf("get: %w", store.ErrProfileNotFound), 404, ErrNotFoundCode},
		{"history not found", store.ErrHistoryNotFound, 404, ErrNotFoundCode},
		{"deployment not found", deployment.ErrNotFound, 404, ErrNotFoundCode},
		{"invalid patch", store.ErrInvalidPatch, 400, ErrBadRequestCode},
		{"unknown artifact", fmt.Errorf("%w: helm", generator.ErrUnknownArtifact), 400, ErrBadRequestCode},
		{"empty import", importer.ErrEmptyInput, 400, ErrBadRequestCode},
		{"unsupported import", importer.ErrUnsupportedFormat, 400, ErrBadRequestCode},
		{"malformed import", fmt.Errorf("%w: failed to parse librechat.yaml", importer.ErrMalformedInput), 400, ErrBadRequestCode},
		{"bad transition", deployment.ErrInvalidTransition, 409, ErrConflictCode},
		{"queue full", deployment.ErrQueueFull, 503, ErrServiceUnavailableCode},
		{"generation", fmt.Errorf("%w: boom", bundle.ErrGenerationFailed), 500, ErrGenerationCode},
		{"too large", &http.MaxBytesError{Limit: 10}, 413, ErrPayloadTooLargeCode},
		{"unknown", errors.New("disk on fire"), 500, ErrInternalCode},
	}
	for _, tc := range cases {
		t.Run("Should map "+tc.name, func(t *testing.T) {
			got := Classify(tc.err)
			assert.Equal(t, tc.status, got.StatusCode)
			assert.Equal(t, tc.code, got.Code)
			var want settings.ValidationErrors
			if errors.As(tc.err, &want) {
				var verrs settings.ValidationErrors
				require.ErrorAs(t, got, &verrs)
				assert.Equal(t, want, verrs)
				return
			}
			assert.ErrorIs(t, got, tc.err)
		})
	}

	t.Run("Should keep an existing request error", func(t *testing.T) {
		orig := NewRequestError(http.StatusConflict, "taken", nil)
		assert.Same(t, orig, Classify(fmt.Errorf("wrapped: %w", orig)))
	})
}

func TestRequestErrorInfo(t *testing.T) {
	t.Run("Should list field errors for validation failures", func(t *testing.T) {
		verrs := settings.ValidationErrors{{Path: "port", Message: "must be at least 1", Category: "Server"}}
		info := Classify(verrs).Info()
		require.Len(t, info.Fields, 1)
		assert.Equal(t, "port", info.Fields[0].Path)
		assert.Equal(t, "configuration is invalid", info.Error)
		assert.Contains(t, info.Details, "port: must be at least 1")
	})

	t.Run("Should redact secrets from details", func(t *testing.T) {
		err := errors.New("dial mongodb://admin:hunter2@db:27017 failed")
		info := Classify(err).Info()
		assert.NotContains(t, info.Details, "hunter2")
		assert.Equal(t, ErrInternalCode, info.Code)
	})

	t.Run("Should omit details when there is no cause", func(t *testing.T) {
		info := NewRequestError(http.StatusBadRequest, "limit must be positive", nil).Info()
		assert.Empty(t, info.Details)
		assert.Equal(t, ErrBadRequestCode, info.Code)
		assert.Equal(t, "limit must be positive", info.Error)
	})
}
