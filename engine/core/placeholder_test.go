package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScreamingSnake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"jwtSecret", "JWT_SECRET"},
		{"openaiApiKey", "OPENAI_API_KEY"},
		{"credsIV", "CREDS_IV"},
		{"webSearch.serperApiKey", "WEB_SEARCH_SERPER_API_KEY"},
		{"stt.apiKey", "STT_API_KEY"},
		{"my-endpoint.apiKey", "MY_ENDPOINT_API_KEY"},
		{"HTTPServer", "HTTP_SERVER"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ScreamingSnake(tt.in))
		})
	}
}

func TestPlaceholder(t *testing.T) {
	t.Run("Should round trip through IsPlaceholder", func(t *testing.T) {
		p := Placeholder("OPENAI_API_KEY")
		assert.Equal(t, "{{OPENAI_API_KEY}}", p)
		assert.True(t, IsPlaceholder(p))
	})
	t.Run("Should not treat regular values as placeholders", func(t *testing.T) {
		assert.False(t, IsPlaceholder("sk-123"))
		assert.False(t, IsPlaceholder("{{lower}}"))
		assert.False(t, IsPlaceholder("prefix {{A}}"))
	})
}
