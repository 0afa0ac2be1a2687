package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chatdeploy/configurator/engine/core"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	return c, w
}

func TestParseStrongETag(t *testing.T) {
	t.Run("Should return empty string when header missing", func(t *testing.T) {
		etag, err := ParseStrongETag("")
		require.NoError(t, err)
		assert.Equal(t, "", etag)
	})
	t.Run("Should trim quotes and return value", func(t *testing.T) {
		etag, err := ParseStrongETag("\"abc123\"")
		require.NoError(t, err)
		assert.Equal(t, "abc123", etag)
	})
	t.Run("Should use first value when multiple provided", func(t *testing.T) {
		etag, err := ParseStrongETag("\"first\", \"second\"")
		require.NoError(t, err)
		assert.Equal(t, "first", etag)
	})
	for _, header := range []string{"W/\"weak\"", "*", "\"\"", "unquoted"} {
		t.Run("Should reject "+header, func(t *testing.T) {
			_, err := ParseStrongETag(header)
			assert.Error(t, err)
		})
	}
}

func TestParamID(t *testing.T) {
	t.Run("Should accept a canonical UUID", func(t *testing.T) {
		c, _ := testContext(http.MethodGet, "/", "")
		id := core.MustNewID()
		c.Params = gin.Params{{Key: "id", Value: id.String()}}
		got, err := ParamID(c, "id")
		require.NoError(t, err)
		assert.Equal(t, id, got)
	})

	t.Run("Should reject a path traversal attempt with 400", func(t *testing.T) {
		c, _ := testContext(http.MethodGet, "/", "")
		c.Params = gin.Params{{Key: "id", Value: "../local-secrets"}}
		_, err := ParamID(c, "id")
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, Classify(err).StatusCode)
	})
}

func TestBindJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("Should decode a body", func(t *testing.T) {
		c, _ := testContext(http.MethodPost, "/", `{"name":"a","extra":1}`)
		var p payload
		require.NoError(t, BindJSON(c, &p, false))
		assert.Equal(t, "a", p.Name)
	})

	t.Run("Should reject unknown fields in strict mode", func(t *testing.T) {
		c, _ := testContext(http.MethodPost, "/", `{"name":"a","extra":1}`)
		var p payload
		err := BindJSON(c, &p, true)
		assert.Equal(t, http.StatusBadRequest, Classify(err).StatusCode)
	})

	t.Run("Should reject an empty body", func(t *testing.T) {
		c, _ := testContext(http.MethodPost, "/", "  ")
		var p payload
		err := BindJSON(c, &p, false)
		assert.Equal(t, http.StatusBadRequest, Classify(err).StatusCode)
	})

	t.Run("Should report an oversized body as 413", func(t *testing.T) {
		c, w := testContext(http.MethodPost, "/", `{"name":"`+strings.Repeat("x", 64)+`"}`)
		c.Request.Body = http.MaxBytesReader(w, c.Request.Body, 16)
		var p payload
		err := BindJSON(c, &p, false)
		assert.Equal(t, http.StatusRequestEntityTooLarge, Classify(err).StatusCode)
	})
}

func TestQueryHelpers(t *testing.T) {
	t.Run("Should parse booleans with a default", func(t *testing.T) {
		c, _ := testContext(http.MethodGet, "/?sanitize=true", "")
		v, err := ParseBoolQuery(c, "sanitize", false)
		require.NoError(t, err)
		assert.True(t, v)

		v, err = ParseBoolQuery(c, "missing", true)
		require.NoError(t, err)
		assert.True(t, v)

		c, _ = testContext(http.MethodGet, "/?sanitize=maybe", "")
		_, err = ParseBoolQuery(c, "sanitize", false)
		assert.Error(t, err)
	})

	t.Run("Should cap the limit", func(t *testing.T) {
		c, _ := testContext(http.MethodGet, "/?limit=500", "")
		v, err := ParseLimitQuery(c, 10, 100)
		require.NoError(t, err)
		assert.Equal(t, 100, v)

		c, _ = testContext(http.MethodGet, "/", "")
		v, err = ParseLimitQuery(c, 10, 100)
		require.NoError(t, err)
		assert.Equal(t, 10, v)

		c, _ = testContext(http.MethodGet, "/?limit=-1", "")
		_, err = ParseLimitQuery(c, 10, 100)
		assert.Error(t, err)
	})

	t.Run("Should split list values", func(t *testing.T) {
		assert.Equal(t, []string{"env", "yaml"}, ParseListQuery(" env, ,yaml "))
		assert.Nil(t, ParseListQuery(""))
	})
}

func TestRespondWithError(t *testing.T) {
	t.Run("Should write the classified body and abort", func(t *testing.T) {
		c, w := testContext(http.MethodGet, "/", "")
		RespondWithError(c, NewRequestError(http.StatusNotFound, "profile not found", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.True(t, c.IsAborted())
		assert.JSONEq(t, `{"error":"profile not found","code":"NOT_FOUND"}`, w.Body.String())
	})

	t.Run("Should report missing app state as 500", func(t *testing.T) {
		c, w := testContext(http.MethodGet, "/", "")
		assert.Nil(t, GetAppState(c))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), ErrMsgAppStateNotInitialized)
	})
}
