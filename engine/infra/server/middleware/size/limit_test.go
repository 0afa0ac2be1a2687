package size

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newEngine(limit int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(BodySizeLimiter(limit))
	r.POST("/echo", func(c *gin.Context) {
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too large")
			return
		}
		c.String(http.StatusOK, string(data))
	})
	return r
}

func TestBodySizeLimiter(t *testing.T) {
	t.Run("Should pass bodies within the limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		newEngine(16).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("small")))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "small", w.Body.String())
	})

	t.Run("Should reject a declared length over the limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		newEngine(4).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("too long body")))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "PAYLOAD_TOO_LARGE")
	})

	t.Run("Should stop streamed bodies at the limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("streamed body"))
		req.ContentLength = -1
		w := httptest.NewRecorder()
		newEngine(4).ServeHTTP(w, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}
