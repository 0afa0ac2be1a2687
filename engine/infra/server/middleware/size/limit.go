package size

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodySizeLimiter caps request bodies at limit bytes. Reads past the cap fail
// with *http.MaxBytesError, which handlers report as 413.
func BodySizeLimiter(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "request body too large",
				"code":  "PAYLOAD_TOO_LARGE",
			})
			return
		}
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
