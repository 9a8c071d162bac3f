package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	allowHeaders  = strings.Join([]string{"Authorization", "Content-Type", "X-Requested-With", "X-Request-ID", "X-Time-Zone", "Last-Event-ID"}, ", ")
	exposeHeaders = strings.Join([]string{"X-Request-ID", "Content-Disposition"}, ", ")
	allowMethods  = strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}, ", ")
)

// New returns CORS middleware for the calendar clients. An empty list, or a list containing
// "*", reflects any origin. Credentials are allowed so EventSource can send cookies.
func New(allowedOrigins []string) gin.HandlerFunc {
	origins := make(map[string]struct{}, len(allowedOrigins))
	allowAll := len(allowedOrigins) == 0
	for _, origin := range allowedOrigins {
		origin = strings.TrimRight(origin, "/")
		if origin == "*" {
			allowAll = true
		}
		origins[origin] = struct{}{}
	}
	permitted := func(origin string) bool {
		if allowAll {
			return true
		}
		_, ok := origins[strings.TrimRight(origin, "/")]
		return ok
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Add("Vary", "Origin")

		origin := c.GetHeader("Origin")
		switch {
		case origin != "" && permitted(origin):
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
		case origin == "" && allowAll:
			h.Set("Access-Control-Allow-Origin", "*")
		}
		h.Set("Access-Control-Expose-Headers", exposeHeaders)

		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}
		h.Set("Access-Control-Allow-Headers", allowHeaders)
		h.Set("Access-Control-Allow-Methods", allowMethods)
		h.Set("Access-Control-Max-Age", "600")
		c.AbortWithStatus(http.StatusNoContent)
	}
}
