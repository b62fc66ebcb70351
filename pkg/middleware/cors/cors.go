package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
	allowedHeaders = "Authorization, Content-Type, X-Request-ID"
	exposedHeaders = "X-Request-ID, Content-Disposition"
)

// Policy decides which browser origins may call the API.
type Policy struct {
	origins map[string]struct{}
}

// NewPolicy normalises origins. An empty list allows every origin.
func NewPolicy(origins []string) Policy {
	set := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		if origin = normalise(origin); origin != "" {
			set[origin] = struct{}{}
		}
	}
	return Policy{origins: set}
}

// Allows reports whether origin may read responses.
func (p Policy) Allows(origin string) bool {
	if len(p.origins) == 0 {
		return true
	}
	_, ok := p.origins[normalise(origin)]
	return ok
}

// New returns the CORS middleware for the attendance UI.
func New(allowedOrigins []string) gin.HandlerFunc {
	policy := NewPolicy(allowedOrigins)

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Add("Vary", "Origin")

		origin := c.GetHeader("Origin")
		switch {
		case origin == "" && len(policy.origins) == 0:
			h.Set("Access-Control-Allow-Origin", "*")
		case origin != "" && policy.Allows(origin):
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		h.Set("Access-Control-Expose-Headers", exposedHeaders)

		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}

		h.Set("Access-Control-Allow-Methods", allowedMethods)
		h.Set("Access-Control-Allow-Headers", allowedHeaders)
		h.Set("Access-Control-Max-Age", "600")
		c.AbortWithStatus(http.StatusNoContent)
	}
}

func normalise(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}
