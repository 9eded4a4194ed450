package cors

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// Options configures the CORS middleware.
type Options struct {
	// AllowedOrigins lists permitted origins. Empty allows any origin.
	AllowedOrigins []string
	AllowedHeaders []string
	// ExposedHeaders are readable by browser scripts, e.g. Content-Disposition on report downloads.
	ExposedHeaders []string
	MaxAgeSeconds  int
}

// DefaultOptions returns the options used by the API for the given origins.
func DefaultOptions(allowedOrigins []string) Options {
	return Options{
		AllowedOrigins: allowedOrigins,
		AllowedHeaders: []string{"Content-Type", "X-Requested-With", "X-Request-ID", "X-User-ID"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-ID"},
		MaxAgeSeconds:  600,
	}
}

// New returns a CORS middleware for the given origins with the default options.
func New(allowedOrigins []string) gin.HandlerFunc {
	return WithOptions(DefaultOptions(allowedOrigins))
}

// WithOptions returns a CORS middleware. Preflight requests are answered with 204.
func WithOptions(opts Options) gin.HandlerFunc {
	allowAll := len(opts.AllowedOrigins) == 0
	originSet := make(map[string]struct{}, len(opts.AllowedOrigins))
	for _, origin := range opts.AllowedOrigins {
		originSet[strings.TrimRight(origin, "/")] = struct{}{}
	}
	allowHeaders := strings.Join(opts.AllowedHeaders, ", ")
	exposeHeaders := strings.Join(opts.ExposedHeaders, ", ")
	maxAge := strconv.Itoa(opts.MaxAgeSeconds)

	return func(c *gin.Context) {
		header := c.Writer.Header()
		origin := c.GetHeader("Origin")
		switch {
		case origin != "" && (allowAll || allowed(originSet, origin)):
			header.Set("Access-Control-Allow-Origin", origin)
			header.Set("Access-Control-Allow-Credentials", "true")
		case origin == "" && allowAll:
			header.Set("Access-Control-Allow-Origin", "*")
		}

		header.Set("Vary", "Origin")
		header.Set("Access-Control-Allow-Headers", allowHeaders)
		header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		if exposeHeaders != "" {
			header.Set("Access-Control-Expose-Headers", exposeHeaders)
		}
		if opts.MaxAgeSeconds > 0 {
			header.Set("Access-Control-Max-Age", maxAge)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func allowed(originSet map[string]struct{}, origin string) bool {
	_, ok := originSet[strings.TrimRight(origin, "/")]
	return ok
}
