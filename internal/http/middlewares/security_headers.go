package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// API responses never embed content; the docs page loads Swagger UI from unpkg.
const (
	apiCSP  = "default-src 'none'; frame-ancestors 'none'"
	docsCSP = "default-src 'self'; frame-ancestors 'none'; object-src 'none'; " +
		"img-src 'self' data: https:; connect-src 'self'; " +
		"style-src 'self' 'unsafe-inline' https://unpkg.com; script-src 'self' 'unsafe-inline' https://unpkg.com"
)

var baseSecurityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "no-referrer"},
	{"Cross-Origin-Opener-Policy", "same-origin"},
	{"Cache-Control", "no-cache"},
}

func SecurityHeaders(env string) gin.HandlerFunc {
	hsts := env == "prod"

	return func(c *gin.Context) {
		h := c.Writer.Header()
		for _, kv := range baseSecurityHeaders {
			h.Set(kv[0], kv[1])
		}

		if hsts {
			h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}

		csp := apiCSP
		if strings.HasPrefix(c.Request.URL.Path, "/docs") {
			csp = docsCSP
		}
		h.Set("Content-Security-Policy", csp)

		c.Next()
	}
}
