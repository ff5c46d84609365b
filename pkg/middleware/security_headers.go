package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeaders sets the response headers appropriate for an internal
// JSON-only API. There is no HTML to protect, so the policy boils down to:
// never interpret a response as anything but data, and never cache it,
// because analysis responses carry payment details.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Prevent MIME type sniffing of JSON bodies
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")

		// API responses are never embeddable
		c.Writer.Header().Set("X-Frame-Options", "DENY")
		c.Writer.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		// Nothing here links anywhere, so leak no referrer either
		c.Writer.Header().Set("Referrer-Policy", "no-referrer")

		// Payment data must not land in shared caches
		c.Writer.Header().Set("Cache-Control", "no-store")

		c.Next()
	}
}
