package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/pos-handoff/internal/ratelimit"
	"github.com/imrishuroy/pos-handoff/internal/staffauth"
)

const (
	staffIDKey      = "staffID"
	tooManyRequests = "Too many requests. Please wait and try again."
	tooManyLogins   = "Too many login attempts. Please wait and try again."
)

// RequestLogger emits one structured line per request.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.InfoContext(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"ip", c.ClientIP(),
		)
	}
}

// requireEnabled hides a route behind the handoff feature flag.
func requireEnabled(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"ok": false, "error": "Not found"})
			return
		}
		c.Next()
	}
}

// rateLimit admits requests per client ip within namespace.
func rateLimit(l ratelimit.Limiter, namespace string, limit ratelimit.Limit, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := l.Check(c.Request.Context(), namespace, clientKey(c), limit)
		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(res.RetryAfterSeconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"ok": false, "error": message})
			return
		}
		c.Next()
	}
}

func clientKey(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

// requireStaff verifies the staff session and stores the staff id on the
// context.
func requireStaff(signer *staffauth.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := signer.Verify(sessionToken(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "Unauthorized"})
			return
		}
		c.Set(staffIDKey, sess.StaffID)
		c.Next()
	}
}

// sessionToken reads the token from the session cookie, then from an
// Authorization bearer header.
func sessionToken(c *gin.Context) string {
	if v, err := c.Cookie(staffauth.CookieName); err == nil && v != "" {
		return v
	}
	if h := c.GetHeader("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// posCORS opens claim-pos to register integrations on other origins.
func posCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		h.Set("Access-Control-Max-Age", "86400")
		c.Next()
	}
}
