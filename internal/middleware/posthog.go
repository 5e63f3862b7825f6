package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// EventEnqueuer is the part of the PostHog sink the usage middleware needs.
type EventEnqueuer interface {
	IsInitialized() bool
	Enqueue(distinctID string, event string, properties map[string]any) error
}

// pathsToSkip contains paths that should not be tracked by PostHog
var pathsToSkip = map[string]bool{
	"/health": true,
}

// PosthogMiddleware creates a Gin middleware handler that tracks API events with PostHog
func PosthogMiddleware(client EventEnqueuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip if PostHog is not configured or the path is not tracked
		if client == nil || !client.IsInitialized() || pathsToSkip[c.Request.URL.Path] {
			c.Next()
			return
		}

		// Let the ledger handle the request first
		c.Next()

		// Only successful calls are usage
		if len(c.Errors) > 0 || c.Writer.Status() >= http.StatusBadRequest {
			return
		}

		// Set by the auth middleware
		userID, exists := GetUserIDFromContext(c)
		if !exists {
			return
		}

		// "/api/v1/entries/:entryID/post" -> "api_v1_entries_:entryID_post"
		eventName := strings.ReplaceAll(strings.TrimPrefix(c.FullPath(), "/"), "/", "_")
		if eventName == "" {
			// Unrouted request
			return
		}

		props := map[string]any{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
		}
		// Route parameters carry the entry, period or match id
		if len(c.Params) > 0 {
			params := make(map[string]string)
			for _, param := range c.Params {
				params[param.Key] = param.Value
			}
			props["params"] = params
		}

		// Delivery is best effort; a failure never affects the response
		if err := client.Enqueue(userID, eventName, props); err != nil {
			GetLoggerFromCtx(c.Request.Context()).Warn("Failed to enqueue usage event", slog.String("error", err.Error()))
		}
	}
}
