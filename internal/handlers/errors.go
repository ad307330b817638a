package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/pos-handoff/internal/catalog"
	"github.com/imrishuroy/pos-handoff/internal/handoff"
	"github.com/imrishuroy/pos-handoff/internal/staffauth"
)

// statusFor maps a domain error to an HTTP status and the message shown to
// clients. Unknown errors become a generic 500.
func statusFor(err error) (int, string) {
	var (
		stateErr    *handoff.StateError
		upstreamErr *catalog.UpstreamError
	)
	switch {
	case errors.Is(err, handoff.ErrStoreNotAllowed):
		return http.StatusForbidden, "Store is not allowed for handoff"
	case errors.Is(err, handoff.ErrInvalidItems):
		return http.StatusBadRequest, "No valid items provided"
	case errors.Is(err, handoff.ErrInvalidCode):
		return http.StatusBadRequest, "Missing handoff code"
	case errors.Is(err, handoff.ErrNotFound):
		return http.StatusNotFound, "Handoff not found"
	case errors.Is(err, handoff.ErrAlreadyClaimed):
		return http.StatusConflict, "Handoff is claimed"
	case errors.Is(err, handoff.ErrExpired):
		return http.StatusGone, "Handoff has expired"
	case errors.As(err, &stateErr):
		return http.StatusConflict, "Handoff is " + string(stateErr.Status)
	case errors.Is(err, handoff.ErrCodeExhausted):
		return http.StatusInternalServerError, "Failed to create handoff"
	case errors.Is(err, staffauth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, staffauth.ErrInvalidToken), errors.Is(err, staffauth.ErrExpiredToken):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, staffauth.ErrNotConfigured):
		return http.StatusInternalServerError, "Staff auth is not configured"
	case errors.Is(err, catalog.ErrNotConfigured):
		return http.StatusBadRequest, "Missing Shopify credentials"
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound, "No product found"
	case errors.As(err, &upstreamErr):
		return http.StatusBadGateway, upstreamErr.Message
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// writeError logs server-side failures and writes {ok:false,error}.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(c.Request.Context(), "request failed",
			"path", c.FullPath(),
			"status", status,
			"error", err,
		)
	}
	c.AbortWithStatusJSON(status, gin.H{"ok": false, "error": msg})
}
