// Package handlers provides HTTP handlers for the presentation layer.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alumnet/alumnet-go/internal/application/services"
)

// respondError maps service sentinels to HTTP statuses. Missing and
// expired content share 404 so callers cannot probe for expired items.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, services.ErrInvalidContent):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// originConn returns the caller's websocket connection ID so the caller's
// own session can be excluded from the echo of its action.
func originConn(c *gin.Context) string {
	return c.GetHeader("X-Connection-ID")
}
