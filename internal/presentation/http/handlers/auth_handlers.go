package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alumnet/alumnet-go/internal/application/services"
	"github.com/alumnet/alumnet-go/internal/infrastructure/observability/logging"
)

// AuthHandlers issues session tokens. Identity verification against the
// alumni directory happens upstream; this endpoint trusts its caller and
// exists so local and staging environments can mint tokens.
type AuthHandlers struct {
	authService *services.AuthService
	logger      *logging.ChanneledLogger
}

func NewAuthHandlers(authService *services.AuthService, logger *logging.ChanneledLogger) *AuthHandlers {
	return &AuthHandlers{authService: authService, logger: logger}
}

// PostSession handles POST /api/v1/auth/session
func (h *AuthHandlers) PostSession(c *gin.Context) {
	var req struct {
		UserID   string `json:"userId" binding:"required"`
		UserName string `json:"userName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	token, err := h.authService.IssueSession(req.UserID, req.UserName)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
