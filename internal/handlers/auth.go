package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dvms-arcade-backend/internal/models"
	"dvms-arcade-backend/internal/services"
)

type AuthHandler struct {
	jwtService *services.JWTService
	logger     *zap.Logger
}

func NewAuthHandler(jwtService *services.JWTService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		jwtService: jwtService,
		logger:     logger,
	}
}

// Guest issues a token for a new player id.
func (h *AuthHandler) Guest(c *gin.Context) {
	userID := models.GenerateGuestID()

	token, expiresAt, err := h.jwtService.GenerateToken(userID)
	if err != nil {
		h.logger.Error("failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate token",
			"code":  "INTERNAL",
		})
		return
	}

	h.logger.Info("guest session created", zap.String("user_id", userID))
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"user_id":    userID,
		"expires_at": expiresAt,
	})
}
