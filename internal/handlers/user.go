package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dvms-arcade-backend/internal/middleware"
	"dvms-arcade-backend/internal/models"
	"dvms-arcade-backend/internal/services"
)

type UserHandler struct {
	games  *services.GameService
	logger *zap.Logger
}

func NewUserHandler(games *services.GameService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		games:  games,
		logger: logger,
	}
}

// GetUserData returns the raw {balance, inventory} record.
func (h *UserHandler) GetUserData(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)

	user, err := h.games.UserData(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) SaveUserData(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)

	var req models.SaveUserDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}

	data := &models.UserData{
		Balance:   *req.Balance,
		Inventory: req.Inventory,
	}
	if err := h.games.SaveUserData(c.Request.Context(), userID, data); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, models.SaveUserDataResponse{
		Success: true,
		Message: "User data saved",
	})
}
