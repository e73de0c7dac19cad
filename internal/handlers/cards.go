package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dvms-arcade-backend/internal/middleware"
	"dvms-arcade-backend/internal/models"
	"dvms-arcade-backend/internal/services"
)

type CardHandler struct {
	games  *services.GameService
	logger *zap.Logger
}

func NewCardHandler(games *services.GameService, logger *zap.Logger) *CardHandler {
	return &CardHandler{
		games:  games,
		logger: logger,
	}
}

// Roll draws a card server-side into the player's inventory.
func (h *CardHandler) Roll(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)

	result, err := h.games.Roll(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *CardHandler) GetRollStatus(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)

	status, err := h.games.RollStatus(userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

func (h *CardHandler) GetCards(c *gin.Context) {
	c.JSON(http.StatusOK, h.games.Cards())
}

func (h *CardHandler) GetCardImages(c *gin.Context) {
	c.JSON(http.StatusOK, h.games.CardImages())
}

func (h *CardHandler) Sell(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)

	var req models.SellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}

	result, err := h.games.Sell(c.Request.Context(), userID, req.CardID, req.Quantity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}

func (h *CardHandler) SellAll(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)

	result, err := h.games.SellAll(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}
